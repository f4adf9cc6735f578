package dto

// UpdateUserRequest captures PUT /users/:id payload. Nil fields are left untouched.
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Active *bool   `json:"active,omitempty"`
}

// UpdateRolesRequest replaces the roles of a user.
type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,required"`
}

// UpdatePermissionsRequest replaces the permissions of a user.
type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,required"`
}
