package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleUser    UserRole = "USER"
	RoleManager UserRole = "MANAGER"
	RoleViewer  UserRole = "VIEWER"
)

// Permission is a fine-grained capability granted to a user.
type Permission string

const (
	PermissionRead         Permission = "READ"
	PermissionWrite        Permission = "WRITE"
	PermissionDelete       Permission = "DELETE"
	PermissionManageUsers  Permission = "MANAGE_USERS"
	PermissionViewLogs     Permission = "VIEW_LOGS"
	PermissionManageSystem Permission = "MANAGE_SYSTEM"
)

// AvailableRoles lists every role a user may hold.
func AvailableRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleUser, RoleManager, RoleViewer}
}

// AvailablePermissions lists every grantable permission.
func AvailablePermissions() []Permission {
	return []Permission{
		PermissionRead,
		PermissionWrite,
		PermissionDelete,
		PermissionManageUsers,
		PermissionViewLogs,
		PermissionManageSystem,
	}
}

// User represents an account stored in the users table.
type User struct {
	ID          string         `db:"id" json:"id" yaml:"id"`
	Name        string         `db:"name" json:"name" yaml:"name" validate:"required"`
	Email       string         `db:"email" json:"email" yaml:"email" validate:"required,email"`
	Roles       pq.StringArray `db:"roles" json:"roles" yaml:"roles"`
	Permissions pq.StringArray `db:"permissions" json:"permissions" yaml:"permissions"`
	Active      bool           `db:"active" json:"active" yaml:"active"`
	LastLogin   *time.Time     `db:"last_login" json:"last_login,omitempty" yaml:"last_login,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at" yaml:"created_at"`
}

// PrimaryRole returns the first role held by the user.
func (u User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// ActivityLog records an action performed by or on behalf of a user.
type ActivityLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}
