package dto

// CreateMetadataRequest captures POST /metadata payload.
type CreateMetadataRequest struct {
	FileID   *string  `json:"file_id,omitempty"`
	Filename string   `json:"filename" validate:"required,max=255"`
	Type     string   `json:"type" validate:"omitempty,max=64"`
	Size     int64    `json:"size" validate:"gte=0"`
	Owner    string   `json:"owner" validate:"omitempty,max=255"`
	Tags     []string `json:"tags" validate:"omitempty,dive,required,max=64"`
	Version  string   `json:"version" validate:"omitempty,max=32"`
}

// UpdateMetadataRequest captures PUT /metadata/:id payload. Nil fields are left untouched.
type UpdateMetadataRequest struct {
	Filename *string  `json:"filename,omitempty" validate:"omitempty,min=1,max=255"`
	Type     *string  `json:"type,omitempty" validate:"omitempty,min=1,max=64"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,required,max=64"`
	Version  *string  `json:"version,omitempty" validate:"omitempty,min=1,max=32"`
}
