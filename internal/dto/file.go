package dto

// UploadFileRequest registers a file. Content transfer happens out of band;
// only the descriptive fields are stored.
type UploadFileRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Size     int64  `json:"size" validate:"gte=0"`
	Path     string `json:"path" validate:"omitempty,startswith=/"`
	Replicas int    `json:"replicas" validate:"gte=0,lte=16"`
}
