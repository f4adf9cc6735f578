package models

import (
	"time"

	"github.com/lib/pq"
)

// File permissions granted on upload.
const (
	FilePermissionRead   = "read"
	FilePermissionWrite  = "write"
	FilePermissionDelete = "delete"
)

// File describes a stored file. Content lives on the storage nodes; only metadata is kept here.
type File struct {
	ID           string         `db:"id" json:"id" yaml:"id"`
	Name         string         `db:"name" json:"name" yaml:"name" validate:"required"`
	Type         string         `db:"type" json:"type" yaml:"type"`
	Size         int64          `db:"size" json:"size" yaml:"size" validate:"gte=0"`
	LastModified time.Time      `db:"last_modified" json:"last_modified" yaml:"last_modified"`
	Owner        string         `db:"owner" json:"owner" yaml:"owner"`
	Permissions  pq.StringArray `db:"permissions" json:"permissions" yaml:"permissions"`
	Path         string         `db:"path" json:"path" yaml:"path"`
	Version      int            `db:"version" json:"version" yaml:"version" validate:"gte=0"`
	Replicas     int            `db:"replicas" json:"replicas" yaml:"replicas" validate:"gte=0"`
}

// FileVersion is one entry of a file's version history.
type FileVersion struct {
	ID        string    `db:"id" json:"id"`
	FileID    string    `db:"file_id" json:"file_id"`
	Version   int       `db:"version" json:"version"`
	Size      int64     `db:"size" json:"size"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Current   bool      `db:"current" json:"current"`
}
