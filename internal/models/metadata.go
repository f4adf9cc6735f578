package models

import (
	"time"

	"github.com/lib/pq"
)

// MetadataEntry is the catalogued metadata of a file, including free-form tags.
type MetadataEntry struct {
	ID       string         `db:"id" json:"id" yaml:"id"`
	FileID   *string        `db:"file_id" json:"file_id,omitempty" yaml:"file_id,omitempty"`
	Filename string         `db:"filename" json:"filename" yaml:"filename" validate:"required"`
	Type     string         `db:"type" json:"type" yaml:"type" validate:"required"`
	Size     int64          `db:"size" json:"size" yaml:"size" validate:"gte=0"`
	Created  time.Time      `db:"created" json:"created" yaml:"created"`
	Modified time.Time      `db:"modified" json:"modified" yaml:"modified"`
	Owner    string         `db:"owner" json:"owner" yaml:"owner"`
	Tags     pq.StringArray `db:"tags" json:"tags" yaml:"tags"`
	Version  string         `db:"version" json:"version" yaml:"version"`
}
