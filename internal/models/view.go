package models

// Tab selects a predefined subset of a collection before sorting and paging.
type Tab string

const (
	TabAll    Tab = "all"
	TabRecent Tab = "recent"
	TabMine   Tab = "mine"
)

// SortDirection orders a sorted view.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// TypeAll disables the type filter.
const TypeAll = "all"

// ViewParameters is the complete, serializable state of a list view.
type ViewParameters struct {
	Search   string            `json:"search,omitempty" yaml:"search,omitempty"`
	Type     string            `json:"type,omitempty" yaml:"type,omitempty"`
	Tab      Tab               `json:"tab,omitempty" yaml:"tab,omitempty"`
	SortBy   string            `json:"sort_by,omitempty" yaml:"sort_by,omitempty"`
	SortDir  SortDirection     `json:"sort_dir,omitempty" yaml:"sort_dir,omitempty"`
	Page     int               `json:"page" yaml:"page"`
	PageSize int               `json:"page_size" yaml:"page_size"`
	Filters  map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// DefaultViewParameters returns the state a view starts with.
func DefaultViewParameters(pageSize int) ViewParameters {
	return ViewParameters{
		Type:     TypeAll,
		Tab:      TabAll,
		Page:     0,
		PageSize: pageSize,
	}
}

// Aggregates summarises a record collection.
type Aggregates struct {
	Count       int            `json:"count" yaml:"count"`
	TotalSize   int64          `json:"total_size" yaml:"total_size"`
	UniqueTypes int            `json:"unique_types" yaml:"unique_types"`
	UniqueTags  int            `json:"unique_tags" yaml:"unique_tags"`
	ByType      map[string]int `json:"by_type" yaml:"by_type"`
}

// ViewPage is the payload returned by view endpoints.
type ViewPage[T any] struct {
	Items    []T         `json:"items"`
	Stats    Aggregates  `json:"stats"`
	Overview *Aggregates `json:"overview,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
