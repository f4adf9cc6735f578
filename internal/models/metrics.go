package models

import "time"

// SystemMetrics is a point-in-time snapshot of the process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	FileLookupHits           uint64    `json:"file_lookup_hits"`
	FileLookupMisses         uint64    `json:"file_lookup_misses"`
	ViewComputations         uint64    `json:"view_computations"`
	AverageViewComputeMs     float64   `json:"average_view_compute_ms"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ExportsFinished          uint64    `json:"exports_finished"`
	ExportsFailed            uint64    `json:"exports_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
