package dto

// NodeMetricsRequest is a metric sample reported by a node agent.
type NodeMetricsRequest struct {
	CPUUsage          float64 `json:"cpu_usage" validate:"gte=0,lte=100"`
	MemoryUsage       float64 `json:"memory_usage" validate:"gte=0,lte=100"`
	DiskUsage         float64 `json:"disk_usage" validate:"gte=0,lte=100"`
	NetworkThroughput float64 `json:"network_throughput" validate:"gte=0"`
	ActiveConnections *int    `json:"active_connections,omitempty" validate:"omitempty,gte=0"`
	UsedBytes         *int64  `json:"used_bytes,omitempty" validate:"omitempty,gte=0"`
	UptimeSeconds     *int64  `json:"uptime_seconds,omitempty" validate:"omitempty,gte=0"`
}
