package models

import "time"

// NodeStatus is the health state of a storage node.
type NodeStatus string

const (
	NodeStatusOnline   NodeStatus = "online"
	NodeStatusWarning  NodeStatus = "warning"
	NodeStatusCritical NodeStatus = "critical"
	NodeStatusOffline  NodeStatus = "offline"
	NodeStatusPaused   NodeStatus = "paused"
)

// NodeAction is an operator command sent to a node.
type NodeAction string

const (
	NodeActionRestart NodeAction = "restart"
	NodeActionPause   NodeAction = "pause"
	NodeActionResume  NodeAction = "resume"
)

// Node is a storage node of the cluster.
type Node struct {
	ID                string     `db:"id" json:"id" yaml:"id"`
	Name              string     `db:"name" json:"name" yaml:"name" validate:"required"`
	IPAddress         string     `db:"ip_address" json:"ip_address" yaml:"ip_address" validate:"omitempty,ip"`
	Status            NodeStatus `db:"status" json:"status" yaml:"status"`
	CPUUsage          float64    `db:"cpu_usage" json:"cpu_usage" yaml:"cpu_usage" validate:"gte=0,lte=100"`
	MemoryUsage       float64    `db:"memory_usage" json:"memory_usage" yaml:"memory_usage" validate:"gte=0,lte=100"`
	DiskUsage         float64    `db:"disk_usage" json:"disk_usage" yaml:"disk_usage" validate:"gte=0,lte=100"`
	NetworkThroughput float64    `db:"network_throughput" json:"network_throughput" yaml:"network_throughput" validate:"gte=0"`
	ActiveConnections int        `db:"active_connections" json:"active_connections" yaml:"active_connections" validate:"gte=0"`
	CapacityBytes     int64      `db:"capacity_bytes" json:"capacity_bytes" yaml:"capacity_bytes" validate:"gte=0"`
	UsedBytes         int64      `db:"used_bytes" json:"used_bytes" yaml:"used_bytes" validate:"gte=0"`
	LastUpdated       time.Time  `db:"last_updated" json:"last_updated" yaml:"last_updated"`
	Location          string     `db:"location" json:"location" yaml:"location"`
	NodeType          string     `db:"node_type" json:"node_type" yaml:"node_type"`
	UptimeSeconds     int64      `db:"uptime_seconds" json:"uptime_seconds" yaml:"uptime_seconds" validate:"gte=0"`
}

// NodeMetric is one sample of a node's metric history.
type NodeMetric struct {
	ID                int64     `db:"id" json:"-"`
	NodeID            string    `db:"node_id" json:"node_id"`
	CPUUsage          float64   `db:"cpu_usage" json:"cpu_usage"`
	MemoryUsage       float64   `db:"memory_usage" json:"memory_usage"`
	DiskUsage         float64   `db:"disk_usage" json:"disk_usage"`
	NetworkThroughput float64   `db:"network_throughput" json:"network_throughput"`
	RecordedAt        time.Time `db:"recorded_at" json:"recorded_at"`
}

// MetricPoint is a single value of a metric time series.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// NodeSummary aggregates the health of the whole cluster.
type NodeSummary struct {
	TotalNodes       int                `json:"total_nodes"`
	ByStatus         map[NodeStatus]int `json:"by_status"`
	AverageCPU       float64            `json:"average_cpu"`
	AverageMemory    float64            `json:"average_memory"`
	AverageDisk      float64            `json:"average_disk"`
	TotalConnections int                `json:"total_connections"`
	TotalThroughput  float64            `json:"total_throughput"`
	GeneratedAt      time.Time          `json:"generated_at"`
}
