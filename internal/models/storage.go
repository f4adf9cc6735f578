package models

import "time"

// ReplicationHealth classifies how well a file type is replicated.
type ReplicationHealth string

const (
	ReplicationHealthy  ReplicationHealth = "healthy"
	ReplicationWarning  ReplicationHealth = "warning"
	ReplicationCritical ReplicationHealth = "critical"
)

// NodeStorage reports the storage usage of a single node.
type NodeStorage struct {
	NodeID   string `json:"node_id"`
	Name     string `json:"name"`
	Used     int64  `json:"used"`
	Capacity int64  `json:"capacity"`
}

// ReplicationStatus is the replication state of one file type.
type ReplicationStatus struct {
	FileType string            `json:"file_type"`
	Copies   int               `json:"copies"`
	Files    int               `json:"files"`
	Status   ReplicationHealth `json:"status"`
}

// StorageOverview is the cluster-wide storage report.
type StorageOverview struct {
	TotalCapacity   int64               `json:"total_capacity"`
	UsedStorage     int64               `json:"used_storage"`
	TotalFiles      int                 `json:"total_files"`
	ReplicatedFiles int                 `json:"replicated_files"`
	Nodes           []NodeStorage       `json:"nodes"`
	Replication     []ReplicationStatus `json:"replication"`
	Files           Aggregates          `json:"files"`
	GeneratedAt     time.Time           `json:"generated_at"`
}
