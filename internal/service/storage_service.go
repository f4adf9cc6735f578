package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
)

type collectionSource[T any] interface {
	Collection(ctx context.Context) ([]T, error)
}

// StorageService reports cluster capacity and replication health.
type StorageService struct {
	files  collectionSource[models.File]
	nodes  collectionSource[models.Node]
	engine *viewmodel.Engine[models.File]
	target int
	logger *zap.Logger
	now    func() time.Time
}

// NewStorageService constructs a StorageService. replicationTarget is the
// number of copies a file type needs to be healthy.
func NewStorageService(files collectionSource[models.File], nodes collectionSource[models.Node], engine *viewmodel.Engine[models.File], replicationTarget int, logger *zap.Logger) *StorageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if replicationTarget <= 0 {
		replicationTarget = 3
	}
	return &StorageService{
		files:  files,
		nodes:  nodes,
		engine: engine,
		target: replicationTarget,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Overview builds the storage report from the current file and node collections.
func (s *StorageService) Overview(ctx context.Context) (*models.StorageOverview, error) {
	nodes, err := s.nodes.Collection(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.files.Collection(ctx)
	if err != nil {
		return nil, err
	}

	overview := &models.StorageOverview{
		TotalFiles:  len(files),
		Nodes:       make([]models.NodeStorage, 0, len(nodes)),
		Files:       s.engine.Aggregate(files),
		GeneratedAt: s.now(),
	}
	for _, node := range nodes {
		overview.TotalCapacity += node.CapacityBytes
		overview.UsedStorage += node.UsedBytes
		overview.Nodes = append(overview.Nodes, models.NodeStorage{
			NodeID:   node.ID,
			Name:     node.Name,
			Used:     node.UsedBytes,
			Capacity: node.CapacityBytes,
		})
	}
	for _, file := range files {
		if file.Replicas > 1 {
			overview.ReplicatedFiles++
		}
	}
	overview.Replication = s.replication(files)
	s.logger.Debug("storage overview computed", zap.Int("nodes", len(nodes)), zap.Int("files", len(files)))
	return overview, nil
}

// ReplicationHealth classifies a copy count against the target.
func (s *StorageService) ReplicationHealth(copies int) models.ReplicationHealth {
	switch {
	case copies >= s.target:
		return models.ReplicationHealthy
	case copies == s.target-1:
		return models.ReplicationWarning
	default:
		return models.ReplicationCritical
	}
}

// replication reports, per file type in first-seen order, the lowest replica count.
func (s *StorageService) replication(files []models.File) []models.ReplicationStatus {
	index := make(map[string]int)
	out := make([]models.ReplicationStatus, 0)
	for _, file := range files {
		i, ok := index[file.Type]
		if !ok {
			index[file.Type] = len(out)
			out = append(out, models.ReplicationStatus{FileType: file.Type, Copies: file.Replicas})
			i = len(out) - 1
		}
		out[i].Files++
		out[i].Copies = min(out[i].Copies, file.Replicas)
	}
	for i := range out {
		out[i].Status = s.ReplicationHealth(out[i].Copies)
	}
	return out
}
