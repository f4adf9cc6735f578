package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

type nodeRepository interface {
	List(ctx context.Context) ([]models.Node, error)
	FindByID(ctx context.Context, id string) (*models.Node, error)
	Update(ctx context.Context, node *models.Node) error
	InsertMetric(ctx context.Context, metric *models.NodeMetric) error
	ListMetrics(ctx context.Context, nodeID string, since time.Time) ([]models.NodeMetric, error)
}

// NodeServiceConfig holds the health thresholds, in percent.
type NodeServiceConfig struct {
	WarningThreshold  float64
	CriticalThreshold float64
	MetricRetention   time.Duration
}

// NodeService tracks node health and operator actions.
type NodeService struct {
	repo      nodeRepository
	views     collectionInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       NodeServiceConfig
	now       func() time.Time
}

// NewNodeService constructs a NodeService.
func NewNodeService(repo nodeRepository, views collectionInvalidator, validate *validator.Validate, logger *zap.Logger, cfg NodeServiceConfig) *NodeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.WarningThreshold <= 0 {
		cfg.WarningThreshold = 80
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = 90
	}
	if cfg.MetricRetention <= 0 {
		cfg.MetricRetention = 24 * time.Hour
	}
	return &NodeService{
		repo:      repo,
		views:     views,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a node by id.
func (s *NodeService) Get(ctx context.Context, id string) (*models.Node, error) {
	node, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "node not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load node")
	}
	return node, nil
}

// ReportMetrics stores a metric sample and re-derives the node status.
func (s *NodeService) ReportMetrics(ctx context.Context, id string, req dto.NodeMetricsRequest) (*models.Node, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics payload")
	}
	node, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	node.CPUUsage = req.CPUUsage
	node.MemoryUsage = req.MemoryUsage
	node.DiskUsage = req.DiskUsage
	node.NetworkThroughput = req.NetworkThroughput
	if req.ActiveConnections != nil {
		node.ActiveConnections = *req.ActiveConnections
	}
	if req.UsedBytes != nil {
		node.UsedBytes = *req.UsedBytes
	}
	if req.UptimeSeconds != nil {
		node.UptimeSeconds = *req.UptimeSeconds
	}
	node.LastUpdated = now
	node.Status = s.DeriveStatus(node.Status, node.CPUUsage, node.MemoryUsage)

	metric := &models.NodeMetric{
		NodeID:            node.ID,
		CPUUsage:          node.CPUUsage,
		MemoryUsage:       node.MemoryUsage,
		DiskUsage:         node.DiskUsage,
		NetworkThroughput: node.NetworkThroughput,
		RecordedAt:        now,
	}
	if err := s.repo.InsertMetric(ctx, metric); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store node metrics")
	}
	if err := s.save(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// DeriveStatus applies the health thresholds to a node currently in status current.
// Paused and offline nodes keep their status.
func (s *NodeService) DeriveStatus(current models.NodeStatus, cpu, memory float64) models.NodeStatus {
	switch {
	case current == models.NodeStatusPaused || current == models.NodeStatusOffline:
		return current
	case cpu > s.cfg.CriticalThreshold || memory > s.cfg.CriticalThreshold:
		return models.NodeStatusCritical
	case cpu > s.cfg.WarningThreshold || memory > s.cfg.WarningThreshold:
		return models.NodeStatusWarning
	default:
		return models.NodeStatusOnline
	}
}

// Action applies an operator command to a node.
func (s *NodeService) Action(ctx context.Context, id string, action models.NodeAction) (*models.Node, error) {
	node, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch action {
	case models.NodeActionRestart:
		node.Status = models.NodeStatusOnline
		node.CPUUsage = 0
		node.MemoryUsage = 0
		node.NetworkThroughput = 0
		node.ActiveConnections = 0
		node.UptimeSeconds = 0
	case models.NodeActionPause:
		node.Status = models.NodeStatusPaused
	case models.NodeActionResume:
		node.Status = s.DeriveStatus(models.NodeStatusOnline, node.CPUUsage, node.MemoryUsage)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown node action %q", action))
	}
	node.LastUpdated = s.now()
	if err := s.save(ctx, node); err != nil {
		return nil, err
	}
	s.logger.Info("node action applied", zap.String("node_id", node.ID), zap.String("action", string(action)), zap.String("status", string(node.Status)))
	return node, nil
}

// MetricHistory returns one metric of a node over the last hours, oldest first.
func (s *NodeService) MetricHistory(ctx context.Context, id, metric string, hours int) ([]models.MetricPoint, error) {
	pick, ok := metricSelectors[metric]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown metric %q", metric))
	}
	if hours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hours must be positive")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	window := time.Duration(hours) * time.Hour
	if window > s.cfg.MetricRetention {
		window = s.cfg.MetricRetention
	}
	samples, err := s.repo.ListMetrics(ctx, id, s.now().Add(-window))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metric history")
	}
	points := make([]models.MetricPoint, 0, len(samples))
	for _, sample := range samples {
		points = append(points, models.MetricPoint{Timestamp: sample.RecordedAt, Value: pick(sample)})
	}
	return points, nil
}

// Summary aggregates the health of every node.
func (s *NodeService) Summary(ctx context.Context) (*models.NodeSummary, error) {
	nodes, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list nodes")
	}
	summary := &models.NodeSummary{
		TotalNodes:  len(nodes),
		ByStatus:    make(map[models.NodeStatus]int),
		GeneratedAt: s.now(),
	}
	var cpu, memory, disk float64
	for _, node := range nodes {
		summary.ByStatus[node.Status]++
		cpu += node.CPUUsage
		memory += node.MemoryUsage
		disk += node.DiskUsage
		summary.TotalConnections += node.ActiveConnections
		summary.TotalThroughput += node.NetworkThroughput
	}
	if n := float64(len(nodes)); n > 0 {
		summary.AverageCPU = cpu / n
		summary.AverageMemory = memory / n
		summary.AverageDisk = disk / n
	}
	return summary, nil
}

func (s *NodeService) save(ctx context.Context, node *models.Node) error {
	if err := s.repo.Update(ctx, node); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "node not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update node")
	}
	s.views.Invalidate(ctx)
	return nil
}

var metricSelectors = map[string]func(models.NodeMetric) float64{
	"cpu":     func(m models.NodeMetric) float64 { return m.CPUUsage },
	"memory":  func(m models.NodeMetric) float64 { return m.MemoryUsage },
	"disk":    func(m models.NodeMetric) float64 { return m.DiskUsage },
	"network": func(m models.NodeMetric) float64 { return m.NetworkThroughput },
}
