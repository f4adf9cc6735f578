package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type metricPruner interface {
	PruneMetrics(ctx context.Context, cutoff time.Time) (int64, error)
}

type exportCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// MaintenanceConfig schedules housekeeping.
type MaintenanceConfig struct {
	Schedule        string
	MetricRetention time.Duration
}

// MaintenanceReport summarises one housekeeping run.
type MaintenanceReport struct {
	PrunedMetrics  int64
	RemovedExports int
}

// MaintenanceService runs periodic housekeeping on a cron schedule.
type MaintenanceService struct {
	metrics metricPruner
	exports exportCleaner
	cfg     MaintenanceConfig
	logger  *zap.Logger
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewMaintenanceService constructs the service. exports may be nil when exports are disabled.
func NewMaintenanceService(metrics metricPruner, exports exportCleaner, cfg MaintenanceConfig, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.MetricRetention <= 0 {
		cfg.MetricRetention = 24 * time.Hour
	}
	return &MaintenanceService{
		metrics: metrics,
		exports: exports,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the housekeeping job and starts the scheduler.
func (s *MaintenanceService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	log := cronLogger{s.logger.Sugar()}
	c := cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)))
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule maintenance %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("maintenance scheduled", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("maintenance stopped")
}

// RunOnce prunes metric history past the retention window and expired exports.
func (s *MaintenanceService) RunOnce(ctx context.Context) (MaintenanceReport, error) {
	var report MaintenanceReport
	if s.metrics != nil {
		pruned, err := s.metrics.PruneMetrics(ctx, s.now().Add(-s.cfg.MetricRetention))
		if err != nil {
			return report, fmt.Errorf("prune node metrics: %w", err)
		}
		report.PrunedMetrics = pruned
	}
	if s.exports != nil {
		removed, err := s.exports.CleanupExpired(ctx)
		if err != nil {
			return report, fmt.Errorf("cleanup exports: %w", err)
		}
		report.RemovedExports = removed
	}
	s.logger.Debug("maintenance run finished",
		zap.Int64("pruned_metrics", report.PrunedMetrics),
		zap.Int("removed_exports", report.RemovedExports),
	)
	return report, nil
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
