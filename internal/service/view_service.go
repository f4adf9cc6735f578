package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
	"github.com/noah-isme/stellarfs-api/pkg/cache"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

// RecordStore is the data-fetch collaborator behind a view.
type RecordStore[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// ViewConfig tunes view defaults and the collection cache.
type ViewConfig struct {
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// ViewResult is a computed view page plus the overview of the whole collection.
type ViewResult[T any] struct {
	Items      []T
	Total      int
	Stats      models.Aggregates
	Overview   models.Aggregates
	Params     models.ViewParameters
	Pagination models.Pagination
	Cached     bool
}

// ViewService loads a record collection and derives views from it.
type ViewService[T any] struct {
	store   RecordStore[T]
	engine  *viewmodel.Engine[T]
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ViewConfig
}

// NewViewService constructs a view service for one record kind.
func NewViewService[T any](store RecordStore[T], engine *viewmodel.Engine[T], cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg ViewConfig) *ViewService[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &ViewService[T]{store: store, engine: engine, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// Engine exposes the engine the service computes views with.
func (s *ViewService[T]) Engine() *viewmodel.Engine[T] {
	return s.engine
}

// View computes the page described by params for currentUser.
// A zero page size selects the configured default; larger sizes are capped.
func (s *ViewService[T]) View(ctx context.Context, params models.ViewParameters, currentUser string) (*ViewResult[T], error) {
	if params.PageSize == 0 {
		params.PageSize = s.cfg.DefaultPageSize
	}
	if params.PageSize > s.cfg.MaxPageSize {
		params.PageSize = s.cfg.MaxPageSize
	}
	if err := s.engine.Validate(params); err != nil {
		return nil, mapEngineError(err)
	}

	records, cached, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.engine.Compute(records, params, currentUser)
	if err != nil {
		return nil, mapEngineError(err)
	}
	overview := s.engine.Aggregate(records)
	s.metrics.ObserveViewCompute(s.engine.Kind(), time.Since(start))

	return &ViewResult[T]{
		Items:    result.Items,
		Total:    result.Total,
		Stats:    result.Stats,
		Overview: overview,
		Params:   result.Params,
		Pagination: models.Pagination{
			Page:       result.Params.Page,
			PageSize:   result.Params.PageSize,
			TotalCount: result.Total,
		},
		Cached: cached,
	}, nil
}

// Collection returns the full record collection, from cache when possible.
func (s *ViewService[T]) Collection(ctx context.Context) ([]T, error) {
	records, _, err := s.load(ctx)
	return records, err
}

func (s *ViewService[T]) load(ctx context.Context) ([]T, bool, error) {
	key := s.cacheKey()
	var records []T
	if s.cache.Get(ctx, key, &records) {
		return records, true, nil
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(s.engine.Kind()))
	}
	if records == nil {
		records = []T{}
	}
	s.cache.Set(ctx, key, records, s.cfg.CacheTTL)
	return records, false, nil
}

// Invalidate drops the cached collection. Mutations of the kind call it.
func (s *ViewService[T]) Invalidate(ctx context.Context) {
	s.cache.Delete(ctx, s.cacheKey())
}

func (s *ViewService[T]) cacheKey() string {
	return cache.Key("view", string(s.engine.Kind()), "collection")
}

func mapEngineError(err error) error {
	var invalid *viewmodel.InvalidParameterError
	if errors.As(err, &invalid) {
		appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, invalid.Error())
		return appErrors.WithDetails(appErr, map[string]string{"param": invalid.Param, "value": invalid.Value})
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute view")
}
