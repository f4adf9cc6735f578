package service

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

type fileRepository interface {
	FindByID(ctx context.Context, id string) (*models.File, error)
	Create(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, id string) error
	ListVersions(ctx context.Context, fileID string) ([]models.FileVersion, error)
	RestoreVersion(ctx context.Context, fileID string, version int, at time.Time) error
}

// collectionInvalidator drops a cached record collection after a mutation.
type collectionInvalidator interface {
	Invalidate(ctx context.Context)
}

// FileServiceConfig sizes the lookup cache.
type FileServiceConfig struct {
	LookupCacheSize int
	LookupCacheTTL  time.Duration
}

// FileService manages file records and their version history.
type FileService struct {
	repo      fileRepository
	views     collectionInvalidator
	lookup    *expirable.LRU[string, *models.File]
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFileService constructs a FileService.
func NewFileService(repo fileRepository, views collectionInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg FileServiceConfig) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.LookupCacheSize <= 0 {
		cfg.LookupCacheSize = 1024
	}
	if cfg.LookupCacheTTL <= 0 {
		cfg.LookupCacheTTL = time.Minute
	}
	return &FileService{
		repo:      repo,
		views:     views,
		lookup:    expirable.NewLRU[string, *models.File](cfg.LookupCacheSize, nil, cfg.LookupCacheTTL),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a file by id.
func (s *FileService) Get(ctx context.Context, id string) (*models.File, error) {
	if file, ok := s.lookup.Get(id); ok {
		s.metrics.RecordLookup(true)
		clone := *file
		return &clone, nil
	}
	s.metrics.RecordLookup(false)

	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	s.lookup.Add(id, file)
	clone := *file
	return &clone, nil
}

// Upload registers a new file owned by owner. The type is detected from the extension.
func (s *FileService) Upload(ctx context.Context, req dto.UploadFileRequest, owner string) (*models.File, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file payload")
	}
	dir := req.Path
	if dir == "" {
		dir = "/"
	}
	replicas := req.Replicas
	if replicas == 0 {
		replicas = 1
	}
	file := &models.File{
		Name:         req.Name,
		Type:         viewmodel.DetectFileType(req.Name),
		Size:         req.Size,
		LastModified: s.now(),
		Owner:        owner,
		Permissions:  []string{models.FilePermissionRead, models.FilePermissionWrite, models.FilePermissionDelete},
		Path:         path.Clean(dir),
		Version:      1,
		Replicas:     replicas,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create file")
	}
	s.views.Invalidate(ctx)
	s.logger.Info("file uploaded", zap.String("file_id", file.ID), zap.String("owner", owner), zap.Int64("size", file.Size))
	return file, nil
}

// Delete removes a file and its versions.
func (s *FileService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file")
	}
	s.lookup.Remove(id)
	s.views.Invalidate(ctx)
	return nil
}

// Versions lists the stored versions of a file, newest first.
func (s *FileService) Versions(ctx context.Context, id string) ([]models.FileVersion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list file versions")
	}
	if versions == nil {
		versions = []models.FileVersion{}
	}
	return versions, nil
}

// RestoreVersion makes version the current version of the file.
func (s *FileService) RestoreVersion(ctx context.Context, id string, version int) (*models.File, error) {
	if version <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "version must be positive")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.RestoreVersion(ctx, id, version, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore file version")
	}
	s.lookup.Remove(id)
	s.views.Invalidate(ctx)
	return s.Get(ctx, id)
}
