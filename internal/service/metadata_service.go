package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

type metadataRepository interface {
	FindByID(ctx context.Context, id string) (*models.MetadataEntry, error)
	Create(ctx context.Context, entry *models.MetadataEntry) error
	Update(ctx context.Context, entry *models.MetadataEntry) error
	Delete(ctx context.Context, id string) error
}

// MetadataService manages metadata entries.
type MetadataService struct {
	repo      metadataRepository
	views     collectionInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetadataService constructs a MetadataService.
func NewMetadataService(repo metadataRepository, views collectionInvalidator, validate *validator.Validate, logger *zap.Logger) *MetadataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MetadataService{
		repo:      repo,
		views:     views,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a metadata entry by id.
func (s *MetadataService) Get(ctx context.Context, id string) (*models.MetadataEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "metadata not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load metadata")
	}
	return entry, nil
}

// Create stores a metadata entry. Owner defaults to the current user and the
// type to the one detected from the filename.
func (s *MetadataService) Create(ctx context.Context, req dto.CreateMetadataRequest, currentUser string) (*models.MetadataEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metadata payload")
	}
	now := s.now()
	entry := &models.MetadataEntry{
		FileID:   req.FileID,
		Filename: req.Filename,
		Type:     req.Type,
		Size:     req.Size,
		Created:  now,
		Modified: now,
		Owner:    req.Owner,
		Tags:     req.Tags,
		Version:  req.Version,
	}
	if entry.Type == "" {
		entry.Type = viewmodel.DetectFileType(entry.Filename)
	}
	if entry.Owner == "" {
		entry.Owner = currentUser
	}
	if entry.Version == "" {
		entry.Version = "1.0"
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create metadata")
	}
	s.views.Invalidate(ctx)
	return entry, nil
}

// Update applies the provided changes and bumps the modification time.
func (s *MetadataService) Update(ctx context.Context, id string, req dto.UpdateMetadataRequest) (*models.MetadataEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metadata payload")
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Filename != nil {
		entry.Filename = *req.Filename
	}
	if req.Type != nil {
		entry.Type = *req.Type
	}
	if req.Tags != nil {
		entry.Tags = req.Tags
	}
	if req.Version != nil {
		entry.Version = *req.Version
	}
	entry.Modified = s.now()
	if err := s.repo.Update(ctx, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "metadata not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update metadata")
	}
	s.views.Invalidate(ctx)
	return entry, nil
}

// Delete removes a metadata entry.
func (s *MetadataService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "metadata not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete metadata")
	}
	s.views.Invalidate(ctx)
	return nil
}
