package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stellarfs-api/internal/models"
)

const metadataColumns = `id, file_id, filename, type, size, created, modified, owner, tags, version`

// MetadataRepository stores catalogued file metadata.
type MetadataRepository struct {
	db *sqlx.DB
}

// NewMetadataRepository constructs the repository.
func NewMetadataRepository(db *sqlx.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// List returns all metadata entries ordered by filename.
func (r *MetadataRepository) List(ctx context.Context) ([]models.MetadataEntry, error) {
	query := `SELECT ` + metadataColumns + ` FROM file_metadata ORDER BY filename, id`
	var entries []models.MetadataEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	return entries, nil
}

// FindByID returns a metadata entry by identifier.
func (r *MetadataRepository) FindByID(ctx context.Context, id string) (*models.MetadataEntry, error) {
	query := `SELECT ` + metadataColumns + ` FROM file_metadata WHERE id = $1 LIMIT 1`
	var entry models.MetadataEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find metadata by id: %w", err)
	}
	return &entry, nil
}

// Create inserts a metadata entry.
func (r *MetadataRepository) Create(ctx context.Context, entry *models.MetadataEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.Created.IsZero() {
		entry.Created = now
	}
	if entry.Modified.IsZero() {
		entry.Modified = entry.Created
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	const query = `INSERT INTO file_metadata (id, file_id, filename, type, size, created, modified, owner, tags, version)
VALUES (:id, :file_id, :filename, :type, :size, :created, :modified, :owner, :tags, :version)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create metadata: %w", err)
	}
	return nil
}

// Update persists the editable fields of a metadata entry.
func (r *MetadataRepository) Update(ctx context.Context, entry *models.MetadataEntry) error {
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	const query = `UPDATE file_metadata SET filename = :filename, type = :type, size = :size, modified = :modified, owner = :owner,
tags = :tags, version = :version WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return expectAffected(res, "update metadata")
}

// Delete removes a metadata entry.
func (r *MetadataRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file_metadata WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return expectAffected(res, "delete metadata")
}
