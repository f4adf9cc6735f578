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

const fileColumns = `id, name, type, size, last_modified, owner, permissions, path, version, replicas`

// FileRepository provides database access for file metadata and version history.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository creates a new instance of FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// List returns every file, most recently modified first.
func (r *FileRepository) List(ctx context.Context) ([]models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY last_modified DESC, id`
	var files []models.File
	if err := r.db.SelectContext(ctx, &files, query); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// FindByID returns a file by identifier.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 LIMIT 1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find file by id: %w", err)
	}
	return &file, nil
}

// Create inserts a file together with its initial version.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.LastModified.IsZero() {
		file.LastModified = time.Now().UTC()
	}
	if file.Version <= 0 {
		file.Version = 1
	}

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		const insertFile = `INSERT INTO files (id, name, type, size, last_modified, owner, permissions, path, version, replicas)
VALUES (:id, :name, :type, :size, :last_modified, :owner, :permissions, :path, :version, :replicas)`
		if _, err := tx.NamedExecContext(ctx, insertFile, file); err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		version := &models.FileVersion{
			ID:        uuid.NewString(),
			FileID:    file.ID,
			Version:   file.Version,
			Size:      file.Size,
			CreatedBy: file.Owner,
			CreatedAt: file.LastModified,
			Current:   true,
		}
		const insertVersion = `INSERT INTO file_versions (id, file_id, version, size, created_by, created_at, current)
VALUES (:id, :file_id, :version, :size, :created_by, :created_at, :current)`
		if _, err := tx.NamedExecContext(ctx, insertVersion, version); err != nil {
			return fmt.Errorf("create file version: %w", err)
		}
		return nil
	})
}

// Update persists the mutable fields of a file.
func (r *FileRepository) Update(ctx context.Context, file *models.File) error {
	const query = `UPDATE files SET name = :name, type = :type, size = :size, last_modified = :last_modified, owner = :owner,
permissions = :permissions, path = :path, version = :version, replicas = :replicas WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, file)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return expectAffected(res, "update file")
}

// Delete removes a file and its version history.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM file_versions WHERE file_id = $1`, id); err != nil {
			return fmt.Errorf("delete file versions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return expectAffected(res, "delete file")
	})
}

// ListVersions returns the version history of a file, newest first.
func (r *FileRepository) ListVersions(ctx context.Context, fileID string) ([]models.FileVersion, error) {
	const query = `SELECT id, file_id, version, size, created_by, created_at, current FROM file_versions WHERE file_id = $1 ORDER BY version DESC`
	var versions []models.FileVersion
	if err := r.db.SelectContext(ctx, &versions, query, fileID); err != nil {
		return nil, fmt.Errorf("list file versions: %w", err)
	}
	return versions, nil
}

// RestoreVersion marks a stored version as current and points the file at it.
// It returns sql.ErrNoRows when the file has no such version.
func (r *FileRepository) RestoreVersion(ctx context.Context, fileID string, version int, at time.Time) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE file_versions SET current = TRUE WHERE file_id = $1 AND version = $2`, fileID, version)
		if err != nil {
			return fmt.Errorf("mark version current: %w", err)
		}
		if err := expectAffected(res, "mark version current"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE file_versions SET current = FALSE WHERE file_id = $1 AND version <> $2`, fileID, version); err != nil {
			return fmt.Errorf("clear previous version: %w", err)
		}
		res, err = tx.ExecContext(ctx, `UPDATE files SET version = $2, last_modified = $3 WHERE id = $1`, fileID, version, at)
		if err != nil {
			return fmt.Errorf("update file version: %w", err)
		}
		return expectAffected(res, "update file version")
	})
}

func (r *FileRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return withTx(ctx, r.db, fn)
}
