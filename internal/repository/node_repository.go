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

const nodeColumns = `id, name, ip_address, status, cpu_usage, memory_usage, disk_usage, network_throughput, active_connections,
capacity_bytes, used_bytes, last_updated, location, node_type, uptime_seconds`

// NodeRepository persists storage nodes and their metric history.
type NodeRepository struct {
	db *sqlx.DB
}

// NewNodeRepository constructs the repository.
func NewNodeRepository(db *sqlx.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// List returns all nodes ordered by name.
func (r *NodeRepository) List(ctx context.Context) ([]models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes ORDER BY name, id`
	var nodes []models.Node
	if err := r.db.SelectContext(ctx, &nodes, query); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, nil
}

// FindByID returns a node by identifier.
func (r *NodeRepository) FindByID(ctx context.Context, id string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1 LIMIT 1`
	var node models.Node
	if err := r.db.GetContext(ctx, &node, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find node by id: %w", err)
	}
	return &node, nil
}

// Create registers a node.
func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Status == "" {
		node.Status = models.NodeStatusOnline
	}
	if node.LastUpdated.IsZero() {
		node.LastUpdated = time.Now().UTC()
	}
	const query = `INSERT INTO nodes (id, name, ip_address, status, cpu_usage, memory_usage, disk_usage, network_throughput,
active_connections, capacity_bytes, used_bytes, last_updated, location, node_type, uptime_seconds)
VALUES (:id, :name, :ip_address, :status, :cpu_usage, :memory_usage, :disk_usage, :network_throughput,
:active_connections, :capacity_bytes, :used_bytes, :last_updated, :location, :node_type, :uptime_seconds)`
	if _, err := r.db.NamedExecContext(ctx, query, node); err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// Update persists the full node state.
func (r *NodeRepository) Update(ctx context.Context, node *models.Node) error {
	const query = `UPDATE nodes SET name = :name, ip_address = :ip_address, status = :status, cpu_usage = :cpu_usage,
memory_usage = :memory_usage, disk_usage = :disk_usage, network_throughput = :network_throughput,
active_connections = :active_connections, capacity_bytes = :capacity_bytes, used_bytes = :used_bytes,
last_updated = :last_updated, location = :location, node_type = :node_type, uptime_seconds = :uptime_seconds WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, node)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	return expectAffected(res, "update node")
}

// Delete removes a node and its metric history.
func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM node_metrics WHERE node_id = $1`, id); err != nil {
			return fmt.Errorf("delete node metrics: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		return expectAffected(res, "delete node")
	})
}

// InsertMetric appends a sample to a node's history.
func (r *NodeRepository) InsertMetric(ctx context.Context, metric *models.NodeMetric) error {
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO node_metrics (node_id, cpu_usage, memory_usage, disk_usage, network_throughput, recorded_at)
VALUES (:node_id, :cpu_usage, :memory_usage, :disk_usage, :network_throughput, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, metric); err != nil {
		return fmt.Errorf("insert node metric: %w", err)
	}
	return nil
}

// ListMetrics returns the samples of a node recorded at or after since, oldest first.
func (r *NodeRepository) ListMetrics(ctx context.Context, nodeID string, since time.Time) ([]models.NodeMetric, error) {
	const query = `SELECT id, node_id, cpu_usage, memory_usage, disk_usage, network_throughput, recorded_at
FROM node_metrics WHERE node_id = $1 AND recorded_at >= $2 ORDER BY recorded_at ASC`
	var metrics []models.NodeMetric
	if err := r.db.SelectContext(ctx, &metrics, query, nodeID, since); err != nil {
		return nil, fmt.Errorf("list node metrics: %w", err)
	}
	return metrics, nil
}

// PruneMetrics deletes samples recorded before cutoff and reports how many were removed.
func (r *NodeRepository) PruneMetrics(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM node_metrics WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune node metrics: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune node metrics: rows affected: %w", err)
	}
	return n, nil
}
