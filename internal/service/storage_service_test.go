package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
)

type collectionStub[T any] struct {
	records []T
	err     error
}

func (c collectionStub[T]) Collection(ctx context.Context) ([]T, error) {
	return c.records, c.err
}

func newStorageServiceForTest(files []models.File, nodes []models.Node) *StorageService {
	engine := viewmodel.MustNewEngine(viewmodel.FileSchema(), viewmodel.DefaultRecentLimit)
	return NewStorageService(collectionStub[models.File]{records: files}, collectionStub[models.Node]{records: nodes}, engine, 3, nil)
}

func TestStorageServiceOverview(t *testing.T) {
	svc := newStorageServiceForTest(fixtureFiles(), fixtureNodes())

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3000), overview.TotalCapacity)
	assert.Equal(t, int64(1900), overview.UsedStorage)
	assert.Equal(t, 4, overview.TotalFiles)
	assert.Equal(t, 3, overview.ReplicatedFiles)
	require.Len(t, overview.Nodes, 2)
	assert.Equal(t, "alpha", overview.Nodes[0].Name)
	assert.Equal(t, int64(7178), overview.Files.TotalSize)
	assert.Equal(t, 3, overview.Files.UniqueTags)

	require.Len(t, overview.Replication, 3)
	assert.Equal(t, models.ReplicationStatus{FileType: "pdf", Copies: 3, Files: 2, Status: models.ReplicationHealthy}, overview.Replication[0])
	assert.Equal(t, models.ReplicationStatus{FileType: "image", Copies: 2, Files: 1, Status: models.ReplicationWarning}, overview.Replication[1])
	assert.Equal(t, models.ReplicationStatus{FileType: "text", Copies: 1, Files: 1, Status: models.ReplicationCritical}, overview.Replication[2])
}

func TestStorageServiceOverviewEmpty(t *testing.T) {
	svc := newStorageServiceForTest(nil, nil)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, overview.TotalCapacity)
	assert.NotNil(t, overview.Nodes)
	assert.NotNil(t, overview.Replication)
	assert.Empty(t, overview.Replication)
}

func TestStorageServiceOverviewPropagatesErrors(t *testing.T) {
	engine := viewmodel.MustNewEngine(viewmodel.FileSchema(), 0)
	svc := NewStorageService(collectionStub[models.File]{}, collectionStub[models.Node]{err: errors.New("boom")}, engine, 0, nil)

	_, err := svc.Overview(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestReplicationHealth(t *testing.T) {
	svc := newStorageServiceForTest(nil, nil)
	assert.Equal(t, models.ReplicationHealthy, svc.ReplicationHealth(4))
	assert.Equal(t, models.ReplicationWarning, svc.ReplicationHealth(2))
	assert.Equal(t, models.ReplicationCritical, svc.ReplicationHealth(0))
}
