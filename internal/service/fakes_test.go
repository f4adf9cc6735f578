package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/stellarfs-api/internal/models"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.entries, k)
		}
	}
	return nil
}

type sliceStore[T any] struct {
	mu      sync.Mutex
	records []T
	err     error
	calls   int
}

func (s *sliceStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type invalidatorStub struct {
	calls int
}

func (i *invalidatorStub) Invalidate(ctx context.Context) {
	i.calls++
}

var fixtureTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixtureFiles() []models.File {
	return []models.File{
		{ID: "f1", Name: "Report.pdf", Type: "pdf", Size: 2048, LastModified: fixtureTime.Add(-4 * time.Hour), Owner: "Ada", Permissions: []string{"read"}, Path: "/docs", Version: 1, Replicas: 3},
		{ID: "f2", Name: "photo.png", Type: "image", Size: 1024, LastModified: fixtureTime.Add(-1 * time.Hour), Owner: "Bob", Permissions: []string{"read", "write"}, Path: "/pics", Version: 2, Replicas: 2},
		{ID: "f3", Name: "notes.txt", Type: "text", Size: 10, LastModified: fixtureTime.Add(-2 * time.Hour), Owner: "Ada", Permissions: []string{"read"}, Path: "/docs", Version: 1, Replicas: 1},
		{ID: "f4", Name: "report-2.pdf", Type: "pdf", Size: 4096, LastModified: fixtureTime.Add(-3 * time.Hour), Owner: "Cy", Permissions: []string{"read", "delete"}, Path: "/docs", Version: 3, Replicas: 3},
	}
}

func fixtureNodes() []models.Node {
	return []models.Node{
		{ID: "n1", Name: "alpha", Status: models.NodeStatusOnline, CPUUsage: 40, MemoryUsage: 50, DiskUsage: 60, NetworkThroughput: 100, ActiveConnections: 10, CapacityBytes: 1000, UsedBytes: 400, NodeType: "storage", LastUpdated: fixtureTime},
		{ID: "n2", Name: "beta", Status: models.NodeStatusWarning, CPUUsage: 85, MemoryUsage: 70, DiskUsage: 20, NetworkThroughput: 50, ActiveConnections: 5, CapacityBytes: 2000, UsedBytes: 1500, NodeType: "compute", LastUpdated: fixtureTime},
	}
}
