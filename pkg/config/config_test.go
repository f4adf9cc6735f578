package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5, cfg.Views.RecentLimit)
	assert.Equal(t, 10, cfg.Views.DefaultPageSize)
	assert.Equal(t, 80.0, cfg.Nodes.WarningThreshold)
	assert.Equal(t, 90.0, cfg.Nodes.CriticalThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Nodes.MetricRetention)
	assert.Equal(t, 3, cfg.Storage.ReplicationTarget)
	assert.Equal(t, "@every 5m", cfg.Maintenance.Schedule)
	assert.Equal(t, time.Hour, cfg.Database.ConnLifetime)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, 10*time.Minute, cfg.CORS.MaxAge)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RECENT_LIMIT", "7")
	t.Setenv("VIEW_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("NODE_METRIC_RETENTION", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Views.RecentLimit)
	assert.Equal(t, 30*time.Second, cfg.Views.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Nodes.MetricRetention)
}

func TestLoadReadsDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Cleanup(func() {
		_ = os.Unsetenv("DEFAULT_PAGE_SIZE")
		_ = os.Unsetenv("REPLICATION_TARGET")
	})
	require.NoError(t, os.WriteFile(".env", []byte("DEFAULT_PAGE_SIZE=25\nREPLICATION_TARGET=2\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Views.DefaultPageSize)
	assert.Equal(t, 2, cfg.Storage.ReplicationTarget)
}
