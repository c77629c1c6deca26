package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), CONFIG_FILE)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: wire
    endpoint: https://example.com/rss
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Aggregation.PerSourceLimit)
	assert.Equal(t, 8*time.Second, cfg.Aggregation.SourceTimeout)
	assert.Equal(t, 15*time.Second, cfg.Aggregation.RunDeadline)
	assert.Equal(t, 20, cfg.Aggregation.PageSize)
	assert.Equal(t, 0.6, cfg.Clustering.SimilarityThreshold)
	assert.Equal(t, 48*time.Hour, cfg.Clustering.RecencyWindow)
	assert.Equal(t, 5*time.Minute, cfg.Cache.StalenessCeiling)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "rss", cfg.Sources[0].Format)
	assert.False(t, cfg.Clustering.Bypass)
	assert.Equal(t, DefaultSQLitePath(), cfg.Cache.SQLitePath)
}

func TestLoad_SQLiteBackend(t *testing.T) {
	path := writeConfig(t, "cache:\n  backend: sqlite\n  sqlite_path: /tmp/np/cache.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, "/tmp/np/cache.db", cfg.Cache.SQLitePath)
}

func TestLoad_ParsesDurations(t *testing.T) {
	path := writeConfig(t, `
aggregation:
  source_timeout: 2s
  run_deadline: 3s
cache:
  staleness_ceiling: 90s
clustering:
  similarity_threshold: 0.5
  recency_window: 24h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Aggregation.SourceTimeout)
	assert.Equal(t, 3*time.Second, cfg.Aggregation.RunDeadline)
	assert.Equal(t, 90*time.Second, cfg.Cache.StalenessCeiling)
	assert.Equal(t, 0.5, cfg.Clustering.SimilarityThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Clustering.RecencyWindow)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("LOG_LEVEL", "debug")
	path := writeConfig(t, "logging:\n  level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "cache:\n  backend: redis\n"},
		{"threshold above one", "clustering:\n  similarity_threshold: 1.5\n"},
		{"unknown format", "sources:\n  - name: a\n    endpoint: http://x\n    format: atomz\n"},
		{"duplicate source", "sources:\n  - name: a\n    endpoint: http://x\n  - name: a\n    endpoint: http://y\n"},
		{"missing endpoint", "sources:\n  - name: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
