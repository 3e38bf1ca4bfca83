package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Engine.RunRetries)
	assert.Equal(t, "catalog.yaml", cfg.Catalog)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
storage:
  backend: redis
  pii_patterns:
    - '[\w.]+@[\w.]+'
redis:
  addr: redis.internal:6379
  ttl: 1h
  lock_ttl: 10s
log:
  level: debug
  format: json
engine:
  run_retries: 5
catalog: schemas/prod.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, []string{`[\w.]+@[\w.]+`}, cfg.Storage.PIIPatterns)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Engine.RunRetries)
	assert.Equal(t, "schemas/prod.yaml", cfg.Catalog)

	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Engine.Regenerations)
	assert.Equal(t, 64, cfg.Engine.QueueSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a map\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsNegativeBudgets(t *testing.T) {
	path := writeConfig(t, "engine:\n  run_retries: -1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownStorageBackend(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: s3\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyCatalog(t *testing.T) {
	path := writeConfig(t, `catalog: ""`)
	_, err := Load(path)
	assert.Error(t, err)
}
