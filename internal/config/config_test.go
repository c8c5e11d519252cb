package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "/api/v1", cfg.Server.Endpoint)
	assert.Equal(t, 4, cfg.Training.Workers)
	assert.Equal(t, 20, cfg.Training.MulticlassThreshold)
	assert.Equal(t, 0, cfg.Training.CacheMaxEntries)
	assert.Equal(t, time.Hour, cfg.Training.MaxDuration)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9001"
  endpoint: /api/v2
training:
  workers: 8
  multiclass_threshold: 12
storage:
  data_dir: /tmp/automl-data
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, "/api/v2", cfg.Server.Endpoint)
	assert.Equal(t, 8, cfg.Training.Workers)
	assert.Equal(t, 12, cfg.Training.MulticlassThreshold)
	assert.Equal(t, "/tmp/automl-data", cfg.Storage.DataDir)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadConfigSanitizesBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
training:
  workers: -1
  multiclass_threshold: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Training.Workers)
	assert.Equal(t, 20, cfg.Training.MulticlassThreshold)
}
