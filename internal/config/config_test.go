package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(16*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  read_timeout: 5s
  enable_cors: false
model:
  path: /models/densenet.onnx
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("ONNXRUNTIME_LIB", "/usr/lib/libonnxruntime.so")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Server.EnableCORS)
	assert.Equal(t, "/models/densenet.onnx", cfg.Model.Path)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", cfg.Model.SharedLibraryPath)
	assert.Equal(t, "outputs/model/model_metadata.json", cfg.Model.MetadataPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}
