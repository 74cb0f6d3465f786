package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PRODUCTBOARD_DB_DSN", "postgres://local/test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Provider)
	assert.Equal(t, "files", cfg.Storage.Prefix)
	assert.Equal(t, "image/png", cfg.Storage.ContentType)
	assert.Equal(t, 150, cfg.Imaging.OutputSize)
	assert.Equal(t, 150, cfg.Imaging.MinDimension)
	assert.InDelta(t, 1.0, cfg.Imaging.Scale, 0.001)
	assert.False(t, cfg.PubSub.Enabled)
}

func TestLoadMissingDSNFailsAtStartup(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.dsn")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
db:
  dsn: postgres://user:pass@db:5432/productboard
storage:
  provider: local
  base_dir: /tmp/blobs
imaging:
  scale: 2.0
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "/tmp/blobs", cfg.Storage.BaseDir)
	assert.InDelta(t, 2.0, cfg.Imaging.Scale, 0.001)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Server:  ServerConfig{Port: 8080, TimeoutSeconds: 60},
			DB:      DBConfig{DSN: "postgres://local/test"},
			Storage: StorageConfig{Provider: "memory", Prefix: "files"},
			Imaging: ImagingConfig{OutputSize: 150, MinDimension: 150, Scale: 1},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, base().Validate())
	})

	t.Run("GCSRequiresBucket", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Storage.Provider = "gcs"
		require.Error(t, cfg.Validate())
	})

	t.Run("LocalRequiresBaseDir", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Storage.Provider = "local"
		require.Error(t, cfg.Validate())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Storage.Provider = "s3"
		require.Error(t, cfg.Validate())
	})

	t.Run("PubSubRequiresTopic", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.PubSub.Enabled = true
		cfg.PubSub.ProjectID = "proj"
		require.Error(t, cfg.Validate())
	})

	t.Run("ZeroScale", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Imaging.Scale = 0
		require.Error(t, cfg.Validate())
	})
}
