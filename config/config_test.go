package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `database:
  main_url: postgres://openwebui@localhost/openwebui
  vector_url: postgres://openwebui@localhost/vectordb
retention:
  keep_days: 90
paths:
  uploads_dir: /data/uploads
vacuum: true
`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://openwebui@localhost/openwebui", cfg.Database.MainURL)
	require.Equal(t, "postgres://openwebui@localhost/vectordb", cfg.Database.VectorURL)
	require.Equal(t, 90, cfg.Retention.KeepDays)
	require.Equal(t, "/data/uploads", cfg.Paths.UploadsDir)
	require.True(t, cfg.Vacuum)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingDefaultLocationReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.Database.MainURL)
	require.Zero(t, cfg.Retention.KeepDays)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [not a mapping"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	full := func() *Config {
		cfg := Default()
		cfg.Database.MainURL = "postgres://localhost/main"
		cfg.Database.VectorURL = "postgres://localhost/vector"
		cfg.Paths.UploadsDir = "/data/uploads"
		cfg.Retention.KeepDays = 30
		return cfg
	}

	require.NoError(t, full().Validate())

	cfg := full()
	cfg.Database.MainURL = ""
	require.ErrorContains(t, cfg.Validate(), "main database")

	cfg = full()
	cfg.Database.VectorURL = ""
	require.ErrorContains(t, cfg.Validate(), "vector database")

	cfg = full()
	cfg.Paths.UploadsDir = ""
	require.ErrorContains(t, cfg.Validate(), "uploads directory")

	cfg = full()
	cfg.Retention.KeepDays = 0
	require.ErrorContains(t, cfg.Validate(), "keep-days")

	cfg = full()
	cfg.Retention.KeepDays = -7
	require.ErrorContains(t, cfg.Validate(), "keep-days")
}
