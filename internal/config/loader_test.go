package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  user: intel
  password: secret
matching:
  match_threshold: 0.85
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "intel", cfg.Database.User)
	assert.Equal(t, 0.85, cfg.Matching.MatchThreshold)
	// Defaults filled for everything unset.
	assert.Equal(t, config.DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, config.DefaultLogFormat, cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 70000
database:
  user: intel
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("INTEL_DATABASE_USER", "envuser")
	t.Setenv("INTEL_DATABASE_PASSWORD", "envpass")
	t.Setenv("INTEL_SERVER_PORT", "8181")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, config.DefaultRedisAddr, cfg.Redis.Addr)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}
