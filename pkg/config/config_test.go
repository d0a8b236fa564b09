package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
server:
  port: 9090
  mode: debug
mysql:
  host: db.internal
  port: 3306
  user: tracehub
  password: secret
  database: tracehub
redis:
  addr: localhost:6379
registry:
  liveness_window: 45
agent:
  server_url: http://localhost:9090
  host_key: abc123
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 45, cfg.Registry.LivenessWindow)
	assert.Equal(t, "tracehub:secret@tcp(db.internal:3306)/tracehub?charset=utf8mb4&parseTime=True&loc=UTC", cfg.MySQL.DSN())

	// Unset values pick up defaults.
	assert.Equal(t, "traces", cfg.Storage.TraceBucket)
	assert.Equal(t, 5, cfg.Agent.ScanInterval)
	assert.Equal(t, 5, cfg.Agent.PollInterval)
	assert.Equal(t, 4, cfg.Agent.MaxConcurrentTraces)
	assert.Equal(t, "adb", cfg.Agent.ADBPath)
	assert.NotEmpty(t, cfg.Agent.HostName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
