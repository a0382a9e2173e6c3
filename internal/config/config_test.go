package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit/gameroom/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "redis", cfg.Transport.Type)
	assert.Equal(t, 10*time.Second, cfg.Transport.SubscribeTimeout)
	assert.Equal(t, time.Minute, cfg.Peer.HeartbeatInterval)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9090
storage:
  type: redis
  redis_url: redis://localhost:6379/0
transport:
  type: inprocess
peer:
  display_name: Alice
  heartbeat_interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
	assert.Equal(t, "inprocess", cfg.Transport.Type)
	assert.Equal(t, "Alice", cfg.Peer.DisplayName)
	assert.Equal(t, 30*time.Second, cfg.Peer.HeartbeatInterval)
	// Untouched values keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Transport.SubscribeTimeout)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0600))

	t.Setenv("GAMEROOM_PORT", "7070")
	t.Setenv("GAMEROOM_REDIS_URL", "redis://shared:6379")
	t.Setenv("GAMEROOM_STORAGE_REDIS_URL", "redis://storage-only:6379")
	t.Setenv("GAMEROOM_DISPLAY_NAME", "Bob")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	// Shared URL applies to both, the specific one wins for storage
	assert.Equal(t, "redis://storage-only:6379", cfg.Storage.RedisURL)
	assert.Equal(t, "redis://shared:6379", cfg.Transport.RedisURL)
	assert.Equal(t, "Bob", cfg.Peer.DisplayName)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
