package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "p2p", cfg.Media.Provider)
	assert.Equal(t, 50, cfg.Chat.HistoryCapacity)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":9090"
chat:
  history_capacity: 10
media:
  provider: ingest
  ingest_base: rtmp://ingest.local/live
auth:
  jwt_secret: file-secret
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 10, cfg.Chat.HistoryCapacity)
	assert.Equal(t, "ingest", cfg.Media.Provider)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	// Unset fields keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(100000), cfg.Chat.MaxTipAmount)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
media:
  provider: carrier-pigeon
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_ManagedProviderRequiresCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Media.Provider = "managed"

	assert.Error(t, cfg.Validate())

	cfg.Media.AppID = "app-123"
	cfg.Media.AppSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_IngestProviderRequiresBase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Media.Provider = "ingest"

	assert.Error(t, cfg.Validate())

	cfg.Media.IngestBase = "rtmp://ingest.local/live"
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STREAMVIBE_SERVER_ADDRESS", ":7070")
	t.Setenv("STREAMVIBE_JWT_SECRET", "env-secret")
	t.Setenv("STREAMVIBE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestICEServers_Conversion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
media:
  provider: p2p
  ice_servers:
    - urls:
        - stun:stun.example.com:3478
    - urls:
        - turn:turn.example.com:3478
      username: user
      credential: pass
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	servers := cfg.ICEServers()
	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:stun.example.com:3478"}, servers[0].URLs)
	assert.Equal(t, "user", servers[1].Username)
	assert.Equal(t, "pass", servers[1].Credential)
}
