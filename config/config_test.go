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
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 168*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.PurchaseCompleteTTL)
	assert.Equal(t, "order_events", cfg.RabbitMQQueue)
	assert.Equal(t, 10, cfg.ChannelPoolSize)
	assert.False(t, cfg.EventsEnabled)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_URL", "https://api.snack.co.kr/")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("EVENTS_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://api.snack.co.kr", cfg.UpstreamURL)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.EventsEnabled)
}

func TestLoadConfigFileWithEnvironmentOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "gateway.env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=7070\nREDIS_ADDR=redis:6379\nNUM_WORKERS=4\n"), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("NUM_WORKERS", "6")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 6, cfg.NumWorkers)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "0s")
	t.Setenv("CHANNEL_POOL_SIZE", "0")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
	assert.Contains(t, err.Error(), "CHANNEL_POOL_SIZE")
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
