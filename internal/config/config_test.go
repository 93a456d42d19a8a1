package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/preptrack")
	t.Setenv("PORT", "")
	t.Setenv("SYNC_WORKERS", "")
	t.Setenv("SYNC_POLL_INTERVAL", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 30, cfg.RateLimitBurst)
	assert.Equal(t, 4, cfg.SyncWorkers)
	assert.Equal(t, 30*time.Second, cfg.SyncPollInterval)
	assert.Equal(t, 5, cfg.SyncMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/preptrack")
	t.Setenv("SYNC_WORKERS", "8")
	t.Setenv("SYNC_POLL_INTERVAL", "2s")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.SyncWorkers)
	assert.Equal(t, 2*time.Second, cfg.SyncPollInterval)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoad_RejectsZeroWorkers(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/preptrack")
	t.Setenv("SYNC_WORKERS", "0")

	_, err := Load()

	assert.Error(t, err)
}
