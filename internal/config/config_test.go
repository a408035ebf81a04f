package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/findspot")
	t.Setenv("JWT_SECRET", "test-signing-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(false)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "refreshToken", cfg.RefreshCookieName)
	assert.Equal(t, "/api/auth/", cfg.RefreshCookiePath)
	assert.Equal(t, 500, cfg.SweepBatchSize)
	assert.True(t, cfg.RunMigrations)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("REFRESH_COOKIE_NAME", "sessionRefresh")
	t.Setenv("RUN_MIGRATIONS_ON_STARTUP", "false")

	cfg, err := Load(false)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "sessionRefresh", cfg.RefreshCookieName)
	assert.False(t, cfg.RunMigrations)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/findspot")
	t.Setenv("JWT_SECRET", "   ")

	_, err := Load(false)
	assert.Error(t, err)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "-5m")

	_, err := Load(false)
	assert.Error(t, err)
}

func TestLoadRejectsRelativeCookiePath(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REFRESH_COOKIE_PATH", "api/auth/")

	_, err := Load(false)
	assert.Error(t, err)
}
