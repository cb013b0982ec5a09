package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5005", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 180*24*time.Hour, cfg.HistoryRetention())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoad_BuildsDatabaseURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "iptv")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "catalog")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://iptv:pw@db.internal:5432/catalog?sslmode=disable", cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	t.Setenv("DB_HOST", "ignored")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_SECRET", "real-secret")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("HISTORY_RETENTION_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db", cfg.DatabaseURL)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Zero(t, cfg.HistoryRetention())
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "many")
	_, err := Load()
	assert.Error(t, err)
}
