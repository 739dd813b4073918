package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DATABASE", "bistro")
	t.Setenv("DB_USER", "bistro")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 10, cfg.DBConnectionLimit)
	assert.Equal(t, 3, cfg.DBConnectRetries)
	assert.Equal(t, time.Second, cfg.DBConnectDelay)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "https://ipapi.co", cfg.GeoAPIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.GeoAPITimeout)
	assert.False(t, cfg.DemoMode)
	assert.Equal(t, "bolt://localhost:7687", cfg.GraphURI)
	assert.Equal(t, "neo4j", cfg.GraphDatabase)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_CONNECT_RETRIES", "7")
	t.Setenv("DB_CONNECT_DELAY", "250ms")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("GRAPH_URI", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.DBConnectRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.DBConnectDelay)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.True(t, cfg.DemoMode)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("DB_DATABASE", "")
	t.Setenv("DB_USER", "bistro")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_DATABASE")

	t.Setenv("DB_DATABASE", "bistro")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	// sqlite does not need a user
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_USER", "")
	_, err = Load()
	assert.NoError(t, err)
}

func TestBadValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_CONNECTION_LIMIT", "lots")
	t.Setenv("DEMO_MODE", "definitely")
	t.Setenv("JWT_EXPIRY", "an hour")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.DBConnectionLimit)
	assert.False(t, cfg.DemoMode)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
}
