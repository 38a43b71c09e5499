package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelocate/waitline/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Catalog.Source)
	assert.Equal(t, "development", cfg.Env)

	assert.Equal(t, 8*time.Second, cfg.Engine.FetchTimeout)
	assert.Equal(t, 8*time.Hour, cfg.Engine.StaleAfter)
	assert.Equal(t, 30*time.Second, cfg.Engine.ScrapeInterval)
	assert.Equal(t, 10*time.Second, cfg.Engine.APIInterval)
	assert.Equal(t, 3, cfg.Engine.BreakerFailures)
	assert.Equal(t, 60*time.Second, cfg.Engine.BreakerCooldown)
	assert.Equal(t, 5, cfg.Engine.RefreshConcurrency)
	assert.Equal(t, 4*time.Hour, cfg.Engine.CrowdAbandonedAfter)
	assert.Equal(t, 75.0, cfg.Engine.GeofenceRadiusMeters)
	assert.Equal(t, 5*time.Minute, cfg.Engine.GeofenceMinDwell)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CATALOG_SOURCE", "file")
	t.Setenv("CATALOG_FILE", "/etc/waitline/facilities.json")
	t.Setenv("STALE_AFTER", "6h")
	t.Setenv("GEOFENCE_RADIUS_METERS", "100.5")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Catalog.Source)
	assert.Equal(t, "/etc/waitline/facilities.json", cfg.Catalog.FilePath)
	assert.Equal(t, 6*time.Hour, cfg.Engine.StaleAfter)
	assert.Equal(t, 100.5, cfg.Engine.GeofenceRadiusMeters)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("STALE_AFTER", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8*time.Hour, cfg.Engine.StaleAfter)
}

func TestDatabaseDSN(t *testing.T) {
	dsn := (&config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "waitline",
		Password: "secret",
		Database: "waitline",
		SSLMode:  "require",
	}).DatabaseDSN()

	assert.Equal(t, "host=db.internal port=5432 user=waitline password=secret dbname=waitline sslmode=require", dsn)
}
