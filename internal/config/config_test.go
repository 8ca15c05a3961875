package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("TOKEN_SIGNING_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, cfg.TokenLifetime)
	assert.Equal(t, 0.5, cfg.GeofenceMaxDistanceKm)
	assert.Equal(t, 100.0, cfg.GeofenceMaxAccuracyM)
	assert.NotEmpty(t, cfg.TokenSigningSecret)
	assert.NotEmpty(t, cfg.AdminAPIKey)
	assert.False(t, cfg.TokenRevocationEnabled)
	assert.Equal(t, ":8080", cfg.Address())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TOKEN_LIFETIME", "30m")
	t.Setenv("GEOFENCE_MAX_DISTANCE_KM", "2.5")
	t.Setenv("GEOFENCE_MAX_ACCURACY_M", "40")
	t.Setenv("TOKEN_REVOCATION_ENABLED", "true")
	t.Setenv("PORT", ":9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.TokenLifetime)
	assert.Equal(t, 2.5, cfg.GeofenceMaxDistanceKm)
	assert.Equal(t, 40.0, cfg.GeofenceMaxAccuracyM)
	assert.True(t, cfg.TokenRevocationEnabled)
	assert.Equal(t, ":9000", cfg.Address())
}

func TestLoadTokenLifetimeSecondsWins(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TOKEN_LIFETIME_SECONDS", "60")
	t.Setenv("TOKEN_LIFETIME", "5h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.TokenLifetime)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/pos")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ADMIN_API_KEY", "admin")
	t.Setenv("TOKEN_SIGNING_SECRET", "short")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TOKEN_SIGNING_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("GEOFENCE_MAX_DISTANCE_KM", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}
