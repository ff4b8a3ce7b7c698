package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SMS_COST", "0.0079")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.InDelta(t, 0.0079, cfg.SMSCost, 1e-9)
	assert.Equal(t, "0 9 * * *", cfg.DailySweepSpec)
	assert.Equal(t, "0 * * * *", cfg.HourlyFlushSpec)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a generated secret")
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod-secret", cfg.JWTSecret)
}

func TestLocation(t *testing.T) {
	loc, err := (&Config{Timezone: "Asia/Manila"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Manila", loc.String())

	loc, err = (&Config{Timezone: ""}).Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = (&Config{Timezone: "Mars/Olympus"}).Location()
	assert.Error(t, err)
}
