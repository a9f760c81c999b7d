package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSITIONSTACK_APIKEY", "key")
	t.Setenv("POSITIONSTACK_BASEURL", "http://api.positionstack.test/v1")
	t.Setenv("OSRM_BASEURL", "http://router.osrm.test")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "80", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://opendata-download-metfcst.smhi.se", cfg.SMHIBaseURL)
	assert.Equal(t, "https://api.open-meteo.com", cfg.OpenMeteoBaseURL)
	assert.Equal(t, 7, cfg.ForecastDays)
	assert.Equal(t, 3*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.False(t, cfg.DisableRedis)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("FETCH_CONCURRENCY", "3")
	t.Setenv("DISABLE_REDIS", "true")
	t.Setenv("REDIS_ADDRESS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.FetchConcurrency)
	assert.True(t, cfg.DisableRedis)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing api key", "POSITIONSTACK_APIKEY", ""},
		{"bad osrm url", "OSRM_BASEURL", "not a url"},
		{"redis address required when enabled", "REDIS_ADDRESS", ""},
		{"zero concurrency", "FETCH_CONCURRENCY", "0"},
		{"too many forecast days", "FORECAST_DAYS", "30"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"unparseable ttl", "CACHE_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Desugar().Core().Enabled(-1))
	assert.True(t, logger.Desugar().Core().Enabled(1))

	_, err = (&Config{LogLevel: "loud"}).Logger()
	assert.Error(t, err)
}
