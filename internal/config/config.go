// Package config loads service settings from the environment. A .env file in the working
// directory is read first when present.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	PositionstackAPIKey  string `envconfig:"POSITIONSTACK_APIKEY" validate:"required"`
	PositionstackBaseURL string `envconfig:"POSITIONSTACK_BASEURL" validate:"required,url"`
	OSRMBaseURL          string `envconfig:"OSRM_BASEURL" validate:"required,url"`
	SMHIBaseURL          string `envconfig:"SMHI_BASEURL" default:"https://opendata-download-metfcst.smhi.se" validate:"required,url"`
	OpenMeteoBaseURL     string `envconfig:"OPENMETEO_BASEURL" default:"https://api.open-meteo.com" validate:"required,url"`
	ForecastDays         int    `envconfig:"FORECAST_DAYS" default:"7" validate:"min=1,max=16"`

	RedisAddress string        `envconfig:"REDIS_ADDRESS" validate:"required_if=DisableRedis false"`
	DisableRedis bool          `envconfig:"DISABLE_REDIS" default:"false"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"3h" validate:"min=1m"`

	FetchConcurrency   int `envconfig:"FETCH_CONCURRENCY" default:"8" validate:"min=1"`
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30" validate:"min=1"`
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Logger builds the production zap logger at the configured level.
func (c *Config) Logger() (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
