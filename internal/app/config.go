package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the relay.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	LeapBaseURL      string `envconfig:"LEAP_BASE_URL" default:"https://api.jobprogress.com/api/v1"`
	LeapAPIKey       string `envconfig:"LEAP_API_KEY" required:"true"`
	LeapNoSaleStatus string `envconfig:"LEAP_NO_SALE_STATUS" default:"pending"`

	WebhookSecret string   `envconfig:"SALESPRO_WEBHOOK_SECRET"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	DedupTTL  time.Duration `envconfig:"DEDUP_TTL" default:"24h"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.LeapAPIKey == "" {
		return nil, errors.New("leap api key must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
