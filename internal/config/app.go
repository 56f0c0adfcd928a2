package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// AppConfig holds server, session and integration settings
type AppConfig struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	GinMode    string `env:"GIN_MODE"`

	SessionSecret        string        `env:"SESSION_SECRET_KEY,required,notEmpty"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionCookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	SessionCookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionSweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 1h"`

	// Timezone decides which calendar day a record belongs to.
	Timezone string `env:"APP_TIMEZONE" envDefault:"Asia/Kolkata"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`

	RabbitMQURL string `env:"RABBITMQ_URL"`
}

// LoadAppConfig loads application configuration from environment variables
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return cfg, nil
}

// Location resolves Timezone
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
