// Package config loads connector configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `env:"PFTG_LISTEN_ADDR" envDefault:":3004"`
	// BaseURL is the public URL this connector is reachable at; it is the
	// target of both the Posiflow subscription and the Telegram webhook.
	BaseURL string `env:"PFTG_BASE_URL"`
	// APIURL is the Posiflow platform API.
	APIURL string `env:"PFTG_API_URL"`
	// AppsAPIURL is the Posiflow apps registry API.
	AppsAPIURL string `env:"PFTG_APPS_API_URL"`
	// TelegramAPIURL overrides the Bot API server, empty for the public one.
	TelegramAPIURL string `env:"PFTG_TELEGRAM_API_URL"`
	// TelegramFileURL is the base for downloadable media links.
	TelegramFileURL string `env:"PFTG_TELEGRAM_FILE_URL" envDefault:"https://api.telegram.org/file/bot"`
	RedisURL        string `env:"PFTG_REDIS_URL" envDefault:"redis://localhost:6379"`
	AppID           string `env:"PFTG_APP_ID" envDefault:"telegram"`
	BrandName       string `env:"PFTG_BRAND_NAME" envDefault:"Posiflow"`
	LogLevel        string `env:"PFTG_LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing mandatory values.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "PFTG_BASE_URL is mandatory")
	}
	if c.APIURL == "" {
		errs = append(errs, "PFTG_API_URL is mandatory")
	}
	if c.AppsAPIURL == "" {
		errs = append(errs, "PFTG_APPS_API_URL is mandatory")
	}
	if c.RedisURL == "" {
		errs = append(errs, "PFTG_REDIS_URL is mandatory")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
