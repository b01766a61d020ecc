// Package config loads client defaults from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-derived client defaults. Explicit options
// passed to the client constructor take precedence over all of these.
type Config struct {
	APIKey  string        `env:"SPECSTORY_API_KEY"`
	BaseURL string        `env:"SPECSTORY_BASE_URL" envDefault:"https://cloud.specstory.com"`
	Timeout time.Duration `env:"SPECSTORY_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
