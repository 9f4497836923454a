package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Port     int    `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
		DataDir  string `envconfig:"DATA_DIR" default:"data"`
	}

	Inference struct {
		Model    string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
		Timeout  time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"60s"`
		Timezone string        `envconfig:"LEDGER_TIMEZONE" default:"Asia/Shanghai"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

// Location resolves the civil timezone relative dates are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Inference.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Inference.Timezone, err)
	}
	return loc, nil
}
