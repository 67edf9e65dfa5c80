// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable the server reads at startup. A missing
// API key soft-disables LLM generation rather than failing the load.
type Config struct {
	// DeepSeek-compatible chat-completion credentials.
	APIKey  string `env:"DEEPSEEK_API_KEY"`
	BaseURL string `env:"DEEPSEEK_BASE_URL"`
	Model   string `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`

	// LLM call pacing.
	RequestTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	MinCallDelay   time.Duration `env:"LLM_MIN_DELAY" envDefault:"1500ms"`

	// Server.
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/adventure.db"`
	AdminKey string `env:"ADMIN_KEY"`

	// Game rules.
	LevelCap      int    `env:"LEVEL_CAP" envDefault:"0"`
	AutosaveTicks uint64 `env:"AUTOSAVE_TICKS" envDefault:"50"`
	Seed          int64  `env:"GAME_SEED" envDefault:"0"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RequestTimeout < 15*time.Second {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.RequestTimeout > 45*time.Second {
		cfg.RequestTimeout = 45 * time.Second
	}
	return &cfg, nil
}
