// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	Store      string `env:"TIMELINE_STORE" envDefault:"file"`
	PresetFile string `env:"PRESET_FILE" envDefault:"/data/presets.json"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"/data/presets.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Parse reads Config from the environment without validating it, so that
// command-line flags can still override bad values.
func Parse() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Normalize folds case and surrounding space out of enum settings.
func (c *Config) Normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("TIMELINE_STORE: unknown backend %q", c.Store)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: %d out of range", c.Port)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
