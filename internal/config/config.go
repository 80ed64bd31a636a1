// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"
)

// Config is the process configuration shared by cmd/api and cmd/calc.
type Config struct {
	Addr             string        `env:"CALC_ADDR" env-default:":8080"`
	LogLevel         string        `env:"CALC_LOG_LEVEL" env-default:"info"`
	TelemetryEnabled bool          `env:"CALC_TELEMETRY_ENABLED" env-default:"true"`
	ShutdownTimeout  time.Duration `env:"CALC_SHUTDOWN_TIMEOUT" env-default:"5s"`

	Storage StorageConfig
	Session SessionConfig
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend    string `env:"CALC_STORAGE" env-default:"sqlite"`
	SQLitePath string `env:"CALC_SQLITE_PATH" env-default:"calculator.db"`
}

// SessionConfig controls calculator session behaviour.
type SessionConfig struct {
	LivePreview    bool          `env:"CALC_LIVE_PREVIEW" env-default:"false"`
	OperatorPolicy string        `env:"CALC_OPERATOR_POLICY" env-default:"replace"`
	TTL            time.Duration `env:"CALC_SESSION_TTL" env-default:"20m"`
	CleanupEvery   time.Duration `env:"CALC_SESSION_CLEANUP" env-default:"1m"`
	Clipboard      bool          `env:"CALC_CLIPBOARD" env-default:"false"`
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	var cfg Config
	if err := Read(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the environment parser cannot.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("CALC_STORAGE must be sqlite or memory, got %q", c.Storage.Backend)
	}

	switch c.Session.OperatorPolicy {
	case "replace", "reject", "append":
	default:
		return fmt.Errorf("CALC_OPERATOR_POLICY must be replace, reject or append, got %q", c.Session.OperatorPolicy)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("CALC_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Session.CleanupEvery <= 0 {
		return fmt.Errorf("CALC_SESSION_CLEANUP must be positive, got %s", c.Session.CleanupEvery)
	}
	return nil
}
