// Package config reads gamedef settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ormasoftchile/gamedef/pkg/diag"
)

// Config holds environment-derived settings. CLI flags override them.
type Config struct {
	RegistryDir  string        `env:"GAMEDEF_REGISTRY_DIR"`
	Ruleset      string        `env:"GAMEDEF_RULESET"`
	FailOn       diag.Severity `env:"GAMEDEF_FAIL_ON"       envDefault:"error"`
	FetchTimeout time.Duration `env:"GAMEDEF_FETCH_TIMEOUT" envDefault:"30s"`
	Concurrency  int           `env:"GAMEDEF_CONCURRENCY"   envDefault:"8"`
	LogLevel     string        `env:"GAMEDEF_LOG_LEVEL"     envDefault:"warn"`
	LogFormat    string        `env:"GAMEDEF_LOG_FORMAT"    envDefault:"text"`
	OTelEndpoint string        `env:"GAMEDEF_OTEL_ENDPOINT"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Concurrency < 1 {
		return Config{}, fmt.Errorf("parse env: GAMEDEF_CONCURRENCY must be at least 1, got %d", cfg.Concurrency)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("parse env: GAMEDEF_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// Policy returns the pass/fail policy.
func (c Config) Policy() diag.Policy {
	return diag.Policy{FailOn: c.FailOn}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// LoadDotEnv sets the variables of the .env file at path that are not
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
