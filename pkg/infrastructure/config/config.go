// Package config loads linealloc settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/linealloc/pkg/application/services/allocation"
	"github.com/vsinha/linealloc/pkg/infrastructure/solver/simplex"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "pgx"
)

// Config is the on-disk configuration
type Config struct {
	FallbackRate         float64 `yaml:"fallback_rate"`
	ExtractionTolerance  float64 `yaml:"extraction_tolerance"`
	RedistributionPolicy string  `yaml:"redistribution_policy"`

	Solver  SolverConfig  `yaml:"solver"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type SolverConfig struct {
	Tolerance float64 `yaml:"tolerance"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		FallbackRate:         allocation.DefaultFallbackRate,
		ExtractionTolerance:  allocation.DefaultExtractionTolerance,
		RedistributionPolicy: string(allocation.PolicyCapacityBounded),
		Solver:               SolverConfig{Tolerance: simplex.DefaultTolerance},
		Store:                StoreConfig{Driver: StoreMemory},
		Log:                  LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result. Keys missing
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c Config) Validate() error {
	var errs []error
	if c.FallbackRate <= 0 {
		errs = append(errs, fmt.Errorf("fallback_rate must be positive, got %v", c.FallbackRate))
	}
	if c.ExtractionTolerance < 0 {
		errs = append(errs, fmt.Errorf("extraction_tolerance cannot be negative, got %v", c.ExtractionTolerance))
	}
	if _, err := allocation.ParsePolicy(c.RedistributionPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Solver.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("solver.tolerance cannot be negative, got %v", c.Solver.Tolerance))
	}
	switch c.Store.Driver {
	case StoreMemory, "":
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the parsed redistribution policy
func (c Config) Policy() allocation.Policy {
	p, err := allocation.ParsePolicy(c.RedistributionPolicy)
	if err != nil {
		return allocation.PolicyCapacityBounded
	}
	return p
}

// ParseLevel converts a log level name to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", s)
	}
}
