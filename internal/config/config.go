// Package config provides configuration loading and defaults for the
// steam-idler daemon.
//
// Configuration is loaded from a TOML file in the data directory. It covers
// daemon behavior only — logging, the keep-alive HTTP endpoint, and the
// startup update check. Account credentials never live in the config file;
// they are read from the environment by the creds package.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/iiTzT/simple-steam-idler-replit/internal/atomicfile"
	"github.com/iiTzT/simple-steam-idler-replit/internal/paths"
)

// CurrentVersion is the config schema version this build reads and writes.
const CurrentVersion = 1

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
	// Health holds keep-alive HTTP endpoint settings.
	Health HealthConfig `toml:"health"`
	// Update holds release check settings.
	Update UpdateConfig `toml:"update"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// HealthConfig holds keep-alive HTTP endpoint settings.
type HealthConfig struct {
	// Enabled serves GET / and GET /healthz when true. Hosted environments
	// rely on an uptime pinger hitting this endpoint to keep the process alive.
	Enabled bool `toml:"enabled"`
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`
}

// UpdateConfig holds release check settings.
type UpdateConfig struct {
	// Check queries GitHub for a newer release at startup when true.
	Check bool `toml:"check"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
		Health: HealthConfig{
			Enabled: true,
			Addr:    ":8080",
		},
		Update: UpdateConfig{
			Check: true,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
// For this project all defaults are good examples.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig. Missing fields keep
// their default values.
func Load(dataDir string) (*Config, error) {
	path := paths.DataDir{Root: dataDir}.Config()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Version > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than this build supports (%d)", cfg.Version, CurrentVersion)
	}
	cfg.Version = CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 1 {
		return fmt.Errorf("invalid log.max_size_mb %d: must be at least 1", c.Log.MaxSizeMB)
	}
	if c.Health.Enabled {
		if _, _, err := net.SplitHostPort(c.Health.Addr); err != nil {
			return fmt.Errorf("invalid health.addr %q: %w", c.Health.Addr, err)
		}
	}
	return nil
}
