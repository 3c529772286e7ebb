// Package config loads run settings and scenario files for the trsreset CLI.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of a valuation run.
type Config struct {
	Logging struct {
		// Level is one of debug, info, warn, error.
		Level string `yaml:"level"`
		// File enables a rotated JSON log file next to stdout when set.
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`

	Journal struct {
		// Path of the sqlite cashflow journal. Empty disables journaling.
		Path string `yaml:"path"`
	} `yaml:"journal"`

	Pricing struct {
		// Perspective is the party whose quote sides are used. Empty prices at mid.
		Perspective string `yaml:"perspective"`
		// ForceMid wins over Perspective.
		ForceMid bool `yaml:"force_mid"`
	} `yaml:"pricing"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.MaxSizeMB = 10
	c.Logging.MaxBackups = 3
	c.Logging.MaxAgeDays = 28
	return c
}

// Load reads path over DefaultConfig, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("Load: %s: %w", path, err)
		}
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	return nil
}

// overrideWithEnv lets the environment override file settings.
func overrideWithEnv(cfg *Config) {
	if lvl := os.Getenv("TRSRESET_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if path := os.Getenv("TRSRESET_JOURNAL"); path != "" {
		cfg.Journal.Path = path
	}
}
