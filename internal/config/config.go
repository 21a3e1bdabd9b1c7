// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PALMARES_ env vars over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file backing the platform. ":memory:" keeps
	// everything in memory.
	DBPath string `koanf:"db_path"`

	// DefaultScale is used when a ranking is created without a scale.
	DefaultScale float64 `koanf:"default_scale"`

	// SubmitRetries bounds how many times a ledger mutation is re-applied
	// when the post changed between read and write. Zero writes blindly.
	SubmitRetries int `koanf:"submit_retries"`

	// TopicWriteLimit and TopicWriteWindowSec set the per-channel topic
	// rate limit of the bundled platform.
	TopicWriteLimit     int `koanf:"topic_write_limit"`
	TopicWriteWindowSec int `koanf:"topic_write_window_sec"`

	// RecentLimit caps how many private messages are scanned for a
	// submission record.
	RecentLimit int `koanf:"recent_limit"`

	// Locale selects the reply language: fr or en.
	Locale string `koanf:"locale"`

	// DedupeSize is how many create and reset interaction ids are
	// remembered. Zero remembers all of them.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DBPath:              "data/palmares.db",
		DefaultScale:        20,
		SubmitRetries:       3,
		TopicWriteLimit:     2,
		TopicWriteWindowSec: 600,
		RecentLimit:         50,
		Locale:              "fr",
		DedupeSize:          10000,
	}
}

// TopicWriteWindow returns the topic rate-limit window as a duration.
func (c *Config) TopicWriteWindow() time.Duration {
	return time.Duration(c.TopicWriteWindowSec) * time.Second
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.DefaultScale <= 0 || c.DefaultScale > 100:
		return fmt.Errorf("%w: default_scale must be in (0, 100], got %g", ErrInvalidConfig, c.DefaultScale)
	case c.SubmitRetries < 0:
		return fmt.Errorf("%w: submit_retries must not be negative", ErrInvalidConfig)
	case c.TopicWriteLimit <= 0:
		return fmt.Errorf("%w: topic_write_limit must be positive", ErrInvalidConfig)
	case c.TopicWriteWindowSec <= 0:
		return fmt.Errorf("%w: topic_write_window_sec must be positive", ErrInvalidConfig)
	case c.RecentLimit <= 0:
		return fmt.Errorf("%w: recent_limit must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	}
	return nil
}
