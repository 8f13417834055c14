// Package config provides configuration management for recordstore.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultListenPort is the default HTTP port for the API server.
	DefaultListenPort = 8080

	// DefaultMaxConns is the default database connection pool size.
	DefaultMaxConns = 10

	// DefaultBatchSize is the flush cadence used by the bulk loader when the
	// caller does not supply one.
	DefaultBatchSize = 50

	// DefaultMaxBodyBytes caps the size of incoming request bodies (8 MiB).
	DefaultMaxBodyBytes = 8 << 20
)

// Config holds the application configuration.
type Config struct {
	// HTTP server settings
	ListenPort   int   `yaml:"listen_port"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Database settings. DSN takes precedence when both are set; an empty DSN
	// falls back to a local SQLite file at SQLitePath.
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxConns   int    `yaml:"max_conns"`

	// Bulk loader settings
	BatchSize int `yaml:"batch_size"`

	// Logging settings ("debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		ListenPort:   DefaultListenPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		SQLitePath:   defaultSQLitePath(),
		MaxConns:     DefaultMaxConns,
		BatchSize:    DefaultBatchSize,
		LogLevel:     "info",
	}
}

// defaultSQLitePath returns the SQLite file path under the user's home
// directory (~/.recordstore/recordstore.db).
func defaultSQLitePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recordstore", "recordstore.db")
}

// SettingsPath returns the settings file path, honoring RECORDSTORE_CONFIG.
func SettingsPath() string {
	if p := os.Getenv("RECORDSTORE_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recordstore", "settings.yaml")
}

// Load reads configuration from the given YAML file, then applies environment
// overrides. A missing file is not an error; defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides with defaults.
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration from RECORDSTORE_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("RECORDSTORE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.ListenPort = port
		}
	}
	if v := os.Getenv("RECORDSTORE_DSN"); v != "" {
		c.DSN = v
	}
	if v := os.Getenv("RECORDSTORE_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("RECORDSTORE_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConns = n
		}
	}
	if v := os.Getenv("RECORDSTORE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv("RECORDSTORE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// validate checks that the configuration is usable.
func (c *Config) validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen_port %d", c.ListenPort)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch_size %d: must be >= 1", c.BatchSize)
	}
	if c.DSN == "" && c.SQLitePath == "" {
		return fmt.Errorf("either dsn or sqlite_path must be set")
	}
	return nil
}

// EnsureDataDir creates the directory holding the SQLite file if needed.
func (c *Config) EnsureDataDir() error {
	if c.SQLitePath == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.SQLitePath), 0750)
}
