// Package config loads the sqlp command line configuration.
//
// Values are layered: Default, then a YAML file, then whatever the caller
// sets from flags.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ha1tch/sqlp/adapter"
	"github.com/ha1tch/sqlp/dialect"
)

// Config is the on-disk configuration.
type Config struct {
	Backend   string `yaml:"backend"`
	DSN       string `yaml:"dsn"`
	Target    string `yaml:"target"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Schedule  string `yaml:"schedule"`
	Pool      Pool   `yaml:"pool"`
}

// Pool mirrors the database/sql pool settings. Zero values keep the adapter
// defaults. Durations use Go syntax ("5m", "90s").
type Pool struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend:   dialect.SQLite.String(),
		Target:    dialect.Postgres.String(),
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks names against the supported backends, targets and log
// settings. Unknown backends and targets are *dialect.ConfigurationError.
func (c *Config) Validate() error {
	if _, err := dialect.ParseBackend(c.Backend); err != nil {
		return err
	}
	if _, err := dialect.ParseTarget(c.Target); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (supported: text, json)", c.LogFormat)
	}
	if c.Pool.MaxOpenConns < 0 || c.Pool.MaxIdleConns < 0 {
		return fmt.Errorf("pool sizes must not be negative")
	}
	return nil
}

// AdapterConfig converts the configuration into connection settings.
func (c *Config) AdapterConfig() (adapter.Config, error) {
	backend, err := dialect.ParseBackend(c.Backend)
	if err != nil {
		return adapter.Config{}, err
	}
	ac := adapter.DefaultConfig()
	ac.Backend = backend
	ac.DSN = c.DSN
	if c.Pool.MaxOpenConns > 0 {
		ac.MaxOpenConns = c.Pool.MaxOpenConns
	}
	if c.Pool.MaxIdleConns > 0 {
		ac.MaxIdleConns = c.Pool.MaxIdleConns
	}
	if c.Pool.ConnMaxLifetime > 0 {
		ac.ConnMaxLifetime = c.Pool.ConnMaxLifetime
	}
	if c.Pool.ConnMaxIdleTime > 0 {
		ac.ConnMaxIdleTime = c.Pool.ConnMaxIdleTime
	}
	return ac, nil
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty means
// warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", name)
}

// Handler builds the slog handler described by the log settings.
func (c *Config) Handler(w io.Writer) (slog.Handler, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.NewJSONHandler(w, opts), nil
	}
	return slog.NewTextHandler(w, opts), nil
}
