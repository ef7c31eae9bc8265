package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ha1tch/sqlp/dialect"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	ac, err := cfg.AdapterConfig()
	if err != nil {
		t.Fatal(err)
	}
	if ac.Backend != dialect.SQLite || !ac.InMemory {
		t.Errorf("default adapter config = %+v, want in-memory sqlite", ac)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend: postgres
dsn: postgres://localhost/test?sslmode=disable
target: duckdb
log_level: debug
log_format: json
schedule: "*/5 * * * * *"
pool:
  max_open_conns: 4
  conn_max_lifetime: 90s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "postgres" || cfg.Target != "duckdb" || cfg.Schedule != "*/5 * * * * *" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	ac, err := cfg.AdapterConfig()
	if err != nil {
		t.Fatal(err)
	}
	if ac.Backend != dialect.Postgres {
		t.Errorf("Backend = %s", ac.Backend)
	}
	if ac.DSN != "postgres://localhost/test?sslmode=disable" {
		t.Errorf("DSN = %q", ac.DSN)
	}
	if ac.MaxOpenConns != 4 || ac.ConnMaxLifetime != 90*time.Second {
		t.Errorf("pool = %d/%s", ac.MaxOpenConns, ac.ConnMaxLifetime)
	}
	if ac.MaxIdleConns != 5 {
		t.Errorf("unset pool field lost its default: MaxIdleConns = %d", ac.MaxIdleConns)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: info\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "sqlite" || cfg.Target != "postgres" || cfg.LogFormat != "text" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "backend: [", "parsing config"},
		{"unknown backend", "backend: oracle\n", `unsupported backend "oracle"`},
		{"duckdb backend", "backend: duckdb\n", `unsupported backend "duckdb"`},
		{"unknown target", "target: cobol\n", `unsupported target "cobol"`},
		{"bad duration", "pool:\n  conn_max_lifetime: soon\n", "parsing config"},
		{"bad level", "log_level: loud\n", "unknown log level"},
		{"bad format", "log_format: xml\n", "unknown log format"},
		{"negative pool", "pool:\n  max_open_conns: -1\n", "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigurationError(t *testing.T) {
	_, err := Load(writeConfig(t, "backend: oracle\n"))
	var cfgErr *dialect.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != "backend" {
		t.Errorf("Load() error = %v, want backend ConfigurationError", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want ErrNotExist", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "info"
	cfg.LogFormat = "json"

	h, err := cfg.Handler(&buf)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(h)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
