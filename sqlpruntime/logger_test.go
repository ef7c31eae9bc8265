package sqlpruntime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogExecLoggerFailureLevel(t *testing.T) {
	tests := []struct {
		name  string
		level *slog.Level
		want  string
	}{
		{"default", nil, "level=ERROR"},
		{"lowered", levelPtr(slog.LevelDebug), "level=DEBUG"},
		{"raised", levelPtr(slog.LevelWarn), "level=WARN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewSlogExecLoggerWithHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			if tt.level != nil {
				logger.SetFailureLevel(*tt.level)
			}
			logger.LogExit(context.Background(), "run-1", RunStats{Statements: 2}, time.Millisecond, errors.New("no such table: missing"))

			out := buf.String()
			if !strings.Contains(out, tt.want) || !strings.Contains(out, "script run failed") {
				t.Errorf("record %q, want %s", out, tt.want)
			}
			if !strings.Contains(out, "run_id=run-1") {
				t.Errorf("record %q lacks run id", out)
			}
		})
	}
}

func TestSlogExecLoggerLoweredFailureFiltered(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogExecLoggerWithHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.SetFailureLevel(slog.LevelDebug)

	logger.LogExit(context.Background(), "run-1", RunStats{}, 0, errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("failure logged at info: %q", buf.String())
	}

	logger.LogExit(context.Background(), "run-2", RunStats{Statements: 1}, 0, nil)
	if !strings.Contains(buf.String(), "level=INFO") || !strings.Contains(buf.String(), "script run complete") {
		t.Errorf("success record = %q", buf.String())
	}
}

func levelPtr(l slog.Level) *slog.Level { return &l }
