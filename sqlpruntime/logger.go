package sqlpruntime

import (
	"context"
	"log/slog"
	"time"
)

// Branch identifies which part of an IF block was executed.
type Branch int

const (
	BranchNone Branch = iota // condition false and no ELSE
	BranchThen
	BranchElse
)

func (b Branch) String() string {
	switch b {
	case BranchThen:
		return "then"
	case BranchElse:
		return "else"
	}
	return "none"
}

// RunStats summarises one run.
type RunStats struct {
	Statements int // plain statements submitted
	Conditions int // conditions evaluated
}

// ExecLogger receives execution events. Every call carries the run ID of
// the Run that produced it.
type ExecLogger interface {
	// LogEntry is called before the first statement of a run.
	LogEntry(ctx context.Context, runID string, statements int)

	// LogBranch is called after each condition has been evaluated.
	LogBranch(ctx context.Context, runID string, condition string, branch Branch)

	// LogExit is called when a run ends, successfully or not.
	LogExit(ctx context.Context, runID string, stats RunStats, duration time.Duration, err error)
}

// =============================================================================
// SlogExecLogger - Uses Go's structured logging (slog)
// =============================================================================

// SlogExecLogger logs execution events with log/slog. Entry and branch
// events are logged at debug level, a successful exit at info and a
// failed one at error unless SetFailureLevel says otherwise.
type SlogExecLogger struct {
	logger    *slog.Logger
	failLevel slog.Level
}

// NewSlogExecLogger creates a new slog-based logger.
func NewSlogExecLogger(logger *slog.Logger) *SlogExecLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogExecLogger{logger: logger, failLevel: slog.LevelError}
}

// NewSlogExecLoggerWithHandler creates a logger with a custom handler.
func NewSlogExecLoggerWithHandler(handler slog.Handler) *SlogExecLogger {
	return NewSlogExecLogger(slog.New(handler))
}

// SetFailureLevel sets the level of the record written for a failed run.
// Callers that report the returned error themselves lower it so the
// failure is not reported twice.
func (l *SlogExecLogger) SetFailureLevel(level slog.Level) {
	l.failLevel = level
}

// LogEntry logs the start of a run.
func (l *SlogExecLogger) LogEntry(ctx context.Context, runID string, statements int) {
	l.logger.DebugContext(ctx, "script run start",
		slog.String("run_id", runID),
		slog.Int("statements", statements),
	)
}

// LogBranch logs a branch decision.
func (l *SlogExecLogger) LogBranch(ctx context.Context, runID string, condition string, branch Branch) {
	l.logger.DebugContext(ctx, "condition evaluated",
		slog.String("run_id", runID),
		slog.String("condition", condition),
		slog.String("branch", branch.String()),
	)
}

// LogExit logs the end of a run.
func (l *SlogExecLogger) LogExit(ctx context.Context, runID string, stats RunStats, duration time.Duration, err error) {
	if err != nil {
		l.logger.Log(ctx, l.failLevel, "script run failed",
			slog.String("run_id", runID),
			slog.Int("statements", stats.Statements),
			slog.Int("conditions", stats.Conditions),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return
	}
	l.logger.InfoContext(ctx, "script run complete",
		slog.String("run_id", runID),
		slog.Int("statements", stats.Statements),
		slog.Int("conditions", stats.Conditions),
		slog.Duration("duration", duration),
	)
}

// =============================================================================
// MultiExecLogger - Fans out to several loggers
// =============================================================================

// MultiExecLogger writes to multiple destinations.
type MultiExecLogger struct {
	loggers []ExecLogger
}

// NewMultiExecLogger creates a logger that writes to all of loggers.
func NewMultiExecLogger(loggers ...ExecLogger) *MultiExecLogger {
	return &MultiExecLogger{loggers: loggers}
}

// LogEntry logs to all configured loggers.
func (l *MultiExecLogger) LogEntry(ctx context.Context, runID string, statements int) {
	for _, logger := range l.loggers {
		logger.LogEntry(ctx, runID, statements)
	}
}

// LogBranch logs to all configured loggers.
func (l *MultiExecLogger) LogBranch(ctx context.Context, runID string, condition string, branch Branch) {
	for _, logger := range l.loggers {
		logger.LogBranch(ctx, runID, condition, branch)
	}
}

// LogExit logs to all configured loggers.
func (l *MultiExecLogger) LogExit(ctx context.Context, runID string, stats RunStats, duration time.Duration, err error) {
	for _, logger := range l.loggers {
		logger.LogExit(ctx, runID, stats, duration, err)
	}
}

// =============================================================================
// NopExecLogger - Discards all events
// =============================================================================

// NopExecLogger is a no-op logger.
type NopExecLogger struct{}

// NewNopExecLogger creates a no-op logger.
func NewNopExecLogger() *NopExecLogger {
	return &NopExecLogger{}
}

func (l *NopExecLogger) LogEntry(ctx context.Context, runID string, statements int) {}

func (l *NopExecLogger) LogBranch(ctx context.Context, runID string, condition string, branch Branch) {
}

func (l *NopExecLogger) LogExit(ctx context.Context, runID string, stats RunStats, duration time.Duration, err error) {
}
