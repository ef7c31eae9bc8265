// Package scheduler re-runs a script on a cron schedule.
//
// Every run executes on the same session, so tables and temporary state
// created by one run are visible to the next. A run that is still going
// when the next tick fires causes that tick to be skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/sqlpruntime"
)

// specParser accepts standard five-field specs, an optional leading seconds
// field, and descriptors such as @hourly or @every 10s.
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSpec validates a cron spec.
func ParseSpec(spec string) (cron.Schedule, error) {
	sched, err := specParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return sched, nil
}

// Runner executes a script on a session. *sqlpruntime.Interpreter
// satisfies it.
type Runner interface {
	Run(ctx context.Context, script *ast.Script, sess sqlpruntime.Session) (sqlpruntime.Session, error)
}

// Scheduler owns the session shared by all runs of one script.
type Scheduler struct {
	runner Runner
	script *ast.Script
	logger *slog.Logger

	mu      sync.Mutex // serialises runs
	sess    sqlpruntime.Session
	owned   bool // sess was opened by the first run and is closed by Stop
	runs    int
	failed  int
	lastErr error

	lifeMu sync.Mutex // guards cron and cancel; never held while a run is waited on
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New creates a scheduler for script. When sess is nil the first run opens
// a session, which is then kept until Stop. A nil logger uses
// slog.Default().
func New(runner Runner, script *ast.Script, sess sqlpruntime.Session, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner: runner,
		script: script,
		sess:   sess,
		logger: logger,
	}
}

// RunOnce executes the script immediately on the shared session.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	sess, err := s.runner.Run(ctx, s.script, s.sess)
	if s.sess == nil && sess != nil {
		s.sess = sess
		s.owned = true
	}
	s.runs++
	if err != nil {
		s.failed++
		s.lastErr = err
		s.logger.Error("scheduled run failed", "run", s.runs, "duration", time.Since(start), "error", err)
		return err
	}
	s.lastErr = nil
	s.logger.Info("scheduled run completed", "run", s.runs, "duration", time.Since(start))
	return nil
}

// Start schedules the script and returns; runs happen in the background
// until Stop. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if _, err := ParseSpec(spec); err != nil {
		return err
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	log := cronLogger{s.logger}
	c := cron.New(
		cron.WithParser(specParser),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := c.AddFunc(spec, func() {
		_ = s.RunOnce(runCtx)
	}); err != nil {
		cancel()
		return fmt.Errorf("scheduling %q: %w", spec, err)
	}

	s.cron, s.cancel = c, cancel
	c.Start()
	s.logger.Info("scheduler started", "spec", spec)
	return nil
}

// Run is Start followed by waiting for ctx to be cancelled and Stop.
func (s *Scheduler) Run(ctx context.Context, spec string) error {
	if err := s.Start(ctx, spec); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Stop cancels the current run, waits for it to return, and closes the
// session if the scheduler opened it.
func (s *Scheduler) Stop() error {
	s.lifeMu.Lock()
	cr, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.lifeMu.Unlock()
	if cr != nil {
		cancel()
		<-cr.Stop().Done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("scheduler stopped", "runs", s.runs, "failed", s.failed)
	if s.owned {
		s.owned = false
		if c, ok := s.sess.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

// Session returns the shared session, or nil before the first run opened
// one.
func (s *Scheduler) Session() sqlpruntime.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// Stats returns the number of runs so far, how many failed, and the error
// of the latest run.
func (s *Scheduler) Stats() (runs, failed int, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.failed, s.lastErr
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
