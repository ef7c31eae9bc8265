package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ha1tch/sqlp/adapter"
	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/dialect"
	"github.com/ha1tch/sqlp/lint"
	"github.com/ha1tch/sqlp/parser"
	"github.com/ha1tch/sqlp/scheduler"
	"github.com/ha1tch/sqlp/sqlpruntime"
	"github.com/ha1tch/sqlp/transpiler"
)

func (a *app) cmdRun(args []string) int {
	fs := a.flagSet("run")
	var (
		backend = fs.String("backend", "", "Backend to execute against")
		dsn     = fs.String("dsn", "", "Data source name")
		verbose = fs.Bool("verbose", false, "List the tables present after the run")
		result  = fs.Bool("result", false, "Print the result of the last statement")
		format  = fs.String("format", "auto", "Result format: table, tsv, auto")
	)
	path, err := a.parseArgs(fs, args)
	if err != nil {
		return a.fail(err)
	}
	outFormat, err := parseFormat(*format)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 2
	}
	a.applyConnectionFlags(*backend, *dsn)

	interp, ac, err := a.interpreter()
	if err != nil {
		return a.fail(err)
	}
	script, err := a.parseFile(path)
	if err != nil {
		return a.fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, rs, err := interp.RunCapturing(ctx, script, nil)
	if c, ok := sess.(io.Closer); ok {
		defer c.Close()
	}
	if err != nil {
		return a.fail(fmt.Errorf("%s: %w", displayName(path), err))
	}

	if *result && rs != nil {
		if err := renderResult(a.stdout, rs, outFormat); err != nil {
			return a.fail(err)
		}
	}
	if *verbose {
		tables, err := adapter.ListTables(ctx, sess, ac.Backend)
		if err != nil {
			a.logger.Warn("listing tables failed", "error", err)
		} else {
			fmt.Fprintln(a.stdout, "-- Tables:")
			for _, name := range tables {
				fmt.Fprintln(a.stdout, name)
			}
		}
	}
	return 0
}

func (a *app) cmdTranspile(args []string) int {
	fs := a.flagSet("transpile")
	var (
		target  = fs.String("target", "", "Target dialect")
		output  = fs.String("o", "", "Write to file instead of stdout")
		outputL = fs.String("output", "", "Write to file instead of stdout")
		force   = fs.Bool("f", false, "Allow overwriting an existing output file")
		forceL  = fs.Bool("force", false, "Allow overwriting an existing output file")
	)
	path, err := a.parseArgs(fs, args)
	if err != nil {
		return a.fail(err)
	}
	if *outputL != "" {
		*output = *outputL
	}
	if *forceL {
		*force = true
	}
	if *target != "" {
		a.cfg.Target = *target
	}

	compiler, err := transpiler.New(a.cfg.Target)
	if err != nil {
		return a.fail(err)
	}
	script, err := a.parseFile(path)
	if err != nil {
		return a.fail(err)
	}
	out := compiler.Transpile(script)

	if *output != "" {
		if !*force {
			if _, err := os.Stat(*output); err == nil {
				return a.fail(fmt.Errorf("output file %s already exists (use --force to overwrite)", *output))
			}
		}
		if err := os.WriteFile(*output, []byte(out), 0644); err != nil {
			return a.fail(fmt.Errorf("writing %s: %w", *output, err))
		}
		return 0
	}

	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Fprint(a.stdout, out)
	return 0
}

func (a *app) cmdCheck(args []string) int {
	fs := a.flagSet("check")
	d := fs.String("dialect", "", "Dialect to check against")
	path, err := a.parseArgs(fs, args)
	if err != nil {
		return a.fail(err)
	}
	name := a.cfg.Target
	if *d != "" {
		name = *d
	}
	target, err := dialect.ParseTarget(name)
	if err != nil {
		return a.fail(err)
	}

	source, err := a.readInput(path)
	if err != nil {
		return a.fail(err)
	}
	script, err := parser.Parse(source)
	if err != nil {
		return a.fail(fmt.Errorf("%s: %w", displayName(path), err))
	}

	diags := lint.Check(script, target)
	for _, diag := range diags {
		fmt.Fprintf(a.stdout, "%s:%s\n", displayName(path), diag.Format(source))
	}
	if lint.HasErrors(diags) {
		return 1
	}
	return 0
}

func (a *app) cmdSchedule(args []string) int {
	fs := a.flagSet("schedule")
	var (
		spec    = fs.String("cron", "", "Cron spec")
		backend = fs.String("backend", "", "Backend to execute against")
		dsn     = fs.String("dsn", "", "Data source name")
	)
	path, err := a.parseArgs(fs, args)
	if err != nil {
		return a.fail(err)
	}
	if *spec != "" {
		a.cfg.Schedule = *spec
	}
	if a.cfg.Schedule == "" {
		fmt.Fprintln(a.stderr, "error: no schedule (use --cron or set schedule in the config file)")
		return 2
	}
	if _, err := scheduler.ParseSpec(a.cfg.Schedule); err != nil {
		return a.fail(err)
	}
	a.applyConnectionFlags(*backend, *dsn)

	interp, _, err := a.interpreter()
	if err != nil {
		return a.fail(err)
	}
	script, err := a.parseFile(path)
	if err != nil {
		return a.fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scheduler.New(interp, script, nil, a.logger)
	if err := s.Run(ctx, a.cfg.Schedule); err != nil {
		return a.fail(err)
	}
	return 0
}

func (a *app) applyConnectionFlags(backend, dsn string) {
	if backend != "" {
		a.cfg.Backend = backend
	}
	if dsn != "" {
		a.cfg.DSN = dsn
	}
}

func (a *app) parseFile(path string) (*ast.Script, error) {
	source, err := a.readInput(path)
	if err != nil {
		return nil, err
	}
	script, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	return script, nil
}

// interpreter builds an interpreter from the effective configuration. The
// CLI prints a failed run itself, so the execution logger reports failures
// at debug level only.
func (a *app) interpreter() (*sqlpruntime.Interpreter, adapter.Config, error) {
	ac, err := a.cfg.AdapterConfig()
	if err != nil {
		return nil, ac, err
	}
	logger := sqlpruntime.NewSlogExecLogger(a.logger)
	logger.SetFailureLevel(slog.LevelDebug)
	interp, err := sqlpruntime.New(ac, sqlpruntime.WithLogger(logger))
	if err != nil {
		return nil, ac, err
	}
	return interp, ac, nil
}
