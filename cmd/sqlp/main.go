package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ha1tch/sqlp/config"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sqlp", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "YAML configuration file")
		logLevel   = fs.String("log-level", "", "Log level: debug, info, warn, error")
		logFormat  = fs.String("log-format", "", "Log format: text, json")
		showHelp   = fs.Bool("h", false, "Show help")
		helpL      = fs.Bool("help", false, "Show help")
		showVer    = fs.Bool("v", false, "Show version")
		versionL   = fs.Bool("version", false, "Show version")
	)

	fs.Usage = func() {
		printUsage(stderr)
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showHelp || *helpL {
		printUsage(stdout)
		return 0
	}
	if *showVer || *versionL {
		printVersion(stdout)
		return 0
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stdout)
		return 0
	}

	cfg, err := loadConfig(*configPath, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	handler, err := cfg.Handler(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	a := &app{
		cfg:    cfg,
		logger: slog.New(handler),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "run":
		return a.cmdRun(cmdArgs)
	case "transpile":
		return a.cmdTranspile(cmdArgs)
	case "check":
		return a.cmdCheck(cmdArgs)
	case "schedule":
		return a.cmdSchedule(cmdArgs)
	case "version":
		printVersion(stdout)
		return 0
	case "help":
		printUsage(stdout)
		return 0
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n", cmd)
	printUsage(stderr)
	return 2
}

// loadConfig layers the config file and the global flags over the
// defaults.
func loadConfig(path, logLevel, logFormat string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// errUsage marks argument errors, which exit with status 2.
var errUsage = errors.New("usage")

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("sqlp "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: sqlp %s [options] <file|->\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses subcommand flags and returns the single input path.
func (a *app) parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", errUsage
	}
	switch fs.NArg() {
	case 0:
		fmt.Fprintln(a.stderr, "error: no input file (use - for stdin)")
		return "", errUsage
	case 1:
		return fs.Arg(0), nil
	}
	fmt.Fprintln(a.stderr, "error: too many arguments")
	return "", errUsage
}

// readInput reads path, or stdin when path is "-".
func (a *app) readInput(path string) (string, error) {
	if path == "-" {
		source, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(source), nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(source), nil
}

// fail prints err and returns the exit status for it.
func (a *app) fail(err error) int {
	if errors.Is(err, errUsage) {
		return 2
	}
	fmt.Fprintf(a.stderr, "error: %v\n", err)
	return 1
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "sqlp version %s\n", version)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `sqlp - IF/ELSE control flow for SQL scripts

Usage:
  sqlp [global options] <command> [options] <file>

Commands:
  run         Parse and execute a script
  transpile   Rewrite a script into plain SQL
  check       Parse and lint a script without running it
  schedule    Re-run a script on a cron schedule
  version     Show version

<file> may be - to read from stdin.

Global Options:
  --config <file>       YAML configuration file
  --log-level <level>   debug, info, warn, error (default: warn)
  --log-format <fmt>    text, json (default: text)
  -h, --help            Show help
  -v, --version         Show version

Run Options:
  --backend <name>      sqlite, postgres, mysql, sqlserver (default: sqlite, in memory)
  --dsn <dsn>           Data source name for the backend
  --result              Print the result of the last statement
  --format <fmt>        Result format: table, tsv, auto (default: auto)
  --verbose             List the tables present after the run

Transpile Options:
  --target <name>       postgres, duckdb, sqlite, mysql, sqlserver, generic (default: postgres)
  -o, --output <file>   Write to file instead of stdout
  -f, --force           Allow overwriting an existing output file

Check Options:
  --dialect <name>      Dialect to check against (default: the configured target)

Schedule Options:
  --cron <spec>         Cron spec, optionally with seconds, or @every <duration>
  --backend, --dsn      As for run

Examples:
  sqlp run script.sqlp
  sqlp run --backend postgres --dsn postgres://localhost/app script.sqlp
  sqlp transpile --target duckdb -o out.sql script.sqlp
  sqlp check --dialect sqlserver script.sqlp
  sqlp schedule --cron "@every 1m" --backend sqlite --dsn ./state.db script.sqlp
`)
}
