// Package dialect names the SQL dialects sqlp can execute against or
// transpile to.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect represents a SQL dialect
type Dialect int

const (
	Generic Dialect = iota
	Postgres
	MySQL
	SQLite
	SQLServer
	DuckDB
)

var names = map[Dialect]string{
	Generic:   "generic",
	Postgres:  "postgres",
	MySQL:     "mysql",
	SQLite:    "sqlite",
	SQLServer: "sqlserver",
	DuckDB:    "duckdb",
}

// aliases accepted on the command line and in config files
var aliases = map[string]Dialect{
	"generic":    Generic,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pg":         Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"tsql":       SQLServer,
	"duckdb":     DuckDB,
}

func (d Dialect) String() string {
	if name, ok := names[d]; ok {
		return name
	}
	return fmt.Sprintf("dialect(%d)", int(d))
}

// Backends lists the dialects that can be executed against.
// DuckDB has no pure-Go driver in the stack, so it is a transpile target only.
var Backends = []Dialect{SQLite, Postgres, MySQL, SQLServer}

// Targets lists the dialects accepted by the transpiler.
var Targets = []Dialect{Postgres, DuckDB, SQLite, MySQL, SQLServer, Generic}

// Lookup resolves a dialect name or alias, case-insensitively.
func Lookup(name string) (Dialect, bool) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// ParseBackend resolves name to an executable backend.
func ParseBackend(name string) (Dialect, error) {
	return parseIn("backend", name, Backends)
}

// ParseTarget resolves name to a transpilation target.
func ParseTarget(name string) (Dialect, error) {
	return parseIn("target", name, Targets)
}

// IsBackend reports whether d can be executed against.
func IsBackend(d Dialect) bool {
	return contains(Backends, d)
}

// IsTarget reports whether d is a transpilation target.
func IsTarget(d Dialect) bool {
	return contains(Targets, d)
}

func parseIn(kind, name string, allowed []Dialect) (Dialect, error) {
	d, ok := Lookup(name)
	if !ok || !contains(allowed, d) {
		return Generic, &ConfigurationError{Kind: kind, Name: name, Supported: allowed}
	}
	return d, nil
}

func contains(list []Dialect, d Dialect) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}

// ConfigurationError reports an unsupported backend or transpilation target.
// It is raised when an interpreter or compiler is constructed, before any
// parsing or execution takes place.
type ConfigurationError struct {
	Kind      string // "backend" or "target"
	Name      string
	Supported []Dialect
}

func (e *ConfigurationError) Error() string {
	supported := make([]string, len(e.Supported))
	for i, d := range e.Supported {
		supported[i] = d.String()
	}
	return fmt.Sprintf("unsupported %s %q (valid: %s)", e.Kind, e.Name, strings.Join(supported, ", "))
}
