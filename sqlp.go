// Package sqlp adds IF/ELSE control flow to plain SQL scripts.
//
// A script is ordinary SQL in which statements may be grouped into
//
//	IF <condition> THEN
//	  ...
//	ELSE
//	  ...
//	END IF;
//
// blocks, nested to any depth. A script can be executed against a live
// database, where each condition is evaluated on the session and one branch
// runs, or transpiled into plain SQL text.
//
// This package is a thin layer over parser, sqlpruntime and transpiler for
// callers that work with source text.
package sqlp

import (
	"context"

	"github.com/ha1tch/sqlp/adapter"
	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/dialect"
	"github.com/ha1tch/sqlp/parser"
	"github.com/ha1tch/sqlp/scanner"
	"github.com/ha1tch/sqlp/sqlpruntime"
	"github.com/ha1tch/sqlp/transpiler"
)

type (
	Script    = ast.Script
	Session   = sqlpruntime.Session
	ResultSet = sqlpruntime.ResultSet

	SyntaxError        = scanner.SyntaxError
	EngineError        = sqlpruntime.EngineError
	ConfigurationError = dialect.ConfigurationError
)

// Parse parses src into a script.
func Parse(src string) (*Script, error) {
	return parser.Parse(src)
}

// Run parses src and executes it on sess using the named backend. An empty
// backend means an in-memory SQLite database. When sess is nil a session is
// opened and returned; the caller closes it.
//
// The backend is checked before src is parsed.
func Run(ctx context.Context, src, backend string, sess Session) (Session, error) {
	sess, _, err := run(ctx, src, backend, sess, false)
	return sess, err
}

// RunCapturing is Run, also returning the rows of the last statement if it
// produced any.
func RunCapturing(ctx context.Context, src, backend string, sess Session) (Session, *ResultSet, error) {
	return run(ctx, src, backend, sess, true)
}

func run(ctx context.Context, src, backend string, sess Session, capture bool) (Session, *ResultSet, error) {
	cfg := adapter.DefaultConfig()
	if backend != "" {
		d, err := dialect.ParseBackend(backend)
		if err != nil {
			return sess, nil, err
		}
		cfg.Backend = d
	}
	interp, err := sqlpruntime.New(cfg)
	if err != nil {
		return sess, nil, err
	}

	script, err := parser.Parse(src)
	if err != nil {
		return sess, nil, err
	}
	if capture {
		return interp.RunCapturing(ctx, script, sess)
	}
	sess, err = interp.Run(ctx, script, sess)
	return sess, nil, err
}

// Transpile parses src and rewrites it for target. An empty target means
// postgres.
func Transpile(src, target string) (string, error) {
	c, err := transpiler.New(target)
	if err != nil {
		return "", err
	}
	script, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	return c.Transpile(script), nil
}
