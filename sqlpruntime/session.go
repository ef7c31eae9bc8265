// Package sqlpruntime executes a parsed script against a live database
// session.
//
// Plain statements are submitted verbatim. For an IF block the condition is
// evaluated as a query on the same session and exactly one branch (or none)
// is executed. Nothing is wrapped in a transaction: when a statement fails,
// whatever ran before it stays applied.
package sqlpruntime

import (
	"context"
	"database/sql"
)

// Session is the database surface the interpreter needs. *sql.DB,
// *sql.Conn, *sql.Tx and *adapter.Conn all satisfy it.
//
// A *sql.DB may run consecutive statements on different connections, so
// connection-scoped state (temporary tables, an in-memory SQLite database)
// is only reliable with a *sql.Conn or *sql.Tx.
type Session interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ResultSet is the tabular result of a row-producing statement.
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}
