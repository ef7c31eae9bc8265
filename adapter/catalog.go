package adapter

import (
	"context"
	"database/sql"

	"github.com/ha1tch/sqlp/dialect"
)

// Querier is the read side of a session: *sql.DB, *sql.Conn, *sql.Tx
// and *Conn all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

var listTablesQuery = map[dialect.Dialect]string{
	dialect.SQLite: `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`,
	dialect.Postgres: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
	dialect.MySQL: `SELECT table_name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
	dialect.SQLServer: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`,
}

// ListTables returns the names of the user tables visible to the session,
// sorted by name.
func ListTables(ctx context.Context, q Querier, backend dialect.Dialect) ([]string, error) {
	query, ok := listTablesQuery[backend]
	if !ok {
		return nil, &dialect.ConfigurationError{Kind: "backend", Name: backend.String(), Supported: dialect.Backends}
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ScanRows reads all remaining rows into a column list and row values.
// []byte values are copied into strings.
func ScanRows(rows *sql.Rows) ([]string, [][]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var result [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result = append(result, values)
	}
	return columns, result, rows.Err()
}
