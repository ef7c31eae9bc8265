package sqlpruntime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ha1tch/sqlp/adapter"
	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/scanner"
)

// Interpreter executes scripts. It keeps no state between runs and may be
// shared; each Run owns only the session it is given or opens.
type Interpreter struct {
	cfg    adapter.Config
	logger ExecLogger
	newID  func() string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the execution logger. The default discards events.
func WithLogger(logger ExecLogger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithRunIDs replaces the run ID generator (random UUIDs by default).
func WithRunIDs(newID func() string) Option {
	return func(i *Interpreter) {
		if newID != nil {
			i.newID = newID
		}
	}
}

// New creates an interpreter for the backend in cfg. An unsupported backend
// is reported here as a *dialect.ConfigurationError, before anything is
// parsed or executed.
func New(cfg adapter.Config, opts ...Option) (*Interpreter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	i := &Interpreter{
		cfg:    cfg,
		logger: NewNopExecLogger(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Run executes script on sess. When sess is nil a new session is opened
// from the interpreter's config; it is returned and the caller must close
// it (it implements io.Closer). The returned session is non-nil whenever
// one was available, including on execution errors, so the caller can
// inspect or close it.
//
// The first failing statement stops the run. Its error is an *EngineError.
func (i *Interpreter) Run(ctx context.Context, script *ast.Script, sess Session) (Session, error) {
	sess, _, err := i.run(ctx, script, sess, false)
	return sess, err
}

// RunCapturing is Run, additionally returning the result of the last plain
// statement executed if that statement produced a result set. Queries
// issued to evaluate conditions do not count. The result is nil when the
// last statement produced no columns or when no statement ran.
func (i *Interpreter) RunCapturing(ctx context.Context, script *ast.Script, sess Session) (Session, *ResultSet, error) {
	return i.run(ctx, script, sess, true)
}

func (i *Interpreter) run(ctx context.Context, script *ast.Script, sess Session, capture bool) (Session, *ResultSet, error) {
	if sess == nil {
		conn, err := adapter.Open(ctx, i.cfg)
		if err != nil {
			return nil, nil, err
		}
		sess = conn
	}

	var stmts []ast.Statement
	if script != nil {
		stmts = script.Statements
	}

	e := &execution{
		sess:    sess,
		id:      i.newID(),
		logger:  i.logger,
		capture: capture,
	}

	start := time.Now()
	i.logger.LogEntry(ctx, e.id, len(stmts))
	err := e.executeStatements(ctx, stmts)
	i.logger.LogExit(ctx, e.id, e.stats, time.Since(start), err)

	if err != nil {
		return sess, nil, err
	}
	return sess, e.last, nil
}

// execution is the state of a single run.
type execution struct {
	sess    Session
	id      string
	logger  ExecLogger
	capture bool

	last  *ResultSet
	stats RunStats
}

func (e *execution) executeStatements(ctx context.Context, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := e.executeStatement(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (e *execution) executeStatement(ctx context.Context, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.RawSQL:
		return e.executeRaw(ctx, s)
	case *ast.Conditional:
		return e.executeIf(ctx, s)
	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func (e *execution) executeRaw(ctx context.Context, s *ast.RawSQL) error {
	e.stats.Statements++

	if !ReturnsRows(s.SQL) {
		if _, err := e.sess.ExecContext(ctx, s.SQL); err != nil {
			return &EngineError{Statement: s.SQL, Err: err}
		}
		e.last = nil
		return nil
	}

	rows, err := e.sess.QueryContext(ctx, s.SQL)
	if err != nil {
		return &EngineError{Statement: s.SQL, Err: err}
	}
	defer rows.Close()

	if !e.capture {
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			return &EngineError{Statement: s.SQL, Err: err}
		}
		return nil
	}

	columns, data, err := adapter.ScanRows(rows)
	if err != nil {
		return &EngineError{Statement: s.SQL, Err: err}
	}
	if len(columns) == 0 {
		e.last = nil
	} else {
		e.last = &ResultSet{Columns: columns, Rows: data}
	}
	return nil
}

func (e *execution) executeIf(ctx context.Context, s *ast.Conditional) error {
	ok, err := e.evaluate(ctx, s.Condition)
	if err != nil {
		return err
	}

	switch {
	case ok:
		e.logger.LogBranch(ctx, e.id, s.Condition, BranchThen)
		return e.executeStatements(ctx, s.Then)
	case s.HasElse():
		e.logger.LogBranch(ctx, e.id, s.Condition, BranchElse)
		return e.executeStatements(ctx, s.Else)
	}
	e.logger.LogBranch(ctx, e.id, s.Condition, BranchNone)
	return nil
}

// evaluate runs the condition query and applies the truthiness rule to the
// first column of the first row. No row counts as false.
func (e *execution) evaluate(ctx context.Context, condition string) (bool, error) {
	e.stats.Conditions++
	query := ConditionQuery(condition)

	rows, err := e.sess.QueryContext(ctx, query)
	if err != nil {
		return false, &EngineError{Statement: query, Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, &EngineError{Statement: query, Err: err}
		}
		return false, nil
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		return false, &EngineError{Statement: query, Err: err}
	}
	if len(types) == 0 {
		return false, nil
	}
	values := make([]interface{}, len(types))
	valuePtrs := make([]interface{}, len(types))
	for j := range values {
		valuePtrs[j] = &values[j]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return false, &EngineError{Statement: query, Err: err}
	}
	return TruthyColumn(values[0], types[0].DatabaseTypeName()), nil
}

// ConditionQuery returns the query submitted to evaluate condition: the
// condition itself when it is already a SELECT or WITH query, otherwise
// the condition wrapped as SELECT (<condition>).
func ConditionQuery(condition string) string {
	condition = scanner.TrimInsignificant(condition)
	if scanner.IsQuery(condition) {
		return condition
	}
	return "SELECT (" + condition + ")"
}

// ReturnsRows reports whether stmt is submitted as a query rather than
// executed. That is the case when it starts with a row-producing keyword,
// when it calls a procedure (EXEC, EXECUTE, CALL), whose result sets are
// only known once it has run, and when a DML statement has a RETURNING or
// OUTPUT clause.
func ReturnsRows(stmt string) bool {
	switch scanner.FirstKeyword(stmt) {
	case scanner.SELECT, scanner.WITH, scanner.VALUES, scanner.TABLE,
		scanner.SHOW, scanner.PRAGMA, scanner.EXPLAIN, scanner.DESCRIBE,
		scanner.EXEC, scanner.EXECUTE, scanner.CALL:
		return true
	case scanner.INSERT, scanner.UPDATE, scanner.DELETE, scanner.MERGE:
		return scanner.ContainsKeyword(stmt, scanner.RETURNING, scanner.OUTPUT)
	}
	return false
}
