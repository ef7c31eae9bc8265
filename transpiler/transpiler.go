// Package transpiler rewrites a script into plain SQL text without
// executing it.
//
// Both branches of every IF block are always emitted. The guard is
// materialised as a WITH binding and documented in comments, but nothing in
// the output makes the branches conditional: most targets cannot express
// conditional DDL in plain SQL.
package transpiler

import (
	"strings"

	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/dialect"
	"github.com/ha1tch/sqlp/scanner"
)

// DefaultTarget is used when no target is named.
const DefaultTarget = dialect.Postgres

// Compiler emits SQL text for one target dialect.
type Compiler struct {
	target dialect.Dialect
}

// New creates a compiler for the named target. An empty name selects
// DefaultTarget; an unknown one is a *dialect.ConfigurationError.
func New(target string) (*Compiler, error) {
	if strings.TrimSpace(target) == "" {
		return &Compiler{target: DefaultTarget}, nil
	}
	d, err := dialect.ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &Compiler{target: d}, nil
}

// Target returns the dialect the compiler emits.
func (c *Compiler) Target() dialect.Dialect { return c.target }

// Transpile returns the SQL text for script. A script without IF blocks is
// returned exactly as written.
func (c *Compiler) Transpile(script *ast.Script) string {
	if script == nil {
		return ""
	}
	if script.AllRaw() {
		var sb strings.Builder
		for _, stmt := range script.Statements {
			sb.WriteString(stmt.(*ast.RawSQL).SQL)
		}
		return sb.String()
	}
	return strings.Join(c.emitList(script.Statements), "\n")
}

func (c *Compiler) emitList(stmts []ast.Statement) []string {
	var out []string
	for _, stmt := range stmts {
		if text := c.emit(stmt); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func (c *Compiler) emit(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.RawSQL:
		return s.SQL
	case *ast.Conditional:
		return c.emitConditional(s)
	}
	return ""
}

func (c *Compiler) emitConditional(s *ast.Conditional) string {
	guard, ref := Guard(s.Condition)

	lines := []string{
		"WITH __cond AS (\n" + guard + "\n)",
		"-- IF " + oneLine(s.Condition),
		"-- THEN branch guarded by " + ref,
	}
	lines = append(lines, c.emitList(s.Then)...)
	if s.HasElse() {
		lines = append(lines, "-- ELSE branch")
		lines = append(lines, c.emitList(s.Else)...)
	}
	lines = append(lines, "-- END IF")
	return strings.Join(lines, "\n")
}

// Guard returns the body of the __cond binding for condition and the
// expression that refers to its value. A query is used as is; a scalar
// expression becomes SELECT (<condition>) AS cond.
func Guard(condition string) (guard, ref string) {
	condition = scanner.TrimInsignificant(condition)
	if scanner.IsQuery(condition) {
		return condition, "(SELECT * FROM __cond)"
	}
	return "SELECT (" + condition + ") AS cond", "(SELECT cond FROM __cond)"
}

// oneLine joins the lines of a multi-line condition so that it fits in a
// single line comment.
func oneLine(s string) string {
	lines := strings.Split(s, "\n")
	parts := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
