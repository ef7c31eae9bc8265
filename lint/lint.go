// Package lint reports likely mistakes in a parsed script without running
// it.
package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ha1tch/tsqlparser"
	tsqlast "github.com/ha1tch/tsqlparser/ast"

	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/dialect"
	"github.com/ha1tch/sqlp/scanner"
)

// Severity orders diagnostics; only Error makes a check fail.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is one finding, located at a byte offset of the source.
type Diagnostic struct {
	Severity Severity
	Pos      int
	Message  string
}

// Format renders the diagnostic with the line and column of its offset in
// src.
func (d Diagnostic) Format(src string) string {
	line, col := scanner.LineCol(src, d.Pos)
	return fmt.Sprintf("%d:%d: %s: %s", line, col, d.Severity, d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// goStatementPattern matches GO batch separator lines. GO is a directive of
// client tools (SSMS, sqlcmd); servers reject it.
var goStatementPattern = regexp.MustCompile(`(?im)^\s*GO\s*$`)

// Check inspects script for the given dialect. Statements are checked in
// document order; the result is sorted by position.
func Check(script *ast.Script, d dialect.Dialect) []Diagnostic {
	c := &checker{dialect: d}
	ast.Walk(script, func(stmt ast.Statement, depth int) bool {
		switch s := stmt.(type) {
		case *ast.RawSQL:
			c.checkRaw(s, depth)
		case *ast.Conditional:
			c.checkConditional(s)
		}
		return true
	})
	sort.SliceStable(c.diags, func(i, j int) bool { return c.diags[i].Pos < c.diags[j].Pos })
	return c.diags
}

type checker struct {
	dialect dialect.Dialect
	diags   []Diagnostic
}

func (c *checker) report(sev Severity, pos int, format string, args ...interface{}) {
	c.diags = append(c.diags, Diagnostic{Severity: sev, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) checkConditional(s *ast.Conditional) {
	if scanner.TrimInsignificant(s.Condition) == "" {
		c.report(Error, s.Pos, "IF without a condition")
	}
	if len(s.Then) == 0 && len(s.Else) == 0 {
		c.report(Warning, s.Pos, "IF block has no statements")
	}
	if c.dialect == dialect.SQLServer {
		c.checkTSQLCondition(s)
	}
}

func (c *checker) checkRaw(s *ast.RawSQL, depth int) {
	if goStatementPattern.MatchString(s.SQL) {
		c.report(Warning, s.Pos, "GO batch separator is a client directive and will be sent to the server as SQL")
	}
	if depth > 0 {
		if kw := scanner.FirstKeyword(s.SQL); kw.IsDDL() {
			c.report(Info, s.Pos, "%s inside an IF branch is emitted unconditionally when transpiled", kw)
		}
	}
	if c.dialect == dialect.SQLServer {
		if _, errs := tsqlparser.Parse(s.SQL); len(errs) > 0 {
			c.report(Warning, s.Pos, "T-SQL: %s", errs[0])
		}
	}
}

// checkTSQLCondition parses the guard the way SQL Server would see it. A
// scalar guard is evaluated as SELECT (<condition>), which SQL Server
// rejects for predicates since it has no boolean type.
func (c *checker) checkTSQLCondition(s *ast.Conditional) {
	cond := scanner.TrimInsignificant(s.Condition)
	if cond == "" {
		return
	}
	if scanner.IsQuery(cond) {
		if _, errs := tsqlparser.Parse(cond); len(errs) > 0 {
			c.report(Warning, s.Pos, "T-SQL: %s", errs[0])
		}
		return
	}

	program, errs := tsqlparser.Parse("IF " + cond + " SELECT 1")
	if len(errs) > 0 {
		c.report(Warning, s.Pos, "T-SQL: %s", errs[0])
		return
	}
	if len(program.Statements) == 0 {
		return
	}
	if stmt, ok := program.Statements[0].(*tsqlast.IfStatement); ok && isPredicate(stmt.Condition) {
		c.report(Warning, s.Pos,
			"SQL Server cannot select the predicate %q; write the condition as a query such as SELECT CASE WHEN %s THEN 1 ELSE 0 END",
			oneLine(cond), oneLine(cond))
	}
}

func isPredicate(expr tsqlast.Expression) bool {
	switch e := expr.(type) {
	case *tsqlast.InfixExpression:
		switch e.Operator {
		case "=", "<>", "!=", "<", ">", "<=", ">=", "AND", "OR":
			return true
		}
	case *tsqlast.PrefixExpression:
		return strings.EqualFold(e.Operator, "NOT")
	case *tsqlast.ExistsExpression, *tsqlast.IsNullExpression, *tsqlast.BetweenExpression,
		*tsqlast.LikeExpression, *tsqlast.InExpression:
		return true
	}
	return false
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
