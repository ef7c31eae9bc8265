// Package ast defines the syntax tree of a script: plain SQL statements
// interleaved with IF/THEN/ELSE/END IF blocks.
//
// A tree is built once by the parser and is read-only afterwards.
package ast

import (
	"strings"
)

// Statement is one of *RawSQL or *Conditional.
type Statement interface {
	statementNode()
	// Offset returns the byte offset of the statement's first significant
	// character in the source text.
	Offset() int
	String() string
}

// Script is the root of a parse.
type Script struct {
	Statements []Statement
}

// AllRaw reports whether every top-level statement is plain SQL.
func (s *Script) AllRaw() bool {
	for _, stmt := range s.Statements {
		if _, ok := stmt.(*RawSQL); !ok {
			return false
		}
	}
	return true
}

func (s *Script) String() string {
	var sb strings.Builder
	for i, stmt := range s.Statements {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(stmt.String())
	}
	return sb.String()
}

// RawSQL is a single opaque SQL statement. SQL always ends with ";" and
// keeps any whitespace and comments that preceded the statement in the
// source, so concatenating consecutive RawSQL texts reproduces the input.
type RawSQL struct {
	SQL string
	Pos int
}

func (r *RawSQL) statementNode() {}

// Offset returns the position of the statement.
func (r *RawSQL) Offset() int { return r.Pos }

func (r *RawSQL) String() string { return strings.TrimSpace(r.SQL) }

// Conditional is an IF block.
type Conditional struct {
	Condition string      // guard expression or query, trimmed, without THEN
	Then      []Statement // may be empty
	Else      []Statement // nil when there is no ELSE clause
	Pos       int
}

func (c *Conditional) statementNode() {}

// Offset returns the position of the IF keyword.
func (c *Conditional) Offset() int { return c.Pos }

// HasElse reports whether the block has an ELSE clause, possibly empty.
func (c *Conditional) HasElse() bool { return c.Else != nil }

func (c *Conditional) String() string {
	var sb strings.Builder
	sb.WriteString("IF ")
	sb.WriteString(c.Condition)
	sb.WriteString(" THEN")
	writeBlock(&sb, c.Then)
	if c.HasElse() {
		sb.WriteString("\nELSE")
		writeBlock(&sb, c.Else)
	}
	sb.WriteString("\nEND IF;")
	return sb.String()
}

func writeBlock(sb *strings.Builder, stmts []Statement) {
	for _, stmt := range stmts {
		sb.WriteString("\n")
		for i, line := range strings.Split(stmt.String(), "\n") {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("  ")
			sb.WriteString(line)
		}
	}
}
