// Package parser builds an ast.Script from source text.
//
// Statement bodies are not parsed: a statement is everything up to the next
// semicolon outside literals and comments. Only IF ... THEN ... [ELSE ...]
// END IF blocks are recognised as structure.
package parser

import (
	"strings"

	"github.com/ha1tch/sqlp/ast"
	"github.com/ha1tch/sqlp/scanner"
)

// SyntaxError is returned for malformed input.
type SyntaxError = scanner.SyntaxError

// Parser holds the state of one parse. It is not safe for concurrent use;
// Parse creates a fresh one per call.
type Parser struct {
	s *scanner.Scanner
}

// New creates a parser over src.
func New(src string) *Parser {
	return &Parser{s: scanner.New(src)}
}

// Parse parses src into a Script. On error no partial script is returned.
func Parse(src string) (*ast.Script, error) {
	return New(src).ParseScript()
}

// ParseScript parses the whole input.
func (p *Parser) ParseScript() (*ast.Script, error) {
	stmts, _, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Script{Statements: stmts}, nil
}

// parseBlock collects statements until one of terminators is the next
// keyword or input ends. The terminator found is returned unconsumed;
// NONE means end of input.
func (p *Parser) parseBlock(terminators ...scanner.Keyword) ([]ast.Statement, scanner.Keyword, error) {
	var stmts []ast.Statement
	for {
		start := p.s.Pos()
		p.s.SkipInsignificant()
		if p.s.AtEOF() {
			return stmts, scanner.NONE, nil
		}

		kw := p.s.PeekKeyword()
		for _, t := range terminators {
			if kw == t {
				return stmts, t, nil
			}
		}

		switch kw {
		case scanner.IF:
			cond, err := p.parseConditional()
			if err != nil {
				return nil, scanner.NONE, err
			}
			stmts = append(stmts, cond)
		case scanner.ELSE:
			return nil, scanner.NONE, p.s.Errorf(p.s.Pos(), scanner.ELSE,
				"ELSE at position %d without matching IF", p.s.Pos())
		case scanner.END:
			if p.endIfAhead() {
				return nil, scanner.NONE, p.s.Errorf(p.s.Pos(), scanner.END,
					"END IF at position %d without matching IF", p.s.Pos())
			}
			fallthrough
		default:
			at := p.s.Pos()
			p.s.Seek(start)
			if raw := p.parseRaw(at); raw != nil {
				stmts = append(stmts, raw)
			}
		}
	}
}

// parseRaw reads one statement starting at the current position, keeping
// the insignificant text before it. at is the offset of its first
// significant character.
func (p *Parser) parseRaw(at int) *ast.RawSQL {
	text, _ := p.s.ReadStatement()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &ast.RawSQL{SQL: text + ";", Pos: at}
}

// parseConditional parses IF <cond> THEN <block> [ELSE <block>] END IF [;].
func (p *Parser) parseConditional() (*ast.Conditional, error) {
	p.s.SkipInsignificant()
	pos := p.s.Pos()
	if err := p.s.Expect(scanner.IF); err != nil {
		return nil, err
	}

	cond, err := p.s.ReadUntil(scanner.THEN)
	if err != nil {
		return nil, err
	}
	if err := p.s.Expect(scanner.THEN); err != nil {
		return nil, err
	}

	node := &ast.Conditional{Condition: strings.TrimSpace(cond), Pos: pos}

	node.Then, err = p.parseBody(pos, scanner.ELSE, scanner.END)
	if err != nil {
		return nil, err
	}
	if p.s.PeekKeyword() == scanner.ELSE {
		if err := p.s.Expect(scanner.ELSE); err != nil {
			return nil, err
		}
		node.Else, err = p.parseBody(pos, scanner.END)
		if err != nil {
			return nil, err
		}
		if node.Else == nil {
			node.Else = []ast.Statement{}
		}
	}

	if err := p.s.Expect(scanner.END); err != nil {
		return nil, err
	}
	if err := p.s.Expect(scanner.IF); err != nil {
		return nil, err
	}
	p.s.Accept(';')
	return node, nil
}

// parseBody parses a branch. Running out of input before a terminator is
// reported as a missing END for the IF at ifPos.
func (p *Parser) parseBody(ifPos int, terminators ...scanner.Keyword) ([]ast.Statement, error) {
	stmts, term, err := p.parseBlock(terminators...)
	if err != nil {
		return nil, err
	}
	if term == scanner.NONE {
		line, col := scanner.LineCol(p.s.Source(), ifPos)
		return nil, p.s.Errorf(p.s.Pos(), scanner.END,
			"expected keyword END to close IF at line %d, column %d", line, col)
	}
	return stmts, nil
}

// endIfAhead reports whether the scanner is at END IF.
func (p *Parser) endIfAhead() bool {
	save := p.s.Pos()
	defer p.s.Seek(save)
	if err := p.s.Expect(scanner.END); err != nil {
		return false
	}
	return p.s.PeekKeyword() == scanner.IF
}
