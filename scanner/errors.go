package scanner

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports malformed input: a missing or unexpected keyword.
type SyntaxError struct {
	Keyword string // keyword involved, if any
	Msg     string
	Pos     int // byte offset
	Line    int // 1-based
	Column  int // 1-based, in runes
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Errorf builds a *SyntaxError located at byte offset pos of the source.
func (s *Scanner) Errorf(pos int, kw Keyword, format string, args ...interface{}) *SyntaxError {
	return s.errorAt(pos, kw, format, args...)
}

func (s *Scanner) errorAt(pos int, kw Keyword, format string, args ...interface{}) *SyntaxError {
	line, col := LineCol(s.src, pos)
	e := &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		Pos:    pos,
		Line:   line,
		Column: col,
	}
	if kw != NONE {
		e.Keyword = kw.String()
	}
	return e
}

// LineCol converts a byte offset into a 1-based line and column.
func LineCol(src string, pos int) (line, col int) {
	if pos > len(src) {
		pos = len(src)
	}
	if pos < 0 {
		pos = 0
	}
	before := src[:pos]
	line = strings.Count(before, "\n") + 1
	if idx := strings.LastIndexByte(before, '\n'); idx >= 0 {
		before = before[idx+1:]
	}
	return line, utf8.RuneCountInString(before) + 1
}
