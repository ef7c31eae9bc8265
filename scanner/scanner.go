// Package scanner tokenizes SQL text just enough to find the boundaries
// that matter for IF/THEN/ELSE/END IF blocks: keywords at word boundaries
// and statement-terminating semicolons.
//
// Everything else is opaque. String literals, quoted identifiers,
// dollar-quoted bodies and comments are consumed whole, so keyword-like
// text or semicolons inside them are never mistaken for structure.
package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind is the lexical category of a token.
type TokenKind int

const (
	EOF       TokenKind = iota
	SPACE               // run of whitespace
	COMMENT             // -- line or /* block */ comment
	WORD                // identifier, keyword or number
	QUOTED              // 'string', E'string', "ident", `ident`, $tag$body$tag$
	SEMICOLON           // ;
	OTHER               // any other single character
)

// Token is a slice of the source text.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int // byte offset of the first character
}

// Scanner walks a source string. The zero value is not usable; call New.
type Scanner struct {
	src string
	pos int
}

// New creates a Scanner positioned at the start of src.
func New(src string) *Scanner {
	return &Scanner{src: src}
}

// Source returns the text being scanned.
func (s *Scanner) Source() string { return s.src }

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.pos }

// Seek moves the scanner to an absolute byte offset.
func (s *Scanner) Seek(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(s.src):
		pos = len(s.src)
	}
	s.pos = pos
}

// AtEOF reports whether the whole input has been consumed.
func (s *Scanner) AtEOF() bool { return s.pos >= len(s.src) }

// Next returns the next token and advances past it.
func (s *Scanner) Next() Token {
	if s.pos >= len(s.src) {
		return Token{Kind: EOF, Pos: len(s.src)}
	}

	start := s.pos
	c := s.src[s.pos]

	switch {
	case isSpace(c):
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			s.pos++
		}
		return s.token(SPACE, start)
	case c == '-' && s.peek(1) == '-':
		return s.lineComment(start)
	case c == '/' && s.peek(1) == '*':
		return s.blockComment(start)
	case c == '\'':
		return s.quoted(start, '\'', false)
	case c == '"':
		return s.quoted(start, '"', false)
	case c == '`':
		return s.quoted(start, '`', false)
	case c == '$':
		return s.dollar(start)
	case c == ';':
		s.pos++
		return s.token(SEMICOLON, start)
	}

	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	if !isIdentRune(r) {
		s.pos += size
		return s.token(OTHER, start)
	}

	s.readWord()
	// E'...' is a PostgreSQL escape string: backslash escapes the quote.
	if s.pos-start == 1 && (c == 'E' || c == 'e') && s.peek(0) == '\'' {
		s.pos = start + 1
		tok := s.quoted(s.pos, '\'', true)
		tok.Text = s.src[start:s.pos]
		tok.Pos = start
		return tok
	}
	return s.token(WORD, start)
}

// SkipInsignificant advances past whitespace and comments.
func (s *Scanner) SkipInsignificant() {
	for {
		start := s.pos
		tok := s.Next()
		if tok.Kind != SPACE && tok.Kind != COMMENT {
			s.pos = start
			return
		}
	}
}

// PeekKeyword returns the keyword that the next significant word spells,
// or NONE, without moving the scanner.
func (s *Scanner) PeekKeyword() Keyword {
	save := s.pos
	defer func() { s.pos = save }()

	s.SkipInsignificant()
	tok := s.Next()
	if tok.Kind != WORD {
		return NONE
	}
	return LookupKeyword(tok.Text)
}

// Expect skips insignificant text and consumes kw. If the next significant
// word is not kw, the scanner does not move and a *SyntaxError is returned.
func (s *Scanner) Expect(kw Keyword) error {
	save := s.pos
	s.SkipInsignificant()
	at := s.pos

	tok := s.Next()
	if tok.Kind == WORD && LookupKeyword(tok.Text) == kw {
		return nil
	}
	s.pos = save

	found := "end of input"
	if tok.Kind != EOF {
		found = quoteFound(tok.Text)
	}
	return s.errorAt(at, kw, "expected keyword %s at position %d, found %s", kw, at, found)
}

// Accept skips insignificant text and consumes the single byte c if it is
// next. It reports whether c was consumed.
func (s *Scanner) Accept(c byte) bool {
	s.SkipInsignificant()
	if s.pos < len(s.src) && s.src[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

// ReadUntil returns the text from the current position up to the next
// occurrence of kw as a whole word outside literals and comments. The
// scanner is left at the start of kw, which is not consumed.
func (s *Scanner) ReadUntil(kw Keyword) (string, error) {
	start := s.pos
	for {
		tok := s.Next()
		switch tok.Kind {
		case EOF:
			s.pos = start
			return "", s.errorAt(start, kw, "expected keyword %s after position %d", kw, start)
		case WORD:
			if LookupKeyword(tok.Text) == kw {
				s.pos = tok.Pos
				return s.src[start:tok.Pos], nil
			}
		}
	}
}

// ReadStatement returns the text from the current position up to, not
// including, the next semicolon outside literals and comments, and moves
// past the semicolon. At end of input without a semicolon the text up to
// the last significant token is returned with terminated set to false.
func (s *Scanner) ReadStatement() (text string, terminated bool) {
	start := s.pos
	end := start
	for {
		tok := s.Next()
		switch tok.Kind {
		case EOF:
			return s.src[start:end], false
		case SEMICOLON:
			return s.src[start:tok.Pos], true
		case SPACE, COMMENT:
		default:
			end = s.pos
		}
	}
}

func (s *Scanner) token(kind TokenKind, start int) Token {
	return Token{Kind: kind, Text: s.src[start:s.pos], Pos: start}
}

func (s *Scanner) peek(offset int) byte {
	if i := s.pos + offset; i < len(s.src) {
		return s.src[i]
	}
	return 0
}

func (s *Scanner) readWord() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isIdentRune(r) {
			return
		}
		s.pos += size
	}
}

// lineComment consumes from "--" to end of line; the newline is left.
func (s *Scanner) lineComment(start int) Token {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
	return s.token(COMMENT, start)
}

// blockComment consumes a /* */ comment. Nested comments are balanced;
// an unterminated comment runs to end of input.
func (s *Scanner) blockComment(start int) Token {
	s.pos += 2
	for depth := 1; s.pos < len(s.src) && depth > 0; {
		switch {
		case s.src[s.pos] == '/' && s.peek(1) == '*':
			depth++
			s.pos += 2
		case s.src[s.pos] == '*' && s.peek(1) == '/':
			depth--
			s.pos += 2
		default:
			s.pos++
		}
	}
	return s.token(COMMENT, start)
}

// quoted consumes a literal delimited by q. A doubled delimiter is an
// escaped delimiter; with backslash set, \<any> is an escape as well.
// An unterminated literal runs to end of input.
func (s *Scanner) quoted(start int, q byte, backslash bool) Token {
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if backslash && c == '\\' {
			s.pos += 2
			continue
		}
		s.pos++
		if c != q {
			continue
		}
		if s.pos < len(s.src) && s.src[s.pos] == q {
			s.pos++
			continue
		}
		break
	}
	if s.pos > len(s.src) {
		s.pos = len(s.src)
	}
	return s.token(QUOTED, start)
}

// dollar consumes a $tag$...$tag$ body. A '$' that does not open one
// ($1 parameters, '$' inside identifiers) is returned as OTHER.
func (s *Scanner) dollar(start int) Token {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s.src[:start]); isIdentRune(r) {
			s.pos++
			return s.token(OTHER, start)
		}
	}

	s.pos++
	tagStart := s.pos
	if s.pos < len(s.src) && s.src[s.pos] != '$' {
		if !isTagStart(s.src[s.pos]) {
			return s.token(OTHER, start)
		}
		for s.pos < len(s.src) && isTagCont(s.src[s.pos]) {
			s.pos++
		}
	}
	if s.pos >= len(s.src) || s.src[s.pos] != '$' {
		s.pos = start + 1
		return s.token(OTHER, start)
	}

	closing := "$" + s.src[tagStart:s.pos] + "$"
	s.pos++
	if idx := strings.Index(s.src[s.pos:], closing); idx >= 0 {
		s.pos += idx + len(closing)
	} else {
		s.pos = len(s.src)
	}
	return s.token(QUOTED, start)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isTagStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isTagCont(c byte) bool {
	return isTagStart(c) || (c >= '0' && c <= '9')
}

func quoteFound(text string) string {
	const max = 20
	if len(text) > max {
		text = text[:max] + "..."
	}
	return "\"" + text + "\""
}
