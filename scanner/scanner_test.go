package scanner

import (
	"errors"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := "SELECT 'a;b' -- c\n\"x y\";"

	tests := []struct {
		expectedKind TokenKind
		expectedText string
	}{
		{WORD, "SELECT"},
		{SPACE, " "},
		{QUOTED, "'a;b'"},
		{SPACE, " "},
		{COMMENT, "-- c"},
		{SPACE, "\n"},
		{QUOTED, "\"x y\""},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	s := New(input)
	for i, tt := range tests {
		tok := s.Next()
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%d, got=%d (%q)", i, tt.expectedKind, tok.Kind, tok.Text)
		}
		if tok.Text != tt.expectedText {
			t.Fatalf("tests[%d] - text wrong. expected=%q, got=%q", i, tt.expectedText, tok.Text)
		}
	}
}

func TestNextTokenLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  TokenKind
		text  string
	}{
		{"doubled quote", "'it''s' x", QUOTED, "'it''s'"},
		{"escape string", `E'it\'s' x`, QUOTED, `E'it\'s'`},
		{"backtick", "`a;b` x", QUOTED, "`a;b`"},
		{"dollar empty tag", "$$ then; $$ x", QUOTED, "$$ then; $$"},
		{"dollar tag", "$fn$ a $$ b $fn$ x", QUOTED, "$fn$ a $$ b $fn$"},
		{"positional param", "$1 x", OTHER, "$"},
		{"nested block comment", "/* a /* b */ c */ x", COMMENT, "/* a /* b */ c */"},
		{"unterminated string", "'abc", QUOTED, "'abc"},
		{"unicode word", "größe x", WORD, "größe"},
		{"word with underscore", "end_date x", WORD, "end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).Next()
			if tok.Kind != tt.kind || tok.Text != tt.text {
				t.Errorf("Next() = {%d %q}, want {%d %q}", tok.Kind, tok.Text, tt.kind, tt.text)
			}
		})
	}
}

func TestReadUntil(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "1 = 1 THEN x", "1 = 1 "},
		{"lowercase", "1 = 1 then x", "1 = 1 "},
		{"keyword in string", "name = 'then' THEN x", "name = 'then' "},
		{"keyword in quoted ident", `"then" = 1 THEN x`, `"then" = 1 `},
		{"keyword in comment", "x -- then\n THEN y", "x -- then\n "},
		{"prefix is not keyword", "thenx = 1 THEN", "thenx = 1 "},
		{"suffix is not keyword", "a_then = 1 THEN", "a_then = 1 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.input)
			got, err := s.ReadUntil(THEN)
			if err != nil {
				t.Fatalf("ReadUntil() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadUntil() = %q, want %q", got, tt.want)
			}
			if s.PeekKeyword() != THEN {
				t.Errorf("scanner should be left at THEN, pos=%d", s.Pos())
			}
		})
	}
}

func TestReadUntilGluedKeyword(t *testing.T) {
	// "1THEN" is a single word, so it does not contain THEN.
	if _, err := New("t.x=1THEN").ReadUntil(THEN); err == nil {
		t.Fatal("expected error for THEN glued to a number")
	}
	got, err := New("t.x=1)THEN").ReadUntil(THEN)
	if err != nil || got != "t.x=1)" {
		t.Errorf("ReadUntil() = %q, %v", got, err)
	}
}

func TestReadUntilMissing(t *testing.T) {
	s := New("x = 1")
	_, err := s.ReadUntil(THEN)

	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if synErr.Keyword != "THEN" {
		t.Errorf("Keyword = %q, want THEN", synErr.Keyword)
	}
	if s.Pos() != 0 {
		t.Errorf("scanner moved on failure: pos=%d", s.Pos())
	}
}

func TestReadStatement(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		text       string
		terminated bool
		rest       string
	}{
		{"simple", "SELECT 1; SELECT 2;", "SELECT 1", true, " SELECT 2;"},
		{"semicolon in string", "INSERT INTO t VALUES ('a;b'); x", "INSERT INTO t VALUES ('a;b')", true, " x"},
		{"semicolon in dollar body", "DO $$ BEGIN x; END $$; y", "DO $$ BEGIN x; END $$", true, " y"},
		{"semicolon in comment", "SELECT 1 -- ;\n + 1; z", "SELECT 1 -- ;\n + 1", true, " z"},
		{"unterminated", "SELECT 1  ", "SELECT 1", false, ""},
		{"unterminated with comment", "SELECT 1 -- no semicolon", "SELECT 1", false, ""},
		{"parameter", "SELECT $1; x", "SELECT $1", true, " x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.input)
			text, terminated := s.ReadStatement()
			if text != tt.text {
				t.Errorf("text = %q, want %q", text, tt.text)
			}
			if terminated != tt.terminated {
				t.Errorf("terminated = %v, want %v", terminated, tt.terminated)
			}
			if rest := s.Source()[s.Pos():]; rest != tt.rest {
				t.Errorf("rest = %q, want %q", rest, tt.rest)
			}
		})
	}
}

func TestExpect(t *testing.T) {
	s := New("  -- comment\n end  IF ;")
	if err := s.Expect(END); err != nil {
		t.Fatalf("Expect(END): %v", err)
	}
	if err := s.Expect(IF); err != nil {
		t.Fatalf("Expect(IF): %v", err)
	}
	if !s.Accept(';') {
		t.Fatal("Accept(';') = false")
	}
	if !s.AtEOF() {
		t.Errorf("expected EOF, pos=%d", s.Pos())
	}
}

func TestExpectWordBoundary(t *testing.T) {
	s := New("ENDING")
	err := s.Expect(END)

	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if synErr.Keyword != "END" || synErr.Line != 1 || synErr.Column != 1 {
		t.Errorf("unexpected error: %+v", synErr)
	}
	if s.Pos() != 0 {
		t.Errorf("scanner moved on failure: pos=%d", s.Pos())
	}

	if New("IFX").PeekKeyword() != NONE {
		t.Error("IFX must not be recognised as IF")
	}
}

func TestPeekKeywordDoesNotMove(t *testing.T) {
	s := New("  Else x")
	if kw := s.PeekKeyword(); kw != ELSE {
		t.Fatalf("PeekKeyword() = %v, want ELSE", kw)
	}
	if s.Pos() != 0 {
		t.Errorf("PeekKeyword moved the scanner to %d", s.Pos())
	}
}

func TestLineCol(t *testing.T) {
	src := "ab\ncdé\nf"
	tests := []struct {
		pos       int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 2, 4},
		{len(src), 3, 2},
	}
	for _, tt := range tests {
		line, col := LineCol(src, tt.pos)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d) = %d:%d, want %d:%d", tt.pos, line, col, tt.line, tt.col)
		}
	}
}

func TestIsQuery(t *testing.T) {
	tests := []struct {
		cond string
		want bool
	}{
		{"SELECT 1", true},
		{"  select count(*) > 0 from t", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"-- leading comment\nSELECT 1", true},
		{"selectx = 1", false},
		{"(SELECT 1)", false},
		{"1 = 1", false},
		{"EXISTS (SELECT 1)", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsQuery(tt.cond); got != tt.want {
			t.Errorf("IsQuery(%q) = %v, want %v", tt.cond, got, tt.want)
		}
	}
}

func TestContainsKeyword(t *testing.T) {
	if !ContainsKeyword("INSERT INTO t VALUES (1) RETURNING id", RETURNING) {
		t.Error("RETURNING clause not found")
	}
	if ContainsKeyword("INSERT INTO t VALUES ('returning')", RETURNING) {
		t.Error("RETURNING inside a string literal must be ignored")
	}
	if ContainsKeyword("UPDATE t SET returning_id = 1", RETURNING) {
		t.Error("returning_id is not the RETURNING keyword")
	}
}

func TestLookupKeyword(t *testing.T) {
	if LookupKeyword("tHeN") != THEN {
		t.Error("keyword lookup must be case-insensitive")
	}
	if LookupKeyword("THENCE") != NONE {
		t.Error("THENCE is not a keyword")
	}
	if THEN.String() != "THEN" || NONE.String() != "NONE" {
		t.Errorf("String() = %q, %q", THEN.String(), NONE.String())
	}
	if !CREATE.IsDDL() || INSERT.IsDDL() {
		t.Error("IsDDL classification wrong")
	}
}

func TestTrimInsignificant(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  x > 0  ", "x > 0"},
		{"x > 0 -- then what", "x > 0"},
		{"/* lead */ x -- a\n AND y /* tail */\n", "x -- a\n AND y"},
		{"name = '-- not a comment'", "name = '-- not a comment'"},
		{"-- only\n", ""},
	}
	for _, tt := range tests {
		if got := TrimInsignificant(tt.in); got != tt.want {
			t.Errorf("TrimInsignificant(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
