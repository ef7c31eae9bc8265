package scanner

// FirstKeyword returns the keyword spelled by the first significant word of
// text, or NONE if text starts with anything else.
func FirstKeyword(text string) Keyword {
	return New(text).PeekKeyword()
}

// StartsWithKeyword reports whether the first significant word of text is
// one of kws.
func StartsWithKeyword(text string, kws ...Keyword) bool {
	first := FirstKeyword(text)
	if first == NONE {
		return false
	}
	for _, kw := range kws {
		if first == kw {
			return true
		}
	}
	return false
}

// ContainsKeyword reports whether any of kws occurs in text as a whole word
// outside literals and comments.
func ContainsKeyword(text string, kws ...Keyword) bool {
	s := New(text)
	for {
		tok := s.Next()
		if tok.Kind == EOF {
			return false
		}
		if tok.Kind != WORD {
			continue
		}
		found := LookupKeyword(tok.Text)
		for _, kw := range kws {
			if found != NONE && found == kw {
				return true
			}
		}
	}
}

// IsQuery reports whether a guard condition is already a complete query
// (starts with SELECT or WITH) rather than a scalar expression that has to
// be wrapped as SELECT (<expr>).
func IsQuery(condition string) bool {
	return StartsWithKeyword(condition, SELECT, WITH)
}

// TrimInsignificant removes leading and trailing whitespace and comments.
// A guard ending in a line comment must lose it before being wrapped in
// parentheses, or the comment would swallow the closing parenthesis.
func TrimInsignificant(text string) string {
	s := New(text)
	s.SkipInsignificant()
	start := s.Pos()
	end := start
	for {
		tok := s.Next()
		switch tok.Kind {
		case EOF:
			return text[start:end]
		case SPACE, COMMENT:
		default:
			end = s.Pos()
		}
	}
}
