package scanner

import "strings"

// Keyword identifies a word from the fixed keyword table.
type Keyword int

const (
	NONE Keyword = iota

	// Control flow
	IF
	THEN
	ELSE
	END

	// Statement heads that produce rows
	SELECT
	WITH
	VALUES
	TABLE
	SHOW
	PRAGMA
	EXPLAIN
	DESCRIBE

	// Procedure calls, which may or may not produce rows
	EXEC
	EXECUTE
	CALL

	// Clauses that make DML produce rows
	RETURNING
	OUTPUT

	// Statement heads that change schema or data
	CREATE
	DROP
	ALTER
	TRUNCATE
	INSERT
	UPDATE
	DELETE
	MERGE
)

var keywords = map[string]Keyword{
	"IF":        IF,
	"THEN":      THEN,
	"ELSE":      ELSE,
	"END":       END,
	"SELECT":    SELECT,
	"WITH":      WITH,
	"VALUES":    VALUES,
	"TABLE":     TABLE,
	"SHOW":      SHOW,
	"PRAGMA":    PRAGMA,
	"EXPLAIN":   EXPLAIN,
	"DESCRIBE":  DESCRIBE,
	"EXEC":      EXEC,
	"EXECUTE":   EXECUTE,
	"CALL":      CALL,
	"RETURNING": RETURNING,
	"OUTPUT":    OUTPUT,
	"CREATE":    CREATE,
	"DROP":      DROP,
	"ALTER":     ALTER,
	"TRUNCATE":  TRUNCATE,
	"INSERT":    INSERT,
	"UPDATE":    UPDATE,
	"DELETE":    DELETE,
	"MERGE":     MERGE,
}

var keywordNames = func() map[Keyword]string {
	m := make(map[Keyword]string, len(keywords))
	for name, kw := range keywords {
		m[kw] = name
	}
	return m
}()

func (k Keyword) String() string {
	if name, ok := keywordNames[k]; ok {
		return name
	}
	return "NONE"
}

// LookupKeyword returns the keyword spelled by word, case-insensitively,
// or NONE.
func LookupKeyword(word string) Keyword {
	if len(word) > len("RETURNING") {
		return NONE
	}
	return keywords[strings.ToUpper(word)]
}

// IsDDL reports whether k starts a schema-changing statement.
func (k Keyword) IsDDL() bool {
	switch k {
	case CREATE, DROP, ALTER, TRUNCATE:
		return true
	}
	return false
}
