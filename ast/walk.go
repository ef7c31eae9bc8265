package ast

// Visitor is called for each statement. depth is 0 for top-level
// statements. Returning false skips the statement's branches.
type Visitor func(stmt Statement, depth int) bool

// Walk traverses the script depth-first in document order: a
// conditional's THEN branch is visited before its ELSE branch.
func Walk(script *Script, v Visitor) {
	if script == nil {
		return
	}
	walkList(script.Statements, 0, v)
}

func walkList(stmts []Statement, depth int, v Visitor) {
	for _, stmt := range stmts {
		if !v(stmt, depth) {
			continue
		}
		if c, ok := stmt.(*Conditional); ok {
			walkList(c.Then, depth+1, v)
			walkList(c.Else, depth+1, v)
		}
	}
}

// MaxDepth returns the deepest conditional nesting in the script;
// 0 for a script of plain statements.
func MaxDepth(script *Script) int {
	max := 0
	Walk(script, func(stmt Statement, depth int) bool {
		if _, ok := stmt.(*Conditional); ok && depth+1 > max {
			max = depth + 1
		}
		return true
	})
	return max
}
