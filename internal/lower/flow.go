package lower

import "github.com/lhaig/matchlower/internal/ast"

// completesNormally reports whether control can leave stmts at their end.
// It is conservative in the direction of true: only jumps, returns, throws
// and loops without an exit are treated as abrupt.
func completesNormally(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return true
	}
	return stmtCompletesNormally(stmts[len(stmts)-1])
}

func stmtCompletesNormally(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.Return, *ast.Throw, *ast.Yield, *ast.Break, *ast.Continue:
		return false
	case *ast.Block:
		return completesNormally(s.Stmts)
	case *ast.If:
		if s.Else == nil {
			return true
		}
		return stmtCompletesNormally(s.Then) || stmtCompletesNormally(s.Else)
	case *ast.While:
		return !isTrue(s.Cond) || breaksOut(s, s.Body)
	case *ast.DoWhile:
		return !isTrue(s.Cond) || breaksOut(s, s.Body)
	case *ast.For:
		return (s.Cond != nil && !isTrue(s.Cond)) || breaksOut(s, s.Body)
	}
	return true
}

func isTrue(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return false
	}
	v, ok := lit.Value.(bool)
	return ok && v
}

// breaksOut reports whether body contains a break leaving loop
func breaksOut(loop ast.Target, body ast.Stmt) bool {
	found := false
	ast.Inspect(body, func(n any) bool {
		if b, ok := n.(*ast.Break); ok && (b.Target == loop || b.Target == nil) {
			found = true
		}
		return !found
	})
	return found
}
