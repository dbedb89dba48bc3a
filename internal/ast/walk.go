package ast

// Inspect traverses a node depth-first, calling f for every node before its
// children. If f returns false the children of that node are skipped.
// Nodes are Stmts, Exprs, Patterns, Labels and *Case values.
func Inspect(node any, f func(any) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *File:
		for _, fn := range n.Funcs {
			Inspect(fn, f)
		}
	case *Func:
		if n.Body != nil {
			Inspect(n.Body, f)
		}

	// statements
	case *Block:
		inspectStmts(n.Stmts, f)
	case *VarDecl:
		inspectExpr(n.Init, f)
	case *ExprStmt:
		inspectExpr(n.X, f)
	case *If:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Then, f)
		inspectStmt(n.Else, f)
	case *While:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Body, f)
	case *DoWhile:
		inspectStmt(n.Body, f)
		inspectExpr(n.Cond, f)
	case *For:
		inspectStmt(n.Init, f)
		inspectExpr(n.Cond, f)
		inspectExpr(n.Step, f)
		inspectStmt(n.Body, f)
	case *Switch:
		inspectExpr(n.Selector, f)
		for _, c := range n.Cases {
			Inspect(c, f)
		}
	case *Case:
		for _, l := range n.Labels {
			Inspect(l, f)
		}
		inspectStmts(n.Body, f)
	case *Return:
		inspectExpr(n.Value, f)
	case *Yield:
		inspectExpr(n.Value, f)

	// labels and patterns
	case *PatternLabel:
		Inspect(n.Pattern, f)
	case *ConstLabel:
		inspectExpr(n.Value, f)
	case *GuardPattern:
		Inspect(n.Inner, f)
		inspectExpr(n.Guard, f)
	case *AndPattern:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *ParenPattern:
		Inspect(n.Inner, f)

	// expressions
	case *Binary:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Unary:
		inspectExpr(n.X, f)
	case *Conditional:
		inspectExpr(n.Cond, f)
		inspectExpr(n.Then, f)
		inspectExpr(n.Else, f)
	case *Assign:
		inspectExpr(n.Value, f)
	case *Cast:
		inspectExpr(n.X, f)
	case *TypeTest:
		inspectExpr(n.X, f)
	case *InstanceOf:
		inspectExpr(n.X, f)
		Inspect(n.Pattern, f)
	case *Call:
		inspectExprs(n.Args, f)
	case *Lambda:
		Inspect(n.Body, f)
	case *Apply:
		inspectExpr(n.Fn, f)
		inspectExprs(n.Args, f)
	case *LetExpr:
		inspectStmts(n.Init, f)
		inspectExpr(n.Body, f)
	case *SwitchExpr:
		inspectExpr(n.Selector, f)
		for _, c := range n.Cases {
			Inspect(c, f)
		}
	case *NullCheck:
		inspectExpr(n.X, f)
	case *Ordinal:
		inspectExpr(n.X, f)
	case *Dispatch:
		inspectExpr(n.Value, f)
		inspectExpr(n.Start, f)
	}
}

// interface values holding typed nils must not reach Inspect's callback
func inspectStmt(s Stmt, f func(any) bool) {
	if s != nil {
		Inspect(s, f)
	}
}

func inspectExpr(e Expr, f func(any) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectStmts(stmts []Stmt, f func(any) bool) {
	for _, s := range stmts {
		inspectStmt(s, f)
	}
}

func inspectExprs(exprs []Expr, f func(any) bool) {
	for _, e := range exprs {
		inspectExpr(e, f)
	}
}

// ContainsPatterns reports whether a tree still holds pattern nodes,
// pattern or null case labels.
func ContainsPatterns(node any) bool {
	found := false
	Inspect(node, func(n any) bool {
		if found {
			return false
		}
		switch n.(type) {
		case *InstanceOf, *PatternLabel, *NullLabel, Pattern:
			found = true
			return false
		}
		return true
	})
	return found
}
