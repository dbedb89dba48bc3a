// Package lower rewrites pattern matching out of attributed units: binding
// patterns, guards, conjunctions and switches with pattern or null labels
// become type tests, casts, temporaries and calls to the dispatch helper.
package lower

import (
	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/diagnostic"
)

// Options tune the pass
type Options struct {
	// ExhaustiveStatements makes switch statements with pattern or null
	// labels raise MatchException when no case matches, as switch
	// expressions always do.
	ExhaustiveStatements bool
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{ExhaustiveStatements: true}
}

// Result is one lowered unit with the diagnostics found while lowering it
type Result struct {
	Func        *ast.Func
	Diagnostics *diagnostic.Diagnostics
}

// lowerer holds the state of lowering one unit. None of it outlives the
// call to Lower.
type lowerer struct {
	opts  Options
	unit  string
	arena *ast.Arena
	diags *diagnostic.Diagnostics

	// targets maps every loop and switch of the input to its replacement
	targets map[ast.Target]ast.Target
}

// Lower rewrites one unit. The input is left untouched; the result shares
// only leaf nodes with it. Problems in the source are reported as
// diagnostics and still yield a tree; a malformed input tree aborts with an
// *InternalError.
func Lower(fn *ast.Func, file string, opts Options) (res *Result, err error) {
	if fn == nil || fn.Body == nil || fn.Arena == nil {
		name := "<nil>"
		if fn != nil {
			name = fn.Name
		}
		return nil, &InternalError{Unit: name, Msg: "unit has no body or symbol arena"}
	}
	l := &lowerer{
		opts:    opts,
		unit:    fn.Name,
		arena:   fn.Arena,
		diags:   diagnostic.ForUnit(file, fn.Name),
		targets: make(map[ast.Target]ast.Target),
	}
	defer recoverInternal(&err)

	body := l.lowerBlock(newRootFrame(fn.Arena), fn.Body)
	return &Result{
		Func: &ast.Func{
			Name:   fn.Name,
			Params: fn.Params,
			Result: fn.Result,
			Body:   body,
			Arena:  fn.Arena,
			Pos:    fn.Pos,
		},
		Diagnostics: l.diags,
	}, nil
}

// --- Statements ---

func (l *lowerer) lowerBlock(fr *frame, b *ast.Block) *ast.Block {
	stmts := make([]ast.Stmt, 0, len(b.Stmts))
	bf := fr.pushBlock(&stmts)
	for _, s := range b.Stmts {
		out := l.lowerStmt(bf, s)
		stmts = append(stmts, out)
	}
	return &ast.Block{Stmts: stmts}
}

func (l *lowerer) lowerStmt(fr *frame, s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *ast.Block:
		return l.lowerBlock(fr, s)
	case *ast.VarDecl:
		return &ast.VarDecl{Sym: s.Sym, Init: l.lowerOptExpr(fr, s.Init)}
	case *ast.ExprStmt:
		return &ast.ExprStmt{X: l.lowerExpr(fr, s.X)}
	case *ast.If:
		f := fr.push(basicFrame)
		n := &ast.If{Cond: l.lowerExpr(f, s.Cond), Then: l.lowerStmt(f, s.Then)}
		if s.Else != nil {
			n.Else = l.lowerStmt(f, s.Else)
		}
		return f.decorateStatement(n)
	case *ast.While:
		f := fr.push(basicFrame)
		n := &ast.While{Label: s.Label}
		l.targets[s] = n
		n.Cond = l.lowerExpr(f, s.Cond)
		n.Body = l.lowerStmt(f, s.Body)
		return f.decorateStatement(n)
	case *ast.DoWhile:
		f := fr.push(basicFrame)
		n := &ast.DoWhile{Label: s.Label}
		l.targets[s] = n
		n.Body = l.lowerStmt(f, s.Body)
		n.Cond = l.lowerExpr(f, s.Cond)
		return f.decorateStatement(n)
	case *ast.For:
		f := fr.push(basicFrame)
		n := &ast.For{Label: s.Label}
		l.targets[s] = n
		if s.Init != nil {
			n.Init = l.lowerStmt(f, s.Init)
		}
		n.Cond = l.lowerOptExpr(f, s.Cond)
		n.Step = l.lowerOptExpr(f, s.Step)
		n.Body = l.lowerStmt(f, s.Body)
		return f.decorateStatement(n)
	case *ast.Switch:
		return l.lowerSwitch(fr, s)
	case *ast.Return:
		return &ast.Return{Value: l.lowerOptExpr(fr, s.Value)}
	case *ast.Yield:
		return &ast.Yield{Value: l.lowerExpr(fr, s.Value)}
	case *ast.Break:
		return &ast.Break{Target: l.target(s.Target)}
	case *ast.Continue:
		return &ast.Continue{Target: l.target(s.Target)}
	case *ast.Throw:
		return &ast.Throw{Exception: s.Exception, Message: s.Message}
	case nil:
		l.internalf("nil statement")
	}
	l.internalf("unknown statement %T", s)
	return nil
}

// target maps a jump target to its lowered replacement. Jumps are only
// lowered inside their target, so the replacement always exists.
func (l *lowerer) target(t ast.Target) ast.Target {
	if t == nil {
		return nil
	}
	n, ok := l.targets[t]
	if !ok {
		l.internalf("jump to %q outside its target", t.LabelName())
	}
	return n
}

// --- Expressions ---

func (l *lowerer) lowerOptExpr(fr *frame, e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	return l.lowerExpr(fr, e)
}

func (l *lowerer) lowerExprs(fr *frame, es []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = l.lowerExpr(fr, e)
	}
	return out
}

func (l *lowerer) lowerExpr(fr *frame, e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.Ident:
		if e.Sym == nil {
			l.internalf("unresolved identifier")
		}
		if e.Sym.Kind != ast.SymBinding {
			return e
		}
		return &ast.Ident{Sym: l.binding(fr, e.Sym)}
	case *ast.Literal, *ast.EnumConst, *ast.New:
		return e
	case *ast.Binary:
		f := fr.push(basicFrame)
		n := &ast.Binary{Op: e.Op, Type: e.Type}
		n.Left = l.lowerExpr(f, e.Left)
		n.Right = l.lowerExpr(f, e.Right)
		return f.decorateExpression(n)
	case *ast.Unary:
		return &ast.Unary{Op: e.Op, X: l.lowerExpr(fr, e.X), Type: e.Type}
	case *ast.Conditional:
		f := fr.push(basicFrame)
		n := &ast.Conditional{Type: e.Type}
		n.Cond = l.lowerExpr(f, e.Cond)
		n.Then = l.lowerExpr(f, e.Then)
		n.Else = l.lowerExpr(f, e.Else)
		return f.decorateExpression(n)
	case *ast.Assign:
		target := e.Target
		if target.Kind == ast.SymBinding {
			target = l.binding(fr, target)
		}
		return &ast.Assign{Target: target, Value: l.lowerExpr(fr, e.Value)}
	case *ast.Cast:
		return &ast.Cast{Type: e.Type, X: l.lowerExpr(fr, e.X)}
	case *ast.TypeTest:
		return &ast.TypeTest{X: l.lowerExpr(fr, e.X), Target: e.Target}
	case *ast.InstanceOf:
		return l.lowerInstanceOf(fr, e)
	case *ast.Call:
		return &ast.Call{Fn: e.Fn, Args: l.lowerExprs(fr, e.Args), Type: e.Type}
	case *ast.Lambda:
		fence := fr.push(fenceFrame)
		return &ast.Lambda{Params: e.Params, Result: e.Result, Body: l.lowerBlock(fence, e.Body)}
	case *ast.Apply:
		return &ast.Apply{Fn: l.lowerExpr(fr, e.Fn), Args: l.lowerExprs(fr, e.Args), Type: e.Type}
	case *ast.LetExpr:
		// the initializers form a block: bindings preserved by a statement
		// in it are declared ahead of that statement, inside the let
		init := make([]ast.Stmt, 0, len(e.Init))
		bf := fr.pushBlock(&init)
		for _, s := range e.Init {
			stmt := l.lowerStmt(bf, s)
			init = append(init, stmt)
		}
		return &ast.LetExpr{Init: init, Body: l.lowerExpr(bf, e.Body)}
	case *ast.SwitchExpr:
		return l.lowerSwitchExpr(fr, e)
	case *ast.NullCheck:
		return &ast.NullCheck{X: l.lowerExpr(fr, e.X)}
	case *ast.Ordinal:
		return &ast.Ordinal{X: l.lowerExpr(fr, e.X)}
	case *ast.Dispatch:
		return &ast.Dispatch{
			Candidates: e.Candidates,
			Value:      l.lowerExpr(fr, e.Value),
			Start:      l.lowerExpr(fr, e.Start),
		}
	case nil:
		l.internalf("nil expression")
	}
	l.internalf("unknown expression %T", e)
	return nil
}

// binding resolves a use of a pattern binding to its hoisted variable
func (l *lowerer) binding(fr *frame, sym *ast.Symbol) *ast.Symbol {
	v := fr.lookupBinding(sym)
	if v == nil {
		l.internalf("binding %s used where it is not in scope", sym.Name)
	}
	return v
}
