package lower

import (
	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

// lowerInstanceOf rewrites `E is P` into
//
//	(let temp = E; <test of P against temp>)
//
// The test's bindings are declared by the nearest frame that can own them,
// or by a frame local to this expression.
func (l *lowerer) lowerInstanceOf(fr *frame, e *ast.InstanceOf) ast.Expr {
	t := e.X.ExprType()
	if t == nil {
		l.internalf("instanceof subject without a type at %d:%d", e.Pos.Line, e.Pos.Column)
	}
	x := l.lowerExpr(fr, e.X)
	f := fr.push(basicFrame)
	temp := l.arena.Synthetic("temp", subjectType(t))
	test := l.lowerPattern(f, temp, e.Pattern)
	return f.decorateExpression(&ast.LetExpr{
		Init: []ast.Stmt{&ast.VarDecl{Sym: temp, Init: x}},
		Body: test,
	})
}

// subjectType is the type of a temporary holding a value of type t
func subjectType(t *types.Type) *types.Type {
	if t.Kind == types.KindNull {
		return types.Object
	}
	return t.Box()
}

// lowerPattern returns a boolean expression testing subject against p. Each
// binding is assigned, through a cast, only once its type test passed.
func (l *lowerer) lowerPattern(fr *frame, subject *ast.Symbol, p ast.Pattern) ast.Expr {
	switch p := p.(type) {
	case *ast.BindingPattern:
		if p.Var == nil || p.Var.Type == nil {
			l.internalf("binding pattern without a typed symbol at %d:%d", p.Pos.Line, p.Pos.Column)
		}
		var test ast.Expr = &ast.TypeTest{X: &ast.Ident{Sym: subject}, Target: p.Var.Type.Box()}
		if p.Nullable {
			test = ast.Or(test, ast.Eq(&ast.Ident{Sym: subject}, ast.NullLit()))
		}
		v := fr.declareBinding(p.Var)
		if v == nil {
			l.internalf("no frame can own binding %s", p.Var.Name)
		}
		assign := &ast.LetExpr{
			Init: []ast.Stmt{&ast.ExprStmt{X: &ast.Assign{
				Target: v,
				Value:  &ast.Cast{Type: p.Var.Type, X: &ast.Ident{Sym: subject}},
			}}},
			Body: ast.BoolLit(true),
		}
		return ast.And(test, assign)
	case *ast.GuardPattern:
		inner := l.lowerPattern(fr, subject, p.Inner)
		return ast.And(inner, l.lowerExpr(fr, p.Guard))
	case *ast.AndPattern:
		left := l.lowerPattern(fr, subject, p.Left)
		return ast.And(left, l.lowerPattern(fr, subject, p.Right))
	case *ast.ParenPattern:
		return l.lowerPattern(fr, subject, p.Inner)
	}
	l.internalf("unknown pattern %T", p)
	return nil
}

// nullable returns a copy of p whose primary binding also accepts null
func nullable(p ast.Pattern) ast.Pattern {
	switch p := p.(type) {
	case *ast.BindingPattern:
		c := *p
		c.Nullable = true
		return &c
	case *ast.GuardPattern:
		return &ast.GuardPattern{Inner: nullable(p.Inner), Guard: p.Guard}
	case *ast.AndPattern:
		return &ast.AndPattern{Left: nullable(p.Left), Right: p.Right}
	case *ast.ParenPattern:
		return &ast.ParenPattern{Inner: nullable(p.Inner)}
	}
	return p
}
