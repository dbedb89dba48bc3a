package interp

import (
	"fmt"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

func (x *exec) expr(e *env, ex ast.Expr) (Value, error) {
	switch n := ex.(type) {
	case *ast.Ident:
		v, ok := e.lookup(n.Sym)
		if !ok {
			return nil, fmt.Errorf("undefined variable %s", n.Sym.Name)
		}
		return v, nil
	case *ast.Literal:
		return literal(n.Value)
	case *ast.EnumConst:
		return Enum{Type: n.Type, Name: n.Name}, nil
	case *ast.Binary:
		return x.binary(e, n)
	case *ast.Unary:
		v, err := x.expr(e, n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case ast.OpNot:
			b, ok := v.(Bool)
			if !ok {
				return nil, operandError(n.Op, v)
			}
			return !b, nil
		case ast.OpNeg:
			i, ok := v.(Int)
			if !ok {
				return nil, operandError(n.Op, v)
			}
			return -i, nil
		}
		return nil, fmt.Errorf("unsupported unary operator %s", n.Op)
	case *ast.Conditional:
		c, err := x.cond(e, n.Cond)
		if err != nil {
			return nil, err
		}
		if c {
			return x.expr(e, n.Then)
		}
		return x.expr(e, n.Else)
	case *ast.Assign:
		v, err := x.expr(e, n.Value)
		if err != nil {
			return nil, err
		}
		if !e.assign(n.Target, v) {
			return nil, fmt.Errorf("assignment to undeclared %s", n.Target.Name)
		}
		return v, nil
	case *ast.Cast:
		v, err := x.expr(e, n.X)
		if err != nil {
			return nil, err
		}
		return cast(n.Type, v)
	case *ast.TypeTest:
		v, err := x.expr(e, n.X)
		if err != nil {
			return nil, err
		}
		return Bool(v != nil && n.Target.Box().IsAssignableFrom(v.RuntimeType())), nil
	case *ast.Call:
		args, err := x.exprs(e, n.Args)
		if err != nil {
			return nil, err
		}
		return x.call(n.Fn, args)
	case *ast.Lambda:
		return &Closure{params: n.Params, body: n.Body, env: e}, nil
	case *ast.Apply:
		return x.apply(e, n)
	case *ast.New:
		return x.in.NewObject(n.Type), nil
	case *ast.LetExpr:
		scope := newEnv(e)
		for _, s := range n.Init {
			if err := x.stmt(scope, s); err != nil {
				return nil, err
			}
		}
		return x.expr(scope, n.Body)
	case *ast.SwitchExpr:
		return x.switchOn(e, n, n.Selector, n.Cases)
	case *ast.NullCheck:
		v, err := x.expr(e, n.X)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, faultf(NullPointer, "null selector")
		}
		return v, nil
	case *ast.Ordinal:
		v, err := x.expr(e, n.X)
		if err != nil {
			return nil, err
		}
		switch c := v.(type) {
		case nil:
			return nil, faultf(NullPointer, "ordinal of null")
		case Enum:
			return Int(c.Ordinal()), nil
		}
		return nil, fmt.Errorf("ordinal of non-enum %s", Format(v))
	case *ast.Dispatch:
		return x.dispatch(e, n)
	}
	return nil, fmt.Errorf("unsupported expression %T", ex)
}

func (x *exec) exprs(e *env, es []ast.Expr) ([]Value, error) {
	out := make([]Value, len(es))
	for i, ex := range es {
		v, err := x.expr(e, ex)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func literal(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return Int(v), nil
	case string:
		return Str(v), nil
	case bool:
		return Bool(v), nil
	}
	return nil, fmt.Errorf("unsupported literal %T", v)
}

func operandError(op ast.Op, v Value) error {
	if v == nil {
		return faultf(NullPointer, "null operand of %s", op)
	}
	return fmt.Errorf("bad operand %s for %s", Format(v), op)
}

func (x *exec) binary(e *env, n *ast.Binary) (Value, error) {
	l, err := x.expr(e, n.Left)
	if err != nil {
		return nil, err
	}
	if n.Op.IsShortCircuit() {
		lb, ok := l.(Bool)
		if !ok {
			return nil, operandError(n.Op, l)
		}
		if (n.Op == ast.OpAnd && !bool(lb)) || (n.Op == ast.OpOr && bool(lb)) {
			return lb, nil
		}
		r, err := x.expr(e, n.Right)
		if err != nil {
			return nil, err
		}
		if _, ok := r.(Bool); !ok {
			return nil, operandError(n.Op, r)
		}
		return r, nil
	}

	r, err := x.expr(e, n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpEq:
		return Bool(equal(l, r)), nil
	case ast.OpNe:
		return Bool(!equal(l, r)), nil
	case ast.OpAdd:
		_, ls := l.(Str)
		_, rs := r.(Str)
		if ls || rs {
			return Str(text(l) + text(r)), nil
		}
	}

	li, ok := l.(Int)
	if !ok {
		return nil, operandError(n.Op, l)
	}
	ri, ok := r.(Int)
	if !ok {
		return nil, operandError(n.Op, r)
	}
	switch n.Op {
	case ast.OpAdd:
		return li + ri, nil
	case ast.OpSub:
		return li - ri, nil
	case ast.OpMul:
		return li * ri, nil
	case ast.OpLt:
		return Bool(li < ri), nil
	case ast.OpLe:
		return Bool(li <= ri), nil
	case ast.OpGt:
		return Bool(li > ri), nil
	case ast.OpGe:
		return Bool(li >= ri), nil
	}
	return nil, fmt.Errorf("unsupported binary operator %s", n.Op)
}

// cast checks that v is an instance of t. Casting null to a reference type
// yields null; unboxing it faults.
func cast(t *types.Type, v Value) (Value, error) {
	if v == nil {
		if t.IsPrimitive() {
			return nil, faultf(NullPointer, "cannot unbox null to %s", t)
		}
		return nil, nil
	}
	if !t.Box().IsAssignableFrom(v.RuntimeType()) {
		return nil, faultf(ClassCast, "%s cannot be cast to %s", v.RuntimeType(), t)
	}
	return v, nil
}

func (x *exec) apply(e *env, n *ast.Apply) (Value, error) {
	f, err := x.expr(e, n.Fn)
	if err != nil {
		return nil, err
	}
	args, err := x.exprs(e, n.Args)
	if err != nil {
		return nil, err
	}
	c, ok := f.(*Closure)
	if !ok {
		if f == nil {
			return nil, faultf(NullPointer, "apply of null")
		}
		return nil, fmt.Errorf("apply of non-function %s", Format(f))
	}
	if len(args) != len(c.params) {
		return nil, fmt.Errorf("lambda takes %d arguments, got %d", len(c.params), len(args))
	}
	scope := newEnv(c.env)
	for i, p := range c.params {
		scope.declare(p, args[i])
	}
	return x.body(scope, c.body)
}

// dispatch invokes the helper linked for the node
func (x *exec) dispatch(e *env, n *ast.Dispatch) (Value, error) {
	v, err := x.expr(e, n.Value)
	if err != nil {
		return nil, err
	}
	s, err := x.expr(e, n.Start)
	if err != nil {
		return nil, err
	}
	start, ok := s.(Int)
	if !ok {
		return nil, fmt.Errorf("dispatch start %s is not an int", Format(s))
	}
	x.in.dispatches.Add(1)
	idx, err := x.in.site(n).Invoke(v, int(start))
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	return Int(idx), nil
}
