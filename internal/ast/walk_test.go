package ast

import (
	"testing"

	"github.com/lhaig/matchlower/internal/types"
)

func TestInspectVisitsNestedExpressions(t *testing.T) {
	a := NewArena()
	o := a.NewSymbol("o", types.Object, SymParam)
	s := a.NewSymbol("s", types.String, SymBinding)
	fn := &Func{
		Name:   "f",
		Params: []*Symbol{o},
		Result: types.Int,
		Body: &Block{Stmts: []Stmt{
			&If{
				Cond: &InstanceOf{X: &Ident{Sym: o}, Pattern: &BindingPattern{Var: s}},
				Then: &Return{Value: &Call{Fn: "len", Args: []Expr{&Ident{Sym: s}}, Type: types.Int}},
			},
			&Return{Value: IntLit(0)},
		}},
		Arena: a,
	}

	idents := 0
	Inspect(fn, func(n any) bool {
		if _, ok := n.(*Ident); ok {
			idents++
		}
		return true
	})
	if idents != 2 {
		t.Errorf("expected 2 identifiers, got %d", idents)
	}

	skipped := 0
	Inspect(fn, func(n any) bool {
		if _, ok := n.(*If); ok {
			return false
		}
		if _, ok := n.(*Ident); ok {
			skipped++
		}
		return true
	})
	if skipped != 0 {
		t.Errorf("children of a rejected node were visited")
	}

	if !ContainsPatterns(fn) {
		t.Error("expected patterns in the unlowered unit")
	}
}

func TestContainsPatterns(t *testing.T) {
	a := NewArena()
	x := a.NewSymbol("x", types.Object, SymLocal)
	tests := []struct {
		name string
		node any
		want bool
	}{
		{"type test", &TypeTest{X: &Ident{Sym: x}, Target: types.String}, false},
		{"null label", &Switch{Selector: &Ident{Sym: x}, Cases: []*Case{{Labels: []Label{&NullLabel{}}}}}, true},
		{"int labels", &Switch{Selector: IntLit(0), Cases: []*Case{{Labels: []Label{&IntLabel{Value: -1}}}}}, false},
		{"pattern in lambda", &Lambda{Result: types.Bool, Body: &Block{Stmts: []Stmt{
			&Return{Value: &InstanceOf{X: &Ident{Sym: x}, Pattern: &BindingPattern{Var: x}}},
		}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsPatterns(tt.node); got != tt.want {
				t.Errorf("ContainsPatterns = %v, want %v", got, tt.want)
			}
		})
	}
}
