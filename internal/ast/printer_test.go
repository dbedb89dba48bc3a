package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lhaig/matchlower/internal/types"
)

func TestPrintLoweredInstanceOf(t *testing.T) {
	a := NewArena()
	o := a.NewSymbol("o", types.Object, SymParam)
	s := a.Synthetic("s", types.String)
	temp := a.Synthetic("temp", types.Object)

	test := &LetExpr{
		Init: []Stmt{&VarDecl{Sym: s}},
		Body: &LetExpr{
			Init: []Stmt{&VarDecl{Sym: temp, Init: &Ident{Sym: o}}},
			Body: And(
				&TypeTest{X: &Ident{Sym: temp}, Target: types.String},
				&LetExpr{
					Init: []Stmt{&ExprStmt{X: &Assign{Target: s, Value: &Cast{Type: types.String, X: &Ident{Sym: temp}}}}},
					Body: BoolLit(true),
				},
			),
		},
	}
	want := `(let ((var s$2 String)) (let ((var temp$3 Object o)) (&& (instanceof temp$3 String) (let ((expr (= s$2 (cast String temp$3)))) true))))`
	if diff := cmp.Diff(want, Print(test)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintSwitchLayout(t *testing.T) {
	a := NewArena()
	sel := a.Synthetic("selector", types.Object)
	idx := a.Synthetic("index", types.Int)
	sw := &Switch{
		Label: "switch$3",
		Selector: &Dispatch{
			Candidates: []Candidate{{Type: types.String}, {Value: int64(1)}, {Value: "a"}},
			Value:      &Ident{Sym: sel},
			Start:      &Ident{Sym: idx},
		},
	}
	sw.Cases = []*Case{
		{Labels: []Label{&IntLabel{Value: 0}}, Body: []Stmt{&Continue{Target: sw}}},
		{Labels: []Label{&IntLabel{Value: -1}, &DefaultLabel{}}, Body: []Stmt{&Throw{Exception: "MatchException", Message: "no case matched"}}},
	}
	want := `(label switch$3 (switch (dispatch (String 1 "a") selector$1 index$2)
  (case (#0)
    (continue switch$3))
  (case (#-1 default)
    (throw MatchException "no case matched"))))`
	if diff := cmp.Diff(want, Print(sw)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintPatterns(t *testing.T) {
	a := NewArena()
	i := a.NewSymbol("i", types.Integer, SymBinding)
	n := a.NewSymbol("n", types.Number, SymBinding)
	p := &GuardPattern{
		Inner: &AndPattern{
			Left:  &BindingPattern{Var: i},
			Right: &ParenPattern{Inner: &BindingPattern{Var: n}},
		},
		Guard: &Binary{Op: OpGt, Left: &Ident{Sym: i}, Right: IntLit(0), Type: types.Bool},
	}
	want := `(guard (and (bind Integer i) (paren (bind Number n))) (> i 0))`
	if got := Print(p); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got := Bindings(p); len(got) != 2 || got[0] != i || got[1] != n {
		t.Errorf("unexpected bindings %v", got)
	}
	if PrimaryType(p) != types.Integer {
		t.Errorf("expected primary type Integer, got %s", PrimaryType(p))
	}
}

func TestIsUnconditional(t *testing.T) {
	a := NewArena()
	b := &BindingPattern{Var: a.NewSymbol("x", types.String, SymBinding)}
	tests := []struct {
		name string
		p    Pattern
		want bool
	}{
		{"binding", b, true},
		{"parenthesized", &ParenPattern{Inner: b}, true},
		{"guarded", &GuardPattern{Inner: b, Guard: BoolLit(true)}, false},
		{"conjunction", &AndPattern{Left: b, Right: b}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnconditional(tt.p); got != tt.want {
				t.Errorf("IsUnconditional = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatConstant(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "null"},
		{int64(-3), "-3"},
		{"a\"b", `"a\"b"`},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatConstant(tt.v); got != tt.want {
			t.Errorf("FormatConstant(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestCandidateString(t *testing.T) {
	color := &types.Type{Name: "Color", Kind: types.KindEnum, Super: types.Object, Constants: []string{"RED"}}
	tests := []struct {
		c    Candidate
		want string
	}{
		{Candidate{Type: types.Integer}, "Integer"},
		{Candidate{Value: int64(7)}, "7"},
		{Candidate{Value: "x"}, `"x"`},
		{Candidate{Type: color, Value: "RED"}, "Color.RED"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("got %s, want %s", got, tt.want)
		}
	}
}

func TestSyntheticNamesAreUniquePerArena(t *testing.T) {
	a := NewArena()
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		s := a.Synthetic("temp", types.Object)
		if seen[s.Name] {
			t.Fatalf("duplicate synthetic name %s", s.Name)
		}
		seen[s.Name] = true
		if s.ID.Unit != a.Unit() {
			t.Errorf("symbol %s not tagged with its arena", s.Name)
		}
	}
	if l := a.Label("switch"); seen[l] {
		t.Errorf("label %s collides with a symbol name", l)
	}
}
