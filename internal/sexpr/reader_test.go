package sexpr

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

func mustRead(t *testing.T, src string) *ast.File {
	t.Helper()
	file, diags := Read("test.pat", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diags.Format())
	}
	return file
}

// find returns the nodes of type T under node, in traversal order
func find[T any](node any) []T {
	var out []T
	ast.Inspect(node, func(n any) bool {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
		return true
	})
	return out
}

func TestReadDeclarations(t *testing.T) {
	file := mustRead(t, `
(class Shape)
(class Circle Shape)
(enum Color RED GREEN BLUE)
(func area ((s Shape) (scale int)) int
  (return scale))`)

	circle := file.Universe.Lookup("Circle")
	if circle == nil || circle.Super.Name != "Shape" {
		t.Fatalf("expected Circle <: Shape, got %v", circle)
	}
	color := file.Universe.Lookup("Color")
	if !color.IsEnum() || color.Ordinal("BLUE") != 2 {
		t.Errorf("unexpected enum %v", color)
	}
	fn := file.Lookup("area")
	if fn == nil {
		t.Fatal("expected function area")
	}
	if len(fn.Params) != 2 || fn.Params[1].Type != types.Int || fn.Params[1].Kind != ast.SymParam {
		t.Errorf("unexpected params %v", fn.Params)
	}
	if fn.Result != types.Int {
		t.Errorf("expected result int, got %s", fn.Result)
	}
	ret := fn.Body.Stmts[0].(*ast.Return)
	if id, ok := ret.Value.(*ast.Ident); !ok || id.Sym != fn.Params[1] {
		t.Errorf("return value not resolved to parameter scale: %s", ast.Print(ret.Value))
	}
}

func TestReadCallsAcrossUnits(t *testing.T) {
	file := mustRead(t, `
(func first ((o Object)) String (return (call second o)))
(func second ((o Object)) String (return (call str o)))`)
	call := find[*ast.Call](file.Lookup("first"))[0]
	if call.Type != types.String {
		t.Errorf("expected call of a later unit typed String, got %s", call.Type)
	}
}

func TestBindingInScopeOfItsIf(t *testing.T) {
	file := mustRead(t, `
(func f ((o Object)) int
  (if (is o (bind String s))
    (return (call len s)))
  (return 0))`)
	fn := file.Lookup("f")
	bind := find[*ast.BindingPattern](fn)[0]
	if bind.Var.Preserved {
		t.Error("binding used only inside its if must not be preserved")
	}
	for _, id := range find[*ast.Ident](fn) {
		if id.Sym.Name == "s" && id.Sym != bind.Var {
			t.Errorf("reference to s resolved to %v, want the binding itself", id.Sym.ID)
		}
	}
}

func TestBindingPreservedAfterItsIf(t *testing.T) {
	file := mustRead(t, `
(func f ((o Object)) int
  (if (! (is o (bind String s)))
    (return 0))
  (return (call len s)))`)
	fn := file.Lookup("f")
	bind := find[*ast.BindingPattern](fn)[0]
	if !bind.Var.Preserved {
		t.Fatal("binding used after its if must be preserved")
	}
	var use *ast.Symbol
	for _, id := range find[*ast.Ident](fn) {
		if id.Sym.Name == "s" {
			use = id.Sym
		}
	}
	if use == nil {
		t.Fatal("no reference to s")
	}
	if use == bind.Var || use.Alias != bind.Var || !use.IsAliasFor(bind.Var) {
		t.Errorf("reference after the if should be an alias of the binding")
	}
}

func TestBindingOfExpressionStatementEndsWithIt(t *testing.T) {
	_, diags := Read("test.pat", `
(func f ((o Object)) int
  (expr (is o (bind String s)))
  (return (call len s)))`)
	if !strings.Contains(diags.Format(), "binding s is not in scope here") {
		t.Errorf("expected scope error, got:\n%s", diags.Format())
	}
}

func TestCaseBindingsAreLocalToTheirCase(t *testing.T) {
	_, diags := Read("test.pat", `
(func f ((o Object)) int
  (switch o
    (case ((bind String s)) (break))
    (case (default) (return (call len s))))
  (return 0))`)
	if !strings.Contains(diags.Format(), "undefined: s") {
		t.Errorf("expected s to be out of scope in the next case, got:\n%s", diags.Format())
	}
}

func TestReadJumpTargets(t *testing.T) {
	file := mustRead(t, `
(func f ((o Object) (n int)) void
  (label outer (while (> n 0)
    (switch o
      (case (default)
        (while true
          (break))
        (break)
        (continue outer)))))
  (label sw (switch o
    (case (default) (continue sw)))))`)
	fn := file.Lookup("f")
	outer := fn.Body.Stmts[0].(*ast.While)
	sw := find[*ast.Switch](outer)[0]
	inner := find[*ast.While](sw)[0]
	breaks := find[*ast.Break](fn)
	if breaks[0].Target != inner {
		t.Errorf("break in inner loop should leave the inner loop")
	}
	if breaks[1].Target != sw {
		t.Errorf("break in a case should leave the switch")
	}
	conts := find[*ast.Continue](fn)
	if conts[0].Target != outer {
		t.Errorf("continue outer resolved to %v", conts[0].Target)
	}
	if last := fn.Body.Stmts[1].(*ast.Switch); conts[1].Target != last || last.Label != "sw" {
		t.Errorf("continue sw should name the labeled switch")
	}
}

func TestReadCaseLabels(t *testing.T) {
	file := mustRead(t, `
(enum Color RED GREEN)
(func f ((c Color)) int
  (return (switch-expr int c
    (-> (RED) 1)
    (-> (null GREEN) 2)
    (-> ((bind Color x)) 3))))`)
	sw := find[*ast.SwitchExpr](file.Lookup("f"))[0]
	if len(sw.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(sw.Cases))
	}
	red, ok := sw.Cases[0].Labels[0].(*ast.ConstLabel)
	if !ok {
		t.Fatalf("expected a constant label, got %T", sw.Cases[0].Labels[0])
	}
	if ec, ok := red.Value.(*ast.EnumConst); !ok || ec.Name != "RED" || ec.Type.Name != "Color" {
		t.Errorf("unexpected constant %s", ast.Print(red.Value))
	}
	if _, ok := sw.Cases[1].Labels[0].(*ast.NullLabel); !ok {
		t.Errorf("expected null label, got %T", sw.Cases[1].Labels[0])
	}
	if _, ok := sw.Cases[0].Body[0].(*ast.Yield); !ok {
		t.Errorf("expression rule body should yield, got %T", sw.Cases[0].Body[0])
	}
	if _, ok := sw.Cases[2].Labels[0].(*ast.PatternLabel); !ok {
		t.Errorf("expected pattern label, got %T", sw.Cases[2].Labels[0])
	}
}

func TestReadExpressionTypes(t *testing.T) {
	file := mustRead(t, `
(class A)
(class B A)
(class C A)
(func f ((b B) (c C) (n int) (s String)) void
  (expr (+ n 1))
  (expr (+ s n))
  (expr (< n 1))
  (expr (? (< n 1) b c))
  (expr (? (< n 1) n null))
  (expr (call len s))
  (expr (dispatch (String Integer "a" 3) s n)))`)
	fn := file.Lookup("f")
	want := []string{"int", "String", "boolean", "A", "Integer", "int", "int"}
	for i, s := range fn.Body.Stmts {
		got := s.(*ast.ExprStmt).X.ExprType().String()
		if got != want[i] {
			t.Errorf("stmt %d: type %s, want %s", i, got, want[i])
		}
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undefined name", `(func f () int (return x))`, "undefined: x"},
		{"unknown type", `(func f () Foo (return null))`, "unknown type Foo"},
		{"stray yield", `(func f () int (yield 1))`, "yield outside of a switch expression"},
		{"stray break", `(func f () void (break))`, "break outside of a loop or switch"},
		{"unknown label", `(func f () void (while true (continue nope)))`, "continue to unknown label nope"},
		{"non-boolean condition", `(func f () void (if 1 (return)))`, "condition must be boolean, got int"},
		{"impossible pattern", `(func f ((s String)) boolean (return (is s (bind Integer i))))`, "String can never be a Integer"},
		{"incompatible constant", `(func f ((s String)) int (switch s (case (1) (return 1))) (return 0))`, "not compatible with selector type String"},
		{"duplicate local", `(func f () void (var a int 1) (var a int 2))`, "already defined"},
		{"unknown call", `(func f () void (call nope))`, "undefined function nope"},
		{"builtin arity", `(func f ((s String)) int (return (call len s s)))`, "len takes 1 arguments, got 2"},
		{"not a declaration", `(expr 1)`, "expected class, enum or func declaration"},
		{"duplicate type", `(class A) (enum A X)`, "already declared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Read("test.pat", tt.src)
			if !strings.Contains(diags.Format(), tt.want) {
				t.Errorf("expected %q among:\n%s", tt.want, diags.Format())
			}
		})
	}
}

func TestReadErrorsNameTheUnit(t *testing.T) {
	_, diags := Read("shapes.pat", `(func area () int (return x))`)
	errs := diags.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Unit != "area" || errs[0].File != "shapes.pat" || errs[0].Line != 1 {
		t.Errorf("unexpected attribution %+v", errs[0])
	}
}

func TestPrintRoundTrip(t *testing.T) {
	src := `(class Shape)
(class Circle Shape)
(enum Color RED GREEN)

(func describe ((o Object)) String
  (if (is o (bind String s))
    (return (+ "string " s)))
  (label sw (switch o :exhaustive
    (-> ((guard (bind Integer i) (> i 0)))
      (return "positive"))
    (case (null)
      (break sw))
    (case (default)
      (return "other"))))
  (return (switch-expr String o (-> ((bind Circle c)) (yield "circle")) (-> (default) (yield "?")))))

(func shade ((c Color)) int
  (var n int 0)
  (while (< n 3)
    (expr (= n (+ n 1))))
  (return (? (== c RED) n (neg n))))
`
	file := mustRead(t, src)
	if diff := cmp.Diff(src, ast.Print(file)); diff != "" {
		t.Errorf("printed tree mismatch (-want +got):\n%s", diff)
	}
}
