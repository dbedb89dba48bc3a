package lower

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/diagnostic"
	"github.com/lhaig/matchlower/internal/interp"
	"github.com/lhaig/matchlower/internal/sexpr"
	"github.com/lhaig/matchlower/internal/types"
)

// unit is one source file lowered unit by unit
type unit struct {
	file  *ast.File
	funcs []*ast.Func
	diags *diagnostic.Diagnostics
}

// lowerSource reads src and lowers every unit, failing the test on read
// errors, internal errors and invalid output. Lowering diagnostics are
// collected, not fatal.
func lowerSource(t *testing.T, src string) *unit {
	t.Helper()
	file, diags := sexpr.Read("test.pat", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected read errors:\n%s", diags.Format())
	}
	u := &unit{file: file, diags: diagnostic.New()}
	for _, fn := range file.Funcs {
		res, err := Lower(fn, file.Name, DefaultOptions())
		if err != nil {
			t.Fatalf("lowering %s: %v", fn.Name, err)
		}
		u.diags.Merge(res.Diagnostics)
		if ast.ContainsPatterns(res.Func) {
			t.Fatalf("%s still contains patterns:\n%s", fn.Name, ast.Print(res.Func))
		}
		if errs := Validate(res.Func); len(errs) > 0 {
			t.Fatalf("invalid output:\n%s\n%s", strings.Join(errs, "\n"), ast.Print(res.Func))
		}
		u.funcs = append(u.funcs, res.Func)
	}
	return u
}

// call runs a call such as `(f 1 "x")` on the lowered units
func (u *unit) call(t *testing.T, call string) (interp.Value, error) {
	t.Helper()
	if u.diags.HasErrors() {
		t.Fatalf("cannot run units with errors:\n%s", u.diags.Format())
	}
	in, err := interp.New(u.funcs, interp.Options{})
	if err != nil {
		t.Fatal(err)
	}
	name, args, err := in.ParseCall(call, u.file.Universe)
	if err != nil {
		t.Fatal(err)
	}
	return in.Call(context.Background(), name, args...)
}

type callTest struct {
	call string
	want string // printed result, or the fault
}

func (u *unit) check(t *testing.T, tests []callTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			v, err := u.call(t, tt.call)
			got := interp.Format(v)
			if err != nil {
				got = err.Error()
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLowerGuardedSwitch(t *testing.T) {
	u := lowerSource(t, `
(func classify ((o Object)) String
  (return (switch-expr String o
    (-> ((guard (bind Integer i) (== i 0))) "zero")
    (-> ((guard (bind Integer i) (== i 1))) "one")
    (-> ((bind Integer i)) "other")
    (-> (default) "any"))))`)
	u.check(t, []callTest{
		{`(classify 0)`, `"zero"`},
		{`(classify 1)`, `"one"`},
		{`(classify -1)`, `"other"`},
		{`(classify "x")`, `"any"`},
	})
}

func TestLowerNullRouting(t *testing.T) {
	u := lowerSource(t, `
(func without ((o Object)) String
  (switch o
    (-> ((bind String s)) (return s))
    (-> (default) (return "default")))
  (return "unreachable"))

(func with ((o Object)) String
  (switch o
    (-> ((bind String s)) (return s))
    (-> (null) (return "null"))
    (-> (default) (return "default")))
  (return "unreachable"))

(func together ((o Object)) String
  (return (switch-expr String o
    (-> (null (bind String s)) (+ "s=" s))
    (-> (default) "default"))))`)
	u.check(t, []callTest{
		{`(without "a")`, `"a"`},
		{`(without 1)`, `"default"`},
		{`(without null)`, `NullPointerException: null selector`},
		{`(with null)`, `"null"`},
		{`(with 1)`, `"default"`},
		{`(together null)`, `"s=null"`},
		{`(together "x")`, `"s=x"`},
		{`(together 2)`, `"default"`},
	})
}

func TestLowerFallThroughMergesCases(t *testing.T) {
	u := lowerSource(t, `
(func size ((o Object)) String
  (var out String "large")
  (switch o
    (case (1))
    (case (2)
      (expr (= out "small"))
      (break))
    (case ((bind String s))
      (expr (= out s)))
    (case (default)
      (expr (= out (+ out "!")))))
  (return out))`)
	u.check(t, []callTest{
		{`(size 1)`, `"small"`},
		{`(size 2)`, `"small"`},
		{`(size "x")`, `"x!"`},
		{`(size 7)`, `"large!"`},
	})

	sw := find[*ast.Switch](u.funcs[0])[0]
	if len(sw.Cases[0].Labels) != 2 {
		t.Errorf("empty case was not merged into the next one:\n%s", ast.Print(sw))
	}
}

func TestLowerEnumSwitch(t *testing.T) {
	u := lowerSource(t, `
(enum Color RED GREEN BLUE)
(func shade ((c Color)) int
  (return (switch-expr int c
    (-> (RED) 1)
    (-> (null) 0)
    (-> ((bind Color other)) (+ 10 (ordinal other))))))`)
	u.check(t, []callTest{
		{`(shade RED)`, `1`},
		{`(shade BLUE)`, `12`},
		{`(shade null)`, `0`},
	})
	if len(find[*ast.Dispatch](u.funcs[0])) != 0 {
		t.Errorf("total enum patterns should switch on the ordinal:\n%s", ast.Print(u.funcs[0]))
	}
}

func TestLowerBindingVisibility(t *testing.T) {
	u := lowerSource(t, `
(func first ((o Object)) int
  (if (! (is o (bind String s)))
    (return -1))
  (return (call len s)))

(func both ((o Object)) String
  (if (&& (is o (bind String s)) (> (call len s) 2))
    (return (call upper s)))
  (return "short"))

(func loop ((o Object)) int
  (var n int 0)
  (while (! (is o (bind Integer i)))
    (block
      (expr (= o n))
      (expr (= n (+ n 1)))))
  (return (+ i 100)))`)
	u.check(t, []callTest{
		{`(first "abc")`, `3`},
		{`(first 1)`, `-1`},
		{`(both "abcd")`, `"ABCD"`},
		{`(both "ab")`, `"short"`},
		{`(both null)`, `"short"`},
		{`(loop 5)`, `105`},
		{`(loop "x")`, `100`},
	})

	// the binding used after its if is declared in the enclosing block
	body := u.funcs[0].Body.Stmts
	decl, ok := body[0].(*ast.VarDecl)
	if !ok || decl.Sym.Kind != ast.SymSynthetic || !strings.HasPrefix(decl.Sym.Name, "s$") {
		t.Errorf("expected the preserved binding declared first, got:\n%s", ast.Print(u.funcs[0]))
	}
}

func TestLowerLetInitializerPreservesBinding(t *testing.T) {
	u := lowerSource(t, `
(func g ((o Object)) int
  (return (+ 1 (let ((if (! (is o (bind String s)))
                       (throw IllegalArgumentException "not a string")))
                 (call len s)))))`)
	u.check(t, []callTest{
		{`(g "abc")`, `4`},
		{`(g 1)`, `IllegalArgumentException: not a string`},
	})

	if n := len(u.funcs[0].Body.Stmts); n != 1 {
		t.Errorf("binding escaped the let into the enclosing block:\n%s", ast.Print(u.funcs[0]))
	}
	let := find[*ast.LetExpr](u.funcs[0])[0]
	decl, ok := let.Init[0].(*ast.VarDecl)
	if !ok || !strings.HasPrefix(decl.Sym.Name, "s$") {
		t.Errorf("expected the binding declared first in the let:\n%s", ast.Print(let))
	}
}

func TestLowerLambdaKeepsBindingsInside(t *testing.T) {
	u := lowerSource(t, `
(func f ((o Object)) Object
  (return (apply (lambda ((x Object)) String
      (if (is x (bind String s))
        (return s))
      (return "no"))
    o)))`)
	u.check(t, []callTest{
		{`(f "yes")`, `"yes"`},
		{`(f 1)`, `"no"`},
	})
	lam := find[*ast.Lambda](u.funcs[0])[0]
	if all, inside := len(find[*ast.VarDecl](u.funcs[0])), len(find[*ast.VarDecl](lam)); all != inside {
		t.Errorf("%d of %d declarations are outside the lambda:\n%s", all-inside, all, ast.Print(u.funcs[0]))
	}
}

func TestLowerDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		err  bool
	}{
		{
			name: "duplicate pattern",
			src: `(func f ((o Object)) int
  (switch o
    (-> ((bind String s)) (return 1))
    (-> ((bind String t)) (return 2))
    (-> (default) (return 3)))
  (return 0))`,
			want: "duplicate unconditional pattern String",
			err:  true,
		},
		{
			name: "dominated pattern",
			src: `(func f ((o Object)) int
  (switch o
    (-> ((bind Object x)) (return 1))
    (-> ((bind String s)) (return 2)))
  (return 0))`,
			want: "pattern String is dominated by an earlier pattern Object",
		},
		{
			name: "unreachable default",
			src: `(func f ((o Object)) int
  (switch o
    (-> ((bind Object x)) (return 1))
    (-> (default) (return 2)))
  (return 0))`,
			want: "default label is unreachable; an earlier pattern covers Object",
		},
		{
			name: "guard with null",
			src: `(func f ((o Object)) int
  (switch o
    (-> (null (guard (bind String s) (> (call len s) 1))) (return 1))
    (-> (default) (return 2)))
  (return 0))`,
			want: "a guarded pattern cannot share a case with null",
			err:  true,
		},
		{
			name: "enum pattern after default",
			src: `(enum Color RED GREEN)
(func f ((c Color)) int
  (switch c
    (-> (default) (return 1))
    (-> ((bind Color other)) (return 2)))
  (return 0))`,
			want: "pattern Color is dominated by a preceding default label",
			err:  true,
		},
		{
			name: "default after enum pattern",
			src: `(enum Color RED GREEN)
(func f ((c Color)) int
  (switch c
    (-> ((bind Color other)) (return 2))
    (-> (default) (return 1)))
  (return 0))`,
			want: "default label is unreachable; an earlier pattern covers Color",
			err:  true,
		},
		{
			name: "duplicate default",
			src: `(func f ((o Object)) int
  (switch o
    (-> ((bind String s)) (return 1))
    (-> (default) (return 2))
    (-> (default) (return 3)))
  (return 0))`,
			want: "duplicate default label",
			err:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := lowerSource(t, tt.src)
			if !strings.Contains(u.diags.Format(), tt.want) {
				t.Errorf("expected %q among:\n%s", tt.want, u.diags.Format())
			}
			if u.diags.HasErrors() != tt.err {
				t.Errorf("HasErrors = %v, want %v", u.diags.HasErrors(), tt.err)
			}
		})
	}
}

func TestLowerDropsUnreachableCases(t *testing.T) {
	u := lowerSource(t, `
(enum Color RED GREEN)
(func f ((c Color)) int
  (switch c
    (-> (RED) (return 0))
    (-> (default) (return 1))
    (-> ((bind Color other)) (return 2)))
  (return 3))`)
	sw := find[*ast.Switch](u.funcs[0])[0]
	if len(sw.Cases) != 2 {
		t.Errorf("expected the unreachable case to be dropped:\n%s", ast.Print(sw))
	}
	for _, c := range sw.Cases {
		if len(c.Labels) == 0 {
			t.Errorf("case without labels:\n%s", ast.Print(sw))
		}
	}
}

func TestValidateRejectsCaseWithoutLabels(t *testing.T) {
	arena := ast.NewArena()
	n := arena.NewSymbol("n", types.Int, ast.SymParam)
	fn := &ast.Func{Name: "f", Params: []*ast.Symbol{n}, Result: types.Void, Arena: arena,
		Body: &ast.Block{Stmts: []ast.Stmt{&ast.Switch{
			Selector: &ast.Ident{Sym: n},
			Cases:    []*ast.Case{{Body: []ast.Stmt{&ast.Return{}}}},
		}}}}
	errs := Validate(fn)
	if len(errs) != 1 || !strings.Contains(errs[0], "has a case without labels") {
		t.Errorf("unexpected validation result: %q", errs)
	}
}

func TestLowerIsIdempotent(t *testing.T) {
	src := `
(enum Color RED GREEN)
(func plain ((c Color) (n int)) int
  (switch c
    (case (RED) (return n))
    (case (default) (break)))
  (return (? (> n 0) 1 0)))

(func patterns ((o Object)) String
  (if (is o (bind String s))
    (return s))
  (return (switch-expr String o
    (-> ((guard (bind Integer i) (> i 0))) "positive")
    (-> (default) "other"))))`
	u := lowerSource(t, src)
	orig, _ := sexpr.Read("test.pat", src)

	if diff := cmp.Diff(ast.Print(orig.Funcs[0]), ast.Print(u.funcs[0])); diff != "" {
		t.Errorf("pattern-free unit changed (-want +got):\n%s", diff)
	}
	for _, fn := range u.funcs {
		again, err := Lower(fn, "test.pat", DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(ast.Print(fn), ast.Print(again.Func)); diff != "" {
			t.Errorf("lowering %s twice changed it (-first +second):\n%s", fn.Name, diff)
		}
	}
}

func TestLowerLeavesInputUntouched(t *testing.T) {
	src := `(func f ((o Object)) int
  (switch o
    (-> ((bind String s)) (return (call len s)))
    (-> (null) (return 0))
    (-> (default) (return -1)))
  (return 0))`
	file, _ := sexpr.Read("test.pat", src)
	before := ast.Print(file)
	if _, err := Lower(file.Funcs[0], file.Name, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, ast.Print(file)); diff != "" {
		t.Errorf("input tree changed (-before +after):\n%s", diff)
	}
}

func TestLowerInternalErrors(t *testing.T) {
	obj := ast.NewArena().NewSymbol("o", types.Object, ast.SymParam)
	tests := []struct {
		name string
		fn   *ast.Func
		want string
	}{
		{"nil unit", nil, "unit has no body"},
		{
			name: "unresolved identifier",
			fn: &ast.Func{Name: "f", Result: types.Int, Arena: ast.NewArena(),
				Body: &ast.Block{Stmts: []ast.Stmt{&ast.Return{Value: &ast.Ident{}}}}},
			want: "unresolved identifier",
		},
		{
			name: "foreign ordinal label",
			fn: &ast.Func{Name: "g", Params: []*ast.Symbol{obj}, Result: types.Void, Arena: ast.NewArena(),
				Body: &ast.Block{Stmts: []ast.Stmt{&ast.Switch{
					Selector: &ast.Ident{Sym: obj},
					Cases: []*ast.Case{
						{Labels: []ast.Label{&ast.NullLabel{}}, Body: []ast.Stmt{&ast.Return{}}},
						{Labels: []ast.Label{&ast.IntLabel{Value: 3}}, Body: []ast.Stmt{&ast.Return{}}},
					},
				}}}},
			want: "label #3 at 0:0 is not owned by this switch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Lower(tt.fn, "test.pat", DefaultOptions())
			var ie *InternalError
			if !errors.As(err, &ie) {
				t.Fatalf("expected an InternalError, got %v (result %v)", err, res)
			}
			if !strings.Contains(ie.Msg, tt.want) {
				t.Errorf("message %q does not contain %q", ie.Msg, tt.want)
			}
		})
	}
}

func TestLowerUnitsConcurrently(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&src, `(func f%d ((o Object)) int
  (return (switch-expr int o
    (-> ((guard (bind String s) (> (call len s) %d))) 1)
    (-> (default) 0))))
`, i, i)
	}
	file, diags := sexpr.Read("test.pat", src.String())
	if diags.HasErrors() {
		t.Fatal(diags.Format())
	}

	results := make([]*Result, len(file.Funcs))
	var wg sync.WaitGroup
	for i, fn := range file.Funcs {
		wg.Add(1)
		go func(i int, fn *ast.Func) {
			defer wg.Done()
			res, err := Lower(fn, file.Name, DefaultOptions())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = res
		}(i, fn)
	}
	wg.Wait()

	seen := make(map[ast.SymbolID]string)
	for _, res := range results {
		if res == nil {
			t.FailNow()
		}
		for _, d := range find[*ast.VarDecl](res.Func) {
			if prev, dup := seen[d.Sym.ID]; dup {
				t.Errorf("%s in %s reuses the ID of %s", d.Sym.Name, res.Func.Name, prev)
			}
			seen[d.Sym.ID] = d.Sym.Name
		}
	}
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
