package sexpr

import (
	"strings"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

// builtinResults maps each builtin function to its arity (-1 for variadic)
// and result type
var builtinResults = map[string]struct {
	arity  int
	result *types.Type
}{
	"len":              {1, types.Int},
	"upper":            {1, types.String},
	"lower":            {1, types.String},
	"str":              {1, types.String},
	"concat":           {-1, types.String},
	"equalsIgnoreCase": {2, types.Bool},
}

var binaryOps = map[string]ast.Op{
	"+":  ast.OpAdd,
	"-":  ast.OpSub,
	"*":  ast.OpMul,
	"==": ast.OpEq,
	"!=": ast.OpNe,
	"<":  ast.OpLt,
	"<=": ast.OpLe,
	">":  ast.OpGt,
	">=": ast.OpGe,
	"&&": ast.OpAnd,
	"||": ast.OpOr,
}

func (r *reader) readExpr(f *Form) ast.Expr {
	switch f.Kind {
	case IntForm:
		return &ast.Literal{Value: f.Int, Type: types.Int}
	case StringForm:
		return ast.StringLit(f.Text)
	case SymbolForm:
		return r.readName(f)
	}

	head := f.Head()
	if op, ok := binaryOps[head]; ok {
		return r.readBinary(f, op)
	}
	switch head {
	case "!", "neg":
		if !r.expectArity(f, 2, 2) {
			return ast.NullLit()
		}
		x := r.readExpr(f.Items[1])
		if head == "!" {
			return ast.Not(x)
		}
		return &ast.Unary{Op: ast.OpNeg, X: x, Type: types.Int}
	case "?":
		if !r.expectArity(f, 4, 4) {
			return ast.NullLit()
		}
		e := &ast.Conditional{Cond: r.readCond(f.Items[1])}
		e.Then = r.readExpr(f.Items[2])
		e.Else = r.readExpr(f.Items[3])
		e.Type = lub(e.Then.ExprType(), e.Else.ExprType())
		return e
	case "=":
		return r.readAssign(f)
	case "cast":
		if !r.expectArity(f, 3, 3) {
			return ast.NullLit()
		}
		return &ast.Cast{Type: r.typ(f.Items[1]), X: r.readExpr(f.Items[2])}
	case "instanceof":
		if !r.expectArity(f, 3, 3) {
			return ast.NullLit()
		}
		return &ast.TypeTest{X: r.readExpr(f.Items[1]), Target: r.typ(f.Items[2])}
	case "is":
		return r.readIs(f)
	case "call":
		return r.readCall(f)
	case "lambda":
		return r.readLambda(f)
	case "apply":
		if !r.expectArity(f, 2, -1) {
			return ast.NullLit()
		}
		return &ast.Apply{Fn: r.readExpr(f.Items[1]), Args: r.readExprs(f.Items[2:]), Type: types.Object}
	case "new":
		if !r.expectArity(f, 2, 2) {
			return ast.NullLit()
		}
		t := r.typ(f.Items[1])
		if t.Kind != types.KindClass {
			r.errorf(f, "cannot instantiate %s %s", t.Kind, t)
		}
		return &ast.New{Type: t}
	case "let":
		return r.readLet(f)
	case "switch-expr":
		return r.readSwitchExpr(f)
	case "label":
		if !r.expectArity(f, 3, 3) {
			return ast.NullLit()
		}
		name, ok := r.expectSymbol(f.Items[1], "label name")
		if !ok || f.Items[2].Head() != "switch-expr" {
			r.errorf(f, "only switch expressions can be labeled in an expression")
			return ast.NullLit()
		}
		r.checkLabelFree(f, name)
		r.pendingLabel = name
		return r.readSwitchExpr(f.Items[2])
	case "nullcheck":
		if !r.expectArity(f, 2, 2) {
			return ast.NullLit()
		}
		return &ast.NullCheck{X: r.readExpr(f.Items[1])}
	case "ordinal":
		if !r.expectArity(f, 2, 2) {
			return ast.NullLit()
		}
		x := r.readExpr(f.Items[1])
		if !x.ExprType().IsEnum() {
			r.errorf(f, "ordinal of non-enum %s", x.ExprType())
		}
		return &ast.Ordinal{X: x}
	case "dispatch":
		return r.readDispatch(f)
	}
	r.errorf(f, "unknown expression %s", describe(f))
	return ast.NullLit()
}

func (r *reader) readExprs(forms []*Form) []ast.Expr {
	out := make([]ast.Expr, len(forms))
	for i, f := range forms {
		out[i] = r.readExpr(f)
	}
	return out
}

// readName resolves a bare symbol: a literal keyword, a variable, or an enum
// constant
func (r *reader) readName(f *Form) ast.Expr {
	switch f.Text {
	case "true", "false":
		return ast.BoolLit(f.Text == "true")
	case "null":
		return ast.NullLit()
	}
	if sym := r.scope.Resolve(f.Text); sym != nil {
		if sym.Kind == ast.SymBinding {
			sym = r.useBinding(f, sym)
		}
		return &ast.Ident{Sym: sym}
	}
	if ec := r.enumConst(f, nil); ec != nil {
		return ec
	}
	r.errorf(f, "undefined: %s", f.Text)
	return ast.NullLit()
}

// enumConst resolves `Enum.CONST`, or a bare constant of enum (or of any
// declared enum when enum is nil). It returns nil when nothing matches.
func (r *reader) enumConst(f *Form, enum *types.Type) *ast.EnumConst {
	name := f.Text
	if i := strings.IndexByte(name, '.'); i > 0 {
		t := r.universe.Lookup(name[:i])
		if !t.IsEnum() || t.Ordinal(name[i+1:]) < 0 {
			return nil
		}
		return &ast.EnumConst{Type: t, Name: name[i+1:]}
	}
	if enum != nil && enum.Ordinal(name) >= 0 {
		return &ast.EnumConst{Type: enum, Name: name}
	}
	if t := r.universe.EnumWithConstant(name); t != nil {
		return &ast.EnumConst{Type: t, Name: name}
	}
	return nil
}

func (r *reader) readBinary(f *Form, op ast.Op) ast.Expr {
	if !r.expectArity(f, 3, 3) {
		return ast.NullLit()
	}
	e := &ast.Binary{Op: op, Left: r.readExpr(f.Items[1]), Right: r.readExpr(f.Items[2])}
	switch op {
	case ast.OpAdd:
		e.Type = types.Int
		if e.Left.ExprType().Equal(types.String) || e.Right.ExprType().Equal(types.String) {
			e.Type = types.String
		}
	case ast.OpSub, ast.OpMul:
		e.Type = types.Int
	default:
		e.Type = types.Bool
	}
	return e
}

// readAssign reads `(= name value)`
func (r *reader) readAssign(f *Form) ast.Expr {
	if !r.expectArity(f, 3, 3) {
		return ast.NullLit()
	}
	name, ok := r.expectSymbol(f.Items[1], "assignment target")
	if !ok {
		return ast.NullLit()
	}
	sym := r.scope.Resolve(name)
	if sym == nil {
		r.errorf(f.Items[1], "undefined: %s", name)
		return ast.NullLit()
	}
	if sym.Kind == ast.SymBinding {
		sym = r.useBinding(f.Items[1], sym)
	}
	value := r.readExpr(f.Items[2])
	r.checkAssignable(f.Items[2], sym.Type, value)
	return &ast.Assign{Target: sym, Value: value}
}

// readIs reads `(is x pattern)`
func (r *reader) readIs(f *Form) ast.Expr {
	if !r.expectArity(f, 3, 3) {
		return ast.NullLit()
	}
	e := &ast.InstanceOf{X: r.readExpr(f.Items[1]), Pos: f.Pos}
	e.Pattern = r.readPattern(f.Items[2])
	xt, pt := e.X.ExprType().Box(), ast.PrimaryType(e.Pattern).Box()
	if !pt.IsAssignableFrom(xt) && !xt.IsAssignableFrom(pt) {
		r.errorf(f, "%s can never be a %s", xt, pt)
	}
	return e
}

// readCall reads `(call fn args...)` for a builtin or another unit
func (r *reader) readCall(f *Form) ast.Expr {
	if !r.expectArity(f, 2, -1) {
		return ast.NullLit()
	}
	name, ok := r.expectSymbol(f.Items[1], "function name")
	if !ok {
		return ast.NullLit()
	}
	e := &ast.Call{Fn: name, Args: r.readExprs(f.Items[2:]), Type: types.Object}
	if b, ok := builtinResults[name]; ok {
		if b.arity >= 0 && len(e.Args) != b.arity {
			r.errorf(f, "%s takes %d arguments, got %d", name, b.arity, len(e.Args))
		}
		e.Type = b.result
		return e
	}
	fn, ok := r.funcs[name]
	if !ok {
		r.errorf(f, "undefined function %s", name)
		return e
	}
	if len(e.Args) != len(fn.Params) {
		r.errorf(f, "%s takes %d arguments, got %d", name, len(fn.Params), len(e.Args))
	}
	e.Type = fn.Result
	return e
}

// readLambda reads `(lambda ((p T)...) R body...)`
func (r *reader) readLambda(f *Form) ast.Expr {
	if !r.expectArity(f, 3, -1) {
		return ast.NullLit()
	}
	defer r.isolate(true)()
	defer r.pushScope()()
	e := &ast.Lambda{Params: r.readParams(r.arena, f.Items[1]), Result: r.typ(f.Items[2])}
	r.declareParams(e.Params, f.Pos)
	e.Body = r.readStmts(f.Items[3:])
	return e
}

// readLet reads `(let (stmts...) body)`
func (r *reader) readLet(f *Form) ast.Expr {
	if !r.expectArity(f, 3, 3) || !r.expectList(f.Items[1], 0, "let initializers") {
		return ast.NullLit()
	}
	defer r.pushScope()()
	e := &ast.LetExpr{}
	for _, s := range f.Items[1].Items {
		if stmt := r.readStmt(s); stmt != nil {
			e.Init = append(e.Init, stmt)
		}
	}
	e.Body = r.readExpr(f.Items[2])
	return e
}

// readSwitchExpr reads `(switch-expr T selector case...)`
func (r *reader) readSwitchExpr(f *Form) ast.Expr {
	label := r.takeLabel()
	if !r.expectArity(f, 3, -1) {
		return ast.NullLit()
	}
	e := &ast.SwitchExpr{Label: label, Type: r.typ(f.Items[1]), Pos: f.Pos}
	e.Selector = r.readExpr(f.Items[2])
	defer r.pushTarget(e, false, false)()
	r.yields++
	defer func() { r.yields-- }()
	e.Cases = r.readCases(f.Items[3:], e.Selector.ExprType(), true)
	return e
}

// readDispatch reads `(dispatch (candidate...) value start)`
func (r *reader) readDispatch(f *Form) ast.Expr {
	if !r.expectArity(f, 4, 4) || !r.expectList(f.Items[1], 0, "candidate list") {
		return ast.NullLit()
	}
	e := &ast.Dispatch{}
	for _, c := range f.Items[1].Items {
		switch {
		case c.Kind == IntForm:
			e.Candidates = append(e.Candidates, ast.Candidate{Value: c.Int})
		case c.Kind == StringForm:
			e.Candidates = append(e.Candidates, ast.Candidate{Value: c.Text})
		case c.IsSymbol("true"), c.IsSymbol("false"):
			e.Candidates = append(e.Candidates, ast.Candidate{Value: c.Text == "true"})
		case c.IsSymbol("null"):
			r.errorf(c, "null is not a dispatch candidate")
		case c.Kind == SymbolForm && strings.Contains(c.Text, "."):
			ec := r.enumConst(c, nil)
			if ec == nil {
				r.errorf(c, "unknown enum constant %s", c.Text)
				continue
			}
			e.Candidates = append(e.Candidates, ast.Candidate{Type: ec.Type, Value: ec.Name})
		default:
			e.Candidates = append(e.Candidates, ast.Candidate{Type: r.typ(c)})
		}
	}
	e.Value = r.readExpr(f.Items[2])
	e.Start = r.readExpr(f.Items[3])
	return e
}

// --- Patterns ---

func isPatternForm(f *Form) bool {
	switch f.Head() {
	case "bind", "guard", "and", "paren":
		return true
	}
	return false
}

// readPattern reads a pattern, declaring its bindings in the current scope
func (r *reader) readPattern(f *Form) ast.Pattern {
	switch f.Head() {
	case "bind":
		if !r.expectArity(f, 3, 3) {
			break
		}
		t := r.typ(f.Items[1])
		name, ok := r.expectSymbol(f.Items[2], "binding name")
		if !ok {
			break
		}
		return &ast.BindingPattern{Var: r.declareBinding(f, name, t), Pos: f.Pos}
	case "guard":
		if !r.expectArity(f, 3, 3) {
			break
		}
		inner := r.readPattern(f.Items[1])
		return &ast.GuardPattern{Inner: inner, Guard: r.readCond(f.Items[2])}
	case "and":
		if !r.expectArity(f, 3, 3) {
			break
		}
		left := r.readPattern(f.Items[1])
		return &ast.AndPattern{Left: left, Right: r.readPattern(f.Items[2])}
	case "paren":
		if !r.expectArity(f, 2, 2) {
			break
		}
		return &ast.ParenPattern{Inner: r.readPattern(f.Items[1])}
	default:
		r.errorf(f, "expected a pattern, got %s", describe(f))
	}
	// Stand-in so attribution can continue; the diagnostic already fails the
	// file.
	return &ast.BindingPattern{Var: r.arena.NewSymbol("_", types.Object, ast.SymBinding), Pos: f.Pos}
}
