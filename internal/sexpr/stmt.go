package sexpr

import (
	"strconv"
	"strings"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

// stmtHeads lists the heads of statement forms. Any other form in
// statement position is an expression statement.
var stmtHeads = map[string]bool{
	"block":    true,
	"var":      true,
	"expr":     true,
	"if":       true,
	"while":    true,
	"do":       true,
	"for":      true,
	"label":    true,
	"switch":   true,
	"return":   true,
	"yield":    true,
	"break":    true,
	"continue": true,
	"throw":    true,
}

// isStmtForm reports whether f is written as a statement
func isStmtForm(f *Form) bool {
	head := f.Head()
	if head == "label" && len(f.Items) == 3 {
		return f.Items[2].Head() != "switch-expr"
	}
	return stmtHeads[head]
}

// readStmts reads a statement sequence in a fresh scope
func (r *reader) readStmts(forms []*Form) *ast.Block {
	defer r.pushScope()()
	b := &ast.Block{Stmts: make([]ast.Stmt, 0, len(forms))}
	for _, f := range forms {
		if s := r.readStmt(f); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	return b
}

// readBranch reads the body of an if or loop; a lone statement still gets
// its own scope
func (r *reader) readBranch(f *Form) ast.Stmt {
	defer r.pushScope()()
	return r.readStmt(f)
}

func (r *reader) readStmt(f *Form) ast.Stmt {
	switch f.Head() {
	case "block":
		return r.readStmts(f.Items[1:])
	case "var":
		return r.readVar(f)
	case "expr":
		if !r.expectArity(f, 2, 2) {
			return nil
		}
		s := &ast.ExprStmt{}
		defer r.enter(s)()
		s.X = r.readExpr(f.Items[1])
		return s
	case "if":
		return r.readIf(f)
	case "while":
		return r.readWhile(f)
	case "do":
		return r.readDoWhile(f)
	case "for":
		return r.readFor(f)
	case "label":
		return r.readLabeled(f)
	case "switch":
		return r.readSwitch(f)
	case "return":
		if !r.expectArity(f, 1, 2) {
			return nil
		}
		s := &ast.Return{}
		defer r.enter(s)()
		if len(f.Items) == 2 {
			s.Value = r.readExpr(f.Items[1])
		}
		return s
	case "yield":
		if !r.expectArity(f, 2, 2) {
			return nil
		}
		if r.yields == 0 {
			r.errorf(f, "yield outside of a switch expression")
		}
		s := &ast.Yield{}
		defer r.enter(s)()
		s.Value = r.readExpr(f.Items[1])
		return s
	case "break", "continue":
		return r.readJump(f)
	case "throw":
		return r.readThrow(f)
	}
	if f.Kind != ListForm {
		r.errorf(f, "expected a statement, got %s", describe(f))
		return nil
	}
	s := &ast.ExprStmt{}
	defer r.enter(s)()
	s.X = r.readExpr(f)
	return s
}

// readVar reads `(var name T [init])`
func (r *reader) readVar(f *Form) ast.Stmt {
	if !r.expectArity(f, 3, 4) {
		return nil
	}
	name, ok := r.expectSymbol(f.Items[1], "variable name")
	if !ok {
		return nil
	}
	s := &ast.VarDecl{}
	defer r.enter(s)()
	t := r.typ(f.Items[2])
	if len(f.Items) == 4 {
		s.Init = r.readExpr(f.Items[3])
		r.checkAssignable(f.Items[3], t, s.Init)
	}
	s.Sym = r.arena.NewSymbol(name, t, ast.SymLocal)
	if err := r.scope.Define(s.Sym); err != nil {
		r.errorf(f, "%s", err)
	}
	return s
}

// readCond reads a condition, which must be boolean
func (r *reader) readCond(f *Form) ast.Expr {
	e := r.readExpr(f)
	if t := e.ExprType(); !t.Equal(types.Bool) && !t.Equal(types.Boolean) {
		r.errorf(f, "condition must be boolean, got %s", t)
	}
	return e
}

// checkAssignable reports a value that cannot be stored in a variable of
// type t
func (r *reader) checkAssignable(f *Form, t *types.Type, e ast.Expr) {
	et := e.ExprType()
	if et == nil || t.Box().IsAssignableFrom(et.Box()) || t.Equal(types.Object) {
		return
	}
	r.errorf(f, "cannot use %s as %s", et, t)
}

func (r *reader) readIf(f *Form) ast.Stmt {
	if !r.expectArity(f, 3, 4) {
		return nil
	}
	s := &ast.If{}
	defer r.enter(s)()
	done := r.readingCond(s)
	s.Cond = r.readCond(f.Items[1])
	done()
	s.Then = r.readBranch(f.Items[2])
	if len(f.Items) == 4 {
		s.Else = r.readBranch(f.Items[3])
	}
	return s
}

func (r *reader) readWhile(f *Form) ast.Stmt {
	label := r.takeLabel()
	if !r.expectArity(f, 3, 3) {
		return nil
	}
	s := &ast.While{Label: label}
	defer r.enter(s)()
	done := r.readingCond(s)
	s.Cond = r.readCond(f.Items[1])
	done()
	defer r.pushTarget(s, true, true)()
	s.Body = r.readBranch(f.Items[2])
	return s
}

func (r *reader) readDoWhile(f *Form) ast.Stmt {
	label := r.takeLabel()
	if !r.expectArity(f, 3, 3) {
		return nil
	}
	s := &ast.DoWhile{Label: label}
	defer r.enter(s)()
	pop := r.pushTarget(s, true, true)
	s.Body = r.readBranch(f.Items[1])
	pop()
	defer r.readingCond(s)()
	s.Cond = r.readCond(f.Items[2])
	return s
}

// readFor reads `(for init cond step body)`, `_` standing for an omitted
// clause
func (r *reader) readFor(f *Form) ast.Stmt {
	label := r.takeLabel()
	if !r.expectArity(f, 5, 5) {
		return nil
	}
	s := &ast.For{Label: label}
	defer r.enter(s)()
	defer r.pushScope()()
	if init := f.Items[1]; !init.IsSymbol("_") {
		s.Init = r.readStmt(init)
	}
	if cond := f.Items[2]; !cond.IsSymbol("_") {
		done := r.readingCond(s)
		s.Cond = r.readCond(cond)
		done()
	}
	if step := f.Items[3]; !step.IsSymbol("_") {
		s.Step = r.readExpr(step)
	}
	defer r.pushTarget(s, true, true)()
	s.Body = r.readBranch(f.Items[4])
	return s
}

// readLabeled reads `(label L stmt)` around a loop or switch statement
func (r *reader) readLabeled(f *Form) ast.Stmt {
	if !r.expectArity(f, 3, 3) {
		return nil
	}
	name, ok := r.expectSymbol(f.Items[1], "label name")
	if !ok {
		return nil
	}
	switch f.Items[2].Head() {
	case "while", "do", "for", "switch":
	default:
		r.errorf(f.Items[2], "only loops and switches can be labeled, got %s", describe(f.Items[2]))
		return nil
	}
	r.checkLabelFree(f, name)
	r.pendingLabel = name
	return r.readStmt(f.Items[2])
}

func (r *reader) checkLabelFree(f *Form, name string) {
	for _, j := range r.jumps {
		if j.label == name {
			r.errorf(f, "label %s already used by an enclosing statement", name)
			return
		}
	}
}

// readSwitch reads `(switch selector [:exhaustive] case...)`
func (r *reader) readSwitch(f *Form) ast.Stmt {
	label := r.takeLabel()
	if !r.expectArity(f, 2, -1) {
		return nil
	}
	s := &ast.Switch{Label: label, Pos: f.Pos}
	defer r.enter(s)()
	s.Selector = r.readExpr(f.Items[1])
	rest := f.Items[2:]
	if len(rest) > 0 && rest[0].IsSymbol(":exhaustive") {
		s.Exhaustive = true
		rest = rest[1:]
	}
	defer r.pushTarget(s, false, true)()
	s.Cases = r.readCases(rest, s.Selector.ExprType(), false)
	return s
}

// readCases reads `(case (labels) body...)` and `(-> (labels) body...)`
// arms. A rule arm whose body is a single expression yields it in a switch
// expression and evaluates it in a switch statement.
func (r *reader) readCases(forms []*Form, selType *types.Type, isExpr bool) []*ast.Case {
	defer r.pushScope()()
	cases := make([]*ast.Case, 0, len(forms))
	for _, f := range forms {
		head := f.Head()
		if head != "case" && head != "->" {
			r.errorf(f, "expected case or ->, got %s", describe(f))
			continue
		}
		if !r.expectArity(f, 2, -1) {
			continue
		}
		cases = append(cases, r.readCase(f, head == "->", selType, isExpr))
	}
	return cases
}

func (r *reader) readCase(f *Form, rule bool, selType *types.Type, isExpr bool) *ast.Case {
	c := &ast.Case{Rule: rule, Pos: f.Pos}
	defer r.enter(c)()
	defer r.pushScope()()
	defer r.isolate(false)()
	c.Labels = r.readLabels(f.Items[1], selType)

	body := f.Items[2:]
	if rule && len(body) == 1 && !isStmtForm(body[0]) {
		if isExpr {
			s := &ast.Yield{}
			defer r.enter(s)()
			s.Value = r.readExpr(body[0])
			c.Body = []ast.Stmt{s}
		} else {
			s := &ast.ExprStmt{}
			defer r.enter(s)()
			s.X = r.readExpr(body[0])
			c.Body = []ast.Stmt{s}
		}
		return c
	}
	c.Body = make([]ast.Stmt, 0, len(body))
	for _, b := range body {
		if s := r.readStmt(b); s != nil {
			c.Body = append(c.Body, s)
		}
	}
	return c
}

// readLabels reads the label list of a case
func (r *reader) readLabels(f *Form, selType *types.Type) []ast.Label {
	if !r.expectList(f, 1, "case label list") {
		return nil
	}
	labels := make([]ast.Label, 0, len(f.Items))
	for _, item := range f.Items {
		switch {
		case item.IsSymbol("default"):
			labels = append(labels, &ast.DefaultLabel{})
		case item.IsSymbol("null"):
			labels = append(labels, &ast.NullLabel{})
		case item.Kind == SymbolForm && strings.HasPrefix(item.Text, "#"):
			n, err := strconv.Atoi(item.Text[1:])
			if err != nil {
				r.errorf(item, "bad ordinal label %s", item.Text)
				continue
			}
			labels = append(labels, &ast.IntLabel{Value: n})
		case isPatternForm(item):
			labels = append(labels, &ast.PatternLabel{Pattern: r.readPattern(item)})
		default:
			if v := r.readConstant(item, selType); v != nil {
				labels = append(labels, &ast.ConstLabel{Value: v})
			}
		}
	}
	return labels
}

// readConstant reads a constant case label: a literal, or a constant of the
// selector's enum
func (r *reader) readConstant(f *Form, selType *types.Type) ast.Expr {
	var v ast.Expr
	switch {
	case f.Kind == IntForm:
		v = &ast.Literal{Value: f.Int, Type: types.Int}
	case f.Kind == StringForm:
		v = ast.StringLit(f.Text)
	case f.IsSymbol("true"), f.IsSymbol("false"):
		v = ast.BoolLit(f.Text == "true")
	case f.Kind == SymbolForm:
		var enum *types.Type
		if selType.IsEnum() {
			enum = selType
		}
		ec := r.enumConst(f, enum)
		if ec == nil {
			r.errorf(f, "%s is not a constant", f.Text)
			return nil
		}
		v = ec
	default:
		r.errorf(f, "expected a case label, got %s", describe(f))
		return nil
	}
	if selType != nil && !selType.Box().IsAssignableFrom(v.ExprType().Box()) {
		r.errorf(f, "constant %s is not compatible with selector type %s", ast.Print(v), selType)
	}
	return v
}

func (r *reader) readJump(f *Form) ast.Stmt {
	if !r.expectArity(f, 1, 2) {
		return nil
	}
	label := ""
	if len(f.Items) == 2 {
		name, ok := r.expectSymbol(f.Items[1], "label name")
		if !ok {
			return nil
		}
		label = name
	}
	cont := f.Head() == "continue"
	target := r.resolveJump(f, label, cont)
	if cont {
		return &ast.Continue{Target: target}
	}
	return &ast.Break{Target: target}
}

// readThrow reads `(throw Exception "message")`
func (r *reader) readThrow(f *Form) ast.Stmt {
	if !r.expectArity(f, 2, 3) {
		return nil
	}
	exc, ok := r.expectSymbol(f.Items[1], "exception name")
	if !ok {
		return nil
	}
	s := &ast.Throw{Exception: exc}
	if len(f.Items) == 3 {
		if f.Items[2].Kind != StringForm {
			r.errorf(f.Items[2], "expected message string, got %s", describe(f.Items[2]))
		}
		s.Message = f.Items[2].Text
	}
	return s
}
