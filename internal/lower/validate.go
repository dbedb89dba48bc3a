package lower

import (
	"fmt"

	"github.com/lhaig/matchlower/internal/ast"
)

// Validate checks a lowered unit and returns a list of error messages. An
// empty slice indicates the unit is ready for the next phase: no pattern
// survived, every identifier is declared in an enclosing scope before use
// and every jump names an enclosing target.
func Validate(fn *ast.Func) []string {
	v := &validator{context: fmt.Sprintf("function %s", fn.Name)}
	if fn.Result == nil {
		v.errorf("has nil Result")
	}
	if fn.Body == nil {
		v.errorf("has no body")
		return v.errors
	}
	v.push()
	for _, p := range fn.Params {
		v.declare(p)
	}
	v.stmt(fn.Body)
	v.pop()
	return v.errors
}

type validator struct {
	context string
	errors  []string
	scopes  []map[*ast.Symbol]bool

	// targets lists the enclosing loops and switches, innermost last
	targets []ast.Target
	// yields counts enclosing switch expressions
	yields int
}

func (v *validator) errorf(format string, args ...interface{}) {
	v.errors = append(v.errors, v.context+" "+fmt.Sprintf(format, args...))
}

func (v *validator) push() {
	v.scopes = append(v.scopes, make(map[*ast.Symbol]bool))
}

func (v *validator) pop() {
	v.scopes = v.scopes[:len(v.scopes)-1]
}

func (v *validator) declare(sym *ast.Symbol) {
	if sym == nil {
		v.errorf("declares a nil symbol")
		return
	}
	if sym.Kind == ast.SymBinding {
		v.errorf("declares pattern binding %s", sym.Name)
	}
	top := v.scopes[len(v.scopes)-1]
	if top[sym] {
		v.errorf("declares %s twice in one scope", sym.Name)
	}
	top[sym] = true
}

func (v *validator) declared(sym *ast.Symbol) bool {
	for i := len(v.scopes) - 1; i >= 0; i-- {
		if v.scopes[i][sym] {
			return true
		}
	}
	return false
}

func (v *validator) use(sym *ast.Symbol) {
	switch {
	case sym == nil:
		v.errorf("references a nil symbol")
	case sym.Kind == ast.SymBinding:
		v.errorf("still references pattern binding %s", sym.Name)
	case !v.declared(sym):
		v.errorf("uses %s outside the scope of its declaration", sym.Name)
	}
}

func (v *validator) encloses(t ast.Target) bool {
	for _, e := range v.targets {
		if e == t {
			return true
		}
	}
	return false
}

func (v *validator) scoped(s ast.Stmt) {
	v.push()
	v.stmt(s)
	v.pop()
}

func (v *validator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		v.push()
		for _, st := range s.Stmts {
			v.stmt(st)
		}
		v.pop()
	case *ast.VarDecl:
		if s.Init != nil {
			v.expr(s.Init)
		}
		v.declare(s.Sym)
	case *ast.ExprStmt:
		v.expr(s.X)
	case *ast.If:
		v.expr(s.Cond)
		v.scoped(s.Then)
		if s.Else != nil {
			v.scoped(s.Else)
		}
	case *ast.While:
		v.expr(s.Cond)
		v.targets = append(v.targets, s)
		v.scoped(s.Body)
		v.targets = v.targets[:len(v.targets)-1]
	case *ast.DoWhile:
		v.targets = append(v.targets, s)
		v.scoped(s.Body)
		v.targets = v.targets[:len(v.targets)-1]
		v.expr(s.Cond)
	case *ast.For:
		v.push()
		if s.Init != nil {
			v.stmt(s.Init)
		}
		if s.Cond != nil {
			v.expr(s.Cond)
		}
		if s.Step != nil {
			v.expr(s.Step)
		}
		v.targets = append(v.targets, s)
		v.scoped(s.Body)
		v.targets = v.targets[:len(v.targets)-1]
		v.pop()
	case *ast.Switch:
		v.expr(s.Selector)
		v.targets = append(v.targets, s)
		v.cases(s.Cases)
		v.targets = v.targets[:len(v.targets)-1]
	case *ast.Return:
		if s.Value != nil {
			v.expr(s.Value)
		}
	case *ast.Yield:
		if v.yields == 0 {
			v.errorf("has a yield outside a switch expression")
		}
		v.expr(s.Value)
	case *ast.Break:
		if s.Target == nil {
			if len(v.targets) == 0 {
				v.errorf("has a break outside a loop or switch")
			}
		} else if !v.encloses(s.Target) {
			v.errorf("breaks to %q which does not enclose it", s.Target.LabelName())
		}
	case *ast.Continue:
		if s.Target == nil {
			if !v.inLoop() {
				v.errorf("has a continue outside a loop")
			}
		} else if !v.encloses(s.Target) {
			v.errorf("continues %q which does not enclose it", s.Target.LabelName())
		}
	case *ast.Throw:
		if s.Exception == "" {
			v.errorf("throws an unnamed exception")
		}
	default:
		v.errorf("has unknown statement %T", s)
	}
}

func (v *validator) inLoop() bool {
	for _, t := range v.targets {
		switch t.(type) {
		case *ast.While, *ast.DoWhile, *ast.For:
			return true
		}
	}
	return false
}

// cases validates switch arms; they share one scope
func (v *validator) cases(cases []*ast.Case) {
	v.push()
	for _, c := range cases {
		if len(c.Labels) == 0 {
			v.errorf("has a case without labels at %d:%d", c.Pos.Line, c.Pos.Column)
		}
		for _, lb := range c.Labels {
			switch lb := lb.(type) {
			case *ast.PatternLabel:
				v.errorf("has a pattern label at %d:%d", c.Pos.Line, c.Pos.Column)
			case *ast.NullLabel:
				v.errorf("has a null label at %d:%d", c.Pos.Line, c.Pos.Column)
			case *ast.ConstLabel:
				v.expr(lb.Value)
			}
		}
		for _, s := range c.Body {
			v.stmt(s)
		}
	}
	v.pop()
}

func (v *validator) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Ident:
		v.use(e.Sym)
	case *ast.Literal, *ast.EnumConst, *ast.New:
	case *ast.Binary:
		v.expr(e.Left)
		v.expr(e.Right)
	case *ast.Unary:
		v.expr(e.X)
	case *ast.Conditional:
		v.expr(e.Cond)
		v.expr(e.Then)
		v.expr(e.Else)
	case *ast.Assign:
		v.use(e.Target)
		v.expr(e.Value)
	case *ast.Cast:
		v.expr(e.X)
	case *ast.TypeTest:
		v.expr(e.X)
		if e.Target == nil {
			v.errorf("has a type test without a target type")
		}
	case *ast.InstanceOf:
		v.errorf("has an instanceof pattern at %d:%d", e.Pos.Line, e.Pos.Column)
	case *ast.Call:
		for _, a := range e.Args {
			v.expr(a)
		}
	case *ast.Lambda:
		targets, yields := v.targets, v.yields
		v.targets, v.yields = nil, 0
		v.push()
		for _, p := range e.Params {
			v.declare(p)
		}
		v.stmt(e.Body)
		v.pop()
		v.targets, v.yields = targets, yields
	case *ast.Apply:
		v.expr(e.Fn)
		for _, a := range e.Args {
			v.expr(a)
		}
	case *ast.LetExpr:
		v.push()
		for _, s := range e.Init {
			v.stmt(s)
		}
		v.expr(e.Body)
		v.pop()
	case *ast.SwitchExpr:
		v.expr(e.Selector)
		v.targets = append(v.targets, e)
		v.yields++
		v.cases(e.Cases)
		v.yields--
		v.targets = v.targets[:len(v.targets)-1]
	case *ast.NullCheck:
		v.expr(e.X)
	case *ast.Ordinal:
		v.expr(e.X)
	case *ast.Dispatch:
		for i, c := range e.Candidates {
			if c.Type == nil && c.Value == nil {
				v.errorf("has a null dispatch candidate at index %d", i)
			}
		}
		v.expr(e.Value)
		v.expr(e.Start)
	default:
		v.errorf("has unknown expression %T", e)
	}
}
