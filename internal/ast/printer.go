package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lhaig/matchlower/internal/types"
)

// Print returns the tree notation of a node: a File, *Func, Stmt, Expr,
// Pattern, Label or *Case. Statements are laid out one per line; anything
// nested inside an expression is printed flat.
func Print(node any) string {
	p := &printer{}
	p.node(node)
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
	flat   int
}

func (p *printer) write(s string) {
	p.sb.WriteString(s)
}

func (p *printer) newline() {
	if p.flat > 0 {
		p.sb.WriteByte(' ')
		return
	}
	p.sb.WriteByte('\n')
	p.sb.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) node(node any) {
	switch n := node.(type) {
	case *File:
		p.file(n)
	case *Func:
		p.fn(n)
	case Stmt:
		p.stmt(n)
	case Expr:
		p.expr(n)
	case Pattern:
		p.pattern(n)
	case Label:
		p.label(n)
	case *Case:
		p.kase(n)
	case nil:
		p.write("_")
	default:
		p.write(fmt.Sprintf("<%T>", node))
	}
}

func (p *printer) file(f *File) {
	first := true
	sep := func() {
		if !first {
			p.write("\n")
		}
		first = false
	}
	if f.Universe != nil {
		for _, t := range f.Universe.Declared() {
			sep()
			switch {
			case t.IsEnum():
				p.write("(enum " + t.Name)
				for _, c := range t.Constants {
					p.write(" " + c)
				}
				p.write(")")
			case t.Super != nil && t.Super != types.Object:
				p.write(fmt.Sprintf("(class %s %s)", t.Name, t.Super.Name))
			default:
				p.write(fmt.Sprintf("(class %s)", t.Name))
			}
		}
	}
	for _, fn := range f.Funcs {
		sep()
		if len(p.sb.String()) > 0 {
			p.write("\n")
		}
		p.fn(fn)
	}
	p.write("\n")
}

func (p *printer) fn(f *Func) {
	p.write("(func " + f.Name + " ")
	p.params(f.Params)
	p.write(" " + f.Result.String())
	p.indent++
	if f.Body != nil {
		for _, s := range f.Body.Stmts {
			p.newline()
			p.stmt(s)
		}
	}
	p.indent--
	p.write(")")
}

func (p *printer) params(params []*Symbol) {
	p.write("(")
	for i, ps := range params {
		if i > 0 {
			p.write(" ")
		}
		p.write(fmt.Sprintf("(%s %s)", ps.Name, ps.Type))
	}
	p.write(")")
}

func (p *printer) body(stmts []Stmt) {
	p.indent++
	for _, s := range stmts {
		p.newline()
		p.stmt(s)
	}
	p.indent--
}

func (p *printer) labeled(label string, f func()) {
	if label == "" {
		f()
		return
	}
	p.write("(label " + label + " ")
	f()
	p.write(")")
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		p.write("(block")
		p.body(s.Stmts)
		p.write(")")
	case *VarDecl:
		p.write(fmt.Sprintf("(var %s %s", s.Sym.Name, s.Sym.Type))
		if s.Init != nil {
			p.write(" ")
			p.expr(s.Init)
		}
		p.write(")")
	case *ExprStmt:
		p.write("(expr ")
		p.expr(s.X)
		p.write(")")
	case *If:
		p.write("(if ")
		p.expr(s.Cond)
		branches := []Stmt{s.Then}
		if s.Else != nil {
			branches = append(branches, s.Else)
		}
		p.body(branches)
		p.write(")")
	case *While:
		p.labeled(s.Label, func() {
			p.write("(while ")
			p.expr(s.Cond)
			p.body([]Stmt{s.Body})
			p.write(")")
		})
	case *DoWhile:
		p.labeled(s.Label, func() {
			p.write("(do")
			p.body([]Stmt{s.Body})
			p.write(" ")
			p.expr(s.Cond)
			p.write(")")
		})
	case *For:
		p.labeled(s.Label, func() {
			p.write("(for ")
			if s.Init != nil {
				p.flat++
				p.stmt(s.Init)
				p.flat--
			} else {
				p.write("_")
			}
			p.write(" ")
			p.optExpr(s.Cond)
			p.write(" ")
			p.optExpr(s.Step)
			p.body([]Stmt{s.Body})
			p.write(")")
		})
	case *Switch:
		p.labeled(s.Label, func() {
			p.write("(switch ")
			p.expr(s.Selector)
			if s.Exhaustive {
				p.write(" :exhaustive")
			}
			p.indent++
			for _, c := range s.Cases {
				p.newline()
				p.kase(c)
			}
			p.indent--
			p.write(")")
		})
	case *Return:
		if s.Value == nil {
			p.write("(return)")
			return
		}
		p.write("(return ")
		p.expr(s.Value)
		p.write(")")
	case *Yield:
		p.write("(yield ")
		p.expr(s.Value)
		p.write(")")
	case *Break:
		p.jump("break", s.Target)
	case *Continue:
		p.jump("continue", s.Target)
	case *Throw:
		p.write(fmt.Sprintf("(throw %s %s)", s.Exception, strconv.Quote(s.Message)))
	default:
		p.write(fmt.Sprintf("<%T>", s))
	}
}

func (p *printer) jump(kw string, target Target) {
	if target == nil || target.LabelName() == "" {
		p.write("(" + kw + ")")
		return
	}
	p.write("(" + kw + " " + target.LabelName() + ")")
}

func (p *printer) optExpr(e Expr) {
	if e == nil {
		p.write("_")
		return
	}
	p.expr(e)
}

func (p *printer) kase(c *Case) {
	if c.Rule {
		p.write("(-> (")
	} else {
		p.write("(case (")
	}
	for i, l := range c.Labels {
		if i > 0 {
			p.write(" ")
		}
		p.label(l)
	}
	p.write(")")
	p.body(c.Body)
	p.write(")")
}

func (p *printer) label(l Label) {
	switch l := l.(type) {
	case *PatternLabel:
		p.pattern(l.Pattern)
	case *ConstLabel:
		p.expr(l.Value)
	case *NullLabel:
		p.write("null")
	case *DefaultLabel:
		p.write("default")
	case *IntLabel:
		p.write("#" + strconv.Itoa(l.Value))
	default:
		p.write(fmt.Sprintf("<%T>", l))
	}
}

func (p *printer) pattern(pt Pattern) {
	switch pt := pt.(type) {
	case *BindingPattern:
		p.write(fmt.Sprintf("(bind %s %s)", pt.Var.Type, pt.Var.Name))
	case *GuardPattern:
		p.write("(guard ")
		p.pattern(pt.Inner)
		p.write(" ")
		p.expr(pt.Guard)
		p.write(")")
	case *AndPattern:
		p.write("(and ")
		p.pattern(pt.Left)
		p.write(" ")
		p.pattern(pt.Right)
		p.write(")")
	case *ParenPattern:
		p.write("(paren ")
		p.pattern(pt.Inner)
		p.write(")")
	default:
		p.write(fmt.Sprintf("<%T>", pt))
	}
}

func (p *printer) exprs(es []Expr) {
	for _, e := range es {
		p.write(" ")
		p.expr(e)
	}
}

func (p *printer) flatStmts(stmts []Stmt) {
	p.flat++
	for _, s := range stmts {
		p.write(" ")
		p.stmt(s)
	}
	p.flat--
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *Ident:
		p.write(e.Sym.Name)
	case *Literal:
		p.write(FormatConstant(e.Value))
	case *EnumConst:
		p.write(e.Name)
	case *Binary:
		p.write("(" + string(e.Op) + " ")
		p.expr(e.Left)
		p.write(" ")
		p.expr(e.Right)
		p.write(")")
	case *Unary:
		p.write("(" + string(e.Op) + " ")
		p.expr(e.X)
		p.write(")")
	case *Conditional:
		p.write("(? ")
		p.expr(e.Cond)
		p.write(" ")
		p.expr(e.Then)
		p.write(" ")
		p.expr(e.Else)
		p.write(")")
	case *Assign:
		p.write("(= " + e.Target.Name + " ")
		p.expr(e.Value)
		p.write(")")
	case *Cast:
		p.write("(cast " + e.Type.String() + " ")
		p.expr(e.X)
		p.write(")")
	case *TypeTest:
		p.write("(instanceof ")
		p.expr(e.X)
		p.write(" " + e.Target.String() + ")")
	case *InstanceOf:
		p.write("(is ")
		p.expr(e.X)
		p.write(" ")
		p.pattern(e.Pattern)
		p.write(")")
	case *Call:
		p.write("(call " + e.Fn)
		p.exprs(e.Args)
		p.write(")")
	case *Lambda:
		p.write("(lambda ")
		p.params(e.Params)
		p.write(" " + e.Result.String())
		p.flatStmts(e.Body.Stmts)
		p.write(")")
	case *Apply:
		p.write("(apply ")
		p.expr(e.Fn)
		p.exprs(e.Args)
		p.write(")")
	case *New:
		p.write("(new " + e.Type.String() + ")")
	case *LetExpr:
		p.write("(let (")
		p.flat++
		for i, s := range e.Init {
			if i > 0 {
				p.write(" ")
			}
			p.stmt(s)
		}
		p.flat--
		p.write(") ")
		p.expr(e.Body)
		p.write(")")
	case *SwitchExpr:
		p.labeled(e.Label, func() {
			p.write("(switch-expr " + e.Type.String() + " ")
			p.expr(e.Selector)
			p.flat++
			for _, c := range e.Cases {
				p.write(" ")
				p.kase(c)
			}
			p.flat--
			p.write(")")
		})
	case *NullCheck:
		p.write("(nullcheck ")
		p.expr(e.X)
		p.write(")")
	case *Ordinal:
		p.write("(ordinal ")
		p.expr(e.X)
		p.write(")")
	case *Dispatch:
		p.write("(dispatch (")
		for i, c := range e.Candidates {
			if i > 0 {
				p.write(" ")
			}
			p.write(c.String())
		}
		p.write(") ")
		p.expr(e.Value)
		p.write(" ")
		p.expr(e.Start)
		p.write(")")
	default:
		p.write(fmt.Sprintf("<%T>", e))
	}
}

// FormatConstant renders a literal value in tree notation
func FormatConstant(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
