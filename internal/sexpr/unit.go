package sexpr

import (
	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

// readSignature reads `(func name ((p T)...) R body...)` up to its body
func (r *reader) readSignature(f *Form) *ast.Func {
	if !r.expectArity(f, 4, -1) {
		return nil
	}
	name, ok := r.expectSymbol(f.Items[1], "function name")
	if !ok {
		return nil
	}
	if _, dup := r.funcs[name]; dup {
		r.errorf(f, "function %s already declared", name)
		return nil
	}
	fn := &ast.Func{
		Name:   name,
		Result: r.typ(f.Items[3]),
		Arena:  ast.NewArena(),
		Pos:    f.Pos,
	}
	fn.Params = r.readParams(fn.Arena, f.Items[2])
	r.funcs[name] = fn
	r.bodyForms[fn] = f.Items[4:]
	return fn
}

// readParams reads `((p T)...)`
func (r *reader) readParams(arena *ast.Arena, f *Form) []*ast.Symbol {
	if !r.expectList(f, 0, "parameter list") {
		return nil
	}
	params := make([]*ast.Symbol, 0, len(f.Items))
	for _, p := range f.Items {
		if !r.expectList(p, 2, "parameter") {
			continue
		}
		name, ok := r.expectSymbol(p.Items[0], "parameter name")
		if !ok {
			continue
		}
		params = append(params, arena.NewSymbol(name, r.typ(p.Items[1]), ast.SymParam))
	}
	return params
}

// readBody attributes the statements of one unit
func (r *reader) readBody(fn *ast.Func, forms []*Form) {
	r.diags.SetUnit(r.file, fn.Name)
	r.arena = fn.Arena
	r.scope = NewScope(nil)
	r.jumps = nil
	r.pendingLabel = ""
	r.yields = 0
	r.open = nil
	r.condOwners = nil
	r.owners = make(map[*ast.Symbol]any)
	r.aliases = make(map[*ast.Symbol]*ast.Symbol)

	r.declareParams(fn.Params, fn.Pos)
	fn.Body = r.readStmts(forms)
}

func (r *reader) declareParams(params []*ast.Symbol, pos ast.Pos) {
	for _, p := range params {
		if err := r.scope.Define(p); err != nil {
			r.diags.Errorf(pos.Line, pos.Column, "%s", err)
		}
	}
}

// pushScope opens a nested scope and returns the function closing it
func (r *reader) pushScope() func() {
	r.scope = NewScope(r.scope)
	return func() { r.scope = r.scope.Parent() }
}

// enter marks a statement or case as being read
func (r *reader) enter(node any) func() {
	r.open = append(r.open, node)
	return func() { r.open = r.open[:len(r.open)-1] }
}

func (r *reader) isOpen(node any) bool {
	for _, n := range r.open {
		if n == node {
			return true
		}
	}
	return false
}

// readingCond marks s as the statement owning bindings declared until the
// returned function is called
func (r *reader) readingCond(s ast.Stmt) func() {
	r.condOwners = append(r.condOwners, s)
	return func() { r.condOwners = r.condOwners[:len(r.condOwners)-1] }
}

// isolate hides the enclosing condition owners and jump targets from a
// nested body: a lambda or a case of a switch expression.
func (r *reader) isolate(resetJumps bool) func() {
	owners, jumps, yields := r.condOwners, r.jumps, r.yields
	r.condOwners = nil
	if resetJumps {
		r.jumps, r.yields = nil, 0
	}
	return func() { r.condOwners, r.jumps, r.yields = owners, jumps, yields }
}

// declareBinding creates the symbol of a binding pattern in the current
// scope. It belongs to the statement whose condition is being read, or to
// the innermost statement or case otherwise.
func (r *reader) declareBinding(f *Form, name string, t *types.Type) *ast.Symbol {
	sym := r.arena.NewSymbol(name, t, ast.SymBinding)
	if err := r.scope.Define(sym); err != nil {
		r.errorf(f, "%s", err)
	}
	switch {
	case len(r.condOwners) > 0:
		r.owners[sym] = r.condOwners[len(r.condOwners)-1]
	case len(r.open) > 0:
		r.owners[sym] = r.open[len(r.open)-1]
	}
	return sym
}

// useBinding returns the symbol a reference to a binding should carry. A
// binding read after the statement owning its condition is marked preserved
// and referenced through an alias.
func (r *reader) useBinding(f *Form, sym *ast.Symbol) *ast.Symbol {
	owner, ok := r.owners[sym]
	if !ok || r.isOpen(owner) {
		return sym
	}
	switch owner.(type) {
	case *ast.If, *ast.While, *ast.DoWhile, *ast.For:
	default:
		r.errorf(f, "binding %s is not in scope here", sym.Name)
		return sym
	}
	sym.Preserved = true
	alias, ok := r.aliases[sym]
	if !ok {
		alias = r.arena.NewSymbol(sym.Name, sym.Type, ast.SymBinding)
		alias.Alias = sym
		alias.Preserved = true
		r.aliases[sym] = alias
	}
	return alias
}

// pushTarget makes t available to break and continue until the returned
// function is called
func (r *reader) pushTarget(t ast.Target, loop, stmt bool) func() {
	r.jumps = append(r.jumps, jumpTarget{label: t.LabelName(), target: t, loop: loop, stmt: stmt})
	return func() { r.jumps = r.jumps[:len(r.jumps)-1] }
}

// takeLabel consumes the label written around the statement being read
func (r *reader) takeLabel() string {
	l := r.pendingLabel
	r.pendingLabel = ""
	return l
}

// resolveJump finds the target of a break (continue when cont is set)
func (r *reader) resolveJump(f *Form, label string, cont bool) ast.Target {
	for i := len(r.jumps) - 1; i >= 0; i-- {
		j := r.jumps[i]
		if label != "" {
			if j.label == label {
				return j.target
			}
			continue
		}
		if j.loop || (!cont && j.stmt) {
			return j.target
		}
	}
	kw := "break"
	if cont {
		kw = "continue"
	}
	if label != "" {
		r.errorf(f, "%s to unknown label %s", kw, label)
	} else {
		r.errorf(f, "%s outside of a loop or switch", kw)
	}
	return nil
}

// lub is the type of a conditional whose branches have types a and b
func lub(a, b *types.Type) *types.Type {
	switch {
	case a.Equal(b):
		return a
	case a.Kind == types.KindNull:
		return b.Box()
	case b.Kind == types.KindNull:
		return a.Box()
	}
	ab, bb := a.Box(), b.Box()
	for c := ab; c != nil; c = c.Super {
		if c.IsAssignableFrom(bb) {
			return c
		}
	}
	return types.Object
}
