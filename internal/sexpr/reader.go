// Package sexpr reads the tree notation printed by ast.Print back into
// attributed units: names are resolved to symbols, every expression gets a
// type and pattern bindings that outlive their statement are marked
// preserved.
package sexpr

import (
	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/diagnostic"
	"github.com/lhaig/matchlower/internal/types"
)

// jumpTarget is an enclosing loop or switch a break or continue may name
type jumpTarget struct {
	label  string
	target ast.Target
	loop   bool
	stmt   bool // false for switch expressions
}

// reader holds the state of reading one file. Fields below arena are reset
// for every unit.
type reader struct {
	file     string
	universe *types.Universe
	funcs    map[string]*ast.Func
	diags    *diagnostic.Diagnostics

	// bodyForms holds the statement forms of each unit until signatures
	// are known
	bodyForms map[*ast.Func][]*Form

	arena        *ast.Arena
	scope        *Scope
	jumps        []jumpTarget
	pendingLabel string
	yields       int

	// open lists the statements and cases being read, innermost last
	open []any
	// condOwners lists the statements whose condition is being read
	condOwners []ast.Stmt
	// owners records the statement or case each binding belongs to
	owners  map[*ast.Symbol]any
	aliases map[*ast.Symbol]*ast.Symbol
}

// Read parses and attributes a file. It always returns a file; units that
// could not be read completely are still present, and the diagnostics say
// what went wrong.
func Read(name, src string) (*ast.File, *diagnostic.Diagnostics) {
	diags := diagnostic.New()
	diags.SetUnit(name, "")
	forms := ParseForms(src, diags)

	r := &reader{
		file:      name,
		universe:  types.NewUniverse(),
		funcs:     make(map[string]*ast.Func),
		diags:     diags,
		bodyForms: make(map[*ast.Func][]*Form),
	}
	out := &ast.File{Name: name, Universe: r.universe}

	// Types first so any unit may use any declared type, then signatures so
	// any unit may call any other.
	var bodies []*Form
	for _, f := range forms {
		switch f.Head() {
		case "class":
			r.readClass(f)
		case "enum":
			r.readEnum(f)
		case "func":
			bodies = append(bodies, f)
		default:
			r.errorf(f, "expected class, enum or func declaration, got %s", describe(f))
		}
	}
	for _, f := range bodies {
		if fn := r.readSignature(f); fn != nil {
			out.Funcs = append(out.Funcs, fn)
		}
	}
	for _, fn := range out.Funcs {
		r.readBody(fn, r.bodyForms[fn])
	}
	diags.SetUnit(name, "")
	return out, diags
}

func (r *reader) readClass(f *Form) {
	if !r.expectArity(f, 2, 3) {
		return
	}
	name, ok := r.expectSymbol(f.Items[1], "class name")
	if !ok {
		return
	}
	var super *types.Type
	if len(f.Items) == 3 {
		super = r.typ(f.Items[2])
	}
	if _, err := r.universe.DeclareClass(name, super); err != nil {
		r.errorf(f, "%s", err)
	}
}

func (r *reader) readEnum(f *Form) {
	if !r.expectArity(f, 2, -1) {
		return
	}
	name, ok := r.expectSymbol(f.Items[1], "enum name")
	if !ok {
		return
	}
	var constants []string
	for _, c := range f.Items[2:] {
		if s, ok := r.expectSymbol(c, "enum constant"); ok {
			constants = append(constants, s)
		}
	}
	if _, err := r.universe.DeclareEnum(name, constants); err != nil {
		r.errorf(f, "%s", err)
	}
}

// typ resolves a type name. Unknown names are reported and read as Object.
func (r *reader) typ(f *Form) *types.Type {
	name, ok := r.expectSymbol(f, "type name")
	if !ok {
		return types.Object
	}
	t := r.universe.Lookup(name)
	if t == nil {
		r.errorf(f, "unknown type %s", name)
		return types.Object
	}
	return t
}
