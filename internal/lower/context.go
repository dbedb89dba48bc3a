package lower

import (
	"github.com/lhaig/matchlower/internal/ast"
)

// frameKind selects how a frame answers binding requests
type frameKind int

const (
	// rootFrame sits below every unit; it declares and knows nothing.
	rootFrame frameKind = iota
	// basicFrame hoists bindings declared beneath it unless an outer frame
	// already does.
	basicFrame
	// fenceFrame stops on-demand declaration from crossing it (lambdas).
	fenceFrame
	// blockFrame is a fence that accepts preserved declarations as
	// statements of the block being built.
	blockFrame
	// caseFrame owns the bindings of one switch case's pattern.
	caseFrame
)

// hoisted pairs a source binding with the synthetic variable that replaces it
type hoisted struct {
	src *ast.Symbol
	v   *ast.Symbol
}

// frame is one level of the binding context. The parent link never changes
// once a frame is created; a frame only accumulates its own variables.
type frame struct {
	kind   frameKind
	parent *frame
	arena  *ast.Arena
	vars   []hoisted

	// stmts is the statement list of the block a blockFrame is building
	stmts *[]ast.Stmt
}

func newRootFrame(arena *ast.Arena) *frame {
	return &frame{kind: rootFrame, arena: arena}
}

// push returns a child frame of the given kind
func (f *frame) push(kind frameKind) *frame {
	return &frame{kind: kind, parent: f, arena: f.arena}
}

// pushBlock returns a block frame that prepends into stmts
func (f *frame) pushBlock(stmts *[]ast.Stmt) *frame {
	return &frame{kind: blockFrame, parent: f, arena: f.arena, stmts: stmts}
}

// own returns the variable this frame holds for src or one of its aliases
func (f *frame) own(src *ast.Symbol) *ast.Symbol {
	for _, h := range f.vars {
		if h.src.IsAliasFor(src) {
			return h.v
		}
	}
	return nil
}

// declareBinding returns the variable standing for src, creating it in the
// outermost frame that may own it. It returns nil when no frame can.
func (f *frame) declareBinding(src *ast.Symbol) *ast.Symbol {
	switch f.kind {
	case rootFrame, fenceFrame, blockFrame:
		return nil
	case caseFrame:
		if v := f.own(src); v != nil {
			return v
		}
	default:
		if v := f.own(src); v != nil {
			return v
		}
		if v := f.parent.declareBinding(src); v != nil {
			return v
		}
	}
	v := f.arena.Synthetic(src.Name, src.Type)
	f.vars = append(f.vars, hoisted{src: src, v: v})
	return v
}

// lookupBinding finds the variable already created for src, walking every
// enclosing frame including fences.
func (f *frame) lookupBinding(src *ast.Symbol) *ast.Symbol {
	if f == nil {
		return nil
	}
	if v := f.parent.lookupBinding(src); v != nil {
		return v
	}
	return f.own(src)
}

// tryPrepend asks the frame to declare v as a statement preceding the one
// being lowered. Only block frames accept.
func (f *frame) tryPrepend(src *ast.Symbol, decl *ast.VarDecl) bool {
	if f.kind != blockFrame {
		return false
	}
	*f.stmts = append(*f.stmts, decl)
	f.vars = append(f.vars, hoisted{src: src, v: decl.Sym})
	return true
}

// decorateStatement declares the frame's variables around stmt. Preserved
// bindings are offered to the parent block first so they outlive stmt.
func (f *frame) decorateStatement(stmt ast.Stmt) ast.Stmt {
	if len(f.vars) == 0 {
		return stmt
	}
	var decls []ast.Stmt
	for _, h := range f.vars {
		decl := &ast.VarDecl{Sym: h.v}
		if !h.src.Preserved || !f.parent.tryPrepend(h.src, decl) {
			decls = append(decls, decl)
		}
	}
	if len(decls) == 0 {
		return stmt
	}
	return &ast.Block{Stmts: append(decls, stmt)}
}

// decorateExpression declares the frame's variables around expr, the first
// variable outermost.
func (f *frame) decorateExpression(expr ast.Expr) ast.Expr {
	for i := len(f.vars) - 1; i >= 0; i-- {
		expr = &ast.LetExpr{
			Init: []ast.Stmt{&ast.VarDecl{Sym: f.vars[i].v}},
			Body: expr,
		}
	}
	return expr
}

// declarations returns uninitialized declarations of the frame's variables
func (f *frame) declarations() []ast.Stmt {
	decls := make([]ast.Stmt, 0, len(f.vars))
	for _, h := range f.vars {
		decls = append(decls, &ast.VarDecl{Sym: h.v})
	}
	return decls
}
