package sexpr

import (
	"fmt"

	"github.com/lhaig/matchlower/internal/ast"
)

// Scope represents a lexical scope mapping names to symbols
type Scope struct {
	parent  *Scope
	symbols map[string]*ast.Symbol
}

// NewScope creates a new scope with an optional parent
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]*ast.Symbol),
	}
}

// Define adds a symbol to the current scope. Pattern bindings may shadow an
// earlier binding of the same name in the same scope; anything else is an
// error.
func (s *Scope) Define(sym *ast.Symbol) error {
	if prev, exists := s.symbols[sym.Name]; exists &&
		(sym.Kind != ast.SymBinding || prev.Kind != ast.SymBinding) {
		return fmt.Errorf("symbol '%s' already defined in this scope", sym.Name)
	}
	s.symbols[sym.Name] = sym
	return nil
}

// Resolve looks up a symbol in the current scope and parent scopes
// Returns nil if the symbol is not found
func (s *Scope) Resolve(name string) *ast.Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	if s.parent != nil {
		return s.parent.Resolve(name)
	}
	return nil
}

// Parent returns the enclosing scope
func (s *Scope) Parent() *Scope {
	return s.parent
}
