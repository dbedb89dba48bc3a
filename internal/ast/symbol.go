package ast

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lhaig/matchlower/internal/types"
)

// SymbolKind represents the kind of symbol
type SymbolKind int

const (
	SymLocal SymbolKind = iota
	SymParam
	SymBinding
	SymSynthetic
)

// String returns the string representation of the symbol kind
func (sk SymbolKind) String() string {
	switch sk {
	case SymLocal:
		return "local"
	case SymParam:
		return "parameter"
	case SymBinding:
		return "binding"
	case SymSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// SymbolID identifies a symbol uniquely across every unit lowered by a
// process: the owning unit's identity plus a per-unit counter.
type SymbolID struct {
	Unit uuid.UUID
	Seq  uint32
}

// String returns a short printable form of the ID
func (id SymbolID) String() string {
	return fmt.Sprintf("%s#%d", id.Unit.String()[:8], id.Seq)
}

// Symbol is a resolved variable. Identifiers refer to symbols by pointer, so
// two symbols with the same name never alias unless Alias says so.
type Symbol struct {
	ID   SymbolID
	Name string
	Type *types.Type
	Kind SymbolKind

	// Alias links a flow-scoped re-declaration of a pattern binding (the
	// binding seen after `if (!(x is T t)) return;`) to the binding it
	// stands for.
	Alias *Symbol

	// Preserved is set by attribution on bindings that stay in scope after
	// the statement that introduces them.
	Preserved bool
}

// root follows alias links to the originally declared symbol
func (s *Symbol) root() *Symbol {
	for s.Alias != nil {
		s = s.Alias
	}
	return s
}

// IsAliasFor reports whether s and other denote the same binding
func (s *Symbol) IsAliasFor(other *Symbol) bool {
	if s == nil || other == nil {
		return false
	}
	return s.root() == other.root()
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// Arena allocates the symbols of one unit. It is not safe for concurrent
// use; every unit owns its own arena.
type Arena struct {
	unit uuid.UUID
	next uint32
}

// NewArena creates an arena with a fresh unit identity
func NewArena() *Arena {
	return &Arena{unit: uuid.New()}
}

// Unit returns the identity shared by every symbol of this arena
func (a *Arena) Unit() uuid.UUID {
	return a.unit
}

// NewSymbol allocates a symbol with a source-level name
func (a *Arena) NewSymbol(name string, t *types.Type, kind SymbolKind) *Symbol {
	a.next++
	return &Symbol{
		ID:   SymbolID{Unit: a.unit, Seq: a.next},
		Name: name,
		Type: t,
		Kind: kind,
	}
}

// Synthetic allocates a compiler-generated symbol. The counter suffix keeps
// names unique within the unit without inspecting existing names.
func (a *Arena) Synthetic(base string, t *types.Type) *Symbol {
	a.next++
	return &Symbol{
		ID:   SymbolID{Unit: a.unit, Seq: a.next},
		Name: fmt.Sprintf("%s$%d", base, a.next),
		Type: t,
		Kind: SymSynthetic,
	}
}

// Label returns a fresh statement label drawn from the same counter
func (a *Arena) Label(base string) string {
	a.next++
	return fmt.Sprintf("%s$%d", base, a.next)
}
