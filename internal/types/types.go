package types

import (
	"fmt"
	"strings"
)

// Kind classifies a Type
type Kind int

const (
	KindClass Kind = iota
	KindPrimitive
	KindEnum
	KindNull
	KindVoid
	KindFunction
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Type represents a resolved type. Reference types form a single-inheritance
// chain through Super; primitives carry their boxed counterpart.
type Type struct {
	Name      string
	Kind      Kind
	Super     *Type    // nil only for Object and non-reference kinds
	Boxed     *Type    // primitive -> wrapper class
	Constants []string // enum constants in declaration order
}

// Builtin types
var (
	Object   = &Type{Name: "Object", Kind: KindClass}
	String   = &Type{Name: "String", Kind: KindClass, Super: Object}
	Number   = &Type{Name: "Number", Kind: KindClass, Super: Object}
	Integer  = &Type{Name: "Integer", Kind: KindClass, Super: Number}
	Boolean  = &Type{Name: "Boolean", Kind: KindClass, Super: Object}
	Function = &Type{Name: "Function", Kind: KindFunction, Super: Object}
	Int      = &Type{Name: "int", Kind: KindPrimitive, Boxed: Integer}
	Bool     = &Type{Name: "boolean", Kind: KindPrimitive, Boxed: Boolean}
	Null     = &Type{Name: "null", Kind: KindNull}
	Void     = &Type{Name: "void", Kind: KindVoid}
)

// builtins lists every predeclared type, keyed by name
var builtins = map[string]*Type{
	Object.Name:   Object,
	String.Name:   String,
	Number.Name:   Number,
	Integer.Name:  Integer,
	Boolean.Name:  Boolean,
	Function.Name: Function,
	Int.Name:      Int,
	Bool.Name:     Bool,
	Null.Name:     Null,
	Void.Name:     Void,
}

// IsReference reports whether values of t are heap references that may be null
func (t *Type) IsReference() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindClass, KindEnum, KindFunction, KindNull:
		return true
	}
	return false
}

// IsPrimitive reports whether t is a primitive type
func (t *Type) IsPrimitive() bool {
	return t != nil && t.Kind == KindPrimitive
}

// IsEnum reports whether t is an enumerated type
func (t *Type) IsEnum() bool {
	return t != nil && t.Kind == KindEnum
}

// Box returns the reference type used to test or hold values of t.
// Reference types box to themselves.
func (t *Type) Box() *Type {
	if t.IsPrimitive() && t.Boxed != nil {
		return t.Boxed
	}
	return t
}

// Unbox returns the primitive type whose wrapper is t, or nil
func (t *Type) Unbox() *Type {
	for _, p := range []*Type{Int, Bool} {
		if p.Boxed == t {
			return p
		}
	}
	return nil
}

// IsAssignableFrom reports whether a value whose runtime type is s may be
// stored in a variable of type t.
func (t *Type) IsAssignableFrom(s *Type) bool {
	if t == nil || s == nil {
		return false
	}
	if s.Kind == KindNull {
		return t.IsReference()
	}
	if t.IsPrimitive() || s.IsPrimitive() {
		return t.Equal(s)
	}
	for c := s; c != nil; c = c.Super {
		if c.Equal(t) {
			return true
		}
	}
	return false
}

// Ordinal returns the position of an enum constant, or -1
func (t *Type) Ordinal(constant string) int {
	for i, c := range t.Constants {
		if c == constant {
			return i
		}
	}
	return -1
}

// Equal checks if two types are equal
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t == other || (t.Name == other.Name && t.Kind == other.Kind)
}

// String returns the string representation of the type
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Universe holds the types visible to one compilation unit set: the builtins
// plus declared classes and enums.
type Universe struct {
	declared map[string]*Type
	order    []*Type
}

// NewUniverse creates a universe containing only the builtin types
func NewUniverse() *Universe {
	return &Universe{declared: make(map[string]*Type)}
}

// Lookup resolves a type name, returning nil when unknown
func (u *Universe) Lookup(name string) *Type {
	if t, ok := builtins[name]; ok {
		return t
	}
	return u.declared[name]
}

// DeclareClass adds a class with the given superclass
func (u *Universe) DeclareClass(name string, super *Type) (*Type, error) {
	if super == nil {
		super = Object
	}
	if !super.IsReference() || super.Kind == KindNull {
		return nil, fmt.Errorf("class %s cannot extend %s", name, super)
	}
	t := &Type{Name: name, Kind: KindClass, Super: super}
	if err := u.declare(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeclareEnum adds an enum with the given constants
func (u *Universe) DeclareEnum(name string, constants []string) (*Type, error) {
	seen := make(map[string]bool)
	for _, c := range constants {
		if seen[c] {
			return nil, fmt.Errorf("enum %s declares constant %s twice", name, c)
		}
		seen[c] = true
	}
	t := &Type{Name: name, Kind: KindEnum, Super: Object, Constants: constants}
	if err := u.declare(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (u *Universe) declare(t *Type) error {
	if u.Lookup(t.Name) != nil {
		return fmt.Errorf("type %s already declared", t.Name)
	}
	u.declared[t.Name] = t
	u.order = append(u.order, t)
	return nil
}

// Declared returns the declared (non-builtin) types in declaration order
func (u *Universe) Declared() []*Type {
	return u.order
}

// EnumWithConstant finds the declared enum owning the named constant
func (u *Universe) EnumWithConstant(constant string) *Type {
	for _, t := range u.order {
		if t.IsEnum() && t.Ordinal(constant) >= 0 {
			return t
		}
	}
	return nil
}

// Describe renders a type with its supertype chain, e.g. "Integer <: Number <: Object"
func Describe(t *Type) string {
	var parts []string
	for c := t; c != nil; c = c.Super {
		parts = append(parts, c.Name)
	}
	return strings.Join(parts, " <: ")
}
