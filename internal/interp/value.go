package interp

import (
	"fmt"
	"strconv"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/dispatch"
	"github.com/lhaig/matchlower/internal/types"
)

// Value is a runtime value. The null reference is a nil Value.
type Value interface {
	dispatch.Value
	String() string
}

// Int is an int or a boxed Integer
type Int int64

func (Int) RuntimeType() *types.Type { return types.Integer }
func (v Int) ConstantValue() any     { return int64(v) }
func (v Int) String() string         { return strconv.FormatInt(int64(v), 10) }

// Bool is a boolean or a boxed Boolean
type Bool bool

func (Bool) RuntimeType() *types.Type { return types.Boolean }
func (v Bool) ConstantValue() any     { return bool(v) }
func (v Bool) String() string         { return strconv.FormatBool(bool(v)) }

// Str is a String
type Str string

func (Str) RuntimeType() *types.Type { return types.String }
func (v Str) ConstantValue() any     { return string(v) }
func (v Str) String() string         { return strconv.Quote(string(v)) }

// Object is an instance of a declared class. Objects compare by identity.
type Object struct {
	Class *types.Type
	id    int
}

func (o *Object) RuntimeType() *types.Type { return o.Class }
func (o *Object) String() string           { return fmt.Sprintf("(new %s)", o.Class.Name) }

// Enum is a constant of an enum type
type Enum struct {
	Type *types.Type
	Name string
}

func (e Enum) RuntimeType() *types.Type { return e.Type }
func (e Enum) ConstantValue() any       { return e.Name }
func (e Enum) String() string           { return e.Type.Name + "." + e.Name }

// Ordinal returns the declaration index of the constant
func (e Enum) Ordinal() int { return e.Type.Ordinal(e.Name) }

// Closure is a lambda together with the variables it captured
type Closure struct {
	params []*ast.Symbol
	body   *ast.Block
	env    *env
}

func (*Closure) RuntimeType() *types.Type { return types.Function }
func (*Closure) String() string           { return "(lambda)" }

// Format renders a value, including null, in tree notation
func Format(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// text is the string conversion used by str and string concatenation
func text(v Value) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case Str:
		return string(v)
	case Enum:
		return v.Name
	case *Object:
		return v.Class.Name
	}
	return v.String()
}

// equal implements == on runtime values: boxed primitives, strings and
// enum constants by value, objects and closures by identity
func equal(a, b Value) bool {
	return a == b
}
