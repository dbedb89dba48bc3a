package interp

import (
	"fmt"
	"strings"

	"github.com/lhaig/matchlower/internal/diagnostic"
	"github.com/lhaig/matchlower/internal/sexpr"
	"github.com/lhaig/matchlower/internal/types"
)

// ParseCall reads a call written in tree notation, such as
//
//	(area (new Circle) 2 "x" null Color.RED)
//
// and returns the unit name with its argument values. Enum constants may be
// written bare when their name is unambiguous in u.
func (in *Interpreter) ParseCall(text string, u *types.Universe) (string, []Value, error) {
	diags := diagnostic.New()
	forms := sexpr.ParseForms(text, diags)
	if diags.HasErrors() {
		return "", nil, fmt.Errorf("call %q: %s", text, diags.Errors()[0].Message)
	}
	if len(forms) != 1 || forms[0].Kind != sexpr.ListForm || forms[0].Head() == "" {
		return "", nil, fmt.Errorf("call %q: expected (name args...)", text)
	}
	f := forms[0]
	args := make([]Value, 0, len(f.Items)-1)
	for _, a := range f.Items[1:] {
		v, err := in.argValue(a, u)
		if err != nil {
			return "", nil, fmt.Errorf("call %q: %w", text, err)
		}
		args = append(args, v)
	}
	return f.Head(), args, nil
}

func (in *Interpreter) argValue(f *sexpr.Form, u *types.Universe) (Value, error) {
	switch f.Kind {
	case sexpr.IntForm:
		return Int(f.Int), nil
	case sexpr.StringForm:
		return Str(f.Text), nil
	case sexpr.ListForm:
		if f.Head() != "new" || len(f.Items) != 2 || f.Items[1].Kind != sexpr.SymbolForm {
			return nil, fmt.Errorf("argument must be a literal, an enum constant or (new Class)")
		}
		t := u.Lookup(f.Items[1].Text)
		if t == nil || t.Kind != types.KindClass {
			return nil, fmt.Errorf("unknown class %s", f.Items[1].Text)
		}
		return in.NewObject(t), nil
	}

	switch f.Text {
	case "null":
		return nil, nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if enum, name, ok := strings.Cut(f.Text, "."); ok {
		t := u.Lookup(enum)
		if t == nil || !t.IsEnum() || t.Ordinal(name) < 0 {
			return nil, fmt.Errorf("unknown enum constant %s", f.Text)
		}
		return Enum{Type: t, Name: name}, nil
	}
	if t := u.EnumWithConstant(f.Text); t != nil {
		return Enum{Type: t, Name: f.Text}, nil
	}
	return nil, fmt.Errorf("unknown argument %s", f.Text)
}
