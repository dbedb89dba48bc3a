package interp

import (
	"fmt"
	"strings"
)

// callBuiltin runs a builtin function. ok is false when name is not one.
func callBuiltin(name string, args []Value) (v Value, ok bool, err error) {
	switch name {
	case "len":
		s, err := stringArg(name, args, 0, 1)
		if err != nil {
			return nil, true, err
		}
		return Int(len(s)), true, nil
	case "upper", "lower":
		s, err := stringArg(name, args, 0, 1)
		if err != nil {
			return nil, true, err
		}
		if name == "upper" {
			return Str(strings.ToUpper(s)), true, nil
		}
		return Str(strings.ToLower(s)), true, nil
	case "str":
		if len(args) != 1 {
			return nil, true, fmt.Errorf("str takes 1 argument, got %d", len(args))
		}
		return Str(text(args[0])), true, nil
	case "concat":
		var b strings.Builder
		for _, a := range args {
			b.WriteString(text(a))
		}
		return Str(b.String()), true, nil
	case "equalsIgnoreCase":
		s, err := stringArg(name, args, 0, 2)
		if err != nil {
			return nil, true, err
		}
		other, isStr := args[1].(Str)
		return Bool(isStr && strings.EqualFold(s, string(other))), true, nil
	}
	return nil, false, nil
}

// stringArg returns argument i of a builtin taking n arguments, which must
// be a non-null String
func stringArg(name string, args []Value, i, n int) (string, error) {
	if len(args) != n {
		return "", fmt.Errorf("%s takes %d arguments, got %d", name, n, len(args))
	}
	switch s := args[i].(type) {
	case Str:
		return string(s), nil
	case nil:
		return "", faultf(NullPointer, "%s of null", name)
	}
	return "", fmt.Errorf("%s of non-string %s", name, Format(args[i]))
}
