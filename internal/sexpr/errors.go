package sexpr

import "fmt"

// errorf reports a problem at the position of f
func (r *reader) errorf(f *Form, format string, args ...interface{}) {
	r.diags.Errorf(f.Pos.Line, f.Pos.Column, format, args...)
}

// expectList checks that f is a list with at least min items, reporting an
// error otherwise
func (r *reader) expectList(f *Form, min int, what string) bool {
	if f.Kind != ListForm {
		r.errorf(f, "expected %s, got %s", what, describe(f))
		return false
	}
	if len(f.Items) < min {
		r.errorf(f, "%s needs at least %d items, got %d", what, min, len(f.Items))
		return false
	}
	return true
}

// expectArity checks that a list form has between min and max items
// (counting its head); max < 0 means unbounded
func (r *reader) expectArity(f *Form, min, max int) bool {
	n := len(f.Items)
	if n < min || (max >= 0 && n > max) {
		switch {
		case min == max:
			r.errorf(f, "%s takes %d operands, got %d", f.Head(), min-1, n-1)
		case max < 0:
			r.errorf(f, "%s takes at least %d operands, got %d", f.Head(), min-1, n-1)
		default:
			r.errorf(f, "%s takes %d to %d operands, got %d", f.Head(), min-1, max-1, n-1)
		}
		return false
	}
	return true
}

// expectSymbol returns the text of a symbol form, reporting an error when
// f is anything else
func (r *reader) expectSymbol(f *Form, what string) (string, bool) {
	if f.Kind != SymbolForm {
		r.errorf(f, "expected %s, got %s", what, describe(f))
		return "", false
	}
	return f.Text, true
}

// describe names a form for error messages
func describe(f *Form) string {
	switch f.Kind {
	case SymbolForm:
		return fmt.Sprintf("symbol %s", f.Text)
	case IntForm:
		return fmt.Sprintf("integer %d", f.Int)
	case StringForm:
		return fmt.Sprintf("string %q", f.Text)
	}
	if h := f.Head(); h != "" {
		return fmt.Sprintf("(%s ...)", h)
	}
	return "list"
}
