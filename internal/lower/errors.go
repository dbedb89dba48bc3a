package lower

import "fmt"

// InternalError reports a tree the pass cannot lower: a missing attribution,
// an unknown node or a label not owned by its switch. The whole unit is
// abandoned when one is raised.
type InternalError struct {
	Unit string
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error lowering %s: %s", e.Unit, e.Msg)
}

// internalf aborts lowering of the current unit
func (l *lowerer) internalf(format string, args ...interface{}) {
	panic(&InternalError{Unit: l.unit, Msg: fmt.Sprintf(format, args...)})
}

// recoverInternal converts an InternalError panic into err. Any other panic
// keeps unwinding.
func recoverInternal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*err = ie
		return
	}
	panic(r)
}
