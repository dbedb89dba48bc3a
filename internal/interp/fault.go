package interp

import (
	"errors"
	"fmt"

	"github.com/lhaig/matchlower/internal/ast"
)

// FaultKind classifies an exception raised by a running unit
type FaultKind int

const (
	NullPointer FaultKind = iota
	ClassCast
	MatchException
	Thrown
)

// String returns the exception name of the kind
func (k FaultKind) String() string {
	switch k {
	case NullPointer:
		return "NullPointerException"
	case ClassCast:
		return "ClassCastException"
	case MatchException:
		return "MatchException"
	case Thrown:
		return "Thrown"
	default:
		return "unknown"
	}
}

// Fault is an exception that escaped the called unit
type Fault struct {
	Kind      FaultKind
	Exception string // name given by a throw statement
	Msg       string
}

func (f *Fault) Error() string {
	name := f.Kind.String()
	if f.Kind == Thrown {
		name = f.Exception
	}
	if f.Msg == "" {
		return name
	}
	return name + ": " + f.Msg
}

func faultf(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Exception: kind.String(), Msg: fmt.Sprintf(format, args...)}
}

// ErrUnlowered is returned for units that still contain pattern matching
var ErrUnlowered = errors.New("unit still contains patterns")

// ErrStepLimit is returned when a call runs more loop iterations and switch
// dispatches than allowed
var ErrStepLimit = errors.New("step limit exceeded")

// Control flow travels up the Go call stack as errors until the statement
// it targets handles it.

type returnSignal struct{ v Value }

func (returnSignal) Error() string { return "return" }

type yieldSignal struct{ v Value }

func (yieldSignal) Error() string { return "yield" }

type breakSignal struct{ target ast.Target }

func (breakSignal) Error() string { return "break" }

type continueSignal struct{ target ast.Target }

func (continueSignal) Error() string { return "continue" }
