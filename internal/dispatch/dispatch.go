// Package dispatch implements the ordered type-dispatch helper called by
// lowered switches: given a value and a start index it finds the first
// candidate, from that index on, which the value matches.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/lhaig/matchlower/internal/types"
)

// ErrInvalidCandidates is returned when a site is bootstrapped with a
// malformed candidate list or an unexpected call signature.
var ErrInvalidCandidates = errors.New("invalid candidate set")

// ErrStartIndex is returned when a start index lies outside [0, n].
var ErrStartIndex = errors.New("start index out of range")

// Value is a non-null runtime value the helper can classify.
type Value interface {
	RuntimeType() *types.Type
}

// Constant is implemented by values that can equal a constant candidate.
type Constant interface {
	Value
	ConstantValue() any
}

// Candidate is one entry of a dispatch descriptor. A candidate with a Type
// matches instances of that type; one with a Const matches values equal to
// it. Enum constants set both.
type Candidate struct {
	Type  *types.Type
	Const any
}

func (c Candidate) String() string {
	switch {
	case c.Type != nil && c.Const != nil:
		return fmt.Sprintf("%s.%v", c.Type, c.Const)
	case c.Type != nil:
		return c.Type.String()
	}
	return fmt.Sprintf("%#v", c.Const)
}

// Signature describes how a call site invokes the helper.
type Signature struct {
	Params []*types.Type
	Result *types.Type
}

// SwitchSignature is the only signature a site accepts: (Object, int) int.
var SwitchSignature = Signature{
	Params: []*types.Type{types.Object, types.Int},
	Result: types.Int,
}

func (s Signature) valid() bool {
	if len(s.Params) != 2 || !s.Params[0].IsReference() || !s.Params[1].Equal(types.Int) {
		return false
	}
	return s.Result.Equal(types.Int)
}

// Site is a bootstrapped helper for one candidate list. It is immutable and
// safe for concurrent use.
type Site struct {
	candidates []Candidate
}

// Bootstrap validates a candidate list against the calling signature.
func Bootstrap(sig Signature, candidates []Candidate) (*Site, error) {
	if !sig.valid() {
		return nil, fmt.Errorf("%w: bad invocation signature", ErrInvalidCandidates)
	}
	cs := make([]Candidate, len(candidates))
	for i, c := range candidates {
		if c.Type == nil && c.Const == nil {
			return nil, fmt.Errorf("%w: candidate %d is null", ErrInvalidCandidates, i)
		}
		switch c.Const.(type) {
		case nil, int64, string, bool:
		default:
			return nil, fmt.Errorf("%w: candidate %d has unsupported constant %T", ErrInvalidCandidates, i, c.Const)
		}
		cs[i] = c
	}
	return &Site{candidates: cs}, nil
}

// Len returns the number of candidates, which is also the no-match result.
func (s *Site) Len() int {
	return len(s.candidates)
}

// Candidates returns a copy of the candidate list
func (s *Site) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Dispatch returns -1 when v is null, else the smallest i >= start whose
// candidate matches v, else Len().
func (s *Site) Dispatch(v Value, start int) (int, error) {
	if start < 0 || start > len(s.candidates) {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrStartIndex, start, len(s.candidates))
	}
	if v == nil {
		return -1, nil
	}
	rt := v.RuntimeType()
	for i := start; i < len(s.candidates); i++ {
		if s.candidates[i].matches(v, rt) {
			return i, nil
		}
	}
	return len(s.candidates), nil
}

// matches tests v against the candidate. A bare constant only matches
// values of its own type, so the string "RED" never equals an enum constant
// named RED.
func (c Candidate) matches(v Value, rt *types.Type) bool {
	t := c.Type
	if t == nil {
		t = constType(c.Const)
	}
	if !t.Box().IsAssignableFrom(rt) {
		return false
	}
	if c.Const == nil {
		return true
	}
	k, ok := v.(Constant)
	return ok && k.ConstantValue() == c.Const
}

// constType is the runtime type of values a bare constant can equal
func constType(v any) *types.Type {
	switch v.(type) {
	case int64:
		return types.Integer
	case string:
		return types.String
	case bool:
		return types.Boolean
	}
	return types.Object
}
