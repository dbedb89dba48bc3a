package dispatch

import (
	"sync"
	"testing"

	"github.com/nalgeon/be"

	"github.com/lhaig/matchlower/internal/types"
)

type intVal int64

func (intVal) RuntimeType() *types.Type { return types.Integer }
func (v intVal) ConstantValue() any     { return int64(v) }

type strVal string

func (strVal) RuntimeType() *types.Type { return types.String }
func (v strVal) ConstantValue() any     { return string(v) }

type objVal struct{ class *types.Type }

func (v objVal) RuntimeType() *types.Type { return v.class }

func mustSite(t *testing.T, cands ...Candidate) *Site {
	t.Helper()
	site, err := Bootstrap(SwitchSignature, cands)
	be.Err(t, err, nil)
	return site
}

func TestDispatchOrdering(t *testing.T) {
	site := mustSite(t,
		Candidate{Type: types.String},
		Candidate{Type: types.Number},
		Candidate{Type: types.Integer},
		Candidate{Type: types.Object},
	)

	tests := []struct {
		name  string
		value Value
		start int
		want  int
	}{
		{"string first", strVal("a"), 0, 0},
		{"integer shadowed by Number", intVal(1), 0, 1},
		{"integer from 2", intVal(1), 2, 2},
		{"integer from 3", intVal(1), 3, 3},
		{"past the end", intVal(1), 4, 4},
		{"null from 0", nil, 0, -1},
		{"null from 3", nil, 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := site.Dispatch(tt.value, tt.start)
			be.Err(t, err, nil)
			be.Equal(t, got, tt.want)
		})
	}
}

func TestDispatchNoMatch(t *testing.T) {
	shape := &types.Type{Name: "Shape", Kind: types.KindClass, Super: types.Object}
	site := mustSite(t, Candidate{Type: types.String}, Candidate{Type: types.Integer})
	got, err := site.Dispatch(objVal{shape}, 0)
	be.Err(t, err, nil)
	be.Equal(t, got, site.Len())
}

func TestDispatchPrimitiveCandidateBoxes(t *testing.T) {
	site := mustSite(t, Candidate{Type: types.Int})
	got, err := site.Dispatch(intVal(5), 0)
	be.Err(t, err, nil)
	be.Equal(t, got, 0)
}

func TestDispatchConstants(t *testing.T) {
	site := mustSite(t,
		Candidate{Const: "a"},
		Candidate{Const: int64(1)},
		Candidate{Type: types.String},
	)
	got, _ := site.Dispatch(strVal("a"), 0)
	be.Equal(t, got, 0)
	got, _ = site.Dispatch(strVal("b"), 0)
	be.Equal(t, got, 2)
	got, _ = site.Dispatch(intVal(1), 0)
	be.Equal(t, got, 1)
	got, _ = site.Dispatch(intVal(2), 0)
	be.Equal(t, got, 3)
	// a string "1" never equals the int constant 1
	got, _ = site.Dispatch(strVal("1"), 1)
	be.Equal(t, got, 2)
}

func TestRetryMonotonic(t *testing.T) {
	site := mustSite(t,
		Candidate{Type: types.Integer},
		Candidate{Type: types.Integer},
		Candidate{Type: types.Object},
		Candidate{Type: types.Integer},
	)
	prev := -1
	for start := 0; start <= site.Len(); start++ {
		got, err := site.Dispatch(intVal(7), start)
		be.Err(t, err, nil)
		be.True(t, got >= start)
		be.True(t, got >= prev)
		prev = got
	}
}

func TestDispatchStartOutOfRange(t *testing.T) {
	site := mustSite(t, Candidate{Type: types.String})
	_, err := site.Dispatch(strVal("x"), 2)
	be.Err(t, err, ErrStartIndex)
	_, err = site.Dispatch(strVal("x"), -1)
	be.Err(t, err, ErrStartIndex)
}

func TestBootstrapRejectsNullCandidate(t *testing.T) {
	_, err := Bootstrap(SwitchSignature, []Candidate{{Type: types.String}, {}})
	be.Err(t, err, ErrInvalidCandidates)
}

func TestBootstrapRejectsSignature(t *testing.T) {
	bad := []Signature{
		{Params: []*types.Type{types.Object}, Result: types.Int},
		{Params: []*types.Type{types.Int, types.Int}, Result: types.Int},
		{Params: []*types.Type{types.Object, types.Int}, Result: types.Object},
	}
	for _, sig := range bad {
		_, err := Bootstrap(sig, []Candidate{{Type: types.String}})
		be.Err(t, err, ErrInvalidCandidates)
	}
}

func TestCallSiteFailsAtFirstUse(t *testing.T) {
	cs := NewCallSite(SwitchSignature, []Candidate{{}})
	_, err := cs.Invoke(strVal("x"), 0)
	be.Err(t, err, ErrInvalidCandidates)
	// the failure is sticky and does not depend on the arguments
	_, err = cs.Invoke(nil, 0)
	be.Err(t, err, ErrInvalidCandidates)
}

func TestCallSiteConcurrentInvoke(t *testing.T) {
	cs := NewCallSite(SwitchSignature, []Candidate{{Type: types.String}, {Type: types.Integer}})
	var wg sync.WaitGroup
	results := make([]int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := cs.Invoke(intVal(int64(i)), 0)
			if err != nil {
				got = -2
			}
			results[i] = got
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if got != 1 {
			t.Errorf("invocation %d = %d, want 1", i, got)
		}
	}
}

type enumVal struct {
	enum *types.Type
	name string
}

func (v enumVal) RuntimeType() *types.Type { return v.enum }
func (v enumVal) ConstantValue() any       { return v.name }

func TestDispatchEnumConstants(t *testing.T) {
	color := &types.Type{Name: "Color", Kind: types.KindEnum, Super: types.Object, Constants: []string{"RED", "GREEN"}}
	site := mustSite(t,
		Candidate{Type: color, Const: "GREEN"},
		Candidate{Type: color},
	)
	got, _ := site.Dispatch(enumVal{color, "GREEN"}, 0)
	be.Equal(t, got, 0)
	got, _ = site.Dispatch(enumVal{color, "RED"}, 0)
	be.Equal(t, got, 1)
	// the constant name alone does not match a string
	got, _ = site.Dispatch(strVal("GREEN"), 0)
	be.Equal(t, got, 2)
	be.Equal(t, site.Candidates()[0].String(), "Color.GREEN")

	// nor does a string candidate match the enum constant of that name
	strSite := mustSite(t, Candidate{Const: "GREEN"})
	got, _ = strSite.Dispatch(enumVal{color, "GREEN"}, 0)
	be.Equal(t, got, 1)
	got, _ = strSite.Dispatch(strVal("GREEN"), 0)
	be.Equal(t, got, 0)
}
