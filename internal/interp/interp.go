// Package interp evaluates lowered units. It runs the output of the
// lowering pass directly, which makes it the reference for what a lowered
// tree means: type tests, casts, dispatch calls and switch retries behave
// here as the rest of the compiler expects them to.
package interp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/dispatch"
	"github.com/lhaig/matchlower/internal/types"
)

// Options bound a call
type Options struct {
	// MaxSteps caps loop iterations plus switch dispatches per call; zero
	// means DefaultMaxSteps.
	MaxSteps int
}

// DefaultMaxSteps is used when Options.MaxSteps is zero
const DefaultMaxSteps = 1_000_000

// Interpreter runs the units of one lowered file. It is safe for
// concurrent use; every call gets its own variables.
type Interpreter struct {
	funcs map[string]*ast.Func
	opts  Options

	mu    sync.Mutex
	sites map[*ast.Dispatch]*dispatch.CallSite

	dispatches atomic.Int64
	objects    atomic.Int64
}

// New prepares lowered units for execution. Units still holding pattern
// nodes are refused.
func New(funcs []*ast.Func, opts Options) (*Interpreter, error) {
	if opts.MaxSteps == 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	in := &Interpreter{
		funcs: make(map[string]*ast.Func, len(funcs)),
		opts:  opts,
		sites: make(map[*ast.Dispatch]*dispatch.CallSite),
	}
	for _, fn := range funcs {
		if ast.ContainsPatterns(fn) {
			return nil, fmt.Errorf("%s: %w", fn.Name, ErrUnlowered)
		}
		in.funcs[fn.Name] = fn
	}
	return in, nil
}

// Dispatches returns how many times the dispatch helper has been invoked
func (in *Interpreter) Dispatches() int64 {
	return in.dispatches.Load()
}

// NewObject allocates an instance of class
func (in *Interpreter) NewObject(class *types.Type) *Object {
	return &Object{Class: class, id: int(in.objects.Add(1))}
}

// Call runs the named unit. Exceptions escaping it are returned as *Fault.
func (in *Interpreter) Call(ctx context.Context, name string, args ...Value) (Value, error) {
	x := &exec{in: in, ctx: ctx}
	return x.call(name, args)
}

// site returns the linked call site of a dispatch node, creating it on
// first use
func (in *Interpreter) site(d *ast.Dispatch) *dispatch.CallSite {
	in.mu.Lock()
	defer in.mu.Unlock()
	cs, ok := in.sites[d]
	if !ok {
		cands := make([]dispatch.Candidate, len(d.Candidates))
		for i, c := range d.Candidates {
			cands[i] = dispatch.Candidate{Type: c.Type, Const: c.Value}
		}
		cs = dispatch.NewCallSite(dispatch.SwitchSignature, cands)
		in.sites[d] = cs
	}
	return cs
}

// env holds the variables of one scope
type env struct {
	vars   map[*ast.Symbol]Value
	parent *env
}

func newEnv(parent *env) *env {
	return &env{vars: make(map[*ast.Symbol]Value), parent: parent}
}

func (e *env) declare(sym *ast.Symbol, v Value) {
	e.vars[sym] = v
}

func (e *env) lookup(sym *ast.Symbol) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[sym]; ok {
			return v, true
		}
	}
	return nil, false
}

func (e *env) assign(sym *ast.Symbol, v Value) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[sym]; ok {
			s.vars[sym] = v
			return true
		}
	}
	return false
}

// exec is the state of one top-level call
type exec struct {
	in    *Interpreter
	ctx   context.Context
	steps int
}

// step counts one unit of work and checks for cancellation
func (x *exec) step() error {
	x.steps++
	if x.steps > x.in.opts.MaxSteps {
		return ErrStepLimit
	}
	if x.steps%1024 == 0 {
		return x.ctx.Err()
	}
	return nil
}

func (x *exec) call(name string, args []Value) (Value, error) {
	if err := x.ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok, err := callBuiltin(name, args); ok {
		return v, err
	}
	fn, ok := x.in.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", name)
	}
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, len(fn.Params), len(args))
	}
	e := newEnv(nil)
	for i, p := range fn.Params {
		e.declare(p, args[i])
	}
	return x.body(e, fn.Body)
}

// body runs a function or lambda body and collects its return value
func (x *exec) body(e *env, b *ast.Block) (Value, error) {
	err := x.block(e, b.Stmts)
	var ret returnSignal
	switch {
	case err == nil:
		return nil, nil
	case errors.As(err, &ret):
		return ret.v, nil
	case isSignal(err):
		return nil, fmt.Errorf("%s escaped its function", err)
	}
	return nil, err
}

func isSignal(err error) bool {
	switch err.(type) {
	case returnSignal, yieldSignal, breakSignal, continueSignal:
		return true
	}
	return false
}

func (x *exec) block(parent *env, stmts []ast.Stmt) error {
	e := newEnv(parent)
	for _, s := range stmts {
		if err := x.stmt(e, s); err != nil {
			return err
		}
	}
	return nil
}

func (x *exec) stmt(e *env, st ast.Stmt) error {
	switch s := st.(type) {
	case *ast.Block:
		return x.block(e, s.Stmts)
	case *ast.VarDecl:
		var v Value
		if s.Init != nil {
			var err error
			if v, err = x.expr(e, s.Init); err != nil {
				return err
			}
		}
		e.declare(s.Sym, v)
		return nil
	case *ast.ExprStmt:
		_, err := x.expr(e, s.X)
		return err
	case *ast.If:
		cond, err := x.cond(e, s.Cond)
		if err != nil {
			return err
		}
		if cond {
			return x.stmt(newEnv(e), s.Then)
		}
		if s.Else != nil {
			return x.stmt(newEnv(e), s.Else)
		}
		return nil
	case *ast.While:
		return x.loop(e, s, nil, s.Cond, nil, s.Body, false)
	case *ast.DoWhile:
		return x.loop(e, s, nil, s.Cond, nil, s.Body, true)
	case *ast.For:
		return x.loop(e, s, s.Init, s.Cond, s.Step, s.Body, false)
	case *ast.Switch:
		_, err := x.switchOn(e, s, s.Selector, s.Cases)
		return err
	case *ast.Return:
		var v Value
		if s.Value != nil {
			var err error
			if v, err = x.expr(e, s.Value); err != nil {
				return err
			}
		}
		return returnSignal{v: v}
	case *ast.Yield:
		v, err := x.expr(e, s.Value)
		if err != nil {
			return err
		}
		return yieldSignal{v: v}
	case *ast.Break:
		return breakSignal{target: s.Target}
	case *ast.Continue:
		return continueSignal{target: s.Target}
	case *ast.Throw:
		kind := Thrown
		if s.Exception == MatchException.String() {
			kind = MatchException
		}
		return &Fault{Kind: kind, Exception: s.Exception, Msg: s.Message}
	}
	return fmt.Errorf("unsupported statement %T", st)
}

// loop runs while, do-while and for loops. A break or continue without a
// target belongs to the innermost loop.
func (x *exec) loop(outer *env, target ast.Target, init ast.Stmt, cond, stepExpr ast.Expr, body ast.Stmt, bodyFirst bool) error {
	e := newEnv(outer)
	if init != nil {
		if err := x.stmt(e, init); err != nil {
			return err
		}
	}
	first := true
	for {
		if err := x.step(); err != nil {
			return err
		}
		if cond != nil && !(bodyFirst && first) {
			ok, err := x.cond(e, cond)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		first = false
		err := x.stmt(newEnv(e), body)
		switch sig := err.(type) {
		case nil:
		case breakSignal:
			if sig.target == nil || sig.target == target {
				return nil
			}
			return err
		case continueSignal:
			if sig.target != nil && sig.target != target {
				return err
			}
		default:
			return err
		}
		if stepExpr != nil {
			if _, err := x.expr(e, stepExpr); err != nil {
				return err
			}
		}
	}
}

// switchOn runs a switch statement or expression. A continue naming the
// switch evaluates the selector again; lowered switches use it to resume
// dispatch after a failed pattern test.
func (x *exec) switchOn(e *env, target ast.Target, selector ast.Expr, cases []*ast.Case) (Value, error) {
	_, isExpr := target.(*ast.SwitchExpr)
	for {
		if err := x.step(); err != nil {
			return nil, err
		}
		sel, err := x.expr(e, selector)
		if err != nil {
			return nil, err
		}
		start, err := x.selectCase(e, sel, cases)
		if err != nil {
			return nil, err
		}
		if start < 0 {
			if isExpr {
				return nil, faultf(MatchException, "no case matched %s", Format(sel))
			}
			return nil, nil
		}

		// cases share one scope; execution falls through until a jump
		scope := newEnv(e)
		err = nil
		for _, c := range cases[start:] {
			if err = x.stmts(scope, c.Body); err != nil {
				break
			}
		}
		switch sig := err.(type) {
		case nil:
			if isExpr {
				return nil, fmt.Errorf("switch expression completed without a value")
			}
			return nil, nil
		case yieldSignal:
			if isExpr {
				return sig.v, nil
			}
			return nil, err
		case breakSignal:
			if !isExpr && (sig.target == nil || sig.target == target) {
				return nil, nil
			}
			return nil, err
		case continueSignal:
			if sig.target == target {
				continue
			}
			return nil, err
		default:
			return nil, err
		}
	}
}

func (x *exec) stmts(e *env, stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := x.stmt(e, s); err != nil {
			return err
		}
	}
	return nil
}

// selectCase returns the index of the case whose label matches sel, the
// default case when none does, or -1
func (x *exec) selectCase(e *env, sel Value, cases []*ast.Case) (int, error) {
	def := -1
	for i, c := range cases {
		for _, lb := range c.Labels {
			switch lb := lb.(type) {
			case *ast.DefaultLabel:
				if def < 0 {
					def = i
				}
			case *ast.IntLabel:
				n, ok := sel.(Int)
				if !ok {
					return 0, fmt.Errorf("ordinal label on selector %s", Format(sel))
				}
				if int(n) == lb.Value {
					return i, nil
				}
			case *ast.ConstLabel:
				if sel == nil {
					return 0, faultf(NullPointer, "switch on null")
				}
				v, err := x.expr(e, lb.Value)
				if err != nil {
					return 0, err
				}
				if equal(sel, v) {
					return i, nil
				}
			default:
				return 0, fmt.Errorf("unsupported case label %T", lb)
			}
		}
	}
	return def, nil
}

// cond evaluates a boolean condition
func (x *exec) cond(e *env, c ast.Expr) (bool, error) {
	v, err := x.expr(e, c)
	if err != nil {
		return false, err
	}
	b, ok := v.(Bool)
	if !ok {
		if v == nil {
			return false, faultf(NullPointer, "null condition")
		}
		return false, fmt.Errorf("condition is %s, not boolean", Format(v))
	}
	return bool(b), nil
}
