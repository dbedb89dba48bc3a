package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/config"
	"github.com/lhaig/matchlower/internal/diagnostic"
	"github.com/lhaig/matchlower/internal/interp"
	"github.com/lhaig/matchlower/internal/lower"
	"github.com/lhaig/matchlower/internal/sexpr"
)

// Result holds the output of a compilation
type Result struct {
	// File is the file as read; its units still contain patterns.
	File *ast.File
	// Funcs are the lowered units in declaration order. Nil when reading or
	// lowering reported errors.
	Funcs       []*ast.Func
	Diagnostics *diagnostic.Diagnostics
}

// Failed reports whether the result has error diagnostics
func (r *Result) Failed() bool {
	return r.Diagnostics != nil && r.Diagnostics.HasErrors()
}

// Tree returns the tree notation of the lowered units, separated by blank
// lines
func (r *Result) Tree() string {
	parts := make([]string, len(r.Funcs))
	for i, fn := range r.Funcs {
		parts[i] = ast.Print(fn)
	}
	return strings.Join(parts, "\n\n")
}

// Compile runs the full pipeline: read -> lower -> validate.
// Problems in the source are reported as diagnostics; the error is reserved
// for internal failures and cancellation.
func Compile(ctx context.Context, name, source string, cfg *config.Config, logger *log.Logger) (*Result, error) {
	file, diags := sexpr.Read(name, source)
	res := &Result{File: file, Diagnostics: diags}
	if diags.HasErrors() {
		return res, nil
	}

	funcs, lowerDiags, err := LowerFile(ctx, file, cfg, logger)
	if err != nil {
		return res, err
	}
	res.Diagnostics.Merge(lowerDiags)
	if !res.Failed() {
		res.Funcs = funcs
	}
	return res, nil
}

// Check runs read + lower and returns the diagnostics only.
func Check(ctx context.Context, name, source string, cfg *config.Config) (*diagnostic.Diagnostics, error) {
	res, err := Compile(ctx, name, source, cfg, nil)
	if err != nil {
		return nil, err
	}
	return res.Diagnostics, nil
}

// LowerFile lowers every unit of file, up to cfg.Concurrency at a time.
// Diagnostics are merged in declaration order whatever order the units
// finish in. The first internal error cancels the remaining units.
func LowerFile(ctx context.Context, file *ast.File, cfg *config.Config, logger *log.Logger) ([]*ast.Func, *diagnostic.Diagnostics, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	opts := lower.Options{ExhaustiveStatements: cfg.ExhaustiveStatements}

	results := make([]*lower.Result, len(file.Funcs))
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i, fn := range file.Funcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := lower.Lower(fn, file.Name, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", file.Name, err)
			}
			if cfg.ValidateOutput {
				if errs := lower.Validate(res.Func); len(errs) > 0 {
					return fmt.Errorf("%s: %w", file.Name, &lower.InternalError{Unit: fn.Name, Msg: strings.Join(errs, "; ")})
				}
			}
			if cfg.DebugPatterns {
				logger.Printf("lowered %s:\n%s", fn.Name, ast.Print(res.Func))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	diags := diagnostic.New()
	funcs := make([]*ast.Func, len(results))
	for i, res := range results {
		diags.Merge(res.Diagnostics)
		funcs[i] = res.Func
	}
	return funcs, diags, nil
}

// Run lowers source and evaluates one call written in tree notation, such
// as `(area (new Circle))`.
func Run(ctx context.Context, name, source, call string, cfg *config.Config, logger *log.Logger) (interp.Value, *Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	res, err := Compile(ctx, name, source, cfg, logger)
	if err != nil {
		return nil, res, err
	}
	if res.Failed() {
		return nil, res, ErrCompilation
	}
	in, err := interp.New(res.Funcs, interp.Options{MaxSteps: cfg.MaxSteps})
	if err != nil {
		return nil, res, err
	}
	fn, args, err := in.ParseCall(call, res.File.Universe)
	if err != nil {
		return nil, res, err
	}
	v, err := in.Call(ctx, fn, args...)
	return v, res, err
}

// ErrCompilation is returned by Run when the source has errors
var ErrCompilation = errors.New("compilation errors")
