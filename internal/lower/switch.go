package lower

import (
	"fmt"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/types"
)

// MatchException is the exception raised by an exhaustive switch that
// matched no case.
const MatchException = "MatchException"

// branchSite describes one switch being lowered
type branchSite struct {
	selector   ast.Expr // already lowered
	selType    *types.Type
	cases      []*ast.Case
	node       ast.Target // the replacement switch, target of retries
	label      string
	isExpr     bool
	exhaustive bool
	pos        ast.Pos
}

// loweredBranch is the replacement of a switch: temporaries to declare
// before it, its discriminant and its rewritten cases.
type loweredBranch struct {
	label        string
	decls        []ast.Stmt
	discriminant ast.Expr
	cases        []*ast.Case
}

// caseShape is what label analysis learned about one merged case
type caseShape struct {
	c       *ast.Case
	labels  []ast.Label // rewritten labels
	pattern ast.Pattern // the case's only pattern, widened to null if listed with null
	ordinal int         // dispatch index of pattern

	// fallsInto is set when the previous case can complete normally
	fallsInto bool

	// bad holds the patterns of a case whose labels cannot be lowered; their
	// bindings are declared but never assigned.
	bad []ast.Pattern

	// dropped is set when a label was reported unreachable and removed. A
	// case left without labels is not emitted.
	dropped bool
}

// needsLowering reports whether a switch has to go through the dispatch
// helper: some label is a pattern or null, or the selector can only be
// matched by type.
func needsLowering(cases []*ast.Case, selType *types.Type) bool {
	for _, c := range cases {
		for _, lb := range c.Labels {
			switch lb.(type) {
			case *ast.PatternLabel, *ast.NullLabel:
				return true
			case *ast.ConstLabel:
				if typeTestSelector(selType) {
					return true
				}
			}
		}
	}
	return false
}

// typeTestSelector reports whether constant labels on selType cannot be
// compared directly by the runtime
func typeTestSelector(t *types.Type) bool {
	if t == nil || t.IsPrimitive() || t.IsEnum() {
		return false
	}
	return !t.Equal(types.String) && !t.Equal(types.Integer) && !t.Equal(types.Boolean)
}

func (l *lowerer) lowerSwitch(fr *frame, s *ast.Switch) ast.Stmt {
	n := &ast.Switch{Label: s.Label, Exhaustive: s.Exhaustive, Pos: s.Pos}
	l.targets[s] = n
	sel := l.lowerExpr(fr, s.Selector)
	if !needsLowering(s.Cases, s.Selector.ExprType()) {
		n.Selector = sel
		n.Cases = l.lowerPlainCases(fr, s.Cases)
		return n
	}
	b := l.lowerBranch(fr, branchSite{
		selector:   sel,
		selType:    s.Selector.ExprType(),
		cases:      s.Cases,
		node:       n,
		label:      s.Label,
		exhaustive: s.Exhaustive || l.opts.ExhaustiveStatements,
		pos:        s.Pos,
	})
	n.Label = b.label
	n.Selector = b.discriminant
	n.Cases = b.cases
	return &ast.Block{Stmts: append(b.decls, n)}
}

func (l *lowerer) lowerSwitchExpr(fr *frame, e *ast.SwitchExpr) ast.Expr {
	n := &ast.SwitchExpr{Label: e.Label, Type: e.Type, Pos: e.Pos}
	l.targets[e] = n
	sel := l.lowerExpr(fr, e.Selector)
	if !needsLowering(e.Cases, e.Selector.ExprType()) {
		n.Selector = sel
		n.Cases = l.lowerPlainCases(fr, e.Cases)
		return n
	}
	b := l.lowerBranch(fr, branchSite{
		selector:   sel,
		selType:    e.Selector.ExprType(),
		cases:      e.Cases,
		node:       n,
		label:      e.Label,
		isExpr:     true,
		exhaustive: true,
		pos:        e.Pos,
	})
	n.Label = b.label
	n.Selector = b.discriminant
	n.Cases = b.cases
	return &ast.LetExpr{Init: b.decls, Body: n}
}

// lowerPlainCases lowers the bodies of a switch that keeps its labels
func (l *lowerer) lowerPlainCases(fr *frame, cases []*ast.Case) []*ast.Case {
	out := make([]*ast.Case, 0, len(cases))
	for _, c := range cases {
		body := make([]ast.Stmt, 0, len(c.Body))
		bf := fr.pushBlock(&body)
		for _, s := range c.Body {
			stmt := l.lowerStmt(bf, s)
			body = append(body, stmt)
		}
		out = append(out, &ast.Case{Labels: c.Labels, Body: body, Rule: c.Rule, Pos: c.Pos})
	}
	return out
}

// lowerBranch rewrites a switch with pattern or null labels.
//
// Enum selectors whose patterns all cover the enum switch on the constant's
// ordinal. Any other selector is copied to a temporary and switched on
// dispatch(temp, index); a case whose pattern test fails sets index past
// itself and continues the switch, which dispatches again from there.
func (l *lowerer) lowerBranch(fr *frame, site branchSite) *loweredBranch {
	if site.selType == nil {
		l.internalf("switch selector without a type at %d:%d", site.pos.Line, site.pos.Column)
	}
	cases := mergeEmptyCases(site.cases)
	enumPath := site.selType.IsEnum() && enumPatternsTotal(cases, site.selType)
	shapes, cands, hasNull, hasDefault := l.classify(cases, site.selType, enumPath)

	out := &loweredBranch{label: site.label}
	temp := l.arena.Synthetic("selector", subjectType(site.selType))
	selInit := site.selector
	if !hasNull {
		selInit = &ast.NullCheck{X: selInit}
	}
	out.decls = append(out.decls, &ast.VarDecl{Sym: temp, Init: selInit})

	var index *ast.Symbol
	if enumPath {
		var disc ast.Expr = &ast.Ordinal{X: &ast.Ident{Sym: temp}}
		if hasNull {
			disc = &ast.Conditional{
				Cond: ast.Eq(&ast.Ident{Sym: temp}, ast.NullLit()),
				Then: ast.IntLit(-1),
				Else: disc,
				Type: types.Int,
			}
		}
		out.discriminant = disc
	} else {
		index = l.arena.Synthetic("index", types.Int)
		out.decls = append(out.decls, &ast.VarDecl{Sym: index, Init: ast.IntLit(0)})
		out.discriminant = &ast.Dispatch{
			Candidates: cands,
			Value:      &ast.Ident{Sym: temp},
			Start:      &ast.Ident{Sym: index},
		}
	}

	if out.label == "" && needsRetry(shapes) {
		out.label = l.arena.Label("switch")
	}

	for _, sh := range shapes {
		if sh.dropped && len(sh.labels) == 0 {
			continue
		}
		cf := fr.push(caseFrame)
		var body []ast.Stmt
		switch {
		case sh.bad != nil:
			for _, p := range sh.bad {
				for _, b := range ast.Bindings(p) {
					cf.declareBinding(b)
				}
			}
			body = cf.declarations()
		case sh.pattern != nil && !sh.fallsInto:
			body = l.bindCase(cf, sh, temp, index, site.node)
		}
		bf := cf.pushBlock(&body)
		for _, s := range sh.c.Body {
			stmt := l.lowerStmt(bf, s)
			body = append(body, stmt)
		}
		if !site.isExpr && sh.c.Rule && completesNormally(sh.c.Body) {
			body = append(body, &ast.Break{Target: site.node})
		}
		out.cases = append(out.cases, &ast.Case{Labels: sh.labels, Body: body, Pos: sh.c.Pos})
	}

	if site.exhaustive && !hasDefault {
		if n := len(out.cases); n > 0 && !site.isExpr && completesNormally(out.cases[n-1].Body) {
			last := out.cases[n-1]
			last.Body = append(last.Body, &ast.Break{Target: site.node})
		}
		out.cases = append(out.cases, &ast.Case{
			Labels: []ast.Label{&ast.DefaultLabel{}},
			Body:   []ast.Stmt{&ast.Throw{Exception: MatchException, Message: "no case matched"}},
			Pos:    site.pos,
		})
	}
	return out
}

// bindCase returns the statements opening a pattern case: the binding
// declarations and, unless the pattern always matches what dispatch
// selected, the retry on a failed test.
func (l *lowerer) bindCase(cf *frame, sh *caseShape, temp, index *ast.Symbol, sw ast.Target) []ast.Stmt {
	if ast.IsUnconditional(sh.pattern) {
		b := ast.Bindings(sh.pattern)[0]
		v := cf.declareBinding(b)
		return []ast.Stmt{&ast.VarDecl{Sym: v, Init: &ast.Cast{Type: b.Type, X: &ast.Ident{Sym: temp}}}}
	}
	if index == nil {
		l.internalf("conditional pattern in a switch without a dispatch index")
	}
	test := l.lowerPattern(cf, temp, sh.pattern)
	retry := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.Assign{Target: index, Value: ast.IntLit(sh.ordinal + 1)}},
		&ast.Continue{Target: sw},
	}}
	return append(cf.declarations(), &ast.If{Cond: ast.Not(test), Then: retry})
}

// classify rewrites every label, builds the dispatch candidates and reports
// unreachable or ill-formed cases.
func (l *lowerer) classify(cases []*ast.Case, selType *types.Type, enumPath bool) (shapes []*caseShape, cands []ast.Candidate, hasNull, hasDefault bool) {
	var unconditional []*types.Type
	prevCompletes := false
	// on the enum path the first unconditional pattern takes the default label
	var defaultPattern *types.Type

	dominator := func(t *types.Type) *types.Type {
		for _, u := range unconditional {
			if u.IsAssignableFrom(t) {
				return u
			}
		}
		return nil
	}

	for _, c := range cases {
		sh := &caseShape{c: c, ordinal: -1, fallsInto: prevCompletes}
		var patterns []ast.Pattern
		caseNull, caseDefault, consts := false, false, 0

		for _, lb := range c.Labels {
			switch lb := lb.(type) {
			case *ast.PatternLabel:
				pt := ast.PrimaryType(lb.Pattern)
				if pt == nil {
					l.internalf("pattern without a binding at %d:%d", c.Pos.Line, c.Pos.Column)
				}
				duplicate := ast.IsUnconditional(lb.Pattern) && seenType(unconditional, pt)
				if duplicate {
					l.diags.ErrorWithHint(c.Pos.Line, c.Pos.Column,
						"duplicate unconditional pattern "+pt.String(), "remove the later case")
				} else if u := dominator(pt); u != nil {
					l.diags.WarningWithHint(c.Pos.Line, c.Pos.Column,
						fmt.Sprintf("pattern %s is dominated by an earlier pattern %s", pt, u),
						"move the case before the one matching "+u.String())
				}
				if ast.IsUnconditional(lb.Pattern) {
					unconditional = append(unconditional, pt)
				}
				patterns = append(patterns, lb.Pattern)
				if enumPath {
					if hasDefault {
						if !duplicate {
							l.diags.ErrorWithHint(c.Pos.Line, c.Pos.Column,
								fmt.Sprintf("pattern %s is dominated by a preceding default label", pt),
								"move the case before the default")
						}
						sh.dropped = true
						continue
					}
					hasDefault, defaultPattern = true, pt
					sh.labels = append(sh.labels, &ast.DefaultLabel{})
					continue
				}
				ord := len(cands)
				cands = append(cands, ast.Candidate{Type: pt.Box()})
				if sh.ordinal < 0 {
					sh.ordinal = ord
				}
				sh.labels = append(sh.labels, &ast.IntLabel{Value: ord})
			case *ast.ConstLabel:
				consts++
				if t := lb.Value.ExprType(); t != nil {
					if u := dominator(t.Box()); u != nil {
						l.diags.Warningf(c.Pos.Line, c.Pos.Column, "constant label %s is dominated by an earlier pattern %s",
							ast.Print(lb.Value), u)
					}
				}
				if enumPath {
					sh.labels = append(sh.labels, &ast.IntLabel{Value: l.enumOrdinal(lb, selType)})
					continue
				}
				sh.labels = append(sh.labels, &ast.IntLabel{Value: len(cands)})
				cands = append(cands, l.constCandidate(lb))
			case *ast.NullLabel:
				caseNull, hasNull = true, true
				sh.labels = append(sh.labels, &ast.IntLabel{Value: -1})
			case *ast.DefaultLabel:
				caseDefault = true
				if hasDefault {
					if defaultPattern != nil {
						l.diags.ErrorWithHint(c.Pos.Line, c.Pos.Column,
							fmt.Sprintf("default label is unreachable; an earlier pattern covers %s", defaultPattern),
							"remove the default label")
					} else {
						l.diags.Errorf(c.Pos.Line, c.Pos.Column, "duplicate default label")
					}
					sh.dropped = true
					continue
				}
				if dominator(selType.Box()) != nil {
					l.diags.WarningWithHint(c.Pos.Line, c.Pos.Column,
						fmt.Sprintf("default label is unreachable; an earlier pattern covers %s", selType),
						"remove the default label")
				}
				hasDefault = true
				sh.labels = append(sh.labels, &ast.DefaultLabel{})
			case *ast.IntLabel:
				l.internalf("label #%d at %d:%d is not owned by this switch", lb.Value, c.Pos.Line, c.Pos.Column)
			default:
				l.internalf("unknown case label %T", lb)
			}
		}

		switch {
		case len(patterns) > 1:
			l.diags.Errorf(c.Pos.Line, c.Pos.Column, "a case cannot list more than one pattern")
			sh.bad = patterns
		case len(patterns) == 1 && (consts > 0 || caseDefault):
			l.diags.Errorf(c.Pos.Line, c.Pos.Column, "a case cannot combine a pattern with constants or default")
			sh.bad = patterns
		case len(patterns) == 1 && sh.fallsInto && len(ast.Bindings(patterns[0])) > 0:
			l.diags.Errorf(c.Pos.Line, c.Pos.Column, "cannot fall through to a pattern that declares bindings")
			sh.bad = patterns
		case len(patterns) == 1 && caseNull:
			if !ast.IsUnconditional(patterns[0]) {
				l.diags.Errorf(c.Pos.Line, c.Pos.Column, "a guarded pattern cannot share a case with null")
				sh.bad = patterns
				break
			}
			sh.pattern = nullable(patterns[0])
		case len(patterns) == 1:
			sh.pattern = patterns[0]
		}

		shapes = append(shapes, sh)
		prevCompletes = !c.Rule && completesNormally(c.Body)
	}
	return shapes, cands, hasNull, hasDefault
}

func seenType(ts []*types.Type, t *types.Type) bool {
	for _, u := range ts {
		if u.Equal(t) {
			return true
		}
	}
	return false
}

// needsRetry reports whether some case re-dispatches on a failed test
func needsRetry(shapes []*caseShape) bool {
	for _, sh := range shapes {
		if sh.pattern != nil && sh.bad == nil && !sh.fallsInto && !ast.IsUnconditional(sh.pattern) {
			return true
		}
	}
	return false
}

// enumPatternsTotal reports whether every pattern of an enum switch matches
// every constant, so patterns can become the default label.
func enumPatternsTotal(cases []*ast.Case, enum *types.Type) bool {
	for _, c := range cases {
		for _, lb := range c.Labels {
			pl, ok := lb.(*ast.PatternLabel)
			if !ok {
				continue
			}
			if !ast.IsUnconditional(pl.Pattern) || !ast.PrimaryType(pl.Pattern).IsAssignableFrom(enum) {
				return false
			}
		}
	}
	return true
}

func (l *lowerer) enumOrdinal(lb *ast.ConstLabel, enum *types.Type) int {
	ec, ok := lb.Value.(*ast.EnumConst)
	if !ok || !ec.Type.Equal(enum) {
		l.internalf("label %s is not a constant of %s", ast.Print(lb.Value), enum)
	}
	ord := enum.Ordinal(ec.Name)
	if ord < 0 {
		l.internalf("%s has no constant %s", enum, ec.Name)
	}
	return ord
}

func (l *lowerer) constCandidate(lb *ast.ConstLabel) ast.Candidate {
	switch v := lb.Value.(type) {
	case *ast.Literal:
		if v.Value == nil {
			l.internalf("null literal used as a constant label")
		}
		return ast.Candidate{Value: v.Value}
	case *ast.EnumConst:
		return ast.Candidate{Type: v.Type, Value: v.Name}
	}
	l.internalf("constant label %T is not a literal", lb.Value)
	return ast.Candidate{}
}

// mergeEmptyCases folds every case with an empty body into the case after
// it, so `case a: case b: body` becomes `case a, b: body`.
func mergeEmptyCases(cases []*ast.Case) []*ast.Case {
	out := make([]*ast.Case, 0, len(cases))
	var pending []ast.Label
	var pendingPos *ast.Pos
	for i, c := range cases {
		if len(c.Body) == 0 && i < len(cases)-1 {
			pending = append(pending, c.Labels...)
			if pendingPos == nil {
				pos := c.Pos
				pendingPos = &pos
			}
			continue
		}
		merged := &ast.Case{
			Labels: append(append([]ast.Label(nil), pending...), c.Labels...),
			Body:   c.Body,
			Rule:   c.Rule,
			Pos:    c.Pos,
		}
		if pendingPos != nil {
			merged.Pos = *pendingPos
		}
		out = append(out, merged)
		pending, pendingPos = nil, nil
	}
	return out
}
