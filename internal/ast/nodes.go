package ast

import (
	"fmt"

	"github.com/lhaig/matchlower/internal/types"
)

// Pos is a source position used for diagnostics
type Pos struct {
	Line   int
	Column int
}

// File holds every unit read from one source, plus the types they share.
type File struct {
	Name     string
	Universe *types.Universe
	Funcs    []*Func
}

// Func is one top-level declaration: the unit the lowering pass works on.
type Func struct {
	Name   string
	Params []*Symbol
	Result *types.Type
	Body   *Block
	Arena  *Arena
	Pos    Pos
}

// Lookup finds a unit by name
func (f *File) Lookup(name string) *Func {
	for _, fn := range f.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// --- Statements ---

// Stmt is the interface for all statement nodes.
type Stmt interface {
	stmtNode()
}

// Target is a statement or expression a break or continue can name.
type Target interface {
	targetNode()
	LabelName() string
}

// Block is a braced statement sequence and a lexical scope.
type Block struct {
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// VarDecl declares a local. Init is nil for an uninitialized declaration.
type VarDecl struct {
	Sym  *Symbol
	Init Expr
}

func (*VarDecl) stmtNode() {}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	X Expr
}

func (*ExprStmt) stmtNode() {}

// If represents an if/else statement. Else is nil when absent.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

func (*If) stmtNode() {}

// While represents a while loop.
type While struct {
	Label string
	Cond  Expr
	Body  Stmt
}

func (*While) stmtNode()           {}
func (*While) targetNode()         {}
func (s *While) LabelName() string { return s.Label }

// DoWhile represents a do/while loop.
type DoWhile struct {
	Label string
	Body  Stmt
	Cond  Expr
}

func (*DoWhile) stmtNode()           {}
func (*DoWhile) targetNode()         {}
func (s *DoWhile) LabelName() string { return s.Label }

// For represents a three-clause loop. Init, Cond and Step may be nil.
type For struct {
	Label string
	Init  Stmt
	Cond  Expr
	Step  Expr
	Body  Stmt
}

func (*For) stmtNode()           {}
func (*For) targetNode()         {}
func (s *For) LabelName() string { return s.Label }

// Switch is the statement form of a multi-way branch.
type Switch struct {
	Label      string
	Selector   Expr
	Cases      []*Case
	Exhaustive bool
	Pos        Pos
}

func (*Switch) stmtNode()           {}
func (*Switch) targetNode()         {}
func (s *Switch) LabelName() string { return s.Label }

// Case is one arm of a switch. Rule cases (`->`) never fall through into
// the next case; statement groups do unless their body ends abruptly.
type Case struct {
	Labels []Label
	Body   []Stmt
	Rule   bool
	Pos    Pos
}

// Return represents a return statement. Value is nil for a bare return.
type Return struct {
	Value Expr
}

func (*Return) stmtNode() {}

// Yield produces the value of the innermost switch expression.
type Yield struct {
	Value Expr
}

func (*Yield) stmtNode() {}

// Break leaves Target, or the innermost loop or switch when Target is nil.
type Break struct {
	Target Target
}

func (*Break) stmtNode() {}

// Continue restarts Target, or the innermost loop when Target is nil. A
// continue naming a switch re-evaluates its selector.
type Continue struct {
	Target Target
}

func (*Continue) stmtNode() {}

// Throw raises an exception of the named class.
type Throw struct {
	Exception string
	Message   string
}

func (*Throw) stmtNode() {}

// --- Case labels ---

// Label is the interface for case labels.
type Label interface {
	labelNode()
}

// PatternLabel matches when its pattern matches the selector.
type PatternLabel struct {
	Pattern Pattern
}

// ConstLabel matches a selector equal to a constant (Literal or EnumConst).
type ConstLabel struct {
	Value Expr
}

// NullLabel matches a null selector.
type NullLabel struct{}

// DefaultLabel matches anything no other label matched.
type DefaultLabel struct{}

// IntLabel is the lowered form of a label: an ordinal produced by the
// dispatch helper (or -1 for null).
type IntLabel struct {
	Value int
}

func (*PatternLabel) labelNode() {}
func (*ConstLabel) labelNode()   {}
func (*NullLabel) labelNode()    {}
func (*DefaultLabel) labelNode() {}
func (*IntLabel) labelNode()     {}

// --- Patterns ---

// Pattern is the interface for pattern nodes.
type Pattern interface {
	patternNode()
}

// BindingPattern tests the subject against Var.Type and binds Var to it.
type BindingPattern struct {
	Var      *Symbol
	Nullable bool
	Pos      Pos
}

// GuardPattern matches when Inner matches and Guard evaluates to true.
type GuardPattern struct {
	Inner Pattern
	Guard Expr
}

// AndPattern matches when both sides match the same subject.
type AndPattern struct {
	Left  Pattern
	Right Pattern
}

// ParenPattern is a parenthesized pattern.
type ParenPattern struct {
	Inner Pattern
}

func (*BindingPattern) patternNode() {}
func (*GuardPattern) patternNode()   {}
func (*AndPattern) patternNode()     {}
func (*ParenPattern) patternNode()   {}

// --- Expressions ---

// Expr is the interface for all expression nodes.
type Expr interface {
	ExprType() *types.Type
	exprNode()
}

// Op is an operator of a unary or binary expression
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpAnd Op = "&&"
	OpOr  Op = "||"
	OpNot Op = "!"
	OpNeg Op = "neg"
)

// IsShortCircuit reports whether the right operand may be skipped
func (op Op) IsShortCircuit() bool {
	return op == OpAnd || op == OpOr
}

// Ident references a symbol.
type Ident struct {
	Sym *Symbol
}

func (e *Ident) ExprType() *types.Type { return e.Sym.Type }
func (*Ident) exprNode()               {}

// Literal is an int64, string or bool constant, or null when Value is nil.
type Literal struct {
	Value any
	Type  *types.Type
}

func (e *Literal) ExprType() *types.Type { return e.Type }
func (*Literal) exprNode()               {}

// EnumConst references a constant of an enum type.
type EnumConst struct {
	Type *types.Type
	Name string
}

func (e *EnumConst) ExprType() *types.Type { return e.Type }
func (*EnumConst) exprNode()               {}

// Binary represents a binary operation.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
	Type  *types.Type
}

func (e *Binary) ExprType() *types.Type { return e.Type }
func (*Binary) exprNode()               {}

// Unary represents a unary operation.
type Unary struct {
	Op   Op
	X    Expr
	Type *types.Type
}

func (e *Unary) ExprType() *types.Type { return e.Type }
func (*Unary) exprNode()               {}

// Conditional represents cond ? then : else.
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
	Type *types.Type
}

func (e *Conditional) ExprType() *types.Type { return e.Type }
func (*Conditional) exprNode()               {}

// Assign stores Value into Target and yields the stored value.
type Assign struct {
	Target *Symbol
	Value  Expr
}

func (e *Assign) ExprType() *types.Type { return e.Target.Type }
func (*Assign) exprNode()               {}

// Cast converts X to Type, failing at run time when X is not an instance.
type Cast struct {
	Type *types.Type
	X    Expr
}

func (e *Cast) ExprType() *types.Type { return e.Type }
func (*Cast) exprNode()               {}

// TypeTest is the primitive `X instanceof Target` with no binding.
type TypeTest struct {
	X      Expr
	Target *types.Type
}

func (e *TypeTest) ExprType() *types.Type { return types.Bool }
func (*TypeTest) exprNode()               {}

// InstanceOf is `X is Pattern`, the refinement test the lowering removes.
type InstanceOf struct {
	X       Expr
	Pattern Pattern
	Pos     Pos
}

func (e *InstanceOf) ExprType() *types.Type { return types.Bool }
func (*InstanceOf) exprNode()               {}

// Call invokes a builtin or another unit of the file by name.
type Call struct {
	Fn   string
	Args []Expr
	Type *types.Type
}

func (e *Call) ExprType() *types.Type { return e.Type }
func (*Call) exprNode()               {}

// Lambda is an anonymous function closing over its environment.
type Lambda struct {
	Params []*Symbol
	Result *types.Type
	Body   *Block
}

func (e *Lambda) ExprType() *types.Type { return types.Function }
func (*Lambda) exprNode()               {}

// Apply calls a function value.
type Apply struct {
	Fn   Expr
	Args []Expr
	Type *types.Type
}

func (e *Apply) ExprType() *types.Type { return e.Type }
func (*Apply) exprNode()               {}

// New allocates an instance of a class.
type New struct {
	Type *types.Type
}

func (e *New) ExprType() *types.Type { return e.Type }
func (*New) exprNode()               {}

// LetExpr runs Init in a fresh scope, then evaluates Body inside it.
type LetExpr struct {
	Init []Stmt
	Body Expr
}

func (e *LetExpr) ExprType() *types.Type { return e.Body.ExprType() }
func (*LetExpr) exprNode()               {}

// SwitchExpr is the expression form of a multi-way branch. It is always
// exhaustive.
type SwitchExpr struct {
	Label    string
	Selector Expr
	Cases    []*Case
	Type     *types.Type
	Pos      Pos
}

func (e *SwitchExpr) ExprType() *types.Type { return e.Type }
func (*SwitchExpr) exprNode()               {}
func (*SwitchExpr) targetNode()             {}
func (e *SwitchExpr) LabelName() string     { return e.Label }

// NullCheck yields X, faulting when it is null.
type NullCheck struct {
	X Expr
}

func (e *NullCheck) ExprType() *types.Type { return e.X.ExprType() }
func (*NullCheck) exprNode()               {}

// Ordinal yields the declaration index of an enum value.
type Ordinal struct {
	X Expr
}

func (e *Ordinal) ExprType() *types.Type { return types.Int }
func (*Ordinal) exprNode()               {}

// Candidate is one entry of a dispatch descriptor: a type, a constant when
// Type is nil, or an enum constant when both are set.
type Candidate struct {
	Type  *types.Type
	Value any
}

// String renders the candidate as it appears in tree notation
func (c Candidate) String() string {
	switch {
	case c.Type != nil && c.Value != nil:
		return fmt.Sprintf("%s.%v", c.Type.Name, c.Value)
	case c.Type != nil:
		return c.Type.String()
	default:
		return FormatConstant(c.Value)
	}
}

// Dispatch calls the ordered type-dispatch helper linked for Candidates.
type Dispatch struct {
	Candidates []Candidate
	Value      Expr
	Start      Expr
}

func (e *Dispatch) ExprType() *types.Type { return types.Int }
func (*Dispatch) exprNode()               {}

// Helpers for building typed nodes.

// IntLit creates an int literal
func IntLit(v int) *Literal {
	return &Literal{Value: int64(v), Type: types.Int}
}

// BoolLit creates a boolean literal
func BoolLit(v bool) *Literal {
	return &Literal{Value: v, Type: types.Bool}
}

// NullLit creates the null literal
func NullLit() *Literal {
	return &Literal{Value: nil, Type: types.Null}
}

// StringLit creates a string literal
func StringLit(s string) *Literal {
	return &Literal{Value: s, Type: types.String}
}

// And builds a short-circuit conjunction
func And(l, r Expr) *Binary {
	return &Binary{Op: OpAnd, Left: l, Right: r, Type: types.Bool}
}

// Or builds a short-circuit disjunction
func Or(l, r Expr) *Binary {
	return &Binary{Op: OpOr, Left: l, Right: r, Type: types.Bool}
}

// Not builds a logical negation
func Not(x Expr) *Unary {
	return &Unary{Op: OpNot, X: x, Type: types.Bool}
}

// Eq builds an equality comparison
func Eq(l, r Expr) *Binary {
	return &Binary{Op: OpEq, Left: l, Right: r, Type: types.Bool}
}

// Bindings returns the binding symbols declared by a pattern, left to right
func Bindings(p Pattern) []*Symbol {
	switch p := p.(type) {
	case *BindingPattern:
		return []*Symbol{p.Var}
	case *GuardPattern:
		return Bindings(p.Inner)
	case *AndPattern:
		return append(Bindings(p.Left), Bindings(p.Right)...)
	case *ParenPattern:
		return Bindings(p.Inner)
	}
	return nil
}

// PrimaryType returns the type tested by the leftmost binding of a pattern
func PrimaryType(p Pattern) *types.Type {
	if bs := Bindings(p); len(bs) > 0 {
		return bs[0].Type
	}
	return nil
}

// IsUnconditional reports whether a pattern matches every instance of its
// primary type: a binding with no guard and no further conjuncts.
func IsUnconditional(p Pattern) bool {
	switch p := p.(type) {
	case *BindingPattern:
		return true
	case *ParenPattern:
		return IsUnconditional(p.Inner)
	}
	return false
}
