package ast

import "github.com/hitoa/vclc/pkg/source"

// ============================================================================
// Literals and identifiers
// ============================================================================

// IntLiteral is an integer numeric constant.
type IntLiteral struct {
	Range source.Range
	Value int64
}

func (*IntLiteral) NodeKind() string { return "int-literal" }
func (*IntLiteral) isExpr()          {}

// FloatLiteral is a floating-point numeric constant.
type FloatLiteral struct {
	Range source.Range
	Value float64
}

func (*FloatLiteral) NodeKind() string { return "float-literal" }
func (*FloatLiteral) isExpr()          {}

// StringLiteral is a string constant (used only in directive-time
// contexts such as `@import "path"`, not as a runtime value kind).
type StringLiteral struct {
	Range source.Range
	Value string
}

func (*StringLiteral) NodeKind() string { return "string-literal" }
func (*StringLiteral) isExpr()          {}

// Identifier is a bare name resolved through the scope manager.
type Identifier struct {
	Range source.Range
	Name  string
}

func (*Identifier) NodeKind() string { return "identifier" }
func (*Identifier) isExpr()          {}

// ============================================================================
// Operators
// ============================================================================

// BinaryOp enumerates every binary operator kind.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpGt
	OpLt
	OpGe
	OpLe
	OpEq
	OpNe
)

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Range source.Range
	Op    BinaryOp
	LHS   Expr
	RHS   Expr
}

func (*BinaryExpr) NodeKind() string { return "binary" }
func (*BinaryExpr) isExpr()          {}

// UnaryOp enumerates the prefix-only unary operators (+ - !); ++/-- are
// modelled separately since they apply only to l-values and have both a
// prefix and postfix form.
type UnaryOp int

const (
	OpPlus UnaryOp = iota
	OpNeg
	OpNot
)

// UnaryExpr is a prefix +, -, or ! application.
type UnaryExpr struct {
	Range   source.Range
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) NodeKind() string { return "unary" }
func (*UnaryExpr) isExpr()          {}

// IncDecExpr is a ++/-- application, prefix or postfix, to a numeric l-value.
type IncDecExpr struct {
	Range   source.Range
	Inc     bool // true for ++, false for --
	Postfix bool
	Operand Expr
}

func (*IncDecExpr) NodeKind() string { return "incdec" }
func (*IncDecExpr) isExpr()          {}

// AssignExpr is `lhs = rhs`.
type AssignExpr struct {
	Range source.Range
	LHS   Expr
	RHS   Expr
}

func (*AssignExpr) NodeKind() string { return "assign" }
func (*AssignExpr) isExpr()          {}

// ============================================================================
// Postfix chain: member access, subscript, call
// ============================================================================

// FieldExpr is `e.field`.
type FieldExpr struct {
	Range source.Range
	Base  Expr
	Field string
}

func (*FieldExpr) NodeKind() string { return "field" }
func (*FieldExpr) isExpr()          {}

// SubscriptExpr is `a[i]`.
type SubscriptExpr struct {
	Range source.Range
	Base  Expr
	Index Expr
}

func (*SubscriptExpr) NodeKind() string { return "subscript" }
func (*SubscriptExpr) isExpr()          {}

// CallExpr is `callee<templateArgs>(args...)`. TemplateArgs is nil when
// no explicit angle-bracket list was written (template argument
// inference, §4.8, may still apply at resolution time).
type CallExpr struct {
	Range        source.Range
	Callee       Expr
	TemplateArgs []TemplateArgExpr
	Args         []Expr
}

func (*CallExpr) NodeKind() string { return "call" }
func (*CallExpr) isExpr()          {}

// AggregateExpr is `{e1, e2, ..., en}`, lowered lazily only once cast to
// a concrete Array<T,N> or struct type (spec.md §4.9).
type AggregateExpr struct {
	Range    source.Range
	Elements []Expr
}

func (*AggregateExpr) NodeKind() string { return "aggregate" }
func (*AggregateExpr) isExpr()          {}
