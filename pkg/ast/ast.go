// Package ast defines VCL's abstract syntax tree as a tagged sum type:
// one interface per node category (Expr, Stmt, Decl), each implemented by
// a closed set of concrete structs. This replaces the polymorphic node
// hierarchy the Design Notes call out for replacement; the IR emitter's
// visitor becomes an explicit type switch over these kinds, the same
// shape go-corset's ast/declaration.go and ast/expression.go use for
// their own Declaration/Expr sum types.
package ast

import "github.com/hitoa/vclc/pkg/types"

// Node is implemented by every AST node; Lisp-style structural printing
// is not reused from go-corset (VCL's pretty printer renders C-like
// syntax, see pkg/printer), but the common "every node knows its own
// kind" shape is.
type Node interface {
	// NodeKind returns a short tag for diagnostics/printing, e.g. "if",
	// "binary", "call".
	NodeKind() string
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	isExpr()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	isStmt()
}

// Decl is implemented by every top-level declaration node. Every Decl is
// also a Stmt, because a directive can expand into more top-level
// declarations mid-stream (spec.md §4.4: directives rewrite the parse
// stream).
type Decl interface {
	Stmt
	isDecl()
}

// Program is the root node: an ordered sequence of top-level statements
// (declarations, and directive invocations before they are expanded).
type Program struct {
	Statements []Stmt
}

func (*Program) NodeKind() string { return "program" }

// TypeExpr is the surface syntax for a type reference (as opposed to
// types.TypeInfo, the resolved semantic type): a name plus an optional
// angle-bracket template argument list, and the qualifiers written
// before it. The parser never evaluates these; resolution happens in the
// IR emitter against the scope manager's alias/struct-template tables.
type TypeExpr struct {
	Qualifiers types.Qualifiers
	Name       string
	Args       []TemplateArgExpr
}

// TemplateArgExprKind distinguishes a typename argument from an integer
// constant argument in surface syntax.
type TemplateArgExprKind int

const (
	TemplateArgType TemplateArgExprKind = iota
	TemplateArgIntLit
)

// TemplateArgExpr is one entry of a `<...>` argument list as written in
// source, forwarded by the parser without evaluation (spec.md §4.3).
type TemplateArgExpr struct {
	Kind TemplateArgExprKind
	Type *TypeExpr
	Int  int32
}
