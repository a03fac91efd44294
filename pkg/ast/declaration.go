package ast

import "github.com/hitoa/vclc/pkg/source"

// ============================================================================
// Attributes (supplemented from original_source/Attribute.{hpp,cpp};
// see SPEC_FULL.md §4.11)
// ============================================================================

// Attribute is an `@attribute(name, args...)`-shaped annotation attached
// to a declaration. Unlike @import/@define/@if it carries no control-flow
// power over the parse stream: it is pure metadata that the parser
// records and pkg/printer renders; the emitter does not read it.
type Attribute struct {
	Range source.Range
	Name  string
	Args  []Expr
}

// ============================================================================
// Variable declarations
// ============================================================================

// VarDecl is a variable declaration, global at program scope or local
// inside a function body.
type VarDecl struct {
	Range      source.Range
	Type       TypeExpr
	Name       string
	Init       Expr // nil if uninitialised
	Attributes []Attribute
}

func (*VarDecl) NodeKind() string { return "var-decl" }
func (*VarDecl) isStmt()          {}
func (*VarDecl) isDecl()          {}

// ============================================================================
// Functions
// ============================================================================

// Param is one function parameter.
type Param struct {
	Type TypeExpr
	Name string
}

// FuncProto is a function prototype with no body (`ret name(params);`).
type FuncProto struct {
	Range      source.Range
	ReturnType TypeExpr
	Name       string
	Params     []Param
	Attributes []Attribute
}

func (*FuncProto) NodeKind() string { return "func-proto" }
func (*FuncProto) isStmt()          {}
func (*FuncProto) isDecl()          {}

// FuncDecl is a function declaration: prototype plus a compound body.
type FuncDecl struct {
	Range      source.Range
	ReturnType TypeExpr
	Name       string
	Params     []Param
	Body       *BlockStmt
	Attributes []Attribute
}

func (*FuncDecl) NodeKind() string { return "func-decl" }
func (*FuncDecl) isStmt()          {}
func (*FuncDecl) isDecl()          {}

// ============================================================================
// Structs
// ============================================================================

// StructField is one field of a struct declaration.
type StructField struct {
	Type TypeExpr
	Name string
}

// StructDecl is a plain (non-template) struct declaration.
type StructDecl struct {
	Range  source.Range
	Name   string
	Fields []StructField
}

func (*StructDecl) NodeKind() string { return "struct-decl" }
func (*StructDecl) isStmt()          {}
func (*StructDecl) isDecl()          {}

// ============================================================================
// Templates
// ============================================================================

// TemplateParamKind distinguishes a `typename T` parameter from an `int N`
// parameter in a template parameter list.
type TemplateParamKind int

const (
	TemplateParamTypename TemplateParamKind = iota
	TemplateParamInt
)

// TemplateParam is one entry of a `template<...>` parameter list.
type TemplateParam struct {
	Kind TemplateParamKind
	Name string
}

// StructTemplateDecl is `template<params> struct Name { fields... };`.
type StructTemplateDecl struct {
	Range      source.Range
	Params     []TemplateParam
	Name       string
	Fields     []StructField
}

func (*StructTemplateDecl) NodeKind() string { return "struct-template-decl" }
func (*StructTemplateDecl) isStmt()          {}
func (*StructTemplateDecl) isDecl()          {}

// FuncTemplateDecl is `template<params> ret Name(params) { body }`.
type FuncTemplateDecl struct {
	Range      source.Range
	Params     []TemplateParam
	ReturnType TypeExpr
	Name       string
	FuncParams []Param
	Body       *BlockStmt
}

func (*FuncTemplateDecl) NodeKind() string { return "func-template-decl" }
func (*FuncTemplateDecl) isStmt()          {}
func (*FuncTemplateDecl) isDecl()          {}

// ============================================================================
// Statements
// ============================================================================

// BlockStmt is a `{ ... }` compound statement.
type BlockStmt struct {
	Range      source.Range
	Statements []Stmt
}

func (*BlockStmt) NodeKind() string { return "block" }
func (*BlockStmt) isStmt()          {}

// ExprStmt is an expression evaluated for effect, terminated by `;`.
type ExprStmt struct {
	Range source.Range
	Expr  Expr
}

func (*ExprStmt) NodeKind() string { return "expr-stmt" }
func (*ExprStmt) isStmt()          {}

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Range source.Range
	Value Expr // nil for a bare `return;`
}

func (*ReturnStmt) NodeKind() string { return "return" }
func (*ReturnStmt) isStmt()          {}

// IfStmt is `if (cond) then [else else_]`.
type IfStmt struct {
	Range source.Range
	Cond  Expr
	Then  Stmt
	Else  Stmt // nil if no else branch
}

func (*IfStmt) NodeKind() string { return "if" }
func (*IfStmt) isStmt()          {}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	Range source.Range
	Cond  Expr
	Body  Stmt
}

func (*WhileStmt) NodeKind() string { return "while" }
func (*WhileStmt) isStmt()          {}

// ForStmt is `for (init; cond; step) body`; any clause may be nil.
type ForStmt struct {
	Range source.Range
	Init  Stmt
	Cond  Expr
	Step  Stmt
	Body  Stmt
}

func (*ForStmt) NodeKind() string { return "for" }
func (*ForStmt) isStmt()          {}

// BreakStmt is `break;`.
type BreakStmt struct {
	Range source.Range
}

func (*BreakStmt) NodeKind() string { return "break" }
func (*BreakStmt) isStmt()          {}

// ============================================================================
// Directives
// ============================================================================

// DirectiveKind distinguishes the three built-in directives; host code
// may register additional directives under DirectiveExtension (spec.md
// §9 Design Notes: "fixed enum for built-ins plus an extension slot").
type DirectiveKind int

const (
	DirectiveImport DirectiveKind = iota
	DirectiveDefine
	DirectiveIf
	DirectiveExtension
)

// DirectiveStmt is the AST node a directive's Parse method produces; the
// directive engine's Run method interprets it at emission time (spec.md
// §4.4: "Directives are invoked during AST traversal, not during
// parsing").
type DirectiveStmt struct {
	Range source.Range
	Kind  DirectiveKind
	Name  string // the directive name as written, e.g. "import"

	// DirectiveImport
	ImportPath string

	// DirectiveDefine
	DefineName  string
	DefineValue Expr // nil for a flag-only @define

	// DirectiveIf
	IfCond Expr
	IfThen []Stmt
	IfElse []Stmt

	// DirectiveExtension
	RawArgs []Expr
}

func (*DirectiveStmt) NodeKind() string { return "directive" }
func (*DirectiveStmt) isStmt()          {}
func (*DirectiveStmt) isDecl()          {}
