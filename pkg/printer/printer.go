// Package printer renders an ast.Program back into VCL source text.
// Grounded on go-corset's per-node Lisp() methods (pkg/corset/ast.go),
// generalised from S-expression rendering to C-like syntax: one case per
// concrete node kind, driven by an explicit type switch rather than a
// method on each node (ast nodes stay plain data, per pkg/ast's own doc
// comment). Used by cmd/vclc's -print flag and by pkg/printer's golden
// and round-trip tests; the emitter does not use it.
package printer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/hitoa/vclc/pkg/ast"
)

// Printer renders an AST to indented VCL source text.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// New constructs a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print renders prog to w, returning the first write error encountered.
func Print(w io.Writer, prog *ast.Program) error {
	p := New(w)
	p.PrintProgram(prog)
	return p.err
}

// String renders prog and returns it directly, for tests and tooling
// that don't want to manage an io.Writer.
func String(prog *ast.Program) string {
	var buf bytes.Buffer
	_ = Print(&buf, prog)
	return buf.String()
}

func (p *Printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, err := fmt.Fprintf(p.w, format, args...)
	if err != nil {
		p.err = err
	}
}

func (p *Printer) tab() {
	p.printf("%s", strings.Repeat("\t", p.indent))
}

// PrintProgram renders every top-level statement in order; each one
// (var/func/struct declaration) already terminates itself with its own
// trailing newline, so no extra separator is added between them.
func (p *Printer) PrintProgram(prog *ast.Program) {
	for _, s := range prog.Statements {
		p.tab()
		p.PrintStmt(s)
	}
}

func (p *Printer) printTypeExpr(t ast.TypeExpr) {
	if q := t.Qualifiers.String(); q != "" {
		p.printf("%s ", q)
	}
	p.printf("%s", t.Name)
	if len(t.Args) > 0 {
		p.printf("<")
		for i, a := range t.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.printTemplateArgExpr(a)
		}
		p.printf(">")
	}
}

func (p *Printer) printTemplateArgExpr(a ast.TemplateArgExpr) {
	switch a.Kind {
	case ast.TemplateArgType:
		p.printTypeExpr(*a.Type)
	case ast.TemplateArgIntLit:
		p.printf("%d", a.Int)
	}
}

func (p *Printer) printParams(params []ast.Param) {
	for i, pm := range params {
		if i > 0 {
			p.printf(", ")
		}
		p.printTypeExpr(pm.Type)
		p.printf(" %s", pm.Name)
	}
}

func (p *Printer) printTemplateParams(params []ast.TemplateParam) {
	p.printf("template<")
	for i, tp := range params {
		if i > 0 {
			p.printf(", ")
		}
		switch tp.Kind {
		case ast.TemplateParamTypename:
			p.printf("typename %s", tp.Name)
		case ast.TemplateParamInt:
			p.printf("int %s", tp.Name)
		}
	}
	p.printf("> ")
}

func (p *Printer) printAttributes(attrs []ast.Attribute) {
	for _, a := range attrs {
		p.printf("@%s", a.Name)
		if len(a.Args) > 0 {
			p.printf("(")
			for i, arg := range a.Args {
				if i > 0 {
					p.printf(", ")
				}
				p.PrintExpr(arg)
			}
			p.printf(")")
		}
		p.printf(" ")
	}
}

// PrintStmt renders a single statement or declaration at the current
// indent level, followed by a trailing newline.
func (p *Printer) PrintStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		p.printAttributes(n.Attributes)
		p.printTypeExpr(n.Type)
		p.printf(" %s", n.Name)
		if n.Init != nil {
			p.printf(" = ")
			p.PrintExpr(n.Init)
		}
		p.printf(";\n")

	case *ast.FuncProto:
		p.printAttributes(n.Attributes)
		p.printTypeExpr(n.ReturnType)
		p.printf(" %s(", n.Name)
		p.printParams(n.Params)
		p.printf(");\n")

	case *ast.FuncDecl:
		p.printAttributes(n.Attributes)
		p.printTypeExpr(n.ReturnType)
		p.printf(" %s(", n.Name)
		p.printParams(n.Params)
		p.printf(") ")
		p.printBlock(n.Body)
		p.printf("\n")

	case *ast.StructDecl:
		p.printf("struct %s {\n", n.Name)
		p.indent++
		for _, f := range n.Fields {
			p.tab()
			p.printTypeExpr(f.Type)
			p.printf(" %s;\n", f.Name)
		}
		p.indent--
		p.tab()
		p.printf("};\n")

	case *ast.StructTemplateDecl:
		p.printTemplateParams(n.Params)
		p.printf("struct %s {\n", n.Name)
		p.indent++
		for _, f := range n.Fields {
			p.tab()
			p.printTypeExpr(f.Type)
			p.printf(" %s;\n", f.Name)
		}
		p.indent--
		p.tab()
		p.printf("};\n")

	case *ast.FuncTemplateDecl:
		p.printTemplateParams(n.Params)
		p.printTypeExpr(n.ReturnType)
		p.printf(" %s(", n.Name)
		p.printParams(n.FuncParams)
		p.printf(") ")
		p.printBlock(n.Body)
		p.printf("\n")

	case *ast.BlockStmt:
		p.printBlock(n)
		p.printf("\n")

	case *ast.ExprStmt:
		p.PrintExpr(n.Expr)
		p.printf(";\n")

	case *ast.ReturnStmt:
		if n.Value == nil {
			p.printf("return;\n")
			return
		}
		p.printf("return ")
		p.PrintExpr(n.Value)
		p.printf(";\n")

	case *ast.IfStmt:
		p.printf("if (")
		p.PrintExpr(n.Cond)
		p.printf(")")
		p.printBranch(n.Then)
		if n.Else != nil {
			p.tab()
			p.printf("else")
			p.printBranch(n.Else)
		}

	case *ast.WhileStmt:
		p.printf("while (")
		p.PrintExpr(n.Cond)
		p.printf(")")
		p.printBranch(n.Body)

	case *ast.ForStmt:
		p.printf("for (")
		if n.Init != nil {
			p.printInline(n.Init)
		}
		p.printf("; ")
		if n.Cond != nil {
			p.PrintExpr(n.Cond)
		}
		p.printf("; ")
		if n.Step != nil {
			p.printInline(n.Step)
		}
		p.printf(")")
		p.printBranch(n.Body)

	case *ast.BreakStmt:
		p.printf("break;\n")

	case *ast.DirectiveStmt:
		p.printDirective(n)

	default:
		p.printf("/* unprintable %s */;\n", s.NodeKind())
	}
}

// printInline renders a statement without its own trailing newline or
// indent, for a for-loop's init/step clauses.
func (p *Printer) printInline(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		p.printTypeExpr(n.Type)
		p.printf(" %s", n.Name)
		if n.Init != nil {
			p.printf(" = ")
			p.PrintExpr(n.Init)
		}
	case *ast.ExprStmt:
		p.PrintExpr(n.Expr)
	}
}

// printBranch renders an if/while/for body: a block stays on the same
// line as its opening brace (one space after the condition's closing
// paren), a bare statement moves to its own indented line below.
func (p *Printer) printBranch(s ast.Stmt) {
	if b, ok := s.(*ast.BlockStmt); ok {
		p.printf(" ")
		p.printBlock(b)
		p.printf("\n")
		return
	}
	p.printf("\n")
	p.indent++
	p.tab()
	p.PrintStmt(s)
	p.indent--
}

func (p *Printer) printBlock(b *ast.BlockStmt) {
	p.printf("{\n")
	p.indent++
	for _, s := range b.Statements {
		p.tab()
		p.PrintStmt(s)
	}
	p.indent--
	p.tab()
	p.printf("}")
}

func (p *Printer) printDirective(n *ast.DirectiveStmt) {
	switch n.Kind {
	case ast.DirectiveImport:
		p.printf("@import %q;\n", n.ImportPath)
	case ast.DirectiveDefine:
		p.printf("@define %s", n.DefineName)
		if n.DefineValue != nil {
			p.printf(" = ")
			p.PrintExpr(n.DefineValue)
		}
		p.printf(";\n")
	case ast.DirectiveIf:
		p.printf("@if (")
		p.PrintExpr(n.IfCond)
		p.printf(") {\n")
		p.indent++
		for _, s := range n.IfThen {
			p.tab()
			p.PrintStmt(s)
		}
		p.indent--
		p.tab()
		p.printf("}")
		if len(n.IfElse) > 0 {
			p.printf(" @else {\n")
			p.indent++
			for _, s := range n.IfElse {
				p.tab()
				p.PrintStmt(s)
			}
			p.indent--
			p.tab()
			p.printf("}")
		}
		p.printf("\n")
	case ast.DirectiveExtension:
		p.printf("@%s(", n.Name)
		for i, a := range n.RawArgs {
			if i > 0 {
				p.printf(", ")
			}
			p.PrintExpr(a)
		}
		p.printf(");\n")
	}
}

var binaryOpSymbols = map[ast.BinaryOp]string{
	ast.OpAdd: "+", ast.OpSub: "-", ast.OpMul: "*", ast.OpDiv: "/", ast.OpMod: "%",
	ast.OpAnd: "&&", ast.OpOr: "||",
	ast.OpGt: ">", ast.OpLt: "<", ast.OpGe: ">=", ast.OpLe: "<=",
	ast.OpEq: "==", ast.OpNe: "!=",
}

var unaryOpSymbols = map[ast.UnaryOp]string{
	ast.OpPlus: "+", ast.OpNeg: "-", ast.OpNot: "!",
}

// PrintExpr renders a single expression with no surrounding whitespace.
// Only binary operations are parenthesized, trading the teacher's Lisp
// rendering's inherent unambiguity for the minimum parenthesization a
// C-like reader expects: a literal, identifier, call or member chain
// prints bare, a binary operation prints wrapped, and unary, ++/-- and
// assignment forms print without parentheses of their own.
func (p *Printer) PrintExpr(e ast.Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *ast.IntLiteral:
		p.printf("%d", n.Value)
	case *ast.FloatLiteral:
		p.printf("%v", n.Value)
	case *ast.StringLiteral:
		p.printf("%q", n.Value)
	case *ast.Identifier:
		p.printf("%s", n.Name)
	case *ast.BinaryExpr:
		p.printf("(")
		p.PrintExpr(n.LHS)
		p.printf(" %s ", binaryOpSymbols[n.Op])
		p.PrintExpr(n.RHS)
		p.printf(")")
	case *ast.UnaryExpr:
		p.printf("%s", unaryOpSymbols[n.Op])
		p.PrintExpr(n.Operand)
	case *ast.IncDecExpr:
		sym := "++"
		if !n.Inc {
			sym = "--"
		}
		if n.Postfix {
			p.PrintExpr(n.Operand)
			p.printf("%s", sym)
		} else {
			p.printf("%s", sym)
			p.PrintExpr(n.Operand)
		}
	case *ast.AssignExpr:
		p.PrintExpr(n.LHS)
		p.printf(" = ")
		p.PrintExpr(n.RHS)
	case *ast.FieldExpr:
		p.PrintExpr(n.Base)
		p.printf(".%s", n.Field)
	case *ast.SubscriptExpr:
		p.PrintExpr(n.Base)
		p.printf("[")
		p.PrintExpr(n.Index)
		p.printf("]")
	case *ast.CallExpr:
		p.PrintExpr(n.Callee)
		if len(n.TemplateArgs) > 0 {
			p.printf("<")
			for i, a := range n.TemplateArgs {
				if i > 0 {
					p.printf(", ")
				}
				p.printTemplateArgExpr(a)
			}
			p.printf(">")
		}
		p.printf("(")
		for i, a := range n.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.PrintExpr(a)
		}
		p.printf(")")
	case *ast.AggregateExpr:
		p.printf("{")
		for i, el := range n.Elements {
			if i > 0 {
				p.printf(", ")
			}
			p.PrintExpr(el)
		}
		p.printf("}")
	default:
		p.printf("/* unprintable %s */", e.NodeKind())
	}
}
