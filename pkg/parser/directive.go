package parser

import (
	"strings"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/lexer"
	"github.com/hitoa/vclc/pkg/source"
)

// parseDirective parses `@name ...` into an ast.DirectiveStmt. Grammar
// recognition for the three built-ins lives here (rather than behind the
// pluggable directive.Handler interface) since each has a small, fixed
// surface syntax; directive.Registry still owns the run-time semantics
// and the extension slot for host-registered directive names (see
// DESIGN.md).
func (p *Parser) parseDirective() (ast.Stmt, *diag.Diagnostic) {
	at := p.stream.Next() // '@'
	// `if` lexes as a keyword, so it is accepted here alongside identifiers.
	nameTok := p.stream.Peek()
	if nameTok.Kind == lexer.KwIf {
		p.stream.Next()
	} else {
		var d *diag.Diagnostic
		if nameTok, d = p.expect(lexer.Identifier, "a directive name"); d != nil {
			return nil, d
		}
	}
	switch nameTok.Text() {
	case "import":
		return p.parseImportDirective(at.Range.Start, nameTok.Text())
	case "define":
		return p.parseDefineDirective(at.Range.Start, nameTok.Text())
	case "if":
		return p.parseIfDirective(at.Range.Start, nameTok.Text())
	default:
		return p.parseExtensionDirective(at.Range.Start, nameTok.Text())
	}
}

func (p *Parser) parseImportDirective(start source.Location, name string) (ast.Stmt, *diag.Diagnostic) {
	pathTok, d := p.expect(lexer.StringLiteral, "a string path")
	if d != nil {
		return nil, d
	}
	end, d := p.expect(lexer.Semicolon, "';' after @import")
	if d != nil {
		return nil, d
	}
	return &ast.DirectiveStmt{
		Range:      p.rangeTo(start, end.Range.End),
		Kind:       ast.DirectiveImport,
		Name:       name,
		ImportPath: strings.Trim(pathTok.Text(), `"`),
	}, nil
}

func (p *Parser) parseDefineDirective(start source.Location, name string) (ast.Stmt, *diag.Diagnostic) {
	nameTok, d := p.expect(lexer.Identifier, "a define name")
	if d != nil {
		return nil, d
	}
	var value ast.Expr
	if p.stream.Peek().Kind == lexer.Assign {
		p.stream.Next()
		value, d = p.parseExpr()
		if d != nil {
			return nil, d
		}
	}
	end, d := p.expect(lexer.Semicolon, "';' after @define")
	if d != nil {
		return nil, d
	}
	return &ast.DirectiveStmt{
		Range:       p.rangeTo(start, end.Range.End),
		Kind:        ast.DirectiveDefine,
		Name:        name,
		DefineName:  nameTok.Text(),
		DefineValue: value,
	}, nil
}

func (p *Parser) parseIfDirective(start source.Location, name string) (ast.Stmt, *diag.Diagnostic) {
	cond, d := p.parseExpr()
	if d != nil {
		return nil, d
	}
	then, d := p.parseDirectiveBranch()
	if d != nil {
		return nil, d
	}
	stmt := &ast.DirectiveStmt{Kind: ast.DirectiveIf, Name: name, IfCond: cond, IfThen: then}
	end := p.stream.Peek()
	if p.atDirectiveNamed("else") {
		p.stream.Next() // '@'
		p.stream.Next() // 'else'
		elseBranch, d := p.parseDirectiveBranch()
		if d != nil {
			return nil, d
		}
		stmt.IfElse = elseBranch
	}
	stmt.Range = p.rangeTo(start, end.Range.End)
	return stmt, nil
}

// atDirectiveNamed reports whether the cursor is positioned at `@name`
// without consuming anything.
func (p *Parser) atDirectiveNamed(name string) bool {
	// The name may lex as a keyword (`else`), so only its text is compared.
	return p.stream.GetTok(0).Kind == lexer.At && p.stream.GetTok(1).Text() == name
}

// parseDirectiveBranch parses a brace-enclosed statement list forming
// one arm of `@if`/`@else`.
func (p *Parser) parseDirectiveBranch() ([]ast.Stmt, *diag.Diagnostic) {
	block, d := p.parseBlock()
	if d != nil {
		return nil, d
	}
	return block.Statements, nil
}

// parseExtensionDirective parses `@name(args...);` for a host-registered
// directive, forwarding the raw argument expressions without
// interpreting them (the extension's own handler does that at run time).
func (p *Parser) parseExtensionDirective(start source.Location, name string) (ast.Stmt, *diag.Diagnostic) {
	var args []ast.Expr
	if p.stream.Peek().Kind == lexer.LParen {
		a, _, d := p.parseArgList()
		if d != nil {
			return nil, d
		}
		args = a
	}
	end, d := p.expect(lexer.Semicolon, "';' after directive")
	if d != nil {
		return nil, d
	}
	return &ast.DirectiveStmt{Range: p.rangeTo(start, end.Range.End), Kind: ast.DirectiveExtension, Name: name, RawArgs: args}, nil
}
