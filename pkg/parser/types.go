package parser

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/lexer"
	"github.com/hitoa/vclc/pkg/types"
)

var typeKeywords = map[lexer.Kind]string{
	lexer.KwFloat:  "float",
	lexer.KwBool:   "bool",
	lexer.KwInt:    "int",
	lexer.KwVoid:   "void",
	lexer.KwVFloat: "vfloat",
	lexer.KwVBool:  "vbool",
	lexer.KwVInt:   "vint",
	lexer.KwArray:  "array",
	lexer.KwSpan:   "span",
}

// parseQualifiers consumes zero or more of const/in/out before a type.
func (p *Parser) parseQualifiers() types.Qualifiers {
	var q types.Qualifiers
	for {
		switch p.stream.Peek().Kind {
		case lexer.KwConst:
			p.stream.Next()
			q |= types.QualConst
		case lexer.KwIn:
			p.stream.Next()
			q |= types.QualIn
		case lexer.KwOut:
			p.stream.Next()
			q |= types.QualOut
		default:
			return q
		}
	}
}

// parseType parses `[qualifiers] name [< args >]`, covering builtin type
// names, `array<T,N>`, `span<T>`, and Custom (struct/template) names.
func (p *Parser) parseType() (ast.TypeExpr, *diag.Diagnostic) {
	q := p.parseQualifiers()
	tok := p.stream.Peek()
	var name string
	if builtin, ok := typeKeywords[tok.Kind]; ok {
		p.stream.Next()
		name = builtin
	} else if tok.Kind == lexer.Identifier {
		p.stream.Next()
		name = tok.Text()
	} else {
		return ast.TypeExpr{}, p.unexpected(tok, "a type name")
	}
	te := ast.TypeExpr{Qualifiers: q, Name: name}
	if p.stream.Peek().Kind == lexer.LAngle {
		args, d := p.parseTemplateArgList()
		if d != nil {
			return ast.TypeExpr{}, d
		}
		te.Args = args
	}
	return te, nil
}

// parseTemplateArgList parses `< arg, arg, ... >` where each arg is
// either a type or an integer literal; the parser forwards these without
// evaluating them (spec.md §4.3).
func (p *Parser) parseTemplateArgList() ([]ast.TemplateArgExpr, *diag.Diagnostic) {
	if _, d := p.expect(lexer.LAngle, "'<'"); d != nil {
		return nil, d
	}
	var args []ast.TemplateArgExpr
	for {
		if p.stream.Peek().Kind == lexer.IntegerConstant {
			tok := p.stream.Next()
			n, err := parseIntLiteral(tok.Text())
			if err != nil {
				return nil, p.errorf(tok.Range, diag.UnexpectedToken, "invalid integer template argument %q", tok.Text())
			}
			args = append(args, ast.TemplateArgExpr{Kind: ast.TemplateArgIntLit, Int: int32(n)})
		} else {
			te, d := p.parseType()
			if d != nil {
				return nil, d
			}
			args = append(args, ast.TemplateArgExpr{Kind: ast.TemplateArgType, Type: &te})
		}
		if p.stream.Peek().Kind == lexer.Comma {
			p.stream.Next()
			continue
		}
		break
	}
	if _, d := p.expect(lexer.RAngle, "'>'"); d != nil {
		return nil, d
	}
	return args, nil
}
