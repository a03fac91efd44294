package parser

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/lexer"
	"github.com/hitoa/vclc/pkg/source"
)

// typeStartKinds are the tokens that unambiguously begin a type (and
// hence a declaration), so no backtracking lookahead is needed for them.
var typeStartKinds = map[lexer.Kind]bool{
	lexer.KwConst: true, lexer.KwIn: true, lexer.KwOut: true,
	lexer.KwFloat: true, lexer.KwBool: true, lexer.KwInt: true, lexer.KwVoid: true,
	lexer.KwVFloat: true, lexer.KwVBool: true, lexer.KwVInt: true,
	lexer.KwArray: true, lexer.KwSpan: true,
}

// parseTopLevel parses one top-level statement: a directive, a struct or
// template declaration, or a declaration statement (var/func).
func (p *Parser) parseTopLevel() (ast.Stmt, *diag.Diagnostic) {
	switch p.stream.Peek().Kind {
	case lexer.At:
		return p.parseDirective()
	case lexer.KwStruct:
		return p.parseStructDecl()
	case lexer.KwTemplate:
		return p.parseTemplateDecl()
	default:
		return p.parseDeclarationStmt()
	}
}

// parseStatement parses one statement inside a function body.
func (p *Parser) parseStatement() (ast.Stmt, *diag.Diagnostic) {
	switch p.stream.Peek().Kind {
	case lexer.At:
		return p.parseDirective()
	case lexer.LBrace:
		return p.parseBlock()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwBreak:
		tok := p.stream.Next()
		if _, d := p.expect(lexer.Semicolon, "';'"); d != nil {
			return nil, d
		}
		return &ast.BreakStmt{Range: tok.Range}, nil
	case lexer.KwStruct:
		return p.parseStructDecl()
	case lexer.KwTemplate:
		return p.parseTemplateDecl()
	default:
		if typeStartKinds[p.stream.Peek().Kind] {
			return p.parseDeclarationStmt()
		}
		if p.stream.Peek().Kind == lexer.Identifier && p.looksLikeDeclaration() {
			return p.parseDeclarationStmt()
		}
		return p.parseExprStmt()
	}
}

// looksLikeDeclaration performs a bounded lookahead: try to parse a
// type, then check whether an identifier (the declared name) follows.
// Restores the cursor regardless, since this is only a classification
// probe.
func (p *Parser) looksLikeDeclaration() bool {
	p.stream.Save()
	defer p.stream.Restore()
	_, d := p.parseType()
	if d != nil {
		return false
	}
	return p.stream.Peek().Kind == lexer.Identifier
}

func (p *Parser) parseExprStmt() (ast.Stmt, *diag.Diagnostic) {
	e, d := p.parseExpr()
	if d != nil {
		return nil, d
	}
	if _, d := p.expect(lexer.Semicolon, "';' after expression"); d != nil {
		return nil, d
	}
	return &ast.ExprStmt{Range: rangeOf(e), Expr: e}, nil
}

func (p *Parser) parseBlock() (*ast.BlockStmt, *diag.Diagnostic) {
	start, d := p.expect(lexer.LBrace, "'{'")
	if d != nil {
		return nil, d
	}
	block := &ast.BlockStmt{}
	for p.stream.Peek().Kind != lexer.RBrace {
		if p.stream.Peek().Kind == lexer.EndOfFile {
			return nil, p.unexpected(p.stream.Peek(), "'}'")
		}
		stmt, d := p.parseStatement()
		if d != nil {
			return nil, d
		}
		block.Statements = append(block.Statements, stmt)
	}
	end, d := p.expect(lexer.RBrace, "'}'")
	if d != nil {
		return nil, d
	}
	block.Range = p.rangeTo(start.Range.Start, end.Range.End)
	return block, nil
}

// parseDeclarationStmt parses a variable declaration, function prototype,
// or function declaration — all three share the `type name` prefix.
func (p *Parser) parseDeclarationStmt() (ast.Stmt, *diag.Diagnostic) {
	startTok := p.stream.Peek()
	ty, d := p.parseType()
	if d != nil {
		return nil, d
	}
	nameTok, d := p.expect(lexer.Identifier, "a declared name")
	if d != nil {
		return nil, d
	}
	if p.stream.Peek().Kind == lexer.LParen {
		return p.parseFunctionRest(startTok.Range.Start, ty, nameTok.Text(), nil)
	}
	var init ast.Expr
	if p.stream.Peek().Kind == lexer.Assign {
		p.stream.Next()
		init, d = p.parseExpr()
		if d != nil {
			return nil, d
		}
	}
	end, d := p.expect(lexer.Semicolon, "';' after declaration")
	if d != nil {
		return nil, d
	}
	return &ast.VarDecl{Range: p.rangeTo(startTok.Range.Start, end.Range.End), Type: ty, Name: nameTok.Text(), Init: init}, nil
}

// parseFunctionRest parses the `(params)` list after a function name and
// either a terminating `;` (prototype) or a `{ body }` (declaration).
func (p *Parser) parseFunctionRest(start source.Location, ret ast.TypeExpr, name string, templateParams []ast.TemplateParam) (ast.Stmt, *diag.Diagnostic) {
	params, d := p.parseParamList()
	if d != nil {
		return nil, d
	}
	if templateParams != nil {
		if p.stream.Peek().Kind != lexer.LBrace {
			return nil, p.unexpected(p.stream.Peek(), "a function template body")
		}
		body, d := p.parseBlock()
		if d != nil {
			return nil, d
		}
		return &ast.FuncTemplateDecl{Range: p.rangeTo(start, body.Range.End), Params: templateParams, ReturnType: ret, Name: name, FuncParams: params, Body: body}, nil
	}
	if p.stream.Peek().Kind == lexer.Semicolon {
		end := p.stream.Next()
		return &ast.FuncProto{Range: p.rangeTo(start, end.Range.End), ReturnType: ret, Name: name, Params: params}, nil
	}
	body, d := p.parseBlock()
	if d != nil {
		return nil, d
	}
	return &ast.FuncDecl{Range: p.rangeTo(start, body.Range.End), ReturnType: ret, Name: name, Params: params, Body: body}, nil
}

func (p *Parser) parseParamList() ([]ast.Param, *diag.Diagnostic) {
	if _, d := p.expect(lexer.LParen, "'('"); d != nil {
		return nil, d
	}
	var params []ast.Param
	if p.stream.Peek().Kind != lexer.RParen {
		for {
			ty, d := p.parseType()
			if d != nil {
				return nil, d
			}
			nameTok, d := p.expect(lexer.Identifier, "a parameter name")
			if d != nil {
				return nil, d
			}
			params = append(params, ast.Param{Type: ty, Name: nameTok.Text()})
			if p.stream.Peek().Kind == lexer.Comma {
				p.stream.Next()
				continue
			}
			break
		}
	}
	if _, d := p.expect(lexer.RParen, "')'"); d != nil {
		return nil, d
	}
	return params, nil
}

func (p *Parser) parseIf() (ast.Stmt, *diag.Diagnostic) {
	start := p.stream.Next() // 'if'
	if _, d := p.expect(lexer.LParen, "'(' after if"); d != nil {
		return nil, d
	}
	cond, d := p.parseExpr()
	if d != nil {
		return nil, d
	}
	if _, d := p.expect(lexer.RParen, "')'"); d != nil {
		return nil, d
	}
	then, d := p.parseStatement()
	if d != nil {
		return nil, d
	}
	stmt := &ast.IfStmt{Range: p.rangeTo(start.Range.Start, rangeOfStmt(then).End), Cond: cond, Then: then}
	if p.stream.Peek().Kind == lexer.KwElse {
		p.stream.Next()
		elseStmt, d := p.parseStatement()
		if d != nil {
			return nil, d
		}
		stmt.Else = elseStmt
		stmt.Range = p.rangeTo(start.Range.Start, rangeOfStmt(elseStmt).End)
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, *diag.Diagnostic) {
	start := p.stream.Next()
	if _, d := p.expect(lexer.LParen, "'(' after while"); d != nil {
		return nil, d
	}
	cond, d := p.parseExpr()
	if d != nil {
		return nil, d
	}
	if _, d := p.expect(lexer.RParen, "')'"); d != nil {
		return nil, d
	}
	body, d := p.parseStatement()
	if d != nil {
		return nil, d
	}
	return &ast.WhileStmt{Range: p.rangeTo(start.Range.Start, rangeOfStmt(body).End), Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, *diag.Diagnostic) {
	start := p.stream.Next()
	if _, d := p.expect(lexer.LParen, "'(' after for"); d != nil {
		return nil, d
	}
	var init ast.Stmt
	var d *diag.Diagnostic
	if p.stream.Peek().Kind != lexer.Semicolon {
		init, d = p.parseForClauseInit()
		if d != nil {
			return nil, d
		}
	} else {
		p.stream.Next()
	}
	var cond ast.Expr
	if p.stream.Peek().Kind != lexer.Semicolon {
		cond, d = p.parseExpr()
		if d != nil {
			return nil, d
		}
	}
	if _, d := p.expect(lexer.Semicolon, "';'"); d != nil {
		return nil, d
	}
	var step ast.Stmt
	if p.stream.Peek().Kind != lexer.RParen {
		stepExpr, d := p.parseExpr()
		if d != nil {
			return nil, d
		}
		step = &ast.ExprStmt{Range: rangeOf(stepExpr), Expr: stepExpr}
	}
	if _, d := p.expect(lexer.RParen, "')'"); d != nil {
		return nil, d
	}
	body, d := p.parseStatement()
	if d != nil {
		return nil, d
	}
	return &ast.ForStmt{Range: p.rangeTo(start.Range.Start, rangeOfStmt(body).End), Init: init, Cond: cond, Step: step, Body: body}, nil
}

// parseForClauseInit parses the for-loop's init clause, either a
// declaration or an expression, terminated by the clause's own ';'.
func (p *Parser) parseForClauseInit() (ast.Stmt, *diag.Diagnostic) {
	if typeStartKinds[p.stream.Peek().Kind] || (p.stream.Peek().Kind == lexer.Identifier && p.looksLikeDeclaration()) {
		return p.parseDeclarationStmt()
	}
	return p.parseExprStmt()
}

func (p *Parser) parseReturn() (ast.Stmt, *diag.Diagnostic) {
	start := p.stream.Next()
	if p.stream.Peek().Kind == lexer.Semicolon {
		end := p.stream.Next()
		return &ast.ReturnStmt{Range: p.rangeTo(start.Range.Start, end.Range.End)}, nil
	}
	e, d := p.parseExpr()
	if d != nil {
		return nil, d
	}
	end, d := p.expect(lexer.Semicolon, "';' after return value")
	if d != nil {
		return nil, d
	}
	return &ast.ReturnStmt{Range: p.rangeTo(start.Range.Start, end.Range.End), Value: e}, nil
}

func (p *Parser) parseStructDecl() (ast.Stmt, *diag.Diagnostic) {
	start := p.stream.Next() // 'struct'
	nameTok, d := p.expect(lexer.Identifier, "a struct name")
	if d != nil {
		return nil, d
	}
	if _, d := p.expect(lexer.LBrace, "'{'"); d != nil {
		return nil, d
	}
	var fields []ast.StructField
	for p.stream.Peek().Kind != lexer.RBrace {
		ty, d := p.parseType()
		if d != nil {
			return nil, d
		}
		fieldName, d := p.expect(lexer.Identifier, "a field name")
		if d != nil {
			return nil, d
		}
		if _, d := p.expect(lexer.Semicolon, "';' after field"); d != nil {
			return nil, d
		}
		fields = append(fields, ast.StructField{Type: ty, Name: fieldName.Text()})
	}
	end, d := p.expect(lexer.RBrace, "'}'")
	if d != nil {
		return nil, d
	}
	if _, d := p.expect(lexer.Semicolon, "';' after struct declaration"); d != nil {
		return nil, d
	}
	return &ast.StructDecl{Range: p.rangeTo(start.Range.Start, end.Range.End), Name: nameTok.Text(), Fields: fields}, nil
}

// parseTemplateDecl parses `template<params> struct Name {...};` or
// `template<params> ret Name(params) { body }`.
func (p *Parser) parseTemplateDecl() (ast.Stmt, *diag.Diagnostic) {
	start := p.stream.Next() // 'template'
	if _, d := p.expect(lexer.LAngle, "'<' after template"); d != nil {
		return nil, d
	}
	var params []ast.TemplateParam
	for {
		switch p.stream.Peek().Kind {
		case lexer.KwTypename:
			p.stream.Next()
			nameTok, d := p.expect(lexer.Identifier, "a typename parameter name")
			if d != nil {
				return nil, d
			}
			params = append(params, ast.TemplateParam{Kind: ast.TemplateParamTypename, Name: nameTok.Text()})
		case lexer.KwInt:
			p.stream.Next()
			nameTok, d := p.expect(lexer.Identifier, "an int parameter name")
			if d != nil {
				return nil, d
			}
			params = append(params, ast.TemplateParam{Kind: ast.TemplateParamInt, Name: nameTok.Text()})
		default:
			return nil, p.unexpected(p.stream.Peek(), "'typename' or 'int'")
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
	if p.stream.Peek().Kind == lexer.KwStruct {
		p.stream.Next()
		nameTok, d := p.expect(lexer.Identifier, "a struct name")
		if d != nil {
			return nil, d
		}
		if _, d := p.expect(lexer.LBrace, "'{'"); d != nil {
			return nil, d
		}
		var fields []ast.StructField
		for p.stream.Peek().Kind != lexer.RBrace {
			ty, d := p.parseType()
			if d != nil {
				return nil, d
			}
			fieldName, d := p.expect(lexer.Identifier, "a field name")
			if d != nil {
				return nil, d
			}
			if _, d := p.expect(lexer.Semicolon, "';' after field"); d != nil {
				return nil, d
			}
			fields = append(fields, ast.StructField{Type: ty, Name: fieldName.Text()})
		}
		end, d := p.expect(lexer.RBrace, "'}'")
		if d != nil {
			return nil, d
		}
		if _, d := p.expect(lexer.Semicolon, "';' after struct template declaration"); d != nil {
			return nil, d
		}
		return &ast.StructTemplateDecl{Range: p.rangeTo(start.Range.Start, end.Range.End), Params: params, Name: nameTok.Text(), Fields: fields}, nil
	}
	ret, d := p.parseType()
	if d != nil {
		return nil, d
	}
	nameTok, d := p.expect(lexer.Identifier, "a function name")
	if d != nil {
		return nil, d
	}
	return p.parseFunctionRest(start.Range.Start, ret, nameTok.Text(), params)
}

func rangeOfStmt(s ast.Stmt) source.Range {
	switch n := s.(type) {
	case *ast.BlockStmt:
		return n.Range
	case *ast.ExprStmt:
		return n.Range
	case *ast.ReturnStmt:
		return n.Range
	case *ast.IfStmt:
		return n.Range
	case *ast.WhileStmt:
		return n.Range
	case *ast.ForStmt:
		return n.Range
	case *ast.BreakStmt:
		return n.Range
	case *ast.VarDecl:
		return n.Range
	case *ast.FuncProto:
		return n.Range
	case *ast.FuncDecl:
		return n.Range
	case *ast.StructDecl:
		return n.Range
	case *ast.StructTemplateDecl:
		return n.Range
	case *ast.FuncTemplateDecl:
		return n.Range
	case *ast.DirectiveStmt:
		return n.Range
	default:
		return source.Range{}
	}
}
