package parser

import (
	"strconv"
	"strings"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/lexer"
	"github.com/hitoa/vclc/pkg/source"
)

func parseIntLiteral(text string) (int64, error) {
	return strconv.ParseInt(text, 10, 64)
}

func parseFloatLiteral(text string) (float64, error) {
	return strconv.ParseFloat(text, 64)
}

// binaryPrecedence gives each binary operator token a precedence level;
// higher binds tighter. Assignment is handled separately (right
// associative, lowest precedence) in parseExpr.
func binaryPrecedence(k lexer.Kind) (int, ast.BinaryOp, bool) {
	switch k {
	case lexer.PipePipe:
		return 1, ast.OpOr, true
	case lexer.AmpAmp:
		return 2, ast.OpAnd, true
	case lexer.EqEq:
		return 3, ast.OpEq, true
	case lexer.NotEq:
		return 3, ast.OpNe, true
	case lexer.LAngle:
		return 4, ast.OpLt, true
	case lexer.RAngle:
		return 4, ast.OpGt, true
	case lexer.LessEq:
		return 4, ast.OpLe, true
	case lexer.GreaterEq:
		return 4, ast.OpGe, true
	case lexer.Plus:
		return 5, ast.OpAdd, true
	case lexer.Minus:
		return 5, ast.OpSub, true
	case lexer.Star:
		return 6, ast.OpMul, true
	case lexer.Slash:
		return 6, ast.OpDiv, true
	case lexer.Percent:
		return 6, ast.OpMod, true
	default:
		return 0, 0, false
	}
}

// parseExpr parses a full expression, including a top-level assignment.
func (p *Parser) parseExpr() (ast.Expr, *diag.Diagnostic) {
	lhs, d := p.parseBinary(0)
	if d != nil {
		return nil, d
	}
	if p.stream.Peek().Kind == lexer.Assign {
		p.stream.Next()
		rhs, d := p.parseExpr() // right-associative
		if d != nil {
			return nil, d
		}
		return &ast.AssignExpr{Range: p.rangeTo(exprStart(lhs), exprEnd(rhs)), LHS: lhs, RHS: rhs}, nil
	}
	return lhs, nil
}

// parseBinary implements precedence climbing starting at minPrec.
func (p *Parser) parseBinary(minPrec int) (ast.Expr, *diag.Diagnostic) {
	lhs, d := p.parseUnary()
	if d != nil {
		return nil, d
	}
	for {
		prec, op, ok := binaryPrecedence(p.stream.Peek().Kind)
		if !ok || prec < minPrec {
			return lhs, nil
		}
		opTok := p.stream.Next()
		rhs, d := p.parseBinary(prec + 1)
		if d != nil {
			return nil, d
		}
		lhs = &ast.BinaryExpr{Range: p.rangeTo(exprStart(lhs), opTok.Range.End), Op: op, LHS: lhs, RHS: rhs}
	}
}

// parseUnary handles the +/-/! / ++/-- prefix forms, disambiguating the
// lexically-shared +/- tokens by parsing position (spec.md §4.3: unary
// recognised when a unary-capable token appears at a primary position).
func (p *Parser) parseUnary() (ast.Expr, *diag.Diagnostic) {
	tok := p.stream.Peek()
	switch tok.Kind {
	case lexer.Plus, lexer.Minus, lexer.Bang:
		p.stream.Next()
		operand, d := p.parseUnary()
		if d != nil {
			return nil, d
		}
		op := map[lexer.Kind]ast.UnaryOp{lexer.Plus: ast.OpPlus, lexer.Minus: ast.OpNeg, lexer.Bang: ast.OpNot}[tok.Kind]
		return &ast.UnaryExpr{Range: p.rangeTo(tok.Range.Start, exprEnd(operand)), Op: op, Operand: operand}, nil
	case lexer.PlusPlus, lexer.MinusMinus:
		p.stream.Next()
		operand, d := p.parseUnary()
		if d != nil {
			return nil, d
		}
		return &ast.IncDecExpr{Range: p.rangeTo(tok.Range.Start, exprEnd(operand)), Inc: tok.Kind == lexer.PlusPlus, Postfix: false, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by a tight,
// left-associative loop of `.field`, `[index]`, `(args)`, and `++`/`--`.
func (p *Parser) parsePostfix() (ast.Expr, *diag.Diagnostic) {
	e, d := p.parsePrimary()
	if d != nil {
		return nil, d
	}
	for {
		switch p.stream.Peek().Kind {
		case lexer.Dot:
			p.stream.Next()
			nameTok, d := p.expect(lexer.Identifier, "a field name")
			if d != nil {
				return nil, d
			}
			e = &ast.FieldExpr{Range: p.rangeTo(exprStart(e), nameTok.Range.End), Base: e, Field: nameTok.Text()}
		case lexer.LBracket:
			p.stream.Next()
			idx, d := p.parseExpr()
			if d != nil {
				return nil, d
			}
			end, d := p.expect(lexer.RBracket, "']'")
			if d != nil {
				return nil, d
			}
			e = &ast.SubscriptExpr{Range: p.rangeTo(exprStart(e), end.Range.End), Base: e, Index: idx}
		case lexer.LParen:
			args, end, d := p.parseArgList()
			if d != nil {
				return nil, d
			}
			e = &ast.CallExpr{Range: p.rangeTo(exprStart(e), end), Callee: e, Args: args}
		case lexer.PlusPlus, lexer.MinusMinus:
			tok := p.stream.Next()
			e = &ast.IncDecExpr{Range: p.rangeTo(exprStart(e), tok.Range.End), Inc: tok.Kind == lexer.PlusPlus, Postfix: true, Operand: e}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, source.Location, *diag.Diagnostic) {
	if _, d := p.expect(lexer.LParen, "'('"); d != nil {
		return nil, source.Location{}, d
	}
	var args []ast.Expr
	if p.stream.Peek().Kind != lexer.RParen {
		for {
			e, d := p.parseExpr()
			if d != nil {
				return nil, source.Location{}, d
			}
			args = append(args, e)
			if p.stream.Peek().Kind == lexer.Comma {
				p.stream.Next()
				continue
			}
			break
		}
	}
	end, d := p.expect(lexer.RParen, "')'")
	if d != nil {
		return nil, source.Location{}, d
	}
	return args, end.Range.End, nil
}

// parsePrimary parses literals, identifiers (possibly a template call
// `name<T,4>(...)`), parenthesised expressions, and aggregate literals.
func (p *Parser) parsePrimary() (ast.Expr, *diag.Diagnostic) {
	tok := p.stream.Peek()
	switch tok.Kind {
	case lexer.IntegerConstant:
		p.stream.Next()
		n, err := parseIntLiteral(tok.Text())
		if err != nil {
			return nil, p.errorf(tok.Range, diag.UnexpectedToken, "invalid integer literal %q", tok.Text())
		}
		return &ast.IntLiteral{Range: tok.Range, Value: n}, nil
	case lexer.FloatConstant:
		p.stream.Next()
		f, err := parseFloatLiteral(tok.Text())
		if err != nil {
			return nil, p.errorf(tok.Range, diag.UnexpectedToken, "invalid float literal %q", tok.Text())
		}
		return &ast.FloatLiteral{Range: tok.Range, Value: f}, nil
	case lexer.StringLiteral:
		p.stream.Next()
		text := tok.Text()
		return &ast.StringLiteral{Range: tok.Range, Value: strings.Trim(text, `"`)}, nil
	case lexer.Identifier:
		p.stream.Next()
		id := &ast.Identifier{Range: tok.Range, Name: tok.Text()}
		if p.stream.Peek().Kind == lexer.LAngle && p.looksLikeTemplateCall() {
			templArgs, d := p.parseTemplateArgList()
			if d != nil {
				return nil, d
			}
			args, end, d := p.parseArgList()
			if d != nil {
				return nil, d
			}
			return &ast.CallExpr{Range: p.rangeTo(tok.Range.Start, end), Callee: id, TemplateArgs: templArgs, Args: args}, nil
		}
		return id, nil
	case lexer.LParen:
		p.stream.Next()
		e, d := p.parseExpr()
		if d != nil {
			return nil, d
		}
		if _, d := p.expect(lexer.RParen, "')'"); d != nil {
			return nil, d
		}
		return e, nil
	case lexer.LBrace:
		return p.parseAggregate()
	default:
		return nil, p.unexpected(tok, "an expression")
	}
}

// looksLikeTemplateCall performs a bounded lookahead to distinguish
// `name<T>(...)` from `name < a` (a less-than comparison): it saves the
// cursor, tries to parse a template-argument list followed immediately
// by '(', and restores on any mismatch.
func (p *Parser) looksLikeTemplateCall() bool {
	p.stream.Save()
	defer p.stream.Restore()
	_, d := p.parseTemplateArgList()
	if d != nil {
		return false
	}
	return p.stream.Peek().Kind == lexer.LParen
}

func (p *Parser) parseAggregate() (ast.Expr, *diag.Diagnostic) {
	start, d := p.expect(lexer.LBrace, "'{'")
	if d != nil {
		return nil, d
	}
	var elems []ast.Expr
	if p.stream.Peek().Kind != lexer.RBrace {
		for {
			e, d := p.parseExpr()
			if d != nil {
				return nil, d
			}
			elems = append(elems, e)
			if p.stream.Peek().Kind == lexer.Comma {
				p.stream.Next()
				continue
			}
			break
		}
	}
	end, d := p.expect(lexer.RBrace, "'}'")
	if d != nil {
		return nil, d
	}
	return &ast.AggregateExpr{Range: p.rangeTo(start.Range.Start, end.Range.End), Elements: elems}, nil
}

func exprStart(e ast.Expr) source.Location {
	return rangeOf(e).Start
}
func exprEnd(e ast.Expr) source.Location {
	return rangeOf(e).End
}
