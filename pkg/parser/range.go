package parser

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/source"
)

// rangeOf returns the source range of any expression node.
func rangeOf(e ast.Expr) source.Range {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return n.Range
	case *ast.FloatLiteral:
		return n.Range
	case *ast.StringLiteral:
		return n.Range
	case *ast.Identifier:
		return n.Range
	case *ast.BinaryExpr:
		return n.Range
	case *ast.UnaryExpr:
		return n.Range
	case *ast.IncDecExpr:
		return n.Range
	case *ast.AssignExpr:
		return n.Range
	case *ast.FieldExpr:
		return n.Range
	case *ast.SubscriptExpr:
		return n.Range
	case *ast.CallExpr:
		return n.Range
	case *ast.AggregateExpr:
		return n.Range
	default:
		return source.Range{}
	}
}
