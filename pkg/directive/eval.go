package directive

import (
	"fmt"

	"github.com/hitoa/vclc/pkg/ast"
)

// ScopeLookup lets the static evaluator treat a plain identifier as true
// when it names something already visible in scope, per spec.md's
// "identifier-as-define" rule for @if conditions.
type ScopeLookup func(name string) bool

// EvalStatic statically evaluates a restricted expression for `@if`:
// literals, `defined(name)`, a bare identifier (true iff @defined or
// scope-visible), and `!` negation of the same. Any other construct
// (assignment, subscript, field access, aggregate, template call,
// arbitrary function call) is rejected, per spec.md §4.4.
func EvalStatic(e ast.Expr, state *State, inScope ScopeLookup) (bool, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return n.Value != 0, nil
	case *ast.FloatLiteral:
		return n.Value != 0, nil
	case *ast.Identifier:
		if lit, ok := state.IsDefined(n.Name); ok {
			if lit.Kind == LiteralNone {
				return true, nil
			}
			return literalTruthy(lit), nil
		}
		if inScope != nil && inScope(n.Name) {
			return true, nil
		}
		return false, nil
	case *ast.UnaryExpr:
		if n.Op != ast.OpNot {
			return false, fmt.Errorf("@if: only '!' is permitted among unary operators")
		}
		v, err := EvalStatic(n.Operand, state, inScope)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *ast.CallExpr:
		callee, ok := n.Callee.(*ast.Identifier)
		if !ok || callee.Name != "defined" {
			return false, fmt.Errorf("@if: only 'defined(name)' calls are permitted")
		}
		if len(n.Args) != 1 {
			return false, fmt.Errorf("@if: defined() takes exactly one argument")
		}
		arg, ok := n.Args[0].(*ast.Identifier)
		if !ok {
			return false, fmt.Errorf("@if: defined() requires a bare identifier argument")
		}
		_, defined := state.IsDefined(arg.Name)
		return defined, nil
	default:
		return false, fmt.Errorf("@if: unsupported construct %s in static expression", e.NodeKind())
	}
}

func literalTruthy(lit Literal) bool {
	switch lit.Kind {
	case LiteralInt:
		return lit.Int != 0
	case LiteralFloat:
		return lit.Float != 0
	case LiteralBool:
		return lit.Bool
	case LiteralString:
		return lit.String != ""
	default:
		return true
	}
}
