// Package verifier implements the post-emission checks spec.md §4.10
// describes: every non-void function path must terminate in a return,
// `break` may only appear inside a loop (already caught by the emitter
// via scope.Stack.BreakTargetFrame, so not duplicated here), and no
// call graph cycle may pass exclusively through "select-eligible"
// functions — small branchless functions the emitter lowers to
// ir.Builder.Select rather than a real conditional branch, which
// evaluates both arms unconditionally and so turns a recursive call
// into an infinite compile-time expansion instead of a runtime loop.
// Grounded on go-corset's dependency-cycle detector in
// pkg/corset/compiler/cycles.go (a bounded-depth DFS over a
// module-reference graph, reporting the first cycle found) and on
// sokoide-llvm5's call-graph walk feeding its own terminator checks;
// the visited-set here uses github.com/bits-and-blooms/bitset rather
// than a plain map for the same reason go-corset's column-dependency
// bitsets do: membership and clear are O(1) over a dense small integer
// domain (function index), not O(log n) map operations.
package verifier

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
)

// Settings configures the verifier's structural limits and the
// severity escalation spec.md §4.10/§6 names on Module::Verify(settings):
// { broken_debug_info_as_error, enable_select_recursion_check,
// select_recursion_as_error }.
type Settings struct {
	// MaxCallDepth bounds the select-recursion DFS; a path longer than
	// this is not followed further and is not reported. Defaults to 256
	// (DESIGN.md Open Question: select-recursion bound).
	MaxCallDepth int

	// EnableSelectRecursionCheck toggles CheckSelectRecursion entirely;
	// disabled, a select-only recursive cycle compiles without any
	// diagnostic at all (left to blow the call-graph DFS open at
	// runtime, the same as a backend lacking the check).
	EnableSelectRecursionCheck bool

	// SelectRecursionAsError escalates a detected select-only cycle from
	// diag.Warning (the default) to diag.Error, matching spec.md §8
	// scenario 6's "Verify with select_recursion_as_error returns
	// SelectRecursion" — implying the check reports but does not fail
	// the build unless this is set.
	SelectRecursionAsError bool

	// BrokenDebugInfoAsError escalates a diag.BrokenDebugInfo finding
	// (reported by the emitter/session layer when debug-info emission
	// was requested but the backend could not honor it) from Warning to
	// Error.
	BrokenDebugInfoAsError bool
}

// DefaultSettings returns the verifier's default limits: the
// select-recursion check runs and reports as a warning, never escalated.
func DefaultSettings() Settings {
	return Settings{
		MaxCallDepth:               256,
		EnableSelectRecursionCheck: true,
		SelectRecursionAsError:     false,
		BrokenDebugInfoAsError:     false,
	}
}

// FunctionInfo is what the verifier needs about one defined function,
// independent of whether it came from an ordinary FuncDecl or a
// monomorphised template instantiation.
type FunctionInfo struct {
	Name          string
	Body          *ast.BlockStmt
	IsVoid        bool
	SelectEligible bool // computed by ClassifySelectEligible
}

// CheckTermination verifies that every control-flow path through a
// non-void function's body ends in a return statement, reporting
// diag.MissingReturn at the function's body range otherwise. Void
// functions always pass (an implicit `return;` is legal at the end).
func CheckTermination(info FunctionInfo) *diag.Diagnostic {
	if info.IsVoid {
		return nil
	}
	if !blockAlwaysReturns(info.Body) {
		return diag.At(diag.Error, diag.MissingReturn, info.Body.Range,
			"function %q does not return a value on every path", info.Name)
	}
	return nil
}

func blockAlwaysReturns(b *ast.BlockStmt) bool {
	for _, s := range b.Statements {
		if stmtAlwaysReturns(s) {
			return true
		}
	}
	return false
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		return blockAlwaysReturns(n)
	case *ast.IfStmt:
		if n.Else == nil {
			return false
		}
		return stmtAlwaysReturns(n.Then) && stmtAlwaysReturns(n.Else)
	default:
		return false
	}
}

// ClassifySelectEligible reports whether fn's body is exactly a single
// `return select(cond, A, B);` statement — the one shape the emitter
// actually lowers to ir.Builder.Select (emitCall's builtin special
// case for the `select` identifier; see pkg/emitter/expr.go's
// emitSelectCall). An ordinary `if (cond) return A; return B;` body,
// however textually similar, is emitted as a genuine CondBr by
// emitIf and so is never select-eligible: the recursion it performs
// bottoms out at runtime exactly like any other conditional branch,
// which is precisely how spec.md's own factorial example recurses.
func ClassifySelectEligible(body *ast.BlockStmt) bool {
	stmts := body.Statements
	if len(stmts) != 1 {
		return false
	}
	ret, ok := stmts[0].(*ast.ReturnStmt)
	if !ok {
		return false
	}
	return isSelectCall(ret.Value)
}

func isSelectCall(e ast.Expr) bool {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return false
	}
	id, ok := call.Callee.(*ast.Identifier)
	return ok && id.Name == "select" && len(call.Args) == 3
}

// CallGraph is a static name-to-callees adjacency list built by
// NewCallGraph over every known function's body.
type CallGraph struct {
	funcs map[string]FunctionInfo
	order []string
	index map[string]int
	edges map[string][]string
}

// NewCallGraph builds a call graph from a set of functions, recording
// every direct call expression's callee name found in each body (calls
// to unknown names, e.g. host intrinsics, are simply not added as
// edges — they cannot participate in a VCL-level recursion cycle).
func NewCallGraph(funcs []FunctionInfo) *CallGraph {
	g := &CallGraph{
		funcs: make(map[string]FunctionInfo, len(funcs)),
		index: make(map[string]int, len(funcs)),
		edges: make(map[string][]string, len(funcs)),
	}
	for i, f := range funcs {
		g.funcs[f.Name] = f
		g.index[f.Name] = i
		g.order = append(g.order, f.Name)
	}
	for _, f := range funcs {
		g.edges[f.Name] = collectCallees(f.Body, g.index)
	}
	return g
}

func collectCallees(body *ast.BlockStmt, known map[string]int) []string {
	var callees []string
	var visitStmt func(ast.Stmt)
	var visitExpr func(ast.Expr)

	visitExpr = func(e ast.Expr) {
		switch n := e.(type) {
		case nil:
			return
		case *ast.CallExpr:
			if id, ok := n.Callee.(*ast.Identifier); ok {
				if _, ok := known[id.Name]; ok {
					callees = append(callees, id.Name)
				}
			}
			for _, a := range n.Args {
				visitExpr(a)
			}
		case *ast.BinaryExpr:
			visitExpr(n.LHS)
			visitExpr(n.RHS)
		case *ast.UnaryExpr:
			visitExpr(n.Operand)
		case *ast.IncDecExpr:
			visitExpr(n.Operand)
		case *ast.AssignExpr:
			visitExpr(n.LHS)
			visitExpr(n.RHS)
		case *ast.FieldExpr:
			visitExpr(n.Base)
		case *ast.SubscriptExpr:
			visitExpr(n.Base)
			visitExpr(n.Index)
		case *ast.AggregateExpr:
			for _, el := range n.Elements {
				visitExpr(el)
			}
		}
	}

	visitStmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.BlockStmt:
			for _, st := range n.Statements {
				visitStmt(st)
			}
		case *ast.ExprStmt:
			visitExpr(n.Expr)
		case *ast.ReturnStmt:
			visitExpr(n.Value)
		case *ast.VarDecl:
			visitExpr(n.Init)
		case *ast.IfStmt:
			visitExpr(n.Cond)
			visitStmt(n.Then)
			if n.Else != nil {
				visitStmt(n.Else)
			}
		case *ast.WhileStmt:
			visitExpr(n.Cond)
			visitStmt(n.Body)
		case *ast.ForStmt:
			if n.Init != nil {
				visitStmt(n.Init)
			}
			visitExpr(n.Cond)
			if n.Step != nil {
				visitStmt(n.Step)
			}
			visitStmt(n.Body)
		}
	}

	visitStmt(body)
	return callees
}

// CheckSelectRecursion walks the call graph from every select-eligible
// function, bounded by settings.MaxCallDepth, reporting a select-only
// cycle (diag.SelectRecursion) the first time it finds one that returns
// to a select-eligible function without passing through any function
// that isn't (a cycle entirely of branchless, unconditionally-both-
// arms-evaluated lowering, which would expand forever at IR build time
// rather than loop at runtime). A cycle that passes through at least one
// ordinarily-branched function is left alone — that recursion bottoms
// out via a real conditional branch at runtime, exactly like the spec's
// own factorial example.
//
// The finding is reported as diag.Warning unless settings.
// SelectRecursionAsError is set, matching spec.md §8 scenario 6. The
// check itself is skipped entirely when settings.EnableSelectRecursionCheck
// is false.
func CheckSelectRecursion(g *CallGraph, settings Settings) []*diag.Diagnostic {
	if !settings.EnableSelectRecursionCheck {
		return nil
	}
	severity := diag.Warning
	if settings.SelectRecursionAsError {
		severity = diag.Error
	}
	var diags []*diag.Diagnostic
	n := len(g.order)
	onStack := bitset.New(uint(n))
	visited := bitset.New(uint(n))
	reported := make(map[string]bool, n)

	var path []string
	// walk returns true the moment it finds (and reports) a select-only
	// cycle anywhere in name's subtree, so callers can stop exploring
	// siblings once one has been diagnosed for this root.
	var walk func(name string, depth int) bool
	walk = func(name string, depth int) bool {
		if depth > settings.MaxCallDepth {
			return false
		}
		idx := uint(g.index[name])
		if onStack.Test(idx) {
			if selectCyclePath(g, path, name) && !reported[name] {
				reported[name] = true
				diags = append(diags, diag.Global(severity, diag.SelectRecursion,
					"function %q recurses through only branchless (select-lowered) calls; this would expand without bound at code generation time", name))
				return true
			}
			return false
		}
		if visited.Test(idx) {
			return false
		}
		visited.Set(idx)
		onStack.Set(idx)
		path = append(path, name)
		found := false
		for _, callee := range g.edges[name] {
			if walk(callee, depth+1) {
				found = true
				break
			}
		}
		path = path[:len(path)-1]
		onStack.Clear(idx)
		return found
	}

	for _, name := range g.order {
		if g.funcs[name].SelectEligible && !visited.Test(uint(g.index[name])) {
			path = nil
			walk(name, 0)
		}
	}
	return diags
}

// selectCyclePath reports whether every function from closingName back
// to where it reappears in path is select-eligible — i.e. the cycle just
// closed is entirely branchless.
func selectCyclePath(g *CallGraph, path []string, closingName string) bool {
	start := -1
	for i, n := range path {
		if n == closingName {
			start = i
			break
		}
	}
	if start == -1 {
		return false
	}
	for _, n := range path[start:] {
		if !g.funcs[n].SelectEligible {
			return false
		}
	}
	return true
}

// ErrUnknownFunction names the error for a function the call graph does
// not know; no function in this package currently returns it.
var ErrUnknownFunction = fmt.Errorf("verifier: unknown function")
