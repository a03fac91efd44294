package verifier_test

import (
	"testing"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/parser"
	"github.com/hitoa/vclc/pkg/source"
	"github.com/hitoa/vclc/pkg/verifier"
)

// funcBody parses src (a single function declaration) and returns its body.
func funcBody(t *testing.T, src string) *ast.BlockStmt {
	t.Helper()
	buf := source.NewBuffer("test.vcl", []byte(src))
	prog, diags := parser.New(buf).ParseProgram()
	if len(diags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	fn, ok := prog.Statements[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected a single FuncDecl, got %T", prog.Statements[0])
	}
	return fn.Body
}

func TestCheckTerminationAcceptsReturningPaths(t *testing.T) {
	body := funcBody(t, `int f(int n){ if(n<=1) return 1; return n; }`)
	d := verifier.CheckTermination(verifier.FunctionInfo{Name: "f", Body: body, IsVoid: false})
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
}

func TestCheckTerminationRejectsMissingReturn(t *testing.T) {
	body := funcBody(t, `int f(int n){ if(n<=1) return 1; }`)
	d := verifier.CheckTermination(verifier.FunctionInfo{Name: "f", Body: body, IsVoid: false})
	if d == nil {
		t.Fatalf("expected a MissingReturn diagnostic")
	}
	if d.Code != diag.MissingReturn {
		t.Fatalf("expected MissingReturn, got %v", d.Code)
	}
}

func TestCheckTerminationIfElseBothReturn(t *testing.T) {
	body := funcBody(t, `int f(int n){ if(n>0) return 1; else return 0; }`)
	d := verifier.CheckTermination(verifier.FunctionInfo{Name: "f", Body: body, IsVoid: false})
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
}

func TestCheckTerminationVoidAlwaysPasses(t *testing.T) {
	body := funcBody(t, `void f(int n){ int x = n; }`)
	d := verifier.CheckTermination(verifier.FunctionInfo{Name: "f", Body: body, IsVoid: true})
	if d != nil {
		t.Fatalf("void function should never report MissingReturn, got %v", d)
	}
}

func TestClassifySelectEligibleRejectsIfReturnIdiom(t *testing.T) {
	// Textually similar to the select-call idiom, but emitIf lowers this
	// to a genuine CondBr (see pkg/emitter/stmt.go), not ir.Builder.Select
	// — so it must never be classified select-eligible, or spec.md's own
	// factorial example (which recurses through exactly this shape)
	// would be wrongly rejected as unbounded.
	body := funcBody(t, `int max2(int a, int b){ if(a>b) return a; return b; }`)
	if verifier.ClassifySelectEligible(body) {
		t.Fatalf("the if/return, return idiom must not be select-eligible")
	}
}

func TestClassifySelectEligibleSelectCallIdiom(t *testing.T) {
	body := funcBody(t, `float f(float x){ return select(x>0, x, 0); }`)
	if !verifier.ClassifySelectEligible(body) {
		t.Fatalf("expected a single `return select(...)` statement to be select-eligible")
	}
}

func TestClassifySelectEligibleRejectsLoops(t *testing.T) {
	body := funcBody(t, `int f(int n){ while(n>0){ n = n-1; } return n; }`)
	if verifier.ClassifySelectEligible(body) {
		t.Fatalf("a loop-bearing body must never be select-eligible")
	}
}

func TestClassifySelectEligibleRejectsExtraStatements(t *testing.T) {
	body := funcBody(t, `int f(int n){ int x = n; if(x>0) return x; return 0; }`)
	if verifier.ClassifySelectEligible(body) {
		t.Fatalf("a body with a leading statement before if/return must not be select-eligible")
	}
}

// buildGraph parses every src string as one function declaration and
// assembles a CallGraph with each one classified via ClassifySelectEligible.
func buildGraph(t *testing.T, srcs ...string) *verifier.CallGraph {
	t.Helper()
	var infos []verifier.FunctionInfo
	for _, src := range srcs {
		buf := source.NewBuffer("test.vcl", []byte(src))
		prog, diags := parser.New(buf).ParseProgram()
		if len(diags) > 0 {
			t.Fatalf("unexpected parse diagnostics: %v", diags)
		}
		fn := prog.Statements[0].(*ast.FuncDecl)
		infos = append(infos, verifier.FunctionInfo{
			Name:           fn.Name,
			Body:           fn.Body,
			IsVoid:         fn.ReturnType.Name == "void",
			SelectEligible: verifier.ClassifySelectEligible(fn.Body),
		})
	}
	return verifier.NewCallGraph(infos)
}

func TestCheckSelectRecursionRejectsSelectOnlyCycle(t *testing.T) {
	g := buildGraph(t, `float f(float x){ return select(x>0, f(x-1), 0); }`)
	diags := verifier.CheckSelectRecursion(g, verifier.DefaultSettings())
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code != diag.SelectRecursion {
		t.Fatalf("expected SelectRecursion, got %v", diags[0].Code)
	}
}

func TestCheckSelectRecursionDefaultSettingsReportsWarningNotError(t *testing.T) {
	g := buildGraph(t, `float f(float x){ return select(x>0, f(x-1), 0); }`)
	diags := verifier.CheckSelectRecursion(g, verifier.DefaultSettings())
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Severity != diag.Warning {
		t.Fatalf("expected the default (non-strict) path to report Warning, got %v", diags[0].Severity)
	}
}

func TestCheckSelectRecursionAsErrorEscalatesSeverity(t *testing.T) {
	g := buildGraph(t, `float f(float x){ return select(x>0, f(x-1), 0); }`)
	settings := verifier.DefaultSettings()
	settings.SelectRecursionAsError = true
	diags := verifier.CheckSelectRecursion(g, settings)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Severity != diag.Error {
		t.Fatalf("expected SelectRecursionAsError to escalate to Error, got %v", diags[0].Severity)
	}
}

func TestCheckSelectRecursionDisabledSkipsCheckEntirely(t *testing.T) {
	g := buildGraph(t, `float f(float x){ return select(x>0, f(x-1), 0); }`)
	diags := verifier.CheckSelectRecursion(g, verifier.Settings{MaxCallDepth: 256})
	if len(diags) != 0 {
		t.Fatalf("expected EnableSelectRecursionCheck=false to skip the check entirely, got %v", diags)
	}
}

func TestCheckSelectRecursionAllowsBranchedRecursion(t *testing.T) {
	g := buildGraph(t, `int fact(int n){ if(n<=1) return 1; return n*fact(n-1); }`)
	diags := verifier.CheckSelectRecursion(g, verifier.DefaultSettings())
	if len(diags) != 0 {
		t.Fatalf("ordinary branching recursion must not be flagged, got %v", diags)
	}
}

func TestCheckSelectRecursionAllowsMixedCycle(t *testing.T) {
	// a calls (select-eligible) b, b calls a through an ordinary branch;
	// the cycle passes through a non-select-eligible function so it is a
	// real runtime loop, not an unbounded compile-time expansion.
	g := buildGraph(t,
		`int a(int n){ return select(n>0, b(n), 0); }`,
		`int b(int n){ if(n<=0){ return 0; } int m = n-1; return a(m); }`,
	)
	diags := verifier.CheckSelectRecursion(g, verifier.DefaultSettings())
	if len(diags) != 0 {
		t.Fatalf("a cycle through a normally-branched function must not be flagged, got %v", diags)
	}
}
