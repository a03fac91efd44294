package directive

import (
	"testing"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
)

// fakeCtx is a minimal RunContext double: LoadImport returns whatever was
// configured, EmitStatements just records what it was handed (so a test
// can assert which branch a handler chose to re-enter), and InScope
// consults a plain set.
type fakeCtx struct {
	loadAbs   string
	loadStmts []ast.Stmt
	loadErr   *diag.Diagnostic
	inScope   map[string]bool
	emitted   [][]ast.Stmt
}

func (f *fakeCtx) LoadImport(path string) (string, []ast.Stmt, *diag.Diagnostic) {
	return f.loadAbs, f.loadStmts, f.loadErr
}

func (f *fakeCtx) EmitStatements(stmts []ast.Stmt) []*diag.Diagnostic {
	f.emitted = append(f.emitted, stmts)
	return nil
}

func (f *fakeCtx) InScope(name string) bool { return f.inScope[name] }

func TestStateMarkImportedDedups(t *testing.T) {
	s := NewState()
	if already := s.MarkImported("/a.vcl"); already {
		t.Fatalf("first MarkImported of a fresh path must report false")
	}
	if already := s.MarkImported("/a.vcl"); !already {
		t.Fatalf("second MarkImported of the same path must report true")
	}
}

func TestStateDefineAndIsDefined(t *testing.T) {
	s := NewState()
	if _, ok := s.IsDefined("FOO"); ok {
		t.Fatalf("FOO must not be defined yet")
	}
	s.Define("FOO", Literal{Kind: LiteralInt, Int: 42})
	lit, ok := s.IsDefined("FOO")
	if !ok || lit.Int != 42 {
		t.Fatalf("expected FOO defined as int 42, got %+v ok=%v", lit, ok)
	}
}

func TestEvalStaticLiterals(t *testing.T) {
	s := NewState()
	if v, err := EvalStatic(&ast.IntLiteral{Value: 0}, s, nil); err != nil || v {
		t.Fatalf("int literal 0 must evaluate false, got %v err=%v", v, err)
	}
	if v, err := EvalStatic(&ast.IntLiteral{Value: 1}, s, nil); err != nil || !v {
		t.Fatalf("int literal 1 must evaluate true, got %v err=%v", v, err)
	}
	if v, err := EvalStatic(&ast.FloatLiteral{Value: 0}, s, nil); err != nil || v {
		t.Fatalf("float literal 0 must evaluate false, got %v err=%v", v, err)
	}
}

func TestEvalStaticIdentifierFlagDefineIsAlwaysTrue(t *testing.T) {
	s := NewState()
	s.Define("FLAG", Literal{Kind: LiteralNone})
	v, err := EvalStatic(&ast.Identifier{Name: "FLAG"}, s, nil)
	if err != nil || !v {
		t.Fatalf("a flag-only @define must evaluate true regardless of any payload, got %v err=%v", v, err)
	}
}

func TestEvalStaticIdentifierValueDefineUsesTruthiness(t *testing.T) {
	s := NewState()
	s.Define("ZERO", Literal{Kind: LiteralInt, Int: 0})
	if v, err := EvalStatic(&ast.Identifier{Name: "ZERO"}, s, nil); err != nil || v {
		t.Fatalf("@define ZERO = 0 must evaluate false, got %v err=%v", v, err)
	}
}

func TestEvalStaticIdentifierFallsBackToScope(t *testing.T) {
	s := NewState()
	inScope := func(name string) bool { return name == "x" }
	if v, err := EvalStatic(&ast.Identifier{Name: "x"}, s, inScope); err != nil || !v {
		t.Fatalf("an undefined but in-scope identifier must evaluate true, got %v err=%v", v, err)
	}
	if v, err := EvalStatic(&ast.Identifier{Name: "y"}, s, inScope); err != nil || v {
		t.Fatalf("an undefined, out-of-scope identifier must evaluate false, got %v err=%v", v, err)
	}
}

func TestEvalStaticNotNegates(t *testing.T) {
	s := NewState()
	v, err := EvalStatic(&ast.UnaryExpr{Op: ast.OpNot, Operand: &ast.IntLiteral{Value: 1}}, s, nil)
	if err != nil || v {
		t.Fatalf("!1 must evaluate false, got %v err=%v", v, err)
	}
}

func TestEvalStaticRejectsNonNotUnary(t *testing.T) {
	s := NewState()
	if _, err := EvalStatic(&ast.UnaryExpr{Op: ast.OpNeg, Operand: &ast.IntLiteral{Value: 1}}, s, nil); err == nil {
		t.Fatalf("expected an error for a unary operator other than '!'")
	}
}

func TestEvalStaticDefinedCall(t *testing.T) {
	s := NewState()
	s.Define("FOO", Literal{Kind: LiteralNone})
	call := &ast.CallExpr{Callee: &ast.Identifier{Name: "defined"}, Args: []ast.Expr{&ast.Identifier{Name: "FOO"}}}
	if v, err := EvalStatic(call, s, nil); err != nil || !v {
		t.Fatalf("defined(FOO) must evaluate true, got %v err=%v", v, err)
	}
	call2 := &ast.CallExpr{Callee: &ast.Identifier{Name: "defined"}, Args: []ast.Expr{&ast.Identifier{Name: "BAR"}}}
	if v, err := EvalStatic(call2, s, nil); err != nil || v {
		t.Fatalf("defined(BAR) must evaluate false, got %v err=%v", v, err)
	}
}

func TestEvalStaticRejectsNonDefinedCall(t *testing.T) {
	s := NewState()
	call := &ast.CallExpr{Callee: &ast.Identifier{Name: "other"}, Args: []ast.Expr{&ast.Identifier{Name: "FOO"}}}
	if _, err := EvalStatic(call, s, nil); err == nil {
		t.Fatalf("expected an error for a call to anything other than defined()")
	}
}

func TestEvalStaticRejectsUnsupportedConstruct(t *testing.T) {
	s := NewState()
	if _, err := EvalStatic(&ast.BinaryExpr{Op: ast.OpAdd, LHS: &ast.IntLiteral{Value: 1}, RHS: &ast.IntLiteral{Value: 2}}, s, nil); err == nil {
		t.Fatalf("expected an error for a construct @if's restricted grammar does not allow")
	}
}

func TestRegistryRunUnknownDirectiveReportsUndefinedName(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	diags := r.Run(s, &ast.DirectiveStmt{Name: "nope"}, &fakeCtx{})
	if len(diags) != 1 || diags[0].Code != diag.UndefinedName {
		t.Fatalf("expected a single UndefinedName diagnostic, got %v", diags)
	}
}

func TestImportHandlerEmitsOnFirstImportAndNoOpsOnSecond(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	stmts := []ast.Stmt{&ast.VarDecl{Name: "x"}}
	ctx := &fakeCtx{loadAbs: "/lib.vcl", loadStmts: stmts}
	d := &ast.DirectiveStmt{Kind: ast.DirectiveImport, Name: "import", ImportPath: "lib.vcl"}

	if diags := r.Run(s, d, ctx); len(diags) != 0 {
		t.Fatalf("first import: unexpected diagnostics %v", diags)
	}
	if len(ctx.emitted) != 1 {
		t.Fatalf("expected EmitStatements called once after the first import, got %d calls", len(ctx.emitted))
	}

	if diags := r.Run(s, d, ctx); len(diags) != 0 {
		t.Fatalf("second import: unexpected diagnostics %v", diags)
	}
	if len(ctx.emitted) != 1 {
		t.Fatalf("expected a duplicate @import to be a no-op, but EmitStatements was called %d times", len(ctx.emitted))
	}
}

func TestImportHandlerPropagatesLoadError(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	loadErr := diag.Global(diag.Error, diag.FileNotFound, "nope")
	ctx := &fakeCtx{loadErr: loadErr}
	d := &ast.DirectiveStmt{Kind: ast.DirectiveImport, Name: "import", ImportPath: "missing.vcl"}
	diags := r.Run(s, d, ctx)
	if len(diags) != 1 || diags[0] != loadErr {
		t.Fatalf("expected LoadImport's error to propagate unchanged, got %v", diags)
	}
}

func TestDefineHandlerRecordsFlagAndLiteral(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	flag := &ast.DirectiveStmt{Kind: ast.DirectiveDefine, Name: "define", DefineName: "FLAG"}
	if diags := r.Run(s, flag, &fakeCtx{}); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	lit, ok := s.IsDefined("FLAG")
	if !ok || lit.Kind != LiteralNone {
		t.Fatalf("expected FLAG defined as a bare flag, got %+v ok=%v", lit, ok)
	}

	valued := &ast.DirectiveStmt{Kind: ast.DirectiveDefine, Name: "define", DefineName: "N", DefineValue: &ast.IntLiteral{Value: 7}}
	if diags := r.Run(s, valued, &fakeCtx{}); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	lit, ok = s.IsDefined("N")
	if !ok || lit.Kind != LiteralInt || lit.Int != 7 {
		t.Fatalf("expected N defined as int 7, got %+v ok=%v", lit, ok)
	}
}

func TestDefineHandlerRejectsNonLiteralValue(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	d := &ast.DirectiveStmt{Kind: ast.DirectiveDefine, Name: "define", DefineName: "BAD", DefineValue: &ast.Identifier{Name: "other"}}
	diags := r.Run(s, d, &fakeCtx{})
	if len(diags) != 1 || diags[0].Code != diag.UnsupportedCast {
		t.Fatalf("expected UnsupportedCast for a non-literal @define value, got %v", diags)
	}
}

func TestIfHandlerSelectsThenBranch(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	thenStmts := []ast.Stmt{&ast.VarDecl{Name: "then-branch"}}
	elseStmts := []ast.Stmt{&ast.VarDecl{Name: "else-branch"}}
	ctx := &fakeCtx{}
	d := &ast.DirectiveStmt{Kind: ast.DirectiveIf, Name: "if", IfCond: &ast.IntLiteral{Value: 1}, IfThen: thenStmts, IfElse: elseStmts}
	if diags := r.Run(s, d, ctx); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(ctx.emitted) != 1 || len(ctx.emitted[0]) != 1 || ctx.emitted[0][0].(*ast.VarDecl).Name != "then-branch" {
		t.Fatalf("expected the then branch to be emitted, got %v", ctx.emitted)
	}
}

func TestIfHandlerSelectsElseBranch(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	thenStmts := []ast.Stmt{&ast.VarDecl{Name: "then-branch"}}
	elseStmts := []ast.Stmt{&ast.VarDecl{Name: "else-branch"}}
	ctx := &fakeCtx{}
	d := &ast.DirectiveStmt{Kind: ast.DirectiveIf, Name: "if", IfCond: &ast.IntLiteral{Value: 0}, IfThen: thenStmts, IfElse: elseStmts}
	if diags := r.Run(s, d, ctx); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(ctx.emitted) != 1 || len(ctx.emitted[0]) != 1 || ctx.emitted[0][0].(*ast.VarDecl).Name != "else-branch" {
		t.Fatalf("expected the else branch to be emitted, got %v", ctx.emitted)
	}
}

func TestIfHandlerPropagatesEvalError(t *testing.T) {
	r := NewRegistry()
	s := NewState()
	d := &ast.DirectiveStmt{Kind: ast.DirectiveIf, Name: "if", IfCond: &ast.BinaryExpr{Op: ast.OpAdd, LHS: &ast.IntLiteral{Value: 1}, RHS: &ast.IntLiteral{Value: 2}}}
	diags := r.Run(s, d, &fakeCtx{})
	if len(diags) != 1 {
		t.Fatalf("expected a single diagnostic for an unevaluable @if condition, got %v", diags)
	}
}
