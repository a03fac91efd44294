package emitter

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/ir"
	"github.com/hitoa/vclc/pkg/scope"
	"github.com/hitoa/vclc/pkg/source"
	"github.com/hitoa/vclc/pkg/types"
	"github.com/hitoa/vclc/pkg/value"
)

// pushFrame enters a new lexical scope frame, returning a Guard the
// caller must Release (typically via defer) on every exit path.
func pushFrame(e *Emitter) *scope.Guard {
	return scope.EnterScope(e.Scope, nil)
}

// pushLoopFrame enters a new frame establishing breakTarget as the
// nearest enclosing loop's break target, for `break` resolution.
func pushLoopFrame(e *Emitter, breakTarget ir.BasicBlock) *scope.Guard {
	return scope.EnterScope(e.Scope, breakTarget)
}

// emitBlockInline emits a function's top-level body without pushing an
// extra frame (parameters already live in the function's own frame, and
// VCL's block scoping treats a function body as sharing it).
func (e *Emitter) emitBlockInline(b *ast.BlockStmt) {
	for _, s := range b.Statements {
		if e.builder.HasTerminator(e.builder.CurrentBlock()) {
			break // unreachable statements after a return are simply skipped
		}
		e.emitStmt(s)
	}
}

// emitBlock pushes a fresh frame for a nested `{ ... }` (if/while/for
// body), then emits its statements.
func (e *Emitter) emitBlock(b *ast.BlockStmt) {
	guard := pushFrame(e)
	defer guard.Release()
	e.emitBlockInline(b)
}

func (e *Emitter) emitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		e.emitVarDecl(n)
	case *ast.BlockStmt:
		e.emitBlock(n)
	case *ast.ExprStmt:
		if _, d := e.emitExpr(n.Expr); d != nil {
			e.report(d)
		}
	case *ast.ReturnStmt:
		e.emitReturn(n)
	case *ast.IfStmt:
		e.emitIf(n)
	case *ast.WhileStmt:
		e.emitWhile(n)
	case *ast.ForStmt:
		e.emitFor(n)
	case *ast.BreakStmt:
		e.emitBreak(n)
	case *ast.DirectiveStmt:
		e.reportAll(e.dirRegistry.Run(e.dirState, n, e))
	case *ast.StructDecl, *ast.StructTemplateDecl, *ast.FuncTemplateDecl, *ast.FuncProto, *ast.FuncDecl:
		// Nested declarations are accepted at any scope depth (spec.md
		// treats the whole statement grammar uniformly); route back to
		// the top-level dispatcher.
		e.emitTopLevelOrStmt(s)
	default:
		e.report(diag.Global(diag.Error, diag.UnexpectedToken, "emitter: unsupported statement kind %s", s.NodeKind()))
	}
}

func (e *Emitter) emitReturn(n *ast.ReturnStmt) {
	if n.Value == nil {
		e.builder.RetVoid()
		return
	}
	rv, d := e.emitExpr(n.Value)
	if d != nil {
		e.report(d)
		return
	}
	cast, d := e.applyImplicitCast(n.Range, rv, e.curRetType)
	if d != nil {
		e.report(d)
		return
	}
	e.builder.Ret(cast.Handle)
}

func (e *Emitter) emitIf(n *ast.IfStmt) {
	condVal, d := e.emitExpr(n.Cond)
	if d != nil {
		e.report(d)
		return
	}
	condVal = loadBool(e, n.Range, condVal)

	fn := e.curFunc
	thenBlock := e.builder.CreateBlock(fn, "if.then")
	elseBlock := e.builder.CreateBlock(fn, "if.else")
	mergeBlock := e.builder.CreateBlock(fn, "if.end")

	e.builder.CondBr(condVal.Handle, thenBlock, elseBlock)

	e.builder.SetInsertPoint(thenBlock)
	e.emitStmt(n.Then)
	if !e.builder.HasTerminator(e.builder.CurrentBlock()) {
		e.builder.Br(mergeBlock)
	}

	e.builder.SetInsertPoint(elseBlock)
	if n.Else != nil {
		e.emitStmt(n.Else)
	}
	if !e.builder.HasTerminator(e.builder.CurrentBlock()) {
		e.builder.Br(mergeBlock)
	}

	e.builder.SetInsertPoint(mergeBlock)
}

func (e *Emitter) emitWhile(n *ast.WhileStmt) {
	fn := e.curFunc
	condBlock := e.builder.CreateBlock(fn, "while.cond")
	bodyBlock := e.builder.CreateBlock(fn, "while.body")
	endBlock := e.builder.CreateBlock(fn, "while.end")

	e.builder.Br(condBlock)
	e.builder.SetInsertPoint(condBlock)
	condVal, d := e.emitExpr(n.Cond)
	if d != nil {
		e.report(d)
		return
	}
	condVal = loadBool(e, n.Range, condVal)
	e.builder.CondBr(condVal.Handle, bodyBlock, endBlock)

	e.builder.SetInsertPoint(bodyBlock)
	guard := pushLoopFrame(e, endBlock)
	e.emitStmt(n.Body)
	guard.Release()
	if !e.builder.HasTerminator(e.builder.CurrentBlock()) {
		e.builder.Br(condBlock)
	}

	e.builder.SetInsertPoint(endBlock)
}

func (e *Emitter) emitFor(n *ast.ForStmt) {
	guard := pushFrame(e)
	defer guard.Release()
	if n.Init != nil {
		e.emitStmt(n.Init)
	}

	fn := e.curFunc
	condBlock := e.builder.CreateBlock(fn, "for.cond")
	bodyBlock := e.builder.CreateBlock(fn, "for.body")
	stepBlock := e.builder.CreateBlock(fn, "for.step")
	endBlock := e.builder.CreateBlock(fn, "for.end")

	e.builder.Br(condBlock)
	e.builder.SetInsertPoint(condBlock)
	if n.Cond != nil {
		condVal, d := e.emitExpr(n.Cond)
		if d != nil {
			e.report(d)
			return
		}
		condVal = loadBool(e, n.Range, condVal)
		e.builder.CondBr(condVal.Handle, bodyBlock, endBlock)
	} else {
		e.builder.Br(bodyBlock)
	}

	e.builder.SetInsertPoint(bodyBlock)
	loopGuard := pushLoopFrame(e, endBlock)
	e.emitStmt(n.Body)
	loopGuard.Release()
	if !e.builder.HasTerminator(e.builder.CurrentBlock()) {
		e.builder.Br(stepBlock)
	}

	e.builder.SetInsertPoint(stepBlock)
	if n.Step != nil {
		e.emitStmt(n.Step)
	}
	if !e.builder.HasTerminator(e.builder.CurrentBlock()) {
		e.builder.Br(condBlock)
	}

	e.builder.SetInsertPoint(endBlock)
}

func (e *Emitter) emitBreak(n *ast.BreakStmt) {
	target, ok := e.Scope.BreakTargetFrame()
	if !ok {
		e.report(diag.At(diag.Error, diag.BreakOutsideLoop, n.Range, "break used outside a loop"))
		return
	}
	e.builder.Br(target.(ir.BasicBlock))
}

// loadBool loads cond and reports TypeMismatch if it isn't bool/vbool,
// returning cond unchanged (still usable, best-effort) on failure so
// emission can keep going.
func loadBool(e *Emitter, r source.Range, cond value.Value) value.Value {
	loaded := value.Load(e.builder, cond)
	if loaded.Type.Kind != types.Bool && loaded.Type.Kind != types.VectorBool {
		e.report(diag.At(diag.Error, diag.TypeMismatch, r, "condition must be bool or vbool, got %s", loaded.Type))
	}
	return loaded
}
