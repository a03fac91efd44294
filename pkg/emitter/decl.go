package emitter

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/callable"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/ir"
	"github.com/hitoa/vclc/pkg/types"
	"github.com/hitoa/vclc/pkg/value"
)

func (e *Emitter) overloadSetFor(name string) *callable.OverloadSet {
	set, ok := e.overloads[name]
	if !ok {
		set = callable.NewOverloadSet(name)
		e.overloads[name] = set
	}
	return set
}

func paramsToCallable(params []callable.Param, retType types.TypeInfo, name string) *callable.Callable {
	return &callable.Callable{Name: name, Params: params, ReturnType: retType}
}

func (e *Emitter) resolveParams(params []ast.Param) ([]callable.Param, *diag.Diagnostic) {
	out := make([]callable.Param, 0, len(params))
	for _, p := range params {
		t, d := e.resolveTypeExpr(p.Type)
		if d != nil {
			return nil, d
		}
		out = append(out, callable.Param{Name: p.Name, Type: t, Policy: callable.PolicyExact})
	}
	return out, nil
}

// registerFuncProto declares an external/forward function signature with
// no body, e.g. a host intrinsic surfaced through ordinary VCL syntax.
func (e *Emitter) registerFuncProto(n *ast.FuncProto) {
	retType, d := e.resolveTypeExpr(n.ReturnType)
	if d != nil {
		e.report(d)
		return
	}
	params, d := e.resolveParams(n.Params)
	if d != nil {
		e.report(d)
		return
	}
	c := paramsToCallable(params, retType, n.Name)
	e.overloadSetFor(n.Name).Add(c)

	paramTypesIR := make([]ir.Type, len(params))
	b := e.Backend.NewBuilder()
	fn := b.DeclareFunction(n.Name, paramTypesIR, nil)
	e.functions = append(e.functions, FunctionRecord{Callable: c, Handle: fn})
}

// emitFuncDecl lowers a concrete function definition's body.
func (e *Emitter) emitFuncDecl(n *ast.FuncDecl) {
	retType, d := e.resolveTypeExpr(n.ReturnType)
	if d != nil {
		e.report(d)
		return
	}
	params, d := e.resolveParams(n.Params)
	if d != nil {
		e.report(d)
		return
	}
	c := paramsToCallable(params, retType, n.Name)
	e.overloadSetFor(n.Name).Add(c)

	guard := pushFrame(e)
	defer guard.Release()

	paramTypesIR := make([]ir.Type, len(params))
	builder := e.Backend.NewBuilder()
	fn := builder.DeclareFunction(n.Name, paramTypesIR, nil)
	// Recorded before the body is emitted so the body can call itself.
	e.functions = append(e.functions, FunctionRecord{Callable: c, Decl: n, Handle: fn})

	prevBuilder, prevFn, prevRet := e.builder, e.curFunc, e.curRetType
	e.builder, e.curFunc, e.curRetType = builder, fn, retType
	defer func() { e.builder, e.curFunc, e.curRetType = prevBuilder, prevFn, prevRet }()

	entry := builder.EntryBlock(fn)
	builder.SetInsertPoint(entry)

	for i, p := range params {
		storage := builder.Alloca(nil, p.Name)
		builder.Store(storage, builder.Param(fn, i))
		lv := value.LValue(p.Type, storage, false)
		if !e.Scope.DeclareValue(p.Name, lv) {
			e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "parameter %q redeclared", p.Name))
		}
	}

	e.emitBlockInline(n.Body)

	if !builder.HasTerminator(builder.CurrentBlock()) {
		e.emitFallthroughReturn(retType)
	}

	if err := e.Module.Define(fn); err != nil {
		e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "%s", err.Error()))
	}
}

// emitFallthroughReturn closes out a function body that didn't end in an
// explicit return on every path: void functions get an implicit
// `return;`, non-void functions get a zero value of their return type so
// the IR stays well-formed. The missing-return itself is reported by
// pkg/verifier's static CheckTermination pass, not here.
func (e *Emitter) emitFallthroughReturn(retType types.TypeInfo) {
	if retType.Kind == types.Void {
		e.builder.RetVoid()
		return
	}
	e.builder.Ret(e.zeroValue(retType).Handle)
}

func (e *Emitter) zeroValue(t types.TypeInfo) value.Value {
	switch t.ElementKind() {
	case types.Float:
		return value.RValue(t, e.builder.ConstFloat(0))
	case types.Bool:
		return value.RValue(t, e.builder.ConstBool(false))
	default:
		return value.RValue(t, e.builder.ConstInt(0))
	}
}

// emitVarDecl lowers a variable declaration, at either program scope
// (a global) or function scope (a local).
func (e *Emitter) emitVarDecl(n *ast.VarDecl) {
	t, d := e.resolveTypeExpr(n.Type)
	if d != nil {
		e.report(d)
		return
	}
	if e.Scope.IsAtProgramScope() {
		e.emitGlobalVarDecl(n, t)
		return
	}
	e.emitLocalVarDecl(n, t)
}

func (e *Emitter) emitGlobalVarDecl(n *ast.VarDecl, t types.TypeInfo) {
	external := t.Qualifiers.Has(types.QualIn) || t.Qualifiers.Has(types.QualOut)
	isConst := t.Qualifiers.Has(types.QualConst)
	b := e.globalBuilder()
	handle := b.CreateGlobal(n.Name, nil, external, isConst, n.Init == nil)
	lv := value.LValue(t, handle, isConst)
	if n.Init != nil {
		rv, ok := e.foldConstant(n.Init, t)
		if !ok {
			e.report(diag.At(diag.Error, diag.NonConstantInitializer, n.Range,
				"global variable %q must be initialised with a compile-time constant", n.Name))
		} else {
			b.Store(handle, rv.Handle)
		}
	}
	if !e.Scope.DeclareValue(n.Name, lv) {
		e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "%q redefined", n.Name))
	}
}

func (e *Emitter) emitLocalVarDecl(n *ast.VarDecl, t types.TypeInfo) {
	isConst := t.Qualifiers.Has(types.QualConst)
	storage := e.builder.Alloca(nil, n.Name)
	lv := value.LValue(t, storage, isConst)
	if agg, ok := n.Init.(*ast.AggregateExpr); ok {
		if d := e.emitAggregateInto(lv, agg); d != nil {
			e.report(d)
		}
	} else if n.Init != nil {
		rv, d := e.emitExpr(n.Init)
		if d != nil {
			e.report(d)
		} else {
			cast, d := e.applyImplicitCast(n.Range, rv, t)
			if d != nil {
				e.report(d)
			} else {
				// Stored directly: a const local's initialiser is its one legal write.
				e.builder.Store(storage, cast.Handle)
			}
		}
	}
	if !e.Scope.DeclareValue(n.Name, lv) {
		e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "%q redefined", n.Name))
	}
}

// globalBuilder lazily creates the single Builder instance used to
// declare and initialise program-scope globals, independent of whatever
// function-local Builder is current (global initialisation always
// happens before any function body runs, mirroring a real program's
// static-initialiser order).
func (e *Emitter) globalBuilder() ir.Builder {
	if e.globalB == nil {
		e.globalB = e.Backend.NewBuilder()
	}
	return e.globalB
}
