package emitter

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/callable"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/ir"
	"github.com/hitoa/vclc/pkg/source"
	"github.com/hitoa/vclc/pkg/template"
	"github.com/hitoa/vclc/pkg/types"
	"github.com/hitoa/vclc/pkg/value"
)

// emitExpr lowers one expression node, returning its typed Value (which
// may be an l-value — callers that need an r-value call value.Load
// themselves, since e.g. emitAssign needs the unloaded l-value).
func (e *Emitter) emitExpr(expr ast.Expr) (value.Value, *diag.Diagnostic) {
	switch n := expr.(type) {
	case *ast.IntLiteral:
		return value.RValue(types.IntType, e.builder.ConstInt(int32(n.Value))), nil
	case *ast.FloatLiteral:
		return value.RValue(types.FloatType, e.builder.ConstFloat(float32(n.Value))), nil
	case *ast.Identifier:
		return e.emitIdentifier(n)
	case *ast.BinaryExpr:
		return e.emitBinary(n)
	case *ast.UnaryExpr:
		return e.emitUnary(n)
	case *ast.IncDecExpr:
		return e.emitIncDec(n)
	case *ast.AssignExpr:
		return e.emitAssign(n)
	case *ast.FieldExpr:
		return e.emitField(n)
	case *ast.SubscriptExpr:
		return e.emitSubscript(n)
	case *ast.CallExpr:
		return e.emitCall(n)
	case *ast.AggregateExpr:
		return value.Value{}, diag.At(diag.Error, diag.UnsupportedAggregate, n.Range,
			"aggregate literal has no target type in this context; use it directly as a variable initialiser or cast")
	case *ast.StringLiteral:
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "string literals are only valid in directive contexts")
	default:
		return value.Value{}, diag.Global(diag.Error, diag.UnexpectedToken, "emitter: unsupported expression kind %s", expr.NodeKind())
	}
}

func (e *Emitter) emitIdentifier(n *ast.Identifier) (value.Value, *diag.Diagnostic) {
	raw, ok := e.Scope.LookupValue(n.Name)
	if !ok {
		return value.Value{}, diag.At(diag.Error, diag.UndefinedName, n.Range, "undefined name %q", n.Name)
	}
	return raw.(value.Value), nil
}

func (e *Emitter) emitBinary(n *ast.BinaryExpr) (value.Value, *diag.Diagnostic) {
	lhs, d := e.emitExpr(n.LHS)
	if d != nil {
		return value.Value{}, d
	}
	rhs, d := e.emitExpr(n.RHS)
	if d != nil {
		return value.Value{}, d
	}
	lhs, rhs = value.Load(e.builder, lhs), value.Load(e.builder, rhs)

	switch n.Op {
	case ast.OpAnd, ast.OpOr:
		return e.emitLogical(n, lhs, rhs)
	case ast.OpGt, ast.OpLt, ast.OpGe, ast.OpLe, ast.OpEq, ast.OpNe:
		return e.emitComparison(n, lhs, rhs)
	default:
		return e.emitArithmetic(n, lhs, rhs)
	}
}

func (e *Emitter) emitArithmetic(n *ast.BinaryExpr, lhs, rhs value.Value) (value.Value, *diag.Diagnostic) {
	resultType, d := e.arithmeticResultType(n.Range, lhs.Type, rhs.Type)
	if d != nil {
		return value.Value{}, d
	}
	a := e.convert(lhs, resultType)
	b := e.convert(rhs, resultType)
	isFloat := resultType.ElementKind() == types.Float
	var handle ir.Value
	switch n.Op {
	case ast.OpAdd:
		if isFloat {
			handle = e.builder.FAdd(a.Handle, b.Handle)
		} else {
			handle = e.builder.IAdd(a.Handle, b.Handle)
		}
	case ast.OpSub:
		if isFloat {
			handle = e.builder.FSub(a.Handle, b.Handle)
		} else {
			handle = e.builder.ISub(a.Handle, b.Handle)
		}
	case ast.OpMul:
		if isFloat {
			handle = e.builder.FMul(a.Handle, b.Handle)
		} else {
			handle = e.builder.IMul(a.Handle, b.Handle)
		}
	case ast.OpDiv:
		if isFloat {
			handle = e.builder.FDiv(a.Handle, b.Handle)
		} else {
			handle = e.builder.IDiv(a.Handle, b.Handle)
		}
	case ast.OpMod:
		if isFloat {
			return value.Value{}, diag.At(diag.Error, diag.UnsupportedCast, n.Range, "%% is only defined for int/vint operands")
		}
		handle = e.builder.IMod(a.Handle, b.Handle)
	}
	return value.RValue(resultType, handle), nil
}

func (e *Emitter) emitComparison(n *ast.BinaryExpr, lhs, rhs value.Value) (value.Value, *diag.Diagnostic) {
	operandType, d := e.arithmeticResultType(n.Range, lhs.Type, rhs.Type)
	if d != nil {
		return value.Value{}, d
	}
	a := e.convert(lhs, operandType)
	b := e.convert(rhs, operandType)
	pred := comparisonPredicate(n.Op)
	isFloat := operandType.ElementKind() == types.Float
	var handle ir.Value
	if isFloat {
		handle = e.builder.FCmp(pred, a.Handle, b.Handle)
	} else {
		handle = e.builder.ICmp(pred, a.Handle, b.Handle)
	}
	resultKind := types.Bool
	if operandType.IsVector() {
		resultKind = types.VectorBool
	}
	return value.RValue(types.TypeInfo{Kind: resultKind}, handle), nil
}

func comparisonPredicate(op ast.BinaryOp) ir.CmpPredicate {
	switch op {
	case ast.OpGt:
		return ir.CmpGT
	case ast.OpLt:
		return ir.CmpLT
	case ast.OpGe:
		return ir.CmpGE
	case ast.OpLe:
		return ir.CmpLE
	case ast.OpEq:
		return ir.CmpEQ
	default:
		return ir.CmpNE
	}
}

func (e *Emitter) emitLogical(n *ast.BinaryExpr, lhs, rhs value.Value) (value.Value, *diag.Diagnostic) {
	if lhs.Type.Kind != types.Bool || rhs.Type.Kind != types.Bool {
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "&& and || require bool operands")
	}
	var handle ir.Value
	if n.Op == ast.OpAnd {
		handle = e.builder.And(lhs.Handle, rhs.Handle)
	} else {
		handle = e.builder.Or(lhs.Handle, rhs.Handle)
	}
	return value.RValue(types.BoolType, handle), nil
}

func (e *Emitter) emitUnary(n *ast.UnaryExpr) (value.Value, *diag.Diagnostic) {
	operand, d := e.emitExpr(n.Operand)
	if d != nil {
		return value.Value{}, d
	}
	operand = value.Load(e.builder, operand)
	switch n.Op {
	case ast.OpPlus:
		return operand, nil
	case ast.OpNeg:
		if operand.Type.ElementKind() == types.Float {
			return value.RValue(operand.Type, e.builder.FNeg(operand.Handle)), nil
		}
		if operand.Type.ElementKind() == types.Int {
			return value.RValue(operand.Type, e.builder.INeg(operand.Handle)), nil
		}
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "unary - requires a numeric operand")
	default: // OpNot
		if operand.Type.Kind != types.Bool && operand.Type.Kind != types.VectorBool {
			return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "! requires a bool or vbool operand")
		}
		return value.RValue(operand.Type, e.builder.Not(operand.Handle)), nil
	}
}

func (e *Emitter) emitIncDec(n *ast.IncDecExpr) (value.Value, *diag.Diagnostic) {
	lv, d := e.emitExpr(n.Operand)
	if d != nil {
		return value.Value{}, d
	}
	if !lv.HasStorage {
		return value.Value{}, diag.At(diag.Error, diag.NotAnLValue, n.Range, "++/-- requires an assignable operand")
	}
	if lv.IsConst {
		return value.Value{}, diag.At(diag.Error, diag.AssignToConst, n.Range, "cannot modify a const variable")
	}
	old := value.Load(e.builder, lv)
	one := e.oneValue(old.Type)
	var updated value.Value
	isFloat := old.Type.ElementKind() == types.Float
	if n.Inc {
		if isFloat {
			updated = value.RValue(old.Type, e.builder.FAdd(old.Handle, one.Handle))
		} else {
			updated = value.RValue(old.Type, e.builder.IAdd(old.Handle, one.Handle))
		}
	} else {
		if isFloat {
			updated = value.RValue(old.Type, e.builder.FSub(old.Handle, one.Handle))
		} else {
			updated = value.RValue(old.Type, e.builder.ISub(old.Handle, one.Handle))
		}
	}
	value.Store(e.builder, lv, updated)
	if n.Postfix {
		return old, nil
	}
	return updated, nil
}

func (e *Emitter) oneValue(t types.TypeInfo) value.Value {
	if t.ElementKind() == types.Float {
		return value.RValue(t, e.builder.ConstFloat(1))
	}
	return value.RValue(t, e.builder.ConstInt(1))
}

func (e *Emitter) emitAssign(n *ast.AssignExpr) (value.Value, *diag.Diagnostic) {
	lv, d := e.emitExpr(n.LHS)
	if d != nil {
		return value.Value{}, d
	}
	if !lv.HasStorage {
		return value.Value{}, diag.At(diag.Error, diag.NotAnLValue, n.Range, "left-hand side of assignment is not assignable")
	}
	if lv.IsConst {
		return value.Value{}, diag.At(diag.Error, diag.AssignToConst, n.Range, "cannot assign to a const variable")
	}
	if agg, ok := n.RHS.(*ast.AggregateExpr); ok {
		if d := e.emitAggregateInto(lv, agg); d != nil {
			return value.Value{}, d
		}
		return lv, nil
	}
	rhs, d := e.emitExpr(n.RHS)
	if d != nil {
		return value.Value{}, d
	}
	cast, d := e.applyImplicitCast(n.Range, rhs, lv.Type)
	if d != nil {
		return value.Value{}, d
	}
	value.Store(e.builder, lv, cast)
	return cast, nil
}

func (e *Emitter) emitField(n *ast.FieldExpr) (value.Value, *diag.Diagnostic) {
	base, d := e.emitExpr(n.Base)
	if d != nil {
		return value.Value{}, d
	}
	if base.Type.Kind != types.Custom {
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "%s has no field %q", base.Type, n.Field)
	}
	def, ok := e.Structs.Lookup(base.Type.Name)
	if !ok {
		return value.Value{}, diag.At(diag.Error, diag.UndefinedName, n.Range, "undefined struct %q", base.Type.Name)
	}
	idx, ok := def.FieldIndex(n.Field)
	if !ok {
		return value.Value{}, diag.At(diag.Error, diag.UndefinedName, n.Range, "%s has no field %q", base.Type, n.Field)
	}
	ft, _ := def.FieldType(n.Field)
	if !base.HasStorage {
		return value.Value{}, diag.At(diag.Error, diag.NotAnLValue, n.Range, "cannot access a field of a non-addressable value")
	}
	handle := e.builder.GEPField(base.Handle, idx)
	return value.LValue(ft, handle, base.IsConst), nil
}

func (e *Emitter) emitSubscript(n *ast.SubscriptExpr) (value.Value, *diag.Diagnostic) {
	base, d := e.emitExpr(n.Base)
	if d != nil {
		return value.Value{}, d
	}
	index, d := e.emitExpr(n.Index)
	if d != nil {
		return value.Value{}, d
	}
	index = value.Load(e.builder, index)
	if index.Type.Kind != types.Int {
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "array/span index must be int")
	}
	if base.Type.Kind != types.Array && base.Type.Kind != types.Span {
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "%s is not subscriptable", base.Type)
	}
	elemType := base.Type.TemplateArgs[0].Type
	if !base.HasStorage {
		return value.Value{}, diag.At(diag.Error, diag.NotAnLValue, n.Range, "cannot subscript a non-addressable value")
	}
	var handle ir.Value
	if base.Type.Kind == types.Span {
		handle = e.builder.GEPSpanIndex(base.Handle, index.Handle)
	} else {
		handle = e.builder.GEPIndex(base.Handle, index.Handle)
	}
	return value.LValue(elemType, handle, base.IsConst), nil
}

// foldConstant evaluates expr at "compile time" for a global
// initialiser, supporting only the literal forms spec.md's constant
// initialiser rule allows: integer/float literals (with implicit cast to
// the declared type) and a unary minus/plus applied to one. Anything
// else fails, letting the caller report NonConstantInitializer.
func (e *Emitter) foldConstant(expr ast.Expr, target types.TypeInfo) (value.Value, bool) {
	switch n := expr.(type) {
	case *ast.IntLiteral:
		v := value.RValue(types.IntType, e.globalBuilder().ConstInt(int32(n.Value)))
		return e.convert(v, target), true
	case *ast.FloatLiteral:
		v := value.RValue(types.FloatType, e.globalBuilder().ConstFloat(float32(n.Value)))
		return e.convert(v, target), true
	case *ast.UnaryExpr:
		if n.Op == ast.OpNot {
			return value.Value{}, false
		}
		inner, ok := e.foldConstant(n.Operand, target)
		if !ok {
			return value.Value{}, false
		}
		if n.Op == ast.OpPlus {
			return inner, true
		}
		if target.ElementKind() == types.Float {
			return value.RValue(target, e.globalBuilder().FNeg(inner.Handle)), true
		}
		return value.RValue(target, e.globalBuilder().INeg(inner.Handle)), true
	default:
		return value.Value{}, false
	}
}

// emitAggregateInto stores n's elements into dst (an l-value of array or
// struct type), field-by-field / index-by-index, recursing for nested
// aggregates (e.g. an array of structs). This is the one place
// AggregateExpr is actually lowered: it needs a concrete target type,
// which only a variable declaration or assignment provides (spec.md
// §4.9's "lowered lazily only once cast to a concrete type").
func (e *Emitter) emitAggregateInto(dst value.Value, n *ast.AggregateExpr) *diag.Diagnostic {
	switch dst.Type.Kind {
	case types.Custom:
		def, ok := e.Structs.Lookup(dst.Type.Name)
		if !ok {
			return diag.At(diag.Error, diag.UndefinedName, n.Range, "unknown struct type %q", dst.Type.Name)
		}
		if len(n.Elements) != len(def.Fields) {
			return diag.At(diag.Error, diag.WrongArgCount, n.Range,
				"struct %q has %d fields, aggregate supplies %d", dst.Type.Name, len(def.Fields), len(n.Elements))
		}
		for i, el := range n.Elements {
			field := def.Fields[i]
			fieldPtr := value.LValue(field.Type, e.builder.GEPField(dst.Handle, i), false)
			if d := e.storeElement(fieldPtr, field.Type, el, n.Range); d != nil {
				return d
			}
		}
		return nil
	case types.Array:
		if len(dst.Type.TemplateArgs) < 1 {
			return diag.At(diag.Error, diag.TypeMismatch, n.Range, "malformed array type for aggregate initialiser")
		}
		elemType := dst.Type.TemplateArgs[0].Type
		for i, el := range n.Elements {
			idxPtr := value.LValue(elemType, e.builder.GEPIndex(dst.Handle, e.builder.ConstInt(int32(i))), false)
			if d := e.storeElement(idxPtr, elemType, el, n.Range); d != nil {
				return d
			}
		}
		return nil
	default:
		return diag.At(diag.Error, diag.UnsupportedAggregate, n.Range,
			"aggregate literal cannot initialise a value of type %s", dst.Type.String())
	}
}

// storeElement lowers and implicit-casts one aggregate element into dst.
// fallbackRange is the enclosing aggregate's range, used for diagnostics
// when el itself carries no narrower location worth threading through.
func (e *Emitter) storeElement(dst value.Value, target types.TypeInfo, el ast.Expr, fallbackRange source.Range) *diag.Diagnostic {
	if nested, ok := el.(*ast.AggregateExpr); ok {
		return e.emitAggregateInto(dst, nested)
	}
	rv, d := e.emitExpr(el)
	if d != nil {
		return d
	}
	rv = value.Load(e.builder, rv)
	cast, d := e.applyImplicitCast(fallbackRange, rv, target)
	if d != nil {
		return d
	}
	value.Store(e.builder, dst, cast)
	return nil
}

// ============================================================================
// Calls (ordinary overload resolution + template instantiation)
// ============================================================================

func (e *Emitter) emitCall(n *ast.CallExpr) (value.Value, *diag.Diagnostic) {
	name, ok := calleeName(n.Callee)
	if !ok {
		return value.Value{}, diag.At(diag.Error, diag.NotCallable, n.Range, "callee is not a plain function name")
	}

	if name == "select" {
		return e.emitSelectCall(n)
	}

	args := make([]value.Value, 0, len(n.Args))
	argTypes := make([]types.TypeInfo, 0, len(n.Args))
	for _, a := range n.Args {
		v, d := e.emitExpr(a)
		if d != nil {
			return value.Value{}, d
		}
		v = value.Load(e.builder, v)
		args = append(args, v)
		argTypes = append(argTypes, v.Type)
	}

	if raw, ok := e.Scope.LookupCallableTemplate(name); ok {
		return e.emitTemplateCall(n, raw.(*template.CallableTemplate), args, argTypes)
	}

	set, ok := e.overloads[name]
	if !ok {
		return value.Value{}, diag.At(diag.Error, diag.NotCallable, n.Range, "undefined function %q", name)
	}
	if ic := firstIntrinsic(set); ic != nil {
		return e.emitIntrinsicCall(n, ic, args, argTypes)
	}
	c, d := e.resolveOverload(n, set, argTypes)
	if d != nil {
		return value.Value{}, d
	}
	return e.emitOrdinaryCall(n, c, args)
}

// emitSelectCall lowers the builtin ternary `select(cond, then, else)`
// directly to ir.Builder.Select, bypassing ordinary overload resolution:
// it is not a user-definable function, and it is the one call form the
// verifier's select-recursion check (pkg/verifier.ClassifySelectEligible)
// treats as branchless, since Select always evaluates both arms (spec.md
// §4.10).
func (e *Emitter) emitSelectCall(n *ast.CallExpr) (value.Value, *diag.Diagnostic) {
	if len(n.Args) != 3 {
		return value.Value{}, diag.At(diag.Error, diag.WrongArgCount, n.Range,
			"select expects 3 arguments (cond, then, else), got %d", len(n.Args))
	}
	cond, d := e.emitExpr(n.Args[0])
	if d != nil {
		return value.Value{}, d
	}
	cond = value.Load(e.builder, cond)
	if cond.Type.ElementKind() != types.Bool {
		return value.Value{}, diag.At(diag.Error, diag.TypeMismatch, n.Range, "select condition must be bool, got %s", cond.Type.String())
	}
	thenV, d := e.emitExpr(n.Args[1])
	if d != nil {
		return value.Value{}, d
	}
	thenV = value.Load(e.builder, thenV)
	elseV, d := e.emitExpr(n.Args[2])
	if d != nil {
		return value.Value{}, d
	}
	elseV = value.Load(e.builder, elseV)
	result, d := e.arithmeticResultType(n.Range, thenV.Type, elseV.Type)
	if d != nil {
		return value.Value{}, d
	}
	thenV = e.convert(thenV, result)
	elseV = e.convert(elseV, result)
	return value.RValue(result, e.builder.Select(cond.Handle, thenV.Handle, elseV.Handle)), nil
}

func calleeName(e ast.Expr) (string, bool) {
	id, ok := e.(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// isAssignable reports whether an argument of type from may be passed
// (after an implicit cast, if any) to a parameter declared as to.
func isAssignable(from, to types.TypeInfo) bool {
	if from.Equal(to) {
		return true
	}
	_, ok := types.ImplicitArithmeticCast(from, to)
	return ok && !types.IsPrecisionLossNarrowing(from, to)
}

// resolveOverload picks the unique best match from set for argTypes,
// preferring an all-exact-type match when more than one candidate
// accepts the call (DESIGN.md Open Question #5: ties break toward the
// more specific admissible signature).
func (e *Emitter) resolveOverload(n *ast.CallExpr, set *callable.OverloadSet, argTypes []types.TypeInfo) (*callable.Callable, *diag.Diagnostic) {
	var candidates []*callable.Callable
	for _, m := range set.Members {
		if len(m.Params) != len(argTypes) {
			continue
		}
		ok := true
		for i, p := range m.Params {
			if !isAssignable(argTypes[i], p.Type) {
				ok = false
				break
			}
		}
		if ok {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil, diag.At(diag.Error, diag.WrongArgType, n.Range, "no overload of %q accepts the given argument types", set.Name)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	var exact []*callable.Callable
	for _, c := range candidates {
		allExact := true
		for i, p := range c.Params {
			if !p.Type.Equal(argTypes[i]) {
				allExact = false
				break
			}
		}
		if allExact {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	return nil, diag.At(diag.Error, diag.AmbiguousOverload, n.Range, "call to %q is ambiguous among %d candidates", set.Name, len(candidates))
}

func (e *Emitter) emitOrdinaryCall(n *ast.CallExpr, c *callable.Callable, args []value.Value) (value.Value, *diag.Diagnostic) {
	if len(args) != len(c.Params) {
		return value.Value{}, diag.At(diag.Error, diag.WrongArgCount, n.Range, "%q expects %d arguments, got %d", c.Name, len(c.Params), len(args))
	}
	casted := make([]ir.Value, len(args))
	for i, a := range args {
		cv, d := e.applyImplicitCast(n.Range, a, c.Params[i].Type)
		if d != nil {
			return value.Value{}, d
		}
		casted[i] = cv.Handle
	}
	rec := e.lookupFunctionRecord(c)
	if rec == nil {
		return value.Value{}, diag.At(diag.Error, diag.NotCallable, n.Range, "%q has not been emitted yet (forward reference across imports?)", c.Name)
	}
	return value.RValue(c.ReturnType, e.builder.Call(rec.Handle, casted)), nil
}

func (e *Emitter) lookupFunctionRecord(c *callable.Callable) *FunctionRecord {
	for i := range e.functions {
		if e.functions[i].Callable == c {
			return &e.functions[i]
		}
	}
	return nil
}

func (e *Emitter) emitTemplateCall(n *ast.CallExpr, ct *template.CallableTemplate, args []value.Value, argTypes []types.TypeInfo) (value.Value, *diag.Diagnostic) {
	explicit := make([]template.Argument, 0, len(n.TemplateArgs))
	for _, a := range n.TemplateArgs {
		if a.Kind == ast.TemplateArgIntLit {
			explicit = append(explicit, template.Argument{Kind: types.ArgInt, Int: a.Int})
			continue
		}
		t, d := e.resolveTypeExpr(*a.Type)
		if d != nil {
			return value.Value{}, d
		}
		explicit = append(explicit, template.Argument{Kind: types.ArgTypename, Type: t})
	}
	mapper := template.NewArgumentMapper(ct.Decl.Params)
	if err := mapper.Map(explicit); err != nil {
		return value.Value{}, diag.At(diag.Error, diag.MissingTemplateArg, n.Range, "%s", err.Error())
	}
	mapper.Infer(ct.Decl.FuncParams, argTypes)
	templateArgs, err := mapper.Check()
	if err != nil {
		return value.Value{}, diag.At(diag.Error, diag.MissingTemplateArg, n.Range, "%s", err.Error())
	}

	inst, diags := template.ResolveCallable(e.templates, ct, templateArgs, e.Scope)
	if len(diags) > 0 {
		return value.Value{}, diags[0]
	}

	rec, d := e.ensureInstanceEmitted(n, ct, inst)
	if d != nil {
		return value.Value{}, d
	}
	casted := make([]ir.Value, len(args))
	for i, a := range args {
		cv, d := e.applyImplicitCast(n.Range, a, inst.Params[i].Type)
		if d != nil {
			return value.Value{}, d
		}
		casted[i] = cv.Handle
	}
	return value.RValue(inst.ReturnType, e.builder.Call(rec.Handle, casted)), nil
}

// ensureInstanceEmitted lowers a monomorphised function body exactly
// once per mangled name, caching the resulting FunctionRecord by that
// name (distinct from the template engine's own Cache, which memoises
// the *type-level* instantiation; this memoises the *emitted IR*).
func (e *Emitter) ensureInstanceEmitted(n *ast.CallExpr, ct *template.CallableTemplate, inst *template.CallableInstance) (*FunctionRecord, *diag.Diagnostic) {
	for i := range e.functions {
		if e.functions[i].Callable != nil && e.functions[i].Callable.Name == inst.MangledName {
			return &e.functions[i], nil
		}
	}

	params := make([]callable.Param, len(inst.Params))
	for i, p := range inst.Params {
		params[i] = callable.Param{Name: p.Name, Type: p.Type, Policy: callable.PolicyExact}
	}
	c := paramsToCallable(params, inst.ReturnType, inst.MangledName)

	guard := pushFrame(e)
	defer guard.Release()

	builder := e.Backend.NewBuilder()
	paramTypesIR := make([]ir.Type, len(params))
	fn := builder.DeclareFunction(inst.MangledName, paramTypesIR, nil)

	prevBuilder, prevFn, prevRet := e.builder, e.curFunc, e.curRetType
	e.builder, e.curFunc, e.curRetType = builder, fn, inst.ReturnType
	defer func() { e.builder, e.curFunc, e.curRetType = prevBuilder, prevFn, prevRet }()

	entry := builder.EntryBlock(fn)
	builder.SetInsertPoint(entry)
	for i, p := range params {
		storage := builder.Alloca(nil, p.Name)
		builder.Store(storage, builder.Param(fn, i))
		if !e.Scope.DeclareValue(p.Name, value.LValue(p.Type, storage, false)) {
			return nil, diag.At(diag.Error, diag.Redefinition, n.Range, "parameter %q redeclared", p.Name)
		}
	}
	e.emitBlockInline(inst.Body)
	if !builder.HasTerminator(builder.CurrentBlock()) {
		e.emitFallthroughReturn(inst.ReturnType)
	}
	if err := e.Module.Define(fn); err != nil {
		return nil, diag.At(diag.Error, diag.Redefinition, n.Range, "%s", err.Error())
	}
	e.functions = append(e.functions, FunctionRecord{Callable: c, Decl: &ast.FuncDecl{Name: inst.MangledName, Body: inst.Body}, Handle: fn})
	return &e.functions[len(e.functions)-1], nil
}
