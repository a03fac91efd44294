package emitter

import (
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/source"
	"github.com/hitoa/vclc/pkg/types"
	"github.com/hitoa/vclc/pkg/value"
)

// applyImplicitCast loads v and, if its type differs from target,
// applies the implicit conversion the Type Model's lattice allows
// (scalar broadcast to vector, and bool/int/float promotion). Narrowing
// float->int/bool is rejected as ImplicitPrecisionLoss. There is no
// explicit cast expression: neither the parser nor expr.go's call
// emission accepts a type-named call such as `int(x)`.
func (e *Emitter) applyImplicitCast(r source.Range, v value.Value, target types.TypeInfo) (value.Value, *diag.Diagnostic) {
	loaded := value.Load(e.builder, v)
	if loaded.Type.Equal(target) {
		return loaded, nil
	}
	if types.IsPrecisionLossNarrowing(loaded.Type, target) {
		return value.Value{}, diag.At(diag.Error, diag.ImplicitPrecisionLoss, r,
			"implicit conversion from %s to %s loses precision; use an explicit cast", loaded.Type, target)
	}
	return e.convert(loaded, target), nil
}

// convert performs the actual bit-level conversion for a pair of types
// already known to be implicitly compatible, widening scalar to vector
// with Splat first when needed.
func (e *Emitter) convert(v value.Value, target types.TypeInfo) value.Value {
	if v.Type.Equal(target) {
		return v
	}
	if !v.Type.IsVector() && target.IsVector() {
		scalarTarget := types.TypeInfo{Kind: target.ElementKind()}
		widened := e.convertScalar(v, scalarTarget)
		return value.Splat(e.builder, widened, target)
	}
	return e.convertScalar(v, target)
}

func (e *Emitter) convertScalar(v value.Value, target types.TypeInfo) value.Value {
	from, to := v.Type.ElementKind(), target.ElementKind()
	if from == to {
		return value.RValue(target, v.Handle)
	}
	switch {
	case from == types.Bool && to == types.Int:
		return value.RValue(target, e.builder.BoolToInt(v.Handle))
	case from == types.Int && to == types.Bool:
		return value.RValue(target, e.builder.IntToBool(v.Handle))
	case from == types.Int && to == types.Float:
		return value.RValue(target, e.builder.IntToFloat(v.Handle))
	case from == types.Float && to == types.Int:
		return value.RValue(target, e.builder.FloatToInt(v.Handle))
	case from == types.Bool && to == types.Float:
		asInt := e.builder.BoolToInt(v.Handle)
		return value.RValue(target, e.builder.IntToFloat(asInt))
	case from == types.Float && to == types.Bool:
		asInt := e.builder.FloatToInt(v.Handle)
		return value.RValue(target, e.builder.IntToBool(asInt))
	default:
		return value.RValue(target, v.Handle)
	}
}

// arithmeticResultType computes the implicit-cast result type of a
// binary arithmetic/comparison pair, reporting TypeMismatch if neither
// side is numeric, and ImplicitPrecisionLoss if reaching that result
// would narrow either operand (e.g. a Float scalar against a lower-rank
// vint — the vector side keeps its own kind per ImplicitArithmeticCast,
// so it's the scalar side that narrows here).
func (e *Emitter) arithmeticResultType(r source.Range, lhs, rhs types.TypeInfo) (types.TypeInfo, *diag.Diagnostic) {
	result, ok := types.ImplicitArithmeticCast(lhs, rhs)
	if !ok {
		return types.TypeInfo{}, diag.At(diag.Error, diag.TypeMismatch, r, "incompatible operand types %s and %s", lhs, rhs)
	}
	if !lhs.Equal(result) && types.IsPrecisionLossNarrowing(lhs, result) {
		return types.TypeInfo{}, diag.At(diag.Error, diag.ImplicitPrecisionLoss, r,
			"implicit conversion from %s to %s loses precision; use an explicit cast", lhs, result)
	}
	if !rhs.Equal(result) && types.IsPrecisionLossNarrowing(rhs, result) {
		return types.TypeInfo{}, diag.At(diag.Error, diag.ImplicitPrecisionLoss, r,
			"implicit conversion from %s to %s loses precision; use an explicit cast", rhs, result)
	}
	lowered, err := e.Types.Create(result)
	if err != nil {
		return types.TypeInfo{}, diag.At(diag.Error, diag.TypeMismatch, r, "%s", err.Error())
	}
	return lowered, nil
}
