package types

// rank orders the scalar numeric kinds for the "promote toward Float"
// rule: Bool < Int < Float. This mirrors go-corset's GreatestLowerBound/
// LeastUpperBound lattice operations over its own Type interface,
// specialised here to VCL's fixed three-element numeric lattice.
func rank(k Kind) int {
	switch k {
	case Bool:
		return 0
	case Int:
		return 1
	case Float:
		return 2
	default:
		return -1
	}
}

// LeastUpperBound returns the promoted scalar kind of two numeric scalar
// kinds — the smallest kind both a and b implicitly cast to without
// precision loss in the "promote toward Float" direction. Both a and b
// must be one of {Bool, Int, Float}.
func LeastUpperBound(a, b Kind) Kind {
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// GreatestLowerBound returns the more specific (smaller-rank) of two
// numeric scalar kinds, mirroring go-corset's GreatestLowerBoundAll
// selection logic in FunctionSignature.Accepts. The emitter's overload
// resolution does not call it (see DESIGN.md open question #5).
func GreatestLowerBound(a, b Kind) Kind {
	if rank(a) <= rank(b) {
		return a
	}
	return b
}

// ImplicitArithmeticCast computes the type both operands of a binary
// arithmetic/comparison node cast to under the implicit arithmetic cast
// rule: equal types need no cast; if exactly one operand is a vector, the
// scalar side casts to the vector side's own type unchanged — the vector
// never gets re-promoted to the scalar's kind, mirroring Cast.cpp picking
// whichever operand is already the vector as the cast target; if both are
// vectors, promote toward Float among their element kinds; else, among
// two scalars, promote toward Float. Returns ok=false when either side is
// not a numeric scalar or vector.
func ImplicitArithmeticCast(lhs, rhs TypeInfo) (result TypeInfo, ok bool) {
	if lhs.Equal(rhs) {
		return lhs, true
	}
	lhsNumeric := lhs.IsNumericScalar() || lhs.IsVector()
	rhsNumeric := rhs.IsNumericScalar() || rhs.IsVector()
	if !lhsNumeric || !rhsNumeric {
		return TypeInfo{}, false
	}
	lv, rv := lhs.IsVector(), rhs.IsVector()
	switch {
	case lv && !rv:
		return lhs, true
	case rv && !lv:
		return rhs, true
	case lv && rv:
		promoted := LeastUpperBound(lhs.ElementKind(), rhs.ElementKind())
		return TypeInfo{Kind: VectorOf(promoted)}, true
	default:
		promoted := LeastUpperBound(lhs.Kind, rhs.Kind)
		return TypeInfo{Kind: promoted}, true
	}
}

// IsPrecisionLossNarrowing reports whether casting from into to is an
// implicit narrowing from Float to an integral kind — legal only as an
// explicit cast, an error when it happens implicitly.
func IsPrecisionLossNarrowing(from, to TypeInfo) bool {
	fromKind, toKind := from.ElementKind(), to.ElementKind()
	return fromKind == Float && (toKind == Int || toKind == Bool)
}
