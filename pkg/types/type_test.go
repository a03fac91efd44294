package types

import "testing"

func TestCreateTwiceSharesRuntimeFacts(t *testing.T) {
	ctx := NewContext()
	info := TypeInfo{Kind: VectorFloat}
	a, err := ctx.Create(info)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	b, err := ctx.Create(info)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("expected equal descriptors, got %v vs %v", a, b)
	}
	if a.Runtime != b.Runtime {
		t.Fatalf("expected identical runtime facts, got %+v vs %+v", a.Runtime, b.Runtime)
	}
}

func TestQualifierInvariants(t *testing.T) {
	bad := TypeInfo{Kind: Int, Qualifiers: QualConst | QualOut}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected const+out to be rejected")
	}
	bad2 := TypeInfo{Kind: Int, Qualifiers: QualIn | QualOut}
	if err := bad2.Validate(); err == nil {
		t.Fatal("expected in+out to be rejected")
	}
}

func TestImplicitArithmeticCastPromotesTowardFloat(t *testing.T) {
	result, ok := ImplicitArithmeticCast(TypeInfo{Kind: Int}, TypeInfo{Kind: Float})
	if !ok || result.Kind != Float {
		t.Fatalf("expected promotion to float, got %v ok=%v", result, ok)
	}
}

func TestImplicitArithmeticCastScalarToVector(t *testing.T) {
	result, ok := ImplicitArithmeticCast(TypeInfo{Kind: Int}, TypeInfo{Kind: VectorFloat})
	if !ok || result.Kind != VectorFloat {
		t.Fatalf("expected vfloat, got %v ok=%v", result, ok)
	}
}

// TestImplicitArithmeticCastKeepsVectorKindEvenWhenScalarRankIsHigher
// exercises the reversed-rank case: a Float scalar against a vint must
// still cast to vint, not promote the result to vfloat — "if exactly
// one is a vector, cast the scalar side to the vector side", never the
// other way around.
func TestImplicitArithmeticCastKeepsVectorKindEvenWhenScalarRankIsHigher(t *testing.T) {
	result, ok := ImplicitArithmeticCast(TypeInfo{Kind: VectorInt}, TypeInfo{Kind: Float})
	if !ok || result.Kind != VectorInt {
		t.Fatalf("expected vint (the vector operand's own kind), got %v ok=%v", result, ok)
	}

	result, ok = ImplicitArithmeticCast(TypeInfo{Kind: Float}, TypeInfo{Kind: VectorInt})
	if !ok || result.Kind != VectorInt {
		t.Fatalf("expected vint regardless of operand order, got %v ok=%v", result, ok)
	}
}

func TestIsGivenByValue(t *testing.T) {
	if !(TypeInfo{Kind: Int}).IsGivenByValue() {
		t.Fatal("plain int should be by-value")
	}
	if (TypeInfo{Kind: Custom, Name: "Vec3"}).IsGivenByValue() {
		t.Fatal("aggregate without in/out should be by-reference")
	}
	if !(TypeInfo{Kind: Custom, Name: "Vec3", Qualifiers: QualIn}).IsGivenByValue() {
		t.Fatal("in-qualified aggregate should be by-value")
	}
}

func TestArrayRequiresTwoTemplateArgs(t *testing.T) {
	bad := TypeInfo{Kind: Array, TemplateArgs: []TemplateArgument{{Kind: ArgTypename, Type: TypeInfo{Kind: Int}}}}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected array<T> with one arg to be rejected")
	}
}
