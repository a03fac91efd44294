package scope

import (
	"testing"

	"github.com/hitoa/vclc/pkg/types"
)

func TestNewStackStartsAtProgramScope(t *testing.T) {
	s := NewStack()
	if s.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", s.Depth())
	}
	if !s.IsAtProgramScope() {
		t.Fatalf("a fresh stack must be at program scope")
	}
}

func TestDeclareValueShadowsAcrossFrames(t *testing.T) {
	s := NewStack()
	if !s.DeclareValue("x", 1) {
		t.Fatalf("expected the first declaration of x to succeed")
	}
	guard := EnterScope(s, nil)
	defer guard.Release()
	if !s.DeclareValue("x", 2) {
		t.Fatalf("expected an inner frame to be able to shadow an outer x")
	}
	v, ok := s.LookupValue("x")
	if !ok || v.(int) != 2 {
		t.Fatalf("expected the inner x=2 to shadow the outer, got %v ok=%v", v, ok)
	}
}

func TestDeclareValueCollidesWithinSameFrame(t *testing.T) {
	s := NewStack()
	if !s.DeclareValue("x", 1) {
		t.Fatalf("expected the first declaration to succeed")
	}
	if s.DeclareValue("x", 2) {
		t.Fatalf("expected a second declaration of x in the same frame to fail")
	}
}

func TestLookupValueFallsThroughToOuterFrameAfterPop(t *testing.T) {
	s := NewStack()
	s.DeclareValue("x", 1)
	guard := EnterScope(s, nil)
	s.DeclareValue("x", 2)
	guard.Release()
	v, ok := s.LookupValue("x")
	if !ok || v.(int) != 1 {
		t.Fatalf("expected the outer x=1 to be visible again after the inner frame was released, got %v ok=%v", v, ok)
	}
}

func TestLookupValueMissingReturnsFalse(t *testing.T) {
	s := NewStack()
	if _, ok := s.LookupValue("nope"); ok {
		t.Fatalf("expected LookupValue to report false for an undeclared name")
	}
}

func TestDeclareTypeStructTemplateCallableTemplateAreIndependentNamespaces(t *testing.T) {
	s := NewStack()
	if !s.DeclareValue("Box", "a value") {
		t.Fatalf("expected DeclareValue to succeed")
	}
	if !s.DeclareType("Box", "a type") {
		t.Fatalf("expected DeclareType to succeed even though \"Box\" is already a value name")
	}
	if !s.DeclareStructTemplate("Box", "a struct template") {
		t.Fatalf("expected DeclareStructTemplate to succeed even though \"Box\" is taken in other namespaces")
	}
	if !s.DeclareCallableTemplate("Box", "a callable template") {
		t.Fatalf("expected DeclareCallableTemplate to succeed even though \"Box\" is taken in other namespaces")
	}
	if v, _ := s.LookupValue("Box"); v != "a value" {
		t.Fatalf("value namespace corrupted: %v", v)
	}
	if v, _ := s.LookupType("Box"); v != "a type" {
		t.Fatalf("type namespace corrupted: %v", v)
	}
}

func TestDeclareAliasCollidesWithinSameFrame(t *testing.T) {
	s := NewStack()
	if !s.DeclareAlias("MyFloat", types.FloatType) {
		t.Fatalf("expected the first alias declaration to succeed")
	}
	if s.DeclareAlias("MyFloat", types.IntType) {
		t.Fatalf("expected a second alias declaration of the same name in the same frame to fail")
	}
	target, ok := s.LookupAlias("MyFloat")
	if !ok || !target.Equal(types.FloatType) {
		t.Fatalf("expected MyFloat to alias float, got %v ok=%v", target, ok)
	}
}

func TestBreakTargetFrameFindsNearestEnclosingLoop(t *testing.T) {
	s := NewStack()
	if _, ok := s.BreakTargetFrame(); ok {
		t.Fatalf("expected no break target at program scope")
	}
	loopGuard := EnterScope(s, "loop-end")
	defer loopGuard.Release()
	target, ok := s.BreakTargetFrame()
	if !ok || target.(string) != "loop-end" {
		t.Fatalf("expected the loop's break target to be visible, got %v ok=%v", target, ok)
	}

	// A plain nested block (e.g. an `if` inside the loop) must still see
	// the enclosing loop's break target, not shadow it with nil.
	blockGuard := EnterScope(s, nil)
	defer blockGuard.Release()
	target, ok = s.BreakTargetFrame()
	if !ok || target.(string) != "loop-end" {
		t.Fatalf("expected the outer loop's break target to propagate through a plain nested block, got %v ok=%v", target, ok)
	}
}

func TestDeclareAtInsertsIntoASpecificFrame(t *testing.T) {
	s := NewStack()
	programOffset := s.Depth() - 1
	guard := EnterScope(s, nil)
	defer guard.Release()

	if !s.DeclareAt(programOffset, CatType, "Box__float", "instantiation") {
		t.Fatalf("expected DeclareAt to succeed against the program frame")
	}
	guard.Release()
	// The inner frame is popped now (the deferred Release later must be a
	// no-op); the instantiation must still be visible from program scope.
	v, ok := s.LookupType("Box__float")
	if !ok || v.(string) != "instantiation" {
		t.Fatalf("expected the instantiation declared at program scope to survive frame pops, got %v ok=%v", v, ok)
	}
}

func TestDeclareAtOutOfRangePanics(t *testing.T) {
	s := NewStack()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected DeclareAt with an out-of-range offset to panic")
		}
	}()
	s.DeclareAt(5, CatType, "x", "y")
}

func TestFrameOffsetOfFindsDeclaringFrame(t *testing.T) {
	s := NewStack()
	s.DeclareType("Global", "g")
	guard := EnterScope(s, nil)
	defer guard.Release()
	s.DeclareType("Local", "l")

	if off, ok := s.FrameOffsetOf(CatType, "Global"); !ok || off != 0 {
		t.Fatalf("expected Global to be found at offset 0, got %d ok=%v", off, ok)
	}
	if off, ok := s.FrameOffsetOf(CatType, "Local"); !ok || off != 1 {
		t.Fatalf("expected Local to be found at offset 1, got %d ok=%v", off, ok)
	}
	if _, ok := s.FrameOffsetOf(CatType, "nope"); ok {
		t.Fatalf("expected FrameOffsetOf to report false for an undeclared name")
	}
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	s := NewStack()
	guard := EnterScope(s, nil)
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2 after EnterScope, got %d", s.Depth())
	}
	guard.Release()
	if s.Depth() != 1 {
		t.Fatalf("expected depth 1 after Release, got %d", s.Depth())
	}
	guard.Release() // must not double-pop
	if s.Depth() != 1 {
		t.Fatalf("expected a second Release to be a no-op, got depth %d", s.Depth())
	}
}
