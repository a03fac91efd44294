package types

import "fmt"

// sizes of the builtin scalar kinds, in bytes.
const (
	boolSize  = 1
	intSize   = 4
	floatSize = 4
)

// Lower fills in the Runtime layout facts for t, resolving Custom names
// through aliases and struct definitions via resolve. resolve looks up a
// Custom type's own underlying layout (struct field layout, or an alias
// target); builtin and compound kinds are sized here directly.
//
// Calling Lower twice on structurally-equal TypeInfo values yields
// runtime facts that compare equal, satisfying the "Type::Create twice"
// testable property — Lower is a pure function of t (plus the resolver,
// itself deterministic for a fixed module).
func Lower(t TypeInfo, resolve func(name string) (RuntimeLayout, error)) (TypeInfo, error) {
	if err := t.Validate(); err != nil {
		return t, err
	}
	switch t.Kind {
	case Void, None, Callable:
		t.Runtime = RuntimeLayout{}
	case Bool:
		t.Runtime = RuntimeLayout{SizeBytes: boolSize, AlignBytes: boolSize}
	case Int:
		t.Runtime = RuntimeLayout{SizeBytes: intSize, AlignBytes: intSize}
	case Float:
		t.Runtime = RuntimeLayout{SizeBytes: floatSize, AlignBytes: floatSize}
	case VectorBool, VectorInt, VectorFloat:
		nt := DetectNativeTarget()
		t.Runtime = RuntimeLayout{SizeBytes: nt.MaxVectorBytes(), AlignBytes: nt.MaxVectorBytes()}
	case Array:
		elem := t.TemplateArgs[0].Type
		n := int(t.TemplateArgs[1].Int)
		lowered, err := Lower(elem, resolve)
		if err != nil {
			return t, err
		}
		t.TemplateArgs[0].Type = lowered
		t.Runtime = RuntimeLayout{SizeBytes: lowered.Runtime.SizeBytes * n, AlignBytes: lowered.Runtime.AlignBytes}
	case Span:
		// { T*, i32 length } — pointer width assumed 8 bytes (LP64 target).
		t.Runtime = RuntimeLayout{SizeBytes: 8 + intSize, AlignBytes: 8}
	case Custom, Aggregate:
		layout, err := resolve(t.Name)
		if err != nil {
			return t, err
		}
		t.Runtime = layout
	default:
		return t, fmt.Errorf("types: cannot lower kind %s", t.Kind)
	}
	t.hasRuntime = true
	return t, nil
}

// HasRuntime reports whether Lower has been applied to this descriptor.
func (t TypeInfo) HasRuntime() bool { return t.hasRuntime }
