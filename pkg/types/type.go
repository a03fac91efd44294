// Package types implements VCL's interned type descriptors, grounded on
// go-corset's pkg/corset/ast/type.go and typing.go: a closed Kind enum
// instead of an open interface hierarchy, and lattice operations
// (GreatestLowerBound/LeastUpperBound) driving the implicit-cast policy.
package types

import (
	"fmt"
	"strings"
)

// Kind is the closed set of type constructors TypeInfo can carry.
type Kind int

const (
	None Kind = iota
	Custom
	Callable
	Aggregate
	Float
	Bool
	Int
	Void
	VectorFloat
	VectorBool
	VectorInt
	Array
	Span
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Custom:
		return "custom"
	case Callable:
		return "callable"
	case Aggregate:
		return "aggregate"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Void:
		return "void"
	case VectorFloat:
		return "vfloat"
	case VectorBool:
		return "vbool"
	case VectorInt:
		return "vint"
	case Array:
		return "array"
	case Span:
		return "span"
	default:
		return "?"
	}
}

// Qualifiers is a bitset over {Const, In, Out}.
type Qualifiers uint8

const (
	QualNone  Qualifiers = 0
	QualConst Qualifiers = 1 << iota
	QualIn
	QualOut
)

func (q Qualifiers) Has(f Qualifiers) bool { return q&f != 0 }

func (q Qualifiers) String() string {
	var parts []string
	if q.Has(QualConst) {
		parts = append(parts, "const")
	}
	if q.Has(QualIn) {
		parts = append(parts, "in")
	}
	if q.Has(QualOut) {
		parts = append(parts, "out")
	}
	return strings.Join(parts, " ")
}

// ArgKind distinguishes the two TemplateArgument payload kinds.
type ArgKind int

const (
	ArgTypename ArgKind = iota
	ArgInt
)

// TemplateArgument is a tagged union: Typename(TypeInfo) or Int(int32).
// A two-field struct (rather than an interface) is the idiomatic choice
// here, matching how go-corset's own Binding dispatch favours a closed,
// positionally-accessed tag over an extra interface layer when the
// payload set is small and fixed.
type TemplateArgument struct {
	Kind ArgKind
	Type TypeInfo
	Int  int32
}

// String renders a TemplateArgument as a literal integer, or the
// recursive name of a type (template.Mangle uses its own encoding).
func (a TemplateArgument) String() string {
	if a.Kind == ArgInt {
		return fmt.Sprintf("%d", a.Int)
	}
	return a.Type.String()
}

// RuntimeLayout is filled in once a TypeInfo is lowered (types.Lower).
type RuntimeLayout struct {
	SizeBytes  int
	AlignBytes int
}

// TypeInfo is the canonical semantic type descriptor.
type TypeInfo struct {
	Kind             Kind
	Qualifiers       Qualifiers
	Name             string // only meaningful when Kind == Custom
	TemplateArgs     []TemplateArgument
	Runtime          RuntimeLayout
	hasRuntime       bool
}

// VoidType, IntType, FloatType, BoolType are canonical unqualified builtin types.
var (
	VoidType  = TypeInfo{Kind: Void}
	IntType   = TypeInfo{Kind: Int}
	FloatType = TypeInfo{Kind: Float}
	BoolType  = TypeInfo{Kind: Bool}
)

// IsNumericScalar reports whether t is Int, Float, or Bool.
func (t TypeInfo) IsNumericScalar() bool {
	return t.Kind == Int || t.Kind == Float || t.Kind == Bool
}

// IsVector reports whether t is one of the three vector kinds.
func (t TypeInfo) IsVector() bool {
	return t.Kind == VectorFloat || t.Kind == VectorBool || t.Kind == VectorInt
}

// ElementKind maps a vector kind to its scalar element kind, and a scalar
// kind to itself (used when deciding vectorness-equal promotion).
func (t TypeInfo) ElementKind() Kind {
	switch t.Kind {
	case VectorFloat:
		return Float
	case VectorBool:
		return Bool
	case VectorInt:
		return Int
	default:
		return t.Kind
	}
}

// VectorOf returns the vector kind counterpart of a scalar kind.
func VectorOf(scalar Kind) Kind {
	switch scalar {
	case Float:
		return VectorFloat
	case Bool:
		return VectorBool
	case Int:
		return VectorInt
	default:
		return None
	}
}

// IsGivenByValue implements: (not Out and Kind not in {Custom, Array}) or In.
func (t TypeInfo) IsGivenByValue() bool {
	notOut := !t.Qualifiers.Has(QualOut)
	notAggregate := t.Kind != Custom && t.Kind != Array
	return (notOut && notAggregate) || t.Qualifiers.Has(QualIn)
}

// Validate checks the qualifier/template-argument invariants from the
// data model and returns a description of the first violation, if any.
func (t TypeInfo) Validate() error {
	if t.Qualifiers.Has(QualConst) && t.Qualifiers.Has(QualOut) {
		return fmt.Errorf("const and out are mutually exclusive")
	}
	if t.Qualifiers.Has(QualIn) && t.Qualifiers.Has(QualOut) {
		return fmt.Errorf("in and out are mutually exclusive")
	}
	if t.Kind == Span {
		if !t.Qualifiers.Has(QualIn) && !t.Qualifiers.Has(QualOut) {
			return fmt.Errorf("span<T> requires in or out")
		}
		if len(t.TemplateArgs) != 1 || t.TemplateArgs[0].Kind != ArgTypename {
			return fmt.Errorf("span<T> requires exactly one typename argument")
		}
	}
	if t.Kind == Array {
		if len(t.TemplateArgs) != 2 || t.TemplateArgs[0].Kind != ArgTypename || t.TemplateArgs[1].Kind != ArgInt {
			return fmt.Errorf("array<T,N> requires a typename and an int >= 0 argument")
		}
		if t.TemplateArgs[1].Int < 0 {
			return fmt.Errorf("array<T,N> requires N >= 0")
		}
	}
	return nil
}

// String renders a TypeInfo the way the pretty printer and diagnostics do.
func (t TypeInfo) String() string {
	var b strings.Builder
	if q := t.Qualifiers.String(); q != "" {
		b.WriteString(q)
		b.WriteByte(' ')
	}
	if t.Kind == Custom {
		b.WriteString(t.Name)
	} else {
		b.WriteString(t.Kind.String())
	}
	if len(t.TemplateArgs) > 0 {
		b.WriteByte('<')
		for i, a := range t.TemplateArgs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

// Equal compares two TypeInfo values structurally (kind, qualifiers,
// name, and template arguments) — the comparison Type::Create's caching
// and the "Create twice compares equal" testable property both rely on.
func (t TypeInfo) Equal(other TypeInfo) bool {
	if t.Kind != other.Kind || t.Qualifiers != other.Qualifiers || t.Name != other.Name {
		return false
	}
	if len(t.TemplateArgs) != len(other.TemplateArgs) {
		return false
	}
	for i := range t.TemplateArgs {
		a, b := t.TemplateArgs[i], other.TemplateArgs[i]
		if a.Kind != b.Kind || a.Int != b.Int {
			return false
		}
		if a.Kind == ArgTypename && !a.Type.Equal(b.Type) {
			return false
		}
	}
	return true
}
