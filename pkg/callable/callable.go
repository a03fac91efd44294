// Package callable implements VCL's Callable Model (spec.md §4.6): the
// argument-policy checking and overload-set representation shared by
// ordinary functions and host intrinsics, grounded on go-corset's
// pkg/corset/compiler function-binding resolution (a Binding interface
// over a small closed set of concrete binding kinds, matched against a
// call site's argument types before the call is accepted).
package callable

import (
	"fmt"

	"github.com/hitoa/vclc/pkg/types"
)

// ArgPolicy constrains what a parameter position accepts, independent of
// its declared type — used by intrinsics (which aren't expressed as
// ordinary VCL parameter lists) and by overload resolution's
// compatibility check for ordinary functions.
type ArgPolicy int

const (
	// PolicyNumeric accepts any scalar numeric (bool/int/float).
	PolicyNumeric ArgPolicy = iota
	// PolicyVector accepts any of vbool/vint/vfloat.
	PolicyVector
	// PolicyCondition accepts bool or vbool (branch/select conditions).
	PolicyCondition
	// PolicyMask accepts vbool only.
	PolicyMask
	// PolicyBuffer accepts span<T> or array<T,N> of any T.
	PolicyBuffer
	// PolicyFloatOnly accepts float or vfloat.
	PolicyFloatOnly
	// PolicyExact requires the declared parameter type, per normal
	// function argument checking (after implicit-cast consideration).
	PolicyExact
)

// Accepts reports whether t satisfies p.
func (p ArgPolicy) Accepts(t types.TypeInfo) bool {
	switch p {
	case PolicyNumeric:
		return t.IsNumericScalar()
	case PolicyVector:
		return t.IsVector()
	case PolicyCondition:
		return t.Kind == types.Bool || t.Kind == types.VectorBool
	case PolicyMask:
		return t.Kind == types.VectorBool
	case PolicyBuffer:
		return t.Kind == types.Span || t.Kind == types.Array
	case PolicyFloatOnly:
		return t.Kind == types.Float || t.Kind == types.VectorFloat
	default:
		return false
	}
}

// Param is one formal parameter of a Callable.
type Param struct {
	Name   string
	Type   types.TypeInfo
	Policy ArgPolicy
}

// Callable is the common shape a call site resolves against: either an
// ordinary Function (with an AST body the emitter lowers) or a host
// Intrinsic (opaque to the emitter beyond its signature and a lowering
// hook). Modelled as a struct with a Kind tag rather than an interface
// hierarchy since the two variants differ only in how the body is
// produced, not in how call sites check them.
type Callable struct {
	Name       string
	Params     []Param
	ReturnType types.TypeInfo
	Variadic   bool // true only for host intrinsics declared variadic

	IsIntrinsic bool
	// Body is non-nil only for ordinary (non-template, non-intrinsic)
	// functions with a definition; absent for prototypes and intrinsics.
	Body any // *ast.BlockStmt, typed any to avoid an ast<->callable import cycle
}

// ErrArityMismatch and ErrArgTypeMismatch are returned by Check.
var (
	ErrArityMismatch   = fmt.Errorf("callable: wrong argument count")
	ErrArgTypeMismatch = fmt.Errorf("callable: argument type mismatch")
)

// Check verifies that argTypes is a legal call to c, applying each
// parameter's ArgPolicy; a PolicyExact parameter accepts only an argument
// whose type equals its declared type. Returns the first mismatched
// parameter index on failure.
func (c *Callable) Check(argTypes []types.TypeInfo) (ok bool, badIndex int, err error) {
	if c.Variadic {
		if len(argTypes) < len(c.Params) {
			return false, len(c.Params), ErrArityMismatch
		}
	} else if len(argTypes) != len(c.Params) {
		return false, len(argTypes), ErrArityMismatch
	}
	for i, p := range c.Params {
		if i >= len(argTypes) {
			break
		}
		if p.Policy == PolicyExact {
			if !p.Type.Equal(argTypes[i]) {
				return false, i, ErrArgTypeMismatch
			}
			continue
		}
		if !p.Policy.Accepts(argTypes[i]) {
			return false, i, ErrArgTypeMismatch
		}
	}
	return true, -1, nil
}

// OverloadSet groups every Callable sharing one source name; function
// overloading (spec.md §4.6) is resolved by pkg/emitter's resolveOverload,
// which keeps the members that accept the call after implicit casts and,
// when more than one does, picks the single one whose parameter types all
// equal the argument types (see DESIGN.md Open Question #5).
type OverloadSet struct {
	Name    string
	Members []*Callable
}

// NewOverloadSet constructs an empty set for name.
func NewOverloadSet(name string) *OverloadSet {
	return &OverloadSet{Name: name}
}

// Add appends c to the set.
func (s *OverloadSet) Add(c *Callable) {
	s.Members = append(s.Members, c)
}

// Candidates returns every member whose Check(argTypes) succeeds.
func (s *OverloadSet) Candidates(argTypes []types.TypeInfo) []*Callable {
	var out []*Callable
	for _, m := range s.Members {
		if ok, _, _ := m.Check(argTypes); ok {
			out = append(out, m)
		}
	}
	return out
}
