// Package value implements VCL's Value Model (spec.md §4.7): a typed
// wrapper over one pkg/ir.Value handle, carrying the l-value/r-value
// distinction the emitter needs to decide whether an expression's
// result can be assigned to or must first be loaded. Grounded on how
// go-corset's pkg/corset/compiler represents a typed, possibly-lvalue
// intermediate result while lowering an expression tree (compiler
// column/expr evaluation keeps a type tag alongside every intermediate),
// generalised here to VCL's richer type lattice.
package value

import (
	"fmt"

	"github.com/hitoa/vclc/pkg/ir"
	"github.com/hitoa/vclc/pkg/types"
)

// Value is one typed intermediate result produced while emitting an
// expression. If HasStorage is true, Handle addresses a memory location
// (a local, a global, a field, an array/span element) and must be
// Load-ed to obtain an r-value, or Store-d into to perform an
// assignment; IsConst additionally forbids Store. If HasStorage is
// false, Handle already holds the r-value result directly (e.g. the sum
// of two loaded values) and cannot be assigned to at all.
type Value struct {
	Handle     ir.Value
	Type       types.TypeInfo
	HasStorage bool
	IsConst    bool
}

// IsLValue reports whether this Value may legally appear on the
// left-hand side of an assignment or as the operand of ++/--.
func (v Value) IsLValue() bool {
	return v.HasStorage && !v.IsConst
}

// RValue is a bare non-addressable value of a given type, the result of
// an arithmetic/logical/comparison operation or a function call.
func RValue(t types.TypeInfo, handle ir.Value) Value {
	return Value{Handle: handle, Type: t}
}

// LValue is an addressable storage location of a given type.
func LValue(t types.TypeInfo, handle ir.Value, isConst bool) Value {
	return Value{Handle: handle, Type: t, HasStorage: true, IsConst: isConst}
}

// Load materialises an r-value from v, dereferencing storage if needed.
// Loading an already-loaded r-value is a no-op — the ast visitor calls
// Load defensively at every use site.
func Load(b ir.Builder, v Value) Value {
	if !v.HasStorage {
		return v
	}
	return RValue(v.Type, b.Load(v.Handle, nil))
}

// Store writes rhs into the storage addressed by lhs, after the caller
// has already applied any implicit cast. It is an error (reported by the
// emitter, not here) to call Store on a non-lvalue or a const lvalue;
// this function panics on that misuse since it indicates an emitter bug,
// not a VCL-source error.
func Store(b ir.Builder, lhs Value, rhs Value) {
	if !lhs.IsLValue() {
		panic(fmt.Sprintf("value: Store called on non-assignable value of type %s", lhs.Type))
	}
	b.Store(lhs.Handle, rhs.Handle)
}

// Splat broadcasts a scalar r-value to a vector of the given element
// kind and lane count (spec.md §3's implicit scalar-to-vector promotion,
// used by the emitter's convert in pkg/emitter/cast.go).
// vecType's Runtime facts must already be populated (types.Lower having
// run), since the lane count is derived from its byte size.
func Splat(b ir.Builder, scalar Value, vecType types.TypeInfo) Value {
	const laneSizeBytes = 4 // vfloat/vint/vbool all pack 4-byte lanes.
	lanes := vecType.Runtime.SizeBytes / laneSizeBytes
	return RValue(vecType, b.Splat(scalar.Handle, lanes))
}
