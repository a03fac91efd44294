// Package structs implements field layout and field-index lookup for
// user aggregate types, grounded on go-corset's DefColumns/ColumnBinding
// pattern in pkg/corset/ast/declaration.go (an ordered name-to-index
// table over a declaration's fields).
package structs

import "github.com/hitoa/vclc/pkg/types"

// Field is one (name, type) member of a struct, in declaration order.
type Field struct {
	Name string
	Type types.TypeInfo
}

// Definition is the concrete layout of a (possibly monomorphised) struct:
// its fields in declaration order plus a name-to-index map for O(1)
// `e.field` resolution.
type Definition struct {
	Name    string
	Fields  []Field
	indices map[string]int
}

// NewDefinition builds a Definition from fields in declaration order.
func NewDefinition(name string, fields []Field) *Definition {
	d := &Definition{Name: name, Fields: fields, indices: make(map[string]int, len(fields))}
	for i, f := range fields {
		d.indices[f.Name] = i
	}
	return d
}

// FieldIndex returns the 0-based index of the named field, or (0, false)
// if no such field exists.
func (d *Definition) FieldIndex(name string) (int, bool) {
	i, ok := d.indices[name]
	return i, ok
}

// FieldType returns the TypeInfo of the named field, or (zero, false).
func (d *Definition) FieldType(name string) (types.TypeInfo, bool) {
	i, ok := d.indices[name]
	if !ok {
		return types.TypeInfo{}, false
	}
	return d.Fields[i].Type, true
}

// Layout computes {size_bytes, align_bytes} for this definition: size is
// the sum of each field's lowered size (no inter-field padding, matching
// the spec's "permits the target ABI to add trailing padding" stance on
// Span — here applied uniformly to all aggregates since the frontend
// does not itself model target-specific alignment padding); align is the
// maximum field alignment.
func (d *Definition) Layout() types.RuntimeLayout {
	var size, align int
	for _, f := range d.Fields {
		size += f.Type.Runtime.SizeBytes
		if f.Type.Runtime.AlignBytes > align {
			align = f.Type.Runtime.AlignBytes
		}
	}
	if align == 0 {
		align = 1
	}
	return types.RuntimeLayout{SizeBytes: size, AlignBytes: align}
}

// AsTypeInfo returns the TypeInfo naming this definition, suitable for
// registration as a Custom type.
func (d *Definition) AsTypeInfo(qualifiers types.Qualifiers) types.TypeInfo {
	return types.TypeInfo{Kind: types.Custom, Name: d.Name, Qualifiers: qualifiers, Runtime: d.Layout(), }
}

// Registry owns every struct Definition produced so far within one
// module context, including monomorphised instantiations.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Define registers d under its own name. Returns false if a definition
// with that name already exists (a Redefinition at the struct registry
// level).
func (r *Registry) Define(d *Definition) bool {
	if _, exists := r.defs[d.Name]; exists {
		return false
	}
	r.defs[d.Name] = d
	return true
}

// Lookup returns the Definition registered under name, if any.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}
