// Package template implements VCL's Template Engine (spec.md §3, §4.8):
// monomorphisation of struct and callable templates into concrete,
// name-mangled instantiations, memoised per (template identity, mangled
// argument list) so repeated instantiations with the same arguments
// share one emitted definition. Grounded on go-corset's module
// instantiation cache (pkg/corset/compiler/instance.go-equivalent:
// registers built once are looked up by a deterministic key on later
// references) generalised here to VCL's two template flavours.
package template

import (
	"fmt"
	"strings"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/scope"
	"github.com/hitoa/vclc/pkg/structs"
	"github.com/hitoa/vclc/pkg/types"
)

// StructTemplate is an uninstantiated `template<params> struct Name {...}`.
type StructTemplate struct {
	Decl  *ast.StructTemplateDecl
	DeclaredAtOffset int // scope frame offset at the point of declaration
}

// CallableTemplate is an uninstantiated `template<params> ret Name(...) {...}`.
type CallableTemplate struct {
	Decl             *ast.FuncTemplateDecl
	DeclaredAtOffset int
}

// Argument is one resolved template argument, after the Map/Infer/Check
// pipeline has settled its concrete value.
type Argument struct {
	Kind types.ArgKind
	Type types.TypeInfo
	Int  int32
}

func (a Argument) String() string {
	if a.Kind == types.ArgInt {
		return fmt.Sprintf("%d", a.Int)
	}
	return mangleType(a.Type)
}

// mangleType renders a TypeInfo into a name-safe token, collapsing
// qualifiers (which don't participate in overload identity) and
// recursing through template arguments.
func mangleType(t types.TypeInfo) string {
	var b strings.Builder
	if t.Kind == types.Custom {
		b.WriteString(t.Name)
	} else {
		b.WriteString(t.Kind.String())
	}
	if len(t.TemplateArgs) > 0 {
		b.WriteByte('_')
		for i, a := range t.TemplateArgs {
			if i > 0 {
				b.WriteByte('_')
			}
			if a.Kind == types.ArgInt {
				fmt.Fprintf(&b, "%d", a.Int)
			} else {
				b.WriteString(mangleType(a.Type))
			}
		}
	}
	return b.String()
}

// Mangle produces the deterministic instantiation name for baseName
// applied to args: `baseName__arg1_arg2_...`. Two calls with
// structurally-equal argument lists produce identical manglings,
// which is what the memoisation cache keys on (spec.md §4.8: "the
// mangled name is the cache key").
func Mangle(baseName string, args []Argument) string {
	var b strings.Builder
	b.WriteString(baseName)
	if len(args) == 0 {
		return b.String()
	}
	b.WriteString("__")
	for i, a := range args {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// ArgumentMapper runs the three-phase binding spec.md §3 describes for a
// template call site: Map positional explicit arguments onto the
// template's parameter list, Infer any remaining typename parameters
// from the call's ordinary argument types (function templates only),
// then Check that every parameter ended up bound to a concrete argument.
type ArgumentMapper struct {
	params []ast.TemplateParam
	bound  map[string]Argument
	order  []string
}

// NewArgumentMapper begins a mapping pass for a template's parameter list.
func NewArgumentMapper(params []ast.TemplateParam) *ArgumentMapper {
	m := &ArgumentMapper{params: params, bound: make(map[string]Argument)}
	for _, p := range params {
		m.order = append(m.order, p.Name)
	}
	return m
}

// Map binds explicit arguments (from `name<A, B>(...)`) positionally.
// Returns an error if more explicit arguments were given than the
// template declares, or if an argument's tag (typename vs int literal)
// doesn't match its parameter's declared kind.
func (m *ArgumentMapper) Map(explicit []Argument) error {
	if len(explicit) > len(m.params) {
		return fmt.Errorf("template: too many explicit template arguments (%d > %d)", len(explicit), len(m.params))
	}
	for i, a := range explicit {
		p := m.params[i]
		wantKind := types.ArgTypename
		if p.Kind == ast.TemplateParamInt {
			wantKind = types.ArgInt
		}
		if a.Kind != wantKind {
			return fmt.Errorf("template: argument %d kind mismatch for parameter %q", i, p.Name)
		}
		m.bound[p.Name] = a
	}
	return nil
}

// Infer fills any still-unbound `typename` parameters by structurally
// unifying each declared function parameter's type against the
// corresponding call-site argument type, per spec.md §4.8's
// argument-type inference rule (e.g. deducing T from a call `max(a, b)`
// where a and b are floats, with no explicit `<float>`). funcParams and
// argTypes must be the same length as each other (arity already
// checked by the caller); only direct `T` parameter positions and
// `array<T,N>`/`span<T>` element positions participate in inference.
func (m *ArgumentMapper) Infer(funcParams []ast.Param, argTypes []types.TypeInfo) {
	for i, fp := range funcParams {
		if i >= len(argTypes) {
			break
		}
		m.inferFromTypeExpr(fp.Type, argTypes[i])
	}
}

func (m *ArgumentMapper) inferFromTypeExpr(te ast.TypeExpr, actual types.TypeInfo) {
	if _, already := m.bound[te.Name]; already {
		return
	}
	if m.isTemplateParam(te.Name) {
		m.bound[te.Name] = Argument{Kind: types.ArgTypename, Type: actual}
		return
	}
	// array<T,N> / span<T>: recurse into the element slot if it names an
	// unbound template parameter.
	if len(te.Args) > 0 && te.Args[0].Kind == ast.TemplateArgType && len(actual.TemplateArgs) > 0 {
		elemName := te.Args[0].Type.Name
		if m.isTemplateParam(elemName) {
			if _, already := m.bound[elemName]; !already {
				m.bound[elemName] = Argument{Kind: types.ArgTypename, Type: actual.TemplateArgs[0].Type}
			}
		}
	}
}

func (m *ArgumentMapper) isTemplateParam(name string) bool {
	for _, p := range m.params {
		if p.Name == name && p.Kind == ast.TemplateParamTypename {
			return true
		}
	}
	return false
}

// ErrMissingTemplateArg reports an unbound parameter after Map+Infer.
type ErrMissingTemplateArg struct{ Param string }

func (e *ErrMissingTemplateArg) Error() string {
	return fmt.Sprintf("template: could not resolve template argument %q (diag.MissingTemplateArg)", e.Param)
}

// Check verifies every declared parameter ended up bound, returning the
// concrete, ordered Argument list on success.
func (m *ArgumentMapper) Check() ([]Argument, error) {
	out := make([]Argument, 0, len(m.order))
	for _, name := range m.order {
		a, ok := m.bound[name]
		if !ok {
			return nil, &ErrMissingTemplateArg{Param: name}
		}
		out = append(out, a)
	}
	return out, nil
}

// Cache memoises instantiations by (template identity pointer, mangled
// name). Struct and callable instantiations share one cache since their
// keys never collide (a struct template and a function template cannot
// share a base name in VCL's single top-level namespace).
type Cache struct {
	structs   map[cacheKey]*structs.Definition
	callables map[cacheKey]*CallableInstance
}

type cacheKey struct {
	templateID any
	mangled    string
}

// NewCache constructs an empty instantiation cache.
func NewCache() *Cache {
	return &Cache{
		structs:   make(map[cacheKey]*structs.Definition),
		callables: make(map[cacheKey]*CallableInstance),
	}
}

// CallableInstance is one monomorphised function template instantiation:
// the substituted return/parameter types plus the shared template body,
// ready for the emitter to lower exactly like an ordinary FuncDecl.
type CallableInstance struct {
	MangledName string
	ReturnType  types.TypeInfo
	Params      []InstanceParam
	Body        *ast.BlockStmt
	Bindings    map[string]Argument // template parameter name -> bound argument
}

// InstanceParam is one parameter of a CallableInstance after template
// substitution.
type InstanceParam struct {
	Name string
	Type types.TypeInfo
}

// LookupStruct returns a cached struct instantiation, if present.
func (c *Cache) LookupStruct(tmpl *StructTemplate, mangled string) (*structs.Definition, bool) {
	d, ok := c.structs[cacheKey{tmpl, mangled}]
	return d, ok
}

// StoreStruct memoises a struct instantiation.
func (c *Cache) StoreStruct(tmpl *StructTemplate, mangled string, def *structs.Definition) {
	c.structs[cacheKey{tmpl, mangled}] = def
}

// LookupCallable returns a cached function instantiation, if present.
func (c *Cache) LookupCallable(tmpl *CallableTemplate, mangled string) (*CallableInstance, bool) {
	d, ok := c.callables[cacheKey{tmpl, mangled}]
	return d, ok
}

// StoreCallable memoises a function instantiation.
func (c *Cache) StoreCallable(tmpl *CallableTemplate, mangled string, inst *CallableInstance) {
	c.callables[cacheKey{tmpl, mangled}] = inst
}

// ResolveStruct monomorphises a struct template against concrete
// arguments, inserting the cached (or newly built) definition at the
// scope frame where the template itself was declared, so later call
// sites in sibling scopes still observe the same instantiation.
func ResolveStruct(cache *Cache, st *StructTemplate, args []Argument, stack *scope.Stack, registry *structs.Registry) (*structs.Definition, []*diag.Diagnostic) {
	mangled := Mangle(st.Decl.Name, args)
	if def, ok := cache.LookupStruct(st, mangled); ok {
		return def, nil
	}
	bindings := make(map[string]Argument, len(args))
	for i, p := range st.Decl.Params {
		bindings[p.Name] = args[i]
	}
	fields := make([]structs.Field, 0, len(st.Decl.Fields))
	for _, f := range st.Decl.Fields {
		ft, d := substituteType(f.Type, bindings)
		if d != nil {
			return nil, []*diag.Diagnostic{d}
		}
		fields = append(fields, structs.Field{Name: f.Name, Type: ft})
	}
	def := structs.NewDefinition(mangled, fields)
	registry.Define(def)
	cache.StoreStruct(st, mangled, def)
	stack.DeclareAt(st.DeclaredAtOffset, scope.CatType, mangled, def)
	return def, nil
}

// ResolveCallable monomorphises a function template against concrete
// arguments (already run through ArgumentMapper), memoising by mangled
// name exactly like ResolveStruct.
func ResolveCallable(cache *Cache, ct *CallableTemplate, args []Argument, stack *scope.Stack) (*CallableInstance, []*diag.Diagnostic) {
	mangled := Mangle(ct.Decl.Name, args)
	if inst, ok := cache.LookupCallable(ct, mangled); ok {
		return inst, nil
	}
	bindings := make(map[string]Argument, len(args))
	for i, p := range ct.Decl.Params {
		bindings[p.Name] = args[i]
	}
	retType, d := substituteType(ct.Decl.ReturnType, bindings)
	if d != nil {
		return nil, []*diag.Diagnostic{d}
	}
	params := make([]InstanceParam, 0, len(ct.Decl.FuncParams))
	for _, p := range ct.Decl.FuncParams {
		pt, d := substituteType(p.Type, bindings)
		if d != nil {
			return nil, []*diag.Diagnostic{d}
		}
		params = append(params, InstanceParam{Name: p.Name, Type: pt})
	}
	inst := &CallableInstance{
		MangledName: mangled,
		ReturnType:  retType,
		Params:      params,
		Body:        ct.Decl.Body,
		Bindings:    bindings,
	}
	cache.StoreCallable(ct, mangled, inst)
	stack.DeclareAt(ct.DeclaredAtOffset, scope.CatCallableTemplate, mangled, inst)
	return inst, nil
}

// substituteType replaces any template-parameter-named TypeExpr (and
// recursively, any template-parameter reference inside its argument
// list) with its bound concrete type, producing a types.TypeInfo ready
// for types.Context.Create. Non-parameter type names (e.g. "int",
// "float", a previously-resolved custom struct name) pass through
// verbatim via a direct Kind lookup.
func substituteType(te ast.TypeExpr, bindings map[string]Argument) (types.TypeInfo, *diag.Diagnostic) {
	if a, ok := bindings[te.Name]; ok {
		if a.Kind != types.ArgTypename {
			return types.TypeInfo{}, diag.Global(diag.Error, diag.TemplateArgKindMismatch, "template parameter %q used as a type but bound to an integer", te.Name)
		}
		t := a.Type
		t.Qualifiers = te.Qualifiers
		return t, nil
	}
	kind, isBuiltin := builtinKind(te.Name)
	if isBuiltin {
		info := types.TypeInfo{Kind: kind, Qualifiers: te.Qualifiers}
		if len(te.Args) > 0 {
			args, d := substituteTemplateArgs(te.Args, bindings)
			if d != nil {
				return types.TypeInfo{}, d
			}
			info.TemplateArgs = args
		}
		return info, nil
	}
	return types.TypeInfo{Kind: types.Custom, Name: te.Name, Qualifiers: te.Qualifiers}, nil
}

func substituteTemplateArgs(exprs []ast.TemplateArgExpr, bindings map[string]Argument) ([]types.TemplateArgument, *diag.Diagnostic) {
	out := make([]types.TemplateArgument, 0, len(exprs))
	for _, a := range exprs {
		if a.Kind == ast.TemplateArgIntLit {
			out = append(out, types.TemplateArgument{Kind: types.ArgInt, Int: a.Int})
			continue
		}
		sub, d := substituteType(*a.Type, bindings)
		if d != nil {
			return nil, d
		}
		out = append(out, types.TemplateArgument{Kind: types.ArgTypename, Type: sub})
	}
	return out, nil
}

func builtinKind(name string) (types.Kind, bool) {
	switch name {
	case "void":
		return types.Void, true
	case "int":
		return types.Int, true
	case "float":
		return types.Float, true
	case "bool":
		return types.Bool, true
	case "vint":
		return types.VectorInt, true
	case "vfloat":
		return types.VectorFloat, true
	case "vbool":
		return types.VectorBool, true
	case "array":
		return types.Array, true
	case "span":
		return types.Span, true
	default:
		return types.None, false
	}
}
