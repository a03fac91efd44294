package template_test

import (
	"testing"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/scope"
	"github.com/hitoa/vclc/pkg/structs"
	"github.com/hitoa/vclc/pkg/template"
	"github.com/hitoa/vclc/pkg/types"
)

func TestMangleWithNoArgsReturnsBaseName(t *testing.T) {
	if got := template.Mangle("identity", nil); got != "identity" {
		t.Fatalf("Mangle with no args = %q, want %q", got, "identity")
	}
}

func TestMangleProducesDeterministicName(t *testing.T) {
	args := []template.Argument{
		{Kind: types.ArgTypename, Type: types.FloatType},
		{Kind: types.ArgInt, Int: 4},
	}
	got := template.Mangle("Box", args)
	want := "Box__float_4"
	if got != want {
		t.Fatalf("Mangle = %q, want %q", got, want)
	}
	// Same structural arguments must mangle identically, since Mangle's
	// output is the memoisation cache key (spec.md §4.8).
	again := template.Mangle("Box", []template.Argument{
		{Kind: types.ArgTypename, Type: types.FloatType},
		{Kind: types.ArgInt, Int: 4},
	})
	if again != got {
		t.Fatalf("Mangle is not deterministic: %q != %q", again, got)
	}
}

func TestMangleNestedTemplateArgType(t *testing.T) {
	arrayOfInt := types.TypeInfo{
		Kind: types.Array,
		TemplateArgs: []types.TemplateArgument{
			{Kind: types.ArgTypename, Type: types.IntType},
			{Kind: types.ArgInt, Int: 3},
		},
	}
	args := []template.Argument{{Kind: types.ArgTypename, Type: arrayOfInt}}
	got := template.Mangle("Wrap", args)
	want := "Wrap__array_int_3"
	if got != want {
		t.Fatalf("Mangle = %q, want %q", got, want)
	}
}

func typenameParam(name string) ast.TemplateParam {
	return ast.TemplateParam{Kind: ast.TemplateParamTypename, Name: name}
}

func intParam(name string) ast.TemplateParam {
	return ast.TemplateParam{Kind: ast.TemplateParamInt, Name: name}
}

func TestArgumentMapperMapBindsPositionallyAndChecks(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{typenameParam("T")})
	if err := m.Map([]template.Argument{{Kind: types.ArgTypename, Type: types.FloatType}}); err != nil {
		t.Fatalf("unexpected Map error: %v", err)
	}
	args, err := m.Check()
	if err != nil {
		t.Fatalf("unexpected Check error: %v", err)
	}
	if len(args) != 1 || !args[0].Type.Equal(types.FloatType) {
		t.Fatalf("expected [float], got %v", args)
	}
}

func TestArgumentMapperMapTooManyExplicitArgs(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{typenameParam("T")})
	err := m.Map([]template.Argument{
		{Kind: types.ArgTypename, Type: types.FloatType},
		{Kind: types.ArgTypename, Type: types.IntType},
	})
	if err == nil {
		t.Fatalf("expected an error for too many explicit template arguments")
	}
}

func TestArgumentMapperMapKindMismatch(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{intParam("N")})
	err := m.Map([]template.Argument{{Kind: types.ArgTypename, Type: types.FloatType}})
	if err == nil {
		t.Fatalf("expected a kind-mismatch error binding a typename to an int parameter")
	}
}

func TestArgumentMapperInferFromDirectParam(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{typenameParam("T")})
	funcParams := []ast.Param{{Type: ast.TypeExpr{Name: "T"}, Name: "a"}}
	m.Infer(funcParams, []types.TypeInfo{types.IntType})
	args, err := m.Check()
	if err != nil {
		t.Fatalf("unexpected Check error: %v", err)
	}
	if len(args) != 1 || !args[0].Type.Equal(types.IntType) {
		t.Fatalf("expected T inferred as int, got %v", args)
	}
}

func TestArgumentMapperInferFromArrayElement(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{typenameParam("T")})
	funcParams := []ast.Param{{
		Type: ast.TypeExpr{Name: "array", Args: []ast.TemplateArgExpr{
			{Kind: ast.TemplateArgType, Type: &ast.TypeExpr{Name: "T"}},
			{Kind: ast.TemplateArgIntLit, Int: 4},
		}},
		Name: "buf",
	}}
	actual := types.TypeInfo{
		Kind: types.Array,
		TemplateArgs: []types.TemplateArgument{
			{Kind: types.ArgTypename, Type: types.IntType},
			{Kind: types.ArgInt, Int: 4},
		},
	}
	m.Infer(funcParams, []types.TypeInfo{actual})
	args, err := m.Check()
	if err != nil {
		t.Fatalf("unexpected Check error: %v", err)
	}
	if len(args) != 1 || !args[0].Type.Equal(types.IntType) {
		t.Fatalf("expected T inferred as int from array<T,N>'s element slot, got %v", args)
	}
}

func TestArgumentMapperExplicitArgTakesPriorityOverInfer(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{typenameParam("T")})
	if err := m.Map([]template.Argument{{Kind: types.ArgTypename, Type: types.FloatType}}); err != nil {
		t.Fatalf("unexpected Map error: %v", err)
	}
	funcParams := []ast.Param{{Type: ast.TypeExpr{Name: "T"}, Name: "a"}}
	m.Infer(funcParams, []types.TypeInfo{types.IntType})
	args, err := m.Check()
	if err != nil {
		t.Fatalf("unexpected Check error: %v", err)
	}
	if !args[0].Type.Equal(types.FloatType) {
		t.Fatalf("an explicitly bound argument must not be overwritten by inference, got %v", args[0].Type)
	}
}

func TestArgumentMapperCheckReportsMissingArg(t *testing.T) {
	m := template.NewArgumentMapper([]ast.TemplateParam{typenameParam("T")})
	_, err := m.Check()
	if err == nil {
		t.Fatalf("expected ErrMissingTemplateArg when T was never bound")
	}
	missing, ok := err.(*template.ErrMissingTemplateArg)
	if !ok {
		t.Fatalf("expected *template.ErrMissingTemplateArg, got %T", err)
	}
	if missing.Param != "T" {
		t.Fatalf("expected missing param %q, got %q", "T", missing.Param)
	}
}

func TestCacheStructRoundtrip(t *testing.T) {
	cache := template.NewCache()
	tmplA := &template.StructTemplate{Decl: &ast.StructTemplateDecl{Name: "Box"}}
	tmplB := &template.StructTemplate{Decl: &ast.StructTemplateDecl{Name: "Box"}}
	def := structs.NewDefinition("Box__float", []structs.Field{{Name: "value", Type: types.FloatType}})

	if _, ok := cache.LookupStruct(tmplA, "Box__float"); ok {
		t.Fatalf("expected no cached entry before StoreStruct")
	}
	cache.StoreStruct(tmplA, "Box__float", def)
	got, ok := cache.LookupStruct(tmplA, "Box__float")
	if !ok || got != def {
		t.Fatalf("expected the stored definition back, got %v, %v", got, ok)
	}
	// A distinct template identity (even with an identical mangled name)
	// must not collide in the cache key.
	if _, ok := cache.LookupStruct(tmplB, "Box__float"); ok {
		t.Fatalf("expected cache keys to be scoped per template identity pointer")
	}
}

func TestCacheCallableRoundtrip(t *testing.T) {
	cache := template.NewCache()
	tmpl := &template.CallableTemplate{Decl: &ast.FuncTemplateDecl{Name: "identity"}}
	inst := &template.CallableInstance{MangledName: "identity__int", ReturnType: types.IntType}

	cache.StoreCallable(tmpl, "identity__int", inst)
	got, ok := cache.LookupCallable(tmpl, "identity__int")
	if !ok || got != inst {
		t.Fatalf("expected the stored instance back, got %v, %v", got, ok)
	}
}

func TestResolveStructMonomorphisesAndCaches(t *testing.T) {
	stack := scope.NewStack()
	registry := structs.NewRegistry()
	cache := template.NewCache()
	decl := &ast.StructTemplateDecl{
		Name:   "Box",
		Params: []ast.TemplateParam{typenameParam("T")},
		Fields: []ast.StructField{{Name: "value", Type: ast.TypeExpr{Name: "T"}}},
	}
	st := &template.StructTemplate{Decl: decl, DeclaredAtOffset: 0}
	args := []template.Argument{{Kind: types.ArgTypename, Type: types.FloatType}}

	def, diags := template.ResolveStruct(cache, st, args, stack, registry)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if def.Name != "Box__float" {
		t.Fatalf("expected mangled name Box__float, got %q", def.Name)
	}
	ft, ok := def.FieldType("value")
	if !ok || !ft.Equal(types.FloatType) {
		t.Fatalf("expected field \"value\" substituted to float, got %v, %v", ft, ok)
	}
	if _, ok := registry.Lookup("Box__float"); !ok {
		t.Fatalf("expected the instantiation registered in the struct registry")
	}
	if got, ok := stack.LookupType("Box__float"); !ok || got != def {
		t.Fatalf("expected the instantiation declared at the template's scope offset, got %v, %v", got, ok)
	}

	again, diags := template.ResolveStruct(cache, st, args, stack, registry)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics on cached resolve: %v", diags)
	}
	if again != def {
		t.Fatalf("expected the cached definition to be returned on a repeat instantiation")
	}
}

func TestResolveStructKindMismatchDiagnostic(t *testing.T) {
	stack := scope.NewStack()
	registry := structs.NewRegistry()
	cache := template.NewCache()
	decl := &ast.StructTemplateDecl{
		Name:   "Box",
		Params: []ast.TemplateParam{intParam("N")},
		Fields: []ast.StructField{{Name: "value", Type: ast.TypeExpr{Name: "N"}}},
	}
	st := &template.StructTemplate{Decl: decl, DeclaredAtOffset: 0}
	// N is declared int, but substituteType is asked to use it as a type
	// name because the field's TypeExpr.Name ("N") resolves to an int
	// argument — this must fail with TemplateArgKindMismatch rather than
	// panic or silently produce a bogus TypeInfo.
	args := []template.Argument{{Kind: types.ArgInt, Int: 4}}

	_, diags := template.ResolveStruct(cache, st, args, stack, registry)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Code != diag.TemplateArgKindMismatch {
		t.Fatalf("expected TemplateArgKindMismatch, got %v", diags[0].Code)
	}
}

func TestResolveCallableMonomorphises(t *testing.T) {
	stack := scope.NewStack()
	cache := template.NewCache()
	decl := &ast.FuncTemplateDecl{
		Name:       "identity",
		Params:     []ast.TemplateParam{typenameParam("T")},
		ReturnType: ast.TypeExpr{Name: "T"},
		FuncParams: []ast.Param{{Type: ast.TypeExpr{Name: "T"}, Name: "x"}},
		Body:       &ast.BlockStmt{},
	}
	ct := &template.CallableTemplate{Decl: decl, DeclaredAtOffset: 0}
	args := []template.Argument{{Kind: types.ArgTypename, Type: types.IntType}}

	inst, diags := template.ResolveCallable(cache, ct, args, stack)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if inst.MangledName != "identity__int" {
		t.Fatalf("expected mangled name identity__int, got %q", inst.MangledName)
	}
	if !inst.ReturnType.Equal(types.IntType) {
		t.Fatalf("expected return type int, got %v", inst.ReturnType)
	}
	if len(inst.Params) != 1 || !inst.Params[0].Type.Equal(types.IntType) {
		t.Fatalf("expected parameter x substituted to int, got %v", inst.Params)
	}
	if got, ok := stack.LookupCallableTemplate("identity__int"); !ok || got != inst {
		t.Fatalf("expected the instantiation declared at the template's scope offset, got %v, %v", got, ok)
	}

	again, diags := template.ResolveCallable(cache, ct, args, stack)
	if len(diags) != 0 || again != inst {
		t.Fatalf("expected the cached instance to be returned on a repeat instantiation")
	}
}
