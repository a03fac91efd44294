package emitter

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/structs"
	"github.com/hitoa/vclc/pkg/template"
	"github.com/hitoa/vclc/pkg/types"
)

var builtinTypeKinds = map[string]types.Kind{
	"void":   types.Void,
	"int":    types.Int,
	"float":  types.Float,
	"bool":   types.Bool,
	"vint":   types.VectorInt,
	"vfloat": types.VectorFloat,
	"vbool":  types.VectorBool,
	"array":  types.Array,
	"span":   types.Span,
}

// resolveTypeExpr turns surface syntax into an interned, runtime-lowered
// types.TypeInfo, instantiating a struct template on first use of a new
// argument combination.
func (e *Emitter) resolveTypeExpr(te ast.TypeExpr) (types.TypeInfo, *diag.Diagnostic) {
	if kind, ok := builtinTypeKinds[te.Name]; ok {
		info := types.TypeInfo{Kind: kind, Qualifiers: te.Qualifiers}
		if len(te.Args) > 0 {
			args, d := e.resolveTemplateArgExprs(te.Args)
			if d != nil {
				return types.TypeInfo{}, d
			}
			info.TemplateArgs = args
		}
		if d := validateType(info); d != nil {
			return types.TypeInfo{}, d
		}
		return e.createType(info)
	}

	if target, ok := e.Scope.LookupAlias(te.Name); ok {
		target.Qualifiers = te.Qualifiers
		return e.createType(target)
	}

	if len(te.Args) > 0 {
		if raw, ok := e.Scope.LookupStructTemplate(te.Name); ok {
			st := raw.(*template.StructTemplate)
			args, d := e.templateArgsForStruct(st, te.Args)
			if d != nil {
				return types.TypeInfo{}, d
			}
			def, diags := template.ResolveStruct(e.templates, st, args, e.Scope, e.Structs)
			if len(diags) > 0 {
				return types.TypeInfo{}, diags[0]
			}
			e.Types.DefineStructLayout(def.Name, def.Layout())
			return e.createType(def.AsTypeInfo(te.Qualifiers))
		}
	}

	if def, ok := e.Structs.Lookup(te.Name); ok {
		e.Types.DefineStructLayout(def.Name, def.Layout())
		return e.createType(def.AsTypeInfo(te.Qualifiers))
	}

	// ast.TypeExpr carries no Range of its own (it's a value embedded in
	// declarations); a type-name diagnostic here is necessarily global,
	// not anchored to a source range.
	return types.TypeInfo{}, diag.Global(diag.Error, diag.UndefinedName, "undefined type name %q", te.Name)
}

func (e *Emitter) createType(info types.TypeInfo) (types.TypeInfo, *diag.Diagnostic) {
	lowered, err := e.Types.Create(info)
	if err != nil {
		return types.TypeInfo{}, diag.Global(diag.Error, diag.UndefinedName, "%s", err.Error())
	}
	return lowered, nil
}

func validateType(t types.TypeInfo) *diag.Diagnostic {
	if err := t.Validate(); err != nil {
		return diag.Global(diag.Error, diag.TypeMismatch, "%s", err.Error())
	}
	return nil
}

func (e *Emitter) resolveTemplateArgExprs(exprs []ast.TemplateArgExpr) ([]types.TemplateArgument, *diag.Diagnostic) {
	out := make([]types.TemplateArgument, 0, len(exprs))
	for _, a := range exprs {
		if a.Kind == ast.TemplateArgIntLit {
			out = append(out, types.TemplateArgument{Kind: types.ArgInt, Int: a.Int})
			continue
		}
		sub, d := e.resolveTypeExpr(*a.Type)
		if d != nil {
			return nil, d
		}
		out = append(out, types.TemplateArgument{Kind: types.ArgTypename, Type: sub})
	}
	return out, nil
}

func (e *Emitter) templateArgsForStruct(st *template.StructTemplate, exprs []ast.TemplateArgExpr) ([]template.Argument, *diag.Diagnostic) {
	explicit := make([]template.Argument, 0, len(exprs))
	for _, a := range exprs {
		if a.Kind == ast.TemplateArgIntLit {
			explicit = append(explicit, template.Argument{Kind: types.ArgInt, Int: a.Int})
			continue
		}
		sub, d := e.resolveTypeExpr(*a.Type)
		if d != nil {
			return nil, d
		}
		explicit = append(explicit, template.Argument{Kind: types.ArgTypename, Type: sub})
	}
	mapper := template.NewArgumentMapper(st.Decl.Params)
	if err := mapper.Map(explicit); err != nil {
		return nil, diag.Global(diag.Error, diag.MissingTemplateArg, "%s", err.Error())
	}
	args, err := mapper.Check()
	if err != nil {
		return nil, diag.Global(diag.Error, diag.MissingTemplateArg, "%s", err.Error())
	}
	return args, nil
}

// registerStructDecl installs a plain (non-template) struct's field
// layout into both the struct registry and the current scope's type
// table, so resolveTypeExpr can find it by name either way.
func (e *Emitter) registerStructDecl(n *ast.StructDecl) {
	fields := make([]structs.Field, 0, len(n.Fields))
	for _, f := range n.Fields {
		ft, d := e.resolveTypeExpr(f.Type)
		if d != nil {
			e.report(d)
			return
		}
		fields = append(fields, structs.Field{Name: f.Name, Type: ft})
	}
	def := structs.NewDefinition(n.Name, fields)
	if !e.Structs.Define(def) {
		e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "struct %q redefined", n.Name))
		return
	}
	e.Types.DefineStructLayout(def.Name, def.Layout())
	e.Scope.DeclareType(n.Name, def)
}

func (e *Emitter) registerStructTemplate(n *ast.StructTemplateDecl) {
	st := &template.StructTemplate{Decl: n, DeclaredAtOffset: e.Scope.Depth() - 1}
	if !e.Scope.DeclareStructTemplate(n.Name, st) {
		e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "struct template %q redefined", n.Name))
	}
}

func (e *Emitter) registerCallableTemplate(n *ast.FuncTemplateDecl) {
	ct := &template.CallableTemplate{Decl: n, DeclaredAtOffset: e.Scope.Depth() - 1}
	if !e.Scope.DeclareCallableTemplate(n.Name, ct) {
		e.report(diag.At(diag.Error, diag.Redefinition, n.Range, "function template %q redefined", n.Name))
	}
}
