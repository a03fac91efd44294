// Package emitter implements VCL's IR Emitter (spec.md §4.9): the AST
// visitor that walks a parsed, directive-expanded Program and drives an
// pkg/ir.Builder to produce a pkg/ir.Module, consulting the Type Model,
// Scope Manager, Template Engine, Struct Registry, Value Model and
// Callable Model along the way. Grounded on go-corset's
// pkg/corset/compiler visitor (an explicit type switch over the AST,
// never panicking on a user-facing error — diagnostics accumulate on
// the Emitter and emission continues past a single bad statement where
// that's safe, matching go-corset's own accumulate-and-continue
// posture) and implements pkg/directive.RunContext itself so the
// directive engine can re-enter statement emission without pkg/directive
// importing this package.
package emitter

import (
	"path/filepath"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/callable"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/directive"
	"github.com/hitoa/vclc/pkg/ir"
	"github.com/hitoa/vclc/pkg/parser"
	"github.com/hitoa/vclc/pkg/scope"
	"github.com/hitoa/vclc/pkg/source"
	"github.com/hitoa/vclc/pkg/structs"
	"github.com/hitoa/vclc/pkg/template"
	"github.com/hitoa/vclc/pkg/types"
)

// FunctionRecord is what the emitter keeps per defined ordinary
// function, sufficient both for call-site resolution and for the
// verifier pass that runs once emission finishes.
type FunctionRecord struct {
	Callable *callable.Callable
	Decl     *ast.FuncDecl // nil for host-declared prototypes with no body
	Handle   ir.Function
}

// Emitter lowers one Program into one ir.Module, against a shared
// Backend that supplies fresh per-function Builders.
type Emitter struct {
	Backend ir.Backend
	Types   *types.Context
	Scope   *scope.Stack
	Structs *structs.Registry
	Module  ir.ModuleBuilder

	templates *template.Cache
	overloads map[string]*callable.OverloadSet

	dirState    *directive.State
	dirRegistry *directive.Registry

	// sources loads @import paths (see LoadImport; paths are not resolved
	// against curBuffer); nil disables import support (e.g. in unit tests
	// that feed inline source with no filesystem backing).
	sources     *source.Manager
	curBuffer   *source.Buffer

	// ImportDirs is searched, in order, for an @import path that cannot
	// be resolved directly (relative to the working directory), mirroring
	// cmd/vclc's -I flag. Empty by default; set directly after New.
	ImportDirs []string

	builder     ir.Builder
	curFunc     ir.Function
	curRetType  types.TypeInfo
	globalB     ir.Builder

	Diagnostics []*diag.Diagnostic

	// functions accumulates every function this emitter has lowered, for
	// the verifier pass pkg/session runs after a successful emission.
	functions []FunctionRecord
}

// New constructs an Emitter targeting backend, with fresh Type/Scope/
// Struct state. sources may be nil if @import is not needed by the
// caller (pkg/session always supplies one).
func New(backend ir.Backend, sources *source.Manager) *Emitter {
	e := &Emitter{
		Backend:     backend,
		Types:       types.NewContext(),
		Scope:       scope.NewStack(),
		Structs:     structs.NewRegistry(),
		Module:      backend.NewModuleBuilder(),
		templates:   template.NewCache(),
		overloads:   make(map[string]*callable.OverloadSet),
		dirState:    directive.NewState(),
		dirRegistry: directive.NewRegistry(),
		sources:     sources,
	}
	e.registerIntrinsics()
	return e
}

// EmitProgram lowers every top-level statement of prog, which was
// parsed from buf (kept as curBuffer while emitting; @import paths are
// not resolved against it), returning every diagnostic accumulated.
// Emission continues past a single failed top-level declaration so a
// host can see every error in one pass (unlike the parser, which stops
// at its first error).
func (e *Emitter) EmitProgram(buf *source.Buffer, prog *ast.Program) []*diag.Diagnostic {
	prevBuf := e.curBuffer
	e.curBuffer = buf
	defer func() { e.curBuffer = prevBuf }()
	e.emitStatements(prog.Statements)
	return e.Diagnostics
}

// DefineFlag pre-registers name as a bare, valueless @define before
// emission starts, the effect of cmd/vclc's -D flag: `@if NAME` then
// sees it as already defined without the source needing its own
// `@define NAME;` directive.
func (e *Emitter) DefineFlag(name string) {
	e.dirState.Define(name, directive.Literal{Kind: directive.LiteralNone})
}

func (e *Emitter) report(d *diag.Diagnostic) {
	if d != nil {
		e.Diagnostics = append(e.Diagnostics, d)
	}
}

func (e *Emitter) reportAll(ds []*diag.Diagnostic) {
	e.Diagnostics = append(e.Diagnostics, ds...)
}

// Functions returns every function this emitter has lowered so far, for
// the verifier's call-graph pass.
func (e *Emitter) Functions() []FunctionRecord { return e.functions }

// ============================================================================
// directive.RunContext
// ============================================================================

// LoadImport implements directive.RunContext. path is tried as given
// first, then joined against each of e.ImportDirs in order, the same
// "direct path, then search path" precedence a C-like #include resolver
// uses.
func (e *Emitter) LoadImport(path string) (string, []ast.Stmt, *diag.Diagnostic) {
	if e.sources == nil {
		return "", nil, diag.Global(diag.Error, diag.FileNotFound, "@import is unavailable: no source manager configured")
	}
	buf, err := e.sources.LoadFromDisk(path)
	if err != nil && !filepath.IsAbs(path) {
		for _, dir := range e.ImportDirs {
			if candidate, cerr := e.sources.LoadFromDisk(filepath.Join(dir, path)); cerr == nil {
				buf, err = candidate, nil
				break
			}
		}
	}
	if err != nil {
		return "", nil, diag.Global(diag.Error, diag.FileNotFound, "cannot import %q: %s", path, err.Error())
	}
	p := parser.New(buf)
	prog, diags := p.ParseProgram()
	if len(diags) > 0 {
		return "", nil, diags[0]
	}
	return buf.Name(), prog.Statements, nil
}

// EmitStatements implements directive.RunContext.
func (e *Emitter) EmitStatements(stmts []ast.Stmt) []*diag.Diagnostic {
	before := len(e.Diagnostics)
	e.emitStatements(stmts)
	return e.Diagnostics[before:]
}

// InScope implements directive.RunContext.
func (e *Emitter) InScope(name string) bool {
	if _, ok := e.Scope.LookupValue(name); ok {
		return true
	}
	if _, ok := e.Scope.LookupType(name); ok {
		return true
	}
	_, ok := e.dirState.IsDefined(name)
	return ok
}

// emitStatements dispatches every top-level/nested statement kind,
// including directives (run immediately against the current scope/state)
// and declarations.
func (e *Emitter) emitStatements(stmts []ast.Stmt) {
	for _, s := range stmts {
		e.emitTopLevelOrStmt(s)
	}
}

func (e *Emitter) emitTopLevelOrStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.DirectiveStmt:
		if n.Kind == ast.DirectiveExtension {
			// No host directive handlers are registered by default;
			// report it as an unknown directive rather than silently
			// dropping it.
			e.reportAll(e.dirRegistry.Run(e.dirState, n, e))
			return
		}
		e.reportAll(e.dirRegistry.Run(e.dirState, n, e))
	case *ast.VarDecl:
		e.emitVarDecl(n)
	case *ast.FuncProto:
		e.registerFuncProto(n)
	case *ast.FuncDecl:
		e.emitFuncDecl(n)
	case *ast.StructDecl:
		e.registerStructDecl(n)
	case *ast.StructTemplateDecl:
		e.registerStructTemplate(n)
	case *ast.FuncTemplateDecl:
		e.registerCallableTemplate(n)
	default:
		// Any other statement kind reaching program scope (e.g. a bare
		// ExprStmt) is only valid inside a function body.
		e.emitStmt(s)
	}
}
