package directive

import (
	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
)

// RunContext is what the registry needs from its host (the IR emitter,
// in practice) to execute a directive at emission time: loading an
// imported source's top-level statements, and re-entering statement
// emission for a directive's chosen branch.
type RunContext interface {
	// LoadImport resolves path (as given, i.e. relative to the working
	// directory, then against the host's import search directories),
	// parses it, and returns its top-level statements plus the resolved
	// absolute path (for State.MarkImported). A diagnostic is returned
	// on FileNotFound or a parse error in the imported file.
	LoadImport(path string) (absPath string, stmts []ast.Stmt, d *diag.Diagnostic)
	// EmitStatements hands a branch's statements back to the emitter for
	// normal processing (including any directives nested within it).
	EmitStatements(stmts []ast.Stmt) []*diag.Diagnostic
	// InScope reports whether name is visible in the current scope, for
	// @if's identifier-as-define rule.
	InScope(name string) bool
}

// Handler is one directive's behaviour. Name identifies the directive as
// written after `@`. Built-ins (import/define/if) are registered by
// NewRegistry; hosts may register additional handlers through the
// extension slot (Register), matching the Design Notes' "fixed enum for
// built-ins plus an extension slot for host-registered handlers".
type Handler interface {
	Name() string
	Run(state *State, d *ast.DirectiveStmt, ctx RunContext) []*diag.Diagnostic
}

// Registry maps directive names to their Handler.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry constructs a Registry with the three built-in handlers
// already registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register(importHandler{})
	r.Register(defineHandler{})
	r.Register(ifHandler{})
	return r
}

// Register adds or replaces a handler under its own Name(), the
// extension slot for host-defined directives.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Name()] = h
}

// Lookup returns the handler registered for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Run dispatches d to its registered handler, reporting UndefinedName
// (there is no more specific code for "unknown directive" in the fixed
// taxonomy) if none is registered.
func (r *Registry) Run(state *State, d *ast.DirectiveStmt, ctx RunContext) []*diag.Diagnostic {
	h, ok := r.handlers[d.Name]
	if !ok {
		return []*diag.Diagnostic{diag.At(diag.Error, diag.UndefinedName, d.Range, "unknown directive @%s", d.Name)}
	}
	return h.Run(state, d, ctx)
}

// ============================================================================
// @import
// ============================================================================

type importHandler struct{}

func (importHandler) Name() string { return "import" }

func (importHandler) Run(state *State, d *ast.DirectiveStmt, ctx RunContext) []*diag.Diagnostic {
	abs, stmts, err := ctx.LoadImport(d.ImportPath)
	if err != nil {
		return []*diag.Diagnostic{err}
	}
	if state.MarkImported(abs) {
		return nil // cycle/duplicate import: no-op
	}
	return ctx.EmitStatements(stmts)
}

// ============================================================================
// @define
// ============================================================================

type defineHandler struct{}

func (defineHandler) Name() string { return "define" }

func (defineHandler) Run(state *State, d *ast.DirectiveStmt, ctx RunContext) []*diag.Diagnostic {
	lit := Literal{Kind: LiteralNone}
	if d.DefineValue != nil {
		switch v := d.DefineValue.(type) {
		case *ast.IntLiteral:
			lit = Literal{Kind: LiteralInt, Int: v.Value}
		case *ast.FloatLiteral:
			lit = Literal{Kind: LiteralFloat, Float: v.Value}
		case *ast.StringLiteral:
			lit = Literal{Kind: LiteralString, String: v.Value}
		default:
			return []*diag.Diagnostic{diag.At(diag.Error, diag.UnsupportedCast, d.Range,
				"@define value must be a literal constant")}
		}
	}
	state.Define(d.DefineName, lit)
	return nil
}

// ============================================================================
// @if
// ============================================================================

type ifHandler struct{}

func (ifHandler) Name() string { return "if" }

func (ifHandler) Run(state *State, d *ast.DirectiveStmt, ctx RunContext) []*diag.Diagnostic {
	v, err := EvalStatic(d.IfCond, state, ctx.InScope)
	if err != nil {
		return []*diag.Diagnostic{diag.At(diag.Error, diag.UnsupportedAggregate, d.Range, "%s", err.Error())}
	}
	if v {
		return ctx.EmitStatements(d.IfThen)
	}
	return ctx.EmitStatements(d.IfElse)
}
