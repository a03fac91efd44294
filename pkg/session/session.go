// Package session implements VCL's Host API surface (spec.md §6): the
// facade a host embedder drives to compile one or more source buffers
// into IR modules and submit them to a JIT backend. Grounded on
// go-corset's pkg/corset/compiler.go Compiler/Compile() orchestration —
// one long-lived object owning shared state (here, the source manager
// and backend), handing out a fresh per-source compilation context for
// each module rather than mutating global state.
package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hitoa/vclc/pkg/ast"
	"github.com/hitoa/vclc/pkg/diag"
	"github.com/hitoa/vclc/pkg/emitter"
	"github.com/hitoa/vclc/pkg/ir"
	"github.com/hitoa/vclc/pkg/ir/interp"
	"github.com/hitoa/vclc/pkg/parser"
	"github.com/hitoa/vclc/pkg/source"
	"github.com/hitoa/vclc/pkg/types"
	"github.com/hitoa/vclc/pkg/verifier"
)

// Config configures a Session. A zero Config is valid: Backend defaults
// to pkg/ir/interp's reference backend and Logger to a plain logrus.Logger
// (spec.md's JIT collaborator and target object format are both out of
// scope; interp exists precisely so this default is exercisable).
type Config struct {
	Backend          ir.Backend
	Logger           *logrus.Logger
	VerifierSettings verifier.Settings

	// ImportDirs is the search path consulted when an @import path
	// doesn't resolve directly, mirroring cmd/vclc's -I flag.
	ImportDirs []string

	// Defines pre-registers bare @define flags before emission starts,
	// mirroring cmd/vclc's -D flag.
	Defines []string
}

func (c Config) withDefaults() Config {
	if c.Backend == nil {
		c.Backend = interp.NewBackend()
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	if c.VerifierSettings == (verifier.Settings{}) {
		c.VerifierSettings = verifier.DefaultSettings()
	}
	return c
}

// Session owns one Backend and one source manager across every Module it
// creates, mirroring go-corset's single Compiler instance compiling many
// modules against shared resolved imports.
type Session struct {
	cfg     Config
	Sources *source.Manager
	log     *logrus.Entry
}

// NewExecutionSession constructs a Session from cfg, defaulting any unset
// field.
func NewExecutionSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:     cfg,
		Sources: source.NewManager(),
		log:     cfg.Logger.WithField("component", "session"),
	}
}

// Module is one source buffer's compilation pipeline: parse -> emit ->
// verify, each stage accumulating diagnostics rather than aborting, so a
// host can surface every error from one source in a single pass.
type Module struct {
	session     *Session
	Name        string
	Buffer      *source.Buffer
	Program     *ast.Program
	Emitter     *emitter.Emitter
	Diagnostics []*diag.Diagnostic
}

// CreateModule parses buf and constructs a fresh Emitter against the
// session's shared Backend, ready for Emit/Verify. Parse diagnostics are
// already recorded on the returned Module; a host should check
// len(Diagnostics) before calling Emit if it wants to fail fast on a
// syntax error.
func (s *Session) CreateModule(buf *source.Buffer) *Module {
	p := parser.New(buf)
	prog, diags := p.ParseProgram()
	em := emitter.New(s.cfg.Backend, s.Sources)
	em.ImportDirs = s.cfg.ImportDirs
	for _, name := range s.cfg.Defines {
		em.DefineFlag(name)
	}
	m := &Module{
		session:     s,
		Name:        buf.Name(),
		Buffer:      buf,
		Program:     prog,
		Emitter:     em,
		Diagnostics: diags,
	}
	return m
}

// Emit lowers m's parsed Program, appending any diagnostics produced
// during emission to m.Diagnostics and returning the module's full
// diagnostic list (parse + emit) so far.
func (m *Module) Emit() []*diag.Diagnostic {
	diags := m.Emitter.EmitProgram(m.Buffer, m.Program)
	m.Diagnostics = append(m.Diagnostics, diags...)
	return m.Diagnostics
}

// Verify runs the post-emission checks (termination, select-recursion)
// over every function the Emitter lowered, appending their diagnostics to
// m.Diagnostics. settings overrides the session's default
// VerifierSettings when non-zero.
func (m *Module) Verify(settings verifier.Settings) []*diag.Diagnostic {
	if settings == (verifier.Settings{}) {
		settings = m.session.cfg.VerifierSettings
	}
	var infos []verifier.FunctionInfo
	for _, rec := range m.Emitter.Functions() {
		if rec.Decl == nil {
			continue // a bodyless prototype has nothing to verify
		}
		infos = append(infos, verifier.FunctionInfo{
			Name:           rec.Callable.Name,
			Body:           rec.Decl.Body,
			IsVoid:         rec.Callable.ReturnType.Kind == types.Void,
			SelectEligible: verifier.ClassifySelectEligible(rec.Decl.Body),
		})
	}
	for _, info := range infos {
		if d := verifier.CheckTermination(info); d != nil {
			m.Diagnostics = append(m.Diagnostics, d)
		}
	}
	graph := verifier.NewCallGraph(infos)
	m.Diagnostics = append(m.Diagnostics, verifier.CheckSelectRecursion(graph, settings)...)
	return m.Diagnostics
}

// Build finalises the emitted IR into a submittable ir.Module.
func (m *Module) Build() ir.Module {
	return m.Emitter.Module.Build()
}

// SubmitModule verifies and registers mod's built IR with the session's
// Backend, making its functions resolvable via Lookup.
func (s *Session) SubmitModule(m *Module) error {
	return s.cfg.Backend.SubmitModule(m.Build())
}

// Backend returns the session's underlying ir.Backend, for callers
// that need to narrow it to a concrete type (e.g. cmd/vclc narrowing to
// *interp.Backend before calling Invoke outside of this package).
func (s *Session) Backend() ir.Backend { return s.cfg.Backend }

// DefineExternSymbolPtr forwards to the Backend, registering a host
// function pointer under symbol for `extern` declarations to resolve
// against.
func (s *Session) DefineExternSymbolPtr(symbol string, hostPtr uintptr) error {
	return s.cfg.Backend.DefineExternSymbolPtr(symbol, hostPtr)
}

// Lookup resolves symbol to a callable address via the Backend.
func (s *Session) Lookup(symbol string) (uintptr, error) {
	return s.cfg.Backend.Lookup(symbol)
}

// SetDumpObject forwards to the Backend's object-dump knob.
func (s *Session) SetDumpObject(dir string, id string) { s.cfg.Backend.SetDumpObject(dir, id) }

// SetDebugInformation forwards to the Backend's debug-info knob.
func (s *Session) SetDebugInformation(enabled bool) { s.cfg.Backend.SetDebugInformation(enabled) }

// Invoke runs symbol through pkg/ir/interp directly, for hosts (and this
// repository's own tests) using the default reference backend without a
// real JIT's calling convention. Returns an error if the session's
// Backend isn't the interp one.
func (s *Session) Invoke(symbol string, args []ir.Value) (ir.Value, error) {
	b, ok := s.cfg.Backend.(*interp.Backend)
	if !ok {
		return nil, fmt.Errorf("session: Invoke requires the pkg/ir/interp reference backend")
	}
	return b.Invoke(symbol, args)
}

// ============================================================================
// Concurrent multi-source compilation
// ============================================================================

// Input is one named source buffer to compile, as CompileAll's argument.
type Input struct {
	Name  string
	Bytes []byte
}

// Result is one Input's compilation outcome.
type Result struct {
	Name        string
	Module      *Module
	Diagnostics []*diag.Diagnostic
}

// CompileAll compiles every input concurrently, each against its own
// fresh Module (independent Emitter/scope/type state; only the Backend
// and source manager are shared), using errgroup.Group so a hard error
// from one source cancels the rest via ctx while every source that did
// parse still contributes its diagnostics to the returned results
// (spec.md's single-source Compile remains synchronous; this is an
// ambient multi-module convenience on top of it).
func (s *Session) CompileAll(ctx context.Context, inputs []Input) ([]Result, error) {
	results := make([]Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			buf := s.Sources.LoadFromMemory(in.Bytes, in.Name)
			m := s.CreateModule(buf)
			diags := m.Emit()
			diags = m.Verify(verifier.Settings{})
			results[i] = Result{Name: in.Name, Module: m, Diagnostics: diags}
			for _, d := range diags {
				if d.Severity == diag.Error {
					return fmt.Errorf("session: %s: %s", in.Name, d.Error())
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
