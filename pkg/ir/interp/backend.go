package interp

import (
	"fmt"
	"sync"

	"github.com/hitoa/vclc/pkg/ir"
)

// Module is the interp package's ir.Module: a name-indexed table of
// interpreted functions produced by one compilation.
type Module struct {
	functions map[string]*function
	order     []*function
}

// NewModule constructs an empty Module.
func NewModule() *Module {
	return &Module{functions: make(map[string]*function)}
}

// Define registers fn under its own name, returning an error on a
// duplicate definition (mirrors a real module verifier rejecting two
// definitions of the same symbol).
func (m *Module) Define(fn ir.Function) error {
	f := fn.(*function)
	if _, exists := m.functions[f.name]; exists {
		return fmt.Errorf("interp: duplicate function definition %q", f.name)
	}
	m.functions[f.name] = f
	m.order = append(m.order, f)
	return nil
}

// Verify checks that every defined function's blocks all end in a
// terminator — the minimal well-formedness check a real IR verifier
// would also run before submission.
func (m *Module) Verify() error {
	for _, f := range m.order {
		for _, bl := range f.blocks {
			if !bl.term {
				return fmt.Errorf("interp: function %q block %q has no terminator", f.name, bl.name)
			}
		}
	}
	return nil
}

func (m *Module) Functions() []ir.Function {
	out := make([]ir.Function, len(m.order))
	for i, f := range m.order {
		out[i] = f
	}
	return out
}

func (m *Module) FunctionName(fn ir.Function) string { return fn.(*function).name }

// Build satisfies ir.ModuleBuilder; for this reference backend the
// builder and the built module are the same object.
func (m *Module) Build() ir.Module { return m }

// Backend is the interp package's ir.Backend: it keeps submitted modules
// and resolves "Lookup" by scanning every submitted module's function
// table, evaluating a function call through Run when invoked via
// pkg/session's Invoke helper.
type Backend struct {
	mu      sync.Mutex
	globals map[string]*cell
	symbols map[string]*function
	extern  map[string]uintptr
}

// NewBackend constructs an empty interpreted Backend.
func NewBackend() *Backend {
	return &Backend{
		globals: make(map[string]*cell),
		symbols: make(map[string]*function),
		extern:  make(map[string]uintptr),
	}
}

func (bk *Backend) NewBuilder() ir.Builder { return NewBuilder(bk.globals) }

// NewModuleBuilder starts a fresh module accumulation; the emitter calls
// Define for each function it finishes lowering, then Build once the
// whole program has been visited.
func (bk *Backend) NewModuleBuilder() ir.ModuleBuilder { return NewModule() }

func (bk *Backend) SubmitModule(m ir.Module) error {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	mod := m.(*Module)
	if err := mod.Verify(); err != nil {
		return err
	}
	for _, f := range mod.order {
		bk.symbols[f.name] = f
	}
	return nil
}

// ErrSymbolNotFound is returned by Lookup for an unknown symbol.
var ErrSymbolNotFound = fmt.Errorf("interp: symbol not found")

// Lookup returns an opaque, type-erased handle: for this interpreted
// backend that handle is only a non-zero sentinel confirming the symbol
// exists (it is not a function pointer or a table index); the callable
// function itself is obtained with ResolveFunction.
func (bk *Backend) Lookup(symbol string) (uintptr, error) {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	if _, ok := bk.symbols[symbol]; !ok {
		return 0, ErrSymbolNotFound
	}
	return uintptr(len(symbol)), nil // opaque non-zero sentinel; real resolution is ResolveFunction
}

// ResolveFunction returns the interpretable function value for symbol,
// the interp-specific escape hatch pkg/session uses in place of calling
// through a raw function pointer obtained from Lookup.
func (bk *Backend) ResolveFunction(symbol string) (*function, bool) {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	f, ok := bk.symbols[symbol]
	return f, ok
}

func (bk *Backend) DefineExternSymbolPtr(symbol string, hostPtr uintptr) error {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	bk.extern[symbol] = hostPtr
	return nil
}

func (bk *Backend) SetDumpObject(dir string, id string)    {}
func (bk *Backend) SetDebugInformation(enabled bool)        {}

// Global returns the current value of the named program-scope global
// (an `in`/`out`/plain module-level variable), the escape hatch a host
// uses in place of reading a resolved symbol's memory directly, since
// this reference backend has no real address space to read.
func (bk *Backend) Global(name string) (ir.Value, bool) {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	c, ok := bk.globals[name]
	return c, ok
}

// SetGlobal overwrites the named global's current value in place (the
// host-side binding step for an `in` global before Invoke), returning
// false if no such global has been created yet.
func (bk *Backend) SetGlobal(name string, v ir.Value) bool {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	c, ok := bk.globals[name]
	if !ok {
		return false
	}
	*c = *asCell(v)
	return true
}

// FloatValue, IntValue, BoolValue and VectorValue construct interpreter
// values directly, for binding/reading globals around Invoke without
// going through a Builder.
func FloatValue(v float32) ir.Value { return floatCell(v) }
func IntValue(v int32) ir.Value     { return intCell(v) }
func BoolValue(v bool) ir.Value     { return boolCell(v) }

func VectorValue(lanes []float32) ir.Value {
	c := &cell{kind: kVec}
	for _, l := range lanes {
		c.vec = append(c.vec, cell{kind: kFloat, scalarF: l})
	}
	return c
}

func VectorLanes(v ir.Value) []float32 {
	c := asCell(v)
	out := make([]float32, len(c.vec))
	for i, e := range c.vec {
		out[i] = e.scalarF
	}
	return out
}

// Invoke runs a previously submitted function by name with the given
// argument values, returning its result (nil for void).
func (bk *Backend) Invoke(symbol string, args []ir.Value) (ir.Value, error) {
	f, ok := bk.ResolveFunction(symbol)
	if !ok {
		return nil, ErrSymbolNotFound
	}
	return Run(f, args), nil
}
