// Package scope implements the lexical scope stack: a flat vector of
// frames rather than a chain of heap-allocated dictionaries, per the
// redesign note in spec.md's Design Notes ("Scope stack of dictionaries"
// -> "a flat vector of frames, each frame an open-addressed string map").
// Grounded on go-corset's pkg/corset/compiler/scope.go split between a
// ModuleScope (program scope) and LocalScope (function-local frames),
// generalised here into one Frame kind reused at every depth.
package scope

import (
	"fmt"

	"github.com/hitoa/vclc/pkg/types"
)

// Frame is one lexical scope. Bindings are stored as `any` so this
// package needs no dependency on pkg/value/pkg/template/pkg/structs —
// those packages import scope, not the other way around, keeping the
// dependency graph acyclic exactly as the template engine's Resolve
// (which must push a scope, per spec.md §4.8) requires.
type Frame struct {
	Values            map[string]any
	Types             map[string]any
	StructTemplates   map[string]any
	CallableTemplates map[string]any
	Aliases           map[string]types.TypeInfo
	BreakTarget       any // nil outside a loop
	DebugScope        any
}

func newFrame() *Frame {
	return &Frame{
		Values:            make(map[string]any),
		Types:             make(map[string]any),
		StructTemplates:   make(map[string]any),
		CallableTemplates: make(map[string]any),
		Aliases:           make(map[string]types.TypeInfo),
	}
}

// Stack is the deque of frames; the bottom frame (index 0) is the
// program scope.
type Stack struct {
	frames []*Frame
}

// NewStack constructs a Stack with a single program-scope frame already
// pushed.
func NewStack() *Stack {
	s := &Stack{}
	s.Push(nil)
	return s
}

// Push pushes a new frame, optionally inheriting breakTarget (non-nil
// establishes a loop's break target for this frame and all frames pushed
// above it until popped).
func (s *Stack) Push(breakTarget any) {
	f := newFrame()
	f.BreakTarget = breakTarget
	s.frames = append(s.frames, f)
}

// Pop removes the innermost frame.
func (s *Stack) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of frames currently on the stack.
func (s *Stack) Depth() int { return len(s.frames) }

// Top returns the innermost frame.
func (s *Stack) Top() *Frame { return s.frames[len(s.frames)-1] }

// ProgramScope returns the bottom (program) frame.
func (s *Stack) ProgramScope() *Frame { return s.frames[0] }

// IsAtProgramScope reports whether the current frame is the program scope.
func (s *Stack) IsAtProgramScope() bool { return len(s.frames) == 1 }

// category identifies which of a Frame's binding maps an operation
// targets.
type category int

const (
	catValue category = iota
	catType
	catStructTemplate
	catCallableTemplate
)

func (f *Frame) mapFor(c category) map[string]any {
	switch c {
	case catValue:
		return f.Values
	case catType:
		return f.Types
	case catStructTemplate:
		return f.StructTemplates
	case catCallableTemplate:
		return f.CallableTemplates
	default:
		panic("scope: unknown binding category")
	}
}

// declare inserts name into the frame's map for category c, failing with
// false on collision in that frame (shadowing in outer frames is fine).
func (f *Frame) declare(c category, name string, binding any) bool {
	m := f.mapFor(c)
	if _, exists := m[name]; exists {
		return false
	}
	m[name] = binding
	return true
}

// DeclareValue inserts a named value binding at the current frame.
func (s *Stack) DeclareValue(name string, v any) bool {
	return s.Top().declare(catValue, name, v)
}

// DeclareType inserts a named type binding (a struct instance or
// instantiated template) at the current frame.
func (s *Stack) DeclareType(name string, t any) bool {
	return s.Top().declare(catType, name, t)
}

// DeclareStructTemplate inserts a named struct template at the current frame.
func (s *Stack) DeclareStructTemplate(name string, t any) bool {
	return s.Top().declare(catStructTemplate, name, t)
}

// DeclareCallableTemplate inserts a named callable template at the
// current frame.
func (s *Stack) DeclareCallableTemplate(name string, t any) bool {
	return s.Top().declare(catCallableTemplate, name, t)
}

// DeclareAlias inserts a type alias at the current frame.
func (s *Stack) DeclareAlias(name string, target types.TypeInfo) bool {
	f := s.Top()
	if _, exists := f.Aliases[name]; exists {
		return false
	}
	f.Aliases[name] = target
	return true
}

func lookup(s *Stack, c category, name string) (any, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].mapFor(c)[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupValue walks frames innermost-outward for a named value binding.
func (s *Stack) LookupValue(name string) (any, bool) { return lookup(s, catValue, name) }

// LookupType walks frames innermost-outward for a named type binding.
func (s *Stack) LookupType(name string) (any, bool) { return lookup(s, catType, name) }

// LookupStructTemplate walks frames innermost-outward for a struct template.
func (s *Stack) LookupStructTemplate(name string) (any, bool) {
	return lookup(s, catStructTemplate, name)
}

// LookupCallableTemplate walks frames innermost-outward for a callable template.
func (s *Stack) LookupCallableTemplate(name string) (any, bool) {
	return lookup(s, catCallableTemplate, name)
}

// LookupAlias walks frames innermost-outward for a type alias.
func (s *Stack) LookupAlias(name string) (types.TypeInfo, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].Aliases[name]; ok {
			return v, true
		}
	}
	return types.TypeInfo{}, false
}

// BreakTargetFrame returns the nearest enclosing frame that established a
// break target, and that target, or (nil,false) if none (i.e. `break`
// used outside a loop).
func (s *Stack) BreakTargetFrame() (any, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].BreakTarget != nil {
			return s.frames[i].BreakTarget, true
		}
	}
	return nil, false
}

// DeclareAt inserts a template instantiation at a specific stack depth
// (offset), so the instantiation outlives the call site that triggered
// it and is shared by every later call with the same mangled name — the
// "instantiation inserted at the frame where the template was declared"
// rule from spec.md §3/§4.8.
func (s *Stack) DeclareAt(offset int, c CategoryPublic, name string, binding any) bool {
	if offset < 0 || offset >= len(s.frames) {
		panic(fmt.Sprintf("scope: DeclareAt offset %d out of range [0,%d)", offset, len(s.frames)))
	}
	return s.frames[offset].declare(category(c), name, binding)
}

// CategoryPublic re-exports category so callers outside the package
// (the template engine) can name a binding kind when calling DeclareAt.
type CategoryPublic int

const (
	CatValue            CategoryPublic = CategoryPublic(catValue)
	CatType             CategoryPublic = CategoryPublic(catType)
	CatStructTemplate   CategoryPublic = CategoryPublic(catStructTemplate)
	CatCallableTemplate CategoryPublic = CategoryPublic(catCallableTemplate)
)

// FrameOffsetOf returns the stack offset of the frame that currently
// owns the given name for category c, searching innermost to outermost;
// used by the template engine to re-declare an instantiation at its
// template's declaration depth.
func (s *Stack) FrameOffsetOf(c CategoryPublic, name string) (int, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i].mapFor(category(c))[name]; ok {
			return i, true
		}
	}
	return 0, false
}

// Guard owns one pushed frame and releases it on every exit path,
// including a panicking one, mirroring the scoped-guard resource model
// from spec.md §5 ("scoped guards that release on every exit path").
type Guard struct {
	stack *Stack
}

// EnterScope pushes a frame and returns a Guard; callers should
// `defer guard.Release()` immediately.
func EnterScope(s *Stack, breakTarget any) *Guard {
	s.Push(breakTarget)
	return &Guard{stack: s}
}

// Release pops the frame this Guard owns. Safe to call multiple times.
func (g *Guard) Release() {
	if g.stack == nil {
		return
	}
	g.stack.Pop()
	g.stack = nil
}
