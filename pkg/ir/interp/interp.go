// Package interp is a reference, tree-walking implementation of
// pkg/ir's Builder/Backend/Module interfaces, used by pkg/session's
// default configuration and by every package's tests so the pipeline is
// exercisable end-to-end without a real JIT backend (spec.md §11
// Non-goals: "the IR emission target and JIT execution engine are out
// of scope"; this package exists only to make that boundary testable,
// grounded loosely on sokoide-llvm5's own small in-repo interpreter
// fallback for the same reason). It is not a product code generator: it
// builds an in-memory instruction list per function and evaluates it
// directly, one call frame per invocation.
package interp

import (
	"fmt"
	"math"

	"github.com/hitoa/vclc/pkg/ir"
)

// cell is one interpreted storage slot or SSA result. Values fan out by
// Go type: float32 for Float, int32 for Int, bool for Bool, and a []cell
// of lanes/elements for aggregates/arrays/vectors.
type cell struct {
	scalarF float32
	scalarI int32
	scalarB bool
	vec     []cell
	isAddr  bool
	addr    *cell
	kind    cellKind
}

type cellKind int

const (
	kInt cellKind = iota
	kFloat
	kBool
	kVec
	kAddr
)

func intCell(v int32) ir.Value   { return &cell{kind: kInt, scalarI: v} }
func floatCell(v float32) ir.Value { return &cell{kind: kFloat, scalarF: v} }
func boolCell(v bool) ir.Value   { return &cell{kind: kBool, scalarB: v} }

func asCell(v ir.Value) *cell {
	c, ok := v.(*cell)
	if !ok {
		panic(fmt.Sprintf("interp: value %#v is not an interpreter cell", v))
	}
	return c
}

// block is a linear list of instructions; control flow is modelled as
// jumps between blocks rather than a CFG walk, mirroring how a real
// builder would emit basic blocks.
type block struct {
	name   string
	instrs []func(f *frame)
	term   bool
}

type function struct {
	name       string
	params     int
	entry      *block
	blocks     []*block
	paramCells []*cell
}

// Builder is the interp package's ir.Builder: it records a closure per
// instruction instead of building a textual IR, then Run replays those
// closures when the function is called.
type Builder struct {
	fn      *function
	cur     *block
	globals map[string]*cell
}

// NewBuilder constructs a fresh per-function Builder bound to shared
// global storage.
func NewBuilder(globals map[string]*cell) *Builder {
	return &Builder{globals: globals}
}

func (b *Builder) SetInsertPoint(bb ir.BasicBlock) { b.cur = bb.(*block) }
func (b *Builder) CurrentBlock() ir.BasicBlock      { return b.cur }
func (b *Builder) HasTerminator(bb ir.BasicBlock) bool { return bb.(*block).term }

func (b *Builder) CreateBlock(fn ir.Function, name string) ir.BasicBlock {
	f := fn.(*function)
	bl := &block{name: name}
	f.blocks = append(f.blocks, bl)
	return bl
}

func (b *Builder) ConstInt(v int32) ir.Value   { return intCell(v) }
func (b *Builder) ConstBool(v bool) ir.Value   { return boolCell(v) }
func (b *Builder) ConstFloat(v float32) ir.Value { return floatCell(v) }

func (b *Builder) ConstVector(elements []ir.Value) ir.Value {
	c := &cell{kind: kVec}
	for _, e := range elements {
		c.vec = append(c.vec, *asCell(e))
	}
	return c
}

func (b *Builder) ConstArray(elements []ir.Value) ir.Value  { return b.ConstVector(elements) }
func (b *Builder) ConstStruct(fields []ir.Value) ir.Value   { return b.ConstVector(fields) }

// allocaFanout is a generous fixed capacity reserved up front for any
// aggregate/array/vector local, so GEPField/GEPIndex never need to grow
// the backing slice (and so never invalidate a previously returned
// element pointer) once the interpreter starts indexing into it.
const allocaFanout = 64

func (b *Builder) Alloca(t ir.Type, name string) ir.Value {
	storage := &cell{kind: kAddr}
	cur := b.cur
	cur.instrs = append(cur.instrs, func(f *frame) {
		f.locals[storage] = &cell{vec: make([]cell, allocaFanout)}
	})
	return storage
}

func (b *Builder) emit(fn func(f *frame) *cell) ir.Value {
	placeholder := &cell{}
	cur := b.cur
	cur.instrs = append(cur.instrs, func(f *frame) {
		*placeholder = *fn(f)
	})
	return placeholder
}

func (b *Builder) Load(ptr ir.Value, t ir.Type) ir.Value {
	p := asCell(ptr)
	return b.emit(func(f *frame) *cell {
		if loc, ok := f.locals[p]; ok {
			return loc
		}
		if g, ok := b.globalFor(p); ok {
			return g
		}
		return p
	})
}

func (b *Builder) globalFor(p *cell) (*cell, bool) {
	for _, g := range b.globals {
		if g == p {
			return g, true
		}
	}
	return nil, false
}

func (b *Builder) Store(ptr ir.Value, v ir.Value) {
	p := asCell(ptr)
	if b.cur == nil {
		// No insertion point: a program-scope initialiser, applied now.
		*p = *asCell(v)
		return
	}
	cur := b.cur
	cur.instrs = append(cur.instrs, func(f *frame) {
		val := *asCell(v)
		if loc, ok := f.locals[p]; ok {
			*loc = val
			return
		}
		*p = val
	})
}

func (b *Builder) GEPField(base ir.Value, fieldIndex int) ir.Value {
	bp := asCell(base)
	return b.emit(func(f *frame) *cell {
		agg := f.resolve(bp)
		return &agg.vec[fieldIndex]
	})
}

func (b *Builder) GEPIndex(base ir.Value, index ir.Value) ir.Value {
	bp := asCell(base)
	ip := asCell(index)
	return b.emit(func(f *frame) *cell {
		agg := f.resolve(bp)
		idx := int(f.resolve(ip).scalarI)
		return &agg.vec[idx]
	})
}

func (b *Builder) GEPSpanIndex(spanPtr ir.Value, index ir.Value) ir.Value {
	return b.GEPIndex(spanPtr, index)
}

func binOpF(a, b ir.Value, op func(x, y float32) float32) func(f *frame) *cell {
	ac, bc := asCell(a), asCell(b)
	return func(f *frame) *cell {
		return &cell{kind: kFloat, scalarF: op(f.resolve(ac).scalarF, f.resolve(bc).scalarF)}
	}
}

func binOpI(a, b ir.Value, op func(x, y int32) int32) func(f *frame) *cell {
	ac, bc := asCell(a), asCell(b)
	return func(f *frame) *cell {
		return &cell{kind: kInt, scalarI: op(f.resolve(ac).scalarI, f.resolve(bc).scalarI)}
	}
}

func (b *Builder) FAdd(a, c ir.Value) ir.Value { return b.emit(binOpF(a, c, func(x, y float32) float32 { return x + y })) }
func (b *Builder) FSub(a, c ir.Value) ir.Value { return b.emit(binOpF(a, c, func(x, y float32) float32 { return x - y })) }
func (b *Builder) FMul(a, c ir.Value) ir.Value { return b.emit(binOpF(a, c, func(x, y float32) float32 { return x * y })) }
func (b *Builder) FDiv(a, c ir.Value) ir.Value { return b.emit(binOpF(a, c, func(x, y float32) float32 { return x / y })) }
func (b *Builder) IAdd(a, c ir.Value) ir.Value { return b.emit(binOpI(a, c, func(x, y int32) int32 { return x + y })) }
func (b *Builder) ISub(a, c ir.Value) ir.Value { return b.emit(binOpI(a, c, func(x, y int32) int32 { return x - y })) }
func (b *Builder) IMul(a, c ir.Value) ir.Value { return b.emit(binOpI(a, c, func(x, y int32) int32 { return x * y })) }
func (b *Builder) IDiv(a, c ir.Value) ir.Value { return b.emit(binOpI(a, c, func(x, y int32) int32 { return x / y })) }
func (b *Builder) IMod(a, c ir.Value) ir.Value { return b.emit(binOpI(a, c, func(x, y int32) int32 { return x % y })) }

func (b *Builder) And(a, c ir.Value) ir.Value {
	ac, bc := asCell(a), asCell(c)
	return b.emit(func(f *frame) *cell { return &cell{kind: kBool, scalarB: f.resolve(ac).scalarB && f.resolve(bc).scalarB} })
}
func (b *Builder) Or(a, c ir.Value) ir.Value {
	ac, bc := asCell(a), asCell(c)
	return b.emit(func(f *frame) *cell { return &cell{kind: kBool, scalarB: f.resolve(ac).scalarB || f.resolve(bc).scalarB} })
}
func (b *Builder) Not(a ir.Value) ir.Value {
	ac := asCell(a)
	return b.emit(func(f *frame) *cell { return &cell{kind: kBool, scalarB: !f.resolve(ac).scalarB} })
}
func (b *Builder) FNeg(a ir.Value) ir.Value {
	ac := asCell(a)
	return b.emit(func(f *frame) *cell { return &cell{kind: kFloat, scalarF: -f.resolve(ac).scalarF} })
}
func (b *Builder) INeg(a ir.Value) ir.Value {
	ac := asCell(a)
	return b.emit(func(f *frame) *cell { return &cell{kind: kInt, scalarI: -f.resolve(ac).scalarI} })
}

func (b *Builder) FCmp(pred ir.CmpPredicate, a, c ir.Value) ir.Value {
	ac, bc := asCell(a), asCell(c)
	return b.emit(func(f *frame) *cell {
		x, y := f.resolve(ac).scalarF, f.resolve(bc).scalarF
		return &cell{kind: kBool, scalarB: cmpFloat(pred, x, y)}
	})
}

func (b *Builder) ICmp(pred ir.CmpPredicate, a, c ir.Value) ir.Value {
	ac, bc := asCell(a), asCell(c)
	return b.emit(func(f *frame) *cell {
		x, y := f.resolve(ac).scalarI, f.resolve(bc).scalarI
		return &cell{kind: kBool, scalarB: cmpInt(pred, x, y)}
	})
}

func cmpFloat(pred ir.CmpPredicate, x, y float32) bool {
	switch pred {
	case ir.CmpGT:
		return x > y
	case ir.CmpLT:
		return x < y
	case ir.CmpGE:
		return x >= y
	case ir.CmpLE:
		return x <= y
	case ir.CmpEQ:
		return x == y
	case ir.CmpNE:
		return x != y
	default:
		return false
	}
}

func cmpInt(pred ir.CmpPredicate, x, y int32) bool {
	switch pred {
	case ir.CmpGT:
		return x > y
	case ir.CmpLT:
		return x < y
	case ir.CmpGE:
		return x >= y
	case ir.CmpLE:
		return x <= y
	case ir.CmpEQ:
		return x == y
	case ir.CmpNE:
		return x != y
	default:
		return false
	}
}

func (b *Builder) FloatToInt(v ir.Value) ir.Value {
	vc := asCell(v)
	return b.emit(func(f *frame) *cell { return &cell{kind: kInt, scalarI: int32(f.resolve(vc).scalarF)} })
}
func (b *Builder) IntToFloat(v ir.Value) ir.Value {
	vc := asCell(v)
	return b.emit(func(f *frame) *cell { return &cell{kind: kFloat, scalarF: float32(f.resolve(vc).scalarI)} })
}
func (b *Builder) IntToBool(v ir.Value) ir.Value {
	vc := asCell(v)
	return b.emit(func(f *frame) *cell { return &cell{kind: kBool, scalarB: f.resolve(vc).scalarI != 0} })
}
func (b *Builder) BoolToInt(v ir.Value) ir.Value {
	vc := asCell(v)
	return b.emit(func(f *frame) *cell {
		i := int32(0)
		if f.resolve(vc).scalarB {
			i = 1
		}
		return &cell{kind: kInt, scalarI: i}
	})
}

func (b *Builder) Splat(scalar ir.Value, lanes int) ir.Value {
	sc := asCell(scalar)
	return b.emit(func(f *frame) *cell {
		s := f.resolve(sc)
		vec := make([]cell, lanes)
		for i := range vec {
			vec[i] = *s
		}
		return &cell{kind: kVec, vec: vec}
	})
}

func (b *Builder) Br(target ir.BasicBlock) {
	tb := target.(*block)
	b.cur.instrs = append(b.cur.instrs, func(f *frame) { f.nextBlock = tb })
	b.cur.term = true
}

func (b *Builder) CondBr(cond ir.Value, then, els ir.BasicBlock) {
	cc := asCell(cond)
	tb, eb := then.(*block), els.(*block)
	b.cur.instrs = append(b.cur.instrs, func(f *frame) {
		if f.resolve(cc).scalarB {
			f.nextBlock = tb
		} else {
			f.nextBlock = eb
		}
	})
	b.cur.term = true
}

func (b *Builder) Ret(v ir.Value) {
	vc := asCell(v)
	b.cur.instrs = append(b.cur.instrs, func(f *frame) {
		f.result = f.resolve(vc)
		f.done = true
	})
	b.cur.term = true
}

func (b *Builder) RetVoid() {
	b.cur.instrs = append(b.cur.instrs, func(f *frame) { f.done = true })
	b.cur.term = true
}

func (b *Builder) DeclareFunction(name string, paramTypes []ir.Type, retType ir.Type) ir.Function {
	fn := &function{name: name, params: len(paramTypes)}
	b.fn = fn
	entry := &block{name: "entry"}
	fn.entry = entry
	fn.blocks = append(fn.blocks, entry)
	for range paramTypes {
		fn.paramCells = append(fn.paramCells, &cell{})
	}
	return fn
}

func (b *Builder) EntryBlock(fn ir.Function) ir.BasicBlock { return fn.(*function).entry }

func (b *Builder) Param(fn ir.Function, index int) ir.Value {
	return fn.(*function).paramCells[index]
}

func (b *Builder) CreateGlobal(name string, t ir.Type, external, constant, zeroInit bool) ir.Value {
	c := &cell{}
	b.globals[name] = c
	return c
}

// Call interprets target's body to completion in its own frame, replayed
// every time the enclosing instruction stream reaches this point (a real
// direct call, not inlining: target keeps its own paramCells, so a
// recursive call re-binds them on each activation via Run).
func (b *Builder) Call(fn ir.Function, args []ir.Value) ir.Value {
	target := fn.(*function)
	argCells := make([]*cell, len(args))
	for i, a := range args {
		argCells[i] = asCell(a)
	}
	return b.emit(func(f *frame) *cell {
		resolved := make([]ir.Value, len(argCells))
		for i, ac := range argCells {
			resolved[i] = f.resolve(ac)
		}
		result := Run(target, resolved)
		if result == nil {
			return &cell{}
		}
		return asCell(result)
	})
}

func (b *Builder) Select(cond, then, els ir.Value) ir.Value {
	cc, tc, ec := asCell(cond), asCell(then), asCell(els)
	return b.emit(func(f *frame) *cell {
		// Always evaluates both arms' already-computed handles (the
		// caller emitted both sides unconditionally before Select, per
		// ir.Builder's doc comment), matching the ternary semantics the
		// verifier's select-recursion check is concerned with.
		if f.resolve(cc).scalarB {
			return f.resolve(tc)
		}
		return f.resolve(ec)
	})
}

// intrinsicFuncs are this interpreter's trivial kernels for the host math
// intrinsics pkg/callable registers with IsIntrinsic (the frontend's own
// named-intrinsic mechanism; spec.md's glossary lists sqrt/fma/pow/fmod/
// sin/cos as examples). A real embedding's Backend would lower these to
// whatever native math intrinsic table it targets instead (spec.md §11
// Non-goals) — this map exists only so the reference interpreter can
// execute what the frontend already typechecked.
var intrinsicFuncs = map[string]func(args []float32) float32{
	"sqrt": func(a []float32) float32 { return float32(math.Sqrt(float64(a[0]))) },
	"sin":  func(a []float32) float32 { return float32(math.Sin(float64(a[0]))) },
	"cos":  func(a []float32) float32 { return float32(math.Cos(float64(a[0]))) },
	"pow":  func(a []float32) float32 { return float32(math.Pow(float64(a[0]), float64(a[1]))) },
	"fmod": func(a []float32) float32 { return float32(math.Mod(float64(a[0]), float64(a[1]))) },
	"fma":  func(a []float32) float32 { return float32(math.FMA(float64(a[0]), float64(a[1]), float64(a[2]))) },
}

// Intrinsic looks up name's kernel and applies it either to one scalar
// cell or lane-wise across a vector cell, choosing by the shape of its
// first argument. (The binary arithmetic and comparison instructions of
// this interpreter, by contrast, read scalar fields only.)
func (b *Builder) Intrinsic(name string, args []ir.Value) ir.Value {
	fn, ok := intrinsicFuncs[name]
	if !ok {
		panic(fmt.Sprintf("interp: unknown intrinsic %q", name))
	}
	argCells := make([]*cell, len(args))
	for i, a := range args {
		argCells[i] = asCell(a)
	}
	return b.emit(func(f *frame) *cell {
		resolved := make([]*cell, len(argCells))
		for i, ac := range argCells {
			resolved[i] = f.resolve(ac)
		}
		if resolved[0].kind == kVec {
			lanes := len(resolved[0].vec)
			out := make([]cell, lanes)
			lane := make([]float32, len(resolved))
			for l := 0; l < lanes; l++ {
				for i, r := range resolved {
					lane[i] = r.vec[l].scalarF
				}
				out[l] = cell{kind: kFloat, scalarF: fn(lane)}
			}
			return &cell{kind: kVec, vec: out}
		}
		scalars := make([]float32, len(resolved))
		for i, r := range resolved {
			scalars[i] = r.scalarF
		}
		return &cell{kind: kFloat, scalarF: fn(scalars)}
	})
}

// frame is one function activation during interpretation.
type frame struct {
	locals    map[*cell]*cell
	result    *cell
	done      bool
	nextBlock *block
}

func (f *frame) resolve(c *cell) *cell {
	if loc, ok := f.locals[c]; ok {
		return loc
	}
	return c
}

// Run interprets fn starting at its entry block with the given argument
// cells bound to its parameter slots, returning the final Ret value (or
// nil for a void function). paramCells are shared storage on *function
// (declared once, not per call), so a recursive activation must save and
// restore the caller's bindings around its own — calls nest like a real
// call stack, never interleave, so this save/restore is sound regardless
// of recursion depth.
func Run(fn *function, args []ir.Value) ir.Value {
	saved := make([]cell, len(fn.paramCells))
	for i, pc := range fn.paramCells {
		saved[i] = *pc
	}
	defer func() {
		for i, pc := range fn.paramCells {
			*pc = saved[i]
		}
	}()
	for i, a := range args {
		*fn.paramCells[i] = *asCell(a)
	}
	f := &frame{locals: make(map[*cell]*cell)}
	bl := fn.entry
	const maxSteps = 1_000_000 // guards against a non-terminating interpreted loop.
	steps := 0
	for bl != nil && !f.done {
		for _, instr := range bl.instrs {
			instr(f)
			steps++
			if steps > maxSteps {
				panic("interp: exceeded max interpreted step count")
			}
			if f.done {
				break
			}
		}
		if f.done {
			break
		}
		next := f.nextBlock
		f.nextBlock = nil
		bl = next
	}
	if f.result == nil {
		return nil
	}
	// Copy out before the deferred restore: the result may be a parameter cell.
	out := *f.result
	return &out
}

// CellToFloat32/Int32/Bool extract a scalar Go value from an ir.Value
// produced by this interpreter, for host-side result inspection (tests,
// pkg/session.Invoke).
func CellToFloat32(v ir.Value) float32 { return asCell(v).scalarF }
func CellToInt32(v ir.Value) int32     { return asCell(v).scalarI }
func CellToBool(v ir.Value) bool       { return asCell(v).scalarB }
