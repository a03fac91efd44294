// Package ir defines the minimal boundary the frontend needs from the
// out-of-scope IR builder library and JIT execution engine (spec.md §1,
// §6): a small set of interfaces the IR Emitter drives without owning,
// grounded on sokoide-llvm5's internal/interfaces/compiler.go
// (LLVMBackend/LLVMModule/LLVMValue). A real embedding supplies its own
// implementation (e.g. backed by an actual LLVM binding); pkg/ir/interp
// ships a tree-walking reference implementation so the rest of this
// repository is exercisable and testable without one.
package ir

// Type is an opaque handle to a lowered IR type (the emitter never
// inspects it directly; it only threads it back into Builder calls).
type Type any

// Value is an opaque handle to an IR value — an SSA result or a pointer
// into storage. "Has storage" values are addresses (allocas, GEPs,
// globals); the rest are immediate SSA results. pkg/value wraps Value
// with the typed l-value/r-value semantics spec.md's Value Model
// describes; this package only carries the untyped handle.
type Value any

// BasicBlock is an opaque handle to one IR basic block.
type BasicBlock any

// Function is an opaque handle to an IR function.
type Function any

// Builder is what the IR Emitter drives while lowering one function body
// — the moral equivalent of an LLVM IRBuilder, generalised to the
// operations spec.md §4.9 enumerates. All "emit" methods append to the
// block most recently selected with SetInsertPoint.
type Builder interface {
	// SetInsertPoint selects the block subsequent Emit* calls append to.
	SetInsertPoint(b BasicBlock)
	CreateBlock(fn Function, name string) BasicBlock
	CurrentBlock() BasicBlock
	HasTerminator(b BasicBlock) bool

	// Constants
	ConstInt(v int32) Value
	ConstBool(v bool) Value
	ConstFloat(v float32) Value
	ConstVector(elements []Value) Value
	ConstArray(elements []Value) Value
	ConstStruct(fields []Value) Value

	// Storage
	Alloca(t Type, name string) Value
	Load(ptr Value, t Type) Value
	Store(ptr Value, v Value)
	GEPField(base Value, fieldIndex int) Value
	GEPIndex(base Value, index Value) Value
	GEPSpanIndex(spanPtr Value, index Value) Value

	// Arithmetic / logic (elementwise on vectors)
	FAdd(a, b Value) Value
	FSub(a, b Value) Value
	FMul(a, b Value) Value
	FDiv(a, b Value) Value
	IAdd(a, b Value) Value
	ISub(a, b Value) Value
	IMul(a, b Value) Value
	IDiv(a, b Value) Value
	IMod(a, b Value) Value
	And(a, b Value) Value
	Or(a, b Value) Value
	Not(a Value) Value
	FNeg(a Value) Value
	INeg(a Value) Value

	// Comparisons, producing Bool/VectorBool
	FCmp(pred CmpPredicate, a, b Value) Value
	ICmp(pred CmpPredicate, a, b Value) Value

	// Casts
	FloatToInt(v Value) Value
	IntToFloat(v Value) Value
	IntToBool(v Value) Value
	BoolToInt(v Value) Value
	Splat(scalar Value, lanes int) Value

	// Control flow
	Br(target BasicBlock)
	CondBr(cond Value, then, els BasicBlock)
	Ret(v Value)
	RetVoid()

	// Functions & globals
	DeclareFunction(name string, paramTypes []Type, retType Type) Function
	EntryBlock(fn Function) BasicBlock
	Param(fn Function, index int) Value
	CreateGlobal(name string, t Type, external bool, constant bool, zeroInit bool) Value

	// Call lowers a direct call to an already-declared Function, evaluated
	// strictly (every argument computed before the call executes).
	Call(fn Function, args []Value) Value

	// Select (ternary; always evaluates both arms — the source of the
	// verifier's select-recursion check, spec.md §4.10).
	Select(cond, then, els Value) Value

	// Intrinsic lowers a call to a named host math intrinsic (e.g. "sqrt",
	// "pow", "fma", "fmod", "sin", "cos" — spec.md's glossary) that the
	// frontend has already arity- and policy-checked via
	// pkg/callable.Callable.IsIntrinsic. args is evaluated strictly, same
	// as Call; unlike Call there is no declared Function handle, since the
	// native math intrinsic table that actually generates code for these
	// is an out-of-scope collaborator (spec.md §11 Non-goals) — this
	// method is that boundary, mirroring Select's role for the ternary.
	Intrinsic(name string, args []Value) Value
}

// CmpPredicate enumerates the comparison operators a Builder must support.
type CmpPredicate int

const (
	CmpGT CmpPredicate = iota
	CmpLT
	CmpGE
	CmpLE
	CmpEQ
	CmpNE
)

// Module is a completed, emitted IR module, handed to Backend for
// verification and submission.
type Module interface {
	Verify() error
	Functions() []Function
	FunctionName(fn Function) string
}

// ModuleBuilder accumulates functions as the emitter finishes lowering
// each one, then yields a completed Module. Kept separate from Builder
// (which lowers one function's instructions) since a module may define
// many functions before anything is submitted to a Backend.
type ModuleBuilder interface {
	Define(fn Function) error
	Build() Module
}

// Backend is the out-of-scope JIT execution engine boundary (spec.md §6:
// ExecutionSession.SubmitModule/Lookup/DefineExternSymbolPtr). A real
// embedding's Backend would own compilation layers, object caching,
// symbol resolution, and a GDB listener — none of which this frontend
// specifies.
type Backend interface {
	NewBuilder() Builder
	NewModuleBuilder() ModuleBuilder
	SubmitModule(m Module) error
	Lookup(symbol string) (uintptr, error)
	DefineExternSymbolPtr(symbol string, hostPtr uintptr) error
	SetDumpObject(dir string, id string)
	SetDebugInformation(enabled bool)
}
