package interp

import (
	"testing"

	"github.com/hitoa/vclc/pkg/ir"
)

// newTestBuilder constructs a Builder sharing a fresh Backend's globals,
// the same wiring Backend.NewBuilder performs, kept separate here since
// these tests drive Builder/Run directly rather than through a Backend.
func newTestBuilder() (*Backend, *Builder) {
	bk := NewBackend()
	return bk, NewBuilder(bk.globals)
}

func TestBuilderIntegerArithmetic(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	x := b.ConstInt(3)
	y := b.ConstInt(4)
	sum := b.IAdd(x, y)
	b.Ret(sum)

	result := Run(fnIface.(*function), nil)
	if got := CellToInt32(result); got != 7 {
		t.Fatalf("3+4 = %d, want 7", got)
	}
}

func TestBuilderFloatArithmetic(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	x := b.ConstFloat(2.5)
	y := b.ConstFloat(4)
	prod := b.FMul(x, y)
	b.Ret(prod)

	result := Run(fnIface.(*function), nil)
	if got := CellToFloat32(result); got != 10 {
		t.Fatalf("2.5*4 = %v, want 10", got)
	}
}

func TestBuilderIntrinsicScalarMath(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	x := b.ConstFloat(3)
	y := b.ConstFloat(4)
	dist := b.Intrinsic("sqrt", []ir.Value{
		b.FAdd(b.Intrinsic("pow", []ir.Value{x, b.ConstFloat(2)}), b.Intrinsic("pow", []ir.Value{y, b.ConstFloat(2)})),
	})
	b.Ret(dist)

	result := Run(fnIface.(*function), nil)
	if got := CellToFloat32(result); got != 5 {
		t.Fatalf("sqrt(3^2+4^2) = %v, want 5", got)
	}
}

func TestBuilderIntrinsicVectorMathAppliesLaneWise(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	v := b.ConstVector([]ir.Value{b.ConstFloat(4), b.ConstFloat(9)})
	roots := b.Intrinsic("sqrt", []ir.Value{v})
	b.Ret(roots)

	result := Run(fnIface.(*function), nil)
	lanes := asCell(result).vec
	if len(lanes) != 2 || lanes[0].scalarF != 2 || lanes[1].scalarF != 3 {
		t.Fatalf("sqrt([4,9]) lanes = %v, want [2 3]", lanes)
	}
}

func TestBuilderIntegerDivAndMod(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	x := b.ConstInt(17)
	y := b.ConstInt(5)
	div := b.IDiv(x, y)
	mod := b.IMod(x, y)
	combined := b.IMul(div, b.ConstInt(10))
	combined = b.IAdd(combined, mod)
	b.Ret(combined)

	result := Run(fnIface.(*function), nil)
	if got := CellToInt32(result); got != 32 { // 17/5=3, 17%5=2, 3*10+2=32
		t.Fatalf("17/5*10+17%%5 = %d, want 32", got)
	}
}

func TestBuilderComparisonsAndSelect(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	a := b.ConstFloat(3)
	c := b.ConstFloat(5)
	cond := b.FCmp(ir.CmpLT, a, c)
	maxVal := b.Select(cond, c, a)
	b.Ret(maxVal)

	result := Run(fnIface.(*function), nil)
	if got := CellToFloat32(result); got != 5 {
		t.Fatalf("select(3<5, 5, 3) = %v, want 5", got)
	}
}

func TestBuilderCasts(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	f := b.ConstFloat(3.9)
	i := b.FloatToInt(f)         // truncates to 3
	asBool := b.IntToBool(i)     // 3 != 0 -> true
	backToInt := b.BoolToInt(asBool) // true -> 1
	b.Ret(backToInt)

	result := Run(fnIface.(*function), nil)
	if got := CellToInt32(result); got != 1 {
		t.Fatalf("FloatToInt(3.9)!=0 round-tripped through bool = %d, want 1", got)
	}
}

func TestBuilderCondBrSelectsLiveBranch(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("max2", []ir.Type{nil, nil}, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	a := b.Param(fnIface, 0)
	c := b.Param(fnIface, 1)
	cond := b.ICmp(ir.CmpGT, a, c)
	thenBlock := b.CreateBlock(fnIface, "then")
	elseBlock := b.CreateBlock(fnIface, "else")
	b.CondBr(cond, thenBlock, elseBlock)

	b.SetInsertPoint(thenBlock)
	b.Ret(a)

	b.SetInsertPoint(elseBlock)
	b.Ret(c)

	fn := fnIface.(*function)
	if got := CellToInt32(Run(fn, []ir.Value{intCell(7), intCell(2)})); got != 7 {
		t.Fatalf("max2(7,2) = %d, want 7", got)
	}
	if got := CellToInt32(Run(fn, []ir.Value{intCell(1), intCell(9)})); got != 9 {
		t.Fatalf("max2(1,9) = %d, want 9", got)
	}
}

func TestBuilderAllocaLoadStore(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	slot := b.Alloca(nil, "x")
	b.Store(slot, b.ConstInt(42))
	loaded := b.Load(slot, nil)
	b.Ret(loaded)

	result := Run(fnIface.(*function), nil)
	if got := CellToInt32(result); got != 42 {
		t.Fatalf("load after store = %d, want 42", got)
	}
}

func TestBuilderSplatBroadcastsToEveryLane(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	s := b.ConstFloat(2.5)
	v := b.Splat(s, 4)
	b.Ret(v)

	result := Run(fnIface.(*function), nil)
	c := asCell(result)
	if len(c.vec) != 4 {
		t.Fatalf("expected 4 lanes, got %d", len(c.vec))
	}
	for i, lane := range c.vec {
		if lane.scalarF != 2.5 {
			t.Fatalf("lane %d = %v, want 2.5", i, lane.scalarF)
		}
	}
}

// TestRunRecursiveCallReentrancy builds factorial directly against
// Builder/Run (no emitter involved) and runs it to a depth of 5,
// exercising Run's paramCells save/restore around a real nested
// activation of the same function through Call.
func TestRunRecursiveCallReentrancy(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("fact", []ir.Type{nil}, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	n := b.Param(fnIface, 0)
	one := b.ConstInt(1)
	cond := b.ICmp(ir.CmpLE, n, one)
	thenBlock := b.CreateBlock(fnIface, "then")
	elseBlock := b.CreateBlock(fnIface, "else")
	b.CondBr(cond, thenBlock, elseBlock)

	b.SetInsertPoint(thenBlock)
	b.Ret(one)

	b.SetInsertPoint(elseBlock)
	nMinus1 := b.ISub(n, one)
	rec := b.Call(fnIface, []ir.Value{nMinus1})
	b.Ret(b.IMul(n, rec))

	fn := fnIface.(*function)
	if got := CellToInt32(Run(fn, []ir.Value{intCell(5)})); got != 120 {
		t.Fatalf("fact(5) = %d, want 120", got)
	}
	// A second, independent call after the first returned must not see
	// stale paramCells left over from the recursive unwind.
	if got := CellToInt32(Run(fn, []ir.Value{intCell(3)})); got != 6 {
		t.Fatalf("fact(3) = %d, want 6", got)
	}
}

func TestModuleVerifyDetectsMissingTerminator(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	// Deliberately never terminate the entry block.
	mod := NewModule()
	if err := mod.Define(fnIface); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := mod.Verify(); err == nil {
		t.Fatalf("expected Verify to reject a block with no terminator")
	}
}

func TestModuleDefineRejectsDuplicateName(t *testing.T) {
	_, b := newTestBuilder()
	fnIface := b.DeclareFunction("f", nil, nil)
	b.SetInsertPoint(b.EntryBlock(fnIface))
	b.RetVoid()

	mod := NewModule()
	if err := mod.Define(fnIface); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := mod.Define(fnIface); err == nil {
		t.Fatalf("expected Define to reject a duplicate function name")
	}
}

func TestBackendSubmitModuleAndInvoke(t *testing.T) {
	bk := NewBackend()
	b := bk.NewBuilder()
	fn := b.DeclareFunction("double", []ir.Type{nil}, nil)
	b.SetInsertPoint(b.EntryBlock(fn))
	n := b.Param(fn, 0)
	b.Ret(b.IMul(n, b.ConstInt(2)))

	mb := bk.NewModuleBuilder()
	if err := mb.Define(fn); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := bk.SubmitModule(mb.Build()); err != nil {
		t.Fatalf("SubmitModule: %v", err)
	}

	out, err := bk.Invoke("double", []ir.Value{IntValue(21)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := CellToInt32(out); got != 42 {
		t.Fatalf("double(21) = %d, want 42", got)
	}
}

func TestBackendLookupUnknownSymbol(t *testing.T) {
	bk := NewBackend()
	if _, err := bk.Lookup("nope"); err != ErrSymbolNotFound {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestBackendGlobalRoundtrip(t *testing.T) {
	bk := NewBackend()
	b := bk.NewBuilder()
	b.CreateGlobal("counter", nil, false, false, true)

	if ok := bk.SetGlobal("counter", IntValue(7)); !ok {
		t.Fatalf("expected SetGlobal to find the just-created global")
	}
	v, ok := bk.Global("counter")
	if !ok {
		t.Fatalf("expected Global to find \"counter\"")
	}
	if got := CellToInt32(v); got != 7 {
		t.Fatalf("counter = %d, want 7", got)
	}
	if ok := bk.SetGlobal("missing", IntValue(1)); ok {
		t.Fatalf("expected SetGlobal to report false for an undeclared global")
	}
}

func TestBackendDefineExternSymbolPtr(t *testing.T) {
	bk := NewBackend()
	if err := bk.DefineExternSymbolPtr("hostFn", 0xdead); err != nil {
		t.Fatalf("DefineExternSymbolPtr: %v", err)
	}
	if bk.extern["hostFn"] != 0xdead {
		t.Fatalf("expected the extern pointer to be recorded under its symbol name")
	}
}
