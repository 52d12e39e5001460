package ssatext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/ssa"
)

func TestDecodeAddFunction(t *testing.T) {
	mod, err := Decode(`
func add external (i32, i32) -> i32 {
block b1 entry (a0:i32, a1:i32) {
  v1 = binary add a0, a1 : i32;
  return v1;
}
}
`)
	require.NoError(t, err)
	require.Len(t, mod.Funcs, 1)

	fn := mod.Funcs[0]
	require.Equal(t, "add", fn.Name)
	require.Equal(t, ssa.LinkageExternal, fn.Linkage)
	require.Equal(t, []ssa.Type{ssa.TypeI32, ssa.TypeI32}, fn.Sig.Params)
	require.Equal(t, ssa.TypeI32, fn.Sig.Result)
	require.Len(t, fn.Blocks, 1)

	entry := fn.EntryBlock()
	require.NotNil(t, entry)
	require.Len(t, entry.Instrs(), 2)

	addInstr := entry.Instrs()[0]
	require.Equal(t, ssa.OpBinary, addInstr.Opcode())
	require.Equal(t, ssa.BinAdd, addInstr.BinaryOp())
	require.Equal(t, entry.ParamValue(0), addInstr.Arg())
	require.Equal(t, entry.ParamValue(1), addInstr.Arg2())

	retInstr := entry.Instrs()[1]
	require.Equal(t, ssa.OpReturn, retInstr.Opcode())
	require.Equal(t, addInstr.Return(), retInstr.Arg())
}

func TestDecodeBranchAndBlockParams(t *testing.T) {
	mod, err := Decode(`
func pick internal (i32) -> i32 {
block b1 entry (a0:i32) {
  v1 = const.i32 0;
  v2 = binary icmp_slt a0, v1 : i32;
  branch v2, b2(), b3(a0);
}
block b2 () {
  v3 = const.i32 1;
  jump b3(v3);
}
block b3 (v4:i32) {
  return v4;
}
}
`)
	require.NoError(t, err)
	fn := mod.Funcs[0]
	require.Len(t, fn.Blocks, 3)

	entry := fn.EntryBlock()
	branch := entry.Instrs()[2]
	require.Equal(t, ssa.OpBranch, branch.Opcode())
	trueID, falseID := branch.BranchTargets()
	require.Equal(t, fn.Blocks[1].ID(), trueID)
	require.Equal(t, fn.Blocks[2].ID(), falseID)
	require.Equal(t, []ssa.Value{entry.ParamValue(0)}, branch.BlockArgsFalse())

	b2 := fn.Blocks[1]
	require.Len(t, b2.Preds(), 1)
	require.Equal(t, entry.ID(), b2.Preds()[0])

	b3 := fn.Blocks[2]
	require.Len(t, b3.Preds(), 2)
}

func TestDecodeGlobals(t *testing.T) {
	mod, err := Decode(`
global counter zero 4 4
global msg bytes 1 104, 105, 0
`)
	require.NoError(t, err)
	require.Len(t, mod.Globals, 2)

	counter := mod.Globals[0]
	require.Equal(t, "counter", counter.Name)
	require.Nil(t, counter.Init)
	require.EqualValues(t, 4, counter.Size)
	require.EqualValues(t, 4, counter.Align)

	msg := mod.Globals[1]
	require.Equal(t, []byte{104, 105, 0}, msg.Init)
	require.EqualValues(t, 3, msg.Size)
}

func TestDecodeVoidReturnAndCall(t *testing.T) {
	mod, err := Decode(`
func log_it internal (i32) -> void {
block b1 entry (a0:i32) {
  call @puts(a0);
  return;
}
}
`)
	require.NoError(t, err)
	fn := mod.Funcs[0]
	require.Equal(t, ssa.TypeInvalid, fn.Sig.Result)

	entry := fn.EntryBlock()
	call := entry.Instrs()[0]
	require.Equal(t, ssa.OpCall, call.Opcode())
	require.Equal(t, "puts", call.Symbol())
	require.False(t, call.Return().Valid())

	ret := entry.Instrs()[1]
	require.False(t, ret.Arg().Valid())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := `
func add external (i32, i32) -> i32 {
block b1 entry (a0:i32, a1:i32) {
  v1 = binary add a0, a1 : i32;
  return v1;
}
}
`
	mod, err := Decode(src)
	require.NoError(t, err)

	text := Encode(mod)
	mod2, err := Decode(text)
	require.NoError(t, err)

	require.Equal(t, mod.Funcs[0].Name, mod2.Funcs[0].Name)
	require.Equal(t, mod.Funcs[0].Sig, mod2.Funcs[0].Sig)
	require.Len(t, mod2.Funcs[0].Blocks[0].Instrs(), len(mod.Funcs[0].Blocks[0].Instrs()))

	reEncoded := Encode(mod2)
	require.Equal(t, text, reEncoded, "encoding a decoded module twice must be stable")
}

func TestDecodeMemoryAndSelectOps(t *testing.T) {
	mod, err := Decode(`
global buf zero 16 4

func touch internal () -> i32 {
block b1 entry () {
  v1 = globalvar @buf;
  v2 = alloca 8;
  v3 = const.i32 7;
  store v1, v3;
  v4 = load v1 : i32;
  v5 = unary neg v4 : i32;
  v6 = const.bool true;
  v7 = select v6, v5, v4 : i32;
  v8 = access v2, 4 : ptr;
  v9 = undef : i32;
  v10 = binary add v7, v9 : i32;
  return v10;
}
}
`)
	require.NoError(t, err)
	require.Len(t, mod.Globals, 1)

	entry := mod.Funcs[0].EntryBlock()
	instrs := entry.Instrs()
	require.Equal(t, ssa.OpGlobalVar, instrs[0].Opcode())
	require.Equal(t, ssa.OpAlloca, instrs[1].Opcode())
	require.Equal(t, ssa.OpStore, instrs[3].Opcode())
	require.Equal(t, instrs[0].Return(), instrs[3].Arg())
	require.Equal(t, ssa.OpSelect, instrs[7].Opcode())
	require.Equal(t, ssa.OpUndef, instrs[9].Opcode())
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	_, err := Decode(`
func f internal () -> void {
block b1 entry () {
  bogus v1;
}
}
`)
	require.Error(t, err)
}

func TestDecodeRejectsUndefinedValue(t *testing.T) {
	_, err := Decode(`
func f internal () -> i32 {
block b1 entry () {
  return v99;
}
}
`)
	require.Error(t, err)
}
