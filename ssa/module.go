package ssa

// GlobalKind selects which assembler directive form a GlobalVar's content
// is emitted as, mirroring the ZERO/ASCIZ/LONG/BYTE directive opcodes
// original_source's instruction set defines for data symbols.
type GlobalKind byte

const (
	// GlobalZero is a zero-initialized (BSS-like) global; Init is nil and
	// Size bytes are reserved.
	GlobalZero GlobalKind = iota
	// GlobalAscii is a NUL-terminated string literal; Init holds its bytes
	// including the trailing NUL.
	GlobalAscii
	// GlobalWords is a sequence of little-endian 32-bit words; Init holds
	// their bytes, 4 per word.
	GlobalWords
	// GlobalBytes is raw byte content with no further structure (a struct
	// or array initializer that isn't uniformly word-sized).
	GlobalBytes
)

// GlobalVar is a module-level data symbol. Size/Align describe storage;
// Init holds explicit content bytes for every Kind but GlobalZero, whose
// Init is nil. Linkage controls whether the emitter makes the symbol
// visible to the linker (.globl), the same role it plays for Function.
type GlobalVar struct {
	Name    string
	Size    int64
	Align   int64
	Init    []byte
	Kind    GlobalKind
	Linkage Linkage
}

// Module is the top-level SSA compilation unit: every function and global
// the backend will be asked to lower in one Compile call.
type Module struct {
	Funcs   []*Function
	Globals []*GlobalVar
}

// Builder incrementally constructs a Function's instruction arena. It is
// the only code in this package allowed to create Instruction values,
// which keeps Value uniqueness a closed invariant of this package
// rather than something every caller must
// re-derive.
type Builder struct {
	f *Function
}

// NewBuilder starts building a fresh Function.
func NewBuilder(name string, sig Signature, linkage Linkage) *Builder {
	return &Builder{f: &Function{Name: name, Sig: sig, Linkage: linkage}}
}

// Func returns the Function under construction.
func (b *Builder) Func() *Function { return b.f }

// CreateBlock allocates a new, empty block.
func (b *Builder) CreateBlock(entry bool, params ...Type) *Block {
	blk := &Block{id: BlockID(len(b.f.Blocks) + 1), params: params, entry: entry}
	for range params {
		blk.paramVals = append(blk.paramVals, b.newValue())
	}
	b.f.Blocks = append(b.f.Blocks, blk)
	return blk
}

func (b *Builder) newValue() Value {
	b.f.instrs = append(b.f.instrs, nil)
	return Value(len(b.f.instrs))
}

// emit appends instr to blk and, if it defines a result, allocates and
// returns the Value for it.
func (b *Builder) emit(blk *Block, instr *Instruction) Value {
	if len(blk.instrs) > 0 {
		prev := blk.instrs[len(blk.instrs)-1]
		prev.next = instr
		instr.prev = prev
	}
	blk.instrs = append(blk.instrs, instr)

	definesResult := instr.opcode != OpStore && instr.opcode != OpBranch &&
		instr.opcode != OpJump && instr.opcode != OpReturn &&
		!(instr.opcode == OpCall && instr.typ == TypeInvalid)
	if definesResult {
		v := b.newValue()
		b.f.instrs[v.valueID()-1] = instr
		instr.result = v
		return v
	}
	instr.result = ValueInvalid
	return ValueInvalid
}

// InsertLoad appends a load of typ from addr.
func (b *Builder) InsertLoad(blk *Block, addr Value, typ Type) Value {
	return b.emit(blk, &Instruction{opcode: OpLoad, v1: addr, typ: typ})
}

// InsertStore appends a store of val to addr.
func (b *Builder) InsertStore(blk *Block, addr, val Value) {
	b.emit(blk, &Instruction{opcode: OpStore, v1: addr, v2: val})
}

// InsertAccess appends a constant-offset pointer computation base+off.
func (b *Builder) InsertAccess(blk *Block, base Value, off int32) Value {
	return b.emit(blk, &Instruction{opcode: OpAccess, v1: base, imm32: off, typ: TypePtr})
}

// InsertBinary appends a binary operation.
func (b *Builder) InsertBinary(blk *Block, op BinaryOp, lhs, rhs Value, typ Type) Value {
	return b.emit(blk, &Instruction{opcode: OpBinary, binOp: op, v1: lhs, v2: rhs, typ: typ})
}

// InsertUnary appends a unary operation.
func (b *Builder) InsertUnary(blk *Block, op UnaryOp, v Value, typ Type) Value {
	return b.emit(blk, &Instruction{opcode: OpUnary, unaryOp: op, v1: v, typ: typ})
}

// InsertCall appends a direct call to the named function.
func (b *Builder) InsertCall(blk *Block, callee string, args []Value, resultTyp Type) Value {
	return b.emit(blk, &Instruction{opcode: OpCall, symbol: callee, vs: args, typ: resultTyp})
}

// InsertBranch appends a conditional branch on cond to true/false blocks,
// passing trueArgs/falseArgs to their respective block parameters.
func (b *Builder) InsertBranch(blk *Block, cond Value, trueBlk, falseBlk BlockID, trueArgs, falseArgs []Value) {
	b.emit(blk, &Instruction{
		opcode: OpBranch, v1: cond, targetTrue: trueBlk, targetFalse: falseBlk,
		blockArgsT: trueArgs, blockArgsF: falseArgs,
	})
}

// InsertJump appends an unconditional branch to target, passing args.
func (b *Builder) InsertJump(blk *Block, target BlockID, args []Value) {
	b.emit(blk, &Instruction{opcode: OpJump, target: target, blockArgsT: args})
}

// InsertReturn appends a return of v (ValueInvalid for void functions).
func (b *Builder) InsertReturn(blk *Block, v Value) {
	b.emit(blk, &Instruction{opcode: OpReturn, v1: v})
}

// InsertGlobalVar appends a reference to a module global, yielding its
// address as a pointer value.
func (b *Builder) InsertGlobalVar(blk *Block, name string) Value {
	return b.emit(blk, &Instruction{opcode: OpGlobalVar, symbol: name, typ: TypePtr})
}

// InsertAlloca appends a stack allocation of size bytes, yielding its
// address as a pointer value.
func (b *Builder) InsertAlloca(blk *Block, size int32) Value {
	return b.emit(blk, &Instruction{opcode: OpAlloca, imm32: size, typ: TypePtr})
}

// InsertArgRef appends a reference to the i'th function argument.
func (b *Builder) InsertArgRef(blk *Block, i int, typ Type) Value {
	v := b.emit(blk, &Instruction{opcode: OpArgRef, imm32: int32(i), typ: typ})
	if i == len(b.f.ArgValues) {
		b.f.ArgValues = append(b.f.ArgValues, v)
	}
	return v
}

// InsertConstI32 appends an i32 constant.
func (b *Builder) InsertConstI32(blk *Block, c int32) Value {
	return b.emit(blk, &Instruction{opcode: OpConstI32, imm32: c, typ: TypeI32})
}

// InsertConstBool appends a bool constant.
func (b *Builder) InsertConstBool(blk *Block, c bool) Value {
	return b.emit(blk, &Instruction{opcode: OpConstBool, immBool: c, typ: TypeI32})
}

// InsertSelect appends a cond ? t : f selector.
func (b *Builder) InsertSelect(blk *Block, cond, t, f Value, typ Type) Value {
	return b.emit(blk, &Instruction{opcode: OpSelect, v1: cond, v2: t, v3: f, typ: typ})
}

// InsertUndef appends an undefined value of typ.
func (b *Builder) InsertUndef(blk *Block, typ Type) Value {
	return b.emit(blk, &Instruction{opcode: OpUndef, typ: typ})
}

// InsertCast appends a type cast (bitcast/truncate/extend are all
// represented identically: both defined types are 32-bit).
func (b *Builder) InsertCast(blk *Block, v Value, typ Type) Value {
	return b.emit(blk, &Instruction{opcode: OpCast, v1: v, typ: typ})
}

// SetPred records that pred has an edge into blk. Builders call this when
// wiring branches/jumps since Block itself does not infer predecessors
// from instruction content.
func (b *Builder) SetPred(blk *Block, pred BlockID) {
	blk.preds = append(blk.preds, pred)
}
