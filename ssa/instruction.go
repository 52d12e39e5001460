package ssa

// Opcode enumerates every SSA instruction kind this backend understands.
// The set is closed: each ISA's instruction selector under backend/isa
// switches over these values and returns an error for any it does not
// lower.
type Opcode uint32

const (
	OpInvalid Opcode = iota
	OpLoad
	OpStore
	OpAccess // pointer arithmetic: base + const offset, optionally scaled
	OpBinary
	OpUnary
	OpCast
	OpCall
	OpBranch // conditional two-target branch
	OpJump   // unconditional single-target branch
	OpReturn
	OpFunction  // pseudo-instruction: marks a function's entry value
	OpGlobalVar // reference to a module-level global
	OpAlloca
	OpBlockParam // block-entry argument, referenced via ArgRef
	OpArgRef     // reference to a function argument
	OpConstI32
	OpConstBool
	OpSelect
	OpUndef
)

// BinaryOp distinguishes OpBinary instructions. Division and remainder are
// split into signed/unsigned pairs because the two ISAs this backend
// targets diverge sharply on how they lower each (see backend/isa).
type BinaryOp byte

const (
	BinInvalid BinaryOp = iota
	BinAdd
	BinSub
	BinMul
	BinSDiv
	BinUDiv
	BinSRem
	BinURem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinLShr
	BinAShr
	BinIcmpEq
	BinIcmpNe
	BinIcmpSlt
	BinIcmpSle
	BinIcmpUlt
	BinIcmpUle
)

// UnaryOp distinguishes OpUnary instructions.
type UnaryOp byte

const (
	UnaryInvalid UnaryOp = iota
	UnaryNeg
	UnaryNot
)

// Instruction is a flattened, tagged-union struct: every instruction kind
// shares one representation and reads the fields its Opcode defines,
// trading type-safety at construction time for an arena-friendly, pointer-
// light layout that the selector and its caches can index cheaply.
type Instruction struct {
	opcode Opcode

	// v1, v2, v3 are the fixed argument slots most opcodes need; vs holds
	// call arguments.
	v1, v2, v3 Value
	vs         []Value

	binOp   BinaryOp
	unaryOp UnaryOp

	// imm32 / immBool back OpConstI32 / OpConstBool; for OpAccess it is the
	// constant byte offset; for OpAlloca it is the requested size.
	imm32   int32
	immBool bool

	typ Type

	// symbol names OpFunction/OpGlobalVar/OpCall targets.
	symbol string

	// blk/target(s) address basic blocks for branch-family opcodes.
	target      BlockID
	targetTrue  BlockID
	targetFalse BlockID

	// blockArgs carries the values bound to the destination block's
	// parameters for OpJump/OpBranch, indexed in declaration order.
	blockArgsT []Value
	blockArgsF []Value

	result Value

	prev, next *Instruction
}

// Opcode returns the instruction's kind.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Return reports the value this instruction defines, or ValueInvalid if it
// defines none (stores, jumps, branches, returns).
func (i *Instruction) Return() Value { return i.result }

// Arg returns the first argument value.
func (i *Instruction) Arg() Value { return i.v1 }

// Arg2 returns the second argument value.
func (i *Instruction) Arg2() Value { return i.v2 }

// Arg3 returns the third argument value.
func (i *Instruction) Arg3() Value { return i.v3 }

// Args returns the overflow argument list (call operands).
func (i *Instruction) Args() []Value { return i.vs }

// BinaryOp returns the binary operator for OpBinary instructions.
func (i *Instruction) BinaryOp() BinaryOp { return i.binOp }

// UnaryOp returns the unary operator for OpUnary instructions.
func (i *Instruction) UnaryOp() UnaryOp { return i.unaryOp }

// ConstI32 returns the immediate for OpConstI32/OpAccess/OpAlloca.
func (i *Instruction) ConstI32() int32 { return i.imm32 }

// ConstBool returns the immediate for OpConstBool.
func (i *Instruction) ConstBool() bool { return i.immBool }

// Type returns the result type of the instruction.
func (i *Instruction) Type() Type { return i.typ }

// Symbol returns the callee/global/function name this instruction refers
// to. Valid for OpCall, OpGlobalVar, OpFunction.
func (i *Instruction) Symbol() string { return i.symbol }

// BranchTargets returns (true-block, false-block) for OpBranch and
// (target, BlockIDInvalid) for OpJump.
func (i *Instruction) BranchTargets() (t, f BlockID) {
	if i.opcode == OpJump {
		return i.target, BlockIDInvalid
	}
	return i.targetTrue, i.targetFalse
}

// JumpTarget returns the single successor of an OpJump.
func (i *Instruction) JumpTarget() BlockID { return i.target }

// BlockArgsTrue/BlockArgsFalse return the values passed to the taken
// block's parameters along the true/false (or sole, for OpJump) edge.
func (i *Instruction) BlockArgsTrue() []Value  { return i.blockArgsT }
func (i *Instruction) BlockArgsFalse() []Value { return i.blockArgsF }

// Next/Prev walk the containing block's instruction list.
func (i *Instruction) Next() *Instruction { return i.next }
func (i *Instruction) Prev() *Instruction { return i.prev }

func (i *Instruction) reset() {
	*i = Instruction{opcode: OpInvalid}
}
