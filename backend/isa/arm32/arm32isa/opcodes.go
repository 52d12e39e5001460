package arm32isa

import "github.com/ccforge/backend/mir"

// Opcode values. Instr.Dest is the destination register/slot where the
// opcode defines one; Instr.Uses holds source operands in the order the
// mnemonic prints them (e.g. ADD's Uses are [lhs, rhs]).
const (
	OpLabel mir.Opcode = iota + 1
	OpMov
	OpMovW // low 16 bits
	OpMovT // high 16 bits, into the register already holding MOVW's result
	OpAdd
	OpSub
	OpRsb
	OpMul
	OpMls
	OpSdiv
	OpUdiv
	OpAnd
	OpOrr
	OpEor
	OpLsl
	OpLsr
	OpAsr
	OpCmp
	OpClz
	OpSxtb
	OpUxtb
	OpUmull // Uses: [lhs, rhs]; Dest is the low word, Aux.(UmullAux).Hi is the high word dest
	OpSmmul // signed multiply-high
	OpLdr
	OpLdrb
	OpStr
	OpStrb
	OpPush
	OpPop
	OpB       // unconditional branch; Label is the target
	OpBCond   // conditional branch; Aux.(CondAux), Label is the target
	OpBL      // call; Label is the callee symbol
	OpBX      // return; Uses[0] is the link register
	OpSetCond // materializes a boolean 0/1 into Dest under Aux.(CondAux); Uses are [lhs, rhs] not yet compared
	OpCmpZero // pseudo: compares Uses[0] to #0 (unused by the current selector; reserved for future use)

	// Pseudo ops consumed/produced only inside the lowering/legalization
	// stage, never reaching the emitter:
	OpLEA          // Uses[0] is a slot/label base (+Uses[1] extra offset for OpAccess); legalized away by leacomb/leaelim
	OpBrPseudo     // unconditional pseudo branch from SSA OpJump; Label is the target, eliminated by brelim into a real OpB
	OpBrCondPseudo // conditional pseudo branch from SSA OpBranch: Aux.(CondPseudoAux), eliminated by brcomb
)

// Cond is an ARM condition code.
type Cond byte

const (
	CondEQ Cond = iota
	CondNE
	CondSLT
	CondSGE
	CondSLE
	CondSGT
	CondULT
	CondUHS
	CondULE
	CondUHI
	CondAL
)

var condMnemonic = map[Cond]string{
	CondEQ: "eq", CondNE: "ne", CondSLT: "lt", CondSGE: "ge", CondSLE: "le",
	CondSGT: "gt", CondULT: "lo", CondUHS: "hs", CondULE: "ls", CondUHI: "hi",
	CondAL: "al",
}

// Inverse returns the condition that is true exactly when c is false,
// the table original_source's BranchCombiningPass uses for inverted
// conditional branches.
func (c Cond) Inverse() Cond {
	switch c {
	case CondEQ:
		return CondNE
	case CondNE:
		return CondEQ
	case CondSLT:
		return CondSGE
	case CondSGE:
		return CondSLT
	case CondSLE:
		return CondSGT
	case CondSGT:
		return CondSLE
	case CondULT:
		return CondUHS
	case CondUHS:
		return CondULT
	case CondULE:
		return CondUHI
	case CondUHI:
		return CondULE
	default:
		return CondAL
	}
}

func (c Cond) String() string { return condMnemonic[c] }

// CondAux decorates OpBCond, OpSetCond, and conditionally-predicated
// OpMov instructions synthesized by SetCondElimination/OpSelect.
type CondAux struct{ Cond Cond }

// CondPseudoAux decorates OpBrCondPseudo before BranchCombining replaces
// it with real instructions.
type CondPseudoAux struct {
	Cond              Cond
	TrueLbl, FalseLbl string
}

// UmullAux carries the second destination of a 64-bit-result multiply.
type UmullAux struct{ Hi mir.Operand }

// ShiftOp names a barrel-shifter operation that ShiftCombining may fold
// into a following data-processing instruction's flexible second operand.
type ShiftOp byte

const (
	ShiftNone ShiftOp = iota
	ShiftLSL
	ShiftLSR
	ShiftASR
)

// FlexAux records a folded shift on an instruction's final operand,
// attached by ShiftCombining.
type FlexAux struct {
	Op  ShiftOp
	Amt int32
}
