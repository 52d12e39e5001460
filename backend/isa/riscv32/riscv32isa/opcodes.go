package riscv32isa

import "github.com/ccforge/backend/mir"

// Opcode values, grounded on original_source's RISCV32Inst::OpCode.
// Instr.Dest is the destination register where the opcode defines one;
// Instr.Uses holds source operands in the order the mnemonic prints them.
const (
	OpLabel mir.Opcode = iota + 1
	OpLi  // load arbitrary 32-bit immediate (assembler expands lui+addi)
	OpLa  // load address of a label
	OpMv  // register-to-register move
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpSlt
	OpSltu
	OpXor
	OpOr
	OpAnd
	OpSll
	OpSrl
	OpSra
	OpLw
	OpLb
	OpLbu
	OpSw
	OpSb
	OpJ    // unconditional jump; Label is the target
	OpCall // call; Label is the callee symbol
	OpRet  // return

	// Direct compare-and-branch opcodes; Uses are [lhs, rhs], Label is
	// the taken target. RV32 has no separate flags register, so these
	// carry their own comparison, unlike AArch32's CMP+Bxx split.
	OpBeq
	OpBne
	OpBlt
	OpBle
	OpBgt
	OpBge
	OpBltu
	OpBleu
	OpBgtu
	OpBgeu

	// Pseudo ops consumed/produced only inside lowering/legalization,
	// never reaching the emitter:
	OpLEA          // Uses[0] is a slot/label base (+Uses[1] extra offset for OpAccess)
	OpBrPseudo     // unconditional pseudo branch from SSA OpJump; Label is the target
	OpBrCondPseudo // conditional pseudo branch from SSA OpBranch: Aux.(CondPseudoAux)
	OpSetCond      // materializes a boolean 0/1 into Dest under Aux.(Cond); Uses are [lhs, rhs]
)

// Cond names a RV32 compare-and-branch condition directly (no separate
// flags register, so this both compares and decides in one opcode).
type Cond byte

const (
	CondEQ Cond = iota
	CondNE
	CondSLT
	CondSLE
	CondSGT
	CondSGE
	CondULT
	CondULE
	CondUGT
	CondUGE
)

// BranchOpcode returns the direct compare-and-branch opcode for c.
func (c Cond) BranchOpcode() mir.Opcode {
	switch c {
	case CondEQ:
		return OpBeq
	case CondNE:
		return OpBne
	case CondSLT:
		return OpBlt
	case CondSLE:
		return OpBle
	case CondSGT:
		return OpBgt
	case CondSGE:
		return OpBge
	case CondULT:
		return OpBltu
	case CondULE:
		return OpBleu
	case CondUGT:
		return OpBgtu
	default:
		return OpBgeu
	}
}

// CondPseudoAux decorates OpBrCondPseudo before BranchCombining replaces
// it with a real direct compare-and-branch or a BNE-against-zero.
type CondPseudoAux struct {
	Cond              Cond
	TrueLbl, FalseLbl string
}

// SetCondAux decorates OpSetCond.
type SetCondAux struct{ Cond Cond }
