// Package arm32isa holds the AArch32 register numbering, opcode
// enumeration, and instruction side-data (Aux) types shared by both the
// arm32 package (selection, ABI, emission) and the arm32/passes package
// (peephole/legalization passes), keeping those two from having to import
// each other.
package arm32isa

import "github.com/ccforge/backend/mir"

// Physical register numbering follows the ARM architecture's own R0..R15,
// with the conventional aliases for SP/LR/PC.
const (
	R0 mir.RegID = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11 // frame pointer (FP)
	R12 // spill scratch (IP)
	R13 // SP
	R14 // LR
	R15 // PC
)

const (
	FP = R11
	IP = R12
	SP = R13
	LR = R14
	PC = R15
)

// RegName returns the GNU-as mnemonic for a register.
func RegName(r mir.RegID) string {
	switch r {
	case SP:
		return "sp"
	case LR:
		return "lr"
	case PC:
		return "pc"
	case FP:
		return "fp"
	case IP:
		return "ip"
	default:
		return "r" + itoa(int(r))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [3]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// TempRegs are caller-saved scratch registers the allocator tries first:
// R0-R3 carry arguments/return values and are cheap to use as scratch
// since a call already clobbers them.
var TempRegs = []mir.RegID{R0, R1, R2, R3}

// RegularRegs are the callee-saved registers the allocator falls back to,
// more expensive because using one forces the prologue to save it.
var RegularRegs = []mir.RegID{R4, R5, R6, R7, R8, R9, R10}

// ArgRegs/RetRegs implement the AAPCS32 subset this backend needs: the
// first four word arguments in R0-R3, the result in R0.
var ArgRegs = []mir.RegID{R0, R1, R2, R3}
var RetRegs = []mir.RegID{R0}

// SpillScratch1/2 are the two registers the spill-insertion pass may
// clobber freely around an instruction: R12 first, falling back to R3
// when an instruction already names R12 itself (e.g. it was already
// chosen as a LEA-elimination target), following
// original_source's SlotSpillingPass::SelectTempReg.
const (
	SpillScratch1 = IP
	SpillScratch2 = R3
)
