// Package riscv32isa holds the RV32I register numbering, opcode
// enumeration, and instruction side-data (Aux) types shared by both the
// riscv32 package (selection, ABI, emission) and the riscv32/passes
// package (peephole/legalization passes), keeping those two from having
// to import each other. Grounded on
// original_source/src/back/asm/arch/riscv32/instdef.h's RISCV32Reg.
package riscv32isa

import "github.com/ccforge/backend/mir"

// Physical register numbering follows the RISC-V calling convention
// names rather than raw x0..x31 indices, matching instdef.h's RegName
// enumerator order.
const (
	Zero mir.RegID = iota // x0, hard-wired zero
	RA                    // x1, return address
	SP                    // x2, stack pointer
	GP                    // x3, global pointer
	TP                    // x4, thread pointer
	T0                    // x5
	T1                    // x6
	T2                    // x7
	FP                    // x8, frame pointer (s0)
	S1                    // x9
	A0                    // x10
	A1                    // x11
	A2                    // x12
	A3                    // x13
	A4                    // x14
	A5                    // x15
	A6                    // x16
	A7                    // x17
	S2                    // x18
	S3                    // x19
	S4                    // x20
	S5                    // x21
	S6                    // x22
	S7                    // x23
	S8                    // x24
	S9                    // x25
	S10                   // x26
	S11                   // x27
	T3                    // x28
	T4                    // x29
	T5                    // x30
	T6                    // x31
)

var regName = map[mir.RegID]string{
	Zero: "zero", RA: "ra", SP: "sp", GP: "gp", TP: "tp",
	T0: "t0", T1: "t1", T2: "t2", FP: "fp", S1: "s1",
	A0: "a0", A1: "a1", A2: "a2", A3: "a3", A4: "a4", A5: "a5", A6: "a6", A7: "a7",
	S2: "s2", S3: "s3", S4: "s4", S5: "s5", S6: "s6", S7: "s7", S8: "s8", S9: "s9",
	S10: "s10", S11: "s11", T3: "t3", T4: "t4", T5: "t5", T6: "t6",
}

// RegName returns the GNU-as ABI mnemonic for a register.
func RegName(r mir.RegID) string { return regName[r] }

// TempRegs are caller-saved scratch registers the allocator tries first.
var TempRegs = []mir.RegID{T0, T1, T2, A0, A1, A2, A3, A4, A5, A6, A7}

// RegularRegs are the callee-saved registers the allocator falls back to.
var RegularRegs = []mir.RegID{S2, S3, S4, S5, S6, S7, S8, S9, S10, S11}

// ArgRegs/RetRegs implement the RV32 integer calling convention subset
// this backend needs: the first eight word arguments in A0-A7, the
// result in A0.
var ArgRegs = []mir.RegID{A0, A1, A2, A3, A4, A5, A6, A7}
var RetRegs = []mir.RegID{A0}

// SpillScratch1/2 are the two registers spill insertion may clobber
// freely around an instruction, mirroring original_source's
// SlotSpillingPass::SelectTempReg choice of T0/T1 for RV32 (registers
// with no calling-convention meaning to preserve across a spill window).
const (
	SpillScratch1 = T0
	SpillScratch2 = T1
)
