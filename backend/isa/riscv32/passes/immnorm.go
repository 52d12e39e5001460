package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// ImmediateNormalization legalizes every immediate operand against RV32I's
// 12-bit signed I-type encoding, materializing it into a scratch register
// with "li" when it does not fit. original_source's immconv.h instead
// converts register-register forms INTO an immediate form when legal --
// the opposite direction. This backend takes the simpler, symmetric
// "materialize if illegal" direction used by AArch32's immnorm.h instead,
// a deliberate simplification recorded alongside this pass's grounding.
// OpSub has no I-type encoding at all, so a literal subtrahend is first
// turned into an OpAdd with the negated constant when that still fits.
// Grounded on original_source/src/back/asm/arch/riscv32/passes/immnorm.h.
type ImmediateNormalization struct{}

func (ImmediateNormalization) Name() string { return "immnorm" }

func (ImmediateNormalization) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.Op == riscv32isa.OpSub && len(instr.Uses) == 2 && instr.Uses[1].IsImm() {
			neg := -instr.Uses[1].Imm()
			if isLegalItypeImm(neg) {
				instr.Op = riscv32isa.OpAdd
				instr.Uses[1] = mir.NewImm(neg)
			} else {
				out = append(out, &mir.Instr{
					Op: riscv32isa.OpLi, HasDest: true,
					Dest: mir.NewReg(riscv32isa.SpillScratch1),
					Uses: []mir.Operand{instr.Uses[1]},
				})
				instr.Uses[1] = mir.NewReg(riscv32isa.SpillScratch1)
			}
		}

		if !needsImmCheck(instr.Op) {
			out = append(out, instr)
			continue
		}
		for i, u := range instr.Uses {
			if u.IsImm() && !isLegalItypeImm(u.Imm()) {
				out = append(out, &mir.Instr{
					Op: riscv32isa.OpLi, HasDest: true,
					Dest: mir.NewReg(riscv32isa.SpillScratch1),
					Uses: []mir.Operand{u},
				})
				instr.Uses[i] = mir.NewReg(riscv32isa.SpillScratch1)
			}
		}
		out = append(out, instr)
	}
	replaceAll(fn, out)
}

func needsImmCheck(op mir.Opcode) bool {
	switch op {
	case riscv32isa.OpAdd, riscv32isa.OpXor, riscv32isa.OpOr, riscv32isa.OpAnd,
		riscv32isa.OpSlt, riscv32isa.OpSltu:
		return true
	default:
		return false
	}
}

func isLegalItypeImm(v int32) bool { return v >= -2048 && v <= 2047 }
