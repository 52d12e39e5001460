package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// BranchCombining fuses a comparison that feeds a branch directly into
// one of RV32's direct compare-and-branch opcodes, eliminating the
// intermediate boolean materialization entirely -- RV32 has no flags
// register, so unlike AArch32's CMP+Bxx split this collapses straight to
// a single instruction. Grounded on
// original_source/src/back/asm/arch/riscv32/passes/brcomb.h.
type BranchCombining struct{}

func (BranchCombining) Name() string { return "brcomb" }

func (BranchCombining) Run(fn *mir.Function) {
	lastSetCond := map[mir.VRegID]int{} // vreg -> index of its defining SETcc, reset on label/call

	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		switch {
		case instr.IsLabel() || instr.Op == riscv32isa.OpCall:
			lastSetCond = map[mir.VRegID]int{}
			out = append(out, instr)

		case instr.Op == riscv32isa.OpSetCond:
			if instr.HasDest && instr.Dest.IsVReg() {
				lastSetCond[instr.Dest.VReg()] = len(out)
			}
			out = append(out, instr)

		case instr.Op == riscv32isa.OpBrCondPseudo:
			cond := instr.Uses[0]
			aux := instr.Aux.(riscv32isa.CondPseudoAux)
			if cond.IsVReg() {
				if idx, ok := lastSetCond[cond.VReg()]; ok && out[idx].Op == riscv32isa.OpSetCond {
					setc := out[idx]
					scAux := setc.Aux.(riscv32isa.SetCondAux)
					clobbered := false
					for _, mid := range out[idx+1:] {
						for _, u := range setc.Uses {
							clobbered = clobbered || (mid.HasDest && mid.Dest == u)
						}
					}
					if !clobbered {
						// The fused branch follows the block-argument copies lowered after the compare.
						out = append(append(out[:idx], out[idx+1:]...), &mir.Instr{Op: scAux.Cond.BranchOpcode(), Uses: setc.Uses, Label: aux.TrueLbl},
							&mir.Instr{Op: riscv32isa.OpJ, Label: aux.FalseLbl})
						lastSetCond = map[mir.VRegID]int{}
						continue
					}
				}
			}
			// cond did not come from a live SETcc: branch on its truthiness
			// directly, RV32 has no CMP so compare against the zero register.
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpBne, Uses: []mir.Operand{cond, mir.NewReg(riscv32isa.Zero)}, Label: aux.TrueLbl},
				&mir.Instr{Op: riscv32isa.OpJ, Label: aux.FalseLbl},
			)

		default:
			out = append(out, instr)
		}
	}
	replaceAll(fn, out)
}
