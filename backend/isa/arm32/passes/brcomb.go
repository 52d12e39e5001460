// Package passes implements the AArch32 peephole and legalization passes,
// each grounded on the matching file under
// original_source/src/back/asm/arch/aarch32/passes (named in each pass's
// doc comment) and original_source/src/back/asm/mir/passes for the
// architecture-independent move passes. Opcode/Aux values come from the
// sibling arm32isa package, which both this package and arm32 itself
// import, avoiding a dependency cycle between selection and legalization.
package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// BranchCombining fuses a comparison that feeds a branch directly into
// the branch, eliminating the intermediate boolean materialization.
// Grounded on aarch32/passes/brcomb.h's BranchCombiningPass: a live
// SETcc definition reaching a branch is folded into CMP+Bxx+B; anything
// else reaching a branch is legalized to "CMP cond,#0; BNE true; B
// false", left for SetCondElimination to expand if the SETcc survives
// for another use.
type BranchCombining struct{}

func (BranchCombining) Name() string { return "brcomb" }

func (BranchCombining) Run(fn *mir.Function) {
	lastSetCond := map[mir.VRegID]int{} // vreg -> index of its defining SETcc, reset on label/call
	useCount := map[mir.VRegID]int{}
	for _, instr := range fn.Instrs {
		for _, u := range instr.Uses {
			if u.IsVReg() {
				useCount[u.VReg()]++
			}
		}
	}

	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		switch {
		case instr.IsLabel() || instr.Op == arm32isa.OpBL:
			lastSetCond = map[mir.VRegID]int{}
			out = append(out, instr)

		case instr.Op == arm32isa.OpSetCond:
			if instr.HasDest && instr.Dest.IsVReg() {
				lastSetCond[instr.Dest.VReg()] = len(out)
			}
			out = append(out, instr)

		case instr.Op == arm32isa.OpBrCondPseudo:
			cond := instr.Uses[0]
			aux := instr.Aux.(arm32isa.CondPseudoAux)
			if cond.IsVReg() && useCount[cond.VReg()] == 1 {
				if idx, ok := lastSetCond[cond.VReg()]; ok && out[idx].Op == arm32isa.OpSetCond {
					setc := out[idx]
					scAux := setc.Aux.(arm32isa.CondAux)
					out[idx] = &mir.Instr{Op: arm32isa.OpCmp, Uses: setc.Uses}
					out = append(out,
						&mir.Instr{Op: arm32isa.OpBCond, Label: aux.TrueLbl, Aux: arm32isa.CondAux{Cond: scAux.Cond}},
						&mir.Instr{Op: arm32isa.OpB, Label: aux.FalseLbl},
					)
					continue
				}
			}
			out = append(out,
				&mir.Instr{Op: arm32isa.OpCmp, Uses: []mir.Operand{cond, mir.NewImm(0)}},
				&mir.Instr{Op: arm32isa.OpBCond, Label: aux.TrueLbl, Aux: arm32isa.CondAux{Cond: arm32isa.CondNE}},
				&mir.Instr{Op: arm32isa.OpB, Label: aux.FalseLbl},
			)

		default:
			out = append(out, instr)
		}
	}
	replaceAll(fn, out)
}

// replaceAll rebuilds fn's linked instruction list from a freshly built
// slice, used by every pass in this package that restructures the list
// rather than mutating instructions in place.
func replaceAll(fn *mir.Function, instrs []*mir.Instr) {
	fn.Instrs = nil
	for _, i := range instrs {
		fn.Append(i)
	}
}
