package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// SetCondElimination expands any OpSetCond pseudo that BranchCombining did
// not fuse into a branch into a real instruction sequence. Equality and
// inequality get their own non-predicated forms (SUB/CLZ/LSR for EQ, a
// SUB alongside a flag-setting CMP plus a conditional MOV for NE); every
// other comparison falls back to the uniform "CMP lhs,rhs; MOV dst,#0;
// MOV{cond} dst,#1" sequence. Grounded on
// original_source/src/back/asm/arch/aarch32/passes/setcelim.h; NE there
// reuses SUBS's flags directly, but this target has no flag-setting SUB
// variant, so the flags come from a separate CMP of the same operands
// instead. Both special cases use R3 (arm32isa.SpillScratch2) as their
// scratch register, matching the original's hardcoded choice; the value
// never survives past the next instruction, so it needs no allocation.
type SetCondElimination struct{}

func (SetCondElimination) Name() string { return "setcelim" }

func (SetCondElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.Op != arm32isa.OpSetCond {
			out = append(out, instr)
			continue
		}
		aux := instr.Aux.(arm32isa.CondAux)
		lhs, rhs := instr.Uses[0], instr.Uses[1]
		dest := instr.Dest
		temp := mir.NewReg(arm32isa.SpillScratch2)

		switch aux.Cond {
		case arm32isa.CondEQ:
			out = append(out,
				&mir.Instr{Op: arm32isa.OpSub, Dest: temp, HasDest: true, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: arm32isa.OpClz, Dest: temp, HasDest: true, Uses: []mir.Operand{temp}},
				&mir.Instr{Op: arm32isa.OpLsr, Dest: dest, HasDest: true, Uses: []mir.Operand{temp, mir.NewImm(5)}},
			)
		case arm32isa.CondNE:
			out = append(out,
				&mir.Instr{Op: arm32isa.OpSub, Dest: temp, HasDest: true, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: arm32isa.OpCmp, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: arm32isa.OpMov, Dest: temp, HasDest: true, Uses: []mir.Operand{mir.NewImm(1)}, Aux: arm32isa.CondAux{Cond: arm32isa.CondNE}},
				&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true, Uses: []mir.Operand{temp}},
			)
		default:
			out = append(out,
				&mir.Instr{Op: arm32isa.OpCmp, Uses: instr.Uses},
				&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true, Uses: []mir.Operand{mir.NewImm(0)}},
				&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true, Uses: []mir.Operand{mir.NewImm(1)}, Aux: aux},
			)
		}
	}
	replaceAll(fn, out)
}
