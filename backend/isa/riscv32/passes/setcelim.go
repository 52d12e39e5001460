package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// SetCondElimination expands any OpSetCond pseudo that BranchCombining
// did not fuse into a branch into a concrete slt/sltu sequence: RV32 has
// no flags register or conditional-move form. Strict less-than is one
// slt/sltu and greater-than the same with its operands swapped; the
// non-strict comparisons add an xori #1 bit-flip of that result; equality
// and inequality xor the operands into a scratch register and test it
// against zero with sltu. Grounded on the final
// materialization step AArch32's brcomb.h/leaelim.h apply to a surviving
// SETcc, re-expressed in RV32's compare-into-register idiom.
type SetCondElimination struct{}

func (SetCondElimination) Name() string { return "setcelim" }

func (SetCondElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.Op != riscv32isa.OpSetCond {
			out = append(out, instr)
			continue
		}
		aux := instr.Aux.(riscv32isa.SetCondAux)
		lhs, rhs := instr.Uses[0], instr.Uses[1]
		dst := instr.Dest
		scratch := mir.NewReg(riscv32isa.SpillScratch1)

		switch aux.Cond {
		case riscv32isa.CondSLT:
			out = append(out, &mir.Instr{Op: riscv32isa.OpSlt, Dest: dst, HasDest: true, Uses: []mir.Operand{lhs, rhs}})
		case riscv32isa.CondSGT:
			out = append(out, &mir.Instr{Op: riscv32isa.OpSlt, Dest: dst, HasDest: true, Uses: []mir.Operand{rhs, lhs}})
		case riscv32isa.CondULT:
			out = append(out, &mir.Instr{Op: riscv32isa.OpSltu, Dest: dst, HasDest: true, Uses: []mir.Operand{lhs, rhs}})
		case riscv32isa.CondUGT:
			out = append(out, &mir.Instr{Op: riscv32isa.OpSltu, Dest: dst, HasDest: true, Uses: []mir.Operand{rhs, lhs}})
		case riscv32isa.CondSLE:
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpSlt, Dest: dst, HasDest: true, Uses: []mir.Operand{rhs, lhs}},
				&mir.Instr{Op: riscv32isa.OpXor, Dest: dst, HasDest: true, Uses: []mir.Operand{dst, mir.NewImm(1)}},
			)
		case riscv32isa.CondSGE:
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpSlt, Dest: dst, HasDest: true, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: riscv32isa.OpXor, Dest: dst, HasDest: true, Uses: []mir.Operand{dst, mir.NewImm(1)}},
			)
		case riscv32isa.CondULE:
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpSltu, Dest: dst, HasDest: true, Uses: []mir.Operand{rhs, lhs}},
				&mir.Instr{Op: riscv32isa.OpXor, Dest: dst, HasDest: true, Uses: []mir.Operand{dst, mir.NewImm(1)}},
			)
		case riscv32isa.CondUGE:
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpSltu, Dest: dst, HasDest: true, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: riscv32isa.OpXor, Dest: dst, HasDest: true, Uses: []mir.Operand{dst, mir.NewImm(1)}},
			)
		case riscv32isa.CondEQ:
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpXor, Dest: scratch, HasDest: true, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: riscv32isa.OpSltu, Dest: dst, HasDest: true, Uses: []mir.Operand{scratch, mir.NewImm(1)}},
			)
		default: // CondNE
			out = append(out,
				&mir.Instr{Op: riscv32isa.OpXor, Dest: scratch, HasDest: true, Uses: []mir.Operand{lhs, rhs}},
				&mir.Instr{Op: riscv32isa.OpSltu, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewReg(riscv32isa.Zero), scratch}},
			)
		}
	}
	replaceAll(fn, out)
}
