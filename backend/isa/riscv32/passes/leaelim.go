package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// LEAElimination materializes every LEA pseudo LEACombining did not fold
// away into real instructions: a slot base becomes an ADD/SUB off the
// frame pointer, a label becomes the assembler's own "la" pseudo
// (RV32's relocation-backed address load needs no MOVW/MOVT-style
// two-instruction split the way AArch32 does), and a register base with
// a constant offset (from ssa.OpAccess) becomes a single ADD/SUB.
// Grounded on original_source/src/back/asm/arch/riscv32/passes/leaelim.h.
type LEAElimination struct{}

func (LEAElimination) Name() string { return "leaelim" }

func (LEAElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.Op != riscv32isa.OpLEA {
			out = append(out, instr)
			continue
		}
		base := instr.Uses[0]
		switch {
		case base.IsSlot():
			out = append(out, addOrSub(instr.Dest, mir.NewReg(base.SlotBase()), base.SlotOffset())...)
		case base.IsLabel():
			out = append(out, &mir.Instr{Op: riscv32isa.OpLa, Dest: instr.Dest, HasDest: true, Uses: []mir.Operand{base}})
		default:
			var off int32
			if len(instr.Uses) > 1 && instr.Uses[1].IsImm() {
				off = instr.Uses[1].Imm()
			}
			out = append(out, addOrSub(instr.Dest, base, off)...)
		}
	}
	replaceAll(fn, out)
}

func addOrSub(dst, base mir.Operand, off int32) []*mir.Instr {
	if off == 0 {
		return []*mir.Instr{{Op: riscv32isa.OpMv, Dest: dst, HasDest: true, Uses: []mir.Operand{base}}}
	}
	if off > 0 {
		return []*mir.Instr{{Op: riscv32isa.OpAdd, Dest: dst, HasDest: true, Uses: []mir.Operand{base, mir.NewImm(off)}}}
	}
	return []*mir.Instr{{Op: riscv32isa.OpSub, Dest: dst, HasDest: true, Uses: []mir.Operand{base, mir.NewImm(-off)}}}
}
