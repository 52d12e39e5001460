// Package passes implements the RV32 peephole and legalization passes,
// each grounded on the matching file under
// original_source/src/back/asm/arch/riscv32/passes (named in each pass's
// doc comment). Opcode/Aux values come from the sibling riscv32isa
// package, which both this package and riscv32 itself import, avoiding a
// dependency cycle between selection and legalization.
package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// MoveElimination merges a move into the instruction immediately before
// it when the move's source is exactly that instruction's destination:
// "add t, a, b; mv d, t" becomes "add d, a, b". Grounded on
// original_source/src/back/asm/mir/passes/movelim.h.
type MoveElimination struct{}

func (MoveElimination) Name() string { return "movelim" }

func (MoveElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.Op == riscv32isa.OpMv && instr.Aux == nil && len(out) > 0 {
			prev := out[len(out)-1]
			src := instr.Uses[0]
			if prev.HasDest && src.IsVReg() && prev.Dest.IsVReg() && prev.Dest.VReg() == src.VReg() && !prev.IsLabel() {
				prev.Dest = instr.Dest
				continue
			}
		}
		out = append(out, instr)
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
