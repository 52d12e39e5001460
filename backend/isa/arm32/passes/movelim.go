package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// MoveElimination merges a move into the instruction immediately before
// it when the move's source is exactly that instruction's destination:
// "ADD t, a, b; MOV d, t" becomes "ADD d, a, b". Grounded on
// original_source/src/back/asm/mir/passes/movelim.h.
type MoveElimination struct{}

func (MoveElimination) Name() string { return "movelim" }

func (MoveElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.Op == arm32isa.OpMov && instr.Aux == nil && len(out) > 0 {
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
