package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// BranchElimination removes an unconditional branch immediately followed
// by a label matching its own target (a jump to the very next
// instruction), and lowers any remaining OpBrPseudo into a real OpB.
// Grounded on original_source/src/back/asm/arch/aarch32/passes/brelim.h.
type BranchElimination struct{}

func (BranchElimination) Name() string { return "brelim" }

func (BranchElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for i, instr := range fn.Instrs {
		if instr.Op == arm32isa.OpBrPseudo || instr.Op == arm32isa.OpB {
			if i+1 < len(fn.Instrs) {
				next := fn.Instrs[i+1]
				if next.IsLabel() && next.Label == instr.Label {
					continue // falls through to the same place anyway
				}
			}
			out = append(out, &mir.Instr{Op: arm32isa.OpB, Label: instr.Label})
			continue
		}
		out = append(out, instr)
	}
	replaceAll(fn, out)
}
