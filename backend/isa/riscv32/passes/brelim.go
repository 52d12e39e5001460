package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// BranchElimination removes an unconditional jump immediately followed by
// a label matching its own target, and lowers any remaining OpBrPseudo
// into a real OpJ. original_source's riscv32 backend folds this
// cleanup into BranchCombiningPass; it is split out here as its own
// pass to match this backend's one-pass-one-concern pipeline structure,
// grounded on the equivalent AArch32 pass at
// original_source/src/back/asm/arch/aarch32/passes/brelim.h.
type BranchElimination struct{}

func (BranchElimination) Name() string { return "brelim" }

func (BranchElimination) Run(fn *mir.Function) {
	var out []*mir.Instr
	for i, instr := range fn.Instrs {
		if instr.Op == riscv32isa.OpBrPseudo || instr.Op == riscv32isa.OpJ {
			if i+1 < len(fn.Instrs) {
				next := fn.Instrs[i+1]
				if next.IsLabel() && next.Label == instr.Label {
					continue
				}
			}
			out = append(out, &mir.Instr{Op: riscv32isa.OpJ, Label: instr.Label})
			continue
		}
		out = append(out, instr)
	}
	replaceAll(fn, out)
}
