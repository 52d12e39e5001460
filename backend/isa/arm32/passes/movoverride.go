package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// MoveOverriding deletes a move whose destination is overwritten again
// before any instruction reads it, within the same straight-line region
// (reset at a label or call). Grounded on
// original_source/src/back/asm/mir/passes/movoverride.h. Runs after
// register allocation so "destination" here means a physical register,
// making this pass a cheap post-allocation redundant-store-to-same-
// register cleanup.
type MoveOverriding struct{}

func (MoveOverriding) Name() string { return "movoverride" }

func (MoveOverriding) Run(fn *mir.Function) {
	pending := map[mir.RegID]int{} // physical reg -> index in out of its not-yet-read move

	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.IsLabel() || instr.Op == arm32isa.OpBL {
			pending = map[mir.RegID]int{}
			out = append(out, instr)
			continue
		}

		for _, u := range instr.Uses {
			if r, ok := u.EffectiveReg(); ok {
				delete(pending, r)
			}
		}

		if instr.HasDest {
			// A conditional MOV may leave the earlier value in place, so
			// it does not supersede the pending move.
			_, conditional := instr.Aux.(arm32isa.CondAux)
			if r, ok := instr.Dest.EffectiveReg(); ok && !conditional {
				if idx, ok := pending[r]; ok {
					out[idx] = nil // superseded before it was ever read
				}
			}
		}

		out = append(out, instr)
		if instr.Op == arm32isa.OpMov && instr.HasDest {
			if r, ok := instr.Dest.EffectiveReg(); ok {
				pending[r] = len(out) - 1
			}
		}
	}

	compact := out[:0]
	for _, instr := range out {
		if instr != nil {
			compact = append(compact, instr)
		}
	}
	replaceAll(fn, compact)
}
