package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// MoveOverriding deletes a move whose destination is overwritten again
// before any instruction reads it, within the same straight-line region
// (reset at a label or call). Grounded on
// original_source/src/back/asm/mir/passes/movoverride.h. Runs after
// register allocation so "destination" here means a physical register;
// it must read through EffectiveReg rather than IsReg/Reg because a
// homed vreg operand is still kind OperandVReg with an allocated
// register attached, not a literal OperandReg.
type MoveOverriding struct{}

func (MoveOverriding) Name() string { return "movoverride" }

func (MoveOverriding) Run(fn *mir.Function) {
	pending := map[mir.RegID]int{}

	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if instr.IsLabel() || instr.Op == riscv32isa.OpCall {
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
			if r, ok := instr.Dest.EffectiveReg(); ok {
				if idx, ok := pending[r]; ok {
					out[idx] = nil
				}
			}
		}

		out = append(out, instr)
		if instr.Op == riscv32isa.OpMv && instr.HasDest {
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
