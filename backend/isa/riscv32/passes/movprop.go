package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// MovePropagation forward-substitutes through register-to-register moves:
// once "mv b, a" has executed, every later read of b is rewritten to read
// a directly, until b is redefined or a label/call is reached. Grounded
// on original_source/src/back/asm/mir/passes/movprop.h.
type MovePropagation struct{}

func (MovePropagation) Name() string { return "movprop" }

func (MovePropagation) Run(fn *mir.Function) {
	copies := map[mir.VRegID]mir.Operand{}
	reset := func() { copies = map[mir.VRegID]mir.Operand{} }

	for _, instr := range fn.Instrs {
		if instr.IsLabel() || instr.Op == riscv32isa.OpCall {
			reset()
			continue
		}

		for i, u := range instr.Uses {
			if u.IsVReg() {
				if src, ok := copies[u.VReg()]; ok {
					instr.Uses[i] = src
				}
			}
		}

		if instr.HasDest && instr.Dest.IsVReg() {
			for dst, src := range copies {
				if srcVreg, ok := vregOf(src); ok && (dst == instr.Dest.VReg() || srcVreg == instr.Dest.VReg()) {
					delete(copies, dst)
				}
			}
			delete(copies, instr.Dest.VReg())
		}

		if instr.Op == riscv32isa.OpMv && instr.Aux == nil && len(instr.Uses) == 1 &&
			(instr.Uses[0].IsVReg() || instr.Uses[0].IsReg()) && instr.HasDest && instr.Dest.IsVReg() {
			copies[instr.Dest.VReg()] = instr.Uses[0]
		}
	}
}

func vregOf(o mir.Operand) (mir.VRegID, bool) {
	if o.IsVReg() {
		return o.VReg(), true
	}
	return 0, false
}
