package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// LEACombining folds a pending address computation directly into the
// single load/store that consumes it, instead of materializing the
// address into a register first: "LEA t, [fp,#-8]; LDR d, [t]" becomes
// "LDR d, [fp,#-8]". Any LEA that cannot be folded this way is left for
// LEAElimination to materialize explicitly. Grounded on
// original_source/src/back/asm/arch/aarch32/passes/leacomb.h.
type LEACombining struct{}

func (LEACombining) Name() string { return "leacomb" }

func (LEACombining) Run(fn *mir.Function) {
	type pendingEntry struct {
		idx  int
		slot mir.Operand
	}
	pending := map[mir.VRegID]pendingEntry{}
	useCount := map[mir.VRegID]int{}
	for _, instr := range fn.Instrs {
		for _, u := range instr.Uses {
			if u.IsVReg() {
				useCount[u.VReg()]++
			}
		}
	}

	var out []*mir.Instr
	drop := func(v mir.VRegID) { delete(pending, v) }

	for _, instr := range fn.Instrs {
		if instr.IsLabel() || instr.Op == arm32isa.OpBL {
			pending = map[mir.VRegID]pendingEntry{}
			out = append(out, instr)
			continue
		}

		if isAddressingInstr(instr.Op) && len(instr.Uses) > 0 && instr.Uses[0].IsVReg() {
			if pe, ok := pending[instr.Uses[0].VReg()]; ok && useCount[instr.Uses[0].VReg()] == 1 {
				newUses := append([]mir.Operand(nil), instr.Uses...)
				newUses[0] = pe.slot
				instr.Uses = newUses
				out[pe.idx] = nil
				drop(instr.Uses[0].VReg())
			}
		}

		for _, u := range instr.Uses {
			if u.IsVReg() {
				drop(u.VReg())
			}
		}
		if instr.HasDest && instr.Dest.IsVReg() {
			drop(instr.Dest.VReg())
		}

		out = append(out, instr)

		if instr.Op == arm32isa.OpLEA && len(instr.Uses) == 1 && instr.Uses[0].IsSlot() && instr.HasDest && instr.Dest.IsVReg() {
			pending[instr.Dest.VReg()] = pendingEntry{idx: len(out) - 1, slot: instr.Uses[0]}
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

func isAddressingInstr(op mir.Opcode) bool {
	switch op {
	case arm32isa.OpLdr, arm32isa.OpLdrb, arm32isa.OpStr, arm32isa.OpStrb:
		return true
	default:
		return false
	}
}
