package passes

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// LEACombining folds a pending address computation directly into the
// single load/store that consumes it, instead of materializing the
// address into a register first: "LEA t, [fp,#-8]; lw d, (t)" becomes
// "lw d, -8(fp)". Any LEA that cannot be folded this way is left for
// LEAElimination to materialize explicitly. Grounded on
// original_source/src/back/asm/arch/riscv32/passes/leacomb.h.
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
		if instr.IsLabel() || instr.Op == riscv32isa.OpCall {
			pending = map[mir.VRegID]pendingEntry{}
			out = append(out, instr)
			continue
		}

		if idx, ok := addrOperandIndex(instr.Op); ok && len(instr.Uses) > idx && instr.Uses[idx].IsVReg() {
			base := instr.Uses[idx].VReg()
			if pe, ok := pending[base]; ok && useCount[base] == 1 {
				newUses := append([]mir.Operand(nil), instr.Uses...)
				newUses[idx] = pe.slot
				instr.Uses = newUses
				out[pe.idx] = nil
				drop(base)
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

		if instr.Op == riscv32isa.OpLEA && len(instr.Uses) == 1 && instr.Uses[0].IsSlot() && instr.HasDest && instr.Dest.IsVReg() {
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

// addrOperandIndex reports which Uses slot holds the memory address for
// an addressing instruction: loads read it from Uses[0], stores from
// Uses[1] since Uses[0] there is the value being written (the order the
// mnemonic prints them: "sw rs2, offset(rs1)").
func addrOperandIndex(op mir.Opcode) (int, bool) {
	switch op {
	case riscv32isa.OpLw, riscv32isa.OpLb, riscv32isa.OpLbu:
		return 0, true
	case riscv32isa.OpSw, riscv32isa.OpSb:
		return 1, true
	default:
		return 0, false
	}
}
