package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// ShiftCombining folds a single-use LSL/LSR/ASR result directly into the
// flexible second operand of the one data-processing instruction that
// consumes it, removing the separate shift instruction. Grounded on
// original_source/src/back/asm/arch/aarch32/passes/shiftcomb.h.
type ShiftCombining struct{}

func (ShiftCombining) Name() string { return "shiftcomb" }

func (ShiftCombining) Run(fn *mir.Function) {
	type pendingShift struct {
		idx     int
		lhs     mir.Operand
		op      arm32isa.ShiftOp
		amt     int32
	}
	pending := map[mir.VRegID]pendingShift{}
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
			pending = map[mir.VRegID]pendingShift{}
			out = append(out, instr)
			continue
		}

		if isFlexConsumer(instr.Op) && len(instr.Uses) == 2 && instr.Uses[1].IsVReg() {
			if ps, ok := pending[instr.Uses[1].VReg()]; ok && instr.Aux == nil && useCount[instr.Uses[1].VReg()] == 1 {
				newUses := append([]mir.Operand(nil), instr.Uses...)
				newUses[1] = ps.lhs
				instr.Uses = newUses
				instr.Aux = arm32isa.FlexAux{Op: ps.op, Amt: ps.amt}
				out[ps.idx] = nil
				drop(instr.Uses[1].VReg())
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

		if op, ok := shiftOpOf(instr.Op); ok && instr.HasDest && instr.Dest.IsVReg() &&
			len(instr.Uses) == 2 && instr.Uses[1].IsImm() {
			pending[instr.Dest.VReg()] = pendingShift{
				idx: len(out) - 1, lhs: instr.Uses[0], op: op, amt: instr.Uses[1].Imm(),
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

func shiftOpOf(op mir.Opcode) (arm32isa.ShiftOp, bool) {
	switch op {
	case arm32isa.OpLsl:
		return arm32isa.ShiftLSL, true
	case arm32isa.OpLsr:
		return arm32isa.ShiftLSR, true
	case arm32isa.OpAsr:
		return arm32isa.ShiftASR, true
	default:
		return arm32isa.ShiftNone, false
	}
}

func isFlexConsumer(op mir.Opcode) bool {
	switch op {
	case arm32isa.OpAdd, arm32isa.OpSub, arm32isa.OpRsb, arm32isa.OpAnd,
		arm32isa.OpOrr, arm32isa.OpEor, arm32isa.OpCmp, arm32isa.OpMov:
		return true
	default:
		return false
	}
}
