package riscv32

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/backend/regalloc"
	"github.com/ccforge/backend/mir"
)

// spillPass rewrites every slot-allocated virtual register (already
// tagged via Operand.Allocate by allocatorPass) into explicit lw/sw
// around a scratch register, using regalloc.InsertSpills. Grounded on
// original_source/src/back/asm/arch/riscv32/passes/slotspill.h.
type spillPass struct{}

func (spillPass) Name() string { return "slotspill" }

func (spillPass) Run(fn *mir.Function) {
	regalloc.InsertSpills(fn, riscv32SpillPolicy{})
}

// riscv32SpillPolicy supplies RV32's addressing limits and scratch
// register preference to regalloc.InsertSpills.
type riscv32SpillPolicy struct{}

func (riscv32SpillPolicy) UsedMask(instr *mir.Instr) uint32 {
	var mask uint32
	for _, u := range instr.Uses {
		if r, ok := u.EffectiveReg(); ok {
			mask |= 1 << uint(r)
		}
	}
	if instr.HasDest {
		if r, ok := instr.Dest.EffectiveReg(); ok {
			mask |= 1 << uint(r)
		}
	}
	return mask
}

func (riscv32SpillPolicy) ScratchFor(used uint32) mir.RegID {
	if used&(1<<uint(riscv32isa.SpillScratch1)) == 0 {
		return riscv32isa.SpillScratch1
	}
	return riscv32isa.SpillScratch2
}

// lwImmFits reports whether off fits RV32I's 12-bit signed I-type
// load/store offset encoding.
func lwImmFits(off int32) bool { return off >= -2048 && off <= 2047 }

func (riscv32SpillPolicy) EmitLoad(dst, slot mir.Operand, extraScratch mir.RegID) []*mir.Instr {
	if lwImmFits(slot.SlotOffset()) {
		return []*mir.Instr{{Op: riscv32isa.OpLw, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}}}
	}
	addr := mir.NewReg(extraScratch)
	instrs := materializeSlotAddr(addr, slot)
	return append(instrs, &mir.Instr{Op: riscv32isa.OpLw, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewSlot(extraScratch, 0)}})
}

func (riscv32SpillPolicy) EmitStore(slot, src mir.Operand, extraScratch mir.RegID) []*mir.Instr {
	if lwImmFits(slot.SlotOffset()) {
		return []*mir.Instr{{Op: riscv32isa.OpSw, Uses: []mir.Operand{src, slot}}}
	}
	addr := mir.NewReg(extraScratch)
	instrs := materializeSlotAddr(addr, slot)
	return append(instrs, &mir.Instr{Op: riscv32isa.OpSw, Uses: []mir.Operand{src, mir.NewSlot(extraScratch, 0)}})
}

// materializeSlotAddr always emits an OpAdd, negating off when needed:
// RV32's addi has no subtracting counterpart, and this runs after
// ImmediateNormalization in the pipeline, so it must not rely on that
// pass to legalize an OpSub it would otherwise be the last to see.
func materializeSlotAddr(addr, slot mir.Operand) []*mir.Instr {
	off := slot.SlotOffset()
	base := mir.NewReg(slot.SlotBase())
	return []*mir.Instr{{Op: riscv32isa.OpAdd, Dest: addr, HasDest: true, Uses: []mir.Operand{base, mir.NewImm(off)}}}
}

func (riscv32SpillPolicy) IsMove(instr *mir.Instr) (dst, src mir.Operand, ok bool) {
	if instr.Op != riscv32isa.OpMv || !instr.HasDest || instr.Aux != nil || len(instr.Uses) != 1 {
		return mir.Operand{}, mir.Operand{}, false
	}
	return instr.Dest, instr.Uses[0], true
}
