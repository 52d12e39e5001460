package arm32

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/backend/regalloc"
	"github.com/ccforge/backend/mir"
)

// spillPass rewrites every slot-allocated virtual register (already
// tagged via Operand.Allocate by allocatorPass) into explicit loads and
// stores around a scratch register, using regalloc.InsertSpills.
// Grounded on original_source/src/back/asm/arch/aarch32/passes/slotspill.h.
type spillPass struct{}

func (spillPass) Name() string { return "slotspill" }

func (spillPass) Run(fn *mir.Function) {
	regalloc.InsertSpills(fn, arm32SpillPolicy{})
}

// arm32SpillPolicy supplies AArch32's addressing limits and scratch
// register preference to regalloc.InsertSpills.
type arm32SpillPolicy struct{}

func (arm32SpillPolicy) UsedMask(instr *mir.Instr) uint32 {
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

func (arm32SpillPolicy) ScratchFor(used uint32) mir.RegID {
	if used&(1<<uint(arm32isa.SpillScratch1)) == 0 {
		return arm32isa.SpillScratch1
	}
	return arm32isa.SpillScratch2
}

// ldrImmFits reports whether off fits AArch32 LDR/STR's 12-bit unsigned
// offset encoding (either sign).
func ldrImmFits(off int32) bool { return off > -4096 && off < 4096 }

func (arm32SpillPolicy) EmitLoad(dst, slot mir.Operand, extraScratch mir.RegID) []*mir.Instr {
	if ldrImmFits(slot.SlotOffset()) {
		return []*mir.Instr{{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}}}
	}
	addr := mir.NewReg(extraScratch)
	instrs := materializeSlotAddr(addr, slot)
	return append(instrs, &mir.Instr{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewSlot(extraScratch, 0)}})
}

func (arm32SpillPolicy) EmitStore(slot, src mir.Operand, extraScratch mir.RegID) []*mir.Instr {
	if ldrImmFits(slot.SlotOffset()) {
		return []*mir.Instr{{Op: arm32isa.OpStr, Uses: []mir.Operand{slot, src}}}
	}
	addr := mir.NewReg(extraScratch)
	instrs := materializeSlotAddr(addr, slot)
	return append(instrs, &mir.Instr{Op: arm32isa.OpStr, Uses: []mir.Operand{mir.NewSlot(extraScratch, 0), src}})
}

func materializeSlotAddr(addr, slot mir.Operand) []*mir.Instr {
	off := slot.SlotOffset()
	base := mir.NewReg(slot.SlotBase())
	if off >= 0 {
		return []*mir.Instr{{Op: arm32isa.OpAdd, Dest: addr, HasDest: true, Uses: []mir.Operand{base, mir.NewImm(off)}}}
	}
	return []*mir.Instr{{Op: arm32isa.OpSub, Dest: addr, HasDest: true, Uses: []mir.Operand{base, mir.NewImm(-off)}}}
}

func (arm32SpillPolicy) IsMove(instr *mir.Instr) (dst, src mir.Operand, ok bool) {
	if instr.Op != arm32isa.OpMov || !instr.HasDest || instr.Aux != nil || len(instr.Uses) != 1 {
		return mir.Operand{}, mir.Operand{}, false
	}
	return instr.Dest, instr.Uses[0], true
}
