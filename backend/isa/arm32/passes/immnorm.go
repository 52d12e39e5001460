package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// ImmediateNormalization rewrites an immediate operand that cannot be
// encoded as an AArch32 8-bit-rotated data-processing constant into a
// MOVW/MOVT pair materialized into a scratch register ahead of the
// instruction that needs it. Grounded on
// original_source/src/back/asm/arch/aarch32/passes/immnorm.h.
type ImmediateNormalization struct{}

func (ImmediateNormalization) Name() string { return "immnorm" }

func (ImmediateNormalization) Run(fn *mir.Function) {
	var out []*mir.Instr
	for _, instr := range fn.Instrs {
		if !needsImmCheck(instr.Op) {
			out = append(out, instr)
			continue
		}
		// A plain "mov dest, #imm" materializes straight into its own
		// destination instead of a scratch-then-copy: MOVW/MOVT can
		// target any register, so there is no need to go through
		// SpillScratch1 and leave a redundant trailing mov behind.
		if instr.Op == arm32isa.OpMov && len(instr.Uses) == 1 &&
			instr.Uses[0].IsImm() && !isLegalDPImm(instr.Uses[0].Imm()) {
			out = append(out, materializeImm(instr.Dest, instr.Uses[0].Imm())...)
			continue
		}
		newUses := append([]mir.Operand(nil), instr.Uses...)
		changed := false
		for i, u := range newUses {
			if !u.IsImm() || isLegalDPImm(u.Imm()) {
				continue
			}
			scratch := arm32isa.SpillScratch1
			out = append(out, materializeImm(mir.NewReg(scratch), u.Imm())...)
			newUses[i] = mir.NewReg(scratch)
			changed = true
		}
		if changed {
			instr.Uses = newUses
		}
		out = append(out, instr)
	}
	replaceAll(fn, out)
}

// materializeImm splits v into its low/high 16-bit halves and loads it
// into dst via MOVW/MOVT, the same sequence LEAElimination uses to
// materialize a label address, but with the halves computed at compile
// time instead of left to a linker relocation.
func materializeImm(dst mir.Operand, v int32) []*mir.Instr {
	u := uint32(v)
	lo := int32(u & 0xFFFF)
	hi := int32((u >> 16) & 0xFFFF)
	return []*mir.Instr{
		{Op: arm32isa.OpMovW, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewImm(lo)}},
		{Op: arm32isa.OpMovT, Dest: dst, HasDest: true, Uses: []mir.Operand{mir.NewImm(hi)}},
	}
}

func needsImmCheck(op mir.Opcode) bool {
	switch op {
	case arm32isa.OpAdd, arm32isa.OpSub, arm32isa.OpRsb, arm32isa.OpAnd,
		arm32isa.OpOrr, arm32isa.OpEor, arm32isa.OpCmp, arm32isa.OpMov:
		return true
	default:
		return false
	}
}

// isLegalDPImm reports whether v fits an 8-bit value rotated by an even
// number of bits, the encoding every AArch32 data-processing instruction's
// immediate operand shares.
func isLegalDPImm(v int32) bool {
	u := uint32(v)
	for rot := 0; rot < 32; rot += 2 {
		rotated := (u << rot) | (u >> (32 - rot))
		if rotated&^uint32(0xFF) == 0 {
			return true
		}
	}
	return false
}
