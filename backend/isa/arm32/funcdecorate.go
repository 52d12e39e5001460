package arm32

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// prologueEpiloguePass synthesizes the function's entry/exit code once
// register allocation and spilling have settled which physical registers
// the body actually clobbers: it pushes every callee-saved register the
// body writes, plus FP and the link register (always, whether or not the
// body contains a call, since the epilogue returns by popping the saved
// link register into PC), in one PUSH, establishes the frame pointer,
// reserves the spill/local area,
// and mirrors all of that in reverse at every return. Incoming-argument
// slots the selector addressed relative to a fixed "+8" (saved FP+LR)
// are rebased by the extra callee-saved area now sitting between them and
// the frame pointer. Grounded on
// original_source/src/back/asm/arch/aarch32/passes/funcdeco.h.
type prologueEpiloguePass struct{}

func (prologueEpiloguePass) Name() string { return "funcdeco" }

func (prologueEpiloguePass) Run(fn *mir.Function) {
	if fn.Frame == nil {
		fn.Frame = &mir.FrameSlots{}
	}
	frame := fn.Frame
	frame.CalleeSaved = usedCalleeSaved(fn)
	frame.UsesLink = usesLink(fn)

	calleeSavedSize := int32(4 * len(frame.CalleeSaved))
	rebaseIncomingArgSlots(fn, calleeSavedSize)

	pushList := append(append([]mir.RegID(nil), frame.CalleeSaved...), arm32isa.FP, arm32isa.LR)
	localSize := align4(frame.LocalSize)

	// The entry code goes after the function's own label, so that a call
	// to that label runs it.
	var out []*mir.Instr
	body := fn.Instrs
	if len(body) > 0 && body[0].IsLabel() {
		out, body = append(out, body[0]), body[1:]
	}
	out = append(out,
		&mir.Instr{Op: arm32isa.OpPush, Uses: regOperands(pushList)},
		&mir.Instr{Op: arm32isa.OpMov, Dest: mir.NewReg(arm32isa.FP), HasDest: true, Uses: []mir.Operand{mir.NewReg(arm32isa.SP)}},
	)
	if localSize > 0 {
		out = append(out, &mir.Instr{Op: arm32isa.OpSub, Dest: mir.NewReg(arm32isa.SP), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(arm32isa.SP), mir.NewImm(localSize)}})
	}

	// POP into PC performs the return itself, so the selector's original
	// OpBX lr is dropped rather than appended.
	popList := append(append([]mir.RegID(nil), frame.CalleeSaved...), arm32isa.FP, arm32isa.PC)
	for _, instr := range body {
		if instr.Op == arm32isa.OpBX {
			if localSize > 0 {
				out = append(out, &mir.Instr{Op: arm32isa.OpAdd, Dest: mir.NewReg(arm32isa.SP), HasDest: true,
					Uses: []mir.Operand{mir.NewReg(arm32isa.SP), mir.NewImm(localSize)}})
			}
			out = append(out, &mir.Instr{Op: arm32isa.OpPop, Uses: regOperands(popList)})
			continue
		}
		out = append(out, instr)
	}

	fn.Instrs = nil
	for _, i := range out {
		fn.Append(i)
	}
}

func align4(n int32) int32 { return (n + 3) &^ 3 }

func regOperands(regs []mir.RegID) []mir.Operand {
	out := make([]mir.Operand, len(regs))
	for i, r := range regs {
		out[i] = mir.NewReg(r)
	}
	return out
}

// usedCalleeSaved reports which of arm32isa.RegularRegs the function body
// writes to at least once, in ascending register order (the order PUSH's
// register-list mnemonic expects).
func usedCalleeSaved(fn *mir.Function) []mir.RegID {
	used := map[mir.RegID]bool{}
	for _, instr := range fn.Instrs {
		if !instr.HasDest {
			continue
		}
		if r, ok := instr.Dest.EffectiveReg(); ok {
			used[r] = true
		}
	}
	var out []mir.RegID
	for _, r := range arm32isa.RegularRegs {
		if used[r] {
			out = append(out, r)
		}
	}
	return out
}

func usesLink(fn *mir.Function) bool {
	for _, instr := range fn.Instrs {
		if instr.Op == arm32isa.OpBL {
			return true
		}
	}
	return false
}

// rebaseIncomingArgSlots adds extra to every positive-offset frame-pointer
// slot the selector emitted for a stack-passed argument (see Select's
// OpArgRef lowering, which addresses them as [fp,#off+8]), now that extra
// bytes of callee-saved registers sit between the frame pointer and the
// caller's stack-passed arguments.
func rebaseIncomingArgSlots(fn *mir.Function, extra int32) {
	if extra == 0 {
		return
	}
	rebase := func(o *mir.Operand) {
		if o.IsSlot() && o.SlotBase() == arm32isa.FP && o.SlotOffset() >= 8 {
			*o = mir.NewSlot(arm32isa.FP, o.SlotOffset()+extra)
		}
	}
	for _, instr := range fn.Instrs {
		for i := range instr.Uses {
			rebase(&instr.Uses[i])
		}
	}
}
