package riscv32

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

// prologueEpiloguePass synthesizes the function's entry/exit code once
// register allocation and spilling have settled which physical registers
// the body actually clobbers. RV32 has no push/pop instruction, so unlike
// AArch32's single combined PUSH/POP this lays out an explicit sw/lw
// sequence: the stack pointer drops by one frame in a single addi, the
// frame pointer is pinned to the value sp had on entry, and every
// callee-saved register plus ra (if the body contains a call) is saved
// to -- and later restored from -- an fp-relative slot below the spill
// area allocatorPass already carved out. Because fp is defined as the
// entry-time sp, an incoming stack-passed argument's fp-relative offset
// never needs rebasing the way AArch32's does: nothing sits between fp
// and the caller's frame. Grounded on
// original_source/src/back/asm/arch/riscv32/passes/funcdeco.h.
type prologueEpiloguePass struct{}

func (prologueEpiloguePass) Name() string { return "funcdeco" }

func (prologueEpiloguePass) Run(fn *mir.Function) {
	if fn.Frame == nil {
		fn.Frame = &mir.FrameSlots{}
	}
	frame := fn.Frame
	frame.CalleeSaved = usedCalleeSaved(fn)
	frame.UsesLink = usesLink(fn)

	var saved []mir.RegID
	if frame.UsesLink {
		saved = append(saved, riscv32isa.RA)
	}
	saved = append(saved, frame.CalleeSaved...)

	localSize := align4(frame.LocalSize)
	savedAreaSize := int32(4 * len(saved))
	frameSize := localSize + savedAreaSize

	// The entry code goes after the function's own label, so that a call
	// to that label runs it.
	var out []*mir.Instr
	body := fn.Instrs
	if len(body) > 0 && body[0].IsLabel() {
		out, body = append(out, body[0]), body[1:]
	}
	if frameSize > 0 {
		out = append(out, &mir.Instr{Op: riscv32isa.OpAdd, Dest: mir.NewReg(riscv32isa.SP), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(riscv32isa.SP), mir.NewImm(-frameSize)}})
		out = append(out, &mir.Instr{Op: riscv32isa.OpAdd, Dest: mir.NewReg(riscv32isa.FP), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(riscv32isa.SP), mir.NewImm(frameSize)}})
	}
	for i, r := range saved {
		off := -(localSize + int32(4*(i+1)))
		out = append(out, &mir.Instr{Op: riscv32isa.OpSw, Uses: []mir.Operand{mir.NewReg(r), mir.NewSlot(riscv32isa.FP, off)}})
	}

	for _, instr := range body {
		if instr.Op == riscv32isa.OpRet {
			for i, r := range saved {
				off := -(localSize + int32(4*(i+1)))
				out = append(out, &mir.Instr{Op: riscv32isa.OpLw, Dest: mir.NewReg(r), HasDest: true, Uses: []mir.Operand{mir.NewSlot(riscv32isa.FP, off)}})
			}
			if frameSize > 0 {
				out = append(out, &mir.Instr{Op: riscv32isa.OpAdd, Dest: mir.NewReg(riscv32isa.SP), HasDest: true,
					Uses: []mir.Operand{mir.NewReg(riscv32isa.SP), mir.NewImm(frameSize)}})
			}
			out = append(out, instr)
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

// usedCalleeSaved reports which of riscv32isa.RegularRegs the function
// body writes to at least once, in ascending register order.
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
	for _, r := range riscv32isa.RegularRegs {
		if used[r] {
			out = append(out, r)
		}
	}
	return out
}

func usesLink(fn *mir.Function) bool {
	for _, instr := range fn.Instrs {
		if instr.Op == riscv32isa.OpCall {
			return true
		}
	}
	return false
}
