package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

func TestLEACombiningFoldsAddressIntoLoad(t *testing.T) {
	var vf mir.VRegFactory
	addr := vf.NewVReg(4)
	dest := vf.NewVReg(4)
	slot := mir.NewSlot(riscv32isa.FP, -8)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpLEA, Dest: addr, HasDest: true, Uses: []mir.Operand{slot}})
	fn.Append(&mir.Instr{Op: riscv32isa.OpLw, Dest: dest, HasDest: true, Uses: []mir.Operand{addr}})

	LEACombining{}.Run(fn)

	require.Len(t, fn.Instrs, 1, "the LEA should be folded away, leaving only the load")
	require.Equal(t, riscv32isa.OpLw, fn.Instrs[0].Op)
	require.True(t, fn.Instrs[0].Uses[0].IsSlot())
	require.Equal(t, int32(-8), fn.Instrs[0].Uses[0].SlotOffset())
}

func TestLEACombiningLeavesUnfoldableLEAAlone(t *testing.T) {
	var vf mir.VRegFactory
	addr := vf.NewVReg(4)
	dest := vf.NewVReg(4)
	slot := mir.NewSlot(riscv32isa.FP, -8)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpLEA, Dest: addr, HasDest: true, Uses: []mir.Operand{slot}})
	// A call between the LEA and its use clears the pending table, since a
	// callee may clobber the address register before it's consumed.
	fn.Append(&mir.Instr{Op: riscv32isa.OpCall, Label: "helper"})
	fn.Append(&mir.Instr{Op: riscv32isa.OpLw, Dest: dest, HasDest: true, Uses: []mir.Operand{addr}})

	LEACombining{}.Run(fn)

	require.Len(t, fn.Instrs, 3, "a call between LEA and its use must prevent folding")
	require.Equal(t, riscv32isa.OpLEA, fn.Instrs[0].Op)
}
