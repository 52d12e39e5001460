package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

func TestLoadStorePropagationTurnsRedundantLoadAfterStoreIntoMove(t *testing.T) {
	fn := &mir.Function{}
	slot := mir.NewSlot(arm32isa.FP, -8)
	val := fn.VRegs.NewVReg(4)
	dst := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpStr, Uses: []mir.Operand{slot, val}})
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})

	LoadStorePropagation{}.Run(fn)

	require.Len(t, fn.Instrs, 2)
	require.Equal(t, arm32isa.OpMov, fn.Instrs[1].Op)
	require.Equal(t, dst, fn.Instrs[1].Dest)
	require.Equal(t, val, fn.Instrs[1].Uses[0])
}

func TestLoadStorePropagationDropsReloadOfSameValueAlreadyHeld(t *testing.T) {
	fn := &mir.Function{}
	slot := mir.NewSlot(arm32isa.FP, -8)
	dst := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})

	LoadStorePropagation{}.Run(fn)

	require.Len(t, fn.Instrs, 1, "the second load is redundant: dst already holds the value")
}

func TestLoadStorePropagationStrbInvalidatesCachedValue(t *testing.T) {
	fn := &mir.Function{}
	slot := mir.NewSlot(arm32isa.FP, -8)
	val := fn.VRegs.NewVReg(4)
	dst := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpStr, Uses: []mir.Operand{slot, val}})
	fn.Append(&mir.Instr{Op: arm32isa.OpStrb, Uses: []mir.Operand{slot, val}})
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})

	LoadStorePropagation{}.Run(fn)

	require.Len(t, fn.Instrs, 3, "STRB invalidates the slot's cached value, so the LDR must survive")
	require.Equal(t, arm32isa.OpLdr, fn.Instrs[2].Op)
}

func TestLoadStorePropagationResetsAcrossCalls(t *testing.T) {
	fn := &mir.Function{}
	slot := mir.NewSlot(arm32isa.FP, -8)
	val := fn.VRegs.NewVReg(4)
	dst := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpStr, Uses: []mir.Operand{slot, val}})
	fn.Append(&mir.Instr{Op: arm32isa.OpBL, Label: "memset"})
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: dst, HasDest: true, Uses: []mir.Operand{slot}})

	LoadStorePropagation{}.Run(fn)

	require.Len(t, fn.Instrs, 3, "a call may alias the slot, so the cached value must not survive it")
	require.Equal(t, arm32isa.OpLdr, fn.Instrs[2].Op)
}
