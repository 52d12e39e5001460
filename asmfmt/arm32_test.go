package asmfmt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

func TestARM32EmitModuleFunctionAndData(t *testing.T) {
	fn := &mir.Function{
		Label:   mir.NewLabel("main"),
		Linkage: mir.LinkageExternal,
	}
	fn.Instrs = []*mir.Instr{
		{Op: arm32isa.OpAdd, Dest: mir.NewReg(arm32isa.R0), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(arm32isa.R0), mir.NewReg(arm32isa.R1)}},
		{Op: arm32isa.OpBX, Uses: []mir.Operand{mir.NewReg(arm32isa.LR)}},
	}
	mod := &mir.Module{
		Funcs: []*mir.Function{fn},
		Data: []*mir.DataEntry{
			{Label: mir.NewLabel("counter"), Size: 4, Align: 4},
		},
	}

	out, err := ARM32{}.EmitModule(mod)
	require.NoError(t, err)
	require.Contains(t, out, ".data")
	require.Contains(t, out, "counter:")
	require.Contains(t, out, "\t.zero 4")
	require.Contains(t, out, ".text")
	require.Contains(t, out, ".global main")
	require.Contains(t, out, "add r0, r0, r1")
	require.Contains(t, out, "bx lr")
}

func TestARM32EmitModuleAppliesConditionSuffixAndShift(t *testing.T) {
	fn := &mir.Function{Label: mir.NewLabel("f"), Linkage: mir.LinkageInternal}
	fn.Instrs = []*mir.Instr{
		{Op: arm32isa.OpMov, Dest: mir.NewReg(arm32isa.R0), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(arm32isa.R1)},
			Aux:  arm32isa.CondAux{Cond: arm32isa.CondEQ}},
		{Op: arm32isa.OpAdd, Dest: mir.NewReg(arm32isa.R0), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(arm32isa.R0), mir.NewReg(arm32isa.R1)},
			Aux:  arm32isa.FlexAux{Op: arm32isa.ShiftLSL, Amt: 2}},
	}
	mod := &mir.Module{Funcs: []*mir.Function{fn}}

	out, err := ARM32{}.EmitModule(mod)
	require.NoError(t, err)
	require.Contains(t, out, "moveq r0, r1")
	require.Contains(t, out, "add r0, r0, r1, lsl #2")
}

func TestARM32EmitModulePanicsOnUnknownOpcode(t *testing.T) {
	fn := &mir.Function{Label: mir.NewLabel("bad"), Linkage: mir.LinkageInternal}
	fn.Instrs = []*mir.Instr{{Op: mir.Opcode(9999)}}
	mod := &mir.Module{Funcs: []*mir.Function{fn}}

	require.Panics(t, func() { _, _ = ARM32{}.EmitModule(mod) })
}
