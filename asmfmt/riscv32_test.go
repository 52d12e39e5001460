package asmfmt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

func TestRISCV32EmitModuleFunctionAndData(t *testing.T) {
	fn := &mir.Function{
		Label:   mir.NewLabel("main"),
		Linkage: mir.LinkageExternal,
	}
	fn.Instrs = []*mir.Instr{
		{Op: riscv32isa.OpAdd, Dest: mir.NewReg(riscv32isa.A0), HasDest: true,
			Uses: []mir.Operand{mir.NewReg(riscv32isa.A0), mir.NewReg(riscv32isa.A1)}},
		{Op: riscv32isa.OpRet},
	}
	mod := &mir.Module{
		Funcs: []*mir.Function{fn},
		Data: []*mir.DataEntry{
			{Label: mir.NewLabel("counter"), Size: 4, Align: 4},
			{Label: mir.NewLabel("msg"), Kind: mir.DataBytes, Size: 3, Align: 1, Init: []byte{104, 105, 0}},
		},
	}

	out, err := RISCV32{}.EmitModule(mod)
	require.NoError(t, err)
	require.Contains(t, out, ".data")
	require.Contains(t, out, "counter:")
	require.Contains(t, out, "\t.zero 4")
	require.Contains(t, out, "msg:")
	require.Contains(t, out, "\t.byte 104,105,0")
	require.Contains(t, out, ".text")
	require.Contains(t, out, ".globl main")
	require.Contains(t, out, "add a0, a0, a1")
	require.Contains(t, out, "ret")
}

func TestRISCV32EmitModuleOmitsDataSectionWhenNoGlobals(t *testing.T) {
	fn := &mir.Function{Label: mir.NewLabel("f"), Linkage: mir.LinkageInternal}
	fn.Instrs = []*mir.Instr{{Op: riscv32isa.OpRet}}
	mod := &mir.Module{Funcs: []*mir.Function{fn}}

	out, err := RISCV32{}.EmitModule(mod)
	require.NoError(t, err)
	require.NotContains(t, out, ".data")
	require.NotContains(t, out, ".globl", "internal linkage must not be exported")
}

func TestRISCV32EmitModulePanicsOnUnallocatedOperand(t *testing.T) {
	var vf mir.VRegFactory
	v := vf.NewVReg(4)
	fn := &mir.Function{Label: mir.NewLabel("bad"), Linkage: mir.LinkageInternal}
	fn.Instrs = []*mir.Instr{
		{Op: riscv32isa.OpAdd, Dest: v, HasDest: true, Uses: []mir.Operand{v, v}},
	}
	mod := &mir.Module{Funcs: []*mir.Function{fn}}

	require.Panics(t, func() { _, _ = RISCV32{}.EmitModule(mod) })
}
