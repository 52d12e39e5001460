package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

func TestImmediateNormalizationLeavesLegalImmAlone(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpAdd, Dest: mir.NewReg(riscv32isa.A0), HasDest: true,
		Uses: []mir.Operand{mir.NewReg(riscv32isa.A0), mir.NewImm(100)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, riscv32isa.OpAdd, fn.Instrs[0].Op)
	require.Equal(t, int32(100), fn.Instrs[0].Uses[1].Imm())
}

func TestImmediateNormalizationMaterializesOutOfRangeImm(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpAdd, Dest: mir.NewReg(riscv32isa.A0), HasDest: true,
		Uses: []mir.Operand{mir.NewReg(riscv32isa.A0), mir.NewImm(100000)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 2)
	require.Equal(t, riscv32isa.OpLi, fn.Instrs[0].Op)
	require.True(t, fn.Instrs[0].HasDest)
	require.Equal(t, riscv32isa.OpAdd, fn.Instrs[1].Op)
	require.True(t, fn.Instrs[1].Uses[1].IsReg())
}

func TestImmediateNormalizationRewritesSubAsNegatedAdd(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpSub, Dest: mir.NewReg(riscv32isa.A0), HasDest: true,
		Uses: []mir.Operand{mir.NewReg(riscv32isa.A0), mir.NewImm(5)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, riscv32isa.OpAdd, fn.Instrs[0].Op)
	require.Equal(t, int32(-5), fn.Instrs[0].Uses[1].Imm())
}

func TestImmediateNormalizationMaterializesUnnegatableSubImm(t *testing.T) {
	fn := &mir.Function{}
	// -(-2048) overflows the 12-bit signed I-type range, so the subtrahend
	// must be materialized instead of folded into an OpAdd.
	fn.Append(&mir.Instr{Op: riscv32isa.OpSub, Dest: mir.NewReg(riscv32isa.A0), HasDest: true,
		Uses: []mir.Operand{mir.NewReg(riscv32isa.A0), mir.NewImm(-2048)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 2)
	require.Equal(t, riscv32isa.OpLi, fn.Instrs[0].Op)
	require.Equal(t, riscv32isa.OpSub, fn.Instrs[1].Op)
	require.True(t, fn.Instrs[1].Uses[1].IsReg())
}
