package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

func TestSetCondEliminationExpandsToCompareAndConditionalMoves(t *testing.T) {
	var vf mir.VRegFactory
	lhs := vf.NewVReg(4)
	rhs := vf.NewVReg(4)
	dest := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{
		Op: arm32isa.OpSetCond, Dest: dest, HasDest: true,
		Uses: []mir.Operand{lhs, rhs},
		Aux:  arm32isa.CondAux{Cond: arm32isa.CondSLT},
	})

	SetCondElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 3)
	require.Equal(t, arm32isa.OpCmp, fn.Instrs[0].Op)
	require.Equal(t, []mir.Operand{lhs, rhs}, fn.Instrs[0].Uses)

	require.Equal(t, arm32isa.OpMov, fn.Instrs[1].Op)
	require.Equal(t, int32(0), fn.Instrs[1].Uses[0].Imm())
	require.Nil(t, fn.Instrs[1].Aux)

	require.Equal(t, arm32isa.OpMov, fn.Instrs[2].Op)
	require.Equal(t, int32(1), fn.Instrs[2].Uses[0].Imm())
	require.Equal(t, arm32isa.CondSLT, fn.Instrs[2].Aux.(arm32isa.CondAux).Cond)
}

func TestSetCondEliminationExpandsEqualityViaSubClzLsr(t *testing.T) {
	var vf mir.VRegFactory
	lhs := vf.NewVReg(4)
	rhs := vf.NewVReg(4)
	dest := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{
		Op: arm32isa.OpSetCond, Dest: dest, HasDest: true,
		Uses: []mir.Operand{lhs, rhs},
		Aux:  arm32isa.CondAux{Cond: arm32isa.CondEQ},
	})

	SetCondElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 3)
	temp := mir.NewReg(arm32isa.SpillScratch2)

	require.Equal(t, arm32isa.OpSub, fn.Instrs[0].Op)
	require.Equal(t, temp, fn.Instrs[0].Dest)
	require.Equal(t, []mir.Operand{lhs, rhs}, fn.Instrs[0].Uses)

	require.Equal(t, arm32isa.OpClz, fn.Instrs[1].Op)
	require.Equal(t, temp, fn.Instrs[1].Dest)
	require.Equal(t, []mir.Operand{temp}, fn.Instrs[1].Uses)

	require.Equal(t, arm32isa.OpLsr, fn.Instrs[2].Op)
	require.Equal(t, dest, fn.Instrs[2].Dest)
	require.Equal(t, temp, fn.Instrs[2].Uses[0])
	require.Equal(t, int32(5), fn.Instrs[2].Uses[1].Imm())
}

func TestSetCondEliminationExpandsInequalityViaSubsAndConditionalMove(t *testing.T) {
	var vf mir.VRegFactory
	lhs := vf.NewVReg(4)
	rhs := vf.NewVReg(4)
	dest := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{
		Op: arm32isa.OpSetCond, Dest: dest, HasDest: true,
		Uses: []mir.Operand{lhs, rhs},
		Aux:  arm32isa.CondAux{Cond: arm32isa.CondNE},
	})

	SetCondElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 4)
	temp := mir.NewReg(arm32isa.SpillScratch2)

	require.Equal(t, arm32isa.OpSub, fn.Instrs[0].Op)
	require.Equal(t, temp, fn.Instrs[0].Dest)
	require.Equal(t, []mir.Operand{lhs, rhs}, fn.Instrs[0].Uses)

	require.Equal(t, arm32isa.OpCmp, fn.Instrs[1].Op)
	require.Equal(t, []mir.Operand{lhs, rhs}, fn.Instrs[1].Uses)

	require.Equal(t, arm32isa.OpMov, fn.Instrs[2].Op)
	require.Equal(t, temp, fn.Instrs[2].Dest)
	require.Equal(t, int32(1), fn.Instrs[2].Uses[0].Imm())
	require.Equal(t, arm32isa.CondNE, fn.Instrs[2].Aux.(arm32isa.CondAux).Cond)

	require.Equal(t, arm32isa.OpMov, fn.Instrs[3].Op)
	require.Equal(t, dest, fn.Instrs[3].Dest)
	require.Equal(t, temp, fn.Instrs[3].Uses[0])
	require.Nil(t, fn.Instrs[3].Aux)
}

func TestSetCondEliminationLeavesOtherInstructionsAlone(t *testing.T) {
	var vf mir.VRegFactory
	dest := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true, Uses: []mir.Operand{mir.NewImm(7)}})

	SetCondElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, arm32isa.OpMov, fn.Instrs[0].Op)
}
