package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

func countOp(fn *mir.Function, op mir.Opcode) int {
	n := 0
	for _, instr := range fn.Instrs {
		if instr.Op == op {
			n++
		}
	}
	return n
}

func TestDivisionOptimizationRewritesSignedDivByThreeToMagicMultiply(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpSdiv, Dest: dest, HasDest: true,
		Uses: []mir.Operand{n, mir.NewImm(3)}})

	DivisionOptimization{}.Run(fn)

	require.Zero(t, countOp(fn, arm32isa.OpSdiv), "no sdiv should survive a constant-divisor division")
	require.Equal(t, 1, countOp(fn, arm32isa.OpSmmul), "divisor 3 takes the magic-multiply-high path")
	last := fn.Instrs[len(fn.Instrs)-1]
	require.Equal(t, arm32isa.OpMov, last.Op)
	require.Equal(t, dest, last.Dest)
}

func TestDivisionOptimizationRewritesUnsignedDivByThreeToMagicMultiply(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpUdiv, Dest: dest, HasDest: true,
		Uses: []mir.Operand{n, mir.NewImm(3)}})

	DivisionOptimization{}.Run(fn)

	require.Zero(t, countOp(fn, arm32isa.OpUdiv))
	require.Equal(t, 1, countOp(fn, arm32isa.OpUmull), "divisor 3 takes the magic-multiply-high path")
	last := fn.Instrs[len(fn.Instrs)-1]
	require.Equal(t, arm32isa.OpMov, last.Op)
	require.Equal(t, dest, last.Dest)
}

func TestDivisionOptimizationKeepsUnsignedPowerOfTwoAsShift(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpUdiv, Dest: dest, HasDest: true,
		Uses: []mir.Operand{n, mir.NewImm(8)}})

	DivisionOptimization{}.Run(fn)

	require.Zero(t, countOp(fn, arm32isa.OpUdiv))
	require.Zero(t, countOp(fn, arm32isa.OpUmull), "an exact power of two never needs the magic multiply")
	require.Len(t, fn.Instrs, 2)
	require.Equal(t, arm32isa.OpLsr, fn.Instrs[0].Op)
	require.Equal(t, int32(3), fn.Instrs[0].Uses[1].Imm())
	require.Equal(t, arm32isa.OpMov, fn.Instrs[1].Op)
	require.Equal(t, dest, fn.Instrs[1].Dest)
}

func TestDivisionOptimizationRewritesSignedDivByNegativeConstant(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpSdiv, Dest: dest, HasDest: true,
		Uses: []mir.Operand{n, mir.NewImm(-3)}})

	DivisionOptimization{}.Run(fn)

	require.Zero(t, countOp(fn, arm32isa.OpSdiv))
	last := fn.Instrs[len(fn.Instrs)-1]
	require.Equal(t, arm32isa.OpRsb, last.Op, "a negative divisor needs a final negation of the magic-multiply result")
	require.Equal(t, dest, last.Dest)
}

func TestDivisionOptimizationLeavesNonConstantDivisorAlone(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	d := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpSdiv, Dest: dest, HasDest: true, Uses: []mir.Operand{n, d}})

	DivisionOptimization{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, arm32isa.OpSdiv, fn.Instrs[0].Op)
}

func TestDivisionOptimizationLeavesDivisionByZeroAlone(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpUdiv, Dest: dest, HasDest: true,
		Uses: []mir.Operand{n, mir.NewImm(0)}})

	DivisionOptimization{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, arm32isa.OpUdiv, fn.Instrs[0].Op)
}
