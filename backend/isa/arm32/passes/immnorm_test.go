package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

func TestImmediateNormalizationLeavesLegalImmAlone(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: mir.NewReg(arm32isa.R0), HasDest: true,
		Uses: []mir.Operand{mir.NewReg(arm32isa.R0), mir.NewImm(100)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, arm32isa.OpAdd, fn.Instrs[0].Op)
	require.Equal(t, int32(100), fn.Instrs[0].Uses[1].Imm())
}

func TestImmediateNormalizationMaterializesOutOfRangeImm(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: mir.NewReg(arm32isa.R0), HasDest: true,
		Uses: []mir.Operand{mir.NewReg(arm32isa.R0), mir.NewImm(1001)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 3)
	require.Equal(t, arm32isa.OpMovW, fn.Instrs[0].Op)
	require.Equal(t, arm32isa.OpMovT, fn.Instrs[1].Op)
	require.Equal(t, arm32isa.OpAdd, fn.Instrs[2].Op)
	require.True(t, fn.Instrs[2].Uses[1].IsReg())
}

// TestImmediateNormalizationMaterializesMovImm covers the case the original
// review caught: a selector-emitted "mov rX, #N" for an N too wide for the
// imm8m rotated encoding (e.g. const.i32 1001, whose set bits span ten
// bits) must also be legalized, or the emitted mnemonic is not assemblable.
func TestImmediateNormalizationMaterializesMovImm(t *testing.T) {
	fn := &mir.Function{}
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true,
		Uses: []mir.Operand{mir.NewImm(1001)}})

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 2, "mov materializes straight into its own dest, no trailing copy")
	require.Equal(t, arm32isa.OpMovW, fn.Instrs[0].Op)
	require.Equal(t, dest, fn.Instrs[0].Dest)
	require.Equal(t, int32(1001&0xFFFF), fn.Instrs[0].Uses[0].Imm())
	require.Equal(t, arm32isa.OpMovT, fn.Instrs[1].Op)
	require.Equal(t, dest, fn.Instrs[1].Dest)
	require.Equal(t, int32(0), fn.Instrs[1].Uses[0].Imm())
}

// TestImmediateNormalizationMaterializesGranlundMagicMov covers the
// divisor-3 Granlund-Montgomery magic constant 0xAAAAAAAB, which needs
// both MOVW and MOVT halves non-zero.
func TestImmediateNormalizationMaterializesGranlundMagicMov(t *testing.T) {
	fn := &mir.Function{}
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpMov, Dest: dest, HasDest: true,
		Uses: []mir.Operand{mir.NewImm(-0x55555555)}}) // bit pattern 0xAAAAAAAB

	ImmediateNormalization{}.Run(fn)

	require.Len(t, fn.Instrs, 2)
	require.Equal(t, arm32isa.OpMovW, fn.Instrs[0].Op)
	require.Equal(t, int32(0xAAAB), fn.Instrs[0].Uses[0].Imm())
	require.Equal(t, arm32isa.OpMovT, fn.Instrs[1].Op)
	require.Equal(t, int32(0xAAAA), fn.Instrs[1].Uses[0].Imm())
}

func TestImmediateNormalizationCoversPipelineOrderWithDivOpt(t *testing.T) {
	fn := &mir.Function{}
	n := fn.VRegs.NewVReg(4)
	dest := fn.VRegs.NewVReg(4)
	fn.Append(&mir.Instr{Op: arm32isa.OpSdiv, Dest: dest, HasDest: true,
		Uses: []mir.Operand{n, mir.NewImm(3)}})

	DivisionOptimization{}.Run(fn)
	ImmediateNormalization{}.Run(fn)

	for _, instr := range fn.Instrs {
		if instr.Op != arm32isa.OpMov {
			continue
		}
		for _, u := range instr.Uses {
			if u.IsImm() {
				require.True(t, isLegalDPImm(u.Imm()),
					"every surviving mov immediate must be imm8m-legal once immnorm has run after divopt")
			}
		}
	}
}
