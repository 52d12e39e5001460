package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/mir"
)

func TestBranchEliminationDropsJumpToImmediatelyFollowingLabel(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpJ, Label: "done"})
	fn.Append(&mir.Instr{Op: riscv32isa.OpLabel, Label: "done"})

	BranchElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.True(t, fn.Instrs[0].IsLabel())
	require.Equal(t, "done", fn.Instrs[0].Label)
}

func TestBranchEliminationKeepsJumpToDistantLabel(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpJ, Label: "loop"})
	fn.Append(&mir.Instr{Op: riscv32isa.OpLabel, Label: "other"})

	BranchElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 2)
	require.Equal(t, riscv32isa.OpJ, fn.Instrs[0].Op)
	require.Equal(t, "loop", fn.Instrs[0].Label)
}

func TestBranchEliminationLowersBrPseudoToJ(t *testing.T) {
	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: riscv32isa.OpBrPseudo, Label: "exit"})

	BranchElimination{}.Run(fn)

	require.Len(t, fn.Instrs, 1)
	require.Equal(t, riscv32isa.OpJ, fn.Instrs[0].Op)
	require.Equal(t, "exit", fn.Instrs[0].Label)
}
