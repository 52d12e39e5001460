package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

func countOps(instrs []*mir.Instr, op mir.Opcode) int {
	n := 0
	for _, i := range instrs {
		if i.Op == op {
			n++
		}
	}
	return n
}

func TestInstructionSchedulingHoistsIndependentInstrAfterLoad(t *testing.T) {
	var vf mir.VRegFactory
	addr := vf.NewVReg(4)
	loaded := vf.NewVReg(4)
	a := vf.NewVReg(4)
	b := vf.NewVReg(4)
	sum := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: loaded, HasDest: true, Uses: []mir.Operand{addr}})
	// The add below does not consume loaded, so it is independent of the
	// load and may be hoisted ahead of it to hide load latency.
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: sum, HasDest: true, Uses: []mir.Operand{a, b}})
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: a, HasDest: true, Uses: []mir.Operand{loaded, a}})

	InstructionScheduling{}.Run(fn)

	require.Len(t, fn.Instrs, 3)
	require.Equal(t, arm32isa.OpAdd, fn.Instrs[0].Op, "the independent add should be hoisted ahead of the load")
	require.Equal(t, sum, fn.Instrs[0].Dest)
	require.Equal(t, arm32isa.OpLdr, fn.Instrs[1].Op)
}

func TestInstructionSchedulingIsIdempotent(t *testing.T) {
	var vf mir.VRegFactory
	addr := vf.NewVReg(4)
	loaded := vf.NewVReg(4)
	a := vf.NewVReg(4)
	b := vf.NewVReg(4)
	sum := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: loaded, HasDest: true, Uses: []mir.Operand{addr}})
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: sum, HasDest: true, Uses: []mir.Operand{a, b}})
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: a, HasDest: true, Uses: []mir.Operand{loaded, a}})

	InstructionScheduling{}.Run(fn)
	first := append([]*mir.Instr(nil), fn.Instrs...)

	InstructionScheduling{}.Run(fn)

	require.Equal(t, len(first), len(fn.Instrs))
	for i := range first {
		require.Equal(t, first[i].Op, fn.Instrs[i].Op, "a second scheduling pass must not keep reordering the same run")
	}
}

// TestInstructionSchedulingSkipsNoConsumerRun covers [LDR, X, Y] where both
// X and Y are independent of the load: there is no consumer anywhere in
// the run to separate the load from, so scheduleRun must leave the order
// alone rather than swapping LDR/X on one pass and LDR/Y on the next.
func TestInstructionSchedulingSkipsNoConsumerRun(t *testing.T) {
	var vf mir.VRegFactory
	addr := vf.NewVReg(4)
	loaded := vf.NewVReg(4)
	a := vf.NewVReg(4)
	b := vf.NewVReg(4)
	c := vf.NewVReg(4)
	d := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: loaded, HasDest: true, Uses: []mir.Operand{addr}})
	fn.Append(&mir.Instr{Op: arm32isa.OpAdd, Dest: c, HasDest: true, Uses: []mir.Operand{a, b}})
	fn.Append(&mir.Instr{Op: arm32isa.OpSub, Dest: d, HasDest: true, Uses: []mir.Operand{a, b}})

	InstructionScheduling{}.Run(fn)
	require.Equal(t, arm32isa.OpLdr, fn.Instrs[0].Op, "nothing in the run consumes loaded, so no swap should happen")
	require.Equal(t, arm32isa.OpAdd, fn.Instrs[1].Op)
	require.Equal(t, arm32isa.OpSub, fn.Instrs[2].Op)

	InstructionScheduling{}.Run(fn)
	require.Equal(t, arm32isa.OpLdr, fn.Instrs[0].Op, "a second pass must agree with the first")
	require.Equal(t, arm32isa.OpAdd, fn.Instrs[1].Op)
	require.Equal(t, arm32isa.OpSub, fn.Instrs[2].Op)
}

func TestInstructionSchedulingStopsAtBranchBarrier(t *testing.T) {
	var vf mir.VRegFactory
	addr := vf.NewVReg(4)
	loaded := vf.NewVReg(4)

	fn := &mir.Function{}
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: loaded, HasDest: true, Uses: []mir.Operand{addr}})
	fn.Append(&mir.Instr{Op: arm32isa.OpBCond, Label: "L1"})
	fn.Append(&mir.Instr{Op: arm32isa.OpLdr, Dest: loaded, HasDest: true, Uses: []mir.Operand{addr}})

	InstructionScheduling{}.Run(fn)

	require.Equal(t, 2, countOps(fn.Instrs, arm32isa.OpLdr))
	require.Equal(t, arm32isa.OpBCond, fn.Instrs[1].Op, "a branch must not be reordered across")
}
