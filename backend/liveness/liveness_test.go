package liveness

import (
	"testing"

	"github.com/ccforge/backend/mir"
	"github.com/stretchr/testify/require"
)

// fakeOpcode values used only by this test's Classifier implementation.
const (
	opDef mir.Opcode = iota + 1
	opUse
	opBranch
	opLabel
)

type testClassifier struct{}

func (testClassifier) IsTerminator(instr *mir.Instr) (bool, bool) {
	if instr.Op == opBranch {
		return true, false
	}
	return false, false
}

func (testClassifier) BranchTargets(instr *mir.Instr) []string {
	if instr.Op == opBranch {
		return []string{instr.Label}
	}
	return nil
}

func (testClassifier) Defs(instr *mir.Instr) []mir.VRegID {
	if instr.HasDest && instr.Dest.IsVReg() {
		return []mir.VRegID{instr.Dest.VReg()}
	}
	return nil
}

func (testClassifier) Uses(instr *mir.Instr) []mir.VRegID {
	var out []mir.VRegID
	for _, u := range instr.Uses {
		if u.IsVReg() {
			out = append(out, u.VReg())
		}
	}
	return out
}

func TestLivenessUseAfterDefInSameBlock(t *testing.T) {
	fn := &mir.Function{}
	var vf mir.VRegFactory
	v1 := vf.NewVReg(4)

	// define v1
	def := &mir.Instr{Op: opDef, Dest: v1, HasDest: true}
	fn.Append(def)
	// then use v1 in the same block
	use := &mir.Instr{Op: opUse, Uses: []mir.Operand{v1}}
	fn.Append(use)

	blocks := BuildCFG(fn, testClassifier{})
	require.Len(t, blocks, 1)

	InitDefUseInfo(fn, blocks, testClassifier{})
	require.Contains(t, blocks[0].VarKill, v1.VReg())
	require.NotContains(t, blocks[0].UEVar, v1.VReg(), "v1 is defined before its use in the same block, so it is not upward-exposed")

	RunLivenessAnalysis(blocks)
	require.Empty(t, blocks[0].LiveOut, "single block with no successors has empty live-out")
}

func TestGenerateLiveIntervalsCoversDefToLastUse(t *testing.T) {
	fn := &mir.Function{}
	var vf mir.VRegFactory
	v1 := vf.NewVReg(4)

	fn.Append(&mir.Instr{Op: opDef, Dest: v1, HasDest: true})
	fn.Append(&mir.Instr{Op: opUse})
	fn.Append(&mir.Instr{Op: opUse, Uses: []mir.Operand{v1}})

	blocks := BuildCFG(fn, testClassifier{})
	InitDefUseInfo(fn, blocks, testClassifier{})
	RunLivenessAnalysis(blocks)

	sizes := map[mir.VRegID]int8{v1.VReg(): 4}
	ivs := GenerateLiveIntervals(fn, blocks, testClassifier{}, sizes, func(*mir.Instr) bool { return false })
	require.Len(t, ivs, 1)
	require.Equal(t, 0, ivs[0].Start)
	require.Equal(t, 2, ivs[0].End)
}
