package mir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVRegFactoryFreshIDs(t *testing.T) {
	var f VRegFactory
	a := f.NewVReg(4)
	b := f.NewVReg(4)
	require.NotEqual(t, a.VReg(), b.VReg(), "successive virtual registers must be distinct")
	require.True(t, a.IsVReg())
	require.True(t, b.IsVReg())
}

func TestOperandEqualityByValue(t *testing.T) {
	r1 := NewReg(3)
	r2 := NewReg(3)
	require.Equal(t, r1, r2, "two physical-register operands naming the same register must compare equal")

	s1 := NewSlot(RegID(11), -8)
	s2 := NewSlot(RegID(11), -8)
	require.Equal(t, s1, s2)
}

func TestLabelFactoryInterning(t *testing.T) {
	var f LabelFactory
	a := f.Named("main")
	b := f.Named("main")
	require.Equal(t, a, b, "interning the same name twice must yield equal operands")

	l1 := f.Anonymous()
	l2 := f.Anonymous()
	require.NotEqual(t, l1.Label(), l2.Label())
}

func TestOperandAllocationStartsUnset(t *testing.T) {
	var f VRegFactory
	v := f.NewVReg(4)
	_, ok := v.Allocated()
	require.False(t, ok, "a freshly-minted vreg must not report an allocation")

	v.Allocate(NewReg(0))
	got, ok := v.Allocated()
	require.True(t, ok)
	require.True(t, got.IsReg())
}

func TestAllocateRejectsNonHomeKinds(t *testing.T) {
	var f VRegFactory
	v := f.NewVReg(4)
	require.Panics(t, func() { v.Allocate(NewImm(1)) })
}
