package regalloc

import (
	"testing"

	"github.com/ccforge/backend/mir"
	"github.com/stretchr/testify/require"
)

func TestLinearScanAssignsDisjointIntervalsSameRegister(t *testing.T) {
	// Two intervals that never overlap should be able to share a register.
	ivs := []*LiveInterval{
		{VReg: 1, Start: 0, End: 2, CanAllocTemp: true},
		{VReg: 2, Start: 3, End: 5, CanAllocTemp: true},
	}
	classes := RegisterClass{Regulars: []mir.RegID{0, 1}}
	res := LinearScan(ivs, classes, dummySlotAlloc())

	require.Equal(t, res.Homes[1], res.Homes[2], "disjoint intervals should be assigned the same register by linear scan")
}

func TestLinearScanSpillsWhenPoolExhausted(t *testing.T) {
	ivs := []*LiveInterval{
		{VReg: 1, Start: 0, End: 10},
		{VReg: 2, Start: 1, End: 9},
		{VReg: 3, Start: 2, End: 8},
	}
	classes := RegisterClass{Regulars: []mir.RegID{0, 1}}
	res := LinearScan(ivs, classes, dummySlotAlloc())

	slotCount := 0
	for _, h := range res.Homes {
		if h.IsSlot() {
			slotCount++
		}
	}
	require.Equal(t, 1, slotCount, "with only two registers and three overlapping intervals, exactly one must spill")
}

func TestGraphColorAssignsDistinctColorsToInterferingNodes(t *testing.T) {
	g := InterferenceGraph{
		1: {VReg: 1, Neighbours: map[mir.VRegID]struct{}{2: {}}},
		2: {VReg: 2, Neighbours: map[mir.VRegID]struct{}{1: {}}},
	}
	classes := RegisterClass{Regulars: []mir.RegID{0, 1}}
	res := GraphColor(g, classes, dummySlotAlloc())

	require.NotEqual(t, res.Homes[1], res.Homes[2])
}

func TestGraphColorHonorsSuggestSame(t *testing.T) {
	g := InterferenceGraph{
		1: {VReg: 1, Neighbours: map[mir.VRegID]struct{}{}},
		2: {VReg: 2, Neighbours: map[mir.VRegID]struct{}{}, SuggestSame: 1, HasSuggest: true},
	}
	classes := RegisterClass{Regulars: []mir.RegID{0, 1}}
	res := GraphColor(g, classes, dummySlotAlloc())

	require.Equal(t, res.Homes[1], res.Homes[2], "non-interfering nodes with a coalescing hint should share a color")
}

func TestGraphColorSpillsWhenOverConstrained(t *testing.T) {
	// A 3-clique with only 2 colors forces exactly one spill.
	g := InterferenceGraph{
		1: {VReg: 1, UseCount: 1, Neighbours: map[mir.VRegID]struct{}{2: {}, 3: {}}},
		2: {VReg: 2, UseCount: 1, Neighbours: map[mir.VRegID]struct{}{1: {}, 3: {}}},
		3: {VReg: 3, UseCount: 1, Neighbours: map[mir.VRegID]struct{}{1: {}, 2: {}}},
	}
	classes := RegisterClass{Regulars: []mir.RegID{0, 1}}
	res := GraphColor(g, classes, dummySlotAlloc())

	slotCount := 0
	for _, h := range res.Homes {
		if h.IsSlot() {
			slotCount++
		}
	}
	require.Equal(t, 1, slotCount)
}

func dummySlotAlloc() SlotAllocator {
	n := int32(0)
	return func(size int8) mir.Operand {
		n += int32(size)
		return mir.NewSlot(mir.RegID(11), -n)
	}
}
