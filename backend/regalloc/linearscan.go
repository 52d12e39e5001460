package regalloc

import (
	"sort"

	"github.com/ccforge/backend/mir"
)

// activeEntry is one interval currently holding a register or slot while
// LinearScan walks forward through start positions.
type activeEntry struct {
	interval *LiveInterval
	home     mir.Operand
	isTemp   bool
}

// linearScanState holds the three free pools original_source's
// LinearScanRegAllocPass keeps on the allocator object itself; here they
// are local to one call so the allocator has no mutable per-function
// state to Reset() between compilations.
type linearScanState struct {
	freeTemps []mir.RegID
	freeRegs  []mir.RegID
	freeSlots []mir.Operand

	active []activeEntry

	slotAlloc SlotAllocator
	result    *Result
}

// LinearScan assigns a physical register or frame slot to every interval,
// following original_source's LinearScanRegAllocPass::LinearScanAlloc
// exactly: expire-then-allocate-from-pools-else-spill, walking intervals
// in increasing start order.
func LinearScan(intervals []*LiveInterval, classes RegisterClass, slotAlloc SlotAllocator) *Result {
	sorted := make([]*LiveInterval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	st := &linearScanState{slotAlloc: slotAlloc, result: newResult()}
	// Reversed so pop-from-back yields the first-listed register first,
	// matching original_source's Reset() which pushes avaliable_* in
	// reverse onto a stack-like container.
	st.freeTemps = reverseRegs(classes.Temps)
	st.freeRegs = reverseRegs(classes.Regulars)

	for _, iv := range sorted {
		st.expireOldIntervals(iv.Start)
		st.allocOne(iv)
	}
	return st.result
}

func reverseRegs(in []mir.RegID) []mir.RegID {
	out := make([]mir.RegID, len(in))
	for i, r := range in {
		out[len(in)-1-i] = r
	}
	return out
}

// expireOldIntervals frees the register/slot of every active entry whose
// interval has ended strictly before newStart, returning it to the
// matching pool for reuse.
func (st *linearScanState) expireOldIntervals(newStart int) {
	kept := st.active[:0]
	for _, e := range st.active {
		if e.interval.End < newStart {
			switch {
			case e.isTemp:
				st.freeTemps = append(st.freeTemps, e.home.Reg())
			case e.home.IsReg():
				st.freeRegs = append(st.freeRegs, e.home.Reg())
			case e.home.IsSlot():
				st.freeSlots = append(st.freeSlots, e.home)
			}
			continue
		}
		kept = append(kept, e)
	}
	st.active = kept
}

func (st *linearScanState) allocOne(iv *LiveInterval) {
	if iv.CanAllocTemp && len(st.freeTemps) > 0 {
		r := st.popReg(&st.freeTemps)
		st.assign(iv, mir.NewReg(r), true)
		return
	}
	if len(st.freeRegs) > 0 {
		r := st.popReg(&st.freeRegs)
		st.assign(iv, mir.NewReg(r), false)
		return
	}
	if len(st.freeSlots) > 0 {
		s := st.freeSlots[len(st.freeSlots)-1]
		st.freeSlots = st.freeSlots[:len(st.freeSlots)-1]
		st.assign(iv, s, false)
		return
	}
	st.spillAtInterval(iv)
}

func (st *linearScanState) popReg(pool *[]mir.RegID) mir.RegID {
	p := *pool
	r := p[len(p)-1]
	*pool = p[:len(p)-1]
	return r
}

func (st *linearScanState) assign(iv *LiveInterval, home mir.Operand, isTemp bool) {
	st.result.set(iv.VReg, home)
	st.active = append(st.active, activeEntry{interval: iv, home: home, isTemp: isTemp})
}

// spillAtInterval implements original_source's SpillAtInterval: find the
// currently-active interval with the furthest end ("last" in the
// end-ordered multimap); if it outlives the incoming interval, the
// incoming interval steals its register and the spill victim is demoted
// to a fresh slot, otherwise the incoming interval itself gets a slot.
func (st *linearScanState) spillAtInterval(iv *LiveInterval) {
	if len(st.active) == 0 {
		st.assign(iv, st.freshSlot(iv.Size), false)
		return
	}
	victimIdx := 0
	for i, e := range st.active {
		if e.interval.End > st.active[victimIdx].interval.End {
			victimIdx = i
		}
	}
	victim := st.active[victimIdx]
	if victim.home.IsSlot() || victim.interval.End <= iv.End {
		st.assign(iv, st.freshSlot(iv.Size), false)
		return
	}
	// The victim's register is more valuable to the incoming, shorter
	// interval: steal it and demote the victim to a slot.
	stolen := victim.home
	st.result.set(iv.VReg, stolen)
	st.active[victimIdx] = activeEntry{interval: iv, home: stolen, isTemp: victim.isTemp}

	demoted := st.freshSlot(victim.interval.Size)
	st.result.set(victim.interval.VReg, demoted)
	st.active = append(st.active, activeEntry{interval: victim.interval, home: demoted})
}

func (st *linearScanState) freshSlot(size int8) mir.Operand {
	return st.slotAlloc(size)
}
