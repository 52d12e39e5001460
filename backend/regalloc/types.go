// Package regalloc implements two register allocators: a linear-scan
// interval allocator and a Chaitin/Briggs-style graph-coloring
// allocator. Both are ported directly from
// original_source/src/back/asm/mir/passes/{linearscan.h,coloring.h}; see
// DESIGN.md for the line-by-line grounding.
package regalloc

import "github.com/ccforge/backend/mir"

// LiveInterval is one virtual register's [Start, End] liveness span in
// instruction-position units, as original_source's LiveInterval: Start is
// the defining position and End the position of the last use, inclusive.
type LiveInterval struct {
	VReg mir.VRegID
	Size int8

	Start, End int

	// CanAllocTemp reports whether this interval may be homed in a
	// caller-saved "temp" register, i.e. no temp-clobbering instruction
	// (in both ISAs, a call) follows its definition, mirroring original_source's
	// can_alloc_temp bookkeeping in LivenessAnalysisPass::GenerateLiveIntervals.
	CanAllocTemp bool
}

// IFNode is one virtual register's entry in an interference graph: the
// set of other virtual registers simultaneously live, a coalescing hint,
// and the same temp-eligibility flag LiveInterval carries. Grounded on
// original_source's IfGraphNodeInfo.
type IFNode struct {
	VReg mir.VRegID
	Size int8

	Neighbours map[mir.VRegID]struct{}

	// SuggestSame names a neighbour this node was copied to/from via a
	// move instruction; the coloring allocator tries to reuse that
	// neighbour's color first, eliminating the move.
	SuggestSame mir.VRegID
	HasSuggest  bool

	CanAllocTemp bool

	// UseCount is how many times this vreg is defined or read; ChooseAndSpill
	// uses it (divided by degree) to pick the cheapest node to spill.
	UseCount int
}

func (n *IFNode) degree() int { return len(n.Neighbours) }

// InterferenceGraph maps every virtual register live at any point in the
// function to its IFNode.
type InterferenceGraph map[mir.VRegID]*IFNode

// RegisterClass lists the physical registers an allocator may assign,
// split the way original_source's RegAllocatorBase is configured per
// function: a "temp" pool tried first (caller-saved scratch registers)
// and a "regular" pool tried second (the remaining allocatable set).
// Keeping them as parallel slices instead of a single ranked list matches
// the per-architecture register list idiom each ISA package's registers
// are enumerated with.
type RegisterClass struct {
	Temps    []mir.RegID
	Regulars []mir.RegID
}

// SlotAllocator mints a fresh frame slot of the given size, returning an
// operand addressed relative to the function's frame pointer. It is a
// function value rather than an interface, mirroring original_source's
// SlotAllocator (a std::function wrapper).
type SlotAllocator func(size int8) mir.Operand

// Result is what either allocator produces: for every virtual register
// that appeared in the input, a home (register or slot). The allocators
// do not touch the function's operands; each ISA's allocatorPass attaches
// these homes with mir.Operand.Allocate.
type Result struct {
	Homes map[mir.VRegID]mir.Operand
}

func newResult() *Result { return &Result{Homes: make(map[mir.VRegID]mir.Operand)} }

func (r *Result) set(id mir.VRegID, home mir.Operand) { r.Homes[id] = home }
