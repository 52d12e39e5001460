package arm32

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/backend/liveness"
	"github.com/ccforge/backend/backend/regalloc"
	"github.com/ccforge/backend/mir"
)

// allocatorPass runs liveness analysis and graph-coloring register
// allocation over the legalized function, following this target's
// interference-graph allocator choice (see the backend/regalloc entry in
// DESIGN.md). It attaches each vreg's home directly to
// every occurrence of that vreg via mir.Operand.Allocate, so later passes
// (MoveOverriding, spillPass) see the assignment without a side-channel
// Result needing to be threaded through the pipeline.
type allocatorPass struct{}

func (allocatorPass) Name() string { return "regalloc" }

func (allocatorPass) Run(fn *mir.Function) {
	cls := classifier()
	blocks := liveness.BuildCFG(fn, cls)
	liveness.InitDefUseInfo(fn, blocks, cls)
	liveness.RunLivenessAnalysis(blocks)

	sizes := vregSizes(fn)
	graph := liveness.GenerateInterferenceGraph(fn, blocks, cls, sizes, isMoveVV, isTempClobber)

	classes := regalloc.RegisterClass{Temps: arm32isa.TempRegs, Regulars: arm32isa.RegularRegs}
	result := regalloc.GraphColor(graph, classes, slotAllocatorFor(fn))

	applyHomes(fn, result)
}

// classifier builds the liveness.Classifier for AArch32: by the time this
// pass runs, BranchCombining/BranchElimination have already replaced every
// pseudo branch with a real OpB/OpBCond/OpBX, so only those need
// recognizing.
func classifier() liveness.GenericClassifier {
	return liveness.GenericClassifier{
		IsTerm: func(instr *mir.Instr) (bool, bool) {
			switch instr.Op {
			case arm32isa.OpB, arm32isa.OpBX:
				return true, false
			case arm32isa.OpBCond:
				return true, true
			default:
				return false, true
			}
		},
		Targets: func(instr *mir.Instr) []string {
			switch instr.Op {
			case arm32isa.OpB, arm32isa.OpBCond:
				return []string{instr.Label}
			default:
				return nil
			}
		},
	}
}

func isTempClobber(instr *mir.Instr) bool { return instr.Op == arm32isa.OpBL }

func isMoveVV(instr *mir.Instr) (dst, src mir.VRegID, ok bool) {
	if instr.Op != arm32isa.OpMov || !instr.HasDest || instr.Aux != nil || len(instr.Uses) != 1 {
		return 0, 0, false
	}
	if !instr.Dest.IsVReg() || !instr.Uses[0].IsVReg() {
		return 0, 0, false
	}
	return instr.Dest.VReg(), instr.Uses[0].VReg(), true
}

func vregSizes(fn *mir.Function) map[mir.VRegID]int8 {
	sizes := map[mir.VRegID]int8{}
	record := func(o mir.Operand) {
		if o.IsVReg() {
			sizes[o.VReg()] = o.Size()
		}
	}
	for _, instr := range fn.Instrs {
		if instr.HasDest {
			record(instr.Dest)
		}
		for _, u := range instr.Uses {
			record(u)
		}
	}
	return sizes
}

// slotAllocatorFor mints fresh frame-pointer-relative local slots, one
// per spill, in the function's negative-offset local area.
func slotAllocatorFor(fn *mir.Function) regalloc.SlotAllocator {
	return func(size int8) mir.Operand {
		if fn.Frame == nil {
			fn.Frame = &mir.FrameSlots{}
		}
		fn.Frame.LocalSize += int32(size)
		return mir.NewSlot(arm32isa.FP, -fn.Frame.LocalSize)
	}
}

func applyHomes(fn *mir.Function, result *regalloc.Result) {
	apply := func(o *mir.Operand) {
		if !o.IsVReg() {
			return
		}
		if home, ok := result.Homes[o.VReg()]; ok {
			o.Allocate(home)
		}
	}
	for _, instr := range fn.Instrs {
		if instr.HasDest {
			apply(&instr.Dest)
		}
		for i := range instr.Uses {
			apply(&instr.Uses[i])
		}
	}
}
