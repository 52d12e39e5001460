package riscv32

import (
	"github.com/ccforge/backend/backend/isa/riscv32/riscv32isa"
	"github.com/ccforge/backend/backend/liveness"
	"github.com/ccforge/backend/backend/regalloc"
	"github.com/ccforge/backend/mir"
)

// allocatorPass runs liveness analysis and linear-scan register
// allocation over the legalized function, following this target's
// cheaper interval-based allocator choice (see the backend/regalloc entry
// in DESIGN.md -- AArch32 gets the interference-graph
// allocator, RV32 the lighter-weight linear scan). It attaches each
// vreg's home directly to every occurrence of that vreg via
// mir.Operand.Allocate, so later passes (MoveOverriding, spillPass) see
// the assignment without a side-channel Result threaded through the
// pipeline.
type allocatorPass struct{}

func (allocatorPass) Name() string { return "regalloc" }

func (allocatorPass) Run(fn *mir.Function) {
	cls := classifier()
	blocks := liveness.BuildCFG(fn, cls)
	liveness.InitDefUseInfo(fn, blocks, cls)
	liveness.RunLivenessAnalysis(blocks)

	sizes := vregSizes(fn)
	intervals := liveness.GenerateLiveIntervals(fn, blocks, cls, sizes, isTempClobber)

	classes := regalloc.RegisterClass{Temps: riscv32isa.TempRegs, Regulars: riscv32isa.RegularRegs}
	result := regalloc.LinearScan(intervals, classes, slotAllocatorFor(fn))

	applyHomes(fn, result)
}

// classifier builds the liveness.Classifier for RV32: by the time this
// pass runs, BranchCombining/BranchElimination have already replaced
// every pseudo branch with a real direct compare-and-branch or OpJ, so
// only those opcodes need recognizing.
func classifier() liveness.GenericClassifier {
	return liveness.GenericClassifier{
		IsTerm: func(instr *mir.Instr) (bool, bool) {
			switch instr.Op {
			case riscv32isa.OpJ, riscv32isa.OpRet:
				return true, false
			case riscv32isa.OpBeq, riscv32isa.OpBne, riscv32isa.OpBlt, riscv32isa.OpBle,
				riscv32isa.OpBgt, riscv32isa.OpBge, riscv32isa.OpBltu, riscv32isa.OpBleu,
				riscv32isa.OpBgtu, riscv32isa.OpBgeu:
				return true, true
			default:
				return false, true
			}
		},
		Targets: func(instr *mir.Instr) []string {
			switch instr.Op {
			case riscv32isa.OpJ:
				return []string{instr.Label}
			case riscv32isa.OpBeq, riscv32isa.OpBne, riscv32isa.OpBlt, riscv32isa.OpBle,
				riscv32isa.OpBgt, riscv32isa.OpBge, riscv32isa.OpBltu, riscv32isa.OpBleu,
				riscv32isa.OpBgtu, riscv32isa.OpBgeu:
				return []string{instr.Label}
			default:
				return nil
			}
		},
	}
}

func isTempClobber(instr *mir.Instr) bool { return instr.Op == riscv32isa.OpCall }

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
		return mir.NewSlot(riscv32isa.FP, -fn.Frame.LocalSize)
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
