package passes

import (
	"github.com/ccforge/backend/backend/isa/arm32/arm32isa"
	"github.com/ccforge/backend/mir"
)

// InstructionScheduling reorders a straight-line run of instructions (no
// labels, branches, or calls) to hide load latency: it walks the run and,
// whenever an instruction immediately follows the LDR/LDRB that feeds one
// of its operands, hoists the next independent instruction between them.
// This is a single-pass approximation of original_source's list scheduler
// over a latency table (aarch32/passes/instsched.h); it trades optimality
// for a pass that needs no separate dependency DAG construction.
type InstructionScheduling struct{}

func (InstructionScheduling) Name() string { return "instsched" }

func (InstructionScheduling) Run(fn *mir.Function) {
	instrs := append([]*mir.Instr(nil), fn.Instrs...)

	start := 0
	flush := func(end int) {
		scheduleRun(instrs[start:end])
	}
	for i, instr := range instrs {
		if instr.IsLabel() || isScheduleBarrier(instr.Op) {
			flush(i)
			start = i + 1
		}
	}
	flush(len(instrs))

	replaceAll(fn, instrs)
}

func isScheduleBarrier(op mir.Opcode) bool {
	switch op {
	case arm32isa.OpB, arm32isa.OpBCond, arm32isa.OpBL, arm32isa.OpBX:
		return true
	default:
		return false
	}
}

// scheduleRun mutates run in place, swapping a load-latency stall
// instruction with the next one that does not immediately consume the
// load's result, when such a swap is safe (the candidate neither defines
// nor uses anything the load instruction touches) and actually buys
// something: the instruction right after next must be the one stalling on
// cur's result, otherwise there is no consumer to separate the load from
// and the swap would just relocate the same no-op reorder on every further
// pass (breaking idempotence for a run like [LDR, X, Y] where both X and Y
// are independent of the load).
func scheduleRun(run []*mir.Instr) {
	for i := 0; i+1 < len(run); i++ {
		cur := run[i]
		if cur.Op != arm32isa.OpLdr && cur.Op != arm32isa.OpLdrb {
			continue
		}
		if !cur.HasDest {
			continue
		}
		next := run[i+1]
		if usesOperand(next, cur.Dest) {
			continue
		}
		if i+2 >= len(run) || !usesOperand(run[i+2], cur.Dest) {
			continue
		}
		if independentOf(next, cur) {
			run[i], run[i+1] = run[i+1], run[i]
			i++ // don't re-examine the instruction we just moved back
		}
	}
}

func usesOperand(instr *mir.Instr, o mir.Operand) bool {
	for _, u := range instr.Uses {
		if u == o {
			return true
		}
	}
	return instr.HasDest && instr.Dest == o
}

// independentOf reports whether cand can be safely hoisted ahead of load,
// i.e. it doesn't write anything load reads and doesn't read/write
// load's destination.
func independentOf(cand, load *mir.Instr) bool {
	if cand.HasDest {
		for _, u := range load.Uses {
			if u == cand.Dest {
				return false
			}
		}
		if load.HasDest && cand.Dest == load.Dest {
			return false
		}
	}
	return true
}
