// Package liveness builds a basic-block control-flow graph over a
// mir.Function's flat instruction list and runs a backward dataflow
// fixpoint, producing either per-vreg live intervals (for the
// linear-scan allocator) or a full interference graph (for the
// graph-coloring allocator). Grounded on
// original_source/src/back/asm/arch/aarch32/passes/liveness.h.
package liveness

import "github.com/ccforge/backend/mir"

// BasicBlock is one maximal straight-line run of instructions between
// labels/branches, along with the dataflow sets the fixpoint loop fills
// in. Mirrors original_source's BasicBlock struct.
type BasicBlock struct {
	Start, End int // [Start, End) indices into the function's Instrs

	Preds, Succs []int

	VarKill map[mir.VRegID]struct{} // defined somewhere in this block
	UEVar   map[mir.VRegID]struct{} // used before any def in this block
	LiveOut map[mir.VRegID]struct{}
}

// Classifier is the ISA hook BuildCFG needs: given an instruction,
// report whether it is an unconditional jump (no fallthrough) and/or a
// conditional branch, and the labels they refer to so predecessor edges
// can be wired once every label's position is known. A plain label
// instruction (mir.Instr.IsLabel) always starts a new block.
type Classifier interface {
	// IsTerminator reports whether instr ends a block: either kind of
	// branch, or a return. fallsThrough reports whether control can also
	// reach the next instruction in program order.
	IsTerminator(instr *mir.Instr) (isTerminator, fallsThrough bool)

	// BranchTargets returns the label operands instr jumps to (one for
	// an unconditional branch, up to two for a conditional one).
	BranchTargets(instr *mir.Instr) []string

	// Defs and Uses return the virtual registers instr writes and reads,
	// in the order original_source's var_kill/ue_var computation needs
	// (uses checked before the instruction's own def is recorded).
	Defs(instr *mir.Instr) []mir.VRegID
	Uses(instr *mir.Instr) []mir.VRegID
}

// BuildCFG splits fn's instruction list into basic blocks at labels and
// after terminators, then wires predecessor/successor edges from label
// targets and fallthrough, following original_source's BuildCFG.
func BuildCFG(fn *mir.Function, cls Classifier) []*BasicBlock {
	var blocks []*BasicBlock
	labelPos := make(map[string]int) // label name -> block index

	start := 0
	for i, instr := range fn.Instrs {
		if instr.IsLabel() && i != start {
			blocks = append(blocks, &BasicBlock{Start: start, End: i})
			start = i
		}
		if isTerm, fallsThrough := cls.IsTerminator(instr); isTerm {
			end := i + 1
			blocks = append(blocks, &BasicBlock{Start: start, End: end})
			start = end
			_ = fallsThrough
		}
	}
	if start < len(fn.Instrs) {
		blocks = append(blocks, &BasicBlock{Start: start, End: len(fn.Instrs)})
	}

	for idx, b := range blocks {
		if b.Start < len(fn.Instrs) && fn.Instrs[b.Start].IsLabel() {
			labelPos[fn.Instrs[b.Start].Label] = idx
		}
	}

	for idx, b := range blocks {
		if b.End == 0 || b.Start >= b.End {
			continue
		}
		last := fn.Instrs[b.End-1]
		isTerm, fallsThrough := cls.IsTerminator(last)
		if isTerm {
			for _, target := range cls.BranchTargets(last) {
				if ti, ok := labelPos[target]; ok {
					addEdge(blocks, idx, ti)
				}
			}
			if fallsThrough && idx+1 < len(blocks) {
				addEdge(blocks, idx, idx+1)
			}
		} else if idx+1 < len(blocks) {
			addEdge(blocks, idx, idx+1)
		}
	}
	return blocks
}

func addEdge(blocks []*BasicBlock, from, to int) {
	blocks[from].Succs = append(blocks[from].Succs, to)
	blocks[to].Preds = append(blocks[to].Preds, from)
}
