package liveness

import (
	"github.com/ccforge/backend/mir"
	"github.com/ccforge/backend/backend/regalloc"
)

// InitDefUseInfo fills in VarKill and UEVar for every block: a vreg is in
// UEVar if some use in the block is not preceded by a def of the same
// vreg earlier in the block; VarKill is every vreg the block defines at
// all. Mirrors original_source's InitDefUseInfo.
func InitDefUseInfo(fn *mir.Function, blocks []*BasicBlock, cls Classifier) {
	for _, b := range blocks {
		b.VarKill = map[mir.VRegID]struct{}{}
		b.UEVar = map[mir.VRegID]struct{}{}
		for i := b.Start; i < b.End; i++ {
			instr := fn.Instrs[i]
			for _, u := range cls.Uses(instr) {
				if _, killed := b.VarKill[u]; !killed {
					b.UEVar[u] = struct{}{}
				}
			}
			for _, d := range cls.Defs(instr) {
				b.VarKill[d] = struct{}{}
			}
		}
	}
}

// reversePostOrderFromExit finds the block with no successors (the
// function's exit) and returns the reverse postorder of a DFS over
// predecessor edges, i.e. the RPO of the *reverse* CFG, which
// original_source's GetReversePostOrder uses so the dataflow fixpoint
// below converges in as few iterations as possible for backward
// (liveness) equations.
func reversePostOrderFromExit(blocks []*BasicBlock) []int {
	exit := -1
	for i, b := range blocks {
		if len(b.Succs) == 0 {
			exit = i
			break
		}
	}
	if exit == -1 && len(blocks) > 0 {
		exit = len(blocks) - 1
	}

	visited := make([]bool, len(blocks))
	var post []int
	var dfs func(int)
	dfs = func(i int) {
		if i < 0 || visited[i] {
			return
		}
		visited[i] = true
		for _, p := range blocks[i].Preds {
			dfs(p)
		}
		post = append(post, i)
	}
	if exit >= 0 {
		dfs(exit)
	}
	for i := range blocks {
		dfs(i)
	}
	rpo := make([]int, len(post))
	for i, v := range post {
		rpo[len(post)-1-i] = v
	}
	return rpo
}

// RunLivenessAnalysis iterates the standard backward dataflow equation
// LiveOut(b) = union over succs s of (UEVar(s) | (LiveOut(s) - VarKill(s)))
// to a fixpoint, visiting blocks in reverse-CFG RPO each round.
func RunLivenessAnalysis(blocks []*BasicBlock) {
	for _, b := range blocks {
		b.LiveOut = map[mir.VRegID]struct{}{}
	}
	order := reversePostOrderFromExit(blocks)

	changed := true
	for changed {
		changed = false
		for _, idx := range order {
			b := blocks[idx]
			next := map[mir.VRegID]struct{}{}
			for _, s := range b.Succs {
				succ := blocks[s]
				for v := range succ.UEVar {
					next[v] = struct{}{}
				}
				for v := range succ.LiveOut {
					if _, killed := succ.VarKill[v]; !killed {
						next[v] = struct{}{}
					}
				}
			}
			if !sameSet(next, b.LiveOut) {
				b.LiveOut = next
				changed = true
			}
		}
	}
}

func sameSet(a, b map[mir.VRegID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}

// GenerateLiveIntervals does the single forward sweep original_source's
// GenerateLiveIntervals performs, producing one LiveInterval per
// definition: a vreg defined at several places (a block parameter copied
// into on more than one edge) gets one interval per definition. When a
// temp-clobbering instruction (isTempClobber) is reached, CanAllocTemp is
// cleared on every interval started before it, whether or not that
// interval's vreg is used again afterwards.
func GenerateLiveIntervals(fn *mir.Function, blocks []*BasicBlock, cls Classifier, sizes map[mir.VRegID]int8, isTempClobber func(*mir.Instr) bool) []*regalloc.LiveInterval {
	open := map[mir.VRegID]*regalloc.LiveInterval{}
	var result []*regalloc.LiveInterval

	pos := 0
	for _, b := range blocks {
		for i := b.Start; i < b.End; i++ {
			instr := fn.Instrs[i]
			clobber := isTempClobber(instr)

			for _, u := range cls.Uses(instr) {
				if iv, ok := open[u]; ok {
					iv.End = pos
				}
			}
			for v, iv := range open {
				if clobber {
					iv.CanAllocTemp = false
				}
				_ = v
			}
			for _, d := range cls.Defs(instr) {
				iv := &regalloc.LiveInterval{VReg: d, Size: sizes[d], Start: pos, End: pos, CanAllocTemp: true}
				open[d] = iv
				result = append(result, iv)
			}
			pos++
		}
	}
	return result
}

// GenerateInterferenceGraph walks each block's instructions in reverse
// with a working "live now" set, adding an interference edge between
// every instruction's definition and everything currently live, and a
// suggest-same coalescing hint when the instruction is a move. Mirrors
// original_source's GenerateInterferenceGraph.
func GenerateInterferenceGraph(fn *mir.Function, blocks []*BasicBlock, cls Classifier, sizes map[mir.VRegID]int8, isMove func(*mir.Instr) (dst, src mir.VRegID, ok bool), isTempClobber func(*mir.Instr) bool) regalloc.InterferenceGraph {
	graph := regalloc.InterferenceGraph{}
	node := func(v mir.VRegID) *regalloc.IFNode {
		n, ok := graph[v]
		if !ok {
			n = &regalloc.IFNode{VReg: v, Size: sizes[v], Neighbours: map[mir.VRegID]struct{}{}, CanAllocTemp: true}
			graph[v] = n
		}
		return n
	}

	for _, b := range blocks {
		live := map[mir.VRegID]struct{}{}
		for v := range b.LiveOut {
			live[v] = struct{}{}
		}
		for i := b.End - 1; i >= b.Start; i-- {
			instr := fn.Instrs[i]

			if isTempClobber(instr) {
				for v := range live {
					node(v).CanAllocTemp = false
				}
			}

			defs := cls.Defs(instr)
			dstV, srcV, moveOK := isMove(instr)
			for _, d := range defs {
				node(d).UseCount++
				for v := range live {
					if v == d {
						continue
					}
					node(d).Neighbours[v] = struct{}{}
					node(v).Neighbours[d] = struct{}{}
				}
				if moveOK && d == dstV {
					node(d).SuggestSame = srcV
					node(d).HasSuggest = true
				}
				delete(live, d)
			}
			for _, u := range cls.Uses(instr) {
				node(u).UseCount++
				live[u] = struct{}{}
			}
		}
	}
	return graph
}
