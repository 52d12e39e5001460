package regalloc

import (
	"sort"

	"github.com/ccforge/backend/mir"
)

// GraphColor assigns a physical register or frame slot to every node of
// graph, following original_source's GraphColoringRegAllocPass: repeated
// rounds of Chaitin/Briggs min-degree simplification producing a color
// order, then greedy coloring (suggest_same first, then temp registers,
// then regular registers), spilling the least-used-relative-to-degree
// node and restarting whenever a round fails to color everything.
func GraphColor(graph InterferenceGraph, classes RegisterClass, slotAlloc SlotAllocator) *Result {
	work := cloneGraph(graph)
	result := newResult()
	spilled := make(map[mir.VRegID]mir.Operand)

	for {
		order := buildNodeStack(work)
		colors := make(map[mir.VRegID]mir.Operand, len(order))
		failed := false

		for i := len(order) - 1; i >= 0; i-- {
			id := order[i]
			node := graph[id]
			used := make(map[mir.Operand]bool)
			for nb := range node.Neighbours {
				if _, isSpilled := spilled[nb]; isSpilled {
					continue
				}
				if c, ok := colors[nb]; ok {
					used[c] = true
				}
			}

			chosen, ok := colorizeNode(node, used, colors, classes)
			if !ok {
				failed = true
				break
			}
			colors[id] = chosen
		}

		if !failed {
			for id, c := range colors {
				result.set(id, c)
			}
			for id, s := range spilled {
				result.set(id, s)
			}
			return result
		}

		victim := chooseAndSpill(work)
		slot := slotAlloc(work[victim].Size)
		spilled[victim] = slot
		removeNode(work, victim)
	}
}

// colorizeNode implements original_source's ColorizeNode: prefer the
// coalescing hint, then any free temp register (if this node may use
// one), then any free regular register.
func colorizeNode(node *IFNode, used map[mir.Operand]bool, colors map[mir.VRegID]mir.Operand, classes RegisterClass) (mir.Operand, bool) {
	if node.HasSuggest {
		if c, ok := colors[node.SuggestSame]; ok && !used[c] {
			if node.CanAllocTemp || !isTempReg(c, classes) {
				return c, true
			}
		}
	}
	if node.CanAllocTemp {
		for _, r := range classes.Temps {
			cand := mir.NewReg(r)
			if !used[cand] {
				return cand, true
			}
		}
	}
	for _, r := range classes.Regulars {
		cand := mir.NewReg(r)
		if !used[cand] {
			return cand, true
		}
	}
	return mir.Operand{}, false
}

func isTempReg(o mir.Operand, classes RegisterClass) bool {
	for _, r := range classes.Temps {
		if o.Reg() == r {
			return true
		}
	}
	return false
}

// buildNodeStack implements RebuildNodeStack: repeatedly remove the
// lowest-degree node from a working copy of the graph, appending it to
// the order; Colorize later visits that order back-to-front, so the nodes
// removed last, once the rest of the graph has been simplified away, pick
// their colors first.
func buildNodeStack(work InterferenceGraph) []mir.VRegID {
	ids := make([]mir.VRegID, 0, len(work))
	for id := range work {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	neigh := make(map[mir.VRegID]map[mir.VRegID]struct{}, len(work))
	for id, n := range work {
		s := make(map[mir.VRegID]struct{}, len(n.Neighbours))
		for nb := range n.Neighbours {
			if _, ok := work[nb]; ok {
				s[nb] = struct{}{}
			}
		}
		neigh[id] = s
	}

	remaining := ids
	order := make([]mir.VRegID, 0, len(ids))
	for len(remaining) > 0 {
		minIdx := 0
		minDeg := len(neigh[remaining[0]])
		for i := 1; i < len(remaining); i++ {
			if d := len(neigh[remaining[i]]); d < minDeg {
				minDeg, minIdx = d, i
			}
		}
		victim := remaining[minIdx]
		remaining[minIdx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		order = append(order, victim)

		for nb := range neigh[victim] {
			delete(neigh[nb], victim)
		}
		delete(neigh, victim)
	}
	return order
}

// chooseAndSpill implements ChooseAndSpill: pick the node minimizing
// UseCount/degree, i.e. the one that costs least to spill relative to
// how much graph pressure it relieves.
func chooseAndSpill(work InterferenceGraph) mir.VRegID {
	var best mir.VRegID
	var bestUse, bestDeg int
	first := true
	for id, n := range work {
		deg := n.degree()
		if deg == 0 {
			deg = 1
		}
		if first || n.UseCount*bestDeg < bestUse*deg {
			best, bestUse, bestDeg, first = id, n.UseCount, deg, false
		}
	}
	return best
}

func cloneGraph(graph InterferenceGraph) InterferenceGraph {
	out := make(InterferenceGraph, len(graph))
	for id, n := range graph {
		cp := &IFNode{
			VReg: n.VReg, Size: n.Size, SuggestSame: n.SuggestSame,
			HasSuggest: n.HasSuggest, CanAllocTemp: n.CanAllocTemp, UseCount: n.UseCount,
			Neighbours: make(map[mir.VRegID]struct{}, len(n.Neighbours)),
		}
		for nb := range n.Neighbours {
			cp.Neighbours[nb] = struct{}{}
		}
		out[id] = cp
	}
	return out
}

func removeNode(work InterferenceGraph, id mir.VRegID) {
	delete(work, id)
	for _, n := range work {
		delete(n.Neighbours, id)
	}
}
