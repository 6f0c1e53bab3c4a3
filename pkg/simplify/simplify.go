// Package simplify contracts degree-2 chains out of a graph.Graph, turning
// each contracted run of nodes into a pair of shortcut arcs while preserving
// enough provenance to map any result computed on the simplified graph back
// onto the original arc ids.
package simplify

import "github.com/sternisko/forestreach/pkg/graph"

// Result is the outcome of a Contract call.
type Result struct {
	Graph *graph.Graph
	// IndexShift maps an old node id to its new (densely reindexed) id.
	// Entries for nodes removed by contraction are left at -1.
	IndexShift []int32
	// Provenance maps a shortcut arc's fid to the ordered list of original
	// fids it subsumes. Arcs untouched by contraction are not present here;
	// their own fid is their provenance.
	Provenance map[int32][]int32
}

type adjEntry struct {
	neighbor uint32
	arcIdx   int // index into arcs: this node -> neighbor
	back     int // index into arcs: neighbor -> this node
}

type workingArc struct {
	source, target uint32
	cost, weight   int32
	fid            int32
	dead           bool
}

// Contract performs degree-2 chain contraction per spec: a node is
// contractible iff, ignoring already-contracted neighbours, it has exactly
// two distinct undirected neighbours. Nodes whose two out-arcs share the
// same target are left alone, to preserve parallel edges. protect is a set
// of node ids that must never be contracted (typically forest entries).
func Contract(g *graph.Graph, protect map[uint32]bool) Result {
	n := g.NumNodes()
	arcs := make([]workingArc, g.NumArcs())
	for i, a := range g.ArcList() {
		arcs[i] = workingArc{source: a.Source, target: a.Target, cost: a.Cost, weight: a.Weight, fid: a.Fid}
	}
	adj := buildAdjacency(n, arcs)

	contracted := make([]bool, n)
	provenance := map[int32][]int32{}
	nextFid := int32(len(arcs))

	for v := uint32(0); v < n; v++ {
		if protect[v] || contracted[v] {
			continue
		}
		live := liveNeighbors(adj[v], contracted)
		if len(live) != 2 || live[0].neighbor == live[1].neighbor {
			continue
		}
		e1, e2 := live[0], live[1]
		a, b := arcs[e1.arcIdx], arcs[e2.arcIdx]
		aBack, bBack := arcs[e1.back], arcs[e2.back]

		shortcutCost := a.cost + b.cost
		shortcutWeight := a.weight
		if b.weight > shortcutWeight {
			shortcutWeight = b.weight
		}

		fwdFid, bwdFid := nextFid, nextFid+1
		nextFid += 2
		// fwd (e1.neighbor -> e2.neighbor) represents e1.neighbor -> v -> e2.neighbor,
		// so its provenance is (e1.neighbor->v) then (v->e2.neighbor): aBack, b.
		provenance[fwdFid] = concat(provenanceOf(provenance, aBack.fid), provenanceOf(provenance, b.fid))
		// bwd (e2.neighbor -> e1.neighbor) represents e2.neighbor -> v -> e1.neighbor:
		// (e2.neighbor->v) then (v->e1.neighbor): bBack, a.
		provenance[bwdFid] = concat(provenanceOf(provenance, bBack.fid), provenanceOf(provenance, a.fid))

		arcs[e1.arcIdx].dead = true
		arcs[e2.arcIdx].dead = true
		arcs[e1.back].dead = true
		arcs[e2.back].dead = true

		fwdIdx := len(arcs)
		arcs = append(arcs, workingArc{source: e1.neighbor, target: e2.neighbor, cost: shortcutCost, weight: shortcutWeight, fid: fwdFid})
		bwdIdx := len(arcs)
		arcs = append(arcs, workingArc{source: e2.neighbor, target: e1.neighbor, cost: shortcutCost, weight: shortcutWeight, fid: bwdFid})

		contracted[v] = true
		replaceNeighbor(adj, e1.neighbor, v, e2.neighbor, fwdIdx, bwdIdx)
		replaceNeighbor(adj, e2.neighbor, v, e1.neighbor, bwdIdx, fwdIdx)
	}

	indexShift := make([]int32, n)
	var newN uint32
	for v := uint32(0); v < n; v++ {
		if contracted[v] {
			indexShift[v] = -1
			continue
		}
		indexShift[v] = int32(newN)
		newN++
	}

	var liveArcs []graph.Arc
	for _, a := range arcs {
		if a.dead || contracted[a.source] || contracted[a.target] {
			continue
		}
		liveArcs = append(liveArcs, graph.Arc{
			Source: uint32(indexShift[a.source]),
			Target: uint32(indexShift[a.target]),
			Cost:   a.cost,
			Weight: a.weight,
			Fid:    a.fid,
		})
	}
	graph.SortArcs(liveArcs)

	var nodes []graph.Node
	if src := g.Nodes(); src != nil {
		nodes = make([]graph.Node, newN)
		for v := uint32(0); v < n; v++ {
			if indexShift[v] >= 0 {
				nodes[indexShift[v]] = src[v]
			}
		}
	}

	simplified, err := graph.FromRows(nodes, liveArcs, false)
	if err != nil {
		panic(err)
	}
	return Result{Graph: simplified, IndexShift: indexShift, Provenance: provenance}
}

func provenanceOf(m map[int32][]int32, fid int32) []int32 {
	if list, ok := m[fid]; ok {
		return list
	}
	return []int32{fid}
}

func concat(a, b []int32) []int32 {
	out := make([]int32, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func buildAdjacency(n uint32, arcs []workingArc) [][]adjEntry {
	adj := make([][]adjEntry, n)
	offs := make([]int, n+1)
	idx := 0
	for v := uint32(0); v < n; v++ {
		offs[v] = idx
		for idx < len(arcs) && arcs[idx].source == v {
			idx++
		}
	}
	offs[n] = idx

	for v := uint32(0); v < n; v++ {
		for i := offs[v]; i < offs[v+1]; i++ {
			target := arcs[i].target
			back := findBack(arcs, offs, target, v)
			adj[v] = append(adj[v], adjEntry{neighbor: target, arcIdx: i, back: back})
		}
	}
	return adj
}

func findBack(arcs []workingArc, offs []int, source, target uint32) int {
	for i := offs[source]; i < offs[source+1]; i++ {
		if arcs[i].target == target {
			return i
		}
	}
	return -1
}

func liveNeighbors(entries []adjEntry, contracted []bool) []adjEntry {
	var live []adjEntry
	for _, e := range entries {
		if e.arcIdx < 0 || e.back < 0 || contracted[e.neighbor] {
			continue
		}
		live = append(live, e)
	}
	return live
}

func replaceNeighbor(adj [][]adjEntry, at uint32, oldNeighbor, newNeighbor uint32, newArcIdx, newBackIdx int) {
	for i, e := range adj[at] {
		if e.neighbor == oldNeighbor {
			adj[at][i] = adjEntry{neighbor: newNeighbor, arcIdx: newArcIdx, back: newBackIdx}
			return
		}
	}
}
