// Package graph implements the offset-list directed multigraph used by the
// rest of the pipeline: a compact, immutable, read-only representation
// shared by many concurrent bounded shortest-path searches.
package graph

import "fmt"

// NoFid is the sentinel provenance id meaning "no original edge" — used by
// road-only arcs (plain RoadArc rows) that never came from a forest feature.
const NoFid = -1

// Node carries optional geometry. Geometry is consumed only by external
// nearest-neighbour lookups (internal/snap); the core
// algorithms never read it and treat nodes as opaque indices.
type Node struct {
	Lat, Lon float64
	HasGeom  bool
}

// Arc is a directed edge. It unifies the spec's RoadArc (Cost only) and
// ForestRoadArc (Cost, Weight, Fid) variants in a single representation: a
// plain road arc simply carries Weight == 0 and Fid == NoFid.
type Arc struct {
	Source uint32
	Target uint32
	Cost   int32
	Weight int32
	Fid    int32
}

// Graph is an immutable offset-list directed multigraph.
//
// Invariants: Offsets is non-decreasing, Offsets[NumNodes()] == len(Arcs);
// every arc in the slice for node v has Source == v; every arc Target is in
// [0, NumNodes()). Multi-edges are allowed. The graph is typically but not
// necessarily bidirectional — algorithms that require it document so.
type Graph struct {
	arcs    []Arc
	offsets []uint32 // len NumNodes()+1
	nodes   []Node   // optional, may be nil
}

// FromRows builds a Graph from a node list and an arc list already sorted by
// (Source, Target). It returns an error if the arcs are not sorted that way
// (a cheap, always-on check) and panics if assertBidirectional is true and
// some arc a->b has no counterpart b->a.
func FromRows(nodes []Node, arcs []Arc, assertBidirectional bool) (*Graph, error) {
	n := uint32(len(nodes))
	for i := 1; i < len(arcs); i++ {
		prev, cur := arcs[i-1], arcs[i]
		if cur.Source < prev.Source || (cur.Source == prev.Source && cur.Target < prev.Target) {
			return nil, fmt.Errorf("graph: arcs not sorted by (source, target) at index %d", i)
		}
	}
	for i, a := range arcs {
		if a.Source >= n {
			return nil, fmt.Errorf("graph: arc %d has out-of-range source %d (numNodes=%d)", i, a.Source, n)
		}
		if a.Target >= n {
			return nil, fmt.Errorf("graph: arc %d has out-of-range target %d (numNodes=%d)", i, a.Target, n)
		}
	}

	offsets := make([]uint32, n+1)
	p := 0
	for v := uint32(0); v < n; v++ {
		for p < len(arcs) && arcs[p].Source < v {
			p++
		}
		offsets[v] = uint32(p)
	}
	offsets[n] = uint32(len(arcs))

	g := &Graph{arcs: arcs, offsets: offsets, nodes: nodes}
	if assertBidirectional && !g.isBidirectional() {
		panic("graph: arc set is not bidirectional")
	}
	return g, nil
}

func (g *Graph) isBidirectional() bool {
	for _, a := range g.arcs {
		if !g.hasArc(a.Target, a.Source) {
			return false
		}
	}
	return true
}

func (g *Graph) hasArc(source, target uint32) bool {
	for _, a := range g.Outgoing(source) {
		if a.Target == target {
			return true
		}
	}
	return false
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() uint32 { return uint32(len(g.offsets) - 1) }

// NumArcs returns the total number of arcs.
func (g *Graph) NumArcs() int { return len(g.arcs) }

// Outgoing returns the slice of arcs leaving node v, in O(deg(v)). The
// returned slice aliases the graph's internal storage and must not be
// mutated; it is never invalidated while the graph lives.
func (g *Graph) Outgoing(v uint32) []Arc {
	return g.arcs[g.offsets[v]:g.offsets[v+1]]
}

// ArcList returns the full, contiguous arc slice for index-based iteration.
// Index into this slice is the arc's stable id.
func (g *Graph) ArcList() []Arc { return g.arcs }

// Node returns the geometry for node v, if any.
func (g *Graph) Node(v uint32) (Node, bool) {
	if g.nodes == nil {
		return Node{}, false
	}
	return g.nodes[v], g.nodes[v].HasGeom
}

// Nodes returns the full node slice (may be nil if no geometry was loaded).
func (g *Graph) Nodes() []Node { return g.nodes }
