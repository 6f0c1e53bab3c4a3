// Package dijkstra implements a bounded, reusable single-source shortest
// path engine. A single Engine owns scratch vectors sized to its graph and
// is meant to be constructed once per worker, then reset and re-run many
// thousands of times — the search loop never allocates once warmed up.
package dijkstra

import (
	"math"

	"github.com/sternisko/forestreach/pkg/graph"
)

const (
	// NoNode is the sentinel origin value meaning "no predecessor" (source).
	NoNode = math.MaxUint32
	// Inf is the cost returned for unreached nodes.
	Inf = math.MaxInt32
)

// heapItem is a priority-queue entry. seq breaks cost ties in FIFO order,
// matching the "first inserted, first popped" rule for equal costs.
type heapItem struct {
	cost int64
	seq  uint64
	node uint32
}

// minHeap is a concrete-typed binary heap, avoiding container/heap's
// interface boxing in the hot Dijkstra loop.
type minHeap struct {
	items []heapItem
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) push(it heapItem) {
	h.items = append(h.items, it)
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) pop() heapItem {
	n := len(h.items)
	top := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return top
}

func (h *minHeap) reset() { h.items = h.items[:0] }

func less(a, b heapItem) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.seq < b.seq
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// Engine is a reusable bounded Dijkstra instance. Not safe for concurrent
// use; callers wanting parallelism own one Engine per worker.
type Engine struct {
	g *graph.Graph

	cost    []int64
	origin  []uint32
	settled []bool

	touched     []uint32
	settledList []uint32

	pq  minHeap
	seq uint64

	// bounds, set via the With* setters below and consumed by the next Run.
	costLimit      int64
	hasCostLimit   bool
	hopLimit       int
	hasHopLimit    bool
	hop            []int
	target         uint32
	hasTarget      bool
	ignore         []bool
	hasIgnore      bool
	mustSettle     []bool
	mustSettleLeft int
	hasMustSettle  bool

	ignoreTouched     []uint32
	mustSettleTouched []uint32

	settledCount int
}

// New creates an Engine with scratch vectors sized to g's node count.
func New(g *graph.Graph) *Engine {
	n := g.NumNodes()
	e := &Engine{
		g:       g,
		cost:    make([]int64, n),
		origin:  make([]uint32, n),
		settled: make([]bool, n),
		ignore:  make([]bool, n),
	}
	for v := range e.cost {
		e.cost[v] = Inf
		e.origin[v] = NoNode
	}
	return e
}

// WithCostLimit drops PQ entries with cost strictly greater than limit.
func (e *Engine) WithCostLimit(limit int64) *Engine {
	e.costLimit, e.hasCostLimit = limit, true
	return e
}

// WithHopLimit bounds the number of edges traversed from any source.
func (e *Engine) WithHopLimit(limit int) *Engine {
	e.hopLimit, e.hasHopLimit = limit, true
	if e.hop == nil {
		e.hop = make([]int, e.g.NumNodes())
	}
	return e
}

// WithTarget requests early exit once target is settled.
func (e *Engine) WithTarget(target uint32) *Engine {
	e.target, e.hasTarget = target, true
	return e
}

// WithIgnore marks nodes that must never be traversed as neighbours (they
// may still serve as a source). The slice is copied into the engine's own
// scratch vector scoped for the next Run.
func (e *Engine) WithIgnore(ignored ...uint32) *Engine {
	e.hasIgnore = len(ignored) > 0
	for _, v := range ignored {
		e.ignore[v] = true
	}
	e.ignoreTouched = append(e.ignoreTouched, ignored...)
	return e
}

// WithMustSettle requests early exit once every listed node has been
// settled.
func (e *Engine) WithMustSettle(nodes ...uint32) *Engine {
	if e.mustSettle == nil {
		e.mustSettle = make([]bool, e.g.NumNodes())
	}
	e.hasMustSettle = len(nodes) > 0
	e.mustSettleLeft = 0
	for _, v := range nodes {
		if !e.mustSettle[v] {
			e.mustSettle[v] = true
			e.mustSettleLeft++
		}
	}
	e.mustSettleTouched = append(e.mustSettleTouched, nodes...)
	return e
}

func (e *Engine) clearBoundInputs() {
	for _, v := range e.ignoreTouched {
		e.ignore[v] = false
	}
	e.ignoreTouched = e.ignoreTouched[:0]
	for _, v := range e.mustSettleTouched {
		if e.mustSettle != nil {
			e.mustSettle[v] = false
		}
	}
	e.mustSettleTouched = e.mustSettleTouched[:0]
	e.hasCostLimit = false
	e.hasHopLimit = false
	e.hasTarget = false
	e.hasIgnore = false
	e.hasMustSettle = false
}

// reset restores cost/origin/settled to their initial state, using the
// cheap O(k) path when the previous search was bounded (few nodes touched),
// falling back to a full O(N) sweep only when something was actually
// settled and the touched list can't be trusted to cover it (unbounded
// search).
func (e *Engine) reset() {
	if len(e.touched) > 0 || e.settledCount == 0 {
		for _, v := range e.touched {
			e.cost[v] = Inf
			e.origin[v] = NoNode
			e.settled[v] = false
		}
		e.touched = e.touched[:0]
	} else {
		for v := range e.cost {
			e.cost[v] = Inf
			e.origin[v] = NoNode
			e.settled[v] = false
		}
	}
	for _, v := range e.settledList {
		e.settled[v] = false
	}
	e.settledList = e.settledList[:0]
	e.settledCount = 0
	e.pq.reset()
	e.seq = 0
	if e.hop != nil {
		for _, v := range e.touched {
			e.hop[v] = 0
		}
	}
}

func (e *Engine) bounded() bool {
	return e.hasCostLimit || e.hasHopLimit || e.hasTarget || e.hasMustSettle
}

// Run executes the search from the given sources (cost 0, origin self) and
// drains the queue under whatever bounds were set via the With* methods.
// Bound state set before the call is consumed and cleared by the call that
// follows it, ready for the next Run.
func (e *Engine) Run(sources ...uint32) {
	e.reset()
	record := e.bounded()

	push := func(node uint32, cost int64, hops int) {
		if e.cost[node] == Inf {
			if record {
				e.touched = append(e.touched, node)
			}
		}
		e.cost[node] = cost
		if e.hop != nil {
			e.hop[node] = hops
		}
		e.pq.push(heapItem{cost: cost, seq: e.seq, node: node})
		e.seq++
	}

	for _, s := range sources {
		e.origin[s] = NoNode
		push(s, 0, 0)
	}

	for e.pq.Len() > 0 {
		top := e.pq.pop()
		if e.hasCostLimit && top.cost > e.costLimit {
			break
		}
		if e.settled[top.node] {
			continue
		}
		e.settled[top.node] = true
		e.settledList = append(e.settledList, top.node)
		e.settledCount++

		if e.hasMustSettle && e.mustSettle[top.node] {
			e.mustSettleLeft--
			if e.mustSettleLeft == 0 {
				break
			}
		}
		if e.hasTarget && top.node == e.target {
			break
		}

		hops := 0
		if e.hop != nil {
			hops = e.hop[top.node]
		}
		if e.hasHopLimit && hops >= e.hopLimit {
			continue
		}

		for _, a := range e.g.Outgoing(top.node) {
			if e.hasIgnore && e.ignore[a.Target] {
				continue
			}
			if e.settled[a.Target] {
				continue
			}
			g := top.cost + int64(a.Cost)
			if e.hasCostLimit && g > e.costLimit {
				continue
			}
			if g < e.cost[a.Target] {
				e.origin[a.Target] = top.node
				push(a.Target, g, hops+1)
			}
		}
	}

	e.clearBoundInputs()
}

// Cost returns the settled distance to v, or Inf if unreached.
func (e *Engine) Cost(v uint32) int64 { return e.cost[v] }

// Origin returns the predecessor of v on its shortest path, or NoNode.
func (e *Engine) Origin(v uint32) uint32 { return e.origin[v] }

// Settled reports whether v was settled by the last Run.
func (e *Engine) Settled(v uint32) bool { return e.settled[v] }

// SettledNodes returns the nodes settled by the last Run, in settle order.
func (e *Engine) SettledNodes() []uint32 { return e.settledList }
