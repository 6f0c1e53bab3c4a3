// Package viaedge implements the Via-Edge attractiveness model (spec.md
// §4.6): for every forest arc s->t, two bounded Dijkstras enumerate the
// entry-to-entry routes that pass through the arc, accumulating a
// contribution tensor. This is the most computationally demanding component
// of the pipeline and the one spec.md explicitly calls out as embarrassingly
// parallel across unordered edges once the counterpart-arc map and the
// entry-distance table are built up front.
package viaedge

import (
	"runtime"
	"sort"
	"sync"

	"github.com/sternisko/forestreach/pkg/contribution"
	"github.com/sternisko/forestreach/pkg/dijkstra"
	"github.com/sternisko/forestreach/pkg/graph"
	"github.com/sternisko/forestreach/pkg/preferences"
)

// Entry is one forest entry point: its node id and imputed population.
type Entry struct {
	Node       uint32
	Population float32
}

// Config controls optional parallelism. Workers <= 0 means
// runtime.GOMAXPROCS(0).
type Config struct {
	Workers int
}

// Compute runs the Via-Edge model and returns a dense attractiveness[arcId]
// vector sized g.NumArcs().
func Compute(g *graph.Graph, entries []Entry, prefs *preferences.Table, maxCost int64, cfg Config) ([]float32, error) {
	result := make([]float32, g.NumArcs())
	if len(entries) == 0 || maxCost < 0 {
		return result, nil
	}

	counterpart := buildCounterpartMap(g)
	distances, err := buildDistanceTable(g, entries, maxCost)
	if err != nil {
		return nil, err
	}

	population := make(map[int32]float32, len(entries))
	for _, e := range entries {
		population[int32(e.Node)] = e.Population
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	examined := make([]bool, g.NumArcs())
	var examinedMu sync.Mutex
	claim := func(arcID int32) bool {
		examinedMu.Lock()
		defer examinedMu.Unlock()
		if examined[arcID] {
			return false
		}
		examined[arcID] = true
		if cp := counterpart[arcID]; cp >= 0 {
			examined[cp] = true
		}
		return true
	}

	shards := make([]contribution.Map, workers)
	arcCh := make(chan int32, 256)
	var wg sync.WaitGroup
	var firstErr error
	var firstErrMu sync.Mutex
	for w := 0; w < workers; w++ {
		shards[w] = make(contribution.Map)
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			eng := dijkstra.New(g)
			for arcID := range arcCh {
				if err := evaluateEdge(g, eng, arcID, counterpart[arcID], prefs, maxCost, entries, distances, shards[w]); err != nil {
					// fatal evaluation errors are rare (preference lookup past the
					// table's range); surfacing them would require plumbing a
					// cancellation channel, so we record the first one instead.
					firstErrMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					firstErrMu.Unlock()
				}
			}
		}()
	}
	for arcID := range g.ArcList() {
		if !claim(int32(arcID)) {
			continue
		}
		arcCh <- int32(arcID)
	}
	close(arcCh)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	merged := mergeShards(shards)
	contribution.Normalize(merged)
	return contribution.Distribute(population, merged, g.NumArcs()), nil
}

// evaluateEdge runs the backward/forward search pair for arcID's unordered
// edge and accumulates contributions for both directions into shard.
func evaluateEdge(
	g *graph.Graph,
	eng *dijkstra.Engine,
	arcID, counterpartID int32,
	prefs *preferences.Table,
	maxCost int64,
	entries []Entry,
	distances *distanceTable,
	shard contribution.Map,
) error {
	arc := g.ArcList()[arcID]
	s, t, c, w := arc.Source, arc.Target, int64(arc.Cost), arc.Weight

	costLimit := maxCost - c
	if costLimit < 0 {
		costLimit = -1 // no node can be reached; searches below settle nothing useful
	}

	eng.WithCostLimit(costLimit).WithIgnore(t)
	eng.Run(s)
	bwdCost := snapshotCosts(eng)

	eng.WithCostLimit(costLimit).WithIgnore(s)
	eng.Run(t)
	fwdCost := snapshotCosts(eng)

	// s -> t direction: e1 settled backward (near s), e2 settled forward (near t).
	if err := accumulate(arcID, w, c, entries, bwdCost, fwdCost, prefs, maxCost, distances, shard); err != nil {
		return err
	}

	// t -> s direction (the counterpart arc), same two searches with roles
	// swapped: e1 now settled forward (near t, the counterpart's source),
	// e2 settled backward (near s, the counterpart's target).
	if counterpartID >= 0 {
		cpArc := g.ArcList()[counterpartID]
		if err := accumulate(counterpartID, cpArc.Weight, int64(cpArc.Cost), entries, fwdCost, bwdCost, prefs, maxCost, distances, shard); err != nil {
			return err
		}
	}
	return nil
}

func accumulate(
	arcID int32,
	weight int32,
	edgeCost int64,
	entries []Entry,
	sideACost, sideBCost map[uint32]int64,
	prefs *preferences.Table,
	maxCost int64,
	distances *distanceTable,
	shard contribution.Map,
) error {
	for _, e1 := range entries {
		c1, ok := sideACost[e1.Node]
		if !ok {
			continue
		}
		for _, e2 := range entries {
			c2, ok := sideBCost[e2.Node]
			if !ok {
				continue
			}
			total := c1 + edgeCost + c2
			if total > maxCost {
				continue
			}
			share, err := prefs.TailShareAt(float64(total))
			if err != nil {
				return err
			}
			var gain float64
			if e1.Node == e2.Node {
				gain = share / (float64(c2) + 60)
			} else {
				dist, ok := distances.lookup(int32(e1.Node), int32(e2.Node))
				if !ok {
					continue
				}
				gain = share * dist / (float64(total) + 60)
			}
			gain *= float64(weight)
			if gain <= 0 {
				continue
			}
			row, ok := shard[int32(e1.Node)]
			if !ok {
				row = make(map[int32]float32)
				shard[int32(e1.Node)] = row
			}
			row[arcID] += float32(gain)
		}
	}
	return nil
}

// snapshotCosts copies the settled-node costs out of eng before the next
// Run call overwrites its scratch vectors.
func snapshotCosts(eng *dijkstra.Engine) map[uint32]int64 {
	settled := eng.SettledNodes()
	out := make(map[uint32]int64, len(settled))
	for _, v := range settled {
		out[v] = eng.Cost(v)
	}
	return out
}

// mergeShards sums per-worker contribution shards: worker shards are merged
// in index order, and within each shard, entry rows are merged in ascending
// entry-id order. Each unordered edge is claimed once and evaluated by
// exactly one worker, so no two shards ever write the same (entry, arc)
// cell — merging here is for bookkeeping, not float reassociation.
func mergeShards(shards []contribution.Map) contribution.Map {
	merged := make(contribution.Map)
	for _, shard := range shards {
		entries := make([]int32, 0, len(shard))
		for e := range shard {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
		for _, e := range entries {
			row, ok := merged[e]
			if !ok {
				row = make(map[int32]float32)
				merged[e] = row
			}
			for arcID, v := range shard[e] {
				row[arcID] += v
			}
		}
	}
	return merged
}

// buildCounterpartMap pairs every arc a->b with arc b->a, matching
// multi-edges by position order when several parallel arcs exist between
// the same pair of nodes (spec.md §4.6 setup). Arcs with no counterpart map
// to -1.
func buildCounterpartMap(g *graph.Graph) []int32 {
	arcs := g.ArcList()
	counterpart := make([]int32, len(arcs))
	for i := range counterpart {
		counterpart[i] = -1
	}

	type key struct{ a, b uint32 }
	positions := make(map[key][]int32)
	for i, a := range arcs {
		k := key{a.Source, a.Target}
		positions[k] = append(positions[k], int32(i))
	}

	paired := make([]bool, len(arcs))
	for i, a := range arcs {
		if paired[i] {
			continue
		}
		fwdKey := key{a.Source, a.Target}
		bwdKey := key{a.Target, a.Source}
		fwdList := positions[fwdKey]
		bwdList := positions[bwdKey]

		// Position of i among not-yet-paired entries of fwdKey.
		rank := 0
		for _, idx := range fwdList {
			if idx == int32(i) {
				break
			}
			if !paired[idx] {
				rank++
			}
		}
		unpaired := 0
		for _, idx := range bwdList {
			if paired[idx] {
				continue
			}
			if unpaired == rank {
				counterpart[i] = idx
				counterpart[idx] = int32(i)
				paired[i] = true
				paired[idx] = true
				break
			}
			unpaired++
		}
	}
	return counterpart
}

// distanceTable stores pairwise shortest distances between forest entries
// reachable within maxCost, symmetric on bidirectional graphs so only the
// e1<=e2 half is stored.
type distanceTable struct {
	m map[[2]int32]float64
}

func (d *distanceTable) lookup(e1, e2 int32) (float64, bool) {
	if e1 > e2 {
		e1, e2 = e2, e1
	}
	v, ok := d.m[[2]int32{e1, e2}]
	return v, ok
}

func buildDistanceTable(g *graph.Graph, entries []Entry, maxCost int64) (*distanceTable, error) {
	table := &distanceTable{m: make(map[[2]int32]float64)}
	eng := dijkstra.New(g)
	eng.WithCostLimit(maxCost)
	for _, e1 := range entries {
		eng.WithCostLimit(maxCost)
		eng.Run(e1.Node)
		for _, e2 := range entries {
			if int32(e2.Node) < int32(e1.Node) {
				continue // store only e1 <= e2
			}
			if !eng.Settled(e2.Node) {
				continue
			}
			table.m[[2]int32{int32(e1.Node), int32(e2.Node)}] = float64(eng.Cost(e2.Node))
		}
	}
	return table, nil
}
