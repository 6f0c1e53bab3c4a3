// Package flooding implements the Flooding attractiveness model (spec.md
// §4.5): from each forest entry, a limited Dijkstra floods outward; every
// settled node accumulates a gain weighted by the preference function, and
// that gain is finally distributed by entry population and projected from
// nodes onto arcs, each arc taking the value of its target node.
package flooding

import (
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

// Compute runs the Flooding model and returns a dense attractiveness[arcId]
// vector sized g.NumArcs(). maxCost is the round-trip cost budget in the
// same units as arc costs (seconds); the model searches to half that from
// each entry.
func Compute(g *graph.Graph, entries []Entry, prefs *preferences.Table, maxCost int64) ([]float32, error) {
	result := make([]float32, g.NumArcs())
	if len(entries) == 0 {
		return result, nil
	}

	nodeWeight := computeNodeWeights(g)

	population := make(map[int32]float32, len(entries))
	c := make(contribution.Map, len(entries))

	eng := dijkstra.New(g)
	costLimit := maxCost / 2

	for _, e := range entries {
		population[int32(e.Node)] = e.Population

		eng.WithCostLimit(costLimit)
		eng.Run(e.Node)

		row := make(map[int32]float32)
		for _, v := range eng.SettledNodes() {
			cost := eng.Cost(v)
			if cost < 1 {
				cost = 1
			}
			share, err := prefs.TailShareAt(2 * float64(cost))
			if err != nil {
				return nil, err
			}
			gain := float32(nodeWeight[v]) * float32(share) / float32(cost+60)
			if gain > 0 {
				row[int32(v)] = gain
			}
		}
		if len(row) > 0 {
			c[int32(e.Node)] = row
		}
	}

	contribution.Normalize(c)
	nodeAttr := contribution.Distribute(population, c, int(g.NumNodes()))

	for arcID, a := range g.ArcList() {
		result[arcID] = nodeAttr[a.Target]
	}
	return result, nil
}

// computeNodeWeights derives nodeWeight[v] as the max scenic weight among
// all arcs touching v (either direction), per spec.md §4.5 step 1.
func computeNodeWeights(g *graph.Graph) []int32 {
	w := make([]int32, g.NumNodes())
	for _, a := range g.ArcList() {
		if a.Weight > w[a.Source] {
			w[a.Source] = a.Weight
		}
		if a.Weight > w[a.Target] {
			w[a.Target] = a.Weight
		}
	}
	return w
}
