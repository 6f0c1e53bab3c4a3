package graph

import "sort"

// SortArcs stably sorts arcs by (Source, Target), the order FromRows
// requires. Callers that read arcs already sorted (e.g. a well-formed graph
// file) may skip this.
func SortArcs(arcs []Arc) {
	sort.SliceStable(arcs, func(i, j int) bool {
		if arcs[i].Source != arcs[j].Source {
			return arcs[i].Source < arcs[j].Source
		}
		return arcs[i].Target < arcs[j].Target
	})
}
