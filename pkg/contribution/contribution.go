// Package contribution implements the sparse per-entry contribution tensor
// shared by the Flooding and Via-Edge models: per-entry max-normalisation,
// followed by population-weighted distribution onto arcs (spec.md §4.7).
package contribution

import "gonum.org/v1/gonum/floats"

// Map is entryId -> arcId -> accumulated contribution. Both models populate
// this before handing it to Normalize/Distribute.
type Map map[int32]map[int32]float32

// Normalize scales each entry's row so its maximum value becomes 1. Rows
// that are empty or all-zero are left untouched (division by zero is
// forbidden by spec.md §4.7, so the scan is skipped rather than faulted).
func Normalize(c Map) {
	for _, row := range c {
		if len(row) == 0 {
			continue
		}
		max := maxOf(row)
		if max <= 0 {
			continue
		}
		for arcID, v := range row {
			row[arcID] = v / max
		}
	}
}

func maxOf(row map[int32]float32) float32 {
	vals := make([]float64, 0, len(row))
	for _, v := range row {
		vals = append(vals, float64(v))
	}
	return float32(floats.Max(vals))
}

// Distribute weights a (normalised) contribution map by per-entry
// populations onto a dense per-arc attractiveness vector: for every (e,
// arcId, v) triple, attractiveness[arcId] += population[e] * v. Entries
// absent from population contribute nothing; entries absent from c
// likewise contribute nothing.
func Distribute(population map[int32]float32, c Map, numArcs int) []float32 {
	attractiveness := make([]float32, numArcs)
	for entry, row := range c {
		pop, ok := population[entry]
		if !ok || pop == 0 {
			continue
		}
		for arcID, v := range row {
			attractiveness[arcID] += pop * v
		}
	}
	return attractiveness
}
