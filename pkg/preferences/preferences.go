// Package preferences implements the piecewise-constant user-share-by-
// duration function: an empirical distribution of how long visitors are
// willing to spend in the forest on a round trip.
package preferences

import (
	"fmt"
	"sort"
)

// Table is a validated piecewise-constant step function over duration,
// backed by two parallel strictly-increasing/bounded sequences.
type Table struct {
	upperBound []float64 // seconds, strictly increasing
	share      []float64 // share[i] in [0,1], sum <= 1+eps
	tailSum    []float64 // tailSum[i] = sum(share[i:])
}

// epsilon tolerates the same floating slop the original's assert allowed.
const epsilon = 1e-4

// New validates and builds a Table from upper bounds (seconds) and shares.
// Validation matches spec.md §4.4: strictly increasing bounds, each share in
// [0,1], total <= 1+epsilon. Violations are fatal (returned as an error).
func New(upperBound, share []float64) (*Table, error) {
	if len(upperBound) == 0 {
		return nil, fmt.Errorf("preferences: empty table")
	}
	if len(upperBound) != len(share) {
		return nil, fmt.Errorf("preferences: upperBound and share length mismatch (%d vs %d)", len(upperBound), len(share))
	}
	for i, b := range upperBound {
		if i > 0 && b <= upperBound[i-1] {
			return nil, fmt.Errorf("preferences: upperBound not strictly increasing at index %d (%g <= %g)", i, b, upperBound[i-1])
		}
	}
	var total float64
	for i, s := range share {
		if s < 0 || s > 1 {
			return nil, fmt.Errorf("preferences: share[%d] = %g out of [0,1]", i, s)
		}
		total += s
	}
	if total > 1+epsilon {
		return nil, fmt.Errorf("preferences: shares sum to %g, exceeds 1+%g", total, epsilon)
	}

	ub := append([]float64(nil), upperBound...)
	sh := append([]float64(nil), share...)
	tail := make([]float64, len(sh))
	var running float64
	for i := len(sh) - 1; i >= 0; i-- {
		running += sh[i]
		tail[i] = running
	}
	return &Table{upperBound: ub, share: sh, tailSum: tail}, nil
}

// index returns the least i with upperBound[i] >= t, clamped to the last
// index, and an error if t exceeds the table's range.
func (t *Table) index(d float64) (int, error) {
	if d > t.upperBound[len(t.upperBound)-1] {
		return 0, fmt.Errorf("preferences: duration %g exceeds table range %g", d, t.upperBound[len(t.upperBound)-1])
	}
	i := sort.SearchFloat64s(t.upperBound, d)
	if i >= len(t.upperBound) {
		i = len(t.upperBound) - 1
	}
	return i, nil
}

// ShareAt returns the share of users willing to tolerate <= t.
func (t *Table) ShareAt(d float64) (float64, error) {
	i, err := t.index(d)
	if err != nil {
		return 0, err
	}
	return t.share[i], nil
}

// TailShareAt returns the fraction of users whose tolerance is >= t, i.e.
// the tail sum from t's bucket onward. This is the query both attractiveness
// models use (sum_of_user_shares_after in the original implementation).
func (t *Table) TailShareAt(d float64) (float64, error) {
	i, err := t.index(d)
	if err != nil {
		return 0, err
	}
	return t.tailSum[i], nil
}

// Limit returns the last upper bound, the table's maximum representable
// duration and the natural Dijkstra cost limit for searches against it.
func (t *Table) Limit() float64 { return t.upperBound[len(t.upperBound)-1] }

// UpperBounds returns a copy of the bucket upper bounds (seconds), in
// ascending order. Consumers that need to derive their own bucket
// boundaries (pkg/popularity's walking/cycling buckets) use this rather
// than re-deriving the table from raw preference rows.
func (t *Table) UpperBounds() []float64 {
	return append([]float64(nil), t.upperBound...)
}

// Shares returns a copy of the per-bucket shares, parallel to UpperBounds.
func (t *Table) Shares() []float64 {
	return append([]float64(nil), t.share...)
}
