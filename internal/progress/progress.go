// Package progress implements the wall-clock-gated console progress sink
// spec.md §5 requires ("writes to a progress sink every ~2s of wall time"),
// in the teacher's logging voice (pkg/ch/contractor.go's adaptive
// log.Printf cadence) and the original's Timer-gated printf calls in
// EdgeAttractivenessModel.cpp / ForestEntryPopularityMain.cpp.
package progress

import (
	"log"
	"time"
)

// Ticker logs "done/total" progress at most once per interval of wall
// time, regardless of how often Tick is called, plus once more when the
// final unit completes.
type Ticker struct {
	label    string
	total    int
	interval time.Duration
	done     int
	last     time.Time
}

// NewTicker creates a Ticker that logs under label, out of total units of
// work, at most once every interval.
func NewTicker(label string, total int, interval time.Duration) *Ticker {
	return &Ticker{label: label, total: total, interval: interval, last: time.Now()}
}

// Tick records one unit of completed work and logs if interval has
// elapsed since the last log or if this is the final unit.
func (t *Ticker) Tick() {
	t.done++
	now := time.Now()
	if now.Sub(t.last) < t.interval && t.done != t.total {
		return
	}
	t.last = now
	pct := 0.0
	if t.total > 0 {
		pct = float64(t.done) * 100 / float64(t.total)
	}
	log.Printf("%s: %d of %d, this is %5.1f%%", t.label, t.done, t.total, pct)
}
