package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name:             "forest entry to a trailhead parking lot across the valley",
			lat1:             48.0214, lon1: 8.2103, // entry
			lat2:             48.0987, lon2: 8.3521, // parking lot
			wantMeters:       13_599, // ~13.6 km great-circle
			tolerancePercent: 1,
		},
		{
			name:             "same point",
			lat1:             48.0500, lon1: 8.2500,
			lat2:             48.0500, lon2: 8.2500,
			wantMeters:       0,
			tolerancePercent: 0,
		},
		{
			name:             "two ranger stations at opposite ends of the forest",
			lat1:             47.9321, lon1: 8.0877,
			lat2:             48.3872, lon2: 8.6951,
			wantMeters:       67_754, // ~67.8 km
			tolerancePercent: 1,
		},
		{
			name:             "short hop along a single forest road segment (~100m)",
			lat1:             48.0500, lon1: 8.2500,
			lat2:             48.0509, lon2: 8.2500,
			wantMeters:       100,
			tolerancePercent: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(48.0214, 8.2103, 48.0987, 8.3521)
	}
}
