// Package popularity implements the reachability-based popularity mapper
// (spec.md §4.8): a two-pass Dijkstra reachability survey distributes a
// spatial population grid onto forest entry points, for two transport modes
// (walking, cycling) plus a parking-based car mode.
package popularity

import (
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sternisko/forestreach/pkg/dijkstra"
	"github.com/sternisko/forestreach/pkg/graph"
	"github.com/sternisko/forestreach/pkg/preferences"
)

// BikeSpeedFactor is the scalar factor by which cycling is assumed faster
// than walking (spec.md §4.8: "bikeSpeed = 4 * walkSpeed").
const BikeSpeedFactor = 4.0

// User-study-derived default mode shares (spec.md §4.8, carried from the
// original's kUserShareWalking/kUserShareBicycle/kUserShareCar constants).
const (
	DefaultWalkShare = 71.0 / 124.0
	DefaultBikeShare = 13.0 / 124.0
	DefaultCarShare  = 1.0 - DefaultWalkShare - DefaultBikeShare
)

// ModeShares are the global shares of the population using each mode of
// transport; spec.md requires Walking+Cycling+Car == 1.
type ModeShares struct {
	Walking float64
	Cycling float64
	Car     float64
}

// PopulationPoint is a population grid point already mapped to a road-graph
// node id by the external k-d-tree (spec.md §1, §4.8 inputs).
type PopulationPoint struct {
	Node       uint32
	Population float64
}

// Result is the mapper's output: per-entry popularity and the single
// car-mode population scalar.
type Result struct {
	Popularity    []float64 // parallel to the entries slice passed to Map
	CarPopulation float64
}

// Differs reports whether a and b differ by more than deviation*|a|,
// matching the original's differ() helper (spec.md §4.8 "Deviation
// warnings", §4.9 supplemented diagnostics). deviation defaults to 0.01
// when omitted, mirroring the original's default argument.
func Differs(a, b float64, deviation ...float64) bool {
	d := 0.01
	if len(deviation) > 0 {
		d = deviation[0]
	}
	return math.Abs(a-b) > math.Abs(d*a)
}

// Map runs the two-pass reachability analysis and bucket likelihood
// distribution described in spec.md §4.8. entries are forest entry node
// ids; population is the grid already snapped to road-graph node ids;
// prefs holds the walking-minute preference buckets (already in seconds,
// per spec.md §6's load-time conversion).
func Map(g *graph.Graph, entries []uint32, population []PopulationPoint, prefs *preferences.Table, shares ModeShares) (Result, error) {
	walkBounds := prefs.UpperBounds()
	shareByBucket := prefs.Shares()
	numBuckets := len(walkBounds)

	bikeBounds := make([]float64, numBuckets)
	for i, b := range walkBounds {
		bikeBounds[i] = b * BikeSpeedFactor
	}
	walkLimit := walkBounds[numBuckets-1]
	bikeLimit := bikeBounds[numBuckets-1]

	if len(entries) == 0 {
		return Result{Popularity: nil, CarPopulation: shares.Car * sumPopulation(population)}, nil
	}

	bucketWalk := make([][]float64, len(population))
	bucketBike := make([][]float64, len(population))
	for i := range population {
		bucketWalk[i] = make([]float64, numBuckets)
		bucketBike[i] = make([]float64, numBuckets)
	}

	eng := dijkstra.New(g)
	eng.WithCostLimit(int64(bikeLimit))

	// First pass: reachability survey. For each entry, record which bucket
	// every population point falls into, for both modes.
	for _, e := range entries {
		eng.WithCostLimit(int64(bikeLimit))
		eng.Run(e)
		for i, p := range population {
			if !eng.Settled(p.Node) {
				continue
			}
			cost := float64(eng.Cost(p.Node))
			b := bucketIndex(cost, bikeBounds)
			bucketBike[i][b]++
			if cost <= walkLimit {
				bb := bucketIndex(cost, walkBounds)
				bucketWalk[i][bb]++
			}
		}
	}

	// Likelihood smoothing, in place.
	for i := range population {
		smoothBuckets(bucketWalk[i], walkBounds)
		smoothBuckets(bucketBike[i], bikeBounds)
	}

	// Second pass: distribute population using the bucket likelihoods.
	walkAccum := make([]float64, len(entries))
	bikeAccum := make([]float64, len(entries))
	reachesWalk := make([]bool, len(population))
	reachesBike := make([]bool, len(population))

	for ei, e := range entries {
		eng.WithCostLimit(int64(bikeLimit))
		eng.Run(e)
		for i, p := range population {
			if !eng.Settled(p.Node) {
				continue
			}
			cost := float64(eng.Cost(p.Node))
			b := bucketIndex(cost, bikeBounds)
			bikeAccum[ei] += bucketBike[i][b] * shareByBucket[b] * p.Population
			reachesBike[i] = true

			if cost < walkLimit {
				bb := bucketIndex(cost, walkBounds)
				walkAccum[ei] += bucketWalk[i][bb] * shareByBucket[bb] * p.Population
				reachesWalk[i] = true
			}
		}
	}

	totalPopulation := sumPopulation(population)

	mappedWalk := reachedMass(population, reachesWalk) * shares.Walking
	normalizeAccum(walkAccum, mappedWalk)

	mappedBike := reachedMass(population, reachesBike) * shares.Cycling
	normalizeAccum(bikeAccum, mappedBike)

	var unmapped float64
	for i, p := range population {
		var share float64
		if !reachesWalk[i] {
			share += shares.Walking
		}
		if !reachesBike[i] {
			share += shares.Cycling
		}
		unmapped += share * p.Population
	}
	mapped := mappedWalk + mappedBike
	if mapped > 0 {
		for ei := range entries {
			share := (walkAccum[ei] + bikeAccum[ei]) / mapped
			walkAccum[ei] += share * unmapped
		}
	}

	popularity := make([]float64, len(entries))
	for ei := range entries {
		popularity[ei] = walkAccum[ei] + bikeAccum[ei]
	}

	if Differs(totalPopulation*(1-shares.Walking-shares.Cycling), totalPopulation-(mapped+unmapped)) {
		log.Printf("popularity: remaining unmapped population differs from quota: %g vs %g",
			(1-shares.Walking-shares.Cycling)*totalPopulation, totalPopulation-(mapped+unmapped))
	}
	if Differs(totalPopulation*(shares.Walking+shares.Cycling), mapped+unmapped) {
		log.Printf("popularity: mapped walking+biking population differs from quota: %g vs %g",
			(shares.Walking+shares.Cycling)*totalPopulation, mapped+unmapped)
	}

	carPopulation := shares.Car * totalPopulation
	return Result{Popularity: popularity, CarPopulation: carPopulation}, nil
}

// ParkingLot is one parking lot entry from the parking file (spec.md §6:
// "lat lon rank population").
type ParkingLot struct {
	Lat, Lon   float64
	Rank       float64
	Population float64
}

// DistributeCarPopulation spreads the scalar car population across parking
// lots proportional to rank (spec.md §9 supplemented feature, grounded on
// the original's distribute_car_population). A zero rank sum only guards
// against a divide-by-zero (sumOfRanks defaults to 1); it does not produce
// a uniform split — all-zero ranks still yield zero population per lot,
// matching the original.
func DistributeCarPopulation(total float64, lots []ParkingLot) []float64 {
	if len(lots) == 0 {
		return nil
	}
	ranks := make([]float64, len(lots))
	for i, l := range lots {
		ranks[i] = l.Rank
	}
	sumOfRanks := floats.Sum(ranks)
	if sumOfRanks == 0 {
		sumOfRanks = 1
	}
	out := make([]float64, len(lots))
	for i, r := range ranks {
		out[i] = total * r / sumOfRanks
	}
	if Differs(total, floats.Sum(out)) {
		log.Printf("popularity: input car population differs from distributed parking population: %g vs %g",
			total, floats.Sum(out))
	}
	return out
}

func bucketIndex(cost float64, bounds []float64) int {
	b := 0
	for b < len(bounds) && cost > bounds[b] {
		b++
	}
	if b >= len(bounds) {
		b = len(bounds) - 1
	}
	return b
}

// smoothBuckets rewrites a population point's raw bucket counts into
// likelihoods in place, per spec.md §4.8 step 2.
func smoothBuckets(buckets []float64, bounds []float64) {
	var sum float64
	for b, count := range buckets {
		sum += count * bounds[b]
	}
	if sum <= 0 {
		return
	}
	for b := range buckets {
		if bounds[b] < sum {
			buckets[b] = 1 - bounds[b]/sum
		} else {
			buckets[b] = 1 / float64((b+1)*(b+1))
		}
	}
}

func sumPopulation(population []PopulationPoint) float64 {
	vals := make([]float64, len(population))
	for i, p := range population {
		vals[i] = p.Population
	}
	return floats.Sum(vals)
}

func reachedMass(population []PopulationPoint, reached []bool) float64 {
	var sum float64
	for i, p := range population {
		if reached[i] {
			sum += p.Population
		}
	}
	return sum
}

// normalizeAccum scales accum in place so its total equals target,
// matching spec.md §4.8 step 4. Leaves accum untouched if either the
// current sum or the target is non-positive (can't divide by zero,
// nothing meaningful to normalize).
func normalizeAccum(accum []float64, target float64) {
	current := floats.Sum(accum)
	if current <= 0 || target <= 0 {
		return
	}
	normalizer := current / target
	for i := range accum {
		accum[i] /= normalizer
	}
}
