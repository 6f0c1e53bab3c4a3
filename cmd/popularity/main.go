// Command popularity runs the reachability-based popularity mapper
// (spec.md §4.8): it snaps a population grid onto a road graph, distributes
// population across forest entries for walking and cycling and the car
// population across parking lots by rank, and writes the per-entry
// popularity vector to outputFile (spec.md §6: one f32 per line, entry
// order) and the per-parking-lot car population to a sibling
// "<outputFile>.parking" file.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sternisko/forestreach/internal/progress"
	"github.com/sternisko/forestreach/internal/snap"
	"github.com/sternisko/forestreach/pkg/graph"
	"github.com/sternisko/forestreach/pkg/ioformat"
	"github.com/sternisko/forestreach/pkg/popularity"
	"github.com/sternisko/forestreach/pkg/preferences"
)

const usage = "usage: popularity graphFile entriesAndParkingFile populationFile preferencesFile parkingFile outputFile [walkShare bikeShare carShare]"

func main() {
	// SPEC_FULL.md §5 Open Question (a): argc must be exactly 7 (no mode
	// shares) or exactly 10 (explicit walk/bike/car shares); every other
	// count is a usage error.
	if len(os.Args) != 7 && len(os.Args) != 10 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	graphFile := os.Args[1]
	entriesFile := os.Args[2]
	populationFile := os.Args[3]
	preferencesFile := os.Args[4]
	parkingFile := os.Args[5]
	outputFile := os.Args[6]

	shares := popularity.ModeShares{
		Walking: popularity.DefaultWalkShare,
		Cycling: popularity.DefaultBikeShare,
		Car:     popularity.DefaultCarShare,
	}
	if len(os.Args) == 10 {
		var err error
		shares, err = parseShares(os.Args[7], os.Args[8], os.Args[9])
		if err != nil {
			fmt.Fprintln(os.Stderr, usage+": "+err.Error())
			os.Exit(1)
		}
	}

	if err := run(graphFile, entriesFile, populationFile, preferencesFile, parkingFile, outputFile, shares); err != nil {
		log.Fatalf("popularity: %v", err)
	}
	fmt.Println("OK")
}

func parseShares(walk, bike, car string) (popularity.ModeShares, error) {
	var s popularity.ModeShares
	var err error
	if s.Walking, err = parseFloat(walk); err != nil {
		return s, err
	}
	if s.Cycling, err = parseFloat(bike); err != nil {
		return s, err
	}
	if s.Car, err = parseFloat(car); err != nil {
		return s, err
	}
	const eps = 1e-4
	if sum := s.Walking + s.Cycling + s.Car; sum < 1-eps || sum > 1+eps {
		return s, fmt.Errorf("walkShare+bikeShare+carShare must sum to 1, got %g", sum)
	}
	return s, nil
}

func parseFloat(s string) (float64, error) {
	var v float64
	_, err := fmt.Sscanf(s, "%g", &v)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func run(graphFile, entriesFile, populationFile, preferencesFile, parkingFile, outputFile string, shares popularity.ModeShares) error {
	start := time.Now()

	log.Printf("loading graph from %s...", graphFile)
	g, err := graph.LoadFromText(graphFile, true)
	if err != nil {
		return err
	}
	log.Printf("graph: %d nodes, %d arcs", g.NumNodes(), g.NumArcs())

	entryRows, err := ioformat.ReadEntries(entriesFile)
	if err != nil {
		return err
	}
	// SPEC_FULL.md §5 Open Question (c): the popularity driver never
	// simplifies the graph, so forest-entry node ids are used as-is.
	entries := make([]uint32, len(entryRows))
	for i, e := range entryRows {
		entries[i] = e.ForestNode
	}

	populationRows, err := ioformat.ReadPopulation(populationFile)
	if err != nil {
		return err
	}

	upperBound, share, err := ioformat.ReadPreferences(preferencesFile)
	if err != nil {
		return err
	}
	prefs, err := preferences.New(upperBound, share)
	if err != nil {
		return err
	}

	parkingRows, err := ioformat.ReadParking(parkingFile)
	if err != nil {
		return err
	}

	log.Println("building nearest-node index...")
	idx := snap.Build(g)
	population := make([]popularity.PopulationPoint, 0, len(populationRows))
	progressTicker := progress.NewTicker("snapping population", len(populationRows), 2*time.Second)
	for _, p := range populationRows {
		node, _, err := idx.Nearest(p.Lat, p.Lon)
		if err != nil {
			return fmt.Errorf("popularity: snapping population point (%g, %g): %w", p.Lat, p.Lon, err)
		}
		population = append(population, popularity.PopulationPoint{Node: node, Population: p.Population})
		progressTicker.Tick()
	}

	log.Println("mapping popularity...")
	result, err := popularity.Map(g, entries, population, prefs, shares)
	if err != nil {
		return err
	}

	log.Printf("writing output to %s...", outputFile)
	if err := ioformat.WriteFloats64(outputFile, result.Popularity); err != nil {
		return err
	}

	parkingLots := make([]popularity.ParkingLot, len(parkingRows))
	for i, p := range parkingRows {
		parkingLots[i] = popularity.ParkingLot{Lat: p.Lat, Lon: p.Lon, Rank: p.Rank, Population: p.Population}
	}
	carByLot := popularity.DistributeCarPopulation(result.CarPopulation, parkingLots)
	parkingOutputFile := outputFile + ".parking"
	log.Printf("writing per-parking-lot car population to %s...", parkingOutputFile)
	if err := ioformat.WriteFloats64(parkingOutputFile, carByLot); err != nil {
		return err
	}

	log.Printf("done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
