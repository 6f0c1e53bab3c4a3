// Command attractiveness runs the forest road attractiveness pipeline
// (spec.md §4.9): it loads a graph and its forest entries, simplifies the
// graph, runs one of the two attractiveness models, unpacks the result back
// onto the original arc ids, and writes the per-arc output file.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sternisko/forestreach/internal/progress"
	"github.com/sternisko/forestreach/pkg/flooding"
	"github.com/sternisko/forestreach/pkg/graph"
	"github.com/sternisko/forestreach/pkg/ioformat"
	"github.com/sternisko/forestreach/pkg/preferences"
	"github.com/sternisko/forestreach/pkg/simplify"
	"github.com/sternisko/forestreach/pkg/viaedge"
)

const usage = "usage: attractiveness graphFile entryPositionsFile entryPopulationFile preferencesFile approach outputFile"

func main() {
	if len(os.Args) != 7 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	graphFile := os.Args[1]
	entryPositionsFile := os.Args[2]
	entryPopulationFile := os.Args[3]
	preferencesFile := os.Args[4]
	approach := os.Args[5]
	outputFile := os.Args[6]

	if approach != "0" && approach != "1" {
		fmt.Fprintln(os.Stderr, usage+" (approach must be 0 or 1)")
		os.Exit(1)
	}

	if err := run(graphFile, entryPositionsFile, entryPopulationFile, preferencesFile, approach, outputFile); err != nil {
		log.Fatalf("attractiveness: %v", err)
	}
	fmt.Println("OK")
}

func run(graphFile, entryPositionsFile, entryPopulationFile, preferencesFile, approach, outputFile string) error {
	start := time.Now()

	log.Printf("loading graph from %s...", graphFile)
	g, err := graph.LoadFromText(graphFile, true)
	if err != nil {
		return err
	}
	assignOriginalFids(g)
	log.Printf("graph: %d nodes, %d arcs", g.NumNodes(), g.NumArcs())

	entryRows, err := ioformat.ReadEntries(entryPositionsFile)
	if err != nil {
		return err
	}
	populations, err := ioformat.ReadFloats(entryPopulationFile)
	if err != nil {
		return err
	}
	if len(populations) != len(entryRows) {
		return fmt.Errorf("entry population file has %d rows, want %d (one per entry)", len(populations), len(entryRows))
	}

	upperBound, share, err := ioformat.ReadPreferences(preferencesFile)
	if err != nil {
		return err
	}
	prefs, err := preferences.New(upperBound, share)
	if err != nil {
		return err
	}
	maxCost := int64(prefs.Limit())

	protect := make(map[uint32]bool, len(entryRows))
	for _, e := range entryRows {
		protect[e.ForestNode] = true
	}

	log.Println("simplifying graph...")
	simplified := simplify.Contract(g, protect)
	log.Printf("simplified graph: %d nodes, %d arcs", simplified.Graph.NumNodes(), simplified.Graph.NumArcs())

	result, err := compute(approach, simplified.Graph, entryRows, populations, prefs, maxCost, simplified.IndexShift)
	if err != nil {
		return err
	}

	output := unpackToOriginalArcs(simplified, g.NumArcs(), result)

	log.Printf("writing output to %s...", outputFile)
	if err := ioformat.WriteFloats(outputFile, output); err != nil {
		return err
	}
	log.Printf("done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// assignOriginalFids stamps each arc with its post-load, sorted position as
// its provenance id, overwriting any fid read from the graph file's optional
// fid column: the CSR array index IS the original-arc identity that
// unpacking later maps shortcuts back onto.
func assignOriginalFids(g *graph.Graph) {
	arcs := g.ArcList()
	for i := range arcs {
		arcs[i].Fid = int32(i)
	}
}

func compute(approach string, g *graph.Graph, entryRows []ioformat.EntryRow, populations []float64, prefs *preferences.Table, maxCost int64, indexShift []int32) ([]float32, error) {
	progressTicker := progress.NewTicker("attractiveness", len(entryRows), 2*time.Second)
	switch approach {
	case "0":
		entries := make([]flooding.Entry, len(entryRows))
		for i, e := range entryRows {
			entries[i] = flooding.Entry{Node: remapEntry(e.ForestNode, indexShift), Population: float32(populations[i])}
			progressTicker.Tick()
		}
		return flooding.Compute(g, entries, prefs, maxCost)
	case "1":
		entries := make([]viaedge.Entry, len(entryRows))
		for i, e := range entryRows {
			entries[i] = viaedge.Entry{Node: remapEntry(e.ForestNode, indexShift), Population: float32(populations[i])}
			progressTicker.Tick()
		}
		return viaedge.Compute(g, entries, prefs, maxCost, viaedge.Config{})
	default:
		return nil, fmt.Errorf("unknown approach %q", approach)
	}
}

// remapEntry translates an original-graph node id through the simplifier's
// indexShift, per SPEC_FULL.md Open Question (c): the attractiveness driver
// simplifies the graph and must propagate shifted ids into its entry list.
// Entries are always protected nodes, so IndexShift is never negative here.
func remapEntry(original uint32, indexShift []int32) uint32 {
	return uint32(indexShift[original])
}

// unpackToOriginalArcs writes each simplified arc's computed value back onto
// every original arc id its provenance covers (spec.md §4.9: "writing each
// shortcut's weight to every originalFid in its provenance list").
func unpackToOriginalArcs(simplified simplify.Result, numOriginalArcs int, result []float32) []float32 {
	output := make([]float32, numOriginalArcs)
	for i, arc := range simplified.Graph.ArcList() {
		v := result[i]
		if provenance, ok := simplified.Provenance[arc.Fid]; ok {
			for _, fid := range provenance {
				output[fid] = v
			}
			continue
		}
		output[arc.Fid] = v
	}
	return output
}
