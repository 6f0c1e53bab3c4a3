// Command snapentries builds an entries-and-parking file (spec.md §6) from
// raw (x, y) forest entry positions by snapping each point to its nearest
// node in both the road graph and the forest road graph. This is the
// Go-native analogue of the original's MatchForestEntriesMain.cpp / Tree2d.cpp
// and sits outside the algorithmic core (spec.md §1 scopes k-d-tree
// nearest-neighbour lookup as an external collaborator): it is not invoked
// by cmd/attractiveness or cmd/popularity, which both consume its output.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sternisko/forestreach/internal/snap"
	"github.com/sternisko/forestreach/pkg/graph"
)

const usage = "usage: snapentries roadGraphFile forestGraphFile pointsFile outputFile"

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	roadGraphFile := os.Args[1]
	forestGraphFile := os.Args[2]
	pointsFile := os.Args[3]
	outputFile := os.Args[4]

	if err := run(roadGraphFile, forestGraphFile, pointsFile, outputFile); err != nil {
		log.Fatalf("snapentries: %v", err)
	}
	fmt.Println("OK")
}

// point is one raw (x, y) forest entry location awaiting road/forest node
// assignment, mirroring the original's XYRF before R and F are filled in.
type point struct {
	X, Y float64
}

func readPoints(path string) ([]point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var points []point
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s: expected 2 columns (x y), got %d", path, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: not a number %q", path, fields[0])
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: not a number %q", path, fields[1])
		}
		points = append(points, point{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return points, nil
}

func run(roadGraphFile, forestGraphFile, pointsFile, outputFile string) error {
	log.Printf("loading road graph from %s...", roadGraphFile)
	roadGraph, err := graph.LoadFromText(roadGraphFile, false)
	if err != nil {
		return err
	}
	log.Printf("loading forest graph from %s...", forestGraphFile)
	forestGraph, err := graph.LoadFromText(forestGraphFile, false)
	if err != nil {
		return err
	}

	points, err := readPoints(pointsFile)
	if err != nil {
		return err
	}

	roadIdx := snap.Build(roadGraph)
	forestIdx := snap.Build(forestGraph)

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputFile, err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	for _, p := range points {
		// X, Y here are already in (lat, lon)-comparable coordinates, the
		// same convention pkg/graph.Node carries them in.
		roadNode, _, err := roadIdx.Nearest(p.X, p.Y)
		if err != nil {
			return fmt.Errorf("snapping (%g, %g) to road graph: %w", p.X, p.Y, err)
		}
		forestNode, _, err := forestIdx.Nearest(p.X, p.Y)
		if err != nil {
			return fmt.Errorf("snapping (%g, %g) to forest graph: %w", p.X, p.Y, err)
		}
		if _, err := fmt.Fprintf(w, "%g %g %d %d\n", p.X, p.Y, roadNode, forestNode); err != nil {
			return err
		}
	}
	log.Printf("wrote %d entries to %s", len(points), outputFile)
	return w.Flush()
}
