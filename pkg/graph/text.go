package graph

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFromText reads the whitespace-delimited graph file format (spec.md §6):
//
//	<numNodes>
//	<numArcs>
//	<x0> <y0>
//	...
//	<source> <target> <cost> [<weight> [<fid>]]
//	...
//
// Nodes are listed first in index order; arcs follow one per line. An arc
// line may carry 3, 4 or 5 fields — weight and fid default to 0 and NoFid
// when absent, and any fields beyond the fifth are ignored. Arcs need not
// already be sorted; LoadFromText sorts them by (source, target) before
// building the Graph. assertBidirectional is forwarded to FromRows.
func LoadFromText(path string, assertBidirectional bool) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	fields := func(what string) ([]string, error) {
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			return strings.Fields(line), nil
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("graph: reading %s: %w", what, err)
		}
		return nil, fmt.Errorf("graph: unexpected EOF reading %s", what)
	}
	parseInt := func(tok, what string) (int64, error) {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("graph: %s: not an integer %q", what, tok)
		}
		return v, nil
	}
	parseFloat := func(tok, what string) (float64, error) {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, fmt.Errorf("graph: %s: not a number %q", what, tok)
		}
		return v, nil
	}

	hdr, err := fields("numNodes")
	if err != nil {
		return nil, err
	}
	numNodes, err := parseInt(hdr[0], "numNodes")
	if err != nil {
		return nil, err
	}
	hdr, err = fields("numArcs")
	if err != nil {
		return nil, err
	}
	numArcs, err := parseInt(hdr[0], "numArcs")
	if err != nil {
		return nil, err
	}
	if numNodes < 0 || numArcs < 0 {
		return nil, fmt.Errorf("graph: negative counts numNodes=%d numArcs=%d", numNodes, numArcs)
	}

	nodes := make([]Node, numNodes)
	for i := range nodes {
		row, err := fields("node row")
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("graph: node %d: expected \"x y\", got %q", i, strings.Join(row, " "))
		}
		x, err := parseFloat(row[0], "node x")
		if err != nil {
			return nil, err
		}
		y, err := parseFloat(row[1], "node y")
		if err != nil {
			return nil, err
		}
		nodes[i] = Node{Lat: x, Lon: y, HasGeom: true}
	}

	arcs := make([]Arc, numArcs)
	for i := range arcs {
		row, err := fields("arc row")
		if err != nil {
			return nil, err
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("graph: arc %d: expected at least \"source target cost\", got %q", i, strings.Join(row, " "))
		}
		source, err := parseInt(row[0], "arc source")
		if err != nil {
			return nil, err
		}
		target, err := parseInt(row[1], "arc target")
		if err != nil {
			return nil, err
		}
		cost, err := parseInt(row[2], "arc cost")
		if err != nil {
			return nil, err
		}
		arc := Arc{Source: uint32(source), Target: uint32(target), Cost: int32(cost), Fid: NoFid}
		if len(row) >= 4 {
			weight, err := parseInt(row[3], "arc weight")
			if err != nil {
				return nil, err
			}
			arc.Weight = int32(weight)
		}
		if len(row) >= 5 {
			fid, err := parseInt(row[4], "arc fid")
			if err != nil {
				return nil, err
			}
			arc.Fid = int32(fid)
		}
		arcs[i] = arc
	}

	SortArcs(arcs)
	g, err := FromRows(nodes, arcs, assertBidirectional)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// DumpToText writes the graph back out in the format LoadFromText reads,
// always with all five columns so a round trip is lossless.
func DumpToText(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("graph: create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := fmt.Fprintf(w, "%d\n%d\n", g.NumNodes(), g.NumArcs()); err != nil {
		return err
	}
	for v := uint32(0); v < g.NumNodes(); v++ {
		n, _ := g.Node(v)
		if _, err := fmt.Fprintf(w, "%g %g\n", n.Lat, n.Lon); err != nil {
			return err
		}
	}
	for _, a := range g.arcs {
		if _, err := fmt.Fprintf(w, "%d %d %d %d %d\n", a.Source, a.Target, a.Cost, a.Weight, a.Fid); err != nil {
			return err
		}
	}
	return w.Flush()
}
