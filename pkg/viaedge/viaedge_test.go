package viaedge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sternisko/forestreach/pkg/graph"
	"github.com/sternisko/forestreach/pkg/preferences"
)

// buildSquare builds spec.md scenario S2: A-B, A-C, A-D, B-D, C-D with costs
// {6, 9, 7, 6, 9} respectively, all bidirectional with uniform weight 1.
// Node ids: A=0, B=1, C=2, D=3.
func buildSquare(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := make([]graph.Node, 4)
	type edge struct {
		u, v uint32
		cost int32
	}
	edges := []edge{
		{0, 1, 6}, // A-B
		{0, 2, 9}, // A-C
		{0, 3, 7}, // A-D
		{1, 3, 6}, // B-D
		{2, 3, 9}, // C-D
	}
	var arcs []graph.Arc
	for _, e := range edges {
		arcs = append(arcs,
			graph.Arc{Source: e.u, Target: e.v, Cost: e.cost, Weight: 1, Fid: graph.NoFid},
			graph.Arc{Source: e.v, Target: e.u, Cost: e.cost, Weight: 1, Fid: graph.NoFid},
		)
	}
	graph.SortArcs(arcs)
	g, err := graph.FromRows(nodes, arcs, true)
	require.NoError(t, err)
	return g
}

func s2Preferences(t *testing.T) *preferences.Table {
	t.Helper()
	tbl, err := preferences.New([]float64{150, 300}, []float64{0.5, 0.5})
	require.NoError(t, err)
	return tbl
}

func arcValue(t *testing.T, g *graph.Graph, result []float32, source, target uint32) float32 {
	t.Helper()
	for arcID, a := range g.ArcList() {
		if a.Source == source && a.Target == target {
			return result[arcID]
		}
	}
	t.Fatalf("no arc %d->%d", source, target)
	return 0
}

func TestCompute_S2_Square(t *testing.T) {
	g := buildSquare(t)
	prefs := s2Preferences(t)
	entries := []Entry{
		{Node: 0, Population: 100}, // A
		{Node: 3, Population: 100}, // D
	}

	result, err := Compute(g, entries, prefs, 300, Config{Workers: 1})
	require.NoError(t, err)

	adMax := arcValue(t, g, result, 0, 3)
	daMax := arcValue(t, g, result, 3, 0)

	for arcID := range g.ArcList() {
		require.LessOrEqual(t, result[arcID], adMax+1e-6, "A->D (or D->A) should carry the system maximum")
		require.LessOrEqual(t, result[arcID], daMax+1e-6, "A->D (or D->A) should carry the system maximum")
	}

	abDetour := arcValue(t, g, result, 0, 1) + arcValue(t, g, result, 1, 3)
	acDetour := arcValue(t, g, result, 0, 2) + arcValue(t, g, result, 2, 3)
	require.Greater(t, abDetour, acDetour, "the cheaper A-B-D detour should score higher than the costlier A-C-D detour")
}

func TestCompute_EmptyEntries(t *testing.T) {
	g := buildSquare(t)
	prefs := s2Preferences(t)
	result, err := Compute(g, []Entry{}, prefs, 300, Config{})
	require.NoError(t, err)
	for _, v := range result {
		require.Equal(t, float32(0), v)
	}
}

func TestCompute_NegativeMaxCost(t *testing.T) {
	g := buildSquare(t)
	prefs := s2Preferences(t)
	entries := []Entry{{Node: 0, Population: 100}, {Node: 3, Population: 100}}
	result, err := Compute(g, entries, prefs, -1, Config{})
	require.NoError(t, err)
	for _, v := range result {
		require.Equal(t, float32(0), v)
	}
}

func TestBuildCounterpartMap_PairsBidirectionalArcs(t *testing.T) {
	g := buildSquare(t)
	cp := buildCounterpartMap(g)
	arcs := g.ArcList()
	for i, a := range arcs {
		j := cp[i]
		require.GreaterOrEqual(t, j, int32(0), "every arc in a bidirectional graph should have a counterpart")
		other := arcs[j]
		require.Equal(t, a.Source, other.Target)
		require.Equal(t, a.Target, other.Source)
	}
}

func TestCompute_DeterministicAcrossWorkerCounts(t *testing.T) {
	g := buildSquare(t)
	prefs := s2Preferences(t)
	entries := []Entry{{Node: 0, Population: 100}, {Node: 3, Population: 100}}

	single, err := Compute(g, entries, prefs, 300, Config{Workers: 1})
	require.NoError(t, err)
	multi, err := Compute(g, entries, prefs, 300, Config{Workers: 4})
	require.NoError(t, err)

	for i := range single {
		require.InDelta(t, single[i], multi[i], 1e-4)
	}
}
