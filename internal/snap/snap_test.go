package snap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sternisko/forestreach/pkg/graph"
)

func buildGeoGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.Node{
		{Lat: 1.300, Lon: 103.800, HasGeom: true},
		{Lat: 1.301, Lon: 103.801, HasGeom: true},
		{Lat: 1.310, Lon: 103.810, HasGeom: true},
	}
	arcs := []graph.Arc{
		{Source: 0, Target: 1, Cost: 1, Fid: graph.NoFid},
		{Source: 1, Target: 0, Cost: 1, Fid: graph.NoFid},
	}
	graph.SortArcs(arcs)
	g, err := graph.FromRows(nodes, arcs, false)
	require.NoError(t, err)
	return g
}

func TestNearest_FindsClosestNode(t *testing.T) {
	g := buildGeoGraph(t)
	idx := Build(g)

	node, dist, err := idx.Nearest(1.3001, 103.8001)
	require.NoError(t, err)
	require.Equal(t, uint32(0), node)
	require.GreaterOrEqual(t, dist, 0.0)
}

func TestNearest_FarPointStillFindsSomething(t *testing.T) {
	g := buildGeoGraph(t)
	idx := Build(g)

	node, _, err := idx.Nearest(1.5, 104.0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), node, "node 2 is geographically closest to a far query point")
}

func TestNearest_EmptyIndex(t *testing.T) {
	nodes := []graph.Node{{HasGeom: false}}
	arcs := []graph.Arc{}
	g, err := graph.FromRows(nodes, arcs, false)
	require.NoError(t, err)

	idx := Build(g)
	_, _, err = idx.Nearest(0, 0)
	require.ErrorIs(t, err, ErrNoNodes)
}
