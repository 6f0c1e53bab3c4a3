// Package snap builds an R-tree index over a graph's node geometry and
// answers nearest-node queries. This is the Go-native analogue of the
// original's Tree2d.cpp k-d-tree, explicitly scoped by spec.md §1 as an
// "external collaborator" rather than part of the algorithmic core — it
// exists so raw (x, y) entry/parking positions can be mapped to graph node
// ids before the core ever runs.
package snap

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"github.com/sternisko/forestreach/pkg/geo"
	"github.com/sternisko/forestreach/pkg/graph"
)

// ErrNoNodes is returned when the index has nothing to search.
var ErrNoNodes = errors.New("snap: index has no geometry-bearing nodes")

// Index is a nearest-node lookup over a graph's node geometry.
type Index struct {
	tree  rtree.RTreeG[uint32]
	nodes []graph.Node
	count int
}

// Build indexes every node in g that carries geometry. Nodes with no
// geometry (HasGeom == false) are skipped; they can never be snap targets.
func Build(g *graph.Graph) *Index {
	idx := &Index{nodes: g.Nodes()}
	for v := uint32(0); v < g.NumNodes(); v++ {
		if idx.nodes == nil {
			break
		}
		n := idx.nodes[v]
		if !n.HasGeom {
			continue
		}
		point := [2]float64{n.Lat, n.Lon}
		idx.tree.Insert(point, point, v)
		idx.count++
	}
	return idx
}

// startSearchRadiusDeg is the initial half-width of the search box, in
// degrees (~1.1km at the equator); the box doubles until it yields at least
// one candidate.
const startSearchRadiusDeg = 0.01

// maxSearchRadiusDeg bounds the expansion so a point nowhere near any node
// fails fast instead of scanning the whole tree.
const maxSearchRadiusDeg = 20.0

// Nearest returns the node id closest to (lat, lon) by great-circle
// distance. The rtree package exposes range search, not a built-in
// k-nearest-neighbour query, so Nearest uses the standard expanding-box
// technique: search a growing window until it contains at least one point,
// then search once more at double that radius (to catch a closer point
// just outside a box corner) and pick the true minimum among everything
// seen in the final window.
func (idx *Index) Nearest(lat, lon float64) (uint32, float64, error) {
	if idx.count == 0 {
		return 0, 0, ErrNoNodes
	}

	radius := startSearchRadiusDeg
	for {
		if anyWithin(idx, lat, lon, radius) || radius > maxSearchRadiusDeg {
			break
		}
		radius *= 2
	}
	// One more doubling catches points just outside the box that first
	// found a hit but whose true nearest neighbour sits across a corner.
	radius *= 2

	var best uint32
	bestDist := math.Inf(1)
	found := false
	searchBox(idx, lat, lon, radius, func(nodeID uint32, nodeLat, nodeLon float64) {
		d := geo.Haversine(lat, lon, nodeLat, nodeLon)
		if d < bestDist {
			bestDist = d
			best = nodeID
			found = true
		}
	})
	if !found {
		return 0, 0, ErrNoNodes
	}
	return best, bestDist, nil
}

func anyWithin(idx *Index, lat, lon, radius float64) bool {
	hit := false
	min := [2]float64{lat - radius, lon - radius}
	max := [2]float64{lat + radius, lon + radius}
	idx.tree.Search(min, max, func(_, _ [2]float64, _ uint32) bool {
		hit = true
		return false // first hit is enough
	})
	return hit
}

func searchBox(idx *Index, lat, lon, radius float64, visit func(nodeID uint32, nodeLat, nodeLon float64)) {
	min := [2]float64{lat - radius, lon - radius}
	max := [2]float64{lat + radius, lon + radius}
	idx.tree.Search(min, max, func(_, _ [2]float64, data uint32) bool {
		n := idx.nodes[data]
		visit(data, n.Lat, n.Lon)
		return true
	})
}
