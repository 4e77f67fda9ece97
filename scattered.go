// This file implements the scattered-id overlay over ProximityGraph.
//
// Dense graphs require contiguous node ids starting at zero. Callers
// usually have arbitrary ids instead - vector ids survive removals, so
// their sequence grows holes over time. The scattered graph maps each
// external id onto a dense id the first time it appears in a connection,
// and keeps the dense graph none the wiser.
package vectoria

import "github.com/RoaringBitmap/roaring"

// ScatteredProximityGraph is a ProximityGraph keyed by arbitrary external
// node ids. The mapping from external to dense ids is created lazily: an id
// is assigned a dense slot the first time Connect sees it.
//
// Invariants: every dense id has at most one external id mapped to it, and
// every external id passed to Connect is mapped before the dense graph is
// touched.
//
// Thread-safety: none, matching ProximityGraph.
type ScatteredProximityGraph struct {
	graph   *ProximityGraph
	mapping map[uint32]uint32
}

// NewScatteredGraph creates an empty scattered graph.
func NewScatteredGraph() *ScatteredProximityGraph {
	return &ScatteredProximityGraph{
		graph:   NewProximityGraph(),
		mapping: make(map[uint32]uint32),
	}
}

// NewScatteredGraphWithCapacity creates an empty scattered graph with
// storage preallocated for capacity nodes.
func NewScatteredGraphWithCapacity(capacity uint32) *ScatteredProximityGraph {
	return &ScatteredProximityGraph{
		graph:   NewProximityGraphWithCapacity(capacity),
		mapping: make(map[uint32]uint32, capacity),
	}
}

// ScatteredFromAdjacencyList builds a scattered graph from an edge list
// whose node ids may be arbitrary.
func ScatteredFromAdjacencyList(edges []Edge) *ScatteredProximityGraph {
	unique := roaring.New()
	for _, e := range edges {
		unique.Add(e.A)
		unique.Add(e.B)
	}
	g := NewScatteredGraphWithCapacity(uint32(unique.GetCardinality()))
	for _, e := range edges {
		g.Connect(e.A, e.B, e.Distance)
	}
	return g
}

// ScatterGraph wraps an existing dense graph in a scattered view. Every
// dense node with at least one edge is mapped to itself, so external and
// dense ids coincide for the wrapped nodes.
func ScatterGraph(graph *ProximityGraph) *ScatteredProximityGraph {
	mapping := make(map[uint32]uint32)
	for node := uint32(0); node < graph.Len(); node++ {
		if !graph.Neighbors(node).IsEmpty() {
			mapping[node] = node
		}
	}
	return &ScatteredProximityGraph{
		graph:   graph,
		mapping: mapping,
	}
}

// Len returns the number of nodes in the underlying dense graph.
func (g *ScatteredProximityGraph) Len() uint32 {
	return g.graph.Len()
}

// Capacity returns the dense graph's capacity.
func (g *ScatteredProximityGraph) Capacity() uint32 {
	return g.graph.Capacity()
}

// IsEmpty returns true if no node has been mapped yet.
func (g *ScatteredProximityGraph) IsEmpty() bool {
	return g.graph.IsEmpty()
}

// denseOrInsert resolves an external id to its dense id, growing the dense
// graph by one node on first sight.
func (g *ScatteredProximityGraph) denseOrInsert(node uint32) uint32 {
	if dense, ok := g.mapping[node]; ok {
		return dense
	}
	dense := g.graph.GrowOne()
	g.mapping[node] = dense
	return dense
}

// Connect records an edge between two external ids, mapping either id onto
// a fresh dense slot if it has not been seen before. Because the mapping is
// extended before the dense graph is addressed, Connect cannot go out of
// bounds.
func (g *ScatteredProximityGraph) Connect(a, b uint32, distance float32) {
	da := g.denseOrInsert(a)
	db := g.denseOrInsert(b)
	// Both ids are mapped, so the dense connect cannot fail.
	_ = g.graph.Connect(da, db, distance)
}

// Neighbors returns the dense ids connected to the given external id. An
// unmapped id yields an empty set - a normal outcome, not an error.
func (g *ScatteredProximityGraph) Neighbors(node uint32) *roaring.Bitmap {
	dense, ok := g.mapping[node]
	if !ok {
		return roaring.New()
	}
	return g.graph.Neighbors(dense)
}

// WeightedNeighbors returns the dense neighbors of the given external id
// with their edge weights. An unmapped id yields nil.
func (g *ScatteredProximityGraph) WeightedNeighbors(node uint32) []WeightedEdge {
	dense, ok := g.mapping[node]
	if !ok {
		return nil
	}
	return g.graph.WeightedNeighbors(dense)
}

// Distance returns the edge weight between two external ids. Unlike
// Neighbors, querying an unmapped id is an error here: a pairwise distance
// against an unknown node is a caller mistake, not an empty result.
//
// Returns a *NodeNotFoundError naming the first unmapped id.
func (g *ScatteredProximityGraph) Distance(a, b uint32) (distance float32, connected bool, err error) {
	da, ok := g.mapping[a]
	if !ok {
		return 0, false, &NodeNotFoundError{Node: a}
	}
	db, ok := g.mapping[b]
	if !ok {
		return 0, false, &NodeNotFoundError{Node: b}
	}
	return g.graph.Distance(da, db)
}
