// This file implements the dense proximity graph backing one index layer.
//
// WHAT IS A PROXIMITY GRAPH?
// Each layer of the index is a weighted non-directional graph: nodes are
// vectors, edge weights are precomputed distances. The graph only stores
// connectivity - it is populated from the layer section at load time and
// never traversed for search by this package.
//
// STORAGE LAYOUT:
// An adjacency matrix keeps pairwise lookups O(1). Because edges are
// non-directional, only the lower triangle is stored: the cell for the
// unordered pair (a, b) is row max(a,b), column min(a,b), so every pair
// has exactly one storage cell. Absent edges hold +Inf.
package vectoria

import (
	"math"

	"github.com/RoaringBitmap/roaring"
)

// noEdge is the sentinel stored in matrix cells without a connection.
var noEdge = float32(math.Inf(1))

// Edge is one weighted connection between two nodes, as it appears in an
// adjacency list or the on-disk layer section.
type Edge struct {
	A        uint32
	B        uint32
	Distance float32
}

// WeightedEdge is a neighbor paired with its edge weight.
type WeightedEdge struct {
	Node     uint32
	Distance float32
}

// ProximityGraph is a weighted non-directional graph over the dense node id
// range [0, Len).
//
// Thread-safety: none. A graph belongs to exactly one layer and is guarded
// by its owner.
type ProximityGraph struct {
	length   uint32
	capacity uint32

	// matrix[row] has row+1 cells, one per column in [0, row].
	matrix [][]float32
}

// NewProximityGraph creates an empty graph with no preallocated storage.
func NewProximityGraph() *ProximityGraph {
	return &ProximityGraph{}
}

// NewProximityGraphWithCapacity creates an empty graph with storage
// preallocated for capacity nodes.
func NewProximityGraphWithCapacity(capacity uint32) *ProximityGraph {
	matrix := make([][]float32, capacity)
	for row := uint32(0); row < capacity; row++ {
		matrix[row] = newMatrixRow(row)
	}
	return &ProximityGraph{
		capacity: capacity,
		matrix:   matrix,
	}
}

// FromAdjacencyList builds a graph sized to the maximum referenced node id
// plus one and connects every listed edge. Later duplicates of the same
// unordered pair overwrite earlier ones.
func FromAdjacencyList(edges []Edge) *ProximityGraph {
	var length uint32
	for _, e := range edges {
		if e.A >= length {
			length = e.A + 1
		}
		if e.B >= length {
			length = e.B + 1
		}
	}

	g := NewProximityGraphWithCapacity(length)
	g.length = length
	for _, e := range edges {
		row, col := canonicalPair(e.A, e.B)
		g.matrix[row][col] = e.Distance
	}
	return g
}

func newMatrixRow(row uint32) []float32 {
	cells := make([]float32, row+1)
	for i := range cells {
		cells[i] = noEdge
	}
	return cells
}

// canonicalPair orders two node ids so that (row, col) addresses the single
// storage cell of the unordered pair.
func canonicalPair(a, b uint32) (row, col uint32) {
	if a > b {
		return a, b
	}
	return b, a
}

// Len returns the number of nodes in the graph.
func (g *ProximityGraph) Len() uint32 {
	return g.length
}

// Capacity returns the number of nodes the graph has storage for.
func (g *ProximityGraph) Capacity() uint32 {
	return g.capacity
}

// IsEmpty returns true if the graph holds no nodes.
func (g *ProximityGraph) IsEmpty() bool {
	return g.length == 0
}

// Connect records an edge of the given weight between a and b, overwriting
// any previous weight for the pair. Connections are non-directional:
// Connect(a, b, d) and Connect(b, a, d) address the same cell.
//
// Returns an *OutOfBoundsError if either id is at or beyond Len().
func (g *ProximityGraph) Connect(a, b uint32, distance float32) error {
	if a >= g.length || b >= g.length {
		row, _ := canonicalPair(a, b)
		return &OutOfBoundsError{Expected: row + 1, Actual: g.length}
	}
	row, col := canonicalPair(a, b)
	g.matrix[row][col] = distance
	return nil
}

// Distance returns the weight of the edge between a and b. connected is
// false when no edge exists, which is a normal outcome, not an error.
//
// Returns an *OutOfBoundsError if either id is at or beyond Len().
func (g *ProximityGraph) Distance(a, b uint32) (distance float32, connected bool, err error) {
	if a >= g.length || b >= g.length {
		row, _ := canonicalPair(a, b)
		return 0, false, &OutOfBoundsError{Expected: row + 1, Actual: g.length}
	}
	row, col := canonicalPair(a, b)
	d := g.matrix[row][col]
	if d == noEdge {
		return 0, false, nil
	}
	return d, true, nil
}

// Neighbors returns the set of node ids connected to node. An id at or
// beyond Len() yields an empty set.
func (g *ProximityGraph) Neighbors(node uint32) *roaring.Bitmap {
	neighbors := roaring.New()
	if node >= g.length {
		return neighbors
	}
	for other := uint32(0); other < g.length; other++ {
		row, col := canonicalPair(node, other)
		if g.matrix[row][col] != noEdge {
			neighbors.Add(other)
		}
	}
	return neighbors
}

// WeightedNeighbors returns every neighbor of node together with its edge
// weight, in ascending node order. An id at or beyond Len() yields nil.
func (g *ProximityGraph) WeightedNeighbors(node uint32) []WeightedEdge {
	if node >= g.length {
		return nil
	}
	var result []WeightedEdge
	for other := uint32(0); other < g.length; other++ {
		row, col := canonicalPair(node, other)
		if d := g.matrix[row][col]; d != noEdge {
			result = append(result, WeightedEdge{Node: other, Distance: d})
		}
	}
	return result
}

// AdjacencyList returns every edge of the graph, ordered by canonical
// (row, col) cell position. FromAdjacencyList over the result reproduces
// the graph's connectivity.
func (g *ProximityGraph) AdjacencyList() []Edge {
	var edges []Edge
	for row := uint32(0); row < g.length; row++ {
		for col := uint32(0); col <= row; col++ {
			if d := g.matrix[row][col]; d != noEdge {
				edges = append(edges, Edge{A: row, B: col, Distance: d})
			}
		}
	}
	return edges
}

// Grow adds count nodes to the graph and returns the highest valid id.
// Storage expands by exactly the deficit - no doubling - so repeated
// single-node growth costs one row per call.
func (g *ProximityGraph) Grow(count uint32) uint32 {
	if g.capacity < g.length+count {
		lacking := g.length + count - g.capacity
		for row := g.capacity; row < g.capacity+lacking; row++ {
			g.matrix = append(g.matrix, newMatrixRow(row))
		}
		g.capacity += lacking
	}
	g.length += count
	return g.length - 1
}

// GrowOne adds a single node and returns its id.
func (g *ProximityGraph) GrowOne() uint32 {
	return g.Grow(1)
}
