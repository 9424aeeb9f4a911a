// Package mesh implements the half-adjacency mesh graph described in
// spec §3/§4.3: vertices, edges and facets with incidence tracking and
// per-element classification.
//
// Cross-references are arena indices rather than pointers (Design Notes
// §9): Graph owns flat Edge/Facet arenas and every vertex, edge and facet
// refers to its neighbors by handle. This removes the Vertex<->Edge<->Facet
// reference cycles the original C++ implementation relies on the heap and
// manual new/delete for, and lets several local meshers share one Graph
// safely under the 8-color partition of spec §5/§4.8.
package mesh

import "github.com/jdigne/ballpivot/geom"

// VertexHandle indexes the vertex arena (owned by the octree, see
// octree.Octree.Vertices).
type VertexHandle int32

// EdgeHandle indexes Graph.edges.
type EdgeHandle int32

// FacetHandle indexes Graph.facets.
type FacetHandle int32

// NoVertex, NoEdge and NoFacet are the absent-handle sentinels, the handle
// equivalent of a nil pointer in the original implementation.
const (
	NoVertex VertexHandle = -1
	NoEdge   EdgeHandle   = -1
	NoFacet  FacetHandle  = -1
)

// VertexType classifies a vertex by its adjacent edges (spec §3 invariant 3).
type VertexType uint8

const (
	Orphan VertexType = 0
	Front  VertexType = 1
	Inner  VertexType = 2
)

func (t VertexType) String() string {
	switch t {
	case Orphan:
		return "orphan"
	case Front:
		return "front"
	case Inner:
		return "inner"
	default:
		return "invalid"
	}
}

// EdgeType classifies an edge by its facet occupancy (spec §3 invariant 2).
type EdgeType uint8

const (
	Border EdgeType = 0
	FrontE EdgeType = 1
	InnerE EdgeType = 2
)

func (t EdgeType) String() string {
	switch t {
	case Border:
		return "border"
	case FrontE:
		return "front"
	case InnerE:
		return "inner"
	default:
		return "invalid"
	}
}

// Vertex is a sampled input point plus the mesh-graph bookkeeping attached
// to it as pivoting proceeds (spec §3). It is stored by value in an arena
// owned by the octree; the mesh graph mutates Type, Index and the
// adjacency slices in place through that shared backing array.
type Vertex struct {
	Pos    geom.Point
	Normal geom.Point

	// Index is the zero-based emission index, or -1 while the vertex is
	// unreferenced by any facet.
	Index int32
	Type  VertexType

	edges  []EdgeHandle
	facets []FacetHandle
}

// NewVertex builds an orphan vertex from a position and unit normal.
func NewVertex(pos, normal geom.Point) Vertex {
	return Vertex{Pos: pos, Normal: normal, Index: -1, Type: Orphan}
}

// AdjacentEdges returns the vertex's incident edge handles.
func (v *Vertex) AdjacentEdges() []EdgeHandle { return v.edges }

// AdjacentFacets returns the vertex's incident facet handles.
func (v *Vertex) AdjacentFacets() []FacetHandle { return v.facets }

func (v *Vertex) addEdge(e EdgeHandle) {
	for _, existing := range v.edges {
		if existing == e {
			return
		}
	}
	v.edges = append(v.edges, e)
}

func (v *Vertex) addFacet(f FacetHandle) {
	for _, existing := range v.facets {
		if existing == f {
			return
		}
	}
	v.facets = append(v.facets, f)
}

// Edge is an undirected, oriented incidence between two vertices (spec §3).
// Orientation (Src/Tgt order) is fixed the moment the first facet attaches
// and never re-evaluated afterwards, even if that facet is later replaced
// (spec §9 Open Question (a); intentional, preserved verbatim).
type Edge struct {
	Src, Tgt       VertexHandle
	Facet1, Facet2 FacetHandle
	Type           EdgeType
	oriented       bool
}

// OtherEndpoint returns the vertex at the far end of the edge from v.
func (e *Edge) OtherEndpoint(v VertexHandle) VertexHandle {
	if e.Src == v {
		return e.Tgt
	}
	return e.Src
}

// HasVertex reports whether v is one of the edge's two endpoints.
func (e *Edge) HasVertex(v VertexHandle) bool {
	return e.Src == v || e.Tgt == v
}

// Facet is an oriented triangle referencing three vertices in CCW order as
// seen from outside the surface (spec §3).
type Facet struct {
	V             [3]VertexHandle
	BallCenter    geom.Point
	HasBallCenter bool
}

// HasVertex reports whether v is one of the facet's three vertices.
func (f *Facet) HasVertex(v VertexHandle) bool {
	return f.V[0] == v || f.V[1] == v || f.V[2] == v
}

// Vertex returns the facet's i-th vertex, indices taken mod 3.
func (f *Facet) Vertex(i int) VertexHandle {
	return f.V[i%3]
}
