package mesh

import (
	"sync"

	"github.com/jdigne/ballpivot/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is re-exported so callers don't need to import geom for this
// package's signatures.
type Point = geom.Point

// Graph owns the edge and facet arenas and the shared vertex arena (whose
// backing storage belongs to the octree, see octree.Octree.Vertices). It is
// the one piece of mutable state several local meshers touch concurrently
// during a parallel wave (spec §4.8): arena growth is serialized by mu,
// while field writes on an already-allocated edge/facet/vertex are left
// unsynchronized because the 8-color partition guarantees no two concurrent
// tasks ever write the same element (spec §5).
type Graph struct {
	mu        sync.Mutex
	verts     []Vertex
	edges     []Edge
	facets    []Facet
	nextIndex int
}

// NewGraph wraps a vertex arena (owned by the caller, typically an
// octree.Octree) in a fresh, empty edge/facet graph.
func NewGraph(verts []Vertex) *Graph {
	return &Graph{verts: verts}
}

// NumVertices, NumEdges and NumFacets return arena sizes. Edges and facets
// are never removed, so every handle below these counts is valid.
func (g *Graph) NumVertices() int { return len(g.verts) }
func (g *Graph) NumEdges() int    { return len(g.edges) }
func (g *Graph) NumFacets() int   { return len(g.facets) }

// NumIndexed returns how many vertices have been assigned an emission
// index so far, across every Mesher sharing this Graph.
func (g *Graph) NumIndexed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nextIndex
}

// AssignIndex gives v the next available emission index if it doesn't
// already have one, and reports whether it did so. Synchronized because
// several local meshers may race to number the first vertex they touch
// in independent cells of the same color wave (spec §4.8).
func (g *Graph) AssignIndex(v VertexHandle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	vert := &g.verts[v]
	if vert.Index >= 0 {
		return false
	}
	vert.Index = int32(g.nextIndex)
	g.nextIndex++
	return true
}

// Vertex returns a pointer into the shared vertex arena.
func (g *Graph) Vertex(h VertexHandle) *Vertex { return &g.verts[h] }

// Edge returns a pointer into the edge arena.
func (g *Graph) Edge(h EdgeHandle) *Edge { return &g.edges[h] }

// Facet returns a pointer into the facet arena.
func (g *Graph) Facet(h FacetHandle) *Facet { return &g.facets[h] }

func (g *Graph) allocEdge(src, tgt VertexHandle) EdgeHandle {
	g.mu.Lock()
	h := EdgeHandle(len(g.edges))
	g.edges = append(g.edges, Edge{Src: src, Tgt: tgt, Facet1: NoFacet, Facet2: NoFacet, Type: FrontE})
	g.mu.Unlock()
	return h
}

func (g *Graph) allocFacet(v0, v1, v2 VertexHandle, center Point, hasCenter bool) FacetHandle {
	g.mu.Lock()
	h := FacetHandle(len(g.facets))
	g.facets = append(g.facets, Facet{V: [3]VertexHandle{v0, v1, v2}, BallCenter: center, HasBallCenter: hasCenter})
	g.mu.Unlock()
	return h
}

// LinkingEdge returns the edge incident to both a and b, mirroring
// Vertex::getLinkingEdge (intersection of the two vertices' adjacent-edge
// sets; at most one such edge can exist, spec §3 invariant 1).
func (g *Graph) LinkingEdge(a, b VertexHandle) (EdgeHandle, bool) {
	va := g.Vertex(a)
	for _, eh := range va.edges {
		if g.Edge(eh).HasVertex(b) {
			return eh, true
		}
	}
	return NoEdge, false
}

// EnsureEdge returns the edge linking a and b, creating a fresh Front edge
// oriented (a,b) if none exists yet. CreateFacet uses this internally for
// each of a triangle's three sides; it is also exported for callers that
// need to declare adjacency directly, such as the hole filler's tests.
func (g *Graph) EnsureEdge(a, b VertexHandle) EdgeHandle {
	if eh, ok := g.LinkingEdge(a, b); ok {
		return eh
	}
	eh := g.allocEdge(a, b)
	g.Vertex(a).addEdge(eh)
	g.Vertex(b).addEdge(eh)
	return eh
}

// attachFacet attaches f to edge eh as its first or second facet, fixing
// the edge's orientation on first attach (mirrors Edge::addAdjacentFacet +
// Edge::updateOrientation). opposite is the facet's third vertex, the one
// not on the edge.
func (g *Graph) attachFacet(eh EdgeHandle, f FacetHandle, opposite VertexHandle) {
	e := g.Edge(eh)
	switch {
	case e.Facet1 == NoFacet:
		e.Facet1 = f
		if !e.oriented {
			g.orient(eh, opposite)
			e.oriented = true
		}
		e.Type = FrontE
	case e.Facet2 == NoFacet:
		e.Facet2 = f
		e.Type = InnerE
	default:
		panic("mesh: edge already has two adjacent facets")
	}
}

// orient swaps an edge's Src/Tgt if needed so that (Src, Tgt, opposite)
// winds consistently with the averaged vertex normals, mirroring
// Edge::updateOrientation.
func (g *Graph) orient(eh EdgeHandle, opposite VertexHandle) {
	e := g.Edge(eh)
	vs, vt, vo := g.Vertex(e.Src), g.Vertex(e.Tgt), g.Vertex(opposite)
	tangent := r3.Sub(vt.Pos, vs.Pos)
	toOpp := r3.Sub(vo.Pos, vs.Pos)
	avgNormal := r3.Add(r3.Add(vs.Normal, vt.Normal), vo.Normal)
	if r3.Dot(r3.Cross(tangent, toOpp), avgNormal) < 0 {
		e.Src, e.Tgt = e.Tgt, e.Src
	}
}

// CreateFacet creates a triangle over (v0,v1,v2) in that winding order,
// creating any of its three edges that don't exist yet and attaching the
// new facet to all three, then refreshing the type of all three vertices.
// Mirrors Facet::Facet(Vertex*,Vertex*,Vertex*,Point).
func (g *Graph) CreateFacet(v0, v1, v2 VertexHandle, center Point, hasCenter bool) FacetHandle {
	f := g.allocFacet(v0, v1, v2, center, hasCenter)

	tri := [3]VertexHandle{v0, v1, v2}
	for i := 0; i < 3; i++ {
		a, b, opp := tri[i], tri[(i+1)%3], tri[(i+2)%3]
		eh := g.EnsureEdge(a, b)
		g.attachFacet(eh, f, opp)
	}

	for _, v := range tri {
		g.Vertex(v).addFacet(f)
		g.UpdateVertexType(v)
	}
	return f
}

// CreateFacetOnEdge creates a triangle (e.Src, opposite, e.Tgt) over an
// existing edge e and a newly-selected candidate vertex. Mirrors
// Facet::Facet(Edge*,Vertex*,Point).
func (g *Graph) CreateFacetOnEdge(eh EdgeHandle, opposite VertexHandle, center Point, hasCenter bool) FacetHandle {
	e := g.Edge(eh)
	return g.CreateFacet(e.Src, opposite, e.Tgt, center, hasCenter)
}

// UpdateVertexType recomputes v's classification from its adjacent edges,
// mirroring Vertex::updateType: Orphan with none, Inner if every adjacent
// edge is Inner, Front otherwise.
func (g *Graph) UpdateVertexType(v VertexHandle) {
	vert := g.Vertex(v)
	if len(vert.edges) == 0 {
		vert.Type = Orphan
		return
	}
	allInner := true
	for _, eh := range vert.edges {
		if g.Edge(eh).Type != InnerE {
			allInner = false
			break
		}
	}
	if allInner {
		vert.Type = Inner
	} else {
		vert.Type = Front
	}
}

// FindBorder looks for a vertex a, distinct from e's two endpoints and not
// already part of e's own facet, such that src-a is a Border edge and
// (a,tgt) is a Border edge oriented with a as source and tgt as target,
// completing e into a closed three-edge loop. Mirrors Vertex::findBorder;
// used by the hole filler to close triangular gaps left after pivoting
// stalls (spec §4.9). The facet exclusion stops a hole from being "closed"
// by folding back onto a vertex that already bounds e's existing triangle,
// and the orientation check on the second edge matches the original's
// getSource()/getTarget() comparison rather than accepting either winding.
func (g *Graph) FindBorder(eh EdgeHandle) (a VertexHandle, ok bool) {
	e := g.Edge(eh)
	src, tgt := e.Src, e.Tgt

	var facet *Facet
	if e.Facet1 != NoFacet {
		facet = g.Facet(e.Facet1)
	}

	vv := g.Vertex(src)
	for _, e1 := range vv.edges {
		edge1 := g.Edge(e1)
		if edge1.Type != Border {
			continue
		}
		cand := edge1.OtherEndpoint(src)
		if cand == tgt {
			continue
		}
		if facet != nil && facet.HasVertex(cand) {
			continue
		}
		cv := g.Vertex(cand)
		for _, e2 := range cv.edges {
			edge2 := g.Edge(e2)
			if edge2.Type == Border && edge2.Src == cand && edge2.Tgt == tgt {
				return cand, true
			}
		}
	}
	return NoVertex, false
}
