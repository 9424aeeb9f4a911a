// Package mesher implements the ball-pivoting advancing front itself:
// seed search, edge-pivoting expansion, multi-radius promotion, the
// parallel spatial driver and the hole filler (spec §4.5-§4.9).
//
// Grounded throughout on original_source/BallPivoting/src/Mesher.{h,cpp}
// (Julie Digne's reference implementation), translated from the
// pointer/owner C++ representation to the arena-and-handle mesh.Graph
// of spec §9.
package mesher

import (
	"math"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
	"github.com/jdigne/ballpivot/octree"
	"gonum.org/v1/gonum/spatial/r3"
)

// ProgressFunc is called every ProgressInterval facets created, mirroring
// the original's periodic stdout counters (Mesher.cpp prints progress
// every 10000 facets) without hard-wiring the engine to any particular
// output sink (spec §6: logging is a collaborator interface).
type ProgressFunc func(nVertices, nFacets, nFront, nBorder int)

// defaultProgressInterval matches the original's hard-coded cadence.
const defaultProgressInterval = 10000

// Mesher runs ball pivoting over a shared octree.Octree and mesh.Graph. A
// single top-level Mesher drives sequential reconstruction; the parallel
// driver in parallel.go instead creates one local Mesher per octree cell,
// all sharing the same Graph and Octree (spec §4.8).
type Mesher struct {
	Tree  *octree.Octree
	Graph *mesh.Graph

	radius   float64
	sqRadius float64

	// front is processed LIFO: newly discovered front edges are the ones
	// most likely to still have nearby, cheaply-found candidates.
	front       []mesh.EdgeHandle
	borderEdges []mesh.EdgeHandle

	// nodeBorder holds front edges whose pivot candidate fell outside this
	// Mesher's containment region (set only for cell-scoped local meshers
	// spawned by the parallel driver, spec §4.8). They stay Front-typed,
	// since unlike borderEdges they are not a dead end, just deferred to a
	// later wave that owns the region the candidate fell into.
	nodeBorder []mesh.EdgeHandle

	// contain restricts seed and pivot acceptance to a dilated octree
	// cell; nil means unrestricted (the default, sequential Mesher).
	contain func(geom.Point) bool
	// seedRoot restricts orphan-vertex seed search to a subtree; nil means
	// search the whole tree.
	seedRoot *octree.Node

	nVertices int
	nFacets   int

	Progress         ProgressFunc
	ProgressInterval int
}

// New creates a Mesher over a shared spatial index and mesh graph. Several
// Meshers may share the same Tree and Graph (the parallel driver does
// exactly this); each Mesher only tracks its own front/border bookkeeping.
func New(tree *octree.Octree, graph *mesh.Graph) *Mesher {
	return &Mesher{Tree: tree, Graph: graph, ProgressInterval: defaultProgressInterval}
}

// NVertices and NFacets report how many vertices/facets this Mesher has
// put into the mesh so far.
func (m *Mesher) NVertices() int { return m.nVertices }
func (m *Mesher) NFacets() int   { return m.nFacets }

// Radius returns the ball radius currently in effect.
func (m *Mesher) Radius() float64 { return m.radius }

// Front and BorderEdges expose this Mesher's bookkeeping lists, read by
// the parallel driver's merge step (spec §4.8).
func (m *Mesher) Front() []mesh.EdgeHandle           { return m.front }
func (m *Mesher) BorderEdges() []mesh.EdgeHandle     { return m.borderEdges }
func (m *Mesher) NodeBorderEdges() []mesh.EdgeHandle { return m.nodeBorder }

func (m *Mesher) pos(v mesh.VertexHandle) geom.Point    { return m.Graph.Vertex(v).Pos }
func (m *Mesher) normal(v mesh.VertexHandle) geom.Point { return m.Graph.Vertex(v).Normal }

func (m *Mesher) assignIndex(v mesh.VertexHandle) {
	if m.Graph.AssignIndex(v) {
		m.nVertices++
	}
}

func (m *Mesher) reportProgress() {
	if m.Progress == nil {
		return
	}
	interval := m.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	if m.nFacets%interval == 0 {
		m.Progress(m.nVertices, m.nFacets, len(m.front), len(m.borderEdges))
	}
}

// createFacet creates a triangle over (v0,v1,v2) with the given ball
// center, registers it with this Mesher's counters, assigns vertex
// indices on first use, and enqueues every edge that comes out Front
// (i.e. every brand-new edge of the triangle; the pivot edge, if any,
// comes out Inner and is never re-enqueued).
func (m *Mesher) createFacet(v0, v1, v2 mesh.VertexHandle, center geom.Point) mesh.FacetHandle {
	f := m.Graph.CreateFacet(v0, v1, v2, center, true)
	m.nFacets++
	for _, v := range [3]mesh.VertexHandle{v0, v1, v2} {
		m.assignIndex(v)
	}
	tri := [3]mesh.VertexHandle{v0, v1, v2}
	for i := 0; i < 3; i++ {
		eh, ok := m.Graph.LinkingEdge(tri[i], tri[(i+1)%3])
		if ok && m.Graph.Edge(eh).Type == mesh.FrontE {
			m.front = append(m.front, eh)
		}
	}
	m.reportProgress()
	return f
}

// Reconstruct runs ball pivoting at a single fixed radius r: seed search
// and front expansion until both are exhausted. Mirrors the original's
// argument-less Mesher::reconstruct(), exposed directly per the
// supplemental single-radius entry point (the parallel driver's per-cell
// local meshers set their radius and run the same loop,
// reconstructAtCurrentRadius, directly).
func (m *Mesher) Reconstruct(r float64) {
	m.radius = r
	m.sqRadius = r * r
	m.reconstructAtCurrentRadius()
}

// ReconstructRadii runs the multi-radius driver of spec §4.7: seed search
// plus front expansion at the first (smallest) radius, then for every
// later radius only promoting stalled border edges via ChangeRadius and
// expanding whatever that promotion reopens. Orphan vertices are only
// ever seeded at the smallest radius, matching the original's
// reconstruct(), which reseeds only while the front is still empty.
func (m *Mesher) ReconstructRadii(radii []float64) {
	for i, r := range radii {
		if i == 0 {
			m.radius = r
			m.sqRadius = r * r
			m.reconstructAtCurrentRadius()
			continue
		}
		m.ChangeRadius(r)
		m.expandFrontOnly()
	}
}

func (m *Mesher) reconstructAtCurrentRadius() {
	for {
		m.expandFrontOnly()
		if !m.findSeedTriangle() {
			return
		}
	}
}

// expandFrontOnly drains the front via pivoting without seed search: used
// both for every parallel-driver wave after a cell's first (spec §4.8's
// "otherwise: only front expansion, same restriction") and for every
// radius after the first in ReconstructRadii (spec §4.7).
func (m *Mesher) expandFrontOnly() {
	for len(m.front) > 0 {
		m.expandOne()
	}
}

// ChangeRadius re-tests every Border edge's existing facet for emptiness
// at the new radius, promoting it back to the front when the larger ball
// is still empty (spec §4.7). Exposed standalone per the supplemental
// feature list so a caller can inspect the promotion step in isolation.
func (m *Mesher) ChangeRadius(r float64) {
	sqR := r * r
	kept := m.borderEdges[:0]
	for _, eh := range m.borderEdges {
		if m.tryPromote(eh, r, sqR) {
			continue
		}
		kept = append(kept, eh)
	}
	m.borderEdges = kept
	m.radius = r
	m.sqRadius = sqR
}

func (m *Mesher) tryPromote(eh mesh.EdgeHandle, r, sqR float64) bool {
	e := m.Graph.Edge(eh)
	if e.Facet1 == mesh.NoFacet {
		return false
	}
	facet := m.Graph.Facet(e.Facet1)
	opp := facet.Vertex(oppositeIndex(facet, e.Src, e.Tgt))

	center, ok := geom.BallCenter(m.pos(e.Src), m.pos(e.Tgt), m.pos(opp),
		m.normal(e.Src), m.normal(e.Tgt), m.normal(opp), r)
	if !ok {
		return false
	}
	if !m.Tree.EmptyBall(center, r, e.Src, e.Tgt, opp) {
		return false
	}

	facet.BallCenter = center
	e.Type = mesh.FrontE
	m.front = append(m.front, eh)
	return true
}

func oppositeIndex(f *mesh.Facet, a, b mesh.VertexHandle) int {
	for i := 0; i < 3; i++ {
		v := f.Vertex(i)
		if v != a && v != b {
			return i
		}
	}
	panic("mesh: facet does not contain both edge endpoints")
}

// findSeedTriangle scans every orphan vertex, leaf by leaf, trying to grow
// a seed triangle around it (spec §4.5).
func (m *Mesher) findSeedTriangle() bool {
	root := m.seedRoot
	if root == nil {
		root = m.Tree.Root()
	}
	return m.findSeedIn(root)
}

func (m *Mesher) findSeedIn(n *octree.Node) bool {
	if n.IsLeaf() {
		for _, h := range n.Points() {
			if m.Graph.Vertex(h).Type == mesh.Orphan && m.trySeed(h) {
				return true
			}
		}
		return false
	}
	for i := 0; i < 8; i++ {
		if c := n.Child(i); c != nil {
			if m.findSeedIn(c) {
				return true
			}
		}
	}
	return false
}

// trySeed attempts to build a seed triangle incident to v, scanning pairs
// of its neighbors within 2r in ascending distance order (spec §4.5).
func (m *Mesher) trySeed(v mesh.VertexHandle) bool {
	neighbors := m.Tree.SortedNeighbors(m.pos(v), 2*m.radius, v)
	for i := 0; i < len(neighbors); i++ {
		v1 := neighbors[i]
		if m.Graph.Vertex(v1).Type != mesh.Orphan {
			continue
		}
		for j := i + 1; j < len(neighbors); j++ {
			v2 := neighbors[j]
			if m.Graph.Vertex(v2).Type != mesh.Orphan {
				continue
			}
			if m.tryTriangleSeed(v, v1, v2, neighbors) {
				return true
			}
		}
	}
	return false
}

func (m *Mesher) edgeBlocksNewFacet(a, b mesh.VertexHandle) bool {
	eh, ok := m.Graph.LinkingEdge(a, b)
	return ok && m.Graph.Edge(eh).Type == mesh.InnerE
}

func (m *Mesher) tryTriangleSeed(v, v1, v2 mesh.VertexHandle, neighbors []mesh.VertexHandle) bool {
	if m.contain != nil && (!m.contain(m.pos(v1)) || !m.contain(m.pos(v2))) {
		return false
	}
	if m.edgeBlocksNewFacet(v, v1) || m.edgeBlocksNewFacet(v, v2) || m.edgeBlocksNewFacet(v1, v2) {
		return false
	}
	if !mesh.SeedCompatible(m.Graph, v, v1, v2) {
		return false
	}
	center, ok := geom.BallCenter(m.pos(v), m.pos(v1), m.pos(v2),
		m.normal(v), m.normal(v1), m.normal(v2), m.radius)
	if !ok {
		return false
	}
	if !m.Tree.EmptyBall(center, m.radius, v, v1, v2) {
		return false
	}
	m.createFacet(v, v1, v2, center)
	return true
}

// collectCellEdges recovers a cell-scoped local Mesher's working set at the
// start of every wave after its first: every Front edge touching one of
// the cell's points is re-queued, and every Border edge is given another
// chance to promote back to Front at the current radius before falling
// back to the border list (spec §4.8's "collect the octree's cell-local
// Front edges and Border edges" step, mirroring collectActiveEdges and
// collectBorderEdges).
func (m *Mesher) collectCellEdges(cell *octree.Node) {
	seen := make(map[mesh.EdgeHandle]bool)
	for _, v := range cell.CollectPoints() {
		for _, eh := range m.Graph.Vertex(v).AdjacentEdges() {
			if seen[eh] {
				continue
			}
			seen[eh] = true
			switch m.Graph.Edge(eh).Type {
			case mesh.FrontE:
				m.front = append(m.front, eh)
			case mesh.Border:
				if !m.tryPromote(eh, m.radius, m.sqRadius) {
					m.borderEdges = append(m.borderEdges, eh)
				}
			}
		}
	}
}

// expandOne pops the head of the front and either pivots a new triangle
// onto it or demotes it to Border (spec §4.6).
func (m *Mesher) expandOne() {
	eh := m.front[len(m.front)-1]
	m.front = m.front[:len(m.front)-1]

	e := m.Graph.Edge(eh)
	if e.Type != mesh.FrontE {
		return
	}

	cand, center, ok := m.findCandidateVertex(eh)
	if !ok {
		e.Type = mesh.Border
		m.borderEdges = append(m.borderEdges, eh)
		return
	}
	if m.contain != nil && !m.contain(m.pos(cand)) {
		// The pivot landed outside this cell's dilated region: leave the
		// edge Front and defer it to whichever later wave owns that
		// region (spec §4.8).
		m.nodeBorder = append(m.nodeBorder, eh)
		return
	}

	m.createFacet(e.Src, cand, e.Tgt, center)
}

// findCandidateVertex pivots the ball around edge eh, looking for the
// vertex it touches rotating away from the edge's existing facet (spec
// §4.6): among the edge's nearby neighbors, the empty-ball test first
// filters out every candidate whose ball isn't empty, then the smallest
// signed pivot angle is chosen among the ones that survive. A candidate
// with the globally smallest angle but a non-empty ball never wins; the
// next-best empty-ball candidate does. The winner is rejected in favor of
// Border if it is an Inner vertex, already edge-linked through an Inner
// edge, or fails edge-compatibility.
func (m *Mesher) findCandidateVertex(eh mesh.EdgeHandle) (mesh.VertexHandle, geom.Point, bool) {
	e := m.Graph.Edge(eh)
	src, tgt := e.Src, e.Tgt
	facet := m.Graph.Facet(e.Facet1)
	opp := facet.Vertex(oppositeIndex(facet, src, tgt))

	mid := geom.Midpoint(m.pos(src), m.pos(tgt))
	halfLen2 := geom.Dist2(mid, m.pos(src))
	if halfLen2 > m.sqRadius {
		return mesh.NoVertex, geom.Point{}, false
	}
	queryRadius := m.radius + math.Sqrt(m.sqRadius-halfLen2)

	axis, ok := geom.Normalize(r3.Sub(m.pos(tgt), m.pos(src)))
	if !ok {
		return mesh.NoVertex, geom.Point{}, false
	}

	refDir, ok := perpComponent(r3.Sub(facet.BallCenter, mid), axis)
	if !ok {
		return mesh.NoVertex, geom.Point{}, false
	}

	neighbors := m.Tree.SortedNeighbors(mid, queryRadius, mesh.NoVertex)

	best := mesh.NoVertex
	bestCenter := geom.Point{}
	bestAngle := math.Inf(1)

	for _, c := range neighbors {
		if c == src || c == tgt || c == opp {
			continue
		}
		cc, ok := geom.BallCenter(m.pos(src), m.pos(tgt), m.pos(c),
			m.normal(src), m.normal(tgt), m.normal(c), m.radius)
		if !ok {
			continue
		}
		// The empty-ball test is a per-candidate qualifying filter, not a
		// recheck of the winner only: a candidate whose ball isn't empty
		// never competes for minimum angle, but a later, less-aligned
		// candidate whose ball is empty still can.
		if !m.Tree.EmptyBall(cc, m.radius, src, tgt, c) {
			continue
		}
		candDir, ok := perpComponent(r3.Sub(cc, mid), axis)
		if !ok {
			continue
		}
		angle := signedAngle(refDir, candDir, axis)
		if angle <= 1e-12 {
			angle += 2 * math.Pi
		}
		if angle < bestAngle {
			bestAngle = angle
			best = c
			bestCenter = cc
		}
	}

	if best == mesh.NoVertex {
		return mesh.NoVertex, geom.Point{}, false
	}
	if m.Graph.Vertex(best).Type == mesh.Inner {
		return mesh.NoVertex, geom.Point{}, false
	}
	if m.edgeBlocksNewFacet(src, best) || m.edgeBlocksNewFacet(best, tgt) {
		return mesh.NoVertex, geom.Point{}, false
	}
	if !mesh.EdgeCompatible(m.Graph, eh, best) {
		return mesh.NoVertex, geom.Point{}, false
	}
	return best, bestCenter, true
}

// perpComponent removes the component of v along axis and renormalizes,
// failing if what remains is too small to carry a meaningful direction
// (v nearly parallel to axis).
func perpComponent(v, axis geom.Point) (geom.Point, bool) {
	perp := r3.Sub(v, r3.Scale(r3.Dot(v, axis), axis))
	return geom.Normalize(perp)
}

// signedAngle returns the angle (in (-pi, pi]) to rotate a onto b around
// axis, positive following the right-hand rule.
func signedAngle(a, b, axis geom.Point) float64 {
	sin := r3.Dot(r3.Cross(a, b), axis)
	cos := r3.Dot(a, b)
	return math.Atan2(sin, cos)
}
