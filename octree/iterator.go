package octree

import (
	"sort"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

// Neighbors returns every vertex handle within radius r of q, unsorted,
// skipping the handle in exclude if it is not mesh.NoVertex. Mirrors the
// plain (unsorted) view of TOctreeIterator described in spec §4.4.
func (t *Octree) Neighbors(q geom.Point, r float64, exclude mesh.VertexHandle) []mesh.VertexHandle {
	sq := r * r
	var out []mesh.VertexHandle
	t.walkRadius(t.root, q, r, func(h mesh.VertexHandle) {
		if h == exclude {
			return
		}
		if geom.Dist2(t.Vertices[h].Pos, q) <= sq {
			out = append(out, h)
		}
	})
	return out
}

// neighborDist pairs a vertex handle with its distance to the query point,
// for the sorted view below.
type neighborDist struct {
	h mesh.VertexHandle
	d float64
}

// SortedNeighbors returns every vertex handle within radius r of q, in
// ascending order of distance, breaking exact ties by handle value.
// Mirrors the original's Neighbor_star_map (a distance-keyed map with a
// pointer-identity tiebreaking comparator): a deterministic total order is
// required so two runs of the same point cloud always pivot to the same
// candidate.
func (t *Octree) SortedNeighbors(q geom.Point, r float64, exclude mesh.VertexHandle) []mesh.VertexHandle {
	sq := r * r
	var all []neighborDist
	t.walkRadius(t.root, q, r, func(h mesh.VertexHandle) {
		if h == exclude {
			return
		}
		d := geom.Dist2(t.Vertices[h].Pos, q)
		if d <= sq {
			all = append(all, neighborDist{h, d})
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].d != all[j].d {
			return all[i].d < all[j].d
		}
		return all[i].h < all[j].h
	})
	out := make([]mesh.VertexHandle, len(all))
	for i, nd := range all {
		out[i] = nd.h
	}
	return out
}

// ContainsOnly reports whether every vertex strictly inside the ball of
// radius r around q (geom.StrictlyInside) is one of the allowed handles,
// i.e. the ball contains no point other than the ones already known. It
// queries the tree itself, exactly as EmptyBall does (spec §4.4).
func (t *Octree) ContainsOnly(q geom.Point, r float64, allowed ...mesh.VertexHandle) bool {
	sq := r * r
	ok := true
	t.walkRadius(t.root, q, r, func(h mesh.VertexHandle) {
		if !ok {
			return
		}
		if !geom.StrictlyInside(t.Vertices[h].Pos, q, sq) {
			return
		}
		for _, a := range allowed {
			if h == a {
				return
			}
		}
		ok = false
	})
	return ok
}

// EmptyBall reports whether the ball of radius r centered at c contains no
// vertex other than the allowed handles, using the engine-wide strict
// empty-ball tolerance (geom.StrictlyInside) rather than a plain <= test.
// This is the core feasibility test of the pivoting step (spec §4.5/§4.6):
// a candidate triangle is only accepted if its ball is otherwise empty.
func (t *Octree) EmptyBall(c geom.Point, r float64, allowed ...mesh.VertexHandle) bool {
	sqR := r * r
	empty := true
	t.walkRadius(t.root, c, r, func(h mesh.VertexHandle) {
		if !empty {
			return
		}
		if !geom.StrictlyInside(t.Vertices[h].Pos, c, sqR) {
			return
		}
		for _, a := range allowed {
			if h == a {
				return
			}
		}
		empty = false
	})
	return empty
}

// walkRadius visits every point handle stored in a leaf whose cube can
// possibly fall within r of q, pruning subtrees whose cube is entirely
// farther than r away.
func (t *Octree) walkRadius(n *Node, q geom.Point, r float64, visit func(mesh.VertexHandle)) {
	if n.distToBox2(q) > r*r {
		return
	}
	if n.IsLeaf() {
		for _, h := range n.leaf {
			visit(h)
		}
		return
	}
	for _, c := range n.children {
		if c != nil {
			t.walkRadius(c, q, r, visit)
		}
	}
}
