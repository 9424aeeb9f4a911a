// Package octree implements the cubical point octree of spec §4.2: a
// lazily-allocated spatial index over the input point cloud that backs
// both neighbor queries (§4.4) and the 8-color partition the parallel
// driver uses to process disjoint regions concurrently (§4.8).
//
// Grounded on the teacher's render/octree_renderer.go cube/level octree
// (integer cube coordinates, level-indexed side length, lazy child
// allocation), generalized from SDF cube sampling to point storage; the
// node/iterator shape itself follows spec §4.2 since original_source's
// TOctree/TOctreeNode/TOctreeIterator headers are not part of the corpus.
package octree

import (
	"math"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

// maxDepth is the largest leaf depth New accepts and DepthForRadius
// returns; larger requested depths are clamped to it.
const maxDepth = 16

// Node is one cell of the octree: an axis-aligned cube with up to 8
// children, each allocated the first time a point is inserted into it.
// Every point descends to the tree's fixed leaf depth, so all leaves sit
// at that depth.
type Node struct {
	center   geom.Point
	halfSize float64
	depth    int
	gx, gy, gz int // integer grid coordinates of this node's origin corner at its own depth

	children [8]*Node
	leaf     []mesh.VertexHandle
}

// IsLeaf reports whether n currently has no allocated children.
func (n *Node) IsLeaf() bool { return n.children == [8]*Node{} }

// Depth returns the node's depth below the root (root is depth 0).
func (n *Node) Depth() int { return n.depth }

// Center and HalfSize describe the node's bounding cube.
func (n *Node) Center() geom.Point { return n.center }
func (n *Node) HalfSize() float64  { return n.halfSize }

// Points returns the vertex handles stored directly in this node, valid
// only for leaves (interior nodes never hold points once split).
func (n *Node) Points() []mesh.VertexHandle { return n.leaf }

// Child returns the i-th child (0-7), or nil if unallocated.
func (n *Node) Child(i int) *Node { return n.children[i] }

// CollectPoints gathers every vertex handle stored anywhere in n's subtree,
// recursing through interior nodes down to their leaves. Used by the
// parallel driver to recover a processing-depth cell's points when that
// cell is itself an interior node (spec §4.8: a coarse cell's points live
// in its deeper leaves, not in the cell itself).
func (n *Node) CollectPoints() []mesh.VertexHandle {
	if n.IsLeaf() {
		return n.leaf
	}
	var out []mesh.VertexHandle
	for _, c := range n.children {
		if c != nil {
			out = append(out, c.CollectPoints()...)
		}
	}
	return out
}

// IsInside reports whether p lies within the node's cube expanded by
// margin on every side (an L-infinity containment test, matching the
// cubical cells), used by the parallel driver to restrict a cell task to
// its dilated region (spec §4.8).
func (n *Node) IsInside(p geom.Point, margin float64) bool {
	lim := n.halfSize + margin
	return math.Abs(p.X-n.center.X) <= lim &&
		math.Abs(p.Y-n.center.Y) <= lim &&
		math.Abs(p.Z-n.center.Z) <= lim
}

// distToBox2 returns the squared distance from p to the closest point of
// n's cube (0 if p is inside), used to prune subtrees during neighbor
// queries.
func (n *Node) distToBox2(p geom.Point) float64 {
	dx := axisDist(p.X, n.center.X, n.halfSize)
	dy := axisDist(p.Y, n.center.Y, n.halfSize)
	dz := axisDist(p.Z, n.center.Z, n.halfSize)
	return dx*dx + dy*dy + dz*dz
}

func axisDist(p, c, half float64) float64 {
	d := math.Abs(p-c) - half
	if d < 0 {
		return 0
	}
	return d
}

// Octree is a cubical point octree plus the vertex arena it indexes. The
// arena is shared with every mesh.Graph built over this point cloud (spec
// §9: the octree owns vertex storage, edges and facets are owned by the
// mesh graph).
type Octree struct {
	Vertices []mesh.Vertex
	root     *Node
	depth    int
}

// DefaultDepth is the octree depth used when no pivoting radius is known
// yet to derive one from (spec §6's "-d" default).
const DefaultDepth = 7

// New builds an octree over verts at a fixed depth (spec §4.2's "fixed or
// derived from density" choice; here fixed, chosen by the caller; see
// DepthForRadius for the "leaf side >= 2*r_min" rule spec §4.2/§6 actually
// requires). depth is clamped to [0, maxDepth].
func New(verts []mesh.Vertex, depth int) *Octree {
	if depth < 0 {
		depth = 0
	}
	if depth > maxDepth {
		depth = maxDepth
	}
	bx := boundingCube(verts)

	t := &Octree{Vertices: verts, depth: depth}
	t.root = &Node{center: bx.center, halfSize: bx.halfSize, depth: 0}
	for i := range verts {
		t.insert(mesh.VertexHandle(i))
	}
	return t
}

// DepthForRadius picks the deepest octree depth whose leaf side is still at
// least 2*rMin, the smallest radius that will ever be pivoted over this
// cloud (spec §4.2, §6: "smallest radius also sizes the octree"). Falls
// back to DefaultDepth when rMin is non-positive (no radius known yet).
func DepthForRadius(verts []mesh.Vertex, rMin float64) int {
	if rMin <= 0 {
		return DefaultDepth
	}
	bx := boundingCube(verts)
	side := 2 * bx.halfSize
	minLeafSide := 2 * rMin

	d := 0
	for d < maxDepth {
		leafSide := side / math.Pow(2, float64(d+1))
		if leafSide < minLeafSide {
			break
		}
		d++
	}
	return d
}

// Root returns the octree's root node.
func (t *Octree) Root() *Node { return t.root }

// Depth returns the target leaf depth chosen at construction time.
func (t *Octree) Depth() int { return t.depth }

type cube struct {
	center   geom.Point
	halfSize float64
}

// boundingCube computes the smallest axis-aligned cube containing every
// vertex position, padded by 0.1% so boundary points are never exactly on
// a face.
func boundingCube(verts []mesh.Vertex) cube {
	if len(verts) == 0 {
		return cube{halfSize: 1}
	}
	min, max := verts[0].Pos, verts[0].Pos
	for _, v := range verts[1:] {
		min.X = math.Min(min.X, v.Pos.X)
		min.Y = math.Min(min.Y, v.Pos.Y)
		min.Z = math.Min(min.Z, v.Pos.Z)
		max.X = math.Max(max.X, v.Pos.X)
		max.Y = math.Max(max.Y, v.Pos.Y)
		max.Z = math.Max(max.Z, v.Pos.Z)
	}
	center := geom.Point{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2, Z: (min.Z + max.Z) / 2}
	half := math.Max(max.X-min.X, math.Max(max.Y-min.Y, max.Z-min.Z)) / 2
	if half <= 0 {
		half = 1
	}
	half *= 1.001
	return cube{center: center, halfSize: half}
}

// octant returns the 0-7 child index p falls into relative to n's center,
// along with the per-axis bit used to update grid coordinates.
func octant(p, center geom.Point) (idx int, bx, by, bz int) {
	if p.X >= center.X {
		bx = 1
	}
	if p.Y >= center.Y {
		by = 1
	}
	if p.Z >= center.Z {
		bz = 1
	}
	idx = bx | by<<1 | bz<<2
	return
}

func childCenter(parent geom.Point, half float64, bx, by, bz int) geom.Point {
	sx, sy, sz := -half/2, -half/2, -half/2
	if bx == 1 {
		sx = half / 2
	}
	if by == 1 {
		sy = half / 2
	}
	if bz == 1 {
		sz = half / 2
	}
	return geom.Point{X: parent.X + sx, Y: parent.Y + sy, Z: parent.Z + sz}
}

func (t *Octree) insert(h mesh.VertexHandle) {
	n := t.root
	p := t.Vertices[h].Pos
	for n.depth < t.depth {
		idx, bx, by, bz := octant(p, n.center)
		c := n.children[idx]
		if c == nil {
			c = &Node{
				center:   childCenter(n.center, n.halfSize, bx, by, bz),
				halfSize: n.halfSize / 2,
				depth:    n.depth + 1,
				gx:       n.gx*2 + bx,
				gy:       n.gy*2 + by,
				gz:       n.gz*2 + bz,
			}
			n.children[idx] = c
		}
		n = c
	}
	n.leaf = append(n.leaf, h)
}

// CellsAtDepth collects the octree cells that represent depth d: nodes at
// exactly depth d, or shallower leaves whose subtree never grew that deep
// (spec §4.8's coarser "processing depth" for the parallel driver).
func (t *Octree) CellsAtDepth(d int) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.depth >= d || n.IsLeaf() {
			out = append(out, n)
			return
		}
		for _, c := range n.children {
			if c != nil {
				walk(c)
			}
		}
	}
	walk(t.root)
	return out
}

// Color returns the cell's 8-coloring bucket (0-7) for the requested
// processing depth d, derived from the parity of the cell's grid
// coordinates once shifted up to depth d. Two cells with the same color at
// the same depth are never adjacent, so the parallel driver can run one
// color's cells concurrently without their dilated regions overlapping
// (spec §4.8).
func (n *Node) Color(d int) int {
	shift := d - n.depth
	if shift < 0 {
		shift = 0
	}
	gx, gy, gz := n.gx<<shift, n.gy<<shift, n.gz<<shift
	return (gx & 1) | (gy&1)<<1 | (gz&1)<<2
}
