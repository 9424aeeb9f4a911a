package octree

import (
	"testing"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

func gridVerts() []mesh.Vertex {
	n := geom.Point{X: 0, Y: 0, Z: 1}
	var verts []mesh.Vertex
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			verts = append(verts, mesh.NewVertex(geom.Point{X: float64(x), Y: float64(y), Z: 0}, n))
		}
	}
	return verts
}

func TestNewIndexesAllPoints(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 2)

	count := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			count += len(n.Points())
			return
		}
		for i := 0; i < 8; i++ {
			if c := n.Child(i); c != nil {
				walk(c)
			}
		}
	}
	walk(tr.Root())

	if count != len(verts) {
		t.Fatalf("indexed %d points, want %d", count, len(verts))
	}
}

func TestNeighborsWithinRadius(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 2)

	q := geom.Point{X: 1, Y: 1, Z: 0}
	got := tr.Neighbors(q, 1.01, mesh.NoVertex)
	// (1,1) itself + 4 axis neighbors at distance 1.
	if len(got) != 5 {
		t.Fatalf("got %d neighbors, want 5", len(got))
	}
}

func TestNeighborsExcludesSelf(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 2)
	q := geom.Point{X: 1, Y: 1, Z: 0}

	self := mesh.VertexHandle(-1)
	for i, v := range verts {
		if v.Pos == q {
			self = mesh.VertexHandle(i)
		}
	}
	if self == -1 {
		t.Fatal("test setup: query point not found in vertex list")
	}
	got := tr.Neighbors(q, 0.01, self)
	if len(got) != 0 {
		t.Fatalf("expected self to be excluded, got %d neighbors", len(got))
	}
}

func TestSortedNeighborsOrderedByDistance(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 2)
	q := geom.Point{X: 0, Y: 0, Z: 0}

	got := tr.SortedNeighbors(q, 3.5, mesh.NoVertex)
	if len(got) < 2 {
		t.Fatal("expected multiple neighbors")
	}
	prev := 0.0
	for _, h := range got {
		d := geom.Dist2(verts[h].Pos, q)
		if d < prev {
			t.Fatalf("neighbors not sorted by distance: %v before %v", prev, d)
		}
		prev = d
	}
}

func TestContainsOnly(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 2)
	q := geom.Point{X: 1, Y: 1, Z: 0}

	all := tr.Neighbors(q, 1.01, mesh.NoVertex)
	if !tr.ContainsOnly(q, 1.01, all...) {
		t.Fatal("expected ball to contain only its own neighbor set")
	}
	if tr.ContainsOnly(q, 1.01, all[1:]...) {
		t.Fatal("expected ball to contain more than the reduced allowed set")
	}
}

func TestIsInsideMargin(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 2)
	root := tr.Root()

	outside := geom.Point{X: root.Center().X + root.HalfSize() + 10, Y: root.Center().Y, Z: root.Center().Z}
	if root.IsInside(outside, 0) {
		t.Fatal("expected far point to be outside root cube")
	}
	if !root.IsInside(outside, 11) {
		t.Fatal("expected far point to be inside root cube once dilated enough")
	}
}

func TestColorPartitionsDistinctCells(t *testing.T) {
	verts := gridVerts()
	tr := New(verts, 1)

	cells := tr.CellsAtDepth(tr.Depth())
	seen := map[int]int{}
	for _, c := range cells {
		seen[c.Color(tr.Depth())]++
	}
	if len(seen) == 0 {
		t.Fatal("expected at least one color bucket")
	}
	for color, n := range seen {
		if color < 0 || color > 7 {
			t.Fatalf("color %d out of [0,7] range", color)
		}
		if n == 0 {
			t.Fatal("bucket counted with zero cells")
		}
	}
}
