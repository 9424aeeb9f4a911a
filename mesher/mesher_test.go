package mesher

import (
	"testing"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
	"github.com/jdigne/ballpivot/octree"
	"gonum.org/v1/gonum/spatial/r3"
)

func flatGrid(n int, spacing float64) []mesh.Vertex {
	up := geom.Point{X: 0, Y: 0, Z: 1}
	var verts []mesh.Vertex
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			verts = append(verts, mesh.NewVertex(
				geom.Point{X: float64(x) * spacing, Y: float64(y) * spacing, Z: 0}, up))
		}
	}
	return verts
}

func TestReconstructTriangulatesFlatGrid(t *testing.T) {
	verts := flatGrid(5, 1.0)
	tree := octree.New(verts, 4)
	graph := mesh.NewGraph(tree.Vertices)
	m := New(tree, graph)

	m.Reconstruct(1.5)

	if m.NFacets() == 0 {
		t.Fatal("expected at least one facet")
	}
	if graph.NumIndexed() < len(verts)-4 {
		t.Fatalf("expected most of the %d grid points to be meshed, got %d indexed", len(verts), graph.NumIndexed())
	}
	for f := mesh.FacetHandle(0); int(f) < graph.NumFacets(); f++ {
		facet := graph.Facet(f)
		if facet.V[0] == facet.V[1] || facet.V[1] == facet.V[2] || facet.V[0] == facet.V[2] {
			t.Fatalf("facet %d has degenerate vertex set %v", f, facet.V)
		}
	}
}

func TestReconstructGridSample(t *testing.T) {
	verts := flatGrid(4, 1.0)
	tree := octree.New(verts, 2)
	graph := mesh.NewGraph(tree.Vertices)
	m := New(tree, graph)

	m.Reconstruct(0.8)

	if m.NFacets() != 18 {
		t.Fatalf("expected 18 triangles, got %d", m.NFacets())
	}
	border := 0
	for eh := mesh.EdgeHandle(0); int(eh) < graph.NumEdges(); eh++ {
		if graph.Edge(eh).Type == mesh.Border {
			border++
		}
	}
	if border != 12 {
		t.Fatalf("expected 12 border edges around the perimeter, got %d", border)
	}
}

func TestReconstructRadiiPromotesBorderEdges(t *testing.T) {
	verts := flatGrid(5, 1.0)
	tree := octree.New(verts, 4)
	graph := mesh.NewGraph(tree.Vertices)
	m := New(tree, graph)

	m.ReconstructRadii([]float64{0.9, 1.5})

	if m.NFacets() == 0 {
		t.Fatal("expected facets after multi-radius reconstruction")
	}
}

func TestProgressCallbackFires(t *testing.T) {
	verts := flatGrid(5, 1.0)
	tree := octree.New(verts, 4)
	graph := mesh.NewGraph(tree.Vertices)
	m := New(tree, graph)
	m.ProgressInterval = 1

	calls := 0
	m.Progress = func(nv, nf, nfr, nb int) { calls++ }
	m.Reconstruct(1.5)

	if calls == 0 {
		t.Fatal("expected progress callback to fire at least once")
	}
}

func TestParallelReconstructMatchesSequentialFacetCount(t *testing.T) {
	verts := flatGrid(6, 1.0)
	tree := octree.New(verts, 4)
	graph := mesh.NewGraph(tree.Vertices)

	pm := ParallelReconstruct(tree, graph, []float64{1.5}, ParallelOptions{MaxWorkers: 4})
	if pm.NFacets() == 0 {
		t.Fatal("expected parallel driver to produce facets")
	}
	if graph.NumIndexed() < len(verts)-6 {
		t.Fatalf("expected most of the %d grid points to be meshed, got %d indexed", len(verts), graph.NumIndexed())
	}

	seqTree := octree.New(flatGrid(6, 1.0), 4)
	seq := New(seqTree, mesh.NewGraph(seqTree.Vertices))
	seq.ReconstructRadii([]float64{1.5})
	if pm.NFacets() != seq.NFacets() {
		t.Fatalf("parallel driver produced %d facets, sequential driver %d", pm.NFacets(), seq.NFacets())
	}
}

// tetraVerts builds the four corners of a right tetrahedron with outward
// unit normals, one per vertex pointing away from the centroid.
func tetraVerts(offset geom.Point) []mesh.Vertex {
	corners := [4]geom.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	centroid := geom.Point{X: 0.25, Y: 0.25, Z: 0.25}

	verts := make([]mesh.Vertex, 4)
	for i, c := range corners {
		n, _ := geom.Normalize(r3.Sub(c, centroid))
		p := r3.Add(c, offset)
		verts[i] = mesh.NewVertex(p, n)
	}
	return verts
}

func TestReconstructTetrahedronSample(t *testing.T) {
	verts := tetraVerts(geom.Point{})
	tree := octree.New(verts, 2)
	graph := mesh.NewGraph(tree.Vertices)
	m := New(tree, graph)

	m.Reconstruct(1.5)

	if m.NFacets() != 4 {
		t.Fatalf("expected exactly 4 facets, got %d", m.NFacets())
	}
	inner, border := 0, 0
	for eh := mesh.EdgeHandle(0); int(eh) < graph.NumEdges(); eh++ {
		switch graph.Edge(eh).Type {
		case mesh.InnerE:
			inner++
		case mesh.Border:
			border++
		}
	}
	if inner != 6 {
		t.Fatalf("expected 6 Inner edges, got %d", inner)
	}
	if border != 0 {
		t.Fatalf("expected 0 border edges, got %d", border)
	}
}

func TestReconstructTwoSeparatedClustersStaySeparate(t *testing.T) {
	near := tetraVerts(geom.Point{})
	far := tetraVerts(geom.Point{X: 100, Y: 100, Z: 100})
	verts := append(near, far...)

	tree := octree.New(verts, 2)
	graph := mesh.NewGraph(tree.Vertices)
	m := New(tree, graph)

	m.Reconstruct(1.5)

	if m.NFacets() != 8 {
		t.Fatalf("expected 8 facets total across both clusters, got %d", m.NFacets())
	}

	parent := make([]int, len(verts))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	for eh := mesh.EdgeHandle(0); int(eh) < graph.NumEdges(); eh++ {
		e := graph.Edge(eh)
		union(int(e.Src), int(e.Tgt))
	}

	roots := map[int]bool{}
	for i := range verts {
		if graph.Vertex(mesh.VertexHandle(i)).Index >= 0 {
			roots[find(i)] = true
		}
	}
	if len(roots) != 2 {
		t.Fatalf("expected exactly 2 connected components, got %d", len(roots))
	}
}
