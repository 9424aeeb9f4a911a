package mesher

import (
	"testing"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

func TestFillHolesClosesBorderTriangle(t *testing.T) {
	up := geom.Point{X: 0, Y: 0, Z: 1}
	verts := []mesh.Vertex{
		mesh.NewVertex(geom.Point{X: 0, Y: 0, Z: 0}, up),
		mesh.NewVertex(geom.Point{X: 1, Y: 0, Z: 0}, up),
		mesh.NewVertex(geom.Point{X: 0, Y: 1, Z: 0}, up),
	}
	g := mesh.NewGraph(verts)

	e01 := g.EnsureEdge(0, 1)
	e02 := g.EnsureEdge(0, 2)
	e21 := g.EnsureEdge(2, 1)
	for _, e := range []mesh.EdgeHandle{e01, e02, e21} {
		g.Edge(e).Type = mesh.Border
	}

	closed := FillHoles(g)
	if closed != 1 {
		t.Fatalf("expected exactly one hole closed, got %d", closed)
	}
	if g.NumFacets() != 1 {
		t.Fatalf("expected one facet created, got %d", g.NumFacets())
	}
}

func TestFillHolesNoOpWithoutBorderLoop(t *testing.T) {
	up := geom.Point{X: 0, Y: 0, Z: 1}
	verts := []mesh.Vertex{
		mesh.NewVertex(geom.Point{X: 0, Y: 0, Z: 0}, up),
		mesh.NewVertex(geom.Point{X: 5, Y: 5, Z: 5}, up),
	}
	g := mesh.NewGraph(verts)
	if closed := FillHoles(g); closed != 0 {
		t.Fatalf("expected no holes closed on disconnected vertices, got %d", closed)
	}
}
