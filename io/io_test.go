package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

func TestReadPointsParsesWellFormedLines(t *testing.T) {
	src := strings.NewReader(`# a comment
0 0 0 0 0 1
1 0 0 0 0 1

2 0 0 0 0 1
`)
	verts, err := ReadPoints(src, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verts) != 3 {
		t.Fatalf("got %d vertices, want 3", len(verts))
	}
	if verts[1].Pos.X != 1 {
		t.Fatalf("second vertex has wrong position: %v", verts[1].Pos)
	}
}

func TestReadPointsSkipsMalformedLinesWithWarning(t *testing.T) {
	src := strings.NewReader(`0 0 0 0 0 1
not six fields here
1 0 0 0 0 1
1 2 3 4
`)
	var warnings []string
	verts, err := ReadPoints(src, func(w string) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verts) != 2 {
		t.Fatalf("got %d vertices, want 2", len(verts))
	}
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(warnings))
	}
}

func TestWritePLYWritesTriangleAndOmitsOrphans(t *testing.T) {
	up := geom.Point{X: 0, Y: 0, Z: 1}
	verts := []mesh.Vertex{
		mesh.NewVertex(geom.Point{X: 0, Y: 0, Z: 0}, up),
		mesh.NewVertex(geom.Point{X: 1, Y: 0, Z: 0}, up),
		mesh.NewVertex(geom.Point{X: 0, Y: 1, Z: 0}, up),
		mesh.NewVertex(geom.Point{X: 9, Y: 9, Z: 9}, up), // never triangulated
	}
	g := mesh.NewGraph(verts)
	g.CreateFacet(0, 1, 2, geom.Point{}, false)
	g.AssignIndex(0)
	g.AssignIndex(1)
	g.AssignIndex(2)

	var buf bytes.Buffer
	if err := WritePLY(&buf, g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "element vertex 3") {
		t.Fatalf("expected 3 emitted vertices, got header:\n%s", out)
	}
	if !strings.Contains(out, "element face 1") {
		t.Fatalf("expected 1 face, got header:\n%s", out)
	}
	if !strings.Contains(out, "3 0 1 2") {
		t.Fatalf("expected face line referencing indices 0,1,2, got:\n%s", out)
	}
	if !strings.Contains(out, "property float nx") {
		t.Fatalf("expected normal properties in header, got:\n%s", out)
	}
	if !strings.Contains(out, "0 0 0 0 0 1") {
		t.Fatalf("expected vertex line to carry its normal, got:\n%s", out)
	}
}
