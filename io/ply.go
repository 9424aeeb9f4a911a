package io

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

type plyVertex struct {
	pos, normal geom.Point
}

// WritePLY writes the reconstructed mesh as ASCII PLY 1.0 (spec §6):
// every vertex that was actually referenced by a facet, in emission-index
// order, followed by every facet as a 3-vertex face list. Vertices never
// touched by pivoting (still Orphan, no assigned index) are omitted,
// since they never became part of the surface.
func WritePLY(w io.Writer, g *mesh.Graph) error {
	verts := make([]plyVertex, g.NumIndexed())
	for h := mesh.VertexHandle(0); int(h) < g.NumVertices(); h++ {
		v := g.Vertex(h)
		if v.Index >= 0 {
			verts[v.Index] = plyVertex{pos: v.Pos, normal: v.Normal}
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", len(verts))
	fmt.Fprintln(bw, "property float x")
	fmt.Fprintln(bw, "property float y")
	fmt.Fprintln(bw, "property float z")
	fmt.Fprintln(bw, "property float nx")
	fmt.Fprintln(bw, "property float ny")
	fmt.Fprintln(bw, "property float nz")
	fmt.Fprintf(bw, "element face %d\n", g.NumFacets())
	fmt.Fprintln(bw, "property list uchar int vertex_indices")
	fmt.Fprintln(bw, "end_header")

	for _, v := range verts {
		fmt.Fprintf(bw, "%g %g %g %g %g %g\n", v.pos.X, v.pos.Y, v.pos.Z, v.normal.X, v.normal.Y, v.normal.Z)
	}
	for fh := mesh.FacetHandle(0); int(fh) < g.NumFacets(); fh++ {
		f := g.Facet(fh)
		i0 := g.Vertex(f.V[0]).Index
		i1 := g.Vertex(f.V[1]).Index
		i2 := g.Vertex(f.V[2]).Index
		fmt.Fprintf(bw, "3 %d %d %d\n", i0, i1, i2)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return nil
}
