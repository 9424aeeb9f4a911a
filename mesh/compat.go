package mesh

import (
	"github.com/jdigne/ballpivot/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// SeedCompatible tests whether candidate triangle (q,v1,v2) is normal
// compatible with query vertex q, mirroring Vertex::isCompatibleWith(v1,v2)
// called on q: the triangle normal is flipped, if needed, to match q's own
// normal before the other two vertices are checked against it. This is
// deliberately a different convention from EdgeCompatible (spec §9 Open
// Question (b), preserved verbatim: the two call sites never agree on a
// single orientation rule).
func SeedCompatible(g *Graph, q, v1, v2 VertexHandle) bool {
	qv, v1v, v2v := g.Vertex(q), g.Vertex(v1), g.Vertex(v2)
	n := geom.TriangleNormal(qv.Pos, v1v.Pos, v2v.Pos, qv.Normal, v1v.Normal, v2v.Normal)
	if r3.Dot(n, qv.Normal) < 0 {
		n = r3.Scale(-1, n)
	}
	return geom.CompatibleSign(r3.Dot(n, v1v.Normal)) && geom.CompatibleSign(r3.Dot(n, v2v.Normal))
}

// EdgeCompatible tests whether candidate vertex c is normal compatible with
// edge e, mirroring Vertex::isCompatibleWith(Edge&): the triangle normal of
// (src,tgt,c) is the raw normalize(cross(c-src, tgt-src)), with no flip
// toward any vertex's own normal (unlike SeedCompatible), and all three dot
// products (candidate, src, tgt) against that normal must be non-negative.
func EdgeCompatible(g *Graph, e EdgeHandle, c VertexHandle) bool {
	edge := g.Edge(e)
	sv, tv, cv := g.Vertex(edge.Src), g.Vertex(edge.Tgt), g.Vertex(c)
	n, ok := geom.Normalize(r3.Cross(r3.Sub(cv.Pos, sv.Pos), r3.Sub(tv.Pos, sv.Pos)))
	if !ok {
		return false
	}
	return geom.CompatibleSign(r3.Dot(n, cv.Normal)) &&
		geom.CompatibleSign(r3.Dot(n, sv.Normal)) &&
		geom.CompatibleSign(r3.Dot(n, tv.Normal))
}
