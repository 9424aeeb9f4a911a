package mesher

import "github.com/jdigne/ballpivot/mesh"

// FillHoles closes triangular gaps left after pivoting stalls: for every
// Border edge (src,tgt), it looks for a third vertex reachable by two more
// Border edges and, if found, closes the loop with a facet (spec §4.9).
// Unlike pivoted facets these have no associated ball center. Nothing
// tested that any ball of the working radius could span them; they are
// simply the best available closure of a leftover gap.
//
// Mirrors Mesher::fillHoles, run as a post-pass once regular advancing-front
// growth is exhausted. The scan over all edges repeats until a full pass
// closes nothing.
func FillHoles(g *mesh.Graph) int {
	closed := 0
	for {
		progressed := false
		for eh := mesh.EdgeHandle(0); int(eh) < g.NumEdges(); eh++ {
			e := g.Edge(eh)
			if e.Type != mesh.Border {
				continue
			}
			third, ok := g.FindBorder(eh)
			if !ok {
				continue
			}
			g.CreateFacet(e.Src, third, e.Tgt, mesh.Point{}, false)
			closed++
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return closed
}
