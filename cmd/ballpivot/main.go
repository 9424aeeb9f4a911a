// Command ballpivot reconstructs a triangle mesh from an oriented point
// cloud using the ball-pivoting algorithm. Point-file parsing, PLY output
// and flag parsing are deliberately thin: the engine itself lives in
// geom/octree/mesh/mesher, this file just wires it to stdin/stdout-style
// file arguments the way the teacher's example programs wire an SDF to a
// renderer (form3/glsdf3/examples/npt-flange/flange.go).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	ballio "github.com/jdigne/ballpivot/io"
	"github.com/jdigne/ballpivot/mesh"
	"github.com/jdigne/ballpivot/mesher"
	"github.com/jdigne/ballpivot/octree"
)

func main() {
	var (
		inPath   = flag.String("i", "", "input point file (x y z nx ny nz per line)")
		outPath  = flag.String("o", "", "output PLY mesh file")
		radiiArg = flag.String("r", "", "whitespace-separated ball radii, ascending (e.g. \"0.5 1 2\")")
		depth    = flag.Int("d", octree.DefaultDepth, "octree depth; has no effect, since -r is required and the smallest radius sizes the octree")
		parallel = flag.Bool("p", false, "use the 8-color spatial parallel driver")
		workers  = flag.Int("w", 0, "max concurrent cell tasks for -p (0 = unlimited)")
		verbose  = flag.Bool("v", false, "log progress every N facets")
	)
	flag.Parse()

	if err := run(*inPath, *outPath, *radiiArg, *depth, *parallel, *workers, *verbose); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath, radiiArg string, depth int, parallel bool, workers int, verbose bool) error {
	if inPath == "" || outPath == "" || radiiArg == "" {
		flag.Usage()
		return fmt.Errorf("ballpivot: -i, -o and -r are required")
	}
	radii, err := parseRadii(radiiArg)
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ballio.ErrInput, err)
	}
	defer in.Close()

	verts, err := ballio.ReadPoints(in, func(msg string) { log.Println(msg) })
	if err != nil {
		return err
	}
	if len(verts) == 0 {
		return fmt.Errorf("ballpivot: no valid points read from %s", inPath)
	}

	depthToUse := depth
	if len(radii) > 0 {
		depthToUse = octree.DepthForRadius(verts, radii[0])
	}
	tree := octree.New(verts, depthToUse)
	graph := mesh.NewGraph(tree.Vertices)

	var progress mesher.ProgressFunc
	if verbose {
		progress = func(nv, nf, nfr, nb int) {
			log.Printf("vertices=%d facets=%d front=%d border=%d", nv, nf, nfr, nb)
		}
	}

	var m *mesher.Mesher
	if parallel {
		m = mesher.ParallelReconstruct(tree, graph, radii, mesher.ParallelOptions{
			MaxWorkers: workers,
			Progress:   progress,
		})
	} else {
		m = mesher.New(tree, graph)
		m.Progress = progress
		m.ReconstructRadii(radii)
	}

	holes := mesher.FillHoles(graph)
	if verbose && holes > 0 {
		log.Printf("filled %d holes", holes)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ballio.ErrOutput, err)
	}
	defer out.Close()

	if err := ballio.WritePLY(out, graph); err != nil {
		return err
	}

	log.Printf("reconstructed %d facets over %d vertices", m.NFacets(), graph.NumIndexed())
	return nil
}

func parseRadii(arg string) ([]float64, error) {
	parts := strings.Fields(arg)
	radii := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("ballpivot: invalid radius %q: %v", p, err)
		}
		if r <= 0 {
			return nil, fmt.Errorf("ballpivot: radius must be positive, got %g", r)
		}
		if len(radii) > 0 && r <= radii[len(radii)-1] {
			return nil, fmt.Errorf("ballpivot: radii must be strictly ascending, got %g after %g", r, radii[len(radii)-1])
		}
		radii = append(radii, r)
	}
	if len(radii) == 0 {
		return nil, fmt.Errorf("ballpivot: -r requires at least one radius")
	}
	return radii, nil
}
