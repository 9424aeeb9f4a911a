package mesher

import (
	"math"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
	"github.com/jdigne/ballpivot/octree"
	"golang.org/x/sync/errgroup"
)

// ParallelOptions configures the spatial parallel driver of spec §4.8.
type ParallelOptions struct {
	// MaxWorkers bounds how many cell tasks run concurrently within a
	// single color wave; 0 means errgroup's default (no limit).
	MaxWorkers int
	Progress   ProgressFunc
}

// ParallelReconstruct runs the 8-color spatial-decomposition driver: radii
// outer, 8 colors inner (spec §4.8 step 3, mirroring
// Mesher::parallelReconstruct's nested loop). For each radius, every color
// wave runs one local Mesher per same-colored cell concurrently, merging
// their results into the shared Graph before the next color starts; a
// cell's first wave ever (lowest radius, first time that cell is visited)
// runs full seed search plus front expansion, every later wave for that
// cell instead collects its existing cell-local Front and Border edges
// back into a fresh local Mesher before expanding only. A final front
// expansion pass at the largest radius mops up whatever candidates fell
// outside their owning cell's dilated region. Translated from OpenMP
// critical sections and raw pointer merging to an errgroup fork-join per
// wave plus a shared, mutex-guarded Graph (spec §5, §9).
func ParallelReconstruct(tree *octree.Octree, graph *mesh.Graph, radii []float64, opts ParallelOptions) *Mesher {
	global := New(tree, graph)
	global.Progress = opts.Progress

	if len(radii) == 0 {
		return global
	}
	rMax := radii[len(radii)-1]
	dilation := 2.1 * rMax
	depth := processingDepth(tree, dilation)
	cells := tree.CellsAtDepth(depth)

	firstWave := make(map[*octree.Node]bool, len(cells))
	for _, c := range cells {
		firstWave[c] = true
	}

	for _, r := range radii {
		for color := 0; color < 8; color++ {
			colorCells := filterColor(cells, depth, color)
			if len(colorCells) == 0 {
				continue
			}

			locals := make([]*Mesher, len(colorCells))
			var g errgroup.Group
			if opts.MaxWorkers > 0 {
				g.SetLimit(opts.MaxWorkers)
			}
			for i, cell := range colorCells {
				i, cell := i, cell
				first := firstWave[cell]
				g.Go(func() error {
					local := New(tree, graph)
					local.seedRoot = cell
					local.contain = containmentFor(cell, dilation)
					local.radius = r
					local.sqRadius = r * r
					if first {
						local.reconstructAtCurrentRadius()
					} else {
						local.collectCellEdges(cell)
						local.expandFrontOnly()
					}
					locals[i] = local
					return nil
				})
			}
			_ = g.Wait() // local Meshers never return an error; nothing to propagate.

			for _, cell := range colorCells {
				firstWave[cell] = false
			}
			for _, local := range locals {
				global.merge(local)
			}
		}
	}

	global.radius = rMax
	global.sqRadius = rMax * rMax
	global.expandFrontOnly()
	return global
}

// merge folds a finished local Mesher's deferred edges into the shared
// Mesher's own bookkeeping, mirroring Mesher::merge. No facet or vertex
// data needs copying: locals write directly into the Graph and Octree
// this Mesher also shares, so "merging" is solely about which edges the
// next wave (or the final sequential pass) still needs to look at. A
// local's borderEdges only survive the merge if nothing else, such as a
// facet pivoted from a different cell, already closed that edge's second
// facet in the meantime (spec §4.8's merge protocol).
func (global *Mesher) merge(local *Mesher) {
	global.nFacets += local.nFacets
	global.nVertices += local.nVertices
	global.front = append(global.front, local.nodeBorder...)
	for _, eh := range local.borderEdges {
		if global.Graph.Edge(eh).Facet2 == mesh.NoFacet {
			global.borderEdges = append(global.borderEdges, eh)
		}
	}

	kept := global.front[:0]
	for _, eh := range global.front {
		if global.Graph.Edge(eh).Type == mesh.FrontE {
			kept = append(kept, eh)
		}
	}
	global.front = kept
}

// processingDepth picks a depth coarser than the octree's own leaf depth
// so that each depth-D cell, dilated by d on every side, still fits
// comfortably inside its own region: D = leafDepth - floor(log2(size /
// (1.5*d))), clamped to [leafDepth-3, leafDepth] (spec §4.8).
func processingDepth(tree *octree.Octree, d float64) int {
	leafDepth := tree.Depth()
	size := 2 * tree.Root().HalfSize()
	if size <= 0 || d <= 0 {
		return leafDepth
	}
	shrink := int(math.Floor(math.Log2(size / (1.5 * d))))
	depth := leafDepth - shrink

	lo := leafDepth - 3
	if lo < 0 {
		lo = 0
	}
	if depth < lo {
		depth = lo
	}
	if depth > leafDepth {
		depth = leafDepth
	}
	return depth
}

// filterColor keeps only the cells whose Color(depth) equals color.
func filterColor(cells []*octree.Node, depth, color int) []*octree.Node {
	var out []*octree.Node
	for _, c := range cells {
		if c.Color(depth) == color {
			out = append(out, c)
		}
	}
	return out
}

// containmentFor returns a predicate accepting points within the cell's
// cube dilated by margin on every side (spec §4.8's "containment node"
// test, Octree::isInside).
func containmentFor(cell *octree.Node, margin float64) func(geom.Point) bool {
	return func(p geom.Point) bool { return cell.IsInside(p, margin) }
}
