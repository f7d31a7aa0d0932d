package citymap

import (
	"math"
	"sort"

	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

const (
	// Intersection points closer than this collapse into one node.
	nodeMergeTolM = 0.25

	// Sub-edges shorter than this are skipped; anything longer is kept so
	// crossings always end up sharing a node.
	minSubEdgeM = 0.01
)

// nodeIndex deduplicates nearby points into canonical graph nodes using a
// coarse grid, so float jitter at crossings cannot spawn duplicate nodes.
type nodeIndex struct {
	g    *RoadGraph
	grid map[[2]int64][]string
}

func newNodeIndex(g *RoadGraph) *nodeIndex {
	return &nodeIndex{g: g, grid: make(map[[2]int64][]string)}
}

func (ix *nodeIndex) cell(p geo.Point2D) [2]int64 {
	return [2]int64{int64(math.Floor(p.X / nodeMergeTolM)), int64(math.Floor(p.Y / nodeMergeTolM))}
}

// resolve returns the node for p, creating it if no existing node lies
// within the merge tolerance.
func (ix *nodeIndex) resolve(p geo.Point2D) string {
	c := ix.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range ix.grid[[2]int64{c[0] + dx, c[1] + dy}] {
				if ix.g.Nodes[id].Position.Distance(p) <= nodeMergeTolM {
					return id
				}
			}
		}
	}
	n := ix.g.NewNode(p, NodeIntersection)
	ix.grid[c] = append(ix.grid[c], n.ID)
	return n.ID
}

// resolveIntersections converts independent centerline segments into a
// connected graph: every pairwise crossing becomes a shared node and each
// road is split into sub-edges between consecutive crossings, preserving
// the road's attributes on every piece.
func resolveIntersections(b Boundary, roads []road) *RoadGraph {
	g := NewRoadGraph(b)
	ix := newNodeIndex(g)

	// Cut parameters per road: endpoints plus every crossing.
	cuts := make([][]float64, len(roads))
	for i := range roads {
		cuts[i] = []float64{0, 1}
	}
	for i := 0; i < len(roads); i++ {
		for j := i + 1; j < len(roads); j++ {
			p, ok := roads[i].seg.Intersect(roads[j].seg)
			if !ok {
				continue
			}
			ti, _ := roads[i].seg.Project(p)
			tj, _ := roads[j].seg.Project(p)
			cuts[i] = append(cuts[i], ti)
			cuts[j] = append(cuts[j], tj)
		}
	}

	for i, r := range roads {
		ts := cuts[i]
		sort.Float64s(ts)

		prevT := ts[0]
		prevNode := ix.resolve(r.seg.At(prevT))
		for _, t := range ts[1:] {
			if (t-prevT)*r.seg.Length() < minSubEdgeM {
				continue
			}
			node := ix.resolve(r.seg.At(t))
			if node == prevNode {
				prevT = t
				continue
			}
			if g.EdgeBetween(prevNode, node) == nil {
				e := &Edge{
					From:          prevNode,
					To:            node,
					WidthM:        r.widthM,
					LaneCount:     r.lanes,
					Bidirectional: r.bidirectional,
					Lanes:         BuildLanes(r.lanes, r.bidirectional, r.widthM),
					Class:         r.class,
					SpeedKPH:      r.speedKPH,
				}
				// Endpoints are known to exist.
				_ = g.AddEdge(e)
			}
			prevT, prevNode = t, node
		}
	}
	return g
}
