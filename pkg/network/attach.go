package network

import (
	"errors"
	"math"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

const (
	// Projection within this distance of an edge endpoint snaps to it.
	snapTolM = 12.0

	// Query points this close to their projection need no access edge.
	exactTolM = 1.0

	// Beyond this, fall back to force-connecting the nearest real node.
	searchRadiusM = 200.0

	// Access edges model reaching the roadway on foot.
	accessSpeedKPH = 5.0
	accessWidthM   = 10.0
)

// ErrEmptyGraph is returned for queries against a graph with no edges.
var ErrEmptyGraph = errors.New("network: graph has no routable edges")

// attachment records every mutation made to splice one query point into
// the graph, so cleanup can reverse them exactly. Cleanup must run before
// the analyzer is idle again; leaked virtual nodes poison later queries.
type attachment struct {
	g            *citymap.RoadGraph
	nodeID       string
	addedNodes   []string
	addedEdges   []string
	removedEdges []*citymap.Edge
}

// attach splices an arbitrary point into the graph and returns the node
// to route from. The graph must be restored via the returned attachment.
func (a *Analyzer) attach(p geo.Point2D) (*attachment, error) {
	if len(a.graph.Edges) == 0 {
		return nil, ErrEmptyGraph
	}
	at := &attachment{g: a.graph}

	edge, t, proj, dist := a.closestEdge(p)
	if edge == nil || dist > searchRadiusM {
		// Nothing close enough: force-connect the nearest real node so a
		// route can always be produced, however degenerate.
		nearest := a.nearestRealNode(p)
		if nearest == nil {
			return nil, ErrEmptyGraph
		}
		at.nodeID = at.addAccessNode(p, nearest.ID)
		return at, nil
	}

	from := a.graph.Nodes[edge.From]
	to := a.graph.Nodes[edge.To]

	// Near an endpoint: reuse the existing node instead of splitting.
	var roadNode string
	switch {
	case proj.Distance(from.Position) <= snapTolM:
		roadNode = from.ID
	case proj.Distance(to.Position) <= snapTolM:
		roadNode = to.ID
	default:
		roadNode = at.splitEdge(edge, t, proj)
	}

	if p.Distance(a.graph.Nodes[roadNode].Position) <= exactTolM {
		at.nodeID = roadNode
		return at, nil
	}
	at.nodeID = at.addAccessNode(p, roadNode)
	return at, nil
}

// closestEdge finds the edge whose segment is nearest to p, along with the
// clamped projection parameter and point.
func (a *Analyzer) closestEdge(p geo.Point2D) (*citymap.Edge, float64, geo.Point2D, float64) {
	var (
		best     *citymap.Edge
		bestT    float64
		bestProj geo.Point2D
		bestDist = math.Inf(1)
	)
	for _, e := range a.graph.OrderedEdges() {
		if e.Class == citymap.RoadAccess {
			continue
		}
		seg, ok := a.graph.Segment(e)
		if !ok {
			continue
		}
		t, proj := seg.Project(p)
		if d := p.Distance(proj); d < bestDist {
			best, bestT, bestProj, bestDist = e, t, proj, d
		}
	}
	return best, bestT, bestProj, bestDist
}

func (a *Analyzer) nearestRealNode(p geo.Point2D) *citymap.Node {
	var best *citymap.Node
	bestDist := math.Inf(1)
	for _, n := range a.graph.OrderedNodes() {
		if n.Kind != citymap.NodeIntersection {
			continue
		}
		if d := p.Distance(n.Position); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// splitEdge replaces one edge with two halves meeting at a new virtual
// node at the projected point, preserving width, lanes, and speed on both.
func (at *attachment) splitEdge(e *citymap.Edge, t float64, proj geo.Point2D) string {
	mid := at.g.NewNode(proj, citymap.NodeVirtual)
	at.addedNodes = append(at.addedNodes, mid.ID)

	at.g.RemoveEdge(e.ID)
	at.removedEdges = append(at.removedEdges, e)

	for _, half := range []*citymap.Edge{
		{From: e.From, To: mid.ID},
		{From: mid.ID, To: e.To},
	} {
		half.WidthM = e.WidthM
		half.OriginalWidthM = e.OriginalWidthM
		half.LaneCount = e.LaneCount
		half.Bidirectional = e.Bidirectional
		half.Lanes = e.Lanes
		half.Class = e.Class
		half.SpeedKPH = e.SpeedKPH
		// Endpoints exist; the split point lies on the segment.
		_ = at.g.AddEdge(half)
		at.addedEdges = append(at.addedEdges, half.ID)
	}
	return mid.ID
}

// addAccessNode creates an access node at the exact query point and links
// it to the road node with a walking-speed access edge.
func (at *attachment) addAccessNode(p geo.Point2D, roadNodeID string) string {
	n := at.g.NewNode(p, citymap.NodeAccess)
	at.addedNodes = append(at.addedNodes, n.ID)

	e := &citymap.Edge{
		From:          n.ID,
		To:            roadNodeID,
		WidthM:        accessWidthM,
		LaneCount:     1,
		Bidirectional: true,
		Lanes:         citymap.BuildLanes(1, true, accessWidthM),
		Class:         citymap.RoadAccess,
		SpeedKPH:      accessSpeedKPH,
	}
	_ = at.g.AddEdge(e)
	at.addedEdges = append(at.addedEdges, e.ID)
	return n.ID
}

// cleanup reverses every mutation: added edges and nodes go, split edges
// come back. Safe to call on a nil attachment and idempotent, so it can
// sit in a defer on every query path.
func (at *attachment) cleanup() {
	if at == nil {
		return
	}
	for _, id := range at.addedEdges {
		at.g.RemoveEdge(id)
	}
	for _, id := range at.addedNodes {
		at.g.RemoveNode(id)
	}
	for _, e := range at.removedEdges {
		// Restores the original id and attributes; length is recomputed
		// from the still-present endpoints.
		_ = at.g.AddEdge(e)
	}
	at.addedEdges = nil
	at.addedNodes = nil
	at.removedEdges = nil
}
