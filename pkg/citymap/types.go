package citymap

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

// NodeKind classifies graph nodes. Virtual and access nodes are transient:
// the network analyzer creates them to attach query points and removes them
// when the query completes.
type NodeKind string

const (
	NodeIntersection NodeKind = "intersection"
	NodeVirtual      NodeKind = "virtual"
	NodeAccess       NodeKind = "access"
)

// RoadClass classifies road edges.
type RoadClass string

const (
	RoadMain      RoadClass = "main"
	RoadSecondary RoadClass = "secondary"
	RoadAccess    RoadClass = "access"
)

// LaneDirection tags a lane as running with or against the edge direction.
type LaneDirection string

const (
	LaneForward  LaneDirection = "forward"
	LaneBackward LaneDirection = "backward"
)

// Lane describes a single lane within a road edge.
type Lane struct {
	Index     int           `json:"index"`
	Direction LaneDirection `json:"direction"`
	Side      string        `json:"side"` // "left" or "right", right-hand traffic
	WidthM    float64       `json:"width_m"`
}

// Node is a road network vertex.
type Node struct {
	ID       string      `json:"id"`
	Position geo.Point2D `json:"position"`
	Kind     NodeKind    `json:"kind"`

	seq int
}

// Edge is a road segment between two nodes. WidthM is the current passable
// width; obstruction updates reduce it and resets restore OriginalWidthM.
type Edge struct {
	ID             string    `json:"id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	WidthM         float64   `json:"width_m"`
	OriginalWidthM float64   `json:"original_width_m"`
	LaneCount      int       `json:"lane_count"`
	Bidirectional  bool      `json:"bidirectional"`
	Lanes          []Lane    `json:"lanes"`
	Class          RoadClass `json:"class"`
	SpeedKPH       float64   `json:"speed_kph"`
	LengthM        float64   `json:"length_m"`

	seq int
}

// Boundary is the map's bounding rectangle in plane meters.
type Boundary struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the boundary's horizontal extent.
func (b Boundary) Width() float64 { return b.MaxX - b.MinX }

// Height returns the boundary's vertical extent.
func (b Boundary) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether the point lies inside the boundary.
func (b Boundary) Contains(p geo.Point2D) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Polygon returns the boundary rectangle as a CCW polygon.
func (b Boundary) Polygon() geo.Polygon {
	return geo.NewPolygon(
		geo.Pt(b.MinX, b.MinY),
		geo.Pt(b.MaxX, b.MinY),
		geo.Pt(b.MaxX, b.MaxY),
		geo.Pt(b.MinX, b.MaxY),
	)
}

// Neighbor pairs an adjacent node with the edge reaching it.
type Neighbor struct {
	NodeID string
	EdgeID string
}

// RoadGraph is the undirected road network. It is built once by the map
// synthesizer and then owned exclusively by one network analyzer, which
// mutates it in place (obstruction widths, virtual-node splicing).
type RoadGraph struct {
	Boundary Boundary         `json:"boundary"`
	Nodes    map[string]*Node `json:"nodes"`
	Edges    map[string]*Edge `json:"edges"`

	adj     map[string]map[string]string // nodeID -> neighbor nodeID -> edgeID
	nextSeq int
}

// NewRoadGraph creates an empty graph over the given boundary.
func NewRoadGraph(b Boundary) *RoadGraph {
	return &RoadGraph{
		Boundary: b,
		Nodes:    make(map[string]*Node),
		Edges:    make(map[string]*Edge),
		adj:      make(map[string]map[string]string),
	}
}

// NewNode creates and registers a node at the given position.
func (g *RoadGraph) NewNode(pos geo.Point2D, kind NodeKind) *Node {
	n := &Node{ID: uuid.NewString(), Position: pos, Kind: kind, seq: g.nextSeq}
	g.nextSeq++
	g.Nodes[n.ID] = n
	return n
}

// AddEdge registers an edge. Both endpoints must already exist; the edge
// length is computed from their positions.
func (g *RoadGraph) AddEdge(e *Edge) error {
	from, ok := g.Nodes[e.From]
	if !ok {
		return fmt.Errorf("edge %s: unknown from-node %s", e.ID, e.From)
	}
	to, ok := g.Nodes[e.To]
	if !ok {
		return fmt.Errorf("edge %s: unknown to-node %s", e.ID, e.To)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OriginalWidthM == 0 {
		e.OriginalWidthM = e.WidthM
	}
	e.LengthM = from.Position.Distance(to.Position)
	e.seq = g.nextSeq
	g.nextSeq++
	g.Edges[e.ID] = e
	g.link(e.From, e.To, e.ID)
	g.link(e.To, e.From, e.ID)
	return nil
}

// RemoveEdge deletes an edge and its adjacency entries.
func (g *RoadGraph) RemoveEdge(edgeID string) {
	e, ok := g.Edges[edgeID]
	if !ok {
		return
	}
	delete(g.Edges, edgeID)
	g.unlink(e.From, e.To)
	g.unlink(e.To, e.From)
}

// RemoveNode deletes a node and every edge incident to it.
func (g *RoadGraph) RemoveNode(nodeID string) {
	for _, nb := range g.NeighborsOf(nodeID) {
		g.RemoveEdge(nb.EdgeID)
	}
	delete(g.adj, nodeID)
	delete(g.Nodes, nodeID)
}

// NeighborsOf returns the adjacent nodes of nodeID with connecting edges.
func (g *RoadGraph) NeighborsOf(nodeID string) []Neighbor {
	m := g.adj[nodeID]
	if len(m) == 0 {
		return nil
	}
	out := make([]Neighbor, 0, len(m))
	for nid, eid := range m {
		out = append(out, Neighbor{NodeID: nid, EdgeID: eid})
	}
	return out
}

// EdgeBetween returns the edge connecting two nodes, or nil.
func (g *RoadGraph) EdgeBetween(a, b string) *Edge {
	if eid, ok := g.adj[a][b]; ok {
		return g.Edges[eid]
	}
	return nil
}

// OrderedNodes returns all nodes in insertion order. Map iteration order is
// randomized per run; seeded generation needs a stable walk.
func (g *RoadGraph) OrderedNodes() []*Node {
	out := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// OrderedEdges returns all edges in insertion order.
func (g *RoadGraph) OrderedEdges() []*Edge {
	out := make([]*Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Degree returns the number of edges incident to a node.
func (g *RoadGraph) Degree(nodeID string) int { return len(g.adj[nodeID]) }

// Segment returns the edge's geometry as a segment from its from-node to
// its to-node, and false if either endpoint is missing.
func (g *RoadGraph) Segment(e *Edge) (geo.Segment, bool) {
	from, ok := g.Nodes[e.From]
	if !ok {
		return geo.Segment{}, false
	}
	to, ok := g.Nodes[e.To]
	if !ok {
		return geo.Segment{}, false
	}
	return geo.Seg(from.Position, to.Position), true
}

func (g *RoadGraph) link(from, to, edgeID string) {
	if g.adj[from] == nil {
		g.adj[from] = make(map[string]string)
	}
	g.adj[from][to] = edgeID
}

func (g *RoadGraph) unlink(from, to string) {
	if m := g.adj[from]; m != nil {
		delete(m, to)
		if len(m) == 0 {
			delete(g.adj, from)
		}
	}
}

// BuildLanes decomposes a road's total width into per-lane records.
// Bidirectional roads split lanes evenly between directions (right-hand
// traffic: forward lanes on the right); one-way roads put every lane forward.
func BuildLanes(laneCount int, bidirectional bool, totalWidth float64) []Lane {
	if laneCount <= 0 {
		return nil
	}
	laneWidth := totalWidth / float64(laneCount)
	lanes := make([]Lane, 0, laneCount)

	if bidirectional {
		perDir := laneCount / 2
		for i := 0; i < perDir; i++ {
			lanes = append(lanes, Lane{Index: i, Direction: LaneForward, Side: "right", WidthM: laneWidth})
		}
		for i := 0; i < laneCount-perDir; i++ {
			lanes = append(lanes, Lane{Index: perDir + i, Direction: LaneBackward, Side: "left", WidthM: laneWidth})
		}
		return lanes
	}

	for i := 0; i < laneCount; i++ {
		lanes = append(lanes, Lane{Index: i, Direction: LaneForward, Side: "right", WidthM: laneWidth})
	}
	return lanes
}

// DirectionalWidth sums the lane widths running in the given direction.
func DirectionalWidth(e *Edge, dir LaneDirection) float64 {
	total := 0.0
	for _, l := range e.Lanes {
		if l.Direction == dir {
			total += l.WidthM
		}
	}
	return total
}
