package network

import (
	"container/heap"
	"math"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

const (
	// A* terminates after this many expansions even on degenerate graphs.
	maxAStarExpansions = 1000

	// Partial-path fallback Dijkstra stops after this many relaxations.
	maxDijkstraRelaxations = 5000
)

// Partial-result reason codes.
const (
	ReasonNoPath       = "no_complete_path"
	ReasonTimeExceeded = "travel_time_ceiling_exceeded"
	ReasonSearchCapped = "search_iteration_cap"
)

// PathResult is the outcome of a pathfinding query. Unreachability is not
// an error: Success=false with Partial=true means the best-effort path
// toward the destination, with Reason saying why it fell short.
type PathResult struct {
	Success      bool          `json:"success"`
	Partial      bool          `json:"is_partial"`
	Reason       string        `json:"reason,omitempty"`
	Path         []geo.Point2D `json:"path"`
	NodeIDs      []string      `json:"node_ids"`
	DistanceM    float64       `json:"distance_m"`
	TravelTimeS  float64       `json:"travel_time_s"`
	BlockedEdges []string      `json:"blocked_edges,omitempty"`
}

// edgeCostFn lets alternative-path search inflate already-used edges.
type edgeCostFn func(e *citymap.Edge) float64

func vehicleCostFn(v Vehicle) edgeCostFn {
	return func(e *citymap.Edge) float64 { return EdgeCost(e, v) }
}

// pqItem is a priority-queue entry. seq breaks cost ties by insertion
// order so search is deterministic.
type pqItem struct {
	nodeID string
	f      float64
	seq    int
}

type priorityQueue []pqItem

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// FindPath routes a vehicle between two arbitrary map points. Both points
// are spliced into the graph for the duration of the query and the graph
// is restored before returning, on every path including errors.
// maxTravelTimeS <= 0 disables the ceiling.
func (a *Analyzer) FindPath(start, end geo.Point2D, v Vehicle, maxTravelTimeS float64) (*PathResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	startAt, err := a.attach(start)
	if err != nil {
		return nil, err
	}
	defer startAt.cleanup()

	endAt, err := a.attach(end)
	if err != nil {
		return nil, err
	}
	defer endAt.cleanup()

	return a.findPathNodes(startAt.nodeID, endAt.nodeID, vehicleCostFn(v), a.heuristicSpeedKPH(v), maxTravelTimeS), nil
}

// heuristicSpeedKPH is the fastest speed any edge allows the vehicle. It
// keeps the straight-line heuristic a lower bound on remaining travel
// time whatever speed limits the scenario configures.
func (a *Analyzer) heuristicSpeedKPH(v Vehicle) float64 {
	maxKPH := 0.0
	for _, e := range a.graph.Edges {
		if e.SpeedKPH > maxKPH {
			maxKPH = e.SpeedKPH
		}
	}
	if maxKPH <= 0 || v.MaxSpeedKPH < maxKPH {
		maxKPH = v.MaxSpeedKPH
	}
	if maxKPH <= 0 {
		maxKPH = 1
	}
	return maxKPH
}

// findPathNodes is A* between two existing nodes, with a bounded-iteration
// guard and a partial-path Dijkstra fallback when no complete path exists.
// speedKPH bounds the heuristic; it must be at least the speed any edge
// grants the vehicle or the search loses optimality.
func (a *Analyzer) findPathNodes(startID, endID string, cost edgeCostFn, speedKPH, maxTravelTimeS float64) *PathResult {
	goal := a.graph.Nodes[endID].Position
	h := func(nodeID string) float64 {
		return a.graph.Nodes[nodeID].Position.Distance(goal) / (speedKPH * kphToMps)
	}

	gScore := map[string]float64{startID: 0}
	cameFrom := map[string]string{}
	closed := map[string]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, pqItem{nodeID: startID, f: h(startID), seq: seq})

	expansions := 0
	capped := false
	ceilingHit := false
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if closed[cur.nodeID] {
			continue
		}
		if cur.nodeID == endID {
			return a.buildResult(startID, endID, cameFrom, cost)
		}
		closed[cur.nodeID] = true

		expansions++
		if expansions > maxAStarExpansions {
			capped = true
			break
		}

		for _, nb := range a.graph.NeighborsOf(cur.nodeID) {
			e := a.graph.Edges[nb.EdgeID]
			c := cost(e)
			if math.IsInf(c, 1) {
				continue
			}
			tentative := gScore[cur.nodeID] + c
			if maxTravelTimeS > 0 && tentative > maxTravelTimeS {
				ceilingHit = true
				continue
			}
			if old, seen := gScore[nb.NodeID]; seen && tentative >= old {
				continue
			}
			gScore[nb.NodeID] = tentative
			cameFrom[nb.NodeID] = cur.nodeID
			seq++
			heap.Push(pq, pqItem{nodeID: nb.NodeID, f: tentative + h(nb.NodeID), seq: seq})
		}
	}

	// A ceiling that never pruned anything did not cause the miss; the
	// destination is simply unreachable.
	reason := ReasonNoPath
	if capped {
		reason = ReasonSearchCapped
	} else if ceilingHit {
		reason = ReasonTimeExceeded
	}
	return a.partialPath(startID, endID, cost, reason)
}

// partialPath runs bounded Dijkstra from the start and returns the path to
// whichever visited node lies closest to the destination.
func (a *Analyzer) partialPath(startID, endID string, cost edgeCostFn, reason string) *PathResult {
	goal := a.graph.Nodes[endID].Position

	dist := map[string]float64{startID: 0}
	cameFrom := map[string]string{}
	done := map[string]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, pqItem{nodeID: startID, f: 0, seq: seq})

	relaxations := 0
	for pq.Len() > 0 && relaxations < maxDijkstraRelaxations {
		cur := heap.Pop(pq).(pqItem)
		if done[cur.nodeID] {
			continue
		}
		done[cur.nodeID] = true

		for _, nb := range a.graph.NeighborsOf(cur.nodeID) {
			relaxations++
			e := a.graph.Edges[nb.EdgeID]
			c := cost(e)
			if math.IsInf(c, 1) {
				continue
			}
			tentative := dist[cur.nodeID] + c
			if old, seen := dist[nb.NodeID]; seen && tentative >= old {
				continue
			}
			dist[nb.NodeID] = tentative
			cameFrom[nb.NodeID] = cur.nodeID
			seq++
			heap.Push(pq, pqItem{nodeID: nb.NodeID, f: tentative, seq: seq})
		}
	}

	best := startID
	bestDist := a.graph.Nodes[startID].Position.Distance(goal)
	for nodeID := range done {
		if d := a.graph.Nodes[nodeID].Position.Distance(goal); d < bestDist {
			best, bestDist = nodeID, d
		}
	}

	res := a.buildResult(startID, best, cameFrom, cost)
	res.Success = false
	res.Partial = true
	res.Reason = reason
	return res
}

// buildResult walks the predecessor chain and totals distance, time, and
// blocked edges along the way.
func (a *Analyzer) buildResult(startID, endID string, cameFrom map[string]string, cost edgeCostFn) *PathResult {
	ids := []string{endID}
	for cur := endID; cur != startID; {
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		ids = append(ids, prev)
		cur = prev
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	res := &PathResult{Success: true, NodeIDs: ids}
	for i, id := range ids {
		res.Path = append(res.Path, a.graph.Nodes[id].Position)
		if i == 0 {
			continue
		}
		e := a.graph.EdgeBetween(ids[i-1], id)
		if e == nil {
			continue
		}
		res.DistanceM += e.LengthM
		if c := cost(e); !math.IsInf(c, 1) {
			res.TravelTimeS += c
		}
		if e.WidthM < e.OriginalWidthM {
			res.BlockedEdges = append(res.BlockedEdges, e.ID)
		}
	}
	return res
}
