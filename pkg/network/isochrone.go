package network

import (
	"container/heap"
	"math"
	"sort"

	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

// Isochrone is the reachable region for one time budget.
type Isochrone struct {
	TimeBudgetS    float64       `json:"time_budget_s"`
	Boundary       geo.Polygon   `json:"boundary"`
	ReachableNodes int           `json:"reachable_nodes"`
	Points         []geo.Point2D `json:"points"`
}

// ServiceArea computes the isochrone around a center point for one time
// budget: Dijkstra out to the budget, convex hull over the reached nodes.
func (a *Analyzer) ServiceArea(center geo.Point2D, v Vehicle, timeBudgetS float64) (*Isochrone, error) {
	isos, err := a.ServiceAreas(center, v, []float64{timeBudgetS})
	if err != nil {
		return nil, err
	}
	return isos[0], nil
}

// ServiceAreas computes isochrones for several time thresholds from one
// Dijkstra pass. Each hull contains exactly the nodes whose accumulated
// travel time fits that threshold.
func (a *Analyzer) ServiceAreas(center geo.Point2D, v Vehicle, timeBudgetsS []float64) ([]*Isochrone, error) {
	if len(timeBudgetsS) == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	at, err := a.attach(center)
	if err != nil {
		return nil, err
	}
	defer at.cleanup()

	budgets := append([]float64(nil), timeBudgetsS...)
	sort.Float64s(budgets)
	maxBudget := budgets[len(budgets)-1]

	times := a.dijkstraTimes(at.nodeID, vehicleCostFn(v), maxBudget)

	out := make([]*Isochrone, 0, len(budgets))
	for _, budget := range budgets {
		var pts []geo.Point2D
		for nodeID, tt := range times {
			if tt <= budget {
				pts = append(pts, a.graph.Nodes[nodeID].Position)
			}
		}
		iso := &Isochrone{TimeBudgetS: budget, ReachableNodes: len(pts), Points: pts}
		if len(pts) >= 3 {
			iso.Boundary = geo.ConvexHull(pts)
		}
		out = append(out, iso)
	}
	return out, nil
}

// dijkstraTimes relaxes outward from a node until the time budget is
// exhausted, returning accumulated travel time per reached node.
func (a *Analyzer) dijkstraTimes(startID string, cost edgeCostFn, maxTimeS float64) map[string]float64 {
	times := map[string]float64{startID: 0}
	done := map[string]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, pqItem{nodeID: startID, f: 0, seq: seq})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if done[cur.nodeID] {
			continue
		}
		done[cur.nodeID] = true

		for _, nb := range a.graph.NeighborsOf(cur.nodeID) {
			e := a.graph.Edges[nb.EdgeID]
			c := cost(e)
			if math.IsInf(c, 1) {
				continue
			}
			tentative := times[cur.nodeID] + c
			if tentative > maxTimeS {
				continue
			}
			if old, seen := times[nb.NodeID]; seen && tentative >= old {
				continue
			}
			times[nb.NodeID] = tentative
			seq++
			heap.Push(pq, pqItem{nodeID: nb.NodeID, f: tentative, seq: seq})
		}
	}
	return times
}

// TravelTimesFrom exposes single-source travel times for a map point,
// used by the service coverage analysis.
func (a *Analyzer) TravelTimesFrom(p geo.Point2D, v Vehicle, maxTimeS float64) (map[string]geo.Point2D, map[string]float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	at, err := a.attach(p)
	if err != nil {
		return nil, nil, err
	}
	defer at.cleanup()

	times := a.dijkstraTimes(at.nodeID, vehicleCostFn(v), maxTimeS)
	positions := make(map[string]geo.Point2D, len(times))
	for nodeID := range times {
		positions[nodeID] = a.graph.Nodes[nodeID].Position
	}
	return positions, times, nil
}
