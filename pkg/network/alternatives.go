package network

import (
	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

const (
	// Cost multiplier on edges already used by an accepted path.
	defaultDiversityFactor = 1.5

	// Fraction of a candidate's edges that must differ from every
	// accepted path.
	defaultMinDifference = 0.7
)

// AlternativesOptions tunes diverse-path search. Zero values take the
// defaults.
type AlternativesOptions struct {
	MaxPaths        int
	DiversityFactor float64
	MinDifference   float64
	MaxTravelTimeS  float64
}

// FindAlternatives returns up to MaxPaths diverse routes between two
// points. After the first path, each round inflates already-used edges by
// the diversity factor and keeps the result only if enough of its edges
// are new; the search stops early once a round produces nothing
// sufficiently different.
func (a *Analyzer) FindAlternatives(start, end geo.Point2D, v Vehicle, opts AlternativesOptions) ([]*PathResult, error) {
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = 3
	}
	if opts.DiversityFactor <= 0 {
		opts.DiversityFactor = defaultDiversityFactor
	}
	if opts.MinDifference <= 0 {
		opts.MinDifference = defaultMinDifference
	}

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

	base := vehicleCostFn(v)
	// Inflation only raises edge costs, so the base-speed heuristic
	// stays admissible across rounds.
	speedKPH := a.heuristicSpeedKPH(v)
	used := map[string]bool{}
	var accepted []*PathResult

	for len(accepted) < opts.MaxPaths {
		cost := func(e *citymap.Edge) float64 {
			c := base(e)
			if used[e.ID] {
				c *= opts.DiversityFactor
			}
			return c
		}

		res := a.findPathNodes(startAt.nodeID, endAt.nodeID, cost, speedKPH, opts.MaxTravelTimeS)
		if !res.Success {
			break
		}
		edges := pathEdgeSet(a.graph, res.NodeIDs)
		if len(accepted) > 0 && !differentEnough(edges, accepted, a.graph, opts.MinDifference) {
			break
		}

		accepted = append(accepted, res)
		for id := range edges {
			used[id] = true
		}
	}
	return accepted, nil
}

func pathEdgeSet(g *citymap.RoadGraph, nodeIDs []string) map[string]bool {
	set := map[string]bool{}
	for i := 1; i < len(nodeIDs); i++ {
		if e := g.EdgeBetween(nodeIDs[i-1], nodeIDs[i]); e != nil {
			set[e.ID] = true
		}
	}
	return set
}

// differentEnough requires the candidate to differ from every accepted
// path by at least minDiff of its own edges.
func differentEnough(candidate map[string]bool, accepted []*PathResult, g *citymap.RoadGraph, minDiff float64) bool {
	if len(candidate) == 0 {
		return false
	}
	for _, prev := range accepted {
		prevSet := pathEdgeSet(g, prev.NodeIDs)
		shared := 0
		for id := range candidate {
			if prevSet[id] {
				shared++
			}
		}
		if 1-float64(shared)/float64(len(candidate)) < minDiff {
			return false
		}
	}
	return true
}
