package citymap

import (
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

// FacilityKind distinguishes emergency facility types.
type FacilityKind string

const (
	FacilityAmbulanceStation FacilityKind = "ambulance_station"
	FacilityShelter          FacilityKind = "shelter"
)

// Facility is an emergency facility pinned to a road node.
type Facility struct {
	ID       string       `json:"id"`
	Kind     FacilityKind `json:"kind"`
	Position geo.Point2D  `json:"position"`
	NodeID   string       `json:"node_id"`
	Capacity int          `json:"capacity,omitempty"` // shelters only
}

// PlaceFacilities pins ambulance stations and shelters to well-connected
// intersection nodes, preferring high degree and keeping facilities of the
// same kind spread apart.
func PlaceFacilities(g *RoadGraph, cfg scenario.FacilityDef, rng *rand.Rand) []*Facility {
	candidates := facilityCandidates(g)
	if len(candidates) == 0 {
		return nil
	}

	minSep := math.Min(g.Boundary.Width(), g.Boundary.Height()) / 5

	var out []*Facility
	for _, n := range pickSpread(candidates, cfg.AmbulanceStations, minSep) {
		out = append(out, &Facility{
			ID:       uuid.NewString(),
			Kind:     FacilityAmbulanceStation,
			Position: n.Position,
			NodeID:   n.ID,
		})
	}
	for _, n := range pickSpread(candidates, cfg.Shelters, minSep/2) {
		lo, hi := cfg.ShelterCapacityRange[0], cfg.ShelterCapacityRange[1]
		capacity := lo
		if hi > lo {
			capacity = lo + rng.Intn(hi-lo+1)
		}
		out = append(out, &Facility{
			ID:       uuid.NewString(),
			Kind:     FacilityShelter,
			Position: n.Position,
			NodeID:   n.ID,
			Capacity: capacity,
		})
	}
	return out
}

// facilityCandidates returns intersection nodes ordered by degree, highest
// first, with insertion order as the tie-break.
func facilityCandidates(g *RoadGraph) []*Node {
	nodes := g.OrderedNodes()
	candidates := nodes[:0:0]
	for _, n := range nodes {
		if n.Kind == NodeIntersection && g.Degree(n.ID) > 0 {
			candidates = append(candidates, n)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return g.Degree(candidates[i].ID) > g.Degree(candidates[j].ID)
	})
	return candidates
}

// pickSpread greedily takes up to count nodes from the ranked candidates,
// skipping any closer than minSep to an already chosen one. If the spacing
// rule starves the selection, it relaxes and fills from the top.
func pickSpread(candidates []*Node, count int, minSep float64) []*Node {
	if count <= 0 {
		return nil
	}
	var chosen []*Node
	taken := make(map[string]bool)
	for _, n := range candidates {
		if len(chosen) >= count {
			break
		}
		ok := true
		for _, c := range chosen {
			if c.Position.Distance(n.Position) < minSep {
				ok = false
				break
			}
		}
		if ok {
			chosen = append(chosen, n)
			taken[n.ID] = true
		}
	}
	for _, n := range candidates {
		if len(chosen) >= count {
			break
		}
		if !taken[n.ID] {
			chosen = append(chosen, n)
			taken[n.ID] = true
		}
	}
	return chosen
}
