package citymap

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
	"github.com/ton731/urban-resilience-simulator/pkg/validation"
)

// World is one generated simulation world: the road graph plus the hazard
// and facility populations placed on it.
type World struct {
	ID         string      `json:"id"`
	Graph      *RoadGraph  `json:"graph"`
	Trees      []*Tree     `json:"trees"`
	Facilities []*Facility `json:"facilities"`
}

// GenerateWorld runs the full synthesis pipeline for a scenario: road
// graph, roadside trees, emergency facilities. The scenario's map seed
// drives every random choice.
func GenerateWorld(s *scenario.Scenario) (*World, *validation.Report) {
	rng := rand.New(rand.NewSource(s.Map.Seed))

	graph, report := NewSynthesizer(s.Map, rng).Generate()
	if !report.Valid {
		return nil, report
	}

	w := &World{
		ID:         uuid.NewString(),
		Graph:      graph,
		Trees:      PlaceTrees(graph, s.Trees, rng),
		Facilities: PlaceFacilities(graph, s.Facilities, rng),
	}
	return w, report
}

// AmbulanceStations returns the world's ambulance station facilities.
func (w *World) AmbulanceStations() []*Facility {
	out := []*Facility{}
	for _, f := range w.Facilities {
		if f.Kind == FacilityAmbulanceStation {
			out = append(out, f)
		}
	}
	return out
}
