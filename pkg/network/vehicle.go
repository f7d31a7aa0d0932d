package network

import (
	"math"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

// Vehicle is the physical profile a query routes for.
type Vehicle struct {
	Name           string  `json:"name"`
	WidthM         float64 `json:"width_m"`
	LengthM        float64 `json:"length_m"`
	MaxSpeedKPH    float64 `json:"max_speed_kph"`
	MinRoadWidthM  float64 `json:"min_road_width_m"`
	CanUseSidewalk bool    `json:"can_use_sidewalk"`
}

// VehicleFromDef converts a scenario vehicle definition.
func VehicleFromDef(d scenario.VehicleDef) Vehicle {
	return Vehicle{
		Name:           d.Name,
		WidthM:         d.WidthM,
		LengthM:        d.LengthM,
		MaxSpeedKPH:    d.MaxSpeedKPH,
		MinRoadWidthM:  d.MinRoadWidthM,
		CanUseSidewalk: d.CanUseSidewalk,
	}
}

// Fleet indexes vehicle definitions by name.
func Fleet(defs []scenario.VehicleDef) map[string]Vehicle {
	out := make(map[string]Vehicle, len(defs))
	for _, d := range defs {
		out[d.Name] = VehicleFromDef(d)
	}
	return out
}

const kphToMps = 1000.0 / 3600.0

// Impassable marks an edge the vehicle cannot traverse.
var Impassable = math.Inf(1)

// EdgeCost returns the traversal time in seconds for a vehicle on an edge,
// or Impassable. Obstruction narrowing applies a penalty multiplier by
// width ratio; a road can be slow long before it is impassable.
func EdgeCost(e *citymap.Edge, v Vehicle) float64 {
	sidewalkDetour := false
	if e.WidthM < v.MinRoadWidthM {
		// Sidewalk permission lets a pedestrian squeeze past a blockage
		// that closes the roadway itself.
		if !v.CanUseSidewalk || e.WidthM <= 0 {
			return Impassable
		}
		sidewalkDetour = true
	}

	speed := math.Min(e.SpeedKPH, v.MaxSpeedKPH) * kphToMps
	if speed <= 0 {
		return Impassable
	}
	base := e.LengthM / speed

	if sidewalkDetour {
		return base * 2.0
	}
	return base * widthPenalty(e, v)
}

// widthPenalty maps the current/original width ratio to a cost multiplier.
func widthPenalty(e *citymap.Edge, v Vehicle) float64 {
	if e.OriginalWidthM <= 0 {
		return 1.0
	}
	ratio := e.WidthM / e.OriginalWidthM
	switch {
	case ratio >= 0.9:
		if e.WidthM < 1.2*v.MinRoadWidthM {
			return 1.3
		}
		return 1.0
	case ratio >= 0.7:
		return 1.5
	case ratio >= 0.5:
		return 2.0
	default:
		return 3.0
	}
}

// Passable reports whether the vehicle can traverse the edge at all.
func Passable(e *citymap.Edge, v Vehicle) bool {
	return !math.IsInf(EdgeCost(e, v), 1)
}
