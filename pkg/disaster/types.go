package disaster

import (
	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
)

// TreeCollapseEvent is one tree falling across its surroundings. The
// blockage polygon is the trunk rectangle extruded along the fall
// direction by the tree's height.
type TreeCollapseEvent struct {
	ID            string                `json:"id"`
	TreeID        string                `json:"tree_id"`
	Location      geo.Point2D           `json:"location"`
	Vulnerability citymap.Vulnerability `json:"vulnerability"`
	AngleDeg      float64               `json:"angle_deg"`
	HeightM       float64               `json:"height_m"`
	TrunkWidthM   float64               `json:"trunk_width_m"`
	Blockage      geo.Polygon           `json:"blockage"`
}

// RoadObstruction records how much of one road edge a collapse event
// blocks. RemainingWidthM is the cross-sectional bottleneck, not an
// area-derived estimate. For bidirectional roads the per-direction
// remaining widths are reported separately.
type RoadObstruction struct {
	ID                 string                              `json:"id"`
	EdgeID             string                              `json:"edge_id"`
	EventID            string                              `json:"event_id"`
	Blockage           geo.Polygon                         `json:"blockage"`
	RemainingWidthM    float64                             `json:"remaining_width_m"`
	BlockedPercent     float64                             `json:"blocked_percent"`
	DirectionalWidths  map[citymap.LaneDirection]float64   `json:"directional_widths,omitempty"`
	AffectedDirections []citymap.LaneDirection             `json:"affected_directions,omitempty"`
}

// Stats summarizes one simulation run.
type Stats struct {
	TreesTotal          int                           `json:"trees_total"`
	TreesCollapsed      int                           `json:"trees_collapsed"`
	CollapsedByLevel    map[citymap.Vulnerability]int `json:"collapsed_by_level"`
	RoadsAffected       int                           `json:"roads_affected"`
	TotalBlockedLengthM float64                       `json:"total_blocked_length_m"`
	AvgBlockagePercent  float64                       `json:"avg_blockage_percent"`
}

// Result is the full output of one disaster simulation.
type Result struct {
	ID           string               `json:"id"`
	Events       []*TreeCollapseEvent `json:"events"`
	Obstructions []*RoadObstruction   `json:"obstructions"`
	Stats        Stats                `json:"stats"`
}

// MinimumWidths reduces an obstruction list to the most restrictive
// remaining width per edge. Application order stops mattering once the
// reduction is explicit.
func MinimumWidths(obstructions []*RoadObstruction) map[string]float64 {
	widths := make(map[string]float64, len(obstructions))
	for _, o := range obstructions {
		if w, ok := widths[o.EdgeID]; !ok || o.RemainingWidthM < w {
			widths[o.EdgeID] = o.RemainingWidthM
		}
	}
	return widths
}
