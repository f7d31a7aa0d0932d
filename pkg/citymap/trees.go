package citymap

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

// Vulnerability is a tree's categorical collapse-risk class.
// Level I is the most fragile, level III the most robust.
type Vulnerability string

const (
	VulnerabilityI   Vulnerability = "I"
	VulnerabilityII  Vulnerability = "II"
	VulnerabilityIII Vulnerability = "III"
)

// Tree is a roadside tree, the only disaster hazard source in the model.
type Tree struct {
	ID            string        `json:"id"`
	Position      geo.Point2D   `json:"position"`
	HeightM       float64       `json:"height_m"`
	TrunkWidthM   float64       `json:"trunk_width_m"`
	Vulnerability Vulnerability `json:"vulnerability"`
}

// PlaceTrees lines both sides of every road with trees at roughly regular
// spacing, offset past the road surface by a buffer plus a random setback.
// Access edges carry no trees.
func PlaceTrees(g *RoadGraph, cfg scenario.TreesDef, rng *rand.Rand) []*Tree {
	levels, weights := vulnerabilityCDF(cfg.VulnerabilityMix)

	var trees []*Tree
	for _, e := range g.OrderedEdges() {
		if e.Class == RoadAccess {
			continue
		}
		seg, ok := g.Segment(e)
		if !ok || seg.Length() < cfg.SpacingM {
			continue
		}
		dir := seg.Direction()
		perp := dir.Perp()

		n := int(seg.Length() / cfg.SpacingM)
		for i := 0; i <= n; i++ {
			along := float64(i)*cfg.SpacingM + (rng.Float64()-0.5)*cfg.SpacingM*0.4
			base := seg.A.Add(dir.Scale(clamp(along, 0, seg.Length())))
			for _, side := range []float64{1, -1} {
				offset := e.WidthM/2 + cfg.RoadBufferM + rng.Float64()*cfg.MaxOffsetM
				pos := base.Add(perp.Scale(side * offset))
				if !g.Boundary.Contains(pos) {
					continue
				}
				trees = append(trees, &Tree{
					ID:            uuid.NewString(),
					Position:      pos,
					HeightM:       cfg.HeightRangeM[0] + rng.Float64()*(cfg.HeightRangeM[1]-cfg.HeightRangeM[0]),
					TrunkWidthM:   cfg.TrunkRangeM[0] + rng.Float64()*(cfg.TrunkRangeM[1]-cfg.TrunkRangeM[0]),
					Vulnerability: drawVulnerability(levels, weights, rng),
				})
			}
		}
	}
	return trees
}

// vulnerabilityCDF turns the mix map into a cumulative distribution with a
// stable level order.
func vulnerabilityCDF(mix map[string]float64) ([]Vulnerability, []float64) {
	keys := make([]string, 0, len(mix))
	for k := range mix {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	levels := make([]Vulnerability, 0, len(keys))
	weights := make([]float64, 0, len(keys))
	cum := 0.0
	for _, k := range keys {
		cum += mix[k]
		levels = append(levels, Vulnerability(k))
		weights = append(weights, cum)
	}
	return levels, weights
}

func drawVulnerability(levels []Vulnerability, cdf []float64, rng *rand.Rand) Vulnerability {
	if len(levels) == 0 {
		return VulnerabilityIII
	}
	u := rng.Float64()
	for i, c := range cdf {
		if u <= c {
			return levels[i]
		}
	}
	return levels[len(levels)-1]
}
