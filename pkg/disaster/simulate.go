package disaster

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

// defaultCollapseRates back the configured rates when a level is missing.
var defaultCollapseRates = map[citymap.Vulnerability]float64{
	citymap.VulnerabilityI:   0.8,
	citymap.VulnerabilityII:  0.5,
	citymap.VulnerabilityIII: 0.1,
}

// CollapseProbability scales a vulnerability level's base rate by disaster
// intensity. Intensity 10 yields the full base rate, intensity 0 half of it.
func CollapseProbability(baseRate, intensity float64) float64 {
	return baseRate * (0.5 + 0.5*math.Min(1, intensity/10))
}

// Simulator runs vulnerability-driven collapse decisions over a tree
// population and converts the hits into per-road obstructions. All
// randomness comes from the injected RNG.
type Simulator struct {
	cfg scenario.DisasterDef
	rng *rand.Rand
}

// NewSimulator creates a simulator for the given disaster definition.
func NewSimulator(cfg scenario.DisasterDef, rng *rand.Rand) *Simulator {
	return &Simulator{cfg: cfg, rng: rng}
}

func (s *Simulator) baseRate(v citymap.Vulnerability) float64 {
	if r, ok := s.cfg.CollapseRates[string(v)]; ok {
		return r
	}
	return defaultCollapseRates[v]
}

// Run decides collapse per tree, builds blockage polygons, and intersects
// them with every nearby road edge. One obstruction is emitted per
// (event, affected edge) pair; an edge hit by several events keeps them
// all, and consumers reduce to the minimum width.
func (s *Simulator) Run(g *citymap.RoadGraph, trees []*citymap.Tree) *Result {
	res := &Result{
		ID: uuid.NewString(),
		Stats: Stats{
			TreesTotal:       len(trees),
			CollapsedByLevel: make(map[citymap.Vulnerability]int),
		},
	}

	edges := g.OrderedEdges()
	blockedSum := 0.0

	for _, tree := range trees {
		p := CollapseProbability(s.baseRate(tree.Vulnerability), s.cfg.Intensity)
		if s.rng.Float64() > p {
			continue
		}

		ev := &TreeCollapseEvent{
			ID:            uuid.NewString(),
			TreeID:        tree.ID,
			Location:      tree.Position,
			Vulnerability: tree.Vulnerability,
			AngleDeg:      s.rng.Float64() * 360,
			HeightM:       tree.HeightM,
			TrunkWidthM:   tree.TrunkWidthM,
		}
		ev.Blockage = CollapsePolygon(ev.Location, ev.AngleDeg, ev.HeightM, ev.TrunkWidthM)
		res.Events = append(res.Events, ev)
		res.Stats.TreesCollapsed++
		res.Stats.CollapsedByLevel[tree.Vulnerability]++

		for _, e := range edges {
			if e.Class == citymap.RoadAccess {
				continue
			}
			if o := ObstructionFor(g, e, ev); o != nil {
				res.Obstructions = append(res.Obstructions, o)
				blockedSum += o.BlockedPercent
			}
		}
	}

	affected := make(map[string]bool)
	for _, o := range res.Obstructions {
		if !affected[o.EdgeID] {
			affected[o.EdgeID] = true
			if e, ok := g.Edges[o.EdgeID]; ok {
				res.Stats.TotalBlockedLengthM += e.LengthM
			}
		}
	}
	res.Stats.RoadsAffected = len(affected)
	if len(res.Obstructions) > 0 {
		res.Stats.AvgBlockagePercent = blockedSum / float64(len(res.Obstructions))
	}
	return res
}
