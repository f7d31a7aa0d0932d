package disaster

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

func straightRoad(t *testing.T, width float64, bidirectional bool) (*citymap.RoadGraph, *citymap.Edge) {
	t.Helper()
	g := citymap.NewRoadGraph(citymap.Boundary{MinX: -50, MinY: -50, MaxX: 150, MaxY: 50})
	a := g.NewNode(geo.Pt(0, 0), citymap.NodeIntersection)
	b := g.NewNode(geo.Pt(100, 0), citymap.NodeIntersection)
	e := &citymap.Edge{
		From:          a.ID,
		To:            b.ID,
		WidthM:        width,
		LaneCount:     2,
		Bidirectional: bidirectional,
		Lanes:         citymap.BuildLanes(2, bidirectional, width),
		Class:         citymap.RoadSecondary,
		SpeedKPH:      30,
	}
	if err := g.AddEdge(e); err != nil {
		t.Fatalf("adding edge: %v", err)
	}
	return g, e
}

func TestCollapseProbabilityScaling(t *testing.T) {
	// Level I at full intensity: 0.8 x (0.5 + 0.5 x 1.0) = 0.8, not 1.0.
	if p := CollapseProbability(0.8, 10); !almostEqual(p, 0.8) {
		t.Errorf("p = %v, want 0.8", p)
	}
	if p := CollapseProbability(0.8, 5); !almostEqual(p, 0.6) {
		t.Errorf("p = %v, want 0.6", p)
	}
	// Intensity clamps at 10.
	if p := CollapseProbability(0.5, 25); !almostEqual(p, 0.5) {
		t.Errorf("p = %v, want 0.5", p)
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCollapsePolygon(t *testing.T) {
	poly := CollapsePolygon(geo.Pt(0, 0), 0, 10, 1)
	if poly.Len() != 4 {
		t.Fatalf("got %d vertices, want 4", poly.Len())
	}
	if a := poly.Area(); !almostEqual(a, 10) {
		t.Errorf("area = %v, want 10 (height x trunk width)", a)
	}
	// Fall along +x: the tip must be 10 m out.
	maxX := 0.0
	for _, v := range poly.Vertices {
		maxX = math.Max(maxX, v.X)
	}
	if !almostEqual(maxX, 10) {
		t.Errorf("tip at x=%v, want 10", maxX)
	}
}

func TestObstructionFullCrossing(t *testing.T) {
	g, e := straightRoad(t, 6, false)

	// Tree south of the road falling due north, sweeping the full width.
	ev := &TreeCollapseEvent{ID: "ev", Blockage: CollapsePolygon(geo.Pt(50, -10), 90, 20, 1)}
	o := ObstructionFor(g, e, ev)
	if o == nil {
		t.Fatal("expected obstruction")
	}
	if o.RemainingWidthM > 0.01 {
		t.Errorf("remaining width %v, want ~0 (full crossing)", o.RemainingWidthM)
	}
}

func TestObstructionMinimumNotAverage(t *testing.T) {
	g, e := straightRoad(t, 6, false)

	// Rectangle covering the south half of the road over a short extent.
	ev := &TreeCollapseEvent{ID: "ev", Blockage: geo.NewPolygon(
		geo.Pt(45, -3), geo.Pt(55, -3), geo.Pt(55, 0), geo.Pt(45, 0),
	).EnsureCCW()}
	o := ObstructionFor(g, e, ev)
	if o == nil {
		t.Fatal("expected obstruction")
	}
	// Every cross-section inside the extent loses 3 m; the bottleneck is
	// 3 m, even though most of the road length is untouched.
	if !within(o.RemainingWidthM, 3, 0.05) {
		t.Errorf("remaining width %v, want 3 (cross-sectional minimum)", o.RemainingWidthM)
	}
	// An area-based estimate would claim far more remaining width.
	if o.BlockedPercent > 10 {
		t.Errorf("blocked percent %v unexpectedly high", o.BlockedPercent)
	}
}

func within(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestObstructionDirectional(t *testing.T) {
	g, e := straightRoad(t, 6, true)

	// Block the south (forward) half only.
	ev := &TreeCollapseEvent{ID: "ev", Blockage: geo.NewPolygon(
		geo.Pt(45, -3), geo.Pt(55, -3), geo.Pt(55, 0), geo.Pt(45, 0),
	).EnsureCCW()}
	o := ObstructionFor(g, e, ev)
	if o == nil {
		t.Fatal("expected obstruction")
	}
	if o.DirectionalWidths == nil {
		t.Fatal("bidirectional road must report directional widths")
	}
	fwd := o.DirectionalWidths[citymap.LaneForward]
	bwd := o.DirectionalWidths[citymap.LaneBackward]
	if fwd > 0.1 {
		t.Errorf("forward remaining %v, want ~0", fwd)
	}
	if !within(bwd, 3, 0.05) {
		t.Errorf("backward remaining %v, want 3", bwd)
	}
	if len(o.AffectedDirections) != 1 || o.AffectedDirections[0] != citymap.LaneForward {
		t.Errorf("affected directions %v, want [forward]", o.AffectedDirections)
	}
	// The worse direction governs the edge, not the full-width chord.
	if o.RemainingWidthM > 0.1 {
		t.Errorf("overall remaining %v, want ~0 (forward half is gone)", o.RemainingWidthM)
	}
}

func TestObstructionMiss(t *testing.T) {
	g, e := straightRoad(t, 6, false)
	ev := &TreeCollapseEvent{ID: "ev", Blockage: CollapsePolygon(geo.Pt(50, 40), 90, 5, 1)}
	if o := ObstructionFor(g, e, ev); o != nil {
		t.Errorf("distant event produced obstruction: %+v", o)
	}
}

func TestObstructionFallback(t *testing.T) {
	g := citymap.NewRoadGraph(citymap.Boundary{MaxX: 100, MaxY: 100})
	e := &citymap.Edge{ID: "dangling", From: "missing-a", To: "missing-b", WidthM: 6, OriginalWidthM: 6}
	ev := &TreeCollapseEvent{ID: "ev", Blockage: CollapsePolygon(geo.Pt(50, 50), 0, 10, 1)}

	o := ObstructionFor(g, e, ev)
	if o == nil {
		t.Fatal("unresolvable geometry must still produce an obstruction")
	}
	if !within(o.RemainingWidthM, 1.8, 1e-9) {
		t.Errorf("fallback remaining width %v, want 1.8 (30%% of 6)", o.RemainingWidthM)
	}
	if !within(o.BlockedPercent, 70, 1e-9) {
		t.Errorf("fallback blocked percent %v, want 70", o.BlockedPercent)
	}
}

func TestMinimumWidths(t *testing.T) {
	obs := []*RoadObstruction{
		{EdgeID: "e1", RemainingWidthM: 4},
		{EdgeID: "e1", RemainingWidthM: 1.5},
		{EdgeID: "e2", RemainingWidthM: 3},
	}
	w := MinimumWidths(obs)
	if w["e1"] != 1.5 {
		t.Errorf("e1 width %v, want 1.5 (minimum wins)", w["e1"])
	}
	if w["e2"] != 3 {
		t.Errorf("e2 width %v, want 3", w["e2"])
	}
}

func TestSimulatorRun(t *testing.T) {
	g, e := straightRoad(t, 6, false)

	trees := []*citymap.Tree{}
	for i := 0; i < 40; i++ {
		trees = append(trees, &citymap.Tree{
			ID:            "tree",
			Position:      geo.Pt(float64(i*2+10), -5),
			HeightM:       15,
			TrunkWidthM:   0.8,
			Vulnerability: citymap.VulnerabilityI,
		})
	}

	cfg := scenario.Default().Disaster
	cfg.Intensity = 10
	res := NewSimulator(cfg, rand.New(rand.NewSource(11))).Run(g, trees)

	if res.Stats.TreesTotal != 40 {
		t.Errorf("trees total %d, want 40", res.Stats.TreesTotal)
	}
	if res.Stats.TreesCollapsed != len(res.Events) {
		t.Errorf("collapsed count %d != event count %d", res.Stats.TreesCollapsed, len(res.Events))
	}
	// Level I at intensity 10 collapses with p=0.8; 40 trees cannot all stand.
	if res.Stats.TreesCollapsed == 0 {
		t.Fatal("no collapses at intensity 10")
	}
	if res.Stats.CollapsedByLevel[citymap.VulnerabilityI] != res.Stats.TreesCollapsed {
		t.Error("level accounting mismatch")
	}
	for _, o := range res.Obstructions {
		if o.EdgeID != e.ID {
			t.Errorf("obstruction targets unknown edge %s", o.EdgeID)
		}
		if o.RemainingWidthM < 0 || o.RemainingWidthM > e.OriginalWidthM {
			t.Errorf("remaining width %v outside [0, %v]", o.RemainingWidthM, e.OriginalWidthM)
		}
	}
	if len(res.Obstructions) > 0 && res.Stats.RoadsAffected != 1 {
		t.Errorf("roads affected %d, want 1", res.Stats.RoadsAffected)
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	g, _ := straightRoad(t, 6, false)
	trees := []*citymap.Tree{
		{ID: "a", Position: geo.Pt(30, -5), HeightM: 12, TrunkWidthM: 0.5, Vulnerability: citymap.VulnerabilityII},
		{ID: "b", Position: geo.Pt(60, 5), HeightM: 18, TrunkWidthM: 1.1, Vulnerability: citymap.VulnerabilityI},
	}
	cfg := scenario.Default().Disaster

	r1 := NewSimulator(cfg, rand.New(rand.NewSource(5))).Run(g, trees)
	r2 := NewSimulator(cfg, rand.New(rand.NewSource(5))).Run(g, trees)
	if len(r1.Events) != len(r2.Events) || len(r1.Obstructions) != len(r2.Obstructions) {
		t.Error("same seed produced different simulations")
	}
	for i := range r1.Events {
		if r1.Events[i].AngleDeg != r2.Events[i].AngleDeg {
			t.Error("collapse angles differ between identical seeds")
		}
	}
}
