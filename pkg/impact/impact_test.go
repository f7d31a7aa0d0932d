package impact

import (
	"testing"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/disaster"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/network"
)

var ambulance = network.Vehicle{Name: "ambulance", WidthM: 2.5, MaxSpeedKPH: 80, MinRoadWidthM: 3.0}

func lineGraph(t *testing.T) (*citymap.RoadGraph, []*citymap.Node) {
	t.Helper()
	g := citymap.NewRoadGraph(citymap.Boundary{MaxX: 400, MaxY: 200})
	var nodes []*citymap.Node
	for i := 0; i <= 4; i++ {
		nodes = append(nodes, g.NewNode(geo.Pt(float64(i)*100, 100), citymap.NodeIntersection))
	}
	for i := 0; i < 4; i++ {
		e := &citymap.Edge{From: nodes[i].ID, To: nodes[i+1].ID, WidthM: 6, LaneCount: 2,
			Bidirectional: true, Lanes: citymap.BuildLanes(2, true, 6),
			Class: citymap.RoadSecondary, SpeedKPH: 50}
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g, nodes
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		timeS float64
		want  ServiceLevel
	}{
		{100, LevelFast},
		{300, LevelFast},
		{450, LevelModerate},
		{750, LevelSlow},
		{1200, LevelCritical},
		{-1, LevelUnreachable},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.timeS); got != tc.want {
			t.Errorf("LevelFor(%v) = %s, want %s", tc.timeS, got, tc.want)
		}
	}
}

func TestAnalyzeCoverage(t *testing.T) {
	g, nodes := lineGraph(t)
	a := network.NewAnalyzer(g)
	stations := []*citymap.Facility{{
		ID: "st", Kind: citymap.FacilityAmbulanceStation,
		Position: nodes[0].Position, NodeID: nodes[0].ID,
	}}

	cov, err := Analyze(a, stations, ambulance, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(cov.Cells) != 8 {
		t.Fatalf("got %d cells, want 8 (4x2 grid)", len(cov.Cells))
	}

	total := 0
	for _, n := range cov.CellsByLevel {
		total += n
	}
	if total != len(cov.Cells) {
		t.Errorf("level counts sum to %d, want %d", total, len(cov.Cells))
	}
	if cov.CellsByLevel[LevelUnreachable] == len(cov.Cells) {
		t.Error("everything unreachable from an on-network station")
	}

	// Cells along the road should be reachable quickly.
	for _, cell := range cov.Cells {
		if cell.Center.Distance(geo.Pt(50, 150)) < 1 && cell.Level == LevelUnreachable {
			t.Error("cell beside the station unreachable")
		}
	}
}

func TestCompareDegradation(t *testing.T) {
	g, nodes := lineGraph(t)
	a := network.NewAnalyzer(g)
	stations := []*citymap.Facility{{
		ID: "st", Kind: citymap.FacilityAmbulanceStation,
		Position: nodes[0].Position, NodeID: nodes[0].ID,
	}}

	pre, err := Analyze(a, stations, ambulance, 100)
	if err != nil {
		t.Fatal(err)
	}

	// Cut the network after the second node: the far end drops off.
	cut := g.EdgeBetween(nodes[1].ID, nodes[2].ID)
	a.ApplyObstructions([]*disaster.RoadObstruction{{EdgeID: cut.ID, RemainingWidthM: 1}})

	post, err := Analyze(a, stations, ambulance, 100)
	if err != nil {
		t.Fatal(err)
	}

	cmp := Compare(pre, post)
	if cmp.DegradedCells == 0 {
		t.Error("severing the network degraded no cells")
	}
	if cmp.LostCells == 0 {
		t.Error("cells beyond the cut should become unreachable")
	}
	if cmp.ImprovedCells != 0 {
		t.Errorf("%d cells improved after a cut", cmp.ImprovedCells)
	}
}
