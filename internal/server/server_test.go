package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/disaster"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/network"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

// testServer serves one world with a single straight road and one stored
// simulation whose obstruction closes that road completely.
func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	g := citymap.NewRoadGraph(citymap.Boundary{MaxX: 200, MaxY: 100})
	n1 := g.NewNode(geo.Pt(0, 50), citymap.NodeIntersection)
	n2 := g.NewNode(geo.Pt(200, 50), citymap.NodeIntersection)
	e := &citymap.Edge{From: n1.ID, To: n2.ID, WidthM: 6, LaneCount: 2,
		Bidirectional: true, Lanes: citymap.BuildLanes(2, true, 6),
		Class: citymap.RoadSecondary, SpeedKPH: 30}
	if err := g.AddEdge(e); err != nil {
		t.Fatal(err)
	}

	sc := scenario.Default()
	srv := New(0)
	srv.worlds["w"] = &worldState{
		scenario: sc,
		world:    &citymap.World{ID: "w", Graph: g},
		analyzer: network.NewAnalyzer(g),
		fleet:    network.Fleet(sc.Vehicles),
		simulations: map[string]*disaster.Result{
			"blocked": {ID: "blocked", Obstructions: []*disaster.RoadObstruction{
				{EdgeID: e.ID, RemainingWidthM: 0},
			}},
		},
	}
	return srv, "w"
}

func postRoute(ts *httptest.Server, worldID, simulationID string) (*network.PathResult, int, error) {
	body, err := json.Marshal(map[string]any{
		"start":         geo.Pt(0, 50),
		"end":           geo.Pt(200, 50),
		"vehicle":       "car",
		"simulation_id": simulationID,
	})
	if err != nil {
		return nil, 0, err
	}
	resp, err := http.Post(ts.URL+"/api/worlds/"+worldID+"/routes", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	var res network.PathResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, resp.StatusCode, err
	}
	return &res, resp.StatusCode, nil
}

func TestRouteUnknownSimulation(t *testing.T) {
	srv, worldID := testServer(t)
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	_, status, err := postRoute(ts, worldID, "no-such-simulation")
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNotFound {
		t.Errorf("status %d, want %d", status, http.StatusNotFound)
	}
}

func TestConcurrentRoutesKeepTheirSimulation(t *testing.T) {
	// Each request's route must reflect its own simulation_id even while
	// another request keeps switching the same world to a different set.
	srv, worldID := testServer(t)
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			res, status, err := postRoute(ts, worldID, "blocked")
			if err != nil || status != http.StatusOK {
				t.Errorf("blocked route: status %d err %v", status, err)
				return
			}
			if res.Success {
				t.Error("route succeeded under a simulation that closes the only road")
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			res, status, err := postRoute(ts, worldID, "")
			if err != nil || status != http.StatusOK {
				t.Errorf("baseline route: status %d err %v", status, err)
				return
			}
			if !res.Success {
				t.Errorf("baseline route failed (%s)", res.Reason)
				return
			}
		}
	}()
	wg.Wait()
}
