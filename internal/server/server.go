// Package server exposes the simulation pipeline over HTTP for the
// frontend: world generation, disaster runs, and network queries against
// in-memory state keyed by opaque ids.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/disaster"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/impact"
	"github.com/ton731/urban-resilience-simulator/pkg/network"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
)

// worldState is one generated world plus everything derived from it.
// mu serializes whole request transactions: an obstruction set stays
// applied from applySimulation through every query a handler runs on it.
// The server's worlds map has its own lock.
type worldState struct {
	scenario *scenario.Scenario
	world    *citymap.World

	mu          sync.Mutex
	analyzer    *network.Analyzer
	fleet       map[string]network.Vehicle
	simulations map[string]*disaster.Result
}

// Server holds all live worlds in memory.
type Server struct {
	port int

	mu     sync.Mutex
	worlds map[string]*worldState
}

// New creates a server.
func New(port int) *Server {
	return &Server{port: port, worlds: make(map[string]*worldState)}
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("treefall server starting on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.router())
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/worlds", s.handleCreateWorld).Methods(http.MethodPost)
	api.HandleFunc("/worlds/{id}", s.handleGetWorld).Methods(http.MethodGet)
	api.HandleFunc("/worlds/{id}/disasters", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/worlds/{id}/routes", s.handleRoute).Methods(http.MethodPost)
	api.HandleFunc("/worlds/{id}/service-areas", s.handleServiceAreas).Methods(http.MethodPost)
	api.HandleFunc("/worlds/{id}/connectivity", s.handleConnectivity).Methods(http.MethodGet)
	api.HandleFunc("/worlds/{id}/impact", s.handleImpact).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

func (s *Server) state(id string) (*worldState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.worlds[id]
	return st, ok
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	sc := scenario.Default()
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(sc); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("decoding scenario: %w", err))
			return
		}
	}
	if report := scenario.Validate(sc); !report.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, report)
		return
	}

	world, report := citymap.GenerateWorld(sc)
	if world == nil {
		writeJSON(w, http.StatusUnprocessableEntity, report)
		return
	}

	st := &worldState{
		scenario:    sc,
		world:       world,
		analyzer:    network.NewAnalyzer(world.Graph),
		fleet:       network.Fleet(sc.Vehicles),
		simulations: make(map[string]*disaster.Result),
	}
	s.mu.Lock()
	s.worlds[world.ID] = st
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"world_id":   world.ID,
		"nodes":      len(world.Graph.Nodes),
		"edges":      len(world.Graph.Edges),
		"trees":      len(world.Trees),
		"facilities": len(world.Facilities),
		"validation": report,
	})
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(mux.Vars(r)["id"])
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown world"))
		return
	}
	writeJSON(w, http.StatusOK, st.world)
}

type simulateRequest struct {
	Intensity float64 `json:"intensity"`
	Seed      int64   `json:"seed"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(mux.Vars(r)["id"])
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown world"))
		return
	}

	cfg := st.scenario.Disaster
	var req simulateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if req.Intensity > 0 {
			cfg.Intensity = req.Intensity
		}
		if req.Seed != 0 {
			cfg.Seed = req.Seed
		}
	}
	if cfg.Intensity < 1 || cfg.Intensity > 10 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("intensity %v out of range [1, 10]", cfg.Intensity))
		return
	}

	sim := disaster.NewSimulator(cfg, rand.New(rand.NewSource(cfg.Seed)))
	res := sim.Run(st.world.Graph, st.world.Trees)

	st.mu.Lock()
	st.simulations[res.ID] = res
	st.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"simulation_id": res.ID,
		"events":        len(res.Events),
		"obstructions":  len(res.Obstructions),
		"stats":         res.Stats,
	})
}

// applySimulation switches the analyzer to a simulation's obstruction set,
// or clears obstructions when simulationID is empty. Callers hold st.mu
// across the apply and every query that depends on it.
func (st *worldState) applySimulation(simulationID string) error {
	if simulationID == "" {
		st.analyzer.ClearObstructions()
		return nil
	}
	res, ok := st.simulations[simulationID]
	if !ok {
		return fmt.Errorf("unknown simulation %s", simulationID)
	}
	st.analyzer.ApplyObstructions(res.Obstructions)
	return nil
}

func (st *worldState) vehicle(name string) (network.Vehicle, error) {
	if name == "" {
		name = "car"
	}
	v, ok := st.fleet[name]
	if !ok {
		return network.Vehicle{}, fmt.Errorf("unknown vehicle %q", name)
	}
	return v, nil
}

type routeRequest struct {
	Start          geo.Point2D `json:"start"`
	End            geo.Point2D `json:"end"`
	Vehicle        string      `json:"vehicle"`
	SimulationID   string      `json:"simulation_id"`
	MaxTravelTimeS float64     `json:"max_travel_time_s"`
	Alternatives   int         `json:"alternatives"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(mux.Vars(r)["id"])
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown world"))
		return
	}
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	v, err := st.vehicle(req.Vehicle)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.applySimulation(req.SimulationID); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}

	if req.Alternatives > 1 {
		paths, err := st.analyzer.FindAlternatives(req.Start, req.End, v, network.AlternativesOptions{
			MaxPaths:       req.Alternatives,
			MaxTravelTimeS: req.MaxTravelTimeS,
		})
		if err != nil {
			writeErr(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
		return
	}

	res, err := st.analyzer.FindPath(req.Start, req.End, v, req.MaxTravelTimeS)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type serviceAreaRequest struct {
	Center       geo.Point2D `json:"center"`
	Vehicle      string      `json:"vehicle"`
	TimeBudgetsS []float64   `json:"time_budgets_s"`
	SimulationID string      `json:"simulation_id"`
}

func (s *Server) handleServiceAreas(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(mux.Vars(r)["id"])
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown world"))
		return
	}
	var req serviceAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if len(req.TimeBudgetsS) == 0 {
		req.TimeBudgetsS = []float64{300, 600, 900}
	}
	v, err := st.vehicle(req.Vehicle)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.applySimulation(req.SimulationID); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}

	isos, err := st.analyzer.ServiceAreas(req.Center, v, req.TimeBudgetsS)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isochrones": isos})
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(mux.Vars(r)["id"])
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown world"))
		return
	}
	v, err := st.vehicle(r.URL.Query().Get("vehicle"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.applySimulation(r.URL.Query().Get("simulation_id")); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, st.analyzer.Connectivity(v))
}

type impactRequest struct {
	SimulationID string  `json:"simulation_id"`
	Vehicle      string  `json:"vehicle"`
	CellSizeM    float64 `json:"cell_size_m"`
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(mux.Vars(r)["id"])
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown world"))
		return
	}
	var req impactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.Vehicle == "" {
		req.Vehicle = "ambulance"
	}
	v, err := st.vehicle(req.Vehicle)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	stations := st.world.AmbulanceStations()

	// The pre/post pair is one transaction; no other request may swap the
	// obstruction set between the two analyses.
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.applySimulation(""); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	pre, err := impact.Analyze(st.analyzer, stations, v, req.CellSizeM)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := st.applySimulation(req.SimulationID); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	post, err := impact.Analyze(st.analyzer, stations, v, req.CellSizeM)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(w, http.StatusOK, impact.Compare(pre, post))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
