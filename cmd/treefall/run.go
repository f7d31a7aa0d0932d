package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/ton731/urban-resilience-simulator/pkg/citymap"
	"github.com/ton731/urban-resilience-simulator/pkg/disaster"
	"github.com/ton731/urban-resilience-simulator/pkg/geo"
	"github.com/ton731/urban-resilience-simulator/pkg/network"
	"github.com/ton731/urban-resilience-simulator/pkg/scenario"
	"github.com/ton731/urban-resilience-simulator/pkg/validation"
)

// loadAndValidate loads the scenario (or the defaults when no path is
// given) and runs schema validation.
func loadAndValidate(path string) (*scenario.Scenario, *validation.Report, error) {
	if path == "" {
		s := scenario.Default()
		return s, scenario.Validate(s), nil
	}
	s, err := scenario.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading scenario: %w", err)
	}
	return s, scenario.Validate(s), nil
}

func runValidate(path string) error {
	_, report, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	printValidationReport(report)
	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func runGenerate(path string) error {
	s, report, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("scenario has validation errors")
	}

	world, genReport := citymap.GenerateWorld(s)
	report.Merge(genReport)
	if world == nil {
		printValidationReport(report)
		return fmt.Errorf("world generation failed")
	}

	output := map[string]any{
		"scenario":   s,
		"world":      world,
		"validation": report,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func runSimulate(path string, intensity float64, seed int64) error {
	s, report, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("scenario has validation errors")
	}
	if intensity > 0 {
		s.Disaster.Intensity = intensity
	}
	if seed != 0 {
		s.Disaster.Seed = seed
	}

	world, genReport := citymap.GenerateWorld(s)
	report.Merge(genReport)
	if world == nil {
		printValidationReport(report)
		return fmt.Errorf("world generation failed")
	}

	sim := disaster.NewSimulator(s.Disaster, rand.New(rand.NewSource(s.Disaster.Seed)))
	res := sim.Run(world.Graph, world.Trees)

	printSimulationStats(res.Stats, s.Disaster.Intensity)

	analyzer := network.NewAnalyzer(world.Graph)
	analyzer.ApplyObstructions(res.Obstructions)
	for _, def := range s.Vehicles {
		printConnectivity(analyzer.Connectivity(network.VehicleFromDef(def)))
	}
	return nil
}

func runRoute(path, from, to, vehicleName string, withDisaster bool) error {
	s, report, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("scenario has validation errors")
	}

	start, err := parsePoint(from)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	end, err := parsePoint(to)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	v, ok := network.Fleet(s.Vehicles)[vehicleName]
	if !ok {
		return fmt.Errorf("unknown vehicle %q", vehicleName)
	}

	world, genReport := citymap.GenerateWorld(s)
	if world == nil {
		printValidationReport(genReport)
		return fmt.Errorf("world generation failed")
	}

	analyzer := network.NewAnalyzer(world.Graph)
	if withDisaster {
		sim := disaster.NewSimulator(s.Disaster, rand.New(rand.NewSource(s.Disaster.Seed)))
		res := sim.Run(world.Graph, world.Trees)
		analyzer.ApplyObstructions(res.Obstructions)
		printSimulationStats(res.Stats, s.Disaster.Intensity)
	}

	result, err := analyzer.FindPath(start, end, v, 0)
	if err != nil {
		return err
	}
	printRouteResult(result, v)
	return nil
}

// parsePoint parses "x,y" in meters.
func parsePoint(s string) (geo.Point2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point2D{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point2D{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point2D{}, err
	}
	return geo.Pt(x, y), nil
}
