package main

import (
	"fmt"

	"github.com/ton731/urban-resilience-simulator/pkg/disaster"
	"github.com/ton731/urban-resilience-simulator/pkg/network"
	"github.com/ton731/urban-resilience-simulator/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.Field != "" {
				fmt.Printf("    -> %s = %v\n", e.Field, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.Field != "" {
				fmt.Printf("    -> %s = %v\n", w.Field, w.ActualValue)
			}
			if w.Expected != "" {
				fmt.Printf("    expected: %s\n", w.Expected)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printSimulationStats(s disaster.Stats, intensity float64) {
	fmt.Printf("Disaster Simulation (intensity %.1f)\n", intensity)
	fmt.Println("====================================")
	fmt.Printf("  Trees:                %d\n", s.TreesTotal)
	fmt.Printf("  Collapsed:            %d\n", s.TreesCollapsed)
	for _, lvl := range []string{"I", "II", "III"} {
		for level, count := range s.CollapsedByLevel {
			if string(level) == lvl {
				fmt.Printf("    level %-4s          %d\n", lvl, count)
			}
		}
	}
	fmt.Printf("  Roads affected:       %d\n", s.RoadsAffected)
	fmt.Printf("  Blocked length:       %.0f m\n", s.TotalBlockedLengthM)
	fmt.Printf("  Avg blockage:         %.1f%%\n", s.AvgBlockagePercent)
	fmt.Println()
}

func printConnectivity(r *network.ConnectivityReport) {
	status := "connected"
	if r.Fragmented {
		status = fmt.Sprintf("FRAGMENTED (%d components)", r.ConnectedComponents)
	}
	fmt.Printf("%-12s %4d/%-4d edges passable, %6.0f m blocked, %s\n",
		r.VehicleName, r.PassableEdges, r.TotalEdges, r.BlockedLengthM, status)
}

func printRouteResult(r *network.PathResult, v network.Vehicle) {
	fmt.Printf("Route (%s)\n", v.Name)
	fmt.Println("==========")
	switch {
	case r.Success:
		fmt.Println("  Status:       complete")
	case r.Partial:
		fmt.Printf("  Status:       partial (%s)\n", r.Reason)
	default:
		fmt.Println("  Status:       not found")
	}
	fmt.Printf("  Distance:     %.0f m\n", r.DistanceM)
	fmt.Printf("  Travel time:  %.0f s\n", r.TravelTimeS)
	fmt.Printf("  Waypoints:    %d\n", len(r.Path))
	if len(r.BlockedEdges) > 0 {
		fmt.Printf("  Obstructed edges on route: %d\n", len(r.BlockedEdges))
	}
}
