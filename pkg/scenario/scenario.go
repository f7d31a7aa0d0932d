package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ton731/urban-resilience-simulator/pkg/validation"
)

// Load reads a scenario from a YAML file. Missing fields fall back to the
// defaults from Default().
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	return s, nil
}

// LoadProject loads a scenario from a project directory.
// It looks for scenario.yaml in the given directory.
func LoadProject(projectDir string) (*Scenario, error) {
	return Load(filepath.Join(projectDir, "scenario.yaml"))
}

// Validate runs schema validation on a scenario. Configuration problems are
// rejected here, before any graph work begins.
func Validate(s *Scenario) *validation.Report {
	report := validation.NewReport()

	if s.Map.Width <= 0 || s.Map.Height <= 0 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "map extents must be positive",
			Field:       "map.width_m/map.height_m",
			ActualValue: []float64{s.Map.Width, s.Map.Height},
			Expected:    "> 0",
		})
	}
	if s.Map.MainRoadCount < 2 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "at least one vertical and one horizontal artery required",
			Field:       "map.main_road_count",
			ActualValue: s.Map.MainRoadCount,
			Expected:    ">= 2",
		})
	}
	if s.Map.MainRoadWidthM <= 0 || s.Map.AlleyWidthM <= 0 {
		report.AddError(validation.Result{
			Level:    validation.LevelSchema,
			Message:  "road widths must be positive",
			Field:    "map.main_road_width_m/map.alley_width_m",
			Expected: "> 0",
		})
	}
	if s.Disaster.Intensity < 1 || s.Disaster.Intensity > 10 {
		report.AddError(validation.Result{
			Level:       validation.LevelSchema,
			Message:     "disaster intensity out of range",
			Field:       "disaster.intensity",
			ActualValue: s.Disaster.Intensity,
			Expected:    "1 <= intensity <= 10",
		})
	}
	if len(s.Vehicles) == 0 {
		report.AddError(validation.Result{
			Level:    validation.LevelSchema,
			Message:  "no vehicles configured",
			Field:    "vehicles",
			Expected: "at least one vehicle class",
		})
	}
	for _, v := range s.Vehicles {
		if v.WidthM <= 0 || v.MaxSpeedKPH <= 0 || v.MinRoadWidthM <= 0 {
			report.AddError(validation.Result{
				Level:       validation.LevelSchema,
				Message:     fmt.Sprintf("vehicle %q has non-positive dimensions", v.Name),
				Field:       "vehicles",
				ActualValue: v,
				Expected:    "positive width, speed, minimum road width",
			})
		}
	}

	if mix := s.Trees.VulnerabilityMix; len(mix) > 0 {
		total := 0.0
		for _, w := range mix {
			total += w
		}
		if total < 0.999 || total > 1.001 {
			report.AddError(validation.Result{
				Level:       validation.LevelSchema,
				Message:     "tree vulnerability mix must sum to 1",
				Field:       "trees.vulnerability_mix",
				ActualValue: total,
				Expected:    "sum == 1.0",
			})
		}
	}

	if report.Valid {
		report.AddInfo(validation.Result{
			Level:   validation.LevelSchema,
			Message: fmt.Sprintf("scenario valid: %.0fx%.0f m map, %d arteries, %d vehicle classes", s.Map.Width, s.Map.Height, s.Map.MainRoadCount, len(s.Vehicles)),
		})
	}
	return report
}
