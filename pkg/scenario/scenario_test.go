package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	report := Validate(Default())
	if !report.Valid {
		t.Fatalf("default scenario invalid: %s", report.Summary)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	data := []byte(`
map:
  width_m: 3000
  main_road_count: 6
disaster:
  intensity: 8
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Map.Width != 3000 {
		t.Errorf("width %v, want 3000", s.Map.Width)
	}
	if s.Map.MainRoadCount != 6 {
		t.Errorf("main road count %d, want 6", s.Map.MainRoadCount)
	}
	if s.Disaster.Intensity != 8 {
		t.Errorf("intensity %v, want 8", s.Disaster.Intensity)
	}
	// Untouched fields keep their defaults.
	if s.Map.Height != 2000 {
		t.Errorf("height %v, want default 2000", s.Map.Height)
	}
	if len(s.Vehicles) != 5 {
		t.Errorf("got %d vehicles, want default fleet of 5", len(s.Vehicles))
	}
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scenario.yaml"), []byte("spec_version: \"0.2.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if s.SpecVersion != "0.2.0" {
		t.Errorf("spec version %q, want 0.2.0", s.SpecVersion)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	s := Default()
	s.Map.Width = 0
	s.Disaster.Intensity = 15
	s.Vehicles = nil

	report := Validate(s)
	if report.Valid {
		t.Fatal("broken scenario passed validation")
	}
	if len(report.Errors) < 3 {
		t.Errorf("got %d errors, want at least 3 (map size, intensity, vehicles)", len(report.Errors))
	}
}

func TestValidateVulnerabilityMix(t *testing.T) {
	s := Default()
	s.Trees.VulnerabilityMix = map[string]float64{"I": 0.5, "II": 0.2}
	if report := Validate(s); report.Valid {
		t.Error("mix summing to 0.7 passed validation")
	}
}
