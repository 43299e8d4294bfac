package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Physics.RestDensity != 1000.0 {
		t.Errorf("expected rest density 1000, got %v", cfg.Physics.RestDensity)
	}
	if cfg.Physics.MaxNeighbors != 64 {
		t.Errorf("expected max_neighbors 64, got %d", cfg.Physics.MaxNeighbors)
	}
	if cfg.Solver.Iterations < 1 {
		t.Errorf("expected at least one solver iteration, got %d", cfg.Solver.Iterations)
	}
}

func TestDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Derived.H32 != float32(cfg.Physics.SmoothingRadius) {
		t.Errorf("H32 mismatch: %v vs %v", cfg.Derived.H32, cfg.Physics.SmoothingRadius)
	}
	if cfg.Derived.Gravity.Y() != float32(cfg.Physics.Gravity.Y) {
		t.Errorf("gravity mismatch: %v vs %v", cfg.Derived.Gravity.Y(), cfg.Physics.Gravity.Y)
	}
	if got := cfg.Derived.AABBMax.X(); got != float32(cfg.World.AABBMax.X) {
		t.Errorf("aabb max mismatch: %v", got)
	}
	if math.Abs(float64(cfg.Derived.Mass32)-cfg.Particles.Mass) > 1e-9 {
		t.Errorf("mass mismatch: %v vs %v", cfg.Derived.Mass32, cfg.Particles.Mass)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	override := `
physics:
  rest_density: 500.0
particles:
  count: 123
`
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading override: %v", err)
	}

	if cfg.Physics.RestDensity != 500.0 {
		t.Errorf("override not applied: rest density %v", cfg.Physics.RestDensity)
	}
	if cfg.Particles.Count != 123 {
		t.Errorf("override not applied: count %d", cfg.Particles.Count)
	}
	// Untouched fields keep defaults
	if cfg.Physics.MaxNeighbors != 64 {
		t.Errorf("default lost on merge: max_neighbors %d", cfg.Physics.MaxNeighbors)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"zero_radius":   "physics:\n  smoothing_radius: 0\n",
		"bad_aabb":      "world:\n  aabb_min:\n    x: 5.0\n",
		"no_iterations": "solver:\n  iterations: 0\n",
	}

	for name, body := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error, got none", name)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if reloaded.Physics.RestDensity != cfg.Physics.RestDensity {
		t.Errorf("round trip changed rest density: %v vs %v",
			reloaded.Physics.RestDensity, cfg.Physics.RestDensity)
	}
	if reloaded.Particles.Count != cfg.Particles.Count {
		t.Errorf("round trip changed count: %d vs %d",
			reloaded.Particles.Count, cfg.Particles.Count)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("init with defaults: %v", err)
	}
	cfg := Cfg()
	if cfg == nil {
		t.Fatal("Cfg returned nil after Init")
	}
	if cfg.Physics.RestDensity != 1000 {
		t.Errorf("expected default rest density 1000, got %v", cfg.Physics.RestDensity)
	}
}
