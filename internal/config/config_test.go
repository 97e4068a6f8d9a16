package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Solver.SubSteps != 8 {
		t.Errorf("expected 8 sub-steps, got %d", cfg.Solver.SubSteps)
	}
	if cfg.Solver.Threshold != 200 {
		t.Errorf("expected threshold 200, got %d", cfg.Solver.Threshold)
	}
	if cfg.Spawner.MaxCount != 1200 {
		t.Errorf("expected 1200 particles, got %d", cfg.Spawner.MaxCount)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("dense")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Solver.Iterations != 4 {
		t.Errorf("expected 4 iterations, got %d", cfg.Solver.Iterations)
	}
	if cfg.Name != "dense" {
		t.Errorf("expected name dense, got %s", cfg.Name)
	}

	// Presets must not leak into each other.
	if GetPreset("fountain").Solver.Iterations != 1 {
		t.Error("fountain picked up dense iterations")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestEdgePresetUsesRingPatch(t *testing.T) {
	sc, err := GetPreset("edge").SolverConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Edge != physics.EdgeRingPatch {
		t.Errorf("expected ring-patch, got %s", sc.Edge)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("gentle")
	cfg.Solver.Gravity = dynamo.V(0, 500)

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n%+v\n%+v", loaded, cfg)
	}
}

func TestLoadPartialFileKeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  iterations: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, GetPreset("gentle"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", cfg.Solver.Iterations)
	}
	if cfg.Spawner.MaxCount != 150 {
		t.Errorf("expected preset max count 150, got %d", cfg.Spawner.MaxCount)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	os.WriteFile(path, []byte("solver: [1, 2"), 0644)

	if _, err := Load(path, nil); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VERLETSIM_SUBSTEPS", "4")
	t.Setenv("VERLETSIM_ITERATIONS", "2")
	t.Setenv("VERLETSIM_SEED", "99")
	t.Setenv("VERLETSIM_EDGE", "ring")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}

	if cfg.Solver.SubSteps != 4 || cfg.Solver.Iterations != 2 {
		t.Errorf("expected 4 sub-steps and 2 iterations, got %d and %d", cfg.Solver.SubSteps, cfg.Solver.Iterations)
	}
	if cfg.Spawner.Seed != 99 {
		t.Errorf("expected seed 99, got %d", cfg.Spawner.Seed)
	}
	if cfg.Solver.UpdateRate != 60 {
		t.Errorf("unset variable changed rate to %f", cfg.Solver.UpdateRate)
	}
	if cfg.Run.Frames != DefaultFrames {
		t.Errorf("unset variable changed frames to %d", cfg.Run.Frames)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("VERLETSIM_SUBSTEPS", "many")

	if err := DefaultConfig().ApplyEnv(); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sub-steps", func(c *Config) { c.Solver.SubSteps = 0 }},
		{"zero rate", func(c *Config) { c.Solver.UpdateRate = 0 }},
		{"response above one", func(c *Config) { c.Solver.Response = 1.5 }},
		{"zero iterations", func(c *Config) { c.Solver.Iterations = 0 }},
		{"negative threshold", func(c *Config) { c.Solver.Threshold = -1 }},
		{"zero radius", func(c *Config) { c.Solver.Radius = 0 }},
		{"zero grid", func(c *Config) { c.Solver.GridWidth = 0 }},
		{"zero cell size", func(c *Config) { c.Solver.CellSize = 0 }},
		{"unknown edge", func(c *Config) { c.Solver.Edge = "wrap" }},
		{"bad spawner", func(c *Config) { c.Spawner.MinRadius = -1 }},
		{"negative frames", func(c *Config) { c.Run.Frames = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
