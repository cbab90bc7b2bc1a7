package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FPS != 75 {
		t.Errorf("expected fps 75, got %d", cfg.FPS)
	}
	if cfg.Solver.Substeps != 8 {
		t.Errorf("expected 8 substeps, got %d", cfg.Solver.Substeps)
	}
	if cfg.Constraint.Radius != 4000 {
		t.Errorf("expected constraint radius 4000, got %f", cfg.Constraint.Radius)
	}
	if len(cfg.Spawn) != 2 {
		t.Errorf("expected two spawned bodies, got %d", len(cfg.Spawn))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if dt := cfg.Dt(); dt != 1.0/75 {
		t.Errorf("expected dt 1/75, got %f", dt)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"zero width", func(c *Config) { c.Solver.RegionWidth = 0 }},
		{"zero threshold", func(c *Config) { c.Solver.Threshold = 0 }},
		{"negative depth", func(c *Config) { c.Solver.MaxDepth = -1 }},
		{"zero substeps", func(c *Config) { c.Solver.Substeps = 0 }},
		{"negative theta", func(c *Config) { c.Solver.Theta = -0.1 }},
		{"zero constraint", func(c *Config) { c.Constraint.Radius = 0 }},
		{"bad radius range", func(c *Config) { c.Spawn[0].MaxRadius = 1 }},
		{"negative count", func(c *Config) { c.Spawn[0].Count = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	cfg := GetPreset("cluster")
	cfg.Solver.Gravity = 0.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Solver.Gravity != 0.5 {
		t.Errorf("expected gravity 0.5, got %f", loaded.Solver.Gravity)
	}
	if len(loaded.Spawn) != 1 || loaded.Spawn[0].Count != 5000 {
		t.Errorf("spawn not round-tripped: %+v", loaded.Spawn)
	}
}

func TestSaveLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.toml")
	cfg := GetPreset("ring")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "ring" {
		t.Errorf("expected name ring, got %s", loaded.Name)
	}
	if len(loaded.Spawn) != 1 || loaded.Spawn[0].Pattern != "ring" {
		t.Errorf("spawn not round-tripped: %+v", loaded.Spawn)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"partial.yaml", "fps: 60\n"},
		{"partial.toml", "fps = 60\n"},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), tt.file)
		if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("%s: load failed: %v", tt.file, err)
		}
		if cfg.FPS != 60 {
			t.Errorf("%s: expected fps 60, got %d", tt.file, cfg.FPS)
		}
		if cfg.Solver.Substeps != DefaultSubsteps {
			t.Errorf("%s: expected default substeps, got %d", tt.file, cfg.Solver.Substeps)
		}
		if len(cfg.Spawn) != 2 {
			t.Errorf("%s: expected default spawn, got %d entries", tt.file, len(cfg.Spawn))
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fps: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("cluster")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Spawn[0].Count != 5000 {
		t.Errorf("expected 5000 bodies, got %d", cfg.Spawn[0].Count)
	}

	cfg.Spawn[0].Count = 1
	if Presets["cluster"].Spawn[0].Count != 5000 {
		t.Error("preset mutated through returned copy")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestSolverConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.RegionX = 10
	sc := cfg.SolverConfig()
	if sc.RegionCenter.X != 10 || sc.RegionWidth != DefaultRegionWidth || sc.Substeps != DefaultSubsteps {
		t.Errorf("unexpected solver config: %+v", sc)
	}
}
