package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/orbiter/internal/config"
)

const scenarioYAML = `name: smoke
description: two short scenes
steps:
  - preset: binary
    ticks: 5
    params:
      threshold: 1
      substeps: 2
  - ticks: 3
    seed: 11
    save_as: renamed
`

func TestLoadAndRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if scenario.Name != "smoke" || len(scenario.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", scenario)
	}

	results, err := RunScenario(context.Background(), scenario, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.Result.Ticks != 5 {
		t.Errorf("expected 5 ticks, got %d", first.Result.Ticks)
	}
	if first.Config.Solver.Threshold != 1 || first.Config.Solver.Substeps != 2 {
		t.Errorf("params not applied: %+v", first.Config.Solver)
	}

	second := results[1]
	if second.Config.Name != "renamed" || second.Config.Seed != 11 {
		t.Errorf("expected renamed scene with seed 11, got %s/%d", second.Config.Name, second.Config.Seed)
	}
}

func TestLoadScenarioWithoutSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: empty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
	}{
		{"unknown preset", ScenarioStep{Preset: "nope"}},
		{"unknown param", ScenarioStep{Params: map[string]float64{"warp": 9}}},
		{"invalid value", ScenarioStep{Params: map[string]float64{"substeps": 0}}},
		{"missing file", ScenarioStep{Config: "/nonexistent/scene.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.step.Resolve(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	base := config.DefaultConfig()
	base.Ticks = 4

	sweep := &Sweep{Base: base, Param: "threshold", Values: Linspace(1, 4, 4)}
	results, err := RunSweep(context.Background(), sweep, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 points, got %d", len(results))
	}
	for i, r := range results {
		if r.Value != float64(i+1) {
			t.Errorf("point %d: expected value %d, got %f", i, i+1, r.Value)
		}
	}
	if base.Solver.Threshold != 3 {
		t.Error("sweep mutated base config")
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
	if len(Linspace(3, 9, 1)) != 1 {
		t.Error("expected single value")
	}
}

func TestBest(t *testing.T) {
	results := []SweepResult{
		{Value: 1, Elapsed: 5 * time.Millisecond, MaxOverlap: 0},
		{Value: 2, Elapsed: time.Millisecond, MaxOverlap: 50},
		{Value: 3, Elapsed: 2 * time.Millisecond, MaxOverlap: 1},
	}
	best, ok := Best(results, 10)
	if !ok || best.Value != 3 {
		t.Errorf("expected value 3, got %+v (ok=%v)", best, ok)
	}
	if _, ok := Best(results, -1); ok {
		t.Error("expected no result under negative limit")
	}
}
