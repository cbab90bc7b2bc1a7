// Package automation runs scripted sequences of scenes and parameter sweeps
// over the solver settings.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/experiment"
	"github.com/san-kum/orbiter/internal/logging"
	"github.com/san-kum/orbiter/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted list of scene runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep selects a preset or config file and overrides solver
// parameters by name.
type ScenarioStep struct {
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Ticks  int                `yaml:"ticks"`
	Seed   *int64             `yaml:"seed"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

type StepResult struct {
	Step   int
	Config *config.Config
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the scene config for one step.
func (st ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case st.Config != "":
		c, err := config.Load(st.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case st.Preset != "":
		cfg = config.GetPreset(st.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", st.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if st.Ticks > 0 {
		cfg.Ticks = st.Ticks
	}
	if st.Seed != nil {
		cfg.Seed = *st.Seed
	}
	for k, v := range st.Params {
		if err := SetParam(cfg, k, v); err != nil {
			return nil, err
		}
	}
	if st.SaveAs != "" {
		cfg.Name = st.SaveAs
	}
	return cfg, cfg.Validate()
}

func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]StepResult, error) {
	logger = logging.OrDiscard(logger)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "scene", cfg.Name)

		result, err := run(ctx, cfg, logger)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, StepResult{Step: i + 1, Config: cfg, Result: result})
	}

	return results, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sim.Result, error) {
	exp := experiment.New(cfg, logger)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

// SetParam overrides a solver parameter by its config key.
func SetParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "threshold":
		cfg.Solver.Threshold = int(v)
	case "max_depth":
		cfg.Solver.MaxDepth = int(v)
	case "substeps":
		cfg.Solver.Substeps = int(v)
	case "gravity":
		cfg.Solver.Gravity = v
	case "theta":
		cfg.Solver.Theta = v
	case "workers":
		cfg.Solver.Workers = int(v)
	case "fps":
		cfg.FPS = int(v)
	case "constraint_radius":
		cfg.Constraint.Radius = v
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// Sweep runs one scene per value of a single parameter.
type Sweep struct {
	Base   *config.Config
	Param  string
	Values []float64
}

type SweepResult struct {
	Value         float64
	CollisionLoad float64
	MaxOverlap    float64
	Elapsed       time.Duration
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func RunSweep(ctx context.Context, sweep *Sweep, logger *slog.Logger) ([]SweepResult, error) {
	logger = logging.OrDiscard(logger)
	results := make([]SweepResult, 0, len(sweep.Values))

	for i, v := range sweep.Values {
		cfg := sweep.Base.Clone()
		if err := SetParam(cfg, sweep.Param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		result, err := run(ctx, cfg, nil)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{
			Value:         v,
			CollisionLoad: result.Metrics["collision_load"],
			MaxOverlap:    result.Metrics["max_overlap"],
			Elapsed:       result.Elapsed,
		})
		logger.Info("sweep point", "index", i+1, "of", len(sweep.Values), sweep.Param, v, "elapsed", result.Elapsed)
	}

	return results, nil
}

// Best returns the sweep point with the lowest elapsed time among those
// whose max overlap stays under limit.
func Best(results []SweepResult, limit float64) (SweepResult, bool) {
	best := SweepResult{Elapsed: time.Duration(math.MaxInt64)}
	found := false
	for _, r := range results {
		if r.MaxOverlap > limit {
			continue
		}
		if r.Elapsed < best.Elapsed {
			best = r
			found = true
		}
	}
	return best, found
}
