package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/config"
	"github.com/san-kum/orbiter/internal/logging"
	"github.com/san-kum/orbiter/internal/metrics"
	"github.com/san-kum/orbiter/internal/sim"
	"github.com/san-kum/orbiter/internal/solver"
	"gonum.org/v1/gonum/spatial/r2"
)

var ErrNotSetup = errors.New("experiment not setup")

// Experiment turns a scene config into a ready-to-run simulator.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	simulator *sim.Simulator
	logger    *slog.Logger
	rng       *rand.Rand
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   logging.OrDiscard(logger),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup builds the solver, spawns every group and attaches the default
// metrics.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	s := solver.New(e.cfg.SolverConfig(), solver.WithLogger(e.logger))
	s.SetConstraint(e.cfg.Constraint.Radius, e.cfg.ConstraintCenter(), solver.DefaultConstraintColor)

	if err := Populate(s, e.registry, e.cfg, e.rng); err != nil {
		return err
	}

	e.simulator = sim.New(s, e.logger)
	for _, m := range metrics.Defaults() {
		e.simulator.AddMetric(m)
	}
	e.logger.Info("scene ready", "scene", e.cfg.Name, "bodies", s.Len(), "seed", e.cfg.Seed)
	return nil
}

// Populate spawns the groups of cfg into s in order.
func Populate(s *solver.Solver, reg *Registry, cfg *config.Config, rng *rand.Rand) error {
	env := Env{
		Gravity: cfg.Solver.Gravity,
		Dt:      cfg.Dt() / float64(cfg.Solver.Substeps),
	}
	for i, sp := range cfg.Spawn {
		layout, err := reg.GetLayout(sp.Pattern)
		if err != nil {
			return fmt.Errorf("spawn %d: %w", i, err)
		}
		for _, b := range layout(rng, sp, env) {
			s.Add(b)
			env.accumulate(&b)
		}
	}
	return nil
}

func (env *Env) accumulate(b *body.Body) {
	total := env.Mass + b.Mass
	if total == 0 {
		return
	}
	env.Center = r2.Scale(1/total, r2.Add(r2.Scale(env.Mass, env.Center), r2.Scale(b.Mass, b.Position)))
	env.Mass = total
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}
	return e.simulator.Run(ctx, sim.Config{
		Dt:            e.cfg.Dt(),
		Ticks:         e.cfg.Ticks,
		ValidateState: true,
	})
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Registry() *Registry       { return e.registry }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
