package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/orbiter/internal/logging"
	"github.com/san-kum/orbiter/internal/solver"
)

type Simulator struct {
	solver    *solver.Solver
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func New(s *solver.Solver, logger *slog.Logger) *Simulator {
	return &Simulator{
		solver:    s,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logging.OrDiscard(logger),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Solver() *solver.Solver { return s.solver }

// Run advances the solver cfg.Ticks times. Cancellation is checked between
// ticks only; a tick in progress always completes.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if s.solver == nil {
		return nil, ErrNoSolver
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Times:     make([]float64, 0, cfg.Ticks),
		Telemetry: make([]Sample, 0, cfg.Ticks),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run started", "ticks", cfg.Ticks, "dt", cfg.Dt, "bodies", s.solver.Len())
	start := time.Now()
	t := 0.0

	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		s.solver.Update(cfg.Dt)
		t += cfg.Dt
		result.Ticks++
		result.Times = append(result.Times, t)
		result.Telemetry = append(result.Telemetry, s.sample(i, t, cfg.Dt))

		for _, m := range s.metrics {
			m.Observe(s.solver, cfg.Dt, t)
		}
		for _, obs := range s.observers {
			obs.OnTick(s.solver, i, t)
		}

		if cfg.ValidateState && !s.finite() {
			err := &TickError{Tick: i, Time: t, Wrapped: ErrDiverged}
			s.logger.Warn("stopping run", "error", err)
			result.Errors = append(result.Errors, err)
			break
		}
	}

	result.Elapsed = time.Since(start)
	s.collect(result)
	s.logger.Debug("run finished", "ticks", result.Ticks, "elapsed", result.Elapsed)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) sample(tick int, t, dt float64) Sample {
	d := s.solver.Diagnostics()
	return Sample{
		Tick:            tick,
		Time:            t,
		Bodies:          s.solver.Len(),
		CollisionChecks: d.TickCollisionChecks,
		Collisions:      d.Collisions,
		Lookups:         d.Lookups,
		MaxDepth:        d.MaxDepth,
		Nodes:           d.Nodes,
		KineticEnergy:   KineticEnergy(s.solver.Bodies(), StepDt(s.solver, dt)),
	}
}

func (s *Simulator) finite() bool {
	bodies := s.solver.Bodies()
	for i := range bodies {
		if !bodies[i].Finite() {
			return false
		}
	}
	return true
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	return nil
}
