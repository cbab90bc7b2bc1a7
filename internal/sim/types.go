package sim

import (
	"time"

	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/solver"
)

// View is the read-only surface of a solver seen by metrics and observers.
type View interface {
	Bodies() []body.Body
	Constraint() solver.Constraint
	Diagnostics() solver.Diagnostics
	Config() solver.Config
}

type Metric interface {
	Name() string
	Observe(v View, dt, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(v View, tick int, t float64)
}

type Config struct {
	Dt            float64
	Ticks         int
	ValidateState bool
}

// Sample is one row of per-tick telemetry.
type Sample struct {
	Tick            int     `json:"tick"`
	Time            float64 `json:"time"`
	Bodies          int     `json:"bodies"`
	CollisionChecks int     `json:"collision_checks"`
	Collisions      int     `json:"collisions"`
	Lookups         int     `json:"lookups"`
	MaxDepth        int     `json:"max_depth"`
	Nodes           int     `json:"nodes"`
	KineticEnergy   float64 `json:"kinetic_energy"`
}

type Result struct {
	Ticks     int
	Times     []float64
	Telemetry []Sample
	Metrics   map[string]float64
	Elapsed   time.Duration
	Errors    []error
}

// StepDt is the integration step of a single substep.
func StepDt(v View, dt float64) float64 {
	n := v.Config().Substeps
	if n < 1 {
		n = 1
	}
	return dt / float64(n)
}

// KineticEnergy sums 1/2 m v² over bodies using substep displacements.
func KineticEnergy(bodies []body.Body, stepDt float64) float64 {
	total := 0.0
	for i := range bodies {
		total += bodies[i].KineticEnergy(stepDt)
	}
	return total
}
