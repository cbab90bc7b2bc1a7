package metrics

import "github.com/san-kum/orbiter/internal/sim"

// CollisionLoad is the mean number of pair checks per tick.
type CollisionLoad struct {
	name    string
	total   int
	samples int
}

func NewCollisionLoad() *CollisionLoad {
	return &CollisionLoad{name: "collision_load"}
}

func (c *CollisionLoad) Name() string { return c.name }

func (c *CollisionLoad) Observe(v sim.View, dt, t float64) {
	c.total += v.Diagnostics().TickCollisionChecks
	c.samples++
}

func (c *CollisionLoad) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.total) / float64(c.samples)
}

func (c *CollisionLoad) Reset() {
	c.total = 0
	c.samples = 0
}

// Defaults is the metric set attached to headless runs.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewMaxOverlap(2000),
		NewContainment(1e-6),
		NewCollisionLoad(),
	}
}
