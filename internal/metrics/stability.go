package metrics

import (
	"github.com/san-kum/orbiter/internal/sim"
)

// Containment is the fraction of observed ticks where every body sat
// inside the constraint.
type Containment struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewContainment(tolerance float64) *Containment {
	return &Containment{
		name:      "containment",
		tolerance: tolerance,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(v sim.View, dt, t float64) {
	c.samples++
	con := v.Constraint()
	bodies := v.Bodies()
	for i := range bodies {
		if !con.Contains(&bodies[i], c.tolerance) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
