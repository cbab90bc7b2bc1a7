package metrics

import (
	"math"

	"github.com/san-kum/orbiter/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// MaxOverlap tracks the deepest penetration left between any two bodies
// after a tick. The check is exhaustive, so keep it to small scenes.
type MaxOverlap struct {
	name  string
	limit int
	worst float64
}

// NewMaxOverlap skips observation once a scene exceeds limit bodies.
func NewMaxOverlap(limit int) *MaxOverlap {
	return &MaxOverlap{name: "max_overlap", limit: limit}
}

func (m *MaxOverlap) Name() string { return m.name }

func (m *MaxOverlap) Observe(v sim.View, dt, t float64) {
	bodies := v.Bodies()
	if len(bodies) > m.limit {
		return
	}
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			d := r2.Norm(r2.Sub(bodies[i].Position, bodies[j].Position))
			depth := bodies[i].Radius + bodies[j].Radius - d
			if !math.IsNaN(depth) && depth > m.worst {
				m.worst = depth
			}
		}
	}
}

func (m *MaxOverlap) Value() float64 { return m.worst }

func (m *MaxOverlap) Reset() { m.worst = 0 }
