package body

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Color is a cosmetic RGB triple carried for renderers.
type Color struct {
	R, G, B uint8
}

// Body is a circle integrated with position Verlet. Velocity is implicit in
// the difference between Position and Previous.
type Body struct {
	Position     r2.Vec
	Previous     r2.Vec
	Acceleration r2.Vec
	Radius       float64
	Mass         float64
	Anchored     bool
	Color        Color
}

// New returns a body at rest at pos.
func New(pos r2.Vec, radius, mass float64, color Color) Body {
	return Body{
		Position: pos,
		Previous: pos,
		Radius:   radius,
		Mass:     mass,
		Color:    color,
	}
}

// Accelerate adds a to the accumulator consumed by the next Integrate.
func (b *Body) Accelerate(a r2.Vec) {
	b.Acceleration = r2.Add(b.Acceleration, a)
}

// Integrate advances the body by one Verlet step and clears the accumulator.
func (b *Body) Integrate(dt float64) {
	disp := r2.Sub(b.Position, b.Previous)
	b.Previous = b.Position
	b.Position = r2.Add(b.Position, r2.Add(disp, r2.Scale(dt*dt, r2.Sub(b.Acceleration, disp))))
	b.Acceleration = r2.Vec{}
}

// Displacement is the movement applied by the last integration.
func (b *Body) Displacement() r2.Vec {
	return r2.Sub(b.Position, b.Previous)
}

// Velocity estimates velocity from the last displacement. Zero dt gives zero.
func (b *Body) Velocity(dt float64) r2.Vec {
	if dt == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/dt, b.Displacement())
}

// SetVelocity rewrites Previous so the next step carries velocity v.
func (b *Body) SetVelocity(v r2.Vec, dt float64) {
	b.Previous = r2.Sub(b.Position, r2.Scale(dt, v))
}

// KineticEnergy is 1/2 m v² using the displacement-derived velocity.
func (b *Body) KineticEnergy(dt float64) float64 {
	v := b.Velocity(dt)
	return 0.5 * b.Mass * r2.Norm2(v)
}

func (b *Body) Finite() bool {
	return finite(b.Position.X) && finite(b.Position.Y) &&
		finite(b.Previous.X) && finite(b.Previous.Y)
}

// Overlaps reports whether the two circles penetrate.
func Overlaps(a, b *Body) bool {
	return r2.Norm(r2.Sub(a.Position, b.Position)) < a.Radius+b.Radius
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
