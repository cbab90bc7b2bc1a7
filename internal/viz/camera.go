package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	minScale = 1e-4
	maxScale = 10.0
)

// Camera maps world coordinates to canvas dots as pos*Scale + Offset.
type Camera struct {
	Scale  float64
	Offset r2.Vec
}

// Frame returns a camera showing the square of half-width half around
// center on a w by h dot canvas. Dots are taken as square.
func Frame(center r2.Vec, half float64, w, h int) Camera {
	fit := float64(min(w, h)) / 2
	scale := fit / half
	if half <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	cam := Camera{Scale: clampScale(scale)}
	cam.Offset = r2.Sub(r2.Vec{X: float64(w) / 2, Y: float64(h) / 2}, r2.Scale(cam.Scale, center))
	return cam
}

func (c Camera) ToScreen(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(c.Scale, p), c.Offset)
}

func (c Camera) ToWorld(p r2.Vec) r2.Vec {
	return r2.Scale(1/c.Scale, r2.Sub(p, c.Offset))
}

// Zoom scales by factor keeping the world point under anchor fixed.
func (c *Camera) Zoom(factor float64, anchor r2.Vec) {
	world := c.ToWorld(anchor)
	c.Scale = clampScale(c.Scale * factor)
	c.Offset = r2.Sub(anchor, r2.Scale(c.Scale, world))
}

// Pan moves the view by d dots.
func (c *Camera) Pan(d r2.Vec) {
	c.Offset = r2.Add(c.Offset, d)
}

func clampScale(s float64) float64 {
	return math.Max(minScale, math.Min(maxScale, s))
}

// dot converts a screen position to a canvas dot. It reports false when
// the position does not fit an int.
func dot(p r2.Vec) (int, int, bool) {
	const limit = 1 << 30
	if !(math.Abs(p.X) < limit) || !(math.Abs(p.Y) < limit) {
		return 0, 0, false
	}
	return int(math.Round(p.X)), int(math.Round(p.Y)), true
}
