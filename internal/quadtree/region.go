package quadtree

import "gonum.org/v1/gonum/spatial/r2"

// Region is an axis-aligned square.
type Region struct {
	Center r2.Vec
	Width  float64
}

func (r Region) Min() r2.Vec {
	h := r.Width / 2
	return r2.Vec{X: r.Center.X - h, Y: r.Center.Y - h}
}

func (r Region) Max() r2.Vec {
	h := r.Width / 2
	return r2.Vec{X: r.Center.X + h, Y: r.Center.Y + h}
}

// Box returns r as a gonum box.
func (r Region) Box() r2.Box {
	return r2.Box{Min: r.Min(), Max: r.Max()}
}

// Contains reports whether p lies within the closed square.
func (r Region) Contains(p r2.Vec) bool {
	lo, hi := r.Min(), r.Max()
	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y
}

// Touches reports whether two closed squares share at least a point.
func (r Region) Touches(o Region) bool {
	a0, a1 := r.Min(), r.Max()
	b0, b1 := o.Min(), o.Max()
	return a0.X <= b1.X && b0.X <= a1.X && a0.Y <= b1.Y && b0.Y <= a1.Y
}

// Quadrant returns the quadrant index of p relative to the region center.
// Ties go to the higher quadrant.
func (r Region) Quadrant(p r2.Vec) int {
	q := 0
	if p.X >= r.Center.X {
		q |= 2
	}
	if p.Y >= r.Center.Y {
		q |= 1
	}
	return q
}

// Child returns the sub-square for quadrant q.
func (r Region) Child(q int) Region {
	off := r.Width / 4
	c := r.Center
	if q&2 != 0 {
		c.X += off
	} else {
		c.X -= off
	}
	if q&1 != 0 {
		c.Y += off
	} else {
		c.Y -= off
	}
	return Region{Center: c, Width: r.Width / 2}
}

func quadrantIndex(x, y int) int { return x<<1 | y }

func quadrantBits(q int) (x, y int) { return q >> 1, q & 1 }
