package experiment

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/config"
	"gonum.org/v1/gonum/spatial/r2"
)

// Env is what a layout may know about the scene it spawns into.
type Env struct {
	// Gravity is the solver's attraction scale.
	Gravity float64
	// Mass and Center summarize everything spawned before this group.
	Mass   float64
	Center r2.Vec
	// Dt is the substep length used to seed velocities.
	Dt float64
}

// Layout produces the bodies for one spawn group.
type Layout func(rng *rand.Rand, sp config.SpawnConfig, env Env) []body.Body

type Registry struct {
	layouts map[string]Layout
}

func NewRegistry() *Registry {
	r := &Registry{layouts: make(map[string]Layout)}
	r.layouts["point"] = pointLayout
	r.layouts["random"] = randomLayout
	r.layouts["grid"] = gridLayout
	r.layouts["ring"] = ringLayout
	r.layouts["disk"] = diskLayout
	return r
}

func (r *Registry) Register(name string, l Layout) { r.layouts[name] = l }

func (r *Registry) GetLayout(name string) (Layout, error) {
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown spawn pattern: %s", name)
	}
	return l, nil
}

func (r *Registry) ListLayouts() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func radius(rng *rand.Rand, sp config.SpawnConfig) float64 {
	if sp.MaxRadius <= sp.MinRadius {
		return sp.MinRadius
	}
	return sp.MinRadius + rng.Float64()*(sp.MaxRadius-sp.MinRadius)
}

func mass(rng *rand.Rand, sp config.SpawnConfig) float64 {
	m := sp.Mass
	if m <= 0 {
		m = config.DefaultMass
	}
	if sp.MassScale > 1 {
		m *= float64(1 + rng.Intn(sp.MassScale))
	}
	return m
}

func spawn(pos r2.Vec, rng *rand.Rand, sp config.SpawnConfig, i int) body.Body {
	b := body.New(pos, radius(rng, sp), mass(rng, sp), body.RainbowCycle(float64(i)/10))
	b.Anchored = sp.Anchored
	return b
}

func pointLayout(rng *rand.Rand, sp config.SpawnConfig, env Env) []body.Body {
	out := make([]body.Body, 0, sp.Count)
	for i := 0; i < sp.Count; i++ {
		out = append(out, spawn(r2.Vec{X: sp.X, Y: sp.Y}, rng, sp, i))
	}
	return out
}

// randomLayout scatters bodies uniformly in a square of half-width Spread.
func randomLayout(rng *rand.Rand, sp config.SpawnConfig, env Env) []body.Body {
	out := make([]body.Body, 0, sp.Count)
	for i := 0; i < sp.Count; i++ {
		p := r2.Vec{
			X: sp.X + (rng.Float64()*2-1)*sp.Spread,
			Y: sp.Y + (rng.Float64()*2-1)*sp.Spread,
		}
		out = append(out, spawn(p, rng, sp, i))
	}
	return out
}

// gridLayout packs bodies row by row into a square of side Spread.
func gridLayout(rng *rand.Rand, sp config.SpawnConfig, env Env) []body.Body {
	out := make([]body.Body, 0, sp.Count)
	if sp.Count == 0 {
		return out
	}
	side := int(math.Ceil(math.Sqrt(float64(sp.Count))))
	step := 0.0
	if side > 1 {
		step = sp.Spread / float64(side-1)
	}
	origin := r2.Vec{X: sp.X - sp.Spread/2, Y: sp.Y - sp.Spread/2}
	for i := 0; i < sp.Count; i++ {
		p := r2.Add(origin, r2.Vec{X: float64(i%side) * step, Y: float64(i/side) * step})
		out = append(out, spawn(p, rng, sp, i))
	}
	return out
}

// ringLayout places bodies on a circle of radius Spread moving tangentially
// at Speed.
func ringLayout(rng *rand.Rand, sp config.SpawnConfig, env Env) []body.Body {
	out := make([]body.Body, 0, sp.Count)
	for i := 0; i < sp.Count; i++ {
		a := 2 * math.Pi * float64(i) / float64(sp.Count)
		dir := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
		b := spawn(r2.Add(r2.Vec{X: sp.X, Y: sp.Y}, r2.Scale(sp.Spread, dir)), rng, sp, i)
		b.SetVelocity(r2.Scale(sp.Speed, r2.Vec{X: -dir.Y, Y: dir.X}), env.Dt)
		out = append(out, b)
	}
	return out
}

// diskLayout fills a disk of radius Spread around the mass already spawned.
// Speed scales the circular orbital speed around that mass.
func diskLayout(rng *rand.Rand, sp config.SpawnConfig, env Env) []body.Body {
	out := make([]body.Body, 0, sp.Count)
	center := r2.Vec{X: sp.X, Y: sp.Y}
	if env.Mass > 0 {
		center = env.Center
	}
	inner := sp.Spread * 0.1
	for i := 0; i < sp.Count; i++ {
		a := rng.Float64() * 2 * math.Pi
		r := inner + math.Sqrt(rng.Float64())*(sp.Spread-inner)
		dir := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
		b := spawn(r2.Add(center, r2.Scale(r, dir)), rng, sp, i)
		if env.Gravity > 0 && env.Mass > 0 {
			v := sp.Speed * math.Sqrt(env.Gravity*env.Mass/r)
			b.SetVelocity(r2.Scale(v, r2.Vec{X: -dir.Y, Y: dir.X}), env.Dt)
		}
		out = append(out, b)
	}
	return out
}
