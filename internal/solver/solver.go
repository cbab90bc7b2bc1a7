package solver

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/logging"
	"github.com/san-kum/orbiter/internal/quadtree"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultRegionWidth      = 8000.0
	DefaultSubsteps         = 8
	DefaultConstraintRadius = DefaultRegionWidth / 2
	DefaultTheta            = 0.0
)

var DefaultConstraintColor = body.Color{R: 165, G: 165, B: 165}

type Config struct {
	RegionCenter r2.Vec
	RegionWidth  float64
	Threshold    int
	MaxDepth     int
	Substeps     int

	// Gravity scales pairwise attraction. Zero disables it.
	Gravity float64
	// Theta is the Barnes-Hut opening angle; zero means exact pairwise sums.
	Theta float64

	// Workers splits the gravity pass across goroutines. Values below 2
	// keep it serial.
	Workers int

	// StrictChecks validates the tree after every rebuild and panics on a
	// structural violation.
	StrictChecks bool
}

func DefaultConfig() Config {
	return Config{
		RegionWidth: DefaultRegionWidth,
		Threshold:   quadtree.DefaultThreshold,
		MaxDepth:    quadtree.DefaultMaxDepth,
		Substeps:    DefaultSubsteps,
		Theta:       DefaultTheta,
	}
}

// Constraint is the circular boundary bodies are kept inside.
type Constraint struct {
	Center r2.Vec
	Radius float64
	Color  body.Color
}

// Contains reports whether b lies fully inside, with tolerance eps.
func (c Constraint) Contains(b *body.Body, eps float64) bool {
	return r2.Norm(r2.Sub(b.Position, c.Center)) <= c.Radius-b.Radius+eps
}

// Diagnostics are counters from the most recent update.
type Diagnostics struct {
	// CollisionChecks counts ordered pair tests in the last resolution pass.
	CollisionChecks int
	// TickCollisionChecks sums CollisionChecks over the last Update.
	TickCollisionChecks int
	Collisions          int
	Lookups             int
	MaxDepth            int
	Nodes               int
	Splits              int
	Substeps            int
}

type Option func(*Solver)

func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) { s.logger = logging.OrDiscard(l) }
}

type Solver struct {
	cfg        Config
	bodies     []body.Body
	tree       *quadtree.Tree
	constraint Constraint
	diag       Diagnostics
	logger     *slog.Logger

	pool      []int
	adjacent  []quadtree.NodeID
	plane     barneshut.Plane
	particles []barneshut.Particle2
	forces    []r2.Vec
}

func New(cfg Config, opts ...Option) *Solver {
	if cfg.Substeps < 1 {
		cfg.Substeps = 1
	}
	s := &Solver{
		cfg: cfg,
		tree: quadtree.New(cfg.RegionCenter, cfg.RegionWidth, cfg.Threshold,
			quadtree.WithMaxDepth(cfg.MaxDepth)),
		constraint: Constraint{
			Center: cfg.RegionCenter,
			Radius: cfg.RegionWidth / 2,
			Color:  DefaultConstraintColor,
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Config() Config { return s.cfg }

// AddBody appends a body at rest and returns its index.
func (s *Solver) AddBody(pos r2.Vec, radius, mass float64, color body.Color) int {
	return s.Add(body.New(pos, radius, mass, color))
}

// Add appends b as given, keeping its previous position and anchoring.
func (s *Solver) Add(b body.Body) int {
	s.bodies = append(s.bodies, b)
	return len(s.bodies) - 1
}

// ClearBodies removes every body.
func (s *Solver) ClearBodies() {
	s.bodies = s.bodies[:0]
	s.tree.Reset()
	s.diag = Diagnostics{}
}

func (s *Solver) SetConstraint(radius float64, center r2.Vec, color body.Color) {
	s.constraint = Constraint{Center: center, Radius: radius, Color: color}
}

func (s *Solver) Constraint() Constraint { return s.constraint }

// Bodies exposes the bodies in insertion order. Callers must not keep the
// slice across mutations.
func (s *Solver) Bodies() []body.Body { return s.bodies }

// Body returns a pointer to body i for in-place edits between updates.
func (s *Solver) Body(i int) *body.Body { return &s.bodies[i] }

func (s *Solver) Len() int { return len(s.bodies) }

// Tree is the index built during the last substep.
func (s *Solver) Tree() *quadtree.Tree { return s.tree }

func (s *Solver) Diagnostics() Diagnostics {
	d := s.diag
	st := s.tree.Stats()
	d.Lookups = st.Lookups
	d.MaxDepth = st.MaxDepth
	d.Splits = st.Splits
	d.Nodes = s.tree.NodeCount()
	return d
}

// ComputeMultipoles refreshes the tree's monopole and dipole values. They
// are informational and never feed back into the dynamics.
func (s *Solver) ComputeMultipoles() {
	s.tree.ComputeMultipoles()
}

// Update advances the simulation by dt split evenly over the substeps.
func (s *Solver) Update(dt float64) {
	n := s.cfg.Substeps
	step := dt / float64(n)
	s.diag.TickCollisionChecks = 0
	s.diag.Collisions = 0
	s.diag.Substeps = n
	for i := 0; i < n; i++ {
		s.applyConstraint()
		s.rebuild()
		s.resolveCollisions()
		s.applyGravity()
		for j := range s.bodies {
			s.bodies[j].Integrate(step)
		}
	}
}

func (s *Solver) applyConstraint() {
	c := s.constraint
	for i := range s.bodies {
		b := &s.bodies[i]
		axis := r2.Sub(b.Position, c.Center)
		dist := r2.Norm(axis)
		limit := c.Radius - b.Radius
		if !(dist > limit) {
			continue
		}
		var dir r2.Vec
		if dist > 0 {
			dir = r2.Scale(1/dist, axis)
		}
		b.Position = r2.Add(c.Center, r2.Scale(limit, dir))
	}
}

func (s *Solver) rebuild() {
	s.tree.Reset()
	for i := range s.bodies {
		b := &s.bodies[i]
		s.tree.Insert(i, b.Position, b.Mass)
	}
	if s.cfg.StrictChecks {
		if err := s.tree.Validate(); err != nil {
			panic(fmt.Sprintf("solver: %v", err))
		}
	}
}

func (s *Solver) resolveCollisions() {
	s.diag.CollisionChecks = 0
	s.visit(s.tree.Root())
	s.diag.TickCollisionChecks += s.diag.CollisionChecks
}

// visit walks to every leaf. Depth is bounded by the tree's max depth.
func (s *Solver) visit(id quadtree.NodeID) {
	n := s.tree.Node(id)
	if !n.Leaf() {
		for q := 0; q < 4; q++ {
			s.visit(n.Child(q))
		}
		return
	}

	s.pool = s.pool[:0]
	for _, it := range n.Items {
		s.pool = append(s.pool, it.ID)
	}
	s.adjacent = s.tree.AppendAdjacentLeaves(s.adjacent[:0], id)
	for _, leaf := range s.adjacent {
		for _, it := range s.tree.Items(leaf) {
			s.pool = append(s.pool, it.ID)
		}
	}

	for _, i := range s.pool {
		for _, j := range s.pool {
			if i == j {
				continue
			}
			s.diag.CollisionChecks++
			s.separate(&s.bodies[i], &s.bodies[j])
		}
	}
}

// separate pushes an overlapping pair apart by half the overlap each along
// the line of centers. Coincident centers have no axis and are left alone.
func (s *Solver) separate(a, b *body.Body) {
	axis := r2.Sub(a.Position, b.Position)
	dist := r2.Norm(axis)
	sum := a.Radius + b.Radius
	if !(dist < sum) {
		return
	}
	s.diag.Collisions++

	var dir r2.Vec
	if dist > 0 {
		dir = r2.Scale(1/dist, axis)
	}
	push := r2.Scale(0.5*(sum-dist), dir)
	if !a.Anchored {
		a.Position = r2.Add(a.Position, push)
	}
	if !b.Anchored {
		b.Position = r2.Sub(b.Position, push)
	}
}

// particle adapts a body to the Barnes-Hut particle interface.
type particle struct{ *body.Body }

func (p particle) Coord2() r2.Vec { return p.Position }
func (p particle) Mass() float64  { return p.Body.Mass }

func (s *Solver) applyGravity() {
	if s.cfg.Gravity == 0 || len(s.bodies) < 2 {
		return
	}
	theta := s.cfg.Theta
	s.particles = s.particles[:0]
	for i := range s.bodies {
		if !s.bodies[i].Finite() {
			theta = 0
		}
		s.particles = append(s.particles, particle{&s.bodies[i]})
	}
	s.plane.Particles = s.particles

	if theta > 0 {
		if err := s.plane.Reset(); err != nil {
			s.logger.Warn("barnes-hut tree unavailable, using exact sums", "error", err, "bodies", len(s.bodies))
			theta = 0
		}
	}

	if cap(s.forces) < len(s.particles) {
		s.forces = make([]r2.Vec, len(s.particles))
	}
	s.forces = s.forces[:len(s.particles)]

	// forces only read positions, so each worker owns a disjoint range of
	// the output and the accelerations are applied afterwards
	parallelFor(len(s.particles), s.cfg.Workers, minGravityChunk, func(start, end int) {
		for i := start; i < end; i++ {
			b := &s.bodies[i]
			if b.Anchored || b.Mass <= 0 {
				s.forces[i] = r2.Vec{}
				continue
			}
			s.forces[i] = s.plane.ForceOn(s.particles[i], theta, barneshut.Gravity2)
		}
	})

	for i := range s.bodies {
		b := &s.bodies[i]
		if b.Anchored || b.Mass <= 0 {
			continue
		}
		a := r2.Scale(s.cfg.Gravity/b.Mass, s.forces[i])
		if math.IsNaN(a.X) || math.IsNaN(a.Y) {
			continue
		}
		b.Accelerate(a)
	}
}
