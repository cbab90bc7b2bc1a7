package solver

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

const defaultMass = 2e6

func distance(a, b body.Body) float64 {
	return r2.Norm(r2.Sub(a.Position, b.Position))
}

var _ = Describe("Solver", func() {
	var s *Solver

	BeforeEach(func() {
		s = New(DefaultConfig())
		s.SetConstraint(4000, r2.Vec{}, DefaultConstraintColor)
	})

	Describe("Update", func() {
		It("keeps two separated bodies apart and inside the boundary", func() {
			s.AddBody(r2.Vec{}, 15, defaultMass, body.Color{B: 255})
			s.AddBody(r2.Vec{X: 80}, 30, 2*defaultMass, body.Color{R: 255})

			s.Update(1.0 / 75)

			bodies := s.Bodies()
			Expect(distance(bodies[0], bodies[1])).To(BeNumerically(">=", 45))
			for i := range bodies {
				Expect(s.Constraint().Contains(&bodies[i], 1e-9)).To(BeTrue())
			}
		})

		It("separates overlapping bodies", func() {
			s.AddBody(r2.Vec{}, 15, defaultMass, body.Color{})
			s.AddBody(r2.Vec{X: 30}, 30, defaultMass, body.Color{})

			s.Update(1.0 / 75)

			bodies := s.Bodies()
			Expect(distance(bodies[0], bodies[1])).To(BeNumerically(">=", 45-1e-9))
			Expect(s.Diagnostics().Collisions).To(BeNumerically(">", 0))
		})

		It("does not move an anchored body during collision resolution", func() {
			b := body.New(r2.Vec{}, 20, defaultMass, body.Color{})
			b.Anchored = true
			s.Add(b)
			s.AddBody(r2.Vec{X: 10}, 20, defaultMass, body.Color{})

			s.Update(1.0 / 75)

			Expect(s.Bodies()[0].Position).To(Equal(r2.Vec{}))
			Expect(s.Bodies()[1].Position.X).To(BeNumerically(">", 10))
		})

		It("leaves coincident bodies where they are", func() {
			s.AddBody(r2.Vec{X: 5, Y: 5}, 10, defaultMass, body.Color{})
			s.AddBody(r2.Vec{X: 5, Y: 5}, 10, defaultMass, body.Color{})

			Expect(func() { s.Update(1.0 / 75) }).NotTo(Panic())
			for _, b := range s.Bodies() {
				Expect(b.Position).To(Equal(r2.Vec{X: 5, Y: 5}))
			}
		})

		It("survives clearing bodies between updates", func() {
			for i := 0; i < 20; i++ {
				s.AddBody(r2.Vec{X: float64(i) * 10}, 5, defaultMass, body.Color{})
			}
			s.Update(1.0 / 75)
			s.ClearBodies()

			Expect(func() { s.Update(1.0 / 75) }).NotTo(Panic())
			Expect(s.Len()).To(Equal(0))
			Expect(s.Diagnostics().CollisionChecks).To(Equal(0))
		})

		It("runs the configured number of substeps", func() {
			cfg := DefaultConfig()
			cfg.Substeps = 3
			s = New(cfg)
			s.AddBody(r2.Vec{}, 10, 1, body.Color{})
			s.AddBody(r2.Vec{X: 15}, 10, 1, body.Color{})

			s.Update(0.1)
			d := s.Diagnostics()
			Expect(d.Substeps).To(Equal(3))
			Expect(d.CollisionChecks).To(Equal(2))
			Expect(d.TickCollisionChecks).To(Equal(6))
		})

		It("treats a non-positive substep count as one", func() {
			cfg := DefaultConfig()
			cfg.Substeps = 0
			s = New(cfg)
			s.Update(0.1)
			Expect(s.Diagnostics().Substeps).To(Equal(1))
		})
	})

	Describe("constraint", func() {
		It("clamps a body outside the boundary onto it", func() {
			s.SetConstraint(100, r2.Vec{X: 10}, DefaultConstraintColor)
			s.AddBody(r2.Vec{X: 500}, 10, 1, body.Color{})

			s.applyConstraint()
			Expect(s.Bodies()[0].Position.X).To(BeNumerically("~", 100, 1e-9))
			Expect(s.Bodies()[0].Position.Y).To(BeNumerically("~", 0, 1e-9))
		})

		It("uses a zero direction for a body at the center", func() {
			s.SetConstraint(5, r2.Vec{X: 1, Y: 1}, DefaultConstraintColor)
			s.AddBody(r2.Vec{X: 1, Y: 1}, 10, 1, body.Color{})

			s.applyConstraint()
			Expect(s.Bodies()[0].Position).To(Equal(r2.Vec{X: 1, Y: 1}))
		})

		It("leaves bodies inside the boundary alone", func() {
			s.AddBody(r2.Vec{X: 100, Y: -200}, 10, 1, body.Color{})
			s.applyConstraint()
			Expect(s.Bodies()[0].Position).To(Equal(r2.Vec{X: 100, Y: -200}))
		})
	})

	Describe("spatial index", func() {
		It("rebuilds the tree every substep", func() {
			rng := rand.New(rand.NewSource(11))
			for i := 0; i < 1000; i++ {
				s.AddBody(r2.Vec{X: rng.Float64() * 10, Y: rng.Float64() * 10}, 0.1, 1, body.Color{})
			}
			s.rebuild()

			t := s.Tree()
			Expect(t.Len()).To(Equal(1000))
			Expect(t.Validate()).To(Succeed())
			for _, leaf := range t.Leaves() {
				n := t.Node(leaf)
				if n.Depth < t.MaxDepth() {
					Expect(len(n.Items)).To(BeNumerically("<=", quadtree.DefaultThreshold))
				}
			}
		})

		It("resolves a pair that straddles a leaf boundary", func() {
			cfg := DefaultConfig()
			cfg.Threshold = 1
			s = New(cfg)
			s.AddBody(r2.Vec{X: -5, Y: 3}, 10, 1, body.Color{})
			s.AddBody(r2.Vec{X: 5, Y: 3}, 10, 1, body.Color{})
			s.AddBody(r2.Vec{X: -3000, Y: -3000}, 10, 1, body.Color{})

			s.Update(1.0 / 75)

			bodies := s.Bodies()
			Expect(distance(bodies[0], bodies[1])).To(BeNumerically(">=", 20-1e-9))
		})

		It("passes structural checks in strict mode", func() {
			cfg := DefaultConfig()
			cfg.StrictChecks = true
			s = New(cfg)
			rng := rand.New(rand.NewSource(5))
			for i := 0; i < 300; i++ {
				s.AddBody(r2.Vec{X: (rng.Float64() - 0.5) * 2000, Y: (rng.Float64() - 0.5) * 2000}, 15, defaultMass, body.Color{})
			}
			Expect(func() { s.Update(1.0 / 75) }).NotTo(Panic())
		})
	})

	Describe("gravity", func() {
		It("pulls two distant bodies together", func() {
			cfg := DefaultConfig()
			cfg.Gravity = 1
			s = New(cfg)
			s.AddBody(r2.Vec{X: -100}, 1, 1e6, body.Color{})
			s.AddBody(r2.Vec{X: 100}, 1, 1e6, body.Color{})

			s.Update(0.1)

			bodies := s.Bodies()
			Expect(bodies[0].Position.X).To(BeNumerically(">", -100))
			Expect(bodies[1].Position.X).To(BeNumerically("<", 100))
			Expect(bodies[0].Position.X).To(BeNumerically("~", -bodies[1].Position.X, 1e-9))
		})

		It("is off by default", func() {
			s.AddBody(r2.Vec{X: -100}, 1, 1e12, body.Color{})
			s.AddBody(r2.Vec{X: 100}, 1, 1e12, body.Color{})
			s.Update(1)
			Expect(s.Bodies()[0].Position).To(Equal(r2.Vec{X: -100}))
		})

		It("gives the same result with parallel workers", func() {
			build := func(workers int) *Solver {
				cfg := DefaultConfig()
				cfg.Gravity = 1
				cfg.Workers = workers
				solver := New(cfg)
				rng := rand.New(rand.NewSource(11))
				for i := 0; i < 400; i++ {
					pos := r2.Vec{X: (rng.Float64() - 0.5) * 3000, Y: (rng.Float64() - 0.5) * 3000}
					solver.AddBody(pos, 5, 1e5*(1+rng.Float64()), body.Color{})
				}
				return solver
			}
			serial, parallel := build(1), build(4)
			for i := 0; i < 3; i++ {
				serial.Update(1.0 / 75)
				parallel.Update(1.0 / 75)
			}
			Expect(parallel.Bodies()).To(Equal(serial.Bodies()))
		})

		It("falls back to exact sums when the approximation tree cannot be built", func() {
			cfg := DefaultConfig()
			cfg.Gravity = 1
			cfg.Theta = 0.5
			s = New(cfg)
			s.AddBody(r2.Vec{X: 1, Y: 1}, 1, 1, body.Color{})
			s.AddBody(r2.Vec{X: 1, Y: 1}, 1, 1, body.Color{})
			s.AddBody(r2.Vec{X: 50, Y: 1}, 1, 1, body.Color{})

			Expect(func() { s.Update(0.01) }).NotTo(Panic())
			for _, b := range s.Bodies() {
				Expect(math.IsNaN(b.Position.X)).To(BeFalse())
			}
		})
	})

	Describe("ComputeMultipoles", func() {
		It("reports the total mass at the root", func() {
			s.AddBody(r2.Vec{X: -100}, 10, 1, body.Color{})
			s.AddBody(r2.Vec{X: 300}, 10, 3, body.Color{})
			s.Update(1.0 / 75)
			s.ComputeMultipoles()

			root := s.Tree().Node(s.Tree().Root())
			Expect(root.Monopole).To(Equal(4.0))
			Expect(root.Dipole.X).To(BeNumerically("~", 200, 1e-6))
		})
	})
})
