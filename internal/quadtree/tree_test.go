package quadtree

import (
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"
)

func randomTree(seed int64, n int, spread float64, threshold int) (*Tree, []Item) {
	rng := rand.New(rand.NewSource(seed))
	t := New(r2.Vec{}, 8000, threshold)
	items := make([]Item, n)
	for i := range items {
		p := r2.Vec{X: (rng.Float64() - 0.5) * spread, Y: (rng.Float64() - 0.5) * spread}
		items[i] = Item{ID: i, Pos: p, Mass: 1}
		t.Insert(i, p, 1)
	}
	return t, items
}

func sortedIDs(ids []NodeID) []NodeID {
	out := append([]NodeID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ = Describe("Tree", func() {
	Describe("Insert", func() {
		It("stores every item in exactly one leaf", func() {
			t, items := randomTree(1, 500, 7600, 3)

			seen := make(map[int]NodeID)
			for _, leaf := range t.Leaves() {
				for _, it := range t.Items(leaf) {
					_, dup := seen[it.ID]
					Expect(dup).To(BeFalse(), "item %d stored twice", it.ID)
					seen[it.ID] = leaf
				}
			}
			Expect(seen).To(HaveLen(len(items)))
			Expect(t.Len()).To(Equal(len(items)))

			for _, it := range items {
				Expect(t.FindLeaf(it.Pos)).To(Equal(seen[it.ID]))
			}
			Expect(t.Validate()).To(Succeed())
		})

		It("keeps leaves under the threshold unless at max depth", func() {
			t, _ := randomTree(7, 1000, 10, 3)

			for _, leaf := range t.Leaves() {
				n := t.Node(leaf)
				if n.Depth < t.MaxDepth() {
					Expect(len(n.Items)).To(BeNumerically("<=", 3))
				}
			}
			Expect(t.Stats().MaxDepth).To(BeNumerically("<=", DefaultMaxDepth))
			Expect(t.Validate()).To(Succeed())
		})

		It("routes ties on the center lines to the higher quadrant", func() {
			t := New(r2.Vec{}, 100, 1)
			t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
			t.Insert(1, r2.Vec{X: 0, Y: 0}, 1)

			root := t.Node(t.Root())
			Expect(root.Leaf()).To(BeFalse())
			Expect(t.FindLeaf(r2.Vec{})).To(Equal(root.Child(3)))
			Expect(t.Items(root.Child(3))).To(ConsistOf(Item{ID: 1, Mass: 1}))
			Expect(t.Items(root.Child(0))).To(HaveLen(1))
		})

		It("lets a leaf at max depth grow without bound", func() {
			t := New(r2.Vec{}, 100, 2, WithMaxDepth(4))
			for i := 0; i < 50; i++ {
				t.Insert(i, r2.Vec{X: 1, Y: 1}, 1)
			}

			leaf := t.FindLeaf(r2.Vec{X: 1, Y: 1})
			Expect(t.Node(leaf).Depth).To(Equal(4))
			Expect(t.Items(leaf)).To(HaveLen(50))
			Expect(t.Stats().MaxDepth).To(Equal(4))
			Expect(t.Validate()).To(Succeed())
		})

		It("never splits with a max depth of zero", func() {
			t := New(r2.Vec{}, 100, 1, WithMaxDepth(0))
			for i := 0; i < 10; i++ {
				t.Insert(i, r2.Vec{X: float64(i)}, 1)
			}
			Expect(t.NodeCount()).To(Equal(1))
			Expect(t.Items(t.Root())).To(HaveLen(10))
		})
	})

	Describe("FindLeaf", func() {
		It("routes points outside the region to a boundary cell", func() {
			t, _ := randomTree(3, 200, 7600, 3)

			leaf := t.FindLeaf(r2.Vec{X: 1e6, Y: -1e6})
			n := t.Node(leaf)
			Expect(n.Leaf()).To(BeTrue())
			Expect(n.Region.Max().X).To(Equal(t.Region().Max().X))
			Expect(n.Region.Min().Y).To(Equal(t.Region().Min().Y))
		})

		It("counts one lookup per level descended", func() {
			t := New(r2.Vec{}, 100, 1)
			t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
			t.Insert(1, r2.Vec{X: 10, Y: 10}, 1)
			Expect(t.Stats().Lookups).To(Equal(0))

			t.FindLeaf(r2.Vec{X: 10, Y: 10})
			Expect(t.Stats().Lookups).To(Equal(1))

			t.ResetLookups()
			Expect(t.Stats().Lookups).To(Equal(0))
		})
	})

	Describe("Reset", func() {
		It("keeps the configuration and drops everything else", func() {
			t := New(r2.Vec{X: 5, Y: 5}, 200, 2, WithMaxDepth(6))
			for i := 0; i < 40; i++ {
				t.Insert(i, r2.Vec{X: float64(i), Y: float64(-i)}, 1)
			}
			Expect(t.NodeCount()).To(BeNumerically(">", 1))

			t.Reset()
			Expect(t.NodeCount()).To(Equal(1))
			Expect(t.Len()).To(Equal(0))
			Expect(t.Stats()).To(Equal(Stats{}))
			Expect(t.Region()).To(Equal(Region{Center: r2.Vec{X: 5, Y: 5}, Width: 200}))
			Expect(t.Threshold()).To(Equal(2))
			Expect(t.MaxDepth()).To(Equal(6))
			Expect(t.Node(t.Root()).Parent).To(Equal(NoNode))
		})
	})

	Describe("ComputeMultipoles", func() {
		It("aggregates mass and centroid bottom up", func() {
			t := New(r2.Vec{}, 100, 1)
			t.Insert(0, r2.Vec{X: -20, Y: -20}, 1)
			t.Insert(1, r2.Vec{X: 20, Y: -20}, 3)
			t.Insert(2, r2.Vec{X: 20, Y: 20}, 4)
			t.ComputeMultipoles()

			root := t.Node(t.Root())
			Expect(root.Monopole).To(Equal(8.0))
			Expect(root.Dipole.X).To(BeNumerically("~", 15, 1e-9))
			Expect(root.Dipole.Y).To(BeNumerically("~", 0, 1e-9))

			empty := t.Node(root.Child(1))
			Expect(empty.Monopole).To(Equal(0.0))
			Expect(empty.Dipole).To(Equal(r2.Vec{}))
		})
	})

	Describe("Node", func() {
		It("reads leaf state and children from the value Node returns", func() {
			t := New(r2.Vec{}, 100, 1)
			Expect(t.Node(t.Root()).Leaf()).To(BeTrue())
			Expect(t.Node(t.Root()).Child(0)).To(Equal(NoNode))

			t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
			t.Insert(1, r2.Vec{X: 10, Y: 10}, 1)

			Expect(t.Node(t.Root()).Leaf()).To(BeFalse())
			for q := 0; q < 4; q++ {
				child := t.Node(t.Root()).Child(q)
				Expect(t.Node(child).Parent).To(Equal(t.Root()))
				Expect(t.Node(child).Quadrant).To(Equal(q))
				Expect(t.Node(child).Leaf()).To(BeTrue())
			}
		})
	})

	Describe("Validate", func() {
		It("reports an item stored in the wrong leaf", func() {
			t := New(r2.Vec{}, 100, 1)
			t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
			t.Insert(1, r2.Vec{X: 10, Y: 10}, 1)
			t.nodes[t.Node(t.Root()).Child(0)].Items[0].Pos = r2.Vec{X: 30, Y: 30}

			Expect(t.Validate()).To(MatchError(ErrCorrupt))
		})
	})
})
