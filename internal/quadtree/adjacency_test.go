package quadtree

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"
)

// touchingLeaves is the geometric reference for AdjacentLeaves.
func touchingLeaves(t *Tree, id NodeID) []NodeID {
	var out []NodeID
	self := t.Node(id).Region
	for _, leaf := range t.Leaves() {
		if leaf != id && self.Touches(t.Node(leaf).Region) {
			out = append(out, leaf)
		}
	}
	return out
}

var _ = Describe("AdjacentLeaves", func() {
	It("has no neighbors for a lone root", func() {
		t := New(r2.Vec{}, 100, 3)
		Expect(t.AdjacentLeaves(t.Root())).To(BeEmpty())
	})

	It("returns the three siblings of a single split", func() {
		t := New(r2.Vec{}, 100, 1)
		t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
		t.Insert(1, r2.Vec{X: 10, Y: 10}, 1)

		root := t.Node(t.Root())
		Expect(t.AdjacentLeaves(root.Child(0))).To(ConsistOf(root.Child(1), root.Child(2), root.Child(3)))
	})

	It("descends into subdivided neighbors on the facing side only", func() {
		t := New(r2.Vec{}, 100, 1)
		t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
		// split the east-south quadrant into four
		t.Insert(1, r2.Vec{X: 10, Y: -40}, 1)
		t.Insert(2, r2.Vec{X: 40, Y: -10}, 1)

		root := t.Node(t.Root())
		east := t.Node(root.Child(2))
		Expect(east.Leaf()).To(BeFalse())

		adj := t.AdjacentLeaves(root.Child(0))
		Expect(adj).To(ContainElements(east.Child(0), east.Child(1)))
		Expect(adj).NotTo(ContainElement(east.Child(2)))
		Expect(adj).NotTo(ContainElement(east.Child(3)))
		Expect(sortedIDs(adj)).To(Equal(sortedIDs(touchingLeaves(t, root.Child(0)))))
	})

	It("finds a coarser neighbor across the parent boundary", func() {
		t := New(r2.Vec{}, 100, 1)
		t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
		t.Insert(1, r2.Vec{X: -40, Y: -40}, 1)
		t.Insert(2, r2.Vec{X: 10, Y: 10}, 1)

		root := t.Node(t.Root())
		sw := t.Node(root.Child(0))
		Expect(sw.Leaf()).To(BeFalse())

		inner := sw.Child(3)
		Expect(t.AdjacentLeaves(inner)).To(ContainElements(root.Child(1), root.Child(2), root.Child(3)))
	})

	It("includes diagonal neighbors", func() {
		t := New(r2.Vec{}, 100, 1)
		t.Insert(0, r2.Vec{X: -10, Y: -10}, 1)
		t.Insert(1, r2.Vec{X: 10, Y: 10}, 1)
		t.Insert(2, r2.Vec{X: 40, Y: 40}, 1)

		root := t.Node(t.Root())
		ne := t.Node(root.Child(3))
		Expect(t.AdjacentLeaves(root.Child(0))).To(ContainElement(ne.Child(0)))
		Expect(t.AdjacentLeaves(root.Child(0))).NotTo(ContainElement(ne.Child(3)))
	})

	It("matches geometric touching across many random trees", func() {
		spreads := []float64{7900, 500, 20}
		for seed := int64(0); seed < 60; seed++ {
			spread := spreads[seed%int64(len(spreads))]
			threshold := 1 + int(seed%3)
			t, _ := randomTree(seed+100, 150, spread, threshold)
			for _, leaf := range t.Leaves() {
				Expect(sortedIDs(t.AdjacentLeaves(leaf))).To(Equal(sortedIDs(touchingLeaves(t, leaf))),
					"seed %d leaf %d", seed, leaf)
			}
		}
	})

	DescribeTable("matches geometric touching and is symmetric",
		func(seed int64, n int, spread float64, threshold int) {
			t, _ := randomTree(seed, n, spread, threshold)
			leaves := t.Leaves()

			adj := make(map[NodeID]map[NodeID]bool, len(leaves))
			for _, leaf := range leaves {
				got := t.AdjacentLeaves(leaf)
				Expect(sortedIDs(got)).To(Equal(sortedIDs(touchingLeaves(t, leaf))), "leaf %d", leaf)

				adj[leaf] = make(map[NodeID]bool, len(got))
				for _, other := range got {
					adj[leaf][other] = true
				}
			}
			for a, set := range adj {
				for b := range set {
					Expect(adj[b][a]).To(BeTrue(), "%d lists %d but not the reverse", a, b)
				}
			}
		},
		Entry("sparse", int64(1), 60, 7900.0, 2),
		Entry("uniform", int64(2), 400, 7900.0, 3),
		Entry("clustered", int64(3), 300, 300.0, 3),
		Entry("tight cluster", int64(4), 200, 10.0, 1),
	)
})
