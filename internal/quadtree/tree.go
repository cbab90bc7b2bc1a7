package quadtree

import (
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultThreshold = 3
	DefaultMaxDepth  = 20
)

// NodeID addresses a node in the tree arena.
type NodeID int32

// NoNode marks the absence of a node, e.g. the root's parent.
const NoNode NodeID = -1

// Item is an indexed point. ID is an opaque handle owned by the caller.
type Item struct {
	ID   int
	Pos  r2.Vec
	Mass float64
}

// Node is a single quadtree cell. Only leaves hold items.
type Node struct {
	Region     Region
	Parent     NodeID
	FirstChild NodeID
	Quadrant   int
	Depth      int
	Items      []Item

	// Monopole and Dipole are filled by ComputeMultipoles.
	Monopole float64
	Dipole   r2.Vec
}

func (n Node) Leaf() bool { return n.FirstChild == NoNode }

// Child returns the arena id of child quadrant q, or NoNode for a leaf.
func (n Node) Child(q int) NodeID {
	if n.Leaf() {
		return NoNode
	}
	return n.FirstChild + NodeID(q)
}

// Stats are per-tree counters, cleared by Reset.
type Stats struct {
	Inserts  int
	Splits   int
	Lookups  int
	MaxDepth int
}

type Option func(*Tree)

func WithMaxDepth(d int) Option {
	return func(t *Tree) {
		if d >= 0 {
			t.maxDepth = d
		}
	}
}

// Tree is an arena-backed adaptive quadtree. It is not safe for concurrent use.
type Tree struct {
	nodes     []Node
	region    Region
	threshold int
	maxDepth  int
	count     int
	stats     Stats
}

// New returns an empty tree covering the square of the given width around
// center. A leaf splits once it holds more than threshold items.
func New(center r2.Vec, width float64, threshold int, opts ...Option) *Tree {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	t := &Tree{
		region:    Region{Center: center, Width: width},
		threshold: threshold,
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Reset()
	return t
}

// Reset discards every node and item, leaving a single empty root leaf.
func (t *Tree) Reset() {
	t.nodes = append(t.nodes[:0], Node{
		Region:     t.region,
		Parent:     NoNode,
		FirstChild: NoNode,
		Quadrant:   -1,
	})
	t.count = 0
	t.stats = Stats{}
}

func (t *Tree) Root() NodeID        { return 0 }
func (t *Tree) Region() Region      { return t.region }
func (t *Tree) Threshold() int      { return t.threshold }
func (t *Tree) MaxDepth() int       { return t.maxDepth }
func (t *Tree) Len() int            { return t.count }
func (t *Tree) NodeCount() int      { return len(t.nodes) }
func (t *Tree) Stats() Stats        { return t.stats }
func (t *Tree) ResetLookups()       { t.stats.Lookups = 0 }
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

// Items returns the contents of a node. The slice is only valid until the
// next Insert or Reset.
func (t *Tree) Items(id NodeID) []Item { return t.nodes[id].Items }

// Insert places an item in the leaf that owns pos, splitting that leaf when
// it overflows and is above the depth limit.
func (t *Tree) Insert(id int, pos r2.Vec, mass float64) {
	t.count++
	t.stats.Inserts++
	t.insertAt(t.Root(), Item{ID: id, Pos: pos, Mass: mass})
}

func (t *Tree) insertAt(at NodeID, it Item) {
	leaf := t.descend(at, it.Pos)
	n := &t.nodes[leaf]
	n.Items = append(n.Items, it)
	if n.Depth > t.stats.MaxDepth {
		t.stats.MaxDepth = n.Depth
	}
	if len(n.Items) > t.threshold && n.Depth < t.maxDepth {
		t.split(leaf)
	}
}

// split turns a leaf into an internal node and pushes its items down.
func (t *Tree) split(id NodeID) {
	first := NodeID(len(t.nodes))
	parent := t.nodes[id]
	for q := 0; q < 4; q++ {
		t.nodes = append(t.nodes, Node{
			Region:     parent.Region.Child(q),
			Parent:     id,
			FirstChild: NoNode,
			Quadrant:   q,
			Depth:      parent.Depth + 1,
		})
	}
	t.nodes[id].FirstChild = first
	t.nodes[id].Items = nil
	t.stats.Splits++

	for _, it := range parent.Items {
		t.insertAt(id, it)
	}
}

func (t *Tree) descend(from NodeID, p r2.Vec) NodeID {
	id := from
	for {
		n := &t.nodes[id]
		if n.Leaf() {
			return id
		}
		id = n.FirstChild + NodeID(n.Region.Quadrant(p))
	}
}

// FindLeaf returns the leaf whose cell owns p. Each level descended counts
// as one lookup.
func (t *Tree) FindLeaf(p r2.Vec) NodeID {
	id := t.Root()
	for {
		n := &t.nodes[id]
		if n.Leaf() {
			return id
		}
		t.stats.Lookups++
		id = n.FirstChild + NodeID(n.Region.Quadrant(p))
	}
}

// Walk visits nodes in pre-order. Returning false from fn skips the
// node's subtree.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	t.walk(t.Root(), fn)
}

func (t *Tree) walk(id NodeID, fn func(NodeID, *Node) bool) {
	n := &t.nodes[id]
	if !fn(id, n) || n.Leaf() {
		return
	}
	first := n.FirstChild
	for q := 0; q < 4; q++ {
		t.walk(first+NodeID(q), fn)
	}
}

// Leaves returns every leaf in pre-order.
func (t *Tree) Leaves() []NodeID {
	var out []NodeID
	t.Walk(func(id NodeID, n *Node) bool {
		if n.Leaf() {
			out = append(out, id)
		}
		return true
	})
	return out
}

// ComputeMultipoles fills Monopole (total mass) and Dipole (mass-weighted
// centroid) for every node, bottom up. Empty nodes keep a zero dipole.
func (t *Tree) ComputeMultipoles() {
	t.multipole(t.Root())
}

func (t *Tree) multipole(id NodeID) (float64, r2.Vec) {
	var mass float64
	var moment r2.Vec

	if t.nodes[id].Leaf() {
		for _, it := range t.nodes[id].Items {
			mass += it.Mass
			moment = r2.Add(moment, r2.Scale(it.Mass, it.Pos))
		}
	} else {
		first := t.nodes[id].FirstChild
		for q := 0; q < 4; q++ {
			m, d := t.multipole(first + NodeID(q))
			mass += m
			moment = r2.Add(moment, r2.Scale(m, d))
		}
	}

	n := &t.nodes[id]
	n.Monopole = mass
	n.Dipole = r2.Vec{}
	if mass > 0 {
		n.Dipole = r2.Scale(1/mass, moment)
	}
	return n.Monopole, n.Dipole
}
