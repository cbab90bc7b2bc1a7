package quadtree

import (
	"errors"
	"fmt"
)

// ErrCorrupt is wrapped by every structural violation reported by Validate.
var ErrCorrupt = errors.New("quadtree: corrupt structure")

// Validate checks the structural invariants of the tree: leaf xor internal,
// parent links, depth limit, split threshold, and that every item is owned
// by the leaf its position routes to.
func (t *Tree) Validate() error {
	total := 0
	var err error
	t.Walk(func(id NodeID, n *Node) bool {
		if err != nil {
			return false
		}
		if n.Depth > t.maxDepth {
			err = fmt.Errorf("%w: node %d at depth %d exceeds %d", ErrCorrupt, id, n.Depth, t.maxDepth)
			return false
		}
		if !n.Leaf() {
			if len(n.Items) != 0 {
				err = fmt.Errorf("%w: internal node %d holds %d items", ErrCorrupt, id, len(n.Items))
				return false
			}
			for q := 0; q < 4; q++ {
				c := &t.nodes[n.FirstChild+NodeID(q)]
				if c.Parent != id || c.Quadrant != q || c.Depth != n.Depth+1 {
					err = fmt.Errorf("%w: child %d of node %d has bad back-reference", ErrCorrupt, q, id)
					return false
				}
			}
			return true
		}
		if len(n.Items) > t.threshold && n.Depth < t.maxDepth {
			err = fmt.Errorf("%w: leaf %d holds %d items above threshold %d", ErrCorrupt, id, len(n.Items), t.threshold)
			return false
		}
		for _, it := range n.Items {
			if owner := t.descend(t.Root(), it.Pos); owner != id {
				err = fmt.Errorf("%w: item %d stored in %d but routes to %d", ErrCorrupt, it.ID, id, owner)
				return false
			}
		}
		total += len(n.Items)
		return true
	})
	if err != nil {
		return err
	}
	if total != t.count {
		return fmt.Errorf("%w: %d items reachable, %d inserted", ErrCorrupt, total, t.count)
	}
	return nil
}
