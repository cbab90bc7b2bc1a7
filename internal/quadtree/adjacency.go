package quadtree

// directions lists the eight neighbors: four sides then four corners.
var directions = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// AdjacentLeaves returns the leaves sharing a side or corner with id,
// without duplicates. A cell on the outer boundary simply has fewer
// neighbors.
func (t *Tree) AdjacentLeaves(id NodeID) []NodeID {
	return t.AppendAdjacentLeaves(nil, id)
}

// AppendAdjacentLeaves is AdjacentLeaves appending into dst.
func (t *Tree) AppendAdjacentLeaves(dst []NodeID, id NodeID) []NodeID {
	start := len(dst)
	for _, d := range directions {
		nb := t.neighbor(id, d[0], d[1])
		if nb == NoNode {
			continue
		}
		t.facingLeaves(nb, d[0], d[1], func(leaf NodeID) {
			for _, have := range dst[start:] {
				if have == leaf {
					return
				}
			}
			dst = append(dst, leaf)
		})
	}
	return dst
}

// neighbor returns the node in direction (dx, dy) of id that is either the
// same size as id or a coarser leaf. NoNode means id touches the outer
// boundary on that side. Recursion depth is bounded by the depth of id.
func (t *Tree) neighbor(id NodeID, dx, dy int) NodeID {
	n := &t.nodes[id]
	if n.Parent == NoNode {
		return NoNode
	}
	qx, qy := quadrantBits(n.Quadrant)
	nx, ny := qx+dx, qy+dy

	if inUnit(nx) && inUnit(ny) {
		return t.nodes[n.Parent].Child(quadrantIndex(nx, ny))
	}

	ox, oy := 0, 0
	if !inUnit(nx) {
		ox = dx
	}
	if !inUnit(ny) {
		oy = dy
	}
	p := t.neighbor(n.Parent, ox, oy)
	if p == NoNode || t.nodes[p].Leaf() {
		return p
	}
	return t.nodes[p].Child(quadrantIndex(nx&1, ny&1))
}

// facingLeaves descends from id to the leaves on the side that faces a cell
// lying in direction (-dx, -dy).
func (t *Tree) facingLeaves(id NodeID, dx, dy int, emit func(NodeID)) {
	n := &t.nodes[id]
	if n.Leaf() {
		emit(id)
		return
	}
	first := n.FirstChild
	for q := 0; q < 4; q++ {
		x, y := quadrantBits(q)
		if dx != 0 && x != facing(dx) {
			continue
		}
		if dy != 0 && y != facing(dy) {
			continue
		}
		t.facingLeaves(first+NodeID(q), dx, dy, emit)
	}
}

// facing is the child coordinate nearest to a cell we reached by moving d.
func facing(d int) int {
	if d > 0 {
		return 0
	}
	return 1
}

func inUnit(v int) bool { return v == 0 || v == 1 }
