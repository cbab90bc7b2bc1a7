// Package quadtree implements an adaptive region quadtree used as the
// broad phase for circle collisions.
//
// Nodes live in a flat arena owned by [Tree] and refer to each other by
// [NodeID]. The root's parent is [NoNode]. Children of a split node occupy
// four consecutive arena slots ordered by quadrant index
//
//	q = xBit<<1 | yBit
//
// where xBit is 1 when the point's X is at or above the node center, and
// likewise for Y. Points exactly on a dividing line go to the higher
// quadrant, and points outside the root region land in the nearest
// boundary cell.
//
// # Lifecycle
//
// The tree is rebuilt from scratch with [Tree.Reset] followed by
// [Tree.Insert] for every item. Region, threshold and max depth survive a
// reset; nodes, items and [Stats] do not.
//
// # Adjacency
//
// [Tree.AdjacentLeaves] returns every leaf that shares a side or a corner
// with a node, whether that leaf is finer, coarser or the same size. The
// relation is symmetric for leaves.
package quadtree
