// Package viz draws a running solver in the terminal with Bubble Tea.
//
//   - [Model]: steps the solver once per frame and renders it
//   - [Canvas]: braille dot canvas with line, rect and circle drawing
//   - [Camera]: world to canvas transform with zoom and pan
//
// # Key Bindings
//
//	click      - Add bodies at the cursor while held
//	right-drag - Pan
//	wheel      - Zoom around the cursor
//	x          - Clear all bodies
//	Space      - Pause/Resume simulation
//	+/-        - Zoom
//	wasd       - Pan
//	r          - Reframe on the constraint
//	Tab/F9     - Cycle debug level
//	t          - Cycle color themes
//	q          - Quit
//
// Debug level 1 outlines the quadtree leaves and the cell under the cursor,
// level 2 adds the cells adjacent to it and level 3 lists tree counters.
package viz
