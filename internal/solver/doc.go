// Package solver advances a set of circular bodies with substepped position
// Verlet integration.
//
// Every call to [Solver.Update] runs Config.Substeps substeps. Each substep
// clamps bodies into the circular constraint, rebuilds the quadtree from
// scratch, resolves overlapping pairs found through quadtree leaves and
// their neighbors, optionally accumulates pairwise attraction, and then
// integrates every body.
//
// Update is synchronous. Only the gravity pass may fan out across
// Config.Workers goroutines, each writing a disjoint range of bodies, and it
// joins before integration. Mutations such as [Solver.AddBody] and
// [Solver.ClearBodies] must happen between updates.
package solver
