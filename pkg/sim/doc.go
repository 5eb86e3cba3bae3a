// Package sim runs an emergence simulation: it builds the entity tree from a
// [config.Config], owns the physics world, one growth engine per compound
// and one hull per compound, and advances them together in [Simulation.Tick].
//
// A tick runs, in order:
//
//  1. deferred visibility transitions from the previous tick,
//  2. growth engines, root first,
//  3. impulses and the relation animation,
//  4. one physics step of TickSeconds / Slowdown,
//  5. hull rebuilds for compounds whose membership changed.
//
// A Simulation is not safe for concurrent use. Errors that mean the topology
// is no longer trustworthy (a stale joint, an empty active queue) halt it:
// every later Tick returns an error with code SIMULATION_HALTED.
package sim
