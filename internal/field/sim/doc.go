// Package sim replays ordered earthmoving trips against a bin lattice.
//
// Responsibilities:
//   - Fixed equipment parameters for a run (blade width, pass depth,
//     swell and shrink factors).
//   - Strict ascending-index replay: each trip observes the surface
//     exactly as the previous trips left it, with no rollback.
//   - Per-trip unit conversion from bank cubic yards to the cut volume
//     removed and the compacted volume placed.
//   - Emission of the mutated lattice to output sinks after every trip.
//
// Dependency rule: sim sits at the top of the field tree and may depend
// on any of its siblings. Nothing under internal/field imports sim.
//
// The engine is single-writer and synchronous. Trips share capacity, so
// no two trips may be applied concurrently and sinks run inline on the
// replay goroutine.
package sim
