// Package grid owns the binned surface model of the leveling simulator.
//
// Responsibilities: projecting raw survey samples into a uniform grid of
// square bins, per-bin elevation aggregation, the simulation-eligible
// lattice with its triangulated faces, and nearest-bin lookup.
// Key types: Grid, Bin, BinKey, Lattice, Face.
//
// Dependency rule: grid may depend on field and geo, never on the
// footprint/spread/sim packages above it.
package grid
