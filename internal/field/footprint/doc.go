// Package footprint resolves the set of bins a trip's equipment touches.
//
// Responsibilities: deriving cut and fill segments from trip geometry or
// equipment defaults, the rotated-rectangle bin cover test, the degenerate
// single-bin collapse, and the simplified strip footprint.
// Key types: Resolver, Segment, CoveredBin.
//
// Dependency rule: footprint may depend on field, geo and grid, never on
// spread or sim.
package footprint
