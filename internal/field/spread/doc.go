// Package spread allocates trip volumes across footprint bins.
//
// Responsibilities:
//   - Per-bin cut and fill capacities (remaining room before the
//     target-elevation clamp, expressed as volume).
//   - Single-pass proportional allocation of a requested volume over a
//     footprint, capped at total capacity; the excess is dropped.
//   - Optional weighting of capacities by a measured cross-section
//     profile so volume lands where the blade actually worked.
//
// Dependency rule: spread may depend on field, grid and footprint. It
// never resolves geometry itself and never orders trips; both belong to
// the callers above it.
package spread
