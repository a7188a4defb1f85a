// Package field owns the shared domain model for the leveling simulator.
//
// Responsibilities: geographic and trip record types, measured cut/fill
// cross-section profiles, and the package logging streams shared by the
// field subpackages.
// Key types: Sample, TripRecord, TripDetail, Profile.
//
// Dependency rule: field is the root of the domain tree. It may depend
// on the standard library only, never on its own subpackages.
// No SQL/database code is allowed in this package.
package field
