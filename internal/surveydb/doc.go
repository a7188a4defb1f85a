// Package surveydb archives survey inputs in a sqlite file so sample shots
// and trip logs collected across several recording sessions can be replayed
// later as one dataset.
//
// Responsibilities:
//   - schema management through embedded golang-migrate migrations
//   - transactional imports of samples and trips, each import recorded as a
//     batch tagged with a uuid and its source file
//   - ordered loads that reassemble trips with their recorded detail and
//     measured profiles
//
// The archive stores inputs only. Surface state during a replay never
// touches the database; every run rebuilds the lattice from the imported
// samples.
//
// Dependency rule: surveydb depends on field for the record types and on
// nothing else in the tree. The front ends decide when to read from an
// archive instead of flat files.
package surveydb
