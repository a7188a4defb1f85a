package sim

import (
	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
)

// Sink receives the lattice after each applied trip. The lattice is lent
// read-only for the duration of the call; implementations must not mutate
// bins and must copy anything they keep past the call.
type Sink interface {
	TripApplied(lat *grid.Lattice, trip *field.TripRecord, result TripResult)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(lat *grid.Lattice, trip *field.TripRecord, result TripResult)

// TripApplied calls f.
func (f SinkFunc) TripApplied(lat *grid.Lattice, trip *field.TripRecord, result TripResult) {
	f(lat, trip, result)
}

// MemorySink records every trip result in replay order, for tests and
// post-run reporting.
type MemorySink struct {
	Results []TripResult
}

// TripApplied appends the result.
func (s *MemorySink) TripApplied(_ *grid.Lattice, _ *field.TripRecord, result TripResult) {
	s.Results = append(s.Results, result)
}
