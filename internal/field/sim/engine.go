package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/footprint"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/geo"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/spread"
	"github.com/ajayre/fieldlevelingsimulator/internal/timeutil"
	"github.com/ajayre/fieldlevelingsimulator/internal/units"
)

// TripResult records what one trip did to the surface.
type TripResult struct {
	Index       int
	BankM3      float64 // cut volume requested, converted from bank cubic yards
	CompactedM3 float64 // fill volume requested after swell and shrink
	HaulM       float64 // great-circle start->end distance, metres
	Cut         spread.Result
	Fill        spread.Result
	CutSkipped  bool // footprint resolved no bins, or nothing could be placed
	FillSkipped bool
}

// RunStats summarises a full replay.
type RunStats struct {
	TripsReplayed int
	CutPlacedM3   float64
	FillPlacedM3  float64
	HaulM         float64
	CutSkips      int
	FillSkips     int
	Elapsed       time.Duration
}

// Config wires an Engine to its lattice and collaborators.
type Config struct {
	Lattice *grid.Lattice
	Params  Params
	Sinks   []Sink
	Clock   timeutil.Clock // nil selects the real clock
}

// Engine owns the lattice for the duration of a run and is its only
// writer. It is not safe for concurrent use: trips share bin capacity,
// so replay is strictly sequential.
type Engine struct {
	lattice  *grid.Lattice
	params   Params
	resolver *footprint.Resolver
	dist     *spread.Distributor
	sinks    []Sink
	clock    timeutil.Clock
	ran      bool
}

// NewEngine validates the configuration and prepares a replay.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Lattice == nil {
		return nil, errors.New("lattice is required")
	}
	if err := cfg.Params.validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if math.Abs(cfg.Params.BinSizeM-cfg.Lattice.BinSizeM) > 1e-12 {
		return nil, fmt.Errorf("params bin size %v disagrees with lattice bin size %v",
			cfg.Params.BinSizeM, cfg.Lattice.BinSizeM)
	}

	sinks := make([]Sink, 0, len(cfg.Sinks))
	for _, s := range cfg.Sinks {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	return &Engine{
		lattice: cfg.Lattice,
		params:  cfg.Params,
		resolver: &footprint.Resolver{
			Lattice:      cfg.Lattice,
			EquipWidthM:  cfg.Params.EquipWidthM,
			MaxCutDepthM: cfg.Params.MaxCutDepthM,
			PassDepthM:   cfg.Params.PassDepthM,
			DumpTravelM:  cfg.Params.DumpTravelM,
		},
		dist:  spread.NewDistributor(cfg.Lattice.BinArea(), cfg.Params.MaxCutDepthM),
		sinks: sinks,
		clock: clock,
	}, nil
}

// Run replays trips in ascending index order against the lattice. Bins
// start at their surveyed elevations and accumulate every applied trip;
// there is no rollback, and an Engine replays exactly once. The input
// slice is not mutated.
func (e *Engine) Run(trips []field.TripRecord) (RunStats, error) {
	var stats RunStats
	if e.ran {
		return stats, errors.New("engine already ran; rebuild the lattice to replay again")
	}
	if len(trips) == 0 {
		return stats, errors.New("no trips to replay")
	}
	e.ran = true

	ordered := make([]field.TripRecord, len(trips))
	copy(ordered, trips)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	start := e.clock.Now()
	field.Opsf("replaying %d trips in %s mode over %d bins",
		len(ordered), e.params.Mode, len(e.lattice.Bins))

	for i := range ordered {
		trip := &ordered[i]
		res := e.applyTrip(trip)

		stats.TripsReplayed++
		stats.CutPlacedM3 += res.Cut.PlacedM3
		stats.FillPlacedM3 += res.Fill.PlacedM3
		stats.HaulM += res.HaulM
		if res.CutSkipped {
			stats.CutSkips++
		}
		if res.FillSkipped {
			stats.FillSkips++
		}

		for _, s := range e.sinks {
			s.TripApplied(e.lattice, trip, res)
		}
	}

	stats.Elapsed = e.clock.Since(start)
	field.Opsf("replay complete: %d trips, cut %.2f m3, fill %.2f m3, %.0f m hauled, %d cut skips, %d fill skips in %s",
		stats.TripsReplayed, stats.CutPlacedM3, stats.FillPlacedM3, stats.HaulM,
		stats.CutSkips, stats.FillSkips, stats.Elapsed)
	return stats, nil
}

// applyTrip evaluates and applies the cut and fill halves independently:
// a miss on one side never blocks the other.
func (e *Engine) applyTrip(trip *field.TripRecord) TripResult {
	res := TripResult{Index: trip.Index}
	res.BankM3 = units.BankCubicYardsToCubicMeters(trip.BankYd3)
	res.CompactedM3 = units.CompactedFromBank(res.BankM3, e.params.SwellFactor, e.params.ShrinkFactor)
	// Trip endpoints are geographic, so the haul span is great-circle;
	// footprint geometry stays planar.
	res.HaulM = geo.HaversineMeters(trip.Start, trip.End)

	cutCovered := e.cutFootprint(trip, res.BankM3)
	if len(cutCovered) == 0 {
		res.CutSkipped = true
		field.Diagf("trip %d: cut footprint resolved no bins, skipping cut half", trip.Index)
	} else {
		res.Cut = e.place(cutCovered, res.BankM3, cutProfile(trip), e.dist.CutCapacity, e.dist.ApplyCut)
		if res.Cut.PlacedM3 == 0 {
			res.CutSkipped = true
			field.Diagf("trip %d: cut placed nothing (requested %.4f m3, capacity %.4f m3)",
				trip.Index, res.BankM3, res.Cut.CapacityM3)
		}
	}

	fillCovered := e.fillFootprint(trip)
	if len(fillCovered) == 0 {
		res.FillSkipped = true
		field.Diagf("trip %d: fill footprint resolved no bins, skipping fill half", trip.Index)
	} else {
		res.Fill = e.place(fillCovered, res.CompactedM3, fillProfile(trip), e.dist.FillCapacity, e.dist.ApplyFill)
		if res.Fill.PlacedM3 == 0 {
			res.FillSkipped = true
			field.Diagf("trip %d: fill placed nothing (requested %.4f m3, capacity %.4f m3)",
				trip.Index, res.CompactedM3, res.Fill.CapacityM3)
		}
	}

	field.Tracef("trip %d: hauled %.1f m, cut %.4f/%.4f m3 over %d bins, fill %.4f/%.4f m3 over %d bins",
		trip.Index, res.HaulM, res.Cut.PlacedM3, res.BankM3, res.Cut.BinsTouched,
		res.Fill.PlacedM3, res.CompactedM3, res.Fill.BinsTouched)
	return res
}

func (e *Engine) cutFootprint(trip *field.TripRecord, cutM3 float64) []footprint.CoveredBin {
	if e.params.Mode == ModeStrip {
		return e.resolver.Strip(trip.Start)
	}
	return e.resolver.Covered(e.resolver.CutSegment(trip, cutM3))
}

func (e *Engine) fillFootprint(trip *field.TripRecord) []footprint.CoveredBin {
	if e.params.Mode == ModeStrip {
		return e.resolver.Strip(trip.End)
	}
	return e.resolver.Covered(e.resolver.FillSegment(trip))
}

// place routes through the profile-weighted path when the trip carried a
// measured cross-section, with the profile's own largest depth as the
// weight reference.
func (e *Engine) place(covered []footprint.CoveredBin, volumeM3 float64, profile field.Profile, capacity spread.CapacityFunc, apply spread.ApplyFunc) spread.Result {
	if len(profile) > 0 {
		return e.dist.PlaceWeighted(covered, volumeM3, profile, profile.MaxAbsDepth(), capacity, apply)
	}
	return e.dist.Place(covered, volumeM3, capacity, apply)
}

func cutProfile(trip *field.TripRecord) field.Profile {
	if trip.Detail == nil {
		return nil
	}
	return trip.Detail.CutProfile
}

func fillProfile(trip *field.TripRecord) field.Profile {
	if trip.Detail == nil {
		return nil
	}
	return trip.Detail.FillProfile
}
