// Command fieldlevelingsimulator replays recorded earthmoving trips over a
// binned survey surface and reports the remaining earthwork against the
// design grade.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/geo"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/sim"
	"github.com/ajayre/fieldlevelingsimulator/internal/survey"
	"github.com/ajayre/fieldlevelingsimulator/internal/surveydb"
	"github.com/ajayre/fieldlevelingsimulator/internal/units"
	"github.com/ajayre/fieldlevelingsimulator/internal/version"
)

func main() {
	defaults := sim.DefaultParams()

	var (
		samplesPath = flag.String("samples", "", "sample source: CSV (plain or .gz) or a survey archive (.db)")
		tripsPath   = flag.String("trips", "", "trip source: CSV (plain or .gz), recorder XML, or a survey archive (.db)")
		modeStr     = flag.String("mode", defaults.Mode.String(), "footprint mode: blade or strip")
		unitStr     = flag.String("units", units.M3, "display units for volumes: "+units.GetValidUnitsString())
		binSize     = flag.Float64("bin", defaults.BinSizeM, "bin size in metres")
		width       = flag.Float64("width", defaults.EquipWidthM, "equipment working width in metres")
		maxCut      = flag.Float64("max-cut", defaults.MaxCutDepthM, "maximum cut depth per pass in metres")
		passDepth   = flag.Float64("pass-depth", defaults.PassDepthM, "nominal pass depth for cut length estimates in metres")
		dumpTravel  = flag.Float64("dump-travel", defaults.DumpTravelM, "dump travel distance in metres")
		swell       = flag.Float64("swell", defaults.SwellFactor, "bank to loose swell factor")
		shrink      = flag.Float64("shrink", defaults.ShrinkFactor, "loose to compacted shrink factor")
		diag        = flag.Bool("v", false, "log diagnostics to stderr")
		trace       = flag.Bool("vv", false, "log per-trip trace to stderr (implies -v)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("fieldlevelingsimulator %s\n", version.String())
		return
	}

	configureLogging(*diag, *trace)

	if !units.IsValid(*unitStr) {
		log.Fatalf("invalid units %q (valid: %s)", *unitStr, units.GetValidUnitsString())
	}
	mode, err := sim.ParseMode(*modeStr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *samplesPath == "" || *tripsPath == "" {
		fmt.Fprintln(os.Stderr, "both -samples and -trips are required")
		fmt.Fprintln(os.Stderr)
		flag.Usage()
		os.Exit(1)
	}

	params := sim.Params{
		BinSizeM:     *binSize,
		EquipWidthM:  *width,
		MaxCutDepthM: *maxCut,
		PassDepthM:   *passDepth,
		DumpTravelM:  *dumpTravel,
		SwellFactor:  *swell,
		ShrinkFactor: *shrink,
		Mode:         mode,
	}

	samples, err := loadSamples(*samplesPath)
	if err != nil {
		log.Fatalf("failed to load samples: %v", err)
	}
	if len(samples) == 0 {
		log.Fatalf("no samples in %s", *samplesPath)
	}
	trips, err := loadTrips(*tripsPath)
	if err != nil {
		log.Fatalf("failed to load trips: %v", err)
	}
	if len(trips) == 0 {
		log.Fatalf("no trips in %s", *tripsPath)
	}

	anchor := geo.CentroidOf(samples)
	g, err := grid.BuildGrid(samples, params.BinSizeM, geo.NewProjection(anchor.Lat, anchor.Lon))
	if err != nil {
		log.Fatalf("failed to build grid: %v", err)
	}
	lattice, err := grid.BuildLattice(g)
	if err != nil {
		log.Fatalf("failed to build lattice: %v", err)
	}
	before := lattice.Balance()

	// The balance sink walks every bin after every trip, so only attach it
	// when someone is reading the diagnostics stream.
	var sinks []sim.Sink
	if *diag || *trace {
		sinks = append(sinks, balanceSink())
	}

	engine, err := sim.NewEngine(sim.Config{
		Lattice: lattice,
		Params:  params,
		Sinks:   sinks,
	})
	if err != nil {
		log.Fatalf("failed to configure engine: %v", err)
	}

	stats, err := engine.Run(trips)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	printSummary(os.Stdout, *unitStr, before, lattice.Balance(), stats)
}

// configureLogging wires the field log streams: operational messages always,
// diagnostics and trace only when asked for.
func configureLogging(diag, trace bool) {
	w := field.LogWriters{Ops: os.Stderr}
	if diag || trace {
		w.Diag = os.Stderr
	}
	if trace {
		w.Trace = os.Stderr
	}
	field.SetLogWriters(w)
}

// isArchive reports whether the path names a survey archive rather than a
// flat file.
func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".db" || ext == ".sqlite"
}

// loadSamples reads samples from a CSV file or a survey archive, chosen by
// extension.
func loadSamples(path string) ([]field.Sample, error) {
	if isArchive(path) {
		db, err := surveydb.Open(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.LoadSamples()
	}

	samples, skipped, err := survey.LoadSamplesCSV(path)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		field.Opsf("dropped %d malformed sample rows from %s", skipped, path)
	}
	return samples, nil
}

// loadTrips reads trips from a CSV file, a recorder XML export, or a survey
// archive, chosen by extension.
func loadTrips(path string) ([]field.TripRecord, error) {
	switch {
	case isArchive(path):
		db, err := surveydb.Open(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.LoadTrips()

	case strings.EqualFold(filepath.Ext(path), ".xml"):
		return survey.LoadTripsXML(path)

	default:
		trips, skipped, err := survey.LoadTripsCSV(path)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			field.Opsf("dropped %d malformed trip rows from %s", skipped, path)
		}
		return trips, nil
	}
}

// balanceSink logs the remaining earthwork after each applied trip.
func balanceSink() sim.Sink {
	return sim.SinkFunc(func(lat *grid.Lattice, trip *field.TripRecord, _ sim.TripResult) {
		bal := lat.Balance()
		field.Diagf("after trip %d: %.2f m3 cut and %.2f m3 fill remaining, %d bins on grade",
			trip.Index, bal.CutM3, bal.FillM3, bal.OnGrade)
	})
}

// printSummary reports what the replay accomplished against the design
// surface, in the operator's chosen display units.
func printSummary(w io.Writer, unit string, before, after grid.CutFillBalance, stats sim.RunStats) {
	fmt.Fprintf(w, "Replayed %d trips in %s\n", stats.TripsReplayed, stats.Elapsed)
	fmt.Fprintf(w, "  cut placed:  %s\n", formatVolume(stats.CutPlacedM3, unit))
	fmt.Fprintf(w, "  fill placed: %s\n", formatVolume(stats.FillPlacedM3, unit))
	fmt.Fprintf(w, "  total haul:  %.0f m\n", stats.HaulM)
	if stats.CutSkips > 0 || stats.FillSkips > 0 {
		fmt.Fprintf(w, "  skipped halves: %d cut, %d fill\n", stats.CutSkips, stats.FillSkips)
	}
	fmt.Fprintln(w, "Remaining earthwork:")
	fmt.Fprintf(w, "  cut:  %s (started at %s)\n", formatVolume(after.CutM3, unit), formatVolume(before.CutM3, unit))
	fmt.Fprintf(w, "  fill: %s (started at %s)\n", formatVolume(after.FillM3, unit), formatVolume(before.FillM3, unit))
	fmt.Fprintf(w, "  bins on grade: %d (started at %d)\n", after.OnGrade, before.OnGrade)
}

// formatVolume renders a volume in the requested display units.
func formatVolume(volumeM3 float64, unit string) string {
	return fmt.Sprintf("%.2f %s", units.ConvertVolume(volumeM3, unit), unit)
}
