package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/geo"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/sim"
	"github.com/ajayre/fieldlevelingsimulator/internal/surveydb"
	"github.com/ajayre/fieldlevelingsimulator/internal/testutil"
	"github.com/ajayre/fieldlevelingsimulator/internal/units"
)

// coord renders one geographic degree value at full round-trip precision.
func coord(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestIsArchive tests the extension dispatch between flat files and archives.
func TestIsArchive(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"survey.db", true},
		{"SURVEY.DB", true},
		{"field7.sqlite", true},
		{"samples.csv", false},
		{"samples.csv.gz", false},
		{"trips.xml", false},
	}
	for _, tt := range tests {
		if got := isArchive(tt.path); got != tt.want {
			t.Errorf("isArchive(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// TestFormatVolume tests display unit rendering.
func TestFormatVolume(t *testing.T) {
	if got := formatVolume(2.5, units.M3); got != "2.50 m3" {
		t.Errorf("formatVolume m3 = %q, want \"2.50 m3\"", got)
	}
	if got := formatVolume(10, units.YD3); got != "13.08 yd3" {
		t.Errorf("formatVolume yd3 = %q, want \"13.08 yd3\"", got)
	}
}

// TestPrintSummary tests the exact report rendering.
func TestPrintSummary(t *testing.T) {
	stats := sim.RunStats{
		TripsReplayed: 3,
		CutPlacedM3:   4.5,
		FillPlacedM3:  2.25,
		HaulM:         187,
		CutSkips:      1,
		Elapsed:       1500 * time.Millisecond,
	}
	before := grid.CutFillBalance{CutM3: 8, FillM3: 1}
	after := grid.CutFillBalance{CutM3: 3.5, FillM3: 0.5, OnGrade: 2}

	var buf bytes.Buffer
	printSummary(&buf, units.M3, before, after, stats)

	want := `Replayed 3 trips in 1.5s
  cut placed:  4.50 m3
  fill placed: 2.25 m3
  total haul:  187 m
  skipped halves: 1 cut, 0 fill
Remaining earthwork:
  cut:  3.50 m3 (started at 8.00 m3)
  fill: 0.50 m3 (started at 1.00 m3)
  bins on grade: 2 (started at 0)
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

// TestPrintSummary_NoSkipLine tests that the skip line only appears when a
// trip half was skipped.
func TestPrintSummary_NoSkipLine(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, units.M3, grid.CutFillBalance{}, grid.CutFillBalance{}, sim.RunStats{TripsReplayed: 1})
	if strings.Contains(buf.String(), "skipped halves") {
		t.Errorf("summary shows skip line with zero skips:\n%s", buf.String())
	}
}

// TestLoadSamples_CSV tests the flat-file path of the sample loader.
func TestLoadSamples_CSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "samples.csv",
		"lat,lon,existing,proposed\n33.64,-111.94,412.5,411.9\n33.65,-111.95,413.0,\n")

	samples, err := loadSamples(path)
	if err != nil {
		t.Fatalf("loadSamples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[1].ZProp != nil {
		t.Error("empty proposed cell should load as nil")
	}
}

// TestLoadSamples_Archive tests that a .db path routes through the survey
// archive.
func TestLoadSamples_Archive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.db")

	db, err := surveydb.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	z := 412.5
	want := []field.Sample{{Pos: field.LatLon{Lat: 33.64, Lon: -111.94}, ZExist: &z}}
	if _, err := db.ImportSamples("samples.csv", want); err != nil {
		t.Fatalf("ImportSamples: %v", err)
	}
	db.Close()

	got, err := loadSamples(path)
	if err != nil {
		t.Fatalf("loadSamples: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("archive samples mismatch (-want +got):\n%s", diff)
	}
}

// TestLoadTrips_Dispatch tests that the trip loader picks the right parser
// for each source format.
func TestLoadTrips_Dispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := writeFile(t, dir, "trips.csv",
		"trip,bank_cy,start_lat,start_lon,end_lat,end_lon\n1,10.5,33.645,-111.941,33.644,-111.940\n")
	xmlPath := writeFile(t, dir, "trips.xml",
		`<trips><trip index="2" bank_cy="8.5"><start lat="33.645" lon="-111.941"/><end lat="33.644" lon="-111.940"/></trip></trips>`)

	fromCSV, err := loadTrips(csvPath)
	if err != nil {
		t.Fatalf("loadTrips(csv): %v", err)
	}
	if len(fromCSV) != 1 || fromCSV[0].Index != 1 || fromCSV[0].BankYd3 != 10.5 {
		t.Errorf("csv trips = %+v, want one trip with index 1 and 10.5 BCY", fromCSV)
	}

	fromXML, err := loadTrips(xmlPath)
	if err != nil {
		t.Fatalf("loadTrips(xml): %v", err)
	}
	if len(fromXML) != 1 || fromXML[0].Index != 2 || fromXML[0].BankYd3 != 8.5 {
		t.Errorf("xml trips = %+v, want one trip with index 2 and 8.5 BCY", fromXML)
	}

	archivePath := filepath.Join(dir, "survey.db")
	db, err := surveydb.Open(archivePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if _, err := db.ImportTrips("trips.csv", fromCSV); err != nil {
		t.Fatalf("ImportTrips: %v", err)
	}
	db.Close()

	fromArchive, err := loadTrips(archivePath)
	if err != nil {
		t.Fatalf("loadTrips(archive): %v", err)
	}
	if diff := cmp.Diff(fromCSV, fromArchive); diff != "" {
		t.Errorf("archive trips mismatch (-want +got):\n%s", diff)
	}
}

// TestReplayFromFiles runs the whole front-end flow short of main itself:
// parse sample and trip files, build the lattice, replay, and check the
// final earthwork balance.
//
// Four bins sit 2 m above grade. One trip cuts 2 m3 at its own start point,
// which collapses to the nearest bin and takes that bin exactly to grade.
// The fill half lands on the same spot, where no room is left below grade,
// so it is skipped and its volume dropped.
func TestReplayFromFiles(t *testing.T) {
	dir := t.TempDir()

	var samplesCSV strings.Builder
	samplesCSV.WriteString("lat,lon,existing,proposed\n")
	for _, xy := range [][2]float64{{0.5, 0.5}, {1.5, 0.5}, {0.5, 1.5}, {1.5, 1.5}} {
		ll := testutil.LatLonAt(xy[0], xy[1])
		fmt.Fprintf(&samplesCSV, "%s,%s,10,8\n", coord(ll.Lat), coord(ll.Lon))
	}
	samplesPath := writeFile(t, dir, "samples.csv", samplesCSV.String())

	cutAt := testutil.LatLonAt(0.5, 0.5)
	bankCY := 2 * units.CubicYardsPerCubicMeter // 2 m3 of bank material
	tripsPath := writeFile(t, dir, "trips.csv", fmt.Sprintf(
		"trip,bank_cy,start_lat,start_lon,end_lat,end_lon\n1,%s,%s,%s,%s,%s\n",
		coord(bankCY), coord(cutAt.Lat), coord(cutAt.Lon), coord(cutAt.Lat), coord(cutAt.Lon)))

	samples, err := loadSamples(samplesPath)
	if err != nil {
		t.Fatalf("loadSamples: %v", err)
	}
	trips, err := loadTrips(tripsPath)
	if err != nil {
		t.Fatalf("loadTrips: %v", err)
	}

	anchor := geo.CentroidOf(samples)
	g, err := grid.BuildGrid(samples, 1.0, geo.NewProjection(anchor.Lat, anchor.Lon))
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	lattice, err := grid.BuildLattice(g)
	if err != nil {
		t.Fatalf("BuildLattice: %v", err)
	}

	before := lattice.Balance()
	if before.CutM3 != 8 || before.FillM3 != 0 || before.OnGrade != 0 {
		t.Fatalf("starting balance = %+v, want 8 m3 cut and nothing else", before)
	}

	engine, err := sim.NewEngine(sim.Config{
		Lattice: lattice,
		Params: sim.Params{
			BinSizeM:     1.0,
			EquipWidthM:  1.0,
			MaxCutDepthM: 10, // let grade alone limit capacity
			PassDepthM:   0.1,
			DumpTravelM:  5.0,
			SwellFactor:  1.30,
			ShrinkFactor: 0.64,
			Mode:         sim.ModeBlade,
		},
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	stats, err := engine.Run(trips)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.TripsReplayed != 1 {
		t.Errorf("TripsReplayed = %d, want 1", stats.TripsReplayed)
	}
	if stats.CutPlacedM3 != 2 {
		t.Errorf("CutPlacedM3 = %v, want 2", stats.CutPlacedM3)
	}
	if stats.FillPlacedM3 != 0 || stats.FillSkips != 1 {
		t.Errorf("fill half = %v m3 with %d skips, want 0 m3 and 1 skip", stats.FillPlacedM3, stats.FillSkips)
	}

	after := lattice.Balance()
	if after.CutM3 != 6 || after.FillM3 != 0 || after.OnGrade != 1 {
		t.Errorf("final balance = %+v, want 6 m3 cut remaining and 1 bin on grade", after)
	}
}
