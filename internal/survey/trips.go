package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
)

// tripColumns maps header names to column positions; -1 means absent.
type tripColumns struct {
	index, bank                        int
	startLat, startLon, endLat, endLon int

	cutStartLat, cutStartLon, cutStopLat, cutStopLon     int
	fillStartLat, fillStartLon, fillStopLat, fillStopLon int
	cutLength, heading                                   int
}

// LoadTripsCSV reads haul trip records from a CSV file. Required columns:
// trip, bank_cy, start_lat, start_lon, end_lat, end_lon. Optional detail
// columns carry explicit cut/fill segment endpoints, a measured cut
// length and a compass heading. Rows with unparsable required fields are
// dropped and counted; a half-filled optional coordinate pair is treated
// as unrecorded. Trips are returned sorted by index ascending. Files
// ending in .gz are decompressed.
func LoadTripsCSV(path string) ([]field.TripRecord, int, error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open trips file: %w", err)
	}
	defer r.Close()
	return ReadTrips(r)
}

// ReadTrips parses trip rows from an open CSV stream.
func ReadTrips(r io.Reader) ([]field.TripRecord, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read trips CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("trips CSV is empty")
	}

	cols, err := mapTripHeader(records[0])
	if err != nil {
		return nil, 0, err
	}

	var trips []field.TripRecord
	skipped := 0
	for i, rec := range records[1:] {
		trip, ok := parseTripRow(rec, cols)
		if !ok {
			skipped++
			field.Tracef("trips row %d malformed, dropped", i+2)
			continue
		}
		trips = append(trips, trip)
	}

	sort.SliceStable(trips, func(i, j int) bool { return trips[i].Index < trips[j].Index })
	field.Diagf("loaded %d trips, dropped %d malformed rows", len(trips), skipped)
	return trips, skipped, nil
}

func mapTripHeader(header []string) (tripColumns, error) {
	cols := tripColumns{
		index: -1, bank: -1,
		startLat: -1, startLon: -1, endLat: -1, endLon: -1,
		cutStartLat: -1, cutStartLon: -1, cutStopLat: -1, cutStopLon: -1,
		fillStartLat: -1, fillStartLon: -1, fillStopLat: -1, fillStopLon: -1,
		cutLength: -1, heading: -1,
	}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "trip", "trip_index", "index":
			cols.index = i
		case "bank_cy", "bank_yd3", "bcy":
			cols.bank = i
		case "start_lat":
			cols.startLat = i
		case "start_lon":
			cols.startLon = i
		case "end_lat":
			cols.endLat = i
		case "end_lon":
			cols.endLon = i
		case "cut_start_lat":
			cols.cutStartLat = i
		case "cut_start_lon":
			cols.cutStartLon = i
		case "cut_stop_lat":
			cols.cutStopLat = i
		case "cut_stop_lon":
			cols.cutStopLon = i
		case "fill_start_lat":
			cols.fillStartLat = i
		case "fill_start_lon":
			cols.fillStartLon = i
		case "fill_stop_lat":
			cols.fillStopLat = i
		case "fill_stop_lon":
			cols.fillStopLon = i
		case "cut_length_m":
			cols.cutLength = i
		case "heading_deg":
			cols.heading = i
		}
	}
	if cols.index < 0 || cols.bank < 0 {
		return cols, fmt.Errorf("trips CSV header must name trip and bank_cy columns, got %v", header)
	}
	if cols.startLat < 0 || cols.startLon < 0 || cols.endLat < 0 || cols.endLon < 0 {
		return cols, fmt.Errorf("trips CSV header must name start and end coordinate columns, got %v", header)
	}
	return cols, nil
}

func parseTripRow(rec []string, cols tripColumns) (field.TripRecord, bool) {
	var trip field.TripRecord

	index, indexErr := strconv.Atoi(cellAt(rec, cols.index))
	bank, bankErr := strconv.ParseFloat(cellAt(rec, cols.bank), 64)
	start, startOK := parseCoordPair(rec, cols.startLat, cols.startLon)
	end, endOK := parseCoordPair(rec, cols.endLat, cols.endLon)
	if indexErr != nil || bankErr != nil || !startOK || !endOK {
		return trip, false
	}
	trip.Index = index
	trip.BankYd3 = bank
	trip.Start = *start
	trip.End = *end

	detail := &field.TripDetail{}
	hasDetail := false
	if p, ok := parseCoordPair(rec, cols.cutStartLat, cols.cutStartLon); ok {
		detail.CutStart = p
		hasDetail = true
	}
	if p, ok := parseCoordPair(rec, cols.cutStopLat, cols.cutStopLon); ok {
		detail.CutStop = p
		hasDetail = true
	}
	if p, ok := parseCoordPair(rec, cols.fillStartLat, cols.fillStartLon); ok {
		detail.FillStart = p
		hasDetail = true
	}
	if p, ok := parseCoordPair(rec, cols.fillStopLat, cols.fillStopLon); ok {
		detail.FillStop = p
		hasDetail = true
	}
	if v := cellAt(rec, cols.cutLength); v != "" {
		if length, err := strconv.ParseFloat(v, 64); err == nil && length > 0 {
			detail.CutLengthM = length
			hasDetail = true
		}
	}
	if v := cellAt(rec, cols.heading); v != "" {
		if deg, err := strconv.ParseFloat(v, 64); err == nil {
			detail.HeadingDeg = &deg
			hasDetail = true
		}
	}
	if hasDetail {
		trip.Detail = detail
	}
	return trip, true
}

// parseCoordPair reads a lat/lon column pair. Both cells must be present
// and parsable; anything less means the pair was not recorded.
func parseCoordPair(rec []string, latIdx, lonIdx int) (*field.LatLon, bool) {
	latCell, lonCell := cellAt(rec, latIdx), cellAt(rec, lonIdx)
	if latCell == "" || lonCell == "" {
		return nil, false
	}
	lat, latErr := strconv.ParseFloat(latCell, 64)
	lon, lonErr := strconv.ParseFloat(lonCell, 64)
	if latErr != nil || lonErr != nil {
		return nil, false
	}
	return &field.LatLon{Lat: lat, Lon: lon}, true
}
