package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
)

// sampleColumns maps header names to column positions; -1 means absent.
type sampleColumns struct {
	lat, lon, existing, proposed int
}

// LoadSamplesCSV reads geo-referenced survey shots from a CSV file.
// Columns are located by header name (case-insensitive): lat/latitude,
// lon/longitude, existing/zexist, proposed/zprop. An empty elevation cell
// means the shot did not measure that surface. Malformed rows are dropped
// and counted, never fatal. Files ending in .gz are decompressed.
func LoadSamplesCSV(path string) ([]field.Sample, int, error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open samples file: %w", err)
	}
	defer r.Close()
	return ReadSamples(r)
}

// ReadSamples parses sample rows from an open CSV stream.
func ReadSamples(r io.Reader) ([]field.Sample, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Ragged rows are a per-row problem, not a file problem.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read samples CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("samples CSV is empty")
	}

	cols, err := mapSampleHeader(records[0])
	if err != nil {
		return nil, 0, err
	}

	var samples []field.Sample
	skipped := 0
	for i, rec := range records[1:] {
		s, ok := parseSampleRow(rec, cols)
		if !ok {
			skipped++
			field.Tracef("samples row %d malformed, dropped", i+2)
			continue
		}
		samples = append(samples, s)
	}
	field.Diagf("loaded %d samples, dropped %d malformed rows", len(samples), skipped)
	return samples, skipped, nil
}

func mapSampleHeader(header []string) (sampleColumns, error) {
	cols := sampleColumns{lat: -1, lon: -1, existing: -1, proposed: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "lat", "latitude":
			cols.lat = i
		case "lon", "longitude":
			cols.lon = i
		case "existing", "zexist":
			cols.existing = i
		case "proposed", "zprop":
			cols.proposed = i
		}
	}
	if cols.lat < 0 || cols.lon < 0 {
		return cols, fmt.Errorf("samples CSV header must name lat and lon columns, got %v", header)
	}
	if cols.existing < 0 && cols.proposed < 0 {
		return cols, fmt.Errorf("samples CSV header names neither an existing nor a proposed elevation column, got %v", header)
	}
	return cols, nil
}

func parseSampleRow(rec []string, cols sampleColumns) (field.Sample, bool) {
	var s field.Sample

	lat, latErr := strconv.ParseFloat(cellAt(rec, cols.lat), 64)
	lon, lonErr := strconv.ParseFloat(cellAt(rec, cols.lon), 64)
	if latErr != nil || lonErr != nil {
		return s, false
	}
	s.Pos = field.LatLon{Lat: lat, Lon: lon}

	if v := cellAt(rec, cols.existing); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, false
		}
		s.ZExist = &z
	}
	if v := cellAt(rec, cols.proposed); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, false
		}
		s.ZProp = &z
	}
	return s, true
}

// cellAt returns the trimmed cell, or "" when the column is absent or the
// row is too short.
func cellAt(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
