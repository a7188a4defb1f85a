package surveydb

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
)

// SurveyDB wraps the survey archive connection. The schema is managed by
// migrations; open a fresh file and call MigrateUp before importing.
type SurveyDB struct {
	*sql.DB
}

// Open opens the survey archive at path, creating the file if it does not
// exist yet.
func Open(path string) (*SurveyDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// sql.Open defers real work until first use; ping so an unwritable path
	// fails here rather than inside the first import.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open survey archive %s: %w", path, err)
	}

	return &SurveyDB{db}, nil
}

// Batch is one recorded import: a source file loaded into the archive in a
// single transaction.
type Batch struct {
	ID        string
	Kind      string // "samples" or "trips"
	Source    string
	RowCount  int
	CreatedAt int64 // unix seconds
}

// ImportSamples stores the samples as one batch and returns the batch id.
// The import is transactional: either every sample lands or none do.
func (db *SurveyDB) ImportSamples(source string, samples []field.Sample) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples to import")
	}

	batchID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO import_batches (id, kind, source, row_count) VALUES (?, 'samples', ?, ?)`,
		batchID, source, len(samples),
	); err != nil {
		return "", fmt.Errorf("failed to record import batch: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO samples (batch_id, lat, lon, z_exist, z_prop) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(batchID, s.Pos.Lat, s.Pos.Lon, nullFloat(s.ZExist), nullFloat(s.ZProp)); err != nil {
			return "", fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit import: %w", err)
	}

	field.Diagf("archived %d samples from %s (batch %s)", len(samples), source, batchID)
	return batchID, nil
}

// ImportTrips stores the trips as one batch and returns the batch id.
// Recorded detail and measured profiles are stored alongside each trip.
func (db *SurveyDB) ImportTrips(source string, trips []field.TripRecord) (string, error) {
	if len(trips) == 0 {
		return "", fmt.Errorf("no trips to import")
	}

	batchID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO import_batches (id, kind, source, row_count) VALUES (?, 'trips', ?, ?)`,
		batchID, source, len(trips),
	); err != nil {
		return "", fmt.Errorf("failed to record import batch: %w", err)
	}

	tripStmt, err := tx.Prepare(`
		INSERT INTO trips (
			batch_id, trip_index, bank_cy, start_lat, start_lon, end_lat, end_lon,
			cut_start_lat, cut_start_lon, cut_stop_lat, cut_stop_lon,
			fill_start_lat, fill_start_lon, fill_stop_lat, fill_stop_lon,
			cut_length_m, heading_deg
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare trip insert: %w", err)
	}
	defer tripStmt.Close()

	pointStmt, err := tx.Prepare(
		`INSERT INTO profile_points (trip_id, kind, distance_m, depth_m) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare profile insert: %w", err)
	}
	defer pointStmt.Close()

	for i := range trips {
		t := &trips[i]

		args := []interface{}{batchID, t.Index, t.BankYd3, t.Start.Lat, t.Start.Lon, t.End.Lat, t.End.Lon}
		args = append(args, detailValues(t.Detail)...)

		res, err := tripStmt.Exec(args...)
		if err != nil {
			return "", fmt.Errorf("failed to insert trip %d: %w", t.Index, err)
		}

		if t.Detail == nil {
			continue
		}
		tripID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("failed to get trip row id: %w", err)
		}
		if err := insertProfile(pointStmt, tripID, "cut", t.Detail.CutProfile); err != nil {
			return "", err
		}
		if err := insertProfile(pointStmt, tripID, "fill", t.Detail.FillProfile); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit import: %w", err)
	}

	field.Diagf("archived %d trips from %s (batch %s)", len(trips), source, batchID)
	return batchID, nil
}

// LoadSamples returns every archived sample across all batches in insertion
// order.
func (db *SurveyDB) LoadSamples() ([]field.Sample, error) {
	rows, err := db.Query(`SELECT lat, lon, z_exist, z_prop FROM samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []field.Sample
	for rows.Next() {
		var s field.Sample
		var zExist, zProp sql.NullFloat64
		if err := rows.Scan(&s.Pos.Lat, &s.Pos.Lon, &zExist, &zProp); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.ZExist = floatPtr(zExist)
		s.ZProp = floatPtr(zProp)
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// LoadTrips returns every archived trip ordered by trip index, with recorded
// detail and profiles reassembled. Trips archived without detail come back
// with Detail == nil, exactly as they were imported.
func (db *SurveyDB) LoadTrips() ([]field.TripRecord, error) {
	rows, err := db.Query(`
		SELECT id, trip_index, bank_cy, start_lat, start_lon, end_lat, end_lon,
		       cut_start_lat, cut_start_lon, cut_stop_lat, cut_stop_lon,
		       fill_start_lat, fill_start_lon, fill_stop_lat, fill_stop_lon,
		       cut_length_m, heading_deg
		FROM trips ORDER BY trip_index, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var (
		trips   []field.TripRecord
		ids     []int64
		details []*field.TripDetail
	)
	for rows.Next() {
		var id int64
		var t field.TripRecord
		var cutStartLat, cutStartLon, cutStopLat, cutStopLon sql.NullFloat64
		var fillStartLat, fillStartLon, fillStopLat, fillStopLon sql.NullFloat64
		var cutLen, heading sql.NullFloat64
		if err := rows.Scan(
			&id, &t.Index, &t.BankYd3, &t.Start.Lat, &t.Start.Lon, &t.End.Lat, &t.End.Lon,
			&cutStartLat, &cutStartLon, &cutStopLat, &cutStopLon,
			&fillStartLat, &fillStartLon, &fillStopLat, &fillStopLon,
			&cutLen, &heading,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}

		d := &field.TripDetail{
			CutStart:   coordPtr(cutStartLat, cutStartLon),
			CutStop:    coordPtr(cutStopLat, cutStopLon),
			FillStart:  coordPtr(fillStartLat, fillStartLon),
			FillStop:   coordPtr(fillStopLat, fillStopLon),
			HeadingDeg: floatPtr(heading),
		}
		if cutLen.Valid {
			d.CutLengthM = cutLen.Float64
		}

		trips = append(trips, t)
		ids = append(ids, id)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	profiles, err := db.loadProfiles()
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		d := details[i]
		if p, ok := profiles[id]; ok {
			d.CutProfile = p.cut
			d.FillProfile = p.fill
		}
		if !emptyDetail(d) {
			trips[i].Detail = d
		}
	}

	return trips, nil
}

type tripProfiles struct {
	cut, fill field.Profile
}

// loadProfiles reads all profile points grouped by trip row id. Points come
// back sorted by distance, which is the order Profile requires.
func (db *SurveyDB) loadProfiles() (map[int64]*tripProfiles, error) {
	rows, err := db.Query(
		`SELECT trip_id, kind, distance_m, depth_m FROM profile_points ORDER BY trip_id, kind, distance_m`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile points: %w", err)
	}
	defer rows.Close()

	profiles := make(map[int64]*tripProfiles)
	for rows.Next() {
		var (
			tripID int64
			kind   string
			pt     field.ProfilePoint
		)
		if err := rows.Scan(&tripID, &kind, &pt.DistM, &pt.DepthM); err != nil {
			return nil, fmt.Errorf("failed to scan profile point: %w", err)
		}

		p, ok := profiles[tripID]
		if !ok {
			p = &tripProfiles{}
			profiles[tripID] = p
		}
		switch kind {
		case "cut":
			p.cut = append(p.cut, pt)
		case "fill":
			p.fill = append(p.fill, pt)
		}
	}

	return profiles, rows.Err()
}

// ListBatches returns every recorded import, oldest first.
func (db *SurveyDB) ListBatches() ([]Batch, error) {
	rows, err := db.Query(
		`SELECT id, kind, source, row_count, created_at FROM import_batches ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query import batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Kind, &b.Source, &b.RowCount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// Counts returns how many samples and trips the archive holds.
func (db *SurveyDB) Counts() (samples, trips int, err error) {
	if err = db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&samples); err != nil {
		return 0, 0, fmt.Errorf("failed to count samples: %w", err)
	}
	if err = db.QueryRow(`SELECT COUNT(*) FROM trips`).Scan(&trips); err != nil {
		return 0, 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return samples, trips, nil
}

// insertProfile stores one measured cross-section under a trip row.
func insertProfile(stmt *sql.Stmt, tripID int64, kind string, p field.Profile) error {
	for _, pt := range p {
		if _, err := stmt.Exec(tripID, kind, pt.DistM, pt.DepthM); err != nil {
			return fmt.Errorf("failed to insert %s profile point: %w", kind, err)
		}
	}
	return nil
}

// detailValues flattens the optional trip geometry into insert parameters.
// A nil detail yields all NULLs, so the load side can tell "no detail
// recorded" from "detail with empty fields".
func detailValues(d *field.TripDetail) []interface{} {
	vals := make([]interface{}, 10)
	if d == nil {
		return vals
	}
	vals[0], vals[1] = nullCoord(d.CutStart)
	vals[2], vals[3] = nullCoord(d.CutStop)
	vals[4], vals[5] = nullCoord(d.FillStart)
	vals[6], vals[7] = nullCoord(d.FillStop)
	if d.CutLengthM > 0 {
		vals[8] = d.CutLengthM
	}
	if d.HeadingDeg != nil {
		vals[9] = *d.HeadingDeg
	}
	return vals
}

// emptyDetail reports whether nothing optional was recorded, meaning the
// trip round-trips with Detail == nil.
func emptyDetail(d *field.TripDetail) bool {
	return d.CutStart == nil && d.CutStop == nil &&
		d.FillStart == nil && d.FillStop == nil &&
		d.CutLengthM == 0 && d.HeadingDeg == nil &&
		len(d.CutProfile) == 0 && len(d.FillProfile) == 0
}

// nullFloat converts an optional elevation to its SQL value. Absent
// measurements stay NULL so a later load round-trips them as nil.
func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// nullCoord splits an optional coordinate into its two SQL values.
func nullCoord(ll *field.LatLon) (lat, lon interface{}) {
	if ll == nil {
		return nil, nil
	}
	return ll.Lat, ll.Lon
}

// floatPtr converts a nullable column back to the optional-field form the
// record types use.
func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// coordPtr rebuilds an optional coordinate from its two columns. Both halves
// are written together, so one valid half without the other means the row
// was edited by hand; treat it as absent.
func coordPtr(lat, lon sql.NullFloat64) *field.LatLon {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &field.LatLon{Lat: lat.Float64, Lon: lon.Float64}
}
