package field

// LatLon is a geographic coordinate in decimal degrees (WGS84).
type LatLon struct {
	Lat float64 // e.g., 37.33182
	Lon float64 // e.g., -121.88633
}

// Sample is a single geo-referenced survey observation. Samples are loaded
// once and never mutated afterwards.
//
// Either elevation may be absent: a topo shot carries only the existing
// surface, a design stakeout only the proposed surface. Absent is nil, not
// zero, because zero is a legal elevation.
type Sample struct {
	Pos    LatLon
	ZExist *float64 // measured existing ground elevation (metres)
	ZProp  *float64 // proposed design elevation (metres)
}

// TripRecord is one haul event: a bucket or blade of material moved from a
// cut location to a fill location. Trips are replayed strictly in ascending
// Index order; order is correctness-critical because bin capacity is shared
// between trips.
type TripRecord struct {
	Index   int     // replay order and identity
	BankYd3 float64 // hauled volume in bank cubic yards (BCY)
	Start   LatLon  // haul start (cut side)
	End     LatLon  // haul end (fill side)

	// Detail carries surveyed per-trip geometry when the equipment recorded
	// it. Nil means the resolver derives cut and fill segments from
	// Start/End and the equipment defaults.
	Detail *TripDetail
}

// HasDetail reports whether the trip carries surveyed geometry.
func (t *TripRecord) HasDetail() bool {
	return t.Detail != nil
}

// TripDetail is surveyed per-trip geometry from instrumented equipment.
// Every field is independently optional; the footprint resolver falls back
// field by field.
type TripDetail struct {
	CutStart  *LatLon // explicit cut segment start
	CutStop   *LatLon // explicit cut segment end
	FillStart *LatLon // explicit fill segment start
	FillStop  *LatLon // explicit fill segment end

	// CutLengthM is the measured cut pass length in metres. Zero means not
	// recorded; the resolver then estimates length from the hauled volume.
	CutLengthM float64

	// HeadingDeg is the recorded travel heading in compass degrees
	// (0 = north, 90 = east). Nil derives the heading from Start->End.
	HeadingDeg *float64

	CutProfile  Profile // measured cut cross-section, may be empty
	FillProfile Profile // measured fill cross-section, may be empty
}
