// Package geo converts geographic survey coordinates to the local planar
// frame shared by the bin grid. The projection is an equirectangular
// approximation anchored at a per-run origin: x grows east, y grows north,
// both in metres.
package geo

import (
	"math"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
)

// EarthRadiusM is the spherical earth radius in metres used by both the
// planar projection and the haversine distance.
const EarthRadiusM = 6_371_000.0

// Projection is an equirectangular projection anchored at (Lat0, Lon0).
// Anchoring at the survey centroid keeps planar distortion negligible over
// field-scale extents (a few hundred metres).
type Projection struct {
	Lat0 float64 // anchor latitude, decimal degrees
	Lon0 float64 // anchor longitude, decimal degrees
}

// NewProjection returns a projection anchored at the given origin. Use
// CentroidOf for the standard per-run anchor, or supply a stored origin
// when re-projecting detailed trip geometry against an existing grid.
func NewProjection(lat0, lon0 float64) Projection {
	return Projection{Lat0: lat0, Lon0: lon0}
}

// ToLocalXY converts a geographic coordinate to local planar metres:
//
//	x = R·cos(lat0)·(lon − lon0)
//	y = R·(lat − lat0)
//
// Pure and deterministic; all angles are converted to radians internally.
func (p Projection) ToLocalXY(pos field.LatLon) (x, y float64) {
	latRad := pos.Lat * math.Pi / 180
	lonRad := pos.Lon * math.Pi / 180
	lat0Rad := p.Lat0 * math.Pi / 180
	lon0Rad := p.Lon0 * math.Pi / 180

	x = EarthRadiusM * math.Cos(lat0Rad) * (lonRad - lon0Rad)
	y = EarthRadiusM * (latRad - lat0Rad)
	return x, y
}

// HaversineMeters returns the great-circle distance between two geographic
// points. Trip lengths are computed this way rather than through the planar
// projection: trip endpoints arrive as raw geographic coordinates while
// footprint math is planar. The asymmetry is intentional and kept from the
// surveyed data pipeline.
func HaversineMeters(a, b field.LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// CentroidOf returns the arithmetic mean of the sample coordinates, the
// standard projection anchor for a run. Returns the zero coordinate when
// the sample set is empty; callers treat an empty sample set as a fatal
// load error before projecting anything.
func CentroidOf(samples []field.Sample) field.LatLon {
	if len(samples) == 0 {
		return field.LatLon{}
	}
	var sumLat, sumLon float64
	for _, s := range samples {
		sumLat += s.Pos.Lat
		sumLon += s.Pos.Lon
	}
	n := float64(len(samples))
	return field.LatLon{Lat: sumLat / n, Lon: sumLon / n}
}
