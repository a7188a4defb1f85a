// Package testutil provides shared test fixtures for laying out survey
// geometry and building records with optional fields.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/geo"
)

// F64 returns a pointer to v, for populating optional elevation fields.
func F64(v float64) *float64 { return &v }

// LatLonAt inverts the equirectangular projection anchored at (0, 0) so
// tests can lay samples and trip geometry out in planar metres and get the
// geographic coordinates a loader or resolver expects.
func LatLonAt(x, y float64) field.LatLon {
	return field.LatLon{
		Lat: y / geo.EarthRadiusM * 180 / math.Pi,
		Lon: x / geo.EarthRadiusM * 180 / math.Pi,
	}
}

// LatLonPtr is LatLonAt for optional coordinate fields.
func LatLonPtr(x, y float64) *field.LatLon {
	ll := LatLonAt(x, y)
	return &ll
}
