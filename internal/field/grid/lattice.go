package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/geo"
)

// Face is one triangle of the lattice surface, wound corner-by-corner in
// lattice coordinates. Faces are connectivity only; elevation changes never
// alter them.
type Face [3]BinKey

// Lattice is the simulation-eligible view of a Grid: the bins with both
// surface means present, their triangulated faces, and the integer bounds.
// Lattice bins are shared pointers into the raw grid: building the lattice
// filters without mutating the grid, and elevation changes made through the
// lattice are visible through the grid.
type Lattice struct {
	BinSizeM float64
	Proj     geo.Projection

	// Bins holds only the simulation-eligible bins. Lookup by lattice
	// coordinate is a direct map hit.
	Bins map[BinKey]*Bin

	// Keys is the eligible coordinates sorted by (BY, BX) ascending, the
	// deterministic iteration order used for faces and telemetry.
	Keys []BinKey

	// Faces is the static triangulated connectivity over the eligible bins.
	Faces []Face

	// Integer bounding box of the eligible set.
	MinBX, MaxBX int
	MinBY, MaxBY int
}

// BuildLattice filters the raw grid to its simulation-eligible bins,
// computes the integer bounds, and triangulates the 2×2 neighbourhoods.
// A grid with no eligible bins is a fatal condition: every bin is missing
// either the existing or the design surface, so there is nothing to evolve.
func BuildLattice(g *Grid) (*Lattice, error) {
	lat := &Lattice{
		BinSizeM: g.BinSizeM,
		Proj:     g.Proj,
		Bins:     make(map[BinKey]*Bin),
	}

	for key, b := range g.Bins {
		if !b.Eligible() {
			continue
		}
		lat.Bins[key] = b
		lat.Keys = append(lat.Keys, key)
	}
	if len(lat.Bins) == 0 {
		return nil, fmt.Errorf("no simulation-eligible bins: %d raw bins all lack an existing or design surface", len(g.Bins))
	}

	sort.Slice(lat.Keys, func(i, j int) bool {
		if lat.Keys[i].BY != lat.Keys[j].BY {
			return lat.Keys[i].BY < lat.Keys[j].BY
		}
		return lat.Keys[i].BX < lat.Keys[j].BX
	})

	lat.MinBX, lat.MaxBX = lat.Keys[0].BX, lat.Keys[0].BX
	lat.MinBY, lat.MaxBY = lat.Keys[0].BY, lat.Keys[0].BY
	for _, k := range lat.Keys[1:] {
		if k.BX < lat.MinBX {
			lat.MinBX = k.BX
		}
		if k.BX > lat.MaxBX {
			lat.MaxBX = k.BX
		}
		if k.BY < lat.MinBY {
			lat.MinBY = k.BY
		}
		if k.BY > lat.MaxBY {
			lat.MaxBY = k.BY
		}
	}

	lat.Faces = buildFaces(lat.Bins, lat.MinBX, lat.MaxBX, lat.MinBY, lat.MaxBY)

	field.Diagf("lattice: %d eligible bins of %d raw, %d faces, bounds bx [%d,%d] by [%d,%d]",
		len(lat.Bins), len(g.Bins), len(lat.Faces), lat.MinBX, lat.MaxBX, lat.MinBY, lat.MaxBY)
	return lat, nil
}

// buildFaces emits up to two triangles per 2×2 cell neighbourhood:
// {origin, east, north} and {east, northeast, north}, each independently,
// so a cell with three present corners still contributes one triangle.
// Survey coverage is irregular; the lattice never assumes a full rectangle.
func buildFaces(bins map[BinKey]*Bin, minBX, maxBX, minBY, maxBY int) []Face {
	var faces []Face
	for by := minBY; by < maxBY; by++ {
		for bx := minBX; bx < maxBX; bx++ {
			c00 := BinKey{BX: bx, BY: by}
			c10 := BinKey{BX: bx + 1, BY: by}
			c01 := BinKey{BX: bx, BY: by + 1}
			c11 := BinKey{BX: bx + 1, BY: by + 1}

			_, has00 := bins[c00]
			_, has10 := bins[c10]
			_, has01 := bins[c01]
			_, has11 := bins[c11]

			if has00 && has10 && has01 {
				faces = append(faces, Face{c00, c10, c01})
			}
			if has10 && has11 && has01 {
				faces = append(faces, Face{c10, c11, c01})
			}
		}
	}
	return faces
}

// KeyAt returns the lattice coordinate of the cell containing the planar
// point (x, y).
func (l *Lattice) KeyAt(x, y float64) BinKey {
	return BinKey{
		BX: int(math.Floor(x / l.BinSizeM)),
		BY: int(math.Floor(y / l.BinSizeM)),
	}
}

// At returns the eligible bin at the given lattice coordinate, if any.
func (l *Lattice) At(key BinKey) (*Bin, bool) {
	b, ok := l.Bins[key]
	return b, ok
}

// BinArea returns the planar area of one bin in square metres.
func (l *Lattice) BinArea() float64 {
	return l.BinSizeM * l.BinSizeM
}

// onGradeToleranceM treats elevations this close to target as on grade.
const onGradeToleranceM = 1e-9

// CutFillBalance is the remaining earthwork in the lattice: material still
// sitting above target (cut) and room still open below target (fill), both
// in cubic metres.
type CutFillBalance struct {
	CutM3   float64 // volume above target across all bins
	FillM3  float64 // volume below target across all bins
	OnGrade int     // bins at target within onGradeToleranceM
}

// Balance walks the eligible bins in deterministic order and totals the
// remaining cut and fill volumes against the target surface.
func (l *Lattice) Balance() CutFillBalance {
	area := l.BinArea()
	var bal CutFillBalance
	for _, key := range l.Keys {
		b := l.Bins[key]
		diff := b.ZCur - b.ZProp
		switch {
		case diff > onGradeToleranceM:
			bal.CutM3 += diff * area
		case diff < -onGradeToleranceM:
			bal.FillM3 += -diff * area
		default:
			bal.OnGrade++
		}
	}
	return bal
}
