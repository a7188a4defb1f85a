package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/geo"
)

// BinKey identifies a bin by its integer lattice coordinate. Keys are the
// only lookup handle: bin access by coordinate is a direct map hit, never a
// scan.
type BinKey struct {
	BX int
	BY int
}

// Bin is the atomic unit of the simulation grid: one square cell of the
// field surface with its aggregated survey shots and live elevation state.
type Bin struct {
	Key BinKey

	// X, Y is the planar cell-centre position in metres ((bx+0.5)·B,
	// (by+0.5)·B). Footprint projections measure against this point.
	X float64
	Y float64

	// Survey shots that landed in the cell, split by kind. A cell touched
	// only by topo shots has design shots empty, and vice versa. Duplicate
	// shots at identical coordinates accumulate, no dedup.
	ZExistShots []float64
	ZPropShots  []float64

	// Per-kind arithmetic means, nil when the cell has no shots of that
	// kind. Absent is not zero: a bin missing either mean is excluded from
	// the simulation-eligible set but stays in the raw grid for lookup.
	ZExistMean *float64
	ZPropMean  *float64

	// ZCur is the live simulation elevation in metres, initialised from
	// ZExistMean and mutated only by the evolution engine.
	ZCur float64

	// ZProp is the fixed target elevation in metres, initialised from
	// ZPropMean.
	ZProp float64
}

// Eligible reports whether the bin participates in simulation: both the
// existing and the design surface must have been observed in the cell.
func (b *Bin) Eligible() bool {
	return b.ZExistMean != nil && b.ZPropMean != nil
}

// Grid is the raw binned surface: every bin any sample landed in, eligible
// or not. Built once per run and never filtered in place.
type Grid struct {
	BinSizeM float64        // bin edge length, metres (e.g., 0.6096)
	Proj     geo.Projection // planar frame shared by all grid coordinates
	Bins     map[BinKey]*Bin
}

// BuildGrid projects every sample into the local planar frame and
// aggregates per-bin elevation shots, then fixes the per-bin means. An
// empty sample set is a fatal load error: no simulation is meaningful
// without a surface.
func BuildGrid(samples []field.Sample, binSizeM float64, proj geo.Projection) (*Grid, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no survey samples to bin")
	}
	if binSizeM <= 0 {
		return nil, fmt.Errorf("bin size must be positive, got %v", binSizeM)
	}

	g := &Grid{
		BinSizeM: binSizeM,
		Proj:     proj,
		Bins:     make(map[BinKey]*Bin, len(samples)/4),
	}

	for _, s := range samples {
		x, y := proj.ToLocalXY(s.Pos)
		key := g.KeyAt(x, y)

		b, ok := g.Bins[key]
		if !ok {
			b = &Bin{
				Key: key,
				X:   (float64(key.BX) + 0.5) * binSizeM,
				Y:   (float64(key.BY) + 0.5) * binSizeM,
			}
			g.Bins[key] = b
		}

		if s.ZExist != nil {
			b.ZExistShots = append(b.ZExistShots, *s.ZExist)
		}
		if s.ZProp != nil {
			b.ZPropShots = append(b.ZPropShots, *s.ZProp)
		}
	}

	for _, b := range g.Bins {
		if len(b.ZExistShots) > 0 {
			m := stat.Mean(b.ZExistShots, nil)
			b.ZExistMean = &m
			b.ZCur = m
		}
		if len(b.ZPropShots) > 0 {
			m := stat.Mean(b.ZPropShots, nil)
			b.ZPropMean = &m
			b.ZProp = m
		}
	}

	field.Diagf("binned %d samples into %d bins (bin size %.4fm)", len(samples), len(g.Bins), binSizeM)
	return g, nil
}

// KeyAt returns the lattice coordinate of the cell containing the planar
// point (x, y).
func (g *Grid) KeyAt(x, y float64) BinKey {
	return BinKey{
		BX: int(math.Floor(x / g.BinSizeM)),
		BY: int(math.Floor(y / g.BinSizeM)),
	}
}

// At returns the bin at the given lattice coordinate, if any.
func (g *Grid) At(key BinKey) (*Bin, bool) {
	b, ok := g.Bins[key]
	return b, ok
}

// BinArea returns the planar area of one bin in square metres.
func (g *Grid) BinArea() float64 {
	return g.BinSizeM * g.BinSizeM
}
