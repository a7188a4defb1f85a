package spread

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/footprint"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
)

// minProfileWeight keeps profile-weighted shares from starving bins where
// the measured depth is near zero.
const minProfileWeight = 0.1

// CapacityFunc reports the remaining volume a bin can absorb, in cubic metres.
type CapacityFunc func(b *grid.Bin) float64

// ApplyFunc mutates a bin to absorb volumeM3 cubic metres.
type ApplyFunc func(b *grid.Bin, volumeM3 float64)

// Result summarises a single distribution pass.
type Result struct {
	RequestedM3 float64 // volume asked for
	CapacityM3  float64 // total candidate capacity, weighted when a profile applies
	PlacedM3    float64 // volume actually allocated; excess over capacity is dropped
	BinsTouched int
}

// Distributor spreads volume over footprint bins in proportion to each
// bin's remaining capacity. It is stateless between calls; all evolving
// state lives in the bins themselves.
type Distributor struct {
	BinAreaM2    float64 // e.g., 0.37161216 for 0.6096 m bins
	MaxCutDepthM float64 // deepest single-pass cut, e.g., 0.06096
}

func NewDistributor(binAreaM2, maxCutDepthM float64) *Distributor {
	return &Distributor{BinAreaM2: binAreaM2, MaxCutDepthM: maxCutDepthM}
}

// CutCapacity is the volume that can still be cut from b: depth to target,
// limited to one pass depth, floored at zero once the bin reaches grade.
func (d *Distributor) CutCapacity(b *grid.Bin) float64 {
	depth := math.Min(d.MaxCutDepthM, b.ZCur-b.ZProp)
	if depth <= 0 {
		return 0
	}
	return depth * d.BinAreaM2
}

// FillCapacity is the volume b can still take before reaching grade.
func (d *Distributor) FillCapacity(b *grid.Bin) float64 {
	depth := b.ZProp - b.ZCur
	if depth <= 0 {
		return 0
	}
	return depth * d.BinAreaM2
}

// ApplyCut lowers ZCur by volumeM3 spread over the bin area. ZCur never
// passes below ZProp; the clamp also absorbs floating-point residue from
// proportional shares.
func (d *Distributor) ApplyCut(b *grid.Bin, volumeM3 float64) {
	b.ZCur -= volumeM3 / d.BinAreaM2
	if b.ZCur < b.ZProp {
		b.ZCur = b.ZProp
	}
}

// ApplyFill raises ZCur by volumeM3 spread over the bin area, clamped so
// it never passes above ZProp.
func (d *Distributor) ApplyFill(b *grid.Bin, volumeM3 float64) {
	b.ZCur += volumeM3 / d.BinAreaM2
	if b.ZCur > b.ZProp {
		b.ZCur = b.ZProp
	}
}

// Place allocates volumeM3 across covered in proportion to per-bin
// capacity. min(volumeM3, total capacity) is applied in a single pass: a
// proportional share of available capacity never exceeds the bin's own
// capacity, so no rebalancing is needed. Zero total capacity is a silent
// no-op, and volume beyond capacity is dropped, not redistributed.
func (d *Distributor) Place(covered []footprint.CoveredBin, volumeM3 float64, capacity CapacityFunc, apply ApplyFunc) Result {
	return d.place(covered, volumeM3, capacity, apply, nil, 0)
}

// PlaceWeighted is Place with each bin's capacity scaled by
// max(0.1, |profile depth at s| / referenceDepthM) before allocation,
// biasing volume toward bins matching the measured cross-section shape.
// A non-positive reference depth or an empty profile falls back to the
// uniform allocation.
func (d *Distributor) PlaceWeighted(covered []footprint.CoveredBin, volumeM3 float64, profile field.Profile, referenceDepthM float64, capacity CapacityFunc, apply ApplyFunc) Result {
	if len(profile) == 0 || referenceDepthM <= 0 {
		return d.place(covered, volumeM3, capacity, apply, nil, 0)
	}
	return d.place(covered, volumeM3, capacity, apply, profile, referenceDepthM)
}

func (d *Distributor) place(covered []footprint.CoveredBin, volumeM3 float64, capacity CapacityFunc, apply ApplyFunc, profile field.Profile, referenceDepthM float64) Result {
	res := Result{RequestedM3: volumeM3}
	if len(covered) == 0 || volumeM3 <= 0 {
		return res
	}

	caps := make([]float64, len(covered))
	for i, c := range covered {
		caps[i] = capacity(c.Bin)
		if profile != nil && caps[i] > 0 {
			w := math.Abs(profile.DepthAt(c.S)) / referenceDepthM
			caps[i] *= math.Max(minProfileWeight, w)
		}
	}
	total := floats.Sum(caps)
	res.CapacityM3 = total
	if total <= 0 {
		return res
	}

	available := math.Min(volumeM3, total)
	for i, c := range covered {
		if caps[i] <= 0 {
			continue
		}
		share := available * caps[i] / total
		apply(c.Bin, share)
		res.PlacedM3 += share
		res.BinsTouched++
	}

	field.Tracef("spread: placed %.4f of %.4f m3 across %d bins (capacity %.4f m3)",
		res.PlacedM3, volumeM3, res.BinsTouched, total)
	return res
}
