package spread

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/footprint"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
)

func binAt(bx, by int, zCur, zProp float64) *grid.Bin {
	return &grid.Bin{
		Key:   grid.BinKey{BX: bx, BY: by},
		ZCur:  zCur,
		ZProp: zProp,
	}
}

// coveredAt wraps bins as footprint output with the given s positions.
func coveredAt(bins []*grid.Bin, s []float64) []footprint.CoveredBin {
	out := make([]footprint.CoveredBin, len(bins))
	for i, b := range bins {
		out[i] = footprint.CoveredBin{Bin: b, S: s[i]}
	}
	return out
}

// TestCapacities tests the cut and fill capacity clamps
func TestCapacities(t *testing.T) {
	tests := []struct {
		name         string
		maxCutDepthM float64
		zCur, zProp  float64
		wantCut      float64
		wantFill     float64
	}{
		{"cut limited by pass depth", 0.06096, 10, 8, 0.06096, 0},
		{"cut limited by grade", 10, 10, 8, 2, 0},
		{"on grade", 10, 8, 8, 0, 0},
		{"below grade wants fill", 10, 7.5, 8, 0, 0.5},
		{"above grade wants cut only", 10, 8.25, 8, 0.25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDistributor(1.0, tt.maxCutDepthM)
			b := binAt(0, 0, tt.zCur, tt.zProp)
			if got := d.CutCapacity(b); math.Abs(got-tt.wantCut) > 1e-12 {
				t.Errorf("CutCapacity = %v, want %v", got, tt.wantCut)
			}
			if got := d.FillCapacity(b); math.Abs(got-tt.wantFill) > 1e-12 {
				t.Errorf("FillCapacity = %v, want %v", got, tt.wantFill)
			}
		})
	}
}

// TestCapacityScalesWithBinArea tests that capacity is a volume, not a depth
func TestCapacityScalesWithBinArea(t *testing.T) {
	area := 0.6096 * 0.6096
	d := NewDistributor(area, 0.06096)
	b := binAt(0, 0, 10, 8)

	want := 0.06096 * area
	if got := d.CutCapacity(b); math.Abs(got-want) > 1e-12 {
		t.Errorf("CutCapacity = %v, want %v", got, want)
	}
}

// TestApplyClamps tests that application never crosses the target elevation
func TestApplyClamps(t *testing.T) {
	d := NewDistributor(1.0, 10)

	cut := binAt(0, 0, 10, 8)
	d.ApplyCut(cut, 5) // 3 m3 more than the bin can give
	if cut.ZCur != 8 {
		t.Errorf("over-applied cut left ZCur = %v, want clamp at 8", cut.ZCur)
	}

	fill := binAt(0, 0, 7, 8)
	d.ApplyFill(fill, 2.5)
	if fill.ZCur != 8 {
		t.Errorf("over-applied fill left ZCur = %v, want clamp at 8", fill.ZCur)
	}
}

// TestPlace_Conservation tests that uncapped volume is placed in full
func TestPlace_Conservation(t *testing.T) {
	d := NewDistributor(1.0, 10)
	bins := []*grid.Bin{
		binAt(0, 0, 10, 8),   // capacity 2
		binAt(1, 0, 9, 8),    // capacity 1
		binAt(2, 0, 8.5, 8),  // capacity 0.5
		binAt(3, 0, 8.25, 8), // capacity 0.25
	}
	covered := coveredAt(bins, []float64{0, 1, 2, 3})

	applied := make(map[grid.BinKey]float64)
	apply := func(b *grid.Bin, v float64) {
		applied[b.Key] += v
		d.ApplyCut(b, v)
	}

	const request = 3.0 // under the 3.75 total capacity
	res := d.Place(covered, request, d.CutCapacity, apply)

	var sum float64
	vols := make([]float64, 0, len(applied))
	for _, v := range applied {
		vols = append(vols, v)
	}
	sum = floats.Sum(vols)
	if !scalar.EqualWithinRel(sum, request, 1e-9) {
		t.Errorf("applied total = %.12f, want %v within 1e-9 relative", sum, request)
	}
	if !scalar.EqualWithinRel(res.PlacedM3, request, 1e-9) {
		t.Errorf("PlacedM3 = %.12f, want %v", res.PlacedM3, request)
	}
	if res.BinsTouched != len(bins) {
		t.Errorf("BinsTouched = %d, want %d", res.BinsTouched, len(bins))
	}
}

// TestPlace_Proportionality tests that shares follow the capacity ratio
func TestPlace_Proportionality(t *testing.T) {
	d := NewDistributor(1.0, 10)
	big := binAt(0, 0, 10, 8)  // capacity 2
	small := binAt(1, 0, 9, 8) // capacity 1
	covered := coveredAt([]*grid.Bin{big, small}, []float64{0, 1})

	applied := make(map[grid.BinKey]float64)
	d.Place(covered, 1.5, d.CutCapacity, func(b *grid.Bin, v float64) {
		applied[b.Key] += v
		d.ApplyCut(b, v)
	})

	ratio := applied[big.Key] / applied[small.Key]
	if !scalar.EqualWithinRel(ratio, 2.0, 1e-9) {
		t.Errorf("share ratio = %v, want 2 (capacity ratio)", ratio)
	}
}

// TestPlace_ZeroCapacityNoOp tests the silent no-op on an on-grade footprint
func TestPlace_ZeroCapacityNoOp(t *testing.T) {
	d := NewDistributor(1.0, 10)
	bins := []*grid.Bin{binAt(0, 0, 8, 8), binAt(1, 0, 8, 8)}
	covered := coveredAt(bins, []float64{0, 1})

	res := d.Place(covered, 4.0, d.CutCapacity, d.ApplyCut)

	if res.PlacedM3 != 0 || res.BinsTouched != 0 {
		t.Errorf("on-grade placement = %+v, want nothing placed", res)
	}
	for _, b := range bins {
		if b.ZCur != 8 {
			t.Errorf("bin %+v mutated to ZCur = %v during no-op", b.Key, b.ZCur)
		}
	}
}

// TestPlace_OverflowDropped tests that volume beyond capacity disappears
func TestPlace_OverflowDropped(t *testing.T) {
	d := NewDistributor(1.0, 10)
	center := binAt(1, 1, 10, 8) // capacity (10-8)*1 = 2 m3
	covered := coveredAt([]*grid.Bin{center}, []float64{0})

	res := d.Place(covered, 5.0, d.CutCapacity, d.ApplyCut)

	if center.ZCur != 8 {
		t.Errorf("ZCur = %v, want clamp at grade 8", center.ZCur)
	}
	if !scalar.EqualWithinRel(res.PlacedM3, 2.0, 1e-9) {
		t.Errorf("PlacedM3 = %v, want 2 (the 3 m3 excess is dropped)", res.PlacedM3)
	}
}

// TestPlace_SharesNeverExceedCapacity tests the single-pass construction:
// saturating volume drives every bin exactly to grade without overshoot.
func TestPlace_SharesNeverExceedCapacity(t *testing.T) {
	d := NewDistributor(1.0, 10)
	bins := []*grid.Bin{
		binAt(0, 0, 10, 8),
		binAt(1, 0, 9.1, 8),
		binAt(2, 0, 8.01, 8),
	}
	covered := coveredAt(bins, []float64{0, 1, 2})

	d.Place(covered, 1000, d.CutCapacity, d.ApplyCut)

	for _, b := range bins {
		if b.ZCur < b.ZProp {
			t.Errorf("bin %+v passed grade: ZCur = %v < %v", b.Key, b.ZCur, b.ZProp)
		}
		if !scalar.EqualWithinAbs(b.ZCur, b.ZProp, 1e-9) {
			t.Errorf("bin %+v not driven to grade: ZCur = %v", b.Key, b.ZCur)
		}
	}
}

// TestPlaceWeighted_Bias tests that the measured profile shifts volume
// toward positions where the blade cut deeper.
func TestPlaceWeighted_Bias(t *testing.T) {
	d := NewDistributor(1.0, 10)
	deep := binAt(0, 0, 9, 8)    // capacity 1, at s=0
	shallow := binAt(1, 0, 9, 8) // capacity 1, at s=10
	covered := coveredAt([]*grid.Bin{deep, shallow}, []float64{0, 10})

	profile := field.Profile{
		{DistM: 0, DepthM: 0.10},
		{DistM: 10, DepthM: 0.02},
	}
	applied := make(map[grid.BinKey]float64)
	d.PlaceWeighted(covered, 0.6, profile, profile.MaxAbsDepth(), d.CutCapacity,
		func(b *grid.Bin, v float64) {
			applied[b.Key] += v
			d.ApplyCut(b, v)
		})

	// Equal true capacities, so the share ratio is the weight ratio
	// 1.0 : 0.2.
	ratio := applied[deep.Key] / applied[shallow.Key]
	if !scalar.EqualWithinRel(ratio, 5.0, 1e-9) {
		t.Errorf("weighted share ratio = %v, want 5", ratio)
	}
}

// TestPlaceWeighted_MinFloor tests that a zero-depth position still receives volume
func TestPlaceWeighted_MinFloor(t *testing.T) {
	d := NewDistributor(1.0, 10)
	worked := binAt(0, 0, 9, 8)
	idle := binAt(1, 0, 9, 8)
	covered := coveredAt([]*grid.Bin{worked, idle}, []float64{0, 10})

	profile := field.Profile{
		{DistM: 0, DepthM: 0.08},
		{DistM: 10, DepthM: 0},
	}
	applied := make(map[grid.BinKey]float64)
	d.PlaceWeighted(covered, 0.5, profile, profile.MaxAbsDepth(), d.CutCapacity,
		func(b *grid.Bin, v float64) {
			applied[b.Key] += v
			d.ApplyCut(b, v)
		})

	if applied[idle.Key] <= 0 {
		t.Fatalf("zero-depth bin received %v, want a floored share > 0", applied[idle.Key])
	}
	ratio := applied[worked.Key] / applied[idle.Key]
	if !scalar.EqualWithinRel(ratio, 10.0, 1e-9) {
		t.Errorf("share ratio = %v, want 10 (weight 1.0 vs floor 0.1)", ratio)
	}
}

// TestPlaceWeighted_Fallbacks tests uniform allocation without a usable profile
func TestPlaceWeighted_Fallbacks(t *testing.T) {
	profile := field.Profile{{DistM: 0, DepthM: 0.05}}

	tests := []struct {
		name    string
		profile field.Profile
		refM    float64
	}{
		{"nil profile", nil, 0.05},
		{"zero reference depth", profile, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDistributor(1.0, 10)
			a := binAt(0, 0, 9, 8)
			b := binAt(1, 0, 9, 8)
			covered := coveredAt([]*grid.Bin{a, b}, []float64{0, 10})

			applied := make(map[grid.BinKey]float64)
			d.PlaceWeighted(covered, 1.0, tt.profile, tt.refM, d.CutCapacity,
				func(bn *grid.Bin, v float64) {
					applied[bn.Key] += v
					d.ApplyCut(bn, v)
				})

			if !scalar.EqualWithinRel(applied[a.Key], applied[b.Key], 1e-9) {
				t.Errorf("shares %v vs %v, want equal uniform split",
					applied[a.Key], applied[b.Key])
			}
		})
	}
}
