package footprint

import (
	"math"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/field/grid"
)

// degenerateSegmentEpsilonM is the segment length below which a footprint
// collapses to the single nearest bin instead of a rectangle.
const degenerateSegmentEpsilonM = 1e-6

// Segment is a directed planar line segment in grid coordinates: the long
// axis of an equipment footprint. The footprint itself is the rotated
// rectangle of the resolver's equipment width centred on this axis.
type Segment struct {
	X1, Y1 float64 // start, metres
	X2, Y2 float64 // end, metres
}

// Length returns the planar length of the segment in metres.
func (s Segment) Length() float64 {
	return math.Hypot(s.X2-s.X1, s.Y2-s.Y1)
}

// Degenerate reports whether the segment is too short to orient a
// rectangle.
func (s Segment) Degenerate() bool {
	return s.Length() < degenerateSegmentEpsilonM
}

// CoveredBin is one bin inside a footprint, with the bin centre's
// projections onto the segment frame: S along the axis from the segment
// start, T the signed lateral offset. S feeds profile-weighted placement.
type CoveredBin struct {
	Bin *grid.Bin
	S   float64 // distance along the segment axis, metres
	T   float64 // signed offset from the axis, metres
}

// Resolver computes trip footprints against one lattice using fixed
// equipment geometry. Resolution is pure: the same trip against an
// unchanged lattice always yields the same bins and projections.
type Resolver struct {
	Lattice *grid.Lattice

	EquipWidthM  float64 // blade/bucket width, e.g. 4.572
	MaxCutDepthM float64 // deepest single-pass cut, e.g. 0.06096
	PassDepthM   float64 // nominal pass depth for cut-length estimates, e.g. 0.1
	DumpTravelM  float64 // fixed dump run length, e.g. 5.0
}

// headingUnit returns the trip's unit travel direction in the planar frame.
// A recorded compass heading wins; otherwise the direction is derived from
// the start→end pair. Returns (0, 0) when the trip has no usable direction
// (coincident endpoints and no recorded heading).
func (r *Resolver) headingUnit(trip *field.TripRecord) (ux, uy float64) {
	if trip.Detail != nil && trip.Detail.HeadingDeg != nil {
		rad := *trip.Detail.HeadingDeg * math.Pi / 180
		// Compass degrees: 0 = north (+y), 90 = east (+x).
		return math.Sin(rad), math.Cos(rad)
	}
	x1, y1 := r.Lattice.Proj.ToLocalXY(trip.Start)
	x2, y2 := r.Lattice.Proj.ToLocalXY(trip.End)
	dx, dy := x2-x1, y2-y1
	n := math.Hypot(dx, dy)
	if n < degenerateSegmentEpsilonM {
		return 0, 0
	}
	return dx / n, dy / n
}

// CutSegment resolves where the trip removed material. Explicit surveyed
// cut endpoints win. Otherwise the segment ends at the trip start and
// extends backward along the travel heading by the recorded cut length,
// or, absent that, by the length the hauled volume implies at nominal
// blade engagement: cutM3 / (width · min(maxCutDepth, passDepth)).
func (r *Resolver) CutSegment(trip *field.TripRecord, cutM3 float64) Segment {
	if d := trip.Detail; d != nil && d.CutStart != nil && d.CutStop != nil {
		x1, y1 := r.Lattice.Proj.ToLocalXY(*d.CutStart)
		x2, y2 := r.Lattice.Proj.ToLocalXY(*d.CutStop)
		return Segment{X1: x1, Y1: y1, X2: x2, Y2: y2}
	}

	length := 0.0
	if d := trip.Detail; d != nil && d.CutLengthM > 0 {
		length = d.CutLengthM
	} else {
		depth := math.Min(r.MaxCutDepthM, r.PassDepthM)
		if r.EquipWidthM > 0 && depth > 0 && cutM3 > 0 {
			length = cutM3 / (r.EquipWidthM * depth)
		}
	}

	// The cut pass ends where the haul starts.
	ex, ey := r.Lattice.Proj.ToLocalXY(trip.Start)
	ux, uy := r.headingUnit(trip)
	return Segment{
		X1: ex - ux*length,
		Y1: ey - uy*length,
		X2: ex,
		Y2: ey,
	}
}

// FillSegment resolves where the trip dumped material. Explicit surveyed
// fill endpoints win; otherwise a fixed dump-travel run ends at the trip
// end, oriented along the travel heading.
func (r *Resolver) FillSegment(trip *field.TripRecord) Segment {
	if d := trip.Detail; d != nil && d.FillStart != nil && d.FillStop != nil {
		x1, y1 := r.Lattice.Proj.ToLocalXY(*d.FillStart)
		x2, y2 := r.Lattice.Proj.ToLocalXY(*d.FillStop)
		return Segment{X1: x1, Y1: y1, X2: x2, Y2: y2}
	}

	ex, ey := r.Lattice.Proj.ToLocalXY(trip.End)
	ux, uy := r.headingUnit(trip)
	return Segment{
		X1: ex - ux*r.DumpTravelM,
		Y1: ey - uy*r.DumpTravelM,
		X2: ex,
		Y2: ey,
	}
}

// Covered returns the eligible bins inside the footprint rectangle of the
// segment, ordered by (by, bx) ascending. A degenerate segment collapses
// to the single nearest bin. An empty result is a resolution miss, not an
// error: the caller skips that half of the trip.
//
// The cover test projects each candidate bin centre onto the segment's
// unit axis (s, must lie in [0, length]) and unit normal (t, must satisfy
// |t| ≤ width/2). Candidates come from the cells under the rectangle's
// bounding box via direct map lookups, never a whole-grid scan.
func (r *Resolver) Covered(seg Segment) []CoveredBin {
	if seg.Degenerate() {
		b := r.Lattice.NearestBin(seg.X1, seg.Y1)
		if b == nil {
			return nil
		}
		return []CoveredBin{{Bin: b, S: 0, T: 0}}
	}

	length := seg.Length()
	ux := (seg.X2 - seg.X1) / length
	uy := (seg.Y2 - seg.Y1) / length
	halfW := r.EquipWidthM / 2

	// Bounding box over the four rectangle corners.
	nx, ny := -uy, ux
	minX, minY := seg.X1, seg.Y1
	maxX, maxY := seg.X1, seg.Y1
	for _, c := range [4][2]float64{
		{seg.X1 + nx*halfW, seg.Y1 + ny*halfW},
		{seg.X1 - nx*halfW, seg.Y1 - ny*halfW},
		{seg.X2 + nx*halfW, seg.Y2 + ny*halfW},
		{seg.X2 - nx*halfW, seg.Y2 - ny*halfW},
	} {
		minX = math.Min(minX, c[0])
		minY = math.Min(minY, c[1])
		maxX = math.Max(maxX, c[0])
		maxY = math.Max(maxY, c[1])
	}

	lo := r.Lattice.KeyAt(minX, minY)
	hi := r.Lattice.KeyAt(maxX, maxY)

	var covered []CoveredBin
	for by := lo.BY; by <= hi.BY; by++ {
		for bx := lo.BX; bx <= hi.BX; bx++ {
			b, ok := r.Lattice.At(grid.BinKey{BX: bx, BY: by})
			if !ok {
				continue
			}
			dx := b.X - seg.X1
			dy := b.Y - seg.Y1
			s := dx*ux + dy*uy
			if s < 0 || s > length {
				continue
			}
			t := dx*nx + dy*ny
			if math.Abs(t) > halfW {
				continue
			}
			covered = append(covered, CoveredBin{Bin: b, S: s, T: t})
		}
	}
	return covered
}

// Strip returns the simplified footprint for a location: the row of bins
// ceil(width/B) across, centred on the bin containing (or nearest to) the
// location, spanning east-west.
//
// The row direction is a fixed reference perpendicular to north, unrelated
// to any actual travel heading: blade mode derives direction from the
// trip, strip mode deliberately does not. Whether that asymmetry is a
// simplification or a latent inconsistency is an open stakeholder question;
// the behaviour is preserved as-is.
func (r *Resolver) Strip(pos field.LatLon) []CoveredBin {
	x, y := r.Lattice.Proj.ToLocalXY(pos)
	anchor, ok := r.Lattice.At(r.Lattice.KeyAt(x, y))
	if !ok {
		anchor = r.Lattice.NearestBin(x, y)
	}
	if anchor == nil {
		return nil
	}

	n := int(math.Ceil(r.EquipWidthM / r.Lattice.BinSizeM))
	if n < 1 {
		n = 1
	}

	var covered []CoveredBin
	for i := -(n / 2); i < n-(n/2); i++ {
		key := grid.BinKey{BX: anchor.Key.BX + i, BY: anchor.Key.BY}
		b, ok := r.Lattice.At(key)
		if !ok {
			continue
		}
		covered = append(covered, CoveredBin{Bin: b, S: 0, T: b.X - anchor.X})
	}
	return covered
}
