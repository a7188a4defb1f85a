package grid

import "math"

// NearestBin returns the eligible bin closest to the planar point (x, y),
// or nil when the lattice is empty. Lookup expands square rings of cells
// outward from the containing cell over the direct bin map, so cost scales
// with the gap to the nearest bin, not with grid size.
//
// A hit at ring k does not end the search outright: a cell centre one ring
// further out can still be nearer than a diagonal neighbour, so rings keep
// expanding until their minimum possible centre distance, (k−0.5)·B,
// exceeds the best hit found. Ties go to the earliest cell in ring scan
// order, keeping resolution deterministic.
func (l *Lattice) NearestBin(x, y float64) *Bin {
	origin := l.KeyAt(x, y)

	// The farthest ring that can still contain a bin: enough to cover the
	// whole bounding box from the origin cell, wherever the query sits.
	maxRing := 0
	for _, d := range [4]int{origin.BX - l.MinBX, l.MaxBX - origin.BX, origin.BY - l.MinBY, l.MaxBY - origin.BY} {
		if d > maxRing {
			maxRing = d
		}
	}

	var best *Bin
	bestDist2 := math.MaxFloat64

	consider := func(key BinKey) {
		b, ok := l.Bins[key]
		if !ok {
			return
		}
		dx := b.X - x
		dy := b.Y - y
		d2 := dx*dx + dy*dy
		if d2 < bestDist2 {
			best = b
			bestDist2 = d2
		}
	}

	for k := 0; k <= maxRing; k++ {
		if best != nil {
			minPossible := (float64(k) - 0.5) * l.BinSizeM
			if minPossible > 0 && minPossible*minPossible > bestDist2 {
				break
			}
		}
		if k == 0 {
			consider(origin)
			continue
		}
		// Walk the ring edges in a fixed order: bottom, top, left, right.
		for bx := origin.BX - k; bx <= origin.BX+k; bx++ {
			consider(BinKey{BX: bx, BY: origin.BY - k})
			consider(BinKey{BX: bx, BY: origin.BY + k})
		}
		for by := origin.BY - k + 1; by <= origin.BY+k-1; by++ {
			consider(BinKey{BX: origin.BX - k, BY: by})
			consider(BinKey{BX: origin.BX + k, BY: by})
		}
	}

	return best
}
