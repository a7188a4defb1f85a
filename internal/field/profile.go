package field

import "math"

// ProfilePoint is one measured (distance along segment, depth) pair.
type ProfilePoint struct {
	DistM  float64 // distance from the segment start, metres
	DepthM float64 // measured depth at that distance, metres (e.g., 0.04)
}

// Profile is a measured cut or fill cross-section along a segment, sorted
// ascending by DistM. An empty profile means no cross-section was recorded.
type Profile []ProfilePoint

// DepthAt returns the depth at distance s along the segment, linearly
// interpolated between the bracketing measurements. Outside the measured
// range the nearest end depth is used (clamp, not extrapolation), so a
// footprint slightly longer than the recorded pass still weights sensibly.
func (p Profile) DepthAt(s float64) float64 {
	if len(p) == 0 {
		return 0
	}
	if s <= p[0].DistM {
		return p[0].DepthM
	}
	last := p[len(p)-1]
	if s >= last.DistM {
		return last.DepthM
	}
	for i := 1; i < len(p); i++ {
		if s > p[i].DistM {
			continue
		}
		a, b := p[i-1], p[i]
		span := b.DistM - a.DistM
		if span <= 0 {
			// Duplicate distance measurements; take the later shot.
			return b.DepthM
		}
		f := (s - a.DistM) / span
		return a.DepthM + f*(b.DepthM-a.DepthM)
	}
	return last.DepthM
}

// MaxAbsDepth returns the largest depth magnitude in the profile, or 0 for
// an empty profile. Used as the reference depth when weighting volume
// placement by the measured cross-section.
func (p Profile) MaxAbsDepth() float64 {
	var max float64
	for _, pt := range p {
		if d := math.Abs(pt.DepthM); d > max {
			max = d
		}
	}
	return max
}
