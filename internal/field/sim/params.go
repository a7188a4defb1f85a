package sim

import "fmt"

// Mode selects how trip footprints are resolved.
type Mode int

const (
	// ModeBlade resolves rotated-rectangle footprints from recorded or
	// derived trip geometry.
	ModeBlade Mode = iota
	// ModeStrip resolves fixed east-west bin strips around the trip
	// endpoints instead of following travel heading.
	ModeStrip
)

func (m Mode) String() string {
	switch m {
	case ModeBlade:
		return "blade"
	case ModeStrip:
		return "strip"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "blade":
		return ModeBlade, nil
	case "strip":
		return ModeStrip, nil
	default:
		return ModeBlade, fmt.Errorf("unknown footprint mode %q (valid: blade, strip)", s)
	}
}

// Params carries the fixed equipment configuration for a run. Values are
// consumed as given; the engine never derives or re-fits them.
type Params struct {
	BinSizeM     float64 // grid cell edge, e.g., 0.6096 (2 ft)
	EquipWidthM  float64 // blade width, e.g., 4.572 (15 ft)
	MaxCutDepthM float64 // deepest single-pass cut, e.g., 0.06096
	PassDepthM   float64 // nominal working depth for cut-length estimates
	DumpTravelM  float64 // fill spread run when no fill segment was recorded
	SwellFactor  float64 // bank -> loose, e.g., 1.30
	ShrinkFactor float64 // loose -> compacted, e.g., 0.64
	Mode         Mode
}

// DefaultParams returns the standard scraper configuration used by the
// survey crews: a 15 ft blade over 2 ft bins.
func DefaultParams() Params {
	return Params{
		BinSizeM:     0.6096,
		EquipWidthM:  4.572,
		MaxCutDepthM: 0.06096,
		PassDepthM:   0.1,
		DumpTravelM:  5.0,
		SwellFactor:  1.30,
		ShrinkFactor: 0.64,
		Mode:         ModeBlade,
	}
}

func (p Params) validate() error {
	if p.BinSizeM <= 0 {
		return fmt.Errorf("bin size must be positive, got %v", p.BinSizeM)
	}
	if p.EquipWidthM <= 0 {
		return fmt.Errorf("equipment width must be positive, got %v", p.EquipWidthM)
	}
	if p.MaxCutDepthM <= 0 {
		return fmt.Errorf("max cut depth must be positive, got %v", p.MaxCutDepthM)
	}
	if p.PassDepthM <= 0 {
		return fmt.Errorf("pass depth must be positive, got %v", p.PassDepthM)
	}
	if p.DumpTravelM <= 0 {
		return fmt.Errorf("dump travel must be positive, got %v", p.DumpTravelM)
	}
	if p.SwellFactor <= 0 || p.ShrinkFactor <= 0 {
		return fmt.Errorf("swell and shrink factors must be positive, got %v and %v",
			p.SwellFactor, p.ShrinkFactor)
	}
	return nil
}
