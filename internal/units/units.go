// Package units provides shared constants and conversions for earthwork volumes
package units

// Unit constants
const (
	M3  = "m3"  // cubic metres
	YD3 = "yd3" // cubic yards
)

// CubicYardsPerCubicMeter is the exact scale between the two volume units.
// Trip volumes arrive in cubic yards; all grid math runs in metres.
const CubicYardsPerCubicMeter = 1.30795061931439

// ValidUnits contains all valid unit values
var ValidUnits = []string{M3, YD3}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m3, yd3"
}

// ConvertVolume converts a volume from cubic metres to the target units
// Grid state stores volumes in m3 (cubic metres)
func ConvertVolume(volumeM3 float64, targetUnits string) float64 {
	switch targetUnits {
	case YD3:
		return volumeM3 * CubicYardsPerCubicMeter
	case M3:
		return volumeM3 // no conversion needed
	default:
		return volumeM3 // default to m3 if unknown unit
	}
}

// BankCubicYardsToCubicMeters converts an in-situ volume measured in bank
// cubic yards (BCY) to cubic metres.
func BankCubicYardsToCubicMeters(bcy float64) float64 {
	return bcy / CubicYardsPerCubicMeter
}

// LooseFromBank expands a bank volume by the soil swell factor, giving the
// volume riding on the equipment after excavation.
func LooseFromBank(bankM3, swell float64) float64 {
	return bankM3 * swell
}

// CompactedFromLoose shrinks a loose volume by the compaction factor,
// giving the volume occupied once placed and packed.
func CompactedFromLoose(looseM3, shrink float64) float64 {
	return looseM3 * shrink
}

// CompactedFromBank chains swell and shrink: the net factor from in-situ
// cut volume to placed fill volume.
func CompactedFromBank(bankM3, swell, shrink float64) float64 {
	return bankM3 * swell * shrink
}
