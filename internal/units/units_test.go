package units

import (
	"math"
	"testing"
)

func TestConvertVolume(t *testing.T) {
	tests := []struct {
		name     string
		volumeM3 float64
		units    string
		expected float64
	}{
		{"10 m3 to yd3", 10.0, YD3, 13.0795061931439},
		{"10 m3 to m3", 10.0, M3, 10.0},
		{"unknown units default to m3", 10.0, "unknown", 10.0},
		{"0 m3 to yd3", 0.0, YD3, 0.0},
		{"scraper pan 12 m3 to yd3", 12.0, YD3, 15.695407431773},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertVolume(tt.volumeM3, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertVolume(%f, %s) = %f, want %f", tt.volumeM3, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid m3", M3, true},
		{"valid yd3", YD3, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "M3", false},
		{"case sensitive", "Yd3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "m3, yd3"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

// Test conversion round trips and the bank/loose/compacted chain
func TestVolumeStateConversions(t *testing.T) {
	// 100 BCY in metric, checked against the published factor.
	bankM3 := BankCubicYardsToCubicMeters(100)
	if math.Abs(bankM3-76.4554857984) > 1e-9 {
		t.Errorf("BankCubicYardsToCubicMeters(100) = %v, want 76.4554857984", bankM3)
	}

	// Round trip back to yards.
	if got := ConvertVolume(bankM3, YD3); math.Abs(got-100) > 1e-9 {
		t.Errorf("round trip = %v, want 100", got)
	}

	// Swell then shrink: 10 bank m3 at 1.30 swell is 13 loose m3,
	// compacted at 0.64 leaves 8.32 m3 in the fill.
	loose := LooseFromBank(10, 1.30)
	if math.Abs(loose-13.0) > 1e-12 {
		t.Errorf("LooseFromBank = %v, want 13", loose)
	}
	compacted := CompactedFromLoose(loose, 0.64)
	if math.Abs(compacted-8.32) > 1e-12 {
		t.Errorf("CompactedFromLoose = %v, want 8.32", compacted)
	}
	if net := CompactedFromBank(10, 1.30, 0.64); math.Abs(net-compacted) > 1e-12 {
		t.Errorf("CompactedFromBank = %v, want %v", net, compacted)
	}
}
