package units

import (
	"math"
	"testing"
)

func TestPXPerDeg(t *testing.T) {
	tests := []struct {
		name       string
		widthPX    float64
		widthMM    float64
		distanceMM float64
		expected   float64
	}{
		// 24in 16:9 panel at a 600mm chinrest: 2*600*tan(0.5deg) mm/deg
		// at 1920/531 px/mm
		{"1920px 531mm panel at 600mm", 1920, 531, 600, 37.8657},
		{"double the distance doubles the span", 1920, 531, 1200, 75.7314},
		{"denser panel means more px per deg", 3840, 531, 600, 75.7314},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PXPerDeg(tt.widthPX, tt.widthMM, tt.distanceMM)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("PXPerDeg(%v, %v, %v) = %f, want %f",
					tt.widthPX, tt.widthMM, tt.distanceMM, result, tt.expected)
			}
		})
	}
}

func TestPXPerDegMissingGeometry(t *testing.T) {
	tests := []struct {
		name       string
		widthPX    float64
		widthMM    float64
		distanceMM float64
	}{
		{"zero width px", 0, 531, 600},
		{"zero width mm", 1920, 0, 600},
		{"zero distance", 1920, 531, 0},
		{"negative distance", 1920, 531, -600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := PXPerDeg(tt.widthPX, tt.widthMM, tt.distanceMM); !math.IsNaN(result) {
				t.Errorf("PXPerDeg(%v, %v, %v) = %f, want NaN",
					tt.widthPX, tt.widthMM, tt.distanceMM, result)
			}
		})
	}
}

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		name       string
		distancePX float64
		units      string
		pxPerDeg   float64
		expected   float64
	}{
		{"100 px to deg", 100.0, Deg, 40.0, 2.5},
		{"100 px to px", 100.0, PX, 40.0, 100.0},
		{"unknown units default to px", 100.0, "unknown", 40.0, 100.0},
		{"0 px to deg", 0.0, Deg, 40.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertDistance(tt.distancePX, tt.units, tt.pxPerDeg)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ConvertDistance(%f, %s, %f) = %f, want %f",
					tt.distancePX, tt.units, tt.pxPerDeg, result, tt.expected)
			}
		})
	}
}

func TestConvertDistanceUnknownGeometry(t *testing.T) {
	// conversion with NaN px-per-deg degrades to NaN rather than a wrong number
	if result := ConvertDistance(100, Deg, math.NaN()); !math.IsNaN(result) {
		t.Errorf("ConvertDistance with NaN pxPerDeg = %f, want NaN", result)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"px is valid", PX, true},
		{"deg is valid", Deg, true},
		{"empty is invalid", "", false},
		{"mm is invalid", "mm", false},
		{"uppercase is invalid", "PX", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsValid(tt.unit); result != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "px, deg" {
		t.Errorf("GetValidUnitsString() = %q, want %q", got, "px, deg")
	}
}
