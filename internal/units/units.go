// Package units provides shared constants and conversion for gaze distance units
package units

import "math"

// Unit constants
const (
	PX  = "px"
	Deg = "deg"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{PX, Deg}

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
	return "px, deg"
}

// PXPerDeg returns how many pixels one degree of visual angle spans for the
// given display geometry. One degree at the viewing distance subtends
// 2*d*tan(0.5 deg) millimetres, scaled by the panel's pixel density.
// Returns NaN when any dimension is missing or non-positive, so callers
// fall back to pixels.
func PXPerDeg(screenWidthPX, screenWidthMM, viewingDistanceMM float64) float64 {
	if screenWidthPX <= 0 || screenWidthMM <= 0 || viewingDistanceMM <= 0 {
		return math.NaN()
	}
	mmPerDeg := 2 * viewingDistanceMM * math.Tan(0.5*math.Pi/180)
	return mmPerDeg * screenWidthPX / screenWidthMM
}

// ConvertDistance converts a screen distance to the target units.
// Database stores distances in px (screen pixels).
func ConvertDistance(distancePX float64, targetUnits string, pxPerDeg float64) float64 {
	switch targetUnits {
	case Deg:
		return distancePX / pxPerDeg
	case PX:
		return distancePX // no conversion needed
	default:
		return distancePX // default to px if unknown unit
	}
}
