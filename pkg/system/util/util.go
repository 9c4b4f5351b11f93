package util

import (
	"math"
	"strconv"
)

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	// guard against NaN
	if math.IsNaN(x) {
		return 0
	}
	return x
}

// FmtFloat formats x with the fewest digits that round-trip.
func FmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// Ratio returns num/den for two counters, or 0 when den is 0.
func Ratio(num, den uint64) float64 {
	return SafeDiv(float64(num), float64(den))
}
