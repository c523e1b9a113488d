package internal

import "math"

// RoundCents rounds a float64 sum of DECIMAL(14,2) amounts to whole cents.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
