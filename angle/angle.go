// Package angle provides helpers for working with angular quantities in radians.
package angle

import "math"

// Normalize wraps theta into the half-open interval (-Pi, Pi].
// It handles any number of full turns. NaN and Inf are returned unchanged.
func Normalize(theta float64) float64 {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return theta
	}

	a := math.Remainder(theta, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}

	return a
}

// Diff returns the shortest signed angular distance from b to a, wrapped into (-Pi, Pi].
func Diff(a, b float64) float64 {
	return Normalize(a - b)
}
