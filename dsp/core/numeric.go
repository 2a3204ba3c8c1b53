package core

import "math"

// Clamp limits v to [lo, hi]. The bounds may be given in either order.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// AllFinite reports whether xs contains no NaN or Inf.
func AllFinite(xs []float64) bool {
	for _, x := range xs {
		if x-x != 0 {
			return false
		}
	}
	return true
}

// LinearToDB returns 20·log10(a) for an amplitude ratio: -Inf at zero and
// NaN for negative input.
func LinearToDB(a float64) float64 {
	return 2 * LinearPowerToDB(a)
}

// LinearPowerToDB returns 10·log10(p) for a power ratio: -Inf at zero and
// NaN for negative input.
func LinearPowerToDB(p float64) float64 {
	return 10 * math.Log10(p)
}
