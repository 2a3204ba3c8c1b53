package testutil

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// MaxAbsDiff is the L∞ distance between a and b.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("testutil: lengths %d and %d differ", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Distance(a, b, math.Inf(1)), nil
}

// RequireSliceNearlyEqual stops the test at the first index where got and
// want differ by more than eps.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i, g := range got {
		if d := math.Abs(g - want[i]); d > eps || math.IsNaN(d) {
			t.Fatalf("[%d] = %v, want %v (|diff| %g > %g)", i, g, want[i], d, eps)
		}
	}
}

// RequireRelNearlyEqual stops the test unless |got-want| ≤ rel·|want|. A
// zero want makes rel absolute.
func RequireRelNearlyEqual(t testing.TB, got, want, rel float64) {
	t.Helper()
	scale := math.Abs(want)
	if scale == 0 {
		scale = 1
	}
	if !(math.Abs(got-want) <= rel*scale) {
		t.Fatalf("got %v, want %v within %g relative", got, want, rel)
	}
}

// RequireFinite stops the test at the first NaN or Inf in xs.
func RequireFinite(t testing.TB, xs []float64) {
	t.Helper()
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("[%d] = %v is not finite", i, x)
		}
	}
}
