package spectrum

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-rake/internal/testutil"
)

func TestMagnitudeAndPower(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	testutil.RequireSliceNearlyEqual(t, Magnitude(bins), []float64{5, math.Sqrt2, 0}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, Power(bins), []float64{25, 2, 0}, 1e-12)
}

func TestMagnitudeDB(t *testing.T) {
	db := MagnitudeDB([]complex128{10, 0.1i, 0})
	testutil.RequireSliceNearlyEqual(t, db[:2], []float64{20, -20}, 1e-12)
	if !math.IsInf(db[2], -1) {
		t.Fatalf("db[2] = %v, want -Inf", db[2])
	}
}

func TestPhase(t *testing.T) {
	got := Phase([]complex128{1, 1i, -1, -1i})
	testutil.RequireSliceNearlyEqual(t, got, []float64{0, math.Pi / 2, math.Pi, -math.Pi / 2}, 1e-15)
}

func TestUnwrapPhase(t *testing.T) {
	// A linear phase ramp of −1 rad per bin, wrapped into (−π, π].
	want := make([]float64, 12)
	wrapped := make([]float64, 12)
	for k := range want {
		want[k] = -float64(k)
		wrapped[k] = math.Remainder(want[k], 2*math.Pi)
	}
	testutil.RequireSliceNearlyEqual(t, UnwrapPhase(wrapped), want, 1e-12)

	up := UnwrapPhase([]float64{2.8, -2.7, -2.6})
	testutil.RequireSliceNearlyEqual(t, up, []float64{2.8, 2*math.Pi - 2.7, 2*math.Pi - 2.6}, 1e-12)
}

func TestEmptyInputs(t *testing.T) {
	if Magnitude(nil) != nil || Power(nil) != nil || MagnitudeDB(nil) != nil ||
		Phase(nil) != nil || UnwrapPhase(nil) != nil {
		t.Fatal("expected nil results for empty input")
	}
}

func TestScratchReuseAcrossSizes(t *testing.T) {
	if got := Magnitude(make([]complex128, 64)); len(got) != 64 {
		t.Fatalf("len = %d, want 64", len(got))
	}
	testutil.RequireSliceNearlyEqual(t, Magnitude([]complex128{3 + 4i}), []float64{5}, 1e-12)
}
