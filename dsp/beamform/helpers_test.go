package beamform

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const testNoise = 1e-7

// oneMic is a single microphone at the origin with the source 1 m away.
func oneMic(t testing.TB) (*Designer, []Image, *mat.SymDense) {
	t.Helper()

	arr, err := NewArray(Point{0, 0})
	require.NoError(t, err)

	d, err := NewDesigner(arr, WithFilterLength(8))
	require.NoError(t, err)

	rn, err := WhiteNoise(8, testNoise)
	require.NoError(t, err)

	return d, []Image{{Position: Point{1, 0}}}, rn
}

// twoMic is a 10 cm pair on the x axis, the desired source broadside at
// 2 m and the interferer end-fire at 2 m.
func twoMic(t testing.TB) (*Designer, []Image, []Image, *mat.SymDense) {
	t.Helper()

	arr, err := NewArray(Point{-0.05, 0}, Point{0.05, 0})
	require.NoError(t, err)

	d, err := NewDesigner(arr, WithFilterLength(16))
	require.NoError(t, err)

	rn, err := WhiteNoise(2*16, testNoise)
	require.NoError(t, err)

	return d,
		[]Image{{Position: Point{0, 2}}},
		[]Image{{Position: Point{2, 0}, Source: 1}},
		rn
}

// reverberant is a 4-mic linear array with first-order images of both
// sources, loosely modelled on a 4 m × 6 m room.
func reverberant(t testing.TB) (*Designer, []Image, []Image, *mat.SymDense) {
	t.Helper()

	arr, err := LinearArray(Point{2, 1.5}, 4, 0, 0.08)
	require.NoError(t, err)

	d, err := NewDesigner(arr, WithFilterLength(24))
	require.NoError(t, err)

	rn, err := WhiteNoise(4*24, testNoise)
	require.NoError(t, err)

	desired := []Image{
		{Position: Point{1, 4.5}},
		{Position: Point{-1, 4.5}, Order: 1, Gain: 0.9},
		{Position: Point{1, 7.5}, Order: 1, Gain: 0.9},
	}
	interferer := []Image{
		{Position: Point{2.8, 4.3}, Source: 1},
		{Position: Point{5.2, 4.3}, Source: 1, Order: 1, Gain: 0.9},
	}
	return d, desired, interferer, rn
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
