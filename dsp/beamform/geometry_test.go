package beamform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArrayValidation(t *testing.T) {
	tests := []struct {
		name string
		mics []Point
		want error
	}{
		{name: "empty", mics: nil, want: ErrInvalidConfig},
		{name: "1-D", mics: []Point{{1}}, want: ErrDimensionMismatch},
		{name: "mixed", mics: []Point{{0, 0}, {1, 0, 0}}, want: ErrDimensionMismatch},
		{name: "coincident", mics: []Point{{0, 0}, {1, 1}, {0, 0}}, want: ErrDegenerateGeometry},
		{name: "nan", mics: []Point{{0, math.NaN()}}, want: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArray(tt.mics...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewArrayCopiesPositions(t *testing.T) {
	p := Point{1, 2, 3}
	arr, err := NewArray(p)
	require.NoError(t, err)

	p[0] = 99
	assert.Equal(t, Point{1, 2, 3}, arr.Mic(0))
	assert.Equal(t, 3, arr.Dim())

	got := arr.Positions()
	got[0][1] = 99
	assert.Equal(t, 2.0, arr.Mic(0)[1])
}

func TestLinearArray(t *testing.T) {
	arr, err := LinearArray(Point{2, 1.5}, 4, 0, 0.08)
	require.NoError(t, err)
	require.Equal(t, 4, arr.Len())

	assert.InDelta(t, 2-0.12, arr.Mic(0)[0], 1e-12)
	assert.InDelta(t, 2+0.12, arr.Mic(3)[0], 1e-12)
	for i := range 3 {
		assert.InDelta(t, 0.08, Distance(arr.Mic(i), arr.Mic(i+1)), 1e-12)
	}

	c := arr.Center()
	assert.InDelta(t, 2, c[0], 1e-12)
	assert.InDelta(t, 1.5, c[1], 1e-12)

	_, err = LinearArray(Point{0, 0, 0}, 4, 0, 0.1)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = LinearArray(Point{0, 0}, 0, 0, 0.1)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCircularArray(t *testing.T) {
	arr, err := CircularArray(Point{1, 1}, 6, math.Pi/6, 0.1)
	require.NoError(t, err)

	for i := range arr.Len() {
		assert.InDelta(t, 0.1, Distance(arr.Mic(i), Point{1, 1}), 1e-12)
	}
	assert.InDelta(t, 1+0.1*math.Cos(math.Pi/6), arr.Mic(0)[0], 1e-12)

	c := arr.Center()
	assert.InDelta(t, 1, c[0], 1e-12)
	assert.InDelta(t, 1, c[1], 1e-12)
}

func TestClassAndMethodNames(t *testing.T) {
	assert.Equal(t, "desired", ClassDesired.String())
	assert.Equal(t, "interferer", ClassInterferer.String())
	assert.Equal(t, "Class(7)", Class(7).String())

	for _, m := range []Method{MethodMVDR, MethodMaxSINR, MethodDelayAndSum} {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMethod("lcmv")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
