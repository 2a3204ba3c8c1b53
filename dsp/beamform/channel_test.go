package beamform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rake/dsp/conv"
	"github.com/cwbudde/algo-rake/internal/testutil"
)

func TestAlignSingleSource(t *testing.T) {
	const fs = 8000.0

	arr, err := NewArray(Point{0, 0})
	require.NoError(t, err)
	p, err := ComputeGeometry(arr, []Image{{Position: Point{1, 0}}}, 343)
	require.NoError(t, err)

	a, err := Align(p, Propagation{}, fs, 1e-2)
	require.NoError(t, err)

	wantGuard := 1 / (4 * math.Pi) / (math.Pi * fs * 1e-2)
	assert.InDelta(t, wantGuard, a.Guard, 1e-15)
	assert.InDelta(t, 1.0/343-wantGuard, a.TMin, 1e-15)
	assert.InDelta(t, 1.0/343+wantGuard, a.TMax, 1e-15)
	// 2 · 2.533 samples of guard.
	assert.Equal(t, 5, a.Lh)
}

func TestAlignSpansBothClasses(t *testing.T) {
	arr, err := NewArray(Point{0, 0}, Point{0.1, 0})
	require.NoError(t, err)

	dp, err := ComputeGeometry(arr, []Image{{Position: Point{0, 3}}}, 343)
	require.NoError(t, err)
	ip, err := ComputeGeometry(arr, []Image{{Position: Point{0, 1}}}, 343)
	require.NoError(t, err)

	a, err := AlignGuard(dp, ip, 8000, 0)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/343, a.TMin, 1e-15)
	assert.InDelta(t, math.Hypot(0.1, 3)/343, a.TMax, 1e-15)
	assert.Equal(t, int(math.Round((a.TMax-a.TMin)*8000)), a.Lh)
}

func TestAlignErrors(t *testing.T) {
	_, err := AlignGuard(Propagation{}, Propagation{}, 8000, 0)
	require.ErrorIs(t, err, ErrNoDesiredImages)

	_, err = Align(Propagation{}, Propagation{}, 8000, 0)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = AlignGuard(Propagation{}, Propagation{}, 8000, -1)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAlignMinimumLength(t *testing.T) {
	arr, err := NewArray(Point{0, 0})
	require.NoError(t, err)
	p, err := ComputeGeometry(arr, []Image{{Position: Point{1, 0}}}, 343)
	require.NoError(t, err)

	a, err := AlignGuard(p, Propagation{}, 8000, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Lh)
}

func TestBuildSteeringMatrixLayout(t *testing.T) {
	desired := [][]float64{{1, 2, 3}, {4, 5, 6}}
	interferer := [][]float64{{-1, 0, 0}, {0, 0, -2}}
	const lg = 4

	ch, err := BuildSteeringMatrix(desired, interferer, lg)
	require.NoError(t, err)

	l := lg + 3 - 1
	rows, cols := ch.H.Dims()
	require.Equal(t, 2*lg, rows)
	require.Equal(t, 2*l, cols)
	require.Equal(t, l, ch.L())

	for r := range 2 {
		for k := range lg {
			for n := range l {
				want := 0.0
				if j := n - k; j >= 0 && j < 3 {
					want = desired[r][j]
				}
				assert.Equal(t, want, ch.H.At(r*lg+k, n), "desired mic %d row %d col %d", r, k, n)

				want = 0
				if j := n - k; j >= 0 && j < 3 {
					want = interferer[r][j]
				}
				assert.Equal(t, want, ch.H.At(r*lg+k, l+n), "interferer mic %d row %d col %d", r, k, n)
			}
		}
	}

	// h[r·Lg+k] = resp_r[Lh−1−k].
	wantH := []float64{3, 2, 1, 0, 6, 5, 4, 0}
	assert.Equal(t, wantH, ch.Target.RawVector().Data)
}

func TestBuildSteeringMatrixIsConvolution(t *testing.T) {
	desired := testutil.MultichannelNoise(11, 3, 1, 9)
	const lg = 7

	ch, err := BuildSteeringMatrix(desired, nil, lg)
	require.NoError(t, err)

	taps := testutil.MultichannelNoise(21, 3, 1, lg)
	got, err := ClassOutput(ch, ClassDesired, taps)
	require.NoError(t, err)

	want := make([]float64, lg+9-1)
	for r := range taps {
		conv.DirectAccumulate(want, taps[r], desired[r])
	}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)

	// hᵗg picks sample Lh−1 of the desired output.
	assert.InDelta(t, want[9-1], dot(ch.Target.RawVector().Data, flatten(taps).RawVector().Data), 1e-12)
}

func TestBuildSteeringMatrixNoInterferer(t *testing.T) {
	ch, err := BuildSteeringMatrix([][]float64{{1, 0.5}}, nil, 3)
	require.NoError(t, err)

	rows, cols := ch.H.Dims()
	for r := range rows {
		for c := ch.L(); c < cols; c++ {
			require.Zero(t, ch.H.At(r, c))
		}
	}
	assert.Len(t, ch.ZeroColumns, ch.L())
	assert.Equal(t, ch.L(), ch.ZeroColumns[0])
}

func TestBuildSteeringMatrixErrors(t *testing.T) {
	_, err := BuildSteeringMatrix(nil, nil, 4)
	require.ErrorIs(t, err, ErrNoDesiredImages)

	_, err = BuildSteeringMatrix([][]float64{{1, 2}, {1}}, nil, 4)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = BuildSteeringMatrix([][]float64{{1, 2}}, [][]float64{{1, 2}, {3, 4}}, 4)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = BuildSteeringMatrix([][]float64{{1, 2}}, nil, 0)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestChannelResponsesPeakAtGuard(t *testing.T) {
	const fs = 8000.0
	arr, err := NewArray(Point{0, 0}, Point{0, 0.5})
	require.NoError(t, err)

	p, err := ComputeGeometry(arr, []Image{{Position: Point{2, 0}}}, 343)
	require.NoError(t, err)
	a, err := Align(p, Propagation{}, fs, 1e-2)
	require.NoError(t, err)

	resp, err := ChannelResponses(p, a, fs, SincKernel())
	require.NoError(t, err)
	require.Len(t, resp, 2)

	for r := range resp {
		require.Len(t, resp[r], a.Lh)
		shift := (p.Delay[r][0] - a.TMin) * fs
		n := int(math.Round(shift))
		assert.InDelta(t, p.Attenuation[r][0]*SincKernel().At(float64(n)-shift), resp[r][n], 1e-12)
	}

	empty, err := ChannelResponses(Propagation{Delay: [][]float64{{}, {}}, Attenuation: [][]float64{{}, {}}}, a, fs, SincKernel())
	require.NoError(t, err)
	for _, r := range empty {
		for _, v := range r {
			require.Zero(t, v)
		}
	}
}

func TestGuardOffset(t *testing.T) {
	// A kick of amplitude a decays as a/(π·n); it falls below eps after
	// a/(π·eps) samples.
	g := GuardOffset(0.1, 8000, 1e-3)
	assert.InDelta(t, 0.1/(math.Pi*1e-3)/8000, g, 1e-15)
	assert.InDelta(t, 2*g, GuardOffset(0.2, 8000, 1e-3), 1e-15)
}
