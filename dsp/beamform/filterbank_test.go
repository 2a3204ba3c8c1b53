package beamform

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rake/dsp/conv"
	"github.com/cwbudde/algo-rake/internal/testutil"
)

func pairBank(t *testing.T, lg int) *FilterBank {
	t.Helper()
	arr, err := NewArray(Point{-0.05, 0}, Point{0.05, 0})
	require.NoError(t, err)
	fb, err := NewFilterBank(arr, 8000, testutil.MultichannelNoise(5, 2, 0.5, lg))
	require.NoError(t, err)
	return fb
}

func TestNewFilterBankValidation(t *testing.T) {
	arr, err := NewArray(Point{0, 0}, Point{1, 0})
	require.NoError(t, err)

	_, err = NewFilterBank(arr, 8000, [][]float64{{1}})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = NewFilterBank(arr, 8000, [][]float64{{1, 2}, {1}})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = NewFilterBank(arr, 8000, [][]float64{{}, {}})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = NewFilterBank(arr, 0, [][]float64{{1}, {1}})
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewFilterBank(arr, 8000, [][]float64{{1}, {math.NaN()}})
	require.ErrorIs(t, err, ErrInvalidConfig)

	taps := [][]float64{{1, 2}, {3, 4}}
	fb, err := NewFilterBank(arr, 8000, taps)
	require.NoError(t, err)
	taps[0][0] = 99
	got := fb.Taps()
	assert.Equal(t, 1.0, got[0][0])
	got[1][1] = 99
	assert.Equal(t, 4.0, fb.Taps()[1][1])
	assert.True(t, math.IsNaN(fb.Condition()))
	assert.True(t, math.IsNaN(fb.SINRdB()))
	assert.Equal(t, 8000.0, fb.SampleRate())
	assert.Equal(t, 2, fb.Array().Len())
}

func TestApplyModes(t *testing.T) {
	arr, err := NewArray(Point{0, 0}, Point{1, 0})
	require.NoError(t, err)
	fb, err := NewFilterBank(arr, 8000, [][]float64{{1, 1}, {0, -1}})
	require.NoError(t, err)

	x := [][]float64{{1, 2, 3}, {1, 0, 0}}

	// mic 0: [1 3 5 3], mic 1: [0 -1 0 0].
	tests := []struct {
		mode conv.Mode
		want []float64
	}{
		{conv.ModeFull, []float64{1, 2, 5, 3}},
		{conv.ModeCausal, []float64{1, 2, 5}},
		{conv.ModeSame, []float64{1, 2, 5}},
		{conv.ModeValid, []float64{2, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, err := fb.Apply(x, tt.mode)
			require.NoError(t, err)
			testutil.RequireSliceNearlyEqual(t, got, tt.want, 1e-12)
		})
	}

	_, err = fb.Apply(x, conv.Mode(9))
	require.ErrorIs(t, err, conv.ErrInvalidMode)
}

func TestApplyValidation(t *testing.T) {
	fb := pairBank(t, 4)

	_, err := fb.Apply([][]float64{{1}}, conv.ModeFull)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = fb.Apply([][]float64{{}, {}}, conv.ModeFull)
	require.ErrorIs(t, err, ErrEmptySignal)
	_, err = fb.Apply([][]float64{{1, 2}, {1}}, conv.ModeFull)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestApplyLongFiltersMatchesDirect(t *testing.T) {
	fb := pairBank(t, 200)
	x := testutil.MultichannelNoise(40, 2, 1, 1500)

	got, err := fb.Apply(x, conv.ModeFull)
	require.NoError(t, err)

	want := make([]float64, 1500+200-1)
	for r, taps := range fb.Taps() {
		conv.DirectAccumulate(want, x[r], taps)
	}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
}

func TestProcessorMatchesCausalApply(t *testing.T) {
	fb := pairBank(t, 80)
	x := testutil.MultichannelNoise(7, 2, 1, 700)

	want, err := fb.Apply(x, conv.ModeCausal)
	require.NoError(t, err)

	p := fb.NewProcessor()
	require.Equal(t, 2, p.Channels())

	got := make([]float64, 0, 700)
	// One sample, then uneven blocks.
	y, err := p.ProcessSample([]float64{x[0][0], x[1][0]})
	require.NoError(t, err)
	got = append(got, y)
	for start := 1; start < 700; start += 97 {
		end := min(start+97, 700)
		block := make([]float64, end-start)
		require.NoError(t, p.ProcessBlock(block, [][]float64{x[0][start:end], x[1][start:end]}))
		got = append(got, block...)
	}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)

	p.Reset()
	first, err := p.ProcessSample([]float64{x[0][0], x[1][0]})
	require.NoError(t, err)
	assert.InDelta(t, want[0], first, 1e-12)

	_, err = p.ProcessSample([]float64{1})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	require.ErrorIs(t, p.ProcessBlock(make([]float64, 2), [][]float64{{1, 2}, {1}}), ErrDimensionMismatch)
}

func TestFrequencyResponseSingleMicIgnoresAngle(t *testing.T) {
	d, desired, rn := oneMic(t)
	fb, err := d.Design(desired, nil, rn)
	require.NoError(t, err)

	freqs := []float64{0, 500, 1000, 3999}
	a, err := fb.FrequencyResponse(0, freqs, 343)
	require.NoError(t, err)
	b, err := fb.FrequencyResponse(math.Pi/3, freqs, 343)
	require.NoError(t, err)

	sum := 0.0
	for _, v := range fb.Taps()[0] {
		sum += v
	}
	assert.InDelta(t, sum, real(a[0]), 1e-12)
	for i := range freqs {
		assert.InDelta(t, 0, cmplx.Abs(a[i]-b[i]), 1e-12)
	}
}

func TestFrequencyResponseFiniteAndDeterministic(t *testing.T) {
	d, desired, interferer, rn := reverberant(t)
	fb, err := d.Design(desired, interferer, rn)
	require.NoError(t, err)

	freqs := []float64{100, 800, 1600, 3200}
	a, err := fb.FrequencyResponse(1.1, freqs, 343)
	require.NoError(t, err)
	b, err := fb.FrequencyResponse(1.1, freqs, 343)
	require.NoError(t, err)
	require.Equal(t, a, b)
	for _, v := range a {
		require.False(t, cmplx.IsNaN(v) || cmplx.IsInf(v))
	}

	angles := []float64{0, math.Pi / 2, math.Pi}
	pattern, err := fb.BeamPattern(angles, freqs, 343)
	require.NoError(t, err)
	require.Len(t, pattern, len(angles))
	for i, row := range pattern {
		require.Len(t, row, len(freqs))
		testutil.RequireFinite(t, row)
		resp, err := fb.FrequencyResponse(angles[i], freqs, 343)
		require.NoError(t, err)
		for j := range freqs {
			assert.InDelta(t, cmplx.Abs(resp[j]), row[j], 1e-12)
		}
	}

	_, err = fb.FrequencyResponse(0, freqs, 0)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = fb.FrequencyResponse(math.NaN(), freqs, 343)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = fb.FrequencyResponse(0, []float64{math.Inf(1)}, 343)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFrequencyResponseSteersPair(t *testing.T) {
	// Two single-tap filters: the pair sums in phase at broadside and
	// cancels end-fire where the path difference is half a wavelength.
	arr, err := NewArray(Point{-0.05, 0}, Point{0.05, 0})
	require.NoError(t, err)
	fb, err := NewFilterBank(arr, 8000, [][]float64{{0.5}, {0.5}})
	require.NoError(t, err)

	f := 343 / 0.2
	broad, err := fb.FrequencyResponse(math.Pi/2, []float64{f}, 343)
	require.NoError(t, err)
	end, err := fb.FrequencyResponse(0, []float64{f}, 343)
	require.NoError(t, err)

	assert.InDelta(t, 1, cmplx.Abs(broad[0]), 1e-12)
	assert.InDelta(t, 0, cmplx.Abs(end[0]), 1e-12)
}

func TestWeightsFromFilters(t *testing.T) {
	fb := pairBank(t, 12)

	w, err := fb.WeightsFromFilters(32)
	require.NoError(t, err)
	require.Len(t, w, 2)

	for r, taps := range fb.Taps() {
		require.Len(t, w[r], 17)
		for k, got := range w[r] {
			var want complex128
			for n, v := range taps {
				want += complex(v, 0) * cmplx.Exp(complex(0, -2*math.Pi*float64(k*n)/32))
			}
			assert.InDelta(t, 0, cmplx.Abs(got-want), 1e-9, "mic %d bin %d", r, k)
		}
	}

	_, err = fb.WeightsFromFilters(8)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = fb.WeightsFromFilters(48)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
