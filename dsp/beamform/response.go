package beamform

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-rake/dsp/filter/fir"
	"github.com/cwbudde/algo-rake/dsp/spectrum"
)

// FrequencyResponse evaluates the far-field gain of the filter bank for a
// plane wave arriving from angle (radians, in the x–y plane) at each
// frequency in Hz, with speed of sound c:
//
//	G(f) = Σ_m G_m(f) · e^{−j2πfτ_m},   τ_m = −(p_m·u)/c
//
// where u = (cos θ, sin θ[, 0]) and p_m is microphone m relative to the
// array centre.
func (fb *FilterBank) FrequencyResponse(angle float64, freqs []float64, c float64) ([]complex128, error) {
	if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return nil, fmt.Errorf("%w: speed of sound must be > 0 and finite: %g", ErrInvalidConfig, c)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, fmt.Errorf("%w: angle must be finite", ErrInvalidConfig)
	}

	tau := fb.steeringDelays(angle, c)
	filters := make([]*fir.Filter, fb.Mics())
	for r, t := range fb.taps {
		filters[r] = fir.New(t)
	}

	out := make([]complex128, len(freqs))
	for i, f := range freqs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: frequency %d is not finite", ErrInvalidConfig, i)
		}
		var g complex128
		for r, flt := range filters {
			g += flt.DelayedResponse(f, fb.sampleRate, tau[r])
		}
		out[i] = g
	}
	return out, nil
}

func (fb *FilterBank) steeringDelays(angle, c float64) []float64 {
	dim := fb.array.Dim()
	u := make([]float64, dim)
	u[0], u[1] = math.Cos(angle), math.Sin(angle)

	center := fb.array.Center()
	tau := make([]float64, fb.Mics())
	for r, p := range fb.array.mics {
		proj := 0.0
		for i := range dim {
			proj += (p[i] - center[i]) * u[i]
		}
		tau[r] = -proj / c
	}
	return tau
}

// BeamPattern returns |G(f)| on an angle × frequency grid.
func (fb *FilterBank) BeamPattern(angles, freqs []float64, c float64) ([][]float64, error) {
	out := make([][]float64, len(angles))
	for i, a := range angles {
		resp, err := fb.FrequencyResponse(a, freqs, c)
		if err != nil {
			return nil, err
		}
		out[i] = spectrum.Magnitude(resp)
		if out[i] == nil {
			out[i] = []float64{}
		}
	}
	return out, nil
}

// WeightsFromFilters returns the first nfft/2+1 bins of each filter's
// nfft-point DFT, i.e. the filters as frequency-domain weights on the grid
// k·fs/nfft. nfft must be a power of two of at least Lg.
func (fb *FilterBank) WeightsFromFilters(nfft int) ([][]complex128, error) {
	if nfft < fb.Len() || nfft < 2 || nfft&(nfft-1) != 0 {
		return nil, fmt.Errorf("%w: nfft must be a power of two >= %d: %d", ErrInvalidConfig, fb.Len(), nfft)
	}

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, fmt.Errorf("beamform: FFT plan of size %d: %w", nfft, err)
	}

	buf := make([]complex128, nfft)
	out := make([][]complex128, fb.Mics())
	for r, t := range fb.taps {
		clear(buf)
		for k, v := range t {
			buf[k] = complex(v, 0)
		}
		if err := plan.Forward(buf, buf); err != nil {
			return nil, fmt.Errorf("beamform: forward FFT: %w", err)
		}
		out[r] = append([]complex128(nil), buf[:nfft/2+1]...)
	}
	return out, nil
}
