package fir

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Filter is a streaming FIR filter. It is not safe for concurrent use.
type Filter struct {
	taps []float64
	// line holds the last len(taps) inputs twice, newest first from pos.
	line []float64
	pos  int
}

// New returns a filter with a copy of taps and a cleared delay line.
func New(taps []float64) *Filter {
	return &Filter{
		taps: append([]float64(nil), taps...),
		line: make([]float64, 2*len(taps)),
	}
}

// ProcessSample pushes x and returns y[n] = Σ h[k]·x[n−k].
func (f *Filter) ProcessSample(x float64) float64 {
	n := len(f.taps)
	if n == 0 {
		return 0
	}

	f.pos--
	if f.pos < 0 {
		f.pos = n - 1
	}
	f.line[f.pos] = x
	f.line[f.pos+n] = x

	return floats.Dot(f.taps, f.line[f.pos:f.pos+n])
}

// ProcessBlockAdd filters src and adds the result to dst, which must be at
// least as long as src.
func (f *Filter) ProcessBlockAdd(dst, src []float64) {
	dst = dst[:len(src)]
	for i, x := range src {
		dst[i] += f.ProcessSample(x)
	}
}

// Reset clears the delay line.
func (f *Filter) Reset() {
	clear(f.line)
	f.pos = 0
}

// Len returns the number of taps.
func (f *Filter) Len() int { return len(f.taps) }

// ResponseAt evaluates Σ h[k]·e^{−jωk} at ω radians per sample.
func (f *Filter) ResponseAt(w float64) complex128 {
	var h complex128
	for k, c := range f.taps {
		if c != 0 {
			h += complex(c, 0) * cmplx.Rect(1, -w*float64(k))
		}
	}
	return h
}

// Response evaluates the frequency response at freqHz for sampleRate.
func (f *Filter) Response(freqHz, sampleRate float64) complex128 {
	return f.ResponseAt(2 * math.Pi * freqHz / sampleRate)
}

// DelayedResponse is Response times e^{−j2πf·delaySec}, the filter followed
// by a pure delay. Negative delays are advances.
func (f *Filter) DelayedResponse(freqHz, sampleRate, delaySec float64) complex128 {
	return f.Response(freqHz, sampleRate) * cmplx.Rect(1, -2*math.Pi*freqHz*delaySec)
}
