package spectrum

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rake/dsp/core"
)

// parts is pooled scratch for splitting bins into real and imaginary rows.
type parts struct{ re, im []float64 }

var partsPool = sync.Pool{New: func() any { return new(parts) }}

// eval splits in and runs kernel over the parts into a fresh slice.
func eval(in []complex128, kernel func(dst, re, im []float64)) []float64 {
	if len(in) == 0 {
		return nil
	}

	p := partsPool.Get().(*parts)
	defer partsPool.Put(p)
	p.re = core.EnsureLen(p.re, len(in))
	p.im = core.EnsureLen(p.im, len(in))
	for k, c := range in {
		p.re[k], p.im[k] = real(c), imag(c)
	}

	out := make([]float64, len(in))
	kernel(out, p.re, p.im)
	return out
}

// Magnitude returns |X[k]|.
func Magnitude(in []complex128) []float64 {
	return eval(in, vecmath.Magnitude)
}

// Power returns |X[k]|².
func Power(in []complex128) []float64 {
	return eval(in, vecmath.Power)
}

// MagnitudeDB returns 20·log10|X[k]|, with -Inf for empty bins.
func MagnitudeDB(in []complex128) []float64 {
	out := Power(in)
	for k, p := range out {
		out[k] = core.LinearPowerToDB(p)
	}
	return out
}

// Phase returns arg X[k] in (−π, π].
func Phase(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for k, c := range in {
		out[k] = cmplx.Phase(c)
	}
	return out
}

// UnwrapPhase removes the 2π jumps between neighbouring bins of a wrapped
// phase sequence. The input is not modified.
func UnwrapPhase(phase []float64) []float64 {
	if len(phase) == 0 {
		return nil
	}
	out := make([]float64, len(phase))
	out[0] = phase[0]
	var turns float64
	for k := 1; k < len(phase); k++ {
		turns -= math.Round((phase[k] - phase[k-1]) / (2 * math.Pi))
		out[k] = phase[k] + 2*math.Pi*turns
	}
	return out
}
