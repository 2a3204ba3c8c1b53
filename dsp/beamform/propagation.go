package beamform

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rake/dsp/core"
	"github.com/cwbudde/algo-rake/dsp/window"
)

// Propagation holds per (microphone, image) propagation delays in seconds
// and amplitude attenuations. Both matrices are M × K, row-major.
type Propagation struct {
	Delay       [][]float64
	Attenuation [][]float64
}

// ComputeGeometry returns the delay and attenuation from every image to
// every microphone of arr for speed of sound c:
//
//	delay = ‖mic − image‖/c + image.Delay
//	attenuation = image.Gain / (4π‖mic − image‖)
//
// An image exactly on a microphone yields ErrDegenerateGeometry.
func ComputeGeometry(arr Array, images []Image, c float64) (Propagation, error) {
	if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return Propagation{}, fmt.Errorf("%w: speed of sound must be > 0 and finite: %g", ErrInvalidConfig, c)
	}
	if arr.Len() == 0 {
		return Propagation{}, fmt.Errorf("%w: empty array", ErrInvalidConfig)
	}

	for k, img := range images {
		if img.Position.Dim() != arr.Dim() {
			return Propagation{}, fmt.Errorf("%w: image %d has dimension %d, array has %d",
				ErrDimensionMismatch, k, img.Position.Dim(), arr.Dim())
		}
		if !img.Position.finite() {
			return Propagation{}, fmt.Errorf("%w: image %d has non-finite coordinates", ErrInvalidConfig, k)
		}
	}

	m := arr.Len()
	p := Propagation{
		Delay:       core.Matrix(m, len(images)),
		Attenuation: core.Matrix(m, len(images)),
	}

	for r, mic := range arr.mics {
		for k, img := range images {
			dist := Distance(mic, img.Position)
			if dist == 0 {
				return Propagation{}, fmt.Errorf("%w: image %d coincides with microphone %d",
					ErrDegenerateGeometry, k, r)
			}
			p.Delay[r][k] = dist/c + img.Delay
			p.Attenuation[r][k] = img.gain() / (4 * math.Pi * dist)
		}
	}

	return p, nil
}

// Mics returns the number of microphone rows.
func (p Propagation) Mics() int { return len(p.Delay) }

// Images returns the number of image columns.
func (p Propagation) Images() int {
	if len(p.Delay) == 0 {
		return 0
	}
	return len(p.Delay[0])
}

// Empty reports whether p holds no image.
func (p Propagation) Empty() bool { return p.Images() == 0 }

// DelayRange returns the earliest and latest arrival over all microphones
// and images. ok is false when p is empty.
func (p Propagation) DelayRange() (earliest, latest float64, ok bool) {
	earliest, latest = math.Inf(1), math.Inf(-1)
	for _, row := range p.Delay {
		for _, t := range row {
			earliest = math.Min(earliest, t)
			latest = math.Max(latest, t)
			ok = true
		}
	}
	return earliest, latest, ok
}

// MaxAttenuation returns the largest attenuation in p, or 0 when empty.
func (p Propagation) MaxAttenuation() float64 {
	peak := 0.0
	for _, row := range p.Attenuation {
		for _, a := range row {
			peak = math.Max(peak, a)
		}
	}
	return peak
}

// Kernel is the band-limited impulse used to place one image into a
// channel response: a sinc tapered by a window of the given half-width in
// samples. A non-positive half-width leaves the sinc untapered.
type Kernel struct {
	Taper     window.Type
	HalfWidth float64
}

// DefaultKernel is a Hann-tapered sinc spanning 32 samples on either side.
func DefaultKernel() Kernel {
	return Kernel{Taper: window.TypeHann, HalfWidth: 32}
}

// SincKernel is the plain, untapered sinc.
func SincKernel() Kernel {
	return Kernel{Taper: window.TypeRectangular}
}

// At evaluates the kernel at offset d samples from its centre.
func (k Kernel) At(d float64) float64 {
	w := window.Centered(k.Taper, d, k.HalfWidth)
	if w == 0 {
		return 0
	}
	return w * window.Sinc(d)
}

// support returns the index range [lo, hi) of samples in [0, length) that
// the kernel centred at c can reach.
func (k Kernel) support(c float64, length int) (lo, hi int) {
	if k.HalfWidth <= 0 {
		return 0, length
	}
	lo = max(int(math.Floor(c-k.HalfWidth)), 0)
	hi = min(int(math.Ceil(c+k.HalfWidth))+1, length)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func (k Kernel) validate() error {
	if math.IsNaN(k.HalfWidth) || math.IsInf(k.HalfWidth, 0) {
		return fmt.Errorf("%w: kernel half-width must be finite", ErrInvalidConfig)
	}
	return nil
}

// LowPassDirac returns a band-limited unit impulse delayed by delay seconds
// and scaled by attenuation, sampled at fs over length samples:
//
//	out[n] = attenuation · sinc(n − fs·delay) · taper(n − fs·delay)
//
// Fractional delays are supported. Parts falling outside [0, length) are
// dropped.
func LowPassDirac(delay, attenuation, fs float64, length int, kernel Kernel) []float64 {
	if length <= 0 {
		return nil
	}
	out := make([]float64, length)
	addDirac(out, delay, attenuation, fs, kernel)
	return out
}

func addDirac(dst []float64, delay, attenuation, fs float64, kernel Kernel) {
	c := fs * delay
	lo, hi := kernel.support(c, len(dst))
	for n := lo; n < hi; n++ {
		dst[n] += attenuation * kernel.At(float64(n)-c)
	}
}

// SynthesizeImpulseResponse sums one band-limited impulse per image into a
// zero-initialised response of the given length. delays and attenuations
// describe the images of one class at one microphone.
func SynthesizeImpulseResponse(delays, attenuations []float64, fs float64, length int, kernel Kernel) ([]float64, error) {
	if len(delays) != len(attenuations) {
		return nil, fmt.Errorf("%w: %d delays for %d attenuations", ErrDimensionMismatch, len(delays), len(attenuations))
	}
	if fs <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %g", ErrInvalidConfig, fs)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: response length must be > 0: %d", ErrInvalidConfig, length)
	}

	out := make([]float64, length)
	for i, t := range delays {
		addDirac(out, t, attenuations[i], fs, kernel)
	}
	return out, nil
}
