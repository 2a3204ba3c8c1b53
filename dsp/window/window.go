// Package window provides taper functions for windowed-sinc kernels and
// block windowing.
//
// A window can be generated on a sample grid with [Generate] or evaluated at
// a continuous position with [At], which is what fractional-delay kernels
// need: their centre rarely falls on a sample.
package window

import (
	"fmt"
	"math"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeKaiser
	TypeTukey
	TypeLanczos
)

// shape evaluates a window at x in [0,1] with the parameter alpha.
type shape func(x, alpha float64) float64

var types = [...]struct {
	name string
	eval shape
}{
	TypeRectangular: {"rectangular", func(float64, float64) float64 { return 1 }},
	TypeHann:        {"hann", func(x, _ float64) float64 { return cosineSum(x, 0.5, 0.5) }},
	TypeHamming:     {"hamming", func(x, _ float64) float64 { return cosineSum(x, 0.54, 0.46) }},
	TypeBlackman:    {"blackman", func(x, _ float64) float64 { return cosineSum(x, 0.42, 0.5, 0.08) }},
	TypeKaiser:      {"kaiser", kaiser},
	TypeTukey:       {"tukey", tukey},
	TypeLanczos:     {"lanczos", func(x, a float64) float64 { return Sinc((2*x - 1) * a) }},
}

func (t Type) valid() bool { return t >= 0 && int(t) < len(types) }

// String returns the lower-case window name.
func (t Type) String() string {
	if !t.valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return types[t].name
}

// Parse maps a name as returned by [Type.String] to its Type.
func Parse(name string) (Type, error) {
	for t := range types {
		if types[t].name == name {
			return Type(t), nil
		}
	}
	return TypeRectangular, fmt.Errorf("window: unknown type %q", name)
}

// Option configures window evaluation.
type Option func(*config)

type config struct {
	alpha    float64
	periodic bool
}

// WithAlpha sets the shape parameter of the parametric windows: Kaiser β,
// the Tukey taper ratio and the Lanczos stretch. Negative values are
// ignored. The default is 1.
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.alpha = v
		}
	}
}

// WithPeriodic makes [Generate] return the periodic form used for FFT
// framing instead of the symmetric one.
func WithPeriodic() Option {
	return func(c *config) { c.periodic = true }
}

func newConfig(opts []Option) config {
	c := config{alpha: 1}
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

func (c config) eval(t Type, x float64) float64 {
	if !t.valid() {
		return 1
	}
	return types[t].eval(x, c.alpha)
}

// Generate returns length window coefficients, or nil for length ≤ 0.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}
	c := newConfig(opts)
	if length == 1 {
		return []float64{c.eval(t, 0.5)}
	}

	span := float64(length - 1)
	if c.periodic {
		span = float64(length)
	}
	out := make([]float64, length)
	for n := range out {
		out[n] = c.eval(t, float64(n)/span)
	}
	return out
}

// At evaluates the window at normalised position x, where 0 and 1 are the
// window edges and 0.5 is its centre. Positions outside [0,1] return 0.
func At(t Type, x float64, opts ...Option) float64 {
	if !(x >= 0 && x <= 1) {
		return 0
	}
	return newConfig(opts).eval(t, x)
}

// Centered evaluates a window of half-width halfWidth (in samples) centred
// on zero at offset d. It returns 0 for |d| > halfWidth. A non-positive
// halfWidth yields an unbounded rectangular window.
func Centered(t Type, d, halfWidth float64, opts ...Option) float64 {
	if halfWidth <= 0 {
		return 1
	}
	return At(t, 0.5+0.5*d/halfWidth, opts...)
}

// Sinc returns the normalised sinc sin(πx)/(πx), with Sinc(0) = 1.
func Sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// cosineSum is a0 - a1·cos(2πx) + a2·cos(4πx) - ...
func cosineSum(x float64, a ...float64) float64 {
	var sum float64
	sign := 1.0
	for k, ak := range a {
		sum += sign * ak * math.Cos(2*math.Pi*float64(k)*x)
		sign = -sign
	}
	return sum
}

func kaiser(x, beta float64) float64 {
	if beta <= 0 {
		return 1
	}
	r := 2*x - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-r*r))) / besselI0(beta)
}

func tukey(x, alpha float64) float64 {
	switch {
	case alpha <= 0:
		return 1
	case alpha >= 1:
		return cosineSum(x, 0.5, 0.5)
	}
	// Mirror the falling edge onto the rising one.
	if x > 0.5 {
		x = 1 - x
	}
	if x >= alpha/2 {
		return 1
	}
	return 0.5 * (1 - math.Cos(2*math.Pi*x/alpha))
}

// besselI0 sums the power series of the modified Bessel function I0, which
// converges for every argument a Kaiser window uses.
func besselI0(x float64) float64 {
	q := x * x / 4
	sum, term := 1.0, 1.0
	for k := 1.0; term > sum*1e-17; k++ {
		term *= q / (k * k)
		sum += term
	}
	return sum
}
