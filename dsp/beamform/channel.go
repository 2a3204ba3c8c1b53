package beamform

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Alignment is the common time frame of both source classes. Responses are
// sampled on [TMin, TMin + Lh/fs).
type Alignment struct {
	TMin  float64 // seconds, earliest arrival minus guard
	TMax  float64 // seconds, latest arrival plus guard
	Guard float64 // seconds
	Lh    int     // channel response length in samples
}

// GuardOffset returns the guard interval that keeps the tails of a sinc
// kick of peak attenuation maxAttenuation above eps inside the window:
// maxAttenuation / (π · fs · eps).
func GuardOffset(maxAttenuation, fs, eps float64) float64 {
	return maxAttenuation / (math.Pi * fs * eps)
}

// Align computes the alignment for the given classes with the attenuation
// based guard, see [GuardOffset].
func Align(desired, interferer Propagation, fs, eps float64) (Alignment, error) {
	if eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return Alignment{}, fmt.Errorf("%w: epsilon must be > 0 and finite: %g", ErrInvalidConfig, eps)
	}
	if fs <= 0 {
		return Alignment{}, fmt.Errorf("%w: sample rate must be > 0: %g", ErrInvalidConfig, fs)
	}
	peak := math.Max(desired.MaxAttenuation(), interferer.MaxAttenuation())
	return AlignGuard(desired, interferer, fs, GuardOffset(peak, fs, eps))
}

// AlignGuard computes the alignment for an explicit guard in seconds.
// Classes without images are skipped; at least one image is required.
func AlignGuard(desired, interferer Propagation, fs, guard float64) (Alignment, error) {
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return Alignment{}, fmt.Errorf("%w: sample rate must be > 0 and finite: %g", ErrInvalidConfig, fs)
	}
	if guard < 0 || math.IsNaN(guard) || math.IsInf(guard, 0) {
		return Alignment{}, fmt.Errorf("%w: guard must be >= 0 and finite: %g", ErrInvalidConfig, guard)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for _, p := range []Propagation{desired, interferer} {
		e, l, ok := p.DelayRange()
		if !ok {
			continue
		}
		lo, hi = math.Min(lo, e), math.Max(hi, l)
		found = true
	}
	if !found {
		return Alignment{}, ErrNoDesiredImages
	}

	a := Alignment{
		TMin:  lo - guard,
		TMax:  hi + guard,
		Guard: guard,
	}
	a.Lh = max(int(math.Round((a.TMax-a.TMin)*fs)), 1)
	return a, nil
}

// ChannelResponses synthesises the per-microphone responses of one class on
// the aligned time frame. A class without images yields all-zero responses.
func ChannelResponses(p Propagation, align Alignment, fs float64, kernel Kernel) ([][]float64, error) {
	if align.Lh < 1 {
		return nil, fmt.Errorf("%w: response length must be >= 1: %d", ErrInvalidConfig, align.Lh)
	}

	out := make([][]float64, p.Mics())
	for r := range out {
		if len(p.Delay[r]) != len(p.Attenuation[r]) {
			return nil, fmt.Errorf("%w: microphone %d has %d delays and %d attenuations",
				ErrDimensionMismatch, r, len(p.Delay[r]), len(p.Attenuation[r]))
		}

		shifted := make([]float64, len(p.Delay[r]))
		for k, t := range p.Delay[r] {
			shifted[k] = t - align.TMin
		}

		resp, err := SynthesizeImpulseResponse(shifted, p.Attenuation[r], fs, align.Lh, kernel)
		if err != nil {
			return nil, fmt.Errorf("microphone %d: %w", r, err)
		}
		out[r] = resp
	}
	return out, nil
}

// Channel is the steering matrix of a design together with its constraint.
//
// H has M·Lg rows and 2·L columns, L = Lg + Lh − 1. Rows r·Lg … r·Lg+Lg−1
// belong to microphone r. Columns [0, L) hold the desired class, [L, 2L)
// the interferers. Each per-microphone block is the convolution operator
// B[k][n] = resp[n−k], so that Hᵗg is the class output of the filter set g.
type Channel struct {
	H      *mat.Dense
	Target *mat.VecDense // h, column Lh−1 of H

	M, Lg, Lh int

	Alignment Alignment

	// ZeroColumns lists columns of H without any non-zero entry. They are
	// harmless for the solve and reported for diagnostics only.
	ZeroColumns []int
}

// L returns the length of the convolution output, Lg + Lh − 1.
func (c *Channel) L() int { return c.Lg + c.Lh - 1 }

// Desired returns the desired-class half of H as a view.
func (c *Channel) Desired() mat.Matrix {
	rows, _ := c.H.Dims()
	return c.H.Slice(0, rows, 0, c.L())
}

// Interferer returns the interferer-class half of H as a view.
func (c *Channel) Interferer() mat.Matrix {
	rows, cols := c.H.Dims()
	return c.H.Slice(0, rows, c.L(), cols)
}

// BuildSteeringMatrix lays the per-microphone responses out as convolution
// operators for filters of lg taps. All responses must share one length Lh.
// interferer may be nil, in which case its half of H is zero.
func BuildSteeringMatrix(desired, interferer [][]float64, lg int) (*Channel, error) {
	if lg < 1 {
		return nil, fmt.Errorf("%w: filter length must be >= 1: %d", ErrInvalidConfig, lg)
	}
	m := len(desired)
	if m == 0 {
		return nil, ErrNoDesiredImages
	}
	if len(interferer) != 0 && len(interferer) != m {
		return nil, fmt.Errorf("%w: %d desired and %d interferer responses", ErrDimensionMismatch, m, len(interferer))
	}

	lh := len(desired[0])
	if lh == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrDimensionMismatch)
	}
	for r := range m {
		if len(desired[r]) != lh {
			return nil, fmt.Errorf("%w: desired response %d has %d samples, want %d",
				ErrDimensionMismatch, r, len(desired[r]), lh)
		}
		if len(interferer) != 0 && len(interferer[r]) != lh {
			return nil, fmt.Errorf("%w: interferer response %d has %d samples, want %d",
				ErrDimensionMismatch, r, len(interferer[r]), lh)
		}
	}

	l := lg + lh - 1
	h := mat.NewDense(m*lg, 2*l, nil)

	// Microphones own disjoint row ranges of h.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for r := range m {
		g.Go(func() error {
			fillBlock(h, r*lg, 0, lg, desired[r])
			if len(interferer) != 0 {
				fillBlock(h, r*lg, l, lg, interferer[r])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Channel{
		H:           h,
		Target:      mat.VecDenseCopyOf(h.ColView(lh - 1)),
		M:           m,
		Lg:          lg,
		Lh:          lh,
		ZeroColumns: zeroColumns(h),
	}, nil
}

func fillBlock(h *mat.Dense, row0, col0, lg int, resp []float64) {
	for k := range lg {
		for j, v := range resp {
			if v != 0 {
				h.Set(row0+k, col0+k+j, v)
			}
		}
	}
}

func zeroColumns(h *mat.Dense) []int {
	rows, cols := h.Dims()
	var out []int
	for c := range cols {
		zero := true
		for r := range rows {
			if h.At(r, c) != 0 {
				zero = false
				break
			}
		}
		if zero {
			out = append(out, c)
		}
	}
	return out
}
