package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

const (
	defaultTapsPerPhase = 32
	defaultCutoffScale  = 0.92
	defaultKaiserBeta   = 7.5
	defaultMaxDen       = 4096
)

type config struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
	maxDen       int
}

// Option configures the resampler. Out-of-range values are ignored.
type Option func(*config)

// WithTapsPerPhase sets the approximate number of taps per polyphase branch.
func WithTapsPerPhase(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.tapsPerPhase = n
		}
	}
}

// WithCutoffScale scales the anti-aliasing cutoff, in (0, 1]. 1 is the
// Nyquist frequency of the lower rate.
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithKaiserBeta sets the Kaiser window beta.
func WithKaiserBeta(beta float64) Option {
	return func(cfg *config) {
		if beta >= 0 {
			cfg.kaiserBeta = beta
		}
	}
}

// WithMaxDenominator caps the denominator of the rate ratio approximation.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDen = n
		}
	}
}

func applyOptions(opts []Option) config {
	cfg := config{
		tapsPerPhase: defaultTapsPerPhase,
		cutoffScale:  defaultCutoffScale,
		kaiserBeta:   defaultKaiserBeta,
		maxDen:       defaultMaxDen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Resampler performs streaming rational sample-rate conversion. It is not
// safe for concurrent use.
type Resampler struct {
	up, down int

	taps   []float64
	phases [][]float64
	center int // prototype centre, a multiple of down
	span   int // longest polyphase branch

	phase      int
	inputIndex int
	totalIn    int
	history    []float64
}

// NewRational returns a resampler for the ratio up/down.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidRatio, up, down)
	}

	g := gcd(up, down)
	up /= g
	down /= g

	taps, center := prototype(up, down, applyOptions(opts))
	phases, span := polyphase(taps, up)

	return &Resampler{
		up:      up,
		down:    down,
		taps:    taps,
		phases:  phases,
		center:  center,
		span:    span,
		history: make([]float64, 0, span),
	}, nil
}

// NewForRates returns a resampler from inRate to outRate, approximating
// their ratio by a fraction.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	if !(inRate > 0) || !(outRate > 0) || math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, fmt.Errorf("%w: %g -> %g", ErrInvalidRate, inRate, outRate)
	}

	up, down := approximateRatio(outRate/inRate, applyOptions(opts).maxDen)

	return NewRational(up, down, opts...)
}

// Reset clears the filter state.
func (r *Resampler) Reset() {
	r.phase = 0
	r.inputIndex = 0
	r.totalIn = 0
	r.history = r.history[:0]
}

// Process converts the next input block. Output is delayed by [Resampler.Delay]
// samples.
func (r *Resampler) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	out := make([]float64, 0, r.PredictOutputLen(len(input)))

	work := make([]float64, len(r.history)+len(input))
	copy(work, r.history)
	copy(work[len(r.history):], input)

	base := r.totalIn - len(r.history)
	last := r.totalIn + len(input) - 1

	for r.inputIndex <= last {
		var y float64

		for k, c := range r.phases[r.phase] {
			idx := r.inputIndex - k
			if idx < base {
				break
			}

			y += c * work[idx-base]
		}

		out = append(out, y)

		r.phase += r.down
		r.inputIndex += r.phase / r.up
		r.phase %= r.up
	}

	r.totalIn += len(input)

	keep := min(r.span, len(work))
	r.history = append(r.history[:0], work[len(work)-keep:]...)

	return out
}

// PredictOutputLen returns the number of samples the next Process call
// produces for inputLen samples.
func (r *Resampler) PredictOutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	last := r.totalIn + inputLen - 1
	i, phase := r.inputIndex, r.phase

	count := 0
	for i <= last {
		count++
		phase += r.down
		i += phase / r.up
		phase %= r.up
	}

	return count
}

// Ratio returns the reduced up/down factors.
func (r *Resampler) Ratio() (up, down int) { return r.up, r.down }

// Delay returns the filter delay in output samples.
func (r *Resampler) Delay() int { return r.center / r.down }

// Prototype returns a copy of the prototype filter at the upsampled rate.
func (r *Resampler) Prototype() []float64 {
	return append([]float64(nil), r.taps...)
}
