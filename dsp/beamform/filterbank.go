package beamform

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rake/dsp/conv"
	"github.com/cwbudde/algo-rake/dsp/core"
	"github.com/cwbudde/algo-rake/dsp/filter/fir"
)

// directTaps is the filter length up to which Apply convolves directly
// instead of with FFT overlap-add.
const directTaps = 64

// FilterBank is an immutable set of per-microphone FIR filters together
// with the diagnostics of the design that produced it.
type FilterBank struct {
	taps       [][]float64
	sampleRate float64
	array      Array

	method    Method
	condition float64
	sinr      float64
	warning   error
	alignment Alignment
}

// NewFilterBank wraps externally obtained taps, one row per microphone of
// arr. Diagnostics of a filter bank built this way are unset.
func NewFilterBank(arr Array, sampleRate float64, taps [][]float64) (*FilterBank, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate must be > 0 and finite: %g", ErrInvalidConfig, sampleRate)
	}
	if len(taps) != arr.Len() || arr.Len() == 0 {
		return nil, fmt.Errorf("%w: %d filters for %d microphones", ErrDimensionMismatch, len(taps), arr.Len())
	}
	if len(taps[0]) == 0 || !core.IsRectangular(taps, len(taps[0])) {
		return nil, fmt.Errorf("%w: filters must share one non-zero length", ErrDimensionMismatch)
	}
	for r, row := range taps {
		if !core.AllFinite(row) {
			return nil, fmt.Errorf("%w: filter %d has non-finite taps", ErrInvalidConfig, r)
		}
	}

	return &FilterBank{
		taps:       core.Clone2D(taps),
		sampleRate: sampleRate,
		array:      arr,
		condition:  math.NaN(),
		sinr:       math.NaN(),
	}, nil
}

// Taps returns a copy of the M × Lg filter taps.
func (fb *FilterBank) Taps() [][]float64 { return core.Clone2D(fb.taps) }

// Mics returns the number of filters.
func (fb *FilterBank) Mics() int { return len(fb.taps) }

// Len returns the number of taps per filter.
func (fb *FilterBank) Len() int { return len(fb.taps[0]) }

// SampleRate returns the sample rate the filters were designed for.
func (fb *FilterBank) SampleRate() float64 { return fb.sampleRate }

// Array returns the microphone array.
func (fb *FilterBank) Array() Array { return fb.array }

// Method returns the design criterion.
func (fb *FilterBank) Method() Method { return fb.method }

// Condition returns the condition number of the solved covariance, NaN if
// unknown.
func (fb *FilterBank) Condition() float64 { return fb.condition }

// SINR returns the design's linear output SINR, NaN if unknown.
func (fb *FilterBank) SINR() float64 { return fb.sinr }

// SINRdB returns [FilterBank.SINR] in decibels.
func (fb *FilterBank) SINRdB() float64 {
	if math.IsNaN(fb.sinr) {
		return math.NaN()
	}
	return core.LinearPowerToDB(fb.sinr)
}

// Warning returns a non-fatal design warning such as [ErrIllConditioned].
func (fb *FilterBank) Warning() error { return fb.warning }

// Alignment returns the time frame of the design.
func (fb *FilterBank) Alignment() Alignment { return fb.alignment }

// Apply filters each microphone signal with its filter and sums the
// results. All signals must have the same length. mode selects the part of
// the full convolution that is returned; [conv.ModeCausal] yields the
// output aligned with the input.
func (fb *FilterBank) Apply(signals [][]float64, mode conv.Mode) ([]float64, error) {
	n, err := fb.checkSignals(signals)
	if err != nil {
		return nil, err
	}

	lg := fb.Len()
	var full []float64
	if lg <= directTaps {
		full = make([]float64, n+lg-1)
		for r, x := range signals {
			conv.DirectAccumulate(full, x, fb.taps[r])
		}
	} else {
		oa, err := conv.NewOverlapAdd(fb.taps, 0)
		if err != nil {
			return nil, err
		}
		if full, err = oa.Process(signals); err != nil {
			return nil, err
		}
	}

	return conv.TrimToMode(full, n, lg, mode)
}

func (fb *FilterBank) checkSignals(signals [][]float64) (int, error) {
	if len(signals) != fb.Mics() {
		return 0, fmt.Errorf("%w: %d signals for %d microphones", ErrDimensionMismatch, len(signals), fb.Mics())
	}
	n := len(signals[0])
	if n == 0 {
		return 0, ErrEmptySignal
	}
	for r, x := range signals {
		if len(x) != n {
			return 0, fmt.Errorf("%w: signal %d has %d samples, want %d", ErrDimensionMismatch, r, len(x), n)
		}
	}
	return n, nil
}

// Processor is a streaming filter-and-sum runtime for a [FilterBank]. It
// keeps one delay line per microphone and is not safe for concurrent use.
type Processor struct {
	filters []*fir.Filter
}

// NewProcessor returns a Processor with cleared state.
func (fb *FilterBank) NewProcessor() *Processor {
	p := &Processor{filters: make([]*fir.Filter, len(fb.taps))}
	for r, t := range fb.taps {
		p.filters[r] = fir.New(t)
	}
	return p
}

// Channels returns the number of input channels.
func (p *Processor) Channels() int { return len(p.filters) }

// ProcessSample consumes one sample per microphone and returns one output
// sample.
func (p *Processor) ProcessSample(frame []float64) (float64, error) {
	if len(frame) != len(p.filters) {
		return 0, fmt.Errorf("%w: frame has %d samples for %d microphones", ErrDimensionMismatch, len(frame), len(p.filters))
	}
	var y float64
	for r, x := range frame {
		y += p.filters[r].ProcessSample(x)
	}
	return y, nil
}

// ProcessBlock filters one block per microphone into dst, which must have
// the block length.
func (p *Processor) ProcessBlock(dst []float64, inputs [][]float64) error {
	if len(inputs) != len(p.filters) {
		return fmt.Errorf("%w: %d inputs for %d microphones", ErrDimensionMismatch, len(inputs), len(p.filters))
	}
	for r, x := range inputs {
		if len(x) != len(dst) {
			return fmt.Errorf("%w: input %d has %d samples, want %d", ErrDimensionMismatch, r, len(x), len(dst))
		}
	}

	core.Zero(dst)
	for r, x := range inputs {
		p.filters[r].ProcessBlockAdd(dst, x)
	}
	return nil
}

// Reset clears all delay lines.
func (p *Processor) Reset() {
	for _, f := range p.filters {
		f.Reset()
	}
}
