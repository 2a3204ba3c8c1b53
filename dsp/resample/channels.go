package resample

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Channels resamples every channel of x from inRate to outRate and removes
// the filter delay, so output sample k lines up with input time k/outRate.
// Each output channel has ceil(len·up/down) samples. Channels run
// concurrently and must have equal length.
func Channels(x [][]float64, inRate, outRate float64, opts ...Option) ([][]float64, error) {
	ref, err := NewForRates(inRate, outRate, opts...)
	if err != nil {
		return nil, err
	}

	if len(x) == 0 {
		return nil, nil
	}

	n := len(x[0])
	for c, ch := range x {
		if len(ch) != n {
			return nil, fmt.Errorf("resample: channel %d has %d samples, want %d", c, len(ch), n)
		}
	}

	up, down := ref.Ratio()
	want := (n*up + down - 1) / down
	skip := ref.Delay()
	pad := make([]float64, (ref.center+down+up-1)/up+1)

	out := make([][]float64, len(x))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for c := range x {
		g.Go(func() error {
			r, err := NewRational(up, down, opts...)
			if err != nil {
				return err
			}

			y := r.Process(x[c])
			y = append(y, r.Process(pad)...)
			out[c] = y[skip : skip+want]

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
