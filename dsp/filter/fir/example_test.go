package fir_test

import (
	"fmt"

	"github.com/cwbudde/algo-rake/dsp/filter/fir"
)

func ExampleFilter_ProcessSample() {
	// 3-tap moving average filter.
	f := fir.New([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})

	input := []float64{0, 1, 2, 3, 3, 3}
	for i, x := range input {
		y := f.ProcessSample(x)
		fmt.Printf("y[%d] = %.4f\n", i, y)
	}
	// Output:
	// y[0] = 0.0000
	// y[1] = 0.3333
	// y[2] = 1.0000
	// y[3] = 2.0000
	// y[4] = 2.6667
	// y[5] = 3.0000
}

func ExampleFilter_ProcessBlockAdd() {
	// Filter-and-sum of two channels: a one-sample delay and a gain of 0.5.
	delayed := fir.New([]float64{0, 1})
	scaled := fir.New([]float64{0.5})

	out := make([]float64, 4)
	delayed.ProcessBlockAdd(out, []float64{1, 2, 3, 4})
	scaled.ProcessBlockAdd(out, []float64{2, 2, 2, 2})
	fmt.Println(out)
	// Output:
	// [1 2 3 4]
}
