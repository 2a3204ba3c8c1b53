package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// OverlapAdd implements FFT-based filter-and-sum convolution using the
// overlap-add method. It holds one kernel per input channel; Process
// convolves each channel with its kernel and sums the results.
//
// Per block, every channel is transformed and multiplied with its kernel
// spectrum, the products are accumulated, and a single inverse FFT is
// overlap-added into the output.
type OverlapAdd struct {
	kernelFFT [][]complex128

	kernelLen int // longest kernel
	blockSize int
	fftSize   int // next power of two >= blockSize + kernelLen - 1

	plan *algofft.Plan[complex128]

	inputPadded []complex128
	accum       []complex128
}

// NewOverlapAdd creates an overlap-add convolver for the given kernels, one
// per channel. Kernels may differ in length; the longest sets the FFT size.
// If blockSize is 0, an automatic size is chosen based on kernel length.
func NewOverlapAdd(kernels [][]float64, blockSize int) (*OverlapAdd, error) {
	if len(kernels) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	kernelLen := 0
	for i, k := range kernels {
		if len(k) == 0 {
			return nil, fmt.Errorf("%w: channel %d", ErrEmptyKernel, i)
		}
		kernelLen = max(kernelLen, len(k))
	}

	if blockSize == 0 {
		blockSize = max(nextPowerOf2(kernelLen), 256)
	}

	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	oa := &OverlapAdd{
		kernelFFT:   make([][]complex128, len(kernels)),
		kernelLen:   kernelLen,
		blockSize:   blockSize,
		fftSize:     fftSize,
		plan:        plan,
		inputPadded: make([]complex128, fftSize),
		accum:       make([]complex128, fftSize),
	}

	for ch, kernel := range kernels {
		padded := make([]complex128, fftSize)
		for i, v := range kernel {
			padded[i] = complex(v, 0)
		}

		oa.kernelFFT[ch] = make([]complex128, fftSize)
		if err := plan.Forward(oa.kernelFFT[ch], padded); err != nil {
			return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
		}
	}

	return oa, nil
}

// Channels returns the number of kernels.
func (oa *OverlapAdd) Channels() int {
	return len(oa.kernelFFT)
}

// BlockSize returns the input block size.
func (oa *OverlapAdd) BlockSize() int {
	return oa.blockSize
}

// FFTSize returns the FFT size used internally.
func (oa *OverlapAdd) FFTSize() int {
	return oa.fftSize
}

// KernelLen returns the longest kernel length.
func (oa *OverlapAdd) KernelLen() int {
	return oa.kernelLen
}

// Process convolves each input channel with its kernel and returns the sum,
// of length len(input) + KernelLen() - 1. All channels must have the same
// length.
func (oa *OverlapAdd) Process(inputs [][]float64) ([]float64, error) {
	if len(inputs) != len(oa.kernelFFT) {
		return nil, fmt.Errorf("%w: %d inputs for %d kernels", ErrLengthMismatch, len(inputs), len(oa.kernelFFT))
	}

	n := len(inputs[0])
	if n == 0 {
		return nil, ErrEmptyInput
	}
	for ch, in := range inputs {
		if len(in) != n {
			return nil, fmt.Errorf("%w: channel %d has %d samples, want %d", ErrLengthMismatch, ch, len(in), n)
		}
	}

	outputLen := n + oa.kernelLen - 1
	output := make([]float64, outputLen)

	for start := 0; start < n; start += oa.blockSize {
		end := min(start+oa.blockSize, n)
		blockLen := end - start

		for i := range oa.accum {
			oa.accum[i] = 0
		}

		for ch, in := range inputs {
			for i := range oa.inputPadded {
				oa.inputPadded[i] = 0
			}
			for i := 0; i < blockLen; i++ {
				oa.inputPadded[i] = complex(in[start+i], 0)
			}

			if err := oa.plan.Forward(oa.inputPadded, oa.inputPadded); err != nil {
				return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
			}

			k := oa.kernelFFT[ch]
			for i, x := range oa.inputPadded {
				oa.accum[i] += x * k[i]
			}
		}

		if err := oa.plan.Inverse(oa.accum, oa.accum); err != nil {
			return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
		}

		resultLen := blockLen + oa.kernelLen - 1
		for i := 0; i < resultLen && start+i < outputLen; i++ {
			output[start+i] += real(oa.accum[i])
		}
	}

	return output, nil
}

// ProcessTo is Process writing into a pre-allocated output of length
// len(input) + KernelLen() - 1.
func (oa *OverlapAdd) ProcessTo(output []float64, inputs [][]float64) error {
	if len(inputs) == 0 {
		return ErrEmptyInput
	}

	expectedLen := len(inputs[0]) + oa.kernelLen - 1
	if len(output) != expectedLen {
		return fmt.Errorf("%w: expected %d, got %d", ErrLengthMismatch, expectedLen, len(output))
	}

	result, err := oa.Process(inputs)
	if err != nil {
		return err
	}

	copy(output, result)
	return nil
}

// OverlapAddConvolve performs one-shot single-channel overlap-add convolution.
func OverlapAddConvolve(signal, kernel []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}

	oa, err := NewOverlapAdd([][]float64{kernel}, 0)
	if err != nil {
		return nil, err
	}
	return oa.Process([][]float64{signal})
}
