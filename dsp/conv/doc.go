// Package conv provides linear convolution for FIR filtering.
//
// Two strategies are offered:
//
//   - Direct convolution: O(N*M) time-domain convolution, best for short kernels (< 64 samples)
//   - Overlap-add (OLA): FFT-based block convolution for long signals and longer kernels
//
// An [OverlapAdd] convolver can hold several kernels, one per input channel.
// Its Process method convolves each channel with its kernel and returns the
// sum, accumulating in the frequency domain so that only one inverse FFT is
// needed per block. This is the shape of a filter-and-sum beamformer.
//
// # Usage
//
//	y, err := conv.Convolve(signal, kernel)                 // auto-selects the algorithm
//	y, err := conv.ConvolveMode(signal, kernel, conv.ModeCausal)
//
//	oa, err := conv.NewOverlapAdd([][]float64{g0, g1}, 0)  // two-channel filter-and-sum
//	y, err := oa.Process([][]float64{x0, x1})
//
// # Output modes
//
//   - [ModeFull]: len(a)+len(b)-1 samples
//   - [ModeSame]: len(a) samples, centred on the kernel
//   - [ModeCausal]: the first len(a) samples, aligned with the input
//   - [ModeValid]: only fully overlapping samples
package conv
