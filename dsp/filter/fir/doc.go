// Package fir provides a streaming FIR filter runtime.
//
// A [Filter] applies fixed taps to an input stream through a mirrored
// delay line, so every output is one contiguous dot product. Filter-and-sum
// structures such as a beamformer's per-microphone filter bank run one
// Filter per channel and combine them with [Filter.ProcessBlockAdd].
//
// For long filters over whole buffers, the FFT overlap-add convolver in
// dsp/conv is faster.
package fir
