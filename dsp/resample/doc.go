// Package resample converts multichannel recordings between sample rates
// with a polyphase Kaiser-windowed sinc filter.
//
// The prototype filter is symmetric and its centre falls on an output
// sample, so [Channels] can remove the filter delay exactly and return
// signals aligned with the input.
//
// Common workflows:
//   - NewForRates(inRate, outRate, opts...) for streaming use
//   - Channels(x, inRate, outRate, opts...) for one-shot, delay-free use
package resample
