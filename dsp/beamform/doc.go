// Package beamform designs time-domain rake beamformers for microphone
// arrays in reverberant rooms.
//
// The direct path and early reflections of a source are modelled as virtual
// image sources. Every image contributes a band-limited, delayed and
// attenuated impulse to each microphone's channel response; all images of a
// class are summed ("rake" combining). The per-microphone responses are laid
// out as convolution operators in a steering matrix H whose first half
// describes the desired class and whose second half describes the
// interferers. The minimum-variance distortionless filters are then
//
//	g = Ryy⁻¹ h / (hᵗ Ryy⁻¹ h),   Ryy = H Hᵗ + Rn,
//
// where h is the column of H that selects the aligned direct arrival of the
// desired source.
//
// The pipeline is split into pure stages so each can be used and tested on
// its own:
//
//   - [ComputeGeometry] turns array and image positions into delays and
//     attenuations.
//   - [Align], [ChannelResponses] and [BuildSteeringMatrix] build H and h.
//   - [ComputeWeights], [SolveMaxSINR] and [SolveDelayAndSum] turn a
//     [Channel] into filter taps.
//
// [Designer] chains the stages and returns an immutable [FilterBank], which
// filters multichannel recordings ([FilterBank.Apply], [FilterBank.NewProcessor])
// and evaluates the far-field beam response ([FilterBank.FrequencyResponse]).
package beamform
