// Package spectrum extracts magnitude and phase from complex response bins.
//
// It does not compute transforms itself. Callers pass bins from an FFT or
// from direct evaluation, such as a beamformer's far-field response.
package spectrum
