package beamform

import "errors"

// Errors returned by the design pipeline. Callers match them with errors.Is;
// returned errors wrap them with context such as the offending index.
var (
	// ErrDegenerateGeometry reports an image source located exactly on a
	// microphone, or a design without any usable constraint.
	ErrDegenerateGeometry = errors.New("beamform: degenerate geometry")

	// ErrDimensionMismatch reports inconsistent matrix, vector or point sizes.
	ErrDimensionMismatch = errors.New("beamform: dimension mismatch")

	// ErrSingularCovariance reports a covariance that cannot be inverted, or
	// a normalisation denominator that is zero, negative or not finite.
	ErrSingularCovariance = errors.New("beamform: singular covariance")

	// ErrIllConditioned is a warning. It is carried by [Weights.Warning] and
	// [FilterBank.Warning] and never returned as the error of a call.
	ErrIllConditioned = errors.New("beamform: ill-conditioned covariance")

	ErrInvalidConfig   = errors.New("beamform: invalid configuration")
	ErrNoDesiredImages = errors.New("beamform: no desired images")
	ErrEmptySignal     = errors.New("beamform: empty signal")
)
