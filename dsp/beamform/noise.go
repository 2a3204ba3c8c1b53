package beamform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// WhiteNoise returns the n×n covariance σ²·I of uncorrelated sensor noise.
func WhiteNoise(n int, sigma2 float64) (*mat.SymDense, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: noise covariance size must be >= 1: %d", ErrInvalidConfig, n)
	}
	if sigma2 < 0 || math.IsNaN(sigma2) || math.IsInf(sigma2, 0) {
		return nil, fmt.Errorf("%w: noise variance must be >= 0 and finite: %g", ErrInvalidConfig, sigma2)
	}

	rn := mat.NewSymDense(n, nil)
	for i := range n {
		rn.SetSym(i, i, sigma2)
	}
	return rn, nil
}

// SensorNoise returns the (M·lg)×(M·lg) block-diagonal covariance of
// microphones with individual white noise variances.
func SensorNoise(variances []float64, lg int) (*mat.SymDense, error) {
	if len(variances) == 0 || lg < 1 {
		return nil, fmt.Errorf("%w: sensor noise needs variances and lg >= 1", ErrInvalidConfig)
	}

	rn := mat.NewSymDense(len(variances)*lg, nil)
	for r, v := range variances {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: microphone %d noise variance must be >= 0 and finite: %g", ErrInvalidConfig, r, v)
		}
		for k := range lg {
			rn.SetSym(r*lg+k, r*lg+k, v)
		}
	}
	return rn, nil
}
