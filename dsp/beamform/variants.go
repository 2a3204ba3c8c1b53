package beamform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rake/dsp/core"
)

// MaxSINRWeights are the taps of a maximum output SINR design.
type MaxSINRWeights struct {
	Weights
	SINR float64 // linear
}

// SolveMaxSINR maximises gᵗAg / gᵗBg with A = Hs·Hsᵗ and B = Hi·Hiᵗ + rn,
// where Hs and Hi are the desired and interferer halves of ch.H.
//
// A has rank at most L, so the maximiser lies in the span of B⁻¹Hs:
// g = B⁻¹Hs·v with v the principal eigenvector of K = Hsᵗ·B⁻¹·Hs, and the
// optimum SINR is the largest eigenvalue of K. The taps are scaled so that
// hᵗg = 1 when h is not orthogonal to g, and to unit norm otherwise.
func SolveMaxSINR(ch *Channel, rn mat.Symmetric) (MaxSINRWeights, error) {
	hi := ch.Interferer()
	b, err := Covariance(hi, rn)
	if err != nil {
		return MaxSINRWeights{}, err
	}

	var chol mat.Cholesky
	if !chol.Factorize(b) {
		return MaxSINRWeights{}, fmt.Errorf("%w: interference-plus-noise covariance is not positive definite",
			ErrSingularCovariance)
	}
	if err := checkCondition(chol.Cond()); err != nil {
		return MaxSINRWeights{}, err
	}

	hs := ch.Desired()
	rows, l := hs.Dims()

	var y mat.Dense
	if err := chol.SolveTo(&y, hs); err != nil && !isConditionWarning(err) {
		return MaxSINRWeights{}, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}

	var k mat.Dense
	k.Mul(hs.T(), &y)

	ks := mat.NewSymDense(l, nil)
	for i := range l {
		for j := i; j < l; j++ {
			ks.SetSym(i, j, 0.5*(k.At(i, j)+k.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(ks, true) {
		return MaxSINRWeights{}, fmt.Errorf("%w: eigendecomposition did not converge", ErrSingularCovariance)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	top := len(values) - 1
	sinr := values[top]
	if !(sinr > 0) || math.IsInf(sinr, 0) {
		return MaxSINRWeights{}, fmt.Errorf("%w: principal eigenvalue %g", ErrSingularCovariance, sinr)
	}

	g := mat.NewVecDense(rows, nil)
	g.MulVec(&y, vectors.ColView(top))

	if d := mat.Dot(ch.Target, g); math.Abs(d) > 1e-12*mat.Norm(g, 2)*mat.Norm(ch.Target, 2) {
		g.ScaleVec(1/d, g)
	} else {
		g.ScaleVec(1/mat.Norm(g, 2), g)
	}

	return MaxSINRWeights{
		Weights: Weights{
			Taps:      reshape(g, ch.M, ch.Lg),
			Condition: chol.Cond(),
		},
		SINR: sinr,
	}, nil
}

// SolveDelayAndSum returns the rake matched filter g = h/‖h‖², which
// satisfies hᵗg = 1 without regard to interference or noise.
func SolveDelayAndSum(ch *Channel) (Weights, error) {
	energy := mat.Dot(ch.Target, ch.Target)
	if energy == 0 {
		return Weights{}, fmt.Errorf("%w: constraint vector is zero", ErrDegenerateGeometry)
	}

	g := mat.NewVecDense(ch.Target.Len(), nil)
	g.ScaleVec(1/energy, ch.Target)

	return Weights{Taps: reshape(g, ch.M, ch.Lg), Condition: 1}, nil
}

// OutputSINR returns the ratio of desired to interference-plus-noise output
// power of the filter set taps:
//
//	‖Hsᵗg‖² / (‖Hiᵗg‖² + gᵗ·rn·g)
func OutputSINR(ch *Channel, rn mat.Symmetric, taps [][]float64) (float64, error) {
	if len(taps) != ch.M {
		return 0, fmt.Errorf("%w: %d filters for %d microphones", ErrDimensionMismatch, len(taps), ch.M)
	}
	for r, row := range taps {
		if len(row) != ch.Lg {
			return 0, fmt.Errorf("%w: filter %d has %d taps, want %d", ErrDimensionMismatch, r, len(row), ch.Lg)
		}
	}
	if rn == nil || rn.SymmetricDim() != ch.M*ch.Lg {
		return 0, fmt.Errorf("%w: noise covariance does not match %d×%d", ErrDimensionMismatch, ch.M*ch.Lg, ch.M*ch.Lg)
	}

	g := flatten(taps)
	signal := outputEnergy(ch.Desired(), g)
	noise := outputEnergy(ch.Interferer(), g) + mat.Inner(g, rn, g)
	if !(noise > 0) {
		return 0, fmt.Errorf("%w: interference-plus-noise power %g", ErrSingularCovariance, noise)
	}
	return signal / noise, nil
}

// ClassOutput returns Hᵗg restricted to one class: the response of the
// summed filter outputs to that class, of length L.
func ClassOutput(ch *Channel, class Class, taps [][]float64) ([]float64, error) {
	if len(taps) != ch.M || !core.IsRectangular(taps, ch.Lg) {
		return nil, fmt.Errorf("%w: taps are not %d×%d", ErrDimensionMismatch, ch.M, ch.Lg)
	}

	var block mat.Matrix
	switch class {
	case ClassDesired:
		block = ch.Desired()
	case ClassInterferer:
		block = ch.Interferer()
	default:
		return nil, fmt.Errorf("%w: unknown class %v", ErrInvalidConfig, class)
	}

	var out mat.VecDense
	out.MulVec(block.T(), flatten(taps))
	return append([]float64(nil), out.RawVector().Data...), nil
}

func outputEnergy(block mat.Matrix, g *mat.VecDense) float64 {
	var y mat.VecDense
	y.MulVec(block.T(), g)
	return floats.Dot(y.RawVector().Data, y.RawVector().Data)
}
