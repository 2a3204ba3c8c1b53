package beamform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rake/dsp/core"
	"github.com/cwbudde/algo-rake/internal/logging"
)

const defaultConditionThreshold = 1e12

// SolveOption configures [SolveCovariance] and [ComputeWeights].
type SolveOption func(*solveConfig) error

type solveConfig struct {
	conditionThreshold float64
	logger             logging.Logger
}

func defaultSolveConfig() solveConfig {
	return solveConfig{
		conditionThreshold: defaultConditionThreshold,
		logger:             logging.Noop(),
	}
}

// WithSolveConditionThreshold sets the condition number above which a
// solve carries an [ErrIllConditioned] warning.
func WithSolveConditionThreshold(limit float64) SolveOption {
	return func(cfg *solveConfig) error {
		if !(limit >= 1) || math.IsInf(limit, 0) {
			return fmt.Errorf("%w: condition threshold must be >= 1 and finite: %g", ErrInvalidConfig, limit)
		}
		cfg.conditionThreshold = limit
		return nil
	}
}

// WithSolveLogger sets the logger used for solver warnings.
func WithSolveLogger(l logging.Logger) SolveOption {
	return func(cfg *solveConfig) error {
		cfg.logger = logging.OrNoop(l)
		return nil
	}
}

func applySolveOptions(opts []SolveOption) (solveConfig, error) {
	cfg := defaultSolveConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return solveConfig{}, err
		}
	}
	return cfg, nil
}

// Solution is a normalised distortionless solution vector.
type Solution struct {
	G         *mat.VecDense
	Condition float64
	Warning   error // wraps ErrIllConditioned, or nil
}

// Weights are per-microphone filter taps, M × Lg.
type Weights struct {
	Taps      [][]float64
	Condition float64
	Warning   error
}

// Covariance returns Ryy = H·Hᵗ + rn.
func Covariance(h mat.Matrix, rn mat.Symmetric) (*mat.SymDense, error) {
	rows, _ := h.Dims()
	if rn == nil {
		return nil, fmt.Errorf("%w: noise covariance is required", ErrInvalidConfig)
	}
	if n := rn.SymmetricDim(); n != rows {
		return nil, fmt.Errorf("%w: H has %d rows, noise covariance is %d×%d", ErrDimensionMismatch, rows, n, n)
	}

	var hht mat.SymDense
	hht.SymOuterK(1, h)

	ryy := mat.NewSymDense(rows, nil)
	ryy.AddSym(&hht, rn)
	return ryy, nil
}

// SolveCovariance returns g = Ryy⁻¹h / (hᵗRyy⁻¹h).
//
// Ryy is factorised with Cholesky and, if it is not positive definite, with
// LU. A condition number above the threshold produces a warning in the
// result. A singular Ryy, including one whose condition number reaches 1/ε,
// or a denominator that is not strictly positive and finite yields
// ErrSingularCovariance. Scaling Ryy by a positive constant leaves the result
// unchanged.
func SolveCovariance(ryy mat.Symmetric, h mat.Vector, opts ...SolveOption) (Solution, error) {
	cfg, err := applySolveOptions(opts)
	if err != nil {
		return Solution{}, err
	}

	n := ryy.SymmetricDim()
	if h.Len() != n {
		return Solution{}, fmt.Errorf("%w: constraint has %d entries, covariance is %d×%d",
			ErrDimensionMismatch, h.Len(), n, n)
	}

	raw := mat.NewVecDense(n, nil)
	cond, err := solveSym(raw, ryy, h)
	if err != nil {
		return Solution{}, err
	}

	denom := mat.Dot(h, raw)
	if !(denom > 0) || math.IsInf(denom, 0) {
		return Solution{}, fmt.Errorf("%w: normalisation hᵗRyy⁻¹h = %g", ErrSingularCovariance, denom)
	}

	g := mat.NewVecDense(n, nil)
	g.ScaleVec(1/denom, raw)
	if !core.AllFinite(g.RawVector().Data) {
		return Solution{}, fmt.Errorf("%w: solution is not finite", ErrSingularCovariance)
	}

	sol := Solution{G: g, Condition: cond}
	if cond > cfg.conditionThreshold {
		sol.Warning = fmt.Errorf("%w: condition number %.3g exceeds %.3g", ErrIllConditioned, cond, cfg.conditionThreshold)
		cfg.logger.Warn("covariance is ill-conditioned",
			logging.Float("condition", cond),
			logging.Float("threshold", cfg.conditionThreshold))
	}
	return sol, nil
}

// singularCondition is 1/ε for float64: at this condition number a solve
// has no significant digits left.
const singularCondition = 1 << 52

// solveSym solves a·dst = b and returns the condition number estimate of a.
// A factorisation that only succeeded on rounding noise, such as a rank
// deficient H·Hᵗ with zero sensor noise, counts as singular.
func solveSym(dst *mat.VecDense, a mat.Symmetric, b mat.Vector) (float64, error) {
	var chol mat.Cholesky
	if chol.Factorize(a) {
		cond := chol.Cond()
		if err := checkCondition(cond); err != nil {
			return cond, err
		}
		if err := chol.SolveVecTo(dst, b); err != nil && !isConditionWarning(err) {
			return cond, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
		}
		return cond, nil
	}

	var lu mat.LU
	lu.Factorize(a)
	cond := lu.Cond()
	if err := checkCondition(cond); err != nil {
		return cond, err
	}
	if err := lu.SolveVecTo(dst, false, b); err != nil && !isConditionWarning(err) {
		return cond, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}
	return cond, nil
}

func checkCondition(cond float64) error {
	if !(cond < singularCondition) {
		return fmt.Errorf("%w: condition number %.3g reaches working precision", ErrSingularCovariance, cond)
	}
	return nil
}

// isConditionWarning reports whether err is gonum's finite condition
// number warning, after which the result is still usable.
func isConditionWarning(err error) bool {
	var c mat.Condition
	return errors.As(err, &c) && !math.IsInf(float64(c), 1)
}

// ComputeWeights solves the rake MVDR problem for ch with noise covariance
// rn and reshapes the solution into M filters of Lg taps.
func ComputeWeights(ch *Channel, rn mat.Symmetric, opts ...SolveOption) (Weights, error) {
	ryy, err := Covariance(ch.H, rn)
	if err != nil {
		return Weights{}, err
	}

	sol, err := SolveCovariance(ryy, ch.Target, opts...)
	if err != nil {
		return Weights{}, err
	}

	return Weights{
		Taps:      reshape(sol.G, ch.M, ch.Lg),
		Condition: sol.Condition,
		Warning:   sol.Warning,
	}, nil
}

// reshape splits v into m rows of lg taps.
func reshape(v mat.Vector, m, lg int) [][]float64 {
	taps := core.Matrix(m, lg)
	for r := range m {
		for k := range lg {
			taps[r][k] = v.AtVec(r*lg + k)
		}
	}
	return taps
}

// flatten is the inverse of reshape.
func flatten(taps [][]float64) *mat.VecDense {
	var data []float64
	for _, row := range taps {
		data = append(data, row...)
	}
	return mat.NewVecDense(len(data), data)
}
