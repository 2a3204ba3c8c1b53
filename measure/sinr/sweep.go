package sinr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-rake/dsp/beamform"
	"github.com/cwbudde/algo-rake/internal/logging"
)

const defaultMaxRetries = 3

// ErrNoUsableScenario is returned when every draw of a trial produced a
// degenerate design.
var ErrNoUsableScenario = errors.New("sinr: no usable scenario")

// SweepConfig controls a sweep.
type SweepConfig struct {
	Designer      *beamform.Designer
	Method        beamform.Method
	NoiseVariance float64 // σ² of white sensor noise, Rn = σ²·I
	MaxImages     int
	Trials        int
	Seed          int64
	MaxRetries    int // per trial; 0 means 3, negative disables retries
	Workers       int // 0 means GOMAXPROCS
	Logger        logging.Logger
}

// Trial is the outcome of one design.
type Trial struct {
	Images  int
	Index   int
	Seed    int64
	Retries int
	SINR    float64 // linear
	SINRdB  float64
}

// Result holds all trials of a sweep. Trials[i][n] is trial n with i+1
// images per source.
type Result struct {
	Method beamform.Method
	Trials [][]Trial
}

// Sweep designs filters for 1..MaxImages images per source, Trials times
// each, and records the output SINR. Trials run concurrently; the result
// only depends on Seed, not on scheduling.
func Sweep(ctx context.Context, cfg SweepConfig, gen ScenarioGenerator) (*Result, error) {
	if err := cfg.validate(gen); err != nil {
		return nil, err
	}

	d := cfg.Designer
	rn, err := beamform.WhiteNoise(d.Array.Len()*d.Config.FilterLength, cfg.NoiseVariance)
	if err != nil {
		return nil, err
	}

	log := logging.OrNoop(cfg.Logger).With(logging.String("method", cfg.Method.String()))

	res := &Result{Method: cfg.Method, Trials: make([][]Trial, cfg.MaxImages)}
	for i := range res.Trials {
		res.Trials[i] = make([]Trial, cfg.Trials)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range cfg.MaxImages {
		for n := range cfg.Trials {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				tr, err := cfg.trial(gen, rn, i+1, n)
				if err != nil {
					return err
				}
				res.Trials[i][n] = tr
				log.Debug("trial done",
					logging.Int("images", tr.Images),
					logging.Int("trial", n),
					logging.Int("retries", tr.Retries),
					logging.Float("sinr_db", tr.SINRdB))
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info("sweep finished",
		logging.Int("max_images", cfg.MaxImages),
		logging.Int("trials", cfg.Trials))

	return res, nil
}

func (cfg SweepConfig) validate(gen ScenarioGenerator) error {
	switch {
	case cfg.Designer == nil:
		return fmt.Errorf("%w: sweep needs a designer", beamform.ErrInvalidConfig)
	case gen == nil:
		return fmt.Errorf("%w: sweep needs a scenario generator", beamform.ErrInvalidConfig)
	case cfg.MaxImages < 1:
		return fmt.Errorf("%w: max images must be >= 1: %d", beamform.ErrInvalidConfig, cfg.MaxImages)
	case cfg.Trials < 1:
		return fmt.Errorf("%w: trials must be >= 1: %d", beamform.ErrInvalidConfig, cfg.Trials)
	case !(cfg.NoiseVariance > 0) || math.IsInf(cfg.NoiseVariance, 0):
		return fmt.Errorf("%w: noise variance must be > 0 and finite: %g", beamform.ErrInvalidConfig, cfg.NoiseVariance)
	}
	if _, ok := methodOK[cfg.Method]; !ok {
		return fmt.Errorf("%w: unknown method %v", beamform.ErrInvalidConfig, cfg.Method)
	}
	return cfg.Designer.Config.Validate()
}

var methodOK = map[beamform.Method]struct{}{
	beamform.MethodMVDR:        {},
	beamform.MethodMaxSINR:     {},
	beamform.MethodDelayAndSum: {},
}

func (cfg SweepConfig) retries() int {
	switch {
	case cfg.MaxRetries == 0:
		return defaultMaxRetries
	case cfg.MaxRetries < 0:
		return 0
	default:
		return cfg.MaxRetries
	}
}

// trialSeed gives every (images, trial, attempt) its own stream.
func (cfg SweepConfig) trialSeed(images, trial, attempt int) int64 {
	idx := int64((images-1)*cfg.Trials + trial)
	return cfg.Seed + idx*int64(cfg.retries()+1) + int64(attempt)
}

func (cfg SweepConfig) trial(gen ScenarioGenerator, rn mat.Symmetric, images, index int) (Trial, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.retries(); attempt++ {
		seed := cfg.trialSeed(images, index, attempt)
		rng := rand.New(rand.NewSource(seed))

		sc, err := gen.Scenario(images, rng)
		if err != nil {
			return Trial{}, fmt.Errorf("scenario %d/%d: %w", images, index, err)
		}

		fb, err := cfg.Designer.DesignWith(cfg.Method, sc.Desired, sc.Interferer, rn)
		if err != nil {
			if !retryable(err) {
				return Trial{}, fmt.Errorf("design %d/%d: %w", images, index, err)
			}
			lastErr = err
			continue
		}

		return Trial{
			Images:  images,
			Index:   index,
			Seed:    seed,
			Retries: attempt,
			SINR:    fb.SINR(),
			SINRdB:  fb.SINRdB(),
		}, nil
	}
	return Trial{}, fmt.Errorf("%w: %d images, trial %d: %w", ErrNoUsableScenario, images, index, lastErr)
}

func retryable(err error) bool {
	return errors.Is(err, beamform.ErrDegenerateGeometry) || errors.Is(err, beamform.ErrSingularCovariance)
}

// Images returns the image counts of the sweep, 1..MaxImages.
func (r *Result) Images() []int {
	out := make([]int, len(r.Trials))
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// SINRdB returns the per-trial SINR in dB for i+1 images.
func (r *Result) SINRdB(i int) []float64 {
	out := make([]float64, len(r.Trials[i]))
	for n, tr := range r.Trials[i] {
		out[n] = tr.SINRdB
	}
	return out
}

// Quantile returns the empirical p-quantile of the SINR in dB for every
// image count.
func (r *Result) Quantile(p float64) []float64 {
	out := make([]float64, len(r.Trials))
	for i := range r.Trials {
		x := r.SINRdB(i)
		slices.Sort(x)
		out[i] = stat.Quantile(p, stat.Empirical, x, nil)
	}
	return out
}

// Median returns the lower median SINR in dB for every image count.
func (r *Result) Median() []float64 { return r.Quantile(0.5) }
