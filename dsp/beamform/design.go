package beamform

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rake/dsp/core"
	"github.com/cwbudde/algo-rake/internal/logging"
)

const (
	defaultEpsilon      = 1e-2
	defaultFilterLength = 400 // 50 ms at 8 kHz

	minSpeedOfSound = 100.0
	maxSpeedOfSound = 2000.0
	maxFilterLength = 1 << 14
)

// Method selects the optimisation criterion of a design.
type Method int

const (
	MethodMVDR Method = iota
	MethodMaxSINR
	MethodDelayAndSum
)

var methodNames = map[Method]string{
	MethodMVDR:        "mvdr",
	MethodMaxSINR:     "maxsinr",
	MethodDelayAndSum: "das",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps a name as returned by [Method.String] to its Method.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return MethodMVDR, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, name)
}

// GuardPolicy selects how the guard interval around the arrivals is chosen.
type GuardPolicy int

const (
	// GuardAttenuation uses max(attenuation)/(π·fs·ε), see [GuardOffset].
	GuardAttenuation GuardPolicy = iota
	// GuardNone uses no guard.
	GuardNone
	// GuardFixed uses Config.GuardSeconds.
	GuardFixed
)

// Config holds the design parameters.
type Config struct {
	SampleRate         float64
	SpeedOfSound       float64
	Epsilon            float64
	Guard              GuardPolicy
	GuardSeconds       float64
	FilterLength       int // Lg
	Kernel             Kernel
	ConditionThreshold float64
	Logger             logging.Logger
}

// DefaultConfig returns 8 kHz, 343 m/s, ε = 1e-2 and 400-tap filters with
// the attenuation guard and [DefaultKernel].
func DefaultConfig() Config {
	return Config{
		SampleRate:         core.DefaultSampleRate,
		SpeedOfSound:       core.DefaultSpeedOfSound,
		Epsilon:            defaultEpsilon,
		Guard:              GuardAttenuation,
		FilterLength:       defaultFilterLength,
		Kernel:             DefaultKernel(),
		ConditionThreshold: defaultConditionThreshold,
		Logger:             logging.Noop(),
	}
}

// Option mutates a Config and rejects invalid values.
type Option func(*Config) error

// NewConfig applies opts to [DefaultConfig].
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, cfg.Validate()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// WithSampleRate sets the sampling rate in Hz.
func WithSampleRate(fs float64) Option {
	return func(cfg *Config) error {
		if fs <= 0 || !finite(fs) {
			return fmt.Errorf("%w: sample rate must be > 0 and finite: %g", ErrInvalidConfig, fs)
		}
		cfg.SampleRate = fs
		return nil
	}
}

// WithSpeedOfSound sets the propagation speed in m/s.
func WithSpeedOfSound(c float64) Option {
	return func(cfg *Config) error {
		if c < minSpeedOfSound || c > maxSpeedOfSound || !finite(c) {
			return fmt.Errorf("%w: speed of sound must be in [%g, %g]: %g",
				ErrInvalidConfig, minSpeedOfSound, maxSpeedOfSound, c)
		}
		cfg.SpeedOfSound = c
		return nil
	}
}

// WithEpsilon sets the regularisation constant of the attenuation guard.
func WithEpsilon(eps float64) Option {
	return func(cfg *Config) error {
		if eps <= 0 || !finite(eps) {
			return fmt.Errorf("%w: epsilon must be > 0 and finite: %g", ErrInvalidConfig, eps)
		}
		cfg.Epsilon = eps
		return nil
	}
}

// WithGuard selects the guard policy.
func WithGuard(p GuardPolicy) Option {
	return func(cfg *Config) error {
		switch p {
		case GuardAttenuation, GuardNone, GuardFixed:
			cfg.Guard = p
			return nil
		default:
			return fmt.Errorf("%w: unknown guard policy %d", ErrInvalidConfig, int(p))
		}
	}
}

// WithGuardSeconds selects [GuardFixed] with the given guard.
func WithGuardSeconds(seconds float64) Option {
	return func(cfg *Config) error {
		if seconds < 0 || !finite(seconds) {
			return fmt.Errorf("%w: guard must be >= 0 and finite: %g", ErrInvalidConfig, seconds)
		}
		cfg.Guard = GuardFixed
		cfg.GuardSeconds = seconds
		return nil
	}
}

// WithFilterLength sets the number of taps per microphone.
func WithFilterLength(lg int) Option {
	return func(cfg *Config) error {
		if lg < 1 || lg > maxFilterLength {
			return fmt.Errorf("%w: filter length must be in [1, %d]: %d", ErrInvalidConfig, maxFilterLength, lg)
		}
		cfg.FilterLength = lg
		return nil
	}
}

// WithFilterDuration sets the filter length to ceil(seconds · SampleRate).
// Apply it after [WithSampleRate].
func WithFilterDuration(seconds float64) Option {
	return func(cfg *Config) error {
		if seconds <= 0 || !finite(seconds) {
			return fmt.Errorf("%w: filter duration must be > 0 and finite: %g", ErrInvalidConfig, seconds)
		}
		return WithFilterLength(int(math.Ceil(seconds * cfg.SampleRate)))(cfg)
	}
}

// WithKernel sets the band-limited impulse used for channel synthesis.
func WithKernel(k Kernel) Option {
	return func(cfg *Config) error {
		if err := k.validate(); err != nil {
			return err
		}
		cfg.Kernel = k
		return nil
	}
}

// WithConditionThreshold sets the condition number above which designs
// carry an [ErrIllConditioned] warning.
func WithConditionThreshold(limit float64) Option {
	return func(cfg *Config) error {
		if !(limit >= 1) || !finite(limit) {
			return fmt.Errorf("%w: condition threshold must be >= 1 and finite: %g", ErrInvalidConfig, limit)
		}
		cfg.ConditionThreshold = limit
		return nil
	}
}

// WithLogger sets the logger. nil disables logging.
func WithLogger(l logging.Logger) Option {
	return func(cfg *Config) error {
		cfg.Logger = logging.OrNoop(l)
		return nil
	}
}

// Validate checks a Config built without [NewConfig].
func (cfg Config) Validate() error {
	for _, opt := range []Option{
		WithSampleRate(cfg.SampleRate),
		WithSpeedOfSound(cfg.SpeedOfSound),
		WithEpsilon(cfg.Epsilon),
		WithGuard(cfg.Guard),
		WithFilterLength(cfg.FilterLength),
		WithKernel(cfg.Kernel),
		WithConditionThreshold(cfg.ConditionThreshold),
	} {
		trial := cfg
		if err := opt(&trial); err != nil {
			return err
		}
	}
	if cfg.Guard == GuardFixed && (cfg.GuardSeconds < 0 || !finite(cfg.GuardSeconds)) {
		return fmt.Errorf("%w: guard must be >= 0 and finite: %g", ErrInvalidConfig, cfg.GuardSeconds)
	}
	return nil
}

func (cfg Config) guard(desired, interferer Propagation) float64 {
	switch cfg.Guard {
	case GuardNone:
		return 0
	case GuardFixed:
		return cfg.GuardSeconds
	default:
		peak := math.Max(desired.MaxAttenuation(), interferer.MaxAttenuation())
		return GuardOffset(peak, cfg.SampleRate, cfg.Epsilon)
	}
}

// Designer pairs a microphone array with design parameters. It holds no
// state between calls and is safe for concurrent use.
type Designer struct {
	Array  Array
	Config Config
}

// NewDesigner returns a Designer for arr with opts applied to the defaults.
func NewDesigner(arr Array, opts ...Option) (*Designer, error) {
	if arr.Len() == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrInvalidConfig)
	}
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Designer{Array: arr, Config: cfg}, nil
}

// Channels runs geometry, alignment and steering matrix assembly for the
// given image lists. interferer may be empty.
func (d *Designer) Channels(desired, interferer []Image) (*Channel, error) {
	if err := d.Config.Validate(); err != nil {
		return nil, err
	}
	if d.Array.Len() == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrInvalidConfig)
	}
	if len(desired) == 0 {
		return nil, ErrNoDesiredImages
	}

	cfg := d.Config
	log := logging.OrNoop(cfg.Logger)

	dp, err := ComputeGeometry(d.Array, desired, cfg.SpeedOfSound)
	if err != nil {
		return nil, fmt.Errorf("desired images: %w", err)
	}
	ip, err := ComputeGeometry(d.Array, interferer, cfg.SpeedOfSound)
	if err != nil {
		return nil, fmt.Errorf("interferer images: %w", err)
	}

	align, err := AlignGuard(dp, ip, cfg.SampleRate, cfg.guard(dp, ip))
	if err != nil {
		return nil, err
	}

	ds, err := ChannelResponses(dp, align, cfg.SampleRate, cfg.Kernel)
	if err != nil {
		return nil, fmt.Errorf("desired responses: %w", err)
	}
	var is [][]float64
	if !ip.Empty() {
		is, err = ChannelResponses(ip, align, cfg.SampleRate, cfg.Kernel)
		if err != nil {
			return nil, fmt.Errorf("interferer responses: %w", err)
		}
	}

	ch, err := BuildSteeringMatrix(ds, is, cfg.FilterLength)
	if err != nil {
		return nil, err
	}
	ch.Alignment = align

	log.Debug("channel assembled",
		logging.Int("mics", ch.M),
		logging.Int("lg", ch.Lg),
		logging.Int("lh", ch.Lh),
		logging.Float("guard_s", align.Guard),
		logging.Int("desired_images", len(desired)),
		logging.Int("interferer_images", len(interferer)))

	if n := countBelow(ch.ZeroColumns, ch.L()); n > 0 {
		log.Warn("desired channel has all-zero columns", logging.Int("columns", n))
	}

	return ch, nil
}

func countBelow(cols []int, limit int) int {
	n := 0
	for _, c := range cols {
		if c < limit {
			n++
		}
	}
	return n
}

// Design computes rake MVDR filters for the desired and interferer images
// and noise covariance rn of size (M·Lg)×(M·Lg).
func (d *Designer) Design(desired, interferer []Image, rn mat.Symmetric) (*FilterBank, error) {
	return d.DesignWith(MethodMVDR, desired, interferer, rn)
}

// DesignMaxSINR computes maximum output SINR filters.
func (d *Designer) DesignMaxSINR(desired, interferer []Image, rn mat.Symmetric) (*FilterBank, error) {
	return d.DesignWith(MethodMaxSINR, desired, interferer, rn)
}

// DesignDelayAndSum computes the rake matched filter. rn is only used for
// the SINR diagnostic and may be nil.
func (d *Designer) DesignDelayAndSum(desired, interferer []Image, rn mat.Symmetric) (*FilterBank, error) {
	return d.DesignWith(MethodDelayAndSum, desired, interferer, rn)
}

// DesignWith computes filters with the selected method.
func (d *Designer) DesignWith(method Method, desired, interferer []Image, rn mat.Symmetric) (*FilterBank, error) {
	ch, err := d.Channels(desired, interferer)
	if err != nil {
		return nil, err
	}
	return d.solve(method, ch, rn)
}

func (d *Designer) solve(method Method, ch *Channel, rn mat.Symmetric) (*FilterBank, error) {
	log := logging.OrNoop(d.Config.Logger).With(logging.String("method", method.String()))

	var (
		w    Weights
		sinr = math.NaN()
		err  error
	)
	switch method {
	case MethodMVDR:
		w, err = ComputeWeights(ch, rn,
			WithSolveConditionThreshold(d.Config.ConditionThreshold),
			WithSolveLogger(log))
	case MethodMaxSINR:
		var mw MaxSINRWeights
		mw, err = SolveMaxSINR(ch, rn)
		w, sinr = mw.Weights, mw.SINR
	case MethodDelayAndSum:
		w, err = SolveDelayAndSum(ch)
	default:
		err = fmt.Errorf("%w: unknown method %v", ErrInvalidConfig, method)
	}
	if err != nil {
		return nil, err
	}

	if math.IsNaN(sinr) && rn != nil {
		if v, serr := OutputSINR(ch, rn, w.Taps); serr == nil {
			sinr = v
		}
	}

	fb := &FilterBank{
		taps:       w.Taps,
		sampleRate: d.Config.SampleRate,
		array:      d.Array,
		method:     method,
		condition:  w.Condition,
		sinr:       sinr,
		warning:    w.Warning,
		alignment:  ch.Alignment,
	}

	log.Debug("filters designed",
		logging.Float("condition", w.Condition),
		logging.Float("sinr_db", fb.SINRdB()))

	return fb, nil
}
