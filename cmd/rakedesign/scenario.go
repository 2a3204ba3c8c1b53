package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-rake/dsp/beamform"
	"github.com/cwbudde/algo-rake/dsp/window"
	"github.com/cwbudde/algo-rake/internal/logging"
	"github.com/cwbudde/algo-rake/measure/sinr"
)

// scenarioFile is the JSON input of the design and sweep commands.
type scenarioFile struct {
	SampleRate     float64     `json:"sampleRate,omitempty"`
	SpeedOfSound   float64     `json:"speedOfSound,omitempty"`
	Epsilon        float64     `json:"epsilon,omitempty"`
	FilterLength   int         `json:"filterLength,omitempty"`
	FilterDuration float64     `json:"filterDuration,omitempty"` // seconds, used when filterLength is 0
	Guard          string      `json:"guard,omitempty"`          // attenuation, none or fixed
	GuardSeconds   float64     `json:"guardSeconds,omitempty"`
	Kernel         *kernelJSON `json:"kernel,omitempty"`
	Method         string      `json:"method,omitempty"`
	NoiseVariance  float64     `json:"noiseVariance"`
	MicNoise       []float64   `json:"micNoise,omitempty"` // per microphone, overrides noiseVariance in design
	Array          arrayJSON   `json:"array"`
	Desired        []imageJSON `json:"desired"`
	Interferer     []imageJSON `json:"interferer,omitempty"`
	Box            *boxJSON    `json:"box,omitempty"`
}

type kernelJSON struct {
	Taper     string  `json:"taper"`
	HalfWidth float64 `json:"halfWidth"`
}

// arrayJSON holds exactly one of the three layouts.
type arrayJSON struct {
	Mics     [][]float64 `json:"mics,omitempty"`
	Linear   *layoutJSON `json:"linear,omitempty"`
	Circular *layoutJSON `json:"circular,omitempty"`
}

type layoutJSON struct {
	Center  []float64 `json:"center"`
	Count   int       `json:"count"`
	Phi     float64   `json:"phi"`
	Spacing float64   `json:"spacing,omitempty"` // linear
	Radius  float64   `json:"radius,omitempty"`  // circular
}

type imageJSON struct {
	Position []float64 `json:"position"`
	Source   int       `json:"source,omitempty"`
	Order    int       `json:"order,omitempty"`
	Gain     float64   `json:"gain,omitempty"`
	Delay    float64   `json:"delay,omitempty"`
}

type boxJSON struct {
	Min  []float64 `json:"min"`
	Max  []float64 `json:"max"`
	Gain float64   `json:"gain,omitempty"`
}

var errScenario = errors.New("invalid scenario")

func loadScenario(path string) (*scenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenarioFile
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

func (a arrayJSON) build() (beamform.Array, error) {
	set := 0
	for _, ok := range []bool{len(a.Mics) > 0, a.Linear != nil, a.Circular != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return beamform.Array{}, fmt.Errorf("%w: array needs exactly one of mics, linear or circular", errScenario)
	}

	switch {
	case a.Linear != nil:
		l := a.Linear
		return beamform.LinearArray(l.Center, l.Count, l.Phi, l.Spacing)
	case a.Circular != nil:
		c := a.Circular
		return beamform.CircularArray(c.Center, c.Count, c.Phi, c.Radius)
	default:
		mics := make([]beamform.Point, len(a.Mics))
		for i, m := range a.Mics {
			mics[i] = m
		}
		return beamform.NewArray(mics...)
	}
}

func (sc *scenarioFile) options(log logging.Logger) ([]beamform.Option, error) {
	opts := []beamform.Option{beamform.WithLogger(log)}
	if sc.SampleRate != 0 {
		opts = append(opts, beamform.WithSampleRate(sc.SampleRate))
	}
	if sc.SpeedOfSound != 0 {
		opts = append(opts, beamform.WithSpeedOfSound(sc.SpeedOfSound))
	}
	if sc.Epsilon != 0 {
		opts = append(opts, beamform.WithEpsilon(sc.Epsilon))
	}

	// Duration needs the final sample rate, so it goes after WithSampleRate.
	switch {
	case sc.FilterLength != 0:
		opts = append(opts, beamform.WithFilterLength(sc.FilterLength))
	case sc.FilterDuration != 0:
		opts = append(opts, beamform.WithFilterDuration(sc.FilterDuration))
	}

	switch sc.Guard {
	case "", "attenuation":
		opts = append(opts, beamform.WithGuard(beamform.GuardAttenuation))
	case "none":
		opts = append(opts, beamform.WithGuard(beamform.GuardNone))
	case "fixed":
		opts = append(opts, beamform.WithGuardSeconds(sc.GuardSeconds))
	default:
		return nil, fmt.Errorf("%w: unknown guard %q", errScenario, sc.Guard)
	}

	if sc.Kernel != nil {
		taper, err := window.Parse(sc.Kernel.Taper)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errScenario, err)
		}
		opts = append(opts, beamform.WithKernel(beamform.Kernel{Taper: taper, HalfWidth: sc.Kernel.HalfWidth}))
	}
	return opts, nil
}

func (sc *scenarioFile) designer(log logging.Logger) (*beamform.Designer, error) {
	arr, err := sc.Array.build()
	if err != nil {
		return nil, err
	}
	opts, err := sc.options(log)
	if err != nil {
		return nil, err
	}
	return beamform.NewDesigner(arr, opts...)
}

// noise returns the sensor noise covariance for d's filter layout.
func (sc *scenarioFile) noise(d *beamform.Designer) (*mat.SymDense, error) {
	lg := d.Config.FilterLength
	if len(sc.MicNoise) == 0 {
		return beamform.WhiteNoise(d.Array.Len()*lg, sc.NoiseVariance)
	}
	if len(sc.MicNoise) != d.Array.Len() {
		return nil, fmt.Errorf("%w: micNoise has %d entries for %d microphones", errScenario, len(sc.MicNoise), d.Array.Len())
	}
	return beamform.SensorNoise(sc.MicNoise, lg)
}

// method returns the override when set, then the file's method, then MVDR.
func (sc *scenarioFile) method(override string) (beamform.Method, error) {
	name := override
	if name == "" {
		name = sc.Method
	}
	if name == "" {
		return beamform.MethodMVDR, nil
	}
	return beamform.ParseMethod(name)
}

func images(in []imageJSON) []beamform.Image {
	out := make([]beamform.Image, len(in))
	for i, img := range in {
		out[i] = beamform.Image{
			Position: img.Position,
			Source:   img.Source,
			Order:    img.Order,
			Gain:     img.Gain,
			Delay:    img.Delay,
		}
	}
	return out
}

func (sc *scenarioFile) generator() (sinr.ScenarioGenerator, error) {
	if sc.Box == nil {
		return nil, fmt.Errorf("%w: sweep needs a box", errScenario)
	}
	return sinr.RandomScenario{Min: sc.Box.Min, Max: sc.Box.Max, Gain: sc.Box.Gain}, nil
}
