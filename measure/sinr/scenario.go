package sinr

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/algo-rake/dsp/beamform"
)

// Scenario is one draw of desired and interfering image sources.
type Scenario struct {
	Desired    []beamform.Image
	Interferer []beamform.Image
}

// ScenarioGenerator draws a scenario with the given number of images per
// source. Implementations must only use rng for randomness so that sweeps
// are reproducible.
type ScenarioGenerator interface {
	Scenario(images int, rng *rand.Rand) (Scenario, error)
}

// GeneratorFunc adapts a function to [ScenarioGenerator].
type GeneratorFunc func(images int, rng *rand.Rand) (Scenario, error)

// Scenario calls f.
func (f GeneratorFunc) Scenario(images int, rng *rand.Rand) (Scenario, error) {
	return f(images, rng)
}

// RandomScenario places every image of both sources uniformly at random in
// the axis-aligned box [Min, Max]. Image 0 is the direct path, the rest are
// tagged as first order. Gain scales all reflected images; zero means 1.
type RandomScenario struct {
	Min, Max beamform.Point
	Gain     float64
}

// Scenario implements [ScenarioGenerator].
func (s RandomScenario) Scenario(images int, rng *rand.Rand) (Scenario, error) {
	if len(s.Min) == 0 || len(s.Min) != len(s.Max) {
		return Scenario{}, fmt.Errorf("%w: scenario box min %v max %v", beamform.ErrInvalidConfig, s.Min, s.Max)
	}
	for i := range s.Min {
		if !(s.Min[i] < s.Max[i]) {
			return Scenario{}, fmt.Errorf("%w: scenario box axis %d is empty", beamform.ErrInvalidConfig, i)
		}
	}
	if images < 1 {
		return Scenario{}, fmt.Errorf("%w: images must be >= 1: %d", beamform.ErrInvalidConfig, images)
	}

	return Scenario{
		Desired:    s.draw(0, images, rng),
		Interferer: s.draw(1, images, rng),
	}, nil
}

func (s RandomScenario) draw(source, images int, rng *rand.Rand) []beamform.Image {
	out := make([]beamform.Image, images)
	for i := range out {
		p := make(beamform.Point, len(s.Min))
		for k := range p {
			p[k] = s.Min[k] + rng.Float64()*(s.Max[k]-s.Min[k])
		}
		out[i] = beamform.Image{Position: p, Source: source}
		if i > 0 {
			out[i].Order = 1
			out[i].Gain = s.Gain
		}
	}
	return out
}
