package testutil

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// DeterministicSine returns length samples of amplitude·sin(2π·f·n/fs).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	w := 2 * math.Pi * freqHz / sampleRate
	out := make([]float64, length)
	for n := range out {
		out[n] = math.Sin(w * float64(n))
	}
	floats.Scale(amplitude, out)
	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude) drawn
// from a generator seeded with seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for n := range out {
		out[n] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// MultichannelNoise returns one DeterministicNoise row per channel, row c
// seeded with seed+c.
func MultichannelNoise(seed int64, channels int, amplitude float64, length int) [][]float64 {
	rows := make([][]float64, channels)
	for c := range rows {
		rows[c] = DeterministicNoise(seed+int64(c), amplitude, length)
	}
	return rows
}

// Energy is Σ x[n]².
func Energy(x []float64) float64 {
	return floats.Dot(x, x)
}
