package resample

import (
	"math"

	"github.com/cwbudde/algo-rake/dsp/window"
)

// prototype designs the low-pass filter at the upsampled rate. Its length
// is 2·center+1 with center a multiple of down, so the filter delay is a
// whole number of output samples. DC gain is up.
func prototype(up, down int, cfg config) (taps []float64, center int) {
	half := (cfg.tapsPerPhase*up + 1) / 2
	center = down * ((half + down - 1) / down)

	fc := 0.5 / float64(max(up, down)) * cfg.cutoffScale

	taps = make([]float64, 2*center+1)

	var sum float64
	for n := range taps {
		t := float64(n - center)
		taps[n] = 2 * fc * window.Sinc(2*fc*t) *
			window.Centered(window.TypeKaiser, t, float64(center), window.WithAlpha(cfg.kaiserBeta))
		sum += taps[n]
	}

	scale := float64(up) / sum
	for n := range taps {
		taps[n] *= scale
	}

	return taps, center
}

// polyphase splits taps into up branches, branch p holding taps[p+k·up].
func polyphase(taps []float64, up int) (phases [][]float64, span int) {
	phases = make([][]float64, up)
	for p := range up {
		for i := p; i < len(taps); i += up {
			phases[p] = append(phases[p], taps[i])
		}

		span = max(span, len(phases[p]))
	}

	return phases, span
}

// approximateRatio returns the continued-fraction approximation num/den of v
// with den <= maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		p2, q2 := a*p1+p0, a*q1+q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}
