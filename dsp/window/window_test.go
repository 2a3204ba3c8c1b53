package window

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func requireNear(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d coefficients, want %d", len(got), len(want))
	}
	for i := range got {
		if !near(got[i], want[i], tol) {
			t.Fatalf("[%d] = %.16f, want %.16f", i, got[i], want[i])
		}
	}
}

func TestNamesRoundTrip(t *testing.T) {
	for typ := TypeRectangular; typ <= TypeLanczos; typ++ {
		got, err := Parse(typ.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", typ, err)
		}
		if got != typ {
			t.Fatalf("Parse(%q) = %v", typ, got)
		}
	}

	if _, err := Parse("flattop"); err == nil {
		t.Fatal("Parse accepted an unknown name")
	}
	if got := Type(42).String(); got != "Type(42)" {
		t.Fatalf("String = %q", got)
	}
}

func TestGenerateIsFiniteAndSymmetric(t *testing.T) {
	for typ := TypeRectangular; typ <= TypeLanczos; typ++ {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 33, WithAlpha(0.5))
			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("[%d] = %v", i, v)
				}
				if !near(v, w[len(w)-1-i], 1e-12) {
					t.Fatalf("[%d] = %v, mirror %v", i, v, w[len(w)-1-i])
				}
			}
			if !near(w[16], 1, 1e-12) {
				t.Fatalf("peak = %v, want 1", w[16])
			}
		})
	}
}

func TestGolden(t *testing.T) {
	tests := []struct {
		name string
		got  []float64
		want []float64
	}{
		{
			"hann", Generate(TypeHann, 5),
			[]float64{0, 0.5, 1, 0.5, 0},
		},
		{
			"hamming", Generate(TypeHamming, 3),
			[]float64{0.08, 1, 0.08},
		},
		{
			"blackman", Generate(TypeBlackman, 5),
			[]float64{0, 0.34, 1, 0.34, 0},
		},
		{
			"kaiser", Generate(TypeKaiser, 8, WithAlpha(8)),
			[]float64{
				0.002338830512733327, 0.10919581096049485, 0.48711868430391303, 0.9261577377427728,
				0.9261577377427728, 0.48711868430391303, 0.10919581096049485, 0.002338830512733327,
			},
		},
		{
			"tukey", Generate(TypeTukey, 9, WithAlpha(0.5)),
			[]float64{0, 0.5, 1, 1, 1, 1, 1, 0.5, 0},
		},
		{
			"periodic hann", Generate(TypeHann, 4, WithPeriodic()),
			[]float64{0, 0.5, 1, 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireNear(t, tt.got, tt.want, 1e-12)
		})
	}
}

func TestTukeyLimits(t *testing.T) {
	requireNear(t, Generate(TypeTukey, 7, WithAlpha(1)), Generate(TypeHann, 7), 1e-15)
	requireNear(t, Generate(TypeTukey, 7, WithAlpha(0)), Generate(TypeRectangular, 7), 0)
}

func TestGenerateEdgeLengths(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("Generate(0) = %v, want nil", got)
	}
	requireNear(t, Generate(TypeHann, 1), []float64{1}, 1e-15)
}

func TestAt(t *testing.T) {
	w := Generate(TypeBlackman, 9)
	for i := range w {
		if got := At(TypeBlackman, float64(i)/8); !near(got, w[i], 1e-12) {
			t.Fatalf("At(%d/8) = %v, want %v", i, got, w[i])
		}
	}
	for _, x := range []float64{-0.01, 1.01, math.NaN()} {
		if got := At(TypeRectangular, x); got != 0 {
			t.Fatalf("At(%v) = %v, want 0", x, got)
		}
	}
}

func TestCentered(t *testing.T) {
	for _, d := range []float64{0.25, 1.5, 3.3, 7.9} {
		l, r := Centered(TypeKaiser, -d, 8, WithAlpha(6)), Centered(TypeKaiser, d, 8, WithAlpha(6))
		if !near(l, r, 1e-12) || r <= 0 || r >= 1 {
			t.Fatalf("d=%v: %v, %v", d, l, r)
		}
	}
	if got := Centered(TypeHann, 8.5, 8); got != 0 {
		t.Fatalf("outside half-width: %v", got)
	}
	if got := Centered(TypeHann, 100, 0); got != 1 {
		t.Fatalf("zero half-width: %v", got)
	}
}

func TestSinc(t *testing.T) {
	if Sinc(0) != 1 {
		t.Fatalf("Sinc(0) = %v", Sinc(0))
	}
	for _, k := range []float64{1, 2, -3} {
		if !near(Sinc(k), 0, 1e-15) {
			t.Fatalf("Sinc(%v) = %v", k, Sinc(k))
		}
	}
	if !near(Sinc(0.5), 2/math.Pi, 1e-15) {
		t.Fatalf("Sinc(0.5) = %v", Sinc(0.5))
	}
}

func TestBesselI0(t *testing.T) {
	for _, tt := range []struct{ x, want float64 }{
		{0, 1},
		{1, 1.2660658777520082},
		{8, 427.56411572180474},
	} {
		if got := besselI0(tt.x); !near(got, tt.want, 1e-12*tt.want) {
			t.Fatalf("I0(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
