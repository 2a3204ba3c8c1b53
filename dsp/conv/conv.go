package conv

import (
	"errors"
	"fmt"
	"math/bits"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput       = errors.New("conv: empty input")
	ErrEmptyKernel      = errors.New("conv: empty kernel")
	ErrLengthMismatch   = errors.New("conv: buffer length mismatch")
	ErrInvalidBlockSize = errors.New("conv: invalid block size")
	ErrInvalidMode      = errors.New("conv: invalid mode")
)

// Mode specifies the output mode for convolution.
type Mode int

const (
	// ModeFull returns the full convolution result with length len(a)+len(b)-1.
	ModeFull Mode = iota

	// ModeSame returns output with the same length as the first input,
	// centred on the kernel.
	ModeSame

	// ModeValid returns only the portion where signals fully overlap,
	// with length max(len(a), len(b)) - min(len(a), len(b)) + 1.
	ModeValid

	// ModeCausal returns the first len(a) samples, i.e. the output of a
	// causal filter run over the input.
	ModeCausal
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSame:
		return "same"
	case ModeValid:
		return "valid"
	case ModeCausal:
		return "causal"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a name as returned by [Mode.String] to its Mode.
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeFull, ModeSame, ModeValid, ModeCausal} {
		if m.String() == name {
			return m, nil
		}
	}
	return ModeFull, fmt.Errorf("%w: %q", ErrInvalidMode, name)
}

// Direct returns the full linear convolution of a and b, computed in the
// time domain in O(len(a)·len(b)).
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	DirectTo(result, a, b)

	return result, nil
}

// DirectTo overwrites dst, of length len(a)+len(b)-1, with a*b.
func DirectTo(dst, a, b []float64) {
	clear(dst)
	DirectAccumulate(dst, a, b)
}

// DirectAccumulate adds a*b to dst, which must hold len(a)+len(b)-1
// samples. Summing several channels into one dst is how a filter-and-sum
// output is built.
func DirectAccumulate(dst, a, b []float64) {
	m := len(b)
	for i, x := range a {
		if x == 0 {
			continue
		}
		floats.AddScaled(dst[i:i+m], x, b)
	}
}

// directMax is the longest kernel convolved in the time domain.
const directMax = 64

// Convolve returns the full linear convolution of a and b. Kernels up to
// directMax samples run directly, longer ones through FFT overlap-add.
func Convolve(a, b []float64) ([]float64, error) {
	switch {
	case len(a) == 0:
		return nil, ErrEmptyInput
	case len(b) == 0:
		return nil, ErrEmptyKernel
	}

	// Convolution commutes; block over the longer operand.
	if len(b) > len(a) {
		a, b = b, a
	}
	if len(b) <= directMax {
		return Direct(a, b)
	}
	return OverlapAddConvolve(a, b)
}

// ConvolveMode is Convolve followed by TrimToMode.
func ConvolveMode(a, b []float64, mode Mode) ([]float64, error) {
	full, err := Convolve(a, b)
	if err != nil {
		return nil, err
	}
	return TrimToMode(full, len(a), len(b), mode)
}

// TrimToMode extracts the portion of a full convolution result selected by
// mode. lenA is the signal length and lenB the kernel length.
func TrimToMode(full []float64, lenA, lenB int, mode Mode) ([]float64, error) {
	if len(full) != lenA+lenB-1 {
		return nil, fmt.Errorf("%w: full result has %d samples, want %d",
			ErrLengthMismatch, len(full), lenA+lenB-1)
	}

	switch mode {
	case ModeFull:
		return full, nil
	case ModeSame:
		start := (lenB - 1) / 2
		return full[start : start+lenA], nil
	case ModeCausal:
		return full[:lenA], nil
	case ModeValid:
		if lenA >= lenB {
			return full[lenB-1 : lenA], nil
		}
		return full[lenA-1 : lenB], nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
