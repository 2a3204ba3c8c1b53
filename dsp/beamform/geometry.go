package beamform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point is a position in metres, in two or three dimensions.
type Point []float64

// Dim returns the number of coordinates.
func (p Point) Dim() int { return len(p) }

func (p Point) clone() Point { return append(Point(nil), p...) }

func (p Point) finite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Distance returns the Euclidean distance between a and b. Both points must
// have the same dimension.
func Distance(a, b Point) float64 {
	return floats.Distance(a, b, 2)
}

// Array is an ordered, immutable set of microphone positions.
type Array struct {
	mics []Point
	dim  int
}

// NewArray validates and copies the microphone positions. It requires at
// least one microphone, a common dimension of 2 or 3, finite coordinates
// and pairwise distinct positions.
func NewArray(mics ...Point) (Array, error) {
	if len(mics) == 0 {
		return Array{}, fmt.Errorf("%w: array needs at least one microphone", ErrInvalidConfig)
	}

	dim := mics[0].Dim()
	if dim != 2 && dim != 3 {
		return Array{}, fmt.Errorf("%w: microphone dimension must be 2 or 3, got %d", ErrDimensionMismatch, dim)
	}

	out := make([]Point, len(mics))
	for i, p := range mics {
		if p.Dim() != dim {
			return Array{}, fmt.Errorf("%w: microphone %d has dimension %d, want %d",
				ErrDimensionMismatch, i, p.Dim(), dim)
		}
		if !p.finite() {
			return Array{}, fmt.Errorf("%w: microphone %d has non-finite coordinates", ErrInvalidConfig, i)
		}
		for j := range i {
			if floats.Equal(p, out[j]) {
				return Array{}, fmt.Errorf("%w: microphones %d and %d coincide", ErrDegenerateGeometry, j, i)
			}
		}
		out[i] = p.clone()
	}

	return Array{mics: out, dim: dim}, nil
}

// LinearArray places m microphones on a line through center with angle phi
// (radians from the x axis) and spacing d, centred on center.
func LinearArray(center Point, m int, phi, d float64) (Array, error) {
	if center.Dim() != 2 {
		return Array{}, fmt.Errorf("%w: linear array centre must be 2-D", ErrDimensionMismatch)
	}
	if m < 1 || d <= 0 {
		return Array{}, fmt.Errorf("%w: linear array needs m >= 1 and d > 0, got m=%d d=%g", ErrInvalidConfig, m, d)
	}

	ux, uy := math.Cos(phi), math.Sin(phi)
	mics := make([]Point, m)
	for i := range mics {
		off := d * (float64(i) - float64(m-1)/2)
		mics[i] = Point{center[0] + off*ux, center[1] + off*uy}
	}

	return NewArray(mics...)
}

// CircularArray places m microphones evenly on a circle of the given radius
// around center, the first one at angle phi.
func CircularArray(center Point, m int, phi, radius float64) (Array, error) {
	if center.Dim() != 2 {
		return Array{}, fmt.Errorf("%w: circular array centre must be 2-D", ErrDimensionMismatch)
	}
	if m < 1 || radius <= 0 {
		return Array{}, fmt.Errorf("%w: circular array needs m >= 1 and radius > 0, got m=%d r=%g",
			ErrInvalidConfig, m, radius)
	}

	mics := make([]Point, m)
	for i := range mics {
		a := phi + 2*math.Pi*float64(i)/float64(m)
		mics[i] = Point{center[0] + radius*math.Cos(a), center[1] + radius*math.Sin(a)}
	}

	return NewArray(mics...)
}

// Len returns the number of microphones.
func (a Array) Len() int { return len(a.mics) }

// Dim returns the spatial dimension shared by all microphones.
func (a Array) Dim() int { return a.dim }

// Mic returns a copy of the position of microphone i.
func (a Array) Mic(i int) Point { return a.mics[i].clone() }

// Positions returns copies of all microphone positions.
func (a Array) Positions() []Point {
	out := make([]Point, len(a.mics))
	for i, p := range a.mics {
		out[i] = p.clone()
	}
	return out
}

// Center returns the centroid of the array.
func (a Array) Center() Point {
	c := make(Point, a.dim)
	if len(a.mics) == 0 {
		return c
	}
	for _, p := range a.mics {
		floats.Add(c, p)
	}
	floats.Scale(1/float64(len(a.mics)), c)
	return c
}

// Class tells whether an image belongs to the desired source or to an
// interferer.
type Class int

const (
	ClassDesired Class = iota
	ClassInterferer
)

func (c Class) String() string {
	switch c {
	case ClassDesired:
		return "desired"
	case ClassInterferer:
		return "interferer"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Image is a virtual source: the physical source itself (Order 0) or one of
// its mirror images across the room walls.
type Image struct {
	Position Point
	Source   int     // id of the physical source
	Order    int     // reflection order, 0 is the direct path
	Gain     float64 // extra attenuation from wall absorption; 0 means 1
	Delay    float64 // seconds added to the propagation delay
}

func (img Image) gain() float64 {
	if img.Gain == 0 {
		return 1
	}
	return img.Gain
}
