package spectral

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/mat"
)

// epsilon is the float64 machine epsilon
const epsilon = 0x1p-52

// Magnitude returns the elementwise modulus |X| of a complex matrix
func Magnitude(m mat.CMatrix) *mat.Dense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}

	out := mat.NewDense(r, c, nil)
	re := make([]float64, c)
	im := make([]float64, c)
	for i := range r {
		for j := range c {
			v := m.At(i, j)
			re[j] = real(v)
			im[j] = imag(v)
		}
		vecmath.Magnitude(out.RawRowView(i), re, im)
	}
	return out
}

// Phase returns the elementwise angle of a complex matrix in radians.
//
// The angle is computed with the half-angle form 2*atan(im / (|X| + re)),
// which equals atan2(im, re) away from the negative real axis. Values on the
// negative real axis map to Pi. An exact (or sub-epsilon) zero has no defined
// angle and yields NaN, so callers must tolerate NaN entries.
func Phase(m mat.CMatrix) *mat.Dense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}

	out := mat.NewDense(r, c, nil)
	for i := range r {
		row := out.RawRowView(i)
		for j := range c {
			row[j] = phase(m.At(i, j))
		}
	}
	return out
}

func phase(x complex128) float64 {
	re, im := real(x), imag(x)
	switch {
	case re > 0 || math.Abs(im) > epsilon:
		return 2 * math.Atan(im/(cmplx.Abs(x)+re))
	case re < 0:
		return math.Pi
	default:
		return math.NaN()
	}
}
