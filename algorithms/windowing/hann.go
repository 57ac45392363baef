package windowing

import "math"

// Hann creates a Hann window of the given length
func Hann(length int) Algorithm {
	return New(KindHann, length)
}

// hann evaluates the Hann function of a window with the given length at
// position x. Odd lengths give the periodic Hann window (scipy fftbins=True).
// Even lengths use length+1 as the period, so they are deliberately not the
// periodic window of the same length.
func hann(length int, x float64) float64 {
	switch length {
	case 0:
		panic("windowing: window length cannot be zero")
	case 1:
		return 1.0
	}

	m := float64(length)
	if length%2 == 0 {
		m = float64(length + 1)
	}

	return 0.5 - 0.5*math.Cos(2*math.Pi*x/m)
}
