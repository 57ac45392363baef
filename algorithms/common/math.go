package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Power calculates the mean power of a signal, the average of the squared
// samples. An empty signal has zero power.
func Power[T Sample](samples []T) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	data := ToFloat64(samples)
	return floats.Dot(data, data) / float64(len(data))
}

// RMS calculates root mean square
func RMS[T Sample](samples []T) float64 {
	return math.Sqrt(Power(samples))
}

// Energy returns the total energy (sum of squares) of a signal. This is the
// time-domain side of Parseval's theorem and is what reference comparisons
// scale their tolerance by.
func Energy[T Sample](samples []T) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	data := ToFloat64(samples)
	return floats.Dot(data, data)
}
