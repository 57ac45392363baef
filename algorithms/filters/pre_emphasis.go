package filters

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-stft/algorithms/common"
)

// DefaultPreEmphasis is the coefficient used for speech front ends
const DefaultPreEmphasis = 0.97

// PreEmphasis implements a first-order pre-emphasis filter. It boosts the
// high frequency band of a signal before spectral analysis, which offsets
// the larger amplitude of low frequency content.
//
// The filter implements the transfer function:
// H(z) = 1 - α*z^-1
//
// With the difference equation:
// y[n] = x[n] - α*x[n-1]
//
// The sample before the first is taken to be zero, so y[0] = x[0].
//
// References:
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 4
type PreEmphasis struct {
	coefficient float64 // Pre-emphasis coefficient α
	lastSample  float64 // Previous input sample x[n-1]
}

// NewPreEmphasis creates a pre-emphasis filter with the given coefficient.
// Typical values lie between 0.9 and 0.99.
func NewPreEmphasis(coefficient float64) *PreEmphasis {
	return &PreEmphasis{coefficient: coefficient}
}

// NewPreEmphasisDefault creates a pre-emphasis filter with the standard
// coefficient (0.97).
func NewPreEmphasisDefault() *PreEmphasis {
	return NewPreEmphasis(DefaultPreEmphasis)
}

// Process applies pre-emphasis to a single sample.
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer applies pre-emphasis to a buffer of samples. State carries
// over between calls, so consecutive buffers filter as one signal.
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state.
// Call this when processing discontinuous audio segments.
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0.0
}

// SetCoefficient updates the pre-emphasis coefficient.
func (pe *PreEmphasis) SetCoefficient(coefficient float64) error {
	if err := ValidateCoefficient(coefficient); err != nil {
		return err
	}
	pe.coefficient = coefficient
	return nil
}

// Coefficient returns the pre-emphasis coefficient.
func (pe *PreEmphasis) Coefficient() float64 {
	return pe.coefficient
}

// FrequencyResponse computes the magnitude and phase response at a frequency.
// H(e^jw) = 1 - α*e^-jw
func (pe *PreEmphasis) FrequencyResponse(frequency float64, sampleRate int) (magnitude, phase float64) {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)

	re := 1.0 - pe.coefficient*math.Cos(w)
	im := pe.coefficient * math.Sin(w)

	return math.Hypot(re, im), math.Atan2(im, re)
}

// ValidateCoefficient reports whether a coefficient lies in [0, 1)
func ValidateCoefficient(coefficient float64) error {
	if math.IsNaN(coefficient) || coefficient < 0.0 || coefficient >= 1.0 {
		return fmt.Errorf("pre-emphasis coefficient must be in [0, 1), got %g", coefficient)
	}
	return nil
}

// Apply returns a pre-emphasised copy of signal. The input is not modified.
func Apply[T common.Sample](signal []T, coefficient float64) []float64 {
	return NewPreEmphasis(coefficient).ProcessBuffer(common.ToFloat64(signal))
}
