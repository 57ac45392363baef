package spectral

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-stft/algorithms/common"
)

// Spectrum computes the magnitude spectrogram of a signal. It is
// SpectrumWithPower with a power of 1.
func Spectrum[T common.Sample](signal []T, stft STFT) (*mat.Dense, bool) {
	return SpectrumWithPower(signal, stft, 1.0)
}

// SpectrumWithPower computes |STFT(signal)|^power. A power of 1 gives the
// magnitude spectrogram and 2 the power spectrogram.
//
// ok is false when the signal is too short for the STFT to produce a frame.
func SpectrumWithPower[T common.Sample](signal []T, stft STFT, power float64) (*mat.Dense, bool) {
	result, ok := Run(stft, signal)
	if !ok {
		return nil, false
	}

	mag := Magnitude(result)
	if power != 1.0 {
		mag.Apply(func(_, _ int, v float64) float64 {
			return math.Pow(v, power)
		}, mag)
	}
	return mag, true
}

// ToDecibels converts a spectrogram holding |X|^power to decibels relative to
// a unit amplitude, 10*log10(|X|^2). Entries quieter than floorDB are raised
// to floorDB. power must be positive.
func ToDecibels(spectrogram mat.Matrix, power, floorDB float64) *mat.Dense {
	r, c := spectrogram.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}

	scale := 20.0 / power
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		db := scale * math.Log10(v)
		if math.IsNaN(db) || db < floorDB {
			return floorDB
		}
		return db
	}, spectrogram)
	return out
}
