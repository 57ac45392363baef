package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// flatnessFloor keeps silent bins out of the geometric mean
const flatnessFloor = 1e-10

// FrequencyBins returns the centre frequency in Hz of each bin produced by
// the STFT at the given sample rate
func FrequencyBins(s STFT, sampleRate float64) []float64 {
	freqs := make([]float64, s.Bins())
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(s.FFTSize())
	}
	return freqs
}

// SpectralCentroid returns the magnitude-weighted mean frequency of a
// spectrum, or 0 for a silent one
func SpectralCentroid(spectrum, freqs []float64) float64 {
	total := floats.Sum(spectrum)
	if total == 0 {
		return 0
	}
	return floats.Dot(freqs, spectrum) / total
}

// SpectralBandwidth returns the magnitude-weighted standard deviation of
// frequency around centroid
func SpectralBandwidth(spectrum, freqs []float64, centroid float64) float64 {
	numerator := 0.0
	denominator := 0.0
	for i, mag := range spectrum {
		diff := freqs[i] - centroid
		numerator += diff * diff * mag
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}
	return math.Sqrt(numerator / denominator)
}

// SpectralRolloff returns the lowest frequency below which threshold (e.g.
// 0.85) of the spectral energy lies
func SpectralRolloff(spectrum, freqs []float64, threshold float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	totalEnergy := floats.Dot(spectrum, spectrum)
	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := threshold * totalEnergy
	cumulativeEnergy := 0.0
	for i, mag := range spectrum {
		cumulativeEnergy += mag * mag
		if cumulativeEnergy >= targetEnergy {
			return freqs[i]
		}
	}
	return freqs[len(freqs)-1]
}

// SpectralFlatness returns the ratio of the geometric to the arithmetic mean
// of a magnitude spectrum (Wiener entropy). Values near 0 indicate tonal
// content and values near 1 noise.
func SpectralFlatness(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	logSum := 0.0
	validCount := 0
	for _, mag := range spectrum {
		if mag > flatnessFloor {
			logSum += math.Log(mag)
			validCount++
		}
	}
	if validCount == 0 {
		return 0
	}

	arithmeticMean := floats.Sum(spectrum) / float64(len(spectrum))
	if arithmeticMean <= flatnessFloor {
		return 0
	}

	return min(math.Exp(logSum/float64(validCount))/arithmeticMean, 1)
}

// FrameDescriptors holds one value per STFT frame for each descriptor
type FrameDescriptors struct {
	Centroid  []float64 `json:"centroid_hz" yaml:"centroid_hz"`
	Bandwidth []float64 `json:"bandwidth_hz" yaml:"bandwidth_hz"`
	Rolloff   []float64 `json:"rolloff_hz" yaml:"rolloff_hz"`
	Flatness  []float64 `json:"flatness" yaml:"flatness"`
}

// Describe computes the spectral descriptors of every column of a magnitude
// spectrogram (bins x frames). freqs must have one entry per bin.
func Describe(magnitude mat.Matrix, freqs []float64, rolloffThreshold float64) FrameDescriptors {
	bins, frames := magnitude.Dims()
	d := FrameDescriptors{
		Centroid:  make([]float64, frames),
		Bandwidth: make([]float64, frames),
		Rolloff:   make([]float64, frames),
		Flatness:  make([]float64, frames),
	}

	column := make([]float64, bins)
	for t := range frames {
		mat.Col(column, t, magnitude)

		d.Centroid[t] = SpectralCentroid(column, freqs)
		d.Bandwidth[t] = SpectralBandwidth(column, freqs, d.Centroid[t])
		d.Rolloff[t] = SpectralRolloff(column, freqs, rolloffThreshold)
		d.Flatness[t] = SpectralFlatness(column)
	}
	return d
}
