package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func chirp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i) / float64(n)
		out[i] = math.Sin(2 * math.Pi * (5 + 40*x) * x * 10)
	}
	return out
}

func TestSpectrumIsMagnitude(t *testing.T) {
	stft := NewSTFTBuilder().SetFFTSize(64).Build()
	signal := chirp(1000)

	result, ok := Run(stft, signal)
	require.True(t, ok)

	spectrogram, ok := Spectrum(signal, stft)
	require.True(t, ok)
	assert.True(t, mat.Equal(Magnitude(result), spectrogram))
}

func TestSpectrumWithPower(t *testing.T) {
	stft := NewSTFTBuilder().SetFFTSize(64).SetHopLength(10).Build()
	signal := chirp(777)

	mag, ok := SpectrumWithPower(signal, stft, 1.0)
	require.True(t, ok)

	for _, power := range []float64{0.5, 2, 3} {
		spectrogram, ok := SpectrumWithPower(signal, stft, power)
		require.True(t, ok)

		r, c := spectrogram.Dims()
		mr, mc := mag.Dims()
		require.Equal(t, mr, r)
		require.Equal(t, mc, c)

		for i := range r {
			for j := range c {
				want := math.Pow(mag.At(i, j), power)
				assert.InDelta(t, want, spectrogram.At(i, j), 1e-9*(1+want), "power=%v", power)
			}
		}
	}
}

func TestSpectrumNoResult(t *testing.T) {
	stft := NewSTFTBuilder().SetFFTSize(16).Build()

	spectrogram, ok := Spectrum([]float64{0.5}, stft)
	assert.False(t, ok)
	assert.Nil(t, spectrogram)

	_, ok = SpectrumWithPower([]int32{}, stft, 2)
	assert.False(t, ok)
}

func TestToDecibels(t *testing.T) {
	magnitude := mat.NewDense(1, 4, []float64{1, 10, 0.001, 0})

	db := ToDecibels(magnitude, 1, -80)
	assert.InDelta(t, 0, db.At(0, 0), 1e-12)
	assert.InDelta(t, 20, db.At(0, 1), 1e-12)
	assert.InDelta(t, -60, db.At(0, 2), 1e-12)
	assert.Equal(t, -80.0, db.At(0, 3))

	power := mat.NewDense(1, 2, []float64{100, 1e-12})
	db = ToDecibels(power, 2, -100)
	assert.InDelta(t, 20, db.At(0, 0), 1e-12)
	assert.Equal(t, -100.0, db.At(0, 1))

	assert.True(t, ToDecibels(&mat.Dense{}, 1, -80).IsEmpty())
}
