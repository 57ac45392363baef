package spectral_test

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
)

func ExampleRun() {
	stft := spectral.NewSTFTBuilder().
		SetFFTSize(5).
		SetHopLength(1).
		Build()

	signal := make([]float64, 19)
	for i := range signal {
		signal[i] = float64(i + 1)
	}

	result, ok := stft.Run(signal)
	if !ok {
		return
	}

	bins, frames := result.Dims()
	fmt.Println(bins, frames)
	fmt.Printf("%.4f\n", real(result.At(0, 1)))
	// Output:
	// 3 19
	// 6.2500
}

func ExampleSpectrumWithPower() {
	const sampleRate = 16000
	signal := make([]float64, sampleRate/10)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / sampleRate)
	}

	stft := spectral.NewSTFT()
	power, ok := spectral.SpectrumWithPower(signal, stft, 2)
	if !ok {
		return
	}

	bins, frames := power.Dims()
	peak := 0
	for k := range bins {
		if power.At(k, frames/2) > power.At(peak, frames/2) {
			peak = k
		}
	}
	fmt.Printf("%d bins, %d frames, peak at %.0f Hz\n", bins, frames, float64(peak)*sampleRate/float64(stft.FFTSize()))
	// Output: 513 bins, 11 frames, peak at 1000 Hz
}
