package spectral

import (
	"fmt"
	"math/rand"
	"testing"
)

// kb is the number of float32 samples in a kilobyte
const kb = 1024 / 4

func benchmarkSignal() []float32 {
	rng := rand.New(rand.NewSource(1))
	signal := make([]float32, 8*kb)
	for i := range signal {
		signal[i] = float32(rng.Float64()*2 - 1)
	}
	return signal
}

func BenchmarkSTFT(b *testing.B) {
	signal := benchmarkSignal()
	stft := NewSTFT()

	for _, size := range []int{kb / 4, kb / 2, kb, 2 * kb, 4 * kb, 8 * kb} {
		b.Run(fmt.Sprint(size), func(b *testing.B) {
			b.SetBytes(int64(size * 4))
			for b.Loop() {
				Run(stft, signal[:size])
			}
		})
	}
}

func BenchmarkSTFTBackends(b *testing.B) {
	signal := benchmarkSignal()

	for _, backend := range []Backend{BackendGoDSP, BackendGonum} {
		for _, workers := range []int{1, 0} {
			stft := NewSTFTBuilder().
				SetFFTSize(1024).
				SetWindowLength(640).
				SetHopLength(160).
				SetBackend(backend).
				SetWorkers(workers).
				Build()

			b.Run(fmt.Sprintf("%s/workers=%d", backend, workers), func(b *testing.B) {
				b.SetBytes(int64(len(signal) * 4))
				for b.Loop() {
					Run(stft, signal)
				}
			})
		}
	}
}
