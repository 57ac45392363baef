package spectral

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-stft/algorithms/common"
	"github.com/RyanBlaney/sonido-stft/algorithms/windowing"
	"github.com/RyanBlaney/sonido-stft/logging"
)

const defaultFFTSize = 2048

type optional[T comparable] struct {
	value T
	set   bool
}

func some[T comparable](v T) optional[T] {
	return optional[T]{value: v, set: true}
}

func (o optional[T]) or(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// STFTBuilder builds an STFT descriptor. Unset parameters are derived from
// the ones that are set, following librosa's conventions:
//
//	n_fft       2048
//	win_length  n_fft
//	hop_length  win_length / 4
//	centred     true
//	pad_mode    Reflect
//	window      Hann(win_length)
//
// Each setter returns an updated copy, so a builder can be used as a template.
type STFTBuilder struct {
	nFFT      int
	winLength optional[int]
	hopLength optional[int]
	window    optional[windowing.Algorithm]
	centred   optional[bool]
	padMode   optional[PadMode]
	workers   optional[int]
	backend   optional[Backend]
}

// NewSTFTBuilder creates a builder with every parameter unset
func NewSTFTBuilder() STFTBuilder {
	return STFTBuilder{nFFT: defaultFFTSize}
}

// SetFFTSize sets the FFT size. Non-positive sizes fall back to 2048.
func (b STFTBuilder) SetFFTSize(n int) STFTBuilder {
	b.nFFT = n
	return b
}

// SetWindowLength sets the number of samples the window covers. Non-positive
// lengths are treated as unset.
func (b STFTBuilder) SetWindowLength(n int) STFTBuilder {
	if n > 0 {
		b.winLength = some(n)
	} else {
		b.winLength = optional[int]{}
	}
	return b
}

// SetHopLength sets the stride between successive frames. Non-positive
// lengths are treated as unset.
func (b STFTBuilder) SetHopLength(n int) STFTBuilder {
	if n > 0 {
		b.hopLength = some(n)
	} else {
		b.hopLength = optional[int]{}
	}
	return b
}

// SetWindowingAlgorithm sets the window function
func (b STFTBuilder) SetWindowingAlgorithm(alg windowing.Algorithm) STFTBuilder {
	b.window = some(alg)
	return b
}

// SetCentred sets whether the signal is padded so frame t is centred on
// sample t*hop_length
func (b STFTBuilder) SetCentred(centred bool) STFTBuilder {
	b.centred = some(centred)
	return b
}

// SetPaddingMode sets how a centred signal is extended at its boundaries
func (b STFTBuilder) SetPaddingMode(mode PadMode) STFTBuilder {
	b.padMode = some(mode)
	return b
}

// SetWorkers sets how many goroutines share the per-frame FFTs. 1 runs
// sequentially (the default); zero or less picks a count from the CPU count
// and the number of frames.
func (b STFTBuilder) SetWorkers(n int) STFTBuilder {
	b.workers = some(n)
	return b
}

// SetBackend selects the FFT implementation
func (b STFTBuilder) SetBackend(backend Backend) STFTBuilder {
	b.backend = some(backend)
	return b
}

// Build validates the parameters and returns the STFT descriptor
func (b STFTBuilder) Build() STFT {
	nFFT := b.nFFT
	if nFFT <= 0 {
		nFFT = defaultFFTSize
	}

	winLength := b.winLength.or(nFFT)
	if winLength > nFFT {
		logging.Warn("window length exceeds fft size, clamping", logging.Fields{
			"component":  "stft_builder",
			"win_length": winLength,
			"n_fft":      nFFT,
		})
		winLength = nFFT
	}

	hopLength := b.hopLength.or(winLength / 4)
	if hopLength < 1 {
		hopLength = 1
	}

	return STFT{
		nFFT:      nFFT,
		hopLength: hopLength,
		winLength: winLength,
		window:    b.window.or(windowing.Hann(winLength)),
		centred:   b.centred.or(true),
		padMode:   b.padMode.or(Reflect),
		workers:   b.workers.or(1),
		backend:   b.backend.or(BackendGoDSP),
	}
}

// STFT describes a short-time Fourier transform. It is an immutable value:
// copy it freely and run it from any number of goroutines.
type STFT struct {
	nFFT      int
	hopLength int
	winLength int
	window    windowing.Algorithm
	centred   bool
	padMode   PadMode
	workers   int
	backend   Backend
}

// NewSTFT returns the default descriptor, tuned for 16 kHz audio: a 1024
// point FFT over 40 ms Hann windows with a 10 ms hop.
func NewSTFT() STFT {
	const sampleRate = 16000
	winLength := sampleRate / 25
	return STFT{
		nFFT:      1024,
		hopLength: sampleRate / 100,
		winLength: winLength,
		window:    windowing.Hann(winLength),
		centred:   true,
		padMode:   Reflect,
		workers:   1,
		backend:   BackendGoDSP,
	}
}

// FFTSize returns n_fft
func (s STFT) FFTSize() int { return s.nFFT }

// HopLength returns the stride between frames in samples
func (s STFT) HopLength() int { return s.hopLength }

// WindowLength returns the window length in samples
func (s STFT) WindowLength() int { return s.winLength }

// Window returns the window function
func (s STFT) Window() windowing.Algorithm { return s.window }

// Centred reports whether frames are centred on their sample index
func (s STFT) Centred() bool { return s.centred }

// PadMode returns the boundary padding used when centred
func (s STFT) PadMode() PadMode { return s.padMode }

// Workers returns the configured worker count
func (s STFT) Workers() int { return s.workers }

// Backend returns the FFT backend
func (s STFT) Backend() Backend { return s.backend }

// Bins returns the number of frequency bins in a result, n_fft/2 + 1
func (s STFT) Bins() int {
	return s.nFFT/2 + 1
}

// FrameCount returns the number of frames produced for a signal of the given
// length, or 0 if the signal is too short to produce one.
func (s STFT) FrameCount(signalLength int) int {
	return frameCount(s.paddedLength(signalLength), s.nFFT, s.hopLength)
}

func (s STFT) padWidth() int {
	if s.centred && s.padMode == Reflect {
		return s.nFFT / 2
	}
	return 0
}

func (s STFT) paddedLength(signalLength int) int {
	return signalLength + 2*s.padWidth()
}

func frameCount(paddedLength, nFFT, hopLength int) int {
	span := paddedLength - nFFT + 1
	if span < 1 {
		return 0
	}
	return (span + hopLength - 1) / hopLength
}

// Run computes the STFT of a signal with this descriptor. See the package
// level Run.
func (s STFT) Run(signal []float64) (*mat.CDense, bool) {
	return Run(s, signal)
}

// Run computes the short-time Fourier transform of signal. The result has
// one row per frequency bin (n_fft/2 + 1) and one column per frame.
//
// ok is false when the signal is too short to transform: fewer than two
// samples, or (without padding) fewer than n_fft samples.
//
// Run panics if the window algorithm has zero length.
func Run[T common.Sample](s STFT, signal []T) (result *mat.CDense, ok bool) {
	if len(signal) < 2 {
		return nil, false
	}

	input := common.ToComplex(signal)
	if s.centred {
		input = Pad(input, s.nFFT/2, s.padMode)
	}

	window := s.windowVector()

	frames := frameCount(len(input), s.nFFT, s.hopLength)
	if frames < 1 {
		logging.Debug("signal shorter than one frame", logging.Fields{
			"component":     "stft",
			"signal_length": len(signal),
			"n_fft":         s.nFFT,
		})
		return nil, false
	}

	rows := s.Bins()
	result = mat.NewCDense(rows, frames, nil)

	workers := s.workerCount(frames)
	if workers == 1 {
		s.transformFrames(result, input, window, 0, frames)
	} else {
		p := pool.New().WithMaxGoroutines(workers)
		chunk := (frames + workers - 1) / workers
		for from := 0; from < frames; from += chunk {
			to := min(from+chunk, frames)
			p.Go(func() {
				s.transformFrames(result, input, window, from, to)
			})
		}
		p.Wait()
	}

	logging.Debug("stft computed", logging.Fields{
		"component":     "stft",
		"signal_length": len(signal),
		"padded_length": len(input),
		"bins":          rows,
		"frames":        frames,
		"workers":       workers,
		"backend":       string(s.backend),
	})

	return result, true
}

// transformFrames writes columns [from, to) of dst. Frame f covers
// input[f*hop : f*hop+n_fft], scaled tap by tap by the window vector; only
// the non-mirrored half of its spectrum is kept.
func (s STFT) transformFrames(dst *mat.CDense, input, window []complex128, from, to int) {
	rows, _ := dst.Dims()
	fft := NewFFT(s.nFFT, s.backend)
	frame := make([]complex128, s.nFFT)
	spectrum := make([]complex128, s.nFFT)

	for col := from; col < to; col++ {
		start := col * s.hopLength
		for i := range frame {
			frame[i] = input[start+i] * window[i]
		}

		fft.Compute(spectrum, frame)

		for row := range rows {
			dst.Set(row, col, spectrum[row])
		}
	}
}

// windowVector returns the n_fft window taps. A window shorter than n_fft is
// centred in a zero-filled vector.
func (s STFT) windowVector() []complex128 {
	win := make([]complex128, s.winLength)
	for i := range win {
		win[i] = s.window.Run(complex(float64(i), 0))
	}

	if s.winLength == s.nFFT {
		return win
	}

	padded := make([]complex128, s.nFFT)
	start := (s.nFFT - s.winLength) / 2
	copy(padded[start:start+s.winLength], win)
	return padded
}

func (s STFT) workerCount(frames int) int {
	workers := s.workers
	if workers <= 0 {
		workers = optimalWorkerCount(frames)
	}
	return max(1, min(workers, frames))
}

// optimalWorkerCount determines the number of workers based on workload
func optimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
