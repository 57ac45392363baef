package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend selects the library that computes the discrete Fourier transform
type Backend string

const (
	// BackendGoDSP uses mjibson/go-dsp. It handles every length, using
	// Bluestein's algorithm for sizes that are not a power of two.
	BackendGoDSP Backend = "go-dsp"
	// BackendGonum uses gonum's FFTPACK port, which also handles every length.
	BackendGonum Backend = "gonum"
)

// ParseBackend returns the Backend for a name
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case BackendGoDSP, "":
		return BackendGoDSP, nil
	case BackendGonum:
		return BackendGonum, nil
	default:
		return "", fmt.Errorf("unsupported fft backend: %q", name)
	}
}

// FFT computes unnormalised forward complex-to-complex transforms of a fixed
// size. An FFT is not safe for concurrent use; give each goroutine its own.
type FFT struct {
	size    int
	backend Backend
	plan    *fourier.CmplxFFT
}

// NewFFT creates a transform of the given size
func NewFFT(size int, backend Backend) *FFT {
	f := &FFT{
		size:    size,
		backend: backend,
	}
	if backend == BackendGonum {
		f.plan = fourier.NewCmplxFFT(size)
	}
	return f
}

// Size returns the transform length
func (f *FFT) Size() int {
	return f.size
}

// Compute transforms src into dst, which must both have length Size(). dst is
// returned for convenience.
func (f *FFT) Compute(dst, src []complex128) []complex128 {
	if len(src) != f.size || len(dst) != f.size {
		panic(fmt.Sprintf("spectral: fft length mismatch: size %d, src %d, dst %d", f.size, len(src), len(dst)))
	}

	switch f.backend {
	case BackendGonum:
		return f.plan.Coefficients(dst, src)
	default:
		copy(dst, fft.FFT(src))
		return dst
	}
}
