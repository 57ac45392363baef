package windowing

import "fmt"

// Kind identifies a window function shape. The set of kinds is closed; every
// switch over Kind must handle each constant.
type Kind string

const (
	KindHann Kind = "hann"
)

// ParseKind returns the Kind for a window name
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindHann:
		return KindHann, nil
	default:
		return "", fmt.Errorf("unsupported window type: %q", name)
	}
}

// Algorithm is a window function parameterised by its length. It is a small
// comparable value and can be copied freely.
type Algorithm struct {
	kind   Kind
	length int
}

// New creates a window algorithm of the given kind and length
func New(kind Kind, length int) Algorithm {
	return Algorithm{kind: kind, length: length}
}

// Kind returns the window shape
func (a Algorithm) Kind() Kind {
	return a.kind
}

// Length returns the window length the coefficients are computed for
func (a Algorithm) Length() int {
	return a.length
}

// String implements fmt.Stringer
func (a Algorithm) String() string {
	return fmt.Sprintf("%s(%d)", a.kind, a.length)
}

// Value returns the window coefficient at position x. Positions are real
// valued so the same routine serves both real and complex inputs.
//
// Value panics if the window length is zero.
func (a Algorithm) Value(x float64) float64 {
	switch a.kind {
	case KindHann:
		return hann(a.length, x)
	default:
		panic(fmt.Sprintf("windowing: unknown window kind %q", a.kind))
	}
}

// Run windows a complex position, applying the window formula to the real and
// imaginary parts independently.
func (a Algorithm) Run(n complex128) complex128 {
	switch a.kind {
	case KindHann:
		if a.length == 1 {
			// A single-tap window is the identity, not a tapered position.
			return complex(1, 0)
		}
	}
	return complex(a.Value(real(n)), a.Value(imag(n)))
}

// Coefficients evaluates the window at positions 0..n-1
func (a Algorithm) Coefficients(n int) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = a.Value(float64(i))
	}
	return coeffs
}
