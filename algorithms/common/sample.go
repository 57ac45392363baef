package common

// Sample is any numeric type a signal buffer may be stored as. Integer PCM
// and floating point samples are both accepted and widened to float64 before
// any transform is applied.
type Sample interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ToFloat64 converts a sample buffer to a freshly allocated []float64
func ToFloat64[T Sample](samples []T) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

// ToComplex converts a sample buffer to complex amplitudes with a zero
// imaginary part
func ToComplex[T Sample](samples []T) []complex128 {
	out := make([]complex128, len(samples))
	for i, s := range samples {
		out[i] = complex(float64(s), 0)
	}
	return out
}
