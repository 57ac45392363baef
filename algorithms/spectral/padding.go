package spectral

import "fmt"

// PadMode controls how a signal is extended at its boundaries before framing
type PadMode string

const (
	// NoPad leaves the signal untouched
	NoPad PadMode = "none"
	// Reflect mirrors the signal about its first and last samples without
	// repeating the edge sample (numpy "reflect").
	Reflect PadMode = "reflect"
)

// ParsePadMode returns the PadMode for a name
func ParsePadMode(name string) (PadMode, error) {
	switch PadMode(name) {
	case NoPad:
		return NoPad, nil
	case Reflect:
		return Reflect, nil
	default:
		return "", fmt.Errorf("unsupported pad mode: %q", name)
	}
}

// Pad extends signal by width samples on both sides and returns the extended
// slice. Like append, the result may share storage with signal.
//
// Reflect padding walks inward from the end and bounces whenever it reaches
// either boundary, so widths longer than the signal keep reflecting instead
// of failing. The signal must hold at least two samples.
func Pad(signal []complex128, width int, mode PadMode) []complex128 {
	switch mode {
	case NoPad:
		return signal
	case Reflect:
		return reflectPad(signal, width)
	default:
		panic(fmt.Sprintf("spectral: unknown pad mode %q", mode))
	}
}

func reflectPad(arr []complex128, width int) []complex128 {
	if width <= 0 {
		return arr
	}

	// Tail: bounce-walk starting one sample in from the end. The walk reads
	// samples already appended, which continues the reflection past the
	// signal boundary.
	arr = append(make([]complex128, 0, len(arr)+2*width), arr...)
	pos := len(arr) - 2
	delta := -1
	for range width {
		arr = append(arr, arr[pos])

		if pos == 0 {
			delta = 1
		} else if pos == len(arr)-1 {
			delta = -1
		}
		pos += delta
	}

	// Head: the mirror image of samples 1..width of the tail-padded signal
	out := make([]complex128, width+len(arr))
	for i := range width {
		out[width-1-i] = arr[i+1]
	}
	copy(out[width:], arr)
	return out
}
