package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/RyanBlaney/sonido-stft/logging"
)

var (
	// ErrUnsupportedFormat is returned for files no decoder understands
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrEmptyAudio is returned when a file decodes to zero samples
	ErrEmptyAudio = errors.New("no audio samples decoded")
)

// Format names a container/codec the decoder can read
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOgg  Format = "ogg"
	FormatAIFF Format = "aiff"
)

// FormatFromPath detects the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga":
		return FormatOgg, nil
	case ".aif", ".aiff":
		return FormatAIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// AudioData represents decoded audio data
type AudioData struct {
	PCM            []float64     `json:"-" yaml:"-"` // Interleaved samples in [-1, 1]
	SampleRate     int           `json:"sample_rate" yaml:"sample_rate"`
	Channels       int           `json:"channels" yaml:"channels"`
	SourceChannels int           `json:"source_channels" yaml:"source_channels"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
	Format         Format        `json:"format" yaml:"format"`
}

// Frames returns the number of samples per channel
func (a *AudioData) Frames() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.PCM) / a.Channels
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	// TargetChannels of 1 mixes every frame down to mono. 0 keeps the
	// source layout.
	TargetChannels int `json:"target_channels"`
	// MaxDuration truncates the decoded audio. 0 means no limit.
	MaxDuration time.Duration `json:"max_duration"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetChannels: 1,
		MaxDuration:    0,
	}
}

// Decoder decodes audio files into float64 PCM
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// ValidateConfig checks the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetChannels != 0 && d.config.TargetChannels != 1 {
		return fmt.Errorf("target channels must be 0 (keep) or 1 (mono), got %d", d.config.TargetChannels)
	}
	if d.config.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative, got %v", d.config.MaxDuration)
	}
	return nil
}

// GetSupportedFormats returns the formats this decoder reads
func (d *Decoder) GetSupportedFormats() []Format {
	return []Format{FormatWAV, FormatMP3, FormatOgg, FormatAIFF}
}

// DecodeFile decodes an audio file, choosing the codec by extension
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	format, err := FormatFromPath(filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	data, err := d.DecodeReader(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return data, nil
}

// DecodeReader decodes a stream of the given format
func (d *Decoder) DecodeReader(r io.Reader, format Format) (*AudioData, error) {
	if err := d.ValidateConfig(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"format":    string(format),
	})

	var (
		pcm        []float64
		sampleRate int
		channels   int
		err        error
	)

	switch format {
	case FormatWAV:
		pcm, sampleRate, channels, err = decodeWAV(r)
	case FormatMP3:
		pcm, sampleRate, channels, err = decodeMP3(r)
	case FormatOgg:
		pcm, sampleRate, channels, err = decodeOgg(r)
	case FormatAIFF:
		pcm, sampleRate, channels, err = decodeAIFF(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	audio, err := d.newAudioData(pcm, sampleRate, channels, format)
	if err != nil {
		return nil, err
	}

	logger.Debug("audio decoded", logging.Fields{
		"sample_rate":     audio.SampleRate,
		"source_channels": audio.SourceChannels,
		"channels":        audio.Channels,
		"frames":          audio.Frames(),
		"duration":        audio.Duration.String(),
	})

	return audio, nil
}

func (d *Decoder) newAudioData(pcm []float64, sampleRate, channels int, format Format) (*AudioData, error) {
	if channels < 1 || sampleRate < 1 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, channels, sampleRate)
	}

	// drop a trailing partial frame
	pcm = pcm[:len(pcm)/channels*channels]

	if d.config.MaxDuration > 0 {
		maxFrames := int(d.config.MaxDuration.Seconds() * float64(sampleRate))
		if maxFrames*channels < len(pcm) {
			pcm = pcm[:maxFrames*channels]
		}
	}

	if len(pcm) == 0 {
		return nil, ErrEmptyAudio
	}

	out := &AudioData{
		PCM:            pcm,
		SampleRate:     sampleRate,
		Channels:       channels,
		SourceChannels: channels,
		Format:         format,
	}
	if d.config.TargetChannels == 1 && channels > 1 {
		out.PCM = MixToMono(pcm, channels)
		out.Channels = 1
	}
	out.Duration = time.Duration(out.Frames()) * time.Second / time.Duration(sampleRate)

	return out, nil
}

// MixToMono averages interleaved frames into a single channel
func MixToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	mono := make([]float64, len(interleaved)/channels)
	for i := range mono {
		var sum float64
		for _, s := range interleaved[i*channels : (i+1)*channels] {
			sum += s
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func decodeWAV(r io.Reader) ([]float64, int, int, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read wav data: %w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: invalid wav file", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, 0, 0, fmt.Errorf("%w: wav encoding %d is not integer PCM", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read wav samples: %w", err)
	}

	pcm, err := scalePCM(buf, int(dec.BitDepth), unsigned8)
	if err != nil {
		return nil, 0, 0, err
	}
	return pcm, int(dec.SampleRate), int(dec.NumChans), nil
}

func decodeAIFF(r io.Reader) ([]float64, int, int, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read aiff data: %w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: invalid aiff file", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read aiff samples: %w", err)
	}

	pcm, err := scalePCM(buf, int(dec.BitDepth), signed8)
	if err != nil {
		return nil, 0, 0, err
	}
	return pcm, dec.SampleRate, int(dec.NumChans), nil
}

// byteSample says how a container stores 8 bit samples. go-audio hands both
// layouts back as the raw byte value 0..255.
type byteSample int

const (
	unsigned8 byteSample = iota // wav: offset binary, 128 is silence
	signed8                     // aiff: two's complement
)

// scalePCM maps integer samples of the given bit depth into [-1, 1)
func scalePCM(buf *audio.IntBuffer, bitDepth int, layout byteSample) ([]float64, error) {
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d bit samples", ErrUnsupportedFormat, bitDepth)
	}

	scale := float64(int64(1) << (bitDepth - 1))
	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			if layout == signed8 {
				v = int(int8(uint8(v)))
			} else {
				v -= 128
			}
		}
		pcm[i] = float64(v) / scale
	}
	return pcm, nil
}

// go-mp3 always produces 16 bit little endian stereo
const mp3Channels = 2

func decodeMP3(r io.Reader) ([]float64, int, int, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read mp3 samples: %w", err)
	}

	pcm := make([]float64, len(raw)/2)
	for i := range pcm {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		pcm[i] = float64(v) / 32768.0
	}

	return pcm, dec.SampleRate(), mp3Channels, nil
}

func decodeOgg(r io.Reader) ([]float64, int, int, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	pcm := make([]float64, len(samples))
	for i, s := range samples {
		pcm[i] = float64(s)
	}

	return pcm, format.SampleRate, format.Channels, nil
}
