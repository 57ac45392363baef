package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stft/internal/config"
)

// Descriptor is the effective transform configuration
type Descriptor struct {
	FFTSize   int    `json:"n_fft" yaml:"n_fft"`
	WinLength int    `json:"win_length" yaml:"win_length"`
	HopLength int    `json:"hop_length" yaml:"hop_length"`
	Window    string `json:"window" yaml:"window"`
	Centred   bool   `json:"centred" yaml:"centred"`
	PadMode   string `json:"pad_mode" yaml:"pad_mode"`
	Workers   int    `json:"workers" yaml:"workers"`
	Backend   string `json:"backend" yaml:"backend"`
	Bins      int    `json:"bins" yaml:"bins"`
}

func describe(s spectral.STFT) Descriptor {
	return Descriptor{
		FFTSize:   s.FFTSize(),
		WinLength: s.WindowLength(),
		HopLength: s.HopLength(),
		Window:    s.Window().String(),
		Centred:   s.Centred(),
		PadMode:   string(s.PadMode()),
		Workers:   s.Workers(),
		Backend:   string(s.Backend()),
		Bins:      s.Bins(),
	}
}

// AudioInfo summarises the decoded input
type AudioInfo struct {
	File            string  `json:"file" yaml:"file"`
	Format          string  `json:"format" yaml:"format"`
	SampleRate      int     `json:"sample_rate" yaml:"sample_rate"`
	SourceChannels  int     `json:"source_channels" yaml:"source_channels"`
	Samples         int     `json:"samples" yaml:"samples"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	RMS             float64 `json:"rms" yaml:"rms"`
	Power           float64 `json:"power" yaml:"power"`
	PreEmphasis     float64 `json:"preemphasis,omitempty" yaml:"preemphasis,omitempty"`
}

// Report is the document written by the spectrogram and stft commands
type Report struct {
	Command             string     `json:"command" yaml:"command"`
	Audio               AudioInfo  `json:"audio" yaml:"audio"`
	STFT                Descriptor `json:"stft" yaml:"stft"`
	Frames              int        `json:"frames" yaml:"frames"`
	FrequencyResolution float64    `json:"frequency_resolution_hz" yaml:"frequency_resolution_hz"`
	TimeResolution      float64    `json:"time_resolution_s" yaml:"time_resolution_s"`
	Scale               string     `json:"scale,omitempty" yaml:"scale,omitempty"`
	Spectrogram         *Matrix    `json:"spectrogram,omitempty" yaml:"spectrogram,omitempty"`
	Magnitude           *Matrix    `json:"magnitude,omitempty" yaml:"magnitude,omitempty"`
	Phase               *Matrix    `json:"phase,omitempty" yaml:"phase,omitempty"`

	Descriptors *spectral.FrameDescriptors `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

// Matrix is a bins x frames grid written with a fixed number of significant
// digits. NaN and infinite values become null in JSON.
type Matrix struct {
	Rows      [][]float64
	Precision int
}

func newMatrix(m mat.Matrix, precision int) *Matrix {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return &Matrix{Rows: rows, Precision: precision}
}

func (m *Matrix) format(v float64) string {
	return strconv.FormatFloat(v, 'g', m.Precision, 64)
}

// MarshalJSON implements json.Marshaler
func (m *Matrix) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range m.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				buf.WriteString("null")
				continue
			}
			buf.WriteString(m.format(v))
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler
func (m *Matrix) MarshalYAML() (any, error) {
	rows := make([][]float64, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			rounded, err := strconv.ParseFloat(m.format(v), 64)
			if err != nil {
				rounded = v
			}
			rows[i][j] = rounded
		}
	}
	return rows, nil
}

func writeReport(w io.Writer, format string, r *Report) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case config.FormatYAML:
		return writeYAML(w, r)
	case config.FormatCSV:
		return writeReportCSV(w, r)
	default:
		return fmt.Errorf("%w: unknown output format %q", config.ErrInvalidConfig, format)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeReportCSV writes one row per (quantity, bin) with one column per frame
func writeReportCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	header := []string{"quantity", "bin", "frequency_hz"}
	for f := range r.Frames {
		header = append(header, fmt.Sprintf("frame_%d", f))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	quantities := []struct {
		name string
		m    *Matrix
	}{
		{r.Scale, r.Spectrogram},
		{"magnitude", r.Magnitude},
		{"phase", r.Phase},
	}
	for _, q := range quantities {
		if q.m == nil {
			continue
		}
		for bin, row := range q.m.Rows {
			record := []string{
				q.name,
				strconv.Itoa(bin),
				strconv.FormatFloat(float64(bin)*r.FrequencyResolution, 'g', -1, 64),
			}
			for _, v := range row {
				record = append(record, q.m.format(v))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
