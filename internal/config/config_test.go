package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stft/algorithms/windowing"
	"github.com/RyanBlaney/sonido-stft/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sonido-stft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func validConfig() Config {
	return Config{
		LogLevel: "info",
		STFT: STFTConfig{
			FFTSize:   512,
			WinLength: 400,
			HopLength: 100,
			Window:    "hann",
			Centred:   true,
			PadMode:   "reflect",
			Workers:   1,
			Backend:   "go-dsp",
		},
		Spectrum:    SpectrumConfig{Power: 2, FloorDB: -100, Rolloff: 0.85},
		PreEmphasis: PreEmphasisConfig{Enabled: true, Coefficient: 0.97},
		Output:      OutputConfig{Format: FormatCSV, Precision: 4},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, STFTConfig{
		FFTSize:   1024,
		WinLength: 0,
		HopLength: 0,
		Window:    "hann",
		Centred:   true,
		PadMode:   "reflect",
		Workers:   1,
		Backend:   "go-dsp",
	}, cfg.STFT)
	assert.Equal(t, 1.0, cfg.Spectrum.Power)
	assert.False(t, cfg.Spectrum.Decibels)
	assert.Equal(t, 0.85, cfg.Spectrum.Rolloff)
	assert.False(t, cfg.PreEmphasis.Enabled)
	assert.Equal(t, FormatJSON, cfg.Output.Format)

	stft, err := cfg.BuildSTFT()
	require.NoError(t, err)
	assert.Equal(t, spectral.NewSTFT(), stft)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
stft:
  n_fft: 256
  win_length: 200
  hop_length: 0
  centred: false
  pad_mode: none
  workers: 4
  backend: gonum
spectrum:
  power: 2
  db: true
  floor_db: -90
preemphasis:
  enabled: true
  coefficient: 0.95
output:
  format: yaml
`)

	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, logging.DebugLevel, cfg.Level())
	assert.Equal(t, 256, cfg.STFT.FFTSize)
	assert.Equal(t, "hann", cfg.STFT.Window, "unset keys keep their defaults")
	assert.True(t, cfg.Spectrum.Decibels)
	assert.Equal(t, -90.0, cfg.Spectrum.FloorDB)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	assert.Equal(t, 6, cfg.Output.Precision)

	stft, err := cfg.BuildSTFT()
	require.NoError(t, err)
	assert.Equal(t, 256, stft.FFTSize())
	assert.Equal(t, 200, stft.WindowLength())
	assert.Equal(t, 50, stft.HopLength())
	assert.False(t, stft.Centred())
	assert.Equal(t, spectral.NoPad, stft.PadMode())
	assert.Equal(t, 4, stft.Workers())
	assert.Equal(t, spectral.BackendGonum, stft.Backend())
	assert.Equal(t, windowing.Hann(200), stft.Window())

	filter := cfg.PreEmphasisFilter()
	require.NotNil(t, filter)
	assert.Equal(t, 0.95, filter.Coefficient())
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SONIDO_STFT_STFT_N_FFT", "2048")
	t.Setenv("SONIDO_STFT_OUTPUT_FORMAT", "csv")

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.STFT.FFTSize)
	assert.Equal(t, FormatCSV, cfg.Output.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(New(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err, "an explicit config file must exist")

	_, err = Load(New(writeConfig(t, "stft: [not, a, map")))
	assert.Error(t, err)

	_, err = Load(New(writeConfig(t, "stft:\n  backend: fftw\n")))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fft size", func(c *Config) { c.STFT.FFTSize = 0 }},
		{"negative window", func(c *Config) { c.STFT.WinLength = -1 }},
		{"window longer than fft", func(c *Config) { c.STFT.WinLength = 1024 }},
		{"negative hop", func(c *Config) { c.STFT.HopLength = -5 }},
		{"unknown window", func(c *Config) { c.STFT.Window = "kaiser" }},
		{"unknown pad mode", func(c *Config) { c.STFT.PadMode = "wrap" }},
		{"unknown backend", func(c *Config) { c.STFT.Backend = "fftw" }},
		{"zero power", func(c *Config) { c.Spectrum.Power = 0 }},
		{"rolloff above one", func(c *Config) { c.Spectrum.Rolloff = 1.5 }},
		{"bad coefficient", func(c *Config) { c.PreEmphasis.Coefficient = 1.2 }},
		{"unknown format", func(c *Config) { c.Output.Format = "table" }},
		{"negative precision", func(c *Config) { c.Output.Precision = -1 }},
	}

	base := validConfig()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestDisabledPreEmphasisIgnoresCoefficient(t *testing.T) {
	cfg := validConfig()
	cfg.PreEmphasis = PreEmphasisConfig{Enabled: false, Coefficient: 7}

	assert.NoError(t, cfg.Validate())
	assert.Nil(t, cfg.PreEmphasisFilter())
}

func TestBuildSTFTDerivesWindowLength(t *testing.T) {
	cfg := validConfig()
	cfg.STFT.WinLength = 0
	cfg.STFT.HopLength = 0

	stft, err := cfg.BuildSTFT()
	require.NoError(t, err)
	assert.Equal(t, 512, stft.WindowLength())
	assert.Equal(t, 128, stft.HopLength())
	assert.Equal(t, windowing.Hann(512), stft.Window())

	cfg.STFT.FFTSize = 2048
	stft, err = cfg.BuildSTFT()
	require.NoError(t, err)
	assert.Equal(t, 640, stft.WindowLength())
	assert.Equal(t, 160, stft.HopLength())
	assert.Equal(t, windowing.Hann(640), stft.Window())
}

func TestOverridingFFTSizeAloneIsValid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SONIDO_STFT_STFT_N_FFT", "256")

	cfg, err := Load(New(""))
	require.NoError(t, err)

	stft, err := cfg.BuildSTFT()
	require.NoError(t, err)
	assert.Equal(t, 256, stft.FFTSize())
	assert.Equal(t, 256, stft.WindowLength())
	assert.Equal(t, 64, stft.HopLength())
}
