package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-stft/algorithms/filters"
	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stft/algorithms/windowing"
	"github.com/RyanBlaney/sonido-stft/logging"
)

const (
	// AppName names the config file and the config directory
	AppName = "sonido-stft"
	// EnvPrefix prefixes every environment variable read by viper
	EnvPrefix = "SONIDO_STFT"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	STFT        STFTConfig        `mapstructure:"stft"`
	Spectrum    SpectrumConfig    `mapstructure:"spectrum"`
	PreEmphasis PreEmphasisConfig `mapstructure:"preemphasis"`
	Output      OutputConfig      `mapstructure:"output"`
}

// STFTConfig holds the transform parameters. A zero window length is the
// default 40 ms window clipped to n_fft, and a zero hop is a quarter of the
// window, so overriding n_fft alone stays valid.
type STFTConfig struct {
	FFTSize   int    `mapstructure:"n_fft" json:"n_fft" yaml:"n_fft"`
	WinLength int    `mapstructure:"win_length" json:"win_length" yaml:"win_length"`
	HopLength int    `mapstructure:"hop_length" json:"hop_length" yaml:"hop_length"`
	Window    string `mapstructure:"window" json:"window" yaml:"window"`
	Centred   bool   `mapstructure:"centred" json:"centred" yaml:"centred"`
	PadMode   string `mapstructure:"pad_mode" json:"pad_mode" yaml:"pad_mode"`
	Workers   int    `mapstructure:"workers" json:"workers" yaml:"workers"`
	Backend   string `mapstructure:"backend" json:"backend" yaml:"backend"`
}

// SpectrumConfig controls how the spectrogram is scaled
type SpectrumConfig struct {
	Power       float64 `mapstructure:"power" json:"power" yaml:"power"`
	Decibels    bool    `mapstructure:"db" json:"db" yaml:"db"`
	FloorDB     float64 `mapstructure:"floor_db" json:"floor_db" yaml:"floor_db"`
	Descriptors bool    `mapstructure:"descriptors" json:"descriptors" yaml:"descriptors"`
	Rolloff     float64 `mapstructure:"rolloff" json:"rolloff" yaml:"rolloff"`
}

// PreEmphasisConfig enables the pre-emphasis filter ahead of the STFT
type PreEmphasisConfig struct {
	Enabled     bool    `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Coefficient float64 `mapstructure:"coefficient" json:"coefficient" yaml:"coefficient"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Format    string `mapstructure:"format" json:"format" yaml:"format"`
	Precision int    `mapstructure:"precision" json:"precision" yaml:"precision"`
}

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// New returns a viper instance that reads sonido-stft.yaml from the usual
// locations and SONIDO_STFT_* environment variables. configFile, when set,
// replaces the search.
func New(configFile string) *viper.Viper {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// SetDefaults sets default configuration values. The STFT defaults resolve
// to the 16 kHz speech descriptor: 1024 point FFT, 40 ms window, 10 ms hop.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("stft.n_fft", spectral.NewSTFT().FFTSize())
	v.SetDefault("stft.win_length", 0)
	v.SetDefault("stft.hop_length", 0)
	v.SetDefault("stft.window", string(windowing.KindHann))
	v.SetDefault("stft.centred", true)
	v.SetDefault("stft.pad_mode", string(spectral.Reflect))
	v.SetDefault("stft.workers", 1)
	v.SetDefault("stft.backend", string(spectral.BackendGoDSP))

	v.SetDefault("spectrum.power", 1.0)
	v.SetDefault("spectrum.db", false)
	v.SetDefault("spectrum.floor_db", -120.0)
	v.SetDefault("spectrum.descriptors", false)
	v.SetDefault("spectrum.rolloff", 0.85)

	v.SetDefault("preemphasis.enabled", false)
	v.SetDefault("preemphasis.coefficient", filters.DefaultPreEmphasis)

	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("output.precision", 6)
}

// Load reads the config file, if there is one, and decodes and validates
// the merged configuration.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logging.Debug("using config file", logging.Fields{
			"component": "config",
			"file":      v.ConfigFileUsed(),
		})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks every section and returns the first problem found
func (c *Config) Validate() error {
	s := c.STFT
	if s.FFTSize < 1 {
		return invalid("stft.n_fft must be positive, got %d", s.FFTSize)
	}
	if s.WinLength < 0 {
		return invalid("stft.win_length must not be negative, got %d", s.WinLength)
	}
	if s.WinLength > s.FFTSize {
		return invalid("stft.win_length %d exceeds stft.n_fft %d", s.WinLength, s.FFTSize)
	}
	if s.HopLength < 0 {
		return invalid("stft.hop_length must not be negative, got %d", s.HopLength)
	}
	if _, err := windowing.ParseKind(s.Window); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := spectral.ParsePadMode(s.PadMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := spectral.ParseBackend(s.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Spectrum.Power <= 0 {
		return invalid("spectrum.power must be positive, got %g", c.Spectrum.Power)
	}
	if c.Spectrum.Rolloff <= 0 || c.Spectrum.Rolloff > 1 {
		return invalid("spectrum.rolloff must be in (0, 1], got %g", c.Spectrum.Rolloff)
	}

	if c.PreEmphasis.Enabled {
		if err := filters.ValidateCoefficient(c.PreEmphasis.Coefficient); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	switch c.Output.Format {
	case FormatJSON, FormatYAML, FormatCSV:
	default:
		return invalid("output.format must be one of json, yaml, csv, got %q", c.Output.Format)
	}
	if c.Output.Precision < 0 {
		return invalid("output.precision must not be negative, got %d", c.Output.Precision)
	}

	return nil
}

// Level returns the configured log level
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// BuildSTFT converts the STFT section to a descriptor. The config must have
// passed Validate.
func (c *Config) BuildSTFT() (spectral.STFT, error) {
	s := c.STFT

	kind, err := windowing.ParseKind(s.Window)
	if err != nil {
		return spectral.STFT{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	padMode, err := spectral.ParsePadMode(s.PadMode)
	if err != nil {
		return spectral.STFT{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	backend, err := spectral.ParseBackend(s.Backend)
	if err != nil {
		return spectral.STFT{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	winLength := s.WinLength
	if winLength == 0 {
		winLength = min(spectral.NewSTFT().WindowLength(), s.FFTSize)
	}

	builder := spectral.NewSTFTBuilder().
		SetFFTSize(s.FFTSize).
		SetWindowLength(winLength).
		SetHopLength(s.HopLength).
		SetCentred(s.Centred).
		SetPaddingMode(padMode).
		SetWorkers(s.Workers).
		SetBackend(backend).
		SetWindowingAlgorithm(windowing.New(kind, winLength))

	return builder.Build(), nil
}

// PreEmphasisFilter returns the configured filter, or nil when disabled
func (c *Config) PreEmphasisFilter() *filters.PreEmphasis {
	if !c.PreEmphasis.Enabled {
		return nil
	}
	return filters.NewPreEmphasis(c.PreEmphasis.Coefficient)
}
