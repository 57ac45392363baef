package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-stft/internal/config"
	"github.com/RyanBlaney/sonido-stft/logging"
)

// flagKeys maps command-line flags onto their configuration keys
var flagKeys = map[string]string{
	"log-level":        "log_level",
	"n-fft":            "stft.n_fft",
	"win-length":       "stft.win_length",
	"hop-length":       "stft.hop_length",
	"window":           "stft.window",
	"centred":          "stft.centred",
	"pad-mode":         "stft.pad_mode",
	"workers":          "stft.workers",
	"backend":          "stft.backend",
	"power":            "spectrum.power",
	"db":               "spectrum.db",
	"floor-db":         "spectrum.floor_db",
	"descriptors":      "spectrum.descriptors",
	"rolloff":          "spectrum.rolloff",
	"preemphasis":      "preemphasis.enabled",
	"preemphasis-coef": "preemphasis.coefficient",
	"output":           "output.format",
	"precision":        "output.precision",
}

type app struct {
	configFile string
	envFile    string

	v   *viper.Viper
	cfg *config.Config
}

// NewRootCommand builds the sonido-stft command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sonido-stft",
		Short: "Short-time Fourier transform and spectrogram tool",
		Long: `Compute librosa-style short-time Fourier transforms and
spectrograms of WAV, AIFF, MP3 and Ogg Vorbis files.

Settings are read, in increasing priority, from built-in defaults,
sonido-stft.yaml (current directory or $HOME/.config/sonido-stft),
a .env file, SONIDO_STFT_* environment variables and flags.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initializeConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "",
		"config file (default is ./sonido-stft.yaml or $HOME/.config/sonido-stft/sonido-stft.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env",
		"dotenv file to load before reading the environment")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringP("output", "o", config.FormatJSON, "output format (json, yaml, csv)")
	flags.Int("precision", 6, "significant digits written per value")

	flags.Int("n-fft", 1024, "FFT size")
	flags.Int("win-length", 0, "window length in samples, at most n-fft (0 = min(640, n-fft))")
	flags.Int("hop-length", 0, "hop length in samples (0 = win-length/4)")
	flags.String("window", "hann", "window function")
	flags.Bool("centred", true, "pad the signal so frames are centred on their sample")
	flags.String("pad-mode", "reflect", "boundary padding when centred (reflect, none)")
	flags.Int("workers", 1, "goroutines used for the per-frame FFTs (0 = automatic)")
	flags.String("backend", "go-dsp", "FFT backend (go-dsp, gonum)")

	rootCmd.AddCommand(
		newSpectrogramCommand(a),
		newSTFTCommand(a),
		newInfoCommand(a),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// initializeConfig loads the dotenv file, binds flags and decodes the
// configuration after flags are parsed
func (a *app) initializeConfig(cmd *cobra.Command) error {
	if err := loadEnvFile(a.envFile); err != nil {
		return err
	}

	a.v = config.New(a.configFile)
	if err := bindFlags(cmd, a.v); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger := logging.NewStderrLogger()
	logger.SetLevel(cfg.Level())
	logging.SetGlobalLogger(logger)

	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// bindFlags binds each cobra flag to its associated viper configuration
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}

		// Bind the flag to viper
		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}

		// Bind to the short environment variable, e.g. SONIDO_STFT_N_FFT
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if err := v.BindEnv(key, config.EnvPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}
