package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
)

func newSpectrogramCommand(a *app) *cobra.Command {
	var opts decodeOptions

	cmd := &cobra.Command{
		Use:   "spectrogram <file>",
		Short: "Compute the |STFT|^power spectrogram of an audio file",
		Example: `  sonido-stft spectrogram speech.wav
  sonido-stft spectrogram --power 2 --db -o csv song.mp3 > spec.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSpectrogram(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64("power", 1.0, "exponent applied to the magnitude (1 = magnitude, 2 = power)")
	flags.Bool("db", false, "convert to decibels")
	flags.Float64("floor-db", -120, "lowest decibel value written when --db is set")
	flags.Bool("descriptors", false, "add per-frame centroid, bandwidth, rolloff and flatness")
	flags.Float64("rolloff", 0.85, "energy fraction used for the rolloff frequency")
	addAnalysisFlags(cmd, &opts)

	return cmd
}

func (a *app) runSpectrogram(cmd *cobra.Command, path string, opts decodeOptions) error {
	job, err := a.prepare("spectrogram", path, opts)
	if err != nil {
		return err
	}

	power := a.cfg.Spectrum.Power
	spec, ok := spectral.SpectrumWithPower(job.signal, job.stft, power)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTooShort, path)
	}

	if a.cfg.Spectrum.Descriptors {
		magnitude := spec
		if power != 1 {
			magnitude, _ = spectral.Spectrum(job.signal, job.stft)
		}
		freqs := spectral.FrequencyBins(job.stft, float64(job.audio.SampleRate))
		descriptors := spectral.Describe(magnitude, freqs, a.cfg.Spectrum.Rolloff)
		job.report.Descriptors = &descriptors
	}

	scale := fmt.Sprintf("magnitude^%g", power)
	if a.cfg.Spectrum.Decibels {
		spec = spectral.ToDecibels(spec, power, a.cfg.Spectrum.FloorDB)
		scale = "db"
	}

	job.report.Scale = scale
	job.report.Spectrogram = newMatrix(spec, a.cfg.Output.Precision)

	return writeReport(cmd.OutOrStdout(), a.cfg.Output.Format, job.report)
}
