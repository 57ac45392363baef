package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
)

func newSTFTCommand(a *app) *cobra.Command {
	var opts decodeOptions

	cmd := &cobra.Command{
		Use:   "stft <file>",
		Short: "Compute the STFT of an audio file and write its magnitude and phase",
		Long: `Compute the complex short-time Fourier transform of an audio file and
write it as magnitude and phase matrices (bins x frames). Phase is in
radians; bins with no defined angle are written as null (json) or NaN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSTFT(cmd, args[0], opts)
		},
	}
	addAnalysisFlags(cmd, &opts)

	return cmd
}

func (a *app) runSTFT(cmd *cobra.Command, path string, opts decodeOptions) error {
	job, err := a.prepare("stft", path, opts)
	if err != nil {
		return err
	}

	result, ok := spectral.Run(job.stft, job.signal)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTooShort, path)
	}

	precision := a.cfg.Output.Precision
	job.report.Magnitude = newMatrix(spectral.Magnitude(result), precision)
	job.report.Phase = newMatrix(spectral.Phase(result), precision)

	return writeReport(cmd.OutOrStdout(), a.cfg.Output.Format, job.report)
}
