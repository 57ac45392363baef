package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-stft/algorithms/common"
	"github.com/RyanBlaney/sonido-stft/algorithms/spectral"
	"github.com/RyanBlaney/sonido-stft/logging"
	"github.com/RyanBlaney/sonido-stft/transcode"
)

// ErrTooShort is returned when the input cannot fill a single frame
var ErrTooShort = errors.New("audio too short for a single frame")

type decodeOptions struct {
	maxDuration time.Duration
}

func addAnalysisFlags(cmd *cobra.Command, opts *decodeOptions) {
	flags := cmd.Flags()
	flags.DurationVar(&opts.maxDuration, "max-duration", 0,
		"only analyse the first part of the file (0 = whole file)")
	flags.Bool("preemphasis", false, "apply a pre-emphasis filter before the transform")
	flags.Float64("preemphasis-coef", 0.97, "pre-emphasis coefficient")
}

// analysis is a decoded, optionally pre-emphasised signal ready for the
// transform
type analysis struct {
	audio  *transcode.AudioData
	signal []float64
	stft   spectral.STFT
	report *Report
}

func (a *app) prepare(command, path string, opts decodeOptions) (*analysis, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"command":   command,
		"file":      path,
	})

	stft, err := a.cfg.BuildSTFT()
	if err != nil {
		return nil, err
	}

	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		TargetChannels: 1,
		MaxDuration:    opts.maxDuration,
	})
	audio, err := decoder.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	signal := audio.PCM
	info := AudioInfo{
		File:            path,
		Format:          string(audio.Format),
		SampleRate:      audio.SampleRate,
		SourceChannels:  audio.SourceChannels,
		Samples:         len(signal),
		DurationSeconds: audio.Duration.Seconds(),
		RMS:             common.RMS(signal),
		Power:           common.Power(signal),
	}

	if filter := a.cfg.PreEmphasisFilter(); filter != nil {
		signal = filter.ProcessBuffer(signal)
		info.PreEmphasis = filter.Coefficient()
	}

	frames := stft.FrameCount(len(signal))
	if len(signal) < 2 || frames < 1 {
		return nil, fmt.Errorf("%w: %d samples with n_fft %d", ErrTooShort, len(signal), stft.FFTSize())
	}

	logger.Info("analysing audio", logging.Fields{
		"sample_rate": audio.SampleRate,
		"samples":     len(signal),
		"frames":      frames,
		"bins":        stft.Bins(),
	})

	sr := float64(audio.SampleRate)
	return &analysis{
		audio:  audio,
		signal: signal,
		stft:   stft,
		report: &Report{
			Command:             command,
			Audio:               info,
			STFT:                describe(stft),
			Frames:              frames,
			FrequencyResolution: sr / float64(stft.FFTSize()),
			TimeResolution:      float64(stft.HopLength()) / sr,
		},
	}, nil
}
