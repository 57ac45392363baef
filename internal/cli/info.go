package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-stft/internal/config"
)

// Info is the document written by the info command
type Info struct {
	LogLevel    string                   `json:"log_level" yaml:"log_level"`
	ConfigFile  string                   `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	STFT        Descriptor               `json:"stft" yaml:"stft"`
	Spectrum    config.SpectrumConfig    `json:"spectrum" yaml:"spectrum"`
	PreEmphasis config.PreEmphasisConfig `json:"preemphasis" yaml:"preemphasis"`
	Output      config.OutputConfig      `json:"output" yaml:"output"`
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInfo(cmd.OutOrStdout())
		},
	}
}

func (a *app) runInfo(w io.Writer) error {
	stft, err := a.cfg.BuildSTFT()
	if err != nil {
		return err
	}

	info := Info{
		LogLevel:    a.cfg.LogLevel,
		ConfigFile:  a.v.ConfigFileUsed(),
		STFT:        describe(stft),
		Spectrum:    a.cfg.Spectrum,
		PreEmphasis: a.cfg.PreEmphasis,
		Output:      a.cfg.Output,
	}

	switch a.cfg.Output.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case config.FormatYAML:
		return writeYAML(w, info)
	default:
		return writeInfoCSV(w, info)
	}
}

func writeInfoCSV(w io.Writer, info Info) error {
	d := info.STFT
	rows := [][]string{
		{"key", "value"},
		{"log_level", info.LogLevel},
		{"config_file", info.ConfigFile},
		{"stft.n_fft", strconv.Itoa(d.FFTSize)},
		{"stft.win_length", strconv.Itoa(d.WinLength)},
		{"stft.hop_length", strconv.Itoa(d.HopLength)},
		{"stft.window", d.Window},
		{"stft.centred", strconv.FormatBool(d.Centred)},
		{"stft.pad_mode", d.PadMode},
		{"stft.workers", strconv.Itoa(d.Workers)},
		{"stft.backend", d.Backend},
		{"stft.bins", strconv.Itoa(d.Bins)},
		{"spectrum.power", fmt.Sprint(info.Spectrum.Power)},
		{"spectrum.db", strconv.FormatBool(info.Spectrum.Decibels)},
		{"spectrum.floor_db", fmt.Sprint(info.Spectrum.FloorDB)},
		{"preemphasis.enabled", strconv.FormatBool(info.PreEmphasis.Enabled)},
		{"preemphasis.coefficient", fmt.Sprint(info.PreEmphasis.Coefficient)},
		{"output.format", info.Output.Format},
		{"output.precision", strconv.Itoa(info.Output.Precision)},
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
