package cmd

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/vidconvert/internal/pipeline"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
)

// analyzeCmd prints a bitrate table for the MP4 sources.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [folder]",
	Short: "Show dimensions and bitrates of the MP4 sources",
	Long: `Probe every MP4 in the source folder and print its frame size and audio and
video bitrates. Bitrates far outside the folder's interquartile range are
flagged: [*] for outliers, [!] for extreme outliers.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := cmd.Flags().Set("folder", args[0]); err != nil {
				return err
			}
		}
		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.close()

		ctx, stop := s.signalContext()
		defer stop()

		r := runner.Exec{Timeout: s.cfg.Timeout}
		_, err = pipeline.Analyze(ctx, s.cfg, s.log, probe.New(s.cfg.Prober, r), cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
