package cmd

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/vidconvert/internal/check"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
	"github.com/backmassage/vidconvert/internal/validate"
)

// validateCmd checks an existing output folder against its sources.
var validateCmd = &cobra.Command{
	Use:   "validate [folder output_folder]",
	Short: "Compare converted MP4s with their originals",
	Long: `Compare every MP4 in the output folder with the original of the same name in
the source folder. Reports sizes and bitrates, warns about bitrate
regressions, and (unless --no-fix) replaces MP4 conversions that missed the
savings threshold with a copy of the original.`,
	Args:         cobra.RangeArgs(0, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args)
		if err != nil {
			return err
		}
		defer s.close()

		ctx, stop := s.signalContext()
		defer stop()

		r := runner.Exec{Timeout: s.cfg.Timeout}
		if _, err := check.CheckProber(ctx, s.cfg, r, s.log); err != nil {
			s.log.Error("%v", err)
			s.log.Info("Install it with: brew install %s", check.PackageFor(s.cfg.Prober))
			return err
		}

		v := &validate.Validator{
			Prober:    probe.New(s.cfg.Prober, r),
			Log:       s.log.Component("validate"),
			Threshold: s.cfg.SavingsThreshold,
			Fix:       s.cfg.Fix,
		}
		report, err := v.Validate(ctx, s.cfg.OutputDir, s.cfg.InputDir)
		if err != nil {
			s.log.Error("%v", err)
			return err
		}
		if s.cfg.ReportFile != "" {
			if err := report.WriteYAML(s.cfg.ReportFile); err != nil {
				s.log.Error("Cannot write report %s: %v", s.cfg.ReportFile, err)
				return err
			}
			s.log.Info("Report written to %s", s.cfg.ReportFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
