package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/backmassage/vidconvert/internal/check"
	"github.com/backmassage/vidconvert/internal/runner"
)

var errCheckFailed = errors.New("system check failed")

// checkCmd prints tool availability and free space.
var checkCmd = &cobra.Command{
	Use:          "check",
	Short:        "Check that the encoder and prober are installed",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args)
		if err != nil {
			return err
		}
		defer s.close()
		s.banner(cmd)

		ctx, stop := s.signalContext()
		defer stop()

		r := runner.Exec{Timeout: s.cfg.Timeout}
		if s.cfg.AutoInstall {
			if _, err := check.CheckDeps(ctx, s.cfg, r, s.log); err != nil {
				s.log.Warn("%v", err)
			}
		}
		applyPriority(ctx, s.cfg, s.log)
		if !check.RunCheck(ctx, s.cfg, r, s.log) {
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
