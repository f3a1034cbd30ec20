package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/vidconvert/internal/schedule"
)

// scheduleCmd repeats the batch on a cron schedule until interrupted.
var scheduleCmd = &cobra.Command{
	Use:   "schedule [folder output_folder]",
	Short: "Run the conversion batch on a cron schedule",
	Long: `Run the conversion batch every time the cron expression fires, e.g.
--schedule "0 3 * * *" for 03:00 every night or --schedule "@every 6h".
Runs never overlap. Stops on SIGINT or SIGTERM.`,
	Args:         cobra.RangeArgs(0, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args)
		if err != nil {
			return err
		}
		defer s.close()
		s.banner(cmd)

		if s.cfg.Schedule == "" {
			err := errors.New("no schedule configured (use --schedule or the schedule key)")
			s.log.Error("%v", err)
			return err
		}
		sched, err := schedule.Parse(s.cfg.Schedule)
		if err != nil {
			s.log.Error("%v", err)
			return err
		}

		ctx, stop := s.signalContext()
		defer stop()

		s.log.Info("Converting %s on schedule %q (next run %s)",
			s.cfg.InputDir, sched.String(), sched.Next(time.Now()).Format("2006-01-02 15:04"))
		r := &schedule.Runner{
			Schedule: sched,
			Logger:   s.log.Component("schedule").Structured(),
			Job: func(ctx context.Context) error {
				stats, err := convertOnce(ctx, s.cfg, s.log)
				if err == nil {
					s.log.Info("Scheduled run done: %s", stats.Summary())
				}
				return err
			},
		}
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	scheduleCmd.Flags().String("schedule", "", "Cron expression (5 fields or @every/@daily descriptors)")
	rootCmd.AddCommand(scheduleCmd)
}
