package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/vidconvert/internal/check"
	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/convert"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/pipeline"
	"github.com/backmassage/vidconvert/internal/priority"
	"github.com/backmassage/vidconvert/internal/runner"
)

// runConvert is the root command: one batch over the input folder. Partial
// failures still exit successfully; configuration and toolchain problems
// do not.
func runConvert(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()
	s.banner(cmd)

	ctx, stop := s.signalContext()
	defer stop()

	_, err = convertOnce(ctx, s.cfg, s.log)
	return err
}

// convertOnce prepares the process and folders, checks the toolchain, and
// runs one batch.
func convertOnce(ctx context.Context, cfg *config.Config, log *logging.Logger) (pipeline.RunStats, error) {
	if err := resolveDirs(cfg, log); err != nil {
		return pipeline.RunStats{}, err
	}

	applyPriority(ctx, cfg, log)

	if n, err := convert.CleanupOrphaned(log.Structured(), cfg.ScratchDir, convert.DefaultOrphanAge); err != nil {
		log.Warn("Cannot clean old scratch dirs: %v", err)
	} else if n > 0 {
		log.Info("Removed %d orphaned scratch dirs", n)
	}

	r := runner.Exec{Timeout: cfg.Timeout}
	if _, err := check.CheckDeps(ctx, cfg, r, log); err != nil {
		log.Error("%v", err)
		log.Error("Install it (brew install %s) or rerun with --auto-install", check.PackageFor(missingTool(err, cfg)))
		return pipeline.RunStats{}, err
	}

	stats, err := pipeline.Run(ctx, cfg, log, pipeline.Deps{Runner: r})
	if err != nil {
		log.Error("%v", err)
	}
	return stats, err
}

// applyPriority sets the configured niceness and logs the result.
func applyPriority(ctx context.Context, cfg *config.Config, log *logging.Logger) {
	if cfg.Nice != 0 {
		if err := priority.Set(cfg.Nice); err != nil {
			log.Warn("Cannot set process priority: %v", err)
		}
	}
	if nice, err := priority.Current(ctx); err == nil {
		log.Info("Process priority is %d for PID %d.", nice, os.Getpid())
	}
}

func missingTool(err error, cfg *config.Config) string {
	if errors.Is(err, check.ErrProberNotFound) {
		return cfg.Prober
	}
	return cfg.Encoder
}
