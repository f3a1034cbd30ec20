package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/vidconvert/internal/check"
	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/convert"
	"github.com/backmassage/vidconvert/internal/display"
	"github.com/backmassage/vidconvert/internal/ffmpeg"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/naming"
	"github.com/backmassage/vidconvert/internal/notify"
	"github.com/backmassage/vidconvert/internal/planner"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
	"github.com/backmassage/vidconvert/internal/validate"
)

// Deps are the collaborators Run uses to reach external tools.
type Deps struct {
	Runner runner.Runner
	// Prober defaults to cfg.Prober run through Runner.
	Prober *probe.Prober
	// Notifier defaults to the platform notifier run through Runner. Only
	// used when cfg.Notify is set.
	Notifier *notify.Notifier
}

// Run is the top-level batch entry point. It discovers sources, converts
// each one sequentially, logs the summary, and runs the post-batch steps
// unless interrupted. The toolchain must have been checked by the caller.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, deps Deps) (RunStats, error) {
	var stats RunStats

	quality, err := planner.NewQuality(cfg.Quality)
	if err != nil {
		return stats, err
	}

	files, err := Discover(cfg.InputDir)
	if err != nil {
		return stats, fmt.Errorf("discover %s: %w", cfg.InputDir, err)
	}
	stats.Total = len(files)

	scratch, err := convert.NewScratch(cfg.ScratchDir)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err := scratch.Close(); err != nil {
			log.Warn("Cannot remove scratch dir %s: %v", scratch.Dir(), err)
		}
	}()

	prober := deps.Prober
	if prober == nil {
		prober = probe.New(cfg.Prober, deps.Runner)
	}
	conv := &convert.Converter{
		Encoder:   cfg.Encoder,
		Runner:    deps.Runner,
		Prober:    prober,
		Planner:   planner.New(quality),
		Scratch:   scratch,
		Log:       log.Component("convert"),
		OutputDir: cfg.OutputDir,
		LogDir:    cfg.LogDir,
		Threshold: cfg.SavingsThreshold,
		DryRun:    cfg.DryRun,
	}
	resolver := naming.NewCollisionResolver()

	logBatchHeader(ctx, cfg, log, quality, files, &stats)

	for i, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		stats.Current = i + 1

		processFile(ctx, log, conv, resolver, path, &stats)
	}

	logSummary(cfg, log, &stats)

	if ctx.Err() != nil || cfg.DryRun {
		return stats, nil
	}
	finishBatch(ctx, cfg, log, deps, prober, &stats)
	return stats, nil
}

// processFile converts one source. Failures delete the partial output and
// are counted, never returned.
func processFile(
	ctx context.Context,
	log *logging.Logger,
	conv *convert.Converter,
	resolver *naming.CollisionResolver,
	path string,
	stats *RunStats,
) {
	basename := filepath.Base(path)
	log.Info("[%d/%d] %s", stats.Current, stats.Total, basename)

	outputPath := naming.OutputPath(path, conv.OutputDir)
	if owner, ok := resolver.Claim(path, outputPath); !ok {
		log.Warn("Skip (%s is already produced from %s)", filepath.Base(outputPath), filepath.Base(owner))
		stats.Skipped++
		return
	}
	log.Info("  -> %s", outputPath)

	start := time.Now()
	o := conv.Convert(ctx, path)

	if !o.Succeeded {
		log.Error("Conversion failed: %v", o.Err)
		logFailureDetail(log, o.Err)
		if !o.DryRun {
			if err := os.Remove(o.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warn("Cannot remove partial output %s: %v", o.OutputPath, err)
			}
		}
		stats.Failed++
		return
	}

	stats.Succeeded++
	stats.Sources = append(stats.Sources, o.SourcePath)
	stats.Outputs = append(stats.Outputs, o.OutputPath)

	if o.DryRun {
		log.Success("[DRY] Would convert")
		return
	}

	var inSize, outSize int64
	if fi, err := os.Stat(o.SourcePath); err == nil {
		inSize = fi.Size()
	}
	if fi, err := os.Stat(o.OutputPath); err == nil {
		outSize = fi.Size()
	}
	stats.TotalInputBytes += inSize
	stats.TotalOutputBytes += outSize

	log.Success("Converted in %ds (%s of original)",
		int(time.Since(start).Seconds()), display.FormatPercent(outSize, inSize))
}

// logFailureDetail prints the hint and output tail of an encoder failure.
func logFailureDetail(log *logging.Logger, err error) {
	var execErr *ffmpeg.ExecutionError
	if !errors.As(err, &execErr) {
		return
	}
	log.Error("  Command: %s", execErr.Command.String())
	if execErr.Tail == "" {
		return
	}
	log.Error("Last encoder output:")
	for _, l := range strings.Split(execErr.Tail, "\n") {
		log.Error("  %s", l)
	}
}

// finishBatch runs validation, the optional report, cleanup and the
// notification. Problems here are logged; the batch result stands.
func finishBatch(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	deps Deps,
	prober *probe.Prober,
	stats *RunStats,
) {
	if cfg.RunValidation {
		v := &validate.Validator{
			Prober:    prober,
			Log:       log.Component("validate"),
			Threshold: cfg.SavingsThreshold,
			Fix:       cfg.Fix,
			Originals: validate.OriginalsFrom(stats.Sources, stats.Outputs),
		}
		log.Info("Validating %s", cfg.OutputDir)
		report, err := v.Validate(ctx, cfg.OutputDir, cfg.InputDir)
		if err != nil {
			log.Error("Validation failed: %v", err)
		}
		if report != nil {
			stats.Report = report
			writeReport(cfg, log, report)
		}
	}

	cleanSources(cfg, log, stats)

	if cfg.Notify {
		n := deps.Notifier
		if n == nil {
			n = &notify.Notifier{
				Runner:  deps.Runner,
				Prober:  prober,
				Encoder: cfg.Encoder,
				Log:     log.Component("notify"),
				LogDir:  cfg.LogDir,
			}
		}
		if err := n.Notify(ctx, stats.Outputs); err != nil {
			log.Warn("Notification failed: %v", err)
		}
	}
}

func writeReport(cfg *config.Config, log *logging.Logger, report *validate.Report) {
	if cfg.ReportFile == "" {
		return
	}
	if err := report.WriteYAML(cfg.ReportFile); err != nil {
		log.Warn("Cannot write report %s: %v", cfg.ReportFile, err)
		return
	}
	log.Info("Report written to %s", cfg.ReportFile)
}

// cleanSources deletes the originals of successful conversions when
// cfg.Clean is set and the input folder is writable. A source whose output
// was restored from some other file is kept.
func cleanSources(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	if !cfg.Clean || len(stats.Sources) == 0 {
		return
	}
	if !dirWritable(cfg.InputDir) {
		log.Warn("Not removing originals: %s is not writable", cfg.InputDir)
		return
	}

	replaced := replacedOutputs(stats)
	log.Info("Removing:")
	for i, src := range stats.Sources {
		if owner, ok := replaced[filepath.Clean(stats.Outputs[i])]; ok && owner != src {
			log.Warn("  Keeping %s (%s was restored from %s)", src, filepath.Base(stats.Outputs[i]), owner)
			continue
		}
		log.Info("  %s", src)
		if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Cannot remove %s: %v", src, err)
		}
	}
}

// replacedOutputs maps each reverted output to the file it was copied from.
func replacedOutputs(stats *RunStats) map[string]string {
	m := map[string]string{}
	if stats.Report == nil {
		return m
	}
	for _, rec := range stats.Report.Records {
		if rec.WasReverted {
			m[filepath.Clean(rec.ConvertedPath)] = rec.OriginalPath
		}
	}
	return m
}

// dirWritable reports whether files can be created (and so removed) in dir.
func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".vidconvert-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// --- Logging helpers ---

func logBatchHeader(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	quality planner.Quality,
	files []string,
	stats *RunStats,
) {
	log.Info("Found %d videos in %s", stats.Total, cfg.InputDir)
	log.Info("Output: %s", cfg.OutputDir)
	if cfg.LogDir != "" {
		log.Info("Encoder logs: %s", cfg.LogDir)
	}
	log.Info("Quality: CRF %s", quality.Arg())
	if quality.Advisory() {
		log.Warn("Quality %s is outside the recommended range %v-%v",
			quality.Arg(), config.QualityAdvisoryLow, config.QualityAdvisoryHi)
	}
	log.Info("Savings threshold: %.0f%%", cfg.SavingsThreshold*100)
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
		return
	}

	var need int64
	for _, f := range files {
		if fi, err := os.Stat(f); err == nil {
			need += fi.Size()
		}
	}
	free, err := check.FreeSpace(ctx, cfg.OutputDir)
	if err != nil {
		log.Debug("Cannot read free space: %v", err)
		return
	}
	log.Info("Free space: %s (sources total %s)", display.FormatSize(int64(free)), display.FormatSize(need))
	if uint64(need) > free {
		log.Warn("Output volume may run out of space")
	}
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %s", stats.Summary())
	if stats.Skipped > 0 {
		log.Warn("  Skipped (duplicate output name): %d", stats.Skipped)
	}
	log.Info("  Total files processed: %d", stats.Current)

	if cfg.DryRun {
		log.Info("  Total space saved: n/a (dry run)")
		return
	}

	saved := stats.SpaceSaved()
	if saved >= 0 {
		log.Success("  Total space saved: %s (input %s -> output %s)",
			display.FormatSize(saved),
			display.FormatSize(stats.TotalInputBytes),
			display.FormatSize(stats.TotalOutputBytes))
	} else {
		log.Warn("  Total space saved: %s (overall output is larger)",
			display.FormatSize(saved))
	}
}
