// Package convert runs the per-file conversion strategy.
//
// Sources that are already MP4 convert in two passes: audio only into a
// scratch file, then video only into the output, reading audio from
// whichever of the original and the scratch file has the smaller audio
// bitrate (the scratch file must beat the original by the savings
// threshold). Other sources convert in a single full pass. Neither stream
// is ever re-encoded twice.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/ffmpeg"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/naming"
	"github.com/backmassage/vidconvert/internal/planner"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
)

// Outcome is the result of converting one source file.
type Outcome struct {
	SourcePath string
	OutputPath string
	Succeeded  bool
	Err        error // Non-nil iff !Succeeded.

	TwoPass          bool
	UsedScratchAudio bool // Video pass read audio from the re-encoded scratch file.
	DryRun           bool
}

// Converter converts source files into OutputDir.
type Converter struct {
	Encoder   string
	Runner    runner.Runner
	Prober    *probe.Prober
	Planner   *planner.Planner
	Scratch   *Scratch
	Log       *logging.Logger
	OutputDir string
	LogDir    string  // Per-file encoder logs; empty discards encoder output.
	Threshold float64 // Zero means config.DefaultSavingsThreshold.
	DryRun    bool
}

func (c *Converter) threshold() float64 {
	if c.Threshold <= 0 {
		return config.DefaultSavingsThreshold
	}
	return c.Threshold
}

// Convert converts src. Failures are reported in the Outcome, never
// returned or panicked; partial output is left for the caller to remove.
func (c *Converter) Convert(ctx context.Context, src string) Outcome {
	out := naming.OutputPath(src, c.OutputDir)
	o := Outcome{SourcePath: src, OutputPath: out, DryRun: c.DryRun}

	srcInfo, err := os.Stat(src)
	if err != nil {
		o.Err = fmt.Errorf("stat source: %w", err)
		return o
	}

	var sink io.WriteCloser = nopCloser{io.Discard}
	if !c.DryRun {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			o.Err = fmt.Errorf("create output dir: %w", err)
			return o
		}
		logPath := naming.LogPath(src, c.LogDir)
		if sink, err = ffmpeg.OpenSink(logPath); err != nil {
			c.Log.Warn("Cannot open encoder log %s: %v", logPath, err)
			sink = nopCloser{io.Discard}
		}
	}
	defer sink.Close()

	if naming.IsMP4(src) {
		o.TwoPass = true
		err = c.twoPass(ctx, src, out, sink, &o)
	} else {
		err = c.run(ctx, c.Planner.Plan(src, out, planner.Both), sink)
	}
	if err != nil {
		o.Err = err
		return o
	}

	if !c.DryRun {
		c.Prober.Invalidate(out)
		mtime := srcInfo.ModTime()
		if err := os.Chtimes(out, mtime, mtime); err != nil {
			o.Err = fmt.Errorf("set output mtime: %w", err)
			return o
		}
	}

	o.Succeeded = true
	return o
}

// twoPass converts an MP4 source: audio pass to scratch, bitrate
// comparison, video pass to out. The scratch file is always removed.
func (c *Converter) twoPass(ctx context.Context, src, out string, sink io.Writer, o *Outcome) error {
	scratch := c.Scratch.Path(src)
	defer func() {
		if !c.DryRun {
			_ = os.Remove(scratch)
		}
		c.Prober.Invalidate(scratch)
	}()

	if err := c.run(ctx, c.Planner.Plan(src, scratch, planner.Streams(planner.Audio)), sink); err != nil {
		return fmt.Errorf("audio pass: %w", err)
	}

	input := src
	if !c.DryRun {
		c.Prober.Invalidate(scratch)
		orig := c.Prober.Probe(ctx, src).AudioBitrate
		converted := c.Prober.Probe(ctx, scratch).AudioBitrate
		if converted.Bps < orig.Bps*c.threshold() {
			input = scratch
			o.UsedScratchAudio = true
			c.Log.Info("  Audio bitrate %s -> %s, using re-encoded audio", orig.Formatted, converted.Formatted)
		} else {
			c.Log.Info("  Audio bitrate %s -> %s, keeping original audio", orig.Formatted, converted.Formatted)
		}
	}

	if err := c.run(ctx, c.Planner.Plan(input, out, planner.Streams(planner.Video)), sink); err != nil {
		return fmt.Errorf("video pass: %w", err)
	}
	return nil
}

// run logs and, unless in dry-run mode, executes one planned invocation.
func (c *Converter) run(ctx context.Context, plan planner.Plan, sink io.Writer) error {
	cmd := ffmpeg.Build(c.Encoder, plan)
	c.Log.Command(cmd.String())
	if c.DryRun {
		return nil
	}
	return ffmpeg.Execute(ctx, c.Runner, cmd, sink)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
