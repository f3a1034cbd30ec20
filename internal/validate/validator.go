// Package validate checks a finished batch: each converted MP4 is compared
// with its original, bitrate regressions are reported, and MP4→MP4
// conversions that missed the savings threshold are reverted to a copy of
// the original so the batch never grows an MP4 on disk.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/display"
	"github.com/backmassage/vidconvert/internal/fsutil"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/naming"
	"github.com/backmassage/vidconvert/internal/probe"
)

// Validator compares converted files against their originals.
type Validator struct {
	Prober    *probe.Prober
	Log       *logging.Logger
	Threshold float64 // Zero means config.DefaultSavingsThreshold.
	Fix       bool    // Revert marginal MP4→MP4 conversions.

	// Originals maps converted paths to the sources that produced them.
	// An entry wins over the lookup by base name, which cannot tell apart
	// two sources sharing a base name.
	Originals map[string]string
}

// OriginalsFrom pairs sources[i] with outputs[i].
func OriginalsFrom(sources, outputs []string) map[string]string {
	m := make(map[string]string, len(outputs))
	for i, out := range outputs {
		if i < len(sources) {
			m[filepath.Clean(out)] = sources[i]
		}
	}
	return m
}

func (v *Validator) original(converted, sourceDir string) (string, bool) {
	if src, ok := v.Originals[filepath.Clean(converted)]; ok {
		return src, true
	}
	return naming.FindOriginal(converted, sourceDir)
}

func (v *Validator) threshold() float64 {
	if v.Threshold <= 0 {
		return config.DefaultSavingsThreshold
	}
	return v.Threshold
}

// Validate checks every MP4 in outputDir, oldest first, against the
// original of the same base name in sourceDir. Per-file problems are
// logged and skipped; only an unreadable outputDir is an error.
func (v *Validator) Validate(ctx context.Context, outputDir, sourceDir string) (*Report, error) {
	files, err := convertedFiles(outputDir)
	if err != nil {
		return nil, err
	}

	report := &Report{OutputDir: outputDir, SourceDir: sourceDir}
	for _, path := range files {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		original, ok := v.original(path, sourceDir)
		if !ok {
			v.Log.Warn("Original video not found for %s in %s", path, sourceDir)
			report.Missing = append(report.Missing, path)
			continue
		}

		rec, err := v.check(ctx, original, path)
		if err != nil {
			v.Log.Error("Cannot validate %s: %v", path, err)
			continue
		}
		report.add(rec)
	}

	if pct, ok := report.SavingsPercent(); ok {
		v.Log.Info("Total savings: %s/%s (%.2f%%)",
			display.FormatSize(report.TotalSavedBytes),
			display.FormatSize(report.TotalOriginalBytes),
			pct)
	}
	return report, nil
}

// check classifies one converted file and reverts it when warranted.
func (v *Validator) check(ctx context.Context, original, converted string) (Record, error) {
	origInfo, err := os.Stat(original)
	if err != nil {
		return Record{}, err
	}
	convInfo, err := os.Stat(converted)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		OriginalPath:  original,
		ConvertedPath: converted,
		OriginalSize:  origInfo.Size(),
		ConvertedSize: convInfo.Size(),
	}
	rec.Marginal = float64(rec.ConvertedSize) >= float64(rec.OriginalSize)*v.threshold()

	ratio := display.FormatPercent(rec.ConvertedSize, rec.OriginalSize)
	if rec.Marginal {
		v.Log.Warn("%s: %d (compressed)/%d (original) %s", converted, rec.ConvertedSize, rec.OriginalSize, ratio)
	} else {
		v.Log.Success("%s: %d (compressed)/%d (original) %s", converted, rec.ConvertedSize, rec.OriginalSize, ratio)
	}

	conv := v.Prober.Probe(ctx, converted)
	rec.ConvertedAudio = conv.AudioBitrate.Formatted
	rec.ConvertedVideo = conv.VideoBitrate.Formatted

	mp4Original := naming.IsMP4(original)
	if !mp4Original {
		v.Log.Info("  audio bitrate: converted %s", rec.ConvertedAudio)
		v.Log.Info("  video bitrate: converted %s", rec.ConvertedVideo)
		return rec, nil
	}

	orig := v.Prober.Probe(ctx, original)
	rec.OriginalAudio = orig.AudioBitrate.Formatted
	rec.OriginalVideo = orig.VideoBitrate.Formatted
	v.Log.Info("  audio bitrate: orig %s, converted %s", rec.OriginalAudio, rec.ConvertedAudio)
	v.Log.Info("  video bitrate: orig %s, converted %s", rec.OriginalVideo, rec.ConvertedVideo)

	if conv.AudioBitrate.Bps > orig.AudioBitrate.Bps {
		rec.Regressions = append(rec.Regressions, "audio")
		v.Log.Warn("  Conversion increased audio bitrate from %s to %s.", rec.OriginalAudio, rec.ConvertedAudio)
	}
	if conv.VideoBitrate.Bps > orig.VideoBitrate.Bps {
		rec.Regressions = append(rec.Regressions, "video")
		v.Log.Warn("  Conversion increased video bitrate from %s to %s.", rec.OriginalVideo, rec.ConvertedVideo)
	}

	// Equal sizes mean the file was already reverted by an earlier run.
	if v.Fix && rec.Marginal && rec.ConvertedSize != rec.OriginalSize {
		if err := v.revert(original, converted); err != nil {
			v.Log.Error("Cannot restore %s from %s: %v", converted, original, err)
			return rec, nil
		}
		rec.WasReverted = true
		rec.ConvertedSize = rec.OriginalSize
	}
	return rec, nil
}

// revert replaces converted with a copy of original carrying the
// original's modification time.
func (v *Validator) revert(original, converted string) error {
	if err := fsutil.CopyFileAtomic(original, converted); err != nil {
		return err
	}
	v.Prober.Invalidate(converted)
	v.Log.Info("Copied %s to %s.", original, converted)
	return nil
}

// convertedFiles lists the MP4 files directly inside dir ordered by
// modification time, oldest first, then by name.
func convertedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output folder: %w", err)
	}

	type entry struct {
		path  string
		mtime int64
	}
	var files []entry
	for _, e := range entries {
		if !e.Type().IsRegular() || !naming.IsMP4(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, entry{filepath.Join(dir, e.Name()), info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].mtime != files[j].mtime {
			return files[i].mtime < files[j].mtime
		}
		return files[i].path < files[j].path
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
