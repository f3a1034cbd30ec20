package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/display"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/term"
)

// maxNameWidth caps the File column; longer names are shortened with "…".
const maxNameWidth = 50

// bitrateRow is one probed source in the analysis table.
type bitrateRow struct {
	name      string
	frame     string // "WxH" or "n/a"
	videoKbps int64
	audioKbps int64
}

// Analyze probes the sources in cfg.InputDir and writes a frame size and
// bitrate table to w, marking bitrates outside the Tukey fences of the
// batch. Sources without metadata are skipped. Returns the rows written.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger, prober *probe.Prober, w io.Writer) (int, error) {
	files, err := Discover(cfg.InputDir)
	if err != nil {
		return 0, fmt.Errorf("discover %s: %w", cfg.InputDir, err)
	}
	if len(files) == 0 {
		log.Warn("No videos found in %s", cfg.InputDir)
		return 0, nil
	}
	log.Info("Analyzing %d files in %s", len(files), cfg.InputDir)

	var rows []bitrateRow
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			log.Warn("Interrupted")
			return len(rows), err
		}
		name := filepath.Base(path)
		log.Debug("Probing [%d/%d] %s", i+1, len(files), name)

		pr := prober.Probe(ctx, path)
		if !pr.HasMetadata() {
			log.Warn("Skip (no metadata): %s", name)
			continue
		}
		row := bitrateRow{
			name:      name,
			frame:     "n/a",
			videoKbps: int64(pr.VideoBitrate.Bps / 1000),
			audioKbps: int64(pr.AudioBitrate.Bps / 1000),
		}
		if d := pr.Dimensions; d != nil {
			row.frame = fmt.Sprintf("%dx%d", d.Width, d.Height)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		log.Warn("No files could be probed")
		return 0, nil
	}

	video := tukey(kbpsOf(rows, func(r bitrateRow) int64 { return r.videoKbps }))
	audio := tukey(kbpsOf(rows, func(r bitrateRow) int64 { return r.audioKbps }))

	lines, counts := renderTable(rows, video, audio)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w)

	log.Info("Analyzed %d files", len(rows))
	video.log(log, "Video")
	audio.log(log, "Audio")
	switch {
	case counts[outlier] == 0 && counts[extreme] == 0:
		log.Success("  No outliers detected")
	default:
		if n := counts[outlier]; n > 0 {
			log.Warn("  %d outlier(s) flagged %s", n, outlier.mark())
		}
		if n := counts[extreme]; n > 0 {
			log.Error("  %d extreme outlier(s) flagged %s", n, extreme.mark())
		}
	}
	return len(rows), nil
}

func kbpsOf(rows []bitrateRow, get func(bitrateRow) int64) []float64 {
	var out []float64
	for _, r := range rows {
		if v := get(r); v > 0 {
			out = append(out, float64(v))
		}
	}
	return out
}

type severity int

const (
	normal severity = iota
	outlier
	extreme
)

func (s severity) mark() string {
	switch s {
	case outlier:
		return "[*]"
	case extreme:
		return "[!]"
	}
	return ""
}

func (s severity) paint(text string) string {
	switch s {
	case outlier:
		return term.Yellow + text + term.NC
	case extreme:
		return term.Red + text + term.NC
	}
	return text
}

// minSample is the smallest sample that gets fences.
const minSample = 4

// fences holds Tukey fences: 1.5×IQR from the quartiles for outliers and
// 3×IQR for extremes.
type fences struct {
	q1, q3 float64
	inner  [2]float64
	outer  [2]float64
	ok     bool
}

func tukey(sample []float64) fences {
	if len(sample) < minSample {
		return fences{}
	}
	s := slices.Clone(sample)
	slices.Sort(s)
	q1, q3 := quantile(s, 0.25), quantile(s, 0.75)
	iqr := q3 - q1
	return fences{
		q1:    q1,
		q3:    q3,
		inner: [2]float64{q1 - 1.5*iqr, q3 + 1.5*iqr},
		outer: [2]float64{q1 - 3*iqr, q3 + 3*iqr},
		ok:    iqr > 0,
	}
}

// judge classifies v; unknown (zero) bitrates are always normal.
func (f fences) judge(v float64) severity {
	switch {
	case !f.ok || v <= 0:
		return normal
	case v < f.outer[0] || v > f.outer[1]:
		return extreme
	case v < f.inner[0] || v > f.inner[1]:
		return outlier
	}
	return normal
}

func (f fences) log(log *logging.Logger, stream string) {
	if !f.ok {
		return
	}
	log.Info("  %s bitrate IQR: %.0f-%.0f kbps (outlier < %.0f or > %.0f)",
		stream, f.q1, f.q3, f.inner[0], f.inner[1])
}

// quantile interpolates linearly between the closest ranks of a sorted,
// non-empty sample.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (pos-float64(i))*(sorted[i+1]-sorted[i])
}

type cell struct {
	text string
	sev  severity
}

// renderTable lays out rows under a header, colouring flagged bitrates, and
// counts rows by their worst severity. Cells are padded before colouring so
// escape codes do not skew the columns.
func renderTable(rows []bitrateRow, video, audio fences) ([]string, [3]int) {
	grid := [][]cell{{{text: "File"}, {text: "Size"}, {text: "Video"}, {text: "Audio"}}}
	for _, r := range rows {
		grid = append(grid, []cell{
			{text: shorten(r.name, maxNameWidth)},
			{text: r.frame},
			{text: display.FormatBitrateLabel(r.videoKbps), sev: video.judge(float64(r.videoKbps))},
			{text: display.FormatBitrateLabel(r.audioKbps), sev: audio.judge(float64(r.audioKbps))},
		})
	}

	widths := make([]int, len(grid[0]))
	for _, line := range grid {
		for i, c := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(c.text))
		}
	}
	ruleWidth := 2 * (len(widths) - 1)
	for _, wd := range widths {
		ruleWidth += wd
	}

	var counts [3]int
	lines := make([]string, 0, len(grid)+1)
	for n, line := range grid {
		var b strings.Builder
		worst := normal
		for i, c := range line {
			pad := widths[i] - utf8.RuneCountInString(c.text)
			b.WriteString("  ")
			b.WriteString(c.sev.paint(c.text + strings.Repeat(" ", pad)))
			worst = max(worst, c.sev)
		}
		if worst != normal {
			b.WriteString("  " + worst.paint(worst.mark()))
		}
		lines = append(lines, b.String())
		if n == 0 {
			lines = append(lines, "  "+strings.Repeat("─", ruleWidth))
			continue
		}
		counts[worst]++
	}
	return lines, counts
}

func shorten(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
