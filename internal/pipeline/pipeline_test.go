package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/notify"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
	"github.com/backmassage/vidconvert/internal/testutil"
	"github.com/backmassage/vidconvert/internal/validate"
)

// --- Discover tests ---

func TestDiscover_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"movie.mov", "show.mp4", "music.mp3", "readme.txt", "old.avi", "clip.mkv", "tape.VOB"} {
		touch(t, dir, name)
	}

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"movie.mov", "old.avi", "show.mp4", "tape.VOB"}, basenames(files))
}

func TestDiscover_AllSourceExtensions(t *testing.T) {
	dir := t.TempDir()
	exts := []string{".mp4", ".mov", ".avi", ".wmv", ".flv", ".vob"}
	for _, ext := range exts {
		touch(t, dir, "file"+ext)
		touch(t, dir, "upper"+strings.ToUpper(ext))
	}
	touch(t, dir, "file.jpg")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2*len(exts))
}

func TestDiscover_NotRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp4")
	touch(t, dir, "a.mov")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.mp4"), 0o755))
	touch(t, filepath.Join(dir, "nested.mp4"), "inner.mp4")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mov", "b.mp4"}, basenames(files))
}

func TestDiscover_Errors(t *testing.T) {
	files, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = Discover(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// --- RunStats tests ---

func TestRunStats(t *testing.T) {
	s := RunStats{TotalInputBytes: 1000, TotalOutputBytes: 600, Succeeded: 2, Failed: 1}
	assert.Equal(t, int64(400), s.SpaceSaved())
	assert.Equal(t, "2 succeeded, 1 failed", s.Summary())

	s2 := RunStats{TotalInputBytes: 100, TotalOutputBytes: 150}
	assert.Equal(t, int64(-50), s2.SpaceSaved())
	assert.Equal(t, "0 succeeded, 0 failed", s2.Summary())
}

// --- Run tests ---

type batch struct {
	cfg    config.Config
	fake   *testutil.FakeRunner
	logBuf *bytes.Buffer
	log    *logging.Logger
	tmp    string
	fail   map[string]bool // source base names whose encoder run fails
}

func newBatch(t *testing.T, sources ...string) *batch {
	t.Helper()
	root := t.TempDir()
	b := &batch{
		cfg:    config.DefaultConfig(),
		logBuf: &bytes.Buffer{},
		tmp:    filepath.Join(root, "tmp"),
		fail:   map[string]bool{},
	}
	b.cfg.InputDir = filepath.Join(root, "in")
	b.cfg.OutputDir = filepath.Join(root, "out")
	b.cfg.LogDir = filepath.Join(root, "logs")
	b.cfg.ScratchDir = b.tmp
	require.NoError(t, os.MkdirAll(b.cfg.InputDir, 0o755))
	require.NoError(t, os.MkdirAll(b.cfg.OutputDir, 0o755))

	for _, name := range sources {
		testutil.WriteFile(t, filepath.Join(b.cfg.InputDir, name), 1000)
	}

	b.fake = &testutil.FakeRunner{Handler: b.handle}
	b.log = logging.New(logging.Options{Console: b.logBuf, Errors: b.logBuf})
	return b
}

func (b *batch) handle(cmd runner.Command, _ io.Writer) runner.Result {
	switch cmd.Name {
	case "mp4info":
		path := cmd.Args[0]
		switch {
		case strings.HasPrefix(path, b.tmp):
			return runner.Result{Output: testutil.MP4Info(path, "2000 kbps", "96 kbps", 1280, 720)}
		case strings.HasPrefix(path, b.cfg.OutputDir):
			return runner.Result{Output: testutil.MP4Info(path, "900 kbps", "96 kbps", 1280, 720)}
		default:
			return runner.Result{Output: testutil.MP4Info(path, "2000 kbps", "128 kbps", 1280, 720)}
		}
	case "ffmpeg":
		out := testutil.OutputArg(cmd)
		if err := os.WriteFile(out, []byte("encoded"), 0o644); err != nil {
			return testutil.Failed(1, err.Error())
		}
		if b.fail[filepath.Base(testutil.InputArg(cmd))] {
			return testutil.Failed(1, "frame=0\nInvalid data found when processing input")
		}
		return runner.Result{Output: "done\n"}
	case "notify-send", "terminal-notifier":
		return runner.Result{}
	}
	return testutil.Failed(127, "unknown tool "+cmd.Name)
}

func (b *batch) run(t *testing.T, ctx context.Context) RunStats {
	t.Helper()
	stats, err := Run(ctx, &b.cfg, b.log, Deps{Runner: b.fake})
	require.NoError(t, err)
	return stats
}

func (b *batch) out(name string) string { return filepath.Join(b.cfg.OutputDir, name) }
func (b *batch) in(name string) string  { return filepath.Join(b.cfg.InputDir, name) }

func TestRun_PartialFailure(t *testing.T) {
	b := newBatch(t, "a.mov", "b.mp4", "c.avi")
	b.fail["c.avi"] = true

	stats := b.run(t, context.Background())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, "2 succeeded, 1 failed", stats.Summary())
	assert.Contains(t, b.logBuf.String(), "Done: 2 succeeded, 1 failed")
	assert.Contains(t, b.logBuf.String(), "input is corrupt or not a video")

	assert.FileExists(t, b.out("a.mp4"))
	assert.FileExists(t, b.out("b.mp4"))
	assert.NoFileExists(t, b.out("c.mp4"), "failed output removed")
	assert.Equal(t, []string{b.in("a.mov"), b.in("b.mp4")}, stats.Sources)

	// Validation covered both outputs; neither was marginal.
	require.NotNil(t, stats.Report)
	assert.Len(t, stats.Report.Records, 2)
	assert.Zero(t, stats.Report.Reverted)
	assert.Equal(t, int64(2000-2*len("encoded")), stats.Report.TotalSavedBytes)

	entries, err := os.ReadDir(b.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dir removed")

	// Sources are kept without --clean.
	assert.FileExists(t, b.in("c.avi"))
	assert.FileExists(t, b.in("a.mov"))
}

func TestRun_DryRun(t *testing.T) {
	b := newBatch(t, "a.mov", "b.mp4")
	b.cfg.DryRun = true

	stats := b.run(t, context.Background())

	assert.Equal(t, 2, stats.Succeeded)
	assert.Empty(t, b.fake.Calls(), "dry run starts no tools")
	assert.Nil(t, stats.Report, "no validation in dry run")
	assert.NoFileExists(t, b.out("a.mp4"))
	assert.Contains(t, b.logBuf.String(), "[DRY] Would convert")
	assert.Contains(t, b.logBuf.String(), "$ ffmpeg -i "+b.in("a.mov"))
}

func TestRun_DuplicateOutputNameSkipped(t *testing.T) {
	b := newBatch(t, "trip.avi", "trip.mov")
	b.cfg.RunValidation = false

	stats := b.run(t, context.Background())

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []string{b.in("trip.avi")}, stats.Sources)
	assert.Len(t, b.fake.CallsTo("ffmpeg"), 1)
}

func TestRun_CleanRemovesOnlyConvertedSources(t *testing.T) {
	b := newBatch(t, "a.mov", "c.avi")
	b.fail["c.avi"] = true
	b.cfg.Clean = true

	stats := b.run(t, context.Background())

	assert.Equal(t, "1 succeeded, 1 failed", stats.Summary())
	assert.NoFileExists(t, b.in("a.mov"))
	assert.FileExists(t, b.in("c.avi"))
	assert.FileExists(t, b.out("a.mp4"))
}

func TestRun_SharedBaseNameValidatedAgainstOwner(t *testing.T) {
	b := newBatch(t, "trip.mov", "trip.mp4")
	require.NoError(t, os.WriteFile(b.in("trip.mp4"), []byte("xxxxx"), 0o644))
	b.cfg.Clean = true

	stats := b.run(t, context.Background())

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Skipped)
	require.NotNil(t, stats.Report)
	require.Len(t, stats.Report.Records, 1)
	assert.Equal(t, b.in("trip.mov"), stats.Report.Records[0].OriginalPath)
	assert.False(t, stats.Report.Records[0].WasReverted)

	data, err := os.ReadFile(b.out("trip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "encoded", string(data))
	assert.FileExists(t, b.in("trip.mp4"), "skipped source is never cleaned")
}

func TestCleanSources_KeepsSourceOfOutputRestoredElsewhere(t *testing.T) {
	b := newBatch(t, "a.mp4", "b.mov")
	b.cfg.Clean = true
	stats := &RunStats{
		Sources: []string{b.in("a.mp4"), b.in("b.mov")},
		Outputs: []string{b.out("a.mp4"), b.out("b.mp4")},
		Report: &validate.Report{Records: []validate.Record{
			{OriginalPath: b.in("other.mp4"), ConvertedPath: b.out("a.mp4"), WasReverted: true},
			{OriginalPath: b.in("b.mov"), ConvertedPath: b.out("b.mp4")},
		}},
	}

	cleanSources(&b.cfg, b.log, stats)

	assert.FileExists(t, b.in("a.mp4"))
	assert.NoFileExists(t, b.in("b.mov"))
	assert.Contains(t, b.logBuf.String(), "Keeping "+b.in("a.mp4"))
}

func TestRun_ReportAndNotify(t *testing.T) {
	b := newBatch(t, "a.mov", "b.mov")
	b.cfg.ReportFile = filepath.Join(b.tmp, "..", "report.yaml")
	b.cfg.Notify = true

	previewDir := t.TempDir()
	prober := probe.New("mp4info", b.fake)
	n := &notify.Notifier{
		Runner:  b.fake,
		Prober:  prober,
		Encoder: "ffmpeg",
		Log:     b.log,
		TempDir: previewDir,
		GOOS:    "linux",
	}
	stats, err := Run(context.Background(), &b.cfg, b.log, Deps{Runner: b.fake, Prober: prober, Notifier: n})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Succeeded)

	data, err := os.ReadFile(b.cfg.ReportFile)
	require.NoError(t, err)
	report, err := validate.ReadYAML(data)
	require.NoError(t, err)
	assert.Len(t, report.Records, 2)

	notes := b.fake.CallsTo("notify-send")
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Args, "Converted 2 videos.")
	assert.True(t, testutil.HasArgs(notes[0], "--icon", filepath.Join(previewDir, "preview.jpg")))
}

func TestRun_Interrupted(t *testing.T) {
	b := newBatch(t, "a.mov", "b.mov")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := b.run(t, ctx)

	assert.Zero(t, stats.Current)
	assert.Zero(t, stats.Succeeded)
	assert.Empty(t, b.fake.Calls())
	assert.Nil(t, stats.Report)
	assert.Contains(t, b.logBuf.String(), "Interrupted")
}

func TestRun_ConfigErrors(t *testing.T) {
	b := newBatch(t)
	b.cfg.Quality = 80
	_, err := Run(context.Background(), &b.cfg, b.log, Deps{Runner: b.fake})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	b = newBatch(t)
	b.cfg.InputDir = filepath.Join(b.tmp, "missing")
	_, err = Run(context.Background(), &b.cfg, b.log, Deps{Runner: b.fake})
	assert.Error(t, err)
}

// --- Analyze tests ---

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "b.mp4")
	touch(t, dir, "c.mov")

	fake := &testutil.FakeRunner{Handler: func(cmd runner.Command, _ io.Writer) runner.Result {
		return runner.Result{Output: testutil.MP4Info(cmd.Args[0], "1500 kbps", "128 kbps", 1920, 1080)}
	}}
	cfg := config.DefaultConfig()
	cfg.InputDir = dir

	var out bytes.Buffer
	n, err := Analyze(context.Background(), &cfg, logging.Discard(), probe.New("mp4info", fake), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "only MP4 sources carry metadata")
	assert.Contains(t, out.String(), "1920x1080")
	assert.Contains(t, out.String(), "1.5 Mbps")
	assert.Contains(t, out.String(), "128 kbps")
	assert.Len(t, fake.Calls(), 2)
}

func TestTukey(t *testing.T) {
	f := tukey([]float64{1000, 100, 130, 110, 120})
	require.True(t, f.ok)
	assert.InDelta(t, 110.0, f.q1, 1e-9)
	assert.InDelta(t, 130.0, f.q3, 1e-9)
	assert.Equal(t, extreme, f.judge(1000))
	assert.Equal(t, outlier, f.judge(165))
	assert.Equal(t, normal, f.judge(125))
	assert.Equal(t, normal, f.judge(0))

	few := tukey([]float64{1, 2, 3})
	assert.False(t, few.ok)
	assert.Equal(t, normal, few.judge(1000))

	flat := tukey([]float64{5, 5, 5, 5})
	assert.False(t, flat.ok, "zero spread has no fences")
}

func TestRenderTable(t *testing.T) {
	rows := []bitrateRow{
		{name: "a.mp4", frame: "1280x720", videoKbps: 1000, audioKbps: 128},
		{name: "b.mp4", frame: "1280x720", videoKbps: 1100, audioKbps: 128},
		{name: "c.mp4", frame: "1280x720", videoKbps: 1200, audioKbps: 128},
		{name: "d.mp4", frame: "1280x720", videoKbps: 1300, audioKbps: 128},
		{name: strings.Repeat("x", 60) + ".mp4", frame: "n/a", videoKbps: 9000},
	}
	video := tukey([]float64{1000, 1100, 1200, 1300, 9000})
	lines, counts := renderTable(rows, video, fences{})

	require.Len(t, lines, len(rows)+2)
	assert.Equal(t, "  File", lines[0][:6])
	assert.True(t, strings.HasPrefix(lines[1], "  ─"))
	assert.Contains(t, lines[2], "1.0 Mbps")
	assert.Contains(t, lines[2], "128 kbps")
	assert.Contains(t, lines[6], strings.Repeat("x", maxNameWidth-1)+"…")
	assert.Contains(t, lines[6], "[!]")
	assert.NotContains(t, lines[2], "[")
	assert.Equal(t, [3]int{4, 0, 1}, counts)
}

// --- Helpers ---

func touch(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
