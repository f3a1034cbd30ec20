package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/vidconvert/internal/planner"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
	"github.com/backmassage/vidconvert/internal/testutil"
)

func plannerWith(t *testing.T, crf float64) *planner.Planner {
	t.Helper()
	q, err := planner.NewQuality(crf)
	require.NoError(t, err)
	return planner.New(q)
}

func TestBuild(t *testing.T) {
	p := plannerWith(t, 28)
	tests := []struct {
		name      string
		src, out  string
		requested planner.StreamSet
		want      []string
	}{
		{
			"full conversion", "/in/a.mov", "/out/a.mp4", planner.Both,
			[]string{"ffmpeg", "-i", "/in/a.mov", "-crf", "28", "-y", "/out/a.mp4"},
		},
		{
			"video pass copies audio", "/tmp/s/a.mp4", "/out/a.mp4", planner.Streams(planner.Video),
			[]string{"ffmpeg", "-i", "/tmp/s/a.mp4", "-crf", "28", "-codec:audio", "copy", "-y", "/out/a.mp4"},
		},
		{
			"audio pass copies video", "/in/a.mp4", "/tmp/s/a.mp4", planner.Streams(planner.Audio),
			[]string{"ffmpeg", "-i", "/in/a.mp4", "-codec:video", "copy", "-y", "/tmp/s/a.mp4"},
		},
		{
			"mismatched audio pass adds no copy", "/in/a.avi", "/tmp/s/a.mp4", planner.Streams(planner.Audio),
			[]string{"ffmpeg", "-i", "/in/a.avi", "-y", "/tmp/s/a.mp4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Build("ffmpeg", p.Plan(tt.src, tt.out, tt.requested))
			assert.Equal(t, tt.want, cmd.Argv())
		})
	}
}

func TestBuild_StreamCopyFlags(t *testing.T) {
	p := plannerWith(t, 23.5)

	video := Build("ffmpeg", p.Plan("/in/a.mp4", "/out/a.mp4", planner.Streams(planner.Video)))
	assert.True(t, testutil.HasArgs(video, "-codec:audio", "copy"))
	assert.False(t, testutil.HasArgs(video, "-codec:video", "copy"))
	assert.True(t, testutil.HasArgs(video, "-crf", "23.5"))

	audio := Build("ffmpeg", p.Plan("/in/a.mp4", "/out/a.mp4", planner.Streams(planner.Audio)))
	assert.True(t, testutil.HasArgs(audio, "-codec:video", "copy"))
	assert.False(t, testutil.HasArgs(audio, "-codec:audio", "copy"))

	both := Build("ffmpeg", p.Plan("/in/a.mp4", "/out/a.mp4", planner.Both))
	assert.NotContains(t, both.Args, "copy")
}

func TestPreviewCommand(t *testing.T) {
	wide := PreviewCommand("ffmpeg", "/o/a.mp4", &probe.Dimensions{Width: 1920, Height: 1080}, "/tmp/p.jpg")
	assert.Equal(t, []string{"ffmpeg", "-i", "/o/a.mp4", "-f", "image2", "-filter", "crop=1080:1080:420:0",
		"-vframes", "1", "-y", "/tmp/p.jpg"}, wide.Argv())

	tall := PreviewCommand("ffmpeg", "/o/a.mp4", &probe.Dimensions{Width: 720, Height: 1280}, "/tmp/p.jpg")
	assert.True(t, testutil.HasArgs(tall, "-filter", "crop=720:720:0:280"))

	unknown := PreviewCommand("ffmpeg", "/o/a.mp4", nil, "/tmp/p.jpg")
	assert.NotContains(t, unknown.Args, "-filter")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"/in/x.mp4: No such file or directory", "input or output path does not exist"},
		{"av_interleaved_write_frame(): No space left on device", "disk full"},
		{"Unknown encoder 'libx264'", "encoder build lacks a required codec or option"},
		{"[mov,mp4] moov atom not found", "input is corrupt or not a video"},
		{"all good", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.output), tt.output)
	}
}

func TestExecute(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "frame")
	}
	lines = append(lines, "Invalid data found when processing input")

	fake := &testutil.FakeRunner{Handler: func(cmd runner.Command, _ io.Writer) runner.Result {
		if testutil.InputArg(cmd) == "/in/bad.mov" {
			return testutil.Failed(1, strings.Join(lines, "\n"))
		}
		return runner.Result{Output: "ok\n"}
	}}

	var sink strings.Builder
	err := Execute(context.Background(), fake, runner.Command{Name: "ffmpeg", Args: []string{"-i", "/in/good.mov", "-y", "/o"}}, &sink)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", sink.String())

	err = Execute(context.Background(), fake, runner.Command{Name: "ffmpeg", Args: []string{"-i", "/in/bad.mov", "-y", "/o"}}, nil)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.ExitCode)
	assert.Equal(t, "input is corrupt or not a video", execErr.Hint)
	assert.Len(t, strings.Split(execErr.Tail, "\n"), errorTailLines)
	assert.Contains(t, err.Error(), "exited with status 1")
	assert.NotErrorIs(t, err, ErrTimedOut)
}

func TestTailLines(t *testing.T) {
	assert.Equal(t, "b\nc", tailLines("a\n\nb\n  \nc\n\n", 2))
	assert.Equal(t, "a\nb", tailLines("a\n\nb", 5))
	assert.Equal(t, "", tailLines("\n\n", 3))
}

func TestExecute_TimedOut(t *testing.T) {
	fake := &testutil.FakeRunner{Handler: func(runner.Command, io.Writer) runner.Result {
		return runner.Result{ExitCode: -1, TimedOut: true, Err: context.DeadlineExceeded}
	}}
	err := Execute(context.Background(), fake, runner.Command{Name: "ffmpeg"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
}

func TestOpenSink(t *testing.T) {
	w, err := OpenSink("")
	require.NoError(t, err)
	_, err = io.WriteString(w, "dropped")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "logs", "clip.log")
	for _, s := range []string{"pass one\n", "pass two\n"} {
		w, err := OpenSink(path)
		require.NoError(t, err)
		_, err = io.WriteString(w, s)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pass one\npass two\n", string(b))
}
