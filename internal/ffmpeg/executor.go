package ffmpeg

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/backmassage/vidconvert/internal/runner"
)

// errorTailLines bounds ExecutionError.Tail.
const errorTailLines = 15

// Execute runs cmd with combined output streamed to sink (nil discards).
// It returns nil on exit status 0 and an *ExecutionError otherwise.
func Execute(ctx context.Context, r runner.Runner, cmd runner.Command, sink io.Writer) error {
	res := r.Run(ctx, cmd, sink)
	if res.Success() {
		return nil
	}
	return &ExecutionError{
		Command:  cmd,
		ExitCode: res.ExitCode,
		TimedOut: res.TimedOut,
		Tail:     tailLines(res.Output, errorTailLines),
		Hint:     Classify(res.Output),
		Err:      res.Err,
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// OpenSink opens the per-file log at path for appending, creating parent
// directories. An empty path returns a sink that discards output.
func OpenSink(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{io.Discard}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
