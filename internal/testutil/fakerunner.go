// Package testutil provides scripted stand-ins for the external tools so
// probing, conversion, validation, and the batch pipeline can be tested
// without ffmpeg or mp4info installed.
package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/backmassage/vidconvert/internal/runner"
)

// Handler scripts the result of one command.
type Handler func(cmd runner.Command, out io.Writer) runner.Result

// FakeRunner records every command and answers with Handler. A nil Handler
// succeeds with no output.
type FakeRunner struct {
	Handler Handler

	mu    sync.Mutex
	calls []runner.Command
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd runner.Command, out io.Writer) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, runner.Command{Name: cmd.Name, Args: append([]string(nil), cmd.Args...)})
	h := f.Handler
	f.mu.Unlock()

	if h == nil {
		return runner.Result{}
	}
	res := h(cmd, out)
	if out != nil && res.Output != "" {
		_, _ = io.WriteString(out, res.Output)
	}
	return res
}

// Calls returns a copy of every recorded command in order.
func (f *FakeRunner) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallsTo returns the recorded commands whose program name is name.
func (f *FakeRunner) CallsTo(name string) []runner.Command {
	var matched []runner.Command
	for _, c := range f.Calls() {
		if c.Name == name {
			matched = append(matched, c)
		}
	}
	return matched
}

// Failed returns a result for a process that exited with code.
func Failed(code int, output string) runner.Result {
	return runner.Result{
		ExitCode: code,
		Output:   output,
		Err:      fmt.Errorf("exit status %d", code),
	}
}

// MP4Info renders prober output in the mp4info track-table layout. Empty
// bitrates omit the corresponding track; zero dimensions omit the size
// field from the video line.
func MP4Info(path, videoBitrate, audioBitrate string, width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mp4info version 2.0.0\n%s:\nTrack\tType\tInfo\n", path)
	if videoBitrate != "" {
		line := fmt.Sprintf("1\tvideo\tH264 High@4, 5.005 secs, %s", videoBitrate)
		if width > 0 && height > 0 {
			line += fmt.Sprintf(", %dx%d @ 23.976024 fps", width, height)
		}
		b.WriteString(line + "\n")
	}
	if audioBitrate != "" {
		fmt.Fprintf(&b, "2\taudio\tMPEG-4 AAC LC, 5.000 secs, %s, 44100 Hz\n", audioBitrate)
	}
	return b.String()
}

// WriteFile creates path (and parents) with size bytes of filler.
func WriteFile(t interface {
	Helper()
	Fatalf(string, ...any)
}, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// OutputArg returns the last argument of cmd, which is the output path for
// encoder invocations.
func OutputArg(cmd runner.Command) string {
	if len(cmd.Args) == 0 {
		return ""
	}
	return cmd.Args[len(cmd.Args)-1]
}

// InputArg returns the value following -i, or "".
func InputArg(cmd runner.Command) string {
	for i := 0; i+1 < len(cmd.Args); i++ {
		if cmd.Args[i] == "-i" {
			return cmd.Args[i+1]
		}
	}
	return ""
}

// HasArgs reports whether cmd contains the consecutive arguments seq.
func HasArgs(cmd runner.Command, seq ...string) bool {
	for i := 0; i+len(seq) <= len(cmd.Args); i++ {
		match := true
		for j, s := range seq {
			if cmd.Args[i+j] != s {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
