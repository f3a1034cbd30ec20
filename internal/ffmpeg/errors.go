package ffmpeg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/backmassage/vidconvert/internal/runner"
)

// ErrTimedOut matches (via errors.Is) an ExecutionError whose process was
// killed by the configured timeout.
var ErrTimedOut = errors.New("encoder timed out")

// ExecutionError reports an encoder invocation that did not exit cleanly.
type ExecutionError struct {
	Command  runner.Command
	ExitCode int
	TimedOut bool
	Tail     string // Last lines of combined output.
	Hint     string // From Classify; empty when nothing matched.
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, "%s timed out", e.Command.Name)
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, "%s exited with status %d", e.Command.Name, e.ExitCode)
	default:
		fmt.Fprintf(&b, "%s failed", e.Command.Name)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

// Unwrap exposes ErrTimedOut for timeouts and the underlying process error.
func (e *ExecutionError) Unwrap() []error {
	var errs []error
	if e.TimedOut {
		errs = append(errs, ErrTimedOut)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Pre-compiled patterns for common encoder failures, checked in order.
var classifiers = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)No such file or directory`), "input or output path does not exist"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found|Unrecognized option`), "encoder build lacks a required codec or option"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found`), "input is corrupt or not a video"},
	{regexp.MustCompile(`(?i)Could not find tag for codec|codec not currently supported in container`), "stream cannot be copied into the output container"},
}

// Classify returns a short human hint for encoder output, or "".
func Classify(output string) string {
	for _, c := range classifiers {
		if c.re.MatchString(output) {
			return c.hint
		}
	}
	return ""
}

// tailLines returns at most n trailing non-empty lines of s.
func tailLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
