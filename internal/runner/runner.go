// Package runner executes external tools and returns a structured result.
// Every subprocess the program starts (encoder, prober, package manager,
// notifier) goes through a Runner so tests can script tool behavior.
package runner

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Command is a program name plus its arguments.
type Command struct {
	Name string
	Args []string
}

// Argv returns the full argument vector, program name first.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// String renders the command for logs, quoting arguments that contain
// whitespace or quotes.
func (c Command) String() string {
	parts := c.Argv()
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\n'\"") {
			parts[i] = strconv.Quote(p)
		}
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of one subprocess run.
type Result struct {
	ExitCode int    // -1 when the process could not be started or was killed.
	Output   string // Combined stdout and stderr, tail-limited.
	TimedOut bool
	Err      error // Start failure, signal, or timeout; nil on exit code 0.
}

// Success reports whether the process ran and exited with status 0.
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner runs a command, tee-ing combined output to out when out is non-nil.
type Runner interface {
	Run(ctx context.Context, cmd Command, out io.Writer) Result
}

const waitDelay = 2 * time.Second

// MaxCapturedOutput bounds the bytes of output kept in Result.Output.
const MaxCapturedOutput = 1 << 20

// Exec is the production Runner backed by os/exec.
type Exec struct {
	// Timeout bounds each subprocess. Zero means no limit.
	Timeout time.Duration
}

// Run starts cmd and waits for it to exit.
func (e Exec) Run(ctx context.Context, cmd Command, out io.Writer) Result {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	buf := newTailBuffer(MaxCapturedOutput)
	var w io.Writer = buf
	if out != nil {
		w = io.MultiWriter(buf, out)
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdout = w
	c.Stderr = w
	// Children that inherit the output pipes must not hold Wait open forever
	// once the main process is gone.
	c.WaitDelay = waitDelay
	err := c.Run()

	res := Result{ExitCode: 0, Output: buf.String()}
	if err == nil {
		return res
	}

	res.Err = err
	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
	}
	return res
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max  int
	data []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= b.max {
		b.data = append(b.data[:0], p[len(p)-b.max:]...)
		return n, nil
	}
	b.data = append(b.data, p...)
	if over := len(b.data) - b.max; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
	}
	return n, nil
}

func (b *tailBuffer) String() string { return string(b.data) }
