// Package logging provides the leveled console logger used across the
// program. Console lines are optionally colored; every line is also sent to
// a structured slog run log (JSON or text) when one is configured.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/term"
)

// Logger provides leveled, optionally colored logging with an optional
// structured sink. Loggers derived with Component share writers and lock.
type Logger struct {
	core *core
	slog *slog.Logger
}

type core struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	verbose bool
	shorten *strings.Replacer
	file    *os.File
	now     func() time.Time
}

// Options configure a Logger built with New.
type Options struct {
	Console    io.Writer // Default os.Stdout.
	Errors     io.Writer // ERROR lines go here. Default os.Stderr.
	Structured *slog.Logger
	Verbose    bool
	// ShortenHome rewrites the home directory to "~" in console text.
	ShortenHome bool
}

// New builds a Logger from explicit writers.
func New(opts Options) *Logger {
	c := &core{
		out:     opts.Console,
		errOut:  opts.Errors,
		verbose: opts.Verbose,
		now:     time.Now,
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.errOut == nil {
		c.errOut = os.Stderr
	}
	if opts.ShortenHome {
		if home, err := os.UserHomeDir(); err == nil && home != "" && home != "/" {
			c.shorten = strings.NewReplacer(home, "~")
		}
	}
	s := opts.Structured
	if s == nil {
		s = discardLogger()
	}
	return &Logger{core: c, slog: s}
}

// Discard returns a Logger that writes nowhere. Useful in tests.
func Discard() *Logger {
	return New(Options{Console: io.Discard, Errors: io.Discard})
}

// NewLogger configures terminal colors from cfg and opens the structured
// run log at cfg.LogFilePath(). runID tags every structured record. Call
// Close when done.
func NewLogger(cfg *config.Config, runID string) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	structured := discardLogger()
	var file *os.File
	if path := cfg.LogFilePath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
		structured = NewStructured(cfg.Logging, f)
	}
	if runID != "" {
		structured = structured.With(slog.String("run_id", runID))
	}

	l := New(Options{Structured: structured, Verbose: cfg.Verbose, ShortenHome: true})
	l.core.file = file
	return l, nil
}

// Component returns a Logger whose structured records carry component=name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{core: l.core, slog: WithComponent(l.slog, name)}
}

// Structured returns the underlying slog logger.
func (l *Logger) Structured() *slog.Logger { return l.slog }

// Verbose reports whether DEBUG lines are printed to the console.
func (l *Logger) Verbose() bool { return l.core.verbose }

// Close closes the run log file if one was opened.
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if l.core.file != nil {
		err := l.core.file.Close()
		l.core.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, color, text string) {
	c := l.core
	console := text
	if c.shorten != nil {
		console = c.shorten.Replace(text)
	}
	ts := c.now().Format("2006-01-02 15:04:05")

	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.out
	if level == "ERROR" {
		out = c.errOut
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+term.NC+" "+console+"\n")
	} else {
		_, _ = io.WriteString(out, ts+" ["+level+"] "+console+"\n")
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.line("INFO", term.Blue, msg)
	l.slog.Info(msg)
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.line("SUCCESS", term.Green, msg)
	l.slog.Info(msg, slog.String("status", "success"))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.line("WARN", term.Yellow, msg)
	l.slog.Warn(msg)
}

// Error logs at ERROR level (red) to the error writer.
func (l *Logger) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.line("ERROR", term.Red, msg)
	l.slog.Error(msg)
}

// Debug logs at DEBUG level (cyan). The console line is printed only in
// verbose mode; the structured record follows the configured level.
func (l *Logger) Debug(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.core.verbose {
		l.line("DEBUG", term.Cyan, msg)
	}
	l.slog.Debug(msg)
}

// Command logs an external command line about to run (magenta).
func (l *Logger) Command(cmdline string) {
	l.line("CMD", term.Magenta, "$ "+cmdline)
	l.slog.Info("exec", slog.String("command", cmdline))
}
