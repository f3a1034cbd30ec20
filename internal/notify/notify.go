// Package notify shows a desktop notification when a batch finishes, with a
// square thumbnail of the first converted video when one can be made.
package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/backmassage/vidconvert/internal/ffmpeg"
	"github.com/backmassage/vidconvert/internal/logging"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
)

// Title is the notification title.
const Title = "Video Conversion Complete"

// Notifier previews and announces finished batches.
type Notifier struct {
	Runner  runner.Runner
	Prober  *probe.Prober
	Encoder string
	Log     *logging.Logger
	LogDir  string // Encoder output for the preview goes to LogDir/preview.log.
	TempDir string // Default os.TempDir().
	GOOS    string // Default runtime.GOOS.
}

// Message returns the notification body for count converted videos.
func Message(count int) string {
	if count == 1 {
		return "Converted 1 video."
	}
	return fmt.Sprintf("Converted %d videos.", count)
}

// Command returns the notifier invocation for goos. preview may be empty.
func Command(goos, message, preview string) runner.Command {
	if goos == "darwin" {
		args := []string{"-title", Title, "-message", message, "-sound", "default"}
		if preview != "" {
			args = append(args, "-contentImage", preview)
		}
		return runner.Command{Name: "terminal-notifier", Args: args}
	}
	var args []string
	if preview != "" {
		args = append(args, "--icon", preview)
	}
	args = append(args, Title, message)
	return runner.Command{Name: "notify-send", Args: args}
}

// Notify announces converted, the output paths of the batch. A notifier
// that is missing or fails is reported as an error; callers treat it as a
// warning.
func (n *Notifier) Notify(ctx context.Context, converted []string) error {
	message := Message(len(converted))
	n.Log.Info("%s", message)

	var preview string
	if len(converted) > 0 {
		preview = n.preview(ctx, converted[0])
	}
	if preview != "" {
		defer os.Remove(preview)
	}

	cmd := Command(n.goos(), message, preview)
	n.Log.Command(cmd.String())
	res := n.Runner.Run(ctx, cmd, nil)
	if !res.Success() {
		if res.Err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, res.Err)
		}
		return fmt.Errorf("%s exited with status %d", cmd.Name, res.ExitCode)
	}
	return nil
}

// preview grabs a cropped first frame of video and returns its path, or ""
// when the encoder fails.
func (n *Notifier) preview(ctx context.Context, video string) string {
	path := filepath.Join(n.tempDir(), "preview.jpg")
	cmd := ffmpeg.PreviewCommand(n.Encoder, video, n.Prober.Dimensions(ctx, video), path)
	n.Log.Command(cmd.String())

	var logPath string
	if n.LogDir != "" {
		logPath = filepath.Join(n.LogDir, "preview.log")
	}
	sink, err := ffmpeg.OpenSink(logPath)
	if err != nil {
		n.Log.Warn("Cannot open preview log %s: %v", logPath, err)
		if sink, err = ffmpeg.OpenSink(""); err != nil {
			return ""
		}
	}
	defer sink.Close()

	if err := ffmpeg.Execute(ctx, n.Runner, cmd, sink); err != nil {
		n.Log.Warn("Preview failed: %v", err)
		_ = os.Remove(path)
		return ""
	}
	return path
}

func (n *Notifier) goos() string {
	if n.GOOS != "" {
		return n.GOOS
	}
	return runtime.GOOS
}

func (n *Notifier) tempDir() string {
	if n.TempDir != "" {
		return n.TempDir
	}
	return os.TempDir()
}
