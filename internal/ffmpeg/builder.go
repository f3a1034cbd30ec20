package ffmpeg

import (
	"strconv"

	"github.com/backmassage/vidconvert/internal/planner"
	"github.com/backmassage/vidconvert/internal/probe"
	"github.com/backmassage/vidconvert/internal/runner"
)

// Build materializes plan as an encoder invocation.
func Build(encoder string, plan planner.Plan) runner.Command {
	args := make([]string, 0, 12)
	args = append(args, "-i", plan.SourcePath)

	if plan.Quality != nil {
		args = append(args, "-crf", plan.Quality.Arg())
	}
	if plan.Copies(planner.Audio) {
		args = append(args, "-codec:audio", "copy")
	}
	if plan.Copies(planner.Video) {
		args = append(args, "-codec:video", "copy")
	}

	args = append(args, "-y", plan.OutputPath)
	return runner.Command{Name: encoder, Args: args}
}

// PreviewCommand grabs the first frame of src as a JPEG at out, cropped to
// a centered square when dims is known.
func PreviewCommand(encoder, src string, dims *probe.Dimensions, out string) runner.Command {
	args := []string{"-i", src, "-f", "image2"}
	if crop := squareCrop(dims); crop != "" {
		args = append(args, "-filter", crop)
	}
	args = append(args, "-vframes", "1", "-y", out)
	return runner.Command{Name: encoder, Args: args}
}

// squareCrop returns "crop=side:side:x:y" centered on the longer axis.
func squareCrop(dims *probe.Dimensions) string {
	if dims == nil || dims.Width <= 0 || dims.Height <= 0 {
		return ""
	}
	w, h := dims.Width, dims.Height
	side, x, y := h, (w-h)/2, 0
	if h > w {
		side, x, y = w, 0, (h-w)/2
	}
	s := strconv.Itoa(side)
	return "crop=" + s + ":" + s + ":" + strconv.Itoa(x) + ":" + strconv.Itoa(y)
}
