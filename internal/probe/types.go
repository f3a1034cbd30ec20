package probe

// NotFound is the formatted value of a bitrate the prober did not report.
const NotFound = "(not found)"

// Dimensions is the frame size of the first video track.
type Dimensions struct {
	Width  int
	Height int
}

// Bitrate is one track's bitrate as printed by the prober and in bits/s.
type Bitrate struct {
	Formatted string  // e.g. "128 kbps", or NotFound.
	Bps       float64 // 0 when not found or unparseable.
	Found     bool
}

// Result is the parsed prober output for one file. Dimensions is nil when
// no video track was reported.
type Result struct {
	Dimensions   *Dimensions
	AudioBitrate Bitrate
	VideoBitrate Bitrate
	Raw          string
}

// Empty returns the result used for files that were not or could not be
// probed.
func Empty() Result {
	return Result{
		AudioBitrate: Bitrate{Formatted: NotFound},
		VideoBitrate: Bitrate{Formatted: NotFound},
	}
}

// HasMetadata reports whether the prober reported any track.
func (r Result) HasMetadata() bool {
	return r.Dimensions != nil || r.AudioBitrate.Found || r.VideoBitrate.Found
}
