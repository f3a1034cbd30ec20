package probe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDimensions = regexp.MustCompile(`video.*\s(\d+)x(\d+)\s`)
	reAudioTrack = regexp.MustCompile(`\d\taudio`)
	reVideoTrack = regexp.MustCompile(`\d\tvideo`)
	reCantOpen   = regexp.MustCompile(`(?i)can't open|unable to open`)
)

// Parse converts raw prober output into a Result. Exported for testing
// without a real prober binary.
func Parse(raw string) Result {
	r := Empty()
	r.Raw = raw
	lines := strings.Split(raw, "\n")

	for _, line := range lines {
		m := reDimensions.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW == nil && errH == nil {
			r.Dimensions = &Dimensions{Width: w, Height: h}
		}
		break
	}

	r.AudioBitrate = trackBitrate(lines, reAudioTrack)
	r.VideoBitrate = trackBitrate(lines, reVideoTrack)
	return r
}

// trackBitrate reads the third comma-separated field of the first line
// matching track.
func trackBitrate(lines []string, track *regexp.Regexp) Bitrate {
	for _, line := range lines {
		if !track.MatchString(line) {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			break
		}
		formatted := strings.TrimSpace(fields[2])
		return Bitrate{Formatted: formatted, Bps: ParseBitrate(formatted), Found: true}
	}
	return Bitrate{Formatted: NotFound}
}

// cannotOpen reports whether the prober's first line says it could not
// open the file.
func cannotOpen(raw string) bool {
	first, _, _ := strings.Cut(raw, "\n")
	return reCantOpen.MatchString(first)
}

// ParseBitrate converts "1.5 Mbps", "128k", "64000bps" and similar to bits
// per second. A trailing "bps" is dropped first; an "M" suffix scales by 1e6
// and a "k" suffix by 1e3. Unparseable or non-finite input yields 0.
func ParseBitrate(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "bps")

	scale := 1.0
	switch {
	case strings.HasSuffix(s, "M"):
		scale = 1e6
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "k"):
		scale = 1e3
		s = strings.TrimSuffix(s, "k")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v * scale
}
