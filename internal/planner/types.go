package planner

import "strings"

// Stream is one elementary stream kind.
type Stream uint8

const (
	Audio Stream = 1 << iota
	Video
)

// String returns "audio" or "video".
func (s Stream) String() string {
	switch s {
	case Audio:
		return "audio"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// StreamSet is a set of Streams. The zero value means "no preference" and
// is treated as {audio, video} by the planner.
type StreamSet uint8

// Both is the full-conversion request.
const Both = StreamSet(Audio) | StreamSet(Video)

// Streams builds a set from its members.
func Streams(streams ...Stream) StreamSet {
	var s StreamSet
	for _, st := range streams {
		s |= StreamSet(st)
	}
	return s
}

// Has reports whether st is in the set.
func (s StreamSet) Has(st Stream) bool { return s&StreamSet(st) != 0 }

// orDefault maps the empty set to Both.
func (s StreamSet) orDefault() StreamSet {
	if s&Both == 0 {
		return Both
	}
	return s & Both
}

// String renders the set as "audio+video", "audio", "video" or "none".
func (s StreamSet) String() string {
	var parts []string
	for _, st := range []Stream{Audio, Video} {
		if s.Has(st) {
			parts = append(parts, st.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Plan is the derived, never persisted decision for one encoder invocation.
type Plan struct {
	SourcePath string
	OutputPath string

	Encode StreamSet // Streams re-encoded.
	Copy   StreamSet // Streams passed through unmodified.

	// Quality is the CRF to apply; nil when no quality argument is added.
	Quality *Quality
}

// Copies reports whether st is stream-copied.
func (p Plan) Copies(st Stream) bool { return p.Copy.Has(st) }

// Encodes reports whether st is re-encoded.
func (p Plan) Encodes(st Stream) bool { return p.Encode.Has(st) }
