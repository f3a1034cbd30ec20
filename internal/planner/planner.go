package planner

import "github.com/backmassage/vidconvert/internal/naming"

// Planner builds conversion plans with a fixed quality setting.
type Planner struct {
	quality Quality
}

// New returns a Planner applying quality to MP4 video encodes.
func New(quality Quality) *Planner {
	return &Planner{quality: quality}
}

// Quality returns the planner's CRF.
func (p *Planner) Quality() Quality { return p.quality }

// Plan decides which streams of src are re-encoded into out. requested
// selects the streams to re-encode; the empty set means both.
//
// A requested stream is re-encoded. An unrequested stream is copied when
// src and out share a container, and otherwise left to the encoder's
// defaults (re-encoded). Video re-encodes into an MP4 output carry the CRF.
func (p *Planner) Plan(src, out string, requested StreamSet) Plan {
	requested = requested.orDefault()
	sameContainer := naming.Container(src) == naming.Container(out)

	plan := Plan{SourcePath: src, OutputPath: out}
	for _, st := range []Stream{Audio, Video} {
		switch {
		case requested.Has(st):
			plan.Encode |= StreamSet(st)
		case sameContainer:
			plan.Copy |= StreamSet(st)
		default:
			plan.Encode |= StreamSet(st)
		}
	}

	if requested.Has(Video) && naming.IsMP4(out) {
		q := p.quality
		plan.Quality = &q
	}
	return plan
}
