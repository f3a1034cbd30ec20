package pipeline

import (
	"fmt"

	"github.com/backmassage/vidconvert/internal/validate"
)

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Succeeded        int
	Skipped          int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64

	// Sources and Outputs list successful conversions in batch order.
	Sources []string
	Outputs []string

	// Report is set when post-batch validation ran.
	Report *validate.Report
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Summary returns the one-line batch result, e.g. "2 succeeded, 1 failed".
func (s *RunStats) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
}
