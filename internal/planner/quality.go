package planner

import (
	"strconv"

	"github.com/backmassage/vidconvert/internal/config"
)

// Quality is a validated CRF value in [0, 51].
type Quality struct {
	value float64
}

// NewQuality validates v. Out-of-range values fail with an error wrapping
// config.ErrInvalidConfig.
func NewQuality(v float64) (Quality, error) {
	if err := config.ValidateQuality(v); err != nil {
		return Quality{}, err
	}
	return Quality{value: v}, nil
}

// Value returns the CRF.
func (q Quality) Value() float64 { return q.value }

// Advisory reports whether the CRF lies outside the recommended range and
// deserves a warning.
func (q Quality) Advisory() bool { return config.QualityAdvisory(q.value) }

// Arg formats the CRF for the command line: "28", "23.5".
func (q Quality) Arg() string {
	return strconv.FormatFloat(q.value, 'f', -1, 64)
}
