package validate

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/vidconvert/internal/fsutil"
)

// Record is the validation result for one converted file.
type Record struct {
	OriginalPath  string `yaml:"original"`
	ConvertedPath string `yaml:"converted"`
	OriginalSize  int64  `yaml:"original_size"`
	// ConvertedSize is the final size on disk; equal to OriginalSize after
	// a revert.
	ConvertedSize int64 `yaml:"converted_size"`
	Marginal      bool  `yaml:"marginal"`
	WasReverted   bool  `yaml:"reverted"`

	OriginalAudio  string `yaml:"original_audio_bitrate,omitempty"`
	OriginalVideo  string `yaml:"original_video_bitrate,omitempty"`
	ConvertedAudio string `yaml:"converted_audio_bitrate"`
	ConvertedVideo string `yaml:"converted_video_bitrate"`

	// Regressions lists streams ("audio", "video") whose bitrate went up.
	Regressions []string `yaml:"regressions,omitempty"`
}

// Saved returns the bytes saved for this file.
func (r Record) Saved() int64 { return r.OriginalSize - r.ConvertedSize }

// Report aggregates a validation run. Files without an original are listed
// in Missing and excluded from the totals.
type Report struct {
	OutputDir          string   `yaml:"output_folder"`
	SourceDir          string   `yaml:"source_folder"`
	Records            []Record `yaml:"records"`
	Missing            []string `yaml:"missing_originals,omitempty"`
	Reverted           int      `yaml:"reverted"`
	TotalOriginalBytes int64    `yaml:"total_original_bytes"`
	TotalSavedBytes    int64    `yaml:"total_saved_bytes"`
}

func (r *Report) add(rec Record) {
	r.Records = append(r.Records, rec)
	r.TotalOriginalBytes += rec.OriginalSize
	r.TotalSavedBytes += rec.Saved()
	if rec.WasReverted {
		r.Reverted++
	}
}

// SavingsPercent returns total savings as a percentage of total original
// size. ok is false when nothing was measured.
func (r *Report) SavingsPercent() (pct float64, ok bool) {
	if r.TotalOriginalBytes <= 0 {
		return 0, false
	}
	return float64(r.TotalSavedBytes) * 100 / float64(r.TotalOriginalBytes), true
}

// WriteYAML writes the report to path atomically.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// ReadYAML loads a report written by WriteYAML.
func ReadYAML(data []byte) (*Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
