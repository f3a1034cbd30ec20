// Package config holds runtime configuration: defaults, layered loading
// (flags > env > file > defaults), and validation. A Config is built once at
// startup and treated as read-only by every other package.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure so callers can
// tell configuration errors apart from runtime errors.
var ErrInvalidConfig = errors.New("invalid configuration")

// Quality (CRF) bounds. Values outside the hard range are rejected; values
// outside the advisory range only produce a warning.
const (
	QualityMin         = 0.0
	QualityMax         = 51.0
	QualityAdvisoryLow = 18.0
	QualityAdvisoryHi  = 28.0
)

// DefaultSavingsThreshold is the converted/original size ratio a conversion
// must stay under to count as a real saving. Shared by the two-pass audio
// selection and the post-batch validator.
const DefaultSavingsThreshold = 0.9

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. Fields are grouped by concern.
type Config struct {
	// Folders.
	InputDir   string `mapstructure:"folder"`
	OutputDir  string `mapstructure:"output_folder"`
	LogDir     string `mapstructure:"log_folder"`
	ScratchDir string `mapstructure:"scratch_dir"` // Base for per-run scratch dirs. Default: system temp.

	// External tools.
	Encoder string `mapstructure:"encoder"` // Default: "ffmpeg".
	Prober  string `mapstructure:"prober"`  // Default: "mp4info".

	// Encoding.
	Quality          float64       `mapstructure:"quality"`   // CRF for MP4 output. Default: 28.
	SavingsThreshold float64       `mapstructure:"threshold"` // Default: 0.9.
	Timeout          time.Duration `mapstructure:"timeout"`   // Per-subprocess limit; 0 disables.

	// Behavior.
	DryRun        bool   `mapstructure:"dry_run"`
	Clean         bool   `mapstructure:"clean"`    // Delete converted originals at the end.
	RunValidation bool   `mapstructure:"validate"` // Run the post-batch validator. Default: true.
	Fix           bool   `mapstructure:"fix"`      // Revert marginal MP4 conversions. Default: true.
	Nice          int    `mapstructure:"nice"`     // Process niceness; 0 leaves it unchanged.
	Notify        bool   `mapstructure:"notify"`
	ReportFile    string `mapstructure:"report"` // Optional YAML savings report.
	AutoInstall   bool   `mapstructure:"auto_install"`
	Schedule      string `mapstructure:"schedule"` // Cron expression for the schedule command.

	// Display and logging.
	Verbose   bool          `mapstructure:"verbose"`
	ColorMode ColorMode     `mapstructure:"color"`
	Logging   LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig configures the structured log sink.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
	File   string `mapstructure:"file"`   // Default: <log_folder>/vidconvert.log
}

// DefaultConfig returns a Config with the built-in defaults. Folder defaults
// are resolved against the user's home directory by [SetDefaults].
func DefaultConfig() Config {
	return Config{
		Encoder:          "ffmpeg",
		Prober:           "mp4info",
		Quality:          28,
		SavingsThreshold: DefaultSavingsThreshold,
		RunValidation:    true,
		Fix:              true,
		ColorMode:        ColorAuto,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks ranges and enum fields. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := ValidateQuality(c.Quality); err != nil {
		return err
	}
	if c.SavingsThreshold <= 0 || c.SavingsThreshold > 1 {
		return fmt.Errorf("%w: threshold %v must be in (0, 1]", ErrInvalidConfig, c.SavingsThreshold)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if c.Nice < -20 || c.Nice > 19 {
		return fmt.Errorf("%w: nice %d must be in [-20, 19]", ErrInvalidConfig, c.Nice)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("%w: invalid color mode %q (use 'auto', 'always' or 'never')", ErrInvalidConfig, c.ColorMode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w: logging.level must be one of: debug, info, warn, error", ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case "json", "text":
		// valid
	default:
		return fmt.Errorf("%w: logging.format must be one of: json, text", ErrInvalidConfig)
	}

	if c.Encoder == "" || c.Prober == "" {
		return fmt.Errorf("%w: encoder and prober must be set", ErrInvalidConfig)
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return fmt.Errorf("%w: need both folder and output_folder", ErrInvalidConfig)
	}
	return nil
}

// ValidateQuality rejects CRF values outside [QualityMin, QualityMax].
func ValidateQuality(q float64) error {
	if q < QualityMin || q > QualityMax {
		return fmt.Errorf("%w: quality %v outside [%v, %v]", ErrInvalidConfig, q, QualityMin, QualityMax)
	}
	return nil
}

// QualityAdvisory reports whether q lies outside the recommended CRF range.
func QualityAdvisory(q float64) bool {
	return q < QualityAdvisoryLow || q > QualityAdvisoryHi
}

// ValidatePaths ensures the resolved output directory is not the input
// directory. Converted files share base names with their originals, so
// writing into the input folder would overwrite MP4 sources. Both arguments
// must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if filepath.Clean(inputAbs) == filepath.Clean(outputAbs) {
		return fmt.Errorf("%w: output folder must differ from input folder", ErrInvalidConfig)
	}
	return nil
}

// LogFilePath returns the structured log destination.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	if c.LogDir == "" {
		return ""
	}
	return filepath.Join(c.LogDir, "vidconvert.log")
}
