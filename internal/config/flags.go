package config

// This file registers CLI flags on a pflag.FlagSet and maps them onto
// viper keys. Negated flags (e.g. --no-validate) are applied after unmarshal
// so defaults hold unless the user passes the flag.

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps flag names to the viper keys they override.
var flagKeys = map[string]string{
	"folder":        "folder",
	"output-folder": "output_folder",
	"log-folder":    "log_folder",
	"scratch-dir":   "scratch_dir",
	"encoder":       "encoder",
	"prober":        "prober",
	"quality":       "quality",
	"threshold":     "threshold",
	"timeout":       "timeout",
	"dry-run":       "dry_run",
	"clean":         "clean",
	"fix":           "fix",
	"nice":          "nice",
	"notify":        "notify",
	"report":        "report",
	"auto-install":  "auto_install",
	"schedule":      "schedule",
	"verbose":       "verbose",
	"color":         "color",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"log-file":      "logging.file",
}

// negatedFlags invert a default-true setting when passed.
var negatedFlags = map[string]func(*Config){
	"no-validate": func(c *Config) { c.RunValidation = false },
	"no-fix":      func(c *Config) { c.Fix = false },
	"no-color":    func(c *Config) { c.ColorMode = ColorNever },
}

// BindFlags registers every configuration flag on fs. Defaults shown in help
// come from DefaultConfig; the effective defaults live in SetDefaults.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	// Folders
	fs.StringP("folder", "f", "", "Folder with videos to convert (default ~/Downloads)")
	fs.StringP("output-folder", "o", "", "Folder for converted MP4s (default ~/Desktop)")
	fs.String("log-folder", "", "Folder for per-file encoder logs (default ~/logs/convert_videos)")
	fs.String("scratch-dir", "", "Base directory for two-pass scratch files (default system temp)")

	// Tools and encoding
	fs.String("encoder", d.Encoder, "Encoder executable")
	fs.String("prober", d.Prober, "MP4 metadata prober executable")
	fs.Float64P("quality", "q", d.Quality, "CRF for MP4 output, 0-51 (18-28 recommended)")
	fs.Float64("threshold", d.SavingsThreshold, "Converted/original ratio below which a conversion counts as a saving")
	fs.Duration("timeout", 0, "Per-subprocess time limit (0 = none)")

	// Behavior
	fs.BoolP("dry-run", "n", false, "Print planned commands without running them")
	fs.Bool("clean", false, "Delete successfully converted originals when done")
	fs.Bool("no-validate", false, "Skip post-batch size validation")
	fs.Bool("fix", d.Fix, "Revert marginal MP4 conversions to the original")
	fs.Bool("no-fix", false, "Report marginal conversions without reverting them")
	fs.Int("nice", 0, "Process niceness to apply before converting (0 = unchanged)")
	fs.Bool("notify", false, "Show a desktop notification when done")
	fs.String("report", "", "Write the validation report as YAML to this path")
	fs.Bool("auto-install", false, "Install missing tools with Homebrew")

	// Display and logging
	fs.BoolP("verbose", "v", false, "Verbose output")
	fs.String("color", string(d.ColorMode), "Color mode: auto | always | never")
	fs.Bool("no-color", false, "Disable colored logs")
	fs.String("log-level", d.Logging.Level, "Structured log level (debug, info, warn, error)")
	fs.String("log-format", d.Logging.Format, "Structured log format (json, text)")
	fs.String("log-file", "", "Structured log file (default <log-folder>/vidconvert.log)")
}

// BindViper binds every registered flag in fs to its viper key.
func BindViper(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q to key %q: %w", name, key, err)
		}
	}
	return nil
}

// applyNegatedFlags applies --no-* flags that were explicitly set.
func applyNegatedFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	for name, apply := range negatedFlags {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if on, err := fs.GetBool(name); err == nil && on {
			apply(cfg)
		}
	}
}

// applyPositionalArgs lets "<folder> <output_folder>" override the flags.
func applyPositionalArgs(cfg *Config, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
		cfg.InputDir = NormalizeDirArg(args[0])
		cfg.OutputDir = NormalizeDirArg(args[1])
		return nil
	default:
		return fmt.Errorf("%w: expected <folder> <output_folder>, got %d arguments", ErrInvalidConfig, len(args))
	}
}
