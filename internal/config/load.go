package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VIDCONVERT_QUALITY=23
// or VIDCONVERT_LOGGING_LEVEL=debug.
const EnvPrefix = "VIDCONVERT"

// SetDefaults configures default values for all configuration options.
// Folder defaults follow the classic layout: convert ~/Downloads into
// ~/Desktop, logging to ~/logs/convert_videos.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("folder", filepath.Join(home, "Downloads"))
	v.SetDefault("output_folder", filepath.Join(home, "Desktop"))
	v.SetDefault("log_folder", filepath.Join(home, "logs", "convert_videos"))
	v.SetDefault("scratch_dir", os.TempDir())

	v.SetDefault("encoder", d.Encoder)
	v.SetDefault("prober", d.Prober)
	v.SetDefault("quality", d.Quality)
	v.SetDefault("threshold", d.SavingsThreshold)
	v.SetDefault("timeout", d.Timeout)

	v.SetDefault("dry_run", false)
	v.SetDefault("clean", false)
	v.SetDefault("validate", d.RunValidation)
	v.SetDefault("fix", d.Fix)
	v.SetDefault("nice", 0)
	v.SetDefault("notify", false)
	v.SetDefault("report", "")
	v.SetDefault("auto_install", false)
	v.SetDefault("schedule", "")

	v.SetDefault("verbose", false)
	v.SetDefault("color", string(d.ColorMode))
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", "")
}

// NewViper returns a viper instance with defaults, env overrides and the
// config file search path applied. configFile may be empty.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".vidconvert")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath("/etc/vidconvert")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK: defaults and env vars still apply.
	}
	return v, nil
}

// Load unmarshals v into a Config, applies negated flags from fs and
// positional folder arguments, then validates the result.
func Load(v *viper.Viper, fs *pflag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyNegatedFlags(&cfg, fs)
	if err := applyPositionalArgs(&cfg, args); err != nil {
		return nil, err
	}

	cfg.ColorMode = ColorMode(strings.ToLower(string(cfg.ColorMode)))
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "warning" {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	cfg.InputDir = expandHome(NormalizeDirArg(cfg.InputDir))
	cfg.OutputDir = expandHome(NormalizeDirArg(cfg.OutputDir))
	cfg.LogDir = expandHome(NormalizeDirArg(cfg.LogDir))
	cfg.ScratchDir = expandHome(cfg.ScratchDir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.ReportFile = expandHome(cfg.ReportFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
