package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.InputDir = "/videos/in"
	cfg.OutputDir = "/videos/out"
	return cfg
}

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/library", "/media/library"},
		{"single trailing slash", "/media/library/", "/media/library"},
		{"multiple trailing slashes", "/media/library///", "/media/library"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDirArg(tt.in))
		})
	}
}

func TestValidate_Quality(t *testing.T) {
	tests := []struct {
		name    string
		quality float64
		wantErr bool
	}{
		{"lower bound", 0, false},
		{"default", 28, false},
		{"fractional", 23.5, false},
		{"upper bound", 51, false},
		{"negative", -1, true},
		{"above max", 51.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Quality = tt.quality
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.SavingsThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.SavingsThreshold = 1.2 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"nice too high", func(c *Config) { c.Nice = 20 }},
		{"nice too low", func(c *Config) { c.Nice = -21 }},
		{"unknown color", func(c *Config) { c.ColorMode = "rainbow" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty encoder", func(c *Config) { c.Encoder = "" }},
		{"empty prober", func(c *Config) { c.Prober = "" }},
		{"missing input", func(c *Config) { c.InputDir = "" }},
		{"missing output", func(c *Config) { c.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestQualityAdvisory(t *testing.T) {
	assert.False(t, QualityAdvisory(18))
	assert.False(t, QualityAdvisory(28))
	assert.True(t, QualityAdvisory(17.9))
	assert.True(t, QualityAdvisory(30))
}

func TestValidatePaths(t *testing.T) {
	cfg := validConfig()
	assert.ErrorIs(t, cfg.ValidatePaths("/a/b", "/a/b/"), ErrInvalidConfig)
	assert.NoError(t, cfg.ValidatePaths("/a/b", "/a/c"))
}

func TestLogFilePath(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, cfg.LogFilePath())

	cfg.LogDir = "/var/log/vc"
	assert.Equal(t, "/var/log/vc/vidconvert.log", cfg.LogFilePath())

	cfg.Logging.File = "/tmp/run.log"
	assert.Equal(t, "/tmp/run.log", cfg.LogFilePath())
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v, err := NewViper("")
	require.NoError(t, err)
	fs := newFlagSet(t)
	require.NoError(t, BindViper(v, fs))

	cfg, err := Load(v, fs, nil)
	require.NoError(t, err)

	home := os.Getenv("HOME")
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.InputDir)
	assert.Equal(t, filepath.Join(home, "Desktop"), cfg.OutputDir)
	assert.Equal(t, filepath.Join(home, "logs", "convert_videos"), cfg.LogDir)
	assert.Equal(t, "ffmpeg", cfg.Encoder)
	assert.Equal(t, "mp4info", cfg.Prober)
	assert.InDelta(t, 28.0, cfg.Quality, 1e-9)
	assert.InDelta(t, DefaultSavingsThreshold, cfg.SavingsThreshold, 1e-9)
	assert.True(t, cfg.RunValidation)
	assert.True(t, cfg.Fix)
	assert.Equal(t, ColorAuto, cfg.ColorMode)
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	file := filepath.Join(t.TempDir(), "vidconvert.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"quality: 20\nthreshold: 0.8\nencoder: /opt/ffmpeg\nlogging:\n  level: debug\n"), 0o644))

	t.Setenv("VIDCONVERT_THRESHOLD", "0.75")
	t.Setenv("VIDCONVERT_LOGGING_FORMAT", "text")

	v, err := NewViper(file)
	require.NoError(t, err)
	fs := newFlagSet(t, "--quality", "24", "--no-fix", "--no-color", "--timeout", "90s")
	require.NoError(t, BindViper(v, fs))

	cfg, err := Load(v, fs, []string{"/in/", "/out"})
	require.NoError(t, err)

	assert.InDelta(t, 24.0, cfg.Quality, 1e-9, "flag beats file")
	assert.InDelta(t, 0.75, cfg.SavingsThreshold, 1e-9, "env beats file")
	assert.Equal(t, "/opt/ffmpeg", cfg.Encoder, "file beats default")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.False(t, cfg.Fix)
	assert.True(t, cfg.RunValidation)
	assert.Equal(t, ColorNever, cfg.ColorMode)
	assert.Equal(t, "/in", cfg.InputDir)
	assert.Equal(t, "/out", cfg.OutputDir)
}

func TestLoad_FixFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	file := filepath.Join(t.TempDir(), "vidconvert.yaml")
	require.NoError(t, os.WriteFile(file, []byte("fix: false\n"), 0o644))

	load := func(args ...string) Config {
		t.Helper()
		v, err := NewViper(file)
		require.NoError(t, err)
		fs := newFlagSet(t, args...)
		require.NoError(t, BindViper(v, fs))
		cfg, err := Load(v, fs, nil)
		require.NoError(t, err)
		return *cfg
	}

	assert.False(t, load().Fix, "file value holds without the flag")
	assert.True(t, load("--fix").Fix)
	assert.False(t, load("--fix", "--no-fix").Fix)
}

func TestLoad_RejectsBadInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v, err := NewViper("")
	require.NoError(t, err)
	fs := newFlagSet(t, "--quality", "60")
	require.NoError(t, BindViper(v, fs))
	_, err = Load(v, fs, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	v, err = NewViper("")
	require.NoError(t, err)
	fs = newFlagSet(t)
	require.NoError(t, BindViper(v, fs))
	_, err = Load(v, fs, []string{"only-one"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "logs"), expandHome("~/logs"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs", expandHome("/abs"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
