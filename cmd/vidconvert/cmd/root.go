// Package cmd implements the vidconvert CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/display"
	"github.com/backmassage/vidconvert/internal/logging"
)

// Version and Commit are injected at build time via -ldflags
// "-X github.com/backmassage/vidconvert/cmd/vidconvert/cmd.Version=...".
var (
	Version = "1.0.0"
	Commit  = "unknown"
)

// cfgFile holds the config file path from the --config flag.
var cfgFile string

// rootCmd converts when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "vidconvert [folder output_folder]",
	Short: "Convert a folder of videos into smaller MP4 files",
	Long: `vidconvert converts every video in a folder (mp4, mov, avi, wmv, flv, vob)
into an H.264 MP4 in the output folder using ffmpeg, then validates the batch:
it reports compression ratios, flags bitrate regressions, and restores MP4
originals whose conversion did not save enough space.

MP4 sources are converted in two passes (audio, then video) so the smaller
audio track is kept. Settings come from flags, VIDCONVERT_* environment
variables, and ~/.vidconvert.yaml, in that order of precedence.`,
	Version:      Version,
	Args:         cobra.RangeArgs(0, 2),
	SilenceUsage: true,
	RunE:         runConvert,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vidconvert.yaml)")
	config.BindFlags(rootCmd.PersistentFlags())
	rootCmd.SetVersionTemplate(fmt.Sprintf("vidconvert {{.Version}} (%s)\n", Commit))
}

// loadConfig layers flags, environment, config file and defaults for cmd.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.BindViper(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v, cmd.Flags(), args)
}

// session bundles what every command needs once the config is loaded.
type session struct {
	cfg   *config.Config
	log   *logging.Logger
	runID string
}

// openSession loads the config and opens the logger. Before the logger
// exists, errors go straight to stderr.
func openSession(cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vidconvert: %v\n", err)
		return nil, err
	}

	runID := ulid.Make().String()
	log, err := logging.NewLogger(cfg, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vidconvert: %v\n", err)
		return nil, err
	}
	return &session{cfg: cfg, log: log, runID: runID}, nil
}

func (s *session) close() { _ = s.log.Close() }

// banner prints the banner and the run header.
func (s *session) banner(cmd *cobra.Command) {
	display.PrintBanner(cmd.OutOrStdout(), Version)
	s.log.Info("=== vidconvert v%s (%s) run %s ===", Version, Commit, s.runID)
}

// signalContext cancels on SIGINT/SIGTERM so the batch stops between files.
// The encoder receives the same signal and exits; its partial output is
// removed like any other failure.
func (s *session) signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			s.log.Warn("Received interrupt, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// resolveDirs checks that the input folder exists, creates the output
// folder (unless dry-running), and rejects identical folders.
func resolveDirs(cfg *config.Config, log *logging.Logger) error {
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input folder not found: %s", cfg.InputDir)
		return err
	}
	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.Error("Cannot create output folder: %s", cfg.OutputDir)
			return err
		}
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		if !cfg.DryRun {
			log.Error("Cannot resolve output path: %s", cfg.OutputDir)
			return err
		}
		outputAbs, _ = filepath.Abs(cfg.OutputDir)
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output folder other than: %s", cfg.InputDir)
		return err
	}
	return nil
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input and output folders.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
