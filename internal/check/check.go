// Package check provides system diagnostics (the check command) and the
// pre-batch dependency validation (CheckDeps) for the encoder and the MP4
// prober, optionally installing missing tools with Homebrew.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/backmassage/vidconvert/internal/config"
	"github.com/backmassage/vidconvert/internal/display"
	"github.com/backmassage/vidconvert/internal/runner"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrEncoderNotFound  = errors.New("encoder not found on PATH")
	ErrProberNotFound   = errors.New("prober not found on PATH")
	ErrNoPackageManager = errors.New("brew not found on PATH")
)

// brewPackages lists tools whose Homebrew formula differs from the
// command name.
var brewPackages = map[string]string{
	"mp4info": "mp4v2",
}

// Logger is the minimal logging interface needed by this package.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a recording logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Command(string)
}

// Tools holds resolved executable paths.
type Tools struct {
	Encoder string
	Prober  string
}

// PackageFor returns the Homebrew formula that provides the command name.
func PackageFor(name string) string {
	base := filepath.Base(name)
	if pkg, ok := brewPackages[base]; ok {
		return pkg
	}
	return base
}

// FindBinary resolves name to an executable path. Names containing a path
// separator are checked in place; bare names are searched on PATH.
func FindBinary(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty binary name")
	}
	if strings.ContainsRune(name, filepath.Separator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("binary %s not found", name)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("binary %s not found", name)
	}
	return path, nil
}

// isExecutable checks if a file exists and is executable by the current user.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// CheckDeps verifies that the encoder and the prober can be found. When
// cfg.AutoInstall is set, missing tools are installed with Homebrew through
// r before giving up. Returns ErrEncoderNotFound or ErrProberNotFound.
func CheckDeps(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger) (Tools, error) {
	var tools Tools
	err := requireTools(ctx, cfg, r, log, []requirement{
		{cfg.Encoder, ErrEncoderNotFound, &tools.Encoder},
		{cfg.Prober, ErrProberNotFound, &tools.Prober},
	})
	return tools, err
}

// CheckProber is CheckDeps for commands that only need the prober.
// Returns ErrProberNotFound.
func CheckProber(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger) (string, error) {
	var path string
	err := requireTools(ctx, cfg, r, log, []requirement{
		{cfg.Prober, ErrProberNotFound, &path},
	})
	return path, err
}

type requirement struct {
	name     string
	sentinel error
	dst      *string
}

func requireTools(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger, required []requirement) error {
	var missing []string
	for _, req := range required {
		if path, err := FindBinary(req.name); err == nil {
			*req.dst = path
			continue
		}
		missing = append(missing, req.name)
	}
	if len(missing) == 0 {
		return nil
	}

	if cfg.AutoInstall {
		if err := Install(ctx, r, log, missing...); err != nil {
			log.Warn("Cannot install %s: %v", strings.Join(missing, ", "), err)
		}
	}

	for _, req := range required {
		if *req.dst != "" {
			continue
		}
		path, err := FindBinary(req.name)
		if err != nil {
			return fmt.Errorf("%w: %s", req.sentinel, req.name)
		}
		*req.dst = path
	}
	return nil
}

// Install runs "brew install" for the formulae providing names.
func Install(ctx context.Context, r runner.Runner, log Logger, names ...string) error {
	brew, err := FindBinary("brew")
	if err != nil {
		log.Warn("brew command not found. Cannot install packages: %s.", strings.Join(packagesFor(names), ", "))
		log.Warn("PATH=%s", os.Getenv("PATH"))
		return ErrNoPackageManager
	}

	cmd := runner.Command{Name: brew, Args: append([]string{"install"}, packagesFor(names)...)}
	log.Command(cmd.String())
	res := r.Run(ctx, cmd, nil)
	if !res.Success() {
		return fmt.Errorf("brew install exited with status %d", res.ExitCode)
	}
	return nil
}

func packagesFor(names []string) []string {
	pkgs := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		pkg := PackageFor(n)
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// FreeSpace returns the bytes available on the volume holding dir. A dir
// that does not exist yet is measured at its nearest existing ancestor.
func FreeSpace(ctx context.Context, dir string) (uint64, error) {
	path, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("disk usage for %s: %w", path, err)
	}
	return usage.Free, nil
}

// RunCheck runs the interactive check flow: prints the location and version
// of the encoder and prober and the free space on the output volume.
// It returns false when a required tool is missing.
func RunCheck(ctx context.Context, cfg *config.Config, r runner.Runner, log Logger) bool {
	log.Info("=== System Check ===")

	ok := true
	if !checkEncoder(ctx, cfg.Encoder, r, log) {
		ok = false
	}
	if !checkProber(cfg.Prober, log) {
		ok = false
	}
	checkDisk(ctx, cfg.OutputDir, log)
	return ok
}

// checkEncoder verifies the encoder resolves and logs its version string.
func checkEncoder(ctx context.Context, name string, r runner.Runner, log Logger) bool {
	path, err := FindBinary(name)
	if err != nil {
		log.Error("%s not found (install with: brew install %s)", name, PackageFor(name))
		return false
	}
	res := r.Run(ctx, runner.Command{Name: path, Args: []string{"-version"}}, nil)
	if !res.Success() {
		log.Warn("%s found at %s but -version failed", name, path)
		return true
	}
	firstLine := strings.TrimSpace(res.Output)
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", name, firstLine)
	return true
}

// checkProber only resolves the prober: mp4info has no version flag.
func checkProber(name string, log Logger) bool {
	path, err := FindBinary(name)
	if err != nil {
		log.Error("%s not found (install with: brew install %s)", name, PackageFor(name))
		return false
	}
	log.Success("%s: %s", name, path)
	return true
}

func checkDisk(ctx context.Context, dir string, log Logger) {
	free, err := FreeSpace(ctx, dir)
	if err != nil {
		log.Warn("Cannot read free space for %s: %v", dir, err)
		return
	}
	log.Info("Free space in %s: %s", dir, display.FormatSize(int64(free)))
}
