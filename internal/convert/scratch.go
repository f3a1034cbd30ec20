package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/backmassage/vidconvert/internal/naming"
)

// ScratchPrefix names per-run scratch directories: "vidconvert-<ULID>".
const ScratchPrefix = "vidconvert-"

// DefaultOrphanAge is how old a scratch directory must be before
// CleanupOrphaned treats it as left over from a crashed run.
const DefaultOrphanAge = 24 * time.Hour

// Scratch is a directory private to one batch run that holds two-pass
// intermediate files.
type Scratch struct {
	dir string
}

// NewScratch creates a fresh scratch directory under base (the system temp
// directory when base is empty).
func NewScratch(base string) (*Scratch, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch base %s: %w", base, err)
	}
	dir := filepath.Join(base, ScratchPrefix+ulid.Make().String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory.
func (s *Scratch) Dir() string { return s.dir }

// Path returns the intermediate MP4 path for src.
func (s *Scratch) Path(src string) string {
	return naming.OutputPath(src, s.dir)
}

// Close removes the scratch directory and everything in it.
func (s *Scratch) Close() error {
	return os.RemoveAll(s.dir)
}

// CleanupOrphaned removes scratch directories under baseDir older than
// maxAge and returns how many were removed.
func CleanupOrphaned(logger *slog.Logger, baseDir string, maxAge time.Duration) (int, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), ScratchPrefix) {
			continue
		}
		dirPath := filepath.Join(baseDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat scratch directory", "path", dirPath, "error", err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			logger.Warn("failed to remove orphaned scratch directory", "path", dirPath, "error", err)
			continue
		}
		logger.Info("removed orphaned scratch directory",
			"path", dirPath,
			"age", time.Since(info.ModTime()).Round(time.Second),
		)
		removed++
	}
	return removed, nil
}
