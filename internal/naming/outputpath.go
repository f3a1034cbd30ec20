package naming

import (
	"os"
	"path/filepath"
	"strings"
)

// OutputPath returns the converted file path for src inside outputDir.
//
//	/in/Holiday.MOV -> <outputDir>/Holiday.mp4
func OutputPath(src, outputDir string) string {
	return filepath.Join(outputDir, BaseName(src)+"."+TargetContainer)
}

// LogPath returns the per-file encoder log for src, or "" when logDir is empty.
func LogPath(src, logDir string) string {
	if logDir == "" {
		return ""
	}
	return filepath.Join(logDir, BaseName(src)+".log")
}

// OriginalCandidates lists the paths tried, in order, when looking for the
// source of converted inside sourceDir.
func OriginalCandidates(converted, sourceDir string) []string {
	base := BaseName(converted)
	out := make([]string, 0, 2*len(SourceExtensions))
	for _, ext := range SourceExtensions {
		out = append(out,
			filepath.Join(sourceDir, base+"."+ext),
			filepath.Join(sourceDir, base+"."+strings.ToUpper(ext)),
		)
	}
	return out
}

// FindOriginal returns the first existing regular file among
// OriginalCandidates.
func FindOriginal(converted, sourceDir string) (string, bool) {
	for _, candidate := range OriginalCandidates(converted, sourceDir) {
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}
