package naming

import (
	"path/filepath"
	"strings"
)

// TargetContainer is the container every conversion produces.
const TargetContainer = "mp4"

// SourceExtensions lists the recognized input containers, in lookup order.
var SourceExtensions = []string{"mp4", "mov", "avi", "wmv", "flv", "vob"}

// Container returns the lowercase extension of path without the dot. The
// file does not need to exist.
func Container(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsMP4 reports whether path has an .mp4 extension in any case.
func IsMP4(path string) bool {
	return Container(path) == TargetContainer
}

// IsSource reports whether path has a recognized source extension.
func IsSource(path string) bool {
	c := Container(path)
	for _, ext := range SourceExtensions {
		if c == ext {
			return true
		}
	}
	return false
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
