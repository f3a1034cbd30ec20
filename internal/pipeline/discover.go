package pipeline

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/backmassage/vidconvert/internal/naming"
)

// Discover lists the regular files directly inside inputDir whose suffix is
// a recognized source container (case-insensitive), sorted by name for a
// deterministic processing order. Subdirectories are not searched.
func Discover(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !naming.IsSource(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(inputDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
