package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/ocrbatch/internal/filter"
)

// scanDirectory lists dir without descending into subdirectories and returns
// the eligible regular files in lexical order. Symlinks are followed.
func scanDirectory(dir string, f *filter.Filter, stats *Stats) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read input directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		stats.Entries++
		if !f.Eligible(e.Name()) {
			continue
		}
		if !isRegularFile(filepath.Join(dir, e.Name()), e) {
			continue
		}
		stats.Eligible++
		names = append(names, e.Name())
	}
	return names, nil
}

func isRegularFile(path string, e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
