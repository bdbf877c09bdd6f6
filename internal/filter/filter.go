// Package filter decides which files of an input directory take part in a run.
package filter

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrEmptyPath is returned when no identifier file was configured.
var ErrEmptyPath = errors.New("identifier file path cannot be empty")

// Set is an unordered collection of file stems.
type Set map[string]struct{}

// NewSet builds a Set from the given identifiers, ignoring empty ones.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Contains reports whether id is a member of the set.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of distinct identifiers.
func (s Set) Len() int { return len(s) }

// LoadIdentifiers reads one identifier per line. Surrounding whitespace is
// trimmed, blank lines are skipped and a UTF-8 BOM on the first line is removed.
// A missing file is an error wrapping fs.ErrNotExist.
func LoadIdentifiers(path string) (Set, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f, err := os.Open(path) //nolint:gosec // G304: identifier file path is user supplied
	if err != nil {
		return nil, fmt.Errorf("failed to open identifier file: %w", err)
	}
	defer func() { _ = f.Close() }()

	set := make(Set)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line = strings.TrimSpace(line); line != "" {
			set[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read identifier file: %w", err)
	}
	return set, nil
}

// SplitName separates a file name into stem and extension. Only the last
// extension is split off; a leading dot does not start an extension.
func SplitName(name string) (stem, ext string) {
	name = filepath.Base(name)
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if strings.Trim(stem, ".") == "" {
		return name, ""
	}
	return stem, ext
}

// Filter combines the identifier set with an extension allow-list.
type Filter struct {
	IDs Set
	// Extensions holds lowercase extensions including the dot. An empty list
	// accepts every extension.
	Extensions []string
}

// New returns a Filter with normalized extensions.
func New(ids Set, extensions []string) *Filter {
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !slices.Contains(exts, e) {
			exts = append(exts, e)
		}
	}
	return &Filter{IDs: ids, Extensions: exts}
}

// Eligible reports whether the file name passes both the identifier and the
// extension check. Extension comparison is case-insensitive.
func (f *Filter) Eligible(name string) bool {
	stem, ext := SplitName(name)
	if !f.IDs.Contains(stem) {
		return false
	}
	if len(f.Extensions) == 0 {
		return true
	}
	return slices.Contains(f.Extensions, strings.ToLower(ext))
}
