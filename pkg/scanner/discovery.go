package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/uiusage/pkg/parser"
)

// Matcher applies a codebase's include and exclude globs to paths relative
// to its root. Empty pattern lists fall back to DefaultIncludes and
// DefaultExcludes.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher validates the patterns.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	if len(include) == 0 {
		include = DefaultIncludes
	}
	if len(exclude) == 0 {
		exclude = DefaultExcludes
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Excluded reports whether relPath (slash separated) matches an exclude
// pattern. Directories are also tested with a trailing "/" segment so that
// "**/node_modules/**" prunes the directory itself.
func (m *Matcher) Excluded(relPath string, isDir bool) bool {
	for _, pattern := range m.exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		if isDir {
			if ok, _ := doublestar.Match(pattern, relPath+"/"); ok {
				return true
			}
		}
	}
	return false
}

// Matches reports whether a file should be analyzed. Only JavaScript and
// TypeScript sources match, whatever the include patterns say.
func (m *Matcher) Matches(relPath string) bool {
	if !parser.IsSourceFile(relPath) || m.Excluded(relPath, false) {
		return false
	}
	for _, pattern := range m.include {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// DiscoverFiles walks root and returns the sorted absolute paths of every
// file the matcher accepts. Unreadable directories are skipped.
func DiscoverFiles(root string, m *Matcher) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if m.Excluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !m.Matches(relPath) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	sort.Strings(files)
	return files, nil
}
