package usage

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultInternalMarkers are path fragments that identify codebase-owned
// component directories even when imported through an alias.
var DefaultInternalMarkers = []string{"ui-components", "primitives", "components"}

// LibrarySpec describes one tracked UI library.
type LibrarySpec struct {
	Name string
	// ImportSources are substrings; a module path containing any of them
	// belongs to the library.
	ImportSources []string
	// ExcludeSources scope out sub-paths of this library only.
	ExcludeSources []string
}

// ResolvedConfig is everything the analysis needs to categorize imports.
type ResolvedConfig struct {
	Libraries       []LibrarySpec
	OtherUIPatterns []string
	// InternalMarkers overrides DefaultInternalMarkers when non-nil.
	InternalMarkers []string
}

// LibraryNames returns the tracked library names in configuration order.
func (c ResolvedConfig) LibraryNames() []string {
	names := make([]string, 0, len(c.Libraries))
	for _, lib := range c.Libraries {
		names = append(names, lib.Name)
	}
	return names
}

// Markers returns the internal markers in effect.
func (c ResolvedConfig) Markers() []string {
	if c.InternalMarkers != nil {
		return c.InternalMarkers
	}
	return DefaultInternalMarkers
}

// Validate checks the configuration for mistakes that would silently
// misattribute usages.
func (c ResolvedConfig) Validate() error {
	var errs []error
	if len(c.Libraries) == 0 {
		errs = append(errs, errors.New("at least one tracked library is required"))
	}
	seen := make(map[string]bool, len(c.Libraries))
	for i, lib := range c.Libraries {
		name := strings.TrimSpace(lib.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("libraries[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("libraries[%d]: duplicate library name %q", i, name))
		}
		seen[name] = true
		if len(nonEmpty(lib.ImportSources)) == 0 {
			errs = append(errs, fmt.Errorf("libraries[%d] (%s): at least one import source is required", i, name))
		}
	}
	return errors.Join(errs...)
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
