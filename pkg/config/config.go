// Package config loads the YAML project configuration: which libraries to
// track, which codebases to scan and how hard to work doing it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/uiusage/pkg/usage"
	"github.com/gnana997/uiusage/presets"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = ".uiusage.yaml"

// Config holds the contents of .uiusage.yaml.
type Config struct {
	Libraries       []Library  `yaml:"libraries"`
	OtherUIPatterns []string   `yaml:"other_ui_patterns"`
	InternalMarkers []string   `yaml:"internal_markers,omitempty"`
	Codebases       []Codebase `yaml:"codebases"`
	Scan            Scan       `yaml:"scan"`

	// Path is the file the config was read from, empty for the embedded
	// preset. Relative codebase roots resolve against its directory.
	Path string `yaml:"-"`
}

// Library is one tracked UI library.
type Library struct {
	Name           string   `yaml:"name"`
	ImportSources  []string `yaml:"import_sources"`
	ExcludeSources []string `yaml:"exclude_sources,omitempty"`
}

// Codebase is a directory tree scanned as one unit.
type Codebase struct {
	Name    string   `yaml:"name"`
	Root    string   `yaml:"root"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Scan tunes the scanner. Zero values pick defaults.
type Scan struct {
	Workers     int `yaml:"workers"`
	CacheSize   int `yaml:"cache_size"`
	MaxMemoryMB int `yaml:"max_memory_mb"`
	MaxFileKB   int `yaml:"max_file_kb"`
}

// Load reads and validates a config file. An empty path tries
// DefaultFileName and falls back to the embedded preset when it does not
// exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Path, err = filepath.Abs(path); err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return cfg, nil
}

// Default returns the embedded preset.
func Default() (*Config, error) {
	cfg, err := Parse(presets.DefaultYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded preset: %w", err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML. Unknown keys are rejected so typos in
// option names surface instead of silently using defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	errs := []error{c.Resolved().Validate()}

	seen := make(map[string]bool)
	for i, cb := range c.Codebases {
		switch {
		case cb.Name == "":
			errs = append(errs, fmt.Errorf("codebases[%d]: name is required", i))
		case seen[cb.Name]:
			errs = append(errs, fmt.Errorf("codebases[%d]: duplicate name %q", i, cb.Name))
		}
		seen[cb.Name] = true
		if cb.Root == "" {
			errs = append(errs, fmt.Errorf("codebases[%d]: root is required", i))
		}
		for _, p := range append(append([]string{}, cb.Include...), cb.Exclude...) {
			if !doublestar.ValidatePattern(p) {
				errs = append(errs, fmt.Errorf("codebases[%d]: invalid glob %q", i, p))
			}
		}
	}

	if c.Scan.Workers < 0 || c.Scan.CacheSize < 0 || c.Scan.MaxMemoryMB < 0 || c.Scan.MaxFileKB < 0 {
		errs = append(errs, errors.New("scan: limits must not be negative"))
	}
	return errors.Join(errs...)
}

// Resolved converts the library section into what the analysis needs.
func (c *Config) Resolved() usage.ResolvedConfig {
	libs := make([]usage.LibrarySpec, 0, len(c.Libraries))
	for _, l := range c.Libraries {
		libs = append(libs, usage.LibrarySpec{
			Name:           l.Name,
			ImportSources:  l.ImportSources,
			ExcludeSources: l.ExcludeSources,
		})
	}
	return usage.ResolvedConfig{
		Libraries:       libs,
		OtherUIPatterns: c.OtherUIPatterns,
		InternalMarkers: c.InternalMarkers,
	}
}

// Codebase looks a codebase up by name.
func (c *Config) Codebase(name string) (Codebase, bool) {
	for _, cb := range c.Codebases {
		if cb.Name == name {
			return cb, true
		}
	}
	return Codebase{}, false
}

// ResolvedCodebases returns the codebases with roots made absolute
// relative to the config file, or the working directory for the preset.
func (c *Config) ResolvedCodebases() ([]Codebase, error) {
	base := "."
	if c.Path != "" {
		base = filepath.Dir(c.Path)
	}
	out := make([]Codebase, 0, len(c.Codebases))
	for _, cb := range c.Codebases {
		root := cb.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(base, root)
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("codebase %s: %w", cb.Name, err)
		}
		cb.Root = abs
		out = append(out, cb)
	}
	return out, nil
}
