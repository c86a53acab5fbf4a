// Package presets provides the embedded default configuration used when a
// project has no .uiusage.yaml of its own.
package presets

import _ "embed"

// DefaultYAML tracks shadcn/ui and Radix primitives and scans the working
// directory.
//
//go:embed default.yaml
var DefaultYAML []byte
