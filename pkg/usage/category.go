package usage

import "strings"

// CategoryKind identifies which family of sources an import belongs to.
type CategoryKind int

const (
	// KindUncategorized is never recorded; names resolving to it are dropped.
	KindUncategorized CategoryKind = iota
	// KindLibrary is one of the configured tracked libraries.
	KindLibrary
	// KindOtherUI is a recognized UI library that is not tracked.
	KindOtherUI
	// KindInternal is code owned by the scanned codebase.
	KindInternal
)

// SourceCategory is the tagged variant attached to every resolved local name.
// It is comparable and used directly as a map key.
type SourceCategory struct {
	Kind CategoryKind
	// Library is the tracked library name; only set when Kind == KindLibrary.
	Library string
}

var (
	// OtherUI is the category for recognized non-tracked UI libraries.
	OtherUI = SourceCategory{Kind: KindOtherUI}
	// Internal is the category for codebase-owned components.
	Internal = SourceCategory{Kind: KindInternal}
	// Uncategorized marks a source nobody tracks.
	Uncategorized = SourceCategory{Kind: KindUncategorized}
)

// Library returns the category of the tracked library with the given name.
func Library(name string) SourceCategory {
	return SourceCategory{Kind: KindLibrary, Library: name}
}

// IsLibrary reports whether c is a tracked-library category.
func (c SourceCategory) IsLibrary() bool {
	return c.Kind == KindLibrary
}

// String returns a stable key such as "library:acme", "other-ui" or "internal".
func (c SourceCategory) String() string {
	switch c.Kind {
	case KindLibrary:
		return "library:" + c.Library
	case KindOtherUI:
		return "other-ui"
	case KindInternal:
		return "internal"
	default:
		return "uncategorized"
	}
}

// ParseCategory is the inverse of SourceCategory.String.
func ParseCategory(s string) (SourceCategory, bool) {
	switch {
	case strings.HasPrefix(s, "library:") && len(s) > len("library:"):
		return Library(strings.TrimPrefix(s, "library:")), true
	case s == "other-ui":
		return OtherUI, true
	case s == "internal":
		return Internal, true
	default:
		return Uncategorized, false
	}
}

// categoryLess orders categories: libraries by name, then other-ui, then internal.
func categoryLess(a, b SourceCategory) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Library < b.Library
}
