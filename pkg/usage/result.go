package usage

import "sort"

// UsageKind distinguishes rendered elements from value references.
type UsageKind int

const (
	// JSXInstance is one rendered `<Name ...>` element.
	JSXInstance UsageKind = iota
	// PropReference is a component passed as a value (`icon={CloseIcon}`).
	PropReference
)

func (k UsageKind) String() string {
	if k == PropReference {
		return "prop-reference"
	}
	return "jsx"
}

// ComponentUsage is one attributable occurrence of an imported component.
type ComponentUsage struct {
	Name     string
	Category SourceCategory
	Kind     UsageKind
}

// NativeTagUsage counts one allowlisted HTML/SVG element in a file.
type NativeTagUsage struct {
	Tag   string
	Count int
}

// CustomizationKind distinguishes the two styling forms that are tracked.
type CustomizationKind int

const (
	// InlineStyle is a `style={...}` attribute on a tracked component.
	InlineStyle CustomizationKind = iota
	// StyledWrapper is a `styled(Component)` declaration.
	StyledWrapper
)

func (k CustomizationKind) String() string {
	if k == StyledWrapper {
		return "styled-wrapper"
	}
	return "inline-style"
}

// Customization records one styling override of a tracked component.
type Customization struct {
	Kind      CustomizationKind
	Component string
	Library   string
	// VariableName is the variable a styled wrapper is assigned to, if any.
	VariableName string
	// Raw is the style expression or CSS body as written in the source.
	Raw string
	// Properties are the property names touched, sorted and unique.
	Properties []string
	// HasSpread is set when an object-literal style spreads another object.
	HasSpread bool
}

// FileAnalysisResult is everything learned about one source file.
// It is immutable once returned.
type FileAnalysisResult struct {
	// Usages holds attributable component usages bucketed by category.
	Usages map[SourceCategory][]ComponentUsage
	// NativeTags are the allowlisted native element counts, sorted by tag.
	NativeTags []NativeTagUsage
	// RawJSXCounts counts every PascalCase JSX element regardless of
	// whether its name resolved to an import.
	RawJSXCounts   map[string]int
	Customizations []Customization
	// Categories are the distinct categories imported by the file, sorted.
	Categories []SourceCategory

	UsesAnyTrackedLibrary          bool
	UsesInternal                   bool
	UsesTrackedLibraryWithInternal bool
}

// Counts returns component → usage count for one category.
func (r *FileAnalysisResult) Counts(cat SourceCategory) map[string]int {
	counts := make(map[string]int)
	for _, u := range r.Usages[cat] {
		counts[u.Name]++
	}
	return counts
}

// CountsByKind returns component → count restricted to one usage kind.
func (r *FileAnalysisResult) CountsByKind(cat SourceCategory, kind UsageKind) map[string]int {
	counts := make(map[string]int)
	for _, u := range r.Usages[cat] {
		if u.Kind == kind {
			counts[u.Name]++
		}
	}
	return counts
}

// Total returns the number of usages in one category.
func (r *FileAnalysisResult) Total(cat SourceCategory) int {
	return len(r.Usages[cat])
}

// NativeTotal returns the number of native element occurrences.
func (r *FileAnalysisResult) NativeTotal() int {
	total := 0
	for _, t := range r.NativeTags {
		total += t.Count
	}
	return total
}

// TotalInstances is every attributed usage plus every native element.
func (r *FileAnalysisResult) TotalInstances() int {
	total := r.NativeTotal()
	for _, bucket := range r.Usages {
		total += len(bucket)
	}
	return total
}

// LibrariesUsed returns the names of tracked libraries imported by the file.
func (r *FileAnalysisResult) LibrariesUsed() []string {
	var names []string
	for _, cat := range r.Categories {
		if cat.IsLibrary() {
			names = append(names, cat.Library)
		}
	}
	return names
}

// Observation is the raw material an engine collects for one file before
// it is assembled into a FileAnalysisResult.
type Observation struct {
	// Names maps resolved local names to their category.
	Names map[string]SourceCategory
	// Categories are the distinct categories observed in imports.
	Categories []SourceCategory
	// JSXCounts counts rendered PascalCase elements by name.
	JSXCounts map[string]int
	// PropReferences counts value references not already rendered as JSX.
	PropReferences map[string]int
	// NativeCounts counts allowlisted native elements.
	NativeCounts   map[string]int
	Customizations []Customization
}

// Assemble turns an Observation into a FileAnalysisResult. Both engines go
// through here so bucketing and the derived flags cannot drift apart.
func Assemble(obs Observation) *FileAnalysisResult {
	res := &FileAnalysisResult{
		Usages:         make(map[SourceCategory][]ComponentUsage),
		NativeTags:     nativeUsages(obs.NativeCounts),
		RawJSXCounts:   make(map[string]int, len(obs.JSXCounts)),
		Customizations: obs.Customizations,
		Categories:     obs.Categories,
	}
	for name, n := range obs.JSXCounts {
		if n > 0 {
			res.RawJSXCounts[name] = n
		}
	}

	for _, name := range sortedKeys(obs.Names) {
		cat := obs.Names[name]
		for i := 0; i < obs.JSXCounts[name]; i++ {
			res.Usages[cat] = append(res.Usages[cat], ComponentUsage{Name: name, Category: cat, Kind: JSXInstance})
		}
		for i := 0; i < obs.PropReferences[name]; i++ {
			res.Usages[cat] = append(res.Usages[cat], ComponentUsage{Name: name, Category: cat, Kind: PropReference})
		}
	}

	for _, cat := range obs.Categories {
		switch cat.Kind {
		case KindLibrary:
			res.UsesAnyTrackedLibrary = true
		case KindInternal:
			res.UsesInternal = true
		}
	}
	res.UsesTrackedLibraryWithInternal = res.UsesAnyTrackedLibrary && res.UsesInternal
	return res
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
