package usage

import (
	"iter"
	"sort"
)

// Adoption holds the per-library adoption counters.
type Adoption struct {
	// FilesWithInternal counts files importing at least one internal component.
	FilesWithInternal int
	// FilesWithInternalAlsoUsingLibrary counts those files that also import
	// the library.
	FilesWithInternalAlsoUsingLibrary int
}

// AggregateResult is the fold of many FileAnalysisResults. Folding is
// associative and commutative, so files may be added in any order and
// partial aggregates merged freely.
type AggregateResult struct {
	Files int

	// Components is category → component → usage count.
	Components map[SourceCategory]map[string]int
	// Totals is category → usage count.
	Totals map[SourceCategory]int
	// PropReferences is category → component → count of PropReference usages
	// (already included in Components).
	PropReferences map[SourceCategory]map[string]int

	NativeTags  map[string]int
	NativeTotal int

	// RawJSX counts every PascalCase element by name, resolved or not.
	RawJSX map[string]int

	FilesWithInternal             int
	FilesWithAnyLibrary           int
	FilesWithInternalAndLibrary   int
	FilesUsingLibrary             map[string]int
	FilesWithInternalUsingLibrary map[string]int

	// InlineStyles and StyledWrappers are library → component → count.
	InlineStyles   map[string]map[string]int
	StyledWrappers map[string]map[string]int
	// StyleProperties counts how often each property name is overridden.
	StyleProperties map[string]int
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *AggregateResult {
	return &AggregateResult{
		Components:                    make(map[SourceCategory]map[string]int),
		Totals:                        make(map[SourceCategory]int),
		PropReferences:                make(map[SourceCategory]map[string]int),
		NativeTags:                    make(map[string]int),
		RawJSX:                        make(map[string]int),
		FilesUsingLibrary:             make(map[string]int),
		FilesWithInternalUsingLibrary: make(map[string]int),
		InlineStyles:                  make(map[string]map[string]int),
		StyledWrappers:                make(map[string]map[string]int),
		StyleProperties:               make(map[string]int),
	}
}

// Aggregate folds a slice of results. Nil entries (skipped files) are ignored.
func Aggregate(results []*FileAnalysisResult) *AggregateResult {
	agg := NewAggregate()
	for _, r := range results {
		agg.Add(r)
	}
	return agg
}

// AggregateSeq folds a stream of results.
func AggregateSeq(results iter.Seq[*FileAnalysisResult]) *AggregateResult {
	agg := NewAggregate()
	for r := range results {
		agg.Add(r)
	}
	return agg
}

// Add folds one file into the aggregate. A nil result contributes nothing.
func (a *AggregateResult) Add(r *FileAnalysisResult) {
	if r == nil {
		return
	}
	a.Files++

	for cat, bucket := range r.Usages {
		if len(bucket) == 0 {
			continue
		}
		comps := nested(a.Components, cat)
		for _, u := range bucket {
			comps[u.Name]++
			if u.Kind == PropReference {
				nested(a.PropReferences, cat)[u.Name]++
			}
		}
		a.Totals[cat] += len(bucket)
	}

	for _, t := range r.NativeTags {
		a.NativeTags[t.Tag] += t.Count
		a.NativeTotal += t.Count
	}
	for name, n := range r.RawJSXCounts {
		a.RawJSX[name] += n
	}

	libs := r.LibrariesUsed()
	for _, lib := range libs {
		a.FilesUsingLibrary[lib]++
	}
	if r.UsesAnyTrackedLibrary {
		a.FilesWithAnyLibrary++
	}
	if r.UsesInternal {
		a.FilesWithInternal++
		for _, lib := range libs {
			a.FilesWithInternalUsingLibrary[lib]++
		}
	}
	if r.UsesTrackedLibraryWithInternal {
		a.FilesWithInternalAndLibrary++
	}

	for _, c := range r.Customizations {
		target := a.InlineStyles
		if c.Kind == StyledWrapper {
			target = a.StyledWrappers
		}
		nested(target, c.Library)[c.Component]++
		for _, p := range c.Properties {
			a.StyleProperties[p]++
		}
	}
}

// Merge folds another aggregate into a.
func (a *AggregateResult) Merge(b *AggregateResult) {
	if b == nil {
		return
	}
	a.Files += b.Files
	mergeNested(a.Components, b.Components)
	mergeNested(a.PropReferences, b.PropReferences)
	mergeCounts(a.Totals, b.Totals)
	mergeCounts(a.NativeTags, b.NativeTags)
	a.NativeTotal += b.NativeTotal
	mergeCounts(a.RawJSX, b.RawJSX)
	a.FilesWithInternal += b.FilesWithInternal
	a.FilesWithAnyLibrary += b.FilesWithAnyLibrary
	a.FilesWithInternalAndLibrary += b.FilesWithInternalAndLibrary
	mergeCounts(a.FilesUsingLibrary, b.FilesUsingLibrary)
	mergeCounts(a.FilesWithInternalUsingLibrary, b.FilesWithInternalUsingLibrary)
	mergeNested(a.InlineStyles, b.InlineStyles)
	mergeNested(a.StyledWrappers, b.StyledWrappers)
	mergeCounts(a.StyleProperties, b.StyleProperties)
}

// Adoption returns the adoption counters for one tracked library.
func (a *AggregateResult) Adoption(library string) Adoption {
	return Adoption{
		FilesWithInternal:                 a.FilesWithInternal,
		FilesWithInternalAlsoUsingLibrary: a.FilesWithInternalUsingLibrary[library],
	}
}

// TotalInstances is every attributed usage plus every native element.
func (a *AggregateResult) TotalInstances() int {
	total := a.NativeTotal
	for _, n := range a.Totals {
		total += n
	}
	return total
}

// Libraries returns the tracked library names with at least one usage or
// importing file, sorted.
func (a *AggregateResult) Libraries() []string {
	set := make(map[string]bool)
	for cat := range a.Totals {
		if cat.IsLibrary() {
			set[cat.Library] = true
		}
	}
	for lib := range a.FilesUsingLibrary {
		set[lib] = true
	}
	return sortedSet(set)
}

// Categories returns the categories with recorded usages, sorted.
func (a *AggregateResult) Categories() []SourceCategory {
	cats := make([]SourceCategory, 0, len(a.Totals))
	for cat := range a.Totals {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return categoryLess(cats[i], cats[j]) })
	return cats
}

// AnyLibrary re-derives the combined tracked-library bucket by summing all
// Library categories. It is computed on demand so it can never drift.
func (a *AggregateResult) AnyLibrary() (map[string]int, int) {
	combined := make(map[string]int)
	total := 0
	for cat, comps := range a.Components {
		if !cat.IsLibrary() {
			continue
		}
		for name, n := range comps {
			combined[name] += n
		}
		total += a.Totals[cat]
	}
	return combined, total
}

// ComponentCount is a name with its count, used for ranked listings.
type ComponentCount struct {
	Name  string
	Count int
}

// TopComponents ranks raw JSX counts across all categories.
func (a *AggregateResult) TopComponents(n int) []ComponentCount {
	return topN(a.RawJSX, n)
}

// TopForCategory ranks the components of one category.
func (a *AggregateResult) TopForCategory(cat SourceCategory, n int) []ComponentCount {
	return topN(a.Components[cat], n)
}

// topN sorts by count descending then name; n <= 0 returns everything.
func topN(counts map[string]int, n int) []ComponentCount {
	out := make([]ComponentCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, ComponentCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func nested[K comparable](m map[K]map[string]int, key K) map[string]int {
	inner, ok := m[key]
	if !ok {
		inner = make(map[string]int)
		m[key] = inner
	}
	return inner
}

func mergeCounts[K comparable](dst, src map[K]int) {
	for k, n := range src {
		dst[k] += n
	}
}

func mergeNested[K comparable](dst, src map[K]map[string]int) {
	for k, inner := range src {
		if len(inner) == 0 {
			continue
		}
		mergeCounts(nested(dst, k), inner)
	}
}
