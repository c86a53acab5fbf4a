// Package report turns aggregates into adoption summaries and renders
// them as text tables, Markdown, CSV or JSON.
package report

import (
	"sort"

	"github.com/gnana997/uiusage/pkg/scanner"
	"github.com/gnana997/uiusage/pkg/usage"
)

// GlobalName labels the summary folding every codebase.
const GlobalName = "global"

// Ranked is a component with its count.
type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategorySummary is one source category's share of all instances.
type CategorySummary struct {
	Category   string   `json:"category"`
	Total      int      `json:"total"`
	Share      float64  `json:"share"`
	Components []Ranked `json:"components"`
}

// LibrarySummary is the adoption picture for one tracked library.
type LibrarySummary struct {
	Name  string  `json:"name"`
	Total int     `json:"total"`
	Share float64 `json:"share"`
	// PropReferences are included in Total.
	PropReferences int `json:"prop_references"`
	FilesUsing     int `json:"files_using"`
	// AdoptionRate is FilesUsing / Files.
	AdoptionRate float64 `json:"adoption_rate"`
	// InternalOverlap is the fraction of files importing internal
	// components that also import this library.
	InternalOverlap float64 `json:"internal_overlap"`
	InlineStyles    int     `json:"inline_styles"`
	StyledWrappers  int     `json:"styled_wrappers"`
	// Customized lists components overridden most often.
	Customized []Ranked `json:"customized,omitempty"`
}

// Summary is the renderable view of one aggregate.
type Summary struct {
	Name           string            `json:"name"`
	Files          int               `json:"files"`
	TotalInstances int               `json:"total_instances"`
	NativeTotal    int               `json:"native_total"`
	NativeShare    float64           `json:"native_share"`
	AnyLibrary     int               `json:"any_library_total"`
	Categories     []CategorySummary `json:"categories"`
	Libraries      []LibrarySummary  `json:"libraries"`
	TopComponents  []Ranked          `json:"top_components"`
	TopNativeTags  []Ranked          `json:"top_native_tags"`
	StyleOverrides []Ranked          `json:"style_overrides,omitempty"`

	FilesWithInternal           int `json:"files_with_internal"`
	FilesWithAnyLibrary         int `json:"files_with_any_library"`
	FilesWithInternalAndLibrary int `json:"files_with_internal_and_library"`
}

// Summarize builds a summary. libraries fixes the library order and makes
// configured libraries with no usage appear with zero counts; pass nil to
// list only libraries seen. top limits ranked lists (0 = unlimited).
func Summarize(name string, agg *usage.AggregateResult, libraries []string, top int) Summary {
	if agg == nil {
		agg = usage.NewAggregate()
	}
	total := agg.TotalInstances()
	_, anyLib := agg.AnyLibrary()

	s := Summary{
		Name:                        name,
		Files:                       agg.Files,
		TotalInstances:              total,
		NativeTotal:                 agg.NativeTotal,
		NativeShare:                 Ratio(agg.NativeTotal, total),
		AnyLibrary:                  anyLib,
		TopComponents:               ranked(agg.TopComponents(top)),
		TopNativeTags:               rankCounts(agg.NativeTags, top),
		StyleOverrides:              rankCounts(agg.StyleProperties, top),
		FilesWithInternal:           agg.FilesWithInternal,
		FilesWithAnyLibrary:         agg.FilesWithAnyLibrary,
		FilesWithInternalAndLibrary: agg.FilesWithInternalAndLibrary,
	}

	for _, cat := range agg.Categories() {
		s.Categories = append(s.Categories, CategorySummary{
			Category:   cat.String(),
			Total:      agg.Totals[cat],
			Share:      Ratio(agg.Totals[cat], total),
			Components: ranked(agg.TopForCategory(cat, top)),
		})
	}

	libs := libraries
	if libs == nil {
		libs = agg.Libraries()
	}
	for _, lib := range libs {
		s.Libraries = append(s.Libraries, summarizeLibrary(agg, lib, total, top))
	}
	return s
}

// FromScan summarizes each codebase and, when there is more than one, the
// global fold.
func FromScan(rep *scanner.ScanReport, libraries []string, top int) []Summary {
	out := make([]Summary, 0, len(rep.Codebases)+1)
	for _, cb := range rep.Codebases {
		out = append(out, Summarize(cb.Name, cb.Aggregate, libraries, top))
	}
	if len(rep.Codebases) > 1 {
		out = append(out, Summarize(GlobalName, rep.Global, libraries, top))
	}
	return out
}

func summarizeLibrary(agg *usage.AggregateResult, lib string, total, top int) LibrarySummary {
	cat := usage.Library(lib)
	refs := 0
	for _, n := range agg.PropReferences[cat] {
		refs += n
	}

	customized := make(map[string]int)
	inline, styled := 0, 0
	for comp, n := range agg.InlineStyles[lib] {
		customized[comp] += n
		inline += n
	}
	for comp, n := range agg.StyledWrappers[lib] {
		customized[comp] += n
		styled += n
	}

	return LibrarySummary{
		Name:            lib,
		Total:           agg.Totals[cat],
		Share:           Ratio(agg.Totals[cat], total),
		PropReferences:  refs,
		FilesUsing:      agg.FilesUsingLibrary[lib],
		AdoptionRate:    AdoptionRate(agg, lib),
		InternalOverlap: InternalOverlap(agg.Adoption(lib)),
		InlineStyles:    inline,
		StyledWrappers:  styled,
		Customized:      rankCounts(customized, top),
	}
}

// Ratio returns part/whole, or 0 when whole is 0.
func Ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

// AdoptionRate is the fraction of analyzed files importing lib.
func AdoptionRate(agg *usage.AggregateResult, lib string) float64 {
	return Ratio(agg.FilesUsingLibrary[lib], agg.Files)
}

// InternalOverlap is the fraction of files with internal components that
// also import the library: how often teams wrap or mix rather than adopt.
func InternalOverlap(a usage.Adoption) float64 {
	return Ratio(a.FilesWithInternalAlsoUsingLibrary, a.FilesWithInternal)
}

func ranked(in []usage.ComponentCount) []Ranked {
	var out []Ranked
	for _, c := range in {
		out = append(out, Ranked{Name: c.Name, Count: c.Count})
	}
	return out
}

func rankCounts(counts map[string]int, top int) []Ranked {
	var out []Ranked
	for name, n := range counts {
		out = append(out, Ranked{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
