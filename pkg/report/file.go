package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gnana997/uiusage/pkg/usage"
)

// FileComponent is one resolved component of a file.
type FileComponent struct {
	Category       string `json:"category"`
	Name           string `json:"name"`
	JSX            int    `json:"jsx"`
	PropReferences int    `json:"prop_references"`
}

// FileCustomization is one styling override found in a file.
type FileCustomization struct {
	Kind       string   `json:"kind"`
	Library    string   `json:"library"`
	Component  string   `json:"component"`
	Variable   string   `json:"variable,omitempty"`
	Properties []string `json:"properties,omitempty"`
	HasSpread  bool     `json:"has_spread,omitempty"`
}

// FileSummary is the renderable view of one file analysis.
type FileSummary struct {
	Path           string              `json:"path"`
	Engine         string              `json:"engine,omitempty"`
	Imports        []string            `json:"imported_categories"`
	Components     []FileComponent     `json:"components"`
	Unresolved     []Ranked            `json:"unresolved,omitempty"`
	NativeTags     []Ranked            `json:"native_tags,omitempty"`
	Customizations []FileCustomization `json:"customizations,omitempty"`

	UsesTrackedLibrary      bool `json:"uses_tracked_library"`
	UsesInternal            bool `json:"uses_internal"`
	UsesTrackedWithInternal bool `json:"uses_tracked_library_with_internal"`
	TotalInstances          int  `json:"total_instances"`
}

// SummarizeFile converts a file analysis. Components are ordered by
// category, then name. Unresolved lists rendered PascalCase elements that
// did not resolve to any categorized import.
func SummarizeFile(path, engine string, res *usage.FileAnalysisResult) FileSummary {
	fs := FileSummary{
		Path:                    path,
		Engine:                  engine,
		UsesTrackedLibrary:      res.UsesAnyTrackedLibrary,
		UsesInternal:            res.UsesInternal,
		UsesTrackedWithInternal: res.UsesTrackedLibraryWithInternal,
		TotalInstances:          res.TotalInstances(),
	}
	for _, cat := range res.Categories {
		fs.Imports = append(fs.Imports, cat.String())
	}

	resolved := make(map[string]bool)
	cats := make([]usage.SourceCategory, 0, len(res.Usages))
	for cat := range res.Usages {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Kind != cats[j].Kind {
			return cats[i].Kind < cats[j].Kind
		}
		return cats[i].Library < cats[j].Library
	})
	for _, cat := range cats {
		jsx := res.CountsByKind(cat, usage.JSXInstance)
		refs := res.CountsByKind(cat, usage.PropReference)
		names := make(map[string]bool)
		for n := range jsx {
			names[n] = true
		}
		for n := range refs {
			names[n] = true
		}
		sorted := make([]string, 0, len(names))
		for n := range names {
			sorted = append(sorted, n)
			resolved[n] = true
		}
		sort.Strings(sorted)
		for _, n := range sorted {
			fs.Components = append(fs.Components, FileComponent{Category: cat.String(), Name: n, JSX: jsx[n], PropReferences: refs[n]})
		}
	}

	unresolved := make(map[string]int)
	for name, n := range res.RawJSXCounts {
		if !resolved[name] {
			unresolved[name] = n
		}
	}
	fs.Unresolved = rankCounts(unresolved, 0)

	native := make(map[string]int, len(res.NativeTags))
	for _, t := range res.NativeTags {
		native[t.Tag] = t.Count
	}
	fs.NativeTags = rankCounts(native, 0)

	for _, c := range res.Customizations {
		fs.Customizations = append(fs.Customizations, FileCustomization{
			Kind:       c.Kind.String(),
			Library:    c.Library,
			Component:  c.Component,
			Variable:   c.VariableName,
			Properties: c.Properties,
			HasSpread:  c.HasSpread,
		})
	}
	return fs
}

// WriteFiles renders per-file summaries.
func WriteFiles(w io.Writer, f Format, files []FileSummary) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, files)
	case FormatCSV:
		tbl := table.NewWriter()
		tbl.AppendHeader(table.Row{"file", "category", "component", "jsx", "prop_references"})
		for _, fs := range files {
			for _, c := range fs.Components {
				tbl.AppendRow(table.Row{fs.Path, c.Category, c.Name, c.JSX, c.PropReferences})
			}
		}
		_, err := fmt.Fprintln(w, tbl.RenderCSV())
		return err
	case FormatText, FormatMarkdown:
		parts := make([]string, 0, len(files))
		for _, fs := range files {
			parts = append(parts, formatFile(fs, f))
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, "\n\n"))
		return err
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func formatFile(fs FileSummary, f Format) string {
	title := fs.Path
	if fs.Engine != "" {
		title += " (" + fs.Engine + ")"
	}
	imports := "none"
	if len(fs.Imports) > 0 {
		imports = strings.Join(fs.Imports, ", ")
	}
	parts := []string{heading(title, f), fmt.Sprintf("Imports: %s | Instances: %d", imports, fs.TotalInstances)}

	if len(fs.Components) > 0 {
		tbl := newTable()
		tbl.AppendHeader(table.Row{"Category", "Component", "JSX", "Prop refs"})
		for _, c := range fs.Components {
			tbl.AppendRow(table.Row{c.Category, c.Name, c.JSX, c.PropReferences})
		}
		parts = append(parts, render(tbl, f))
	}
	if len(fs.Unresolved) > 0 {
		parts = append(parts, subheading("Unresolved", f)+"\n"+render(rankedTable("Component", fs.Unresolved), f))
	}
	if len(fs.NativeTags) > 0 {
		parts = append(parts, subheading("Native elements", f)+"\n"+render(rankedTable("Tag", fs.NativeTags), f))
	}
	if len(fs.Customizations) > 0 {
		tbl := newTable()
		tbl.AppendHeader(table.Row{"Kind", "Library", "Component", "Variable", "Properties"})
		for _, c := range fs.Customizations {
			props := strings.Join(c.Properties, " ")
			if c.HasSpread {
				props = strings.TrimSpace(props + " ...")
			}
			tbl.AppendRow(table.Row{c.Kind, c.Library, c.Component, c.Variable, props})
		}
		parts = append(parts, subheading("Customizations", f)+"\n"+render(tbl, f))
	}
	return strings.Join(parts, "\n\n")
}
