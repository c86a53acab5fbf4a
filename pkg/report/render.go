package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Format selects an output renderer.
type Format string

const (
	// FormatText renders boxed tables for terminals.
	FormatText Format = "text"
	// FormatMarkdown renders headings and pipe tables.
	FormatMarkdown Format = "markdown"
	// FormatCSV renders one flat row per component.
	FormatCSV Format = "csv"
	// FormatJSON renders the summary structs, indented.
	FormatJSON Format = "json"
)

const percentageValue = 100

// ParseFormat accepts a format name, with "md" as a Markdown alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "table":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, markdown, csv or json)", s)
	}
}

// WriteSummaries renders summaries in the given format.
func WriteSummaries(w io.Writer, f Format, summaries []Summary) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, summaries)
	case FormatCSV:
		_, err := fmt.Fprintln(w, componentTable(summaries).RenderCSV())
		return err
	case FormatText, FormatMarkdown:
		parts := make([]string, 0, len(summaries))
		for _, s := range summaries {
			parts = append(parts, formatSummary(s, f))
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, "\n\n"))
		return err
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// WriteComparisons renders engine comparisons, one section per scope.
func WriteComparisons(w io.Writer, f Format, cs []Comparison) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, cs)
	case FormatCSV:
		tbl := table.NewWriter()
		tbl.AppendHeader(table.Row{"scope", "category", "component", "left", "right", "diff"})
		for _, c := range cs {
			for _, d := range c.Deltas {
				tbl.AppendRow(table.Row{c.Scope, d.Category, d.Component, d.Left, d.Right, fmt.Sprintf("%+d", d.Diff)})
			}
		}
		_, err := fmt.Fprintln(w, tbl.RenderCSV())
		return err
	case FormatText, FormatMarkdown:
		parts := make([]string, 0, len(cs))
		for _, c := range cs {
			parts = append(parts, formatComparison(c, f))
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, "\n\n"))
		return err
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func formatComparison(c Comparison, f Format) string {
	title := fmt.Sprintf("%s: %s vs %s", c.Scope, c.LeftName, c.RightName)
	parts := []string{heading(title, f), comparisonLine(c)}
	if len(c.Deltas) == 0 {
		return strings.Join(parts, "\n\n")
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Category", "Component", c.LeftName, c.RightName, "Diff"})
	for _, d := range c.Deltas {
		tbl.AppendRow(table.Row{d.Category, d.Component, humanize.Comma(int64(d.Left)), humanize.Comma(int64(d.Right)), fmt.Sprintf("%+d", d.Diff)})
	}
	if f == FormatText {
		tbl.AppendFooter(table.Row{"", "Total", humanize.Comma(int64(c.LeftTotal)), humanize.Comma(int64(c.RightTotal)), fmt.Sprintf("%+d", c.RightTotal-c.LeftTotal)})
	}
	return strings.Join(append(parts, render(tbl, f)), "\n\n")
}

func comparisonLine(c Comparison) string {
	return fmt.Sprintf("Agreement: %s | Differing components: %d", percent(c.Agreement), len(c.Deltas))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

func render(tbl table.Writer, f Format) string {
	if f == FormatMarkdown {
		return tbl.RenderMarkdown()
	}
	return tbl.Render()
}

func heading(title string, f Format) string {
	if f == FormatMarkdown {
		return "## " + title
	}
	return fmt.Sprintf("=== %s ===", strings.ToUpper(title))
}

func subheading(title string, f Format) string {
	if f == FormatMarkdown {
		return "### " + title
	}
	return title + ":"
}

func formatSummary(s Summary, f Format) string {
	parts := []string{heading(s.Name, f), overview(s)}
	if s.Files == 0 {
		return strings.Join(parts, "\n\n")
	}

	if len(s.Libraries) > 0 {
		parts = append(parts, subheading("Libraries", f)+"\n"+render(libraryTable(s), f))
	}
	if len(s.Categories) > 0 {
		parts = append(parts, subheading("Categories", f)+"\n"+render(categoryTable(s), f))
	}
	for _, c := range s.Categories {
		if len(c.Components) == 0 {
			continue
		}
		parts = append(parts, subheading("Top "+c.Category, f)+"\n"+render(rankedTable("Component", c.Components), f))
	}
	if len(s.TopNativeTags) > 0 {
		parts = append(parts, subheading("Native elements", f)+"\n"+render(rankedTable("Tag", s.TopNativeTags), f))
	}
	if len(s.StyleOverrides) > 0 {
		parts = append(parts, subheading("Overridden style properties", f)+"\n"+render(rankedTable("Property", s.StyleOverrides), f))
	}
	return strings.Join(parts, "\n\n")
}

func overview(s Summary) string {
	return fmt.Sprintf("Files: %s | Instances: %s | Tracked libraries: %s (%s) | Native: %s (%s)",
		humanize.Comma(int64(s.Files)),
		humanize.Comma(int64(s.TotalInstances)),
		humanize.Comma(int64(s.AnyLibrary)), percent(Ratio(s.AnyLibrary, s.TotalInstances)),
		humanize.Comma(int64(s.NativeTotal)), percent(s.NativeShare))
}

func libraryTable(s Summary) table.Writer {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Library", "Instances", "Share", "Files", "Adoption", "Internal overlap", "Inline styles", "Styled"})
	for _, l := range s.Libraries {
		tbl.AppendRow(table.Row{
			l.Name,
			humanize.Comma(int64(l.Total)),
			percent(l.Share),
			humanize.Comma(int64(l.FilesUsing)),
			percent(l.AdoptionRate),
			percent(l.InternalOverlap),
			l.InlineStyles,
			l.StyledWrappers,
		})
	}
	return tbl
}

func categoryTable(s Summary) table.Writer {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Category", "Instances", "Share", "Components"})
	for _, c := range s.Categories {
		tbl.AppendRow(table.Row{c.Category, humanize.Comma(int64(c.Total)), percent(c.Share), len(c.Components)})
	}
	tbl.AppendFooter(table.Row{"native", humanize.Comma(int64(s.NativeTotal)), percent(s.NativeShare), len(s.TopNativeTags)})
	return tbl
}

func rankedTable(label string, items []Ranked) table.Writer {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", label, "Count"})
	for i, r := range items {
		tbl.AppendRow(table.Row{i + 1, r.Name, humanize.Comma(int64(r.Count))})
	}
	return tbl
}

// componentTable flattens summaries into one row per codebase, category
// and component.
func componentTable(summaries []Summary) table.Writer {
	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"codebase", "category", "component", "count"})
	for _, s := range summaries {
		for _, c := range s.Categories {
			for _, r := range c.Components {
				tbl.AppendRow(table.Row{s.Name, c.Category, r.Name, r.Count})
			}
		}
		for _, r := range s.TopNativeTags {
			tbl.AppendRow(table.Row{s.Name, "native", r.Name, r.Count})
		}
	}
	return tbl
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*percentageValue)
}
