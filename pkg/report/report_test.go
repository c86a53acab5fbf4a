package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/uiusage/pkg/scanner"
	"github.com/gnana997/uiusage/pkg/usage"
)

var testConfig = usage.ResolvedConfig{
	Libraries: []usage.LibrarySpec{
		{Name: "acme", ImportSources: []string{"@acme/ui"}},
		{Name: "unused", ImportSources: []string{"@unused/ui"}},
	},
	OtherUIPatterns: []string{"@mui/"},
}

func aggregateOf(t *testing.T, sources ...string) *usage.AggregateResult {
	t.Helper()
	engine := usage.NewRegexAnalyzer(testConfig)
	agg := usage.NewAggregate()
	for _, src := range sources {
		res, err := engine.Analyze("a.tsx", src)
		require.NoError(t, err)
		agg.Add(res)
	}
	return agg
}

func sampleAggregate(t *testing.T) *usage.AggregateResult {
	return aggregateOf(t,
		`import { Button, Card } from '@acme/ui';
import { Shell } from './Shell';
export const A = () => <Shell><Card><Button style={{ color: 'red' }} /><Button /></Card><div /></Shell>;`,
		`import { Button } from '@acme/ui';
export const B = () => <section><Button /></section>;`,
		`import { Shell } from './Shell';
import { Box } from '@mui/material';
export const C = () => <Shell><Box /></Shell>;`,
	)
}

func TestSummarize(t *testing.T) {
	s := Summarize("web", sampleAggregate(t), testConfig.LibraryNames(), 0)

	assert.Equal(t, "web", s.Name)
	assert.Equal(t, 3, s.Files)
	assert.Equal(t, 2, s.NativeTotal)
	assert.Equal(t, 4, s.AnyLibrary)
	assert.Equal(t, 2, s.FilesWithInternal)
	assert.Equal(t, 1, s.FilesWithInternalAndLibrary)

	require.Len(t, s.Libraries, 2)
	acme := s.Libraries[0]
	assert.Equal(t, "acme", acme.Name)
	assert.Equal(t, 4, acme.Total)
	assert.Equal(t, 2, acme.FilesUsing)
	assert.InDelta(t, 2.0/3.0, acme.AdoptionRate, 1e-9)
	assert.InDelta(t, 0.5, acme.InternalOverlap, 1e-9)
	assert.Equal(t, 1, acme.InlineStyles)
	assert.Equal(t, []Ranked{{Name: "Button", Count: 1}}, acme.Customized)

	unused := s.Libraries[1]
	assert.Equal(t, "unused", unused.Name)
	assert.Zero(t, unused.Total)
	assert.Zero(t, unused.AdoptionRate)

	require.NotEmpty(t, s.Categories)
	assert.Equal(t, "library:acme", s.Categories[0].Category)
	assert.Equal(t, []Ranked{{Name: "Button", Count: 3}, {Name: "Card", Count: 1}}, s.Categories[0].Components)
	assert.Equal(t, []Ranked{{Name: "color", Count: 1}}, s.StyleOverrides)
	assert.InDelta(t, Ratio(4, s.TotalInstances), acme.Share, 1e-9)
}

func TestSummarize_TopAndSeenLibraries(t *testing.T) {
	s := Summarize("web", sampleAggregate(t), nil, 1)
	require.Len(t, s.Libraries, 1)
	assert.Equal(t, "acme", s.Libraries[0].Name)
	assert.Len(t, s.Categories[0].Components, 1)
	assert.Len(t, s.TopComponents, 1)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("empty", nil, nil, 5)
	assert.Zero(t, s.Files)
	assert.Zero(t, s.NativeShare)
	assert.Empty(t, s.Libraries)
}

func TestRatio(t *testing.T) {
	assert.Zero(t, Ratio(3, 0))
	assert.Equal(t, 0.25, Ratio(1, 4))
	assert.Zero(t, InternalOverlap(usage.Adoption{}))
}

func TestFromScan(t *testing.T) {
	a := sampleAggregate(t)
	b := aggregateOf(t, `import { Card } from '@acme/ui'; <Card />`)
	global := usage.NewAggregate()
	global.Merge(a)
	global.Merge(b)

	rep := &scanner.ScanReport{
		Codebases: []*scanner.CodebaseReport{{Name: "web", Aggregate: a}, {Name: "admin", Aggregate: b}},
		Global:    global,
	}
	out := FromScan(rep, nil, 0)
	require.Len(t, out, 3)
	assert.Equal(t, GlobalName, out[2].Name)
	assert.Equal(t, 4, out[2].Files)

	rep.Codebases = rep.Codebases[:1]
	assert.Len(t, FromScan(rep, nil, 0), 1)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "md": FormatMarkdown, "csv": FormatCSV, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteSummaries(t *testing.T) {
	summaries := []Summary{Summarize("web", sampleAggregate(t), nil, 5)}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, FormatText, summaries))
	text := buf.String()
	assert.Contains(t, text, "=== WEB ===")
	assert.Contains(t, text, "Files: 3")
	assert.Contains(t, text, "acme")
	assert.Contains(t, text, "66.7%")

	buf.Reset()
	require.NoError(t, WriteSummaries(&buf, FormatMarkdown, summaries))
	assert.Contains(t, buf.String(), "## web")
	assert.Contains(t, buf.String(), "| acme |")

	buf.Reset()
	require.NoError(t, WriteSummaries(&buf, FormatCSV, summaries))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "codebase,category,component,count", lines[0])
	assert.Contains(t, lines, "web,library:acme,Button,3")
	assert.Contains(t, lines, "web,native,div,1")

	buf.Reset()
	require.NoError(t, WriteSummaries(&buf, FormatJSON, summaries))
	var decoded []Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, summaries, decoded)

	assert.Error(t, WriteSummaries(&buf, Format("xml"), summaries))
}

func TestCompareAggregates(t *testing.T) {
	left := aggregateOf(t, `import { Button, Card } from '@acme/ui'; <Button /><Card />`)
	right := aggregateOf(t, `import { Button, Card } from '@acme/ui'; <Button /><Button /><Card />`)

	c := CompareAggregates("web", "regex", left, "ast", right)
	assert.Equal(t, 2, c.LeftTotal)
	assert.Equal(t, 3, c.RightTotal)
	require.Len(t, c.Deltas, 1)
	assert.Equal(t, Delta{Category: "library:acme", Component: "Button", Left: 1, Right: 2, Diff: 1}, c.Deltas[0])
	assert.InDelta(t, 2.0/3.0, c.Agreement, 1e-9)

	same := CompareAggregates("web", "a", left, "b", left)
	assert.Empty(t, same.Deltas)
	assert.Equal(t, 1.0, same.Agreement)

	empty := CompareAggregates("web", "a", usage.NewAggregate(), "b", usage.NewAggregate())
	assert.Equal(t, 1.0, empty.Agreement)
}

func TestWriteComparison(t *testing.T) {
	left := aggregateOf(t, `import { Button } from '@acme/ui'; <Button />`)
	right := aggregateOf(t, `import { Button } from '@acme/ui'; <Button /><Button />`)
	c := CompareAggregates("web", "regex", left, "ast", right)

	cs := []Comparison{c}

	var buf bytes.Buffer
	require.NoError(t, WriteComparisons(&buf, FormatText, cs))
	assert.Contains(t, buf.String(), "=== WEB: REGEX VS AST ===")
	assert.Contains(t, buf.String(), "Agreement: 50.0%")
	assert.Contains(t, buf.String(), "+1")

	buf.Reset()
	require.NoError(t, WriteComparisons(&buf, FormatMarkdown, cs))
	assert.Contains(t, buf.String(), "## web: regex vs ast")

	buf.Reset()
	require.NoError(t, WriteComparisons(&buf, FormatCSV, cs))
	assert.Contains(t, buf.String(), "web,library:acme,Button,1,2,+1")

	buf.Reset()
	require.NoError(t, WriteComparisons(&buf, FormatJSON, cs))
	var decoded []Comparison
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, cs, decoded)

	buf.Reset()
	same := CompareAggregates("web", "regex", left, "ast", left)
	require.NoError(t, WriteComparisons(&buf, FormatText, []Comparison{same}))
	assert.Contains(t, buf.String(), "Agreement: 100.0%")
}

func TestSummarizeFile(t *testing.T) {
	res, err := usage.NewRegexAnalyzer(testConfig).Analyze("a.tsx", `import { Button, Card, Icon } from '@acme/ui';
import { Shell } from './Shell';
export const A = () => <Shell><Card icon={Icon}><Button style={{ color: 'red' }} /><Mystery /></Card><div /></Shell>;`)
	require.NoError(t, err)

	fs := SummarizeFile("a.tsx", "regex", res)
	assert.Equal(t, []string{"library:acme", "internal"}, fs.Imports)
	assert.Equal(t, []FileComponent{
		{Category: "library:acme", Name: "Button", JSX: 1},
		{Category: "library:acme", Name: "Card", JSX: 1},
		{Category: "library:acme", Name: "Icon", PropReferences: 1},
		{Category: "internal", Name: "Shell", JSX: 1},
	}, fs.Components)
	assert.Equal(t, []Ranked{{Name: "Mystery", Count: 1}}, fs.Unresolved)
	assert.Equal(t, []Ranked{{Name: "div", Count: 1}}, fs.NativeTags)
	require.Len(t, fs.Customizations, 1)
	assert.Equal(t, "inline-style", fs.Customizations[0].Kind)
	assert.Equal(t, []string{"color"}, fs.Customizations[0].Properties)
	assert.True(t, fs.UsesTrackedWithInternal)

	var buf bytes.Buffer
	require.NoError(t, WriteFiles(&buf, FormatText, []FileSummary{fs}))
	assert.Contains(t, buf.String(), "Mystery")
	assert.Contains(t, buf.String(), "inline-style")

	buf.Reset()
	require.NoError(t, WriteFiles(&buf, FormatCSV, []FileSummary{fs}))
	assert.Contains(t, buf.String(), "a.tsx,library:acme,Icon,0,1")
}
