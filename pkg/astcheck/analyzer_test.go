package astcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/uiusage/pkg/parser"
	"github.com/gnana997/uiusage/pkg/usage"
)

func testConfig() usage.ResolvedConfig {
	return usage.ResolvedConfig{
		Libraries: []usage.LibrarySpec{
			{Name: "lib", ImportSources: []string{"@lib/ui"}, ExcludeSources: []string{"@lib/ui/theme"}},
		},
		OtherUIPatterns: []string{"@mui/"},
	}
}

func analyze(t *testing.T, path, src string) *usage.FileAnalysisResult {
	t.Helper()
	pm := parser.NewParserManager(nil, 1)
	t.Cleanup(func() { pm.Close() })

	res, err := New(pm, testConfig()).Analyze(path, src)
	require.NoError(t, err)
	return res
}

func TestAnalyze_CategorizesRenderedComponents(t *testing.T) {
	src := `import { Button, Card } from '@lib/ui';
import { Widget } from './Widget';
import { TextField } from '@mui/material';
import { format } from 'date-fns';

export const Page = () => (
  <Card>
    <Widget>
      <Button>Click</Button>
      <Button variant="ghost" />
    </Widget>
    <TextField />
    <div><span>hi</span></div>
  </Card>
);
`
	res := analyze(t, "Page.tsx", src)

	assert.Equal(t, map[string]int{"Button": 2, "Card": 1}, res.Counts(usage.Library("lib")))
	assert.Equal(t, map[string]int{"Widget": 1}, res.Counts(usage.Internal))
	assert.Equal(t, map[string]int{"TextField": 1}, res.Counts(usage.OtherUI))
	assert.Equal(t, 2, res.NativeTotal())
	assert.True(t, res.UsesTrackedLibraryWithInternal)
	assert.Equal(t, []string{"lib"}, res.LibrariesUsed())
}

func TestAnalyze_IgnoresStringsAndComments(t *testing.T) {
	src := `import { Button } from '@lib/ui';
// <Button /> in a comment
const doc = "<Button />";
export const A = () => <Button />;
`
	res := analyze(t, "A.tsx", src)
	assert.Equal(t, 1, res.Total(usage.Library("lib")))
}

func TestAnalyze_PropReferencesAreExact(t *testing.T) {
	src := `import { Button, CloseIcon, EditIcon } from '@lib/ui';
const icons = [CloseIcon, EditIcon];
const cfg = { icon: EditIcon };
export const A = () => (
  <>
    <Button icon={CloseIcon} />
    <CloseIcon />
  </>
);
`
	res := analyze(t, "A.tsx", src)
	lib := usage.Library("lib")

	refs := res.CountsByKind(lib, usage.PropReference)
	assert.Equal(t, 2, refs["CloseIcon"])
	assert.Equal(t, 2, refs["EditIcon"])
	assert.Equal(t, 0, refs["Button"])

	jsx := res.CountsByKind(lib, usage.JSXInstance)
	assert.Equal(t, map[string]int{"Button": 1, "CloseIcon": 1}, jsx)
}

func TestAnalyze_TypeImportsSkipped(t *testing.T) {
	src := `import type { ButtonProps } from '@lib/ui';
import { type CardProps, Card as Panel } from '@lib/ui';
export const A = (p: ButtonProps) => <Panel />;
`
	res := analyze(t, "A.tsx", src)
	assert.Equal(t, map[string]int{"Panel": 1}, res.Counts(usage.Library("lib")))
}

func TestAnalyze_ExcludedSubpathIsNotLibrary(t *testing.T) {
	src := `import { ThemeProvider } from '@lib/ui/theme';
export const A = () => <ThemeProvider />;
`
	res := analyze(t, "A.tsx", src)
	assert.Empty(t, res.Counts(usage.Library("lib")))
	assert.False(t, res.UsesAnyTrackedLibrary)
}

func TestAnalyze_MemberTagsCountAsRoot(t *testing.T) {
	src := `import { Dialog } from '@lib/ui';
export const A = () => <Dialog><Dialog.Title>x</Dialog.Title></Dialog>;
`
	res := analyze(t, "A.tsx", src)
	assert.Equal(t, 2, res.Counts(usage.Library("lib"))["Dialog"])
}

func TestAnalyze_Customizations(t *testing.T) {
	src := `import styled from 'styled-components';
import { Button, Card, Badge } from '@lib/ui';

const Fancy = styled(Button)` + "`" + `
  color: red;
  padding: ${p => p.pad}px;
` + "`" + `;
const Boxed = styled(Card)(({ theme }) => ({ margin: 4, ...theme.box }));

export const A = () => <Badge style={{ color: 'red', '--tone': 1 }} />;
`
	res := analyze(t, "A.tsx", src)
	require.Len(t, res.Customizations, 3)

	var inline, tpl, obj *usage.Customization
	for i := range res.Customizations {
		c := &res.Customizations[i]
		switch {
		case c.Kind == usage.InlineStyle:
			inline = c
		case c.Component == "Button":
			tpl = c
		case c.Component == "Card":
			obj = c
		}
	}
	require.NotNil(t, inline)
	require.NotNil(t, tpl)
	require.NotNil(t, obj)

	assert.Equal(t, "Badge", inline.Component)
	assert.Equal(t, "lib", inline.Library)
	assert.Equal(t, []string{"--tone", "color"}, inline.Properties)

	assert.Equal(t, "Fancy", tpl.VariableName)
	assert.Equal(t, []string{"color", "padding"}, tpl.Properties)

	assert.Equal(t, "Boxed", obj.VariableName)
	assert.Equal(t, []string{"margin"}, obj.Properties)
	assert.True(t, obj.HasSpread)

	// styled(X) itself is not a prop reference.
	assert.Empty(t, res.CountsByKind(usage.Library("lib"), usage.PropReference))
}

func TestAnalyze_PlainJavaScript(t *testing.T) {
	src := `import { Button } from '@lib/ui';
export default function A() { return <Button />; }
`
	res := analyze(t, "A.jsx", src)
	assert.Equal(t, 1, res.Total(usage.Library("lib")))
}

func TestAnalyze_AgreesWithRegexEngineOnSimpleFiles(t *testing.T) {
	src := `import { Button, Card } from '@lib/ui';
import { Widget } from '../components/Widget';
export const A = () => (
  <Card>
    <Widget />
    <Button>a</Button>
    <section><p>x</p></section>
  </Card>
);
`
	pm := parser.NewParserManager(nil, 1)
	defer pm.Close()

	engines := []usage.Engine{usage.NewRegexAnalyzer(testConfig()), New(pm, testConfig())}
	var results []*usage.FileAnalysisResult
	for _, e := range engines {
		res, err := e.Analyze("A.tsx", src)
		require.NoError(t, err, e.Name())
		results = append(results, res)
	}

	regex, ast := results[0], results[1]
	for _, cat := range []usage.SourceCategory{usage.Library("lib"), usage.Internal} {
		assert.Equal(t, regex.Counts(cat), ast.Counts(cat), cat.String())
	}
	assert.Equal(t, regex.NativeTotal(), ast.NativeTotal())
	assert.Equal(t, "ast", engines[1].Name())
}
