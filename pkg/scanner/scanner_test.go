package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/uiusage/pkg/config"
	"github.com/gnana997/uiusage/pkg/usage"
	"github.com/gnana997/uiusage/pkg/util"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig() usage.ResolvedConfig {
	return usage.ResolvedConfig{
		Libraries: []usage.LibrarySpec{{Name: "lib", ImportSources: []string{"@lib/ui"}}},
	}
}

func newScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	s, err := New(usage.NewRegexAnalyzer(testConfig()), opts, util.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixture lays out a small app: two files using the library, one internal
// wrapper, a test file and a node_modules copy that must be ignored.
func fixture(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "src/App.tsx", `import { Button, Card } from '@lib/ui';
import { Shell } from './Shell';
export const App = () => <Shell><Card><Button /></Card></Shell>;
`)
	writeFile(t, dir, "src/Shell.tsx", `import { Button } from '@lib/ui';
export const Shell = ({ children }) => <div><Button />{children}</div>;
`)
	writeFile(t, dir, "src/util.ts", `export const add = (a: number, b: number) => a + b;`)
	writeFile(t, dir, "src/App.test.tsx", `import { Button } from '@lib/ui'; <Button />`)
	writeFile(t, dir, "node_modules/@lib/ui/index.js", `import { Button } from '@lib/ui'; <Button />`)
	writeFile(t, dir, "README.md", "# app")
	return dir
}

func TestDiscoverFiles_DefaultPatterns(t *testing.T) {
	dir := fixture(t)
	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)

	files, err := DiscoverFiles(dir, m)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f))
		r, _ := filepath.Rel(dir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"src/App.tsx", "src/Shell.tsx", "src/util.ts"}, rel)
	assert.True(t, sort.StringsAreSorted(files))
}

func TestDiscoverFiles_CustomPatterns(t *testing.T) {
	dir := fixture(t)
	m, err := NewMatcher([]string{"src/**/*.tsx"}, []string{"**/Shell.tsx"})
	require.NoError(t, err)

	files, err := DiscoverFiles(dir, m)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "App.test.tsx", filepath.Base(files[0]))
	assert.Equal(t, "App.tsx", filepath.Base(files[1]))
}

func TestDiscoverFiles_MissingRoot(t *testing.T) {
	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)
	_, err = DiscoverFiles(filepath.Join(t.TempDir(), "nope"), m)
	assert.Error(t, err)
}

func TestNewMatcher_InvalidPattern(t *testing.T) {
	_, err := NewMatcher([]string{"[oops"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)

	assert.True(t, m.Matches("src/App.tsx"))
	assert.True(t, m.Matches("index.mjs"))
	assert.False(t, m.Matches("src/App.test.tsx"))
	assert.False(t, m.Matches("types/global.d.ts"))
	assert.False(t, m.Matches("styles.css"))
	assert.True(t, m.Excluded("node_modules", true))
	assert.True(t, m.Excluded("packages/a/node_modules", true))
	assert.False(t, m.Excluded("src", true))
}

func TestMatcher_OnlySourceFiles(t *testing.T) {
	m, err := NewMatcher([]string{"**/*"}, []string{"**/node_modules/**"})
	require.NoError(t, err)

	assert.True(t, m.Matches("src/App.tsx"))
	assert.True(t, m.Matches("lib/util.CJS"))
	assert.False(t, m.Matches("README.md"))
	assert.False(t, m.Matches("src/styles.css"))
	assert.False(t, m.Matches("Makefile"))

	dir := t.TempDir()
	writeFile(t, dir, "src/App.tsx", "<div />")
	writeFile(t, dir, "src/App.module.css", ".a { color: red }")
	writeFile(t, dir, "docs/notes.md", "<Button />")
	files, err := DiscoverFiles(dir, m)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "App.tsx", filepath.Base(files[0]))
}

func TestScanCodebase(t *testing.T) {
	dir := fixture(t)
	s := newScanner(t, Options{Workers: 2, CacheSize: 16})

	report, err := s.ScanCodebase(context.Background(), config.Codebase{Name: "app", Root: dir})
	require.NoError(t, err)

	assert.Equal(t, "app", report.Name)
	assert.Equal(t, 3, report.Stats.FilesDiscovered)
	assert.Equal(t, 3, report.Stats.FilesAnalyzed)
	assert.Equal(t, 0, report.Stats.FilesFailed)
	assert.False(t, report.Stats.Cancelled)
	assert.Equal(t, 2, report.Stats.WorkerCount)

	agg := report.Aggregate
	assert.Equal(t, 3, agg.Files)
	assert.Equal(t, map[string]int{"Button": 2, "Card": 1}, agg.Components[usage.Library("lib")])
	assert.Equal(t, map[string]int{"Shell": 1}, agg.Components[usage.Internal])
	assert.Equal(t, usage.Adoption{FilesWithInternal: 1, FilesWithInternalAlsoUsingLibrary: 1}, agg.Adoption("lib"))
}

func TestScanCodebase_NoFiles(t *testing.T) {
	s := newScanner(t, Options{})

	report, err := s.ScanCodebase(context.Background(), config.Codebase{Name: "empty", Root: t.TempDir()})
	require.ErrorIs(t, err, ErrNoFiles)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Aggregate.Files)
}

func TestScanCodebase_SkipsUnreadableFiles(t *testing.T) {
	dir := fixture(t)
	s := newScanner(t, Options{MaxFileBytes: 120})

	report, err := s.ScanCodebase(context.Background(), config.Codebase{Name: "app", Root: dir})
	require.NoError(t, err)

	// App.tsx is over the limit and contributes nothing.
	assert.Equal(t, 1, report.Stats.FilesFailed)
	require.Len(t, report.Stats.Errors, 1)
	assert.Equal(t, "App.tsx", filepath.Base(report.Stats.Errors[0].FilePath))
	assert.ErrorIs(t, report.Stats.Errors[0], util.ErrFileTooLarge)
	assert.Equal(t, 2, report.Aggregate.Files)
	assert.Equal(t, map[string]int{"Button": 1}, report.Aggregate.Components[usage.Library("lib")])
}

func TestAnalyzeFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 50; i++ {
		files = append(files, writeFile(t, dir, filepath.Join("src", string(rune('a'+i%26))+string(rune('a'+i/26))+".tsx"), `import { Button } from '@lib/ui'; <Button />`))
	}
	s := newScanner(t, Options{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg, stats := s.AnalyzeFiles(ctx, files)
	assert.True(t, stats.Cancelled)
	assert.Equal(t, 50, stats.FilesSkipped)
	assert.Equal(t, 0, agg.Files)
}

func TestAnalyzeFiles_ResultCacheAndProgress(t *testing.T) {
	dir := t.TempDir()
	src := `import { Button } from '@lib/ui'; export const A = () => <Button />;`
	a := writeFile(t, dir, "a/Button.tsx", src)
	b := writeFile(t, dir, "b/Button.tsx", src)

	var mu sync.Mutex
	var seen []string
	s := newScanner(t, Options{Workers: 1, CacheSize: 8, Progress: func(done, total int, path string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, total)
		seen = append(seen, path)
	}})

	agg, stats := s.AnalyzeFiles(context.Background(), []string{a, b})
	assert.Equal(t, 2, stats.FilesAnalyzed)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 2, agg.Totals[usage.Library("lib")])
	assert.ElementsMatch(t, []string{a, b}, seen)
}

func TestScanAll(t *testing.T) {
	web := fixture(t)
	admin := t.TempDir()
	writeFile(t, admin, "Page.jsx", `import { Card } from '@lib/ui'; export default () => <Card />;`)

	s := newScanner(t, Options{})
	report, err := s.ScanAll(context.Background(), []config.Codebase{
		{Name: "web", Root: web},
		{Name: "admin", Root: admin},
		{Name: "empty", Root: t.TempDir()},
	})
	require.NoError(t, err)
	require.Len(t, report.Codebases, 3)

	assert.Equal(t, 4, report.Global.Files)
	assert.Equal(t, map[string]int{"Button": 2, "Card": 2}, report.Global.Components[usage.Library("lib")])
	assert.Equal(t, 4, report.Stats.FilesAnalyzed)

	want := usage.Aggregate(nil)
	want.Merge(report.Codebases[0].Aggregate)
	want.Merge(report.Codebases[1].Aggregate)
	assert.Equal(t, want.Totals, report.Global.Totals)
}

func TestScanAll_InvalidCodebaseFails(t *testing.T) {
	s := newScanner(t, Options{})
	_, err := s.ScanAll(context.Background(), []config.Codebase{{Name: "bad", Root: filepath.Join(t.TempDir(), "missing")}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoFiles))
}

func TestAnalyzeFile_KeepMappedAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "A.tsx", `import { Button } from '@lib/ui'; <Button />`)
	s := newScanner(t, Options{KeepMapped: true})

	res, err := s.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total(usage.Library("lib")))

	writeFile(t, dir, "A.tsx", `import { Button } from '@lib/ui'; <Button /><Button />`)
	s.Invalidate(path)

	res, err = s.AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total(usage.Library("lib")))
}

func TestResultCache(t *testing.T) {
	c, err := NewResultCache(0)
	require.NoError(t, err)
	assert.Nil(t, c)
	_, ok := c.Get("regex", "a.tsx", "x")
	assert.False(t, ok)

	c, err = NewResultCache(1)
	require.NoError(t, err)
	r1 := &usage.FileAnalysisResult{}
	c.Put("regex", "a.tsx", "x", r1)

	got, ok := c.Get("regex", "b.tsx", "x")
	assert.True(t, ok)
	assert.Same(t, r1, got)

	_, ok = c.Get("ast", "a.tsx", "x")
	assert.False(t, ok, "engine is part of the key")
	_, ok = c.Get("regex", "a.ts", "x")
	assert.False(t, ok, "extension is part of the key")

	c.Put("regex", "a.tsx", "y", &usage.FileAnalysisResult{})
	_, ok = c.Get("regex", "a.tsx", "x")
	assert.False(t, ok, "evicted")

	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 3}, c.Stats())
}

func TestFileError(t *testing.T) {
	fe := FileError{FilePath: "/a.tsx", Err: os.ErrPermission}
	assert.Equal(t, "/a.tsx: permission denied", fe.Error())
	assert.ErrorIs(t, fe, os.ErrPermission)
}
