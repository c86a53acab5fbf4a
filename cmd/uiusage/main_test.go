package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/uiusage/pkg/report"
)

const testConfig = `libraries:
  - name: shadcn
    import_sources: ["@/components/ui/"]
other_ui_patterns: ["@mui/"]
codebases:
  - name: web
    root: web
  - name: admin
    root: admin
`

// fixture writes a config with two codebases and returns its path.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		".uiusage.yaml": testConfig,
		"web/src/App.tsx": `import { Button } from '@/components/ui/button';
import { Box } from '@mui/material';
export const App = () => <Box><Button /><Button /><div /></Box>;`,
		"admin/Page.jsx": `import { Button } from '@/components/ui/button';
export default () => <Button />;`,
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return filepath.Join(dir, ".uiusage.yaml")
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "uiusage "+version+"\n", out)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&globalOptions{}, &buf)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	logger, err = newLogger(&globalOptions{logLevel: "debug", logFormat: "json"}, &buf)
	require.NoError(t, err)
	logger.Debug("detail")
	assert.Contains(t, buf.String(), `"msg":"detail"`)

	_, err = newLogger(&globalOptions{logLevel: "loud"}, &buf)
	assert.Error(t, err)
}

func TestScanJSON(t *testing.T) {
	cfg := fixture(t)
	out, err := execute(t, nil, "scan", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var summaries []report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, "web", summaries[0].Name)
	assert.Equal(t, "admin", summaries[1].Name)
	assert.Equal(t, report.GlobalName, summaries[2].Name)

	global := summaries[2]
	assert.Equal(t, 2, global.Files)
	require.NotEmpty(t, global.Libraries)
	assert.Equal(t, "shadcn", global.Libraries[0].Name)
	assert.Equal(t, 3, global.Libraries[0].Total)
	assert.Equal(t, 1, global.NativeTotal)
}

func TestScanSingleCodebaseText(t *testing.T) {
	cfg := fixture(t)
	out, err := execute(t, nil, "scan", "-c", cfg, "--codebase", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "=== ADMIN ===")
	assert.NotContains(t, out, "=== GLOBAL ===")
}

func TestScanOutputFile(t *testing.T) {
	cfg := fixture(t)
	path := filepath.Join(t.TempDir(), "report.csv")
	out, err := execute(t, nil, "scan", "-c", cfg, "-f", "csv", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "codebase,category,component,count"))
	assert.Contains(t, string(data), "web,library:shadcn,Button,2")
}

func TestFailedRunLeavesNoOutputFile(t *testing.T) {
	cfg := fixture(t)
	dir := t.TempDir()

	scanOut := filepath.Join(dir, "scan.json")
	_, err := execute(t, nil, "scan", "-c", cfg, "--codebase", "missing", "-o", scanOut)
	require.Error(t, err)
	assert.NoFileExists(t, scanOut)

	analyzeOut := filepath.Join(dir, "analyze.json")
	_, err = execute(t, nil, "analyze", "-c", cfg, "-o", analyzeOut, filepath.Join(dir, "nope.tsx"))
	require.Error(t, err)
	assert.NoFileExists(t, analyzeOut)

	compareOut := filepath.Join(dir, "compare.json")
	_, err = execute(t, nil, "compare", "-c", cfg, "--codebase", "missing", "-o", compareOut)
	require.Error(t, err)
	assert.NoFileExists(t, compareOut)
}

func TestScanErrors(t *testing.T) {
	cfg := fixture(t)

	_, err := execute(t, nil, "scan", "-c", cfg, "--codebase", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown codebase "missing"`)

	_, err = execute(t, nil, "scan", "-c", cfg, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")

	_, err = execute(t, nil, "scan", "-c", cfg, "--engine", "llm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")

	_, err = execute(t, nil, "scan", "-c", cfg, "--max-file-size", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-file-size")

	_, err = execute(t, nil, "scan", "-c", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestAnalyzeStdin(t *testing.T) {
	cfg := fixture(t)
	src := `import { Button } from '@/components/ui/button';
export const X = () => <Button><Mystery /></Button>;`
	out, err := execute(t, strings.NewReader(src), "analyze", "-c", cfg, "-f", "json", "-")
	require.NoError(t, err)

	var files []report.FileSummary
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "stdin.tsx", files[0].Path)
	require.Len(t, files[0].Components, 1)
	assert.Equal(t, "Button", files[0].Components[0].Name)
	assert.Equal(t, 1, files[0].Components[0].JSX)
	require.Len(t, files[0].Unresolved, 1)
	assert.Equal(t, "Mystery", files[0].Unresolved[0].Name)
}

func TestAnalyzeFilesAggregate(t *testing.T) {
	cfg := fixture(t)
	dir := filepath.Dir(cfg)
	out, err := execute(t, nil, "analyze", "-c", cfg, "-f", "json", "--aggregate",
		filepath.Join(dir, "web", "src", "App.tsx"),
		filepath.Join(dir, "admin", "Page.jsx"))
	require.NoError(t, err)

	var summaries []report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "2 files", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].Files)
}

func TestAnalyzeMissingFile(t *testing.T) {
	cfg := fixture(t)
	_, err := execute(t, nil, "analyze", "-c", cfg, filepath.Join(t.TempDir(), "nope.tsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.tsx")
}

func TestCompare(t *testing.T) {
	cfg := fixture(t)
	out, err := execute(t, nil, "compare", "-c", cfg, "-f", "json", "--codebase", "web")
	require.NoError(t, err)

	var comparisons []report.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &comparisons))
	require.Len(t, comparisons, 1)
	assert.Equal(t, "web", comparisons[0].Scope)
	assert.Equal(t, engineRegex, comparisons[0].LeftName)
	assert.Equal(t, engineAST, comparisons[0].RightName)
	assert.Greater(t, comparisons[0].LeftTotal, 0)
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, nil, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote .uiusage.yaml")
	data, err := os.ReadFile(".uiusage.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "libraries:")

	_, err = execute(t, nil, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, os.WriteFile(".uiusage.yaml", []byte("stale"), 0o644))
	_, err = execute(t, nil, "init", "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(".uiusage.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "libraries:")

	// The written preset loads cleanly.
	_, err = execute(t, nil, "scan", "-f", "json")
	require.NoError(t, err)
}

func TestReportSinkReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.md")
	sink := &reportSink{path: path}

	require.NoError(t, sink.write(report.FormatMarkdown, report.Summary{Name: "first"}))
	require.NoError(t, sink.write(report.FormatMarkdown, report.Summary{Name: "second"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## second")
	assert.NotContains(t, string(data), "first")
}
