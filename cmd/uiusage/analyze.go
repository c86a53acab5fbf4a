package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/uiusage/pkg/report"
	"github.com/gnana997/uiusage/pkg/usage"
)

type analyzeCommand struct {
	global        *globalOptions
	out           outputFlags
	stdinFilename string
	aggregate     bool
}

func newAnalyzeCommand(g *globalOptions) *cobra.Command {
	c := &analyzeCommand{global: g}
	cmd := &cobra.Command{
		Use:   "analyze <file>... | -",
		Short: "Analyze individual files",
		Long: `Analyze the given files, or standard input when the only argument is "-",
and print what each one renders: resolved components by category,
unresolved components, native elements and style overrides.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.Run,
	}
	cmd.Flags().StringVar(&c.stdinFilename, "stdin-filename", "stdin.tsx", "File name used to pick the grammar for standard input")
	cmd.Flags().BoolVar(&c.aggregate, "aggregate", false, "Print one summary folding all files instead of per-file results")
	c.out.register(cmd)
	return cmd
}

func (c *analyzeCommand) Run(cmd *cobra.Command, args []string) error {
	a, err := newApp(c.global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := c.out.parse()
	if err != nil {
		return err
	}
	files, results, err := c.analyze(cmd, a, args)
	if err != nil {
		return err
	}

	w, closeOut, err := c.out.create(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	if c.aggregate {
		s := report.Summarize(fmt.Sprintf("%d files", len(results)), usage.Aggregate(results), a.cfg.Resolved().LibraryNames(), c.out.top)
		err = report.WriteSummaries(w, format, []report.Summary{s})
	} else {
		err = report.WriteFiles(w, format, files)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return closeOut()
}

func (c *analyzeCommand) analyze(cmd *cobra.Command, a *app, args []string) ([]report.FileSummary, []*usage.FileAnalysisResult, error) {
	if len(args) == 1 && args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
		res, err := a.engine.Analyze(c.stdinFilename, string(src))
		if err != nil {
			return nil, nil, fmt.Errorf("analyze %s: %w", c.stdinFilename, err)
		}
		return []report.FileSummary{report.SummarizeFile(c.stdinFilename, a.engine.Name(), res)}, []*usage.FileAnalysisResult{res}, nil
	}

	sc, err := a.newScanner(a.engine, nil, false)
	if err != nil {
		return nil, nil, err
	}
	defer sc.Close()

	files := make([]report.FileSummary, 0, len(args))
	results := make([]*usage.FileAnalysisResult, 0, len(args))
	for _, path := range args {
		res, err := sc.AnalyzeFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, report.SummarizeFile(path, a.engine.Name(), res))
		results = append(results, res)
	}
	return files, results, nil
}
