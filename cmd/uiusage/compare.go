package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnana997/uiusage/pkg/config"
	"github.com/gnana997/uiusage/pkg/report"
	"github.com/gnana997/uiusage/pkg/scanner"
	"github.com/gnana997/uiusage/pkg/usage"
)

type compareCommand struct {
	global    *globalOptions
	codebases []string
	out       outputFlags
	scan      scanFlags
}

func newCompareCommand(g *globalOptions) *cobra.Command {
	c := &compareCommand{global: g}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the regex and AST engines on the same files",
		Long: `Scan the configured codebases with both engines and list every component
whose count differs. The agreement figure is the share of categorized
instances both engines counted.`,
		Args: cobra.NoArgs,
		RunE: c.Run,
	}
	cmd.Flags().StringSliceVar(&c.codebases, "codebase", nil, "Codebases to compare (repeatable; default: all)")
	c.out.register(cmd)
	c.scan.register(cmd)
	return cmd
}

func (c *compareCommand) Run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(c.global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := c.out.parse()
	if err != nil {
		return err
	}

	cbs, err := a.codebases(c.codebases)
	if err != nil {
		return err
	}
	if len(cbs) == 0 {
		return errors.New("no codebases configured")
	}

	ctx := cmd.Context()
	regex, err := a.newEngine(engineRegex)
	if err != nil {
		return err
	}
	ast, err := a.newEngine(engineAST)
	if err != nil {
		return err
	}
	left, err := c.run(ctx, a, regex, cbs)
	if err != nil {
		return err
	}
	right, err := c.run(ctx, a, ast, cbs)
	if err != nil {
		return err
	}

	var comparisons []report.Comparison
	for i, cb := range left.Codebases {
		comparisons = append(comparisons,
			report.CompareAggregates(cb.Name, engineRegex, cb.Aggregate, engineAST, right.Codebases[i].Aggregate))
	}
	if len(comparisons) > 1 {
		comparisons = append(comparisons,
			report.CompareAggregates(report.GlobalName, engineRegex, left.Global, engineAST, right.Global))
	}

	w, closeOut, err := c.out.create(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()
	if err := report.WriteComparisons(w, format, comparisons); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (c *compareCommand) run(ctx context.Context, a *app, engine usage.Engine, cbs []config.Codebase) (*scanner.ScanReport, error) {
	sc, err := a.newScanner(engine, &c.scan, false)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	rep, err := sc.ScanAll(ctx, cbs)
	if err != nil {
		return nil, fmt.Errorf("%s engine: %w", engine.Name(), err)
	}
	if rep.Stats.Cancelled {
		return nil, fmt.Errorf("scan cancelled: %w", context.Cause(ctx))
	}
	return rep, nil
}
