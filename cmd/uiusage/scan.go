package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnana997/uiusage/pkg/report"
	"github.com/gnana997/uiusage/pkg/scanner"
)

type scanCommand struct {
	global    *globalOptions
	codebases []string
	out       outputFlags
	scan      scanFlags
	strict    bool
}

func newScanCommand(g *globalOptions) *cobra.Command {
	c := &scanCommand{global: g}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan configured codebases and report usage",
		Long: `Scan every configured codebase (or those named with --codebase),
then print one summary per codebase plus a global summary when more than
one codebase was scanned.`,
		Args: cobra.NoArgs,
		RunE: c.Run,
	}
	cmd.Flags().StringSliceVar(&c.codebases, "codebase", nil, "Codebases to scan (repeatable; default: all)")
	cmd.Flags().BoolVar(&c.strict, "strict", false, "Fail when any file could not be analyzed")
	c.out.register(cmd)
	c.scan.register(cmd)
	return cmd
}

func (c *scanCommand) Run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(c.global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := c.out.parse()
	if err != nil {
		return err
	}
	rep, err := c.collect(cmd.Context(), a)
	if err != nil {
		return err
	}

	w, closeOut, err := c.out.create(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	summaries := report.FromScan(rep, a.cfg.Resolved().LibraryNames(), c.out.top)
	if err := report.WriteSummaries(w, format, summaries); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if c.strict && rep.Stats.FilesFailed > 0 {
		return fmt.Errorf("%d file(s) could not be analyzed", rep.Stats.FilesFailed)
	}
	return nil
}

func (c *scanCommand) collect(ctx context.Context, a *app) (*scanner.ScanReport, error) {
	cbs, err := a.codebases(c.codebases)
	if err != nil {
		return nil, err
	}
	if len(cbs) == 0 {
		return nil, errors.New("no codebases configured")
	}
	sc, err := a.newScanner(a.engine, &c.scan, false)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	rep, err := sc.ScanAll(ctx, cbs)
	if err != nil {
		return nil, err
	}
	if rep.Stats.Cancelled {
		return nil, fmt.Errorf("scan cancelled: %w", context.Cause(ctx))
	}
	return rep, nil
}
