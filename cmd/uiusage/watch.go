package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/uiusage/pkg/report"
	"github.com/gnana997/uiusage/pkg/watch"
)

type watchCommand struct {
	global   *globalOptions
	codebase string
	debounce time.Duration
	out      outputFlags
	scan     scanFlags
}

func newWatchCommand(g *globalOptions) *cobra.Command {
	c := &watchCommand{global: g}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a report current while files change",
		Long: `Scan one codebase, then watch it and re-render the summary after each
batch of changes. With --output the file is replaced on every update;
otherwise each summary is printed to standard output.`,
		Args: cobra.NoArgs,
		RunE: c.Run,
	}
	cmd.Flags().StringVar(&c.codebase, "codebase", "", "Codebase to watch (default: the first configured)")
	cmd.Flags().DurationVar(&c.debounce, "debounce", watch.DefaultDebounce, "Quiet period before changed files are re-analyzed")
	c.out.register(cmd)
	c.scan.register(cmd)
	return cmd
}

func (c *watchCommand) Run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(c.global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := c.out.parse()
	if err != nil {
		return err
	}
	var names []string
	if c.codebase != "" {
		names = []string{c.codebase}
	}
	cbs, err := a.codebases(names)
	if err != nil {
		return err
	}
	if len(cbs) == 0 {
		return fmt.Errorf("no codebases configured")
	}
	cb := cbs[0]

	sc, err := a.newScanner(a.engine, &c.scan, true)
	if err != nil {
		return err
	}
	defer sc.Close()

	libraries := a.cfg.Resolved().LibraryNames()
	sink := &reportSink{stdout: cmd.OutOrStdout(), path: c.out.output}
	var w *watch.Watcher
	w, err = watch.New(sc, cb, watch.Options{
		Debounce: c.debounce,
		OnUpdate: func(u watch.Update) {
			if !u.Initial {
				a.logger.Info("codebase updated", "codebase", u.Codebase, "changed", len(u.Changed), "watcher", w.GetStats())
			}
			s := report.Summarize(u.Codebase, u.Aggregate, libraries, c.out.top)
			if err := sink.write(format, s); err != nil {
				a.logger.Error("failed to write report", "error", err)
			}
		},
	}, a.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	return w.Run(cmd.Context())
}

// reportSink writes each rendered summary to stdout, or replaces the file
// at path.
type reportSink struct {
	mu     sync.Mutex
	stdout io.Writer
	path   string
}

func (r *reportSink) write(f report.Format, s report.Summary) error {
	var buf bytes.Buffer
	if err := report.WriteSummaries(&buf, f, []report.Summary{s}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" {
		_, err := r.stdout.Write(buf.Bytes())
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".uiusage-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
