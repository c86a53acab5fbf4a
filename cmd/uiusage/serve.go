package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mcpserver "github.com/gnana997/uiusage/pkg/mcp"
	"github.com/gnana997/uiusage/pkg/mcplog"
	"github.com/gnana997/uiusage/pkg/watch"
)

type serveCommand struct {
	global   *globalOptions
	callLog  string
	watch    bool
	debounce time.Duration
	scan     scanFlags
}

func newServeCommand(g *globalOptions) *cobra.Command {
	c := &serveCommand{global: g}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Serve the usage tools over the Model Context Protocol on standard
input and output. Logs go to standard error. Scan results are cached per
codebase until a client asks for a refresh; with --watch every codebase is
kept current by a file watcher instead.`,
		Args: cobra.NoArgs,
		RunE: c.Run,
	}
	cmd.Flags().StringVar(&c.callLog, "call-log", "", "Append one JSON line per tool call to this file")
	cmd.Flags().BoolVar(&c.watch, "watch", false, "Watch codebases and keep cached reports current")
	cmd.Flags().DurationVar(&c.debounce, "debounce", watch.DefaultDebounce, "Quiet period before changed files are re-analyzed (with --watch)")
	c.scan.register(cmd)
	return cmd
}

func (c *serveCommand) Run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(c.global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	var callLog *mcplog.Logger
	if c.callLog != "" {
		callLog, err = mcplog.NewLogger(c.callLog)
		if err != nil {
			return fmt.Errorf("open call log: %w", err)
		}
		defer callLog.Close()
	}

	sc, err := a.newScanner(a.engine, &c.scan, false)
	if err != nil {
		return err
	}
	defer sc.Close()

	mcpserver.Version = version
	srv, err := mcpserver.NewServer(mcpserver.Options{
		Config:  a.cfg,
		Scanner: sc,
		CallLog: callLog,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if c.watch {
		if err := c.startWatchers(gctx, g, a, srv); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	a.logger.Info("mcp server starting", "engine", a.engine.Name(), "watch", c.watch)
	serveErr := srv.ServeStdio()
	cancel()
	if err := g.Wait(); err != nil {
		a.logger.Error("file watcher failed", "error", err)
	}
	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

// startWatchers runs one watcher per codebase, each with its own mapped
// scanner, feeding updates into the server's report cache.
func (c *serveCommand) startWatchers(ctx context.Context, g *errgroup.Group, a *app, srv *mcpserver.Server) error {
	cbs, err := a.codebases(nil)
	if err != nil {
		return err
	}
	for _, cb := range cbs {
		sc, err := a.newScanner(a.engine, &c.scan, true)
		if err != nil {
			return err
		}
		w, err := watch.New(sc, cb, watch.Options{Debounce: c.debounce, OnUpdate: srv.Track}, a.logger)
		if err != nil {
			sc.Close()
			return err
		}
		g.Go(func() error {
			defer sc.Close()
			defer w.Stop()
			if err := w.Run(ctx); err != nil {
				return fmt.Errorf("codebase %s: %w", cb.Name, err)
			}
			return nil
		})
	}
	return nil
}
