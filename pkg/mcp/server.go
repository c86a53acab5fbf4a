// Package mcp exposes usage analysis to MCP clients: analyzing pasted
// source, scanning configured codebases and querying adoption.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/uiusage/pkg/config"
	"github.com/gnana997/uiusage/pkg/mcplog"
	"github.com/gnana997/uiusage/pkg/scanner"
	"github.com/gnana997/uiusage/pkg/usage"
	"github.com/gnana997/uiusage/pkg/watch"
)

const serverName = "uiusage"

// Version is reported to clients during initialization.
var Version = "0.1.0-dev"

// Options configures a Server.
type Options struct {
	Config  *config.Config
	Scanner *scanner.Scanner
	// CallLog records every tool call; nil disables it.
	CallLog *mcplog.Logger
	Logger  *slog.Logger
}

// Server answers tool calls from a scanner and a cache of codebase
// reports. Reports are produced on first use, or pushed by a watcher.
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	codebases []config.Codebase
	scanner   *scanner.Scanner
	callLog   *mcplog.Logger
	logger    *slog.Logger

	mu      sync.Mutex
	reports map[string]*scanner.CodebaseReport
}

// NewServer creates a server. Codebase roots are resolved against the
// config file location.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Scanner == nil {
		return nil, errors.New("mcp: config and scanner are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cbs, err := opts.Config.ResolvedCodebases()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       opts.Config,
		codebases: cbs,
		scanner:   opts.Scanner,
		callLog:   opts.CallLog,
		logger:    opts.Logger,
		reports:   make(map[string]*scanner.CodebaseReport),
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.loggingMiddleware()),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: analyzeSourceTool(), Handler: s.handleAnalyzeSource},
		server.ServerTool{Tool: listLibrariesTool(), Handler: s.handleListLibraries},
		server.ServerTool{Tool: listCodebasesTool(), Handler: s.handleListCodebases},
		server.ServerTool{Tool: scanCodebaseTool(), Handler: s.handleScanCodebase},
		server.ServerTool{Tool: topComponentsTool(), Handler: s.handleTopComponents},
		server.ServerTool{Tool: getAdoptionTool(), Handler: s.handleGetAdoption},
	)

	return s, nil
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Track replaces a codebase's cached report with a watcher update, so
// queries see live data without rescanning.
func (s *Server) Track(u watch.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep := &scanner.CodebaseReport{Name: u.Codebase, Aggregate: u.Aggregate}
	if cb, ok := s.codebase(u.Codebase); ok {
		rep.Root = cb.Root
	}
	s.reports[u.Codebase] = rep
}

func (s *Server) codebase(name string) (config.Codebase, bool) {
	for _, cb := range s.codebases {
		if cb.Name == name {
			return cb, true
		}
	}
	return config.Codebase{}, false
}

// selectCodebases returns the named codebase, or all of them for "".
func (s *Server) selectCodebases(name string) ([]config.Codebase, error) {
	if name == "" {
		return s.codebases, nil
	}
	cb, ok := s.codebase(name)
	if !ok {
		return nil, fmt.Errorf("unknown codebase %q", name)
	}
	return []config.Codebase{cb}, nil
}

// scan returns reports for the selected codebases, scanning those not yet
// cached. Empty codebases are cached like any other.
func (s *Server) scan(ctx context.Context, name string, refresh bool) (*scanner.ScanReport, error) {
	cbs, err := s.selectCodebases(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := &scanner.ScanReport{Global: usage.NewAggregate()}
	for _, cb := range cbs {
		rep, ok := s.reports[cb.Name]
		if !ok || refresh {
			rep, err = s.scanner.ScanCodebase(ctx, cb)
			if err != nil && !errors.Is(err, scanner.ErrNoFiles) {
				return nil, err
			}
			if rep.Stats.Cancelled {
				return nil, fmt.Errorf("scan of %s cancelled: %w", cb.Name, ctx.Err())
			}
			s.reports[cb.Name] = rep
		}
		out.Codebases = append(out.Codebases, rep)
		out.Global.Merge(rep.Aggregate)
		out.Stats.Add(rep.Stats)
	}
	return out, nil
}

// aggregate is the fold for one codebase, or the global fold for "".
func (s *Server) aggregate(ctx context.Context, name string) (*usage.AggregateResult, error) {
	rep, err := s.scan(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return rep.Global, nil
	}
	return rep.Codebases[0].Aggregate, nil
}
