package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/uiusage/pkg/report"
	"github.com/gnana997/uiusage/pkg/usage"
)

const defaultFilename = "Component.tsx"

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAnalyzeSource(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", defaultFilename)
	if filename == "" {
		filename = defaultFilename
	}

	engine := s.scanner.Engine()
	res, err := engine.Analyze(filename, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analyze %s: %v", filename, err)), nil
	}
	return jsonResult(report.SummarizeFile(filename, engine.Name(), res))
}

type libraryInfo struct {
	Name           string   `json:"name"`
	ImportSources  []string `json:"import_sources"`
	ExcludeSources []string `json:"exclude_sources,omitempty"`
}

type librariesResponse struct {
	Libraries       []libraryInfo `json:"libraries"`
	OtherUIPatterns []string      `json:"other_ui_patterns"`
	InternalMarkers []string      `json:"internal_markers"`
}

func (s *Server) handleListLibraries(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resolved := s.cfg.Resolved()
	resp := librariesResponse{
		Libraries:       make([]libraryInfo, 0, len(resolved.Libraries)),
		OtherUIPatterns: resolved.OtherUIPatterns,
		InternalMarkers: resolved.Markers(),
	}
	for _, lib := range resolved.Libraries {
		resp.Libraries = append(resp.Libraries, libraryInfo{
			Name:           lib.Name,
			ImportSources:  lib.ImportSources,
			ExcludeSources: lib.ExcludeSources,
		})
	}
	return jsonResult(resp)
}

type codebaseInfo struct {
	Name    string   `json:"name"`
	Root    string   `json:"root"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	Scanned bool     `json:"scanned"`
}

func (s *Server) handleListCodebases(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]codebaseInfo, 0, len(s.codebases))
	for _, cb := range s.codebases {
		_, scanned := s.reports[cb.Name]
		out = append(out, codebaseInfo{Name: cb.Name, Root: cb.Root, Include: cb.Include, Exclude: cb.Exclude, Scanned: scanned})
	}
	return jsonResult(out)
}

func (s *Server) handleScanCodebase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("codebase", "")
	rep, err := s.scan(ctx, name, req.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	top := req.GetInt("top", defaultTop)
	return jsonResult(report.FromScan(rep, s.cfg.Resolved().LibraryNames(), top))
}

func (s *Server) handleTopComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agg, err := s.aggregate(ctx, req.GetString("codebase", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultTop)

	var ranked []usage.ComponentCount
	if raw := req.GetString("category", ""); raw != "" {
		cat, ok := usage.ParseCategory(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q: use library:<name>, other-ui or internal", raw)), nil
		}
		ranked = agg.TopForCategory(cat, limit)
	} else {
		ranked = agg.TopComponents(limit)
	}

	out := make([]report.Ranked, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, report.Ranked{Name: c.Name, Count: c.Count})
	}
	return jsonResult(out)
}

func (s *Server) handleGetAdoption(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lib, err := req.RequireString("library")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	known := false
	for _, name := range s.cfg.Resolved().LibraryNames() {
		known = known || name == lib
	}
	if !known {
		return mcp.NewToolResultError(fmt.Sprintf("library %q is not tracked; see %s", lib, toolListLibraries)), nil
	}

	name := req.GetString("codebase", "")
	agg, err := s.aggregate(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if name == "" {
		name = report.GlobalName
	}
	summary := report.Summarize(name, agg, []string{lib}, defaultTop)
	return jsonResult(summary.Libraries[0])
}
