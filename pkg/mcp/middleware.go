package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/uiusage/pkg/mcplog"
)

// loggingMiddleware writes one call-log entry per tool call and a debug
// line to the process logger. Log failures never affect the result.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	engine := s.scanner.Engine().Name()
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)

			if logErr := s.callLog.Record(req.Params.Name, engine, req.GetArguments(), start, result, err); logErr != nil {
				s.logger.Warn("failed to write call log", "tool", req.Params.Name, "error", logErr)
			}
			s.logger.Debug("tool call",
				"tool", req.Params.Name,
				"duration_ms", mcplog.Now().Sub(start).Milliseconds(),
				"is_error", result != nil && result.IsError,
				"error", err)
			return result, err
		}
	}
}
