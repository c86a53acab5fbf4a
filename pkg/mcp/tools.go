package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool names.
const (
	toolAnalyzeSource = "analyze_source"
	toolListLibraries = "list_libraries"
	toolListCodebases = "list_codebases"
	toolScanCodebase  = "scan_codebase"
	toolTopComponents = "top_components"
	toolGetAdoption   = "get_adoption"
)

const defaultTop = 10

func analyzeSourceTool() mcp.Tool {
	return mcp.NewTool(toolAnalyzeSource,
		mcp.WithDescription("Classify the components, native elements and style overrides of one JSX/TSX source file. Nothing is read from disk."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code of the file")),
		mcp.WithString("filename", mcp.Description("File name used to pick the grammar, e.g. Page.tsx (default Component.tsx)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listLibrariesTool() mcp.Tool {
	return mcp.NewTool(toolListLibraries,
		mcp.WithDescription("List tracked libraries with their import sources, plus the other-UI patterns and internal markers used for classification."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listCodebasesTool() mcp.Tool {
	return mcp.NewTool(toolListCodebases,
		mcp.WithDescription("List configured codebases with their roots and file patterns."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func scanCodebaseTool() mcp.Tool {
	return mcp.NewTool(toolScanCodebase,
		mcp.WithDescription("Scan one or all configured codebases and return usage summaries. Results are cached until refresh is set."),
		mcp.WithString("codebase", mcp.Description("Codebase name; omit for all codebases plus the global total")),
		mcp.WithBoolean("refresh", mcp.Description("Rescan even when a cached report exists")),
		mcp.WithNumber("top", mcp.Description("Components listed per category (default 10, 0 for all)")),
	)
}

func topComponentsTool() mcp.Tool {
	return mcp.NewTool(toolTopComponents,
		mcp.WithDescription("Rank components by usage count, across all rendered elements or within one category."),
		mcp.WithString("codebase", mcp.Description("Codebase name; omit for the global total")),
		mcp.WithString("category", mcp.Description("Category such as library:shadcn, other-ui or internal; omit for every rendered element")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 10)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func getAdoptionTool() mcp.Tool {
	return mcp.NewTool(toolGetAdoption,
		mcp.WithDescription("Adoption metrics for one tracked library: instances, share, files importing it, overlap with internal components and style overrides."),
		mcp.WithString("library", mcp.Required(), mcp.Description("Tracked library name")),
		mcp.WithString("codebase", mcp.Description("Codebase name; omit for the global total")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
