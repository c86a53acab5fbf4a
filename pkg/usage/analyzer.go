// Package usage classifies the JSX elements, imports and style overrides of
// a single JavaScript/TypeScript source file and folds per-file results into
// codebase-wide adoption figures.
//
// Analysis is approximate: it is regex driven, performs no parsing and never
// fails. Every function here is pure and safe for concurrent use.
package usage

// Engine analyzes one file. Implementations must be safe for concurrent use.
// path is informational for engines that need the file type; content is the
// full file text.
type Engine interface {
	Name() string
	Analyze(path, content string) (*FileAnalysisResult, error)
}

// RegexAnalyzer is the primary Engine.
type RegexAnalyzer struct {
	resolver  *Resolver
	tags      *TagRecognizer
	extractor CustomizationExtractor
}

// NewRegexAnalyzer prepares an analyzer for cfg.
func NewRegexAnalyzer(cfg ResolvedConfig) *RegexAnalyzer {
	return &RegexAnalyzer{
		resolver: NewResolver(cfg),
		tags:     NewTagRecognizer(nil),
	}
}

// AnalyzeFile is a convenience wrapper around NewRegexAnalyzer.
func AnalyzeFile(content string, cfg ResolvedConfig) *FileAnalysisResult {
	return NewRegexAnalyzer(cfg).AnalyzeFile(content)
}

// Name implements Engine.
func (a *RegexAnalyzer) Name() string { return "regex" }

// Analyze implements Engine. It never returns an error.
func (a *RegexAnalyzer) Analyze(_ string, content string) (*FileAnalysisResult, error) {
	return a.AnalyzeFile(content), nil
}

// AnalyzeFile runs the full pipeline on one file's content.
func (a *RegexAnalyzer) AnalyzeFile(content string) *FileAnalysisResult {
	sanitized := StripLiterals(content)

	jsx := a.tags.ComponentCounts(sanitized)
	native := a.tags.NativeCounts(sanitized)

	names, cats := a.resolver.Resolve(ParseImports(content, sanitized))

	matches := PropReferenceMatches(StripImports(sanitized), names)

	tracked := make(map[string]string)
	for name, cat := range names {
		if cat.IsLibrary() {
			tracked[name] = cat.Library
		}
	}

	return Assemble(Observation{
		Names:          names,
		Categories:     cats,
		JSXCounts:      jsx,
		PropReferences: AdditionalReferences(matches, jsx),
		NativeCounts:   native,
		Customizations: a.extractor.Extract(content, sanitized, tracked),
	})
}
