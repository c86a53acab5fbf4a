// Package astcheck is a tree-sitter backed usage.Engine. It produces the
// same FileAnalysisResult shape as the regex engine but counts from the
// syntax tree, so string contents and comments never leak into counts and
// prop references are exact rather than de-duplicated against JSX.
//
// It is used to cross-check the regex engine and as an opt-in engine for
// codebases where precision matters more than speed.
package astcheck

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/uiusage/pkg/parser"
	"github.com/gnana997/uiusage/pkg/usage"
)

// Analyzer implements usage.Engine. It is safe for concurrent use because
// ParserManager is.
type Analyzer struct {
	parsers  *parser.ParserManager
	resolver *usage.Resolver
	known    usage.TagSet
}

// New creates an AST engine. The caller owns pm and closes it.
func New(pm *parser.ParserManager, cfg usage.ResolvedConfig) *Analyzer {
	return &Analyzer{
		parsers:  pm,
		resolver: usage.NewResolver(cfg),
		known:    usage.DefaultTagSet(),
	}
}

// Name implements usage.Engine.
func (a *Analyzer) Name() string { return "ast" }

// Analyze implements usage.Engine. Paths without a recognised extension
// are parsed as TSX.
func (a *Analyzer) Analyze(path, content string) (*usage.FileAnalysisResult, error) {
	source := []byte(content)

	lang, isTSX := parser.DetectLanguage(path), parser.IsTSXFile(path)
	if lang == parser.LanguageUnknown {
		lang, isTSX = parser.LanguageTypeScript, true
	}
	tree, err := a.parsers.Parse(source, lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	names, cats := a.resolver.Resolve(extractImports(root, source))

	w := &walker{
		source: source,
		names:  names,
		known:  a.known,
		jsx:    make(map[string]int),
		native: make(map[string]int),
		refs:   make(map[string]int),
	}
	w.walk(root)

	tracked := make(map[string]string)
	for name, cat := range names {
		if cat.IsLibrary() {
			tracked[name] = cat.Library
		}
	}
	var customizations []usage.Customization
	if len(tracked) > 0 {
		customizations = append(w.inlineStyles(tracked), w.styledWrappers(tracked)...)
	}

	return usage.Assemble(usage.Observation{
		Names:          names,
		Categories:     cats,
		JSXCounts:      w.jsx,
		PropReferences: w.refs,
		NativeCounts:   w.native,
		Customizations: customizations,
	}), nil
}

// extractImports reads top-level import statements. Statement-level and
// specifier-level type imports are skipped, as are namespace imports.
func extractImports(root *ts.Node, source []byte) []usage.ImportDeclaration {
	var decls []usage.ImportDeclaration
	for i := uint(0); i < root.ChildCount(); i++ {
		stmt := root.Child(i)
		if stmt.Kind() != "import_statement" || hasKeyword(stmt, source, "type") {
			continue
		}
		src := stmt.ChildByFieldName("source")
		if src == nil {
			continue
		}
		decl := usage.ImportDeclaration{Source: stringContent(src, source)}

		for j := uint(0); j < stmt.ChildCount(); j++ {
			clause := stmt.Child(j)
			if clause.Kind() != "import_clause" {
				continue
			}
			for k := uint(0); k < clause.ChildCount(); k++ {
				part := clause.Child(k)
				switch part.Kind() {
				case "identifier":
					if name := part.Utf8Text(source); usage.IsComponentName(name) {
						decl.DefaultLocalName = name
					}
				case "named_imports":
					decl.NamedLocalNames = namedImports(part, source)
				}
			}
		}
		if decl.Source != "" && (decl.DefaultLocalName != "" || len(decl.NamedLocalNames) > 0) {
			decls = append(decls, decl)
		}
	}
	return decls
}

func namedImports(node *ts.Node, source []byte) []string {
	var names []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec.Kind() != "import_specifier" || hasKeyword(spec, source, "type") {
			continue
		}
		local := spec.ChildByFieldName("alias")
		if local == nil {
			local = spec.ChildByFieldName("name")
		}
		if local == nil {
			continue
		}
		if name := local.Utf8Text(source); usage.IsComponentName(name) {
			names = append(names, name)
		}
	}
	return names
}

// hasKeyword reports whether node has an anonymous child token kw.
func hasKeyword(node *ts.Node, source []byte, kw string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Kind() == kw {
			return true
		}
	}
	return false
}

// stringContent gets the text inside a string node (without quotes).
func stringContent(node *ts.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == "string_fragment" {
			return child.Utf8Text(source)
		}
	}
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// elementName returns the tag name of an opening or self-closing element.
// Member tags such as Dialog.Title count as their root object.
func elementName(node *ts.Node, source []byte) string {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	text := name.Utf8Text(source)
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		text = text[:dot]
	}
	return text
}
