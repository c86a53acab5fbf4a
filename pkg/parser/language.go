package parser

import (
	"path/filepath"
	"slices"
	"strings"
)

// Language is a grammar family the parser pools can load.
type Language int

const (
	// LanguageTypeScript covers .ts/.mts/.cts and, with TSX enabled, .tsx.
	LanguageTypeScript Language = iota
	// LanguageJavaScript covers .js/.jsx/.mjs/.cjs; the grammar accepts JSX.
	LanguageJavaScript
	// LanguageUnknown is any other file.
	LanguageUnknown
)

// String returns the lowercase language name.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// SourceExtensions are the file extensions analyzed for UI usage.
var SourceExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// DetectLanguage maps a file path to its grammar family.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile reports whether the TSX variant of the TypeScript grammar is
// needed. Plain .ts files must not use it: `<T>x` casts are not JSX there.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}

// IsSourceFile reports whether filePath has one of SourceExtensions.
func IsSourceFile(filePath string) bool {
	return slices.Contains(SourceExtensions, strings.ToLower(filepath.Ext(filePath)))
}
