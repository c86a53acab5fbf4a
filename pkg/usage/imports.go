package usage

import (
	"regexp"
	"sort"
	"strings"
)

// importPattern captures the clause and module path of an import statement.
// Side-effect imports (`import './x.css'`) have no `from` and never match.
var importPattern = regexp.MustCompile(`(?s)\bimport\s+([^'";` + "`" + `]*?)\s*\bfrom\s*['"]([^'"\n]+)['"]`)

// ImportDeclaration is one parsed import statement, reduced to the
// PascalCase local names it introduces.
type ImportDeclaration struct {
	Source           string
	NamedLocalNames  []string
	DefaultLocalName string
}

// LocalNames returns the default name (if any) followed by the named ones.
func (d ImportDeclaration) LocalNames() []string {
	names := make([]string, 0, len(d.NamedLocalNames)+1)
	if d.DefaultLocalName != "" {
		names = append(names, d.DefaultLocalName)
	}
	return append(names, d.NamedLocalNames...)
}

// ParseImports extracts import declarations from raw source. sanitized must
// be StripLiterals(raw); it is used to ignore `import` text that sits inside
// a string or template literal. Declarations without a renderable local
// name are omitted.
func ParseImports(raw, sanitized string) []ImportDeclaration {
	var decls []ImportDeclaration
	for _, m := range importPattern.FindAllStringSubmatchIndex(raw, -1) {
		if len(sanitized) >= m[0]+len("import") && sanitized[m[0]:m[0]+len("import")] != "import" {
			continue
		}
		decl, ok := parseImportClause(raw[m[2]:m[3]], raw[m[4]:m[5]])
		if ok {
			decls = append(decls, decl)
		}
	}
	return decls
}

func parseImportClause(clause, source string) (ImportDeclaration, bool) {
	clause = strings.TrimSpace(clause)
	if isTypeOnly(clause) {
		return ImportDeclaration{}, false
	}

	decl := ImportDeclaration{Source: source}
	defaultPart := clause
	if open := strings.IndexByte(clause, '{'); open >= 0 {
		defaultPart = clause[:open]
		body := clause[open+1:]
		if end := strings.IndexByte(body, '}'); end >= 0 {
			body = body[:end]
		}
		decl.NamedLocalNames = parseNamedImports(body)
	}

	defaultPart = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(defaultPart), ","))
	if comma := strings.IndexByte(defaultPart, ','); comma >= 0 {
		// `Default, * as NS`
		defaultPart = strings.TrimSpace(defaultPart[:comma])
	}
	if !strings.HasPrefix(defaultPart, "*") && isPascalIdentifier(defaultPart) {
		decl.DefaultLocalName = defaultPart
	}

	if decl.DefaultLocalName == "" && len(decl.NamedLocalNames) == 0 {
		return ImportDeclaration{}, false
	}
	return decl, true
}

// parseNamedImports splits `A, type B, C as D` into renderable local names.
func parseNamedImports(body string) []string {
	var names []string
	for _, entry := range strings.Split(body, ",") {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "type" && len(fields) > 1 {
			continue
		}
		local := fields[0]
		if len(fields) >= 3 && fields[1] == "as" {
			local = fields[2]
		}
		if isPascalIdentifier(local) {
			names = append(names, local)
		}
	}
	return names
}

func isTypeOnly(clause string) bool {
	fields := strings.Fields(clause)
	return len(fields) > 1 && fields[0] == "type" || strings.HasPrefix(clause, "type{")
}

// isPascalIdentifier reports whether s is a JS identifier starting with A-Z.
func isPascalIdentifier(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '$') {
			return false
		}
	}
	return true
}

// Resolver classifies import sources into categories.
type Resolver struct {
	libraries []LibrarySpec
	otherUI   []string
	internal  []string
}

// NewResolver builds a Resolver from cfg. Empty patterns are ignored so a
// blank entry cannot match every source.
func NewResolver(cfg ResolvedConfig) *Resolver {
	r := &Resolver{
		otherUI:  nonEmpty(cfg.OtherUIPatterns),
		internal: nonEmpty(cfg.Markers()),
	}
	for _, lib := range cfg.Libraries {
		r.libraries = append(r.libraries, LibrarySpec{
			Name:           lib.Name,
			ImportSources:  nonEmpty(lib.ImportSources),
			ExcludeSources: nonEmpty(lib.ExcludeSources),
		})
	}
	return r
}

// Classify returns the category of a module path. Libraries are checked in
// configuration order and each library's exclusions only apply to itself.
func (r *Resolver) Classify(source string) SourceCategory {
	for _, lib := range r.libraries {
		if containsAny(source, lib.ImportSources) && !containsAny(source, lib.ExcludeSources) {
			return Library(lib.Name)
		}
	}
	if containsAny(source, r.otherUI) {
		return OtherUI
	}
	if strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") || containsAny(source, r.internal) {
		return Internal
	}
	return Uncategorized
}

// Resolve maps every local name to its category and returns the distinct
// categories seen, sorted. Uncategorized names are dropped. When a name is
// imported twice the first categorized declaration wins.
func (r *Resolver) Resolve(decls []ImportDeclaration) (map[string]SourceCategory, []SourceCategory) {
	names := make(map[string]SourceCategory)
	seen := make(map[SourceCategory]bool)
	for _, decl := range decls {
		cat := r.Classify(decl.Source)
		if cat.Kind == KindUncategorized {
			continue
		}
		for _, local := range decl.LocalNames() {
			if _, dup := names[local]; dup {
				continue
			}
			names[local] = cat
			seen[cat] = true
		}
	}

	cats := make([]SourceCategory, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return categoryLess(cats[i], cats[j]) })
	return names, cats
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// IsComponentName reports whether name follows the PascalCase convention
// that marks a renderable component.
func IsComponentName(name string) bool {
	return isPascalIdentifier(name)
}
