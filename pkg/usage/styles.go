package usage

import (
	"regexp"
	"sort"
	"strings"
)

var (
	styleAttrPattern = regexp.MustCompile(`(?:^|\s)style\s*=\s*\{`)
	styledPattern    = regexp.MustCompile(`(?:\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=\n]*)?=\s*)?\bstyled\s*\(\s*([A-Za-z_$][\w$]*)\s*\)`)
	styleKeyPattern  = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	cssPropPattern   = regexp.MustCompile(`^-{0,2}[A-Za-z][A-Za-z0-9-]*$`)
)

// CustomizationExtractor finds inline styles and styled wrappers applied to
// components of tracked libraries.
type CustomizationExtractor struct{}

// Extract scans a file. raw and sanitized must have identical length;
// tracked maps local component names to their library name.
func (CustomizationExtractor) Extract(raw, sanitized string, tracked map[string]string) []Customization {
	if len(tracked) == 0 || len(raw) != len(sanitized) {
		return nil
	}
	out := inlineStyles(raw, sanitized, tracked)
	return append(out, styledWrappers(raw, sanitized, tracked)...)
}

func inlineStyles(raw, sanitized string, tracked map[string]string) []Customization {
	var out []Customization
	for _, m := range componentTagPattern.FindAllStringSubmatchIndex(sanitized, -1) {
		name := sanitized[m[2]:m[3]]
		lib, ok := tracked[name]
		if !ok {
			continue
		}
		end := openingTagEnd(sanitized, m[1])
		if end < 0 {
			continue
		}
		open, closing, ok := styleAttribute(sanitized, m[1], end)
		if !ok {
			continue
		}
		expr := strings.TrimSpace(raw[open+1 : closing])
		c := Customization{Kind: InlineStyle, Component: name, Library: lib, Raw: expr}
		if strings.HasPrefix(expr, "{") {
			c.Properties, c.HasSpread = ParseStyleProperties(expr)
		}
		out = append(out, c)
	}
	return out
}

// openingTagEnd returns the index of the '>' closing the opening tag that
// starts before from, skipping over attribute expressions in braces.
// Attributes may span several lines.
func openingTagEnd(s string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '>':
			if depth == 0 {
				return i
			}
		case '<':
			if depth == 0 {
				return -1
			}
		}
	}
	return -1
}

// styleAttribute finds a top-level style={...} attribute in s[from:to] and
// returns the positions of its outer braces.
func styleAttribute(s string, from, to int) (int, int, bool) {
	tag := s[from:to]
	for _, loc := range styleAttrPattern.FindAllStringIndex(tag, -1) {
		if braceDepth(tag[:loc[0]]) != 0 {
			continue
		}
		open := from + loc[1] - 1
		closing := matchingClose(s, open, '{', '}')
		if closing < 0 {
			return 0, 0, false
		}
		return open, closing, true
	}
	return 0, 0, false
}

func styledWrappers(raw, sanitized string, tracked map[string]string) []Customization {
	var out []Customization
	for _, m := range styledPattern.FindAllStringSubmatchIndex(sanitized, -1) {
		name := sanitized[m[4]:m[5]]
		lib, ok := tracked[name]
		if !ok {
			continue
		}
		c := Customization{Kind: StyledWrapper, Component: name, Library: lib}
		if m[2] >= 0 {
			c.VariableName = sanitized[m[2]:m[3]]
		}

		i := skipSpace(sanitized, m[1])
		if strings.HasPrefix(sanitized[i:], ".attrs") {
			j := skipSpace(sanitized, i+len(".attrs"))
			if j >= len(sanitized) || sanitized[j] != '(' {
				continue
			}
			closeAttrs := matchingClose(sanitized, j, '(', ')')
			if closeAttrs < 0 {
				continue
			}
			i = skipSpace(sanitized, closeAttrs+1)
		}
		if i < len(sanitized) && sanitized[i] == '<' {
			// styled(Button)<Props>`...`
			closeGeneric := closeTypeArguments(sanitized, i)
			if closeGeneric < 0 {
				continue
			}
			i = skipSpace(sanitized, closeGeneric+1)
		}
		if i >= len(sanitized) {
			continue
		}

		switch sanitized[i] {
		case '`':
			closeTpl := strings.IndexByte(sanitized[i+1:], '`')
			if closeTpl < 0 {
				continue
			}
			c.Raw = raw[i+1 : i+1+closeTpl]
			c.Properties = ParseStyledProperties(c.Raw)
		case '(':
			closeCall := matchingClose(sanitized, i, '(', ')')
			if closeCall < 0 {
				continue
			}
			c.Raw = strings.TrimSpace(raw[i+1 : closeCall])
			if obj := firstObjectLiteral(raw, sanitized, i+1, closeCall); obj != "" {
				c.Properties, c.HasSpread = ParseStyleProperties(obj)
			}
		default:
			continue
		}
		out = append(out, c)
	}
	return out
}

// firstObjectLiteral returns the first balanced {...} in raw[from:to],
// located through the sanitized copy. For an arrow function the search
// starts at its body.
func firstObjectLiteral(raw, sanitized string, from, to int) string {
	if arrow := strings.Index(sanitized[from:to], "=>"); arrow >= 0 {
		from += arrow + len("=>")
	}
	open := strings.IndexByte(sanitized[from:to], '{')
	if open < 0 {
		return ""
	}
	open += from
	closing := matchingClose(sanitized, open, '{', '}')
	if closing < 0 || closing > to {
		return ""
	}
	return raw[open : closing+1]
}

// ParseStyleProperties lists the top-level keys of an object-literal style
// expression. Quoted keys (CSS custom properties) are unquoted, computed
// keys are skipped and spreads only set hasSpread.
func ParseStyleProperties(expr string) (props []string, hasSpread bool) {
	body := strings.TrimSpace(expr)
	if strings.HasPrefix(body, "{") {
		if closing := matchingCloseRaw(body, 0, '{', '}'); closing > 0 {
			body = body[1:closing]
		}
	}

	set := make(map[string]bool)
	for _, entry := range splitTopLevel(body, ',') {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
			continue
		case strings.HasPrefix(entry, "..."):
			hasSpread = true
			continue
		}
		key := entry
		if colon := indexTopLevel(entry, ':'); colon >= 0 {
			key = strings.TrimSpace(entry[:colon])
		}
		if len(key) >= 2 && (key[0] == '\'' || key[0] == '"') && key[len(key)-1] == key[0] {
			key = key[1 : len(key)-1]
			if key != "" {
				set[key] = true
			}
			continue
		}
		if styleKeyPattern.MatchString(key) {
			set[key] = true
		}
	}
	return sortedSet(set), hasSpread
}

// ParseStyledProperties lists the CSS property names declared in a styled
// template body, including those inside nested `&` blocks. Interpolations
// are treated as opaque values.
func ParseStyledProperties(body string) []string {
	body = blankInterpolations(body)
	set := make(map[string]bool)
	start := 0
	for i := 0; i <= len(body); i++ {
		if i < len(body) && !strings.ContainsRune(";{}\n", rune(body[i])) {
			continue
		}
		segment := body[start:i]
		start = i + 1
		if i < len(body) && body[i] == '{' {
			// selector such as `&:hover`
			continue
		}
		colon := strings.IndexByte(segment, ':')
		if colon < 0 {
			continue
		}
		name := strings.TrimSpace(segment[:colon])
		if cssPropPattern.MatchString(name) {
			set[name] = true
		}
	}
	return sortedSet(set)
}

// blankInterpolations replaces each ${...} with a placeholder value.
func blankInterpolations(body string) string {
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '$' && i+1 < len(body) && body[i+1] == '{' {
			closing := matchingCloseRaw(body, i+1, '{', '}')
			if closing < 0 {
				b.WriteString(body[i:])
				break
			}
			b.WriteString("x")
			i = closing
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

// splitTopLevel splits s on sep outside brackets and quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	start := 0
	for _, i := range topLevelIndexes(s, sep) {
		parts = append(parts, s[start:i])
		start = i + 1
	}
	return append(parts, s[start:])
}

func indexTopLevel(s string, sep byte) int {
	idx := topLevelIndexes(s, sep)
	if len(idx) == 0 {
		return -1
	}
	return idx[0]
}

func topLevelIndexes(s string, sep byte) []int {
	var idx []int
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				idx = append(idx, i)
			}
		}
	}
	return idx
}

// matchingClose finds the bracket closing s[open] in sanitized text.
func matchingClose(s string, open int, o, c byte) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// closeTypeArguments finds the '>' closing the type argument list opened at
// s[open]. The '>' of an arrow type (`() => void`) is not a bracket.
func closeTypeArguments(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if i > 0 && s[i-1] == '=' {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchingCloseRaw is matchingClose for unsanitized text; quoted sections
// are skipped.
func matchingCloseRaw(s string, open int, o, c byte) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func braceDepth(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
