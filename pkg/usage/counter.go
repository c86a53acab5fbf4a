package usage

import "regexp"

// propReferencePattern finds a PascalCase identifier sitting in value
// position: after `=`, `:`, `,`, `[` or `{`. The trailing delimiter is
// checked by hand so adjacent references (`[A, B]`) are all seen.
//
// The pattern cannot tell an imported component from an unrelated local
// that shares its name (`{icon: Button}` where Button is a string). That
// false positive is part of the historical numbers and is kept.
var propReferencePattern = regexp.MustCompile(`[=:,\[{]\s*([A-Z][A-Za-z0-9_$]*)`)

// PropReferenceMatches counts value-position references per resolved name
// in text that has had literals and import statements stripped.
func PropReferenceMatches(stripped string, names map[string]SourceCategory) map[string]int {
	matches := make(map[string]int)
	for _, m := range propReferencePattern.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		if _, ok := names[name]; !ok {
			continue
		}
		if m[1] >= len(stripped) || !isReferenceDelimiter(stripped[m[1]]) {
			continue
		}
		matches[name]++
	}
	return matches
}

// AdditionalReferences credits only the prop-pattern matches that exceed the
// JSX render count, so a single occurrence is never counted twice.
func AdditionalReferences(matches, jsx map[string]int) map[string]int {
	extra := make(map[string]int, len(matches))
	for name, n := range matches {
		if d := n - jsx[name]; d > 0 {
			extra[name] = d
		}
	}
	return extra
}

func isReferenceDelimiter(c byte) bool {
	switch c {
	case ',', '}', ']', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
