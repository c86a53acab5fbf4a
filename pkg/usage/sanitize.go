package usage

import "regexp"

// importStatementPattern matches whole `import ... from '...'` statements in
// text whose string bodies have already been blanked. The quotes survive
// blanking so the statement end is still visible.
var importStatementPattern = regexp.MustCompile(`(?s)\bimport\s+[^;'"` + "`" + `]*?\bfrom\s*['"][^'"\n]*['"]`)

// StripLiterals returns text of identical byte length in which the bodies of
// template literals and single-line quoted strings are replaced by spaces.
// Delimiters and newlines are kept so offsets and line numbers stay valid.
// Quoted strings that run into a newline are not JS strings and are left
// alone; an unterminated template literal is left alone as well.
func StripLiterals(text string) string {
	out := []byte(text)
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case '`':
			end := closingQuote(out, i, '`', true)
			if end < 0 {
				continue
			}
			blank(out, i+1, end)
			i = end
		case '\'', '"':
			end := closingQuote(out, i, out[i], false)
			if end < 0 {
				continue
			}
			blank(out, i+1, end)
			i = end
		}
	}
	return string(out)
}

// StripImports blanks every import statement in already-sanitized text.
// It feeds the prop-reference scan so destructuring lists such as
// `import { A, B }` are not mistaken for value references.
func StripImports(sanitized string) string {
	locs := importStatementPattern.FindAllStringIndex(sanitized, -1)
	if len(locs) == 0 {
		return sanitized
	}
	out := []byte(sanitized)
	for _, loc := range locs {
		blank(out, loc[0], loc[1])
	}
	return string(out)
}

// closingQuote returns the index of the quote closing the literal opened at
// start, or -1. Backslash escapes are honoured.
func closingQuote(buf []byte, start int, quote byte, multiline bool) int {
	for j := start + 1; j < len(buf); j++ {
		switch buf[j] {
		case '\\':
			j++
		case '\n':
			if !multiline {
				return -1
			}
		case quote:
			return j
		}
	}
	return -1
}

func blank(buf []byte, from, to int) {
	for k := from; k < to; k++ {
		if buf[k] != '\n' {
			buf[k] = ' '
		}
	}
}
