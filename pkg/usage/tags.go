package usage

import (
	"regexp"
	"sort"
)

var (
	componentTagPattern = regexp.MustCompile(`<([A-Z][A-Za-z0-9]*)`)
	// strictTagPattern needs the closing bracket of the opening tag.
	strictTagPattern = regexp.MustCompile(`<([a-z][a-zA-Z0-9]*)(?:\s[^<>]*)?/?>`)
	// looseTagPattern only needs a delimiter after the name, so it still
	// sees tags whose attributes wrap or contain a stray '>'.
	looseTagPattern = regexp.MustCompile(`<([a-z][a-zA-Z0-9]*)[\s/>]`)
)

// KnownHTMLTags lists the HTML element names counted as native usage.
var KnownHTMLTags = []string{
	"a", "abbr", "address", "area", "article", "aside", "audio",
	"b", "base", "bdi", "bdo", "blockquote", "body", "br", "button",
	"canvas", "caption", "cite", "code", "col", "colgroup",
	"data", "datalist", "dd", "del", "details", "dfn", "dialog", "div", "dl", "dt",
	"em", "embed",
	"fieldset", "figcaption", "figure", "footer", "form",
	"h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hgroup", "hr", "html",
	"i", "iframe", "img", "input", "ins",
	"kbd",
	"label", "legend", "li", "link",
	"main", "map", "mark", "menu", "meta", "meter",
	"nav", "noscript",
	"object", "ol", "optgroup", "option", "output",
	"p", "param", "picture", "pre", "progress",
	"q",
	"rp", "rt", "ruby",
	"s", "samp", "script", "search", "section", "select", "slot", "small", "source", "span",
	"strong", "style", "sub", "summary", "sup",
	"table", "tbody", "td", "template", "textarea", "tfoot", "th", "thead", "time",
	"title", "tr", "track",
	"u", "ul",
	"var", "video",
	"wbr",
}

// KnownSVGTags lists SVG element names, in their JSX (camelCase) spelling.
var KnownSVGTags = []string{
	"svg", "animate", "animateMotion", "animateTransform", "circle", "clipPath",
	"defs", "desc", "ellipse",
	"feBlend", "feColorMatrix", "feComponentTransfer", "feComposite", "feConvolveMatrix",
	"feDiffuseLighting", "feDisplacementMap", "feDistantLight", "feDropShadow", "feFlood",
	"feFuncA", "feFuncB", "feFuncG", "feFuncR", "feGaussianBlur", "feImage", "feMerge",
	"feMergeNode", "feMorphology", "feOffset", "fePointLight", "feSpecularLighting",
	"feSpotLight", "feTile", "feTurbulence",
	"filter", "foreignObject", "g", "image", "line", "linearGradient", "marker", "mask",
	"metadata", "mpath", "path", "pattern", "polygon", "polyline", "radialGradient",
	"rect", "set", "stop", "switch", "symbol", "text", "textPath", "tspan", "use", "view",
}

// TagSet is an immutable allowlist of native element names.
type TagSet map[string]struct{}

// NewTagSet builds an allowlist from one or more name tables.
func NewTagSet(tables ...[]string) TagSet {
	set := make(TagSet)
	for _, table := range tables {
		for _, tag := range table {
			set[tag] = struct{}{}
		}
	}
	return set
}

// DefaultTagSet returns the HTML + SVG allowlist.
func DefaultTagSet() TagSet {
	return NewTagSet(KnownHTMLTags, KnownSVGTags)
}

// Contains reports whether tag is a known native element.
func (s TagSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// TagRecognizer extracts JSX component and native element occurrences from
// sanitized source.
type TagRecognizer struct {
	known TagSet
}

// NewTagRecognizer returns a recognizer filtering native tags against known.
// A nil set means DefaultTagSet.
func NewTagRecognizer(known TagSet) *TagRecognizer {
	if known == nil {
		known = DefaultTagSet()
	}
	return &TagRecognizer{known: known}
}

// ComponentCounts counts every `<Pascal` occurrence by name.
func (r *TagRecognizer) ComponentCounts(sanitized string) map[string]int {
	counts := make(map[string]int)
	for _, m := range componentTagPattern.FindAllStringSubmatch(sanitized, -1) {
		counts[m[1]]++
	}
	return counts
}

// NativeCounts counts lowercase element names with both passes, keeps the
// larger count per tag and drops anything outside the allowlist.
func (r *TagRecognizer) NativeCounts(sanitized string) map[string]int {
	strict := countMatches(strictTagPattern, sanitized)
	loose := countMatches(looseTagPattern, sanitized)

	counts := make(map[string]int, len(strict))
	for tag, n := range strict {
		if r.known.Contains(tag) {
			counts[tag] = n
		}
	}
	for tag, n := range loose {
		if r.known.Contains(tag) && n > counts[tag] {
			counts[tag] = n
		}
	}
	return counts
}

// NativeTags returns the allowlisted native tag counts sorted by tag name.
func (r *TagRecognizer) NativeTags(sanitized string) []NativeTagUsage {
	return nativeUsages(r.NativeCounts(sanitized))
}

func nativeUsages(counts map[string]int) []NativeTagUsage {
	tags := make([]NativeTagUsage, 0, len(counts))
	for tag, n := range counts {
		if n > 0 {
			tags = append(tags, NativeTagUsage{Tag: tag, Count: n})
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Tag < tags[j].Tag })
	return tags
}

func countMatches(re *regexp.Regexp, text string) map[string]int {
	counts := make(map[string]int)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		counts[m[1]]++
	}
	return counts
}
