package astcheck

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/uiusage/pkg/usage"
)

// valueParents are the node kinds under which a bare identifier is passed
// around as a value rather than called or rendered.
var valueParents = map[string]bool{
	"jsx_expression":        true,
	"pair":                  true,
	"array":                 true,
	"arguments":             true,
	"variable_declarator":   true,
	"assignment_expression": true,
}

type walker struct {
	source []byte
	names  map[string]usage.SourceCategory
	known  usage.TagSet

	jsx    map[string]int
	native map[string]int
	refs   map[string]int

	styleAttrs []*ts.Node
	styledCall []*ts.Node
}

func (w *walker) walk(node *ts.Node) {
	switch node.Kind() {
	case "import_statement":
		return
	case "jsx_opening_element", "jsx_self_closing_element":
		w.element(node)
	case "identifier":
		w.reference(node)
	case "shorthand_property_identifier":
		if name := node.Utf8Text(w.source); w.isImported(name) {
			w.refs[name]++
		}
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" && fn.Utf8Text(w.source) == "styled" {
			w.styledCall = append(w.styledCall, node)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *walker) element(node *ts.Node) {
	name := elementName(node, w.source)
	switch {
	case name == "":
		return
	case usage.IsComponentName(name):
		w.jsx[name]++
	case w.known.Contains(name):
		w.native[name]++
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		attr := node.NamedChild(i)
		if attr.Kind() != "jsx_attribute" {
			continue
		}
		if key := attr.NamedChild(0); key != nil && key.Kind() == "property_identifier" && key.Utf8Text(w.source) == "style" {
			w.styleAttrs = append(w.styleAttrs, attr)
		}
	}
}

// reference counts identifiers in value position, such as icon={Icon},
// { icon: Icon } and [Icon, Other].
func (w *walker) reference(node *ts.Node) {
	name := node.Utf8Text(w.source)
	if !w.isImported(name) {
		return
	}
	parent := node.Parent()
	if parent == nil || !valueParents[parent.Kind()] {
		return
	}
	switch parent.Kind() {
	case "pair", "variable_declarator", "assignment_expression":
		field := "value"
		if parent.Kind() == "assignment_expression" {
			field = "right"
		}
		if v := parent.ChildByFieldName(field); v == nil || !sameNode(v, node) {
			return
		}
	case "arguments":
		// styled(Button) is a customization, not a reference.
		if call := parent.Parent(); call != nil {
			if fn := call.ChildByFieldName("function"); fn != nil && fn.Utf8Text(w.source) == "styled" {
				return
			}
		}
	}
	w.refs[name]++
}

func (w *walker) isImported(name string) bool {
	_, ok := w.names[name]
	return ok
}

func (w *walker) inlineStyles(tracked map[string]string) []usage.Customization {
	var out []usage.Customization
	for _, attr := range w.styleAttrs {
		name := elementName(attr.Parent(), w.source)
		lib, ok := tracked[name]
		if !ok {
			continue
		}
		value := attr.NamedChild(1)
		if value == nil || value.Kind() != "jsx_expression" {
			continue
		}
		expr := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(value.Utf8Text(w.source), "{"), "}"))
		c := usage.Customization{Kind: usage.InlineStyle, Component: name, Library: lib, Raw: expr}
		if inner := value.NamedChild(0); inner != nil && inner.Kind() == "object" {
			c.Properties, c.HasSpread = usage.ParseStyleProperties(inner.Utf8Text(w.source))
		}
		out = append(out, c)
	}
	return out
}

// styledWrappers resolves styled(X)`...`, styled(X)({...}) and the
// .attrs(...) and generic forms of both.
func (w *walker) styledWrappers(tracked map[string]string) []usage.Customization {
	var out []usage.Customization
	for _, call := range w.styledCall {
		args := call.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			continue
		}
		target := args.NamedChild(0)
		if target.Kind() != "identifier" {
			continue
		}
		name := target.Utf8Text(w.source)
		lib, ok := tracked[name]
		if !ok {
			continue
		}

		outer := call
		for {
			p := outer.Parent()
			if p != nil && p.Kind() == "member_expression" {
				if prop := p.ChildByFieldName("property"); prop != nil && prop.Utf8Text(w.source) == "attrs" {
					if attrsCall := p.Parent(); attrsCall != nil && attrsCall.Kind() == "call_expression" {
						outer = attrsCall
						continue
					}
				}
			}
			break
		}

		apply := outer.Parent()
		if apply == nil || apply.Kind() != "call_expression" {
			continue
		}
		if fn := apply.ChildByFieldName("function"); fn == nil || !sameNode(fn, outer) {
			continue
		}
		body := apply.ChildByFieldName("arguments")
		if body == nil {
			continue
		}

		c := usage.Customization{Kind: usage.StyledWrapper, Component: name, Library: lib, VariableName: w.declaredName(apply)}
		switch body.Kind() {
		case "template_string":
			text := body.Utf8Text(w.source)
			c.Raw = strings.TrimSuffix(strings.TrimPrefix(text, "`"), "`")
			c.Properties = usage.ParseStyledProperties(c.Raw)
		case "arguments":
			text := body.Utf8Text(w.source)
			c.Raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "("), ")"))
			if obj := firstObject(body); obj != nil {
				c.Properties, c.HasSpread = usage.ParseStyleProperties(obj.Utf8Text(w.source))
			}
		default:
			continue
		}
		out = append(out, c)
	}
	return out
}

// declaredName returns the variable a styled expression is assigned to.
func (w *walker) declaredName(node *ts.Node) string {
	p := node.Parent()
	if p == nil || p.Kind() != "variable_declarator" {
		return ""
	}
	if name := p.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
		return name.Utf8Text(w.source)
	}
	return ""
}

// firstObject finds the first object literal in a call's arguments,
// looking through arrow function bodies and parentheses.
func firstObject(node *ts.Node) *ts.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "object":
			return child
		case "arrow_function":
			if body := child.ChildByFieldName("body"); body != nil {
				if body.Kind() == "object" {
					return body
				}
				if obj := firstObject(body); obj != nil {
					return obj
				}
			}
		case "parenthesized_expression":
			if obj := firstObject(child); obj != nil {
				return obj
			}
		}
	}
	return nil
}

func sameNode(a, b *ts.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
