package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentCounts_Multiplicity(t *testing.T) {
	r := NewTagRecognizer(nil)
	got := r.ComponentCounts(`<Button>a</Button><Button/><Button
  variant="x"
/><Card.Header/>`)
	assert.Equal(t, map[string]int{"Button": 3, "Card": 1}, got)
}

func TestNativeCounts_Allowlist(t *testing.T) {
	r := NewTagRecognizer(nil)
	src := StripLiterals(`
const a = <string>value;
type T = Array<boolean>;
const b = <typeof x>y;
<motion.div animate={{ x: 1 }} />
<div><svg><clipPath id="c"/></svg></div>
<my-element/>
`)
	got := r.NativeCounts(src)
	assert.Equal(t, map[string]int{"div": 1, "svg": 1, "clipPath": 1}, got)
	assert.NotContains(t, got, "motion")
	assert.NotContains(t, got, "string")
	assert.NotContains(t, got, "boolean")
	assert.NotContains(t, got, "typeof")
}

func TestNativeCounts_MaxOfPasses(t *testing.T) {
	r := NewTagRecognizer(nil)
	// The strict pass stops at the arrow's '>' but still counts; the loose
	// pass sees the same occurrences. Neither doubles the count.
	src := `<div onClick={() => go()}>
<div
  className="a"
>
<span>x</span>`
	got := r.NativeCounts(StripLiterals(src))
	assert.Equal(t, 2, got["div"])
	assert.Equal(t, 1, got["span"])
}

func TestNativeCounts_StringAndTemplateImmunity(t *testing.T) {
	r := NewTagRecognizer(nil)
	src := "const s = \"<div>not a tag</div>\";\nconst css = `\n  .container > div { color: red }\n`;"
	assert.Empty(t, r.NativeCounts(StripLiterals(src)))
}

func TestNativeTags_Sorted(t *testing.T) {
	r := NewTagRecognizer(nil)
	got := r.NativeTags("<span/><a href=x>l</a><div></div>")
	assert.Equal(t, []NativeTagUsage{{Tag: "a", Count: 1}, {Tag: "div", Count: 1}, {Tag: "span", Count: 1}}, got)
}

func TestTagSet(t *testing.T) {
	set := NewTagSet([]string{"foo"})
	assert.True(t, set.Contains("foo"))
	assert.False(t, set.Contains("div"))
	assert.True(t, DefaultTagSet().Contains("feGaussianBlur"))
}
