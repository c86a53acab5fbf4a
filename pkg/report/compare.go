package report

import (
	"sort"

	"github.com/gnana997/uiusage/pkg/usage"
)

// Delta is one component whose count differs between two aggregates.
type Delta struct {
	Category  string `json:"category"`
	Component string `json:"component"`
	Left      int    `json:"left"`
	Right     int    `json:"right"`
	Diff      int    `json:"diff"`
}

// Comparison lists the differences between two aggregates of the same
// files, typically the regex and AST engines.
type Comparison struct {
	// Scope names what was compared, usually a codebase.
	Scope      string  `json:"scope"`
	LeftName   string  `json:"left"`
	RightName  string  `json:"right"`
	LeftTotal  int     `json:"left_total"`
	RightTotal int     `json:"right_total"`
	Deltas     []Delta `json:"deltas"`
	// Agreement is the share of categorized instances both sides counted.
	Agreement float64 `json:"agreement"`
}

// CompareAggregates diffs per-category component counts. Deltas are
// ordered by absolute difference, then category, then component.
func CompareAggregates(scope, leftName string, left *usage.AggregateResult, rightName string, right *usage.AggregateResult) Comparison {
	c := Comparison{Scope: scope, LeftName: leftName, RightName: rightName}

	cats := make(map[usage.SourceCategory]bool)
	for cat := range left.Components {
		cats[cat] = true
	}
	for cat := range right.Components {
		cats[cat] = true
	}

	shared, largest := 0, 0
	for cat := range cats {
		l, r := left.Components[cat], right.Components[cat]
		names := make(map[string]bool)
		for n := range l {
			names[n] = true
		}
		for n := range r {
			names[n] = true
		}
		for name := range names {
			lc, rc := l[name], r[name]
			c.LeftTotal += lc
			c.RightTotal += rc
			shared += min(lc, rc)
			largest += max(lc, rc)
			if lc != rc {
				c.Deltas = append(c.Deltas, Delta{Category: cat.String(), Component: name, Left: lc, Right: rc, Diff: rc - lc})
			}
		}
	}
	c.Agreement = Ratio(shared, largest)
	if largest == 0 {
		c.Agreement = 1
	}

	sort.Slice(c.Deltas, func(i, j int) bool {
		a, b := c.Deltas[i], c.Deltas[j]
		if abs(a.Diff) != abs(b.Diff) {
			return abs(a.Diff) > abs(b.Diff)
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Component < b.Component
	})
	return c
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
