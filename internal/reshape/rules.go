package reshape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/deckflow/internal/config"
)

// matcher decides whether a benchmark name opens a hierarchy section.
type matcher interface {
	Match(benchmark string) bool
}

type substringMatcher string

func (m substringMatcher) Match(benchmark string) bool {
	return strings.Contains(benchmark, string(m))
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Match(benchmark string) bool {
	return m.re.MatchString(benchmark)
}

type hierarchyRule struct {
	match matcher
	label string
}

func compileRules(rules []config.HierarchyRule) ([]hierarchyRule, error) {
	out := make([]hierarchyRule, 0, len(rules))
	for _, r := range rules {
		var m matcher = substringMatcher(r.Label)
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("hierarchy rule %q: %w", r.Label, err)
			}
			m = regexMatcher{re: re}
		}
		out = append(out, hierarchyRule{label: r.Label, match: m})
	}
	return out, nil
}

// applyRules returns the label of the last rule matching benchmark.
func applyRules(rules []hierarchyRule, benchmark string) (string, bool) {
	label, ok := "", false
	for _, r := range rules {
		if r.match.Match(benchmark) {
			label, ok = r.label, true
		}
	}
	return label, ok
}
