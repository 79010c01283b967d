package sentiment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
)

// Rule maps any of its patterns to a fixed label.
type Rule struct {
	Name      string   `yaml:"name"`
	Patterns  []string `yaml:"patterns"`
	Sentiment string   `yaml:"sentiment"`
}

// Rules is a compiled, priority-ordered override list.
type Rules struct {
	rules []compiledRule
}

type compiledRule struct {
	name     string
	label    Label
	patterns []*regexp.Regexp
}

// CompileRules compiles rules in order. Patterns are case-insensitive.
// Unnamed rules are called "rule-N" by position.
func CompileRules(rules []Rule) (*Rules, error) {
	out := &Rules{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		label, err := ParseLabel(r.Sentiment)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		cr := compiledRule{name: name, label: label}
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("rule %s pattern %q: %v: %w", name, p, err, internalerr.ErrInvalidConfig)
			}
			cr.patterns = append(cr.patterns, re)
		}
		out.rules = append(out.rules, cr)
	}
	return out, nil
}

// MustCompileRules is like CompileRules but panics on error.
func MustCompileRules(rules []Rule) *Rules {
	r, err := CompileRules(rules)
	if err != nil {
		panic(err)
	}
	return r
}

// Apply returns the label and name of the first rule with a pattern found
// in the lowercased text.
func (r *Rules) Apply(text string) (Label, string, bool) {
	if r == nil {
		return "", "", false
	}
	lowered := strings.ToLower(text)
	for _, cr := range r.rules {
		for _, re := range cr.patterns {
			if re.MatchString(lowered) {
				return cr.label, cr.name, true
			}
		}
	}
	return "", "", false
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}
