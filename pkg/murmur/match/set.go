package match

import (
	"sort"
	"strings"
)

// Set matches any of several terms, such as every keyword of a brand or
// every brand of a category.
type Set struct {
	matchers []*Matcher
}

// NewSet builds a set from terms. Blank and duplicate terms are skipped.
func NewSet(terms ...string) *Set {
	s := &Set{}
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		key := strings.TrimSpace(Normalize(t))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		s.matchers = append(s.matchers, New(t))
	}
	return s
}

// Len returns the number of distinct terms in the set.
func (s *Set) Len() int { return len(s.matchers) }

// Terms returns the raw terms in insertion order.
func (s *Set) Terms() []string {
	out := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		out[i] = m.term
	}
	return out
}

// Match reports whether any term occurs in text.
func (s *Set) Match(text string) bool {
	norm := Normalize(text)
	for _, m := range s.matchers {
		if m.matchNormalized(norm) {
			return true
		}
	}
	return false
}

// Strip removes every occurrence of every term, longest terms first so a
// phrase is removed before its own prefix.
func (s *Set) Strip(text string) string {
	norm := Normalize(text)
	ordered := make([]*Matcher, len(s.matchers))
	copy(ordered, s.matchers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].term) > len(ordered[j].term)
	})
	for _, m := range ordered {
		if m.re == nil {
			continue
		}
		norm = stripSpans(norm, m.spans(norm))
	}
	return norm
}
