// Package match locates whole-word term mentions inside chat text.
//
// Terms and texts are compared after normalization: lowercase, curly and
// back quotes folded to an apostrophe, apostrophes dropped. Inside a term a
// hyphen matches either a hyphen or a single whitespace character, and any
// run of spaces matches one or more whitespace characters. A mention must
// be bounded by a non-word character (or the edge of the text) on both
// sides, so "huggies" is not found inside "ihuggiesx".
package match

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var quoteFolder = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Normalize applies the text normalization used on both sides of a match.
func Normalize(s string) string {
	s = quoteFolder.Replace(s)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "'", "")
}

// Matcher tests texts for occurrences of a single term.
type Matcher struct {
	term string
	re   *regexp.Regexp
}

// New compiles a matcher for term. An empty or blank term yields a matcher
// that never matches.
func New(term string) *Matcher {
	m := &Matcher{term: term}
	norm := strings.TrimSpace(Normalize(term))
	if norm == "" {
		return m
	}
	m.re = regexp.MustCompile(buildPattern(norm))
	return m
}

func buildPattern(norm string) string {
	var sb strings.Builder
	inSpace := false
	for _, r := range norm {
		if unicode.IsSpace(r) {
			if !inSpace {
				sb.WriteString(`\s+`)
			}
			inSpace = true
			continue
		}
		inSpace = false
		if r == '-' {
			sb.WriteString(`(?:-|\s)`)
			continue
		}
		sb.WriteString(regexp.QuoteMeta(string(r)))
	}
	return sb.String()
}

// Term returns the raw term the matcher was built from.
func (m *Matcher) Term() string { return m.term }

// Match reports whether text contains at least one bounded occurrence.
func (m *Matcher) Match(text string) bool {
	if m == nil || m.re == nil {
		return false
	}
	_, _, ok := m.next(Normalize(text), 0)
	return ok
}

// Count returns the number of non-overlapping bounded occurrences in text.
func (m *Matcher) Count(text string) int {
	if m == nil || m.re == nil {
		return 0
	}
	return len(m.spans(Normalize(text)))
}

// Strip returns the normalized text with every occurrence replaced by a
// single space.
func (m *Matcher) Strip(text string) string {
	norm := Normalize(text)
	if m == nil || m.re == nil {
		return norm
	}
	return stripSpans(norm, m.spans(norm))
}

func (m *Matcher) matchNormalized(norm string) bool {
	if m.re == nil {
		return false
	}
	_, _, ok := m.next(norm, 0)
	return ok
}

func (m *Matcher) spans(norm string) [][2]int {
	var out [][2]int
	from := 0
	for from <= len(norm) {
		start, end, ok := m.next(norm, from)
		if !ok {
			break
		}
		out = append(out, [2]int{start, end})
		if end == start {
			end++
		}
		from = end
	}
	return out
}

// next finds the first bounded occurrence at or after byte offset from.
// RE2 has no lookaround, so a candidate whose neighbours are word
// characters is rejected and the scan resumes one rune later.
func (m *Matcher) next(norm string, from int) (int, int, bool) {
	for from <= len(norm) {
		loc := m.re.FindStringIndex(norm[from:])
		if loc == nil {
			return 0, 0, false
		}
		start, end := from+loc[0], from+loc[1]
		if bounded(norm, start, end) {
			return start, end, true
		}
		_, size := utf8.DecodeRuneInString(norm[start:])
		if size == 0 {
			size = 1
		}
		from = start + size
	}
	return 0, 0, false
}

func bounded(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWord(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWord(r) {
			return false
		}
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func stripSpans(norm string, spans [][2]int) string {
	if len(spans) == 0 {
		return norm
	}
	var sb strings.Builder
	prev := 0
	for _, sp := range spans {
		sb.WriteString(norm[prev:sp[0]])
		sb.WriteByte(' ')
		prev = sp[1]
	}
	sb.WriteString(norm[prev:])
	return sb.String()
}
