package ingest

import (
	"strings"
	"unicode"
)

// DefaultMinLen is the shortest token kept by a Tokenizer.
const DefaultMinLen = 3

// Tokenizer splits chat text into lowercase alphabetic tokens.
type Tokenizer struct {
	minLen    int
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer that keeps letter runs of at least
// minLen runes and drops the given stopwords. minLen <= 0 uses DefaultMinLen.
func NewTokenizer(minLen int, stopwords []string) *Tokenizer {
	if minLen <= 0 {
		minLen = DefaultMinLen
	}
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{minLen: minLen, stopwords: stops}
}

// Tokenize returns tokens in text order, repeats included.
// Digits, underscores and punctuation all split tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	runes := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		if runes >= t.minLen && !t.isStopword(word) {
			tokens = append(tokens, word)
		}
		current.Reset()
		runes = 0
	}

	for _, r := range text {
		if unicode.IsLetter(r) {
			current.WriteRune(unicode.ToLower(r))
			runes++
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// Unique returns the distinct tokens of text in first-seen order.
func (t *Tokenizer) Unique(text string) []string {
	all := t.Tokenize(text)
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, tok := range all {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// With returns a copy of t that also drops extra.
func (t *Tokenizer) With(extra ...string) *Tokenizer {
	stops := make(map[string]struct{}, len(t.stopwords)+len(extra))
	for w := range t.stopwords {
		stops[w] = struct{}{}
	}
	for _, w := range extra {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{minLen: t.minLen, stopwords: stops}
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}
