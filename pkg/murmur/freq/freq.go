// Package freq counts keyword mentions across a text collection.
package freq

import (
	"sort"
	"strings"

	"github.com/cognicore/murmur/pkg/murmur/ingest"
	"github.com/cognicore/murmur/pkg/murmur/match"
)

// DefaultFallbackTopN is the number of generic words returned when no
// curated term matches.
const DefaultFallbackTopN = 5

// Count is the number of mentions of one term.
type Count struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Result is a ranked count list. Fallback marks the lower-confidence
// generic-word substitute.
type Result struct {
	Counts   []Count `json:"counts"`
	Fallback bool    `json:"fallback,omitempty"`
}

// Aggregator counts term occurrences. The zero value is ready to use.
type Aggregator struct {
	FallbackTopN int
	// Tokenizer used by the fallback. Nil keeps alphabetic runs longer
	// than two letters.
	Tokenizer *ingest.Tokenizer
}

// Aggregate returns one entry per distinct term with its total occurrence
// count across texts, ranked by count with ties in term order. When every
// term counts zero the generic top words are returned instead.
func (a Aggregator) Aggregate(texts []string, terms []string) Result {
	var counts []Count
	seen := make(map[string]struct{}, len(terms))
	total := 0
	for _, term := range terms {
		key := strings.TrimSpace(match.Normalize(term))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		m := match.New(term)
		n := 0
		for _, text := range texts {
			n += m.Count(text)
		}
		total += n
		counts = append(counts, Count{Term: term, Count: n})
	}

	if total == 0 {
		topN := a.FallbackTopN
		if topN <= 0 {
			topN = DefaultFallbackTopN
		}
		return Result{Counts: TopTokens(texts, a.tokenizer(), topN), Fallback: true}
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return Result{Counts: counts}
}

func (a Aggregator) tokenizer() *ingest.Tokenizer {
	if a.Tokenizer != nil {
		return a.Tokenizer
	}
	return ingest.NewTokenizer(ingest.DefaultMinLen, nil)
}

// TopTokens counts every token of texts and returns the n most frequent,
// ties in first-seen order. n <= 0 returns all of them.
func TopTokens(texts []string, tok *ingest.Tokenizer, n int) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, text := range texts {
		for _, t := range tok.Tokenize(text) {
			if i, ok := index[t]; ok {
				counts[i].Count++
				continue
			}
			index[t] = len(counts)
			counts = append(counts, Count{Term: t, Count: 1})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
