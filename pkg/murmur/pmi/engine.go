package pmi

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/cognicore/murmur/pkg/murmur/ingest"
)

// MinTextLen is the shortest text, in runes, considered for co-occurrence.
const MinTextLen = 5

// Rank selects the ordering key of pairs.
type Rank int

const (
	// RankPMI orders by pmi alone.
	RankPMI Rank = iota
	// RankWeighted orders by pmi × ln(count+1).
	RankWeighted
)

// Pivot finds and removes the anchor term of an analysis.
type Pivot interface {
	Match(text string) bool
	Strip(text string) string
}

// Options control filtering and truncation. Zero values keep everything.
type Options struct {
	MinCount int64
	MinPMI   float64
	TopN     int
	Rank     Rank
}

// Pair is a positively associated token pair. A < B.
type Pair struct {
	A     string  `json:"term_a"`
	B     string  `json:"term_b"`
	Count int64   `json:"count"`
	PMI   float64 `json:"pmi"`
	Score float64 `json:"score"`
}

// RelatedWord counts how many returned pairs include a token.
type RelatedWord struct {
	Word  string `json:"word"`
	Pairs int    `json:"pairs"`
}

// Analysis is the result of a pivot co-occurrence run.
type Analysis struct {
	Pairs   []Pair        `json:"pairs"`
	Related []RelatedWord `json:"related"`
	Texts   int           `json:"texts"` // texts that mentioned the pivot
}

// Engine computes pivot-anchored co-occurrence statistics.
type Engine struct {
	// Tokenizer splits stripped texts. Nil keeps alphabetic runs of at
	// least three letters.
	Tokenizer *ingest.Tokenizer
}

// Analyze keeps texts of at least MinTextLen runes that mention pivot,
// strips the pivot, and scores every token pair found within a text.
func (e Engine) Analyze(pivot Pivot, texts []string, opts Options) Analysis {
	tok := e.Tokenizer
	if tok == nil {
		tok = ingest.NewTokenizer(ingest.DefaultMinLen, nil)
	}

	counter := NewCounter()
	kept := 0
	for _, text := range texts {
		if utf8.RuneCountInString(text) < MinTextLen || !pivot.Match(text) {
			continue
		}
		kept++
		counter.AddText(tok.Unique(pivot.Strip(text)))
	}

	pairs := score(counter, opts)
	return Analysis{Pairs: pairs, Related: related(pairs), Texts: kept}
}

func score(c *Counter, opts Options) []Pair {
	var out []Pair
	for p, n := range c.Nxy {
		v, ok := PMI(n, c.Nx[p.T1], c.Nx[p.T2], c.Total)
		if !ok || v <= 0 || math.IsNaN(v) {
			continue
		}
		if n < opts.MinCount || v < opts.MinPMI {
			continue
		}
		s := v
		if opts.Rank == RankWeighted {
			s = Weighted(v, n)
		}
		out = append(out, Pair{A: p.T1, B: p.T2, Count: n, PMI: v, Score: s})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})

	if opts.TopN > 0 && len(out) > opts.TopN {
		out = out[:opts.TopN]
	}
	return out
}

func related(pairs []Pair) []RelatedWord {
	counts := make(map[string]int)
	for _, p := range pairs {
		counts[p.A]++
		counts[p.B]++
	}
	out := make([]RelatedWord, 0, len(counts))
	for w, n := range counts {
		out = append(out, RelatedWord{Word: w, Pairs: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pairs != out[j].Pairs {
			return out[i].Pairs > out[j].Pairs
		}
		return out[i].Word < out[j].Word
	})
	return out
}
