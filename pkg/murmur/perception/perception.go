// Package perception extracts the descriptive phrases consumers attach to a
// brand and discovers candidate keywords missing from the catalog.
package perception

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/match"
)

const (
	DefaultChunkSize     = 200
	DefaultWorkers       = 4
	DefaultMinSimilarity = 0.3
	DefaultOverlapRatio  = 0.5
)

// Phrase is a scored keyphrase.
type Phrase struct {
	Text  string  `json:"keyword"`
	Score float64 `json:"score"`
}

// PhraseExtractor returns up to n keyphrases of text.
type PhraseExtractor interface {
	ExtractPhrases(ctx context.Context, text string, n int) ([]Phrase, error)
}

// POSTagger returns the universal part-of-speech tags (ADJ, NOUN, VERB...)
// of each phrase, one slice per input.
type POSTagger interface {
	Tag(ctx context.Context, phrases []string) ([][]string, error)
}

// Embedder returns one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Pivot finds and removes the brand terms around which phrases are mined.
type Pivot interface {
	Match(text string) bool
	Strip(text string) string
}

// WordCount is the number of texts containing a phrase.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Extractor mines consumer-perception phrases. Tagger and Embedder are
// optional; without them the matching filter step is skipped.
type Extractor struct {
	Phrases  PhraseExtractor
	Tagger   POSTagger
	Embedder Embedder

	ChunkSize     int
	Workers       int
	MinSimilarity float64
	OverlapRatio  float64
}

// Perceive mines phrases from the texts that mention pivot and counts the
// texts containing each surviving phrase, most frequent first.
func (e Extractor) Perceive(ctx context.Context, pivot Pivot, texts []string, topK int) ([]WordCount, error) {
	if topK <= 0 {
		topK = 20
	}
	var relevant, stripped []string
	for _, t := range texts {
		if pivot.Match(t) {
			relevant = append(relevant, t)
			stripped = append(stripped, pivot.Strip(t))
		}
	}
	if len(relevant) == 0 {
		return nil, nil
	}

	phrases, err := extractChunks(ctx, e.Phrases, stripped, orDefault(e.ChunkSize, DefaultChunkSize), orDefault(e.Workers, DefaultWorkers), topK*3)
	if err != nil {
		return nil, err
	}
	candidates := uniqueTexts(phrases)

	if candidates, err = e.keepContentPhrases(ctx, candidates); err != nil {
		return nil, err
	}
	if candidates, err = e.keepCentral(ctx, candidates); err != nil {
		return nil, err
	}
	ratio := e.OverlapRatio
	if ratio <= 0 {
		ratio = DefaultOverlapRatio
	}
	candidates = RemoveOverlapping(candidates, ratio)

	return countPresence(relevant, candidates), nil
}

func (e Extractor) keepContentPhrases(ctx context.Context, phrases []string) ([]string, error) {
	if e.Tagger == nil || len(phrases) == 0 {
		return phrases, nil
	}
	tags, err := e.Tagger.Tag(ctx, phrases)
	if err != nil {
		return nil, fmt.Errorf("pos tagging: %v: %w", err, internalerr.ErrModelInference)
	}
	if len(tags) != len(phrases) {
		return nil, fmt.Errorf("pos tagger returned %d results for %d phrases: %w", len(tags), len(phrases), internalerr.ErrModelInference)
	}
	var out []string
	for i, p := range phrases {
		for _, tag := range tags[i] {
			if tag == "ADJ" || tag == "NOUN" {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (e Extractor) keepCentral(ctx context.Context, phrases []string) ([]string, error) {
	if e.Embedder == nil || len(phrases) == 0 {
		return phrases, nil
	}
	vecs, err := e.Embedder.Embed(ctx, phrases)
	if err != nil {
		return nil, fmt.Errorf("embedding phrases: %v: %w", err, internalerr.ErrModelInference)
	}
	if len(vecs) != len(phrases) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d phrases: %w", len(vecs), len(phrases), internalerr.ErrModelInference)
	}
	threshold := e.MinSimilarity
	if threshold <= 0 {
		threshold = DefaultMinSimilarity
	}
	c := Centroid(vecs)
	var out []string
	for i, p := range phrases {
		if Cosine(vecs[i], c) > threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

// Centroid returns the mean of vecs.
func Centroid(vecs [][]float64) []float64 {
	if len(vecs) == 0 {
		return nil
	}
	c := make([]float64, len(vecs[0]))
	for _, v := range vecs {
		for i := range c {
			if i < len(v) {
				c[i] += v[i]
			}
		}
	}
	for i := range c {
		c[i] /= float64(len(vecs))
	}
	return c
}

// Cosine returns the cosine similarity of a and b, 0 when either is zero.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Overlap is the share of the smaller phrase's distinct words found in the
// other phrase.
func Overlap(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(min(len(setA), len(setB)))
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

// RemoveOverlapping drops phrases whose overlap with an already kept,
// longer phrase exceeds ratio. Kept phrases stay in input order.
func RemoveOverlapping(phrases []string, ratio float64) []string {
	idx := make([]int, len(phrases))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return len(phrases[idx[a]]) > len(phrases[idx[b]]) })

	keep := make([]bool, len(phrases))
	var kept []string
	for _, i := range idx {
		redundant := false
		for _, k := range kept {
			if Overlap(phrases[i], k) > ratio {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, phrases[i])
			keep[i] = true
		}
	}

	var out []string
	for i, p := range phrases {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func countPresence(texts, phrases []string) []WordCount {
	out := make([]WordCount, 0, len(phrases))
	for _, p := range phrases {
		m := match.New(p)
		n := 0
		for _, t := range texts {
			if m.Match(t) {
				n++
			}
		}
		if n > 0 {
			out = append(out, WordCount{Word: p, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// extractChunks joins texts into chunks and extracts n phrases per chunk on
// a bounded pool. Results are returned in chunk order.
func extractChunks(ctx context.Context, ex PhraseExtractor, texts []string, size, workers, n int) ([]Phrase, error) {
	if ex == nil {
		return nil, fmt.Errorf("no phrase extractor configured: %w", internalerr.ErrModelInference)
	}
	nChunks := (len(texts) + size - 1) / size
	results := make([][]Phrase, nChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < nChunks; c++ {
		start := c * size
		end := min(start+size, len(texts))
		g.Go(func() error {
			got, err := ex.ExtractPhrases(gctx, strings.Join(texts[start:end], " "), n)
			if err != nil {
				return fmt.Errorf("extract phrases from chunk %d: %v: %w", c, err, internalerr.ErrModelInference)
			}
			results[c] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Phrase
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func uniqueTexts(phrases []Phrase) []string {
	seen := make(map[string]struct{}, len(phrases))
	var out []string
	for _, p := range phrases {
		t := strings.ToLower(strings.TrimSpace(p.Text))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
