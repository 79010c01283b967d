package perception

import (
	"context"
	"math/rand"
	"sort"
	"strings"
)

const (
	DefaultSampleSize     = 5000
	DefaultSampleSeed     = 42
	DefaultDiscoverChunk  = 100
	DefaultPhrasesPerPart = 10
)

// Discoverer proposes keyphrases that are not yet in a known vocabulary.
type Discoverer struct {
	Phrases PhraseExtractor

	SampleSize int
	Seed       int64
	ChunkSize  int
	PerChunk   int
	Workers    int
}

// Discover samples texts deterministically, extracts phrases per chunk,
// drops known keywords and returns the topK phrases by best score.
func (d Discoverer) Discover(ctx context.Context, texts []string, known []string, topK int) ([]Phrase, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 20
	}
	seed := d.Seed
	if seed == 0 {
		seed = DefaultSampleSeed
	}
	texts = Sample(texts, orDefault(d.SampleSize, DefaultSampleSize), seed)

	phrases, err := extractChunks(ctx, d.Phrases, texts,
		orDefault(d.ChunkSize, DefaultDiscoverChunk),
		orDefault(d.Workers, DefaultWorkers),
		orDefault(d.PerChunk, DefaultPhrasesPerPart))
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]struct{}, len(known))
	for _, k := range known {
		exclude[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}

	best := make(map[string]float64)
	for _, p := range phrases {
		t := strings.ToLower(strings.TrimSpace(p.Text))
		if t == "" {
			continue
		}
		if _, ok := exclude[t]; ok {
			continue
		}
		if s, ok := best[t]; !ok || p.Score > s {
			best[t] = p.Score
		}
	}

	out := make([]Phrase, 0, len(best))
	for t, s := range best {
		out = append(out, Phrase{Text: t, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Sample returns at most n texts chosen by a seeded shuffle. Inputs no
// larger than n are returned unchanged.
func Sample(texts []string, n int, seed int64) []string {
	if len(texts) <= n {
		return texts
	}
	r := rand.New(rand.NewSource(seed))
	perm := r.Perm(len(texts))[:n]
	out := make([]string, n)
	for i, p := range perm {
		out[i] = texts[p]
	}
	return out
}
