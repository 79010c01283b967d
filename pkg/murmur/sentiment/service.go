package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/store"
)

const (
	// DefaultBatchSize is the number of texts sent per classifier call.
	DefaultBatchSize = 32
	// DefaultWorkers bounds concurrent classifier calls.
	DefaultWorkers = 4
)

// Detail is the outcome for one input text.
type Detail struct {
	Text      string  `json:"text"`
	Score     float64 `json:"sentiment_score"`
	Sentiment Label   `json:"sentiment"`
	Rule      string  `json:"rule_applied,omitempty"`
}

// Batch is the result of ClassifyBatch, details in input order.
type Batch struct {
	Counts  Counts   `json:"counts"`
	Details []Detail `json:"details"`
}

// Service classifies texts at most once each, persisting results in Cache.
type Service struct {
	Cache      store.SentimentCache
	Classifier Classifier
	Rules      *Rules

	BatchSize int
	Workers   int
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Lookup returns the cached record for text, if any.
func (s *Service) Lookup(ctx context.Context, text string) (store.SentimentRecord, bool, error) {
	rec, ok, err := s.Cache.GetSentiment(ctx, text)
	if err != nil {
		return store.SentimentRecord{}, false, fmt.Errorf("sentiment lookup: %w", err)
	}
	return rec, ok, nil
}

// ClassifyBatch labels texts, calling the classifier only for texts missing
// from the cache. Each distinct uncached text is classified once, override
// rules are applied, and the result is cached. A failed cache write is
// logged and the computed label is still returned.
func (s *Service) ClassifyBatch(ctx context.Context, texts []string) (Batch, error) {
	var out Batch
	if len(texts) == 0 {
		return out, nil
	}

	known := make(map[string]store.SentimentRecord, len(texts))
	var pending []string
	for _, text := range texts {
		if _, ok := known[text]; ok {
			continue
		}
		rec, ok, err := s.Lookup(ctx, text)
		if err != nil {
			return Batch{}, err
		}
		if ok {
			known[text] = rec
			continue
		}
		known[text] = store.SentimentRecord{}
		pending = append(pending, text)
	}

	if len(pending) > 0 {
		preds, err := s.classify(ctx, pending)
		if err != nil {
			return Batch{}, err
		}
		for i, text := range pending {
			known[text] = s.record(ctx, text, preds[i])
		}
	}

	out.Details = make([]Detail, 0, len(texts))
	for _, text := range texts {
		rec := known[text]
		label := Label(rec.Sentiment)
		out.Counts.Add(label)
		out.Details = append(out.Details, Detail{
			Text:      text,
			Score:     rec.Score,
			Sentiment: label,
			Rule:      rec.Rule,
		})
	}
	return out, nil
}

// classify runs the classifier over texts in chunks on a bounded pool.
func (s *Service) classify(ctx context.Context, texts []string) ([]Prediction, error) {
	if s.Classifier == nil {
		return nil, fmt.Errorf("no classifier configured: %w", internalerr.ErrModelInference)
	}
	size := s.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	preds := make([]Prediction, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		g.Go(func() error {
			chunk := texts[start:end]
			s.logger().Debug("classifying sentiment chunk", "offset", start, "size", len(chunk))
			got, err := s.Classifier.Classify(gctx, chunk)
			if err != nil {
				return fmt.Errorf("classify %d texts: %v: %w", len(chunk), err, internalerr.ErrModelInference)
			}
			if len(got) != len(chunk) {
				return fmt.Errorf("classifier returned %d results for %d texts: %w", len(got), len(chunk), internalerr.ErrModelInference)
			}
			for i, p := range got {
				if l, err := ParseLabel(string(p.Label)); err == nil {
					p.Label = l
				}
				if err := p.Validate(); err != nil {
					return fmt.Errorf("classifier result: %v: %w", err, internalerr.ErrModelInference)
				}
				preds[start+i] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preds, nil
}

// record applies the override rules to a prediction and caches it.
func (s *Service) record(ctx context.Context, text string, p Prediction) store.SentimentRecord {
	rec := store.SentimentRecord{
		Text:      text,
		Sentiment: string(p.Label),
		Score:     math.Round(p.Confidence*1000) / 1000,
		UpdatedAt: s.now(),
	}
	if label, name, ok := s.Rules.Apply(text); ok {
		rec.Sentiment = string(label)
		rec.Rule = name
	}
	if err := s.Cache.UpsertSentiment(ctx, rec); err != nil {
		s.logger().Warn("sentiment cache write failed",
			"text_len", len(text),
			"error", fmt.Errorf("%v: %w", err, internalerr.ErrCacheWrite))
	}
	return rec
}

// Correction is a human override of a cached label. Nil Score and Rule keep
// the cached values.
type Correction struct {
	Text            string
	Sentiment       string
	Score           *float64
	Rule            *string
	RequireExisting bool
}

// Correct overwrites the cached label for a text. Without RequireExisting a
// missing entry is created with score 1. The stored timestamp is always
// later than the one it replaces.
func (s *Service) Correct(ctx context.Context, c Correction) (store.SentimentRecord, error) {
	if c.Text == "" {
		return store.SentimentRecord{}, fmt.Errorf("correction text: %w", internalerr.ErrInvalidInput)
	}
	label, err := ParseLabel(c.Sentiment)
	if err != nil {
		return store.SentimentRecord{}, err
	}

	prev, found, err := s.Lookup(ctx, c.Text)
	if err != nil {
		return store.SentimentRecord{}, err
	}
	if !found && c.RequireExisting {
		return store.SentimentRecord{}, fmt.Errorf("sentiment for %q: %w", c.Text, internalerr.ErrNotFound)
	}

	rec := store.SentimentRecord{Text: c.Text, Sentiment: string(label), Score: 1}
	if found {
		rec.Score = prev.Score
		rec.Rule = prev.Rule
	}
	if c.Score != nil {
		if math.IsNaN(*c.Score) || *c.Score < 0 || *c.Score > 1 {
			return store.SentimentRecord{}, fmt.Errorf("score %v: %w", *c.Score, internalerr.ErrInvalidInput)
		}
		rec.Score = *c.Score
	}
	if c.Rule != nil {
		rec.Rule = *c.Rule
	}

	rec.UpdatedAt = s.now()
	if found && !rec.UpdatedAt.After(prev.UpdatedAt) {
		rec.UpdatedAt = prev.UpdatedAt.Add(time.Millisecond)
	}

	if err := s.Cache.UpsertSentiment(ctx, rec); err != nil {
		return store.SentimentRecord{}, fmt.Errorf("sentiment correction: %w", errors.Join(err, internalerr.ErrStoreUnavailable))
	}
	return rec, nil
}
