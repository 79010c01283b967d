package murmur

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/pmi"
	"github.com/cognicore/murmur/pkg/murmur/report"
	"github.com/cognicore/murmur/pkg/murmur/sentiment"
	"github.com/cognicore/murmur/pkg/murmur/store"
	"github.com/cognicore/murmur/pkg/murmur/timebucket"
)

// Analysis names an analysis that can be compared across two periods.
type Analysis string

const (
	AnalysisFrequency       Analysis = "frequency"
	AnalysisCooccurrence    Analysis = "cooccurrence"
	AnalysisSentiment       Analysis = "sentiment"
	AnalysisShareOfVoice    Analysis = "share-of-voice"
	AnalysisAssociatedWords Analysis = "associated-words"
	AnalysisPerception      Analysis = "perception"
)

// CompareRequest runs one analysis on two periods of the same granularity.
// Brand is required for every analysis except share-of-voice, which takes
// Category. Scope period fields further narrow both buckets.
type CompareRequest struct {
	Analysis    Analysis `json:"analysis"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	Granularity string   `json:"granularity"`
	First       int      `json:"time1"`
	Second      int      `json:"time2"`
	Scope
	TopK      int      `json:"top_k,omitempty"`
	HalfWidth int      `json:"half_width,omitempty"`
	MinCount  int64    `json:"min_count,omitempty"`
	MinPMI    float64  `json:"min_pmi,omitempty"`
	Rank      pmi.Rank `json:"rank,omitempty"`
}

// Comparison holds one report per bucket keyed by the bucket value.
type Comparison struct {
	report.Stamp
	Analysis Analysis                           `json:"analysis"`
	Result   timebucket.Comparison[interface{}] `json:"result"`
}

// Compare partitions the scoped corpus into two periods and runs the
// requested analysis on each of them concurrently.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) (Comparison, error) {
	g, err := timebucket.ParseGranularity(req.Granularity)
	if err != nil {
		return Comparison{}, err
	}
	analyze, status, err := e.comparer(req)
	if err != nil {
		return Comparison{}, err
	}
	out := Comparison{Analysis: req.Analysis}
	if status != StatusOK {
		out.Stamp = e.ids.Stamp(status)
		return out, nil
	}

	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return Comparison{}, err
	}
	out.Result, err = timebucket.Compare(ctx, msgs, g, req.First, req.Second, analyze)
	if err != nil {
		return Comparison{}, err
	}
	if len(msgs) == 0 {
		status = StatusEmptyCorpus
	}
	out.Stamp = e.ids.Stamp(status)
	return out, nil
}

type bucketAnalysis = func(context.Context, []store.Message) (interface{}, error)

// comparer returns the per-bucket analysis of req, or an unknown-term status.
func (e *Engine) comparer(req CompareRequest) (bucketAnalysis, string, error) {
	kind := Analysis(strings.ToLower(string(req.Analysis)))

	if kind == AnalysisShareOfVoice {
		brands := e.catalog.BrandsInCategory(req.Category)
		if len(brands) == 0 {
			return nil, StatusUnknownTerm, nil
		}
		return func(_ context.Context, msgs []store.Message) (interface{}, error) {
			rep := shareOfVoice(req.Category, brands, msgs)
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, nil
		}, StatusOK, nil
	}

	if kind == AnalysisPerception && req.Brand == "" {
		pivot, ok := e.pivot("", req.Category)
		if !ok {
			return nil, StatusUnknownTerm, nil
		}
		return func(ctx context.Context, msgs []store.Message) (interface{}, error) {
			rep, err := e.perceive(ctx, PerceptionReport{Category: req.Category}, pivot, msgs, req.TopK)
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, err
		}, StatusOK, nil
	}

	b, ok := e.catalog.Brand(req.Brand)
	if !ok {
		switch kind {
		case AnalysisFrequency, AnalysisCooccurrence, AnalysisSentiment, AnalysisAssociatedWords, AnalysisPerception:
			return nil, StatusUnknownTerm, nil
		}
		return nil, "", fmt.Errorf("analysis %q: %w", req.Analysis, internalerr.ErrInvalidInput)
	}

	switch kind {
	case AnalysisFrequency:
		return func(ctx context.Context, msgs []store.Message) (interface{}, error) {
			rep, err := e.brandFrequency(ctx, b, msgs, req.HalfWidth, false)
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, err
		}, StatusOK, nil
	case AnalysisCooccurrence:
		co := CooccurrenceRequest{MinCount: req.MinCount, MinPMI: req.MinPMI, TopN: req.TopK, Rank: req.Rank}
		return func(_ context.Context, msgs []store.Message) (interface{}, error) {
			rep := e.cooccurrence(b, msgs, co)
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, nil
		}, StatusOK, nil
	case AnalysisSentiment:
		return func(ctx context.Context, msgs []store.Message) (interface{}, error) {
			rep, err := e.brandSentiment(ctx, b, msgs, func(d []sentiment.Detail) []sentiment.Detail {
				return sentiment.ExamplesPerLabel(d, 2, 6)
			})
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, err
		}, StatusOK, nil
	case AnalysisAssociatedWords:
		return func(ctx context.Context, msgs []store.Message) (interface{}, error) {
			rep, err := e.associatedWords(ctx, b, msgs, req.HalfWidth, req.TopK)
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, err
		}, StatusOK, nil
	case AnalysisPerception:
		pivot, _ := e.pivot(b.Name, "")
		return func(ctx context.Context, msgs []store.Message) (interface{}, error) {
			rep, err := e.perceive(ctx, PerceptionReport{Brand: b.Name}, pivot, msgs, req.TopK)
			rep.Stamp = e.ids.Stamp(rep.Status)
			return rep, err
		}, StatusOK, nil
	}
	return nil, "", fmt.Errorf("analysis %q: %w", req.Analysis, internalerr.ErrInvalidInput)
}
