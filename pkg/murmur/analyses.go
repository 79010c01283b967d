package murmur

import (
	"context"
	"sort"

	"github.com/cognicore/murmur/pkg/murmur/catalog"
	"github.com/cognicore/murmur/pkg/murmur/freq"
	"github.com/cognicore/murmur/pkg/murmur/match"
	"github.com/cognicore/murmur/pkg/murmur/perception"
	"github.com/cognicore/murmur/pkg/murmur/pmi"
	"github.com/cognicore/murmur/pkg/murmur/report"
	"github.com/cognicore/murmur/pkg/murmur/sentiment"
	"github.com/cognicore/murmur/pkg/murmur/store"
	"github.com/cognicore/murmur/pkg/murmur/window"
)

// BrandRequest selects a brand and the corpus to analyse.
type BrandRequest struct {
	Brand string `json:"brand"`
	Scope
	// HalfWidth overrides the engine's context window half-width.
	HalfWidth int  `json:"half_width,omitempty"`
	NoMerge   bool `json:"no_merge,omitempty"`
	TopK      int  `json:"top_k,omitempty"`
}

// CategoryRequest selects a category and the corpus to analyse.
type CategoryRequest struct {
	Category string `json:"category"`
	Scope
	HalfWidth int  `json:"half_width,omitempty"`
	NoMerge   bool `json:"no_merge,omitempty"`
	TopK      int  `json:"top_k,omitempty"`
}

// FrequencyReport counts keyword mentions inside context windows.
type FrequencyReport struct {
	report.Stamp
	Brand    string       `json:"brand,omitempty"`
	Category string       `json:"category,omitempty"`
	Windows  int          `json:"windows"`
	Counts   []freq.Count `json:"counts"`
	Fallback bool         `json:"fallback,omitempty"`
}

// KeywordFrequency counts the brand's keywords in the merged context windows
// around its mentions.
func (e *Engine) KeywordFrequency(ctx context.Context, req BrandRequest) (FrequencyReport, error) {
	b, ok := e.catalog.Brand(req.Brand)
	if !ok {
		return e.frequencyStatus(FrequencyReport{Brand: req.Brand}, StatusUnknownTerm), nil
	}
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return FrequencyReport{}, err
	}
	rep, err := e.brandFrequency(ctx, b, msgs, req.HalfWidth, req.NoMerge)
	if err != nil {
		return FrequencyReport{}, err
	}
	return e.frequencyStatus(rep, rep.Status), nil
}

func (e *Engine) brandFrequency(ctx context.Context, b catalog.Brand, msgs []store.Message, halfWidth int, noMerge bool) (FrequencyReport, error) {
	rep := FrequencyReport{Brand: b.Name}
	if len(msgs) == 0 {
		rep.Status = StatusEmptyCorpus
		return rep, nil
	}
	keywords, err := e.brandKeywords(ctx, b)
	if err != nil {
		return FrequencyReport{}, err
	}
	return e.windowFrequency(rep, msgs, match.New(b.Name), keywords, halfWidth, noMerge), nil
}

// CategoryKeywordFrequency counts the category's keywords in the context
// windows around mentions of any of its brands.
func (e *Engine) CategoryKeywordFrequency(ctx context.Context, req CategoryRequest) (FrequencyReport, error) {
	brands := e.catalog.BrandsInCategory(req.Category)
	rep := FrequencyReport{Category: req.Category}
	if len(brands) == 0 {
		return e.frequencyStatus(rep, StatusUnknownTerm), nil
	}
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return FrequencyReport{}, err
	}
	if len(msgs) == 0 {
		return e.frequencyStatus(rep, StatusEmptyCorpus), nil
	}

	keywords := e.catalog.CategoryKeywords(req.Category)
	for _, name := range brands {
		custom, err := e.Keywords(ctx, name)
		if err != nil {
			return FrequencyReport{}, err
		}
		keywords = catalog.Merge(keywords, custom)
	}
	rep = e.windowFrequency(rep, msgs, match.NewSet(brands...), keywords, req.HalfWidth, req.NoMerge)
	return e.frequencyStatus(rep, rep.Status), nil
}

func (e *Engine) windowFrequency(rep FrequencyReport, msgs []store.Message, pred window.Predicate, keywords []string, halfWidth int, noMerge bool) FrequencyReport {
	res := e.builder(halfWidth, noMerge).Build(msgs, pred)
	if len(res.Windows) == 0 {
		rep.Status = res.Status
		return rep
	}
	counts := freq.Aggregator{Tokenizer: e.tokenizer}.Aggregate(res.Texts(), keywords)
	rep.Windows = len(res.Windows)
	rep.Counts = counts.Counts
	rep.Fallback = counts.Fallback
	return rep
}

func (e *Engine) builder(halfWidth int, noMerge bool) window.Builder {
	if halfWidth <= 0 {
		halfWidth = e.halfWidth
	}
	return window.Builder{HalfWidth: halfWidth, NoMerge: noMerge}
}

func (e *Engine) frequencyStatus(rep FrequencyReport, status string) FrequencyReport {
	rep.Stamp = e.ids.Stamp(status)
	return rep
}

// CooccurrenceRequest configures a pivot co-occurrence analysis.
type CooccurrenceRequest struct {
	Brand string `json:"brand"`
	Scope
	MinCount int64    `json:"min_count,omitempty"`
	MinPMI   float64  `json:"min_pmi,omitempty"`
	TopN     int      `json:"top_n,omitempty"`
	Rank     pmi.Rank `json:"rank,omitempty"`
}

// CooccurrenceReport lists positively associated word pairs.
type CooccurrenceReport struct {
	report.Stamp
	Brand string `json:"brand"`
	pmi.Analysis
}

// Cooccurrence scores word pairs that appear together in texts mentioning
// the brand.
func (e *Engine) Cooccurrence(ctx context.Context, req CooccurrenceRequest) (CooccurrenceReport, error) {
	b, ok := e.catalog.Brand(req.Brand)
	if !ok {
		return CooccurrenceReport{Stamp: e.ids.Stamp(StatusUnknownTerm), Brand: req.Brand}, nil
	}
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return CooccurrenceReport{}, err
	}
	rep := e.cooccurrence(b, msgs, req)
	rep.Stamp = e.ids.Stamp(rep.Status)
	return rep, nil
}

func (e *Engine) cooccurrence(b catalog.Brand, msgs []store.Message, req CooccurrenceRequest) CooccurrenceReport {
	rep := CooccurrenceReport{Brand: b.Name}
	if len(msgs) == 0 {
		rep.Status = StatusEmptyCorpus
		return rep
	}
	rep.Analysis = pmi.Engine{Tokenizer: e.tokenizer}.Analyze(match.New(b.Name), texts(msgs), pmi.Options{
		MinCount: req.MinCount,
		MinPMI:   req.MinPMI,
		TopN:     req.TopN,
		Rank:     req.Rank,
	})
	if rep.Texts == 0 {
		rep.Status = StatusNoMentions
	}
	return rep
}

// SentimentReport summarises the sentiment of texts mentioning a brand.
type SentimentReport struct {
	report.Stamp
	Brand         string             `json:"brand"`
	TotalMentions int                `json:"total_mentions"`
	Counts        sentiment.Counts   `json:"sentiment_count"`
	Percents      sentiment.Percents `json:"sentiment_percent"`
	Examples      []sentiment.Detail `json:"examples"`
}

// Sentiment classifies every text mentioning the brand.
func (e *Engine) Sentiment(ctx context.Context, req BrandRequest) (SentimentReport, error) {
	b, ok := e.catalog.Brand(req.Brand)
	if !ok {
		return SentimentReport{Stamp: e.ids.Stamp(StatusUnknownTerm), Brand: req.Brand}, nil
	}
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return SentimentReport{}, err
	}
	rep, err := e.brandSentiment(ctx, b, msgs, func(d []sentiment.Detail) []sentiment.Detail {
		return sentiment.TopExamples(d, 5)
	})
	if err != nil {
		return SentimentReport{}, err
	}
	rep.Stamp = e.ids.Stamp(rep.Status)
	return rep, nil
}

func (e *Engine) brandSentiment(ctx context.Context, b catalog.Brand, msgs []store.Message, examples func([]sentiment.Detail) []sentiment.Detail) (SentimentReport, error) {
	rep := SentimentReport{Brand: b.Name}
	if len(msgs) == 0 {
		rep.Status = StatusEmptyCorpus
		return rep, nil
	}
	m := match.New(b.Name)
	var mentions []string
	for _, msg := range msgs {
		if m.Match(msg.Text) {
			mentions = append(mentions, msg.Text)
		}
	}
	if len(mentions) == 0 {
		rep.Status = StatusNoMentions
		return rep, nil
	}

	batch, err := e.sentiment.ClassifyBatch(ctx, mentions)
	if err != nil {
		return SentimentReport{}, err
	}
	rep.TotalMentions = len(mentions)
	rep.Counts = batch.Counts
	rep.Percents = batch.Counts.Percents()
	rep.Examples = examples(batch.Details)
	return rep, nil
}

// BrandShare is one brand's slice of the conversation.
type BrandShare struct {
	Brand   string  `json:"brand"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ShareReport gives each brand of a category its share of mentions.
type ShareReport struct {
	report.Stamp
	Category string       `json:"category,omitempty"`
	Total    int          `json:"total"`
	Brands   []BrandShare `json:"brands"`
}

// ShareOfVoice counts, per brand of the category, the texts mentioning it.
func (e *Engine) ShareOfVoice(ctx context.Context, req CategoryRequest) (ShareReport, error) {
	brands := e.catalog.BrandsInCategory(req.Category)
	if len(brands) == 0 {
		return ShareReport{Stamp: e.ids.Stamp(StatusUnknownTerm), Category: req.Category}, nil
	}
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return ShareReport{}, err
	}
	rep := shareOfVoice(req.Category, brands, msgs)
	rep.Stamp = e.ids.Stamp(rep.Status)
	return rep, nil
}

// CorpusShareReport is the share of voice of every category.
type CorpusShareReport struct {
	report.Stamp
	Categories []ShareReport `json:"categories"`
}

// CorpusShareOfVoice computes the share of voice of every catalog category
// over one query of the corpus.
func (e *Engine) CorpusShareOfVoice(ctx context.Context, sc Scope) (CorpusShareReport, error) {
	msgs, err := e.messages(ctx, sc)
	if err != nil {
		return CorpusShareReport{}, err
	}
	var rep CorpusShareReport
	if len(msgs) == 0 {
		rep.Stamp = e.ids.Stamp(StatusEmptyCorpus)
		return rep, nil
	}
	for _, cat := range e.catalog.Categories() {
		share := shareOfVoice(cat, e.catalog.BrandsInCategory(cat), msgs)
		share.Stamp = e.ids.Stamp(share.Status)
		rep.Categories = append(rep.Categories, share)
	}
	rep.Stamp = e.ids.Stamp(StatusOK)
	return rep, nil
}

func shareOfVoice(category string, brands []string, msgs []store.Message) ShareReport {
	rep := ShareReport{Category: category}
	if len(msgs) == 0 {
		rep.Status = StatusEmptyCorpus
		return rep
	}
	for _, name := range brands {
		m := match.New(name)
		n := 0
		for _, msg := range msgs {
			if m.Match(msg.Text) {
				n++
			}
		}
		rep.Brands = append(rep.Brands, BrandShare{Brand: name, Count: n})
		rep.Total += n
	}
	for i := range rep.Brands {
		rep.Brands[i].Percent = sentiment.SafePercent(rep.Brands[i].Count, rep.Total)
	}
	sort.SliceStable(rep.Brands, func(i, j int) bool { return rep.Brands[i].Count > rep.Brands[j].Count })
	if rep.Total == 0 {
		rep.Status = StatusNoMentions
	}
	return rep
}

// PerceptionRequest names a brand or, when Brand is empty, a category.
type PerceptionRequest struct {
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	Scope
	TopK int `json:"top_k,omitempty"`
}

// PerceptionReport lists the phrases consumers use around a brand.
type PerceptionReport struct {
	report.Stamp
	Brand    string                 `json:"brand,omitempty"`
	Category string                 `json:"category,omitempty"`
	Words    []perception.WordCount `json:"associated_words"`
}

// ConsumerPerception mines descriptive phrases from texts mentioning the
// brand, or any brand of the category.
func (e *Engine) ConsumerPerception(ctx context.Context, req PerceptionRequest) (PerceptionReport, error) {
	rep := PerceptionReport{Brand: req.Brand, Category: req.Category}
	pivot, ok := e.pivot(req.Brand, req.Category)
	if !ok {
		rep.Stamp = e.ids.Stamp(StatusUnknownTerm)
		return rep, nil
	}
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return PerceptionReport{}, err
	}
	if rep, err = e.perceive(ctx, rep, pivot, msgs, req.TopK); err != nil {
		return PerceptionReport{}, err
	}
	rep.Stamp = e.ids.Stamp(rep.Status)
	return rep, nil
}

func (e *Engine) pivot(brand, category string) (*match.Set, bool) {
	if brand != "" {
		b, ok := e.catalog.Brand(brand)
		if !ok {
			return nil, false
		}
		return match.NewSet(b.Name), true
	}
	brands := e.catalog.BrandsInCategory(category)
	if len(brands) == 0 {
		return nil, false
	}
	return match.NewSet(brands...), true
}

func (e *Engine) perceive(ctx context.Context, rep PerceptionReport, pivot *match.Set, msgs []store.Message, topK int) (PerceptionReport, error) {
	if len(msgs) == 0 {
		rep.Status = StatusEmptyCorpus
		return rep, nil
	}
	words, err := e.perceiver.Perceive(ctx, pivot, texts(msgs), topK)
	if err != nil {
		return PerceptionReport{}, err
	}
	rep.Words = words
	if len(words) == 0 {
		rep.Status = StatusNoMentions
	}
	return rep, nil
}

// DiscoverRequest configures new-keyword discovery.
type DiscoverRequest struct {
	Scope
	TopK int `json:"top_k,omitempty"`
}

// DiscoveryReport lists candidate keywords missing from the catalog.
type DiscoveryReport struct {
	report.Stamp
	Keywords []perception.Phrase `json:"keywords"`
}

// DiscoverKeywords proposes phrases from the corpus that are not general
// catalog keywords.
func (e *Engine) DiscoverKeywords(ctx context.Context, req DiscoverRequest) (DiscoveryReport, error) {
	msgs, err := e.messages(ctx, req.Scope)
	if err != nil {
		return DiscoveryReport{}, err
	}
	if len(msgs) == 0 {
		return DiscoveryReport{Stamp: e.ids.Stamp(StatusEmptyCorpus)}, nil
	}
	found, err := e.discoverer.Discover(ctx, texts(msgs), e.catalog.GeneralKeywords(), req.TopK)
	if err != nil {
		return DiscoveryReport{}, err
	}
	return DiscoveryReport{Stamp: e.ids.Stamp(StatusOK), Keywords: found}, nil
}

// AssociatedWordsReport lists the words most used around a brand, other
// than its own keywords.
type AssociatedWordsReport struct {
	report.Stamp
	Brand string       `json:"brand"`
	Words []freq.Count `json:"words"`
}

func (e *Engine) associatedWords(ctx context.Context, b catalog.Brand, msgs []store.Message, halfWidth, topK int) (AssociatedWordsReport, error) {
	rep := AssociatedWordsReport{Brand: b.Name}
	if len(msgs) == 0 {
		rep.Status = StatusEmptyCorpus
		return rep, nil
	}
	res := e.builder(halfWidth, false).Build(msgs, match.New(b.Name))
	if len(res.Windows) == 0 {
		rep.Status = res.Status
		return rep, nil
	}
	keywords, err := e.brandKeywords(ctx, b)
	if err != nil {
		return AssociatedWordsReport{}, err
	}
	if topK <= 0 {
		topK = 20
	}
	tok := e.tokenizer.With(append(keywords, b.Name)...)
	rep.Words = freq.TopTokens(res.Texts(), tok, topK)
	return rep, nil
}
