package murmur

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/murmur/pkg/murmur/catalog"
	"github.com/cognicore/murmur/pkg/murmur/ingest"
	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/perception"
	"github.com/cognicore/murmur/pkg/murmur/report"
	"github.com/cognicore/murmur/pkg/murmur/sentiment"
	"github.com/cognicore/murmur/pkg/murmur/store"
	"github.com/cognicore/murmur/pkg/murmur/window"
)

// Report statuses. An empty status means the analysis found data.
const (
	StatusOK          = ""
	StatusUnknownTerm = "unknown term"
	StatusEmptyCorpus = "empty corpus"
	StatusNoMentions  = window.StatusNoMentions
)

// DefaultGroupCount is the number of most recent groups analysed when a
// request names none.
const DefaultGroupCount = 12

// Engine is the analytics facade over a message store and a brand catalog.
type Engine struct {
	store      store.Store
	catalog    *catalog.Catalog
	sentiment  *sentiment.Service
	perceiver  perception.Extractor
	discoverer perception.Discoverer
	tokenizer  *ingest.Tokenizer
	halfWidth  int
	ids        *report.Issuer
	log        *slog.Logger
}

// Options configures an Engine. Store and Catalog are required; the model
// services are only needed by the analyses that call them.
type Options struct {
	Store   store.Store
	Catalog *catalog.Catalog

	Classifier sentiment.Classifier
	Rules      *sentiment.Rules
	Phrases    perception.PhraseExtractor
	Tagger     perception.POSTagger
	Embedder   perception.Embedder

	// Tokenizer for generic word counts. Nil keeps alphabetic runs of at
	// least three letters.
	Tokenizer *ingest.Tokenizer
	HalfWidth int
	// Workers bounds concurrent model calls. Zero uses 4.
	Workers int
	Logger  *slog.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tok := opts.Tokenizer
	if tok == nil {
		tok = ingest.NewTokenizer(ingest.DefaultMinLen, nil)
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.New(nil, nil)
	}
	return &Engine{
		store:   opts.Store,
		catalog: cat,
		sentiment: &sentiment.Service{
			Cache:      opts.Store,
			Classifier: opts.Classifier,
			Rules:      opts.Rules,
			Workers:    opts.Workers,
			Logger:     logger,
		},
		perceiver: perception.Extractor{
			Phrases:  opts.Phrases,
			Tagger:   opts.Tagger,
			Embedder: opts.Embedder,
			Workers:  opts.Workers,
		},
		discoverer: perception.Discoverer{
			Phrases: opts.Phrases,
			Workers: opts.Workers,
		},
		tokenizer: tok,
		halfWidth: opts.HalfWidth,
		ids:       report.NewIssuer(),
		log:       logger,
	}
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Ingest appends messages to the store. Messages without an ordinal are
// numbered after their group's last message.
func (e *Engine) Ingest(ctx context.Context, msgs []store.Message) error {
	if err := e.store.AppendMessages(ctx, msgs); err != nil {
		return fmt.Errorf("%w: append messages: %w", internalerr.ErrStoreUnavailable, err)
	}
	e.log.Info("messages ingested", "count", len(msgs))
	return nil
}

// Catalog returns the brand vocabulary.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Scope narrows the corpus of a request. With no GroupIDs, GroupYear picks
// the groups whose id starts with that year; failing that the
// DefaultGroupCount latest groups are used.
type Scope struct {
	GroupIDs  []string `json:"group_ids,omitempty"`
	GroupYear int      `json:"group_year,omitempty"`
	Years     []int    `json:"years,omitempty"`
	Months    []int    `json:"months,omitempty"`
	Quarters  []int    `json:"quarters,omitempty"`
}

// messages resolves the scope's groups and queries the store.
func (e *Engine) messages(ctx context.Context, sc Scope) ([]store.Message, error) {
	groups, err := e.resolveGroups(ctx, sc)
	if err != nil {
		return nil, err
	}
	msgs, err := e.store.Query(ctx, store.Filter{
		GroupIDs: groups,
		Years:    sc.Years,
		Months:   sc.Months,
		Quarters: sc.Quarters,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query messages: %w", internalerr.ErrStoreUnavailable, err)
	}
	return msgs, nil
}

func (e *Engine) resolveGroups(ctx context.Context, sc Scope) ([]string, error) {
	if len(sc.GroupIDs) > 0 {
		return sc.GroupIDs, nil
	}
	all, err := e.store.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list groups: %w", internalerr.ErrStoreUnavailable, err)
	}
	sort.Strings(all)
	if sc.GroupYear > 0 {
		prefix := strconv.Itoa(sc.GroupYear)
		var byYear []string
		for _, g := range all {
			if strings.HasPrefix(g, prefix) {
				byYear = append(byYear, g)
			}
		}
		if len(byYear) > 0 {
			return byYear, nil
		}
	}
	if len(all) > DefaultGroupCount {
		all = all[len(all)-DefaultGroupCount:]
	}
	return all, nil
}

// brandKeywords returns the catalog keywords of a brand plus any custom ones.
func (e *Engine) brandKeywords(ctx context.Context, b catalog.Brand) ([]string, error) {
	custom, err := e.store.Keywords(ctx, b.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: custom keywords for %s: %w", internalerr.ErrStoreUnavailable, b.Name, err)
	}
	return catalog.Merge(b.Keywords, custom), nil
}

func texts(msgs []store.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// Keywords returns the effective keyword list of a brand.
func (e *Engine) Keywords(ctx context.Context, brand string) ([]string, error) {
	b, ok := e.catalog.Brand(brand)
	if !ok {
		return nil, fmt.Errorf("brand %q: %w", brand, internalerr.ErrUnknownTerm)
	}
	return e.brandKeywords(ctx, b)
}

// AddKeyword adds a custom keyword to a catalog brand.
func (e *Engine) AddKeyword(ctx context.Context, brand, keyword string) error {
	b, ok := e.catalog.Brand(brand)
	if !ok {
		return fmt.Errorf("brand %q: %w", brand, internalerr.ErrUnknownTerm)
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("empty keyword: %w", internalerr.ErrInvalidInput)
	}
	if err := e.store.AddKeyword(ctx, b.Name, keyword); err != nil {
		return fmt.Errorf("%w: add keyword: %w", internalerr.ErrStoreUnavailable, err)
	}
	e.log.Info("custom keyword added", "brand", b.Name, "keyword", keyword)
	return nil
}

// RemoveKeyword removes a custom keyword and reports whether it existed.
// Catalog keywords cannot be removed.
func (e *Engine) RemoveKeyword(ctx context.Context, brand, keyword string) (bool, error) {
	b, ok := e.catalog.Brand(brand)
	if !ok {
		return false, fmt.Errorf("brand %q: %w", brand, internalerr.ErrUnknownTerm)
	}
	removed, err := e.store.RemoveKeyword(ctx, b.Name, strings.TrimSpace(keyword))
	if err != nil {
		return false, fmt.Errorf("%w: remove keyword: %w", internalerr.ErrStoreUnavailable, err)
	}
	return removed, nil
}

// LookupSentiment returns the cached label of an exact text.
func (e *Engine) LookupSentiment(ctx context.Context, text string) (store.SentimentRecord, bool, error) {
	return e.sentiment.Lookup(ctx, text)
}

// CorrectSentiment applies a human correction to the sentiment cache.
func (e *Engine) CorrectSentiment(ctx context.Context, c sentiment.Correction) (store.SentimentRecord, error) {
	rec, err := e.sentiment.Correct(ctx, c)
	if err != nil {
		return store.SentimentRecord{}, err
	}
	e.log.Info("sentiment corrected", "sentiment", rec.Sentiment, "text_len", len(rec.Text))
	return rec, nil
}
