package store

import (
	"context"
	"sort"
	"time"
)

// Store is the main interface for persisting and querying chat messages,
// cached sentiment labels and user-added keywords.
type Store interface {
	Close() error

	MessageStore
	SentimentCache
	KeywordStore
}

// MessageStore supplies ordered, filterable messages.
type MessageStore interface {
	// AppendMessages stores messages. Messages with a zero Ordinal are
	// numbered after the group's current maximum, in SentAt order. A
	// message whose (group, ordinal) is already stored is skipped.
	AppendMessages(ctx context.Context, msgs []Message) error

	// Query returns messages matching f ordered by (group_id, ordinal).
	// Messages with empty text are never returned.
	Query(ctx context.Context, f Filter) ([]Message, error)

	// Groups returns every distinct group id in ascending order.
	Groups(ctx context.Context) ([]string, error)
}

// SentimentCache is a durable key-value table keyed by exact text.
type SentimentCache interface {
	GetSentiment(ctx context.Context, text string) (SentimentRecord, bool, error)
	// UpsertSentiment inserts or overwrites the record for rec.Text.
	// Concurrent writers for the same text are last-write-wins.
	UpsertSentiment(ctx context.Context, rec SentimentRecord) error
}

// KeywordStore holds ad hoc keywords added per brand on top of the catalog.
type KeywordStore interface {
	AddKeyword(ctx context.Context, brand, keyword string) error
	// RemoveKeyword reports whether the keyword existed.
	RemoveKeyword(ctx context.Context, brand, keyword string) (bool, error)
	Keywords(ctx context.Context, brand string) ([]string, error)
}

// Message is one chat message. Ordinal is 1-based and unique within GroupID.
type Message struct {
	GroupID string
	Ordinal int
	Text    string
	SentAt  time.Time
	Year    int
	Month   int
	Quarter int
}

// Filter selects messages by set membership. Empty fields do not constrain.
type Filter struct {
	GroupIDs []string
	Years    []int
	Months   []int
	Quarters []int
}

// Matches reports whether m satisfies f. Stores without a native query
// language use it directly.
func (f Filter) Matches(m Message) bool {
	if m.Text == "" {
		return false
	}
	if len(f.GroupIDs) > 0 && !containsString(f.GroupIDs, m.GroupID) {
		return false
	}
	if len(f.Years) > 0 && !containsInt(f.Years, m.Year) {
		return false
	}
	if len(f.Months) > 0 && !containsInt(f.Months, m.Month) {
		return false
	}
	if len(f.Quarters) > 0 && !containsInt(f.Quarters, m.Quarter) {
		return false
	}
	return true
}

// SentimentRecord is a cached classification. Rule is empty when no
// override rule fired.
type SentimentRecord struct {
	Text      string
	Sentiment string
	Score     float64
	Rule      string
	UpdatedAt time.Time
}

// PeriodOf derives year, month and quarter from t.
func PeriodOf(t time.Time) (year, month, quarter int) {
	year = t.Year()
	month = int(t.Month())
	quarter = (month-1)/3 + 1
	return year, month, quarter
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

// AssignOrdinals numbers messages whose Ordinal is zero, continuing after
// maxOrdinal[group] in SentAt order (ties keep input order). Messages that
// already carry an ordinal are left alone. Zero Year/Month/Quarter fields are
// derived from SentAt when it is set. The input slice is not modified.
func AssignOrdinals(msgs []Message, maxOrdinal map[string]int) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)

	pending := make([]int, 0, len(out))
	for i := range out {
		if out[i].Year == 0 && !out[i].SentAt.IsZero() {
			out[i].Year, out[i].Month, out[i].Quarter = PeriodOf(out[i].SentAt)
		}
		if out[i].Ordinal == 0 {
			pending = append(pending, i)
		}
	}

	sort.SliceStable(pending, func(a, b int) bool {
		return out[pending[a]].SentAt.Before(out[pending[b]].SentAt)
	})

	next := make(map[string]int, len(maxOrdinal))
	for g, n := range maxOrdinal {
		next[g] = n
	}
	for _, m := range out {
		if m.Ordinal > next[m.GroupID] {
			next[m.GroupID] = m.Ordinal
		}
	}
	for _, idx := range pending {
		g := out[idx].GroupID
		next[g]++
		out[idx].Ordinal = next[g]
	}
	return out
}
