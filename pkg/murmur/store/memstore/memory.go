package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/murmur/pkg/murmur/store"
)

// Store is an in-memory implementation of store.Store for tests and small corpora.
type Store struct {
	mu        sync.RWMutex
	messages  map[string][]store.Message // group → messages ordered by ordinal
	sentiment map[string]store.SentimentRecord
	keywords  map[string]map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		messages:  make(map[string][]store.Message),
		sentiment: make(map[string]store.SentimentRecord),
		keywords:  make(map[string]map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// AppendMessages stores messages, numbering any without an ordinal. A
// message whose (group, ordinal) is already stored is skipped.
func (s *Store) AppendMessages(ctx context.Context, msgs []store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxOrdinal := make(map[string]int, len(s.messages))
	stored := make(map[string]map[int]struct{}, len(s.messages))
	for g, list := range s.messages {
		if n := len(list); n > 0 {
			maxOrdinal[g] = list[n-1].Ordinal
		}
		stored[g] = make(map[int]struct{}, len(list))
		for _, m := range list {
			stored[g][m.Ordinal] = struct{}{}
		}
	}

	for _, m := range store.AssignOrdinals(msgs, maxOrdinal) {
		if stored[m.GroupID] == nil {
			stored[m.GroupID] = make(map[int]struct{})
		}
		if _, dup := stored[m.GroupID][m.Ordinal]; dup {
			continue
		}
		stored[m.GroupID][m.Ordinal] = struct{}{}
		s.messages[m.GroupID] = append(s.messages[m.GroupID], m)
	}
	for g := range s.messages {
		list := s.messages[g]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Ordinal < list[j].Ordinal })
	}
	return nil
}

// Query returns matching messages ordered by group then ordinal.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]string, 0, len(s.messages))
	for g := range s.messages {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []store.Message
	for _, g := range groups {
		for _, m := range s.messages[g] {
			if f.Matches(m) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// Groups returns the distinct group ids in ascending order.
func (s *Store) Groups(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]string, 0, len(s.messages))
	for g := range s.messages {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, nil
}

// GetSentiment returns the cached record for text.
func (s *Store) GetSentiment(ctx context.Context, text string) (store.SentimentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sentiment[text]
	return rec, ok, nil
}

// UpsertSentiment inserts or overwrites the record for rec.Text.
func (s *Store) UpsertSentiment(ctx context.Context, rec store.SentimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiment[rec.Text] = rec
	return nil
}

// AddKeyword adds a custom keyword for brand.
func (s *Store) AddKeyword(ctx context.Context, brand, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if brand == "" || keyword == "" {
		return nil
	}
	if s.keywords[brand] == nil {
		s.keywords[brand] = make(map[string]struct{})
	}
	s.keywords[brand][keyword] = struct{}{}
	return nil
}

// RemoveKeyword removes a custom keyword and reports whether it existed.
func (s *Store) RemoveKeyword(ctx context.Context, brand, keyword string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.keywords[brand]
	if !ok {
		return false, nil
	}
	if _, ok := set[keyword]; !ok {
		return false, nil
	}
	delete(set, keyword)
	return true, nil
}

// Keywords returns the custom keywords for brand, sorted.
func (s *Store) Keywords(ctx context.Context, brand string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.keywords[brand]))
	for kw := range s.keywords[brand] {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out, nil
}
