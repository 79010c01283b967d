package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/murmur/pkg/murmur/store"
)

func TestAppendAssignsOrdinals(t *testing.T) {
	ctx := context.Background()
	st := New()

	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	if err := st.AppendMessages(ctx, []store.Message{
		{GroupID: "g", Text: "b", SentAt: base.Add(time.Minute)},
		{GroupID: "g", Text: "a", SentAt: base},
	}); err != nil {
		t.Fatalf("AppendMessages: %v", err)
	}
	if err := st.AppendMessages(ctx, []store.Message{{GroupID: "g", Text: "c", SentAt: base.Add(time.Hour)}}); err != nil {
		t.Fatalf("AppendMessages: %v", err)
	}

	got, err := st.Query(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Text != w || got[i].Ordinal != i+1 {
			t.Errorf("message %d = %+v, want text %q ordinal %d", i, got[i], w, i+1)
		}
		if got[i].Quarter != 3 {
			t.Errorf("quarter not derived for %q", got[i].Text)
		}
	}
}

func TestQueryFiltersAndSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	st := New()
	_ = st.AppendMessages(ctx, []store.Message{
		{GroupID: "a", Ordinal: 1, Text: "hello", Year: 2023, Month: 2, Quarter: 1},
		{GroupID: "a", Ordinal: 2, Text: "", Year: 2023, Month: 2, Quarter: 1},
		{GroupID: "b", Ordinal: 1, Text: "world", Year: 2024, Month: 2, Quarter: 1},
	})

	got, _ := st.Query(ctx, store.Filter{Years: []int{2023}})
	if len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("unexpected result %+v", got)
	}

	groups, _ := st.Groups(ctx)
	if len(groups) != 2 || groups[0] != "a" || groups[1] != "b" {
		t.Errorf("groups = %v", groups)
	}
}

func TestKeywordsAndSentiment(t *testing.T) {
	ctx := context.Background()
	st := New()

	_ = st.AddKeyword(ctx, "brand", "zeta")
	_ = st.AddKeyword(ctx, "brand", "alpha")
	_ = st.AddKeyword(ctx, "", "ignored")
	kws, _ := st.Keywords(ctx, "brand")
	if len(kws) != 2 || kws[0] != "alpha" {
		t.Errorf("keywords = %v", kws)
	}
	if ok, _ := st.RemoveKeyword(ctx, "brand", "missing"); ok {
		t.Error("removing a missing keyword reported true")
	}

	_ = st.UpsertSentiment(ctx, store.SentimentRecord{Text: "ok", Sentiment: "neutral"})
	rec, ok, _ := st.GetSentiment(ctx, "ok")
	if !ok || rec.Sentiment != "neutral" {
		t.Errorf("GetSentiment = %+v, %v", rec, ok)
	}
}

func TestAppendSkipsStoredOrdinals(t *testing.T) {
	ctx := context.Background()
	st := New()

	batch := []store.Message{
		{GroupID: "g", Ordinal: 1, Text: "huggies are soft"},
		{GroupID: "g", Ordinal: 1, Text: "same ordinal again"},
	}
	for i := 0; i < 2; i++ {
		if err := st.AppendMessages(ctx, batch); err != nil {
			t.Fatalf("AppendMessages: %v", err)
		}
	}

	got, err := st.Query(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].Text != "huggies are soft" {
		t.Errorf("after re-ingest got %+v", got)
	}
}
