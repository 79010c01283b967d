package freq

import (
	"reflect"
	"testing"

	"github.com/cognicore/murmur/pkg/murmur/ingest"
)

func TestAggregateCountsOccurrences(t *testing.T) {
	texts := []string{
		"soft and soft again",
		"no leaks, very soft",
		"leak-proof? not really a leak",
	}
	got := Aggregator{}.Aggregate(texts, []string{"leak", "soft", "price", "Soft"})
	want := Result{Counts: []Count{
		{"soft", 3},
		{"leak", 2},
		{"price", 0},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aggregate = %+v, want %+v", got, want)
	}
}

func TestAggregateTiesKeepTermOrder(t *testing.T) {
	texts := []string{"beta alpha gamma"}
	got := Aggregator{}.Aggregate(texts, []string{"gamma", "alpha", "beta"})
	var order []string
	for _, c := range got.Counts {
		order = append(order, c.Term)
	}
	if !reflect.DeepEqual(order, []string{"gamma", "alpha", "beta"}) {
		t.Errorf("order = %v", order)
	}
}

func TestAggregateFallback(t *testing.T) {
	texts := []string{
		"the baby sleeps well",
		"baby wipes and the baby bath",
		"ok so the wipes",
	}
	got := Aggregator{FallbackTopN: 3}.Aggregate(texts, []string{"huggies"})
	if !got.Fallback {
		t.Fatal("expected fallback result")
	}
	want := []Count{{"the", 3}, {"baby", 3}, {"wipes", 2}}
	if !reflect.DeepEqual(got.Counts, want) {
		t.Errorf("fallback = %+v, want %+v", got.Counts, want)
	}
}

func TestAggregateFallbackDefaults(t *testing.T) {
	got := Aggregator{}.Aggregate([]string{"one two three four five six seven"}, nil)
	if !got.Fallback || len(got.Counts) != DefaultFallbackTopN {
		t.Errorf("got %+v", got)
	}
	if got := (Aggregator{}).Aggregate(nil, []string{"x"}); !got.Fallback || len(got.Counts) != 0 {
		t.Errorf("empty corpus = %+v", got)
	}
}

func TestTopTokensWithStopwords(t *testing.T) {
	tok := ingest.NewTokenizer(0, []string{"pampers"})
	got := TopTokens([]string{"pampers rash cream", "rash again"}, tok, 0)
	want := []Count{{"rash", 2}, {"cream", 1}, {"again", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopTokens = %+v, want %+v", got, want)
	}
}
