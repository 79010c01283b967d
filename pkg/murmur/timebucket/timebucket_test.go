package timebucket

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/store"
)

func sample() []store.Message {
	var out []store.Message
	for _, y := range []int{2023, 2024} {
		for m := 1; m <= 12; m++ {
			out = append(out, store.Message{
				GroupID: "g",
				Ordinal: len(out) + 1,
				Text:    "msg",
				Year:    y,
				Month:   m,
				Quarter: (m-1)/3 + 1,
			})
		}
	}
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		b         Bucket
		year, sub int
	}{
		{Bucket{Year, 2024}, 2024, 0},
		{Bucket{Month, 202403}, 2024, 3},
		{Bucket{Month, 202312}, 2023, 12},
		{Bucket{Quarter, 20242}, 2024, 2},
	}
	for _, tt := range tests {
		y, s := tt.b.Decode()
		if y != tt.year || s != tt.sub {
			t.Errorf("%+v.Decode() = %d,%d want %d,%d", tt.b, y, s, tt.year, tt.sub)
		}
	}
}

func TestNewBucketValidation(t *testing.T) {
	if _, err := NewBucket("week", 2024); !errors.Is(err, internalerr.ErrInvalidGranularity) {
		t.Errorf("week: %v", err)
	}
	if _, err := NewBucket(Month, 202413); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("month 13: %v", err)
	}
	if _, err := NewBucket(Quarter, 20245); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("quarter 5: %v", err)
	}
	if _, err := ParseGranularity("Quarter"); err != nil {
		t.Errorf("ParseGranularity: %v", err)
	}
}

func TestSelectDisjoint(t *testing.T) {
	msgs := sample()
	buckets := []Bucket{
		{Year, 2023}, {Year, 2024},
		{Month, 202301}, {Month, 202401}, {Month, 202402},
		{Quarter, 20231}, {Quarter, 20241}, {Quarter, 20244},
	}
	for i, a := range buckets {
		for j, b := range buckets {
			if i == j || a.Granularity != b.Granularity {
				continue
			}
			inA := map[int]bool{}
			for _, m := range Select(msgs, a) {
				inA[m.Ordinal] = true
			}
			for _, m := range Select(msgs, b) {
				if inA[m.Ordinal] {
					t.Errorf("message %d in both %+v and %+v", m.Ordinal, a, b)
				}
			}
		}
	}
	if n := len(Select(msgs, Bucket{Quarter, 20242})); n != 3 {
		t.Errorf("quarter bucket size = %d", n)
	}
	if n := len(Select(msgs, Bucket{Month, 202405})); n != 1 {
		t.Errorf("month bucket size = %d", n)
	}
}

func TestNarrowMatchesContains(t *testing.T) {
	b := Bucket{Quarter, 20233}
	f := b.Narrow(store.Filter{GroupIDs: []string{"g"}})
	for _, m := range sample() {
		if f.Matches(m) != b.Contains(m) {
			t.Errorf("filter and bucket disagree on %+v", m)
		}
	}
}

func TestCompare(t *testing.T) {
	var calls int32
	cmp, err := Compare(context.Background(), sample(), Month, 202301, 202402,
		func(_ context.Context, msgs []store.Message) (int, error) {
			atomic.AddInt32(&calls, 1)
			return len(msgs), nil
		})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if calls != 2 {
		t.Errorf("analysis ran %d times", calls)
	}
	if cmp.Results["202301"] != 1 || cmp.Results["202402"] != 1 {
		t.Errorf("results = %v", cmp.Results)
	}
	if cmp.Buckets[1].Value != 202402 {
		t.Errorf("buckets = %+v", cmp.Buckets)
	}
}

func TestCompareErrors(t *testing.T) {
	_, err := Compare(context.Background(), sample(), "decade", 2020, 2030,
		func(context.Context, []store.Message) (int, error) { return 0, nil })
	if !errors.Is(err, internalerr.ErrInvalidGranularity) {
		t.Errorf("expected ErrInvalidGranularity, got %v", err)
	}

	boom := errors.New("boom")
	_, err = Compare(context.Background(), sample(), Year, 2023, 2024,
		func(context.Context, []store.Message) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected analysis error, got %v", err)
	}
}
