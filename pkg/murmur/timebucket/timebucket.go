// Package timebucket splits messages into calendar periods and runs an
// analysis on two periods side by side.
package timebucket

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/murmur/pkg/murmur/internalerr"
	"github.com/cognicore/murmur/pkg/murmur/store"
)

// Granularity is the unit of a bucket.
type Granularity string

const (
	Year    Granularity = "year"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
)

// ParseGranularity accepts year, month or quarter in any case.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case Year, Month, Quarter:
		return g, nil
	}
	return "", fmt.Errorf("granularity %q: %w", s, internalerr.ErrInvalidGranularity)
}

// Bucket selects messages of one period. Value encodes the period as
// YYYY for years, YYYYMM for months and YYYYQ for quarters.
type Bucket struct {
	Granularity Granularity `json:"granularity"`
	Value       int         `json:"value"`
}

// NewBucket validates the granularity and the encoded sub-period.
func NewBucket(g Granularity, value int) (Bucket, error) {
	if _, err := ParseGranularity(string(g)); err != nil {
		return Bucket{}, err
	}
	b := Bucket{Granularity: g, Value: value}
	year, sub := b.Decode()
	if year <= 0 {
		return Bucket{}, fmt.Errorf("bucket %s %d: bad year: %w", g, value, internalerr.ErrInvalidInput)
	}
	switch g {
	case Month:
		if sub < 1 || sub > 12 {
			return Bucket{}, fmt.Errorf("bucket month %d: %w", value, internalerr.ErrInvalidInput)
		}
	case Quarter:
		if sub < 1 || sub > 4 {
			return Bucket{}, fmt.Errorf("bucket quarter %d: %w", value, internalerr.ErrInvalidInput)
		}
	}
	return b, nil
}

// Decode splits Value into its year and sub-period. sub is zero for years.
func (b Bucket) Decode() (year, sub int) {
	switch b.Granularity {
	case Month:
		return b.Value / 100, b.Value % 100
	case Quarter:
		return b.Value / 10, b.Value % 10
	}
	return b.Value, 0
}

// Contains reports whether m falls in the bucket by exact equality.
func (b Bucket) Contains(m store.Message) bool {
	year, sub := b.Decode()
	if m.Year != year {
		return false
	}
	switch b.Granularity {
	case Month:
		return m.Month == sub
	case Quarter:
		return m.Quarter == sub
	}
	return true
}

// Narrow restricts f to the bucket's period.
func (b Bucket) Narrow(f store.Filter) store.Filter {
	year, sub := b.Decode()
	f.Years = []int{year}
	switch b.Granularity {
	case Month:
		f.Months = []int{sub}
	case Quarter:
		f.Quarters = []int{sub}
	}
	return f
}

// Key is the result key of the bucket in a Comparison.
func (b Bucket) Key() string {
	return strconv.Itoa(b.Value)
}

// Select returns the messages of msgs inside b, order preserved.
func Select(msgs []store.Message, b Bucket) []store.Message {
	var out []store.Message
	for _, m := range msgs {
		if b.Contains(m) {
			out = append(out, m)
		}
	}
	return out
}

// Comparison holds one result per bucket keyed by Bucket.Key. Two identical
// selectors share a single entry.
type Comparison[T any] struct {
	Granularity Granularity  `json:"granularity"`
	Buckets     [2]Bucket    `json:"buckets"`
	Results     map[string]T `json:"results"`
}

// Compare runs analyze on the messages of each bucket concurrently.
func Compare[T any](ctx context.Context, msgs []store.Message, g Granularity, first, second int, analyze func(context.Context, []store.Message) (T, error)) (Comparison[T], error) {
	var buckets [2]Bucket
	for i, v := range []int{first, second} {
		b, err := NewBucket(g, v)
		if err != nil {
			return Comparison[T]{}, err
		}
		buckets[i] = b
	}

	var results [2]T
	eg, ectx := errgroup.WithContext(ctx)
	for i, b := range buckets {
		eg.Go(func() error {
			res, err := analyze(ectx, Select(msgs, b))
			if err != nil {
				return fmt.Errorf("bucket %s: %w", b.Key(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Comparison[T]{}, err
	}

	cmp := Comparison[T]{Granularity: g, Buckets: buckets, Results: make(map[string]T, 2)}
	for i, b := range buckets {
		cmp.Results[b.Key()] = results[i]
	}
	return cmp, nil
}
