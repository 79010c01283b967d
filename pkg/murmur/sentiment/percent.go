package sentiment

import (
	"math"
	"sort"
)

// SafePercent returns v/total as a percentage rounded to one decimal, or 0
// when total is zero.
func SafePercent(v, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(v)/float64(total)*1000) / 10
}

// Counts tallies texts per label.
type Counts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Add counts one text with label l.
func (c *Counts) Add(l Label) {
	switch l {
	case Positive:
		c.Positive++
	case Neutral:
		c.Neutral++
	case Negative:
		c.Negative++
	}
}

// Of returns the count for l.
func (c Counts) Of(l Label) int {
	switch l {
	case Positive:
		return c.Positive
	case Neutral:
		return c.Neutral
	case Negative:
		return c.Negative
	}
	return 0
}

// Total returns the number of counted texts.
func (c Counts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// Percents is Counts as zero-safe percentages.
type Percents struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Percents converts counts to percentages of their total.
func (c Counts) Percents() Percents {
	total := c.Total()
	return Percents{
		Positive: SafePercent(c.Positive, total),
		Neutral:  SafePercent(c.Neutral, total),
		Negative: SafePercent(c.Negative, total),
	}
}

// TopExamples returns up to n details with the highest scores, first
// occurrence winning ties.
func TopExamples(details []Detail, n int) []Detail {
	sorted := make([]Detail, len(details))
	copy(sorted, details)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Score) > math.Abs(sorted[j].Score)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ExamplesPerLabel takes the first perLabel details of each label in
// Labels order and caps the combined list at limit.
func ExamplesPerLabel(details []Detail, perLabel, limit int) []Detail {
	var out []Detail
	for _, l := range Labels {
		taken := 0
		for _, d := range details {
			if taken == perLabel {
				break
			}
			if d.Sentiment == l {
				out = append(out, d)
				taken++
			}
		}
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
