package pmi

import "sort"

// Counter maintains token and pair counts over per-text token sets.
type Counter struct {
	Nx    map[string]int64    // texts containing each token
	Nxy   map[TokenPair]int64 // texts containing each unordered pair
	Total int64               // sum of all pair increments
}

// TokenPair represents an unordered pair of tokens stored as T1 < T2.
type TokenPair struct {
	T1, T2 string
}

// NewCounter creates a new co-occurrence counter
func NewCounter() *Counter {
	return &Counter{
		Nx:  make(map[string]int64),
		Nxy: make(map[TokenPair]int64),
	}
}

// AddText updates counts for one text's set of distinct tokens.
func (c *Counter) AddText(uniqueTokens []string) {
	for _, t := range uniqueTokens {
		c.Nx[t]++
	}

	sorted := make([]string, len(uniqueTokens))
	copy(sorted, uniqueTokens)
	sort.Strings(sorted)

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i] == sorted[j] {
				continue
			}
			c.Nxy[TokenPair{T1: sorted[i], T2: sorted[j]}]++
			c.Total++
		}
	}
}

// PairCount returns the co-occurrence count for a token pair in either order.
func (c *Counter) PairCount(t1, t2 string) int64 {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return c.Nxy[TokenPair{T1: t1, T2: t2}]
}

// TokenCount returns the number of texts containing t.
func (c *Counter) TokenCount(t string) int64 {
	return c.Nx[t]
}

// PMI returns the association of t1 and t2 over the counted texts and
// whether it is defined. The result does not depend on argument order.
func (c *Counter) PMI(t1, t2 string) (float64, bool) {
	return PMI(c.PairCount(t1, t2), c.TokenCount(t1), c.TokenCount(t2), c.Total)
}
