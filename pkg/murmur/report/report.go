// Package report stamps analysis results with sortable identifiers.
package report

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Stamp identifies one analysis result.
type Stamp struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Status      string    `json:"status,omitempty"`
}

// Issuer hands out monotonically increasing report IDs. It is safe for
// concurrent use.
type Issuer struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewIssuer creates an issuer backed by crypto/rand.
func NewIssuer() *Issuer {
	return &Issuer{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Stamp returns a fresh stamp carrying status.
func (i *Issuer) Stamp(status string) Stamp {
	i.mu.Lock()
	defer i.mu.Unlock()
	t := i.now()
	return Stamp{
		ID:          ulid.MustNew(ulid.Timestamp(t), i.entropy).String(),
		GeneratedAt: t.UTC(),
		Status:      status,
	}
}
