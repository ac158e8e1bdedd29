package snippet

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator hands out snippet ids, a millisecond timestamp plus a random
// component (ULID). The entropy source is monotonic, two ids created within
// the same millisecond still come out distinct and ordered.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator returns a generator seeded from crypto/rand
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a new id. Safe for concurrent use.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), g.entropy)
	if err != nil {
		// entropy overflowed within this millisecond, reseed and retry
		g.entropy = ulid.Monotonic(rand.Reader, 0)
		id = ulid.MustNew(ulid.Timestamp(now), g.entropy)
	}
	return id.String()
}
