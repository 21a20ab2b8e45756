package order

import (
	"fmt"
	"sync"
	"time"
)

// NumberGenerator issues human-readable order numbers: a brand prefix and
// the last 8 digits of the epoch-millisecond clock. Numbers are unique
// within the process; cross-process collisions are caught by the storage
// unique index and retried by the Service.
type NumberGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewNumberGenerator returns a generator using the given prefix.
func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: prefix, now: time.Now}
}

// Next returns a fresh order number.
func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return fmt.Sprintf("%s%08d", g.prefix, ms%100_000_000)
}
