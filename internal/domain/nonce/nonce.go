// Package nonce tracks single-use OAuth state values.
package nonce

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default ledger configuration constants.
const (
	defaultMaxSize = 10_000
	defaultTTL     = 10 * time.Minute
)

// Ledger issues opaque state values and lets each be consumed once.
type Ledger interface {
	// Issue creates and records a new state value.
	Issue(ctx context.Context) string

	// Consume reports whether state was issued, unexpired and not yet
	// consumed, and marks it consumed. Concurrent calls for the same state
	// succeed at most once.
	Consume(ctx context.Context, state string) bool

	Size() int
}

// inMemoryLedger keeps issued states in an expiring LRU. When full, the
// oldest pending login is dropped.
type inMemoryLedger struct {
	maxSize int
	ttl     time.Duration
	pending *expirable.LRU[string, time.Time]
	newID   func() string
}

// NewInMemoryLedger creates a ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.pending = expirable.NewLRU[string, time.Time](l.maxSize, nil, l.ttl)
	return l
}

func (l *inMemoryLedger) Issue(_ context.Context) string {
	state := l.newID()
	l.pending.Add(state, time.Now())
	return state
}

func (l *inMemoryLedger) Consume(_ context.Context, state string) bool {
	if state == "" {
		return false
	}
	if _, ok := l.pending.Get(state); !ok {
		return false
	}
	// Remove reports presence, so only one racing caller wins.
	return l.pending.Remove(state)
}

func (l *inMemoryLedger) Size() int {
	return l.pending.Len()
}
