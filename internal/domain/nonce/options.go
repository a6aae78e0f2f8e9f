package nonce

import "time"

// Option applies a configuration option to the in-memory ledger.
type Option func(*inMemoryLedger)

// WithMaxSize bounds the number of pending states.
func WithMaxSize(maxSize int) Option {
	return func(l *inMemoryLedger) {
		if maxSize > 0 {
			l.maxSize = maxSize
		}
	}
}

// WithTTL sets how long an issued state stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(l *inMemoryLedger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithIDGenerator replaces the state generator. Intended for tests.
func WithIDGenerator(gen func() string) Option {
	return func(l *inMemoryLedger) {
		if gen != nil {
			l.newID = gen
		}
	}
}
