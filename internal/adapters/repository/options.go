package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithMaxSettled bounds how many completed or failed records are kept; the
// oldest settled record is evicted first. Pending records are never evicted.
// n <= 0 means unbounded.
func WithMaxSettled(n int) Option {
	return func(s *MemoryStore) {
		s.maxSettled = n
	}
}

// WithOnEvict registers fn to be called with the id of every record evicted
// past the settled cap. fn runs with the store locked and must not call back
// into the store.
func WithOnEvict(fn func(id string)) Option {
	return func(s *MemoryStore) {
		s.onEvict = fn
	}
}
