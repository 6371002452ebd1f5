package rules

import (
	"math/rand/v2"
	"sync"
)

// RandSource draws uniform integers for randomized rules. It lets callers
// inject a deterministic source in tests.
type RandSource interface {
	// IntN returns a uniform integer in [0, n). n is always positive.
	IntN(n int) int
}

// globalSource draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource is used when no source is injected.
var DefaultSource RandSource = globalSource{} //nolint:gochecknoglobals // stateless default

// LockedSource is a seeded generator guarded by a mutex so one instance can
// serve concurrent tallies and still replay the same sequence for a seed.
type LockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedSource returns a deterministic source for seed.
func NewLockedSource(seed uint64) *LockedSource {
	return &LockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // not used for security
}

// IntN implements RandSource.
func (s *LockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
