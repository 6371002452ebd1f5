package service

import (
	"time"

	"github.com/okian/consensus/internal/domain/rules"
	"github.com/okian/consensus/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of tally workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of elections waiting to be tallied.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many election ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxBallots caps the ballots in one profile.
func WithMaxBallots(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBallots = n
		}
	}
}

// WithMaxCandidates caps the candidates in one profile.
func WithMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithMaxSettled bounds the completed or failed tallies kept for polling.
// Zero keeps them all.
func WithMaxSettled(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSettled = n
		}
	}
}

// WithDefaultRule sets the rule applied to elections that name none. The
// name must already be canonical.
func WithDefaultRule(rule string) Option {
	return func(s *Service) {
		if rule != "" {
			s.defaultRule = rule
		}
	}
}

// WithDictatorSeed makes random dictator draws reproducible. Zero keeps the
// process-wide source.
func WithDictatorSeed(seed uint64) Option {
	return func(s *Service) {
		if seed != 0 {
			s.source = rules.NewLockedSource(seed)
		}
	}
}

// WithRandSource injects the random dictator source directly.
func WithRandSource(src rules.RandSource) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for submission and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
