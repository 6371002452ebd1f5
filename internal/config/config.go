// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"

	"github.com/okian/consensus/internal/domain/rules"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory tally queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of tally workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps how many election ids are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxBallots and MaxCandidates bound a single submitted profile.
	MaxBallots    int `koanf:"max_ballots"`
	MaxCandidates int `koanf:"max_candidates"`

	// MaxSettled caps how many completed or failed tallies are kept for
	// polling. Zero keeps them all.
	MaxSettled int `koanf:"max_settled"`

	// RateLimitRPS and RateLimitBurst configure the HTTP token bucket.
	// A zero RPS disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// DictatorSeed seeds the random dictator draw. Zero uses the process-wide
	// random source.
	DictatorSeed uint64 `koanf:"dictator_seed"`

	// DefaultRule is applied to submissions that name no rule.
	DefaultRule string `koanf:"default_rule"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		QueueSize:      10_000,
		WorkerCount:    runtime.NumCPU() * 2,
		DedupeSize:     100_000,
		MaxBallots:     100_000,
		MaxCandidates:  256,
		MaxSettled:     100_000,
		RateLimitRPS:   500,
		RateLimitBurst: 1_000,
		DictatorSeed:   0,
		DefaultRule:    rules.RuleBorda,
	}
}
