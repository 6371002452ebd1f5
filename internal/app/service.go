// Package service wires the tally pipeline: synchronous validation, the
// election queue, the worker pool and the result store.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	electionqueue "github.com/okian/consensus/internal/adapters/mq/queue"
	workerpool "github.com/okian/consensus/internal/adapters/mq/worker"
	"github.com/okian/consensus/internal/adapters/repository"
	"github.com/okian/consensus/internal/domain/dedupe"
	"github.com/okian/consensus/internal/domain/model"
	"github.com/okian/consensus/internal/domain/profile"
	"github.com/okian/consensus/internal/domain/rules"
	"github.com/okian/consensus/internal/domain/scoring"
	"github.com/okian/consensus/pkg/logger"
	"github.com/okian/consensus/pkg/metrics"
)

const (
	tracerName  = "github.com/okian/consensus/internal/app"
	stopTimeout = 10 * time.Second
)

// Receipt acknowledges an election accepted for asynchronous tallying.
type Receipt struct {
	ElectionID string
	Status     model.Status
	// Duplicate is set when the id was already submitted; nothing new was
	// queued.
	Duplicate bool
}

// Service implements the API dependencies for the tally system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *repository.MemoryStore
	deduper dedupe.Deduper
	queue   *electionqueue.InMemoryQueue
	pool    *workerpool.Pool
	source  rules.RandSource
	tracer  trace.Tracer

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	maxBallots    int
	maxCandidates int
	maxSettled    int
	defaultRule   string
	now           func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration. The global
// logger must be initialized unless WithLogger is given.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     10_000,
		dedupeSize:    100_000,
		maxBallots:    100_000,
		maxCandidates: 256,
		maxSettled:    100_000,
		defaultRule:   rules.RuleBorda,
		source:        rules.DefaultSource,
		now:           time.Now,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	// Evicted results free their ids for resubmission.
	deduper := s.deduper
	s.store = repository.NewMemoryStore(ctx,
		repository.WithMaxSettled(s.maxSettled),
		repository.WithOnEvict(func(id string) { deduper.Unrecord(context.Background(), id) }),
	)
	s.queue = electionqueue.NewInMemoryQueue(electionqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "tally service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("defaultRule", s.defaultRule),
	)
	return nil
}

// Stop drains the queue and shuts the workers down. Stored results stay
// readable until the next Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping tally service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "tally service stopped")
}

// Submit validates e and queues it for tallying. An empty ID is replaced
// by a fresh one. Resubmitting a known ID returns a duplicate receipt.
func (s *Service) Submit(ctx context.Context, e model.Election) (Receipt, error) { //nolint:gocritic // hugeParam: elections are values
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return Receipt{}, ErrNotStarted
	}

	e, _, err := s.prepare(e)
	if err != nil {
		return Receipt{}, err
	}
	if e.ID == "" {
		e.ID = model.NewElectionID()
	}

	if s.deduper.SeenAndRecord(ctx, e.ID) {
		metrics.RecordElectionDuplicate()
		s.logger.Debug(ctx, "duplicate election", logger.String("election_id", e.ID))
		return Receipt{ElectionID: e.ID, Status: s.statusOf(ctx, e.ID), Duplicate: true}, nil
	}

	e.SubmittedAt = s.now()
	if err := s.store.Save(ctx, model.Pending(e)); err != nil {
		s.deduper.Unrecord(ctx, e.ID)
		return Receipt{}, fmt.Errorf("store pending election: %w", err)
	}

	if err := s.queue.Enqueue(ctx, e); err != nil {
		s.deduper.Unrecord(ctx, e.ID)
		_ = s.store.Delete(ctx, e.ID)
		if errors.Is(err, electionqueue.ErrQueueFull) {
			return Receipt{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return Receipt{}, err
	}

	metrics.RecordElectionSubmitted(e.Rule)
	s.logger.Debug(ctx, "election queued",
		logger.String("election_id", e.ID),
		logger.String("rule", e.Rule),
		logger.Int("ballots", e.Voters()),
	)
	return Receipt{ElectionID: e.ID, Status: model.StatusPending}, nil
}

// statusOf reports the stored status for a duplicate submission.
func (s *Service) statusOf(ctx context.Context, id string) model.Status {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return model.StatusPending
	}
	return rec.Status
}

// Tally computes the outcome of e synchronously without storing it.
func (s *Service) Tally(ctx context.Context, e model.Election) (model.Tally, error) { //nolint:gocritic // hugeParam: elections are values
	if e.ID == "" {
		e.ID = model.NewElectionID()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = s.now()
	}
	return s.Compute(ctx, e)
}

// Compute tallies e. It is the worker pool's Tallier.
func (s *Service) Compute(ctx context.Context, e model.Election) (model.Tally, error) { //nolint:gocritic // hugeParam: elections are values
	ctx, span := s.tracer.Start(ctx, "consensus.tally", trace.WithAttributes(
		attribute.String("election.id", e.ID),
		attribute.String("election.rule", e.Rule),
		attribute.Int("election.ballots", e.Voters()),
		attribute.Int("election.candidates", e.Candidates()),
	))
	defer span.End()

	start := time.Now()
	rec, err := s.compute(e)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordTally(ruleLabel(e.Rule), "error", latency)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Tally{}, err
	}

	metrics.RecordTally(rec.Rule, "ok", latency)
	metrics.RecordProfileSize(rec.Voters, rec.Candidates)
	if w, ok := rec.Winner(); ok {
		span.SetAttributes(attribute.String("tally.winner", w))
	}
	if rec.Dictator >= 0 {
		span.AddEvent("dictator_drawn", trace.WithAttributes(attribute.Int("ballot", rec.Dictator)))
	}
	span.SetStatus(codes.Ok, "")
	s.logger.Debug(ctx, "election tallied",
		logger.String("election_id", rec.ElectionID),
		logger.String("rule", rec.Rule),
		logger.Float64("latency_ms", latency),
	)
	return rec, nil
}

func (s *Service) compute(e model.Election) (model.Tally, error) { //nolint:gocritic // hugeParam: elections are values
	e, method, err := s.prepare(e)
	if err != nil {
		return model.Tally{}, err
	}
	out, err := method.Apply(e.Profile())
	if err != nil {
		return model.Tally{}, err
	}

	rec := model.Pending(e)
	rec.Status = model.StatusCompleted
	rec.Ranking = out.Ranking
	rec.Scores = out.Scores
	rec.Dictator = out.Dictator
	rec.CompletedAt = s.now()
	return rec, nil
}

// prepare resolves the rule, enforces limits and audits the profile so
// that an invalid election is refused before it is queued.
func (s *Service) prepare(e model.Election) (model.Election, rules.Method[string], error) { //nolint:gocritic // hugeParam: elections are values
	if e.Rule == "" {
		e.Rule = s.defaultRule
	}
	method, err := rules.New[string](rules.Spec{Name: e.Rule, Weights: e.Weights}, s.source)
	if err != nil {
		return e, nil, err
	}
	e.Rule = method.Name()

	if n := e.Voters(); n > s.maxBallots {
		return e, nil, &LimitError{Field: "ballots", Limit: s.maxBallots, Got: n}
	}
	if m := e.Candidates(); m > s.maxCandidates {
		return e, nil, &LimitError{Field: "candidates", Limit: s.maxCandidates, Got: m}
	}
	if err := profile.Audit(e.Profile()); err != nil {
		metrics.RecordProfileRejection(profile.Reason(err))
		return e, nil, err
	}
	if len(e.Weights) > 0 && len(e.Weights) != e.Candidates() {
		return e, nil, &scoring.InvalidWeightsError{Want: e.Candidates(), Got: len(e.Weights)}
	}
	return e, method, nil
}

// ruleLabel keeps unknown rule names out of metric label values.
func ruleLabel(name string) string {
	if canon, err := rules.Canonical(name); err == nil {
		return canon
	}
	return "unknown"
}

// Result returns the stored record for an election id.
func (s *Service) Result(ctx context.Context, id string) (model.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.store == nil {
		return model.Tally{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Rules lists the available voting rules.
func (s *Service) Rules() []rules.Info {
	return rules.Rules()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"maxBallots":    s.maxBallots,
		"maxCandidates": s.maxCandidates,
		"defaultRule":   s.defaultRule,
	}
	if !s.started {
		return stats
	}

	counts := s.store.CountByStatus(ctx)
	stats["queueLength"] = s.queue.Len(ctx)
	stats["dedupeEntries"] = s.deduper.Size()
	stats["pending"] = counts[model.StatusPending]
	stats["completed"] = counts[model.StatusCompleted]
	stats["failed"] = counts[model.StatusFailed]
	stats["processed"] = s.pool.Processed()
	stats["tallyFailures"] = s.pool.Failed()

	metrics.UpdatePendingTallies(counts[model.StatusPending])
	metrics.UpdateStoredResults(counts[model.StatusCompleted] + counts[model.StatusFailed])
	return stats
}
