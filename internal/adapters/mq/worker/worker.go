package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/consensus/internal/adapters/mq/queue"
	"github.com/okian/consensus/internal/domain/model"
	"github.com/okian/consensus/pkg/logger"
	"github.com/okian/consensus/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerStopTimeout       = 5 * time.Second
)

// Tallier computes the outcome of an election.
type Tallier interface {
	Compute(ctx context.Context, e model.Election) (model.Tally, error)
}

// Recorder stores tally records.
type Recorder interface {
	Save(ctx context.Context, t model.Tally) error
}

// Queue defines how workers receive elections.
type Queue interface {
	Dequeue(ctx context.Context) (model.Election, error)
}

// Worker tallies queued elections and records the results.
type Worker interface {
	// Run processes elections until ctx is canceled, the queue is closed and
	// drained, or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current election.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	tallier  Tallier
	recorder Recorder
	name     string
	now      func() time.Time

	processed atomic.Int64
	failed    atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, tallier Tallier, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		tallier:  tallier,
		recorder: recorder,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		e, err := w.queue.Dequeue(ctx)
		switch {
		case errors.Is(err, queue.ErrQueueClosed):
			w.logger.Debug(ctx, "queue drained, worker exiting")
			return
		case err != nil:
			return
		}
		if err := w.process(ctx, e); err != nil {
			w.logger.Error(ctx, "error processing election", logger.String("election_id", e.ID), logger.Error(err))
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many elections this worker completed.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many elections this worker recorded as failed.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// process tallies one election. A tally error is stored as a failed record;
// only a store error is returned.
func (w *InMemoryWorker) process(ctx context.Context, e model.Election) error { //nolint:gocritic // hugeParam: elections travel by value
	metrics.AddWorkerActive(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rec, err := w.tallier.Compute(ctx, e)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "tally_error")
		w.logger.Warn(ctx, "tally failed",
			logger.String("election_id", e.ID),
			logger.String("rule", e.Rule),
			logger.Error(err),
		)
		rec = model.Pending(e)
		rec.Status = model.StatusFailed
		rec.Error = err.Error()
		rec.CompletedAt = w.now()
	} else {
		w.processed.Add(1)
	}

	if err := w.recorder.Save(ctx, rec); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		return fmt.Errorf("store tally %s: %w", e.ID, err)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 picks a CPU-based default.
func NewPool(workerCount int, q Queue, tallier Tallier, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(q, tallier, recorder, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Processed sums completed elections across workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Failed sums failed elections across workers.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Stop signals every worker to stop without draining the queue and waits
// a bounded time for each.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerStopTimeout):
		}
	}
}

// Shutdown closes the queue and lets the workers drain it. If ctx expires
// first the remaining workers are stopped and the context error returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			p.Stop()
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
