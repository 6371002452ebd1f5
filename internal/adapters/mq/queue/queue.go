// Package queue holds elections accepted for asynchronous tallying until a
// worker picks them up.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/consensus/internal/domain/model"
	"github.com/okian/consensus/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and blocking dequeue.
type Queue interface {
	// Enqueue adds an election. It never blocks: ErrQueueFull signals
	// backpressure and ErrQueueClosed a shutdown in progress.
	Enqueue(ctx context.Context, e model.Election) error

	// Dequeue blocks until an election is available, ctx is done, or the
	// queue is closed and drained (ErrQueueClosed).
	Dequeue(ctx context.Context) (model.Election, error)

	// Len returns the current number of queued elections.
	Len(ctx context.Context) int

	// Close stops accepting elections. Queued elections can still be dequeued.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	elections chan model.Election
	capacity  int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.elections = make(chan model.Election, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds an election to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e model.Election) error { //nolint:gocritic // hugeParam: channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := ctx.Err(); err != nil {
		q.refuse("context_cancelled")
		return err
	}

	// The read lock keeps Close from closing the channel mid-send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.refuse("closed")
		return ErrQueueClosed
	}

	select {
	case q.elections <- e:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.refuse("queue_full")
		return ErrQueueFull
	}
}

// Dequeue removes the oldest election.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (model.Election, error) {
	select {
	case e, ok := <-q.elections:
		if !ok {
			return model.Election{}, ErrQueueClosed
		}
		metrics.RecordQueueDequeue()
		q.observe()
		return e, nil
	case <-ctx.Done():
		return model.Election{}, ctx.Err()
	}
}

// Len returns the current number of queued elections.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Close stops the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.elections)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) refuse(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() int {
	size := len(q.elections)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}
