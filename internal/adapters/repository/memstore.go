package repository

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/okian/consensus/internal/domain/model"
	"github.com/okian/consensus/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

type slot struct {
	rec     model.Tally
	settled *list.Element // position in settled order; nil while pending
}

// MemoryStore is an in-memory Store. Records are cloned on the way in and
// out so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*slot
	settled *list.List // election ids, front is most recently settled

	maxSettled            int
	onEvict               func(id string)
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMemoryStore constructs a store and starts its metrics updater, which
// runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]*slot),
		settled:               list.New(),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, t model.Tally) error { //nolint:gocritic // hugeParam: records are values
	if t.ElectionID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[t.ElectionID]
	if !ok {
		cur = &slot{}
		s.byID[t.ElectionID] = cur
	}
	if t.Status == model.StatusPending {
		if cur.settled != nil {
			return ErrAlreadySettled
		}
		cur.rec = t.Clone()
		return nil
	}

	cur.rec = t.Clone()
	if cur.settled != nil {
		s.settled.MoveToFront(cur.settled)
	} else {
		cur.settled = s.settled.PushFront(t.ElectionID)
	}
	s.evict()
	return nil
}

// evict must be called with s.mu held.
func (s *MemoryStore) evict() {
	if s.maxSettled <= 0 {
		return
	}
	for s.settled.Len() > s.maxSettled {
		el := s.settled.Back()
		s.settled.Remove(el)
		id := el.Value.(string)
		delete(s.byID, id)
		if s.onEvict != nil {
			s.onEvict(id)
		}
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.byID[id]
	if !ok {
		return model.Tally{}, ErrNotFound
	}
	return cur.rec.Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.byID[id]; ok {
		if cur.settled != nil {
			s.settled.Remove(cur.settled)
		}
		delete(s.byID, id)
	}
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// CountByStatus implements Store.
func (s *MemoryStore) CountByStatus(_ context.Context) map[model.Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[model.Status]int{
		model.StatusPending:   0,
		model.StatusCompleted: 0,
		model.StatusFailed:    0,
	}
	for _, cur := range s.byID {
		out[cur.rec.Status]++
	}
	return out
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics(ctx context.Context) {
	counts := s.CountByStatus(ctx)
	metrics.UpdateStoredResults(counts[model.StatusCompleted] + counts[model.StatusFailed])
	metrics.UpdatePendingTallies(counts[model.StatusPending])
}
