package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/consensus/internal/domain/model"
)

func completed(id string, ranking ...string) model.Tally {
	return model.Tally{ElectionID: id, Status: model.StatusCompleted, Ranking: ranking, Dictator: -1}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer func() { _ = store.Close() }()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	pending := model.Tally{ElectionID: "e1", Status: model.StatusPending, Dictator: -1}
	if err := store.Save(ctx, pending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", got.Status)
	}

	if err := store.Save(ctx, completed("e1", "b", "a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = store.Get(ctx, "e1")
	if got.Status != model.StatusCompleted || got.Ranking[0] != "b" {
		t.Errorf("expected completed record led by b, got %+v", got)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	if err := store.Delete(ctx, "e1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "e1"); err != nil {
		t.Errorf("expected deleting twice to be harmless, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0 after delete, got %d", count)
	}
}

func TestMemoryStore_Validation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer func() { _ = store.Close() }()

	if err := store.Save(ctx, model.Tally{Status: model.StatusPending}); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}

	if err := store.Save(ctx, completed("e1", "a")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, model.Tally{ElectionID: "e1", Status: model.StatusPending}); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer func() { _ = store.Close() }()

	rec := completed("e1", "a", "b")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Ranking[0] = "mutated"

	got, _ := store.Get(ctx, "e1")
	if got.Ranking[0] != "a" {
		t.Errorf("store shares the caller's slice: %v", got.Ranking)
	}
	got.Ranking[1] = "mutated"
	again, _ := store.Get(ctx, "e1")
	if again.Ranking[1] != "b" {
		t.Errorf("store shares the reader's slice: %v", again.Ranking)
	}
}

func TestMemoryStore_MaxSettled(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMaxSettled(2))
	defer func() { _ = store.Close() }()

	if err := store.Save(ctx, model.Tally{ElectionID: "p", Status: model.StatusPending}); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := store.Save(ctx, completed(fmt.Sprintf("e%d", i), "a")); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := store.Get(ctx, "e1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected oldest settled record to be evicted, got %v", err)
	}
	if _, err := store.Get(ctx, "p"); err != nil {
		t.Errorf("pending records must survive eviction, got %v", err)
	}

	counts := store.CountByStatus(ctx)
	if counts[model.StatusCompleted] != 2 || counts[model.StatusPending] != 1 || counts[model.StatusFailed] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestMemoryStore_OnEvict(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	store := NewMemoryStore(ctx, WithMaxSettled(1), WithOnEvict(func(id string) { evicted = append(evicted, id) }))
	defer func() { _ = store.Close() }()

	for _, id := range []string{"e1", "e2", "e3"} {
		if err := store.Save(ctx, completed(id, "a")); err != nil {
			t.Fatal(err)
		}
	}
	if len(evicted) != 2 || evicted[0] != "e1" || evicted[1] != "e2" {
		t.Errorf("expected e1 then e2 to be evicted, got %v", evicted)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	defer func() { _ = store.Close() }()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("e%d_%d", g, i)
				_ = store.Save(ctx, model.Tally{ElectionID: id, Status: model.StatusPending})
				_ = store.Save(ctx, completed(id, "a"))
				if _, err := store.Get(ctx, id); err != nil {
					t.Errorf("get %s: %v", id, err)
				}
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 800 {
		t.Errorf("expected 800 records, got %d", count)
	}
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	store := NewMemoryStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("expected second close to succeed, got %v", err)
	}
}
