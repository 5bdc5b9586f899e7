package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finova/internal/core"
)

type fakeLister struct {
	mu    sync.Mutex
	lists map[int64][]core.Transaction
	calls int
	err   error
}

func (f *fakeLister) ListByOwner(_ context.Context, ownerID int64) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.lists[ownerID], nil
}

func (f *fakeLister) set(ownerID int64, list []core.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[ownerID] = list
}

func newFakeLister() *fakeLister {
	return &fakeLister{lists: make(map[int64][]core.Transaction)}
}

func record(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:       id,
		Title:    "t",
		Amount:   core.Money{Cents: cents},
		Category: "Food",
		Kind:     core.Expense,
		Date:     "2025-08-01",
	}
}

func receive(t *testing.T, sub *Subscription) []core.Transaction {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		if !ok {
			t.Fatal("channel closed while expecting a snapshot")
		}
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	lister := newFakeLister()
	lister.set(1, []core.Transaction{record("a", 100)})
	hub := NewHub(lister)
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Cancel()

	snap := receive(t, sub)
	if len(snap) != 1 || snap[0].ID != "a" {
		t.Fatalf("initial snapshot = %+v", snap)
	}
}

func TestNotifyPushesFreshSnapshot(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister)
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Cancel()
	receive(t, sub) // drain the empty initial snapshot

	lister.set(1, []core.Transaction{record("a", 100), record("b", 200)})
	hub.Notify(context.Background(), 1)

	snap := receive(t, sub)
	if len(snap) != 2 {
		t.Fatalf("snapshot after notify = %+v", snap)
	}
}

func TestNotifyIsLatestWins(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister)
	defer hub.Close()

	sub, _ := hub.Subscribe(context.Background(), 1)
	defer sub.Cancel()
	receive(t, sub)

	// Two notifies without an intervening read: the subscriber must
	// see only the second state.
	lister.set(1, []core.Transaction{record("a", 100)})
	hub.Notify(context.Background(), 1)
	lister.set(1, []core.Transaction{record("a", 100), record("b", 200)})
	hub.Notify(context.Background(), 1)

	snap := receive(t, sub)
	if len(snap) != 2 {
		t.Fatalf("expected the latest snapshot, got %+v", snap)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister)
	defer hub.Close()

	sub, _ := hub.Subscribe(context.Background(), 1)
	receive(t, sub)
	sub.Cancel()
	sub.Cancel() // idempotent

	if n := hub.SubscriberCount(1); n != 0 {
		t.Fatalf("subscriber count after cancel = %d", n)
	}

	lister.set(1, []core.Transaction{record("a", 100)})
	hub.Notify(context.Background(), 1)

	// The channel is closed and must never yield another snapshot.
	if snap, ok := <-sub.C; ok {
		t.Fatalf("received snapshot after cancel: %+v", snap)
	}
}

func TestSubscribersAreScopedByOwner(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister)
	defer hub.Close()

	alice, _ := hub.Subscribe(context.Background(), 1)
	defer alice.Cancel()
	bob, _ := hub.Subscribe(context.Background(), 2)
	defer bob.Cancel()
	receive(t, alice)
	receive(t, bob)

	lister.set(1, []core.Transaction{record("a", 100)})
	hub.Notify(context.Background(), 1)
	receive(t, alice)

	select {
	case snap := <-bob.C:
		t.Fatalf("bob received alice's update: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSnapshotCacheAvoidsDuplicateQueries(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister)
	defer hub.Close()

	for i := 0; i < 3; i++ {
		sub, err := hub.Subscribe(context.Background(), 1)
		if err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
		defer sub.Cancel()
	}

	lister.mu.Lock()
	calls := lister.calls
	lister.mu.Unlock()
	if calls != 1 {
		t.Fatalf("three subscribes caused %d queries, want 1", calls)
	}
}

func TestSubscribeErrorPropagates(t *testing.T) {
	lister := newFakeLister()
	lister.err = errors.New("db down")
	hub := NewHub(lister)
	defer hub.Close()

	if _, err := hub.Subscribe(context.Background(), 1); err == nil {
		t.Fatal("expected subscribe to fail when the store does")
	}
}
