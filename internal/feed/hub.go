// Package feed implements the live transaction feed: subscribers
// register for an owner's records and receive the full current set
// again whenever any of that owner's records change.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"finova/internal/cache"
	"finova/internal/core"
)

// Lister is the read side of the store the hub snapshots from.
type Lister interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error)
}

// Subscription is one registered listener. Snapshots arrive on C;
// Cancel tears the feed down immediately and closes C. After Cancel
// returns no further snapshot is delivered.
type Subscription struct {
	C      <-chan []core.Transaction
	cancel func()
}

func (s *Subscription) Cancel() {
	s.cancel()
}

type subscriber struct {
	ch chan []core.Transaction
}

// Hub fans full snapshots out to every subscriber of an owner.
// Channels are buffered latest-wins: a slow consumer only ever misses
// intermediate states, never the newest one.
type Hub struct {
	mu     sync.Mutex
	lister Lister
	subs   map[int64]map[int64]*subscriber
	nextID int64

	// Recent snapshots so a burst of subscribes doesn't turn into a
	// burst of identical queries. Invalidated on every change.
	snapshots *cache.LRUCache[[]core.Transaction]
}

func NewHub(lister Lister) *Hub {
	return &Hub{
		lister:    lister,
		subs:      make(map[int64]map[int64]*subscriber),
		snapshots: cache.NewLRUCache[[]core.Transaction](256, 30*time.Second),
	}
}

func (h *Hub) snapshotKey(ownerID int64) string {
	return strconv.FormatInt(ownerID, 10)
}

func (h *Hub) snapshot(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	key := h.snapshotKey(ownerID)
	if cached, ok := h.snapshots.Get(key); ok {
		return cached, nil
	}
	list, err := h.lister.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("snapshot owner %d: %w", ownerID, err)
	}
	h.snapshots.Set(key, list)
	return list, nil
}

// Subscribe registers a listener for ownerID and delivers the current
// snapshot before returning, so a fresh subscriber never starts empty.
func (h *Hub) Subscribe(ctx context.Context, ownerID int64) (*Subscription, error) {
	initial, err := h.snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{ch: make(chan []core.Transaction, 1)}
	sub.ch <- copySnapshot(initial)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	owner := h.subs[ownerID]
	if owner == nil {
		owner = make(map[int64]*subscriber)
		h.subs[ownerID] = owner
	}
	owner[id] = sub
	h.mu.Unlock()

	slog.DebugContext(ctx, "Feed subscription opened",
		"owner_id", ownerID, "subscription_id", id)

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		owner, ok := h.subs[ownerID]
		if !ok {
			return
		}
		if _, ok := owner[id]; !ok {
			return
		}
		delete(owner, id)
		if len(owner) == 0 {
			delete(h.subs, ownerID)
		}
		// Deliveries happen under the same lock, so closing here
		// guarantees nothing is sent after Cancel returns.
		close(sub.ch)
	}

	return &Subscription{C: sub.ch, cancel: cancel}, nil
}

// Notify re-queries the owner's records and pushes the fresh snapshot
// to every subscriber. Call it after each local mutation.
func (h *Hub) Notify(ctx context.Context, ownerID int64) {
	h.snapshots.Delete(h.snapshotKey(ownerID))

	h.mu.Lock()
	hasSubs := len(h.subs[ownerID]) > 0
	h.mu.Unlock()
	if !hasSubs {
		return
	}

	list, err := h.snapshot(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "Feed snapshot refresh failed",
			"owner_id", ownerID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[ownerID] {
		// Latest-wins: drop a pending unread snapshot, then the
		// buffered send below cannot block.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- copySnapshot(list)
	}
}

// SubscriberCount reports active subscriptions for an owner.
func (h *Hub) SubscriberCount(ownerID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

// Close cancels every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ownerID, owner := range h.subs {
		for id, sub := range owner {
			delete(owner, id)
			close(sub.ch)
		}
		delete(h.subs, ownerID)
	}
}

func copySnapshot(list []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(list))
	copy(out, list)
	return out
}
