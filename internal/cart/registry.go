package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Registry hands out one Store per shopper, loading it on first use. With
// StoreOptions.IdleTTL set, stores nobody has asked for within the TTL are
// dropped and reloaded from persistence on the next request.
type Registry struct {
	persist Persistence
	opts    StoreOptions
	now     func() time.Time

	mu        sync.Mutex
	stores    map[string]*registered
	lastSweep time.Time
	group     singleflight.Group
}

type registered struct {
	store    *Store
	lastUsed time.Time
}

// NewRegistry builds a registry whose stores share persist and opts.
func NewRegistry(persist Persistence, opts StoreOptions) (*Registry, error) {
	if persist == nil {
		return nil, fmt.Errorf("cart persistence required")
	}
	if opts.IdleTTL < 0 {
		return nil, fmt.Errorf("cart store idle ttl must be non-negative")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Registry{
		persist:   persist,
		opts:      opts,
		now:       now,
		stores:    map[string]*registered{},
		lastSweep: now(),
	}, nil
}

// Get returns the shopper's store. Concurrent first calls share one load and
// a store whose last load failed is reloaded before being returned.
func (r *Registry) Get(ctx context.Context, shopperID string) (*Store, error) {
	shopperID = strings.TrimSpace(shopperID)
	if shopperID == "" {
		return nil, fmt.Errorf("shopper id required")
	}

	r.mu.Lock()
	r.sweepLocked()
	reg, ok := r.stores[shopperID]
	if ok {
		reg.lastUsed = r.now()
	}
	r.mu.Unlock()
	if ok {
		if reg.store.Degraded() {
			reg.store.Load(ctx)
		}
		return reg.store, nil
	}

	v, _, _ := r.group.Do(shopperID, func() (any, error) {
		r.mu.Lock()
		if existing, ok := r.stores[shopperID]; ok {
			existing.lastUsed = r.now()
			r.mu.Unlock()
			return existing.store, nil
		}
		r.mu.Unlock()

		created := NewStore(shopperID, r.persist, r.opts)
		created.Load(context.WithoutCancel(ctx))

		r.mu.Lock()
		r.stores[shopperID] = &registered{store: created, lastUsed: r.now()}
		count := len(r.stores)
		r.mu.Unlock()
		r.opts.Metrics.SetLiveStores(count)
		return created, nil
	})
	return v.(*Store), nil
}

// Len reports how many stores are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// sweepLocked drops idle stores at most twice per TTL. A store with
// listeners or a mutation in flight is kept. Must be called with mu held.
func (r *Registry) sweepLocked() {
	ttl := r.opts.IdleTTL
	if ttl <= 0 {
		return
	}
	now := r.now()
	if now.Sub(r.lastSweep) < ttl/2 {
		return
	}
	r.lastSweep = now

	evicted := 0
	for id, reg := range r.stores {
		if now.Sub(reg.lastUsed) < ttl || !reg.store.idle() {
			continue
		}
		delete(r.stores, id)
		evicted++
	}
	if evicted > 0 {
		r.opts.Metrics.SetLiveStores(len(r.stores))
	}
}
