package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/metrics"
	"github.com/google/uuid"
)

// MaxLineQuantity caps one line so totals stay far inside int64 cents.
const MaxLineQuantity = 99

// Listener receives every committed state in commit order.
type Listener func(State)

// StoreOptions configures a Store. Zero values fall back to defaults.
type StoreOptions struct {
	Rules   pricing.Rules
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
	Clock   func() time.Time
	NewID   func() uuid.UUID
	// IdleTTL lets a Registry drop stores unused for that long. Zero keeps
	// every store.
	IdleTTL time.Duration
}

// Store is the single source of truth for one cart. Mutations run one at a
// time in the order they acquire the queue and only commit in memory after
// the persistence write succeeds.
type Store struct {
	cartID  string
	persist Persistence
	rules   pricing.Rules
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
	newID   func() uuid.UUID

	queue chan struct{}

	mu        sync.RWMutex
	state     State
	degraded  bool
	listeners map[int]Listener
	nextSub   int
}

// NewStore builds an empty store. Call Load to restore persisted lines.
func NewStore(cartID string, persist Persistence, opts StoreOptions) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	return &Store{
		cartID:    cartID,
		persist:   persist,
		rules:     opts.Rules,
		logg:      opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Clock,
		newID:     opts.NewID,
		queue:     make(chan struct{}, 1),
		state:     newState(nil, opts.Rules),
		listeners: map[int]Listener{},
	}
}

// CartID returns the identifier the store persists under.
func (s *Store) CartID() string {
	return s.cartID
}

// Load restores persisted lines. Read or decode failures leave the store
// empty and marked degraded so a later Load can retry.
func (s *Store) Load(ctx context.Context) State {
	if err := s.acquire(ctx); err != nil {
		return s.State()
	}
	defer s.release()

	items, err := s.persist.ReadCart(ctx, s.cartID)
	degraded := err != nil
	if degraded {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"cart_id": s.cartID,
			"error":   err.Error(),
		}), "cart load failed, starting empty")
		items = nil
	}
	return s.commit(items, degraded)
}

// Degraded reports whether the last Load failed and no write has since
// replaced the durable state.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// State returns a copy of the current items and their summary.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// idle reports whether no mutation is queued and nobody is subscribed.
func (s *Store) idle() bool {
	if len(s.queue) > 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners) == 0
}

// Subscribe registers fn for every future committed state and returns a
// function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Add merges quantity into the line matching (product, size, color) or
// appends a new line priced at the product's current unit price.
func (s *Store) Add(ctx context.Context, product catalog.Product, quantity int, size, color string) (State, error) {
	product = snapshotOf(product)
	size = strings.TrimSpace(size)
	color = strings.TrimSpace(color)
	if quantity < 1 {
		return s.State(), ErrInvalidQuantity
	}
	if quantity > MaxLineQuantity {
		return s.State(), ErrQuantityTooLarge
	}
	if product.ID == "" {
		return s.State(), ErrMissingProduct
	}
	if !product.OffersSize(size) {
		return s.State(), ErrSizeUnavailable
	}
	if !product.OffersColor(color) {
		return s.State(), ErrColorUnavailable
	}

	return s.mutate(ctx, "add", func(items []LineItem) ([]LineItem, bool, error) {
		key := Key{ProductID: product.ID, Size: size, Color: color}
		if idx := indexOfKey(items, key); idx >= 0 {
			merged := items[idx].Quantity + quantity
			if merged > MaxLineQuantity {
				return nil, false, ErrQuantityTooLarge
			}
			if merged > product.StockQty {
				return nil, false, ErrInsufficientStock
			}
			items[idx].Quantity = merged
			return items, true, nil
		}
		if quantity > product.StockQty {
			return nil, false, ErrInsufficientStock
		}
		return append(items, LineItem{
			ID:             s.newID(),
			Product:        product,
			Quantity:       quantity,
			UnitPriceCents: product.UnitPriceCents,
			Size:           size,
			Color:          color,
			AddedAt:        s.now().UTC().Truncate(time.Microsecond),
		}), true, nil
	})
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line and an
// unknown id is a no-op. The new quantity is held to the stock level captured
// when the line was added.
func (s *Store) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (State, error) {
	if quantity <= 0 {
		return s.Remove(ctx, lineID)
	}
	if quantity > MaxLineQuantity {
		return s.State(), ErrQuantityTooLarge
	}
	return s.mutate(ctx, "update_quantity", func(items []LineItem) ([]LineItem, bool, error) {
		idx := indexOfID(items, lineID)
		if idx < 0 || items[idx].Quantity == quantity {
			return items, false, nil
		}
		if quantity > items[idx].Product.StockQty {
			return nil, false, ErrInsufficientStock
		}
		items[idx].Quantity = quantity
		return items, true, nil
	})
}

// Remove drops a line. An unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, lineID uuid.UUID) (State, error) {
	return s.mutate(ctx, "remove", func(items []LineItem) ([]LineItem, bool, error) {
		idx := indexOfID(items, lineID)
		if idx < 0 {
			return items, false, nil
		}
		return append(items[:idx], items[idx+1:]...), true, nil
	})
}

// Clear empties the cart. Clearing an empty cart writes nothing.
func (s *Store) Clear(ctx context.Context) (State, error) {
	return s.mutate(ctx, "clear", func(items []LineItem) ([]LineItem, bool, error) {
		if len(items) == 0 {
			return items, false, nil
		}
		return []LineItem{}, true, nil
	})
}

// Ordered is a line and the quantity an order took from it.
type Ordered struct {
	LineID   uuid.UUID
	Quantity int
}

// ClearOrdered removes what an order took from the cart. Each named line
// loses the ordered quantity and is dropped once nothing is left. Lines
// added or topped up after the order was snapshotted stay.
func (s *Store) ClearOrdered(ctx context.Context, ordered []Ordered) (State, error) {
	taken := make(map[uuid.UUID]int, len(ordered))
	for _, o := range ordered {
		taken[o.LineID] += o.Quantity
	}
	return s.mutate(ctx, "clear_ordered", func(items []LineItem) ([]LineItem, bool, error) {
		next := make([]LineItem, 0, len(items))
		changed := false
		for _, item := range items {
			qty, ok := taken[item.ID]
			if !ok {
				next = append(next, item)
				continue
			}
			changed = true
			if item.Quantity > qty {
				item.Quantity -= qty
				next = append(next, item)
			}
		}
		return next, changed, nil
	})
}

type mutation func(items []LineItem) (next []LineItem, changed bool, err error)

func (s *Store) mutate(ctx context.Context, op string, fn mutation) (State, error) {
	started := s.now()
	if err := s.acquire(ctx); err != nil {
		s.metrics.ObserveOperation(op, "cancelled", s.now().Sub(started))
		return s.State(), err
	}
	defer s.release()

	current, err := s.refreshDegraded(ctx)
	if err != nil {
		s.metrics.ObserveOperation(op, "persist_failed", s.now().Sub(started))
		return current, err
	}
	next, changed, err := fn(current.Items)
	if err != nil {
		s.metrics.ObserveOperation(op, "rejected", s.now().Sub(started))
		return current, err
	}
	if !changed {
		s.metrics.ObserveOperation(op, "noop", s.now().Sub(started))
		return current, nil
	}

	if err := s.persist.WriteCart(ctx, s.cartID, next); err != nil {
		s.metrics.ObserveOperation(op, "persist_failed", s.now().Sub(started))
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"cart_id": s.cartID,
			"op":      op,
		}), "cart write failed, keeping previous state", err)
		return s.State(), persistenceError(err)
	}

	state := s.commit(next, false)
	s.metrics.ObserveOperation(op, "ok", s.now().Sub(started))
	return state, nil
}

// refreshDegraded re-reads a store whose last load failed so a write never
// replaces a durable cart it has not seen. An unreadable document cannot be
// recovered and is overwritten. Must be called with the queue held.
func (s *Store) refreshDegraded(ctx context.Context) (State, error) {
	if !s.Degraded() {
		return s.State(), nil
	}
	items, err := s.persist.ReadCart(ctx, s.cartID)
	switch {
	case err == nil:
		return s.commit(items, false), nil
	case errors.Is(err, ErrCorruptCart):
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"cart_id": s.cartID,
			"error":   err.Error(),
		}), "overwriting unreadable cart")
		return s.State(), nil
	default:
		s.logg.Error(s.logg.WithField(ctx, "cart_id", s.cartID), "cart still unreadable, refusing write", err)
		return s.State(), persistenceError(err)
	}
}

// commit must be called with the queue held so listeners see commit order.
func (s *Store) commit(items []LineItem, degraded bool) State {
	s.mu.Lock()
	s.state = newState(cloneItems(items), s.rules)
	s.degraded = degraded
	snapshot := s.state.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.clone())
	}
	return snapshot
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.queue <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.queue
}

func snapshotOf(p catalog.Product) catalog.Product {
	p.ID = strings.TrimSpace(p.ID)
	if len(p.Sizes) == 0 {
		p.Sizes = nil
	}
	if len(p.Colors) == 0 {
		p.Colors = nil
	}
	return p
}
