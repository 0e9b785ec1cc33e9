package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/fitroom-backend/internal/cart"
	"github.com/angelmondragon/fitroom-backend/internal/orders"
	"github.com/angelmondragon/fitroom-backend/internal/payments"
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/metrics"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

const (
	defaultPaymentTimeout    = 30 * time.Second
	defaultClearRetryBackoff = 100 * time.Millisecond

	outcomeConfirmed    = "confirmed"
	outcomeReplayed     = "replayed"
	outcomeDeclined     = "declined"
	outcomePaymentError = "payment_error"
	outcomeEmptyCart    = "empty_cart"
	outcomeInFlight     = "in_flight"
	outcomeOrderError   = "order_error"
	outcomeClearFailed  = "clear_failed"
	outcomeRejected     = "rejected"
)

type cartReader interface {
	Get(ctx context.Context, shopperID string) (cart.State, error)
	ClearOrdered(ctx context.Context, shopperID string, ordered []cart.Ordered) (cart.State, error)
}

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateInput) (*orders.Order, error)
	FindByIdempotencyKey(ctx context.Context, shopperID, key string) (*orders.Order, error)
}

// ShippingInput updates the shipping step. An empty Method keeps the
// current choice.
type ShippingInput struct {
	Address types.ShippingAddress
	Method  string
}

// View is a session plus the totals it would be charged right now.
type View struct {
	Session
	Shipping *Quote          `json:"shipping,omitempty"`
	Totals   pricing.Summary `json:"totals"`
}

// Service drives the checkout state machine for each shopper.
type Service interface {
	ShippingQuotes(ctx context.Context, shopperID string) ([]Quote, error)
	Begin(ctx context.Context, shopperID string) (View, error)
	Get(ctx context.Context, shopperID string) (View, error)
	SetShipping(ctx context.Context, shopperID string, input ShippingInput) (View, error)
	SetPayment(ctx context.Context, shopperID, paymentMethodRef string) (View, error)
	Advance(ctx context.Context, shopperID string) (View, error)
	Back(ctx context.Context, shopperID string) (View, error)
	Submit(ctx context.Context, shopperID string) (*orders.Order, error)
	Cancel(ctx context.Context, shopperID string) error
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Carts             cartReader
	Orders            orderCreator
	Payments          payments.Gateway
	Guard             *SubmissionGuard
	Metrics           *metrics.CheckoutMetrics
	Logger            *logger.Logger
	Clock             func() time.Time
	Rules             pricing.Rules
	SessionTTL        time.Duration
	PaymentTimeout    time.Duration
	ClearRetries      uint64
	ClearRetryBackoff time.Duration
}

type entry struct {
	mu      sync.Mutex
	session Session
}

type service struct {
	carts             cartReader
	orders            orderCreator
	payments          payments.Gateway
	guard             *SubmissionGuard
	metrics           *metrics.CheckoutMetrics
	logg              *logger.Logger
	now               func() time.Time
	rules             pricing.Rules
	sessionTTL        time.Duration
	paymentTimeout    time.Duration
	clearRetries      uint64
	clearRetryBackoff time.Duration

	mu        sync.Mutex
	sessions  map[string]*entry
	lastSweep time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	if params.Rules.TaxRateBps == 0 && params.Rules.FreeShippingThresholdCents == 0 && params.Rules.StandardShippingCents == 0 {
		params.Rules = pricing.DefaultRules()
	}
	if params.SessionTTL < 0 {
		return nil, fmt.Errorf("session ttl must be non-negative")
	}
	if params.PaymentTimeout <= 0 {
		params.PaymentTimeout = defaultPaymentTimeout
	}
	if params.ClearRetryBackoff <= 0 {
		params.ClearRetryBackoff = defaultClearRetryBackoff
	}
	return &service{
		carts:             params.Carts,
		orders:            params.Orders,
		payments:          params.Payments,
		guard:             params.Guard,
		metrics:           params.Metrics,
		logg:              params.Logger,
		now:               params.Clock,
		rules:             params.Rules,
		sessionTTL:        params.SessionTTL,
		paymentTimeout:    params.PaymentTimeout,
		clearRetries:      params.ClearRetries,
		clearRetryBackoff: params.ClearRetryBackoff,
		sessions:          map[string]*entry{},
		lastSweep:         params.Clock(),
	}, nil
}

func (s *service) ShippingQuotes(ctx context.Context, shopperID string) ([]Quote, error) {
	state, err := s.carts.Get(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	return QuoteAll(s.rules, state.Summary), nil
}

// Begin starts a session at the shipping step or resumes the active one.
func (s *service) Begin(ctx context.Context, shopperID string) (View, error) {
	shopperID = strings.TrimSpace(shopperID)
	if shopperID == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopper required")
	}
	s.sweep()
	e, err := s.lookup(shopperID)
	ok := err == nil
	if !ok {
		s.mu.Lock()
		if e, ok = s.sessions[shopperID]; !ok {
			e = &entry{session: newSession(shopperID, s.now().UTC())}
			s.sessions[shopperID] = e
		}
		s.mu.Unlock()
	}

	if !ok {
		s.logg.Info(s.logg.WithSessionID(s.logg.WithShopperID(ctx, shopperID), e.session.ID.String()), "checkout started")
	}
	return s.view(ctx, e.snapshot())
}

func (s *service) Get(ctx context.Context, shopperID string) (View, error) {
	e, err := s.lookup(shopperID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, e.snapshot())
}

func (s *service) SetShipping(ctx context.Context, shopperID string, input ShippingInput) (View, error) {
	var method enums.ShippingMethod
	if raw := strings.TrimSpace(input.Method); raw != "" {
		parsed, err := enums.ParseShippingMethod(strings.ToLower(raw))
		if err != nil {
			return View{}, fmt.Errorf("%w: %q", ErrUnknownShipping, raw)
		}
		method = parsed
	}
	return s.update(ctx, shopperID, func(sess *Session) error {
		if err := sess.requireStep(enums.CheckoutStepShipping); err != nil {
			return err
		}
		sess.Address = input.Address.Normalize()
		if method != "" {
			sess.Method = method
		}
		return nil
	})
}

// SetPayment resolves ref with the payment collaborator and stores it. The
// session is unchanged when the collaborator rejects the reference.
func (s *service) SetPayment(ctx context.Context, shopperID, paymentMethodRef string) (View, error) {
	return s.update(ctx, shopperID, func(sess *Session) error {
		if err := sess.requireStep(enums.CheckoutStepPayment); err != nil {
			return err
		}
		method, err := s.payments.CollectPaymentMethod(ctx, paymentMethodRef)
		if err != nil {
			return err
		}
		sess.Payment = &method
		return nil
	})
}

func (s *service) Advance(ctx context.Context, shopperID string) (View, error) {
	return s.update(ctx, shopperID, func(sess *Session) error {
		if sess.Step == enums.CheckoutStepSubmitting {
			return ErrSubmissionInFlight
		}
		return sess.advance()
	})
}

func (s *service) Back(ctx context.Context, shopperID string) (View, error) {
	return s.update(ctx, shopperID, func(sess *Session) error {
		if sess.Step == enums.CheckoutStepSubmitting {
			return ErrSubmissionInFlight
		}
		return sess.back()
	})
}

// Cancel discards the session without touching the cart.
func (s *service) Cancel(ctx context.Context, shopperID string) error {
	e, err := s.lookup(shopperID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Step == enums.CheckoutStepSubmitting {
		return ErrSubmissionInFlight
	}
	s.forget(shopperID, e)
	s.logg.Info(s.logg.WithSessionID(s.logg.WithShopperID(ctx, shopperID), e.session.ID.String()), "checkout cancelled")
	return nil
}

// Submit charges the shopper and turns the cart into an order. On payment or
// order failure the session returns to review with the cart untouched. When
// the order is saved but the cart cannot be cleared the session stays in
// submitting with the order attached and a later Submit only retries the
// clear.
func (s *service) Submit(ctx context.Context, shopperID string) (*orders.Order, error) {
	started := s.now()
	e, err := s.lookup(shopperID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	sess := e.session
	switch {
	case sess.Step == enums.CheckoutStepSubmitting && sess.Order != nil:
		e.mu.Unlock()
		return s.finish(ctx, e, sess.Order, started)
	case sess.Step == enums.CheckoutStepSubmitting:
		e.mu.Unlock()
		s.observe(outcomeInFlight, started)
		return nil, ErrSubmissionInFlight
	case sess.Step != enums.CheckoutStepReview:
		e.mu.Unlock()
		s.observe(outcomeRejected, started)
		return nil, fmt.Errorf("%w: cannot submit from %s", ErrInvalidTransition, sess.Step)
	}
	e.session.Step = enums.CheckoutStepSubmitting
	e.session.UpdatedAt = s.now().UTC()
	e.mu.Unlock()

	order, outcome, err := s.place(ctx, sess)
	if err != nil {
		e.mu.Lock()
		e.session.Step = enums.CheckoutStepReview
		e.session.UpdatedAt = s.now().UTC()
		e.mu.Unlock()
		s.observe(outcome, started)
		return nil, err
	}

	e.mu.Lock()
	e.session.Order = order
	e.mu.Unlock()
	return s.finish(ctx, e, order, started)
}

// place confirms payment and persists the order for a session snapshot.
func (s *service) place(ctx context.Context, sess Session) (*orders.Order, string, error) {
	logCtx := s.logg.WithSessionID(s.logg.WithShopperID(ctx, sess.ShopperID), sess.ID.String())

	state, err := s.carts.Get(ctx, sess.ShopperID)
	if err != nil {
		return nil, outcomeOrderError, err
	}
	if state.IsEmpty() {
		return nil, outcomeEmptyCart, ErrEmptyCart
	}

	existing, err := s.orders.FindByIdempotencyKey(ctx, sess.ShopperID, sess.ID.String())
	if err != nil {
		return nil, outcomeOrderError, err
	}
	if existing != nil {
		s.logg.Info(s.logg.WithOrderID(logCtx, existing.ID.String()), "checkout already produced an order")
		return existing, outcomeReplayed, nil
	}

	if err := s.guard.Acquire(ctx, sess.ShopperID); err != nil {
		if errors.Is(err, ErrSubmissionInFlight) {
			return nil, outcomeInFlight, err
		}
		return nil, outcomeOrderError, err
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), sess.ShopperID); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "release submission guard failed")
		}
	}()

	quote, err := QuoteShipping(s.rules, sess.Method, state.Summary)
	if err != nil {
		return nil, outcomeRejected, fmt.Errorf("%w: %w", ErrUnknownShipping, err)
	}
	totals := state.Summary.WithShipping(quote.PriceCents)

	confirmCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	confirmation, err := s.payments.Confirm(confirmCtx, payments.ConfirmRequest{
		PaymentMethodRef: sess.PaymentMethodRef(),
		AmountCents:      totals.TotalCents,
		IdempotencyKey:   paymentKey(sess, totals.TotalCents),
		Metadata: map[string]string{
			"shopper_id": sess.ShopperID,
			"session_id": sess.ID.String(),
		},
	})
	cancel()
	if err != nil {
		if errors.Is(err, payments.ErrDeclined) {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "payment declined")
			return nil, outcomeDeclined, err
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return nil, outcomeDeclined, err
		}
		s.logg.Error(logCtx, "payment confirmation failed", err)
		return nil, outcomePaymentError, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	// Payment has been taken; finish persisting even if the caller goes away.
	persistCtx := context.WithoutCancel(ctx)
	now := s.now().UTC()
	order, err := s.orders.Create(persistCtx, orders.CreateInput{
		ShopperID:           sess.ShopperID,
		IdempotencyKey:      sess.ID.String(),
		Lines:               orderLines(state.Items),
		Summary:             totals,
		Address:             sess.Address,
		Method:              sess.Method,
		PaymentMethodRef:    sess.PaymentMethodRef(),
		PaymentReference:    confirmation.Reference,
		EstimatedDeliveryAt: EstimateDelivery(now, quote.BusinessDays),
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(logCtx, "payment_reference", confirmation.Reference), "order persistence failed after payment", err)
		return nil, outcomeOrderError, fmt.Errorf("%w: %w", ErrOrderNotSaved, err)
	}
	return order, outcomeConfirmed, nil
}

// finish removes the ordered lines from the cart and closes the session.
// Items put in the cart while the payment was confirming are kept.
func (s *service) finish(ctx context.Context, e *entry, order *orders.Order, started time.Time) (*orders.Order, error) {
	shopperID := order.ShopperID
	logCtx := s.logg.WithOrderID(s.logg.WithShopperID(ctx, shopperID), order.ID.String())

	ordered := orderedLines(order)
	clearCtx := context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(s.clearRetries, retry.NewConstant(s.clearRetryBackoff))
	err := retry.Do(clearCtx, backoff, func(ctx context.Context) error {
		if _, err := s.carts.ClearOrdered(ctx, shopperID, ordered); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.logg.Error(logCtx, "cart clear after order failed", err)
		s.observe(outcomeClearFailed, started)
		return order, fmt.Errorf("%w: %w", ErrCartClearFailed, err)
	}

	e.mu.Lock()
	e.session.Step = enums.CheckoutStepDone
	e.session.UpdatedAt = s.now().UTC()
	e.mu.Unlock()
	s.forget(shopperID, e)

	s.logg.Info(s.logg.WithField(logCtx, "order_number", order.OrderNumber), "checkout completed")
	s.observe(outcomeConfirmed, started)
	return order, nil
}

func (s *service) update(ctx context.Context, shopperID string, fn func(*Session) error) (View, error) {
	e, err := s.lookup(shopperID)
	if err != nil {
		return View{}, err
	}
	e.mu.Lock()
	next := e.session
	if err := fn(&next); err != nil {
		current := e.session
		e.mu.Unlock()
		if view, viewErr := s.view(ctx, current); viewErr == nil {
			return view, err
		}
		return View{}, err
	}
	next.UpdatedAt = s.now().UTC()
	e.session = next
	e.mu.Unlock()
	return s.view(ctx, next)
}

func (s *service) view(ctx context.Context, sess Session) (View, error) {
	state, err := s.carts.Get(ctx, sess.ShopperID)
	if err != nil {
		return View{Session: sess}, err
	}
	view := View{Session: sess, Totals: state.Summary}
	if sess.Method != "" {
		quote, err := QuoteShipping(s.rules, sess.Method, state.Summary)
		if err == nil {
			view.Shipping = &quote
			view.Totals = state.Summary.WithShipping(quote.PriceCents)
		}
	}
	return view, nil
}

// lookup returns the shopper's live session. A session idle past the TTL is
// discarded as if cancelled.
func (s *service) lookup(shopperID string) (*entry, error) {
	shopperID = strings.TrimSpace(shopperID)
	s.mu.Lock()
	e, ok := s.sessions[shopperID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(e.snapshot()) {
		s.forget(shopperID, e)
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// expired never applies to a submitting session, which may hold a placed
// order whose cart clear is still owed.
func (s *service) expired(sess Session) bool {
	if s.sessionTTL <= 0 || sess.Step == enums.CheckoutStepSubmitting {
		return false
	}
	return s.now().Sub(sess.UpdatedAt) >= s.sessionTTL
}

// sweep drops expired sessions at most twice per TTL. Sessions busy with a
// payment lookup are skipped until the next sweep.
func (s *service) sweep() {
	if s.sessionTTL <= 0 {
		return
	}
	now := s.now()
	s.mu.Lock()
	if now.Sub(s.lastSweep) < s.sessionTTL/2 {
		s.mu.Unlock()
		return
	}
	s.lastSweep = now
	entries := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		entries[id] = e
	}
	s.mu.Unlock()

	for id, e := range entries {
		if !e.mu.TryLock() {
			continue
		}
		sess := e.session
		e.mu.Unlock()
		if s.expired(sess) {
			s.forget(id, e)
		}
	}
}

func (s *service) forget(shopperID string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[shopperID] == e {
		delete(s.sessions, shopperID)
	}
}

func (s *service) observe(outcome string, started time.Time) {
	s.metrics.ObserveSubmission(outcome, s.now().Sub(started))
}

func (e *entry) snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// paymentKey is stable for a session, payment method and amount so a retried
// confirmation never charges twice, while a new card gets a fresh attempt.
func paymentKey(sess Session, amountCents int64) string {
	return fmt.Sprintf("checkout:%s:%s:%d", sess.ID, sess.PaymentMethodRef(), amountCents)
}

func orderedLines(order *orders.Order) []cart.Ordered {
	ordered := make([]cart.Ordered, 0, len(order.Lines))
	for _, line := range order.Lines {
		ordered = append(ordered, cart.Ordered{LineID: line.CartLineID, Quantity: line.Quantity})
	}
	return ordered
}

func orderLines(items []cart.LineItem) []orders.Line {
	lines := make([]orders.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, orders.Line{
			CartLineID:     item.ID,
			ProductID:      item.Product.ID,
			Name:           item.Product.Name,
			Brand:          item.Product.Brand,
			ImageURL:       item.Product.ImageURL,
			Size:           item.Size,
			Color:          item.Color,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents(),
		})
	}
	return lines
}
