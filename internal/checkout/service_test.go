package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fitroom-backend/internal/cart"
	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	"github.com/angelmondragon/fitroom-backend/internal/orders"
	"github.com/angelmondragon/fitroom-backend/internal/payments"
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

const shopper = "shopper-1"

type stubCarts struct {
	mu        sync.Mutex
	items     []cart.LineItem
	getErr    error
	clearErrs int
	clears    int
}

func (c *stubCarts) state() cart.State {
	lines := make([]pricing.Line, 0, len(c.items))
	for _, item := range c.items {
		lines = append(lines, pricing.Line{UnitPriceCents: item.UnitPriceCents, Quantity: item.Quantity})
	}
	items := append([]cart.LineItem{}, c.items...)
	return cart.State{Items: items, Summary: pricing.Summarize(lines, pricing.DefaultRules())}
}

func (c *stubCarts) Get(ctx context.Context, shopperID string) (cart.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return cart.State{}, c.getErr
	}
	return c.state(), nil
}

func (c *stubCarts) ClearOrdered(ctx context.Context, shopperID string, ordered []cart.Ordered) (cart.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	if c.clearErrs > 0 {
		c.clearErrs--
		return c.state(), cart.ErrPersistence
	}
	taken := map[uuid.UUID]int{}
	for _, o := range ordered {
		taken[o.LineID] += o.Quantity
	}
	var kept []cart.LineItem
	for _, item := range c.items {
		if item.Quantity > taken[item.ID] {
			item.Quantity -= taken[item.ID]
			kept = append(kept, item)
		}
	}
	c.items = kept
	return c.state(), nil
}

type memoryCarts struct {
	mu   sync.Mutex
	data map[string][]cart.LineItem
}

func (m *memoryCarts) ReadCart(ctx context.Context, cartID string) ([]cart.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cart.LineItem{}, m.data[cartID]...), nil
}

func (m *memoryCarts) WriteCart(ctx context.Context, cartID string, items []cart.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[cartID] = append([]cart.LineItem{}, items...)
	return nil
}

type stubCatalog map[string]catalog.Product

func (c stubCatalog) GetProduct(ctx context.Context, productID string) (catalog.Product, error) {
	p, ok := c[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

type stubOrders struct {
	mu        sync.Mutex
	byKey     map[string]*orders.Order
	created   []orders.CreateInput
	createErr error
	seq       int
}

func newStubOrders() *stubOrders {
	return &stubOrders{byKey: map[string]*orders.Order{}}
}

func (o *stubOrders) Create(ctx context.Context, input orders.CreateInput) (*orders.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.createErr != nil {
		return nil, o.createErr
	}
	if existing, ok := o.byKey[input.IdempotencyKey]; ok {
		return existing, nil
	}
	o.seq++
	o.created = append(o.created, input)
	order := &orders.Order{
		ID:                  uuid.New(),
		OrderNumber:         fmt.Sprintf("FR-%06d", o.seq),
		ShopperID:           input.ShopperID,
		Status:              enums.OrderStatusConfirmed,
		Lines:               input.Lines,
		Summary:             input.Summary,
		ShippingAddress:     input.Address,
		ShippingMethod:      input.Method,
		PaymentMethodRef:    input.PaymentMethodRef,
		PaymentReference:    input.PaymentReference,
		EstimatedDeliveryAt: input.EstimatedDeliveryAt,
	}
	o.byKey[input.IdempotencyKey] = order
	return order, nil
}

func (o *stubOrders) FindByIdempotencyKey(ctx context.Context, shopperID, key string) (*orders.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.byKey[key], nil
}

type stubGateway struct {
	mu         sync.Mutex
	collectErr error
	confirmErr error
	block      bool
	confirms   []payments.ConfirmRequest
	onConfirm  func()
}

func (g *stubGateway) CollectPaymentMethod(ctx context.Context, ref string) (payments.Method, error) {
	if g.collectErr != nil {
		return payments.Method{}, g.collectErr
	}
	if ref == "" {
		return payments.Method{}, payments.ErrInvalidPaymentMethod
	}
	return payments.Method{Ref: ref, Brand: "visa", Last4: "4242"}, nil
}

func (g *stubGateway) Confirm(ctx context.Context, req payments.ConfirmRequest) (payments.Confirmation, error) {
	g.mu.Lock()
	g.confirms = append(g.confirms, req)
	block, err, hook := g.block, g.confirmErr, g.onConfirm
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	if block {
		<-ctx.Done()
		return payments.Confirmation{}, fmt.Errorf("%w: %w", payments.ErrUnavailable, ctx.Err())
	}
	if err != nil {
		return payments.Confirmation{}, err
	}
	return payments.Confirmation{Reference: "pi_" + req.IdempotencyKey, Status: "succeeded"}, nil
}

type fakeClaimer struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func (f *fakeClaimer) CheckAndMark(ctx context.Context, scope, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed[scope+key] {
		return true, nil
	}
	f.claimed[scope+key] = true
	return false, nil
}

func (f *fakeClaimer) Delete(ctx context.Context, scope, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claimed, scope+key)
	return nil
}

type harness struct {
	svc     Service
	now     *time.Time
	carts   *stubCarts
	orders  *stubOrders
	gateway *stubGateway
	claims  *fakeClaimer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	carts := &stubCarts{items: sampleItems()}
	h := newHarnessWith(t, carts, &stubGateway{})
	h.carts = carts
	return h
}

// newHarnessWith runs the service against any cart implementation.
func newHarnessWith(t *testing.T, carts cartReader, gateway *stubGateway) *harness {
	t.Helper()
	now := time.Date(2026, 3, 6, 15, 0, 0, 0, time.UTC)
	h := &harness{
		now:     &now,
		orders:  newStubOrders(),
		gateway: gateway,
		claims:  &fakeClaimer{claimed: map[string]bool{}},
	}
	svc, err := NewService(ServiceParams{
		Carts:             carts,
		Orders:            h.orders,
		Payments:          h.gateway,
		Guard:             NewSubmissionGuard(h.claims),
		Clock:             func() time.Time { return *h.now },
		SessionTTL:        time.Hour,
		PaymentTimeout:    50 * time.Millisecond,
		ClearRetries:      2,
		ClearRetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// sampleItems is a $250.00 cart: two tees at $25 and a $200 coat.
func sampleItems() []cart.LineItem {
	return []cart.LineItem{
		{
			ID:             uuid.New(),
			Product:        catalog.Product{ID: "tee-1", Name: "Boxy Tee", Brand: "Atelier", UnitPriceCents: 2500, StockQty: 10},
			Quantity:       2,
			UnitPriceCents: 2500,
			Size:           "M",
			Color:          "black",
		},
		{
			ID:             uuid.New(),
			Product:        catalog.Product{ID: "coat-1", Name: "Wool Coat", Brand: "Atelier", UnitPriceCents: 20000, StockQty: 3},
			Quantity:       1,
			UnitPriceCents: 20000,
		},
	}
}

func validAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Line1:      "1 Main St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
	}
}

// toReview walks a fresh session to the review step.
func (h *harness) toReview(t *testing.T, method string) View {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.Begin(ctx, shopper)
	require.NoError(t, err)
	_, err = h.svc.SetShipping(ctx, shopper, ShippingInput{Address: validAddress(), Method: method})
	require.NoError(t, err)
	_, err = h.svc.Advance(ctx, shopper)
	require.NoError(t, err)
	_, err = h.svc.SetPayment(ctx, shopper, "pm_card_visa")
	require.NoError(t, err)
	view, err := h.svc.Advance(ctx, shopper)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStepReview, view.Step)
	return view
}

func TestShippingGateRequiresCompleteAddress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view, err := h.svc.Begin(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, view.Step)

	address := validAddress()
	address.City = "  "
	_, err = h.svc.SetShipping(ctx, shopper, ShippingInput{Address: address})
	require.NoError(t, err)

	view, err = h.svc.Advance(ctx, shopper)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "missing shipping city", pkgerrors.As(err).Message())
	assert.Equal(t, enums.CheckoutStepShipping, view.Step)

	_, err = h.svc.SetShipping(ctx, shopper, ShippingInput{Address: validAddress()})
	require.NoError(t, err)
	view, err = h.svc.Advance(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, view.Step)
	assert.Equal(t, enums.ShippingMethodStandard, view.Method)
}

func TestAddressValidationNamesEveryMissingField(t *testing.T) {
	err := validateAddress(types.ShippingAddress{Company: "Acme"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "missing shipping first name, last name, address line 1, city, state, postal code", typed.Message())
	assert.Equal(t, []string{"first_name", "last_name", "line1", "city", "state", "postal_code"}, typed.Details().(map[string]any)["missing"])

	assert.NoError(t, validateAddress(validAddress()))
}

func TestPaymentGateRequiresReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Begin(ctx, shopper)
	require.NoError(t, err)
	_, err = h.svc.SetShipping(ctx, shopper, ShippingInput{Address: validAddress()})
	require.NoError(t, err)
	_, err = h.svc.Advance(ctx, shopper)
	require.NoError(t, err)

	_, err = h.svc.Advance(ctx, shopper)
	assert.ErrorIs(t, err, ErrMissingPaymentMethod)

	_, err = h.svc.SetPayment(ctx, shopper, "")
	assert.ErrorIs(t, err, payments.ErrInvalidPaymentMethod)

	view, err := h.svc.SetPayment(ctx, shopper, "pm_card_visa")
	require.NoError(t, err)
	require.NotNil(t, view.Payment)
	assert.Equal(t, "4242", view.Payment.Last4)

	view, err = h.svc.Advance(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, view.Step)
}

func TestBackTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.toReview(t, "")

	view, err := h.svc.Back(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, view.Step)

	view, err = h.svc.Back(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, view.Step)

	_, err = h.svc.Back(ctx, shopper)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStepEditsAreLockedOutsideTheirStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.toReview(t, "")

	_, err := h.svc.SetShipping(ctx, shopper, ShippingInput{Address: validAddress()})
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = h.svc.SetPayment(ctx, shopper, "pm_other")
	assert.ErrorIs(t, err, ErrWrongStep)
	_, err = h.svc.Advance(ctx, shopper)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUnknownShippingMethodRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Begin(ctx, shopper)
	require.NoError(t, err)

	_, err = h.svc.SetShipping(ctx, shopper, ShippingInput{Address: validAddress(), Method: "drone"})
	assert.ErrorIs(t, err, ErrUnknownShipping)
}

func TestSubmitSucceedsAndClearsCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	review := h.toReview(t, "express")
	assert.Equal(t, int64(25000+2000+1999), review.Totals.TotalCents)

	order, err := h.svc.Submit(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	assert.Equal(t, int64(28999), order.Summary.TotalCents)
	assert.Equal(t, int64(1999), order.Summary.ShippingCents)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "tee-1", order.Lines[0].ProductID)
	assert.Equal(t, int64(5000), order.Lines[0].LineTotalCents)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), order.EstimatedDeliveryAt)

	require.Len(t, h.gateway.confirms, 1)
	assert.Equal(t, int64(28999), h.gateway.confirms[0].AmountCents)
	assert.Equal(t, "pm_card_visa", h.gateway.confirms[0].PaymentMethodRef)

	state, err := h.carts.Get(ctx, shopper)
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
	assert.Equal(t, int64(0), state.Summary.TotalCents)

	_, err = h.svc.Get(ctx, shopper)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, h.claims.claimed)
}

func TestSubmitDeclinedStaysInReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	review := h.toReview(t, "")
	assert.Equal(t, int64(27000), review.Totals.TotalCents)

	h.gateway.confirmErr = fmt.Errorf("%w: card_declined", payments.ErrDeclined)
	_, err := h.svc.Submit(ctx, shopper)
	require.Error(t, err)
	assert.ErrorIs(t, err, payments.ErrDeclined)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentDeclined))
	assert.Equal(t, "card declined", pkgerrors.As(err).Message())

	view, err := h.svc.Get(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, view.Step)
	assert.Equal(t, 3, view.Totals.ItemCount)
	assert.Equal(t, 0, h.carts.clears)
	assert.Empty(t, h.orders.created)
	assert.Empty(t, h.claims.claimed)
}

func TestSubmitPaymentTimeoutIsDependencyError(t *testing.T) {
	h := newHarness(t)
	h.toReview(t, "")
	h.gateway.block = true

	_, err := h.svc.Submit(context.Background(), shopper)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	view, err := h.svc.Get(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, view.Step)
	assert.Empty(t, h.orders.created)
}

func TestSubmitEmptyCartRejected(t *testing.T) {
	h := newHarness(t)
	h.toReview(t, "")
	h.carts.items = nil

	_, err := h.svc.Submit(context.Background(), shopper)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, h.gateway.confirms)
}

func TestSubmitBeforeReviewRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Begin(context.Background(), shopper)
	require.NoError(t, err)

	_, err = h.svc.Submit(context.Background(), shopper)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, h.gateway.confirms)
}

func TestSubmitOrderFailureRetriesWithSamePaymentKey(t *testing.T) {
	h := newHarness(t)
	h.toReview(t, "")
	h.orders.createErr = errors.New("db down")

	_, err := h.svc.Submit(context.Background(), shopper)
	assert.ErrorIs(t, err, ErrOrderNotSaved)
	view, err := h.svc.Get(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, view.Step)
	assert.Equal(t, 0, h.carts.clears)

	h.orders.createErr = nil
	order, err := h.svc.Submit(context.Background(), shopper)
	require.NoError(t, err)
	require.Len(t, h.gateway.confirms, 2)
	assert.Equal(t, h.gateway.confirms[0].IdempotencyKey, h.gateway.confirms[1].IdempotencyKey)
	assert.Equal(t, "pi_"+h.gateway.confirms[0].IdempotencyKey, order.PaymentReference)
	assert.Len(t, h.orders.created, 1)
}

func TestSubmitClearFailureKeepsOrderAndRetriesClear(t *testing.T) {
	h := newHarness(t)
	h.toReview(t, "")
	h.carts.clearErrs = 3

	order, err := h.svc.Submit(context.Background(), shopper)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCartClearFailed)
	require.NotNil(t, order)
	assert.Equal(t, 3, h.carts.clears)

	view, err := h.svc.Get(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepSubmitting, view.Step)
	require.NotNil(t, view.Order)
	assert.Equal(t, order.ID, view.Order.ID)

	err = h.svc.Cancel(context.Background(), shopper)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	again, err := h.svc.Submit(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)
	assert.Len(t, h.gateway.confirms, 1)
	assert.Len(t, h.orders.created, 1)

	state, _ := h.carts.Get(context.Background(), shopper)
	assert.True(t, state.IsEmpty())
}

func TestSubmitReplaysExistingOrderForSession(t *testing.T) {
	h := newHarness(t)
	review := h.toReview(t, "")

	existing := &orders.Order{ID: uuid.New(), OrderNumber: "FR-000042", ShopperID: shopper}
	h.orders.byKey[review.ID.String()] = existing

	order, err := h.svc.Submit(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, order.ID)
	assert.Empty(t, h.gateway.confirms)
	assert.Equal(t, 1, h.carts.clears)
}

func TestSubmitGuardBlocksConcurrentSubmission(t *testing.T) {
	h := newHarness(t)
	h.toReview(t, "")
	h.claims.claimed[submitScope+shopper] = true

	_, err := h.svc.Submit(context.Background(), shopper)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Empty(t, h.gateway.confirms)

	view, err := h.svc.Get(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepReview, view.Step)
}

func TestCancelDiscardsSessionWithoutTouchingCart(t *testing.T) {
	h := newHarness(t)
	h.toReview(t, "")

	require.NoError(t, h.svc.Cancel(context.Background(), shopper))
	_, err := h.svc.Get(context.Background(), shopper)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, h.carts.clears)
	assert.Len(t, h.carts.items, 2)

	assert.ErrorIs(t, h.svc.Cancel(context.Background(), shopper), ErrSessionNotFound)
}

func TestBeginResumesActiveSession(t *testing.T) {
	h := newHarness(t)
	first, err := h.svc.Begin(context.Background(), shopper)
	require.NoError(t, err)
	second, err := h.svc.Begin(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = h.svc.Begin(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestShippingQuotesFollowCart(t *testing.T) {
	h := newHarness(t)
	quotes, err := h.svc.ShippingQuotes(context.Background(), shopper)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, int64(0), quotes[0].PriceCents)
	assert.Equal(t, int64(1999), quotes[1].PriceCents)
	assert.Equal(t, int64(3499), quotes[2].PriceCents)
}

func TestSubmitKeepsItemsAddedWhilePaymentConfirms(t *testing.T) {
	products := stubCatalog{
		"tee-1":  {ID: "tee-1", Name: "Boxy Tee", Brand: "Atelier", UnitPriceCents: 2500, StockQty: 10, Sizes: []string{"M"}},
		"coat-1": {ID: "coat-1", Name: "Wool Coat", Brand: "Atelier", UnitPriceCents: 20000, StockQty: 3},
	}
	registry, err := cart.NewRegistry(&memoryCarts{data: map[string][]cart.LineItem{}}, cart.StoreOptions{Rules: pricing.DefaultRules()})
	require.NoError(t, err)
	carts, err := cart.NewService(registry, products, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = carts.AddItem(ctx, shopper, cart.AddItemInput{ProductID: "tee-1", Quantity: 2, Size: "M"})
	require.NoError(t, err)

	gateway := &stubGateway{}
	gateway.onConfirm = func() {
		_, err := carts.AddItem(context.Background(), shopper, cart.AddItemInput{ProductID: "coat-1", Quantity: 1})
		assert.NoError(t, err)
		_, err = carts.AddItem(context.Background(), shopper, cart.AddItemInput{ProductID: "tee-1", Quantity: 1, Size: "M"})
		assert.NoError(t, err)
	}
	h := newHarnessWith(t, carts, gateway)
	h.toReview(t, "")

	order, err := h.svc.Submit(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "tee-1", order.Lines[0].ProductID)
	assert.Equal(t, 2, order.Lines[0].Quantity)

	state, err := carts.Get(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	assert.Equal(t, "tee-1", state.Items[0].Product.ID)
	assert.Equal(t, 1, state.Items[0].Quantity)
	assert.Equal(t, "coat-1", state.Items[1].Product.ID)
	assert.Equal(t, 1, state.Items[1].Quantity)
	assert.Equal(t, int64(22500), state.Summary.SubtotalCents)
}

func TestIdleSessionExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, err := h.svc.Begin(ctx, shopper)
	require.NoError(t, err)

	*h.now = h.now.Add(30 * time.Minute)
	_, err = h.svc.Get(ctx, shopper)
	require.NoError(t, err)

	*h.now = h.now.Add(2 * time.Hour)
	_, err = h.svc.Get(ctx, shopper)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	second, err := h.svc.Begin(ctx, shopper)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, enums.CheckoutStepShipping, second.Step)
}

func TestSweepDropsAbandonedSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Begin(ctx, "shopper-2")
	require.NoError(t, err)

	*h.now = h.now.Add(2 * time.Hour)
	_, err = h.svc.Begin(ctx, shopper)
	require.NoError(t, err)

	svc := h.svc.(*service)
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Len(t, svc.sessions, 1)
	assert.Contains(t, svc.sessions, shopper)
}
