package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fitroom-backend/api/middleware"
	cartsvc "github.com/angelmondragon/fitroom-backend/internal/cart"
	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
)

type stubCartService struct {
	state     cartsvc.State
	err       error
	shopperID string
	added     cartsvc.AddItemInput
	lineID    uuid.UUID
	quantity  int
	cleared   bool
}

func (s *stubCartService) Get(_ context.Context, shopperID string) (cartsvc.State, error) {
	s.shopperID = shopperID
	return s.state, s.err
}

func (s *stubCartService) AddItem(_ context.Context, shopperID string, input cartsvc.AddItemInput) (cartsvc.State, error) {
	s.shopperID = shopperID
	s.added = input
	return s.state, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, shopperID string, lineID uuid.UUID, quantity int) (cartsvc.State, error) {
	s.shopperID = shopperID
	s.lineID = lineID
	s.quantity = quantity
	return s.state, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, shopperID string, lineID uuid.UUID) (cartsvc.State, error) {
	s.shopperID = shopperID
	s.lineID = lineID
	return s.state, s.err
}

func (s *stubCartService) Clear(_ context.Context, shopperID string) (cartsvc.State, error) {
	s.shopperID = shopperID
	s.cleared = true
	return cartsvc.State{Items: []cartsvc.LineItem{}}, s.err
}

func (s *stubCartService) ClearOrdered(_ context.Context, shopperID string, _ []cartsvc.Ordered) (cartsvc.State, error) {
	s.shopperID = shopperID
	return s.state, s.err
}

func (s *stubCartService) Subscribe(context.Context, string, cartsvc.Listener) (func(), error) {
	return func() {}, nil
}

func sampleState() cartsvc.State {
	items := []cartsvc.LineItem{{
		ID:             uuid.MustParse("7b0c5a4e-2f55-4d8a-9a0c-6a4f1f0e2b11"),
		Product:        catalog.Product{ID: "tee-1", Name: "Boxy Tee", Brand: "Fitroom", UnitPriceCents: 2500},
		Quantity:       2,
		UnitPriceCents: 2500,
		Size:           "M",
		AddedAt:        time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC),
	}}
	return cartsvc.State{
		Items:   items,
		Summary: pricing.Summarize([]pricing.Line{{UnitPriceCents: 2500, Quantity: 2}}, pricing.DefaultRules()),
	}
}

func serve(t *testing.T, route, method, target, body string, handler http.HandlerFunc, shopperID string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, route, handler)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if shopperID != "" {
		req = req.WithContext(middleware.WithShopperID(req.Context(), shopperID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type cartEnvelope struct {
	Data cartResponse `json:"data"`
}

func TestCartFetchRendersMoney(t *testing.T) {
	svc := &stubCartService{state: sampleState()}
	rec := serve(t, "/cart", http.MethodGet, "/cart", "", CartFetch(svc, nil), "shopper-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var env cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, "shopper-1", svc.shopperID)
	assert.Equal(t, "25.00", env.Data.Items[0].UnitPrice.Display)
	assert.Equal(t, int64(5000), env.Data.Items[0].LineTotal.Cents)
	assert.Equal(t, "50.00", env.Data.Summary.Subtotal.Display)
	assert.Equal(t, "4.00", env.Data.Summary.Tax.Display)
	assert.Equal(t, "9.99", env.Data.Summary.Shipping.Display)
	assert.Equal(t, "63.99", env.Data.Summary.Total.Display)
	assert.Equal(t, 2, env.Data.Summary.ItemCount)
}

func TestCartRequiresShopper(t *testing.T) {
	rec := serve(t, "/cart", http.MethodGet, "/cart", "", CartFetch(&stubCartService{}, nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{state: sampleState()}
	rec := serve(t, "/cart/items", http.MethodPost, "/cart/items",
		`{"product_id":"tee-1","quantity":2,"size":"M"}`, CartAddItem(svc, nil), "shopper-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, cartsvc.AddItemInput{ProductID: "tee-1", Quantity: 2, Size: "M"}, svc.added)
}

func TestCartAddItemValidatesBody(t *testing.T) {
	svc := &stubCartService{}
	rec := serve(t, "/cart/items", http.MethodPost, "/cart/items", `{"quantity":0}`, CartAddItem(svc, nil), "shopper-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.shopperID)
}

func TestCartAddItemMapsServiceErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"stock":       {err: cartsvc.ErrInsufficientStock, want: http.StatusConflict},
		"not found":   {err: cartsvc.ErrProductNotFound, want: http.StatusNotFound},
		"size":        {err: cartsvc.ErrSizeUnavailable, want: http.StatusBadRequest},
		"persistence": {err: cartsvc.ErrPersistence, want: http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCartService{err: tc.err}
			rec := serve(t, "/cart/items", http.MethodPost, "/cart/items",
				`{"product_id":"tee-1","quantity":1}`, CartAddItem(svc, nil), "shopper-1")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCartUpdateQuantityAllowsZero(t *testing.T) {
	svc := &stubCartService{state: cartsvc.State{}}
	lineID := uuid.New()
	rec := serve(t, "/cart/items/{lineID}", http.MethodPatch, "/cart/items/"+lineID.String(),
		`{"quantity":0}`, CartUpdateQuantity(svc, nil), "shopper-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lineID, svc.lineID)
	assert.Equal(t, 0, svc.quantity)
}

func TestCartUpdateQuantityRequiresField(t *testing.T) {
	svc := &stubCartService{}
	rec := serve(t, "/cart/items/{lineID}", http.MethodPatch, "/cart/items/"+uuid.NewString(),
		`{}`, CartUpdateQuantity(svc, nil), "shopper-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartUpdateQuantityRejectsHugeQuantity(t *testing.T) {
	for _, body := range []string{`{"quantity":100}`, `{"quantity":4611686018427387904}`} {
		svc := &stubCartService{}
		rec := serve(t, "/cart/items/{lineID}", http.MethodPatch, "/cart/items/"+uuid.NewString(),
			body, CartUpdateQuantity(svc, nil), "shopper-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, uuid.Nil, svc.lineID, body)
	}
}

func TestCartRemoveItemRejectsBadLineID(t *testing.T) {
	rec := serve(t, "/cart/items/{lineID}", http.MethodDelete, "/cart/items/not-a-uuid",
		"", CartRemoveItem(&stubCartService{}, nil), "shopper-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	rec := serve(t, "/cart", http.MethodDelete, "/cart", "", CartClear(svc, nil), "shopper-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cleared)

	var env cartEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Empty(t, env.Data.Items)
	assert.Equal(t, "0.00", env.Data.Summary.Total.Display)
}

func TestCartNilServiceIsInternalError(t *testing.T) {
	rec := serve(t, "/cart", http.MethodGet, "/cart", "", CartFetch(nil, nil), "shopper-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
