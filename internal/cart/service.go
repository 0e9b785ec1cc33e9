package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/google/uuid"
)

// AddItemInput is a request to add a product configuration to a cart.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// Service is the shopper-facing cart surface.
type Service interface {
	Get(ctx context.Context, shopperID string) (State, error)
	AddItem(ctx context.Context, shopperID string, input AddItemInput) (State, error)
	UpdateQuantity(ctx context.Context, shopperID string, lineID uuid.UUID, quantity int) (State, error)
	RemoveItem(ctx context.Context, shopperID string, lineID uuid.UUID) (State, error)
	Clear(ctx context.Context, shopperID string) (State, error)
	ClearOrdered(ctx context.Context, shopperID string, ordered []Ordered) (State, error)
	Subscribe(ctx context.Context, shopperID string, fn Listener) (func(), error)
}

type service struct {
	registry *Registry
	catalog  catalog.Lookup
	logg     *logger.Logger
}

// NewService wires the cart service.
func NewService(registry *Registry, lookup catalog.Lookup, logg *logger.Logger) (Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{registry: registry, catalog: lookup, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, shopperID string) (State, error) {
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return State{}, err
	}
	return store.State(), nil
}

func (s *service) AddItem(ctx context.Context, shopperID string, input AddItemInput) (State, error) {
	if input.Quantity < 1 {
		return State{}, ErrInvalidQuantity
	}
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return State{}, ErrMissingProduct
	}
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return State{}, err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return store.State(), ErrProductNotFound
	}
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "catalog lookup failed", err)
		return store.State(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
	}

	return store.Add(ctx, product, input.Quantity, input.Size, input.Color)
}

func (s *service) UpdateQuantity(ctx context.Context, shopperID string, lineID uuid.UUID, quantity int) (State, error) {
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return State{}, err
	}
	return store.UpdateQuantity(ctx, lineID, quantity)
}

func (s *service) RemoveItem(ctx context.Context, shopperID string, lineID uuid.UUID) (State, error) {
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return State{}, err
	}
	return store.Remove(ctx, lineID)
}

func (s *service) Clear(ctx context.Context, shopperID string) (State, error) {
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return State{}, err
	}
	return store.Clear(ctx)
}

func (s *service) ClearOrdered(ctx context.Context, shopperID string, ordered []Ordered) (State, error) {
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return State{}, err
	}
	return store.ClearOrdered(ctx, ordered)
}

func (s *service) Subscribe(ctx context.Context, shopperID string, fn Listener) (func(), error) {
	store, err := s.store(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	return store.Subscribe(fn), nil
}

func (s *service) store(ctx context.Context, shopperID string) (*Store, error) {
	store, err := s.registry.Get(ctx, shopperID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "shopper required")
	}
	return store, nil
}
