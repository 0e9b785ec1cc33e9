package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/fitroom-backend/pkg/db"
	"github.com/angelmondragon/fitroom-backend/pkg/db/models"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/outbox"
	"github.com/angelmondragon/fitroom-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/fitroom-backend/pkg/pagination"
	"github.com/angelmondragon/fitroom-backend/pkg/redis"
)

const (
	orderSequenceName = "order_number"
	orderNumberFormat = "FR-%06d"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order-level operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, shopperID, key string) (*Order, error)
	Get(ctx context.Context, shopperID string, orderID uuid.UUID) (*Order, error)
	List(ctx context.Context, shopperID string, params pagination.Params) (pagination.Page[Order], error)
	Cancel(ctx context.Context, shopperID string, orderID uuid.UUID, reason string) (*Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, reason string) (*Order, error)
}

// ServiceParams wires the orders service.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Numbers    redis.Sequencer
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	numbers redis.Sequencer
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Numbers == nil {
		return nil, fmt.Errorf("order number sequencer required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		outbox:  params.Outbox,
		numbers: params.Numbers,
		logg:    params.Logger,
		now:     params.Clock,
	}, nil
}

// Create persists a confirmed order and queues order.confirmed in the same
// transaction. A second call with the same idempotency key returns the
// existing order.
func (s *service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	input.ShopperID = strings.TrimSpace(input.ShopperID)
	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if input.ShopperID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopper id required")
	}
	if input.IdempotencyKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}

	seq, err := s.numbers.NextSequence(ctx, orderSequenceName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}

	orderID := uuid.New()
	row := toModel(orderID, fmt.Sprintf(orderNumberFormat, seq), input)
	now := s.now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{ShopperID: input.ShopperID, Role: "shopper"},
			OccurredAt:    now,
			Data: payloads.OrderConfirmedEvent{
				OrderID:             orderID,
				OrderNumber:         row.OrderNumber,
				ShopperID:           row.ShopperID,
				TotalCents:          row.TotalCents,
				ItemCount:           row.ItemCount,
				ShippingMethod:      row.ShippingMethod,
				PaymentReference:    row.PaymentReference,
				EstimatedDeliveryAt: row.EstimatedDeliveryAt,
			},
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "idempotency_key") {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, input.IdempotencyKey)
			if findErr == nil && existing != nil {
				return fromModel(existing), nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	logCtx := s.logg.WithOrderID(s.logg.WithShopperID(ctx, input.ShopperID), orderID.String())
	s.logg.Info(s.logg.WithField(logCtx, "order_number", row.OrderNumber), "order confirmed")
	return fromModel(row), nil
}

// FindByIdempotencyKey returns nil when no order was created for key.
func (s *service) FindByIdempotencyKey(ctx context.Context, shopperID, key string) (*Order, error) {
	row, err := s.repo.FindByIdempotencyKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}
	if row == nil || row.ShopperID != shopperID {
		return nil, nil
	}
	return fromModel(row), nil
}

func (s *service) Get(ctx context.Context, shopperID string, orderID uuid.UUID) (*Order, error) {
	row, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if row.ShopperID != shopperID {
		return nil, ErrOrderNotFound
	}
	return fromModel(row), nil
}

func (s *service) List(ctx context.Context, shopperID string, params pagination.Params) (pagination.Page[Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, ErrInvalidCursor.Message())
	}
	rows, err := s.repo.ListByShopper(ctx, shopperID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return pagination.Page[Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items := make([]Order, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return pagination.Build(items, params.Limit, func(o Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

// Cancel lets a shopper cancel an order that has not shipped.
func (s *service) Cancel(ctx context.Context, shopperID string, orderID uuid.UUID, reason string) (*Order, error) {
	row, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if row.ShopperID != shopperID {
		return nil, ErrOrderNotFound
	}
	if row.Status == enums.OrderStatusCancelled {
		return fromModel(row), nil
	}
	return s.transition(ctx, row, enums.OrderStatusCancelled, reason)
}

func (s *service) Transition(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, reason string) (*Order, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	row, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, row, to, reason)
}

func (s *service) transition(ctx context.Context, row *models.Order, to enums.OrderStatus, reason string) (*Order, error) {
	from := row.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, row.ID, from, to); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   row.ID,
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     row.ID,
				OrderNumber: row.OrderNumber,
				ShopperID:   row.ShopperID,
				From:        from,
				To:          to,
				Reason:      strings.TrimSpace(reason),
			},
		})
	})
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, row.ID.String()), map[string]any{
		"from": from,
		"to":   to,
	}), "order status changed")

	row.Status = to
	row.UpdatedAt = now
	return fromModel(row), nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	row, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if row == nil {
		return nil, ErrOrderNotFound
	}
	return row, nil
}
