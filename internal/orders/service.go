package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/inventory"
	"github.com/joao-fontenele/storefront-orders/internal/store"
	"github.com/joao-fontenele/storefront-orders/internal/telemetry"
)

var tracer = otel.Tracer("storefront/orders")

// EventPublisher is satisfied by messaging.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	store     store.Store
	builder   *Builder
	lifecycle *Lifecycle
	publisher EventPublisher
	metrics   *telemetry.OrderMetrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *telemetry.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(st store.Store, ledger *inventory.Ledger, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     st,
		builder:   NewBuilder(ledger),
		lifecycle: NewLifecycle(ledger),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, items []ItemRequest) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.create", trace.WithAttributes(attribute.Int("order.items", len(items))))
	defer span.End()

	var order *domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = s.builder.Build(ctx, tx, items, s.now())
		return err
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			span.SetAttributes(attribute.Int("order.rejected_items", len(verr.Errors)))
			s.metrics.RecordRejected(ctx)
			s.logger.InfoContext(ctx, "order rejected", "errors", len(verr.Errors))
			return nil, err
		}
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.metrics.RecordTransition(ctx, order.State)
	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "items", len(order.Items))
	s.publish(ctx, order)

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder cancels an ACTIVE order. Canceling an already canceled order
// succeeds without side effects.
func (s *Service) CancelOrder(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "orders.cancel", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	var (
		order   *domain.Order
		changed bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		changed, err = s.lifecycle.Cancel(ctx, tx, order, s.now())
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) && !errors.Is(err, ErrOrderNotActive) {
			recordError(span, err)
		}
		return err
	}

	if changed {
		s.metrics.RecordTransition(ctx, order.State)
		s.logger.InfoContext(ctx, "order canceled", "order_id", id)
		s.publish(ctx, order)
	}
	return nil
}

func (s *Service) PayOrder(ctx context.Context, id string, amount decimal.Decimal) error {
	ctx, span := tracer.Start(ctx, "orders.pay", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("payment.amount", amount.String()),
	))
	defer span.End()

	var order *domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		return s.lifecycle.Pay(ctx, tx, order, amount, s.now())
	})
	if err != nil {
		var perr *domain.PaymentError
		if errors.As(err, &perr) {
			span.SetAttributes(attribute.String("payment.error_code", string(perr.Code)))
			s.logger.InfoContext(ctx, "payment rejected", "order_id", id, "error_code", perr.Code)
			return err
		}
		if !errors.Is(err, ErrOrderNotFound) {
			recordError(span, err)
		}
		return err
	}

	s.metrics.RecordTransition(ctx, order.State)
	s.logger.InfoContext(ctx, "order paid", "order_id", id, "amount", amount.String())
	s.publish(ctx, order)
	return nil
}

// InvalidateExpired invalidates every ACTIVE order whose reservation was
// created before cutoff, in a single transaction. Stale orders are locked in
// id order and then the union of their products, also in id order, before any
// stock moves. Entries whose order already left ACTIVE are dropped without
// touching stock.
func (s *Service) InvalidateExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	ctx, span := tracer.Start(ctx, "orders.invalidate_expired", trace.WithAttributes(
		attribute.String("sweep.cutoff", cutoff.Format(time.RFC3339)),
	))
	defer span.End()

	var invalidated []*domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		invalidated = nil

		stale, err := tx.ReservationsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list stale reservations: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]string, 0, len(stale))
		for _, r := range stale {
			ids = append(ids, r.OrderID)
		}
		slices.Sort(ids)

		var (
			expired    []*domain.Order
			productIDs []string
		)
		for _, id := range ids {
			order, err := tx.GetOrder(ctx, id)
			if err != nil {
				return fmt.Errorf("get order %s: %w", id, err)
			}

			if order == nil || order.State != domain.OrderStateActive {
				if _, err := tx.DeleteReservation(ctx, id); err != nil {
					return fmt.Errorf("delete reservation %s: %w", id, err)
				}
				continue
			}

			expired = append(expired, order)
			for _, item := range order.Items {
				productIDs = append(productIDs, item.ProductID)
			}
		}

		slices.Sort(productIDs)
		for _, id := range slices.Compact(productIDs) {
			if _, err := tx.GetProduct(ctx, id); err != nil {
				return fmt.Errorf("lock product %s: %w", id, err)
			}
		}

		now := s.now()
		for _, order := range expired {
			if err := s.lifecycle.Invalidate(ctx, tx, order, now); err != nil {
				return fmt.Errorf("invalidate order %s: %w", order.ID, err)
			}
		}
		invalidated = expired
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	ids := make([]string, 0, len(invalidated))
	for _, order := range invalidated {
		ids = append(ids, order.ID)
		s.metrics.RecordTransition(ctx, order.State)
		s.logger.InfoContext(ctx, "order invalidated", "order_id", order.ID)
		s.publish(ctx, order)
	}
	span.SetAttributes(attribute.Int("sweep.invalidated", len(ids)))

	return ids, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	event := domain.NewOrderEvent(order, s.now())
	if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order event", "error", err, "order_id", order.ID, "state", order.State)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
