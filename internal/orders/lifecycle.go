package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/inventory"
	"github.com/joao-fontenele/storefront-orders/internal/store"
)

// Lifecycle drives an order out of ACTIVE and applies the stock side effects
// of each transition. The order passed in must have been read through the
// same transaction.
type Lifecycle struct {
	ledger *inventory.Ledger
}

func NewLifecycle(ledger *inventory.Ledger) *Lifecycle {
	return &Lifecycle{ledger: ledger}
}

// Cancel returns stock and drops the reservation. Canceling a canceled order
// is a no-op and reports false. PAYED and INVALIDATED are terminal, so
// canceling them fails with ErrOrderNotActive.
func (l *Lifecycle) Cancel(ctx context.Context, tx store.Tx, order *domain.Order, now time.Time) (bool, error) {
	if order.State == domain.OrderStateCanceled {
		return false, nil
	}
	if err := l.close(ctx, tx, order, domain.OrderStateCanceled, true, now); err != nil {
		return false, err
	}
	return true, nil
}

// Pay checks amount against the live product prices and consumes the stock.
func (l *Lifecycle) Pay(ctx context.Context, tx store.Tx, order *domain.Order, amount decimal.Decimal, now time.Time) error {
	switch order.State {
	case domain.OrderStateCanceled:
		return ErrCannotPayCanceledOrder
	case domain.OrderStatePayed:
		return ErrAlreadyPayed
	case domain.OrderStateInvalidated:
		return ErrCannotPayInvalidatedOrder
	}

	total, err := l.Total(ctx, tx, order)
	if err != nil {
		return err
	}

	if !amount.Equal(total) {
		return ErrWrongAmount
	}

	return l.close(ctx, tx, order, domain.OrderStatePayed, false, now)
}

// Invalidate expires an unpaid order. It has the same effect as Cancel but
// ends in INVALIDATED.
func (l *Lifecycle) Invalidate(ctx context.Context, tx store.Tx, order *domain.Order, now time.Time) error {
	return l.close(ctx, tx, order, domain.OrderStateInvalidated, true, now)
}

// Total sums quantity times the current price of every item.
func (l *Lifecycle) Total(ctx context.Context, products store.Products, order *domain.Order) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range byProduct(order.Items) {
		product, err := products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("get product %s: %w", item.ProductID, err)
		}
		if product == nil || product.Price == nil {
			return decimal.Zero, ErrOrderNotPayable
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

func (l *Lifecycle) close(ctx context.Context, tx store.Tx, order *domain.Order, to domain.OrderState, release bool, now time.Time) error {
	if !order.State.CanTransition(to) {
		return ErrOrderNotActive
	}

	if release {
		for _, item := range byProduct(order.Items) {
			if err := l.ledger.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("release product %s: %w", item.ProductID, err)
			}
		}
	}

	if _, err := tx.DeleteReservation(ctx, order.ID); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	if err := tx.UpdateOrderState(ctx, order.ID, to, now); err != nil {
		return fmt.Errorf("update order state: %w", err)
	}

	order.State = to
	order.UpdatedAt = now
	return nil
}
