// Package store defines the persistent record store used by the inventory and
// order packages. Every operation runs inside a transaction opened by
// Store.InTx; returning an error from the callback rolls all writes back.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

// ErrConflict is returned when an insert collides with an existing record.
var ErrConflict = errors.New("record already exists")

type Products interface {
	// GetProduct returns nil, nil when the product does not exist. The row
	// stays locked until the transaction ends.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// InsertProduct assigns an ID when p.ID is empty.
	InsertProduct(ctx context.Context, p *domain.Product) error
	// UpdateProduct replaces name, price and quantity. It reports false when
	// the product does not exist.
	UpdateProduct(ctx context.Context, p *domain.Product) (bool, error)
	SetProductQuantity(ctx context.Context, id string, quantity int) error
	DeleteProduct(ctx context.Context, id string) error
}

type Orders interface {
	// GetOrder returns nil, nil when the order does not exist. The order row
	// stays locked until the transaction ends.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// InsertOrder assigns an ID when o.ID is empty.
	InsertOrder(ctx context.Context, o *domain.Order) error
	UpdateOrderState(ctx context.Context, id string, state domain.OrderState, at time.Time) error
}

type Reservations interface {
	InsertReservation(ctx context.Context, r domain.Reservation) error
	// DeleteReservation reports whether an entry was removed.
	DeleteReservation(ctx context.Context, orderID string) (bool, error)
	// ReservationsBefore lists entries created strictly before cutoff, oldest first.
	ReservationsBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error)
}

type Tx interface {
	Products
	Orders
	Reservations
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
