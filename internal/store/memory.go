package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

// Memory is an in-process Store. Transactions are serialised behind a single
// mutex and work on a copy of the data that replaces the live maps on commit.
type Memory struct {
	mu           sync.Mutex
	products     map[string]domain.Product
	orders       map[string]domain.Order
	reservations map[string]domain.Reservation
}

func NewMemory() *Memory {
	return &Memory{
		products:     make(map[string]domain.Product),
		orders:       make(map[string]domain.Order),
		reservations: make(map[string]domain.Reservation),
	}
}

func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		products:     maps.Clone(m.products),
		orders:       maps.Clone(m.orders),
		reservations: maps.Clone(m.reservations),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.products = tx.products
	m.orders = tx.orders
	m.reservations = tx.reservations
	return nil
}

type memoryTx struct {
	products     map[string]domain.Product
	orders       map[string]domain.Order
	reservations map[string]domain.Reservation
}

// Stored values are never mutated in place, so a shallow map clone is enough
// to isolate a transaction as long as values are copied on the way in and out.
func cloneProduct(p domain.Product) domain.Product {
	if p.Quantity != nil {
		q := *p.Quantity
		p.Quantity = &q
	}
	if p.Price != nil {
		price := *p.Price
		p.Price = &price
	}
	return p
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (t *memoryTx) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return nil, nil
	}
	p = cloneProduct(p)
	return &p, nil
}

func (t *memoryTx) ListProducts(_ context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(t.products))
	for _, p := range t.products {
		products = append(products, cloneProduct(p))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return products, nil
}

func (t *memoryTx) InsertProduct(_ context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, ok := t.products[p.ID]; ok {
		return fmt.Errorf("product %s: %w", p.ID, ErrConflict)
	}
	t.products[p.ID] = cloneProduct(*p)
	return nil
}

func (t *memoryTx) UpdateProduct(_ context.Context, p *domain.Product) (bool, error) {
	if _, ok := t.products[p.ID]; !ok {
		return false, nil
	}
	t.products[p.ID] = cloneProduct(*p)
	return true, nil
}

func (t *memoryTx) SetProductQuantity(_ context.Context, id string, quantity int) error {
	p, ok := t.products[id]
	if !ok {
		return fmt.Errorf("product %s does not exist", id)
	}
	if quantity < 0 {
		return fmt.Errorf("product %s: quantity %d is negative", id, quantity)
	}
	p = cloneProduct(p)
	p.Quantity = &quantity
	t.products[id] = p
	return nil
}

func (t *memoryTx) DeleteProduct(_ context.Context, id string) error {
	delete(t.products, id)
	return nil
}

func (t *memoryTx) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, nil
	}
	o = cloneOrder(o)
	return &o, nil
}

func (t *memoryTx) InsertOrder(_ context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if _, ok := t.orders[o.ID]; ok {
		return fmt.Errorf("order %s: %w", o.ID, ErrConflict)
	}
	t.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *memoryTx) UpdateOrderState(_ context.Context, id string, state domain.OrderState, at time.Time) error {
	o, ok := t.orders[id]
	if !ok {
		return fmt.Errorf("order %s does not exist", id)
	}
	o = cloneOrder(o)
	o.State = state
	o.UpdatedAt = at
	t.orders[id] = o
	return nil
}

func (t *memoryTx) InsertReservation(_ context.Context, r domain.Reservation) error {
	if _, ok := t.orders[r.OrderID]; !ok {
		return fmt.Errorf("order %s does not exist", r.OrderID)
	}
	if _, ok := t.reservations[r.OrderID]; ok {
		return fmt.Errorf("reservation for order %s: %w", r.OrderID, ErrConflict)
	}
	t.reservations[r.OrderID] = r
	return nil
}

func (t *memoryTx) DeleteReservation(_ context.Context, orderID string) (bool, error) {
	if _, ok := t.reservations[orderID]; !ok {
		return false, nil
	}
	delete(t.reservations, orderID)
	return true, nil
}

func (t *memoryTx) ReservationsBefore(_ context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	var stale []domain.Reservation
	for _, r := range t.reservations {
		if r.CreatedAt.Before(cutoff) {
			stale = append(stale, r)
		}
	}
	slices.SortFunc(stale, func(a, b domain.Reservation) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.OrderID, b.OrderID))
	})
	return stale, nil
}
