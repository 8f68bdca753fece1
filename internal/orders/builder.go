package orders

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/inventory"
	"github.com/joao-fontenele/storefront-orders/internal/store"
)

type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// checkItem returns the first failing check for one item, or "" when the
// item can be ordered. taken is the quantity of the same product already
// claimed by earlier items of the order.
func checkItem(req ItemRequest, product *domain.Product, taken int) domain.CreateOrderErrorCode {
	switch {
	case req.Quantity == nil:
		return domain.ErrCodeMissingQuantity
	case *req.Quantity <= 0:
		return domain.ErrCodeInvalidQuantity
	case product == nil:
		return domain.ErrCodeInvalidProduct
	case !product.IsFinished():
		return domain.ErrCodeUnfinishedProduct
	case !product.HasEnough(taken, *req.Quantity):
		return domain.ErrCodeNotEnoughProductsOnStock
	}
	return ""
}

type Builder struct {
	ledger *inventory.Ledger
}

func NewBuilder(ledger *inventory.Ledger) *Builder {
	return &Builder{ledger: ledger}
}

// Build validates every item and, only when all of them pass, stores an
// ACTIVE order, takes its stock and registers its reservation. A rejected
// order is returned as *ValidationError and nothing is written.
func (b *Builder) Build(ctx context.Context, tx store.Tx, reqs []ItemRequest, now time.Time) (*domain.Order, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyOrder
	}

	var ids []string
	for _, req := range reqs {
		if req.Quantity != nil && *req.Quantity > 0 {
			ids = append(ids, req.ProductID)
		}
	}
	slices.Sort(ids)

	// Product rows are always locked in id order.
	products := make(map[string]*domain.Product, len(ids))
	for _, id := range slices.Compact(ids) {
		product, err := tx.GetProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product %s: %w", id, err)
		}
		products[id] = product
	}

	taken := make(map[string]int)
	items := make([]domain.OrderItem, 0, len(reqs))
	var rejected []domain.CreateOrderError

	for _, req := range reqs {
		if code := checkItem(req, products[req.ProductID], taken[req.ProductID]); code != "" {
			rejected = append(rejected, domain.CreateOrderError{ProductID: req.ProductID, Code: code})
			continue
		}

		taken[req.ProductID] += *req.Quantity
		items = append(items, domain.OrderItem{ProductID: req.ProductID, Quantity: *req.Quantity})
	}

	if len(rejected) > 0 {
		return nil, &ValidationError{Errors: rejected}
	}

	order := &domain.Order{
		Items:     items,
		State:     domain.OrderStateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, item := range byProduct(order.Items) {
		if err := b.ledger.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("reserve product %s: %w", item.ProductID, err)
		}
	}

	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.InsertReservation(ctx, domain.Reservation{OrderID: order.ID, CreatedAt: now}); err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	return order, nil
}

// byProduct returns a copy of items sorted by product id, the order in which
// product rows are locked.
func byProduct(items []domain.OrderItem) []domain.OrderItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b domain.OrderItem) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return sorted
}
