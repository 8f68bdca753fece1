package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront-orders/internal/store"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductUnfinished = errors.New("product has no price or quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Ledger moves product stock in and out. It never holds state of its own;
// every call works against the transaction it is given.
type Ledger struct {
	logger *slog.Logger
}

func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

func (l *Ledger) Reserve(ctx context.Context, products store.Products, productID string, quantity int) error {
	product, err := products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product %s: %w", productID, err)
	}

	if product == nil {
		return ErrProductNotFound
	}
	if !product.IsFinished() {
		return ErrProductUnfinished
	}
	if !product.HasEnough(0, quantity) {
		return ErrInsufficientStock
	}

	if err := products.SetProductQuantity(ctx, productID, *product.Quantity-quantity); err != nil {
		return fmt.Errorf("update stock of product %s: %w", productID, err)
	}

	return nil
}

// Release returns stock to a product. A product that was deleted in the
// meantime is skipped, and a product whose quantity was cleared restarts
// from zero.
func (l *Ledger) Release(ctx context.Context, products store.Products, productID string, quantity int) error {
	product, err := products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product %s: %w", productID, err)
	}

	if product == nil {
		l.logger.WarnContext(ctx, "skipping stock release for missing product", "product_id", productID, "quantity", quantity)
		return nil
	}

	current := 0
	if product.Quantity != nil {
		current = *product.Quantity
	}

	if err := products.SetProductQuantity(ctx, productID, current+quantity); err != nil {
		return fmt.Errorf("update stock of product %s: %w", productID, err)
	}

	return nil
}
