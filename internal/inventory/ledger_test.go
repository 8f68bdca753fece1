package inventory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/store"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, s *store.Memory, products ...domain.Product) {
	t.Helper()
	err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for i := range products {
			if err := tx.InsertProduct(ctx, &products[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
}

func quantityOf(t *testing.T, s *store.Memory, id string) *int {
	t.Helper()
	var q *int
	_ = s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil || p == nil {
			t.Fatalf("expected product %s, got %v, %v", id, p, err)
		}
		q = p.Quantity
		return nil
	})
	return q
}

func TestLedger_Reserve(t *testing.T) {
	ledger := NewLedger(discardLogger())

	tests := []struct {
		name      string
		productID string
		quantity  int
		wantErr   error
		wantLeft  int
	}{
		{name: "decrements stock", productID: "p1", quantity: 2, wantLeft: 3},
		{name: "takes the whole stock", productID: "p1", quantity: 5, wantLeft: 0},
		{name: "insufficient stock", productID: "p1", quantity: 6, wantErr: ErrInsufficientStock, wantLeft: 5},
		{name: "unknown product", productID: "missing", quantity: 1, wantErr: ErrProductNotFound},
		{name: "product without price", productID: "unpriced", quantity: 1, wantErr: ErrProductUnfinished},
		{name: "product without quantity", productID: "unstocked", quantity: 1, wantErr: ErrProductUnfinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			seed(t, s,
				domain.Product{ID: "p1", Name: "Test Product 1", Price: decPtr("13.12"), Quantity: intPtr(5)},
				domain.Product{ID: "unpriced", Name: "Unpriced", Quantity: intPtr(5)},
				domain.Product{ID: "unstocked", Name: "Unstocked", Price: decPtr("1.00")},
			)

			err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
				return ledger.Reserve(ctx, tx, tt.productID, tt.quantity)
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}

			if tt.productID == "p1" {
				if got := *quantityOf(t, s, "p1"); got != tt.wantLeft {
					t.Errorf("expected %d left, got %d", tt.wantLeft, got)
				}
			}
		})
	}
}

func TestLedger_Release(t *testing.T) {
	ledger := NewLedger(discardLogger())

	t.Run("increments stock", func(t *testing.T) {
		s := store.NewMemory()
		seed(t, s, domain.Product{ID: "p1", Name: "p", Price: decPtr("1"), Quantity: intPtr(3)})

		err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return ledger.Release(ctx, tx, "p1", 2)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := *quantityOf(t, s, "p1"); got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})

	t.Run("skips missing product", func(t *testing.T) {
		s := store.NewMemory()
		err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return ledger.Release(ctx, tx, "gone", 2)
		})
		if err != nil {
			t.Fatalf("expected lenient release, got %v", err)
		}
	})

	t.Run("restarts cleared quantity from zero", func(t *testing.T) {
		s := store.NewMemory()
		seed(t, s, domain.Product{ID: "p1", Name: "p", Price: decPtr("1")})

		err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return ledger.Release(ctx, tx, "p1", 4)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := quantityOf(t, s, "p1"); got == nil || *got != 4 {
			t.Errorf("expected 4, got %v", got)
		}
	})
}
