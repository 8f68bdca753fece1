package domain

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		wantErr error
	}{
		{
			name:    "finished product",
			product: Product{Name: "Test Product 1", Price: decPtr("13.12"), Quantity: intPtr(5)},
		},
		{
			name:    "unfinished product without price and quantity",
			product: Product{Name: "Draft"},
		},
		{
			name:    "zero price and quantity",
			product: Product{Name: "Free", Price: decPtr("0"), Quantity: intPtr(0)},
		},
		{
			name:    "empty name",
			product: Product{Price: decPtr("1")},
			wantErr: ErrProductNameRequired,
		},
		{
			name:    "name at limit",
			product: Product{Name: strings.Repeat("a", MaxProductNameLength)},
		},
		{
			name:    "name over limit",
			product: Product{Name: strings.Repeat("a", MaxProductNameLength+1)},
			wantErr: ErrProductNameTooLong,
		},
		{
			name:    "negative price",
			product: Product{Name: "p", Price: decPtr("-0.01")},
			wantErr: ErrNegativePrice,
		},
		{
			name:    "price with four decimals",
			product: Product{Name: "p", Price: decPtr("1.0001")},
		},
		{
			name:    "trailing zeros beyond four decimals",
			product: Product{Name: "p", Price: decPtr("1.000100")},
		},
		{
			name:    "price with five decimals",
			product: Product{Name: "p", Price: decPtr("1.00005")},
			wantErr: ErrPriceTooPrecise,
		},
		{
			name:    "largest price",
			product: Product{Name: "p", Price: decPtr("999999999999999.9999")},
		},
		{
			name:    "price too large",
			product: Product{Name: "p", Price: decPtr("1000000000000000")},
			wantErr: ErrPriceTooLarge,
		},
		{
			name:    "quantity too large",
			product: Product{Name: "p", Quantity: intPtr(MaxQuantity + 1)},
			wantErr: ErrQuantityTooLarge,
		},
		{
			name:    "negative quantity",
			product: Product{Name: "p", Quantity: intPtr(-1)},
			wantErr: ErrNegativeQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestProduct_IsFinished(t *testing.T) {
	t.Run("requires price and quantity", func(t *testing.T) {
		if (&Product{Quantity: intPtr(1)}).IsFinished() {
			t.Error("product without price should not be finished")
		}
		if (&Product{Price: decPtr("1")}).IsFinished() {
			t.Error("product without quantity should not be finished")
		}
		if !(&Product{Price: decPtr("1"), Quantity: intPtr(0)}).IsFinished() {
			t.Error("priced and stocked product should be finished")
		}
	})

	t.Run("has enough", func(t *testing.T) {
		p := &Product{Price: decPtr("1"), Quantity: intPtr(3)}
		if !p.HasEnough(0, 3) {
			t.Error("expected 3 of 3 to be enough")
		}
		if p.HasEnough(0, 4) {
			t.Error("expected 4 of 3 not to be enough")
		}
		if p.HasEnough(1, 3) {
			t.Error("expected 3 more after 1 taken not to be enough")
		}
		if p.HasEnough(2, math.MaxInt) {
			t.Error("expected a huge request on top of taken stock not to be enough")
		}
	})
}

func TestOrderState_CanTransition(t *testing.T) {
	terminal := []OrderState{OrderStateCanceled, OrderStatePayed, OrderStateInvalidated}

	for _, to := range terminal {
		if !OrderStateActive.CanTransition(to) {
			t.Errorf("expected ACTIVE -> %s to be allowed", to)
		}
	}

	for _, from := range terminal {
		if !from.IsTerminal() {
			t.Errorf("expected %s to be terminal", from)
		}
		for _, to := range append(terminal, OrderStateActive) {
			if from.CanTransition(to) {
				t.Errorf("expected %s -> %s to be rejected", from, to)
			}
		}
	}

	if OrderState("SHIPPED").Valid() {
		t.Error("unknown state should not be valid")
	}
}

func TestPaymentError_Is(t *testing.T) {
	err := &PaymentError{Code: ErrCodeWrongAmount}
	if !errors.Is(err, &PaymentError{Code: ErrCodeWrongAmount}) {
		t.Error("expected errors with the same code to match")
	}
	if errors.Is(err, &PaymentError{Code: ErrCodeAlreadyPayed}) {
		t.Error("expected errors with different codes not to match")
	}
}
