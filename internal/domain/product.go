package domain

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Limits match the products table: NUMERIC(19, 4) prices and INTEGER
// quantities.
const (
	MaxProductNameLength = 256
	MaxPriceScale        = 4
	MaxQuantity          = math.MaxInt32
)

// MaxPrice is the exclusive upper bound for a price.
var MaxPrice = decimal.New(1, 15)

var (
	ErrProductNameRequired = errors.New("name is required")
	ErrProductNameTooLong  = fmt.Errorf("name must be at most %d characters", MaxProductNameLength)
	ErrNegativePrice       = errors.New("price must not be negative")
	ErrPriceTooPrecise     = fmt.Errorf("price must have at most %d decimal places", MaxPriceScale)
	ErrPriceTooLarge       = fmt.Errorf("price must be less than %s", MaxPrice)
	ErrNegativeQuantity    = errors.New("quantity must not be negative")
	ErrQuantityTooLarge    = fmt.Errorf("quantity must be at most %d", MaxQuantity)
)

// Product is a stock-keeping unit. Quantity and Price are nil until the
// product is stocked and priced.
type Product struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Quantity *int             `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

// IsFinished reports whether the product can be ordered.
func (p *Product) IsFinished() bool {
	return p.Quantity != nil && p.Price != nil
}

// HasEnough reports whether qty more units fit in stock after taken units
// were already claimed. taken must not exceed the stocked quantity.
func (p *Product) HasEnough(taken, qty int) bool {
	return p.Quantity != nil && qty <= *p.Quantity-taken
}

func (p *Product) Validate() error {
	var errs []error

	switch n := utf8.RuneCountInString(p.Name); {
	case n == 0:
		errs = append(errs, ErrProductNameRequired)
	case n > MaxProductNameLength:
		errs = append(errs, ErrProductNameTooLong)
	}

	if p.Price != nil {
		switch {
		case p.Price.IsNegative():
			errs = append(errs, ErrNegativePrice)
		case p.Price.GreaterThanOrEqual(MaxPrice):
			errs = append(errs, ErrPriceTooLarge)
		}
		if !p.Price.Equal(p.Price.Truncate(MaxPriceScale)) {
			errs = append(errs, ErrPriceTooPrecise)
		}
	}

	if p.Quantity != nil {
		switch {
		case *p.Quantity < 0:
			errs = append(errs, ErrNegativeQuantity)
		case *p.Quantity > MaxQuantity:
			errs = append(errs, ErrQuantityTooLarge)
		}
	}

	return errors.Join(errs...)
}
