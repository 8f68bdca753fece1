package orders

import (
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderNotActive = errors.New("order is no longer active")
	ErrEmptyOrder     = errors.New("order has no items")
)

var (
	ErrCannotPayCanceledOrder    = &domain.PaymentError{Code: domain.ErrCodeCannotPayCanceledOrder}
	ErrCannotPayInvalidatedOrder = &domain.PaymentError{Code: domain.ErrCodeCannotPayInvalidatedOrder}
	ErrAlreadyPayed              = &domain.PaymentError{Code: domain.ErrCodeAlreadyPayed}
	ErrWrongAmount               = &domain.PaymentError{Code: domain.ErrCodeWrongAmount}
	ErrOrderNotPayable           = &domain.PaymentError{Code: domain.ErrCodeOrderNotPayable}
)

// ValidationError rejects a whole order. Errors holds one entry per failing
// item, in request order.
type ValidationError struct {
	Errors []domain.CreateOrderError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order rejected: %d invalid item(s)", len(e.Errors))
}
