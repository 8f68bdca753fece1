package domain

type CreateOrderErrorCode string

const (
	ErrCodeMissingQuantity          CreateOrderErrorCode = "MISSING_QUANTITY"
	ErrCodeInvalidQuantity          CreateOrderErrorCode = "INVALID_QUANTITY"
	ErrCodeInvalidProduct           CreateOrderErrorCode = "INVALID_PRODUCT"
	ErrCodeUnfinishedProduct        CreateOrderErrorCode = "UNFINISHED_PRODUCT"
	ErrCodeNotEnoughProductsOnStock CreateOrderErrorCode = "NOT_ENOUGH_PRODUCTS_ON_STOCK"
)

type CreateOrderError struct {
	ProductID string               `json:"productId"`
	Code      CreateOrderErrorCode `json:"errorCode"`
}

type PaymentErrorCode string

const (
	ErrCodeCannotPayCanceledOrder    PaymentErrorCode = "CANNOT_PAY_CANCELED_ORDER"
	ErrCodeCannotPayInvalidatedOrder PaymentErrorCode = "CANNOT_PAY_INVALIDATED_ORDER"
	ErrCodeAlreadyPayed              PaymentErrorCode = "ALREADY_PAYED"
	ErrCodeWrongAmount               PaymentErrorCode = "WRONG_AMOUNT"
	ErrCodeOrderNotPayable           PaymentErrorCode = "ORDER_NOT_PAYABLE"
)

// PaymentError is a rejected payment. The order is left untouched.
type PaymentError struct {
	Code PaymentErrorCode
}

func (e *PaymentError) Error() string {
	return "payment rejected: " + string(e.Code)
}

func (e *PaymentError) Is(target error) bool {
	t, ok := target.(*PaymentError)
	return ok && t.Code == e.Code
}
