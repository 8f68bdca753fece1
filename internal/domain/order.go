package domain

import "time"

type OrderState string

const (
	OrderStateActive      OrderState = "ACTIVE"
	OrderStateCanceled    OrderState = "CANCELED"
	OrderStatePayed       OrderState = "PAYED"
	OrderStateInvalidated OrderState = "INVALIDATED"
)

var validNext = map[OrderState]map[OrderState]bool{
	OrderStateActive:      {OrderStateCanceled: true, OrderStatePayed: true, OrderStateInvalidated: true},
	OrderStateCanceled:    {},
	OrderStatePayed:       {},
	OrderStateInvalidated: {},
}

func (s OrderState) CanTransition(to OrderState) bool {
	return validNext[s][to]
}

func (s OrderState) IsTerminal() bool {
	return len(validNext[s]) == 0
}

func (s OrderState) Valid() bool {
	_, ok := validNext[s]
	return ok
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type Order struct {
	ID        string      `json:"id"`
	Items     []OrderItem `json:"orderItems"`
	State     OrderState  `json:"state"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Reservation marks an ACTIVE order holding stock while it awaits payment.
type Reservation struct {
	OrderID   string    `json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}
