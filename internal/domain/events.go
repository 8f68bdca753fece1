package domain

import "time"

type OrderEvent struct {
	OrderID   string      `json:"orderId"`
	State     OrderState  `json:"state"`
	Items     []OrderItem `json:"orderItems"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewOrderEvent(order *Order, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:   order.ID,
		State:     order.State,
		Items:     order.Items,
		Timestamp: at,
	}
}
