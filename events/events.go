// Package events defines the order lifecycle messages the gateway emits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderSubmitted Type = "order.submitted"
	OrderApproved  Type = "order.approved"
	OrderRejected  Type = "order.rejected"
	OrderCancelled Type = "order.cancelled"
)

type Item struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type OrderEvent struct {
	EventID       string    `json:"event_id"`
	Type          Type      `json:"type"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id,omitempty"`
	TotalQuantity int       `json:"total_quantity"`
	TotalAmount   int64     `json:"total_amount"`
	Items         []Item    `json:"items,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewOrderEvent(eventType Type, orderID string) OrderEvent {
	return OrderEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc func(ctx context.Context, event OrderEvent) error

func (f PublisherFunc) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	return f(ctx, event)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, OrderEvent) error { return nil })
