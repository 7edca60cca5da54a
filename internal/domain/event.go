package domain

import "time"

// EventOrderSynced is broadcast after a webhook delivery stored an order
const EventOrderSynced = "order-synced"

// TenantEvent is a realtime notification scoped to one tenant
type TenantEvent struct {
	Type       string    `json:"type"`
	TenantID   string    `json:"tenantId"`
	OrderID    string    `json:"orderId,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewOrderSyncedEvent builds the event sent when a new order arrives via webhook
func NewOrderSyncedEvent(tenantID, orderID string, at time.Time) TenantEvent {
	return TenantEvent{
		Type:       EventOrderSynced,
		TenantID:   tenantID,
		OrderID:    orderID,
		Message:    "New order received",
		OccurredAt: at.UTC(),
	}
}
