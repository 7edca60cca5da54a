package webhook_handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"shopify-insights-layer/internal/domain"

	"github.com/shopspring/decimal"
)

// orderPayload is the subset of the order webhook body we store.
// Pointer fields distinguish an absent value from a zero.
type orderPayload struct {
	ID         json.Number      `json:"id"`
	TotalPrice *decimal.Decimal `json:"total_price"`
	Currency   string           `json:"currency"`
	CreatedAt  *time.Time       `json:"created_at"`
	Email      string           `json:"email"`
	Customer   *customerPayload `json:"customer"`
}

type customerPayload struct {
	ID          json.Number      `json:"id"`
	Email       string           `json:"email"`
	TotalSpent  *decimal.Decimal `json:"total_spent"`
	OrdersCount *int             `json:"orders_count"`
}

type productPayload struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return nil
}

// parseOrderEvent decodes an order webhook into an order event without a tenant
func parseOrderEvent(payload []byte) (domain.OrderEvent, error) {
	var p orderPayload
	if err := decode(payload, &p); err != nil {
		return domain.OrderEvent{}, err
	}
	if p.ID == "" {
		return domain.OrderEvent{}, fmt.Errorf("%w: order id missing", domain.ErrMalformedPayload)
	}
	if p.TotalPrice == nil {
		return domain.OrderEvent{}, fmt.Errorf("%w: total_price missing on order %s", domain.ErrMalformedPayload, p.ID)
	}

	event := domain.OrderEvent{
		ExternalOrderID: p.ID.String(),
		TotalPrice:      *p.TotalPrice,
		Currency:        p.Currency,
		CreatedAt:       time.Now().UTC(),
	}
	if p.CreatedAt != nil {
		event.CreatedAt = p.CreatedAt.UTC()
	}
	if c := p.Customer; c != nil && c.ID != "" {
		email := c.Email
		if email == "" {
			email = p.Email
		}
		summary := &domain.CustomerSummary{
			ExternalCustomerID: c.ID.String(),
			Email:              email,
		}
		if c.TotalSpent != nil && c.OrdersCount != nil {
			summary.TotalSpent = c.TotalSpent
			summary.OrdersCount = c.OrdersCount
		}
		event.Customer = summary
	}
	return event, nil
}
