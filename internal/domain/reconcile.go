package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileSource identifies which path delivered an order event
type ReconcileSource string

const (
	SourceSync    ReconcileSource = "sync"
	SourceWebhook ReconcileSource = "webhook"
)

// CustomerSummary is the customer block embedded in an order event.
// TotalSpent and OrdersCount are the vendor snapshot; nil means the payload did not carry it.
type CustomerSummary struct {
	ExternalCustomerID string
	Email              string
	TotalSpent         *decimal.Decimal
	OrdersCount        *int
}

// HasSnapshot reports whether the vendor supplied authoritative totals
func (c *CustomerSummary) HasSnapshot() bool {
	return c != nil && c.TotalSpent != nil && c.OrdersCount != nil
}

// OrderEvent is one order observation from either sync or webhook delivery
type OrderEvent struct {
	TenantID        string
	ExternalOrderID string
	TotalPrice      decimal.Decimal
	Currency        string
	CreatedAt       time.Time
	Customer        *CustomerSummary
}

// Validate checks required fields
func (e OrderEvent) Validate() error {
	if e.ExternalOrderID == "" {
		return fmt.Errorf("%w: missing order id", ErrMalformedPayload)
	}
	if e.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: negative total for order %s", ErrMalformedPayload, e.ExternalOrderID)
	}
	if e.Customer != nil && e.Customer.ExternalCustomerID == "" {
		return fmt.Errorf("%w: customer without id on order %s", ErrMalformedPayload, e.ExternalOrderID)
	}
	return nil
}

// CustomerUpdate describes what happened to the customer row
type CustomerUpdate string

const (
	CustomerNone        CustomerUpdate = "none"
	CustomerOverwritten CustomerUpdate = "snapshot"
	CustomerIncremented CustomerUpdate = "incremented"
	CustomerReplay      CustomerUpdate = "replay"
)

// ReconcileResult reports the effect of applying one order event
type ReconcileResult struct {
	TenantID     string
	OrderCreated bool
	Customer     CustomerUpdate
}
