package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"

	"github.com/rs/zerolog"
)

// CustomerHandler applies customer snapshots from customer events
type CustomerHandler struct {
	reconciler *application.Reconciler
	logger     zerolog.Logger
}

// NewCustomerHandler creates a new customer webhook handler
func NewCustomerHandler(reconciler *application.Reconciler, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == domain.TopicCustomersCreate || topic == domain.TopicCustomersUpdate
}

// Handle processes a customer webhook event. Totals are overwritten only
// when the payload carries both of them.
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var c customerPayload
	if err := decode(event.Payload, &c); err != nil {
		return err
	}
	if c.ID == "" {
		return fmt.Errorf("%w: customer id missing", domain.ErrMalformedPayload)
	}

	tenant, err := h.reconciler.ResolveTenant(ctx, event.Shop)
	if err != nil {
		return err
	}

	customer := domain.Customer{
		ExternalCustomerID: c.ID.String(),
		TenantID:           tenant.ID,
		Email:              c.Email,
	}
	snapshot := c.TotalSpent != nil && c.OrdersCount != nil
	if snapshot {
		customer.TotalSpent = *c.TotalSpent
		customer.OrdersCount = *c.OrdersCount
		err = h.reconciler.ApplyCustomerSnapshot(ctx, customer)
	} else {
		err = h.reconciler.EnsureCustomer(ctx, customer)
	}
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("customerId", customer.ExternalCustomerID).
		Bool("snapshot", snapshot).
		Msg("Customer webhook stored")
	return nil
}
