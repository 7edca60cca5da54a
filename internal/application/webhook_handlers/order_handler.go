package webhook_handlers

import (
	"context"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"

	"github.com/rs/zerolog"
)

// OrderHandler reconciles order webhook events
type OrderHandler struct {
	reconciler *application.Reconciler
	logger     zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(reconciler *application.Reconciler, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == domain.TopicOrdersCreate ||
		topic == domain.TopicOrdersUpdated ||
		topic == domain.TopicOrdersPaid
}

// Handle processes an order webhook event
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	order, err := parseOrderEvent(event.Payload)
	if err != nil {
		return err
	}

	result, err := h.reconciler.ApplyWebhook(ctx, event.Shop, order)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("orderId", order.ExternalOrderID).
		Bool("created", result.OrderCreated).
		Str("customer", string(result.Customer)).
		Msg("Order webhook reconciled")
	return nil
}
