package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ProductHandler mirrors product create and update events
type ProductHandler struct {
	reconciler *application.Reconciler
	logger     zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(reconciler *application.Reconciler, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == domain.TopicProductsCreate || topic == domain.TopicProductsUpdate
}

// Handle processes a product webhook event
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var p productPayload
	if err := decode(event.Payload, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("%w: product id missing", domain.ErrMalformedPayload)
	}

	tenant, err := h.reconciler.ResolveTenant(ctx, event.Shop)
	if err != nil {
		return err
	}
	if err := h.reconciler.ApplyProduct(ctx, domain.Product{
		ExternalProductID: p.ID.String(),
		TenantID:          tenant.ID,
		Title:             p.Title,
	}); err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("productId", p.ID.String()).
		Msg("Product webhook stored")
	return nil
}
