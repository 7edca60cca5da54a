package webhook_handlers

import (
	"context"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler unlinks the store when the app is removed
type AppUninstalledHandler struct {
	tenants *application.TenantService
	logger  zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(tenants *application.TenantService, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		tenants: tenants,
		logger:  logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle processes an app uninstalled webhook event.
// Mirrored orders, customers and products are kept for reporting.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var shopData struct {
		Domain          string `json:"domain"`
		MyshopifyDomain string `json:"myshopify_domain"`
	}
	if err := decode(event.Payload, &shopData); err != nil {
		return err
	}

	shopDomain := event.Shop
	if shopDomain == "" {
		shopDomain = shopData.MyshopifyDomain
	}
	if shopDomain == "" {
		shopDomain = shopData.Domain
	}

	if err := h.tenants.DisconnectShop(ctx, shopDomain); err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("App uninstalled - store unlinked")
	return nil
}
