package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Reconciler applies order, customer and product observations to the store
// so that each external event is reflected exactly once.
type Reconciler struct {
	store     ports.ReconcileStore
	tenants   ports.TenantRepository
	publisher ports.TenantEventPublisher
	metrics   ports.MetricsRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(
	store ports.ReconcileStore,
	tenants ports.TenantRepository,
	publisher ports.TenantEventPublisher,
	metrics ports.MetricsRecorder,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		store:     store,
		tenants:   tenants,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// ResolveTenant finds the tenant a shop is linked to.
// Returns ErrUnknownTenant when no tenant owns the shop.
func (r *Reconciler) ResolveTenant(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	shop := domain.NormalizeShopDomain(shopDomain)
	if shop == "" {
		return nil, domain.ErrUnknownTenant
	}
	tenant, err := r.tenants.GetByShopDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant for %s: %w", shop, err)
	}
	if tenant == nil {
		return nil, domain.ErrUnknownTenant
	}
	return tenant, nil
}

// Apply reconciles one order event for an already resolved tenant.
//
// The order row is created or has price and currency overwritten. When the
// event carries a customer, the order is first claimed in the applied-order
// ledger. A vendor snapshot always overwrites the customer totals; without
// one, the order total is added only if this call made the claim.
func (r *Reconciler) Apply(ctx context.Context, source domain.ReconcileSource, event domain.OrderEvent) (domain.ReconcileResult, error) {
	result := domain.ReconcileResult{TenantID: event.TenantID, Customer: domain.CustomerNone}
	if event.TenantID == "" {
		return result, domain.ErrUnknownTenant
	}
	if err := event.Validate(); err != nil {
		r.metrics.Reconciled(source, "invalid")
		return result, err
	}

	err := r.store.InTx(ctx, func(tx ports.ReconcileTx) error {
		created, err := tx.UpsertOrder(ctx, &domain.Order{
			ExternalOrderID: event.ExternalOrderID,
			TenantID:        event.TenantID,
			TotalPrice:      event.TotalPrice,
			Currency:        event.Currency,
			CreatedAt:       event.CreatedAt,
		})
		if err != nil {
			return err
		}
		result.OrderCreated = created

		if event.Customer == nil {
			return nil
		}
		update, err := applyCustomer(ctx, tx, event)
		if err != nil {
			return err
		}
		result.Customer = update
		return nil
	})
	if errors.Is(err, domain.ErrForeignRecord) {
		r.metrics.Reconciled(source, "foreign")
		r.logger.Warn().
			Str("source", string(source)).
			Str("tenantId", event.TenantID).
			Str("orderId", event.ExternalOrderID).
			Msg("Order or customer owned by another tenant, skipped")
		return result, fmt.Errorf("failed to reconcile order %s: %w", event.ExternalOrderID, err)
	}
	if err != nil {
		r.metrics.Reconciled(source, "error")
		return result, fmt.Errorf("failed to reconcile order %s: %w", event.ExternalOrderID, err)
	}

	r.metrics.Reconciled(source, string(result.Customer))
	r.logger.Debug().
		Str("source", string(source)).
		Str("tenantId", event.TenantID).
		Str("orderId", event.ExternalOrderID).
		Bool("orderCreated", result.OrderCreated).
		Str("customer", string(result.Customer)).
		Msg("Order reconciled")
	return result, nil
}

func applyCustomer(ctx context.Context, tx ports.ReconcileTx, event domain.OrderEvent) (domain.CustomerUpdate, error) {
	summary := event.Customer
	claimed, err := tx.ClaimOrderForCustomer(ctx, event.TenantID, event.ExternalOrderID, summary.ExternalCustomerID)
	if err != nil {
		return domain.CustomerNone, err
	}

	customer := &domain.Customer{
		ExternalCustomerID: summary.ExternalCustomerID,
		TenantID:           event.TenantID,
		Email:              summary.Email,
	}

	if summary.HasSnapshot() {
		customer.TotalSpent = *summary.TotalSpent
		customer.OrdersCount = *summary.OrdersCount
		if err := tx.UpsertCustomerSnapshot(ctx, customer); err != nil {
			return domain.CustomerNone, err
		}
		return domain.CustomerOverwritten, nil
	}

	if err := tx.EnsureCustomer(ctx, customer); err != nil {
		return domain.CustomerNone, err
	}
	if !claimed {
		return domain.CustomerReplay, nil
	}
	if err := tx.IncrementCustomerTotals(ctx, event.TenantID, summary.ExternalCustomerID, event.TotalPrice, 1); err != nil {
		return domain.CustomerNone, err
	}
	return domain.CustomerIncremented, nil
}

// ApplyWebhook resolves the tenant by shop domain, reconciles the order and
// broadcasts an order-synced event to the tenant's subscribers.
func (r *Reconciler) ApplyWebhook(ctx context.Context, shopDomain string, event domain.OrderEvent) (domain.ReconcileResult, error) {
	tenant, err := r.ResolveTenant(ctx, shopDomain)
	if err != nil {
		return domain.ReconcileResult{Customer: domain.CustomerNone}, err
	}
	event.TenantID = tenant.ID

	result, err := r.Apply(ctx, domain.SourceWebhook, event)
	if err != nil {
		return result, err
	}

	notice := domain.NewOrderSyncedEvent(tenant.ID, event.ExternalOrderID, r.now())
	if err := r.publisher.PublishTenantEvent(ctx, notice); err != nil {
		r.logger.Warn().Err(err).Str("tenantId", tenant.ID).Msg("Failed to publish tenant event")
	}
	return result, nil
}

// ApplyCustomerSnapshot overwrites a customer with vendor totals
func (r *Reconciler) ApplyCustomerSnapshot(ctx context.Context, customer domain.Customer) error {
	if customer.ExternalCustomerID == "" || customer.TenantID == "" {
		return fmt.Errorf("%w: customer id and tenant are required", domain.ErrMalformedPayload)
	}
	err := r.store.InTx(ctx, func(tx ports.ReconcileTx) error {
		return tx.UpsertCustomerSnapshot(ctx, &customer)
	})
	if err != nil {
		return fmt.Errorf("failed to store customer %s: %w", customer.ExternalCustomerID, err)
	}
	return nil
}

// ApplyProduct creates or retitles a product
func (r *Reconciler) ApplyProduct(ctx context.Context, product domain.Product) error {
	if product.ExternalProductID == "" || product.TenantID == "" {
		return fmt.Errorf("%w: product id and tenant are required", domain.ErrMalformedPayload)
	}
	err := r.store.InTx(ctx, func(tx ports.ReconcileTx) error {
		return tx.UpsertProduct(ctx, &product)
	})
	if err != nil {
		return fmt.Errorf("failed to store product %s: %w", product.ExternalProductID, err)
	}
	return nil
}

// IsAcknowledgeable reports whether a webhook error should be acknowledged
// as a no-op rather than treated as a processing failure.
func IsAcknowledgeable(err error) bool {
	return errors.Is(err, domain.ErrUnknownTenant) ||
		errors.Is(err, domain.ErrMalformedPayload) ||
		errors.Is(err, domain.ErrUnsupportedTopic) ||
		errors.Is(err, domain.ErrForeignRecord)
}

// EnsureCustomer creates the customer if missing without touching totals
func (r *Reconciler) EnsureCustomer(ctx context.Context, customer domain.Customer) error {
	if customer.ExternalCustomerID == "" || customer.TenantID == "" {
		return fmt.Errorf("%w: customer id and tenant are required", domain.ErrMalformedPayload)
	}
	err := r.store.InTx(ctx, func(tx ports.ReconcileTx) error {
		return tx.EnsureCustomer(ctx, &customer)
	})
	if err != nil {
		return fmt.Errorf("failed to store customer %s: %w", customer.ExternalCustomerID, err)
	}
	return nil
}
