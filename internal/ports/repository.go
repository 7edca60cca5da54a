package ports

import (
	"context"

	"shopify-insights-layer/internal/domain"

	"github.com/shopspring/decimal"
)

// ReconcileStore runs reconciliation steps inside a single transaction
type ReconcileStore interface {
	InTx(ctx context.Context, fn func(tx ReconcileTx) error) error
}

// ReconcileTx is the set of keyed writes available inside a reconciliation.
// Every write is an identifier-keyed upsert or an atomic update. A write that
// would touch a row owned by another tenant fails with domain.ErrForeignRecord.
type ReconcileTx interface {
	// UpsertOrder creates the order or overwrites price and currency.
	// created is true when the row did not exist before.
	UpsertOrder(ctx context.Context, order *domain.Order) (created bool, err error)

	// ClaimOrderForCustomer records that the order's totals were applied to the
	// customer. claimed is false when the order id was already in the ledger.
	ClaimOrderForCustomer(ctx context.Context, tenantID, externalOrderID, externalCustomerID string) (claimed bool, err error)

	// EnsureCustomer creates the customer with zero totals if it does not exist.
	// A non-empty email refreshes the stored one.
	EnsureCustomer(ctx context.Context, customer *domain.Customer) error

	// UpsertCustomerSnapshot creates or overwrites the customer with vendor totals
	UpsertCustomerSnapshot(ctx context.Context, customer *domain.Customer) error

	// IncrementCustomerTotals adds one order's delta in a single UPDATE
	IncrementCustomerTotals(ctx context.Context, tenantID, externalCustomerID string, spent decimal.Decimal, orders int) error

	UpsertProduct(ctx context.Context, product *domain.Product) error
}

// StatsRepository answers the read-only dashboard queries
type StatsRepository interface {
	SalesSummary(ctx context.Context, tenantID string, q domain.StatsQuery) (total decimal.Decimal, count int64, err error)
	CountProducts(ctx context.Context, tenantID string) (int64, error)
	CountCustomers(ctx context.Context, tenantID string) (int64, error)
	RecentOrders(ctx context.Context, tenantID string, q domain.StatsQuery, limit int) ([]domain.Order, error)
	OrdersInRange(ctx context.Context, tenantID string, q domain.StatsQuery) ([]domain.Order, error)
	TopCustomers(ctx context.Context, tenantID string, limit int) ([]domain.Customer, error)
}

// WebhookAuditLog stores received deliveries for later inspection
type WebhookAuditLog interface {
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDeduper remembers delivery ids that were fully processed
type WebhookDeduper interface {
	Seen(ctx context.Context, deliveryID string) (bool, error)
	Mark(ctx context.Context, deliveryID string) error
}
