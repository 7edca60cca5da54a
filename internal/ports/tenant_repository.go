package ports

import (
	"context"
	"time"

	"shopify-insights-layer/internal/domain"
)

// TenantRepository defines the interface for tenant persistence.
// Lookups return (nil, nil) when nothing matches.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Tenant, error)
	GetByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error)

	// LinkStore sets shop domain and encrypted token together
	LinkStore(ctx context.Context, tenantID, shopDomain, accessTokenEnc string, installedAt time.Time) error

	// UnlinkStore clears shop domain and token together
	UnlinkStore(ctx context.Context, tenantID string) error
}
