package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository/entity"
	"shopify-insights-layer/internal/ports"

	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository on a relational store
type GormTenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) ports.TenantRepository {
	return &GormTenantRepository{db: db}
}

// Create inserts a tenant and fills its generated id and timestamps
func (r *GormTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	row := entity.TenantModelFromDomain(tenant)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	*tenant = *row.ToDomain()
	return nil
}

// GetByID retrieves a tenant by id
func (r *GormTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail retrieves a tenant by login email
func (r *GormTenantRepository) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByShopDomain retrieves the tenant a shop is linked to
func (r *GormTenantRepository) GetByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	return r.first(ctx, "shop_domain = ?", shopDomain)
}

func (r *GormTenantRepository) first(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	var row entity.TenantModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return row.ToDomain(), nil
}

// LinkStore sets shop domain, encrypted token and install time in one statement
func (r *GormTenantRepository) LinkStore(ctx context.Context, tenantID, shopDomain, accessTokenEnc string, installedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.TenantModel{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"shop_domain":      shopDomain,
			"access_token_enc": accessTokenEnc,
			"installed_at":     installedAt.UTC(),
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrShopAlreadyLinked
		}
		return fmt.Errorf("failed to link store: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

// UnlinkStore clears shop domain and token together
func (r *GormTenantRepository) UnlinkStore(ctx context.Context, tenantID string) error {
	res := r.db.WithContext(ctx).Model(&entity.TenantModel{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"shop_domain":      nil,
			"access_token_enc": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to unlink store: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}
