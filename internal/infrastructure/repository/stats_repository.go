package repository

import (
	"context"
	"fmt"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository/entity"
	"shopify-insights-layer/internal/ports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStatsRepository answers dashboard reads
type GormStatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) ports.StatsRepository {
	return &GormStatsRepository{db: db}
}

// ordersFor scopes the orders table to a tenant and, when set, a half-open date range
func (r *GormStatsRepository) ordersFor(ctx context.Context, tenantID string, q domain.StatsQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&entity.OrderModel{}).Where("tenant_id = ?", tenantID)
	if q.HasRange() {
		tx = tx.Where("created_at >= ? AND created_at < ?", q.From.UTC(), q.To.UTC())
	}
	return tx
}

// SalesSummary returns the sum of order totals and the order count
func (r *GormStatsRepository) SalesSummary(ctx context.Context, tenantID string, q domain.StatsQuery) (decimal.Decimal, int64, error) {
	var out struct {
		Total decimal.Decimal
		Count int64
	}
	err := r.ordersFor(ctx, tenantID, q).
		Select("COALESCE(SUM(total_price), 0) AS total, COUNT(*) AS count").
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to summarize sales: %w", err)
	}
	return out.Total, out.Count, nil
}

// CountProducts counts the tenant's products
func (r *GormStatsRepository) CountProducts(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entity.ProductModel{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// CountCustomers counts the tenant's customers
func (r *GormStatsRepository) CountCustomers(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entity.CustomerModel{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

// RecentOrders returns the newest orders in the range, newest first
func (r *GormStatsRepository) RecentOrders(ctx context.Context, tenantID string, q domain.StatsQuery, limit int) ([]domain.Order, error) {
	var rows []entity.OrderModel
	err := r.ordersFor(ctx, tenantID, q).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	return toOrders(rows), nil
}

// OrdersInRange returns every order in the range, oldest first
func (r *GormStatsRepository) OrdersInRange(ctx context.Context, tenantID string, q domain.StatsQuery) ([]domain.Order, error) {
	var rows []entity.OrderModel
	err := r.ordersFor(ctx, tenantID, q).
		Select("external_order_id", "total_price", "currency", "created_at").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return toOrders(rows), nil
}

// TopCustomers returns the customers with the highest total spend
func (r *GormStatsRepository) TopCustomers(ctx context.Context, tenantID string, limit int) ([]domain.Customer, error) {
	var rows []entity.CustomerModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("total_spent DESC").
		Order("external_customer_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top customers: %w", err)
	}
	out := make([]domain.Customer, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func toOrders(rows []entity.OrderModel) []domain.Order {
	out := make([]domain.Order, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out
}
