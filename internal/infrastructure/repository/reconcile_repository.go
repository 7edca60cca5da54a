package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository/entity"
	"shopify-insights-layer/internal/ports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReconcileStore runs reconciliation writes in a database transaction
type GormReconcileStore struct {
	db *gorm.DB
}

// NewReconcileStore creates a new reconcile store
func NewReconcileStore(db *gorm.DB) ports.ReconcileStore {
	return &GormReconcileStore{db: db}
}

// InTx runs fn in a transaction; any error rolls every write back
func (s *GormReconcileStore) InTx(ctx context.Context, fn func(tx ports.ReconcileTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormReconcileTx{db: tx})
	})
}

type gormReconcileTx struct {
	db *gorm.DB
}

// sameTenant limits an ON CONFLICT update to rows the writer already owns
func sameTenant(table string) clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: table + ".tenant_id = excluded.tenant_id"},
	}}
}

// checkOwner fails with ErrForeignRecord when the keyed row exists under another tenant
func (t *gormReconcileTx) checkOwner(ctx context.Context, model any, column, id, tenantID string) error {
	var owners []string
	err := t.db.WithContext(ctx).Model(model).
		Where(column+" = ?", id).
		Limit(1).
		Pluck("tenant_id", &owners).Error
	if err != nil {
		return fmt.Errorf("failed to load owner of %s: %w", id, err)
	}
	if len(owners) == 1 && owners[0] != tenantID {
		return fmt.Errorf("%s %s: %w", column, id, domain.ErrForeignRecord)
	}
	return nil
}

func (t *gormReconcileTx) UpsertOrder(ctx context.Context, order *domain.Order) (bool, error) {
	row := entity.OrderModelFromDomain(order)
	res := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_order_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert order %s: %w", order.ExternalOrderID, res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Existing row keeps its tenant and creation time
	res = t.db.WithContext(ctx).Model(&entity.OrderModel{}).
		Where("external_order_id = ? AND tenant_id = ?", order.ExternalOrderID, order.TenantID).
		Updates(map[string]any{
			"total_price": order.TotalPrice,
			"currency":    order.Currency,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update order %s: %w", order.ExternalOrderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, fmt.Errorf("order %s: %w", order.ExternalOrderID, domain.ErrForeignRecord)
	}
	return false, nil
}

func (t *gormReconcileTx) ClaimOrderForCustomer(ctx context.Context, tenantID, externalOrderID, externalCustomerID string) (bool, error) {
	row := &entity.CustomerOrderApplication{
		ExternalOrderID:    externalOrderID,
		ExternalCustomerID: externalCustomerID,
		TenantID:           tenantID,
		AppliedAt:          time.Now().UTC(),
	}
	res := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_order_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim order %s: %w", externalOrderID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (t *gormReconcileTx) EnsureCustomer(ctx context.Context, customer *domain.Customer) error {
	row := entity.CustomerModelFromDomain(customer)
	row.TotalSpent = decimal.Zero
	row.OrdersCount = 0

	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "external_customer_id"}}, DoNothing: true}
	if customer.Email != "" {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
			Where:     sameTenant("customers"),
		}
	}
	if err := t.db.WithContext(ctx).Clauses(conflict).Create(row).Error; err != nil {
		return fmt.Errorf("failed to ensure customer %s: %w", customer.ExternalCustomerID, err)
	}
	return t.checkOwner(ctx, &entity.CustomerModel{}, "external_customer_id", customer.ExternalCustomerID, customer.TenantID)
}

func (t *gormReconcileTx) UpsertCustomerSnapshot(ctx context.Context, customer *domain.Customer) error {
	updates := []string{"total_spent", "orders_count", "updated_at"}
	if customer.Email != "" {
		updates = append(updates, "email")
	}
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_customer_id"}},
			DoUpdates: clause.AssignmentColumns(updates),
			Where:     sameTenant("customers"),
		}).
		Create(entity.CustomerModelFromDomain(customer)).Error
	if err != nil {
		return fmt.Errorf("failed to upsert customer %s: %w", customer.ExternalCustomerID, err)
	}
	return t.checkOwner(ctx, &entity.CustomerModel{}, "external_customer_id", customer.ExternalCustomerID, customer.TenantID)
}

func (t *gormReconcileTx) IncrementCustomerTotals(ctx context.Context, tenantID, externalCustomerID string, spent decimal.Decimal, orders int) error {
	res := t.db.WithContext(ctx).Model(&entity.CustomerModel{}).
		Where("external_customer_id = ? AND tenant_id = ?", externalCustomerID, tenantID).
		Updates(map[string]any{
			"total_spent":  gorm.Expr("total_spent + ?", spent),
			"orders_count": gorm.Expr("orders_count + ?", orders),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment customer %s: %w", externalCustomerID, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := t.checkOwner(ctx, &entity.CustomerModel{}, "external_customer_id", externalCustomerID, tenantID); err != nil {
			return err
		}
		return fmt.Errorf("failed to increment customer %s: no such customer", externalCustomerID)
	}
	return nil
}

func (t *gormReconcileTx) UpsertProduct(ctx context.Context, product *domain.Product) error {
	row := &entity.ProductModel{
		ExternalProductID: product.ExternalProductID,
		TenantID:          product.TenantID,
		Title:             product.Title,
	}
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
			Where:     sameTenant("products"),
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ExternalProductID, err)
	}
	return t.checkOwner(ctx, &entity.ProductModel{}, "external_product_id", product.ExternalProductID, product.TenantID)
}
