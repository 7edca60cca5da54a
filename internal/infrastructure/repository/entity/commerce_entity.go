package entity

import (
	"time"

	"shopify-insights-layer/internal/domain"

	"github.com/shopspring/decimal"
)

// OrderModel represents a mirrored order row
type OrderModel struct {
	ID              uint            `gorm:"primaryKey"`
	ExternalOrderID string          `gorm:"size:64;not null;uniqueIndex"`
	TenantID        string          `gorm:"type:uuid;not null;index:idx_orders_tenant_created,priority:1"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Currency        string          `gorm:"size:8"`
	CreatedAt       time.Time       `gorm:"index:idx_orders_tenant_created,priority:2"`
}

func (OrderModel) TableName() string { return "orders" }

// ToDomain converts the row to a domain entity
func (m *OrderModel) ToDomain() domain.Order {
	return domain.Order{
		ExternalOrderID: m.ExternalOrderID,
		TenantID:        m.TenantID,
		TotalPrice:      m.TotalPrice,
		Currency:        m.Currency,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

// OrderModelFromDomain converts a domain entity to a row, normalizing time to UTC
func OrderModelFromDomain(o *domain.Order) *OrderModel {
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &OrderModel{
		ExternalOrderID: o.ExternalOrderID,
		TenantID:        o.TenantID,
		TotalPrice:      o.TotalPrice,
		Currency:        o.Currency,
		CreatedAt:       createdAt.UTC(),
	}
}

// CustomerModel represents a mirrored customer row
type CustomerModel struct {
	ID                 uint            `gorm:"primaryKey"`
	ExternalCustomerID string          `gorm:"size:64;not null;uniqueIndex"`
	TenantID           string          `gorm:"type:uuid;not null;index"`
	Email              string          `gorm:"size:320"`
	TotalSpent         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OrdersCount        int             `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (CustomerModel) TableName() string { return "customers" }

// ToDomain converts the row to a domain entity
func (m *CustomerModel) ToDomain() domain.Customer {
	return domain.Customer{
		ExternalCustomerID: m.ExternalCustomerID,
		TenantID:           m.TenantID,
		Email:              m.Email,
		TotalSpent:         m.TotalSpent,
		OrdersCount:        m.OrdersCount,
	}
}

// CustomerModelFromDomain converts a domain entity to a row
func CustomerModelFromDomain(c *domain.Customer) *CustomerModel {
	return &CustomerModel{
		ExternalCustomerID: c.ExternalCustomerID,
		TenantID:           c.TenantID,
		Email:              c.Email,
		TotalSpent:         c.TotalSpent,
		OrdersCount:        c.OrdersCount,
	}
}

// ProductModel represents a mirrored product row
type ProductModel struct {
	ID                uint   `gorm:"primaryKey"`
	ExternalProductID string `gorm:"size:64;not null;uniqueIndex"`
	TenantID          string `gorm:"type:uuid;not null;index"`
	Title             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ProductModel) TableName() string { return "products" }

// ToDomain converts the row to a domain entity
func (m *ProductModel) ToDomain() domain.Product {
	return domain.Product{
		ExternalProductID: m.ExternalProductID,
		TenantID:          m.TenantID,
		Title:             m.Title,
	}
}

// CustomerOrderApplication is the ledger of orders already counted into a customer's totals
type CustomerOrderApplication struct {
	ExternalOrderID    string `gorm:"size:64;primaryKey"`
	ExternalCustomerID string `gorm:"size:64;not null;index"`
	TenantID           string `gorm:"type:uuid;not null"`
	AppliedAt          time.Time
}

func (CustomerOrderApplication) TableName() string { return "customer_order_applications" }

// All lists every model for migrations
func All() []any {
	return []any{
		&TenantModel{},
		&OrderModel{},
		&CustomerModel{},
		&ProductModel{},
		&CustomerOrderApplication{},
	}
}
