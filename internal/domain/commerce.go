package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a mirrored store order
type Order struct {
	ExternalOrderID string          `json:"shopifyOrderId"`
	TenantID        string          `json:"-"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Customer is a mirrored store customer with cumulative totals
type Customer struct {
	ExternalCustomerID string          `json:"shopifyCustomerId"`
	TenantID           string          `json:"-"`
	Email              string          `json:"email"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	OrdersCount        int             `json:"ordersCount"`
}

// Product is a mirrored store product
type Product struct {
	ExternalProductID string `json:"shopifyProductId"`
	TenantID          string `json:"-"`
	Title             string `json:"title"`
}

// SyncCounts is the number of items a bulk sync applied per kind
type SyncCounts struct {
	Products  int `json:"products"`
	Customers int `json:"customers"`
	Orders    int `json:"orders"`
}
