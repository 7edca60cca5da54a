package application

import (
	"strconv"
	"time"

	"shopify-insights-layer/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/shopspring/decimal"
)

func externalID(id uint64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(id, 10)
}

// OrderEventFromShopify maps an Admin API order to an order event
func OrderEventFromShopify(tenantID string, o goshopify.Order) domain.OrderEvent {
	event := domain.OrderEvent{
		TenantID:        tenantID,
		ExternalOrderID: externalID(o.Id),
		TotalPrice:      decimal.Zero,
		Currency:        o.Currency,
	}
	if o.TotalPrice != nil {
		event.TotalPrice = *o.TotalPrice
	}
	if o.CreatedAt != nil {
		event.CreatedAt = o.CreatedAt.UTC()
	} else {
		event.CreatedAt = time.Now().UTC()
	}
	if c := o.Customer; c != nil && c.Id != 0 {
		summary := &domain.CustomerSummary{
			ExternalCustomerID: externalID(c.Id),
			Email:              c.Email,
		}
		if c.TotalSpent != nil {
			spent := *c.TotalSpent
			count := c.OrdersCount
			summary.TotalSpent = &spent
			summary.OrdersCount = &count
		}
		event.Customer = summary
	}
	return event
}

// CustomerFromShopify maps an Admin API customer to a snapshot
func CustomerFromShopify(tenantID string, c goshopify.Customer) domain.Customer {
	customer := domain.Customer{
		ExternalCustomerID: externalID(c.Id),
		TenantID:           tenantID,
		Email:              c.Email,
		TotalSpent:         decimal.Zero,
		OrdersCount:        c.OrdersCount,
	}
	if c.TotalSpent != nil {
		customer.TotalSpent = *c.TotalSpent
	}
	return customer
}

// ProductFromShopify maps an Admin API product
func ProductFromShopify(tenantID string, p goshopify.Product) domain.Product {
	return domain.Product{
		ExternalProductID: externalID(p.Id),
		TenantID:          tenantID,
		Title:             p.Title,
	}
}
