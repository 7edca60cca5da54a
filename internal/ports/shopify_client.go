package ports

import (
	"context"

	"shopify-insights-layer/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// PageCursor is the opaque page_info token for the next page; empty means first page
type PageCursor string

// ShopifyClient defines the Shopify Admin API calls the sync path needs.
// Every call is scoped by an explicit store session.
type ShopifyClient interface {
	GetShop(ctx context.Context, session domain.StoreSession) (*goshopify.Shop, error)
	ListProducts(ctx context.Context, session domain.StoreSession, cursor PageCursor) ([]goshopify.Product, PageCursor, error)
	ListOrders(ctx context.Context, session domain.StoreSession, cursor PageCursor) ([]goshopify.Order, PageCursor, error)
	ListCustomers(ctx context.Context, session domain.StoreSession, cursor PageCursor) ([]goshopify.Customer, PageCursor, error)
}
