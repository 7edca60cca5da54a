package shopify

import (
	"context"
	"net/http"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// pageSize is the largest page the Admin REST API returns
const pageSize = 250

// ClientConfig holds the app credentials and transport settings
type ClientConfig struct {
	APIKey     string
	APISecret  string
	APIVersion string
	Retries    int
	HTTPClient *http.Client
}

// listOptions is encoded into the query string by go-shopify.
// Shopify rejects filters alongside page_info, so later pages only carry the cursor.
type listOptions struct {
	PageInfo string `url:"page_info,omitempty"`
	Limit    int    `url:"limit,omitempty"`
	Status   string `url:"status,omitempty"`
}

type client struct {
	app         goshopify.App
	cfg         ClientConfig
	rateLimiter *RateLimiter
	logger      zerolog.Logger
}

// NewClient creates a new Shopify client adapter
func NewClient(cfg ClientConfig, rateLimiter *RateLimiter, logger zerolog.Logger) ports.ShopifyClient {
	return &client{
		app: goshopify.App{
			ApiKey:    cfg.APIKey,
			ApiSecret: cfg.APISecret,
		},
		cfg:         cfg,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// createClient builds a goshopify client bound to one store session
func (c *client) createClient(ctx context.Context, op string, session domain.StoreSession) (*goshopify.Client, error) {
	if err := session.Validate(); err != nil {
		return nil, &domain.VendorError{Op: op, Reauthorize: true, Err: err}
	}
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, session.ShopDomain); err != nil {
			return nil, classifyError(op, err)
		}
	}

	opts := []goshopify.Option{goshopify.WithRetry(c.cfg.Retries)}
	if c.cfg.APIVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.cfg.APIVersion))
	}
	if c.cfg.HTTPClient != nil {
		opts = append(opts, goshopify.WithHTTPClient(c.cfg.HTTPClient))
	}

	sc, err := goshopify.NewClient(c.app, session.ShopDomain, session.AccessToken, opts...)
	if err != nil {
		return nil, &domain.VendorError{Op: op, Err: err}
	}
	return sc, nil
}

func firstPage(status string) *listOptions {
	return &listOptions{Limit: pageSize, Status: status}
}

func pageOptions(cursor ports.PageCursor, status string) *listOptions {
	if cursor == "" {
		return firstPage(status)
	}
	return &listOptions{PageInfo: string(cursor), Limit: pageSize}
}

func nextCursor(p *goshopify.Pagination) ports.PageCursor {
	if p == nil || p.NextPageOptions == nil {
		return ""
	}
	return ports.PageCursor(p.NextPageOptions.PageInfo)
}

// GetShop fetches the shop record, which doubles as a token check
func (c *client) GetShop(ctx context.Context, session domain.StoreSession) (*goshopify.Shop, error) {
	sc, err := c.createClient(ctx, "get_shop", session)
	if err != nil {
		return nil, err
	}
	shop, err := sc.Shop.Get(ctx, nil)
	if err != nil {
		return nil, classifyError("get_shop", err)
	}
	return shop, nil
}

// ListProducts returns one page of products and the cursor for the next
func (c *client) ListProducts(ctx context.Context, session domain.StoreSession, cursor ports.PageCursor) ([]goshopify.Product, ports.PageCursor, error) {
	sc, err := c.createClient(ctx, "list_products", session)
	if err != nil {
		return nil, "", err
	}
	products, pagination, err := sc.Product.ListWithPagination(ctx, pageOptions(cursor, ""))
	if err != nil {
		return nil, "", classifyError("list_products", err)
	}
	c.logPage("list_products", session, len(products), cursor)
	return products, nextCursor(pagination), nil
}

// ListOrders returns one page of orders of any status
func (c *client) ListOrders(ctx context.Context, session domain.StoreSession, cursor ports.PageCursor) ([]goshopify.Order, ports.PageCursor, error) {
	sc, err := c.createClient(ctx, "list_orders", session)
	if err != nil {
		return nil, "", err
	}
	orders, pagination, err := sc.Order.ListWithPagination(ctx, pageOptions(cursor, "any"))
	if err != nil {
		return nil, "", classifyError("list_orders", err)
	}
	c.logPage("list_orders", session, len(orders), cursor)
	return orders, nextCursor(pagination), nil
}

// ListCustomers returns one page of customers
func (c *client) ListCustomers(ctx context.Context, session domain.StoreSession, cursor ports.PageCursor) ([]goshopify.Customer, ports.PageCursor, error) {
	sc, err := c.createClient(ctx, "list_customers", session)
	if err != nil {
		return nil, "", err
	}
	customers, pagination, err := sc.Customer.ListWithPagination(ctx, pageOptions(cursor, ""))
	if err != nil {
		return nil, "", classifyError("list_customers", err)
	}
	c.logPage("list_customers", session, len(customers), cursor)
	return customers, nextCursor(pagination), nil
}

func (c *client) logPage(op string, session domain.StoreSession, n int, cursor ports.PageCursor) {
	c.logger.Debug().
		Str("op", op).
		Str("shop", session.ShopDomain).
		Int("items", n).
		Bool("firstPage", cursor == "").
		Msg("Fetched Shopify page")
}
